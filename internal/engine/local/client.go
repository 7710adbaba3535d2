// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package local provides the HTTP client for the local inference daemon.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jeranaias/offchat-tui/internal/engine"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// Config holds configuration options for the local engine client.
type Config struct {
	// BaseURL is the daemon API base URL (default: http://127.0.0.1:11434)
	// Note: Uses explicit IPv4 address instead of localhost to avoid IPv6
	// resolution issues on Windows
	BaseURL string

	// APIKey is the engine credential, sent as a bearer token when set.
	APIKey string

	// Timeout for non-streaming requests (default: 30s)
	Timeout time.Duration
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "http://127.0.0.1:11434",
		Timeout: 30 * time.Second,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the local inference daemon over HTTP. It implements
// engine.Engine and is safe for concurrent use.
//
// Example:
//
//	eng := local.New(nil)
//	handle, err := eng.ResolveModel(ctx, "Qwen/Qwen3-0.6B")
type Client struct {
	config     *Config
	httpClient *http.Client
}

var _ engine.Engine = (*Client)(nil)

// New creates a new client. A nil config uses defaults; zero fields are
// filled in.
func New(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://127.0.0.1:11434"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// =============================================================================
// HEALTH CHECK
// =============================================================================

// CheckRunning verifies that the daemon is reachable.
func (c *Client) CheckRunning(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &engine.Error{Type: engine.ErrTypeNetwork, Message: "inference daemon is not reachable", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return engine.ErrAuth
	}
	if resp.StatusCode != http.StatusOK {
		return &engine.Error{
			Type:    engine.ErrTypeNetwork,
			Message: "unexpected status from daemon: " + resp.Status,
		}
	}

	return nil
}

// =============================================================================
// MODEL RESOLUTION
// =============================================================================

// ResolveModel resolves a model by repository identifier via the show
// endpoint. A 404 maps to engine.ErrNotFound.
func (c *Client) ResolveModel(ctx context.Context, repoID string) (engine.ModelHandle, error) {
	body, err := json.Marshal(showRequest{Name: repoID})
	if err != nil {
		return engine.ModelHandle{}, &engine.Error{Type: engine.ErrTypeUnknown, Message: "failed to marshal request", Cause: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/show", bytes.NewReader(body))
	if err != nil {
		return engine.ModelHandle{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return engine.ModelHandle{}, engine.ErrCancelled
		}
		return engine.ModelHandle{}, &engine.Error{Type: engine.ErrTypeNetwork, Message: "model resolution failed", Cause: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return engine.ModelHandle{}, engine.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return engine.ModelHandle{}, engine.ErrAuth
	case resp.StatusCode != http.StatusOK:
		return engine.ModelHandle{}, &engine.Error{
			Type:    engine.ErrTypeNetwork,
			Message: "model resolution failed: " + resp.Status,
		}
	}

	return engine.ModelHandle{RepoID: repoID}, nil
}

// =============================================================================
// SESSIONS
// =============================================================================

// OpenSession opens a chat session for the model. The session keeps its
// conversation state client-side and, in dynamic context mode, carries
// the daemon's context tokens forward between turns.
func (c *Client) OpenSession(model engine.ModelHandle, cfg engine.SessionConfig) (engine.Session, error) {
	if model.RepoID == "" {
		return nil, engine.ErrResource
	}

	return &chatSession{
		client: c,
		model:  model,
		cfg:    cfg,
	}, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// newRequest builds a request against the daemon, attaching the
// credential header when configured.
func (c *Client) newRequest(ctx context.Context, method, path string, body *bytes.Reader) (*http.Request, error) {
	var req *http.Request
	var err error
	if body == nil {
		req, err = http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	}
	if err != nil {
		return nil, &engine.Error{Type: engine.ErrTypeUnknown, Message: "failed to create request", Cause: err}
	}

	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
	return req, nil
}

// decodeErrorBody tries to extract a daemon error message from a
// non-200 response body.
func decodeErrorBody(resp *http.Response, fallback string) *engine.Error {
	var daemonErr daemonError
	if err := json.NewDecoder(resp.Body).Decode(&daemonErr); err == nil && daemonErr.Error != "" {
		return &engine.Error{Type: engine.ErrTypeInference, Message: daemonErr.Error}
	}
	return &engine.Error{Type: engine.ErrTypeInference, Message: fallback + ": " + resp.Status}
}
