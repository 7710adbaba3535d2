// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package local provides the HTTP client for the local inference daemon.
package local

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/jeranaias/offchat-tui/internal/engine"
)

// =============================================================================
// MODEL DOWNLOAD
// =============================================================================

// Download pulls the model's weights through the daemon, reporting
// fractional progress for every byte-count line the daemon streams.
// Lines without byte counts (manifest and verification phases) produce
// no progress callback, so an already-present model completes with zero
// callbacks.
func (c *Client) Download(ctx context.Context, model engine.ModelHandle, onProgress func(fraction float64)) error {
	body, err := json.Marshal(pullRequest{Name: model.RepoID, Stream: true})
	if err != nil {
		return &engine.Error{Type: engine.ErrTypeUnknown, Message: "failed to marshal request", Cause: err}
	}

	// Streaming requests manage their own lifetime via ctx; the shared
	// client's timeout would kill long downloads.
	streamClient := &http.Client{}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/pull", bytes.NewReader(body))
	if err != nil {
		return err
	}

	resp, err := streamClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return engine.ErrCancelled
		}
		return &engine.Error{Type: engine.ErrTypeNetwork, Message: "download request failed", Cause: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return engine.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return engine.ErrAuth
	case resp.StatusCode != http.StatusOK:
		return decodeErrorBody(resp, "download failed")
	}

	return processPullStream(ctx, resp.Body, onProgress)
}

// processPullStream reads the pull response line by line and forwards
// progress fractions to the callback.
func processPullStream(ctx context.Context, r io.Reader, onProgress func(fraction float64)) error {
	reader := bufio.NewReader(r)

	for {
		select {
		case <-ctx.Done():
			return engine.ErrCancelled
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				if len(line) == 0 {
					return nil
				}
				// Process the trailing line, then finish.
			} else {
				if errors.Is(err, context.Canceled) {
					return engine.ErrCancelled
				}
				return &engine.Error{Type: engine.ErrTypeNetwork, Message: "download stream interrupted", Cause: err}
			}
		}

		var progress pullProgress
		if jsonErr := json.Unmarshal(line, &progress); jsonErr != nil {
			// Skip malformed lines
			if err == io.EOF {
				return nil
			}
			continue
		}

		if progress.Error != "" {
			return &engine.Error{Type: engine.ErrTypeNetwork, Message: progress.Error}
		}

		if progress.Total > 0 && onProgress != nil {
			onProgress(float64(progress.Completed) / float64(progress.Total))
		}

		if err == io.EOF {
			return nil
		}
	}
}
