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
	"strings"
	"sync"

	"github.com/jeranaias/offchat-tui/internal/engine"
)

// =============================================================================
// CHAT SESSION
// =============================================================================

// chatSession implements engine.Session against the daemon's chat
// endpoint. The session keeps the message history client-side; in
// dynamic context mode it also carries the daemon's context tokens
// forward so the prompt is not recomputed from scratch each turn.
type chatSession struct {
	client *Client
	model  engine.ModelHandle
	cfg    engine.SessionConfig

	mu      sync.Mutex
	history []chatMessage
	context []int
}

// Run submits input to the session and blocks until the full response
// has been collected. onToken is invoked for every streamed chunk;
// returning false stops generation early without error.
func (s *chatSession) Run(ctx context.Context, input string, cfg engine.RunConfig, onToken func(chunk string) bool) (engine.Output, error) {
	s.mu.Lock()

	messages := make([]chatMessage, 0, len(s.history)+2)
	if s.cfg.SystemPrompt != "" && len(s.history) == 0 {
		messages = append(messages, chatMessage{Role: "system", Content: s.cfg.SystemPrompt})
	}
	messages = append(messages, s.history...)
	messages = append(messages, chatMessage{Role: "user", Content: input})

	reqBody := chatRequest{
		Model:    s.model.RepoID,
		Messages: messages,
		Stream:   true,
	}
	if s.cfg.ContextMode == engine.ContextDynamic {
		reqBody.Context = s.context
	}
	if cfg.Temperature != 0 || cfg.MaxTokens != 0 {
		reqBody.Options = &chatOptions{
			Temperature: cfg.Temperature,
			NumPredict:  cfg.MaxTokens,
		}
	}
	s.mu.Unlock()

	body, err := json.Marshal(reqBody)
	if err != nil {
		return engine.Output{}, &engine.Error{Type: engine.ErrTypeUnknown, Message: "failed to marshal request", Cause: err}
	}

	// Streaming requests manage their own lifetime via ctx.
	streamClient := &http.Client{}

	req, err := s.client.newRequest(ctx, http.MethodPost, "/api/chat", bytes.NewReader(body))
	if err != nil {
		return engine.Output{}, err
	}

	resp, err := streamClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return engine.Output{}, engine.ErrCancelled
		}
		return engine.Output{}, &engine.Error{Type: engine.ErrTypeNetwork, Message: "inference request failed", Cause: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return engine.Output{}, engine.ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return engine.Output{}, engine.ErrAuth
	case resp.StatusCode != http.StatusOK:
		return engine.Output{}, decodeErrorBody(resp, "inference failed")
	}

	output, carried, err := processChatStream(ctx, resp.Body, onToken)
	if err != nil {
		return engine.Output{}, err
	}

	// Record the completed exchange so the next turn sees it.
	s.mu.Lock()
	s.history = append(s.history,
		chatMessage{Role: "user", Content: input},
		chatMessage{Role: "assistant", Content: output.Text},
	)
	if s.cfg.ContextMode == engine.ContextDynamic && len(carried) > 0 {
		s.context = carried
	}
	s.mu.Unlock()

	return output, nil
}

// processChatStream reads the chat response line by line, forwarding
// chunks to onToken and accumulating the full text.
func processChatStream(ctx context.Context, r io.Reader, onToken func(chunk string) bool) (engine.Output, []int, error) {
	reader := bufio.NewReader(r)
	// PERFORMANCE: strings.Builder avoids quadratic allocations
	var text strings.Builder
	var output engine.Output
	var carried []int

	for {
		select {
		case <-ctx.Done():
			return engine.Output{}, nil, engine.ErrCancelled
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			if errors.Is(err, context.Canceled) {
				return engine.Output{}, nil, engine.ErrCancelled
			}
			return engine.Output{}, nil, &engine.Error{Type: engine.ErrTypeInference, Message: "response stream interrupted", Cause: err}
		}
		atEOF := err == io.EOF

		if len(line) > 0 {
			var chunk chatChunk
			if jsonErr := json.Unmarshal(line, &chunk); jsonErr == nil {
				if chunk.Error != "" {
					return engine.Output{}, nil, &engine.Error{Type: engine.ErrTypeInference, Message: chunk.Error}
				}

				if chunk.Message.Content != "" {
					text.WriteString(chunk.Message.Content)
					if onToken != nil && !onToken(chunk.Message.Content) {
						// Predicate stopped generation; return what we have.
						output.Text = text.String()
						return output, carried, nil
					}
				}

				if chunk.Done {
					output.Text = text.String()
					output.PromptTokens = chunk.PromptEvalCount
					output.CompletionTokens = chunk.EvalCount
					carried = chunk.Context
					return output, carried, nil
				}
			}
		}

		if atEOF {
			output.Text = text.String()
			return output, carried, nil
		}
	}
}
