// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package local provides the HTTP client for the local inference daemon.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/offchat-tui/internal/engine"
)

// chatRecorder is an httptest handler that records chat requests and
// streams scripted responses.
type chatRecorder struct {
	mu       sync.Mutex
	requests []chatRequest
	respond  func(w http.ResponseWriter, turn int)
}

func (h *chatRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	h.requests = append(h.requests, req)
	turn := len(h.requests)
	h.mu.Unlock()

	h.respond(w, turn)
}

func (h *chatRecorder) request(i int) chatRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.requests[i]
}

func openTestSession(t *testing.T, handler http.Handler, cfg engine.SessionConfig) engine.Session {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := New(&Config{BaseURL: srv.URL})
	sess, err := client.OpenSession(engine.ModelHandle{RepoID: "Qwen/Qwen3-0.6B"}, cfg)
	require.NoError(t, err)
	return sess
}

func TestSessionRunStreams(t *testing.T) {
	handler := &chatRecorder{respond: func(w http.ResponseWriter, turn int) {
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"Hel"}}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"lo"},"done":true,"context":[7,8,9],"prompt_eval_count":12,"eval_count":4}`)
	}}
	sess := openTestSession(t, handler, engine.SessionConfig{ContextMode: engine.ContextDynamic})

	var chunks []string
	out, err := sess.Run(context.Background(), "hi there", engine.RunConfig{}, func(chunk string) bool {
		chunks = append(chunks, chunk)
		return true
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello", out.Text)
	assert.Equal(t, 12, out.PromptTokens)
	assert.Equal(t, 4, out.CompletionTokens)
	assert.Equal(t, []string{"Hel", "lo"}, chunks)

	req := handler.request(0)
	assert.Equal(t, "Qwen/Qwen3-0.6B", req.Model)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "user", req.Messages[0].Role)
	assert.Equal(t, "hi there", req.Messages[0].Content)
}

func TestSessionCarriesHistoryAndContext(t *testing.T) {
	handler := &chatRecorder{respond: func(w http.ResponseWriter, turn int) {
		fmt.Fprintf(w, `{"message":{"role":"assistant","content":"reply %d"},"done":true,"context":[%d]}`+"\n", turn, turn)
	}}
	sess := openTestSession(t, handler, engine.SessionConfig{ContextMode: engine.ContextDynamic})

	_, err := sess.Run(context.Background(), "first", engine.RunConfig{}, nil)
	require.NoError(t, err)
	_, err = sess.Run(context.Background(), "second", engine.RunConfig{}, nil)
	require.NoError(t, err)

	// First turn has no carried context.
	assert.Empty(t, handler.request(0).Context)

	// Second turn replays the full exchange and carries the daemon's
	// context tokens forward.
	second := handler.request(1)
	assert.Equal(t, []int{1}, second.Context)
	require.Len(t, second.Messages, 3)
	assert.Equal(t, "user", second.Messages[0].Role)
	assert.Equal(t, "first", second.Messages[0].Content)
	assert.Equal(t, "assistant", second.Messages[1].Role)
	assert.Equal(t, "reply 1", second.Messages[1].Content)
	assert.Equal(t, "user", second.Messages[2].Role)
	assert.Equal(t, "second", second.Messages[2].Content)
}

func TestSessionStaticContextOmitsTokens(t *testing.T) {
	handler := &chatRecorder{respond: func(w http.ResponseWriter, turn int) {
		fmt.Fprintln(w, `{"message":{"content":"ok"},"done":true,"context":[5]}`)
	}}
	sess := openTestSession(t, handler, engine.SessionConfig{ContextMode: engine.ContextStatic})

	_, err := sess.Run(context.Background(), "first", engine.RunConfig{}, nil)
	require.NoError(t, err)
	_, err = sess.Run(context.Background(), "second", engine.RunConfig{}, nil)
	require.NoError(t, err)

	assert.Empty(t, handler.request(0).Context)
	assert.Empty(t, handler.request(1).Context)
}

func TestSessionSystemPromptFirstTurnOnly(t *testing.T) {
	handler := &chatRecorder{respond: func(w http.ResponseWriter, turn int) {
		fmt.Fprintln(w, `{"message":{"content":"ok"},"done":true}`)
	}}
	sess := openTestSession(t, handler, engine.SessionConfig{
		ContextMode:  engine.ContextDynamic,
		SystemPrompt: "You are concise.",
	})

	_, err := sess.Run(context.Background(), "first", engine.RunConfig{}, nil)
	require.NoError(t, err)
	_, err = sess.Run(context.Background(), "second", engine.RunConfig{}, nil)
	require.NoError(t, err)

	first := handler.request(0)
	require.Len(t, first.Messages, 2)
	assert.Equal(t, "system", first.Messages[0].Role)
	assert.Equal(t, "You are concise.", first.Messages[0].Content)

	second := handler.request(1)
	for _, msg := range second.Messages {
		assert.NotEqual(t, "system", msg.Role, "system prompt repeated after first turn")
	}
}

func TestSessionPredicateStopsGeneration(t *testing.T) {
	handler := &chatRecorder{respond: func(w http.ResponseWriter, turn int) {
		fmt.Fprintln(w, `{"message":{"content":"one "}}`)
		fmt.Fprintln(w, `{"message":{"content":"two "}}`)
		fmt.Fprintln(w, `{"message":{"content":"three"},"done":true}`)
	}}
	sess := openTestSession(t, handler, engine.SessionConfig{})

	calls := 0
	out, err := sess.Run(context.Background(), "count", engine.RunConfig{}, func(chunk string) bool {
		calls++
		return calls < 2
	})
	require.NoError(t, err)

	// The predicate stopped after the second chunk; the collected text
	// covers what arrived, not the full response.
	assert.Equal(t, 2, calls)
	assert.Equal(t, "one two ", out.Text)
}

func TestSessionRunOptions(t *testing.T) {
	handler := &chatRecorder{respond: func(w http.ResponseWriter, turn int) {
		fmt.Fprintln(w, `{"message":{"content":"ok"},"done":true}`)
	}}
	sess := openTestSession(t, handler, engine.SessionConfig{})

	_, err := sess.Run(context.Background(), "hi", engine.RunConfig{Temperature: 0.7, MaxTokens: 256}, nil)
	require.NoError(t, err)

	req := handler.request(0)
	require.NotNil(t, req.Options)
	assert.Equal(t, 0.7, req.Options.Temperature)
	assert.Equal(t, 256, req.Options.NumPredict)
}

func TestSessionDaemonError(t *testing.T) {
	handler := &chatRecorder{respond: func(w http.ResponseWriter, turn int) {
		fmt.Fprintln(w, `{"error":"model runner has unexpectedly stopped"}`)
	}}
	sess := openTestSession(t, handler, engine.SessionConfig{})

	_, err := sess.Run(context.Background(), "hi", engine.RunConfig{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, engine.ErrInference)
	assert.Contains(t, err.Error(), "unexpectedly stopped")
}
