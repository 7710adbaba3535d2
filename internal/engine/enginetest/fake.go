// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package enginetest provides a scripted in-memory engine for tests.
package enginetest

import (
	"context"
	"sync"

	"github.com/jeranaias/offchat-tui/internal/engine"
)

// =============================================================================
// FAKE ENGINE
// =============================================================================

// Fake is a scripted engine.Engine implementation. Tests configure
// progress schedules, canned responses, and injectable failures, then
// assert on the recorded calls.
//
// The zero value resolves every model, downloads instantly with no
// progress callbacks, and echoes inputs back as responses.
type Fake struct {
	mu sync.Mutex

	// ResolveErr, when set, fails every ResolveModel call.
	ResolveErr error

	// DownloadErr, when set, fails Download after the progress schedule
	// has been delivered.
	DownloadErr error

	// Progress is the schedule of fractions reported during Download.
	// Values are forwarded verbatim, including out-of-range ones.
	Progress []float64

	// HoldDownload, when non-nil, blocks Download after the schedule
	// until the channel is closed or the context is cancelled.
	HoldDownload chan struct{}

	// OpenErr, when set, fails every OpenSession call.
	OpenErr error

	// Responses are returned by session runs in order. When exhausted,
	// runs echo their input.
	Responses []string

	// RunErr, when set, fails every session run.
	RunErr error

	// HoldRun, when non-nil, blocks every session run until the channel
	// is closed or the context is cancelled.
	HoldRun chan struct{}

	resolved  []string
	downloads int
	sessions  []*Session
	nextResp  int
}

var _ engine.Engine = (*Fake)(nil)

// ResolveModel records the repo ID and returns a handle for it.
func (f *Fake) ResolveModel(ctx context.Context, repoID string) (engine.ModelHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.resolved = append(f.resolved, repoID)
	if f.ResolveErr != nil {
		return engine.ModelHandle{}, f.ResolveErr
	}
	return engine.ModelHandle{RepoID: repoID}, nil
}

// Download replays the progress schedule, then blocks on HoldDownload
// if configured, then returns DownloadErr or success.
func (f *Fake) Download(ctx context.Context, model engine.ModelHandle, onProgress func(fraction float64)) error {
	f.mu.Lock()
	f.downloads++
	schedule := f.Progress
	hold := f.HoldDownload
	downloadErr := f.DownloadErr
	f.mu.Unlock()

	for _, fraction := range schedule {
		select {
		case <-ctx.Done():
			return engine.ErrCancelled
		default:
		}
		if onProgress != nil {
			onProgress(fraction)
		}
	}

	if hold != nil {
		select {
		case <-ctx.Done():
			return engine.ErrCancelled
		case <-hold:
		}
	}

	select {
	case <-ctx.Done():
		return engine.ErrCancelled
	default:
	}

	return downloadErr
}

// OpenSession records and returns a new scripted session.
func (f *Fake) OpenSession(model engine.ModelHandle, cfg engine.SessionConfig) (engine.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.OpenErr != nil {
		return nil, f.OpenErr
	}

	sess := &Session{fake: f, model: model, cfg: cfg}
	f.sessions = append(f.sessions, sess)
	return sess, nil
}

// =============================================================================
// RECORDED CALLS
// =============================================================================

// Resolved returns the repo IDs passed to ResolveModel, in order.
func (f *Fake) Resolved() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.resolved...)
}

// DownloadCount returns how many downloads were started.
func (f *Fake) DownloadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.downloads
}

// Sessions returns every session opened so far, in order.
func (f *Fake) Sessions() []*Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Session(nil), f.sessions...)
}

// SessionCount returns how many sessions were opened.
func (f *Fake) SessionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sessions)
}

// nextResponse pops the next scripted response, falling back to echoing.
func (f *Fake) nextResponse(input string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.nextResp < len(f.Responses) {
		resp := f.Responses[f.nextResp]
		f.nextResp++
		return resp
	}
	return "echo: " + input
}

// =============================================================================
// FAKE SESSION
// =============================================================================

// Session is a scripted engine.Session. It records every input it
// receives so tests can verify context isolation between chats.
type Session struct {
	fake  *Fake
	model engine.ModelHandle
	cfg   engine.SessionConfig

	mu     sync.Mutex
	inputs []string
}

var _ engine.Session = (*Session)(nil)

// Run records the input and returns the next scripted response,
// streaming it to onToken in two chunks.
func (s *Session) Run(ctx context.Context, input string, cfg engine.RunConfig, onToken func(chunk string) bool) (engine.Output, error) {
	s.mu.Lock()
	s.inputs = append(s.inputs, input)
	s.mu.Unlock()

	s.fake.mu.Lock()
	hold := s.fake.HoldRun
	runErr := s.fake.RunErr
	s.fake.mu.Unlock()

	if hold != nil {
		select {
		case <-ctx.Done():
			return engine.Output{}, engine.ErrCancelled
		case <-hold:
		}
	}

	if runErr != nil {
		return engine.Output{}, runErr
	}

	text := s.fake.nextResponse(input)

	if onToken != nil {
		half := len(text) / 2
		for _, chunk := range []string{text[:half], text[half:]} {
			if chunk == "" {
				continue
			}
			if !onToken(chunk) {
				break
			}
		}
	}

	return engine.Output{Text: text, CompletionTokens: len(text) / 4}, nil
}

// Inputs returns every input submitted to this session, in order.
func (s *Session) Inputs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.inputs...)
}

// Config returns the session configuration it was opened with.
func (s *Session) Config() engine.SessionConfig {
	return s.cfg
}

// Model returns the model handle the session was opened for.
func (s *Session) Model() engine.ModelHandle {
	return s.model
}
