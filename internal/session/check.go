// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives inference sessions for the active chat.
package session

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/jeranaias/offchat-tui/internal/engine"
	"github.com/jeranaias/offchat-tui/internal/model"
)

// ProbeInput is the fixed question used to validate a freshly
// downloaded model before unlocking the chat screen.
const ProbeInput = "Who are you?"

// =============================================================================
// SNAPSHOT
// =============================================================================

// CheckSnapshot is a point-in-time copy of the model check state.
type CheckSnapshot struct {
	Model     model.Descriptor
	Thinking  bool
	Answered  bool
	Answer    string
	Failed    bool
	ErrorText string
}

// =============================================================================
// CHECK FLOW
// =============================================================================

// CheckFlow runs the one-shot model probe: a single fixed input whose
// answer proves the model loads and generates. Outcomes are Answered,
// Failed, or thinking forever if the engine never returns; no timeout
// is applied here.
//
// On success the session is retained so the first chat can adopt it
// instead of opening a second one.
type CheckFlow struct {
	mu sync.Mutex

	eng    engine.Engine
	logger *log.Logger
	notify func(CheckSnapshot)

	desc     model.Descriptor
	session  engine.Session
	thinking bool
	answered bool
	answer   string
	failed   bool
	errText  string
}

// NewCheckFlow creates a check flow for the given model.
func NewCheckFlow(eng engine.Engine, desc model.Descriptor, logger *log.Logger, notify func(CheckSnapshot)) *CheckFlow {
	if logger == nil {
		logger = log.Default()
	}
	return &CheckFlow{
		eng:    eng,
		logger: logger,
		notify: notify,
		desc:   desc,
	}
}

// Snapshot returns a copy of the current state.
func (f *CheckFlow) Snapshot() CheckSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *CheckFlow) snapshotLocked() CheckSnapshot {
	return CheckSnapshot{
		Model:     f.desc,
		Thinking:  f.thinking,
		Answered:  f.answered,
		Answer:    f.answer,
		Failed:    f.failed,
		ErrorText: f.errText,
	}
}

// Run starts the probe. A no-op while a probe is already in flight or
// after one has answered; re-running after a failure retries from
// scratch. The probe runs on its own goroutine and the outcome arrives
// through the notify callback.
func (f *CheckFlow) Run(ctx context.Context) {
	f.mu.Lock()
	if f.thinking || f.answered {
		f.mu.Unlock()
		return
	}
	f.thinking = true
	f.failed = false
	f.errText = ""
	desc := f.desc
	snap := f.snapshotLocked()
	f.mu.Unlock()

	f.emit(snap)
	go f.probe(ctx, desc)
}

func (f *CheckFlow) probe(ctx context.Context, desc model.Descriptor) {
	handle, err := f.eng.ResolveModel(ctx, desc.ID)
	if err != nil {
		f.fail(err)
		return
	}

	sess, err := f.eng.OpenSession(handle, engine.SessionConfig{
		ContextMode: engine.ContextDynamic,
	})
	if err != nil {
		f.fail(err)
		return
	}

	out, err := sess.Run(ctx, ProbeInput, engine.RunConfig{}, func(chunk string) bool {
		return true
	})
	if err != nil {
		f.fail(err)
		return
	}

	f.mu.Lock()
	f.session = sess
	f.thinking = false
	f.answered = true
	f.answer = out.Text
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.emit(snap)
}

func (f *CheckFlow) fail(err error) {
	f.logger.Error("model check failed", "model", f.desc.ID, "error", err)

	f.mu.Lock()
	f.thinking = false
	f.failed = true
	f.errText = err.Error()
	f.session = nil
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.emit(snap)
}

// TakeSession hands the validated session over to its new owner and
// clears it here. Returns nil when the probe has not answered.
func (f *CheckFlow) TakeSession() engine.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess := f.session
	f.session = nil
	return sess
}

func (f *CheckFlow) emit(snap CheckSnapshot) {
	if f.notify != nil {
		f.notify(snap)
	}
}
