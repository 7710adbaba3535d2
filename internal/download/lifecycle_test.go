// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package download tracks model download state from selection to ready.
package download

import (
	"context"
	"testing"
	"time"

	"github.com/jeranaias/offchat-tui/internal/engine"
	"github.com/jeranaias/offchat-tui/internal/engine/enginetest"
	"github.com/jeranaias/offchat-tui/internal/model"
)

// newTestLifecycle wires a lifecycle to a snapshot channel with
// notification throttling off, so every state change is observable.
func newTestLifecycle(eng engine.Engine) (*Lifecycle, chan Snapshot) {
	ch := make(chan Snapshot, 64)
	l := New(eng, Config{NotifyInterval: 0}, nil, func(snap Snapshot) {
		ch <- snap
	})
	return l, ch
}

// waitSnapshot reads snapshots until one satisfies cond.
func waitSnapshot(t *testing.T, ch <-chan Snapshot, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case snap := <-ch:
			if cond(snap) {
				return snap
			}
		case <-deadline:
			t.Fatal("timed out waiting for snapshot")
		}
	}
}

func TestDownloadSuccess(t *testing.T) {
	fake := &enginetest.Fake{Progress: []float64{0.25, 0.5, 1.0}}
	l, ch := newTestLifecycle(fake)
	l.SelectModel(model.Catalog[0])

	l.Start(context.Background())

	snap := waitSnapshot(t, ch, func(s Snapshot) bool { return s.Phase == PhaseReady })
	if !snap.IsReady {
		t.Error("IsReady = false after success")
	}
	if snap.IsDownloading {
		t.Error("IsDownloading = true after success")
	}
	if snap.Progress != 1 || snap.Percent != 100 {
		t.Errorf("Progress = %v (%d%%), want 1.0 (100%%)", snap.Progress, snap.Percent)
	}
	if snap.StatusText != "Download complete" {
		t.Errorf("StatusText = %q, want %q", snap.StatusText, "Download complete")
	}
	if got := fake.Resolved(); len(got) != 1 || got[0] != model.Catalog[0].ID {
		t.Errorf("Resolved = %v", got)
	}
}

func TestAlreadyDownloaded(t *testing.T) {
	// Zero progress callbacks means the weights were already present.
	fake := &enginetest.Fake{}
	l, ch := newTestLifecycle(fake)

	l.Start(context.Background())

	snap := waitSnapshot(t, ch, func(s Snapshot) bool { return s.Phase == PhaseReady })
	if snap.Progress != 1 {
		t.Errorf("Progress = %v, want 1.0", snap.Progress)
	}
	if snap.StatusText != "Model already downloaded" {
		t.Errorf("StatusText = %q, want %q", snap.StatusText, "Model already downloaded")
	}
	// The two completion messages must stay distinguishable.
	if snap.StatusText == "Download complete" {
		t.Error("Inferred completion not distinguishable from a real download")
	}
}

func TestProgressClamped(t *testing.T) {
	fake := &enginetest.Fake{Progress: []float64{-0.2, 0.5, 1.5}}
	l, ch := newTestLifecycle(fake)

	l.Start(context.Background())

	var seen []float64
	waitSnapshot(t, ch, func(s Snapshot) bool {
		if s.Phase == PhaseDownloading {
			seen = append(seen, s.Progress)
		}
		return s.Phase == PhaseReady
	})

	for _, p := range seen {
		if p < 0 || p > 1 {
			t.Errorf("Observed out-of-range progress %v", p)
		}
	}
	// -0.2 clamps to 0 and 1.5 clamps to 1.
	found0, found1 := false, false
	for _, p := range seen {
		if p == 0 {
			found0 = true
		}
		if p == 1 {
			found1 = true
		}
	}
	if !found0 || !found1 {
		t.Errorf("Expected clamped endpoints in %v", seen)
	}
}

func TestCancelMidFlight(t *testing.T) {
	hold := make(chan struct{})
	fake := &enginetest.Fake{Progress: []float64{0.3}, HoldDownload: hold}
	l, ch := newTestLifecycle(fake)

	l.Start(context.Background())
	waitSnapshot(t, ch, func(s Snapshot) bool {
		return s.Phase == PhaseDownloading && s.Progress == 0.3
	})

	l.Cancel()

	snap := waitSnapshot(t, ch, func(s Snapshot) bool { return s.Phase == PhaseCancelled })
	if snap.IsDownloading {
		t.Error("IsDownloading = true after cancel")
	}
	if snap.Progress != 0 {
		t.Errorf("Progress = %v after cancel, want 0", snap.Progress)
	}
	if snap.IsReady {
		t.Error("IsReady = true after cancel")
	}
	if snap.StatusText != "Cancelled" {
		t.Errorf("StatusText = %q, want %q", snap.StatusText, "Cancelled")
	}
	if snap.ErrorText != "" {
		t.Errorf("ErrorText = %q after cancel, want empty", snap.ErrorText)
	}

	// Release the fake; its late cancellation return must not disturb
	// the optimistically reset state.
	close(hold)
	final := l.Snapshot()
	if final.Phase != PhaseCancelled || final.Progress != 0 {
		t.Errorf("State disturbed by late completion: %+v", final)
	}
}

func TestStartReentrantNoOp(t *testing.T) {
	hold := make(chan struct{})
	fake := &enginetest.Fake{Progress: []float64{0.5}, HoldDownload: hold}
	l, ch := newTestLifecycle(fake)

	l.Start(context.Background())
	waitSnapshot(t, ch, func(s Snapshot) bool { return s.Phase == PhaseDownloading })

	// Second Start while in flight must not spawn another download.
	l.Start(context.Background())

	close(hold)
	waitSnapshot(t, ch, func(s Snapshot) bool { return s.Phase == PhaseReady })

	if fake.DownloadCount() != 1 {
		t.Errorf("DownloadCount = %d, want 1", fake.DownloadCount())
	}
	if len(fake.Resolved()) != 1 {
		t.Errorf("Resolved %d times, want 1", len(fake.Resolved()))
	}
}

func TestRetryAfterFailure(t *testing.T) {
	fake := &enginetest.Fake{DownloadErr: engine.ErrNetwork}
	l, ch := newTestLifecycle(fake)

	l.Start(context.Background())
	snap := waitSnapshot(t, ch, func(s Snapshot) bool { return s.Phase == PhaseFailed })
	if snap.ErrorText == "" {
		t.Error("ErrorText empty after failure")
	}
	if snap.IsDownloading {
		t.Error("IsDownloading = true after failure")
	}

	// Retry from the terminal state succeeds once the network recovers.
	fake.DownloadErr = nil
	fake.Progress = []float64{1.0}
	l.Start(context.Background())

	snap = waitSnapshot(t, ch, func(s Snapshot) bool { return s.Phase == PhaseReady })
	if snap.ErrorText != "" {
		t.Errorf("ErrorText = %q after retry, want empty", snap.ErrorText)
	}
	if !snap.IsReady {
		t.Error("IsReady = false after retry")
	}
}

func TestSelectModelKeepsDisplayFields(t *testing.T) {
	fake := &enginetest.Fake{Progress: []float64{1.0}}
	l, ch := newTestLifecycle(fake)

	l.Start(context.Background())
	waitSnapshot(t, ch, func(s Snapshot) bool { return s.Phase == PhaseReady })

	l.SelectModel(model.Catalog[2])

	snap := l.Snapshot()
	if snap.Model.ID != model.Catalog[2].ID {
		t.Errorf("Model = %q, want %q", snap.Model.ID, model.Catalog[2].ID)
	}
	// Progress display survives until the next Start.
	if snap.Progress != 1 || snap.StatusText != "Download complete" {
		t.Errorf("Display fields cleared by SelectModel: %+v", snap)
	}
}

func TestStartWithoutEngine(t *testing.T) {
	l, ch := newTestLifecycle(nil)

	l.Start(context.Background())

	snap := waitSnapshot(t, ch, func(s Snapshot) bool { return s.Phase == PhaseFailed })
	if snap.ErrorText == "" {
		t.Error("ErrorText empty for missing engine")
	}
}

func TestCancelWhenIdleNoOp(t *testing.T) {
	fake := &enginetest.Fake{}
	l, _ := newTestLifecycle(fake)

	l.Cancel()

	if snap := l.Snapshot(); snap.Phase != PhaseIdle {
		t.Errorf("Phase = %v after idle cancel, want idle", snap.Phase)
	}
}
