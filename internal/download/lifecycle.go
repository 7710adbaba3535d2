// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package download tracks model download state from selection to ready.
package download

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/jeranaias/offchat-tui/internal/engine"
	"github.com/jeranaias/offchat-tui/internal/model"
)

// =============================================================================
// PHASES
// =============================================================================

// Phase is the download lifecycle state.
type Phase int

const (
	// PhaseIdle means no download has been started.
	PhaseIdle Phase = iota

	// PhaseInitializing means the model is being resolved.
	PhaseInitializing

	// PhaseDownloading means weight transfer is in progress.
	PhaseDownloading

	// PhaseReady means the model is downloaded and usable.
	PhaseReady

	// PhaseCancelled means the user cancelled the download.
	PhaseCancelled

	// PhaseFailed means the download failed with an error.
	PhaseFailed
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInitializing:
		return "initializing"
	case PhaseDownloading:
		return "downloading"
	case PhaseReady:
		return "ready"
	case PhaseCancelled:
		return "cancelled"
	case PhaseFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Status messages. The completed and already-present cases are distinct
// on purpose: a download that finished with zero progress reports means
// the weights were already on disk.
const (
	statusResolving = "Preparing model..."
	statusComplete  = "Download complete"
	statusAlready   = "Model already downloaded"
	statusCancelled = "Cancelled"
)

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is a point-in-time copy of the download state, safe to read
// from any goroutine.
type Snapshot struct {
	Phase         Phase
	Model         model.Descriptor
	IsDownloading bool
	Progress      float64 // always within [0,1]
	Percent       int     // derived from Progress
	StatusText    string
	IsReady       bool
	ErrorText     string
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Config holds lifecycle tuning.
type Config struct {
	// NotifyInterval is the minimum gap between intermediate progress
	// notifications. Terminal events always notify. Zero disables
	// throttling.
	NotifyInterval time.Duration
}

// DefaultConfig returns the default lifecycle configuration.
func DefaultConfig() Config {
	return Config{NotifyInterval: 100 * time.Millisecond}
}

// Lifecycle drives one model download at a time:
//
//	Idle -> Initializing -> Downloading -> Ready
//
// with Cancelled and Failed as alternate terminals. Re-invoking Start
// from a terminal state retries from scratch. All state lives behind
// the mutex; observers receive snapshots through the notify callback
// and must re-marshal onto their own context.
type Lifecycle struct {
	mu sync.Mutex

	eng     engine.Engine
	logger  *log.Logger
	notify  func(Snapshot)
	limiter *rate.Limiter

	phase         Phase
	selected      model.Descriptor
	isDownloading bool
	progress      float64
	statusText    string
	isReady       bool
	errorText     string

	// gen increments per Start so a cancelled attempt's late callbacks
	// cannot touch the state of a newer attempt.
	gen    int
	cancel context.CancelFunc
}

// New creates a download lifecycle. notify may be nil; when set it is
// called with a snapshot after every observable state change, from
// whichever goroutine caused the change.
func New(eng engine.Engine, cfg Config, logger *log.Logger, notify func(Snapshot)) *Lifecycle {
	if logger == nil {
		logger = log.Default()
	}
	var limiter *rate.Limiter
	if cfg.NotifyInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.NotifyInterval), 1)
	}
	return &Lifecycle{
		eng:      eng,
		logger:   logger,
		notify:   notify,
		limiter:  limiter,
		phase:    PhaseIdle,
		selected: model.DefaultDescriptor(),
	}
}

// Snapshot returns a copy of the current state.
func (l *Lifecycle) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Lifecycle) snapshotLocked() Snapshot {
	return Snapshot{
		Phase:         l.phase,
		Model:         l.selected,
		IsDownloading: l.isDownloading,
		Progress:      l.progress,
		Percent:       int(l.progress * 100),
		StatusText:    l.statusText,
		IsReady:       l.isReady,
		ErrorText:     l.errorText,
	}
}

// =============================================================================
// OPERATIONS
// =============================================================================

// SelectModel records the model to download. Allowed in any state; the
// previous attempt's progress display is left intact until a new
// download starts.
func (l *Lifecycle) SelectModel(desc model.Descriptor) {
	l.mu.Lock()
	l.selected = desc
	snap := l.snapshotLocked()
	l.mu.Unlock()
	l.emit(snap)
}

// Selected returns the currently selected model.
func (l *Lifecycle) Selected() model.Descriptor {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selected
}

// Start begins downloading the selected model. A no-op while a
// download is already in flight. Calling from a Failed or Cancelled
// state retries from scratch. The work runs on its own goroutine;
// progress arrives through the notify callback.
func (l *Lifecycle) Start(ctx context.Context) {
	l.mu.Lock()
	if l.isDownloading {
		l.mu.Unlock()
		return
	}
	if l.eng == nil {
		l.phase = PhaseFailed
		l.errorText = "engine unavailable"
		snap := l.snapshotLocked()
		l.mu.Unlock()
		l.emit(snap)
		return
	}

	l.gen++
	gen := l.gen
	l.phase = PhaseInitializing
	l.isDownloading = true
	l.isReady = false
	l.progress = 0
	l.errorText = ""
	l.statusText = statusResolving
	desc := l.selected

	dctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.emit(snap)
	go l.run(dctx, gen, desc)
}

// Cancel requests cooperative cancellation of the in-flight download.
// State is reset optimistically: isDownloading and progress drop
// immediately even though the underlying operation may still be
// unwinding. A no-op when nothing is downloading.
func (l *Lifecycle) Cancel() {
	l.mu.Lock()
	if !l.isDownloading {
		l.mu.Unlock()
		return
	}
	cancel := l.cancel
	l.phase = PhaseCancelled
	l.isDownloading = false
	l.progress = 0
	l.statusText = statusCancelled
	l.errorText = ""
	snap := l.snapshotLocked()
	l.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	l.emit(snap)
}

// =============================================================================
// DOWNLOAD EXECUTION
// =============================================================================

func (l *Lifecycle) run(ctx context.Context, gen int, desc model.Descriptor) {
	handle, err := l.eng.ResolveModel(ctx, desc.ID)
	if err != nil {
		l.finishWithError(gen, err)
		return
	}

	l.mu.Lock()
	if gen != l.gen || l.phase != PhaseInitializing {
		l.mu.Unlock()
		return
	}
	l.phase = PhaseDownloading
	l.statusText = "Downloading 0%"
	snap := l.snapshotLocked()
	l.mu.Unlock()
	l.emit(snap)

	callbacks := 0
	err = l.eng.Download(ctx, handle, func(fraction float64) {
		callbacks++
		l.reportProgress(gen, fraction)
	})
	if err != nil {
		l.finishWithError(gen, err)
		return
	}
	l.finishSuccess(gen, callbacks == 0)
}

// reportProgress clamps a reported fraction to [0,1] and records it.
// Intermediate notifications are throttled; the stored state always
// reflects the latest report.
func (l *Lifecycle) reportProgress(gen int, fraction float64) {
	fraction = clamp01(fraction)

	l.mu.Lock()
	if gen != l.gen || l.phase != PhaseDownloading {
		l.mu.Unlock()
		return
	}
	l.progress = fraction
	l.statusText = fmt.Sprintf("Downloading %d%%", int(fraction*100))
	snap := l.snapshotLocked()
	l.mu.Unlock()

	if l.limiter == nil || l.limiter.Allow() {
		l.emit(snap)
	}
}

// finishSuccess records a completed download. inferred means the
// engine reported success without a single progress callback, which
// the lifecycle reads as "the model was already on disk".
func (l *Lifecycle) finishSuccess(gen int, inferred bool) {
	l.mu.Lock()
	if gen != l.gen || l.phase == PhaseCancelled {
		// A cancel won the race; the late completion is ignorable.
		l.mu.Unlock()
		return
	}
	l.phase = PhaseReady
	l.isDownloading = false
	l.isReady = true
	l.progress = 1
	if inferred {
		l.statusText = statusAlready
	} else {
		l.statusText = statusComplete
	}
	snap := l.snapshotLocked()
	l.mu.Unlock()
	l.emit(snap)
}

// finishWithError records a failed or cancelled download.
func (l *Lifecycle) finishWithError(gen int, err error) {
	if engine.IsCancelled(err) {
		// Cancel already reset the state optimistically; the engine
		// confirming the cancellation changes nothing.
		return
	}

	l.mu.Lock()
	if gen != l.gen || l.phase == PhaseCancelled {
		l.mu.Unlock()
		return
	}
	l.logger.Error("download failed", "model", l.selected.ID, "error", err)
	l.phase = PhaseFailed
	l.isDownloading = false
	l.errorText = err.Error()
	l.statusText = ""
	snap := l.snapshotLocked()
	l.mu.Unlock()
	l.emit(snap)
}

// emit delivers a snapshot to the observer, if any.
func (l *Lifecycle) emit(snap Snapshot) {
	if l.notify != nil {
		l.notify(snap)
	}
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
