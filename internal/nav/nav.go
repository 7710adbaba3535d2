// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package nav selects which screen is visible.
package nav

import "sync"

// Screen identifies one of the app's top-level screens.
type Screen int

const (
	// ScreenGreeting is the welcome screen shown at startup.
	ScreenGreeting Screen = iota

	// ScreenModelSelection lists the model catalog.
	ScreenModelSelection

	// ScreenModelCheck runs the post-download probe.
	ScreenModelCheck

	// ScreenChat is the conversation screen.
	ScreenChat
)

// String returns the screen name.
func (s Screen) String() string {
	switch s {
	case ScreenGreeting:
		return "greeting"
	case ScreenModelSelection:
		return "model-selection"
	case ScreenModelCheck:
		return "model-check"
	case ScreenChat:
		return "chat"
	default:
		return "unknown"
	}
}

// Navigator is a pure set-and-render screen selector. Transitions are
// caller-directed with no guards: callers are expected not to move to
// the chat screen before a model is ready, but nothing here enforces
// that.
type Navigator struct {
	mu      sync.Mutex
	current Screen
}

// New creates a navigator showing the greeting screen.
func New() *Navigator {
	return &Navigator{current: ScreenGreeting}
}

// Current returns the visible screen.
func (n *Navigator) Current() Screen {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Go makes screen the visible screen.
func (n *Navigator) Go(screen Screen) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = screen
}
