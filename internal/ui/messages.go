// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/offchat-tui/internal/download"
	"github.com/jeranaias/offchat-tui/internal/session"
)

// =============================================================================
// LIFECYCLE MESSAGES
// =============================================================================

// Lifecycle callbacks fire on background goroutines; their snapshots
// are wrapped in messages and re-marshalled onto the Bubble Tea update
// loop, which is the only writer of UI state.

// DownloadMsg carries a download state snapshot.
type DownloadMsg download.Snapshot

// ChatMsg carries a chat flow snapshot.
type ChatMsg session.ChatSnapshot

// CheckMsg carries a model check snapshot.
type CheckMsg session.CheckSnapshot

// =============================================================================
// DISPATCHER
// =============================================================================

// Dispatcher forwards lifecycle snapshots into a running Bubble Tea
// program. The lifecycles are constructed before the program exists,
// so the dispatcher buffers nothing and drops messages until Attach.
type Dispatcher struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

// Attach connects the dispatcher to a running program.
func (d *Dispatcher) Attach(p *tea.Program) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.send = p.Send
}

// Send forwards a message to the program, if attached.
func (d *Dispatcher) Send(msg tea.Msg) {
	d.mu.Lock()
	send := d.send
	d.mu.Unlock()
	if send != nil {
		send(msg)
	}
}
