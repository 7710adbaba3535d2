// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives inference sessions for the active chat.
package session

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/jeranaias/offchat-tui/internal/engine"
	"github.com/jeranaias/offchat-tui/internal/model"
	"github.com/jeranaias/offchat-tui/internal/store"
)

// =============================================================================
// SNAPSHOT
// =============================================================================

// ChatSnapshot is a point-in-time copy of the chat flow state.
type ChatSnapshot struct {
	ChatID     string
	Title      string
	Messages   []model.Message
	Thinking   bool
	HasSession bool
}

// =============================================================================
// CHAT FLOW
// =============================================================================

// ChatFlow owns the inference session for the active chat.
//
// At most one session exists at a time, created lazily on the first
// send and reused for every later message in the same chat. Switching
// chats drops the session unconditionally: context must never leak
// from one conversation into another. The session-to-chat mapping is
// not persisted; a reopened chat replays its history visually but
// starts with fresh context.
type ChatFlow struct {
	mu sync.Mutex

	eng    engine.Engine
	chats  *store.ChatStore
	logger *log.Logger
	notify func(ChatSnapshot)

	chat     *model.Chat
	session  engine.Session
	thinking bool

	runCfg       engine.RunConfig
	systemPrompt string

	// gen increments per LoadChat so an in-flight send against a
	// previous chat cannot write its result into the new one.
	gen int
}

// NewChatFlow creates a chat flow. notify may be nil; when set it is
// called with a snapshot after every observable state change.
func NewChatFlow(eng engine.Engine, chats *store.ChatStore, logger *log.Logger, notify func(ChatSnapshot)) *ChatFlow {
	if logger == nil {
		logger = log.Default()
	}
	return &ChatFlow{
		eng:    eng,
		chats:  chats,
		logger: logger,
		notify: notify,
	}
}

// SetTuning sets inference tuning applied to new sessions and runs.
func (f *ChatFlow) SetTuning(runCfg engine.RunConfig, systemPrompt string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runCfg = runCfg
	f.systemPrompt = systemPrompt
}

// Snapshot returns a copy of the current state.
func (f *ChatFlow) Snapshot() ChatSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *ChatFlow) snapshotLocked() ChatSnapshot {
	snap := ChatSnapshot{
		Thinking:   f.thinking,
		HasSession: f.session != nil,
	}
	if f.chat != nil {
		snap.ChatID = f.chat.ID
		snap.Title = f.chat.DisplayTitle()
		snap.Messages = append([]model.Message(nil), f.chat.Messages...)
	}
	return snap
}

// HasSession reports whether a live session exists.
func (f *ChatFlow) HasSession() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session != nil
}

// =============================================================================
// CHAT SWITCHING
// =============================================================================

// LoadChat makes chat the active conversation. The previous session
// handle is dropped unconditionally, even when reloading the same
// chat: the engine reconstructs context lazily on the next send.
func (f *ChatFlow) LoadChat(chat *model.Chat) {
	f.mu.Lock()
	f.gen++
	f.chat = chat
	f.session = nil
	f.thinking = false
	if chat != nil {
		f.chats.SetActive(chat.ID)
	}
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.emit(snap)
}

// AdoptSession installs an externally created session for the current
// chat. Used to hand the model-check session over to the first chat so
// it is not recreated. A no-op when a session already exists or no
// chat is loaded.
func (f *ChatFlow) AdoptSession(sess engine.Session) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sess == nil || f.chat == nil || f.session != nil {
		return
	}
	f.session = sess
}

// =============================================================================
// SENDING
// =============================================================================

// Send submits user text to the active chat. A no-op when the trimmed
// text is empty, no chat is loaded, or a response is already in
// flight: the thinking guard serializes sends, since session creation
// is not idempotent and a race would open two sessions and silently
// drop one.
//
// The user message is appended and persisted synchronously; inference
// runs on its own goroutine and the assistant message arrives through
// the notify callback.
func (f *ChatFlow) Send(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	f.mu.Lock()
	if f.chat == nil || f.thinking {
		f.mu.Unlock()
		return
	}
	f.thinking = true
	gen := f.gen
	chat := f.chat
	f.chats.AppendMessage(chat, model.NewUserMessage(text))
	snap := f.snapshotLocked()
	f.mu.Unlock()

	f.emit(snap)
	go f.respond(ctx, gen, chat, text)
}

// respond resolves the model, lazily opens the session, and runs
// inference. Failures clear the thinking flag and are logged only; no
// assistant message is appended and no error is persisted.
func (f *ChatFlow) respond(ctx context.Context, gen int, chat *model.Chat, text string) {
	sess, err := f.ensureSession(ctx, gen, chat)
	if err != nil {
		f.logger.Error("failed to open session", "model", chat.ModelID, "error", err)
		f.clearThinking(gen)
		return
	}
	if sess == nil {
		// Chat switched while the session was being created.
		return
	}

	f.mu.Lock()
	runCfg := f.runCfg
	f.mu.Unlock()

	// Collect the full response; every chunk is accepted.
	out, err := sess.Run(ctx, text, runCfg, func(chunk string) bool {
		return true
	})
	if err != nil {
		f.logger.Error("inference failed", "model", chat.ModelID, "error", err)
		f.clearThinking(gen)
		return
	}

	f.mu.Lock()
	if gen != f.gen {
		// Chat switched mid-flight; the reply belongs to a dropped
		// context and is discarded.
		f.mu.Unlock()
		return
	}
	f.chats.AppendMessage(chat, model.NewAssistantMessage(out.Text))
	f.chats.SetTitleFromPrompt(chat, text)
	f.thinking = false
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.emit(snap)
}

// ensureSession returns the chat's session, creating it on first use.
// Sessions are opened with dynamic context growth so the conversation
// accumulates across turns instead of being recomputed each send.
// Returns (nil, nil) when the chat switched mid-creation.
func (f *ChatFlow) ensureSession(ctx context.Context, gen int, chat *model.Chat) (engine.Session, error) {
	f.mu.Lock()
	if f.session != nil {
		sess := f.session
		f.mu.Unlock()
		return sess, nil
	}
	f.mu.Unlock()

	handle, err := f.eng.ResolveModel(ctx, chat.ModelID)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	systemPrompt := f.systemPrompt
	f.mu.Unlock()

	sess, err := f.eng.OpenSession(handle, engine.SessionConfig{
		ContextMode:  engine.ContextDynamic,
		SystemPrompt: systemPrompt,
	})
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.gen {
		return nil, nil
	}
	f.session = sess
	return sess, nil
}

// clearThinking resets the thinking flag after a failed send.
func (f *ChatFlow) clearThinking(gen int) {
	f.mu.Lock()
	if gen != f.gen {
		f.mu.Unlock()
		return
	}
	f.thinking = false
	snap := f.snapshotLocked()
	f.mu.Unlock()
	f.emit(snap)
}

func (f *ChatFlow) emit(snap ChatSnapshot) {
	if f.notify != nil {
		f.notify(snap)
	}
}
