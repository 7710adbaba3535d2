// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds the in-memory chat list and its persistence.
package store

import (
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/jeranaias/offchat-tui/internal/model"
	"github.com/jeranaias/offchat-tui/internal/storage"
)

// =============================================================================
// CHAT STORE
// =============================================================================

// ChatStore owns the ordered chat list and the active-chat pointer.
//
// Every mutation persists the full list immediately. Persistence
// failures are logged and swallowed: the in-memory state is the source
// of truth for the running program, and losing a save must never block
// the conversation.
type ChatStore struct {
	mu sync.Mutex

	blobs  storage.BlobStore
	chats  []*model.Chat
	active *model.Chat

	logger *log.Logger
}

// New creates a chat store backed by the given blob store and loads
// any previously saved chats. A missing or undecodable blob yields an
// empty list, never an error.
func New(blobs storage.BlobStore, logger *log.Logger) *ChatStore {
	if logger == nil {
		logger = log.Default()
	}
	s := &ChatStore{
		blobs:  blobs,
		chats:  make([]*model.Chat, 0),
		logger: logger,
	}
	s.load()
	return s
}

// load reads the saved chat list. Called once from New.
func (s *ChatStore) load() {
	data, err := s.blobs.Get(storage.ChatsKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("failed to read saved chats, starting empty", "error", err)
		}
		return
	}

	chats, err := storage.DecodeChats(data)
	if err != nil {
		s.logger.Warn("failed to decode saved chats, starting empty", "error", err)
		return
	}
	s.chats = chats
}

// =============================================================================
// CHAT LIST ACCESS
// =============================================================================

// Chats returns the chats in creation order. The returned slice is a
// copy; the chats themselves are shared.
func (s *ChatStore) Chats() []*model.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Chat, len(s.chats))
	copy(out, s.chats)
	return out
}

// Count returns the number of chats.
func (s *ChatStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chats)
}

// Active returns the active chat, or nil when none is selected.
func (s *ChatStore) Active() *model.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// ChatByID returns the chat with the given ID.
func (s *ChatStore) ChatByID(id string) (*model.Chat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, chat := range s.chats {
		if chat.ID == id {
			return chat, true
		}
	}
	return nil, false
}

// =============================================================================
// MUTATIONS
// =============================================================================

// CreateChat creates a new empty chat for the model, appends it to the
// list, makes it active, and persists.
func (s *ChatStore) CreateChat(desc model.Descriptor) *model.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat := model.NewChat(desc)
	s.chats = append(s.chats, chat)
	s.active = chat
	s.saveLocked()
	return chat
}

// SetActive makes the chat with the given ID active. Returns false if
// no such chat exists; the active pointer is unchanged in that case.
func (s *ChatStore) SetActive(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, chat := range s.chats {
		if chat.ID == id {
			s.active = chat
			return true
		}
	}
	return false
}

// AppendMessage appends a message to the given chat and persists.
// The target chat is explicit rather than implied by the active
// pointer: a reply finishing for one chat must not land in whichever
// chat happens to be active by then. A no-op when chat is nil.
func (s *ChatStore) AppendMessage(chat *model.Chat, msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if chat == nil {
		s.logger.Warn("message dropped: no target chat", "role", msg.Role)
		return
	}
	chat.AppendMessage(msg)
	s.saveLocked()
}

// SetTitleFromPrompt assigns the chat's title from its first prompt if
// it still carries the placeholder, then persists.
func (s *ChatStore) SetTitleFromPrompt(chat *model.Chat, prompt string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if chat == nil || !chat.NeedsTitle() {
		return
	}
	chat.SetTitleFromPrompt(prompt)
	s.saveLocked()
}

// Save persists the current chat list.
func (s *ChatStore) Save() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveLocked()
}

// saveLocked writes the full chat list to the blob store. Callers must
// hold s.mu. Failures are logged, never returned.
func (s *ChatStore) saveLocked() {
	data, err := storage.EncodeChats(s.chats)
	if err != nil {
		s.logger.Error("failed to encode chats", "error", err)
		return
	}
	if err := s.blobs.Put(storage.ChatsKey, data); err != nil {
		s.logger.Error("failed to save chats", "error", err)
	}
}
