// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds the in-memory chat list and its persistence.
package store

import (
	"errors"
	"testing"

	"github.com/jeranaias/offchat-tui/internal/model"
	"github.com/jeranaias/offchat-tui/internal/storage"
)

// memBlobStore is an in-memory BlobStore for tests.
type memBlobStore struct {
	data map[string][]byte

	putErr error
	getErr error
	puts   int
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{data: make(map[string][]byte)}
}

func (m *memBlobStore) Get(key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (m *memBlobStore) Put(key string, data []byte) error {
	m.puts++
	if m.putErr != nil {
		return m.putErr
	}
	m.data[key] = data
	return nil
}

func TestNewEmptyStore(t *testing.T) {
	s := New(newMemBlobStore(), nil)
	if s.Count() != 0 {
		t.Errorf("Count = %d, want 0", s.Count())
	}
	if s.Active() != nil {
		t.Error("Active should be nil on empty store")
	}
}

func TestCreateChatBecomesActive(t *testing.T) {
	s := New(newMemBlobStore(), nil)

	first := s.CreateChat(model.DefaultDescriptor())
	if s.Active() != first {
		t.Error("New chat should become active")
	}
	if first.Title != model.PlaceholderTitle {
		t.Errorf("Title = %q, want placeholder", first.Title)
	}

	second := s.CreateChat(model.Catalog[0])
	if s.Active() != second {
		t.Error("Second chat should become active")
	}
	if s.Count() != 2 {
		t.Errorf("Count = %d, want 2", s.Count())
	}

	// Creation order preserved
	chats := s.Chats()
	if chats[0] != first || chats[1] != second {
		t.Error("Chats not in creation order")
	}
}

func TestAppendMessagePersists(t *testing.T) {
	blobs := newMemBlobStore()
	s := New(blobs, nil)
	chat := s.CreateChat(model.DefaultDescriptor())

	s.AppendMessage(chat, model.NewUserMessage("hello"))
	s.AppendMessage(chat, model.NewAssistantMessage("hi there"))

	// Reload from the same blob store
	reloaded := New(blobs, nil)
	if reloaded.Count() != 1 {
		t.Fatalf("Reloaded count = %d, want 1", reloaded.Count())
	}
	got := reloaded.Chats()[0]
	if got.MessageCount() != 2 {
		t.Fatalf("Reloaded message count = %d, want 2", got.MessageCount())
	}
	if got.Messages[0].Role != model.RoleUser || got.Messages[1].Role != model.RoleAssistant {
		t.Error("Message roles lost in round trip")
	}
}

func TestAppendMessageNilChat(t *testing.T) {
	s := New(newMemBlobStore(), nil)
	// Must not panic
	s.AppendMessage(nil, model.NewUserMessage("dropped"))
	if s.Count() != 0 {
		t.Errorf("Count = %d, want 0", s.Count())
	}
}

func TestAppendMessageTargetsGivenChat(t *testing.T) {
	s := New(newMemBlobStore(), nil)
	first := s.CreateChat(model.DefaultDescriptor())
	second := s.CreateChat(model.DefaultDescriptor())

	// second is now active; the append must still land in first.
	s.AppendMessage(first, model.NewAssistantMessage("late reply"))
	s.SetTitleFromPrompt(first, "original question")

	if first.MessageCount() != 1 {
		t.Errorf("first.MessageCount = %d, want 1", first.MessageCount())
	}
	if second.MessageCount() != 0 {
		t.Errorf("second.MessageCount = %d, want 0", second.MessageCount())
	}
	if first.Title != "original question" {
		t.Errorf("first.Title = %q", first.Title)
	}
	if second.Title != model.PlaceholderTitle {
		t.Errorf("second.Title = %q, want placeholder", second.Title)
	}
}

func TestSetActive(t *testing.T) {
	s := New(newMemBlobStore(), nil)
	first := s.CreateChat(model.DefaultDescriptor())
	s.CreateChat(model.DefaultDescriptor())

	if !s.SetActive(first.ID) {
		t.Fatal("SetActive returned false for existing chat")
	}
	if s.Active() != first {
		t.Error("Active not switched")
	}

	if s.SetActive("no-such-id") {
		t.Error("SetActive returned true for unknown ID")
	}
	if s.Active() != first {
		t.Error("Active changed by failed SetActive")
	}
}

func TestSetTitleFromPrompt(t *testing.T) {
	s := New(newMemBlobStore(), nil)
	chat := s.CreateChat(model.DefaultDescriptor())

	s.SetTitleFromPrompt(chat, "What is a goroutine and how does it work?")
	if chat.Title != "What is a goroutine and how do" {
		t.Errorf("Title = %q", chat.Title)
	}

	// Second assignment is a no-op: title already set
	s.SetTitleFromPrompt(chat, "different prompt")
	if chat.Title != "What is a goroutine and how do" {
		t.Errorf("Title changed on second assignment: %q", chat.Title)
	}
}

func TestPersistenceFailureIsSilent(t *testing.T) {
	blobs := newMemBlobStore()
	blobs.putErr = errors.New("disk full")
	s := New(blobs, nil)

	// Mutations must succeed in memory despite save failures
	chat := s.CreateChat(model.DefaultDescriptor())
	s.AppendMessage(chat, model.NewUserMessage("hello"))

	if s.Count() != 1 {
		t.Errorf("Count = %d, want 1", s.Count())
	}
	if s.Active().MessageCount() != 1 {
		t.Errorf("MessageCount = %d, want 1", s.Active().MessageCount())
	}
}

func TestCorruptBlobStartsEmpty(t *testing.T) {
	blobs := newMemBlobStore()
	blobs.data[storage.ChatsKey] = []byte("{corrupt")

	s := New(blobs, nil)
	if s.Count() != 0 {
		t.Errorf("Count = %d, want 0 for corrupt blob", s.Count())
	}
}

func TestChatByID(t *testing.T) {
	s := New(newMemBlobStore(), nil)
	chat := s.CreateChat(model.DefaultDescriptor())

	got, ok := s.ChatByID(chat.ID)
	if !ok || got != chat {
		t.Error("ChatByID failed for existing chat")
	}
	if _, ok := s.ChatByID("missing"); ok {
		t.Error("ChatByID returned ok for missing chat")
	}
}
