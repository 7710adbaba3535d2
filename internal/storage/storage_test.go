// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides chat persistence for offchat.
package storage

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jeranaias/offchat-tui/internal/model"
)

func testChats(t *testing.T) []*model.Chat {
	t.Helper()

	first := model.NewChat(model.Catalog[0])
	first.AppendMessage(model.NewUserMessage("Explain goroutines"))
	first.AppendMessage(model.NewAssistantMessage("Goroutines are lightweight threads."))
	first.SetTitleFromPrompt("Explain goroutines")

	second := model.NewChat(model.DefaultDescriptor())

	return []*model.Chat{first, second}
}

func TestEncodeDecodeChats(t *testing.T) {
	chats := testChats(t)

	data, err := EncodeChats(chats)
	if err != nil {
		t.Fatalf("EncodeChats failed: %v", err)
	}

	got, err := DecodeChats(data)
	if err != nil {
		t.Fatalf("DecodeChats failed: %v", err)
	}

	if len(got) != len(chats) {
		t.Fatalf("Decoded %d chats, want %d", len(got), len(chats))
	}
	for i, chat := range chats {
		if got[i].ID != chat.ID {
			t.Errorf("Chat %d: ID = %q, want %q", i, got[i].ID, chat.ID)
		}
		if got[i].Title != chat.Title {
			t.Errorf("Chat %d: Title = %q, want %q", i, got[i].Title, chat.Title)
		}
		if got[i].ModelID != chat.ModelID {
			t.Errorf("Chat %d: ModelID = %q, want %q", i, got[i].ModelID, chat.ModelID)
		}
		if len(got[i].Messages) != len(chat.Messages) {
			t.Fatalf("Chat %d: %d messages, want %d", i, len(got[i].Messages), len(chat.Messages))
		}
		for j, msg := range chat.Messages {
			if got[i].Messages[j].Role != msg.Role {
				t.Errorf("Chat %d message %d: Role = %q, want %q", i, j, got[i].Messages[j].Role, msg.Role)
			}
			if got[i].Messages[j].Content != msg.Content {
				t.Errorf("Chat %d message %d: Content = %q, want %q", i, j, got[i].Messages[j].Content, msg.Content)
			}
		}
	}
}

func TestDecodeChatsInvalid(t *testing.T) {
	if _, err := DecodeChats([]byte("not json")); err == nil {
		t.Error("Expected error for invalid JSON")
	}
	if _, err := DecodeChats([]byte(`{"wrong": "shape"}`)); err == nil {
		t.Error("Expected error for wrong top-level type")
	}
}

func TestDecodeChatsEmptyList(t *testing.T) {
	chats, err := DecodeChats([]byte(`[]`))
	if err != nil {
		t.Fatalf("DecodeChats failed: %v", err)
	}
	if len(chats) != 0 {
		t.Errorf("Expected empty list, got %d chats", len(chats))
	}
}

// =============================================================================
// BACKEND TESTS
// =============================================================================

func testBlobStore(t *testing.T, store BlobStore) {
	t.Helper()

	if _, err := store.Get(ChatsKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get on empty store = %v, want ErrNotFound", err)
	}

	if err := store.Put(ChatsKey, []byte("first")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	data, err := store.Get(ChatsKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(data) != "first" {
		t.Errorf("Get = %q, want %q", data, "first")
	}

	// Put replaces the whole value
	if err := store.Put(ChatsKey, []byte("second")); err != nil {
		t.Fatalf("Put overwrite failed: %v", err)
	}
	data, _ = store.Get(ChatsKey)
	if string(data) != "second" {
		t.Errorf("Get after overwrite = %q, want %q", data, "second")
	}

	// Keys are independent
	if _, err := store.Get("other"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get unrelated key = %v, want ErrNotFound", err)
	}
}

func TestFileBlobStore(t *testing.T) {
	store, err := NewFileBlobStore(filepath.Join(t.TempDir(), "chats"))
	if err != nil {
		t.Fatalf("NewFileBlobStore failed: %v", err)
	}
	testBlobStore(t, store)
}

func TestSQLiteBlobStore(t *testing.T) {
	store, err := NewSQLiteBlobStore(filepath.Join(t.TempDir(), "offchat.db"))
	if err != nil {
		t.Fatalf("NewSQLiteBlobStore failed: %v", err)
	}
	defer store.Close()
	testBlobStore(t, store)
}

func TestRoundTripThroughStore(t *testing.T) {
	store, err := NewFileBlobStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileBlobStore failed: %v", err)
	}

	chats := testChats(t)
	data, err := EncodeChats(chats)
	if err != nil {
		t.Fatalf("EncodeChats failed: %v", err)
	}
	if err := store.Put(ChatsKey, data); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	loaded, err := store.Get(ChatsKey)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	got, err := DecodeChats(loaded)
	if err != nil {
		t.Fatalf("DecodeChats failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 chats, got %d", len(got))
	}
	if got[0].Title != "Explain goroutines" {
		t.Errorf("Title = %q, want %q", got[0].Title, "Explain goroutines")
	}
	if !got[0].CreatedAt.Before(time.Now().Add(time.Minute)) {
		t.Error("CreatedAt not preserved sensibly")
	}
}
