// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chats and messages.
package model

import (
	"strings"
	"testing"
)

// =============================================================================
// CHAT TESTS
// =============================================================================

func TestNewChat(t *testing.T) {
	desc := DefaultDescriptor()
	chat := NewChat(desc)

	if chat.ID == "" {
		t.Error("Expected non-empty chat ID")
	}
	if chat.Title != PlaceholderTitle {
		t.Errorf("Title = %q, want %q", chat.Title, PlaceholderTitle)
	}
	if chat.ModelID != desc.ID {
		t.Errorf("ModelID = %q, want %q", chat.ModelID, desc.ID)
	}
	if !chat.IsEmpty() {
		t.Error("New chat should be empty")
	}
	if chat.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestChat_AppendOrder(t *testing.T) {
	chat := NewChat(DefaultDescriptor())

	contents := []string{"one", "two", "three", "four", "five"}
	for i, content := range contents {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		chat.AppendMessage(NewMessage(role, content))
	}

	if chat.MessageCount() != len(contents) {
		t.Fatalf("MessageCount = %d, want %d", chat.MessageCount(), len(contents))
	}

	// Messages must reflect exactly the append sequence in call order.
	for i, content := range contents {
		if chat.Messages[i].Content != content {
			t.Errorf("Messages[%d].Content = %q, want %q", i, chat.Messages[i].Content, content)
		}
	}
}

func TestChat_LastMessage(t *testing.T) {
	chat := NewChat(DefaultDescriptor())

	if _, ok := chat.LastMessage(); ok {
		t.Error("LastMessage on empty chat should report false")
	}

	chat.AppendMessage(NewUserMessage("hello"))
	chat.AppendMessage(NewAssistantMessage("hi"))

	last, ok := chat.LastMessage()
	if !ok {
		t.Fatal("LastMessage should report true")
	}
	if last.Content != "hi" {
		t.Errorf("LastMessage content = %q, want %q", last.Content, "hi")
	}
}

func TestChat_SetTitleFromPrompt(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   string
	}{
		{"short", "hello", "hello"},
		{"exactly thirty", strings.Repeat("a", 30), strings.Repeat("a", 30)},
		{"truncated", strings.Repeat("a", 31), strings.Repeat("a", 30)},
		{"unicode", strings.Repeat("д", 40), strings.Repeat("д", 30)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			chat := NewChat(DefaultDescriptor())
			if !chat.NeedsTitle() {
				t.Fatal("New chat should need a title")
			}
			chat.SetTitleFromPrompt(tc.prompt)
			if chat.Title != tc.want {
				t.Errorf("Title = %q, want %q", chat.Title, tc.want)
			}
			if chat.NeedsTitle() {
				t.Error("Chat should not need a title after assignment")
			}
			if got := len([]rune(chat.Title)); got > TitleMaxRunes {
				t.Errorf("Title length = %d runes, want <= %d", got, TitleMaxRunes)
			}
		})
	}
}

func TestChat_Preview(t *testing.T) {
	chat := NewChat(DefaultDescriptor())
	if chat.Preview() != "Empty chat" {
		t.Errorf("Preview of empty chat = %q", chat.Preview())
	}

	chat.AppendMessage(NewAssistantMessage("greeting from assistant"))
	chat.AppendMessage(NewUserMessage("what is Go?"))
	if chat.Preview() != "what is Go?" {
		t.Errorf("Preview should use first user message, got %q", chat.Preview())
	}
}

// =============================================================================
// MESSAGE TESTS
// =============================================================================

func TestNewMessage(t *testing.T) {
	msg := NewUserMessage("hello")
	if msg.ID == "" {
		t.Error("Expected non-empty message ID")
	}
	if msg.Role != RoleUser {
		t.Errorf("Role = %q, want %q", msg.Role, RoleUser)
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}

	other := NewAssistantMessage("hi")
	if other.ID == msg.ID {
		t.Error("Message IDs should be unique")
	}
}

func TestMessage_Preview(t *testing.T) {
	msg := NewUserMessage("this is a fairly long message body")
	got := msg.Preview(10)
	if len([]rune(got)) > 10 {
		t.Errorf("Preview too long: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Truncated preview should end with ellipsis, got %q", got)
	}
}

func TestRole_DisplayName(t *testing.T) {
	if RoleUser.DisplayName() != "You" {
		t.Errorf("RoleUser.DisplayName() = %q", RoleUser.DisplayName())
	}
	if RoleAssistant.DisplayName() != "Assistant" {
		t.Errorf("RoleAssistant.DisplayName() = %q", RoleAssistant.DisplayName())
	}
}

// =============================================================================
// CATALOG TESTS
// =============================================================================

func TestCatalog(t *testing.T) {
	if len(Catalog) != 3 {
		t.Fatalf("Catalog size = %d, want 3", len(Catalog))
	}

	seen := make(map[string]bool)
	for _, d := range Catalog {
		if d.ID == "" || d.Title == "" || d.SizeEstimate == "" {
			t.Errorf("Incomplete catalog entry: %+v", d)
		}
		if seen[d.ID] {
			t.Errorf("Duplicate catalog ID %q", d.ID)
		}
		seen[d.ID] = true
	}
}

func TestDescriptorByID(t *testing.T) {
	for _, d := range Catalog {
		got, ok := DescriptorByID(d.ID)
		if !ok {
			t.Errorf("DescriptorByID(%q) not found", d.ID)
		}
		if got.Title != d.Title {
			t.Errorf("DescriptorByID(%q).Title = %q, want %q", d.ID, got.Title, d.Title)
		}
	}

	if _, ok := DescriptorByID("no/such-model"); ok {
		t.Error("Unknown ID should not resolve")
	}
}

func TestDescriptor_ContextString(t *testing.T) {
	d := Descriptor{ContextWindow: 8192}
	if d.ContextString() != "8K context" {
		t.Errorf("ContextString() = %q, want %q", d.ContextString(), "8K context")
	}
}
