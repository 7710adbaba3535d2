// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chats and messages.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/offchat-tui/internal/util"
)

// PlaceholderTitle is the title a chat carries until its first exchange
// completes, at which point the title is derived from the first prompt.
const PlaceholderTitle = "New chat"

// TitleMaxRunes is the maximum length of an auto-assigned chat title.
const TitleMaxRunes = 30

// =============================================================================
// CHAT TYPE
// =============================================================================

// Chat holds a complete conversation with history and metadata.
//
// The message list is append-only: messages are never reordered, edited,
// or removed. ModelID and CreatedAt are fixed at creation.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	ModelID   string    `json:"model_id"`
	CreatedAt time.Time `json:"created_at"`
}

// NewChat creates a new empty chat for the given model descriptor.
func NewChat(desc Descriptor) *Chat {
	return &Chat{
		ID:        uuid.New().String(),
		Title:     PlaceholderTitle,
		Messages:  make([]Message, 0),
		ModelID:   desc.ID,
		CreatedAt: time.Now(),
	}
}

// =============================================================================
// MESSAGE MANAGEMENT
// =============================================================================

// AppendMessage appends a message to the chat.
// Messages are kept strictly in append order.
func (c *Chat) AppendMessage(msg Message) {
	c.Messages = append(c.Messages, msg)
}

// LastMessage returns the most recent message, or a zero Message if empty.
func (c *Chat) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// MessageCount returns the number of messages.
func (c *Chat) MessageCount() int {
	return len(c.Messages)
}

// IsEmpty returns true if there are no messages.
func (c *Chat) IsEmpty() bool {
	return len(c.Messages) == 0
}

// =============================================================================
// TITLE MANAGEMENT
// =============================================================================

// NeedsTitle reports whether the chat still carries the placeholder title.
func (c *Chat) NeedsTitle() bool {
	return c.Title == PlaceholderTitle
}

// SetTitleFromPrompt assigns the title from the first user prompt,
// truncated to TitleMaxRunes without an ellipsis.
func (c *Chat) SetTitleFromPrompt(prompt string) {
	c.Title = util.TruncateRunesNoEllipsis(prompt, TitleMaxRunes)
}

// DisplayTitle returns the chat title, falling back to the placeholder.
func (c *Chat) DisplayTitle() string {
	if c.Title != "" {
		return c.Title
	}
	return PlaceholderTitle
}

// Preview returns a short preview of the chat for list display.
func (c *Chat) Preview() string {
	for _, msg := range c.Messages {
		if msg.Role == RoleUser {
			return msg.Preview(80)
		}
	}
	return "Empty chat"
}
