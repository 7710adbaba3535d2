// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides chat persistence for offchat.
package storage

import (
	"encoding/json"
	"time"

	"github.com/jeranaias/offchat-tui/internal/model"
)

// ChatsKey is the fixed key the chat list is persisted under.
const ChatsKey = "saved_chats"

// =============================================================================
// STORED RECORD TYPES
// =============================================================================

// storedChat is the persisted form of a chat. There is no schema
// version field: a format change breaks existing saved data, which the
// loader treats as an empty list.
type storedChat struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Messages  []storedMessage `json:"messages"`
	ModelID   string          `json:"model_id"`
	CreatedAt time.Time       `json:"created_at"`
}

// storedMessage is the persisted form of a message.
type storedMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// =============================================================================
// ENCODE / DECODE
// =============================================================================

// EncodeChats serializes the ordered chat list to its stored form.
func EncodeChats(chats []*model.Chat) ([]byte, error) {
	records := make([]storedChat, 0, len(chats))
	for _, chat := range chats {
		rec := storedChat{
			ID:        chat.ID,
			Title:     chat.Title,
			ModelID:   chat.ModelID,
			CreatedAt: chat.CreatedAt,
			Messages:  make([]storedMessage, 0, len(chat.Messages)),
		}
		for _, msg := range chat.Messages {
			rec.Messages = append(rec.Messages, storedMessage{
				ID:        msg.ID,
				Role:      msg.Role.String(),
				Content:   msg.Content,
				Timestamp: msg.Timestamp,
			})
		}
		records = append(records, rec)
	}
	return json.MarshalIndent(records, "", "  ")
}

// DecodeChats deserializes a stored chat list, preserving order.
func DecodeChats(data []byte) ([]*model.Chat, error) {
	var records []storedChat
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}

	chats := make([]*model.Chat, 0, len(records))
	for _, rec := range records {
		chat := &model.Chat{
			ID:        rec.ID,
			Title:     rec.Title,
			ModelID:   rec.ModelID,
			CreatedAt: rec.CreatedAt,
			Messages:  make([]model.Message, 0, len(rec.Messages)),
		}
		for _, msg := range rec.Messages {
			chat.Messages = append(chat.Messages, model.Message{
				ID:        msg.ID,
				Role:      model.Role(msg.Role),
				Content:   msg.Content,
				Timestamp: msg.Timestamp,
			})
		}
		chats = append(chats, chat)
	}
	return chats, nil
}
