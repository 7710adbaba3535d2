// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chats and messages.
//
// # Key Types
//
//   - Descriptor: metadata for one of the bundled on-device models
//   - Chat: a conversation with append-only message history
//   - Message: a single user or assistant message
//
// Chats and messages are value data: messages are immutable once created,
// and a chat's message list only ever grows. The only mutable chat field
// is the title, which is assigned once from the first prompt.
package model
