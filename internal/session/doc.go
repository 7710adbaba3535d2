// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives inference sessions for the active chat.
//
// ChatFlow manages the session lifecycle for multi-turn conversation:
// lazy session creation on the first send, dynamic context growth
// across turns, and an unconditional session drop whenever the active
// chat changes so context never leaks between conversations.
//
// CheckFlow is the one-shot variant used to validate a freshly
// downloaded model with a fixed probe question; its session survives
// the probe and can be adopted by the first chat.
package session
