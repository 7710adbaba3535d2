// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package download tracks model download state from selection to ready.
//
// Lifecycle is a small state machine over one selected model:
//
//	Idle -> Initializing -> Downloading -> Ready
//
// with Cancelled and Failed as alternate terminals. Cancellation is
// optimistic: the visible state resets immediately while the engine
// unwinds in the background, and any late completion from a cancelled
// attempt is ignored. Progress fractions reported by the engine are
// clamped to [0,1] before they are stored.
package download
