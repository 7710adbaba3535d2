// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui implements the terminal user interface for offchat.
//
// The App model owns a screen selector and four screens: greeting,
// model selection, model check, and chat. Screens render from
// lifecycle snapshots only; the lifecycles themselves run outside the
// Bubble Tea loop and push updates in through the Dispatcher.
package ui
