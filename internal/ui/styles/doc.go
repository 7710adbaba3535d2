// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the offchat TUI.
//
// The palette uses adaptive colors that pick light or dark variants
// based on the terminal background. Theme bundles every style the
// screens use so they never construct styles inline.
package styles
