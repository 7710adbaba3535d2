// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the non-TUI command surface of offchat:
// one-shot questions with "ask", a readline-style REPL with "chat",
// and small introspection commands for the catalog and configuration.
package cli
