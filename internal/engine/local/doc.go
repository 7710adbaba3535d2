// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package local provides the HTTP client for the local inference daemon.
//
// The daemon speaks newline-delimited JSON over localhost HTTP:
//
//   - POST /api/show resolves a model by repository identifier
//   - POST /api/pull streams weight download progress
//   - POST /api/chat streams response chunks for a session run
//
// The client implements engine.Engine. Sessions keep conversation state
// client-side; dynamic context mode additionally carries the daemon's
// context tokens between turns so each run extends the previous one.
package local
