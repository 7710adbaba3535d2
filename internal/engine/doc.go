// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package engine defines the boundary to the on-device inference engine.
//
// The engine is an external collaborator: this package owns only the
// capability interfaces (resolve a model, download weights with progress,
// open a session, run input with a streaming predicate) and the error
// taxonomy shared by all implementations.
//
// Implementations:
//
//   - engine/local: HTTP client for the local inference daemon
//   - engine/enginetest: scripted in-memory fake for tests
package engine
