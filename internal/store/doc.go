// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds the in-memory chat list and its persistence.
//
// ChatStore is the single owner of the ordered chat list and the
// active-chat pointer. All mutations persist immediately through a
// storage.BlobStore; persistence failures are logged and swallowed so
// the running conversation is never interrupted by a failed save.
package store
