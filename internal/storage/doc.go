// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides chat persistence for offchat.
//
// The whole chat list is serialized as one JSON blob and stored under
// the fixed key ChatsKey in a BlobStore. Two backends exist:
//
//   - FileBlobStore: one atomically-written file per key
//   - SQLiteBlobStore: single-table key-value database
//
// # Usage
//
//	blobs, err := storage.NewFileBlobStore(dir)
//	data, err := storage.EncodeChats(chats)
//	err = blobs.Put(storage.ChatsKey, data)
//
// Decode failures are the caller's signal to start from an empty list;
// there is no partial recovery.
package storage
