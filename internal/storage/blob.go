// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides chat persistence for offchat.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jeranaias/offchat-tui/internal/util"
)

// ErrNotFound is returned when no blob exists under a key.
var ErrNotFound = errors.New("blob not found")

// =============================================================================
// BLOB STORE INTERFACE
// =============================================================================

// BlobStore is a named-blob key-value store. Put overwrites atomically
// from the caller's point of view: a reader never observes a partial
// write.
type BlobStore interface {
	// Get returns the blob stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Put stores data under key, replacing any previous value.
	Put(key string, data []byte) error
}

// =============================================================================
// FILE BLOB STORE
// =============================================================================

// FileBlobStore stores each blob as one JSON file in a directory.
// Writes go through an atomic rename so a crash leaves either the old
// or the new complete file.
type FileBlobStore struct {
	// Dir is the directory holding the blob files.
	Dir string
}

// NewFileBlobStore creates a file-backed store rooted at dir.
func NewFileBlobStore(dir string) (*FileBlobStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &FileBlobStore{Dir: dir}, nil
}

// Get returns the blob stored under key.
func (s *FileBlobStore) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Put stores data under key via an atomic write.
func (s *FileBlobStore) Put(key string, data []byte) error {
	return util.AtomicWriteFile(s.path(key), data, 0644)
}

// path returns the file path for a key.
func (s *FileBlobStore) path(key string) string {
	return filepath.Join(s.Dir, key+".json")
}

// =============================================================================
// SQLITE BLOB STORE
// =============================================================================

// SQLiteBlobStore stores blobs in a single-table SQLite database.
// Upserts are transactional, which gives the same no-partial-write
// guarantee as the file store.
type SQLiteBlobStore struct {
	db *sql.DB
}

// NewSQLiteBlobStore opens (creating if needed) the database at path.
func NewSQLiteBlobStore(path string) (*SQLiteBlobStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS blobs (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteBlobStore{db: db}, nil
}

// Get returns the blob stored under key.
func (s *SQLiteBlobStore) Get(key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT value FROM blobs WHERE key = ?`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// Put stores data under key, replacing any previous value.
func (s *SQLiteBlobStore) Put(key string, data []byte) error {
	_, err := s.db.Exec(`
		INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, data, time.Now().UTC())
	return err
}

// Close closes the underlying database.
func (s *SQLiteBlobStore) Close() error {
	return s.db.Close()
}
