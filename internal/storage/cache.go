// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the local SQLite cache of backend data.
//
// The cache is a read-through copy of what the backend last returned: the
// chat list and per-chat transcripts, keyed by user. It primes the UI at
// startup before the first fetch lands and keeps the last-known data visible
// when the backend is unreachable. It is never authoritative; every
// successful fetch overwrites it.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"github.com/koragpt/kora-tui/internal/model"
)

// cacheFileName is the fixed name of the cache database under the data dir.
const cacheFileName = "cache.db"

// schema holds the cache tables. Transcripts cascade with their chat row.
const schema = `
CREATE TABLE IF NOT EXISTS chats (
	id        INTEGER NOT NULL,
	user_id   INTEGER NOT NULL,
	title     TEXT NOT NULL,
	position  INTEGER NOT NULL,
	synced_at INTEGER NOT NULL,
	PRIMARY KEY (user_id, id)
);

CREATE TABLE IF NOT EXISTS messages (
	chat_id  INTEGER NOT NULL,
	seq      INTEGER NOT NULL,
	role     TEXT NOT NULL,
	content  TEXT NOT NULL,
	PRIMARY KEY (chat_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_chats_user ON chats(user_id, position);
`

// =============================================================================
// CACHE
// =============================================================================

// Cache is the local database handle. Safe for concurrent use; database/sql
// serializes access.
type Cache struct {
	db *sql.DB
}

// Open opens (or creates) the cache database under dir.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	path := filepath.Join(dir, cacheFileName)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// WAL keeps reads unblocked while a sync writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure cache database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// =============================================================================
// CHAT LIST
// =============================================================================

// PutChatList replaces the cached chat list for a user with the given
// summaries, preserving their order.
func (c *Cache) PutChatList(userID int64, chats []model.ChatSummary) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM chats WHERE user_id = ?", userID); err != nil {
		return err
	}

	now := time.Now().Unix()
	stmt, err := tx.Prepare("INSERT INTO chats (id, user_id, title, position, synced_at) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, chat := range chats {
		if _, err := stmt.Exec(chat.ID, userID, chat.Title, i, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetChatList returns the cached chat list for a user in its stored order.
// An empty cache yields an empty slice, not an error.
func (c *Cache) GetChatList(userID int64) ([]model.ChatSummary, error) {
	rows, err := c.db.Query("SELECT id, title FROM chats WHERE user_id = ? ORDER BY position", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []model.ChatSummary
	for rows.Next() {
		var chat model.ChatSummary
		if err := rows.Scan(&chat.ID, &chat.Title); err != nil {
			return nil, err
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

// =============================================================================
// TRANSCRIPTS
// =============================================================================

// PutTranscript replaces the cached transcript of one chat.
func (c *Cache) PutTranscript(chatID int64, messages []model.Message) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages WHERE chat_id = ?", chatID); err != nil {
		return err
	}

	stmt, err := tx.Prepare("INSERT INTO messages (chat_id, seq, role, content) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, msg := range messages {
		if _, err := stmt.Exec(chatID, i, string(msg.Role), msg.Content); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetTranscript returns the cached transcript of one chat in message order.
func (c *Cache) GetTranscript(chatID int64) ([]model.Message, error) {
	rows, err := c.db.Query("SELECT role, content FROM messages WHERE chat_id = ? ORDER BY seq", chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var role string
		var msg model.Message
		if err := rows.Scan(&role, &msg.Content); err != nil {
			return nil, err
		}
		msg.Role = model.Role(role)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// DeleteTranscript drops one chat's cached transcript.
func (c *Cache) DeleteTranscript(chatID int64) error {
	_, err := c.db.Exec("DELETE FROM messages WHERE chat_id = ?", chatID)
	return err
}

// Clear drops all cached data, used on logout so the next account never sees
// the previous account's conversations.
func (c *Cache) Clear() error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM messages"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM chats"); err != nil {
		return err
	}
	return tx.Commit()
}
