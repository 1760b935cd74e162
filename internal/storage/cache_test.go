// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koragpt/kora-tui/internal/model"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

// =============================================================================
// CHAT LIST TESTS
// =============================================================================

func TestChatList_RoundTrip(t *testing.T) {
	cache := openTestCache(t)

	chats := []model.ChatSummary{
		{ID: 3, Title: "gamma"},
		{ID: 1, Title: "alpha"},
		{ID: 2, Title: "beta"},
	}
	require.NoError(t, cache.PutChatList(42, chats))

	got, err := cache.GetChatList(42)
	require.NoError(t, err)
	assert.Equal(t, chats, got, "order must survive the round trip")
}

func TestChatList_ReplacedOnPut(t *testing.T) {
	cache := openTestCache(t)

	require.NoError(t, cache.PutChatList(42, []model.ChatSummary{{ID: 1, Title: "old"}}))
	require.NoError(t, cache.PutChatList(42, []model.ChatSummary{{ID: 2, Title: "new"}}))

	got, err := cache.GetChatList(42)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestChatList_IsolatedPerUser(t *testing.T) {
	cache := openTestCache(t)

	require.NoError(t, cache.PutChatList(1, []model.ChatSummary{{ID: 10, Title: "mine"}}))
	require.NoError(t, cache.PutChatList(2, []model.ChatSummary{{ID: 20, Title: "theirs"}}))

	mine, err := cache.GetChatList(1)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "mine", mine[0].Title)
}

func TestChatList_EmptyCache(t *testing.T) {
	cache := openTestCache(t)

	got, err := cache.GetChatList(42)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// =============================================================================
// TRANSCRIPT TESTS
// =============================================================================

func TestTranscript_RoundTrip(t *testing.T) {
	cache := openTestCache(t)

	messages := []model.Message{
		model.NewUserMessage("hello"),
		model.NewAssistantMessage("hi, how can I help?"),
	}
	require.NoError(t, cache.PutTranscript(7, messages))

	got, err := cache.GetTranscript(7)
	require.NoError(t, err)
	assert.Equal(t, messages, got)
}

func TestTranscript_ReplacedOnPut(t *testing.T) {
	cache := openTestCache(t)

	require.NoError(t, cache.PutTranscript(7, []model.Message{model.NewUserMessage("v1")}))
	longer := []model.Message{
		model.NewUserMessage("v1"),
		model.NewAssistantMessage("reply"),
	}
	require.NoError(t, cache.PutTranscript(7, longer))

	got, err := cache.GetTranscript(7)
	require.NoError(t, err)
	assert.Equal(t, longer, got)
}

func TestTranscript_Delete(t *testing.T) {
	cache := openTestCache(t)

	require.NoError(t, cache.PutTranscript(7, []model.Message{model.NewUserMessage("gone soon")}))
	require.NoError(t, cache.DeleteTranscript(7))

	got, err := cache.GetTranscript(7)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// =============================================================================
// CLEAR TESTS
// =============================================================================

func TestClear_DropsEverything(t *testing.T) {
	cache := openTestCache(t)

	require.NoError(t, cache.PutChatList(1, []model.ChatSummary{{ID: 1, Title: "a"}}))
	require.NoError(t, cache.PutTranscript(1, []model.Message{model.NewUserMessage("x")}))

	require.NoError(t, cache.Clear())

	chats, err := cache.GetChatList(1)
	require.NoError(t, err)
	assert.Empty(t, chats)

	msgs, err := cache.GetTranscript(1)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
