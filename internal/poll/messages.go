// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file defines the Bubble Tea message types emitted by the synchronizers.
// Results always flow back through the Update loop as messages; the
// synchronizers never mutate their own state from a goroutine.

package poll

import (
	"time"

	"github.com/koragpt/kora-tui/internal/api"
	"github.com/koragpt/kora-tui/internal/model"
)

// =============================================================================
// CHAT LIST MESSAGES
// =============================================================================

// ChatListTickMsg fires when the next automatic chat list refresh is due.
type ChatListTickMsg struct {
	Time time.Time
}

// ChatListMsg delivers the outcome of one chat list fetch.
type ChatListMsg struct {
	Chats []model.ChatSummary
	Err   error
}

// ChatCreatedMsg delivers the outcome of a create-chat request.
type ChatCreatedMsg struct {
	Chat api.CreatedChat
	Err  error
}

// =============================================================================
// TRANSCRIPT MESSAGES
// =============================================================================

// TranscriptTickMsg fires when the next automatic transcript refresh is due.
type TranscriptTickMsg struct {
	Time time.Time
}

// TranscriptMsg delivers the outcome of one transcript fetch. Gen ties the
// result to the chat selection that requested it; results from a superseded
// selection are discarded on arrival.
type TranscriptMsg struct {
	ChatID   int64
	Gen      uint64
	Messages []model.Message
	Err      error
}
