// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"

	"github.com/koragpt/kora-tui/internal/util"
)

// =============================================================================
// CHAT SUMMARY
// =============================================================================

// untitledChat is shown when the backend record carries no preview text.
const untitledChat = "Untitled chat"

// ChatSummary is one sidebar entry: a chat identifier plus a display title
// derived from the backend's preview text.
type ChatSummary struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// NewChatSummary builds a summary from a backend record's id and preview
// text. Empty previews get a placeholder title; newlines are flattened so the
// title always fits on one sidebar row.
func NewChatSummary(id int64, preview string) ChatSummary {
	title := util.FirstLine(preview)
	if title == "" {
		title = untitledChat
	}
	return ChatSummary{ID: id, Title: title}
}

// ShortTitle returns the title truncated to the given display width.
func (c ChatSummary) ShortTitle(maxWidth int) string {
	return util.TruncateWidth(c.Title, maxWidth)
}

// =============================================================================
// MODEL INFO
// =============================================================================

// ModelInfo describes one model offered by a provider, as returned by the
// models endpoint.
type ModelInfo struct {
	Model       string `json:"model"`
	DisplayName string `json:"display_name"`
}

// Label returns the name to show in the model picker.
func (m ModelInfo) Label() string {
	if strings.TrimSpace(m.DisplayName) != "" {
		return m.DisplayName
	}
	return m.Model
}

// Providers lists the model providers the backend serves.
// Extend here if the backend grows more providers.
var Providers = []string{"OpenAI", "Google"}
