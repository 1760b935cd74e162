// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// This file defines the Bubble Tea message types local to the chat screen.
// Synchronizer and composer outcomes arrive as poll.* and composer.* messages;
// only screen-level concerns live here.

package chat

import "github.com/koragpt/kora-tui/internal/model"

// ModelsMsg delivers the model list for a provider, for the picker overlay.
type ModelsMsg struct {
	Provider string
	Models   []model.ModelInfo
	Err      error
}

// OpenSettingsMsg asks the root model to switch to the settings screen.
type OpenSettingsMsg struct{}

// LogoutRequestMsg asks the root model to end the session.
type LogoutRequestMsg struct{}
