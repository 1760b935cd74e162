// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/koragpt/kora-tui/internal/model"
	"github.com/koragpt/kora-tui/internal/poll"
)

// newMarkdownRenderer builds the glamour renderer for assistant messages, or
// nil when markdown rendering is disabled in config.
func newMarkdownRenderer(wrapWidth int, enabled bool) *glamour.TermRenderer {
	if !enabled {
		return nil
	}
	if wrapWidth < 10 {
		wrapWidth = 10
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrapWidth),
	)
	if err != nil {
		// Plain text is an acceptable fallback; never fail the screen over
		// styling.
		return nil
	}
	return renderer
}

// renderTranscript renders the open conversation's messages for the viewport.
// A failed fetch replaces the whole pane with the error; there is no
// partial-content display.
func (m Model) renderTranscript() string {
	if m.transcript.State() == poll.StateError && m.transcript.Err() != nil {
		return m.theme.ErrorText.Render("Error: "+statusErrorText(m.transcript.Err())) +
			"\n\n" +
			m.theme.EmptyHint.Render("ctrl+r to retry")
	}

	messages := m.transcript.Messages()
	if len(messages) == 0 {
		switch {
		case m.transcript.ChatID() == 0:
			return m.theme.EmptyHint.Render("Select a chat on the left, or press ctrl+n to start one.")
		case m.transcript.State() == poll.StateLoading || m.transcript.State() == poll.StateIdle:
			return m.theme.EmptyHint.Render("Loading conversation…")
		default:
			return m.theme.EmptyHint.Render("No messages yet. Say hello.")
		}
	}

	var b strings.Builder
	for i, msg := range messages {
		if i > 0 {
			b.WriteString("\n")
		}
		switch msg.Role {
		case model.RoleAssistant:
			b.WriteString(m.theme.AssistantLabel.Render(msg.Role.DisplayName()))
			b.WriteString("\n")
			b.WriteString(m.renderAssistant(msg.Content))
		default:
			b.WriteString(m.theme.UserLabel.Render(msg.Role.DisplayName()))
			b.WriteString("\n")
			b.WriteString(m.theme.UserMessage.Render(msg.Content))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderAssistant renders one assistant message, as markdown when enabled.
func (m Model) renderAssistant(content string) string {
	if m.renderer == nil {
		return m.theme.AssistantText.Render(content) + "\n"
	}
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return m.theme.AssistantText.Render(content) + "\n"
	}
	return strings.TrimRight(rendered, "\n") + "\n"
}

// syncViewport pushes the current transcript into the viewport. followTail
// keeps the view pinned to the newest message, the behavior wanted whenever
// the user has not scrolled back.
func (m *Model) syncViewport(followTail bool) {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderTranscript())
	if followTail {
		m.viewport.GotoBottom()
	}
}
