// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"

	"github.com/koragpt/kora-tui/internal/api"
	"github.com/koragpt/kora-tui/internal/auth"
	"github.com/koragpt/kora-tui/internal/composer"
	"github.com/koragpt/kora-tui/internal/config"
	"github.com/koragpt/kora-tui/internal/model"
	"github.com/koragpt/kora-tui/internal/poll"
	"github.com/koragpt/kora-tui/internal/ui/styles"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	client := api.NewClient()
	store := auth.NewStore(client, t.TempDir())
	store.Restore()
	return New(client, store, nil, config.Default(), styles.NewTheme("dark"))
}

func connectionErr(message string) error {
	return &api.ClientError{Type: api.ErrTypeConnection, Message: message}
}

// =============================================================================
// TRANSCRIPT PANE
// =============================================================================

func TestRenderTranscript_FetchErrorReplacesPane(t *testing.T) {
	m := newTestModel(t)
	m.transcript.SetChat(7)
	m.transcript.Apply(poll.TranscriptMsg{
		ChatID: 7,
		Gen:    1,
		Err:    connectionErr("connection refused"),
	})

	out := m.renderTranscript()
	if !strings.Contains(out, "connection refused") {
		t.Errorf("transcript pane does not show the fetch error:\n%s", out)
	}
	if strings.Contains(out, "No messages yet") {
		t.Errorf("failed fetch rendered as an empty conversation:\n%s", out)
	}
}

func TestRenderTranscript_ErrorWinsOverRetainedMessages(t *testing.T) {
	m := newTestModel(t)
	m.transcript.SetChat(7)
	m.transcript.Apply(poll.TranscriptMsg{
		ChatID:   7,
		Gen:      1,
		Messages: []model.Message{model.NewUserMessage("hello")},
	})
	m.transcript.Apply(poll.TranscriptMsg{
		ChatID: 7,
		Gen:    1,
		Err:    connectionErr("connection refused"),
	})

	// The messages survive the failure for the next successful render, but
	// the pane shows the error, not a partial transcript.
	if got := len(m.transcript.Messages()); got != 1 {
		t.Fatalf("retained messages = %d, want 1", got)
	}
	out := m.renderTranscript()
	if !strings.Contains(out, "connection refused") {
		t.Errorf("transcript pane does not show the fetch error:\n%s", out)
	}
	if strings.Contains(out, "hello") {
		t.Errorf("errored pane still renders message content:\n%s", out)
	}
}

func TestRenderTranscript_NoChatSelectedHint(t *testing.T) {
	m := newTestModel(t)
	out := m.renderTranscript()
	if !strings.Contains(out, "ctrl+n") {
		t.Errorf("empty state does not point at chat creation:\n%s", out)
	}
}

// =============================================================================
// SEND CANCELLATION
// =============================================================================

func TestSendCancellation_Silent(t *testing.T) {
	m := newTestModel(t)
	m.transcript.SetChat(7)
	m.comp.SetDraft("hello")
	if cmd := m.comp.SendCmd(7, 1, "gpt-4o-mini"); cmd == nil {
		t.Fatal("SendCmd returned nil, want a command")
	}

	m, _ = m.Update(composer.SendResultMsg{ChatID: 7, Text: "hello", Err: api.ErrCancelled})

	if m.statusMsg != "" {
		t.Errorf("cancelled send surfaced a status message %q, want silence", m.statusMsg)
	}
	if got := m.input.Value(); got != "hello" {
		t.Errorf("input after cancel = %q, want the draft restored", got)
	}
	if m.comp.Sending() {
		t.Error("composer still marked sending after a cancelled result")
	}
}

func TestSendFailure_SurfacesStatus(t *testing.T) {
	m := newTestModel(t)
	m.transcript.SetChat(7)
	m.comp.SetDraft("hello")
	if cmd := m.comp.SendCmd(7, 1, "gpt-4o-mini"); cmd == nil {
		t.Fatal("SendCmd returned nil, want a command")
	}

	m, _ = m.Update(composer.SendResultMsg{ChatID: 7, Text: "hello", Err: connectionErr("connection refused")})

	if !strings.Contains(m.statusMsg, "connection refused") {
		t.Errorf("failed send status = %q, want the backend error", m.statusMsg)
	}
}
