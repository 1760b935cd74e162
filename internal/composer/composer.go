// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package composer owns message drafting and submission.
//
// The composer enforces the draft length cap, refuses empty or duplicate
// sends, and keeps the draft intact until the backend has accepted it: a
// failed or cancelled send puts the user exactly where they were.
package composer

import (
	"context"
	"errors"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/koragpt/kora-tui/internal/api"
	"github.com/koragpt/kora-tui/internal/config"
)

// MaxDraftLen is the draft cap in characters, matching the backend's
// message column limit.
const MaxDraftLen = 5000

// ErrModelRequired is returned by ResolveModel when configuration demands an
// explicit model pick and none has been made.
var ErrModelRequired = errors.New("no model selected")

// =============================================================================
// MESSAGES
// =============================================================================

// SendResultMsg delivers the outcome of one send. On success the backend has
// stored the user message and queued the assistant reply; a transcript
// refresh picks both up.
type SendResultMsg struct {
	ChatID int64
	Text   string
	Err    error
}

// =============================================================================
// COMPOSER
// =============================================================================

// Composer holds the draft and the in-flight send, if any.
//
// Methods must be called from the Update loop; sends run in command
// goroutines and report back via SendResultMsg.
type Composer struct {
	client    *api.Client
	cancelMgr *cancelManager

	draft   string
	sending bool
}

// New creates a composer submitting through client.
func New(client *api.Client) *Composer {
	return &Composer{
		client:    client,
		cancelMgr: newCancelManager(),
	}
}

// SetDraft replaces the draft, truncating anything past the cap. Truncation
// counts characters, not bytes, so multibyte input is never split.
func (c *Composer) SetDraft(text string) {
	runes := []rune(text)
	if len(runes) > MaxDraftLen {
		runes = runes[:MaxDraftLen]
	}
	c.draft = string(runes)
}

// Draft returns the current draft.
func (c *Composer) Draft() string {
	return c.draft
}

// Remaining returns how many characters the draft can still grow by.
func (c *Composer) Remaining() int {
	return MaxDraftLen - len([]rune(c.draft))
}

// Sending reports whether a send is in flight.
func (c *Composer) Sending() bool {
	return c.sending
}

// CanSend reports whether a send would actually fire: a conversation is
// open, the draft has content beyond whitespace, and no send is in flight.
func (c *Composer) CanSend(chatID int64) bool {
	return chatID != 0 && !c.sending && strings.TrimSpace(c.draft) != ""
}

// ResolveModel decides which model a send uses. An explicit pick always
// wins; otherwise the configured default applies, unless configuration
// requires an explicit pick, in which case ErrModelRequired is returned.
func ResolveModel(picked string, chatCfg config.ChatConfig) (string, error) {
	if picked != "" {
		return picked, nil
	}
	if chatCfg.RequireModel {
		return "", ErrModelRequired
	}
	return chatCfg.DefaultModel, nil
}

// =============================================================================
// SEND
// =============================================================================

// SendCmd submits the draft to the open conversation. Returns nil when
// CanSend does not hold. The draft stays in place until Apply sees a
// successful outcome.
func (c *Composer) SendCmd(chatID, userID int64, modelName string) tea.Cmd {
	if !c.CanSend(chatID) {
		return nil
	}

	c.sending = true
	text := c.draft

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelMgr.set(cancel)

	req := api.SendMessageRequest{
		Text:   text,
		ChatID: chatID,
		UserID: userID,
		Model:  modelName,
	}

	return func() tea.Msg {
		err := c.client.SendMessage(ctx, req)
		return SendResultMsg{ChatID: chatID, Text: text, Err: err}
	}
}

// Stop aborts the in-flight send, if any. The outcome still arrives as a
// cancelled SendResultMsg, which Apply treats as "keep the draft".
func (c *Composer) Stop() {
	c.cancelMgr.cancel()
}

// Apply folds a send outcome into the composer and reports whether the send
// succeeded. The draft is cleared only on success.
func (c *Composer) Apply(msg SendResultMsg) bool {
	c.sending = false
	c.cancelMgr.cancel()

	if msg.Err != nil {
		return false
	}
	// Only clear if the user has not already typed a new draft on top of the
	// one that was sent.
	if c.draft == msg.Text {
		c.draft = ""
	}
	return true
}

// =============================================================================
// CANCEL FUNCTION MANAGEMENT (THREAD-SAFE)
// =============================================================================

// cancelManager manages the cancel function with mutex protection.
// IMPORTANT: Must be held as a pointer in any Bubble Tea model to prevent
// copying the mutex when Update returns model copies.
type cancelManager struct {
	mu         sync.Mutex
	cancelFunc context.CancelFunc
}

func newCancelManager() *cancelManager {
	return &cancelManager{}
}

// set cancels any previous context and stores a new cancel function.
func (cm *cancelManager) set(fn context.CancelFunc) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil {
		cm.cancelFunc()
	}
	cm.cancelFunc = fn
}

// cancel invokes the stored cancel function and clears it.
// Safe to call multiple times or with no cancel function set.
func (cm *cancelManager) cancel() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.cancelFunc != nil {
		cm.cancelFunc()
		cm.cancelFunc = nil
	}
}
