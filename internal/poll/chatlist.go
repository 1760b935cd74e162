// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package poll

import (
	"context"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/time/rate"

	"github.com/koragpt/kora-tui/internal/api"
	"github.com/koragpt/kora-tui/internal/auth"
	"github.com/koragpt/kora-tui/internal/config"
	"github.com/koragpt/kora-tui/internal/model"
	"github.com/koragpt/kora-tui/internal/storage"
)

// =============================================================================
// CHAT LIST SYNCHRONIZER
// =============================================================================

// ChatList keeps the sidebar's conversation list in sync with the backend.
//
// All methods must be called from the Update loop. Fetches run in command
// goroutines and report back via ChatListMsg.
type ChatList struct {
	client *api.Client
	store  *auth.Store
	cache  *storage.Cache // optional, nil disables the read-through cache

	interval time.Duration
	backoff  time.Duration
	// limiter throttles automatic refreshes when ticks, activations and
	// reconnects pile up; manual refreshes are never throttled.
	limiter *rate.Limiter

	cancelMgr *cancelManager

	state       State
	chats       []model.ChatSummary
	err         error
	inFlight    bool
	lastFailure time.Time
	active      bool
}

// NewChatList creates a chat list synchronizer refreshing every interval
// while active, holding off for backoff after a failure.
func NewChatList(client *api.Client, store *auth.Store, cache *storage.Cache, interval, backoff time.Duration) *ChatList {
	return &ChatList{
		client:    client,
		store:     store,
		cache:     cache,
		interval:  interval,
		backoff:   backoff,
		limiter:   rate.NewLimiter(rate.Every(interval/2), 1),
		cancelMgr: newCancelManager(),
		state:     StateIdle,
	}
}

// Prime seeds the list from the local cache so the sidebar has content
// before the first fetch lands. State stays idle; primed data is stale by
// definition.
func (c *ChatList) Prime() {
	if c.cache == nil {
		return
	}
	chats, err := c.cache.GetChatList(c.store.UserID())
	if err != nil {
		log.Printf("poll: failed to prime chat list from cache: %v", err)
		return
	}
	if len(chats) > 0 {
		c.chats = chats
	}
}

// SetActive tells the synchronizer whether its screen is visible. Automatic
// refreshes pause while inactive; a reactivation typically issues one
// immediate refresh.
func (c *ChatList) SetActive(active bool) {
	c.active = active
}

// TickCmd schedules the next automatic refresh.
func (c *ChatList) TickCmd() tea.Cmd {
	return tea.Tick(c.interval, func(t time.Time) tea.Msg {
		return ChatListTickMsg{Time: t}
	})
}

// RefreshCmd starts a chat list fetch, or returns nil when one should not
// run: another fetch is in flight, no session is established, or (for
// automatic refreshes only) the screen is inactive, the failure holdoff has
// not elapsed, or the rate limiter denies it. Manual refreshes skip every
// guard except single-flight and the session check.
func (c *ChatList) RefreshCmd(manual bool) tea.Cmd {
	if c.inFlight || !c.store.Authenticated() {
		return nil
	}
	if !manual {
		if !c.active {
			return nil
		}
		if !c.lastFailure.IsZero() && time.Since(c.lastFailure) < c.backoff {
			return nil
		}
		if !c.limiter.Allow() {
			return nil
		}
	}

	c.inFlight = true
	c.state = StateLoading
	userID := c.store.UserID()

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelMgr.set(cancel)

	return func() tea.Msg {
		chats, err := c.client.ListChats(ctx, userID)
		return ChatListMsg{Chats: chats, Err: err}
	}
}

// Apply folds a fetch outcome into the synchronizer. Cancelled fetches are
// swallowed; failures keep the previous list visible and open the holdoff
// window; successes replace the list and write it through to the cache.
func (c *ChatList) Apply(msg ChatListMsg) {
	c.inFlight = false
	c.cancelMgr.cancel()

	if api.IsCancelled(msg.Err) {
		c.restoreState()
		return
	}
	if msg.Err != nil {
		c.state = StateError
		c.err = msg.Err
		c.lastFailure = time.Now()
		return
	}

	c.state = StateReady
	c.chats = msg.Chats
	c.err = nil
	c.lastFailure = time.Time{}

	if c.cache != nil {
		if err := c.cache.PutChatList(c.store.UserID(), msg.Chats); err != nil {
			log.Printf("poll: failed to cache chat list: %v", err)
		}
	}
}

// restoreState returns to the pre-fetch state after a cancellation.
func (c *ChatList) restoreState() {
	if len(c.chats) > 0 || c.state == StateReady {
		c.state = StateReady
		return
	}
	if c.err != nil {
		c.state = StateError
		return
	}
	c.state = StateIdle
}

// =============================================================================
// CHAT CREATION
// =============================================================================

// CreateChatCmd asks the backend for a fresh conversation. Creation is not
// subject to the refresh guards; it is always user-initiated. The request is
// bounded by the configured server timeout.
func (c *ChatList) CreateChatCmd() tea.Cmd {
	if !c.store.Authenticated() {
		return nil
	}
	userID := c.store.UserID()
	timeout := config.Global().Server.Timeout()

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		created, err := c.client.CreateChat(ctx, userID)
		return ChatCreatedMsg{Chat: created, Err: err}
	}
}

// ApplyCreated prepends the new conversation so it is selectable immediately,
// before the reconciling refresh confirms it. Callers should follow up with
// RefreshCmd(true).
func (c *ChatList) ApplyCreated(msg ChatCreatedMsg) {
	if msg.Err != nil {
		return
	}
	summary := model.NewChatSummary(msg.Chat.ID, msg.Chat.Title)
	c.chats = append([]model.ChatSummary{summary}, c.chats...)
	if c.state == StateIdle {
		c.state = StateReady
	}
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Cancel aborts any in-flight fetch, used on logout and shutdown.
func (c *ChatList) Cancel() {
	c.cancelMgr.cancel()
}

// Reset drops all data and returns to idle, used on logout.
func (c *ChatList) Reset() {
	c.Cancel()
	c.state = StateIdle
	c.chats = nil
	c.err = nil
	c.inFlight = false
	c.lastFailure = time.Time{}
}

// =============================================================================
// READERS
// =============================================================================

// State returns the synchronizer's lifecycle position.
func (c *ChatList) State() State { return c.state }

// Chats returns the current list, which may be stale while loading or errored.
func (c *ChatList) Chats() []model.ChatSummary { return c.chats }

// Err returns the last fetch error, nil when the last fetch succeeded.
func (c *ChatList) Err() error { return c.err }

// InFlight reports whether a fetch is currently running.
func (c *ChatList) InFlight() bool { return c.inFlight }
