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
	"github.com/koragpt/kora-tui/internal/model"
	"github.com/koragpt/kora-tui/internal/storage"
)

// =============================================================================
// TRANSCRIPT SYNCHRONIZER
// =============================================================================

// Transcript keeps the open conversation's message history in sync with the
// backend.
//
// Switching conversations bumps a generation counter and cancels the
// in-flight fetch; a result that still arrives carries the old generation and
// is discarded, so a slow response for chat A can never paint over chat B.
//
// All methods must be called from the Update loop.
type Transcript struct {
	client *api.Client
	cache  *storage.Cache // optional

	interval time.Duration
	backoff  time.Duration
	limiter  *rate.Limiter

	cancelMgr *cancelManager

	chatID      int64 // 0 means no conversation selected
	gen         uint64
	state       State
	messages    []model.Message
	err         error
	inFlight    bool
	lastFailure time.Time
	active      bool
}

// NewTranscript creates a transcript synchronizer refreshing every interval
// while a conversation is open and its screen active.
func NewTranscript(client *api.Client, cache *storage.Cache, interval, backoff time.Duration) *Transcript {
	return &Transcript{
		client:    client,
		cache:     cache,
		interval:  interval,
		backoff:   backoff,
		limiter:   rate.NewLimiter(rate.Every(interval/2), 1),
		cancelMgr: newCancelManager(),
		state:     StateIdle,
	}
}

// SetChat switches the open conversation. Any in-flight fetch for the
// previous conversation is cancelled and its late result invalidated. The
// new conversation starts from cached messages when available. SetChat(0)
// closes the conversation.
func (t *Transcript) SetChat(chatID int64) {
	if chatID == t.chatID {
		return
	}

	t.cancelMgr.cancel()
	t.gen++
	t.chatID = chatID
	t.messages = nil
	t.err = nil
	t.inFlight = false
	t.state = StateIdle
	t.lastFailure = time.Time{}

	if chatID != 0 && t.cache != nil {
		cached, err := t.cache.GetTranscript(chatID)
		if err != nil {
			log.Printf("poll: failed to prime transcript from cache: %v", err)
		} else if len(cached) > 0 {
			t.messages = cached
		}
	}
}

// SetActive tells the synchronizer whether the conversation screen is
// visible.
func (t *Transcript) SetActive(active bool) {
	t.active = active
}

// TickCmd schedules the next automatic refresh.
func (t *Transcript) TickCmd() tea.Cmd {
	return tea.Tick(t.interval, func(now time.Time) tea.Msg {
		return TranscriptTickMsg{Time: now}
	})
}

// FetchCmd starts a transcript fetch under the same guards as the chat list:
// single-flight always; activity, failure holdoff and rate limit for
// automatic refreshes only. Returns nil when no conversation is open.
func (t *Transcript) FetchCmd(manual bool) tea.Cmd {
	if t.chatID == 0 || t.inFlight {
		return nil
	}
	if !manual {
		if !t.active {
			return nil
		}
		if !t.lastFailure.IsZero() && time.Since(t.lastFailure) < t.backoff {
			return nil
		}
		if !t.limiter.Allow() {
			return nil
		}
	}

	t.inFlight = true
	t.state = StateLoading
	chatID := t.chatID
	gen := t.gen

	ctx, cancel := context.WithCancel(context.Background())
	t.cancelMgr.set(cancel)

	return func() tea.Msg {
		messages, err := t.client.GetTranscript(ctx, chatID)
		return TranscriptMsg{ChatID: chatID, Gen: gen, Messages: messages, Err: err}
	}
}

// Apply folds a fetch outcome into the synchronizer. Results from a
// superseded generation are dropped without touching any state.
func (t *Transcript) Apply(msg TranscriptMsg) {
	if msg.Gen != t.gen {
		return
	}

	t.inFlight = false
	t.cancelMgr.cancel()

	if api.IsCancelled(msg.Err) {
		t.restoreState()
		return
	}
	if msg.Err != nil {
		t.state = StateError
		t.err = msg.Err
		t.lastFailure = time.Now()
		return
	}

	t.state = StateReady
	t.messages = msg.Messages
	t.err = nil
	t.lastFailure = time.Time{}

	if t.cache != nil {
		if err := t.cache.PutTranscript(msg.ChatID, msg.Messages); err != nil {
			log.Printf("poll: failed to cache transcript: %v", err)
		}
	}
}

func (t *Transcript) restoreState() {
	switch {
	case len(t.messages) > 0:
		t.state = StateReady
	case t.err != nil:
		t.state = StateError
	default:
		t.state = StateIdle
	}
}

// AppendLocal appends a message to the in-memory transcript without touching
// the backend, used to echo the user's message the moment it is sent rather
// than after the next refresh confirms it.
func (t *Transcript) AppendLocal(msg model.Message) {
	t.messages = append(t.messages, msg)
	if t.state == StateIdle {
		t.state = StateReady
	}
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Cancel aborts any in-flight fetch.
func (t *Transcript) Cancel() {
	t.cancelMgr.cancel()
}

// Reset closes the conversation and drops all data, used on logout.
func (t *Transcript) Reset() {
	t.SetChat(0)
}

// =============================================================================
// READERS
// =============================================================================

// ChatID returns the open conversation's id, 0 when none is open.
func (t *Transcript) ChatID() int64 { return t.chatID }

// State returns the synchronizer's lifecycle position.
func (t *Transcript) State() State { return t.state }

// Messages returns the current transcript, possibly stale while loading.
func (t *Transcript) Messages() []model.Message { return t.messages }

// Err returns the last fetch error, nil when the last fetch succeeded.
func (t *Transcript) Err() error { return t.err }

// InFlight reports whether a fetch is currently running.
func (t *Transcript) InFlight() bool { return t.inFlight }
