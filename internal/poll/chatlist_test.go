// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package poll

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/koragpt/kora-tui/internal/api"
	"github.com/koragpt/kora-tui/internal/auth"
)

// authedStore returns a store restored from a pre-seeded session so
// authenticated commands can fire without a login round trip.
func authedStore(t *testing.T, client *api.Client) *auth.Store {
	t.Helper()
	dir := t.TempDir()
	session := `{"token":"tok","user":{"id":42,"username":"ada"}}`
	if err := os.WriteFile(filepath.Join(dir, "session.json"), []byte(session), 0600); err != nil {
		t.Fatal(err)
	}
	store := auth.NewStore(client, dir)
	store.Restore()
	return store
}

func newTestChatList(t *testing.T, handler http.HandlerFunc) *ChatList {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: server.URL, Timeout: 5 * time.Second})
	store := authedStore(t, client)
	return NewChatList(client, store, nil, time.Minute, 10*time.Second)
}

func chatListJSON(w http.ResponseWriter) {
	w.Write([]byte(`[{"chatId":1,"text":"alpha"},{"chatId":2,"text":"beta"}]`))
}

// =============================================================================
// REFRESH GUARD TESTS
// =============================================================================

func TestChatList_RefreshRequiresSession(t *testing.T) {
	client := api.NewClient()
	store := auth.NewStore(client, t.TempDir())
	store.Restore()

	list := NewChatList(client, store, nil, time.Minute, 10*time.Second)
	list.SetActive(true)

	if cmd := list.RefreshCmd(true); cmd != nil {
		t.Error("RefreshCmd fired without a session")
	}
}

func TestChatList_SingleFlight(t *testing.T) {
	list := newTestChatList(t, func(w http.ResponseWriter, r *http.Request) {
		chatListJSON(w)
	})
	list.SetActive(true)

	first := list.RefreshCmd(true)
	if first == nil {
		t.Fatal("first RefreshCmd = nil")
	}
	if !list.InFlight() {
		t.Error("InFlight() = false with a fetch outstanding")
	}
	// Neither a manual nor an automatic refresh may overlap the first.
	if cmd := list.RefreshCmd(true); cmd != nil {
		t.Error("manual RefreshCmd overlapped an in-flight fetch")
	}
	if cmd := list.RefreshCmd(false); cmd != nil {
		t.Error("automatic RefreshCmd overlapped an in-flight fetch")
	}

	list.Apply(first().(ChatListMsg))
	if list.InFlight() {
		t.Error("InFlight() = true after Apply")
	}
}

func TestChatList_InactiveSkipsAutomaticOnly(t *testing.T) {
	list := newTestChatList(t, func(w http.ResponseWriter, r *http.Request) {
		chatListJSON(w)
	})
	list.SetActive(false)

	if cmd := list.RefreshCmd(false); cmd != nil {
		t.Error("automatic refresh fired while inactive")
	}
	if cmd := list.RefreshCmd(true); cmd == nil {
		t.Error("manual refresh blocked while inactive")
	}
}

func TestChatList_BackoffAfterFailure(t *testing.T) {
	list := newTestChatList(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	list.SetActive(true)

	cmd := list.RefreshCmd(true)
	list.Apply(cmd().(ChatListMsg))

	if list.State() != StateError {
		t.Fatalf("State = %v after failure, want error", list.State())
	}
	if cmd := list.RefreshCmd(false); cmd != nil {
		t.Error("automatic refresh fired inside the failure holdoff")
	}
	if cmd := list.RefreshCmd(true); cmd == nil {
		t.Error("manual retry blocked by the failure holdoff")
	}
}

func TestChatList_LimiterThrottlesAutomatic(t *testing.T) {
	list := newTestChatList(t, func(w http.ResponseWriter, r *http.Request) {
		chatListJSON(w)
	})
	list.SetActive(true)

	cmd := list.RefreshCmd(false)
	if cmd == nil {
		t.Fatal("first automatic refresh denied")
	}
	list.Apply(cmd().(ChatListMsg))

	// Immediately after a successful refresh another automatic one is noise.
	if cmd := list.RefreshCmd(false); cmd != nil {
		t.Error("back-to-back automatic refresh not throttled")
	}
	if cmd := list.RefreshCmd(true); cmd == nil {
		t.Error("manual refresh throttled")
	}
}

// =============================================================================
// APPLY TESTS
// =============================================================================

func TestChatList_ApplySuccess(t *testing.T) {
	list := newTestChatList(t, func(w http.ResponseWriter, r *http.Request) {
		chatListJSON(w)
	})
	list.SetActive(true)

	cmd := list.RefreshCmd(true)
	list.Apply(cmd().(ChatListMsg))

	if list.State() != StateReady {
		t.Errorf("State = %v, want ready", list.State())
	}
	chats := list.Chats()
	if len(chats) != 2 || chats[0].Title != "alpha" {
		t.Errorf("Chats = %+v", chats)
	}
	if list.Err() != nil {
		t.Errorf("Err = %v, want nil", list.Err())
	}
}

func TestChatList_FailureKeepsStaleList(t *testing.T) {
	fail := false
	list := newTestChatList(t, func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		chatListJSON(w)
	})
	list.SetActive(true)

	cmd := list.RefreshCmd(true)
	list.Apply(cmd().(ChatListMsg))

	fail = true
	cmd = list.RefreshCmd(true)
	list.Apply(cmd().(ChatListMsg))

	if list.State() != StateError {
		t.Errorf("State = %v, want error", list.State())
	}
	if len(list.Chats()) != 2 {
		t.Error("stale chat list discarded on failure")
	}
	if list.Err() == nil {
		t.Error("Err = nil after failure")
	}
}

func TestChatList_CancelledFetchIsSwallowed(t *testing.T) {
	list := newTestChatList(t, func(w http.ResponseWriter, r *http.Request) {
		chatListJSON(w)
	})
	list.SetActive(true)

	cmd := list.RefreshCmd(true)
	list.Apply(cmd().(ChatListMsg))

	// A cancelled follow-up must not disturb the ready state or the list.
	if cmd := list.RefreshCmd(true); cmd == nil {
		t.Fatal("RefreshCmd = nil")
	}
	list.Apply(ChatListMsg{Err: api.ErrCancelled})

	if list.State() != StateReady {
		t.Errorf("State = %v after cancellation, want ready", list.State())
	}
	if len(list.Chats()) != 2 {
		t.Error("chat list lost on cancellation")
	}
}

// =============================================================================
// CREATE TESTS
// =============================================================================

func TestChatList_ApplyCreatedPrepends(t *testing.T) {
	list := newTestChatList(t, func(w http.ResponseWriter, r *http.Request) {
		chatListJSON(w)
	})
	list.SetActive(true)

	cmd := list.RefreshCmd(true)
	list.Apply(cmd().(ChatListMsg))

	list.ApplyCreated(ChatCreatedMsg{Chat: api.CreatedChat{ID: 99}})

	chats := list.Chats()
	if len(chats) != 3 {
		t.Fatalf("got %d chats, want 3", len(chats))
	}
	if chats[0].ID != 99 {
		t.Errorf("new chat not prepended, chats[0].ID = %d", chats[0].ID)
	}
	if chats[0].Title != "Untitled chat" {
		t.Errorf("new chat title = %q", chats[0].Title)
	}
}

func TestChatList_ApplyCreatedIgnoresFailure(t *testing.T) {
	list := newTestChatList(t, func(w http.ResponseWriter, r *http.Request) {
		chatListJSON(w)
	})
	list.ApplyCreated(ChatCreatedMsg{Err: errors.New("boom")})
	if len(list.Chats()) != 0 {
		t.Error("failed creation mutated the list")
	}
}

// =============================================================================
// RESET TESTS
// =============================================================================

func TestChatList_Reset(t *testing.T) {
	list := newTestChatList(t, func(w http.ResponseWriter, r *http.Request) {
		chatListJSON(w)
	})
	list.SetActive(true)

	cmd := list.RefreshCmd(true)
	list.Apply(cmd().(ChatListMsg))

	list.Reset()

	if list.State() != StateIdle {
		t.Errorf("State = %v after reset, want idle", list.State())
	}
	if len(list.Chats()) != 0 {
		t.Error("chats survived reset")
	}
}
