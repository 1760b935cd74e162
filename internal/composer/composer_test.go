// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package composer

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/koragpt/kora-tui/internal/api"
	"github.com/koragpt/kora-tui/internal/config"
)

func newTestComposer(t *testing.T, handler http.HandlerFunc) *Composer {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := api.NewClientWithConfig(&api.ClientConfig{BaseURL: server.URL, Timeout: 5 * time.Second})
	client.SetToken("tok")
	return New(client)
}

// =============================================================================
// DRAFT TESTS
// =============================================================================

func TestSetDraft_CapByCharacters(t *testing.T) {
	c := New(api.NewClient())

	c.SetDraft(strings.Repeat("a", MaxDraftLen+100))
	if got := len([]rune(c.Draft())); got != MaxDraftLen {
		t.Errorf("draft length = %d, want %d", got, MaxDraftLen)
	}
	if c.Remaining() != 0 {
		t.Errorf("Remaining = %d, want 0", c.Remaining())
	}

	// Multibyte input counts characters, not bytes.
	c.SetDraft(strings.Repeat("é", MaxDraftLen))
	if got := len([]rune(c.Draft())); got != MaxDraftLen {
		t.Errorf("multibyte draft length = %d, want %d", got, MaxDraftLen)
	}
}

func TestRemaining(t *testing.T) {
	c := New(api.NewClient())
	c.SetDraft("hello")
	if got := c.Remaining(); got != MaxDraftLen-5 {
		t.Errorf("Remaining = %d, want %d", got, MaxDraftLen-5)
	}
}

// =============================================================================
// SEND GUARD TESTS
// =============================================================================

func TestCanSend(t *testing.T) {
	c := New(api.NewClient())

	if c.CanSend(1) {
		t.Error("CanSend = true with empty draft")
	}
	c.SetDraft("   \n\t ")
	if c.CanSend(1) {
		t.Error("CanSend = true with whitespace-only draft")
	}
	c.SetDraft("hello")
	if c.CanSend(0) {
		t.Error("CanSend = true with no conversation open")
	}
	if !c.CanSend(1) {
		t.Error("CanSend = false with content and an open conversation")
	}
}

func TestSendCmd_SingleFlight(t *testing.T) {
	c := newTestComposer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	c.SetDraft("hello")

	first := c.SendCmd(1, 42, "gpt-4o-mini")
	if first == nil {
		t.Fatal("SendCmd = nil")
	}
	if !c.Sending() {
		t.Error("Sending() = false with a send outstanding")
	}
	if second := c.SendCmd(1, 42, "gpt-4o-mini"); second != nil {
		t.Error("SendCmd overlapped an in-flight send")
	}
	c.Apply(first().(SendResultMsg))
}

// =============================================================================
// SEND OUTCOME TESTS
// =============================================================================

func TestSend_SuccessClearsDraft(t *testing.T) {
	var got map[string]any
	c := newTestComposer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	})
	c.SetDraft("hello there")

	cmd := c.SendCmd(3, 42, "gpt-4o-mini")
	ok := c.Apply(cmd().(SendResultMsg))

	if !ok {
		t.Fatal("Apply reported failure for a successful send")
	}
	if c.Draft() != "" {
		t.Errorf("draft = %q after success, want empty", c.Draft())
	}
	if got["text"] != "hello there" || got["chatId"] != float64(3) {
		t.Errorf("request body = %v", got)
	}
}

func TestSend_FailureKeepsDraft(t *testing.T) {
	c := newTestComposer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c.SetDraft("precious words")

	cmd := c.SendCmd(1, 42, "m")
	ok := c.Apply(cmd().(SendResultMsg))

	if ok {
		t.Fatal("Apply reported success for a failed send")
	}
	if c.Draft() != "precious words" {
		t.Errorf("draft = %q after failure, want preserved", c.Draft())
	}
	if c.Sending() {
		t.Error("Sending() = true after Apply")
	}
}

func TestSend_StopKeepsDraft(t *testing.T) {
	started := make(chan struct{})
	c := newTestComposer(t, func(w http.ResponseWriter, r *http.Request) {
		close(started)
		time.Sleep(2 * time.Second)
	})
	c.SetDraft("do not lose this")

	cmd := c.SendCmd(1, 42, "m")
	done := make(chan SendResultMsg, 1)
	go func() {
		done <- cmd().(SendResultMsg)
	}()

	<-started
	c.Stop()
	msg := <-done

	if !api.IsCancelled(msg.Err) {
		t.Fatalf("expected cancelled send, got %v", msg.Err)
	}
	c.Apply(msg)
	if c.Draft() != "do not lose this" {
		t.Errorf("draft = %q after cancel, want preserved", c.Draft())
	}
}

func TestApply_NewerDraftSurvivesSuccess(t *testing.T) {
	c := New(api.NewClient())
	c.SetDraft("sent text")
	c.sending = true

	// The user typed a new draft while the send was in flight.
	c.SetDraft("newer text")
	c.Apply(SendResultMsg{ChatID: 1, Text: "sent text"})

	if c.Draft() != "newer text" {
		t.Errorf("draft = %q, newer draft clobbered by send success", c.Draft())
	}
}

// =============================================================================
// MODEL RESOLUTION TESTS
// =============================================================================

func TestResolveModel(t *testing.T) {
	relaxed := config.ChatConfig{DefaultModel: "gpt-4o-mini", RequireModel: false}
	strict := config.ChatConfig{DefaultModel: "gpt-4o-mini", RequireModel: true}

	if m, err := ResolveModel("gpt-4o", strict); err != nil || m != "gpt-4o" {
		t.Errorf("explicit pick: got %q, %v", m, err)
	}
	if m, err := ResolveModel("", relaxed); err != nil || m != "gpt-4o-mini" {
		t.Errorf("fallback: got %q, %v", m, err)
	}
	if _, err := ResolveModel("", strict); !errors.Is(err, ErrModelRequired) {
		t.Errorf("strict without pick: got %v, want ErrModelRequired", err)
	}
}
