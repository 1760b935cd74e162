// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/koragpt/kora-tui/internal/model"
)

// =============================================================================
// CHAT LIST TESTS
// =============================================================================

func TestListChats_FiltersRecordsWithoutID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chats/users/42/chats" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`[
			{"chatId":1,"text":"first chat"},
			{"text":"orphan without id"},
			{"chatId":3,"text":""}
		]`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	client.SetToken("tok")

	chats, err := client.ListChats(context.Background(), 42)
	if err != nil {
		t.Fatalf("ListChats error: %v", err)
	}
	if len(chats) != 2 {
		t.Fatalf("got %d chats, want 2 (record without id discarded)", len(chats))
	}
	if chats[0].ID != 1 || chats[0].Title != "first chat" {
		t.Errorf("chats[0] = %+v", chats[0])
	}
	if chats[1].Title != "Untitled chat" {
		t.Errorf("empty preview title = %q, want placeholder", chats[1].Title)
	}
}

func TestListChats_TitleIsFirstLine(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"chatId":5,"text":"  line one  \nline two"}]`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	client.SetToken("tok")

	chats, err := client.ListChats(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListChats error: %v", err)
	}
	if chats[0].Title != "line one" {
		t.Errorf("Title = %q, want first line trimmed", chats[0].Title)
	}
}

// =============================================================================
// TRANSCRIPT TESTS
// =============================================================================

func TestGetTranscript_RoleMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chats/9" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"text":[
			{"user":"alice","message":"hello"},
			{"user":"AI","message":"hi there"},
			{"user":"ai","message":"lowercase speaker is not the assistant"}
		]}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	client.SetToken("tok")

	messages, err := client.GetTranscript(context.Background(), 9)
	if err != nil {
		t.Fatalf("GetTranscript error: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(messages))
	}

	wantRoles := []model.Role{model.RoleUser, model.RoleAssistant, model.RoleUser}
	for i, want := range wantRoles {
		if messages[i].Role != want {
			t.Errorf("messages[%d].Role = %q, want %q", i, messages[i].Role, want)
		}
	}
}

func TestGetTranscript_EmptyConversation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":[]}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	client.SetToken("tok")

	messages, err := client.GetTranscript(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetTranscript error: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("got %d messages, want 0", len(messages))
	}
}

// =============================================================================
// SEND TESTS
// =============================================================================

func TestSendMessage_WireShape(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/messages" || r.Method != http.MethodPost {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := testClient(server.URL)
	client.SetToken("tok")

	err := client.SendMessage(context.Background(), SendMessageRequest{
		Text: "hello", ChatID: 3, UserID: 42, Model: "gpt-4o-mini",
	})
	if err != nil {
		t.Fatalf("SendMessage error: %v", err)
	}

	if got["text"] != "hello" || got["chatId"] != float64(3) || got["userId"] != float64(42) || got["model"] != "gpt-4o-mini" {
		t.Errorf("request body = %v", got)
	}
}

// =============================================================================
// MODEL LIST TESTS
// =============================================================================

func TestListModels_ProviderInPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/modelsai/OpenAI" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`[{"model":"gpt-4o-mini","display_name":"GPT-4o mini"},{"model":"gpt-4o","display_name":""}]`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	client.SetToken("tok")

	models, err := client.ListModels(context.Background(), "OpenAI")
	if err != nil {
		t.Fatalf("ListModels error: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("got %d models, want 2", len(models))
	}
	if models[0].Label() != "GPT-4o mini" {
		t.Errorf("Label = %q, want display name", models[0].Label())
	}
	if models[1].Label() != "gpt-4o" {
		t.Errorf("Label = %q, want model id fallback", models[1].Label())
	}
}
