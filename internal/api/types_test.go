// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"testing"
)

// =============================================================================
// AUTH PAYLOAD NORMALIZATION TESTS
// =============================================================================

func TestNormalizeAuthPayload_TokenAliases(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"token", `{"token":"t1","user":{"id":1,"username":"a"}}`, "t1"},
		{"accessToken", `{"accessToken":"t2","user":{"id":1,"username":"a"}}`, "t2"},
		{"access_token", `{"access_token":"t3","user":{"id":1,"username":"a"}}`, "t3"},
		{"jwt", `{"jwt":"t4","user":{"id":1,"username":"a"}}`, "t4"},
		{"nested data", `{"data":{"token":"t5","user":{"id":1,"username":"a"}}}`, "t5"},
		{"top level wins over nested", `{"token":"top","data":{"token":"inner"}}`, "top"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := normalizeAuthPayload(json.RawMessage(tt.payload))
			if err != nil {
				t.Fatalf("normalizeAuthPayload error: %v", err)
			}
			if result.Token != tt.want {
				t.Errorf("Token = %q, want %q", result.Token, tt.want)
			}
		})
	}
}

func TestNormalizeAuthPayload_UserAliases(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantID  int64
	}{
		{"user", `{"token":"t","user":{"id":7,"username":"u"}}`, 7},
		{"account", `{"token":"t","account":{"id":8,"username":"u"}}`, 8},
		{"profile", `{"token":"t","profile":{"id":9,"username":"u"}}`, 9},
		{"nested user", `{"data":{"token":"t","user":{"id":10,"username":"u"}}}`, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := normalizeAuthPayload(json.RawMessage(tt.payload))
			if err != nil {
				t.Fatalf("normalizeAuthPayload error: %v", err)
			}
			if result.User == nil {
				t.Fatal("User = nil, want populated")
			}
			if result.User.ID != tt.wantID {
				t.Errorf("User.ID = %d, want %d", result.User.ID, tt.wantID)
			}
		})
	}
}

func TestNormalizeAuthPayload_MissingPieces(t *testing.T) {
	result, err := normalizeAuthPayload(json.RawMessage(`{"message":"registered"}`))
	if err != nil {
		t.Fatalf("normalizeAuthPayload error: %v", err)
	}
	if result.Token != "" {
		t.Errorf("Token = %q, want empty", result.Token)
	}
	if result.User != nil {
		t.Errorf("User = %+v, want nil", result.User)
	}
}

func TestNormalizeAuthPayload_NonObject(t *testing.T) {
	if _, err := normalizeAuthPayload(json.RawMessage(`"just a string"`)); err == nil {
		t.Fatal("expected error for non-object payload")
	}
}

// =============================================================================
// FIELD ALIAS TESTS
// =============================================================================

func TestUser_IDAliases(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    int64
	}{
		{"id", `{"id":1,"username":"a"}`, 1},
		{"userId", `{"userId":2,"username":"a"}`, 2},
		{"user_id", `{"user_id":3,"username":"a"}`, 3},
		{"id preferred", `{"id":4,"userId":5}`, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var u User
			if err := json.Unmarshal([]byte(tt.payload), &u); err != nil {
				t.Fatalf("unmarshal error: %v", err)
			}
			if u.ID != tt.want {
				t.Errorf("ID = %d, want %d", u.ID, tt.want)
			}
		})
	}
}

func TestCreatedChat_IDAliases(t *testing.T) {
	var c1 CreatedChat
	if err := json.Unmarshal([]byte(`{"id":11,"title":"hi"}`), &c1); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if c1.ID != 11 || c1.Title != "hi" {
		t.Errorf("got %+v, want ID=11 Title=hi", c1)
	}

	var c2 CreatedChat
	if err := json.Unmarshal([]byte(`{"chatId":12}`), &c2); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if c2.ID != 12 {
		t.Errorf("ID = %d, want 12", c2.ID)
	}
}

func TestProfile_SnakeCaseFolding(t *testing.T) {
	var p Profile
	payload := `{"email":"e@x.io","first_name":"Ada","lastName":"Lovelace","postal_code":"12345"}`
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if p.FirstName != "Ada" {
		t.Errorf("FirstName = %q, want Ada", p.FirstName)
	}
	if p.LastName != "Lovelace" {
		t.Errorf("LastName = %q, want Lovelace", p.LastName)
	}
	if p.PostalCode != "12345" {
		t.Errorf("PostalCode = %q, want 12345", p.PostalCode)
	}
}
