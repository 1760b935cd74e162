// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/koragpt/kora-tui/internal/model"
)

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

// Login exchanges credentials for a session. The token is normalized from
// whatever field name the backend used but NOT installed on the client; the
// session store owns that decision.
func (c *Client) Login(ctx context.Context, creds Credentials) (AuthResult, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", creds, &raw, false); err != nil {
		return AuthResult{}, err
	}
	return normalizeAuthPayload(raw)
}

// Register creates an account. Depending on backend variant the response may
// or may not carry a session token; callers must check AuthResult.Token.
func (c *Client) Register(ctx context.Context, reg Registration) (AuthResult, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", reg, &raw, false); err != nil {
		return AuthResult{}, err
	}
	return normalizeAuthPayload(raw)
}

// =============================================================================
// CHAT ENDPOINTS
// =============================================================================

// ListChats fetches the user's conversations, normalized into summaries.
// Records without an id are discarded; they cannot be linked to.
func (c *Client) ListChats(ctx context.Context, userID int64) ([]model.ChatSummary, error) {
	var records []ChatRecord
	path := "/api/chats/users/" + strconv.FormatInt(userID, 10) + "/chats"
	if err := c.do(ctx, http.MethodGet, path, nil, &records, true); err != nil {
		return nil, err
	}

	chats := make([]model.ChatSummary, 0, len(records))
	for _, r := range records {
		if r.ChatID == nil {
			continue
		}
		chats = append(chats, model.NewChatSummary(*r.ChatID, r.Text))
	}
	return chats, nil
}

// CreateChat asks the backend for a fresh conversation.
func (c *Client) CreateChat(ctx context.Context, userID int64) (CreatedChat, error) {
	var created CreatedChat
	body := map[string]int64{"userId": userID}
	if err := c.do(ctx, http.MethodPost, "/api/chats", body, &created, true); err != nil {
		return CreatedChat{}, err
	}
	return created, nil
}

// GetTranscript fetches one conversation's history as role-tagged messages.
func (c *Client) GetTranscript(ctx context.Context, chatID int64) ([]model.Message, error) {
	var resp chatResponse
	path := "/api/chats/" + strconv.FormatInt(chatID, 10)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}

	messages := make([]model.Message, 0, len(resp.Text))
	for _, entry := range resp.Text {
		messages = append(messages, model.Message{
			Role:    model.RoleFromSpeaker(entry.User),
			Content: entry.Message,
		})
	}
	return messages, nil
}

// SendMessage submits one user message to a conversation. The backend
// appends both the message and the model's reply to the transcript; the
// caller refetches to see them.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) error {
	return c.do(ctx, http.MethodPost, "/api/messages", req, nil, true)
}

// =============================================================================
// MODEL ENDPOINTS
// =============================================================================

// ListModels fetches the models offered by a provider ("OpenAI", "Google").
func (c *Client) ListModels(ctx context.Context, provider string) ([]model.ModelInfo, error) {
	var models []model.ModelInfo
	path := "/api/modelsai/" + url.PathEscape(provider)
	if err := c.do(ctx, http.MethodGet, path, nil, &models, true); err != nil {
		return nil, err
	}
	return models, nil
}

// =============================================================================
// PROFILE ENDPOINTS
// =============================================================================

// GetProfile fetches the authenticated user's profile.
func (c *Client) GetProfile(ctx context.Context) (Profile, error) {
	var p Profile
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &p, true); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// UpdateProfile patches profile fields. Zero-valued fields are omitted from
// the request body, so a partial Profile is a partial update.
func (c *Client) UpdateProfile(ctx context.Context, p Profile) error {
	return c.do(ctx, http.MethodPatch, "/api/users/me", p, nil, true)
}

// ChangePassword rotates the account password.
func (c *Client) ChangePassword(ctx context.Context, change PasswordChange) error {
	return c.do(ctx, http.MethodPost, "/api/users/me/password", change, nil, true)
}
