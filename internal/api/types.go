// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
)

// =============================================================================
// AUTH TYPES
// =============================================================================

// Credentials carries the login form fields.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration carries the register form fields. Role and Active mirror what
// the backend's user table expects for self-signup.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Active   bool   `json:"active"`
}

// User is the backend's user record. Only the fields the client reads are
// declared; the id accepts the aliases seen across backend variants.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// UnmarshalJSON accepts id under "id", "userId" or "user_id".
func (u *User) UnmarshalJSON(data []byte) error {
	type alias struct {
		ID       *int64 `json:"id"`
		UserID   *int64 `json:"userId"`
		UserID2  *int64 `json:"user_id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Role     string `json:"role"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	switch {
	case a.ID != nil:
		u.ID = *a.ID
	case a.UserID != nil:
		u.ID = *a.UserID
	case a.UserID2 != nil:
		u.ID = *a.UserID2
	}
	u.Username = a.Username
	u.Email = a.Email
	u.Role = a.Role
	return nil
}

// AuthResult is the normalized outcome of a login or register call.
// Token is empty when the backend did not establish a session (some register
// flows require a subsequent explicit login).
type AuthResult struct {
	Token string
	User  *User
}

// tokenAliases are the field names backends have used for the session token,
// in preference order.
var tokenAliases = []string{"token", "accessToken", "access_token", "jwt"}

// userAliases are the field names backends have used for the user object.
var userAliases = []string{"user", "account", "profile"}

// normalizeAuthPayload extracts {token, user} from an auth response whose
// field names vary across backend versions. Both the top-level object and a
// nested "data" object are searched, first hit wins.
func normalizeAuthPayload(raw json.RawMessage) (AuthResult, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return AuthResult{}, &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode auth response", Cause: err}
	}

	sources := []map[string]json.RawMessage{payload}
	if nested, ok := payload["data"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(nested, &inner); err == nil {
			sources = append(sources, inner)
		}
	}

	var result AuthResult
	for _, source := range sources {
		if result.Token == "" {
			for _, key := range tokenAliases {
				if v, ok := source[key]; ok {
					var s string
					if err := json.Unmarshal(v, &s); err == nil && s != "" {
						result.Token = s
						break
					}
				}
			}
		}
		if result.User == nil {
			for _, key := range userAliases {
				if v, ok := source[key]; ok {
					var u User
					if err := json.Unmarshal(v, &u); err == nil {
						result.User = &u
						break
					}
				}
			}
		}
		if result.Token != "" && result.User != nil {
			break
		}
	}
	return result, nil
}

// =============================================================================
// CHAT TYPES
// =============================================================================

// ChatRecord is one entry of the chat list response. ChatID is a pointer so
// records with a missing id can be detected and discarded.
type ChatRecord struct {
	ChatID *int64 `json:"chatId"`
	Text   string `json:"text"`
}

// CreatedChat is the create-chat response. The id field name varies.
type CreatedChat struct {
	ID    int64
	Title string
}

// UnmarshalJSON accepts the chat id under "id" or "chatId".
func (c *CreatedChat) UnmarshalJSON(data []byte) error {
	type alias struct {
		ID     *int64 `json:"id"`
		ChatID *int64 `json:"chatId"`
		Title  string `json:"title"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	switch {
	case a.ID != nil:
		c.ID = *a.ID
	case a.ChatID != nil:
		c.ID = *a.ChatID
	}
	c.Title = a.Title
	return nil
}

// TranscriptEntry is one element of a conversation's "text" array.
// User holds the speaker tag ("AI" for the assistant, a username otherwise).
type TranscriptEntry struct {
	User    string `json:"user"`
	Message string `json:"message"`
}

// chatResponse is the get-chat wire shape.
type chatResponse struct {
	Text []TranscriptEntry `json:"text"`
}

// SendMessageRequest is the send-message wire shape.
type SendMessageRequest struct {
	Text   string `json:"text"`
	ChatID int64  `json:"chatId"`
	UserID int64  `json:"userId"`
	Model  string `json:"model"`
}

// =============================================================================
// PROFILE TYPES
// =============================================================================

// Profile is the /api/users/me record. First/last name and postal code
// accept both camelCase and snake_case spellings on read; writes use
// camelCase, which every observed backend accepts.
type Profile struct {
	Email      string `json:"email,omitempty"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
	Address    string `json:"address,omitempty"`
	City       string `json:"city,omitempty"`
	Country    string `json:"country,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

// UnmarshalJSON folds snake_case spellings into the canonical fields.
func (p *Profile) UnmarshalJSON(data []byte) error {
	type alias struct {
		Email       string `json:"email"`
		FirstName   string `json:"firstName"`
		FirstSnake  string `json:"first_name"`
		LastName    string `json:"lastName"`
		LastSnake   string `json:"last_name"`
		Address     string `json:"address"`
		City        string `json:"city"`
		Country     string `json:"country"`
		PostalCode  string `json:"postalCode"`
		PostalSnake string `json:"postal_code"`
	}
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	p.Email = a.Email
	p.FirstName = firstNonEmpty(a.FirstName, a.FirstSnake)
	p.LastName = firstNonEmpty(a.LastName, a.LastSnake)
	p.Address = a.Address
	p.City = a.City
	p.Country = a.Country
	p.PostalCode = firstNonEmpty(a.PostalCode, a.PostalSnake)
	return nil
}

// PasswordChange is the change-password wire shape.
type PasswordChange struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
