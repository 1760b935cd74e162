// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chats and messages as the
// client sees them, normalized from the backend's wire shapes.
package model

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// speakerAI is the backend's speaker tag for assistant messages. Any other
// tag (usernames, "user", historical variants) maps to RoleUser.
const speakerAI = "AI"

// RoleFromSpeaker maps the backend's speaker tag to a client role.
func RoleFromSpeaker(speaker string) Role {
	if speaker == speakerAI {
		return RoleAssistant
	}
	return RoleUser
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single transcript entry. The transcript is replaced wholesale
// on every successful fetch; messages are never mutated client-side.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
