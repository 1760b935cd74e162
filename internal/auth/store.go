// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth owns the client session: the token and user identity, their
// persistence across runs, and their installation on the request gateway.
//
// The store is the single writer of session state (login, register, logout);
// everything else only reads it. Persistence failures are logged and
// swallowed - session loss is recoverable by logging in again.
package auth

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/koragpt/kora-tui/internal/api"
	"github.com/koragpt/kora-tui/internal/util"
)

// sessionFileName is the fixed name of the durable session entry.
const sessionFileName = "session.json"

// Session is the persisted {token, user} pair. An empty token means
// unauthenticated; the two invariantly travel together.
type Session struct {
	Token string    `json:"token,omitempty"`
	User  *api.User `json:"user,omitempty"`
}

// Authenticated reports whether the session can back authenticated requests.
func (s Session) Authenticated() bool {
	return s.Token != "" && s.User != nil
}

// =============================================================================
// SESSION STORE
// =============================================================================

// Store holds the current session and keeps the in-memory copy, the durable
// file, and the gateway's default authorization consistent: every mutation
// updates all three within the same operation.
type Store struct {
	mu      sync.RWMutex
	session Session
	ready   bool

	client *api.Client
	dir    string
}

// NewStore creates a session store persisting under dir (typically ~/.kora).
// Call Restore before anything that needs session state.
func NewStore(client *api.Client, dir string) *Store {
	return &Store{client: client, dir: dir}
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Restore loads any previously persisted session. Absent or malformed data
// yields the empty session; Restore never fails. Afterwards the store is
// ready and authenticated requests may fire.
func (s *Store) Restore() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session = s.readStored()
	s.ready = true

	if s.session.Token != "" {
		s.client.SetToken(s.session.Token)
	}
}

// readStored parses the session file, treating every failure as "no session".
func (s *Store) readStored() Session {
	data, err := os.ReadFile(s.filePath())
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("auth: failed to read stored session: %v", err)
		}
		return Session{}
	}

	var stored Session
	if err := json.Unmarshal(data, &stored); err != nil {
		log.Printf("auth: discarding malformed stored session: %v", err)
		return Session{}
	}
	// A token without a user (or vice versa) is an inconsistent half-session;
	// treat it as absent rather than guessing.
	if !stored.Authenticated() {
		return Session{}
	}
	return stored
}

// Login sends credentials to the backend and, on success, establishes the
// session everywhere at once. Rejected credentials surface as api.ErrAuth
// and are never retried here.
func (s *Store) Login(ctx context.Context, creds api.Credentials) (*api.User, error) {
	result, err := s.client.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	if result.Token == "" || result.User == nil {
		return nil, &api.ClientError{Type: api.ErrTypeInvalidResponse, Message: "login response carried no token or user"}
	}

	s.setSession(Session{Token: result.Token, User: result.User})
	return result.User, nil
}

// Register creates an account. Some backend variants return a session token
// from register, others require a follow-up Login; the session is only
// established when a token came back. The returned bool says which happened.
func (s *Store) Register(ctx context.Context, reg api.Registration) (bool, error) {
	result, err := s.client.Register(ctx, reg)
	if err != nil {
		return false, err
	}
	if result.Token == "" || result.User == nil {
		return false, nil
	}

	s.setSession(Session{Token: result.Token, User: result.User})
	return true, nil
}

// Logout clears in-memory and persisted state and removes the gateway's
// default authorization.
func (s *Store) Logout() {
	s.setSession(Session{})
}

// setSession is the single mutation point keeping memory, disk and gateway
// consistent.
func (s *Store) setSession(next Session) {
	s.mu.Lock()
	s.session = next
	s.mu.Unlock()

	if next.Token != "" {
		s.client.SetToken(next.Token)
	} else {
		s.client.ClearToken()
	}

	s.persist(next)
}

// persist writes (or removes) the durable entry. Failures are swallowed and
// logged: a session that did not stick costs a re-login, nothing more.
func (s *Store) persist(session Session) {
	path := s.filePath()

	if session.Token == "" {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("auth: failed to remove stored session: %v", err)
		}
		return
	}

	data, err := json.Marshal(session)
	if err != nil {
		log.Printf("auth: failed to encode session: %v", err)
		return
	}
	// 0600: the file holds a bearer credential.
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		log.Printf("auth: failed to persist session: %v", err)
	}
}

func (s *Store) filePath() string {
	return filepath.Join(s.dir, sessionFileName)
}

// =============================================================================
// READERS
// =============================================================================

// Ready reports whether Restore has completed. Requests that need a session
// must not fire before this.
func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Session returns a copy of the current session.
func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Authenticated reports whether a session is established.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Authenticated()
}

// UserID returns the authenticated user's id, or 0 when logged out.
func (s *Store) UserID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session.User == nil {
		return 0
	}
	return s.session.User.ID
}

// Username returns the authenticated user's name, or "" when logged out.
func (s *Store) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session.User == nil {
		return ""
	}
	return s.session.User.Username
}
