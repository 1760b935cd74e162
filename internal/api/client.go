// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for communicating with the KoraGPT
// backend. All outbound requests flow through the one Client here, which
// attaches the current session token as a bearer credential.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the backend client.
type ClientError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Is lets sentinel comparisons match any ClientError of the same type, so
// callers can write errors.Is(err, api.ErrAuth) regardless of the message the
// backend attached.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeAuth
	ErrTypeNotFound
	ErrTypeTimeout
	ErrTypeConnection
	ErrTypeInvalidResponse
	ErrTypeCancelled
	ErrTypeNoSession
)

// Sentinel errors for easy checking.
var (
	ErrAuth      = &ClientError{Type: ErrTypeAuth, Message: "authentication failed"}
	ErrNotFound  = &ClientError{Type: ErrTypeNotFound, Message: "not found"}
	ErrTimeout   = &ClientError{Type: ErrTypeTimeout, Message: "request timed out"}
	ErrCancelled = &ClientError{Type: ErrTypeCancelled, Message: "request cancelled"}
	ErrNoSession = &ClientError{Type: ErrTypeNoSession, Message: "no session token installed"}
)

// IsAuth checks if an error is an authentication error.
func IsAuth(err error) bool {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Type == ErrTypeAuth
	}
	return false
}

// IsCancelled checks if an error came from a cancelled request. Cancellation
// is user- or lifecycle-triggered and is always swallowed, never surfaced.
func IsCancelled(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Type == ErrTypeCancelled
	}
	return false
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the backend base URL (default: http://localhost:8080)
	BaseURL string

	// Timeout for requests (default: 30s)
	Timeout time.Duration

	// UserAgent sent with every request
	UserAgent string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:   "http://localhost:8080",
		Timeout:   30 * time.Second,
		UserAgent: "kora/0.1.0",
	}
}

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// One shared transport for all backend requests.
var sharedTransport = &http.Transport{
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the KoraGPT backend.
//
// The Client is safe for concurrent use; the token is guarded because login
// and logout swap it while poll commands read it from other goroutines.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient creates a new backend client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new backend client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8080"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "kora/0.1.0"
	}
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")

	return &Client{
		config: config,
		httpClient: &http.Client{
			Transport: sharedTransport,
			Timeout:   config.Timeout,
		},
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// SetToken installs the session token attached to subsequent requests.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// ClearToken removes the default authorization.
func (c *Client) ClearToken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}

// HasToken reports whether a session token is installed.
func (c *Client) HasToken() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token != ""
}

func (c *Client) currentToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// errorBody is the backend's error envelope. Field names vary across
// endpoints, so both are tried.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// do issues one request and decodes a successful JSON response into out
// (out may be nil for endpoints whose body is ignored). authed requests
// refuse to fire without an installed token.
func (c *Client) do(ctx context.Context, method, path string, body any, out any, authed bool) error {
	token := c.currentToken()
	if authed && token == "" {
		return ErrNoSession
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, reader)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return ErrCancelled
		case errors.Is(err, context.DeadlineExceeded):
			return ErrTimeout
		default:
			return &ClientError{Type: ErrTypeConnection, Message: "request failed", Cause: err}
		}
	}
	defer resp.Body.Close()

	// Secure logging: method, path, status and duration only. Never bodies,
	// never the Authorization header.
	log.Printf("api: %s %s -> %d (%v)", method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.handleErrorResponse(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// handleErrorResponse converts HTTP error responses to typed client errors,
// preferring the backend-supplied message over a generic fallback.
func (c *Client) handleErrorResponse(resp *http.Response) error {
	msg := ""
	var eb errorBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&eb); err == nil {
		if eb.Message != "" {
			msg = eb.Message
		} else if eb.Error != "" {
			msg = eb.Error
		}
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		if msg == "" {
			msg = "authentication failed"
		}
		return &ClientError{Type: ErrTypeAuth, Message: msg}
	case http.StatusNotFound:
		if msg == "" {
			msg = "not found"
		}
		return &ClientError{Type: ErrTypeNotFound, Message: msg}
	default:
		if msg == "" {
			msg = fmt.Sprintf("request failed: %s", resp.Status)
		}
		return &ClientError{Type: ErrTypeInvalidResponse, Message: msg}
	}
}
