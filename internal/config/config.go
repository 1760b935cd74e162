// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for kora.
//
// Configuration comes from ~/.kora/config.toml, with sensible defaults,
// KORA_* environment variable overrides, and validation.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete kora configuration.
type Config struct {
	// Server configuration
	Server ServerConfig `toml:"server"`

	// Polling configuration
	Poll PollConfig `toml:"poll"`

	// Chat configuration
	Chat ChatConfig `toml:"chat"`

	// UI configuration
	UI UIConfig `toml:"ui"`
}

// ServerConfig contains backend connection configuration.
type ServerConfig struct {
	// URL is the backend base URL
	URL string `toml:"url"`
	// TimeoutSecs is the per-request timeout in seconds
	TimeoutSecs int `toml:"timeout_secs"`
}

// Timeout returns the per-request timeout as a duration.
func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// PollConfig contains refresh cadence configuration. Automatic refreshes
// pause while the screen that shows the data is not active.
type PollConfig struct {
	// ChatListSecs is the chat list refresh interval in seconds
	ChatListSecs int `toml:"chat_list_secs"`
	// TranscriptSecs is the open-conversation refresh interval in seconds
	TranscriptSecs int `toml:"transcript_secs"`
	// ErrorBackoffSecs is the automatic-refresh holdoff after a failure
	ErrorBackoffSecs int `toml:"error_backoff_secs"`
}

// ChatListInterval returns the chat list refresh interval as a duration.
func (p PollConfig) ChatListInterval() time.Duration {
	return time.Duration(p.ChatListSecs) * time.Second
}

// TranscriptInterval returns the transcript refresh interval as a duration.
func (p PollConfig) TranscriptInterval() time.Duration {
	return time.Duration(p.TranscriptSecs) * time.Second
}

// ErrorBackoff returns the post-failure holdoff as a duration.
func (p PollConfig) ErrorBackoff() time.Duration {
	return time.Duration(p.ErrorBackoffSecs) * time.Second
}

// ChatConfig contains conversation configuration.
type ChatConfig struct {
	// DefaultProvider is the provider preselected in the model picker
	DefaultProvider string `toml:"default_provider"`
	// DefaultModel is used when no model has been picked and RequireModel is off
	DefaultModel string `toml:"default_model"`
	// RequireModel refuses to send until a model has been explicitly picked
	RequireModel bool `toml:"require_model"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
	// Markdown renders assistant replies as formatted markdown
	Markdown bool `toml:"markdown"`
	// CompactMode uses a more compact UI layout
	CompactMode bool `toml:"compact_mode"`
	// SidebarWidth is the chat list column width in cells
	SidebarWidth int `toml:"sidebar_width"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:         "http://localhost:8080",
			TimeoutSecs: 30,
		},
		Poll: PollConfig{
			ChatListSecs:     15,
			TranscriptSecs:   8,
			ErrorBackoffSecs: 10,
		},
		Chat: ChatConfig{
			DefaultProvider: "OpenAI",
			DefaultModel:    "gpt-4o-mini",
			RequireModel:    false,
		},
		UI: UIConfig{
			Theme:        "dark",
			Markdown:     true,
			CompactMode:  false,
			SidebarWidth: 28,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// Dir returns the kora configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".kora"), nil
}

// Path returns the path to the TOML config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureDir ensures the config directory exists.
func EnsureDir() error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from ~/.kora/config.toml, falling back to defaults
// when the file does not exist. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path with full
// validation. A missing file is not an error; it yields defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, statErr := os.Stat(path); statErr == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SetDefaults sets default values for any missing or zero-value fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Server.URL == "" {
		c.Server.URL = defaults.Server.URL
	}
	if c.Server.TimeoutSecs == 0 {
		c.Server.TimeoutSecs = defaults.Server.TimeoutSecs
	}

	if c.Poll.ChatListSecs == 0 {
		c.Poll.ChatListSecs = defaults.Poll.ChatListSecs
	}
	if c.Poll.TranscriptSecs == 0 {
		c.Poll.TranscriptSecs = defaults.Poll.TranscriptSecs
	}
	if c.Poll.ErrorBackoffSecs == 0 {
		c.Poll.ErrorBackoffSecs = defaults.Poll.ErrorBackoffSecs
	}

	if c.Chat.DefaultProvider == "" {
		c.Chat.DefaultProvider = defaults.Chat.DefaultProvider
	}
	if c.Chat.DefaultModel == "" {
		c.Chat.DefaultModel = defaults.Chat.DefaultModel
	}

	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.SidebarWidth == 0 {
		c.UI.SidebarWidth = defaults.UI.SidebarWidth
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# kora configuration file")
	fmt.Fprintln(file, "# Generated by kora - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Server.URL != "" {
		u, err := url.Parse(c.Server.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, ValidationError{
				Field:   "server.url",
				Message: fmt.Sprintf("invalid URL '%s', must be http(s)", c.Server.URL),
			})
		}
	}
	if c.Server.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.timeout_secs",
			Message: "must be non-negative",
		})
	}

	// Sub-second polling hammers the backend for no visible benefit.
	if c.Poll.ChatListSecs < 1 {
		errs = append(errs, ValidationError{
			Field:   "poll.chat_list_secs",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Poll.ChatListSecs),
		})
	}
	if c.Poll.TranscriptSecs < 1 {
		errs = append(errs, ValidationError{
			Field:   "poll.transcript_secs",
			Message: fmt.Sprintf("must be at least 1, got %d", c.Poll.TranscriptSecs),
		})
	}
	if c.Poll.ErrorBackoffSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "poll.error_backoff_secs",
			Message: "must be non-negative",
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}
	if c.UI.SidebarWidth < 10 || c.UI.SidebarWidth > 80 {
		errs = append(errs, ValidationError{
			Field:   "ui.sidebar_width",
			Message: fmt.Sprintf("must be 10-80, got %d", c.UI.SidebarWidth),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - KORA_SERVER_URL: overrides server.url
//   - KORA_TIMEOUT_SECS: overrides server.timeout_secs
//   - KORA_MODEL: overrides chat.default_model
//   - KORA_PROVIDER: overrides chat.default_provider
//   - KORA_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if serverURL := os.Getenv("KORA_SERVER_URL"); serverURL != "" {
		c.Server.URL = serverURL
	}
	if timeout := os.Getenv("KORA_TIMEOUT_SECS"); timeout != "" {
		if secs, err := strconv.Atoi(timeout); err == nil && secs > 0 {
			c.Server.TimeoutSecs = secs
		}
	}
	if model := os.Getenv("KORA_MODEL"); model != "" {
		c.Chat.DefaultModel = model
	}
	if provider := os.Getenv("KORA_PROVIDER"); provider != "" {
		c.Chat.DefaultProvider = provider
	}
	if theme := os.Getenv("KORA_THEME"); theme != "" {
		c.UI.Theme = theme
	}
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig   *Config
	globalConfigMu sync.RWMutex
)

// Global returns the global configuration instance, loading from disk on
// first access when nothing was installed via SetGlobal. A failed load falls
// back to defaults rather than blocking startup. Thread-safe.
func Global() *Config {
	globalConfigMu.RLock()
	cfg := globalConfig
	globalConfigMu.RUnlock()
	if cfg != nil {
		return cfg
	}

	loaded, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		loaded = Default()
	}

	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	if globalConfig == nil {
		globalConfig = loaded
	}
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
}
