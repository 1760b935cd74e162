// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"github.com/koragpt/kora-tui/internal/api"
	"github.com/koragpt/kora-tui/internal/auth"
	"github.com/koragpt/kora-tui/internal/config"
)

// loadConfig loads configuration honoring the --config and --server flags.
func loadConfig(args Args) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if args.ServerURL != "" {
		cfg.Server.URL = args.ServerURL
	}
	return cfg, nil
}

// newClient builds a backend client from config.
func newClient(cfg *config.Config) *api.Client {
	return api.NewClientWithConfig(&api.ClientConfig{
		BaseURL: cfg.Server.URL,
		Timeout: cfg.Server.Timeout(),
	})
}

// newStore builds the session store rooted at the config directory and
// restores any persisted session onto the client.
func newStore(client *api.Client) (*auth.Store, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}
	store := auth.NewStore(client, dir)
	store.Restore()
	return store, nil
}
