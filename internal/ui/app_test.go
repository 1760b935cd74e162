// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ui

import (
	"testing"

	"github.com/koragpt/kora-tui/internal/api"
	"github.com/koragpt/kora-tui/internal/auth"
	"github.com/koragpt/kora-tui/internal/config"
)

func newTestApp(t *testing.T) App {
	t.Helper()
	client := api.NewClient()
	store := auth.NewStore(client, t.TempDir())
	store.Restore()
	return New(client, store, nil, config.Default())
}

func TestConfigReload_UpdatesSharedThemeInPlace(t *testing.T) {
	a := newTestApp(t)

	theme := a.theme
	cfg := a.cfg
	if !theme.IsDark {
		t.Fatal("default theme is not dark")
	}

	reloaded := config.Default()
	reloaded.UI.Theme = "light"
	updated, _ := a.Update(ConfigReloadedMsg{Config: reloaded})
	a = updated.(App)

	// The screens hold the theme and config by pointer; a reload must flow
	// through those same pointers or they keep rendering the old values.
	if a.theme != theme {
		t.Error("reload replaced the theme pointer; screens keep the stale one")
	}
	if theme.IsDark {
		t.Error("shared theme still dark after switching to light")
	}
	if a.cfg != cfg {
		t.Error("reload replaced the config pointer; screens keep the stale one")
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("shared config theme = %q, want light", cfg.UI.Theme)
	}
}
