// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui provides the root Bubble Tea model: screen routing between the
// login form, the chat screen and the settings screen.
package ui

import (
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/koragpt/kora-tui/internal/api"
	"github.com/koragpt/kora-tui/internal/auth"
	"github.com/koragpt/kora-tui/internal/composer"
	"github.com/koragpt/kora-tui/internal/config"
	"github.com/koragpt/kora-tui/internal/poll"
	"github.com/koragpt/kora-tui/internal/storage"
	"github.com/koragpt/kora-tui/internal/ui/chat"
	"github.com/koragpt/kora-tui/internal/ui/login"
	"github.com/koragpt/kora-tui/internal/ui/settings"
	"github.com/koragpt/kora-tui/internal/ui/styles"
)

// Screen identifies the active screen.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenChat
	ScreenSettings
)

// ConfigReloadedMsg is sent by the config watcher when the file on disk
// changed. The new values are already installed as the global config.
type ConfigReloadedMsg struct {
	Config *config.Config
}

// =============================================================================
// MODEL
// =============================================================================

// App is the root model.
type App struct {
	client *api.Client
	store  *auth.Store
	cache  *storage.Cache
	cfg    *config.Config
	theme  *styles.Theme

	screen   Screen
	login    login.Model
	chat     chat.Model
	settings settings.Model

	width  int
	height int
}

// New creates the root model. cache may be nil when the local cache could not
// be opened; the synchronizers fall back to network-only operation.
func New(client *api.Client, store *auth.Store, cache *storage.Cache, cfg *config.Config) App {
	theme := styles.NewTheme(cfg.UI.Theme)

	screen := ScreenLogin
	if store.Authenticated() {
		screen = ScreenChat
	}

	return App{
		client: client,
		store:  store,
		cache:  cache,
		cfg:    cfg,
		theme:  theme,
		screen: screen,
		login:  login.New(store, theme),
		chat:   chat.New(client, store, cache, cfg, theme),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	if a.screen == ScreenChat {
		return a.chat.Init()
	}
	return a.login.Init()
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Every screen tracks the size so switches render correctly.
		var cmds []tea.Cmd
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		cmds = append(cmds, cmd)
		a.chat, cmd = a.chat.Update(msg)
		cmds = append(cmds, cmd)
		a.settings, cmd = a.settings.Update(msg)
		cmds = append(cmds, cmd)
		return a, tea.Batch(cmds...)

	case ConfigReloadedMsg:
		// The watcher delivers reloads through the program, so this mutation
		// happens on the update loop like every other state change. The config
		// and theme are updated through their existing pointers; every screen
		// holds the same ones.
		*a.cfg = *msg.Config
		*a.theme = *styles.NewTheme(a.cfg.UI.Theme)
		log.Printf("config reloaded, theme=%s server=%s", a.cfg.UI.Theme, a.cfg.Server.URL)
		return a, nil

	case login.LoginResultMsg:
		if msg.Err == nil && msg.User != nil {
			return a.enterChat()
		}

	case login.RegisterResultMsg:
		if msg.Err == nil && msg.SessionEstablished {
			return a.enterChat()
		}

	case chat.OpenSettingsMsg:
		a.screen = ScreenSettings
		a.settings = settings.New(a.client, a.theme)
		pause := a.chat.SetActive(false)
		init := a.settings.Init()
		var cmd tea.Cmd
		a.settings, cmd = a.settings.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
		return a, tea.Batch(pause, init, cmd)

	case settings.CloseMsg:
		a.screen = ScreenChat
		return a, a.chat.SetActive(true)

	case chat.LogoutRequestMsg:
		return a.logout()
	}

	return a.routeToScreen(msg)
}

// enterChat switches to the chat screen after a session is established.
func (a App) enterChat() (tea.Model, tea.Cmd) {
	a.screen = ScreenChat
	a.chat = chat.New(a.client, a.store, a.cache, a.cfg, a.theme)
	init := a.chat.Init()
	var cmd tea.Cmd
	a.chat, cmd = a.chat.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
	return a, tea.Batch(init, cmd)
}

// logout tears down the session and every trace of the account's data, then
// returns to the login screen.
func (a App) logout() (tea.Model, tea.Cmd) {
	a.chat.Reset()
	a.store.Logout()
	if a.cache != nil {
		if err := a.cache.Clear(); err != nil {
			log.Printf("clear cache on logout: %v", err)
		}
	}

	a.screen = ScreenLogin
	a.login = login.New(a.store, a.theme)
	init := a.login.Init()
	var cmd tea.Cmd
	a.login, cmd = a.login.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
	return a, tea.Batch(init, cmd)
}

// routeToScreen forwards a message to the active screen. Synchronizer and
// composer traffic always lands on the chat screen, even while settings is
// up, so the tick loops keep re-arming while the screen is paused.
func (a App) routeToScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case poll.ChatListTickMsg, poll.ChatListMsg, poll.ChatCreatedMsg,
		poll.TranscriptTickMsg, poll.TranscriptMsg,
		composer.SendResultMsg, chat.ModelsMsg:
		if a.screen != ScreenLogin {
			var cmd tea.Cmd
			a.chat, cmd = a.chat.Update(msg)
			return a, cmd
		}
	}

	var cmd tea.Cmd
	switch a.screen {
	case ScreenLogin:
		a.login, cmd = a.login.Update(msg)
	case ScreenChat:
		a.chat, cmd = a.chat.Update(msg)
	case ScreenSettings:
		a.settings, cmd = a.settings.Update(msg)
	}
	return a, cmd
}

// View implements tea.Model.
func (a App) View() string {
	switch a.screen {
	case ScreenChat:
		return a.chat.View()
	case ScreenSettings:
		return a.settings.View()
	default:
		return a.login.View()
	}
}
