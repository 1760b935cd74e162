// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the main conversation screen: the chat list sidebar,
// the transcript viewport and the composer, glued to the synchronizers that
// keep them current.
package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/koragpt/kora-tui/internal/api"
	"github.com/koragpt/kora-tui/internal/auth"
	"github.com/koragpt/kora-tui/internal/composer"
	"github.com/koragpt/kora-tui/internal/config"
	"github.com/koragpt/kora-tui/internal/model"
	"github.com/koragpt/kora-tui/internal/poll"
	"github.com/koragpt/kora-tui/internal/storage"
	"github.com/koragpt/kora-tui/internal/ui/styles"
)

// Focus identifies which pane receives key input.
type Focus int

const (
	FocusInput Focus = iota
	FocusSidebar
)

// pickerState tracks the provider/model picker overlay.
type pickerState int

const (
	pickerClosed pickerState = iota
	pickerProvider
	pickerModel
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the chat screen.
//
// The synchronizers and the composer are pointers: they carry mutexes (via
// their cancel managers) and survive Bubble Tea's model copying by identity.
type Model struct {
	client *api.Client
	store  *auth.Store
	cfg    *config.Config
	theme  *styles.Theme
	keys   KeyMap

	chatList   *poll.ChatList
	transcript *poll.Transcript
	comp       *composer.Composer

	input    textarea.Model
	viewport viewport.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	focus    Focus
	selected int // index into chatList.Chats()

	picker      pickerState
	provider    string
	models      []model.ModelInfo
	modelsErr   error
	pickerIndex int
	pickedModel string

	statusMsg string
	width     int
	height    int
	active    bool
	ready     bool // first WindowSizeMsg seen
}

// New creates the chat screen and its synchronizers. cache may be nil.
func New(client *api.Client, store *auth.Store, cache *storage.Cache, cfg *config.Config, theme *styles.Theme) Model {
	input := textarea.New()
	input.Placeholder = "Type a message…"
	input.CharLimit = composer.MaxDraftLen
	input.ShowLineNumbers = false
	input.SetHeight(3)
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.MiniDot
	spin.Style = theme.Spinner

	chatList := poll.NewChatList(client, store, cache,
		cfg.Poll.ChatListInterval(), cfg.Poll.ErrorBackoff())
	transcript := poll.NewTranscript(client, cache,
		cfg.Poll.TranscriptInterval(), cfg.Poll.ErrorBackoff())

	return Model{
		client:     client,
		store:      store,
		cfg:        cfg,
		theme:      theme,
		keys:       DefaultKeyMap(),
		chatList:   chatList,
		transcript: transcript,
		comp:       composer.New(client),
		input:      input,
		spin:       spin,
		focus:      FocusInput,
		provider:   cfg.Chat.DefaultProvider,
	}
}

// Init implements tea.Model. It primes from the cache, kicks off the first
// fetches and starts both poll timers.
func (m Model) Init() tea.Cmd {
	m.chatList.Prime()
	m.chatList.SetActive(true)
	m.transcript.SetActive(true)

	return tea.Batch(
		textarea.Blink,
		m.spin.Tick,
		m.chatList.RefreshCmd(true),
		m.chatList.TickCmd(),
		m.transcript.TickCmd(),
	)
}

// SetActive pauses or resumes the screen's automatic refreshes, called by the
// root model when the user navigates to or from this screen. Reactivation
// refreshes immediately rather than waiting out the current tick.
func (m *Model) SetActive(active bool) tea.Cmd {
	m.active = active
	m.chatList.SetActive(active)
	m.transcript.SetActive(active)
	if !active {
		return nil
	}
	return tea.Batch(
		m.chatList.RefreshCmd(false),
		m.transcript.FetchCmd(false),
	)
}

// Reset tears the screen down on logout: cancels everything and drops data.
func (m *Model) Reset() {
	m.comp.Stop()
	m.chatList.Reset()
	m.transcript.Reset()
	m.input.Reset()
	m.selected = 0
	m.pickedModel = ""
	m.statusMsg = ""
	m.picker = pickerClosed
}

// selectedChat returns the summary under the sidebar cursor, if any.
func (m Model) selectedChat() (model.ChatSummary, bool) {
	chats := m.chatList.Chats()
	if m.selected < 0 || m.selected >= len(chats) {
		return model.ChatSummary{}, false
	}
	return chats[m.selected], true
}
