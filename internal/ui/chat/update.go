// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/koragpt/kora-tui/internal/api"
	"github.com/koragpt/kora-tui/internal/composer"
	"github.com/koragpt/kora-tui/internal/model"
	"github.com/koragpt/kora-tui/internal/poll"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	// ==========================================================================
	// CHAT LIST
	// ==========================================================================

	case poll.ChatListTickMsg:
		return m, tea.Batch(m.chatList.RefreshCmd(false), m.chatList.TickCmd())

	case poll.ChatListMsg:
		// Selection follows the chat, not the row number: remember the id
		// before the list is replaced and find it again afterwards.
		selectedID := int64(0)
		if chat, ok := m.selectedChat(); ok {
			selectedID = chat.ID
		}
		m.chatList.Apply(msg)
		m.reselect(selectedID)
		if msg.Err != nil && !api.IsCancelled(msg.Err) {
			m.statusMsg = statusErrorText(msg.Err)
		}
		return m, nil

	case poll.ChatCreatedMsg:
		if msg.Err != nil {
			m.statusMsg = "Could not create chat: " + statusErrorText(msg.Err)
			return m, nil
		}
		m.chatList.ApplyCreated(msg)
		m.selected = 0
		m.transcript.SetChat(msg.Chat.ID)
		m.syncViewport(true)
		m.focus = FocusInput
		m.input.Focus()
		// Reconcile with the backend's view of the list.
		return m, tea.Batch(m.chatList.RefreshCmd(true), m.transcript.FetchCmd(true))

	// ==========================================================================
	// TRANSCRIPT
	// ==========================================================================

	case poll.TranscriptTickMsg:
		return m, tea.Batch(m.transcript.FetchCmd(false), m.transcript.TickCmd())

	case poll.TranscriptMsg:
		wasAtBottom := m.viewport.AtBottom()
		m.transcript.Apply(msg)
		m.syncViewport(wasAtBottom)
		if msg.Err != nil && !api.IsCancelled(msg.Err) && msg.ChatID == m.transcript.ChatID() {
			m.statusMsg = statusErrorText(msg.Err)
		}
		return m, nil

	// ==========================================================================
	// COMPOSER
	// ==========================================================================

	case composer.SendResultMsg:
		ok := m.comp.Apply(msg)
		if ok {
			m.statusMsg = ""
			// The reply is on the backend now; fetch it without waiting for
			// the next tick.
			return m, m.transcript.FetchCmd(true)
		}
		// Cancellation is user-initiated and stays silent; the spinner
		// disappearing is the feedback.
		if !api.IsCancelled(msg.Err) {
			m.statusMsg = "Send failed: " + statusErrorText(msg.Err)
		}
		// Put the unsent text back if the user has not started a new draft.
		if m.input.Value() == "" {
			m.input.SetValue(msg.Text)
		}
		return m, nil

	// ==========================================================================
	// MODEL PICKER
	// ==========================================================================

	case ModelsMsg:
		if msg.Provider != m.provider {
			return m, nil
		}
		m.models = msg.Models
		m.modelsErr = msg.Err
		m.pickerIndex = 0
		return m, nil
	}

	return m.updateComponents(msg)
}

// handleResize recomputes the pane layout and rebuilds the markdown renderer
// for the new wrap width.
func (m Model) handleResize(msg tea.WindowSizeMsg) (Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true

	transcriptWidth := m.transcriptWidth()
	// header + status bar + composer rows
	contentHeight := m.height - 2 - m.input.Height() - 2
	if contentHeight < 3 {
		contentHeight = 3
	}

	m.viewport = viewport.New(transcriptWidth, contentHeight)
	m.input.SetWidth(transcriptWidth - 2)
	m.renderer = newMarkdownRenderer(transcriptWidth-2, m.cfg.UI.Markdown)

	m.syncViewport(true)
	return m, nil
}

func (m Model) transcriptWidth() int {
	w := m.width - m.cfg.UI.SidebarWidth - 1
	if w < 20 {
		w = 20
	}
	return w
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	// Quit always works.
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.picker != pickerClosed {
		return m.handlePickerKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.CancelSend):
		if m.comp.Sending() {
			m.comp.Stop()
			return m, nil
		}
		if m.focus == FocusSidebar {
			m.focus = FocusInput
			m.input.Focus()
		}
		return m, nil

	case key.Matches(msg, m.keys.Logout):
		return m, func() tea.Msg { return LogoutRequestMsg{} }

	case key.Matches(msg, m.keys.Settings):
		return m, func() tea.Msg { return OpenSettingsMsg{} }

	case key.Matches(msg, m.keys.NewChat):
		return m, m.chatList.CreateChatCmd()

	case key.Matches(msg, m.keys.Refresh):
		return m, tea.Batch(m.chatList.RefreshCmd(true), m.transcript.FetchCmd(true))

	case key.Matches(msg, m.keys.Picker):
		m.picker = pickerProvider
		m.pickerIndex = providerIndex(m.provider)
		return m, nil

	case key.Matches(msg, m.keys.FocusNext):
		if m.focus == FocusInput {
			m.focus = FocusSidebar
			m.input.Blur()
		} else {
			m.focus = FocusInput
			m.input.Focus()
		}
		return m, nil
	}

	if m.focus == FocusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	chats := m.chatList.Chats()

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(chats)-1 {
			m.selected++
		}
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		chat, ok := m.selectedChat()
		if !ok {
			return m, nil
		}
		m.transcript.SetChat(chat.ID)
		m.syncViewport(true)
		m.focus = FocusInput
		m.input.Focus()
		return m, m.transcript.FetchCmd(true)
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Newline):
		m.input.InsertString("\n")
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handlePickerKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	items := m.pickerItemCount()

	switch {
	case key.Matches(msg, m.keys.CancelSend):
		m.picker = pickerClosed
		return m, nil
	case key.Matches(msg, m.keys.Up):
		if m.pickerIndex > 0 {
			m.pickerIndex--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.pickerIndex < items-1 {
			m.pickerIndex++
		}
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m.pickerSelect()
	}
	return m, nil
}

func (m Model) pickerItemCount() int {
	if m.picker == pickerProvider {
		return len(model.Providers)
	}
	return len(m.models)
}

func (m Model) pickerSelect() (Model, tea.Cmd) {
	if m.picker == pickerProvider {
		if m.pickerIndex >= len(model.Providers) {
			return m, nil
		}
		m.provider = model.Providers[m.pickerIndex]
		m.picker = pickerModel
		m.models = nil
		m.modelsErr = nil
		m.pickerIndex = 0
		return m, m.fetchModelsCmd(m.provider)
	}

	if m.pickerIndex >= len(m.models) {
		return m, nil
	}
	m.pickedModel = m.models[m.pickerIndex].Model
	m.picker = pickerClosed
	m.statusMsg = ""
	return m, nil
}

func (m Model) fetchModelsCmd(provider string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		models, err := client.ListModels(ctx, provider)
		return ModelsMsg{Provider: provider, Models: models, Err: err}
	}
}

func providerIndex(provider string) int {
	for i, p := range model.Providers {
		if p == provider {
			return i
		}
	}
	return 0
}

// =============================================================================
// SUBMISSION
// =============================================================================

func (m Model) submit() (Model, tea.Cmd) {
	chatID := m.transcript.ChatID()
	m.comp.SetDraft(m.input.Value())

	if !m.comp.CanSend(chatID) {
		if chatID == 0 {
			m.statusMsg = "Open or create a chat first (ctrl+n)"
		}
		return m, nil
	}

	modelName, err := composer.ResolveModel(m.pickedModel, m.cfg.Chat)
	if err != nil {
		if errors.Is(err, composer.ErrModelRequired) {
			m.statusMsg = "Pick a model first (ctrl+p)"
		}
		return m, nil
	}

	cmd := m.comp.SendCmd(chatID, m.store.UserID(), modelName)
	if cmd == nil {
		return m, nil
	}

	// Echo the message locally; the next transcript fetch confirms it.
	m.transcript.AppendLocal(model.NewUserMessage(m.comp.Draft()))
	m.input.Reset()
	m.statusMsg = ""
	m.syncViewport(true)
	return m, cmd
}

// =============================================================================
// HELPERS
// =============================================================================

func (m *Model) reselect(chatID int64) {
	chats := m.chatList.Chats()
	if chatID != 0 {
		for i, chat := range chats {
			if chat.ID == chatID {
				m.selected = i
				return
			}
		}
	}
	if m.selected >= len(chats) {
		m.selected = len(chats) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *Model) updateComponentsInPlace(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return tea.Batch(cmds...)
}

func (m Model) updateComponents(msg tea.Msg) (Model, tea.Cmd) {
	cmd := m.updateComponentsInPlace(msg)
	return m, cmd
}

// statusErrorText maps client errors to status bar wording.
func statusErrorText(err error) string {
	switch {
	case err == nil:
		return ""
	case api.IsAuth(err):
		return "Session expired, please sign in again"
	case errors.Is(err, api.ErrTimeout):
		return "Server timed out"
	default:
		return err.Error()
	}
}
