// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/koragpt/kora-tui/internal/composer"
	"github.com/koragpt/kora-tui/internal/model"
	"github.com/koragpt/kora-tui/internal/poll"
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Starting…"
	}

	sidebar := m.renderSidebar()
	main := lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		m.renderComposer(),
	)
	body := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, main)

	screen := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderStatusBar(),
	)

	if m.picker != pickerClosed {
		overlay := m.renderPicker()
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, overlay)
	}
	return screen
}

// =============================================================================
// PANES
// =============================================================================

func (m Model) renderHeader() string {
	left := m.theme.Header.Render("KoraGPT")
	user := m.theme.StatusDim.Render(m.store.Username())
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(user) - 1
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + user
}

func (m Model) renderSidebar() string {
	width := m.cfg.UI.SidebarWidth
	height := m.height - 3
	if height < 3 {
		height = 3
	}

	var b strings.Builder
	title := "Chats"
	if m.chatList.InFlight() {
		title = "Chats " + m.spin.View()
	}
	b.WriteString(m.theme.SidebarTitle.Render(title))
	b.WriteString("\n")

	chats := m.chatList.Chats()
	if len(chats) == 0 {
		switch m.chatList.State() {
		case poll.StateLoading, poll.StateIdle:
			b.WriteString(m.theme.ChatItemDim.Render("Loading…"))
		case poll.StateError:
			b.WriteString(m.theme.ChatItemDim.Render("Unavailable"))
		default:
			b.WriteString(m.theme.ChatItemDim.Render("No chats yet"))
		}
	}

	openID := m.transcript.ChatID()
	for i, chat := range chats {
		if i >= height-2 {
			b.WriteString(m.theme.ChatItemDim.Render(fmt.Sprintf("… %d more", len(chats)-i)))
			break
		}
		title := chat.ShortTitle(width - 4)
		style := m.theme.ChatItem
		switch {
		case m.focus == FocusSidebar && i == m.selected:
			style = m.theme.ChatItemSelected
			title = "> " + title
		case chat.ID == openID:
			style = m.theme.ChatItemSelected
		}
		b.WriteString(style.Render(title))
		b.WriteString("\n")
	}

	return m.theme.Sidebar.
		Width(width).
		Height(height).
		Render(b.String())
}

func (m Model) renderComposer() string {
	// The composer mirror only updates on submit; count the live input.
	remaining := composer.MaxDraftLen - len([]rune(m.input.Value()))

	counter := m.theme.CharCountStyle(remaining).Render(fmt.Sprintf("%d", remaining))
	label := m.theme.InputPrompt.Render("You")
	if m.comp.Sending() {
		label = m.theme.InputPrompt.Render("Sending " + m.spin.View())
	}

	top := label + " " + counter
	return m.theme.InputContainer.
		Width(m.transcriptWidth() - 2).
		Render(top + "\n" + m.input.View())
}

func (m Model) renderStatusBar() string {
	var parts []string

	modelName := m.pickedModel
	if modelName == "" {
		if m.cfg.Chat.RequireModel {
			modelName = "no model (ctrl+p)"
		} else {
			modelName = m.cfg.Chat.DefaultModel
		}
	}
	parts = append(parts, m.theme.StatusDim.Render(m.provider+"/"+modelName))

	switch {
	case m.statusMsg != "":
		parts = append(parts, m.theme.StatusError.Render(m.statusMsg))
	case m.chatList.State() == poll.StateError:
		parts = append(parts, m.theme.StatusError.Render(statusErrorText(m.chatList.Err())))
	case m.transcript.State() == poll.StateError:
		parts = append(parts, m.theme.StatusError.Render(statusErrorText(m.transcript.Err())))
	default:
		parts = append(parts, m.theme.StatusOK.Render("connected"))
	}

	help := m.theme.ShortcutKey.Render("ctrl+n") + m.theme.ShortcutDesc.Render(" new  ") +
		m.theme.ShortcutKey.Render("ctrl+p") + m.theme.ShortcutDesc.Render(" model  ") +
		m.theme.ShortcutKey.Render("tab") + m.theme.ShortcutDesc.Render(" chats  ") +
		m.theme.ShortcutKey.Render("ctrl+c") + m.theme.ShortcutDesc.Render(" quit")
	parts = append(parts, help)

	return m.theme.StatusBar.Render(strings.Join(parts, "  ·  "))
}

// =============================================================================
// PICKER OVERLAY
// =============================================================================

func (m Model) renderPicker() string {
	var b strings.Builder

	if m.picker == pickerProvider {
		b.WriteString(m.theme.FormTitle.Render("Provider"))
		b.WriteString("\n\n")
		for i, p := range model.Providers {
			style := m.theme.PickerItem
			if i == m.pickerIndex {
				style = m.theme.PickerActive
			}
			b.WriteString(style.Render(p))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(m.theme.FormTitle.Render("Model (" + m.provider + ")"))
		b.WriteString("\n\n")
		switch {
		case m.modelsErr != nil:
			b.WriteString(m.theme.ErrorText.Render(statusErrorText(m.modelsErr)))
			b.WriteString("\n")
		case m.models == nil:
			b.WriteString(m.theme.StatusDim.Render("Loading models…"))
			b.WriteString("\n")
		case len(m.models) == 0:
			b.WriteString(m.theme.StatusDim.Render("No models available"))
			b.WriteString("\n")
		default:
			for i, info := range m.models {
				style := m.theme.PickerItem
				if i == m.pickerIndex {
					style = m.theme.PickerActive
				}
				b.WriteString(style.Render(info.Label()))
				b.WriteString("\n")
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(m.theme.FormHint.Render("enter select · esc close"))
	return m.theme.PickerBox.Render(b.String())
}
