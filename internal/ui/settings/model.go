// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package settings provides the account screen: profile editing and password
// rotation against the backend's /api/users/me endpoints.
package settings

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/koragpt/kora-tui/internal/api"
	"github.com/koragpt/kora-tui/internal/ui/styles"
)

// Tab selects which form the screen shows.
type Tab int

const (
	TabProfile Tab = iota
	TabPassword
)

// Field indices. The profile tab uses the first seven, the password tab the
// last three.
const (
	fieldEmail = iota
	fieldFirstName
	fieldLastName
	fieldAddress
	fieldCity
	fieldCountry
	fieldPostalCode
	fieldOldPassword
	fieldNewPassword
	fieldConfirm
	fieldCount
)

// =============================================================================
// MESSAGES
// =============================================================================

// ProfileLoadedMsg delivers the current profile for editing.
type ProfileLoadedMsg struct {
	Profile api.Profile
	Err     error
}

// ProfileSavedMsg delivers the outcome of a profile update.
type ProfileSavedMsg struct {
	Err error
}

// PasswordChangedMsg delivers the outcome of a password rotation.
type PasswordChangedMsg struct {
	Err error
}

// CloseMsg asks the root model to return to the chat screen.
type CloseMsg struct{}

// =============================================================================
// MODEL
// =============================================================================

// Model is the settings screen.
type Model struct {
	client *api.Client
	theme  *styles.Theme

	tab    Tab
	inputs []textinput.Model
	focus  int
	busy   bool
	loaded bool
	errMsg string
	info   string

	width  int
	height int
}

// New creates the settings screen. The profile is fetched on Init.
func New(client *api.Client, theme *styles.Theme) Model {
	inputs := make([]textinput.Model, fieldCount)

	placeholders := map[int]string{
		fieldEmail:       "email",
		fieldFirstName:   "first name",
		fieldLastName:    "last name",
		fieldAddress:     "address",
		fieldCity:        "city",
		fieldCountry:     "country",
		fieldPostalCode:  "postal code",
		fieldOldPassword: "current password",
		fieldNewPassword: "new password",
		fieldConfirm:     "confirm new password",
	}
	for i := range inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.CharLimit = 128
		inputs[i] = in
	}
	for _, i := range []int{fieldOldPassword, fieldNewPassword, fieldConfirm} {
		inputs[i].EchoMode = textinput.EchoPassword
		inputs[i].EchoCharacter = '•'
	}
	inputs[fieldEmail].Focus()

	return Model{
		client: client,
		theme:  theme,
		tab:    TabProfile,
		inputs: inputs,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadProfileCmd())
}

// fieldOrder returns the focusable fields for the current tab.
func (m Model) fieldOrder() []int {
	if m.tab == TabPassword {
		return []int{fieldOldPassword, fieldNewPassword, fieldConfirm}
	}
	return []int{
		fieldEmail, fieldFirstName, fieldLastName,
		fieldAddress, fieldCity, fieldCountry, fieldPostalCode,
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ProfileLoadedMsg:
		m.busy = false
		if msg.Err != nil {
			m.errMsg = settingsErrorText(msg.Err)
			return m, nil
		}
		m.loaded = true
		m.errMsg = ""
		m.inputs[fieldEmail].SetValue(msg.Profile.Email)
		m.inputs[fieldFirstName].SetValue(msg.Profile.FirstName)
		m.inputs[fieldLastName].SetValue(msg.Profile.LastName)
		m.inputs[fieldAddress].SetValue(msg.Profile.Address)
		m.inputs[fieldCity].SetValue(msg.Profile.City)
		m.inputs[fieldCountry].SetValue(msg.Profile.Country)
		m.inputs[fieldPostalCode].SetValue(msg.Profile.PostalCode)
		return m, nil

	case ProfileSavedMsg:
		m.busy = false
		if msg.Err != nil {
			m.errMsg = settingsErrorText(msg.Err)
			return m, nil
		}
		m.errMsg = ""
		m.info = "Profile saved"
		return m, nil

	case PasswordChangedMsg:
		m.busy = false
		if msg.Err != nil {
			m.errMsg = settingsErrorText(msg.Err)
			return m, nil
		}
		m.errMsg = ""
		m.info = "Password changed"
		for _, i := range []int{fieldOldPassword, fieldNewPassword, fieldConfirm} {
			m.inputs[i].Reset()
		}
		return m, nil
	}

	return m.updateInputs(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if msg.String() == "esc" {
		return m, func() tea.Msg { return CloseMsg{} }
	}
	if m.busy {
		return m, nil
	}

	switch msg.String() {
	case "tab", "down":
		m.setFocus(m.focus + 1)
		return m, nil
	case "shift+tab", "up":
		m.setFocus(m.focus - 1)
		return m, nil
	case "ctrl+t":
		m.toggleTab()
		return m, nil
	case "enter":
		order := m.fieldOrder()
		if m.focus < len(order)-1 {
			m.setFocus(m.focus + 1)
			return m, nil
		}
		return m.submit()
	}

	return m.updateInputs(msg)
}

func (m *Model) toggleTab() {
	if m.tab == TabProfile {
		m.tab = TabPassword
	} else {
		m.tab = TabProfile
	}
	m.errMsg = ""
	m.info = ""
	m.setFocus(0)
}

func (m *Model) setFocus(pos int) {
	order := m.fieldOrder()
	if pos < 0 {
		pos = len(order) - 1
	}
	if pos >= len(order) {
		pos = 0
	}
	m.focus = pos
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.inputs[order[pos]].Focus()
}

func (m Model) updateInputs(msg tea.Msg) (Model, tea.Cmd) {
	cmds := make([]tea.Cmd, 0, len(m.inputs))
	for i := range m.inputs {
		var cmd tea.Cmd
		m.inputs[i], cmd = m.inputs[i].Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// =============================================================================
// SUBMISSION
// =============================================================================

func (m Model) submit() (Model, tea.Cmd) {
	if m.tab == TabPassword {
		return m.submitPassword()
	}
	return m.submitProfile()
}

func (m Model) submitProfile() (Model, tea.Cmd) {
	profile := api.Profile{
		Email:      strings.TrimSpace(m.inputs[fieldEmail].Value()),
		FirstName:  strings.TrimSpace(m.inputs[fieldFirstName].Value()),
		LastName:   strings.TrimSpace(m.inputs[fieldLastName].Value()),
		Address:    strings.TrimSpace(m.inputs[fieldAddress].Value()),
		City:       strings.TrimSpace(m.inputs[fieldCity].Value()),
		Country:    strings.TrimSpace(m.inputs[fieldCountry].Value()),
		PostalCode: strings.TrimSpace(m.inputs[fieldPostalCode].Value()),
	}

	m.busy = true
	m.errMsg = ""
	m.info = ""
	client := m.client
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return ProfileSavedMsg{Err: client.UpdateProfile(ctx, profile)}
	}
}

func (m Model) submitPassword() (Model, tea.Cmd) {
	oldPassword := m.inputs[fieldOldPassword].Value()
	newPassword := m.inputs[fieldNewPassword].Value()

	if oldPassword == "" || newPassword == "" {
		m.errMsg = "Current and new password are required"
		return m, nil
	}
	if m.inputs[fieldConfirm].Value() != newPassword {
		m.errMsg = "Passwords do not match"
		return m, nil
	}

	m.busy = true
	m.errMsg = ""
	m.info = ""
	client := m.client
	change := api.PasswordChange{OldPassword: oldPassword, NewPassword: newPassword}
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return PasswordChangedMsg{Err: client.ChangePassword(ctx, change)}
	}
}

func (m Model) loadProfileCmd() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		profile, err := client.GetProfile(ctx)
		return ProfileLoadedMsg{Profile: profile, Err: err}
	}
}

// settingsErrorText maps client errors to form-friendly wording.
func settingsErrorText(err error) string {
	switch {
	case api.IsAuth(err):
		return "Session expired, please sign in again"
	case api.IsCancelled(err):
		return ""
	default:
		return "Could not reach the server: " + err.Error()
	}
}

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	title := "Profile"
	hint := "ctrl+t password · tab next field · enter save · esc back"
	if m.tab == TabPassword {
		title = "Change password"
		hint = "ctrl+t profile · tab next field · enter save · esc back"
	}

	b.WriteString(m.theme.FormTitle.Render(title))
	b.WriteString("\n\n")

	labels := map[int]string{
		fieldEmail:       "Email",
		fieldFirstName:   "First name",
		fieldLastName:    "Last name",
		fieldAddress:     "Address",
		fieldCity:        "City",
		fieldCountry:     "Country",
		fieldPostalCode:  "Postal code",
		fieldOldPassword: "Current password",
		fieldNewPassword: "New password",
		fieldConfirm:     "Confirm",
	}
	for _, idx := range m.fieldOrder() {
		b.WriteString(m.theme.FormLabel.Render(labels[idx]))
		b.WriteString("\n")
		b.WriteString(m.inputs[idx].View())
		b.WriteString("\n")
	}

	if m.tab == TabProfile && !m.loaded && m.errMsg == "" {
		b.WriteString("\n")
		b.WriteString(m.theme.StatusDim.Render("Loading profile…"))
	}
	if m.busy {
		b.WriteString("\n")
		b.WriteString(m.theme.StatusDim.Render("Contacting server…"))
	}
	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.ErrorText.Render(m.errMsg))
	}
	if m.info != "" {
		b.WriteString("\n")
		b.WriteString(m.theme.SuccessText.Render(m.info))
	}

	b.WriteString("\n\n")
	b.WriteString(m.theme.FormHint.Render(hint))

	box := m.theme.FormBox.Render(b.String())
	if m.width == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
