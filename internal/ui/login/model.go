// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package login provides the sign-in and registration screens.
package login

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/koragpt/kora-tui/internal/api"
	"github.com/koragpt/kora-tui/internal/auth"
	"github.com/koragpt/kora-tui/internal/ui/styles"
)

// Mode selects which form the screen shows.
type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
)

// Field indices for the two forms. Login uses the first two, register all
// four.
const (
	fieldUsername = iota
	fieldPassword
	fieldEmail
	fieldConfirm
	fieldCount
)

// =============================================================================
// MESSAGES
// =============================================================================

// LoginResultMsg delivers the outcome of a login attempt. On success the
// session store has already established and persisted the session.
type LoginResultMsg struct {
	User *api.User
	Err  error
}

// RegisterResultMsg delivers the outcome of a registration attempt.
// SessionEstablished is false when the backend requires a follow-up login.
type RegisterResultMsg struct {
	SessionEstablished bool
	Err                error
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the login/register screen.
type Model struct {
	store *auth.Store
	theme *styles.Theme

	mode   Mode
	inputs []textinput.Model
	focus  int
	busy   bool
	errMsg string
	info   string

	width  int
	height int
}

// New creates the login screen.
func New(store *auth.Store, theme *styles.Theme) Model {
	inputs := make([]textinput.Model, fieldCount)

	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	username.Focus()
	inputs[fieldUsername] = username

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'
	inputs[fieldPassword] = password

	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 128
	inputs[fieldEmail] = email

	confirm := textinput.New()
	confirm.Placeholder = "confirm password"
	confirm.CharLimit = 128
	confirm.EchoMode = textinput.EchoPassword
	confirm.EchoCharacter = '•'
	inputs[fieldConfirm] = confirm

	return Model{
		store:  store,
		theme:  theme,
		mode:   ModeLogin,
		inputs: inputs,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// fieldOrder returns the focusable fields for the current mode.
func (m Model) fieldOrder() []int {
	if m.mode == ModeRegister {
		return []int{fieldUsername, fieldEmail, fieldPassword, fieldConfirm}
	}
	return []int{fieldUsername, fieldPassword}
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

	case LoginResultMsg:
		m.busy = false
		if msg.Err != nil {
			m.errMsg = loginErrorText(msg.Err)
			return m, nil
		}
		m.errMsg = ""
		return m, nil

	case RegisterResultMsg:
		m.busy = false
		if msg.Err != nil {
			m.errMsg = loginErrorText(msg.Err)
			return m, nil
		}
		m.errMsg = ""
		if !msg.SessionEstablished {
			// Account exists now; reuse the typed credentials on the login form.
			m.mode = ModeLogin
			m.info = "Account created, sign in to continue"
			m.setFocus(0)
		}
		return m, nil
	}

	return m.updateInputs(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
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
	case "ctrl+r":
		m.toggleMode()
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

func (m *Model) toggleMode() {
	if m.mode == ModeLogin {
		m.mode = ModeRegister
	} else {
		m.mode = ModeLogin
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
	username := strings.TrimSpace(m.inputs[fieldUsername].Value())
	password := m.inputs[fieldPassword].Value()

	if username == "" || password == "" {
		m.errMsg = "Username and password are required"
		return m, nil
	}

	if m.mode == ModeRegister {
		email := strings.TrimSpace(m.inputs[fieldEmail].Value())
		if email == "" {
			m.errMsg = "Email is required"
			return m, nil
		}
		if m.inputs[fieldConfirm].Value() != password {
			m.errMsg = "Passwords do not match"
			return m, nil
		}

		m.busy = true
		m.errMsg = ""
		store := m.store
		reg := api.Registration{
			Username: username,
			Email:    email,
			Password: password,
			Role:     "user",
			Active:   true,
		}
		return m, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			established, err := store.Register(ctx, reg)
			return RegisterResultMsg{SessionEstablished: established, Err: err}
		}
	}

	m.busy = true
	m.errMsg = ""
	store := m.store
	creds := api.Credentials{Username: username, Password: password}
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		user, err := store.Login(ctx, creds)
		return LoginResultMsg{User: user, Err: err}
	}
}

// loginErrorText maps client errors to form-friendly wording.
func loginErrorText(err error) string {
	switch {
	case api.IsAuth(err):
		return "Invalid username or password"
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

	title := "Sign in to KoraGPT"
	hint := "ctrl+r register · tab next field · enter submit"
	if m.mode == ModeRegister {
		title = "Create a KoraGPT account"
		hint = "ctrl+r back to sign in · tab next field · enter submit"
	}

	b.WriteString(m.theme.FormTitle.Render(title))
	b.WriteString("\n\n")

	labels := map[int]string{
		fieldUsername: "Username",
		fieldPassword: "Password",
		fieldEmail:    "Email",
		fieldConfirm:  "Confirm",
	}
	for _, idx := range m.fieldOrder() {
		b.WriteString(m.theme.FormLabel.Render(labels[idx]))
		b.WriteString("\n")
		b.WriteString(m.inputs[idx].View())
		b.WriteString("\n")
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
