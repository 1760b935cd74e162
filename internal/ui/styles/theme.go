// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the kora TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App    lipgloss.Style
	Header lipgloss.Style
	Title  lipgloss.Style

	// ==========================================================================
	// SIDEBAR (CHAT LIST) STYLES
	// ==========================================================================

	Sidebar          lipgloss.Style
	SidebarTitle     lipgloss.Style
	ChatItem         lipgloss.Style
	ChatItemSelected lipgloss.Style
	ChatItemDim      lipgloss.Style

	// ==========================================================================
	// TRANSCRIPT STYLES
	// ==========================================================================

	Transcript     lipgloss.Style
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	UserMessage    lipgloss.Style
	AssistantText  lipgloss.Style
	EmptyHint      lipgloss.Style

	// ==========================================================================
	// COMPOSER STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	CharCount        lipgloss.Style
	CharCountWarning lipgloss.Style
	CharCountDanger  lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	StatusOK     lipgloss.Style
	StatusError  lipgloss.Style
	StatusDim    lipgloss.Style
	Spinner      lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// FORM STYLES (LOGIN, REGISTER, SETTINGS)
	// ==========================================================================

	FormBox      lipgloss.Style
	FormTitle    lipgloss.Style
	FormLabel    lipgloss.Style
	FormHint     lipgloss.Style
	ErrorBox     lipgloss.Style
	ErrorText    lipgloss.Style
	SuccessText  lipgloss.Style
	PickerBox    lipgloss.Style
	PickerItem   lipgloss.Style
	PickerActive lipgloss.Style
}

// NewTheme creates a new theme with all styles configured. themeName is
// "dark", "light" or "auto"; auto follows the terminal background.
func NewTheme(themeName string) *Theme {
	colorProfile := termenv.ColorProfile()

	isDark := true
	switch themeName {
	case "light":
		isDark = false
	case "dark":
		isDark = true
	default:
		isDark = termenv.HasDarkBackground()
	}

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: colorProfile,
	}

	var (
		accent    = lipgloss.AdaptiveColor{Light: "25", Dark: "39"}   // blue
		secondary = lipgloss.AdaptiveColor{Light: "240", Dark: "245"} // gray
		dim       = lipgloss.AdaptiveColor{Light: "247", Dark: "240"}
		good      = lipgloss.AdaptiveColor{Light: "28", Dark: "42"} // green
		bad       = lipgloss.AdaptiveColor{Light: "124", Dark: "203"}
		warn      = lipgloss.AdaptiveColor{Light: "130", Dark: "214"}
		border    = lipgloss.AdaptiveColor{Light: "250", Dark: "238"}
	)

	t.App = lipgloss.NewStyle()
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(accent).
		Padding(0, 1)
	t.Title = lipgloss.NewStyle().Bold(true)

	t.Sidebar = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(border).
		Padding(0, 1)
	t.SidebarTitle = lipgloss.NewStyle().Bold(true).Foreground(secondary)
	t.ChatItem = lipgloss.NewStyle().Padding(0, 1)
	t.ChatItemSelected = lipgloss.NewStyle().
		Padding(0, 1).
		Bold(true).
		Foreground(accent)
	t.ChatItemDim = lipgloss.NewStyle().Padding(0, 1).Foreground(dim)

	t.Transcript = lipgloss.NewStyle().Padding(0, 1)
	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(good)
	t.AssistantLabel = lipgloss.NewStyle().Bold(true).Foreground(accent)
	t.UserMessage = lipgloss.NewStyle()
	t.AssistantText = lipgloss.NewStyle()
	t.EmptyHint = lipgloss.NewStyle().Foreground(dim).Italic(true)

	t.InputContainer = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().Bold(true).Foreground(accent)
	t.CharCount = lipgloss.NewStyle().Foreground(dim)
	t.CharCountWarning = lipgloss.NewStyle().Foreground(warn)
	t.CharCountDanger = lipgloss.NewStyle().Bold(true).Foreground(bad)

	t.StatusBar = lipgloss.NewStyle().Foreground(secondary).Padding(0, 1)
	t.StatusOK = lipgloss.NewStyle().Foreground(good)
	t.StatusError = lipgloss.NewStyle().Foreground(bad)
	t.StatusDim = lipgloss.NewStyle().Foreground(dim)
	t.Spinner = lipgloss.NewStyle().Foreground(accent)
	t.ShortcutKey = lipgloss.NewStyle().Bold(true).Foreground(accent)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(secondary)

	t.FormBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(1, 2)
	t.FormTitle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	t.FormLabel = lipgloss.NewStyle().Foreground(secondary)
	t.FormHint = lipgloss.NewStyle().Foreground(dim)
	t.ErrorBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(bad).
		Padding(0, 1)
	t.ErrorText = lipgloss.NewStyle().Foreground(bad)
	t.SuccessText = lipgloss.NewStyle().Foreground(good)
	t.PickerBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1)
	t.PickerItem = lipgloss.NewStyle().Padding(0, 1)
	t.PickerActive = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(accent)

	return t
}

// CharCountStyle picks the style for a remaining-characters indicator.
func (t *Theme) CharCountStyle(remaining int) lipgloss.Style {
	switch {
	case remaining <= 0:
		return t.CharCountDanger
	case remaining <= 200:
		return t.CharCountWarning
	default:
		return t.CharCount
	}
}
