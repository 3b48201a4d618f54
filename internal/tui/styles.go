package tui

import (
	"strings"

	"charm.land/lipgloss/v2"
)

// Accent color for the banner and headers.
const accentColor = "#7C6FF0"

var bannerArt = []string{
	" ██╗  ██╗██╗   ██╗██████╗ ██████╗ ██╗██████╗      ██████╗██╗  ██╗ █████╗ ████████╗",
	" ██║  ██║╚██╗ ██╔╝██╔══██╗██╔══██╗██║██╔══██╗    ██╔════╝██║  ██║██╔══██╗╚══██╔══╝",
	" ███████║ ╚████╔╝ ██████╔╝██████╔╝██║██║  ██║    ██║     ███████║███████║   ██║   ",
	" ██╔══██║  ╚██╔╝  ██╔══██╗██╔══██╗██║██║  ██║    ██║     ██╔══██║██╔══██║   ██║   ",
	" ██║  ██║   ██║   ██████╔╝██║  ██║██║██████╔╝    ╚██████╗██║  ██║██║  ██║   ██║   ",
	" ╚═╝  ╚═╝   ╚═╝   ╚═════╝ ╚═╝  ╚═╝╚═╝╚═════╝      ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝   ",
}

// Styles contains all lipgloss styles for the TUI.
type Styles struct {
	Banner    lipgloss.Style
	Header    lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	System    lipgloss.Style
	Error     lipgloss.Style
	Prompt    lipgloss.Style
	Separator lipgloss.Style
	ToolBadge lipgloss.Style
}

// DefaultStyles returns the default style configuration.
func DefaultStyles() Styles {
	return Styles{
		Banner:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accentColor)),
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(accentColor)),
		User:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		System:    lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("240")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Prompt:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")),
		Separator: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		ToolBadge: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
	}
}

// RenderBanner returns the styled ASCII banner.
func (s Styles) RenderBanner() string {
	var b strings.Builder
	for _, line := range bannerArt {
		b.WriteString(s.Banner.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}
