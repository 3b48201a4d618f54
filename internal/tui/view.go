package tui

import (
	"strings"

	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/armaan-p22/hybrid-context-ai/internal/session"
)

// View implements tea.Model.
func (m *Model) View() tea.View {
	m.viewBuf.Reset()

	m.viewBuf.WriteString(m.viewport.View())
	m.viewBuf.WriteString("\n")
	m.viewBuf.WriteString(m.renderSeparator())
	m.viewBuf.WriteString("\n")
	m.viewBuf.WriteString(m.styles.Prompt.Render("> "))
	m.viewBuf.WriteString(m.input.View())
	m.viewBuf.WriteString("\n")
	m.viewBuf.WriteString(m.renderSeparator())
	m.viewBuf.WriteString("\n")
	m.viewBuf.WriteString(m.renderStatusBar())

	v := tea.NewView(m.viewBuf.String())
	v.AltScreen = true
	return v
}

// rebuildViewportContent reconstructs the transcript from the active
// session. An in-flight assistant message renders with whatever content has
// streamed so far.
func (m *Model) rebuildViewportContent() {
	m.viewport.SetContent(m.transcript())
}

func (m *Model) transcript() string {
	var b strings.Builder

	b.WriteString(m.styles.RenderBanner())
	b.WriteString("\n")

	active := m.store.Active()
	b.WriteString(m.styles.Header.Render(active.Title))
	b.WriteString("\n\n")

	for _, msg := range active.Messages {
		switch msg.Role {
		case session.RoleUser:
			b.WriteString(m.styles.User.Render("You> "))
			b.WriteString(msg.Content)
		case session.RoleAssistant:
			b.WriteString(m.styles.Assistant.Render("AI> "))
			b.WriteString(m.markdown.Render(msg.Content))
		}
		b.WriteString("\n\n")
	}

	if m.busy() {
		b.WriteString(m.spinner.View())
		if m.orch.Extracting() {
			b.WriteString(" Processing file...")
		} else {
			b.WriteString(" Thinking...")
		}
		b.WriteString("\n\n")
	}

	if status := m.currentStatus(); status != "" {
		b.WriteString(m.styles.System.Render(status))
		b.WriteString("\n")
	}

	return b.String()
}

func (m *Model) renderSeparator() string {
	width := m.width
	if width <= 0 {
		width = 80
	}
	return m.styles.Separator.Render(strings.Repeat("─", width))
}

// renderStatusBar shows the engine state, the pending tool context, and
// the key help.
func (m *Model) renderStatusBar() string {
	var parts []string

	if !m.orch.EngineReady() {
		parts = append(parts, m.styles.Error.Render("engine unavailable: input disabled for sending"))
	}

	tool := m.orch.ToolState()
	switch {
	case tool.HasFile():
		parts = append(parts, m.styles.ToolBadge.Render("[file: "+tool.FileName()+"]"))
	case tool.WebEnabled():
		parts = append(parts, m.styles.ToolBadge.Render("[web search]"))
	}

	parts = append(parts, m.help.ShortHelpView([]key.Binding{
		m.keys.Submit, m.keys.NewLine, m.keys.History,
		m.keys.WebToggle, m.keys.Quit, m.keys.ScrollUp,
	}))
	return strings.Join(parts, "  ")
}
