package tui

import (
	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"

	"github.com/armaan-p22/hybrid-context-ai/internal/orchestrator"
)

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		inputHeight := m.input.Height() + promptLines
		fixedHeight := separatorLines + inputHeight + helpLines
		vpHeight := max(msg.Height-fixedHeight, minViewport)

		m.viewport.SetWidth(msg.Width)
		m.viewport.SetHeight(vpHeight)
		m.input.SetWidth(msg.Width - 4)
		m.help.SetWidth(msg.Width)
		m.markdown.UpdateWidth(msg.Width)

		m.rebuildViewportContent()
		return m, nil

	case tea.MouseWheelMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.busy() {
			m.rebuildViewportContent()
		}
		return m, cmd

	case orchEventMsg:
		return m.handleOrchEvent(msg.event)

	case eventsClosedMsg:
		// Orchestrator shut down underneath us; leave the loop.
		m.cancel()
		return m, tea.Quit

	case attachResultMsg:
		if msg.err != nil {
			// The details were logged; the transcript stays untouched.
			m.setStatus("file processing failed: " + msg.name)
		} else {
			m.setStatus("attached " + msg.name)
		}
		m.rebuildViewportContent()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleOrchEvent folds one orchestrator event into the view and renews
// the event subscription.
func (m *Model) handleOrchEvent(ev orchestrator.Event) (tea.Model, tea.Cmd) {
	switch ev.Kind {
	case orchestrator.EventTurnStarted:
		m.streaming = true

	case orchestrator.EventDelta:
		// Content comes from the store; the event is a redraw hint.

	case orchestrator.EventTurnEnded:
		m.streaming = false
		if ev.Err != nil {
			m.setStatus("reply interrupted: " + ev.Err.Error())
		}

	case orchestrator.EventAttachmentReady,
		orchestrator.EventAttachmentFailed,
		orchestrator.EventToolStateChanged:
		// Tool state is read from the orchestrator on redraw.
	}

	m.rebuildViewportContent()
	if ev.SessionID == m.store.ActiveID() {
		m.viewport.GotoBottom()
	}
	return m, listenEvents(m.orch.Events())
}

// busy reports whether a spinner-worthy operation is running.
func (m *Model) busy() bool {
	return m.streaming || m.orch.Extracting()
}
