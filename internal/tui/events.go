package tui

import (
	tea "charm.land/bubbletea/v2"

	"github.com/armaan-p22/hybrid-context-ai/internal/orchestrator"
)

// orchEventMsg wraps one orchestrator event for the Bubble Tea loop.
type orchEventMsg struct {
	event orchestrator.Event
}

// eventsClosedMsg signals that the orchestrator shut down.
type eventsClosedMsg struct{}

// attachResultMsg reports a finished /attach command.
type attachResultMsg struct {
	name string
	err  error
}

// listenEvents yields the next orchestrator event. Re-issued after every
// received event so the subscription stays alive for the whole session.
func listenEvents(ch <-chan orchestrator.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return orchEventMsg{event: ev}
	}
}
