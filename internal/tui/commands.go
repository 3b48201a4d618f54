package tui

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/armaan-p22/hybrid-context-ai/internal/extract"
	"github.com/armaan-p22/hybrid-context-ai/internal/orchestrator"
)

// Slash commands.
const (
	cmdHelp   = "/help"
	cmdNew    = "/new"
	cmdList   = "/sessions"
	cmdSwitch = "/switch"
	cmdDelete = "/delete"
	cmdAttach = "/attach"
	cmdClear  = "/clear"
	cmdWeb    = "/web"
	cmdExit   = "/exit"
	cmdQuit   = "/quit"
)

const helpText = `Commands:
  /new              start a new chat
  /sessions         list sessions
  /switch <n>       switch to session n
  /delete [n]       delete session n (default: current)
  /attach <path>    attach a file (txt, md, html, pdf, images)
  /clear            drop the pending attachment
  /web [on|off]     toggle web search grounding
  /exit             quit`

// handleSubmit routes the input: slash commands run locally, everything
// else goes to the orchestrator.
func (m *Model) handleSubmit() (tea.Model, tea.Cmd) {
	value := strings.TrimSpace(m.input.Value())
	if value == "" {
		return m, nil
	}

	if strings.HasPrefix(value, "/") {
		m.pushHistory(value)
		m.input.Reset()
		return m.runCommand(value)
	}

	err := m.orch.Submit(value)
	switch {
	case err == nil:
		m.pushHistory(value)
		m.input.Reset()
		m.rebuildViewportContent()
		m.viewport.GotoBottom()
	case errors.Is(err, orchestrator.ErrBusy),
		errors.Is(err, orchestrator.ErrExtractionInFlight),
		errors.Is(err, orchestrator.ErrEmptyInput):
		// No-op guards: input stays in the prompt, nothing is reported.
	case errors.Is(err, orchestrator.ErrEngineNotReady):
		// The permanent engine status is already on screen.
	default:
		m.setStatus("send failed: " + err.Error())
	}
	return m, nil
}

func (m *Model) runCommand(value string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(value)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case cmdHelp:
		m.setStatus(helpText)

	case cmdNew:
		sess := m.store.Create()
		m.setStatus("started " + sess.Title)
		m.rebuildViewportContent()
		m.viewport.GotoTop()

	case cmdList:
		m.setStatus(m.renderSessionList())

	case cmdSwitch:
		m.switchSession(args)

	case cmdDelete:
		m.deleteSession(args)

	case cmdAttach:
		if len(args) == 0 {
			m.setStatus("usage: /attach <path>")
			break
		}
		m.setStatus("processing " + filepath.Base(args[0]) + "...")
		return m, m.attachFile(strings.Join(args, " "))

	case cmdClear:
		m.orch.ClearAttachment()
		m.setStatus("attachment cleared")

	case cmdWeb:
		m.runWebCommand(args)

	case cmdExit, cmdQuit:
		return m, m.cleanup()

	default:
		m.setStatus("unknown command " + cmd + " (try /help)")
	}

	m.rebuildViewportContent()
	return m, nil
}

func (m *Model) renderSessionList() string {
	var b strings.Builder
	b.WriteString("Sessions:\n")
	active := m.store.ActiveID()
	for i, s := range m.store.Sessions() {
		marker := "  "
		if s.ID == active {
			marker = "* "
		}
		fmt.Fprintf(&b, "%s%d. %s (%d messages)\n", marker, i+1, s.Title, len(s.Messages))
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) switchSession(args []string) {
	idx, ok := m.sessionIndex(args)
	if !ok {
		m.setStatus("usage: /switch <n> (see /sessions)")
		return
	}
	sessions := m.store.Sessions()
	if err := m.store.SetActive(sessions[idx].ID); err != nil {
		m.setStatus("switch failed: " + err.Error())
		return
	}
	m.setStatus("switched to " + sessions[idx].Title)
	m.viewport.GotoBottom()
}

func (m *Model) deleteSession(args []string) {
	id := m.store.ActiveID()
	if len(args) > 0 {
		idx, ok := m.sessionIndex(args)
		if !ok {
			m.setStatus("usage: /delete [n]")
			return
		}
		id = m.store.Sessions()[idx].ID
	}
	if err := m.store.Delete(id); err != nil {
		m.setStatus("delete failed: " + err.Error())
		return
	}
	m.setStatus("session deleted")
}

// sessionIndex parses a 1-based session number argument.
func (m *Model) sessionIndex(args []string) (int, bool) {
	if len(args) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(m.store.Sessions()) {
		return 0, false
	}
	return n - 1, true
}

func (m *Model) runWebCommand(args []string) {
	enable := !m.orch.ToolState().WebEnabled()
	if len(args) > 0 {
		switch args[0] {
		case "on":
			enable = true
		case "off":
			enable = false
		default:
			m.setStatus("usage: /web [on|off]")
			return
		}
	}
	m.orch.SetWebSearch(enable)
	if enable {
		m.setStatus("web search on (clears any attached file)")
	} else {
		m.setStatus("web search off")
	}
}

func (m *Model) toggleWebSearch() {
	m.runWebCommand(nil)
	m.rebuildViewportContent()
}

// attachFile reads the file and runs extraction off the event loop.
func (m *Model) attachFile(path string) tea.Cmd {
	return func() tea.Msg {
		name := filepath.Base(path)

		data, err := os.ReadFile(path) // #nosec G304 -- user-chosen attachment path
		if err != nil {
			return attachResultMsg{name: name, err: err}
		}

		err = m.orch.Attach(m.ctx, extract.File{
			Name:        name,
			ContentType: detectContentType(path, data),
			Data:        data,
		})
		return attachResultMsg{name: name, err: err}
	}
}

// detectContentType prefers the file extension and falls back to content
// sniffing.
func detectContentType(path string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}
