// Package tui provides the Bubble Tea terminal interface: a scrollable
// transcript of the active session, a multi-line input, slash commands for
// session management, and status for the pending file/web-search context.
package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/armaan-p22/hybrid-context-ai/internal/log"
	"github.com/armaan-p22/hybrid-context-ai/internal/orchestrator"
	"github.com/armaan-p22/hybrid-context-ai/internal/session"
)

// maxHistory bounds the input history ring.
const maxHistory = 100

// statusTTL is how long a transient status line stays visible.
const statusTTL = 5 * time.Second

// Layout constants for viewport height calculation.
const (
	separatorLines = 2
	helpLines      = 1
	promptLines    = 1
	minViewport    = 3
)

// Model is the Bubble Tea model. It never mutates sessions itself: all
// writes go through the orchestrator, and the transcript is rebuilt from
// the store. A half-streamed assistant message in the store is the
// progressive rendering path, not a race.
type Model struct {
	orch  *orchestrator.Orchestrator
	store *session.Store

	input      textarea.Model
	history    []string
	historyIdx int

	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model
	keys     keyMap
	styles   Styles
	markdown *markdownRenderer

	// status is a transient notice (attach result, guard hints).
	status      string
	statusSetAt time.Time

	streaming bool
	lastCtrlC time.Time

	viewBuf strings.Builder
	width   int
	height  int

	ctx    context.Context
	cancel context.CancelFunc
	logger log.Logger
}

// New creates the model. ctx must be the context handed to
// tea.WithContext so cancellation lines up with the program loop.
func New(ctx context.Context, orch *orchestrator.Orchestrator, store *session.Store, logger log.Logger) (*Model, error) {
	if orch == nil {
		return nil, errors.New("tui.New: orchestrator is required")
	}
	if store == nil {
		return nil, errors.New("tui.New: session store is required")
	}
	if ctx == nil {
		return nil, errors.New("tui.New: ctx is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}

	ctx, cancel := context.WithCancel(ctx)

	ta := textarea.New()
	ta.Placeholder = "Ask anything... (/help for commands)"
	ta.SetHeight(1)
	ta.SetWidth(120)
	ta.MaxWidth = 0
	ta.ShowLineNumbers = false

	cleanStyle := textarea.StyleState{
		Base:        lipgloss.NewStyle(),
		Text:        lipgloss.NewStyle(),
		Placeholder: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Prompt:      lipgloss.NewStyle(),
	}
	ta.SetStyles(textarea.Styles{Focused: cleanStyle, Blurred: cleanStyle})
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	vp := viewport.New(viewport.WithWidth(80), viewport.WithHeight(20))
	vp.MouseWheelEnabled = true
	vp.SoftWrap = true
	// Keys are routed explicitly in handleKey.
	vp.KeyMap = viewport.KeyMap{}

	return &Model{
		orch:     orch,
		store:    store,
		input:    ta,
		spinner:  sp,
		viewport: vp,
		help:     help.New(),
		keys:     newKeyMap(),
		styles:   DefaultStyles(),
		markdown: newMarkdownRenderer(80),
		history:  make([]string, 0, maxHistory),
		width:    80,
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
	}, nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
		m.input.Focus(),
		listenEvents(m.orch.Events()),
	)
}

// setStatus replaces the transient status line.
func (m *Model) setStatus(s string) {
	m.status = s
	m.statusSetAt = time.Now()
}

// currentStatus returns the status line, dropping it after statusTTL.
func (m *Model) currentStatus() string {
	if m.status == "" || time.Since(m.statusSetAt) > statusTTL {
		return ""
	}
	return m.status
}

// pushHistory records a submitted input line.
func (m *Model) pushHistory(line string) {
	m.history = append(m.history, line)
	if len(m.history) > maxHistory {
		m.history = m.history[len(m.history)-maxHistory:]
	}
	m.historyIdx = len(m.history)
}
