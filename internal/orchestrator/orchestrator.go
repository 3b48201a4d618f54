// Package orchestrator runs the per-turn state machine: it guards
// submissions, captures the pending tool context, composes the system
// message, and streams the reply into whichever session was active when the
// turn was submitted.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/armaan-p22/hybrid-context-ai/internal/compose"
	"github.com/armaan-p22/hybrid-context-ai/internal/engine"
	"github.com/armaan-p22/hybrid-context-ai/internal/extract"
	"github.com/armaan-p22/hybrid-context-ai/internal/log"
	"github.com/armaan-p22/hybrid-context-ai/internal/session"
)

// TurnState is the lifecycle stage of the in-flight turn.
type TurnState int

const (
	StateIdle TurnState = iota
	StateComposing
	StateStreaming
)

func (s TurnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateComposing:
		return "composing"
	case StateStreaming:
		return "streaming"
	default:
		return fmt.Sprintf("TurnState(%d)", int(s))
	}
}

// Config wires the orchestrator's collaborators.
type Config struct {
	Store     *session.Store
	Engine    engine.Engine
	Composer  *compose.Composer
	Extractor extract.Extractor
	Logger    log.Logger
}

func (c Config) validate() error {
	if c.Store == nil {
		return fmt.Errorf("session store is required")
	}
	if c.Engine == nil {
		return fmt.Errorf("engine is required")
	}
	if c.Composer == nil {
		return fmt.Errorf("composer is required")
	}
	if c.Extractor == nil {
		return fmt.Errorf("extractor is required")
	}
	return nil
}

// Orchestrator serializes all writes to the session store. The turn state
// and the extraction flag are orthogonal: extraction blocks submissions and
// further attachments, but an in-flight turn does not block attaching a
// file for the next one.
type Orchestrator struct {
	store     *session.Store
	engine    engine.Engine
	composer  *compose.Composer
	extractor extract.Extractor
	logger    log.Logger

	mu         sync.Mutex
	state      TurnState
	extracting bool
	tool       compose.ToolState
	closed     bool

	events chan Event
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an orchestrator in the idle state with no pending tool
// context.
func New(cfg Config) (*Orchestrator, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("orchestrator config: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		store:     cfg.Store,
		engine:    cfg.Engine,
		composer:  cfg.Composer,
		extractor: cfg.Extractor,
		logger:    logger,
		tool:      compose.NoTool(),
		events:    make(chan Event, eventBufferSize),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Events returns the event stream. It is closed by Close.
func (o *Orchestrator) Events() <-chan Event { return o.events }

// State returns the current turn state.
func (o *Orchestrator) State() TurnState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Extracting reports whether a file extraction is in flight.
func (o *Orchestrator) Extracting() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.extracting
}

// EngineReady reports whether the inference backend is accepting turns.
func (o *Orchestrator) EngineReady() bool { return o.engine.Ready() }

// EngineErr returns the engine's terminal initialization failure, if any.
func (o *Orchestrator) EngineErr() error { return o.engine.Err() }

// ToolState returns the pending tool context for the next submission.
func (o *Orchestrator) ToolState() compose.ToolState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.tool
}

// Submit starts a turn for the given input against the currently active
// session. The guards are checked and the pending input plus tool context
// captured and cleared in one critical section, so a rapid second call can
// never observe half-cleared state.
func (o *Orchestrator) Submit(input string) error {
	trimmed := strings.TrimSpace(input)

	o.mu.Lock()
	switch {
	case o.closed:
		o.mu.Unlock()
		return ErrClosed
	case trimmed == "":
		o.mu.Unlock()
		return ErrEmptyInput
	case !o.engine.Ready():
		o.mu.Unlock()
		return ErrEngineNotReady
	case o.extracting:
		o.mu.Unlock()
		return ErrExtractionInFlight
	case o.state != StateIdle:
		o.mu.Unlock()
		return ErrBusy
	}

	tool := o.tool
	o.tool = compose.NoTool()
	o.state = StateComposing
	// Counted before the lock drops so Close cannot slip between the
	// guard check and the turn goroutine starting.
	o.wg.Add(1)
	o.mu.Unlock()

	// The target session is bound now; switching sessions mid-stream must
	// not redirect deltas.
	sessionID := o.store.ActiveID()

	content := trimmed
	if tool.HasFile() {
		content = session.AttachmentMarkerPrefix + tool.FileName() + "]\n" + trimmed
	}
	if err := o.store.AppendUserMessage(sessionID, content); err != nil {
		o.setState(StateIdle)
		o.wg.Done()
		return fmt.Errorf("appending user message: %w", err)
	}

	// Published before the goroutine starts so it always precedes the
	// turn's deltas, and while the turn is still counted in wg.
	o.send(Event{Kind: EventTurnStarted, SessionID: sessionID})

	go o.runTurn(o.ctx, sessionID, tool, trimmed)
	return nil
}

// runTurn composes the system message and streams the reply. Any failure
// is logged and returns the machine to idle; a partially streamed reply is
// left as-is, never replaced with a fabricated one.
func (o *Orchestrator) runTurn(ctx context.Context, sessionID uuid.UUID, tool compose.ToolState, query string) {
	defer o.wg.Done()

	var turnErr error
	defer func() {
		o.setState(StateIdle)
		o.send(Event{Kind: EventTurnEnded, SessionID: sessionID, Err: turnErr})
	}()

	prompt := o.composer.Compose(ctx, tool, query)

	history, err := o.store.Messages(sessionID)
	if err != nil {
		turnErr = fmt.Errorf("reading session history: %w", err)
		o.logger.Error("turn aborted", "session", sessionID, "error", turnErr)
		return
	}
	msgs := make([]engine.Message, 0, len(history)+1)
	msgs = append(msgs, engine.Message{Role: engine.RoleSystem, Content: prompt.Content()})
	for _, m := range history {
		msgs = append(msgs, engine.Message{Role: string(m.Role), Content: m.Content})
	}

	o.setState(StateStreaming)

	handle, err := o.store.BeginAssistantMessage(sessionID)
	if err != nil {
		turnErr = fmt.Errorf("opening assistant message: %w", err)
		o.logger.Error("turn aborted", "session", sessionID, "error", turnErr)
		return
	}

	for delta, err := range o.engine.Stream(ctx, msgs) {
		if err != nil {
			turnErr = err
			o.logger.Error("stream failed, reply may be truncated",
				"session", sessionID, "error", err)
			return
		}
		if err := handle.AppendDelta(delta); err != nil {
			turnErr = fmt.Errorf("appending delta: %w", err)
			o.logger.Error("turn aborted", "session", sessionID, "error", turnErr)
			return
		}
		o.sendBestEffort(Event{Kind: EventDelta, SessionID: sessionID, Delta: delta})
	}
}

// Attach extracts the file and makes it the pending context, replacing any
// web-search state. Submissions and further attachments are blocked while
// extraction runs. On failure the pending attachment is cleared and the
// failure published; prior session history is untouched.
func (o *Orchestrator) Attach(ctx context.Context, f extract.File) error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return ErrClosed
	}
	if o.extracting {
		o.mu.Unlock()
		return ErrExtractionInFlight
	}
	o.extracting = true
	// Tracked so Close cannot close the event stream mid-publish.
	o.wg.Add(1)
	defer o.wg.Done()
	o.mu.Unlock()

	text, err := o.extractor.Extract(ctx, f)

	o.mu.Lock()
	o.extracting = false
	if err != nil {
		if o.tool.HasFile() {
			o.tool = compose.NoTool()
		}
		o.mu.Unlock()
		o.logger.Warn("file processing failed", "name", f.Name, "error", err)
		o.send(Event{Kind: EventAttachmentFailed, FileName: f.Name, Err: err})
		return fmt.Errorf("file processing failed: %w", err)
	}
	o.tool = compose.FileTool(f.Name, text)
	o.mu.Unlock()

	o.logger.Debug("attachment ready", "name", f.Name, "chars", len(text))
	o.send(Event{Kind: EventAttachmentReady, FileName: f.Name})
	return nil
}

// ClearAttachment drops a pending file. It never re-enables web search.
func (o *Orchestrator) ClearAttachment() {
	o.mu.Lock()
	changed := o.tool.HasFile()
	if changed {
		o.tool = compose.NoTool()
	}
	o.mu.Unlock()

	if changed {
		o.send(Event{Kind: EventToolStateChanged})
	}
}

// SetWebSearch toggles web-search grounding. Enabling it clears any
// attached file; the two context sources are mutually exclusive.
func (o *Orchestrator) SetWebSearch(enabled bool) {
	o.mu.Lock()
	var next compose.ToolState
	if enabled {
		next = compose.WebTool()
	} else if o.tool.WebEnabled() {
		next = compose.NoTool()
	} else {
		next = o.tool
	}
	changed := next != o.tool
	o.tool = next
	o.mu.Unlock()

	if changed {
		o.send(Event{Kind: EventToolStateChanged})
	}
}

// Close cancels the in-flight turn, waits for it to finish, and closes the
// event stream.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.mu.Unlock()

	o.cancel()
	o.wg.Wait()
	close(o.events)
}

func (o *Orchestrator) setState(s TurnState) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// send publishes an event, giving up if the orchestrator shuts down first.
func (o *Orchestrator) send(ev Event) {
	select {
	case o.events <- ev:
	case <-o.ctx.Done():
	}
}

// sendBestEffort drops the event when the buffer is full. Used for deltas
// only: the front-end reads message content from the store, so a dropped
// delta costs a redraw, not data.
func (o *Orchestrator) sendBestEffort(ev Event) {
	select {
	case o.events <- ev:
	default:
	}
}
