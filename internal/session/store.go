package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/armaan-p22/hybrid-context-ai/internal/log"
)

// Snapshotter persists the serialized session collection.
// [FileSnapshot] is the production implementation.
type Snapshotter interface {
	// Save rewrites the durable snapshot with the full collection.
	Save(sessions []Session) error

	// Load reads the snapshot. Absence and malformed content both yield
	// (nil, nil): the caller starts from an empty collection.
	Load() ([]Session, error)

	// Clear removes the snapshot entirely. Used instead of writing an
	// empty collection when the last session is deleted.
	Clear() error
}

// Store holds the session collection in memory and mirrors every mutation
// to a Snapshotter. In-memory state is authoritative; snapshot write
// failures are logged, never propagated.
type Store struct {
	mu       sync.Mutex
	sessions []*Session // newest first
	activeID uuid.UUID
	snap     Snapshotter
	logger   log.Logger
}

// NewStore creates a Store, loading any existing snapshot. If the snapshot
// is absent, malformed, or empty, one fresh session is created so the
// invariant "exactly one active session" holds from the start.
func NewStore(snap Snapshotter, logger log.Logger) (*Store, error) {
	if snap == nil {
		return nil, fmt.Errorf("snapshotter is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}

	s := &Store{snap: snap, logger: logger}

	loaded, err := snap.Load()
	if err != nil {
		// Load contracts absence/corruption to (nil, nil), so an error
		// here is an I/O problem worth surfacing.
		return nil, fmt.Errorf("loading session snapshot: %w", err)
	}
	for i := range loaded {
		sess := loaded[i].clone()
		s.sessions = append(s.sessions, &sess)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sessions) == 0 {
		s.createLocked()
	} else {
		s.activeID = s.sessions[0].ID
	}

	return s, nil
}

// Sessions returns the ordered collection, newest first. The result is a
// deep copy; mutating it does not affect the store.
func (s *Store) Sessions() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.clone())
	}
	return out
}

// Create prepends a new empty session and makes it active.
func (s *Store) Create() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked()
}

func (s *Store) createLocked() Session {
	sess := &Session{
		ID:        uuid.New(),
		Title:     DefaultTitle,
		Messages:  []Message{},
		CreatedAt: time.Now(),
	}
	s.sessions = append([]*Session{sess}, s.sessions...)
	s.activeID = sess.ID
	s.persistLocked()

	s.logger.Debug("created session", "id", sess.ID)
	return sess.clone()
}

// Delete removes a session. If it was active, the next-most-recent
// remaining session becomes active; if none remain, the snapshot is
// cleared and a fresh session is created.
func (s *Store) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	wasActive := s.activeID == id
	s.sessions = append(s.sessions[:idx], s.sessions[idx+1:]...)

	if len(s.sessions) == 0 {
		// Clear rather than write an empty collection, then synthesize a
		// fresh session (which persists the new one-element collection).
		if err := s.snap.Clear(); err != nil {
			s.logger.Warn("clearing session snapshot", "error", err)
		}
		s.createLocked()
		return nil
	}

	if wasActive {
		// Sessions are ordered newest first; the element now at idx is
		// the next most recent, falling back to the last one.
		next := min(idx, len(s.sessions)-1)
		s.activeID = s.sessions[next].ID
	}
	s.persistLocked()

	s.logger.Debug("deleted session", "id", id, "remaining", len(s.sessions))
	return nil
}

// SetActive selects a session.
func (s *Store) SetActive(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(id) < 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.activeID = id
	return nil
}

// Active returns the currently selected session.
func (s *Store) Active() Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(s.activeID)
	if idx < 0 {
		// Unreachable while the invariant holds; keep the store usable.
		return s.createLocked()
	}
	return s.sessions[idx].clone()
}

// ActiveID returns the id of the currently selected session.
func (s *Store) ActiveID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// AppendUserMessage appends a user message to the given session. The first
// message of a session also assigns its title, exactly once.
func (s *Store) AppendUserMessage(id uuid.UUID, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	sess := s.sessions[idx]

	first := len(sess.Messages) == 0
	sess.Messages = append(sess.Messages, Message{Role: RoleUser, Content: content})
	if first {
		sess.Title = deriveTitle(content)
	}
	s.persistLocked()
	return nil
}

// AssistantHandle refers to the assistant message currently open for
// streaming in one session. It stays valid while that message remains the
// most recently appended one.
type AssistantHandle struct {
	store     *Store
	sessionID uuid.UUID
}

// BeginAssistantMessage appends an empty assistant message and returns a
// handle for streaming deltas into it.
func (s *Store) BeginAssistantMessage(id uuid.UUID) (*AssistantHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	s.sessions[idx].Messages = append(s.sessions[idx].Messages, Message{Role: RoleAssistant})
	s.persistLocked()

	return &AssistantHandle{store: s, sessionID: id}, nil
}

// SessionID returns the session this handle streams into.
func (h *AssistantHandle) SessionID() uuid.UUID { return h.sessionID }

// AppendDelta concatenates a text fragment onto the open assistant
// message. This is the only in-place mutation the store allows. Fragments
// are applied strictly in call order.
func (h *AssistantHandle) AppendDelta(fragment string) error {
	s := h.store
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(h.sessionID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, h.sessionID)
	}
	sess := s.sessions[idx]

	n := len(sess.Messages)
	if n == 0 || sess.Messages[n-1].Role != RoleAssistant {
		return ErrHandleClosed
	}
	sess.Messages[n-1].Content += fragment
	s.persistLocked()
	return nil
}

// Messages returns the ordered message history of a session.
func (s *Store) Messages(id uuid.UUID) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	out := make([]Message, len(s.sessions[idx].Messages))
	copy(out, s.sessions[idx].Messages)
	return out, nil
}

// indexLocked returns the position of a session, or -1. Caller holds mu.
func (s *Store) indexLocked(id uuid.UUID) int {
	for i, sess := range s.sessions {
		if sess.ID == id {
			return i
		}
	}
	return -1
}

// persistLocked rewrites the durable snapshot. Write failures are logged;
// in-memory state stays authoritative. Caller holds mu.
func (s *Store) persistLocked() {
	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.clone())
	}
	if err := s.snap.Save(out); err != nil {
		s.logger.Warn("persisting session snapshot", "error", err)
	}
}
