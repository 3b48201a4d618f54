package session

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/armaan-p22/hybrid-context-ai/internal/log"
)

// ============================================================================
// Mock Snapshotter
// ============================================================================

// mockSnapshot records every Save/Clear call for assertions.
type mockSnapshot struct {
	saved      [][]Session
	loadResult []Session
	saveErr    error
	clearCalls int
}

func (m *mockSnapshot) Save(sessions []Session) error {
	cp := make([]Session, len(sessions))
	copy(cp, sessions)
	m.saved = append(m.saved, cp)
	return m.saveErr
}

func (m *mockSnapshot) Load() ([]Session, error) { return m.loadResult, nil }

func (m *mockSnapshot) Clear() error {
	m.clearCalls++
	return nil
}

func (m *mockSnapshot) last() []Session {
	if len(m.saved) == 0 {
		return nil
	}
	return m.saved[len(m.saved)-1]
}

func newTestStore(t *testing.T) (*Store, *mockSnapshot) {
	t.Helper()
	snap := &mockSnapshot{}
	store, err := NewStore(snap, log.NewNop())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store, snap
}

// ============================================================================
// Lifecycle invariants
// ============================================================================

func TestNewStore_SynthesizesFreshSession(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)

	sessions := store.Sessions()
	if len(sessions) != 1 {
		t.Fatalf("Sessions() count = %d, want 1", len(sessions))
	}
	if sessions[0].Title != DefaultTitle {
		t.Errorf("fresh session title = %q, want %q", sessions[0].Title, DefaultTitle)
	}
	if store.ActiveID() != sessions[0].ID {
		t.Errorf("fresh session is not active")
	}
}

func TestNewStore_LoadsSnapshot(t *testing.T) {
	t.Parallel()

	want := Session{
		ID:    uuid.New(),
		Title: "restored",
		Messages: []Message{
			{Role: RoleUser, Content: "hi"},
			{Role: RoleAssistant, Content: "hello"},
		},
	}
	snap := &mockSnapshot{loadResult: []Session{want}}

	store, err := NewStore(snap, log.NewNop())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	sessions := store.Sessions()
	if len(sessions) != 1 {
		t.Fatalf("Sessions() count = %d, want 1", len(sessions))
	}
	if sessions[0].ID != want.ID || sessions[0].Title != want.Title {
		t.Errorf("restored session = %+v, want %+v", sessions[0], want)
	}
	if store.ActiveID() != want.ID {
		t.Errorf("most recent restored session should be active")
	}
}

func TestStore_ActiveInvariant(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)

	// Arbitrary create/delete sequence: after every step exactly one
	// session is active and it is a member of the collection.
	assertInvariant := func(step string) {
		t.Helper()
		sessions := store.Sessions()
		if len(sessions) == 0 {
			t.Fatalf("%s: collection empty (store must synthesize)", step)
		}
		active := store.ActiveID()
		found := false
		for _, s := range sessions {
			if s.ID == active {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s: active session %s not in collection", step, active)
		}
	}

	a := store.Create()
	assertInvariant("create a")
	b := store.Create()
	assertInvariant("create b")
	if err := store.Delete(b.ID); err != nil {
		t.Fatalf("Delete(b) error = %v", err)
	}
	assertInvariant("delete b")
	if err := store.Delete(a.ID); err != nil {
		t.Fatalf("Delete(a) error = %v", err)
	}
	assertInvariant("delete a")
	for _, s := range store.Sessions() {
		if err := store.Delete(s.ID); err != nil {
			t.Fatalf("Delete(all) error = %v", err)
		}
		assertInvariant("delete all")
	}
}

func TestStore_DeleteActivePicksNextMostRecent(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	oldest := store.Sessions()[0]
	middle := store.Create()
	newest := store.Create()

	// newest is active; deleting it should activate middle, not oldest.
	if store.ActiveID() != newest.ID {
		t.Fatalf("precondition: newest session should be active")
	}
	if err := store.Delete(newest.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got := store.ActiveID(); got != middle.ID {
		t.Errorf("active after delete = %s, want middle %s (oldest %s)", got, middle.ID, oldest.ID)
	}
}

func TestStore_DeleteInactiveKeepsActive(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	other := store.Sessions()[0]
	active := store.Create()

	if err := store.Delete(other.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if store.ActiveID() != active.ID {
		t.Errorf("deleting an inactive session changed the active one")
	}
}

func TestStore_DeleteLastSessionClearsSnapshotAndRecreates(t *testing.T) {
	t.Parallel()

	store, snap := newTestStore(t)
	only := store.Sessions()[0]

	if err := store.Delete(only.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if snap.clearCalls != 1 {
		t.Errorf("Clear() calls = %d, want 1", snap.clearCalls)
	}

	sessions := store.Sessions()
	if len(sessions) != 1 {
		t.Fatalf("Sessions() count = %d, want 1 fresh session", len(sessions))
	}
	if sessions[0].ID == only.ID {
		t.Errorf("fresh session reused the deleted id")
	}
	if sessions[0].Title != DefaultTitle {
		t.Errorf("fresh session title = %q, want %q", sessions[0].Title, DefaultTitle)
	}

	// The snapshot written after recreation must not reference the
	// deleted session.
	for _, s := range snap.last() {
		if s.ID == only.ID {
			t.Errorf("snapshot still references deleted session %s", only.ID)
		}
	}
}

func TestStore_DeleteUnknown(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	if err := store.Delete(uuid.New()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Delete(unknown) = %v, want ErrSessionNotFound", err)
	}
}

func TestStore_SetActive(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	first := store.Sessions()[0]
	store.Create()

	if err := store.SetActive(first.ID); err != nil {
		t.Fatalf("SetActive() error = %v", err)
	}
	if store.ActiveID() != first.ID {
		t.Errorf("SetActive did not switch the active session")
	}

	if err := store.SetActive(uuid.New()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("SetActive(unknown) = %v, want ErrSessionNotFound", err)
	}
}

// ============================================================================
// Titles
// ============================================================================

func TestStore_TitleSetExactlyOnce(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		first     string
		wantTitle string
	}{
		{
			name:      "plain message",
			first:     "Hello",
			wantTitle: "Hello",
		},
		{
			name:      "attachment marker stripped",
			first:     "[Attached: report.pdf]\nWhat was revenue?",
			wantTitle: "What was revenue?",
		},
		{
			name:      "long message truncated",
			first:     strings.Repeat("a", 50),
			wantTitle: strings.Repeat("a", TitleMaxRunes) + "...",
		},
		{
			name:      "marker only falls back to default",
			first:     "[Attached: data.csv]",
			wantTitle: DefaultTitle,
		},
		{
			name:      "surrounding whitespace trimmed",
			first:     "  spaced out  ",
			wantTitle: "spaced out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store, _ := newTestStore(t)
			sess := store.Active()

			if sess.Title != DefaultTitle {
				t.Fatalf("title before first message = %q, want %q", sess.Title, DefaultTitle)
			}

			if err := store.AppendUserMessage(sess.ID, tt.first); err != nil {
				t.Fatalf("AppendUserMessage() error = %v", err)
			}
			if got := store.Active().Title; got != tt.wantTitle {
				t.Errorf("title after first message = %q, want %q", got, tt.wantTitle)
			}

			// A second message never changes the title.
			if err := store.AppendUserMessage(sess.ID, "something else entirely"); err != nil {
				t.Fatalf("AppendUserMessage() error = %v", err)
			}
			if got := store.Active().Title; got != tt.wantTitle {
				t.Errorf("title after second message = %q, want %q", got, tt.wantTitle)
			}
		})
	}
}

// ============================================================================
// Streaming deltas
// ============================================================================

func TestAppendDelta_ConcatenatesInOrder(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 2, 10, 100} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			t.Parallel()

			store, _ := newTestStore(t)
			id := store.ActiveID()

			handle, err := store.BeginAssistantMessage(id)
			if err != nil {
				t.Fatalf("BeginAssistantMessage() error = %v", err)
			}

			var want strings.Builder
			for i := range n {
				frag := fmt.Sprintf("<%d>", i)
				want.WriteString(frag)
				if err := handle.AppendDelta(frag); err != nil {
					t.Fatalf("AppendDelta(%d) error = %v", i, err)
				}
			}

			msgs, err := store.Messages(id)
			if err != nil {
				t.Fatalf("Messages() error = %v", err)
			}
			last := msgs[len(msgs)-1]
			if last.Role != RoleAssistant {
				t.Fatalf("last message role = %q, want assistant", last.Role)
			}
			if last.Content != want.String() {
				t.Errorf("content = %q, want %q", last.Content, want.String())
			}
		})
	}
}

func TestAppendDelta_TargetsBoundSessionNotActive(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	target := store.ActiveID()
	handle, err := store.BeginAssistantMessage(target)
	if err != nil {
		t.Fatalf("BeginAssistantMessage() error = %v", err)
	}

	// User switches to another session mid-stream.
	other := store.Create()

	if err := handle.AppendDelta("streamed"); err != nil {
		t.Fatalf("AppendDelta() error = %v", err)
	}

	targetMsgs, _ := store.Messages(target)
	if len(targetMsgs) != 1 || targetMsgs[0].Content != "streamed" {
		t.Errorf("target session messages = %+v, want one assistant message %q", targetMsgs, "streamed")
	}
	otherMsgs, _ := store.Messages(other.ID)
	if len(otherMsgs) != 0 {
		t.Errorf("streaming leaked into the newly active session: %+v", otherMsgs)
	}
}

func TestAppendDelta_AfterNewerMessage(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	id := store.ActiveID()

	handle, err := store.BeginAssistantMessage(id)
	if err != nil {
		t.Fatalf("BeginAssistantMessage() error = %v", err)
	}
	if err := store.AppendUserMessage(id, "interleaved"); err != nil {
		t.Fatalf("AppendUserMessage() error = %v", err)
	}

	if err := handle.AppendDelta("late"); !errors.Is(err, ErrHandleClosed) {
		t.Errorf("AppendDelta after newer message = %v, want ErrHandleClosed", err)
	}
}

// ============================================================================
// Persistence behavior
// ============================================================================

func TestStore_EveryMutationPersists(t *testing.T) {
	t.Parallel()

	store, snap := newTestStore(t)
	base := len(snap.saved)

	id := store.ActiveID()
	if err := store.AppendUserMessage(id, "one"); err != nil {
		t.Fatalf("AppendUserMessage() error = %v", err)
	}
	handle, err := store.BeginAssistantMessage(id)
	if err != nil {
		t.Fatalf("BeginAssistantMessage() error = %v", err)
	}
	if err := handle.AppendDelta("two"); err != nil {
		t.Fatalf("AppendDelta() error = %v", err)
	}
	store.Create()

	if got := len(snap.saved) - base; got != 4 {
		t.Errorf("Save() calls after 4 mutations = %d, want 4", got)
	}
}

func TestStore_SnapshotFailureKeepsMemoryAuthoritative(t *testing.T) {
	t.Parallel()

	store, snap := newTestStore(t)
	snap.saveErr = errors.New("disk full")

	id := store.ActiveID()
	if err := store.AppendUserMessage(id, "kept despite write failure"); err != nil {
		t.Fatalf("AppendUserMessage() returned %v, want nil (write failure is logged only)", err)
	}

	msgs, err := store.Messages(id)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "kept despite write failure" {
		t.Errorf("in-memory state lost after snapshot write failure: %+v", msgs)
	}
}

func TestStore_SessionsReturnsCopies(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	id := store.ActiveID()
	if err := store.AppendUserMessage(id, "original"); err != nil {
		t.Fatalf("AppendUserMessage() error = %v", err)
	}

	leak := store.Sessions()
	leak[0].Messages[0].Content = "mutated"
	leak[0].Title = "mutated"

	got := store.Active()
	if got.Messages[0].Content != "original" {
		t.Errorf("caller mutation reached store message state")
	}
	if got.Title == "mutated" {
		t.Errorf("caller mutation reached store title state")
	}
}
