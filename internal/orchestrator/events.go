package orchestrator

import "github.com/google/uuid"

// eventBufferSize absorbs delta bursts while the front-end is busy
// rendering. Delta events are wake-up hints (the UI reads the store for
// content), so overflow drops them rather than blocking the stream.
const eventBufferSize = 100

// EventKind discriminates orchestrator events.
type EventKind int

const (
	// EventTurnStarted fires after the user message was appended and the
	// background turn began.
	EventTurnStarted EventKind = iota

	// EventDelta fires after each delta was appended to the bound
	// session. Best-effort: may be dropped under backpressure.
	EventDelta

	// EventTurnEnded fires when the turn returns to idle, with Err set if
	// it failed partway.
	EventTurnEnded

	// EventAttachmentReady fires when file extraction completed and the
	// file became the pending context.
	EventAttachmentReady

	// EventAttachmentFailed fires when extraction failed; the pending
	// attachment was cleared.
	EventAttachmentFailed

	// EventToolStateChanged fires when the pending tool state changed
	// outside of extraction (web toggle, cleared attachment).
	EventToolStateChanged
)

// Event is the discriminated union published to the front-end. Exactly the
// fields implied by Kind are set.
type Event struct {
	Kind      EventKind
	SessionID uuid.UUID
	Delta     string
	FileName  string
	Err       error
}
