package orchestrator

import "errors"

// Submission guard errors. These are no-op guards surfaced as typed errors:
// callers may silently ignore them, nothing has changed when they fire.
var (
	ErrBusy               = errors.New("a turn is already in flight")
	ErrEmptyInput         = errors.New("submission is empty")
	ErrEngineNotReady     = errors.New("inference engine not ready")
	ErrExtractionInFlight = errors.New("file extraction in flight")
)

// ErrClosed reports use after Close.
var ErrClosed = errors.New("orchestrator closed")
