// Package engine adapts a local inference backend behind a small streaming
// interface. The concrete implementation drives an Ollama server through
// genkit; everything above it sees only role/content messages in and a
// finite delta sequence out.
package engine

import (
	"context"
	"errors"
	"iter"
)

// ErrUnavailable reports that the inference backend never became ready.
// It is terminal for the process: input stays disabled, no automatic retry.
var ErrUnavailable = errors.New("inference engine unavailable")

// Message roles on the inference boundary.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role/content pair in a generation request.
type Message struct {
	Role    string
	Content string
}

// Engine produces streamed completions.
//
// Stream returns a finite, non-restartable sequence of text deltas. The
// sequence ends after the final delta, or after a single non-nil error.
// Breaking out of the iteration cancels the underlying generation.
type Engine interface {
	// Ready reports whether the backend accepted the startup probe.
	Ready() bool

	// Err returns the terminal initialization failure, nil when Ready.
	Err() error

	// Stream generates a completion for the ordered message list.
	Stream(ctx context.Context, msgs []Message) iter.Seq2[string, error]
}
