package session

import "errors"

// Sentinel errors for store operations. Check with errors.Is().
var (
	// ErrSessionNotFound indicates the requested session is not in the collection.
	ErrSessionNotFound = errors.New("session not found")

	// ErrHandleClosed indicates an AssistantHandle was used after its
	// message stopped being the most recently appended one.
	ErrHandleClosed = errors.New("assistant handle closed")
)
