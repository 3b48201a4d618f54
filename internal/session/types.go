package session

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message.
type Role string

// Valid message roles. System messages are built per-request by the
// composer and are never stored in session history.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

const (
	// DefaultTitle is the sentinel title of a session with no messages yet.
	DefaultTitle = "New Chat"

	// TitleMaxRunes bounds the derived session title. Longer first
	// messages are cut and suffixed with an ellipsis.
	TitleMaxRunes = 30

	// AttachmentMarkerPrefix opens the attachment marker line prefixed to
	// a user message that carried a file, e.g. "[Attached: report.pdf]".
	AttachmentMarkerPrefix = "[Attached: "
)

// Message is one entry in a session's history.
//
// For user turns Content is the user-visible text, optionally prefixed with
// an attachment marker line; it never contains the composed context block.
// For assistant turns Content starts empty and grows by concatenation as
// deltas arrive.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session is one persisted conversation thread.
type Session struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
}

// clone returns a deep copy so callers cannot mutate store state.
func (s *Session) clone() Session {
	out := *s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	return out
}

// deriveTitle builds a session title from the first user message:
// attachment marker lines are stripped, whitespace trimmed, and the result
// truncated to TitleMaxRunes with an ellipsis when cut. An empty result
// falls back to DefaultTitle.
func deriveTitle(content string) string {
	text := content
	for strings.HasPrefix(text, AttachmentMarkerPrefix) {
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[i+1:]
		} else {
			text = ""
		}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return DefaultTitle
	}

	runes := []rune(text)
	if len(runes) > TitleMaxRunes {
		return string(runes[:TitleMaxRunes]) + "..."
	}
	return text
}
