// Package compose builds the per-turn system message: a base instruction
// plus an optional grounding context block (attached file text or live web
// search results). The composed message is prepended to the session history
// for one request and never stored.
package compose

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/armaan-p22/hybrid-context-ai/internal/log"
	"github.com/armaan-p22/hybrid-context-ai/internal/websearch"
)

// Base instructions per grounding mode.
const (
	instructionPlain = "You are a helpful, private AI assistant. You have no internet access. Be concise."
	instructionFile  = "You are a helpful, private AI assistant. Answer using only the contents of the attached file provided below. Be concise."
	instructionWeb   = "You are a helpful, private AI assistant with access to live web search results, provided below. Use them to ground your answer. Be concise."
)

// DefaultMaxFileContextChars bounds how much extracted file text goes into
// the context block. Longer text is cut to this prefix without an error.
const DefaultMaxFileContextChars = 6000

// SystemPrompt is the composed system-message content.
type SystemPrompt struct {
	Instruction  string
	ContextBlock string
}

// Content joins the instruction and context block into the final system
// message text.
func (p SystemPrompt) Content() string {
	if p.ContextBlock == "" {
		return p.Instruction
	}
	return p.Instruction + "\n\n" + p.ContextBlock
}

// Composer resolves a ToolState plus user query into a SystemPrompt.
type Composer struct {
	searcher     websearch.Searcher
	maxFileChars int
	logger       log.Logger
}

// NewComposer creates a composer. maxFileChars <= 0 selects the default
// budget.
func NewComposer(searcher websearch.Searcher, maxFileChars int, logger log.Logger) *Composer {
	if maxFileChars <= 0 {
		maxFileChars = DefaultMaxFileContextChars
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Composer{searcher: searcher, maxFileChars: maxFileChars, logger: logger}
}

// Compose applies the grounding policy in strict order: file context wins,
// then web search, then plain chat. It never fails: a search error degrades
// the context block to a literal error string and the turn proceeds.
func (c *Composer) Compose(ctx context.Context, state ToolState, query string) SystemPrompt {
	switch {
	case state.HasFile():
		return SystemPrompt{
			Instruction:  instructionFile,
			ContextBlock: c.fileBlock(state),
		}
	case state.WebEnabled():
		return SystemPrompt{
			Instruction:  instructionWeb,
			ContextBlock: c.webBlock(ctx, query),
		}
	default:
		return SystemPrompt{Instruction: instructionPlain}
	}
}

func (c *Composer) fileBlock(state ToolState) string {
	text := state.fileText
	if runes := []rune(text); len(runes) > c.maxFileChars {
		text = string(runes[:c.maxFileChars])
		c.logger.Debug("file context truncated",
			"name", state.fileName,
			"kept", c.maxFileChars,
			"dropped", len(runes)-c.maxFileChars)
	}
	return fmt.Sprintf("--- FILE: %s ---\n%s", state.fileName, text)
}

func (c *Composer) webBlock(ctx context.Context, query string) string {
	results, err := c.searcher.Search(ctx, query)
	if err != nil {
		reason := searchFailureReason(err)
		c.logger.Warn("web search failed, degrading turn", "reason", reason, "error", err)
		return fmt.Sprintf("[Web search failed: %s]", reason)
	}
	return "Web search results:\n\n" + websearch.Summary(results)
}

// searchFailureReason maps adapter sentinels to the short user-visible
// reason embedded in the degraded context block.
func searchFailureReason(err error) string {
	switch {
	case errors.Is(err, websearch.ErrMissingCredential):
		return "missing credential"
	case errors.Is(err, websearch.ErrProvider):
		return "provider error"
	case errors.Is(err, websearch.ErrNetwork):
		return "network error"
	default:
		return strings.TrimSpace(err.Error())
	}
}
