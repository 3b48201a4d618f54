package engine

import (
	"context"
	"fmt"
	"iter"
	"net/http"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/ollama"

	"github.com/armaan-p22/hybrid-context-ai/internal/log"
)

// probeTimeout bounds the startup readiness check.
const probeTimeout = 5 * time.Second

// Config selects the Ollama backend.
type Config struct {
	// Host is the Ollama server address, e.g. http://localhost:11434.
	Host string

	// Model is the model to register, e.g. llama3.2.
	Model string
}

// Ollama is the genkit-backed Engine implementation. Readiness is decided
// once in New; a failed probe leaves a terminal error and every Stream call
// short-circuits.
type Ollama struct {
	g       *genkit.Genkit
	model   string
	ready   bool
	initErr error
	logger  log.Logger
}

// New initializes genkit with the ollama plugin and probes the server. A
// probe failure is not returned as an error: the engine is constructed in
// a permanently not-ready state so the caller can surface the status text
// and keep the rest of the application running.
func New(ctx context.Context, cfg Config, logger log.Logger) (*Ollama, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	e := &Ollama{model: cfg.Model, logger: logger}

	if err := probe(ctx, cfg.Host); err != nil {
		e.initErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
		logger.Warn("inference backend not reachable", "host", cfg.Host, "error", err)
		return e, nil
	}

	ollamaPlugin := &ollama.Ollama{ServerAddress: cfg.Host}
	g := genkit.Init(ctx, genkit.WithPlugins(ollamaPlugin))
	if g == nil {
		return nil, fmt.Errorf("initializing genkit with ollama provider")
	}
	// Ollama requires explicit model registration (no auto-discovery).
	ollamaPlugin.DefineModel(g, ollama.ModelDefinition{
		Name: cfg.Model,
		Type: "chat",
	}, nil)

	e.g = g
	e.ready = true
	logger.Info("inference engine ready", "host", cfg.Host, "model", cfg.Model)
	return e, nil
}

// probe checks that the Ollama server answers its tags endpoint.
func probe(ctx context.Context, host string) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, host+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("building probe request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("probing %s: %w", host, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("probing %s: status %d", host, resp.StatusCode)
	}
	return nil
}

// Ready reports whether the startup probe succeeded.
func (e *Ollama) Ready() bool { return e.ready }

// Err returns the terminal probe failure, nil when ready.
func (e *Ollama) Err() error { return e.initErr }

// Stream generates a completion, bridging genkit's streaming callback into
// a pull-based delta sequence. The goroutine running the generation exits
// when the sequence is consumed or abandoned.
func (e *Ollama) Stream(ctx context.Context, msgs []Message) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if !e.ready {
			yield("", e.initErr)
			return
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		deltas := make(chan string, 16)
		done := make(chan error, 1)
		go func() {
			defer close(deltas)
			_, err := genkit.Generate(ctx, e.g,
				ai.WithModelName("ollama/"+e.model),
				ai.WithMessages(toGenkitMessages(msgs)...),
				ai.WithStreaming(func(cbCtx context.Context, chunk *ai.ModelResponseChunk) error {
					select {
					case deltas <- chunk.Text():
						return nil
					case <-cbCtx.Done():
						return cbCtx.Err()
					}
				}),
			)
			done <- err
		}()

		for d := range deltas {
			if !yield(d, nil) {
				// Abandoned mid-stream: cancel and drain so the
				// generation goroutine cannot block on the channel.
				cancel()
				for range deltas {
				}
				<-done
				return
			}
		}
		if err := <-done; err != nil && ctx.Err() == nil {
			e.logger.Error("generation failed", "model", e.model, "error", err)
			yield("", fmt.Errorf("generating response: %w", err))
		}
	}
}

// toGenkitMessages converts boundary messages to genkit's message type.
// Unknown roles are treated as user messages.
func toGenkitMessages(msgs []Message) []*ai.Message {
	out := make([]*ai.Message, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, ai.NewSystemTextMessage(m.Content))
		case RoleAssistant:
			out = append(out, ai.NewModelTextMessage(m.Content))
		default:
			out = append(out, ai.NewUserTextMessage(m.Content))
		}
	}
	return out
}
