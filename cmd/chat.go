package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/armaan-p22/hybrid-context-ai/internal/compose"
	"github.com/armaan-p22/hybrid-context-ai/internal/config"
	"github.com/armaan-p22/hybrid-context-ai/internal/engine"
	"github.com/armaan-p22/hybrid-context-ai/internal/extract"
	"github.com/armaan-p22/hybrid-context-ai/internal/log"
	"github.com/armaan-p22/hybrid-context-ai/internal/orchestrator"
	"github.com/armaan-p22/hybrid-context-ai/internal/session"
	"github.com/armaan-p22/hybrid-context-ai/internal/tui"
	"github.com/armaan-p22/hybrid-context-ai/internal/websearch"
)

// runChat builds the full pipeline and starts the interactive TUI.
func runChat(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := log.New(log.Config{
		Level: log.ParseLevel(cfg.LogLevel),
		JSON:  cfg.LogJSON,
	})

	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dataDir, err := cfg.ResolveDataDir()
	if err != nil {
		return err
	}
	store, err := session.NewStore(session.NewFileSnapshot(dataDir, logger), logger)
	if err != nil {
		return fmt.Errorf("opening session store: %w", err)
	}

	// A failed probe yields a not-ready engine, not a startup failure:
	// the TUI surfaces the status and keeps sessions browsable.
	eng, err := engine.New(ctx, engine.Config{Host: cfg.OllamaHost, Model: cfg.ModelName}, logger)
	if err != nil {
		return fmt.Errorf("initializing inference engine: %w", err)
	}

	searcher := websearch.NewClient(cfg.SearchBaseURL, cfg.SearchAPIKey, logger)
	composer := compose.NewComposer(searcher, cfg.MaxFileContextChars, logger)
	extractor := extract.NewToolExtractor(time.Duration(cfg.ExtractTimeoutSec)*time.Second, logger)

	orch, err := orchestrator.New(orchestrator.Config{
		Store:     store,
		Engine:    eng,
		Composer:  composer,
		Extractor: extractor,
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	defer orch.Close()

	model, err := tui.New(ctx, orch, store, logger)
	if err != nil {
		return fmt.Errorf("creating TUI: %w", err)
	}

	if _, err := tea.NewProgram(model, tea.WithContext(ctx)).Run(); err != nil {
		return fmt.Errorf("TUI exited: %w", err)
	}
	return nil
}
