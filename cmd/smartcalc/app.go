package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"go.temporal.io/sdk/client"

	"github.com/mfateev/smartcalc/internal/assistant"
	"github.com/mfateev/smartcalc/internal/config"
	"github.com/mfateev/smartcalc/internal/history"
	"github.com/mfateev/smartcalc/internal/llm"
	"github.com/mfateev/smartcalc/internal/logging"
	"github.com/mfateev/smartcalc/internal/temporalclient"
)

// app bundles the collaborators every command needs.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	history   *history.Log
	persister *history.Persister

	closers []io.Closer
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// openApp loads configuration, opens the log file and the history store,
// and loads the stored history.
func openApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := opts.load()
	if err != nil {
		return nil, err
	}

	logger, logCloser, err := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Path:    cfg.LogPath(),
		Service: "smartcalc",
	})
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, logger: logger, closers: []io.Closer{logCloser}}

	store, err := a.openStore()
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	a.history = history.NewLog(cfg.Storage.HistoryLimit)
	a.persister = history.Attach(ctx, store, a.history, logger)
	logger.Debug("app opened", "storage", cfg.Storage.Backend, "path", cfg.StoragePath())
	return a, nil
}

func (a *app) openStore() (history.Store, error) {
	switch a.cfg.Storage.Backend {
	case config.StorageMemory:
		return history.NewMemoryStore(), nil
	case config.StorageBadger:
		store, err := history.OpenBadgerStore(history.BadgerConfig{
			Path:   a.cfg.StoragePath(),
			Logger: a.logger,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store)
		return store, nil
	default:
		return history.NewFileStore(a.cfg.StoragePath()), nil
	}
}

// newAssistant returns the configured assistant: a local Service, or a
// RemoteAssistant when Temporal is enabled.
func (a *app) newAssistant() (assistant.Assistant, error) {
	if a.cfg.Temporal.Enabled {
		opts, err := temporalclient.LoadClientOptions(a.cfg.Temporal.HostPort, a.cfg.Temporal.Namespace)
		if err != nil {
			return nil, fmt.Errorf("failed to load Temporal client config: %w", err)
		}
		c, err := client.Dial(opts)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Temporal: %w", err)
		}
		a.closers = append(a.closers, closerFunc(func() error {
			c.Close()
			return nil
		}))
		a.logger.Info("assistant runs on Temporal", "host", opts.HostPort, "task_queue", a.cfg.Temporal.TaskQueue)
		return temporalclient.NewRemoteAssistant(c, a.cfg.Temporal.TaskQueue, a.cfg.Assistant), nil
	}

	creds := a.cfg.Credentials.WithEnvFallback()
	if creds.OpenAIKey == "" && creds.AnthropicKey == "" {
		return nil, errors.New("no LLM provider API key: set OPENAI_API_KEY or ANTHROPIC_API_KEY")
	}
	return assistant.NewService(llm.NewMultiProviderClient(creds), a.cfg.Assistant, a.logger), nil
}

// assistantLabel describes the assistant for the status bar.
func (a *app) assistantLabel() string {
	if a.cfg.Temporal.Enabled {
		return "temporal/" + a.cfg.Temporal.TaskQueue
	}
	return a.cfg.Assistant.Explain.Provider + "/" + a.cfg.Assistant.Explain.Model
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
