package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/alekspetrov/weeekbot/internal/adapters/weeek"
	"github.com/alekspetrov/weeekbot/internal/comms"
	"github.com/alekspetrov/weeekbot/internal/config"
	"github.com/alekspetrov/weeekbot/internal/dialog"
	"github.com/alekspetrov/weeekbot/internal/extraction"
	"github.com/alekspetrov/weeekbot/internal/health"
	"github.com/alekspetrov/weeekbot/internal/history"
	"github.com/alekspetrov/weeekbot/internal/logging"
	"github.com/alekspetrov/weeekbot/internal/metrics"
	"github.com/alekspetrov/weeekbot/internal/submission"
	"github.com/alekspetrov/weeekbot/internal/transcription"
)

// app holds the components shared by the start and chat commands.
type app struct {
	cfg        *config.Config
	registry   *prometheus.Registry
	metrics    *metrics.Metrics
	router     *comms.Router
	history    *history.Store
	checker    *health.Checker
	controller *dialog.Controller
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newApp(cfg *config.Config) (*app, error) {
	log := logging.WithComponent("weeekbot")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := &app{
		cfg:      cfg,
		registry: reg,
		metrics:  metrics.New(reg, "weeekbot"),
		router:   comms.NewRouter(),
		checker:  health.NewChecker(5 * time.Second),
	}

	dir := weeek.NewClientFromConfig(cfg.Weeek)
	a.checker.AddOptional("weeek", func(ctx context.Context) error {
		_, err := dir.ListProjects(ctx)
		return err
	})

	if cfg.OpenAI.APIKey == "" {
		log.Warn("OpenAI API key not set; task titles will be the raw message text")
	}

	dc := dialog.Config{
		Directory:     dir,
		Extractor:     extraction.NewOpenAI(*cfg.OpenAI),
		Submitter:     submission.New(dir, submission.WithBacklogColumn(cfg.Dialog.BacklogColumn)),
		Sink:          a.router,
		Metrics:       a.metrics,
		CancelPhrases: cfg.Dialog.CancelPhrases,
		MaxChoices:    cfg.Dialog.MaxChoices,
	}

	if svc, err := transcription.NewService(cfg.Transcription); err != nil {
		log.Warn("Voice messages disabled", slog.Any("error", err))
	} else {
		dc.Transcriber = svc
	}

	if cfg.History != nil && cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return nil, err
		}
		a.history = store
		dc.Recorder = store
		a.checker.Add("history", store.Ping)
	} else {
		a.checker.Disabled("history")
	}

	a.controller = dialog.NewController(dc)
	return a, nil
}

// endConversation drops the dialog of a conversation whose transport went away.
func (a *app) endConversation(conversationID string) {
	store := a.controller.Store()
	if _, ok := store.Cancel(conversationID); ok {
		a.metrics.DialogFinished(metrics.OutcomeCancelled)
		a.metrics.SetActive(store.Active())
	}
}

func (a *app) Close() error {
	if a.history != nil {
		return a.history.Close()
	}
	return nil
}
