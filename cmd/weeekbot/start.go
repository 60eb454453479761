package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alekspetrov/weeekbot/internal/adapters/telegram"
	"github.com/alekspetrov/weeekbot/internal/banner"
	"github.com/alekspetrov/weeekbot/internal/config"
	"github.com/alekspetrov/weeekbot/internal/dialog"
	"github.com/alekspetrov/weeekbot/internal/gateway"
	"github.com/alekspetrov/weeekbot/internal/logging"
)

func newStartCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the bot",
		Long: `Run the bot until interrupted. Serves Telegram when telegram.enabled is set
and the HTTP gateway (health, metrics, websocket chat) when gateway.enabled is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.ValidateServe(); err != nil {
				return err
			}
			if err := logging.Init(cfg.Logging); err != nil {
				return fmt.Errorf("failed to init logging: %w", err)
			}
			return runStart(cmd.Context(), cfg)
		},
	}
}

func runStart(ctx context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logging.WithComponent("weeekbot")

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	dispatcher := dialog.NewDispatcher(a.controller, a.controller.CancelPhrases())

	var transport *telegram.Transport
	if cfg.Telegram.Enabled {
		client := telegram.NewClient(cfg.Telegram.BotToken)
		if err := client.CheckSingleton(ctx); err != nil {
			if errors.Is(err, telegram.ErrConflict) {
				return fmt.Errorf("another instance is already polling this bot token")
			}
			return fmt.Errorf("telegram: %w", err)
		}
		a.router.Register(telegram.Name, telegram.NewMessenger(client))
		transport = telegram.NewTransport(client, dispatcher, cfg.Telegram)
		transport.StartPolling(ctx)
		log.Info("Telegram polling started")
	}

	janitor := dialog.NewJanitor(a.controller.Store(), cfg.Dialog.IdleTTL, cfg.Dialog.SweepSchedule, a.router, a.metrics)
	if err := janitor.Start(ctx); err != nil {
		return err
	}
	defer janitor.Stop()

	errCh := make(chan error, 1)
	if cfg.Gateway.Enabled {
		srv := gateway.NewServer(cfg.Gateway, dispatcher,
			gateway.WithReadiness(a.checker),
			gateway.WithGatherer(a.registry),
			gateway.WithOnClose(a.endConversation),
		)
		a.router.Register(gateway.Name, srv.Sessions())
		go func() { errCh <- srv.Start(ctx) }()
	}

	gatewayAddr := ""
	if cfg.Gateway.Enabled {
		gatewayAddr = fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port)
	}
	banner.Startup(os.Stdout, version, banner.Transports{
		Telegram: cfg.Telegram.Enabled,
		Gateway:  gatewayAddr,
	}, a.checker.Run(ctx))

	log.Info("weeekbot started",
		slog.String("version", version),
		slog.Bool("telegram", cfg.Telegram.Enabled),
		slog.Bool("gateway", cfg.Gateway.Enabled))

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}
	stop()

	if transport != nil {
		transport.Stop()
	}
	dispatcher.Wait()
	log.Info("weeekbot stopped")
	return runErr
}
