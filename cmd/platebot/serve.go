package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dan1650/plates-bot/internal/cache"
	"github.com/dan1650/plates-bot/internal/health"
	"github.com/dan1650/plates-bot/internal/telegram"
	"github.com/dan1650/plates-bot/internal/workerpool"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot",
		Long: `Serve makes sure the registry database is present, starts the health
listener when a port is configured, and answers Telegram updates until
interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	if cfg.Bot.Token == "" {
		return fmt.Errorf("bot token is required (set BOT_TOKEN)")
	}

	logger.Info().
		Str("database", cfg.Database.Driver).
		Str("cache", cfg.Cache.Driver).
		Int("workers", cfg.Lookup.Workers).
		Msg("Starting plate bot")

	if err := ensureDatabase(ctx, cfg, logger); err != nil {
		return fmt.Errorf("prepare database: %w", err)
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	client, err := newCacheClient(cfg)
	if err != nil {
		return fmt.Errorf("create cache: %w", err)
	}
	defer client.Close()

	svc, err := newBotService(ctx, db, client, cfg, logger)
	if err != nil {
		return err
	}

	api, err := tgbotapi.NewBotAPI(cfg.Bot.Token)
	if err != nil {
		return fmt.Errorf("connect to telegram: %w", err)
	}
	api.Debug = cfg.Bot.Debug
	logger.Info().Str("bot", api.Self.UserName).Msg("Authorized on Telegram")

	pool := workerpool.New(cfg.Lookup.Workers, logger.WithOperation("lookup"))
	bot := telegram.New(api, svc, pool, logger, telegram.Config{
		PollTimeout: cfg.Bot.PollTimeout,
		JobTimeout:  cfg.Lookup.Timeout,
	})

	g, ctx := errgroup.WithContext(ctx)

	if cfg.Server.Port > 0 {
		checks := []health.Check{{Name: "database", Fn: db.PingContext}}
		if rc, ok := client.(*cache.RedisClient); ok {
			checks = append(checks, health.Check{Name: "redis", Fn: rc.Ping})
		}
		srv := health.NewServer(health.Config{
			Host:             cfg.Server.Host,
			Port:             cfg.Server.Port,
			ReadTimeout:      cfg.Server.ReadTimeout,
			WriteTimeout:     cfg.Server.WriteTimeout,
			GracefulShutdown: cfg.Server.GracefulShutdown,
			ServiceName:      cfg.Observability.ServiceName,
		}, logger, checks...)
		g.Go(func() error {
			return srv.Run(ctx)
		})
	}

	g.Go(func() error {
		return bot.Run(ctx)
	})

	err = g.Wait()
	logger.Info().Msg("Plate bot stopped")
	return err
}
