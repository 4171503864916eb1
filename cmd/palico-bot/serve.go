package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/palico-bot/internal/api"
	apiwebsocket "github.com/ramonehamilton/palico-bot/internal/api/websocket"
	"github.com/ramonehamilton/palico-bot/internal/bot"
	"github.com/ramonehamilton/palico-bot/internal/config"
	"github.com/ramonehamilton/palico-bot/internal/metrics"
	"github.com/ramonehamilton/palico-bot/internal/mhw/rawstore"
	"github.com/ramonehamilton/palico-bot/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load armor data and answer queries on Discord and HTTP",
	Long: `Ensure the raw resources are present, aggregate armor sets, then serve
queries over the enabled transports until interrupted.

Startup halts if the data cannot be loaded.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, cfg)
	},
}

// runServe runs the bot until ctx is done.
func runServe(ctx context.Context, cfg *config.Config) error {
	logger := newLogger(cfg)

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.storage != nil && cfg.Storage.RetentionDays > 0 {
		pruner := storage.NewPruneScheduler(a.storage, &storage.SchedulerConfig{
			Interval:         24 * time.Hour,
			Retention:        time.Duration(cfg.Storage.RetentionDays) * 24 * time.Hour,
			StartImmediately: true,
			OnPrune: func(removed int64, err error) {
				if err != nil {
					logger.Warn("failed to prune query log", "error", err)
				} else if removed > 0 {
					logger.Info("pruned query log", "removed", removed)
				}
			},
		})
		if err := pruner.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = pruner.Stop() }()
	}

	if err := a.catalog.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize armor data: %w", err)
	}
	logger.Info("armor data ready", "sets", a.catalog.Status().Sets)

	queryMetrics := metrics.NewQueryMetrics()
	dispatcherOpts := bot.Options{
		Prefix:   cfg.Discord.Prefix,
		Resolver: a.catalog,
		Metrics:  queryMetrics,
		Logger:   logger,
	}
	if a.storage != nil {
		dispatcherOpts.Recorder = a.storage
	}
	dispatcher, err := bot.NewDispatcher(dispatcherOpts)
	if err != nil {
		return err
	}

	var server *api.Server
	if cfg.API.Enabled {
		deps := api.Deps{
			Catalog: a.catalog,
			Metrics: queryMetrics,
			Chat:    chatHandler(dispatcher),
			Logger:  logger,
		}
		if a.storage != nil {
			deps.Queries = a.storage
		}
		server, err = api.NewServer(&api.Config{Port: cfg.API.Port}, deps)
		if err != nil {
			return err
		}
		if err := server.Start(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn("failed to shut down API server", "error", err)
			}
		}()
	}

	if cfg.Data.Watch {
		watcher := rawstore.NewWatcher(cfg.Data.Dir, logger, func(c rawstore.Change) {
			if server != nil {
				server.WebSocketHub().BroadcastEvent(apiwebsocket.Event{Type: "resources_changed", Data: c})
			}
		})
		go func() {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("resource watcher stopped", "error", err)
			}
		}()
	}

	if cfg.Discord.Enabled {
		discord, err := newChatTransport(bot.DiscordOptions{
			Token:      cfg.Discord.Token,
			Dispatcher: dispatcher,
			Logger:     logger,
		})
		if err != nil {
			return err
		}
		if err := discord.Open(); err != nil {
			return err
		}
		defer func() {
			if err := discord.Close(); err != nil {
				logger.Warn("failed to close discord session", "error", err)
			}
		}()
	}

	logger.Info("palico-bot running", "api", cfg.API.Enabled, "discord", cfg.Discord.Enabled)
	<-ctx.Done()
	logger.Info("shutting down")
	return nil
}

// chatTransport is a chat platform connection opened for the lifetime of serve.
type chatTransport interface {
	Open() error
	Close() error
}

var newChatTransport = func(opts bot.DiscordOptions) (chatTransport, error) {
	return bot.NewDiscord(opts)
}

// chatHandler adapts the dispatcher to websocket chat sessions.
func chatHandler(d *bot.Dispatcher) apiwebsocket.Handler {
	return func(ctx context.Context, session, line string) (interface{}, error) {
		reply, err := d.Handle(ctx, "ws:"+session, line)
		if err != nil || reply.Empty() {
			return nil, err
		}
		return reply, nil
	}
}
