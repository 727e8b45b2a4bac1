package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/channels"
	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/classifier"
	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/config"
	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/convo"
	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/dispatch"
	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/kv"
	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/notify"
	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/routing"
	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/server"
	"github.com/gabrielNahmur/crm-gbi-whatsapp/internal/store/pg"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway (webhooks, dispatcher, operator WebSocket)",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
}

func runServe() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.Database.DSN == "" {
		slog.Error("GBICRM_POSTGRES_DSN environment variable is not set")
		os.Exit(1)
	}

	db, err := pg.OpenDB(cfg.Database.DSN)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis backs the debounce gate, dedup guard, context window and
	// sector queues. When unreachable the gateway degrades to an
	// in-process store: single-instance only, state lost on restart.
	var backend kv.Backend
	redis, err := kv.NewRedis(ctx, cfg.Redis.URL)
	if err != nil {
		slog.Warn("redis unavailable, using in-memory backend", "error", err)
		backend = kv.NewMemory()
	} else {
		defer redis.Close()
		backend = redis
	}

	var sender channels.Sender
	if cfg.Twilio.Enabled {
		sender = channels.NewTwilio(cfg.Twilio)
	} else {
		sender = channels.NewMeta(cfg.WhatsApp)
	}
	slog.Info("outbound channel", "sender", sender.Name())

	catalog := routing.CatalogFromConfig(cfg.Routing)
	hub := notify.NewHub(backend)
	dispatcher := dispatch.New(
		*pg.NewStores(db),
		convo.NewContextStore(backend, cfg.Context.MaxTurns, time.Duration(cfg.Context.TTLHours)*time.Hour),
		convo.NewDebounceGate(backend, convo.DefaultDebounceDelay),
		convo.NewDedupGuard(backend),
		routing.NewQueueRouter(backend, catalog),
		classifier.New(cfg.Classifier),
		sender,
		hub,
		dispatch.NewHours(cfg.Hours),
	)

	srv := server.New(cfg, dispatcher, hub)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("gateway stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("gateway shut down")
}
