package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/Roroz7/Miky-Vinted-discord-bot/internal/admin"
	"github.com/Roroz7/Miky-Vinted-discord-bot/internal/config"
	"github.com/Roroz7/Miky-Vinted-discord-bot/internal/dedup"
	"github.com/Roroz7/Miky-Vinted-discord-bot/internal/engine"
	"github.com/Roroz7/Miky-Vinted-discord-bot/internal/notify"
	"github.com/Roroz7/Miky-Vinted-discord-bot/internal/store"
	"github.com/Roroz7/Miky-Vinted-discord-bot/internal/vinted"
	"github.com/Roroz7/Miky-Vinted-discord-bot/pkg/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the polling scheduler and ops server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&demoMode, "demo", false,
		"use generated listings and log notifications instead of sending them")
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	if !demoMode && cfg.Discord.Token == "" {
		return errors.New("discord.token is required (set DISCORD_TOKEN or discord.token in config)")
	}

	st, err := store.NewFileStore(cfg.Storage.DataDir, log)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	var (
		fetcher   vinted.Searcher
		messenger notify.Messenger
	)
	if demoMode {
		log.Info("demo mode: generated listings, notifications logged only")
		fetcher = &vinted.StubSearcher{}
		messenger = notify.NewLogMessenger(log)
	} else {
		limiter := vinted.NewLimiter(cfg.RateLimit.MinDelay, cfg.RateLimit.MaxPerMinute)
		fetcher = vinted.NewClient(
			cfg.Vinted.BaseURL,
			cfg.Vinted.UserAgent,
			vinted.WithHTTPClient(&http.Client{Timeout: cfg.Vinted.Timeout}),
			vinted.WithLimiter(limiter),
			vinted.WithCooldown(cfg.RateLimit.Cooldown),
			vinted.WithLogger(log),
		)
		messenger = notify.NewDiscordMessenger(
			cfg.Discord.Token,
			notify.WithAPIBase(cfg.Discord.APIBase),
		)
	}

	dispatcher := notify.NewDispatcher(messenger, notify.EmbedRenderer{}, log)
	eng := engine.NewEngine(st, fetcher, dedup.New(st), dispatcher,
		engine.WithLogger(log),
		engine.WithSearchPause(cfg.Schedule.SearchPause),
		engine.WithFetchLimit(cfg.Schedule.FetchLimit),
	)

	ready := make(chan struct{})
	sched := engine.NewScheduler(eng, st, cfg.Schedule.MinPollInterval,
		engine.WithSchedulerLogger(log),
		engine.WithReadySignal(ready),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("scheduler exited", "error", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/readyz", func(c echo.Context) error {
		if err := st.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	adminSvc := admin.NewService(st, fetcher, eng.Stats(), cfg.Schedule.MinPollInterval, log)
	admin.NewHandler(adminSvc).Register(e.Group("/api/v1"))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting ops server", "addr", addr)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("ops server error", "error", err)
		}
	}()

	// The scheduler stays parked until the chat runtime is reachable.
	go func() {
		probeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		id, err := messenger.Me(probeCtx)
		if err != nil {
			log.Error("discord identity check failed", "error", err)
			stop()
			return
		}
		log.Info("discord ready", "bot_id", id)
		close(ready)
	}()

	<-ctx.Done()
	log.Info("shutting down")

	// Let the scheduler finish its current suspension point.
	select {
	case <-schedDone:
	case <-time.After(10 * time.Second):
		log.Warn("scheduler did not stop in time")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down ops server: %w", err)
	}

	log.Info("stopped")
	return nil
}
