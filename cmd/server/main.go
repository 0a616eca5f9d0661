package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/Valley/internal/adapters/ai"
	"github.com/dkeye/Valley/internal/adapters/catalog"
	router "github.com/dkeye/Valley/internal/adapters/http"
	wsignal "github.com/dkeye/Valley/internal/adapters/signal"
	"github.com/dkeye/Valley/internal/app"
	"github.com/dkeye/Valley/internal/app/assistant"
	"github.com/dkeye/Valley/internal/app/metrics"
	"github.com/dkeye/Valley/internal/app/orch"
	"github.com/dkeye/Valley/internal/app/radio"
	"github.com/dkeye/Valley/internal/config"
	"github.com/dkeye/Valley/internal/core"
	rest "github.com/dkeye/Valley/internal/transport/http"
)

func setLevel(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	flags := config.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("bad flags")
	}
	cfg, err := config.Load(flags)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Mode == "release" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	setLevel(cfg.LogLevel)
	cfg.OnChange(func(next *config.Config) { setLevel(next.LogLevel) })

	rooms := core.NewRoomManager(core.Limits{
		Capacity: cfg.Limits.RoomCapacity,
		History:  cfg.Limits.HistorySize,
		AITurns:  cfg.Limits.AITurns,
	})
	reg := app.NewRegistry(rooms)
	presence := app.NewPresence(reg, rooms)
	out := app.NewFanout(reg, rooms, app.PolicyByName(cfg.Backpressure))
	metrics.RegisterGauges(prometheus.DefaultRegisterer, reg.GlobalUserCount, rooms.RoomCount)

	// Background work outlives the signal context just long enough to drain.
	workCtx, stopWork := context.WithCancel(context.Background())
	defer stopWork()

	clk := clock.New()
	player := radio.New(workCtx, rooms,
		catalog.New(cfg.Music.URL, cfg.Music.Timeout, cfg.Music.UserAgent),
		out, radio.Config{Clock: clk, SyncInterval: cfg.SyncInterval, FetchTimeout: cfg.Music.Timeout})
	bot := assistant.New(workCtx, rooms,
		ai.NewProcessProvider(cfg.AI.Command, cfg.AI.Args, cfg.AI.Dir),
		out, cfg.AI.Timeout, cfg.AI.Label)

	o := &orch.Orchestrator{
		Registry:  reg,
		Rooms:     rooms,
		Presence:  presence,
		Out:       out,
		Radio:     player,
		Assistant: bot,
		Limits: orch.TextLimits{
			Username: cfg.Limits.UsernameLen,
			RoomName: cfg.Limits.RoomNameLen,
			Message:  cfg.Limits.MessageLen,
		},
	}

	ctrl := wsignal.NewSignalWSController(o,
		wsignal.NewRoomRateLimiter(cfg.RateLimit.Messages, cfg.RateLimit.Interval, clk),
		wsignal.Options{SendBuffer: cfg.SendBuffer, ReadLimit: cfg.ReadLimit, PingPeriod: cfg.PingPeriod})
	r := router.SetupRouter(ctx, cfg, ctrl, &rest.Handlers{Stats: presence, Rooms: rooms})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", addr).Msg("Valley server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return app.NewSweeper(rooms, clk, cfg.SweepEvery).Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server error")
	}
	// Hijacked websockets outlive srv.Shutdown; close them before draining.
	reg.CancelAll()
	stopWork()
	player.Close()
	bot.Close()
	log.Info().Msg("Server exited gracefully")
}
