// Package main is the entry point of the roulette simulator.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"roulette-simulator/internal/config"
	"roulette-simulator/internal/handler"
	"roulette-simulator/internal/pkg/db"
	"roulette-simulator/internal/repository"
	"roulette-simulator/internal/roulette/strategy"
	"roulette-simulator/internal/service"
)

func main() {
	configDir := flag.String("config", "config", "directory holding config.yaml")
	rounds := flag.Int("rounds", 0, "rounds to play in batch mode (0 uses simulation.rounds)")
	serve := flag.Bool("serve", false, "serve the HTTP API instead of running a batch")
	live := flag.Bool("live", false, "play one round per simulation.speed_ms tick and log every round")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogger(&cfg.Log)
	log.Info().Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store service.RunStore
	if cfg.Database.Enabled {
		pool, err := db.NewPool(ctx, &cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer pool.Close()

		runs := repository.NewRunRepository(pool.Pool)
		if err := runs.Migrate(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
		store = runs
	}

	registry := strategy.NewDefaultRegistry()
	svc := service.NewSimulationService(cfg.Simulation, cfg.Server, registry, store)

	log.Info().
		Strs("strategies", registry.IDs()).
		Bool("persistence", store != nil).
		Msg("Strategies registered")

	switch {
	case *serve:
		err = runServer(ctx, &cfg.Server, svc)
	case *live:
		err = runLive(ctx, time.Duration(cfg.Simulation.SpeedMS)*time.Millisecond, svc)
	default:
		n := *rounds
		if n <= 0 {
			n = cfg.Simulation.Rounds
		}
		err = runBatch(ctx, n, svc)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Simulator stopped with error")
	}
}

func setupLogger(cfg *config.LogConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

func runServer(ctx context.Context, cfg *config.ServerConfig, svc *service.SimulationService) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.NewRouter(handler.NewSimulationHandler(svc)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("HTTP server is starting...")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Received shutdown signal")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("HTTP server stopped gracefully")
	return nil
}

func runBatch(ctx context.Context, rounds int, svc *service.SimulationService) error {
	snap, err := svc.CreateSession(ctx, service.SessionRequest{})
	if err != nil {
		return err
	}

	res, err := svc.RunRounds(ctx, snap.ID, rounds)
	if err != nil {
		return err
	}
	for i, lane := range res.Session.Lanes {
		logLane(lane, res.Lanes[i].Played, snap.InitialBalance.String())
	}

	_, err = svc.Close(ctx, snap.ID)
	return err
}

func runLive(ctx context.Context, tick time.Duration, svc *service.SimulationService) error {
	snap, err := svc.CreateSession(ctx, service.SessionRequest{})
	if err != nil {
		return err
	}

	ticker := time.NewTicker(max(tick, time.Millisecond))
	defer ticker.Stop()

	var last service.RoundsResult
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
		}

		res, err := svc.RunRounds(ctx, snap.ID, 1)
		if errors.Is(err, context.Canceled) {
			break
		}
		if err != nil {
			return err
		}
		last = res

		anyLive := false
		for i, lane := range last.Lanes {
			state := last.Session.Lanes[i]
			anyLive = anyLive || state.Live
			if lane.Played == 0 {
				continue
			}
			r := lane.Results[0]
			log.Info().
				Str("strategy", state.Name).
				Int("round", state.Round).
				Str("spot", r.Spot.String()).
				Str("bet", r.TotalBet.String()).
				Str("payout", r.TotalPayout.String()).
				Str("balance", r.Balance.String()).
				Msg("Round")
		}
		if !anyLive {
			log.Info().Msg("Every strategy is broke")
			break
		}
	}

	for _, lane := range last.Session.Lanes {
		logLane(lane, lane.Stats.BetCount, snap.InitialBalance.String())
	}

	// The signal context may be done already; persistence still gets to run.
	_, err = svc.Close(context.WithoutCancel(ctx), snap.ID)
	return err
}

func logLane(lane service.LaneSnapshot, played int, initial string) {
	st := lane.Stats
	log.Info().
		Str("strategy", lane.Name).
		Int("played", played).
		Bool("live", lane.Live).
		Str("initial", initial).
		Str("balance", st.CurrentBalance.String()).
		Str("max_balance", st.MaximumBalance.String()).
		Str("min_balance", st.MinimumBalance.String()).
		Str("max_total_bet", st.MaximumTotalBet.String()).
		Int("won", st.WonCount).
		Int("lost", st.LostCount).
		Float64("win_rate", st.WinRate()).
		Msg("Strategy summary")
}
