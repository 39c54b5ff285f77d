package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/microarena/api/internal/archive"
	"github.com/microarena/api/internal/clock"
	"github.com/microarena/api/internal/config"
	"github.com/microarena/api/internal/database"
	"github.com/microarena/api/internal/handler"
	"github.com/microarena/api/internal/jobs"
	"github.com/microarena/api/internal/middleware"
	"github.com/microarena/api/internal/service"
	"github.com/microarena/api/internal/store"
)

func main() {
	// A missing .env is normal outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("failed to read .env", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Log.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx := context.Background()

	st := store.New()
	clk := clock.NewMonotonic()
	hub := service.NewEventHub(0)
	defer hub.Close()

	// Archive is optional; the engine is authoritative in memory
	var sink archive.Sink = archive.Noop{}
	var archivePing handler.Pinger
	if cfg.Archive.Enabled {
		db := database.NewSurrealDB(database.Config{
			Host:      cfg.Archive.Host,
			Port:      cfg.Archive.Port,
			User:      cfg.Archive.User,
			Password:  cfg.Archive.Password,
			Namespace: cfg.Archive.Namespace,
			Database:  cfg.Archive.Database,
		})
		if err := db.Connect(ctx); err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		logger.Info("connected to archive",
			slog.String("host", cfg.Archive.Host),
			slog.String("database", cfg.Archive.Database),
		)
		sink = archive.NewSurrealSink(db, clk)
		archivePing = db
	}

	clans := service.NewClanService(service.ClanServiceConfig{
		UserRepo:      st,
		ClanRepo:      st,
		RatingRepo:    st,
		Locker:        st,
		Clock:         clk,
		Logger:        logger,
		InitialRating: cfg.Ranking.InitialRating,
	})
	ranking := service.NewRankingService(service.RankingServiceConfig{
		BeefRepo:      st,
		ArenaRepo:     st,
		UserRepo:      st,
		ClanRepo:      st,
		RatingRepo:    st,
		Logger:        logger,
		InitialRating: cfg.Ranking.InitialRating,
		KFactor:       cfg.Ranking.KFactor,
		RatingFloor:   cfg.Ranking.RatingFloor,
	})

	svc := handler.Services{
		Clans:   clans,
		Ranking: ranking,
		Integrity: service.NewIntegrityService(service.IntegrityServiceConfig{
			EventRepo:   st,
			UserRepo:    st,
			ClanService: clans,
			Locker:      st,
			Clock:       clk,
			Logger:      logger,
		}),
		Invites: service.NewInviteService(service.InviteServiceConfig{
			InviteRepo:  st,
			UserRepo:    st,
			ClanRepo:    st,
			ClanService: clans,
			Locker:      st,
			Clock:       clk,
			Logger:      logger,
			TTL:         cfg.Invites.TTL,
		}),
		Beef: service.NewBeefService(service.BeefServiceConfig{
			BeefRepo:           st,
			ClanRepo:           st,
			UserRepo:           st,
			RankingService:     ranking,
			Archiver:           sink,
			Events:             hub,
			Locker:             st,
			Clock:              clk,
			Logger:             logger,
			MinRankedIntegrity: cfg.Matches.MinRankedIntegrity,
		}),
		Arena: service.NewArenaService(service.ArenaServiceConfig{
			ArenaRepo:          st,
			ClanRepo:           st,
			UserRepo:           st,
			ClanService:        clans,
			RankingService:     ranking,
			Archiver:           sink,
			Events:             hub,
			Locker:             st,
			Clock:              clk,
			Logger:             logger,
			MinRankedIntegrity: cfg.Matches.MinRankedIntegrity,
			ArenaElo:           cfg.Ranking.ArenaElo,
		}),
		Tournaments: service.NewTournamentService(service.TournamentServiceConfig{
			TournamentRepo: st,
			ClanRepo:       st,
			ClanService:    clans,
			Locker:         st,
			Clock:          clk,
			Logger:         logger,
		}),
		Events:  hub,
		Stats:   st,
		Archive: archivePing,
	}

	if cfg.Archive.Enabled {
		snapshots := jobs.NewLadderSnapshotter(jobs.LadderSnapshotterConfig{
			Ranking:  ranking,
			Sink:     sink,
			Interval: cfg.Archive.SnapshotInterval,
			Logger:   logger,
		})
		if err := snapshots.Start(); err != nil {
			return err
		}
		defer func() { _ = snapshots.Stop() }()
	}

	mux := handler.NewRouter(svc, logger)

	idempotencyStore := middleware.NewIdempotencyStore(middleware.IdempotencyConfig{TTL: cfg.Idempotency.TTL})
	defer idempotencyStore.Stop()

	chain := []middleware.Middleware{
		middleware.RequestID,
		middleware.Logger(logger),
		middleware.Recovery(logger),
		middleware.CORS(cfg.Server.AllowedOrigins),
		middleware.Identity,
	}
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimitConfig{
			Rate:   cfg.RateLimit.Rate,
			Window: cfg.RateLimit.Window,
			Burst:  cfg.RateLimit.Burst,
		})
		defer limiter.Stop()
		chain = append(chain, middleware.RateLimit(limiter))
	}
	chain = append(chain, middleware.Idempotency(idempotencyStore), middleware.Compress)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      middleware.Chain(mux, chain...),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			slog.String("port", cfg.Server.Port),
			slog.String("env", cfg.Server.Env),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.Info("shutting down server...")
	// Ends open event streams so Shutdown does not wait on them
	hub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.String("error", err.Error()))
	}

	logger.Info("server exited")
	return nil
}
