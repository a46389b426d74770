package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bfstats/internal/auth"
	"bfstats/internal/authtoken"
	"bfstats/internal/config"
	"bfstats/internal/httpserver"
	"bfstats/internal/logger"
	"bfstats/internal/stats"
	"bfstats/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info").Fatalw("config", "error", err)
	}
	lg := logger.New(cfg.LogLevel)
	defer lg.Sync()

	st := openStore(cfg, lg)
	seedDefaultAdmin(st, cfg, lg)

	secret := cfg.JWTSecret
	if secret == "" {
		secret = uuid.NewString() + uuid.NewString()
		lg.Warnw("JWT_SECRET is empty, using a random secret; tokens will not survive a restart")
	}
	iss, err := auth.NewIssuer(secret, cfg.JWTExpiresIn)
	if err != nil {
		lg.Fatalw("jwt issuer", "error", err)
	}
	asm, err := authtoken.NewAssembler(authtoken.WithLogger(lg))
	if err != nil {
		lg.Fatalw("token assembler", "error", err)
	}
	sc, err := stats.NewClient(cfg.StatsHost, cfg.StatsAuthPID,
		stats.WithHTTPClient(&http.Client{Timeout: cfg.StatsTimeout}),
		stats.WithCache(cfg.StatsCacheSize),
		stats.WithLogger(lg),
	)
	if err != nil {
		lg.Fatalw("stats client", "error", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           httpserver.NewRouter(httpserver.Deps{Store: st, Issuer: iss, Assembler: asm, Stats: sc, Logger: lg}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	lg.Infow("listening", "port", cfg.HTTPPort, "stats_host", cfg.StatsHost)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Fatalw("listen", "error", err)
	}
}

func openStore(cfg config.Config, lg *zap.SugaredLogger) store.Store {
	if cfg.DatabaseURL == "" {
		lg.Warnw("DATABASE_URL is empty, running with an in-memory store")
		return store.NewMemory()
	}
	st, err := store.OpenPostgres(cfg.DatabaseURL)
	if err != nil {
		lg.Fatalw("db", "error", err)
	}
	return st
}

func seedDefaultAdmin(st store.Store, cfg config.Config, lg *zap.SugaredLogger) {
	password := cfg.AdminPassword
	generated := password == ""
	if generated {
		password = uuid.NewString()
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		lg.Fatalw("hash admin password", "error", err)
	}
	created, err := store.SeedAdmin(context.Background(), st, cfg.AdminEmail, hash)
	if err != nil {
		lg.Fatalw("seed admin", "error", err)
	}
	if !created {
		return
	}
	if generated {
		lg.Warnw("seeded default admin with a generated password", "email", cfg.AdminEmail, "password", password)
		return
	}
	lg.Infow("seeded default admin", "email", cfg.AdminEmail)
}
