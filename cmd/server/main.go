package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deafauth/deafauth/config"
	"github.com/deafauth/deafauth/internal/email"
	"github.com/deafauth/deafauth/internal/hashing"
	"github.com/deafauth/deafauth/internal/health"
	"github.com/deafauth/deafauth/internal/infrastructure/memory"
	"github.com/deafauth/deafauth/internal/infrastructure/postgres"
	ctxlog "github.com/deafauth/deafauth/internal/log"
	"github.com/deafauth/deafauth/internal/metrics"
	"github.com/deafauth/deafauth/internal/repository"
	"github.com/deafauth/deafauth/internal/token"
	httptransport "github.com/deafauth/deafauth/internal/transport/http"
	"github.com/deafauth/deafauth/internal/transport/http/handler"
	"github.com/deafauth/deafauth/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	var accounts repository.AccountRepository
	var storePinger health.Pinger

	if cfg.DatabaseURL == "" {
		// Config validation only allows this for ENV=local.
		store := memory.NewAccountRepository()
		accounts, storePinger = store, store
		logger.Warn("no DATABASE_URL set, using in-memory account store")
	} else {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			stop()
			log.Fatalf("db: %v", err)
		}
		defer pool.Close()
		accounts, storePinger = postgres.NewAccountRepository(pool), pool
	}

	codec, err := token.NewCodec(token.Strategy(cfg.TokenStrategy), cfg.TokenSecret, cfg.SessionTTL)
	if err != nil {
		stop()
		log.Fatalf("token codec: %v", err)
	}
	gate := token.NewGate(codec)

	hasher := hashing.NewArgon2Hasher(hashing.DefaultParams())
	sender := email.NewSender(cfg.Env, cfg.ResendAPIKey, cfg.ResendFrom, logger)

	authUsecase, err := usecase.NewAuthUsecase(accounts, hasher, codec, sender, cfg.VerifyBaseURL, logger)
	if err != nil {
		stop()
		log.Fatalf("auth usecase: %v", err)
	}
	authHandler := handler.NewAuthHandler(authUsecase, logger, cfg.Env == "local")

	metrics.Register()
	checker := health.NewChecker(storePinger, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr:    ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, authHandler, gate),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port, "token_strategy", cfg.TokenStrategy)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
