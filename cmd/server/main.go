package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/ilyakaznacheev/cleanenv"

	"github.com/placepix/placemedia/pkg/placemedia/api"
	"github.com/placepix/placemedia/pkg/placemedia/config"
)

// envConfig holds executable-level settings; service settings come from
// config.WithEnv.
type envConfig struct {
	JWTSecret       string `env:"JWT_SECRET" env-default:"dev-secret"`
	ShutdownSeconds int    `env:"SHUTDOWN_TIMEOUT_SECONDS" env-default:"15"`
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	var env envConfig
	if err := cleanenv.ReadEnv(&env); err != nil {
		logger.Error("failed to read environment", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load(config.WithEnv(""))
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	svc, err := cfg.BuildService(ctx, logger)
	if err != nil {
		logger.Error("failed to build service", "error", err)
		os.Exit(1)
	}

	tokenAuth := jwtauth.New("HS256", []byte(env.JWTSecret), nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Group(func(r chi.Router) {
		r.Use(api.Identity(tokenAuth))
		r.Mount("/api/v1", api.NewHandler(svc, logger).Routes())
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(env.ShutdownSeconds)*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}

	// let in-flight storage cleanups drain before exit
	svc.Wait()
	logger.Info("server stopped")
}
