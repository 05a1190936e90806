// Command examapi serves a local stand-in of the exam backend's admission
// endpoints, seeded from a YAML fixture.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/arnexam/exam-admission/internal/clock"
	"github.com/arnexam/exam-admission/internal/config"
	"github.com/arnexam/exam-admission/internal/database"
	"github.com/arnexam/exam-admission/internal/fixture"
	"github.com/arnexam/exam-admission/internal/handler"
	"github.com/arnexam/exam-admission/internal/logger"
	"github.com/arnexam/exam-admission/internal/middleware"
	"github.com/arnexam/exam-admission/internal/model"
	"github.com/arnexam/exam-admission/internal/router"
	"github.com/arnexam/exam-admission/internal/service"
	"github.com/arnexam/exam-admission/internal/validator"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("store", cfg.StoreBackend).
		Msg("Starting exam API")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()
	model.DefaultDurationMinutes = cfg.DefaultDuration

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Open Store ────────────────────────────────────────────────────
	store, closeStore, err := database.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer closeStore()

	// ─── Seed Fixture ──────────────────────────────────────────────────
	if cfg.FixturePath != "" {
		fx, err := fixture.Load(cfg.FixturePath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			log.Warn().Str("path", cfg.FixturePath).Msg("Fixture not found, starting empty")
		case err != nil:
			log.Fatal().Err(err).Msg("Failed to load fixture")
		default:
			fx.Today(clock.Now())
			if err := store.Seed(ctx, fx.Exams, fx.Registrations); err != nil {
				log.Fatal().Err(err).Msg("Failed to seed store")
			}
			log.Info().
				Int("exams", len(fx.Exams)).
				Int("registrations", len(fx.Registrations)).
				Msg("Fixture loaded")
		}
	}

	// ─── Initialize Services & Handlers ───────────────────────────────
	examService := service.NewExamService(store, log)
	registrationService := service.NewRegistrationService(store, clock.System{}, log)

	handlers := &router.Handlers{
		Exam:         handler.NewExamHandler(examService),
		Registration: handler.NewRegistrationHandler(registrationService, log),
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
	go limiter.Run(ctx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, limiter, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
