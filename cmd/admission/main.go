// Command admission runs the exam admission countdown for one candidate in
// the terminal: it follows the backend schedule, accepts a registration
// number on stdin and hands off to the exam at the start instant.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/arnexam/exam-admission/internal/admission"
	"github.com/arnexam/exam-admission/internal/apiclient"
	"github.com/arnexam/exam-admission/internal/clock"
	"github.com/arnexam/exam-admission/internal/config"
	"github.com/arnexam/exam-admission/internal/console"
	"github.com/arnexam/exam-admission/internal/logger"
	"github.com/arnexam/exam-admission/internal/model"
	"github.com/arnexam/exam-admission/internal/validator"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	// stdout belongs to the status line.
	log := logger.SetupWriter(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("api", cfg.APIBaseURL).
		Dur("poll", cfg.PollInterval).
		Int("window_minutes", cfg.WindowMinutes).
		Msg("Starting admission client")

	validator.Setup()
	model.DefaultDurationMinutes = cfg.DefaultDuration

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	if !interactive {
		color.NoColor = true
	}
	out := console.NewRenderer(os.Stdout, interactive)

	api := apiclient.New(cfg.APIBaseURL, cfg.HTTPTimeout, log)
	printSchedule(ctx, api, log)

	nav := admission.NavigatorFunc(func(_ context.Context, h admission.Handoff) error {
		out.Notice(color.CyanString("Entering %s as %s (%s)",
			h.Exam.Name, h.Candidate.CandidateName, h.Candidate.RegistrationNumber))
		return printPayload(h.Payload)
	})

	ctrl := admission.NewController(api, clock.System{}, nav, admission.Options{
		PollInterval:  cfg.PollInterval,
		TickInterval:  cfg.TickInterval,
		WindowMinutes: cfg.WindowMinutes,
		OnChange:      out.Render,
		OnAlert: func(err error) {
			out.Notice(console.ErrorLine(err))
		},
	}, log)

	// ─── Read Registration Numbers ─────────────────────────────────────
	go readInput(ctx, ctrl, out)

	err := ctrl.Run(ctx)
	switch {
	case err == nil:
		log.Info().Msg("Handed off to exam")
	case errors.Is(err, context.Canceled):
		out.Notice("Session closed")
	default:
		log.Error().Err(err).Msg("Admission failed")
		os.Exit(1)
	}
}

func printSchedule(ctx context.Context, api *apiclient.Client, log zerolog.Logger) {
	exams, err := api.ListExams(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Schedule unavailable, continuing with polling")
		return
	}
	if console.ScheduleTable(os.Stdout, exams, clock.Now()) == 0 {
		fmt.Println("No upcoming exams.")
	}
}

func readInput(ctx context.Context, ctrl *admission.Controller, out *console.Renderer) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		number := strings.TrimSpace(scanner.Text())
		if number == "" {
			continue
		}
		if err := ctrl.Submit(ctx, number); err != nil {
			if errors.Is(err, admission.ErrClosed) || ctx.Err() != nil {
				return
			}
			out.Notice(console.ErrorLine(err))
			continue
		}
		out.Notice(color.GreenString("✓ %s accepted", number))
	}
}

func printPayload(payload json.RawMessage) error {
	if len(payload) == 0 {
		return nil
	}
	var pretty interface{}
	if err := json.Unmarshal(payload, &pretty); err != nil {
		return fmt.Errorf("decode start-exam payload: %w", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(pretty)
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
