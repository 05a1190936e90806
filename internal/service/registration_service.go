package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/arnexam/exam-admission/internal/clock"
	"github.com/arnexam/exam-admission/internal/model"
	"github.com/arnexam/exam-admission/internal/repository"
)

// RegistrationService validates and consumes registration numbers.
type RegistrationService struct {
	store repository.Store
	clock clock.Source
	log   zerolog.Logger
}

// NewRegistrationService creates a new RegistrationService.
func NewRegistrationService(store repository.Store, src clock.Source, log zerolog.Logger) *RegistrationService {
	if src == nil {
		src = clock.System{}
	}
	return &RegistrationService{
		store: store,
		clock: src,
		log:   log.With().Str("component", "registration_service").Logger(),
	}
}

// Validate returns the record for number, including its used flag.
func (s *RegistrationService) Validate(ctx context.Context, number string) (*model.RegistrationRecord, error) {
	rec, err := s.store.GetRegistration(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return rec, nil
}

// StartExam consumes number. A second start for the same number fails with
// repository.ErrAlreadyUsed.
func (s *RegistrationService) StartExam(ctx context.Context, number string) (*model.StartExamResponse, error) {
	rec, err := s.store.GetRegistration(ctx, number)
	if err != nil {
		return nil, fmt.Errorf("get registration: %w", err)
	}

	now := s.clock.Now()
	if err := s.store.MarkUsed(ctx, number, now); err != nil {
		return nil, fmt.Errorf("mark used: %w", err)
	}

	s.log.Info().
		Str("registration_number", number).
		Str("exam", rec.ExamName).
		Msg("Exam started")

	rec.Used = true
	return &model.StartExamResponse{
		Success:            true,
		RegistrationNumber: number,
		StartedAt:          now.Format(time.RFC3339),
		Candidate:          *rec,
	}, nil
}
