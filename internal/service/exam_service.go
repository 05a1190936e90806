package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/arnexam/exam-admission/internal/model"
	"github.com/arnexam/exam-admission/internal/repository"
	"github.com/arnexam/exam-admission/internal/schedule"
)

// ExamService serves the exam schedule.
type ExamService struct {
	store repository.Store
	log   zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(store repository.Store, log zerolog.Logger) *ExamService {
	return &ExamService{
		store: store,
		log:   log.With().Str("component", "exam_service").Logger(),
	}
}

// List returns every exam record. Records whose window cannot be parsed are
// still returned, since clients skip them on their own, but are logged.
func (s *ExamService) List(ctx context.Context) ([]model.ExamSchedule, error) {
	exams, err := s.store.ListExams(ctx)
	if err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	for _, e := range exams {
		if !e.HasWindow() {
			continue
		}
		if _, err := schedule.Resolve(e); err != nil {
			s.log.Warn().Err(err).Str("exam_id", e.ID).Msg("Exam has a malformed schedule")
		}
	}
	return exams, nil
}
