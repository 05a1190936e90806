package repository

import (
	"context"
	"errors"
	"time"

	"github.com/arnexam/exam-admission/internal/model"
)

var (
	// ErrNotFound means no registration exists for the number.
	ErrNotFound = errors.New("registration not found")
	// ErrAlreadyUsed means the registration has already started its exam.
	ErrAlreadyUsed = errors.New("registration already used")
)

// Store holds the exam schedule and candidate registrations.
type Store interface {
	ListExams(ctx context.Context) ([]model.ExamSchedule, error)
	GetRegistration(ctx context.Context, number string) (*model.RegistrationRecord, error)
	// MarkUsed consumes a registration. Exactly one call per number succeeds;
	// later calls return ErrAlreadyUsed.
	MarkUsed(ctx context.Context, number string, at time.Time) error
	// Seed replaces the schedule and upserts the given registrations.
	Seed(ctx context.Context, exams []model.ExamSchedule, regs []model.RegistrationRecord) error
}
