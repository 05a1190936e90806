package repository

import (
	"context"
	"sync"
	"time"

	"github.com/arnexam/exam-admission/internal/model"
)

// MemoryStore is a process-local Store for development and tests.
type MemoryStore struct {
	mu    sync.RWMutex
	exams []model.ExamSchedule
	regs  map[string]model.RegistrationRecord
	used  map[string]time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		regs: make(map[string]model.RegistrationRecord),
		used: make(map[string]time.Time),
	}
}

func (s *MemoryStore) ListExams(_ context.Context) ([]model.ExamSchedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.ExamSchedule{}, s.exams...), nil
}

func (s *MemoryStore) GetRegistration(_ context.Context, number string) (*model.RegistrationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.regs[number]
	if !ok {
		return nil, ErrNotFound
	}
	_, rec.Used = s.used[number]
	return &rec, nil
}

func (s *MemoryStore) MarkUsed(_ context.Context, number string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.regs[number]; !ok {
		return ErrNotFound
	}
	if _, ok := s.used[number]; ok {
		return ErrAlreadyUsed
	}
	s.used[number] = at
	return nil
}

func (s *MemoryStore) Seed(_ context.Context, exams []model.ExamSchedule, regs []model.RegistrationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exams = append([]model.ExamSchedule{}, exams...)
	for _, r := range regs {
		s.regs[r.RegistrationNumber] = r
		if r.Used {
			if _, ok := s.used[r.RegistrationNumber]; !ok {
				s.used[r.RegistrationNumber] = time.Time{}
			}
		}
	}
	return nil
}
