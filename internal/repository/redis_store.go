package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arnexam/exam-admission/internal/config"
	"github.com/arnexam/exam-admission/internal/model"
)

const recordField = "record"

// RedisStore keeps the schedule as one JSON string and each registration as
// a hash; the used_at field doubles as the at-most-once start marker.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a RedisStore on rdb.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) ListExams(ctx context.Context) ([]model.ExamSchedule, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.ExamListKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return []model.ExamSchedule{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get exam list: %w", err)
	}

	var exams []model.ExamSchedule
	if err := json.Unmarshal(raw, &exams); err != nil {
		return nil, fmt.Errorf("decode exam list: %w", err)
	}
	return exams, nil
}

func (s *RedisStore) GetRegistration(ctx context.Context, number string) (*model.RegistrationRecord, error) {
	fields, err := s.rdb.HGetAll(ctx, config.CacheKey.RegistrationKey(number)).Result()
	if err != nil {
		return nil, fmt.Errorf("get registration: %w", err)
	}
	raw, ok := fields[recordField]
	if !ok {
		return nil, ErrNotFound
	}

	var rec model.RegistrationRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode registration: %w", err)
	}
	_, rec.Used = fields[config.CacheKey.RegistrationUsedField()]
	return &rec, nil
}

func (s *RedisStore) MarkUsed(ctx context.Context, number string, at time.Time) error {
	key := config.CacheKey.RegistrationKey(number)

	exists, err := s.rdb.HExists(ctx, key, recordField).Result()
	if err != nil {
		return fmt.Errorf("check registration: %w", err)
	}
	if !exists {
		return ErrNotFound
	}

	// HSETNX is atomic: only the first start for a number sets the field.
	set, err := s.rdb.HSetNX(ctx, key, config.CacheKey.RegistrationUsedField(), at.Unix()).Result()
	if err != nil {
		return fmt.Errorf("mark registration used: %w", err)
	}
	if !set {
		return ErrAlreadyUsed
	}
	return nil
}

func (s *RedisStore) Seed(ctx context.Context, exams []model.ExamSchedule, regs []model.RegistrationRecord) error {
	examJSON, err := json.Marshal(exams)
	if err != nil {
		return fmt.Errorf("encode exam list: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, config.CacheKey.ExamListKey(), examJSON, 0)
	for _, r := range regs {
		used := r.Used
		r.Used = false
		recJSON, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode registration %s: %w", r.RegistrationNumber, err)
		}
		key := config.CacheKey.RegistrationKey(r.RegistrationNumber)
		pipe.HSet(ctx, key, recordField, recJSON)
		if used {
			pipe.HSetNX(ctx, key, config.CacheKey.RegistrationUsedField(), 0)
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("seed redis: %w", err)
	}
	return nil
}
