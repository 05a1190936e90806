// Package schedule fetches the exam list and picks the next exam a candidate
// can be admitted to.
package schedule

import (
	"context"
	"sort"
	"time"

	"github.com/arnexam/exam-admission/internal/clock"
	"github.com/arnexam/exam-admission/internal/model"
)

// Fetcher retrieves the full exam schedule from the backend.
type Fetcher interface {
	ListExams(ctx context.Context) ([]model.ExamSchedule, error)
}

// FetchError wraps any failure to load the schedule.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return "failed to load exam data: " + e.Err.Error()
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetch loads the schedule, wrapping failures in *FetchError.
func Fetch(ctx context.Context, f Fetcher) ([]model.ExamSchedule, error) {
	exams, err := f.ListExams(ctx)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	return exams, nil
}

// Candidate is a schedule record placed on the IST timeline.
type Candidate struct {
	Exam     model.ExamSchedule
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

// Skipped is a record dropped because its window could not be parsed.
type Skipped struct {
	Exam model.ExamSchedule
	Err  error
}

// Resolve places a single record on the timeline.
func Resolve(e model.ExamSchedule) (Candidate, error) {
	start, end, err := clock.ParseWindow(e.Date, e.StartTime, e.EndTime)
	if err != nil {
		return Candidate{}, err
	}
	return Candidate{
		Exam:     e,
		Start:    start,
		End:      end,
		Duration: time.Duration(e.DurationMinutes()) * time.Minute,
	}, nil
}

// Select returns the next relevant exam: the earliest by start among records
// that are either held today and not yet over, or start in the future.
// Records missing date or times are ignored; records that fail to parse are
// returned in skipped. Returns nil when nothing qualifies.
func Select(exams []model.ExamSchedule, now time.Time) (*Candidate, []Skipped) {
	var (
		upcoming []Candidate
		skipped  []Skipped
	)

	for _, e := range exams {
		if !e.HasWindow() {
			continue
		}
		c, err := Resolve(e)
		if err != nil {
			skipped = append(skipped, Skipped{Exam: e, Err: err})
			continue
		}
		today := clock.SameDay(c.Start, now) && c.End.After(now)
		if today || c.Start.After(now) {
			upcoming = append(upcoming, c)
		}
	}

	if len(upcoming) == 0 {
		return nil, skipped
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		if upcoming[i].Start.Equal(upcoming[j].Start) {
			return upcoming[i].Exam.ID < upcoming[j].Exam.ID
		}
		return upcoming[i].Start.Before(upcoming[j].Start)
	})

	next := upcoming[0]
	return &next, skipped
}

// Find returns the candidate for the exam with the given id, if it is still
// among the relevant records.
func Find(exams []model.ExamSchedule, id string, now time.Time) (*Candidate, bool) {
	for _, e := range exams {
		if e.ID != id || !e.HasWindow() {
			continue
		}
		c, err := Resolve(e)
		if err != nil {
			return nil, false
		}
		if c.End.After(now) {
			return &c, true
		}
		return nil, false
	}
	return nil, false
}
