package admission

import (
	"fmt"
	"time"

	"github.com/arnexam/exam-admission/internal/model"
	"github.com/arnexam/exam-admission/internal/schedule"
)

// StatusKind enumerates what the admission screen is showing.
type StatusKind string

const (
	StatusLoading   StatusKind = "LOADING"
	StatusEnded     StatusKind = "ENDED"
	StatusUpcoming  StatusKind = "UPCOMING"
	StatusOpen      StatusKind = "REGISTRATION_OPEN"
	StatusConfirmed StatusKind = "CONFIRMED"
	StatusStarted   StatusKind = "STARTED"
	StatusAdmitting StatusKind = "ADMITTING"
	StatusAdmitted  StatusKind = "ADMITTED"
)

// Status is the user-facing summary derived from State.
type Status struct {
	Kind        StatusKind
	Minutes     int
	Countdown   string
	FetchFailed bool
}

// Message renders the status line.
func (s Status) Message() string {
	switch s.Kind {
	case StatusLoading:
		if s.FetchFailed {
			return "failed to load exam data"
		}
		return "loading exam schedule..."
	case StatusEnded:
		return "exam has ended"
	case StatusUpcoming:
		return fmt.Sprintf("exam starts in %d minutes", s.Minutes)
	case StatusOpen:
		return fmt.Sprintf("registration open, exam starts in %d minutes", s.Minutes)
	case StatusConfirmed:
		return "registration confirmed, exam starts in " + s.Countdown
	case StatusStarted:
		return "exam has already started"
	case StatusAdmitting:
		return "starting exam..."
	case StatusAdmitted:
		return "exam started"
	default:
		return ""
	}
}

// State is the in-memory admission state of one screen session.
type State struct {
	SelectedExam      *schedule.Candidate
	MinutesUntilStart int
	WindowOpen        bool
	RegisteredInfo    *model.RegistrationRecord
	CountdownText     string
	Ended             bool
	FetchFailed       bool
	// InputResets counts how many times the registration field was cleared
	// by the stale-session reset. Views compare it with the last value seen.
	InputResets int
	LastError   error
	Status      Status
}

// clone returns a copy that shares no pointers with s.
func (s State) clone() State {
	out := s
	if s.SelectedExam != nil {
		c := *s.SelectedExam
		out.SelectedExam = &c
	}
	if s.RegisteredInfo != nil {
		r := *s.RegisteredInfo
		out.RegisteredInfo = &r
	}
	return out
}

// minutesUntil floors d to whole minutes, rounding toward negative infinity.
func minutesUntil(d time.Duration) int {
	m := d / time.Minute
	if d%time.Minute < 0 {
		m--
	}
	return int(m)
}

// formatCountdown renders d as mm:ss, rounding partial seconds up so the
// display reaches 00:00 exactly at the start instant.
func formatCountdown(d time.Duration) string {
	if d <= 0 {
		return "00:00"
	}
	secs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
