// Package admission decides when a candidate may enter a live exam: it tracks
// the next scheduled exam, gates registration on the admission window and
// fires the start-exam hand-off exactly once at the start instant.
package admission

import (
	"errors"
	"strings"
	"time"

	"github.com/arnexam/exam-admission/internal/model"
	"github.com/arnexam/exam-admission/internal/schedule"
	"github.com/arnexam/exam-admission/internal/validator"
)

// DefaultWindowMinutes is how long before the start registration opens.
const DefaultWindowMinutes = 15

var (
	// ErrAlreadyRegistered rejects a second validation in the same session.
	ErrAlreadyRegistered = errors.New("registration already confirmed")

	// ErrExamEnded is returned when the exam went away while validating.
	ErrExamEnded = errors.New("exam has ended")
)

// Action tells the caller what side effect a transition requires.
type Action int

const (
	ActionNone Action = iota
	// ActionAdmit asks the caller to call start-exam for the registered number.
	ActionAdmit
)

// backendError is implemented by API errors that carry the backend's text.
type backendError interface {
	BackendMessage() string
	BackendCode() string
}

// codeRegistrationUsed is the backend code for an already consumed number.
const codeRegistrationUsed = "REGISTRATION_USED"

// Session is the admission state machine. It is not safe for concurrent use;
// the Controller serializes every call on its event loop.
type Session struct {
	window     int
	st         State
	validating bool
	admitting  bool
	admitted   bool
	// rolledBack allows re-validation after a failed start-exam call even
	// though the admission window has passed.
	rolledBack bool
	expired    map[string]bool
}

// NewSession creates a Session. windowMinutes <= 0 uses DefaultWindowMinutes.
func NewSession(windowMinutes int) *Session {
	if windowMinutes <= 0 {
		windowMinutes = DefaultWindowMinutes
	}
	s := &Session{
		window:  windowMinutes,
		expired: make(map[string]bool),
	}
	s.refreshStatus()
	return s
}

// State returns a copy of the current state.
func (s *Session) State() State {
	return s.st.clone()
}

// Admitted reports whether the hand-off completed.
func (s *Session) Admitted() bool {
	return s.admitted
}

// ApplySchedule replaces the selected exam from a freshly fetched list.
// While a registration is pending or confirmed the current exam stays
// selected as long as it is still listed and not over. The returned Action
// is ActionAdmit when re-evaluating the pinned exam reached its start.
func (s *Session) ApplySchedule(exams []model.ExamSchedule, now time.Time) (Action, []schedule.Skipped) {
	s.st.FetchFailed = false

	if cur := s.st.SelectedExam; cur != nil && now.After(cur.End) {
		s.endExam(cur.Exam.ID)
	}

	if cur := s.st.SelectedExam; cur != nil && s.pinned() {
		if c, ok := schedule.Find(exams, cur.Exam.ID, now); ok {
			s.st.SelectedExam = c
			return s.evaluate(now), nil
		}
		if s.admitting || s.validating {
			s.refreshStatus()
			return ActionNone, nil
		}
		s.st.RegisteredInfo = nil
	}

	next, skipped := schedule.Select(s.withoutExpired(exams), now)
	switch {
	case next == nil:
		s.st.SelectedExam = nil
	case s.st.SelectedExam == nil || s.st.SelectedExam.Exam.ID != next.Exam.ID:
		s.st.SelectedExam = next
		s.st.Ended = false
		s.st.CountdownText = ""
		s.rolledBack = false
	default:
		s.st.SelectedExam = next
	}
	return s.evaluate(now), skipped
}

// ScheduleFailed records a failed fetch. The selected exam is kept.
func (s *Session) ScheduleFailed(err error) {
	s.st.FetchFailed = true
	s.st.LastError = err
	s.refreshStatus()
}

// Tick recomputes the countdown for now and reports whether admission must
// fire. ActionAdmit is returned at most once per confirmed registration.
func (s *Session) Tick(now time.Time) Action {
	return s.evaluate(now)
}

func (s *Session) evaluate(now time.Time) Action {
	defer s.refreshStatus()

	c := s.st.SelectedExam
	if c == nil {
		s.st.WindowOpen = false
		s.st.CountdownText = ""
		return ActionNone
	}

	if now.After(c.End) {
		s.endExam(c.Exam.ID)
		return ActionNone
	}

	remaining := c.Start.Sub(now)
	s.st.MinutesUntilStart = minutesUntil(remaining)
	s.st.WindowOpen = s.st.MinutesUntilStart >= 0 && s.st.MinutesUntilStart <= s.window

	if s.st.RegisteredInfo != nil {
		s.st.CountdownText = formatCountdown(remaining)
		if remaining <= 0 && !s.admitting {
			s.admitting = true
			return ActionAdmit
		}
	} else {
		s.st.CountdownText = ""
	}

	if !s.admitting && now.Sub(c.Start) > c.Duration {
		s.st.InputResets++
		s.endExam(c.Exam.ID)
	}
	return ActionNone
}

func (s *Session) endExam(id string) {
	s.expired[id] = true
	s.rolledBack = false
	s.st.SelectedExam = nil
	s.st.Ended = true
	s.st.WindowOpen = false
	s.st.MinutesUntilStart = 0
	s.st.CountdownText = ""
	if !s.admitting {
		s.st.RegisteredInfo = nil
	}
}

// BeginValidation checks that number may be sent to the backend now and
// marks a validation as in flight. It returns the normalized number.
func (s *Session) BeginValidation(number string, now time.Time) (string, error) {
	switch {
	case s.admitting || s.admitted:
		return "", ErrAlreadyAdmitted
	case s.validating:
		return "", ErrValidationInFlight
	case s.st.RegisteredInfo != nil:
		return "", ErrAlreadyRegistered
	}

	number = strings.TrimSpace(number)
	if fields := validator.Check(model.RegistrationRequest{RegistrationNumber: number}); fields != nil {
		err := &InvalidRegistrationError{Message: fields["registrationNumber"]}
		s.st.LastError = err
		return "", err
	}

	s.evaluate(now)
	if s.st.SelectedExam == nil {
		err := ErrExamEnded
		if !s.st.Ended {
			err = ErrRegistrationNotOpen
		}
		s.st.LastError = err
		return "", err
	}
	if !s.st.WindowOpen && !s.rolledBack {
		s.st.LastError = ErrRegistrationNotOpen
		return "", ErrRegistrationNotOpen
	}

	s.validating = true
	return number, nil
}

// CompleteValidation applies the backend's answer to a validation started
// with BeginValidation. On success it may immediately return ActionAdmit
// when the start instant already passed.
func (s *Session) CompleteValidation(rec *model.RegistrationRecord, err error, now time.Time) (Action, error) {
	s.validating = false

	if err != nil {
		err = classifyValidation(err)
		s.st.LastError = err
		s.refreshStatus()
		return ActionNone, err
	}
	if rec == nil {
		err = &InvalidRegistrationError{}
		s.st.LastError = err
		return ActionNone, err
	}
	if rec.Used {
		s.st.LastError = ErrAlreadyUsed
		return ActionNone, ErrAlreadyUsed
	}
	if s.st.SelectedExam == nil {
		s.st.LastError = ErrExamEnded
		return ActionNone, ErrExamEnded
	}

	r := *rec
	s.st.RegisteredInfo = &r
	s.st.LastError = nil
	return s.evaluate(now), nil
}

// CompleteAdmission applies the result of the start-exam call. A failure
// rolls the registration back so the candidate can validate again.
func (s *Session) CompleteAdmission(number string, err error) error {
	if err != nil {
		s.admitting = false
		s.rolledBack = s.st.SelectedExam != nil
		s.st.RegisteredInfo = nil
		s.st.CountdownText = ""
		aerr := &AdmissionError{RegistrationNumber: number, Err: err}
		s.st.LastError = aerr
		s.refreshStatus()
		return aerr
	}
	s.admitted = true
	s.rolledBack = false
	s.st.LastError = nil
	s.refreshStatus()
	return nil
}

func (s *Session) pinned() bool {
	return s.validating || s.admitting || s.st.RegisteredInfo != nil
}

func (s *Session) withoutExpired(exams []model.ExamSchedule) []model.ExamSchedule {
	if len(s.expired) == 0 {
		return exams
	}
	out := make([]model.ExamSchedule, 0, len(exams))
	for _, e := range exams {
		if !s.expired[e.ID] {
			out = append(out, e)
		}
	}
	return out
}

func (s *Session) refreshStatus() {
	st := Status{FetchFailed: s.st.FetchFailed}
	switch {
	case s.admitted:
		st.Kind = StatusAdmitted
	case s.st.SelectedExam == nil && s.st.Ended:
		st.Kind = StatusEnded
	case s.admitting:
		st.Kind = StatusAdmitting
	case s.st.SelectedExam == nil:
		st.Kind = StatusLoading
	case s.st.RegisteredInfo != nil:
		st.Kind = StatusConfirmed
		st.Countdown = s.st.CountdownText
	case s.st.MinutesUntilStart < 0:
		st.Kind = StatusStarted
	case s.st.MinutesUntilStart <= s.window:
		st.Kind = StatusOpen
		st.Minutes = s.st.MinutesUntilStart
	default:
		st.Kind = StatusUpcoming
		st.Minutes = s.st.MinutesUntilStart
	}
	s.st.Status = st
}

func classifyValidation(err error) error {
	var be backendError
	if errors.As(err, &be) {
		if be.BackendCode() == codeRegistrationUsed {
			return ErrAlreadyUsed
		}
		return &InvalidRegistrationError{Message: be.BackendMessage(), Err: err}
	}
	return &InvalidRegistrationError{Err: err}
}
