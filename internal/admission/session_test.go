package admission

import (
	"errors"
	"testing"
	"time"

	"github.com/arnexam/exam-admission/internal/clock"
	"github.com/arnexam/exam-admission/internal/model"
)

// exam at 10:00-11:00 IST on 2025-06-01 with the default 60 minute duration.
var tenOClock = model.ExamSchedule{
	ID:        "exam-10",
	Name:      "Group IV Mock",
	Date:      "2025-06-01",
	StartTime: "10:00 AM",
	EndTime:   "11:00 AM",
}

func at(hh, mm, ss int) time.Time {
	return time.Date(2025, time.June, 1, hh, mm, ss, 0, clock.IST)
}

func record(number string) *model.RegistrationRecord {
	return &model.RegistrationRecord{
		RegistrationNumber: number,
		CandidateName:      "Asha",
		ExamName:           "Group IV Mock",
	}
}

func newSessionWith(t *testing.T, now time.Time, exams ...model.ExamSchedule) *Session {
	t.Helper()
	s := NewSession(0)
	s.ApplySchedule(exams, now)
	return s
}

type apiErr struct{ msg, code string }

func (e apiErr) Error() string          { return "status 400: " + e.msg }
func (e apiErr) BackendMessage() string { return e.msg }
func (e apiErr) BackendCode() string    { return e.code }

func TestWindowBoundaries(t *testing.T) {
	cases := []struct {
		name    string
		now     time.Time
		minutes int
		open    bool
		kind    StatusKind
	}{
		{"16 minutes before", at(9, 44, 0), 16, false, StatusUpcoming},
		{"15 minutes before", at(9, 45, 0), 15, true, StatusOpen},
		{"15m30s before floors to 15", at(9, 44, 30), 15, true, StatusOpen},
		{"at start", at(10, 0, 0), 0, true, StatusOpen},
		{"one second after start", at(10, 0, 1), -1, false, StatusStarted},
		{"one minute after start", at(10, 1, 0), -1, false, StatusStarted},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newSessionWith(t, tc.now, tenOClock)
			st := s.State()
			if st.MinutesUntilStart != tc.minutes {
				t.Errorf("minutes: got %d, want %d", st.MinutesUntilStart, tc.minutes)
			}
			if st.WindowOpen != tc.open {
				t.Errorf("window: got %v, want %v", st.WindowOpen, tc.open)
			}
			if st.Status.Kind != tc.kind {
				t.Errorf("status: got %s, want %s", st.Status.Kind, tc.kind)
			}
		})
	}
}

func TestStatusMessages(t *testing.T) {
	s := NewSession(0)
	if got := s.State().Status.Message(); got != "loading exam schedule..." {
		t.Fatalf("unexpected loading message %q", got)
	}

	s.ScheduleFailed(errors.New("boom"))
	if got := s.State().Status.Message(); got != "failed to load exam data" {
		t.Fatalf("unexpected failure message %q", got)
	}

	s.ApplySchedule([]model.ExamSchedule{tenOClock}, at(9, 0, 0))
	if got := s.State().Status.Message(); got != "exam starts in 60 minutes" {
		t.Fatalf("unexpected upcoming message %q", got)
	}

	s.Tick(at(9, 50, 0))
	if got := s.State().Status.Message(); got != "registration open, exam starts in 10 minutes" {
		t.Fatalf("unexpected open message %q", got)
	}
}

func TestValidationRejectedWhileWindowClosed(t *testing.T) {
	s := newSessionWith(t, at(9, 40, 0), tenOClock)

	_, err := s.BeginValidation("REG-001", at(9, 40, 0))
	if !errors.Is(err, ErrRegistrationNotOpen) {
		t.Fatalf("expected ErrRegistrationNotOpen, got %v", err)
	}
	if s.validating {
		t.Fatal("closed window must not start a validation")
	}
	if got := ErrRegistrationNotOpen.Error(); got != "registration not open yet" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestValidationRejectsMalformedNumber(t *testing.T) {
	s := newSessionWith(t, at(9, 50, 0), tenOClock)

	_, err := s.BeginValidation("   ", at(9, 50, 0))
	var ire *InvalidRegistrationError
	if !errors.As(err, &ire) {
		t.Fatalf("expected InvalidRegistrationError, got %v", err)
	}
	if s.validating {
		t.Fatal("malformed number must not start a validation")
	}
}

func TestValidationSingleFlight(t *testing.T) {
	s := newSessionWith(t, at(9, 50, 0), tenOClock)

	number, err := s.BeginValidation("  REG-001 ", at(9, 50, 0))
	if err != nil {
		t.Fatalf("BeginValidation: %v", err)
	}
	if number != "REG-001" {
		t.Fatalf("expected trimmed number, got %q", number)
	}
	if _, err := s.BeginValidation("REG-002", at(9, 50, 1)); !errors.Is(err, ErrValidationInFlight) {
		t.Fatalf("expected ErrValidationInFlight, got %v", err)
	}
}

func TestValidationErrors(t *testing.T) {
	cases := []struct {
		name    string
		rec     *model.RegistrationRecord
		err     error
		check   func(error) bool
		message string
	}{
		{
			name:    "backend message shown verbatim",
			err:     apiErr{msg: "Registration number not found"},
			check:   func(err error) bool { var e *InvalidRegistrationError; return errors.As(err, &e) },
			message: "Registration number not found",
		},
		{
			name:    "transport failure is generic",
			err:     errors.New("dial tcp: connection refused"),
			check:   func(err error) bool { var e *InvalidRegistrationError; return errors.As(err, &e) },
			message: "invalid registration number",
		},
		{
			name:    "used flag",
			rec:     &model.RegistrationRecord{RegistrationNumber: "REG-001", Used: true},
			check:   func(err error) bool { return errors.Is(err, ErrAlreadyUsed) },
			message: "registration number already used",
		},
		{
			name:    "used code",
			err:     apiErr{msg: "already used", code: "REGISTRATION_USED"},
			check:   func(err error) bool { return errors.Is(err, ErrAlreadyUsed) },
			message: "registration number already used",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newSessionWith(t, at(9, 50, 0), tenOClock)
			if _, err := s.BeginValidation("REG-001", at(9, 50, 0)); err != nil {
				t.Fatalf("BeginValidation: %v", err)
			}
			act, err := s.CompleteValidation(tc.rec, tc.err, at(9, 50, 1))
			if act != ActionNone {
				t.Fatal("failed validation must not admit")
			}
			if !tc.check(err) {
				t.Fatalf("unexpected error %T %v", err, err)
			}
			if err.Error() != tc.message {
				t.Fatalf("message: got %q, want %q", err.Error(), tc.message)
			}
			if s.State().RegisteredInfo != nil {
				t.Fatal("registration must stay unset")
			}
			// The candidate may retry immediately.
			if _, err := s.BeginValidation("REG-001", at(9, 50, 2)); err != nil {
				t.Fatalf("retry: %v", err)
			}
		})
	}
}

func TestAdmissionFiresExactlyOnce(t *testing.T) {
	s := newSessionWith(t, at(9, 50, 0), tenOClock)
	if _, err := s.BeginValidation("REG-001", at(9, 50, 0)); err != nil {
		t.Fatal(err)
	}
	if act, err := s.CompleteValidation(record("REG-001"), nil, at(9, 50, 1)); err != nil || act != ActionNone {
		t.Fatalf("unexpected %v %v", act, err)
	}

	st := s.State()
	if st.Status.Kind != StatusConfirmed || st.CountdownText != "09:59" {
		t.Fatalf("unexpected state %s %q", st.Status.Kind, st.CountdownText)
	}
	if got := st.Status.Message(); got != "registration confirmed, exam starts in 09:59" {
		t.Fatalf("unexpected message %q", got)
	}

	if act := s.Tick(at(9, 59, 59)); act != ActionNone {
		t.Fatal("must not admit before the start instant")
	}
	if got := s.State().CountdownText; got != "00:01" {
		t.Fatalf("expected 00:01, got %q", got)
	}

	fired := 0
	for _, now := range []time.Time{at(10, 0, 0), at(10, 0, 0), at(10, 0, 1), at(10, 0, 2)} {
		if s.Tick(now) == ActionAdmit {
			fired++
		}
	}
	if fired != 1 {
		t.Fatalf("expected admission to fire once, fired %d times", fired)
	}
	if s.State().Status.Kind != StatusAdmitting {
		t.Fatalf("expected ADMITTING, got %s", s.State().Status.Kind)
	}

	if err := s.CompleteAdmission("REG-001", nil); err != nil {
		t.Fatal(err)
	}
	if !s.Admitted() || s.State().Status.Kind != StatusAdmitted {
		t.Fatal("expected admitted state")
	}
	if s.Tick(at(10, 0, 3)) != ActionNone {
		t.Fatal("admission must not fire after success")
	}
	if _, err := s.BeginValidation("REG-001", at(10, 0, 3)); !errors.Is(err, ErrAlreadyAdmitted) {
		t.Fatalf("expected ErrAlreadyAdmitted, got %v", err)
	}
}

func TestValidationAtStartAdmitsImmediately(t *testing.T) {
	s := newSessionWith(t, at(9, 59, 50), tenOClock)
	if _, err := s.BeginValidation("REG-001", at(9, 59, 50)); err != nil {
		t.Fatal(err)
	}
	act, err := s.CompleteValidation(record("REG-001"), nil, at(10, 0, 0))
	if err != nil {
		t.Fatal(err)
	}
	if act != ActionAdmit {
		t.Fatal("expected immediate admission")
	}
	if s.Tick(at(10, 0, 1)) != ActionNone {
		t.Fatal("admission must not fire twice")
	}
}

func TestAdmissionFailureRollsBack(t *testing.T) {
	s := newSessionWith(t, at(9, 59, 0), tenOClock)
	if _, err := s.BeginValidation("REG-001", at(9, 59, 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CompleteValidation(record("REG-001"), nil, at(9, 59, 1)); err != nil {
		t.Fatal(err)
	}
	if s.Tick(at(10, 0, 0)) != ActionAdmit {
		t.Fatal("expected admission")
	}

	cause := errors.New("status 500")
	err := s.CompleteAdmission("REG-001", cause)
	var ae *AdmissionError
	if !errors.As(err, &ae) || !errors.Is(err, cause) {
		t.Fatalf("expected AdmissionError wrapping cause, got %v", err)
	}
	st := s.State()
	if st.RegisteredInfo != nil {
		t.Fatal("registration must be cleared after a failed start")
	}
	if st.Status.Kind != StatusOpen {
		t.Fatalf("expected REGISTRATION_OPEN at the start instant, got %s", st.Status.Kind)
	}

	// Re-validating after the start instant arms the trigger again.
	if _, err := s.BeginValidation("REG-001", at(10, 0, 2)); err != nil {
		t.Fatalf("retry after a failed start: %v", err)
	}
	act, err := s.CompleteValidation(record("REG-001"), nil, at(10, 0, 3))
	if err != nil || act != ActionAdmit {
		t.Fatalf("expected a second admission attempt, got %v %v", act, err)
	}
}

func TestRetryAfterRollbackEndsWithExam(t *testing.T) {
	s := newSessionWith(t, at(9, 59, 0), tenOClock)
	if _, err := s.BeginValidation("REG-001", at(9, 59, 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CompleteValidation(record("REG-001"), nil, at(9, 59, 0)); err != nil {
		t.Fatal(err)
	}
	if s.Tick(at(10, 0, 0)) != ActionAdmit {
		t.Fatal("expected admission")
	}
	_ = s.CompleteAdmission("REG-001", errors.New("status 502"))

	// No retry without a prior failed start in a fresh session.
	fresh := newSessionWith(t, at(10, 0, 2), tenOClock)
	if _, err := fresh.BeginValidation("REG-001", at(10, 0, 2)); !errors.Is(err, ErrRegistrationNotOpen) {
		t.Fatalf("expected ErrRegistrationNotOpen after start, got %v", err)
	}

	// Past the end the retry is gone.
	s.Tick(at(11, 0, 1))
	if _, err := s.BeginValidation("REG-001", at(11, 0, 2)); !errors.Is(err, ErrExamEnded) {
		t.Fatalf("expected ErrExamEnded, got %v", err)
	}
}

func TestExamEndSeenFirstByPoll(t *testing.T) {
	for _, registered := range []bool{false, true} {
		s := newSessionWith(t, at(10, 59, 59), tenOClock)
		if registered {
			s = newSessionWith(t, at(9, 50, 0), tenOClock)
			if _, err := s.BeginValidation("REG-001", at(9, 50, 0)); err != nil {
				t.Fatal(err)
			}
			if _, err := s.CompleteValidation(record("REG-001"), nil, at(9, 50, 0)); err != nil {
				t.Fatal(err)
			}
		}

		// The poll lands before the next tick.
		if act, _ := s.ApplySchedule([]model.ExamSchedule{tenOClock}, at(11, 0, 1)); act != ActionNone {
			t.Fatalf("registered=%v: must not admit after the end", registered)
		}
		s.Tick(at(11, 0, 2))

		st := s.State()
		if st.SelectedExam != nil || !st.Ended || st.RegisteredInfo != nil {
			t.Fatalf("registered=%v: expected ended with no selection or registration", registered)
		}
		if st.Status.Message() != "exam has ended" {
			t.Fatalf("registered=%v: unexpected message %q", registered, st.Status.Message())
		}

		s.ApplySchedule([]model.ExamSchedule{tenOClock}, at(11, 0, 6))
		if s.State().Status.Kind != StatusEnded {
			t.Fatalf("registered=%v: ended exam came back as %s", registered, s.State().Status.Kind)
		}
	}
}

func TestExamEndWhileAdmittingReportsEnded(t *testing.T) {
	s := newSessionWith(t, at(9, 59, 0), tenOClock)
	if _, err := s.BeginValidation("REG-001", at(9, 59, 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CompleteValidation(record("REG-001"), nil, at(9, 59, 0)); err != nil {
		t.Fatal(err)
	}
	if s.Tick(at(10, 0, 0)) != ActionAdmit {
		t.Fatal("expected admission")
	}

	s.Tick(at(11, 0, 1))
	if got := s.State().Status.Message(); got != "exam has ended" {
		t.Fatalf("expected ended while the start call is in flight, got %q", got)
	}
}

func TestExamEndClearsSelection(t *testing.T) {
	for _, registered := range []bool{false, true} {
		s := newSessionWith(t, at(9, 50, 0), tenOClock)
		if registered {
			if _, err := s.BeginValidation("REG-001", at(9, 50, 0)); err != nil {
				t.Fatal(err)
			}
			if _, err := s.CompleteValidation(record("REG-001"), nil, at(9, 50, 0)); err != nil {
				t.Fatal(err)
			}
		}

		// Jump straight past the end, as after a suspended device.
		if s.Tick(at(11, 0, 1)) != ActionNone {
			t.Fatal("must not admit after the exam ended")
		}
		st := s.State()
		if st.SelectedExam != nil || !st.Ended {
			t.Fatalf("registered=%v: expected selection cleared and ended", registered)
		}
		if st.RegisteredInfo != nil {
			t.Fatalf("registered=%v: registration must be cleared", registered)
		}
		if st.Status.Message() != "exam has ended" {
			t.Fatalf("registered=%v: unexpected message %q", registered, st.Status.Message())
		}
	}
}

func TestSafetyValveResetsStaleSession(t *testing.T) {
	long := model.ExamSchedule{
		ID: "long", Date: "2025-06-01", StartTime: "10:00", EndTime: "13:00", Duration: 30,
	}
	s := newSessionWith(t, at(10, 20, 0), long)
	if s.State().Status.Kind != StatusStarted {
		t.Fatalf("expected STARTED, got %s", s.State().Status.Kind)
	}

	s.Tick(at(10, 30, 1))
	st := s.State()
	if st.InputResets != 1 || st.Status.Kind != StatusEnded {
		t.Fatalf("expected reset and ENDED, got resets=%d status=%s", st.InputResets, st.Status.Kind)
	}

	// The next poll must not bring the expired exam back.
	s.ApplySchedule([]model.ExamSchedule{long}, at(10, 30, 5))
	if s.State().SelectedExam != nil || s.State().InputResets != 1 {
		t.Fatal("expired exam was re-selected")
	}
}

func TestSafetyValveSuppressedWhileAdmitting(t *testing.T) {
	short := model.ExamSchedule{
		ID: "short", Date: "2025-06-01", StartTime: "10:00", EndTime: "12:00", Duration: 1,
	}
	s := newSessionWith(t, at(9, 59, 0), short)
	if _, err := s.BeginValidation("REG-001", at(9, 59, 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CompleteValidation(record("REG-001"), nil, at(9, 59, 0)); err != nil {
		t.Fatal(err)
	}
	if s.Tick(at(10, 0, 0)) != ActionAdmit {
		t.Fatal("expected admission")
	}

	// The start request is still in flight two minutes later.
	s.Tick(at(10, 2, 0))
	st := s.State()
	if st.InputResets != 0 || st.RegisteredInfo == nil || st.Status.Kind != StatusAdmitting {
		t.Fatalf("safety valve fired during admission: %+v", st.Status)
	}
	if err := s.CompleteAdmission("REG-001", nil); err != nil {
		t.Fatal(err)
	}
}

func TestApplySchedulePinsRegisteredExam(t *testing.T) {
	s := newSessionWith(t, at(9, 50, 0), tenOClock)
	if _, err := s.BeginValidation("REG-001", at(9, 50, 0)); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CompleteValidation(record("REG-001"), nil, at(9, 50, 0)); err != nil {
		t.Fatal(err)
	}

	earlier := model.ExamSchedule{ID: "earlier", Date: "2025-06-01", StartTime: "09:55", EndTime: "10:30"}
	s.ApplySchedule([]model.ExamSchedule{earlier, tenOClock}, at(9, 51, 0))
	if id := s.State().SelectedExam.Exam.ID; id != tenOClock.ID {
		t.Fatalf("expected registered exam to stay selected, got %s", id)
	}

	// Unregistered sessions follow the more imminent exam.
	u := newSessionWith(t, at(9, 50, 0), tenOClock)
	u.ApplySchedule([]model.ExamSchedule{earlier, tenOClock}, at(9, 51, 0))
	if id := u.State().SelectedExam.Exam.ID; id != "earlier" {
		t.Fatalf("expected earlier exam, got %s", id)
	}
}

func TestScheduleFailureKeepsSelection(t *testing.T) {
	s := newSessionWith(t, at(9, 50, 0), tenOClock)
	s.ScheduleFailed(errors.New("timeout"))
	st := s.State()
	if st.SelectedExam == nil || st.SelectedExam.Exam.ID != tenOClock.ID {
		t.Fatal("failed fetch must keep the selected exam")
	}
	if !st.FetchFailed || st.Status.Kind != StatusOpen {
		t.Fatalf("unexpected state fetchFailed=%v status=%s", st.FetchFailed, st.Status.Kind)
	}
}

func TestStateIsACopy(t *testing.T) {
	s := newSessionWith(t, at(9, 50, 0), tenOClock)
	st := s.State()
	st.SelectedExam.Exam.ID = "mutated"
	if s.State().SelectedExam.Exam.ID != tenOClock.ID {
		t.Fatal("State must not alias session internals")
	}
}
