// Package console renders admission state for the terminal client.
package console

import (
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/arnexam/exam-admission/internal/admission"
	"github.com/arnexam/exam-admission/internal/model"
	"github.com/arnexam/exam-admission/internal/schedule"
)

// Renderer prints status changes. On an interactive terminal it redraws a
// single line in place; otherwise it prints one line per change.
type Renderer struct {
	mu          sync.Mutex
	out         io.Writer
	interactive bool
	last        string
	lastResets  int
}

// NewRenderer creates a Renderer writing to out.
func NewRenderer(out io.Writer, interactive bool) *Renderer {
	return &Renderer{out: out, interactive: interactive}
}

// Render shows st, skipping output when nothing visible changed.
func (r *Renderer) Render(st admission.State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	line := StatusLine(st)
	if st.InputResets != r.lastResets {
		r.lastResets = st.InputResets
		r.printf("%s\n", color.YellowString("registration number cleared"))
	}
	if line == r.last {
		return
	}
	r.last = line

	if r.interactive {
		r.printf("\r\033[K%s", line)
		return
	}
	r.printf("%s\n", line)
}

// Notice prints a message on its own line.
func (r *Renderer) Notice(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.interactive {
		r.printf("\r\033[K")
		r.last = ""
	}
	r.printf("%s\n", msg)
}

func (r *Renderer) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(r.out, format, args...)
}

// StatusLine formats the status with the exam name and a color per kind.
func StatusLine(st admission.State) string {
	msg := st.Status.Message()
	if st.SelectedExam != nil {
		name := st.SelectedExam.Exam.Name
		if name == "" {
			name = st.SelectedExam.Exam.ID
		}
		msg = fmt.Sprintf("[%s] %s", name, msg)
	}

	switch st.Status.Kind {
	case admission.StatusOpen, admission.StatusConfirmed:
		return color.GreenString(msg)
	case admission.StatusAdmitting, admission.StatusAdmitted:
		return color.CyanString(msg)
	case admission.StatusEnded, admission.StatusStarted:
		return color.RedString(msg)
	default:
		if st.Status.FetchFailed {
			return color.YellowString(msg)
		}
		return msg
	}
}

// ErrorLine describes a submit failure for the candidate.
func ErrorLine(err error) string {
	return color.RedString("✗ %s", err.Error())
}

// ScheduleTable writes the exams that are still relevant at now, next first.
func ScheduleTable(w io.Writer, exams []model.ExamSchedule, now time.Time) int {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Exam", "Date", "Start", "End", "Minutes"})

	rows := 0
	remaining := exams
	for {
		next, _ := schedule.Select(remaining, now)
		if next == nil {
			break
		}
		table.Append([]string{
			next.Exam.ID,
			next.Exam.Name,
			next.Start.Format("02 Jan 2006"),
			next.Start.Format(time.Kitchen),
			next.End.Format(time.Kitchen),
			strconv.Itoa(next.Exam.DurationMinutes()),
		})
		rows++
		remaining = without(remaining, next.Exam.ID)
	}

	if rows > 0 {
		table.Render()
	}
	return rows
}

func without(exams []model.ExamSchedule, id string) []model.ExamSchedule {
	out := make([]model.ExamSchedule, 0, len(exams))
	for _, e := range exams {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}
