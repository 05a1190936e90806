package model

// DefaultDurationMinutes applies when a schedule record carries no duration.
// Commands override it from DEFAULT_EXAM_DURATION_MINUTES at startup.
var DefaultDurationMinutes = 60

// ExamSchedule is one record of GET /api/exams/json. Date and times are
// civil strings in +05:30; see clock.ParseWindow.
type ExamSchedule struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"examName,omitempty" yaml:"examName"`
	Date      string `json:"date" yaml:"date"`
	StartTime string `json:"startTime" yaml:"startTime"`
	EndTime   string `json:"endTime" yaml:"endTime"`
	Duration  int    `json:"duration,omitempty" yaml:"duration"`
}

// HasWindow reports whether the record carries every field needed to place
// it on the calendar.
func (e ExamSchedule) HasWindow() bool {
	return e.Date != "" && e.StartTime != "" && e.EndTime != ""
}

// DurationMinutes returns Duration, or DefaultDurationMinutes when unset.
func (e ExamSchedule) DurationMinutes() int {
	if e.Duration <= 0 {
		return DefaultDurationMinutes
	}
	return e.Duration
}

// ExamListResponse is the envelope of the exam list endpoint.
type ExamListResponse struct {
	Success bool           `json:"success"`
	Data    []ExamSchedule `json:"data"`
	Error   string         `json:"error,omitempty"`
}
