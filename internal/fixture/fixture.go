// Package fixture loads exam schedules and registrations used to seed the
// local exam API.
package fixture

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arnexam/exam-admission/internal/clock"
	"github.com/arnexam/exam-admission/internal/model"
)

// File is the on-disk fixture layout.
type File struct {
	Exams         []model.ExamSchedule       `yaml:"exams"`
	Registrations []model.RegistrationRecord `yaml:"registrations"`
}

// Load reads a fixture from path.
func Load(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return Decode(bytes.NewReader(raw))
}

// Decode parses a fixture. Unknown keys are rejected so typos in field names
// do not silently produce exams without times.
func Decode(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	for i, e := range f.Exams {
		if e.ID == "" {
			return nil, fmt.Errorf("exam #%d has no id", i+1)
		}
	}
	for i, r := range f.Registrations {
		if r.RegistrationNumber == "" {
			return nil, fmt.Errorf("registration #%d has no registrationNumber", i+1)
		}
	}
	return &f, nil
}

// Today rewrites every exam dated "today" or "tomorrow" to the matching IST
// date, so a checked-in fixture always has a live exam.
func (f *File) Today(now time.Time) {
	now = now.In(clock.IST)
	for i := range f.Exams {
		switch f.Exams[i].Date {
		case "today":
			f.Exams[i].Date = now.Format(time.DateOnly)
		case "tomorrow":
			f.Exams[i].Date = now.AddDate(0, 0, 1).Format(time.DateOnly)
		}
	}
	for i := range f.Registrations {
		switch f.Registrations[i].ExamDate {
		case "today":
			f.Registrations[i].ExamDate = now.Format(time.DateOnly)
		case "tomorrow":
			f.Registrations[i].ExamDate = now.AddDate(0, 0, 1).Format(time.DateOnly)
		}
	}
}
