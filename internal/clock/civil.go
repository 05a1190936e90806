package clock

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrParse is matched by every *ParseError via errors.Is.
var ErrParse = errors.New("civil time parse error")

// ParseError reports a date or time string that cannot be decomposed.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("parse %s %q", e.Field, e.Value)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }

func (e *ParseError) Unwrap() error { return e.Err }

var dateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"01/02/2006",
	"1/2/2006",
}

var timeLayouts12 = []string{
	"3:04 PM",
	"3:04PM",
	"3:04:05 PM",
	"3:04:05PM",
}

var timeLayouts24 = []string{
	"15:04",
	"15:04:05",
}

var errInvertedWindow = errors.New("start is not before end")

// ParseCivil combines a date (YYYY-MM-DD or MM/DD/YYYY) and a time (12-hour
// with AM/PM or 24-hour) into an instant in IST.
func ParseCivil(dateStr, timeStr string) (time.Time, error) {
	d, err := parseDate(dateStr)
	if err != nil {
		return time.Time{}, err
	}
	hh, mm, ss, err := parseClock(timeStr)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), hh, mm, ss, 0, IST), nil
}

// ParseWindow parses the start and end of an exam held on dateStr.
// A window whose start is not strictly before its end is rejected.
func ParseWindow(dateStr, startStr, endStr string) (start, end time.Time, err error) {
	start, err = ParseCivil(dateStr, startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err = ParseCivil(dateStr, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, &ParseError{
			Field: "window",
			Value: startStr + "-" + endStr,
			Err:   errInvertedWindow,
		}
	}
	return start, end, nil
}

// SameDay reports whether a and b fall on the same IST calendar day.
func SameDay(a, b time.Time) bool {
	y1, m1, d1 := a.In(IST).Date()
	y2, m2, d2 := b.In(IST).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, &ParseError{Field: "date", Value: s}
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, IST); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &ParseError{Field: "date", Value: s}
}

func parseClock(s string) (hour, minute, second int, err error) {
	norm := strings.ToUpper(strings.Join(strings.Fields(s), " "))
	if norm == "" {
		return 0, 0, 0, &ParseError{Field: "time", Value: s}
	}

	layouts := timeLayouts24
	if strings.HasSuffix(norm, "AM") || strings.HasSuffix(norm, "PM") {
		layouts = timeLayouts12
	}
	for _, layout := range layouts {
		if t, perr := time.Parse(layout, norm); perr == nil {
			return t.Hour(), t.Minute(), t.Second(), nil
		}
	}
	return 0, 0, 0, &ParseError{Field: "time", Value: s}
}
