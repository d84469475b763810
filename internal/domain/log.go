package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format accepted on input.
const DateLayout = "2006-01-02"

// LogFilter narrows a log query. Zero values mean "no bound" / "no limit".
type LogFilter struct {
	From  *time.Time
	To    *time.Time
	Limit int
}

// LogView is a filtered, limited read of a user's log.
type LogView struct {
	UserID   string
	Username string
	Count    int
	Log      []LogEntry
}

// Apply filters entries by inclusive calendar-day bounds, then truncates to Limit
// entries taken from the start of the filtered sequence.
func (f LogFilter) Apply(entries []LogEntry) []LogEntry {
	out := make([]LogEntry, 0, len(entries))
	for _, entry := range entries {
		day := Day(entry.Date)
		if f.From != nil && day.Before(Day(*f.From)) {
			continue
		}
		if f.To != nil && day.After(Day(*f.To)) {
			continue
		}
		out = append(out, entry)
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate accepts YYYY-MM-DD or RFC3339 text.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// ParseDuration parses a positive integer number of minutes.
func ParseDuration(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: duration must be an integer", ErrValidation)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: duration must be positive", ErrValidation)
	}
	return n, nil
}

// ParseLogFilter builds a LogFilter from raw query values. Empty values are absent.
func ParseLogFilter(from, to, limit string) (LogFilter, error) {
	var f LogFilter
	if strings.TrimSpace(from) != "" {
		t, ok := ParseDate(from)
		if !ok {
			return LogFilter{}, fmt.Errorf("%w: invalid from date %q", ErrValidation, from)
		}
		f.From = &t
	}
	if strings.TrimSpace(to) != "" {
		t, ok := ParseDate(to)
		if !ok {
			return LogFilter{}, fmt.Errorf("%w: invalid to date %q", ErrValidation, to)
		}
		f.To = &t
	}
	if strings.TrimSpace(limit) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(limit))
		if err != nil || n <= 0 {
			return LogFilter{}, fmt.Errorf("%w: limit must be a positive integer", ErrValidation)
		}
		f.Limit = n
	}
	return f, nil
}
