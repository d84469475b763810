package domain

import "time"

// User owns an ordered log of exercise entries.
type User struct {
	ID        string
	Username  string
	Log       []LogEntry
	LogCount  int
	CreatedAt time.Time
}

// LogEntry is a single recorded exercise. It has no identity outside its user.
type LogEntry struct {
	Description string
	Duration    int
	Date        time.Time
}

// Append adds the entry to the log and recomputes LogCount from the log length.
func (u *User) Append(entry LogEntry) {
	u.Log = append(u.Log, entry)
	u.LogCount = len(u.Log)
}

// Clone returns a deep copy so callers can't alias stored log slices.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	if u.Log != nil {
		out.Log = make([]LogEntry, len(u.Log))
		copy(out.Log, u.Log)
	}
	return &out
}
