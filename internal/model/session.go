package model

import "time"

// WorkSession is a timed interval during which a user was actively
// working a task. A nil EndTime marks the session as still open; at
// most one session per user may be open at a time.
type WorkSession struct {
	ID        string     `json:"id" db:"id"`
	TaskID    string     `json:"task_id" db:"task_id"`
	UserID    string     `json:"user_id" db:"user_id"`
	StartTime time.Time  `json:"start_time" db:"start_time"`
	EndTime   *time.Time `json:"end_time" db:"end_time"`
}

// Open reports whether the session has not been closed yet.
func (s WorkSession) Open() bool {
	return s.EndTime == nil
}

// Hours returns the session's duration in fractional hours. An open
// session is measured up to now, so the value keeps growing between
// calls until the session is closed.
func (s WorkSession) Hours(now time.Time) float64 {
	end := now
	if s.EndTime != nil {
		end = *s.EndTime
	}
	return end.Sub(s.StartTime).Hours()
}
