package exercise

import (
	"encoding/json"
	"time"
)

func (s Status) Valid() bool {
	switch s {
	case StatusToDo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

func (s Status) rank() int {
	switch s {
	case StatusInProgress:
		return 1
	case StatusDone:
		return 2
	}
	return 0
}

// CanMoveTo reports whether next does not regress s. done -> done is allowed.
func (s Status) CanMoveTo(next Status) bool {
	return next.Valid() && next.rank() >= s.rank()
}

// Start is the to_do -> in_progress transition on first read.
// It reports whether anything changed.
func (a *Assignment) Start(now time.Time) bool {
	if a.Status != StatusToDo && a.Status != "" {
		return false
	}
	a.Status = StatusInProgress
	t := now
	a.StartedAt = &t
	return true
}

// Complete records a scored submission. Every call counts as an attempt and
// overwrites the previous answers and score; the first completion time is
// kept.
func (a *Assignment) Complete(score int, answers json.RawMessage, now time.Time) {
	t := now
	if a.StartedAt == nil {
		a.StartedAt = &t
	}
	if a.FinishedAt == nil {
		a.FinishedAt = &t
	}
	a.Status = StatusDone
	a.Attempts++
	s := score
	a.Score = &s
	a.Answers = answers
}
