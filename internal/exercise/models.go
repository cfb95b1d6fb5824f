package exercise

import (
	"encoding/json"
	"time"

	"github.com/mind-engage/mindengage-exercises/internal/scoring"
)

type Exercise struct {
	ID           string          `json:"id"`
	CompetencyID string          `json:"competencyId"`
	CategoryID   string          `json:"categoryId,omitempty"`
	Type         scoring.Type    `json:"type"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Difficulty   int             `json:"difficulty"` // 1..5
	Content      json.RawMessage `json:"content"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type Status string

const (
	StatusToDo       Status = "to_do"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

type Assignment struct {
	ID         string          `json:"id"`
	ExerciseID string          `json:"exerciseId"`
	LearnerID  string          `json:"learnerId"`
	DueDate    *time.Time      `json:"dueDate,omitempty"`
	Status     Status          `json:"status"`
	Attempts   int             `json:"attempts"`
	Answers    json.RawMessage `json:"answers,omitempty"` // last submission
	Score      *int            `json:"score,omitempty"`   // last score, 0..100
	StartedAt  *time.Time      `json:"startedAt,omitempty"`
	FinishedAt *time.Time      `json:"finishedAt,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// AssignmentView is what a learner reads: the assignment with its exercise.
type AssignmentView struct {
	Assignment
	Exercise Exercise `json:"exercise"`
}

// ExerciseInput is the writable part of an Exercise.
type ExerciseInput struct {
	CompetencyID string          `json:"competencyId"`
	CategoryID   string          `json:"categoryId,omitempty"`
	Type         scoring.Type    `json:"type"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	Difficulty   int             `json:"difficulty,omitempty"`
	Content      json.RawMessage `json:"content"`
}

type AssignInput struct {
	ExerciseID string     `json:"exerciseId"`
	LearnerIDs []string   `json:"learnerIds"`
	DueDate    *time.Time `json:"dueDate,omitempty"`
}

// BatchResult lists what AssignExercise created and the learners that
// already had the exercise.
type BatchResult struct {
	Created   []Assignment `json:"created"`
	Conflicts []string     `json:"conflicts"`
}

type ExerciseListOpts struct {
	CompetencyID string
	Type         scoring.Type
	Limit        int
	Offset       int
}

type AssignmentListOpts struct {
	ExerciseID string
	LearnerID  string
	Status     Status
	Limit      int
	Offset     int
}
