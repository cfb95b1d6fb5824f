package exercise

import (
	"context"
	"time"
)

type Store interface {
	CreateExercise(ctx context.Context, e Exercise) error
	UpdateExercise(ctx context.Context, e Exercise) error // ErrNotFound if absent
	GetExercise(ctx context.Context, id string) (Exercise, error)
	ListExercises(ctx context.Context, opts ExerciseListOpts) ([]Exercise, error)
	DeleteExercise(ctx context.Context, id string) error // cascades to assignments

	// InsertAssignment returns false, nil when the (exercise, learner) pair
	// already exists.
	InsertAssignment(ctx context.Context, a Assignment) (bool, error)
	// GetAssignment is scoped to the learner; other learners' rows are ErrNotFound.
	GetAssignment(ctx context.Context, id, learnerID string) (Assignment, Exercise, error)
	ListAssignments(ctx context.Context, opts AssignmentListOpts) ([]Assignment, error)
	// MarkStarted applies to_do -> in_progress; false when it was not to_do.
	MarkStarted(ctx context.Context, id, learnerID string, at time.Time) (bool, error)
	// SaveResult writes status, score, answers, attempts and timestamps in one
	// update, only if the stored attempt count is still prevAttempts.
	SaveResult(ctx context.Context, a Assignment, prevAttempts int) error
}

const defaultLimit = 50

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return defaultLimit
	}
	return limit
}
