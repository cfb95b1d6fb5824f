package exercise

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-exercises/internal/db"
	"github.com/mind-engage/mindengage-exercises/internal/scoring"
)

func newSQLiteStore(t *testing.T) Store {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "exercises.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	h, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return NewSQLStore(h)
}

// Both implementations must behave the same.
func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, newSQLiteStore(t)) })
}

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func seedExercise(t *testing.T, s Store, id string) Exercise {
	t.Helper()
	e := Exercise{
		ID:           id,
		CompetencyID: "comp-1",
		Type:         scoring.Numeric,
		Title:        "Add",
		Difficulty:   2,
		Content:      json.RawMessage(`{"answer":4}`),
		CreatedAt:    t0,
		UpdatedAt:    t0,
	}
	require.NoError(t, s.CreateExercise(context.Background(), e))
	return e
}

func seedAssignment(t *testing.T, s Store, id, exerciseID, learner string) Assignment {
	t.Helper()
	a := Assignment{ID: id, ExerciseID: exerciseID, LearnerID: learner, Status: StatusToDo, CreatedAt: t0}
	ok, err := s.InsertAssignment(context.Background(), a)
	require.NoError(t, err)
	require.True(t, ok)
	return a
}

func TestStoreExerciseCRUD(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		e := seedExercise(t, s, "ex-1")

		got, err := s.GetExercise(ctx, "ex-1")
		require.NoError(t, err)
		assert.Equal(t, e.Title, got.Title)
		assert.Equal(t, scoring.Numeric, got.Type)
		assert.JSONEq(t, `{"answer":4}`, string(got.Content))
		assert.True(t, t0.Equal(got.CreatedAt))

		e.Title = "Add two numbers"
		e.UpdatedAt = t0.Add(time.Hour)
		require.NoError(t, s.UpdateExercise(ctx, e))
		got, err = s.GetExercise(ctx, "ex-1")
		require.NoError(t, err)
		assert.Equal(t, "Add two numbers", got.Title)

		_, err = s.GetExercise(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.UpdateExercise(ctx, Exercise{ID: "missing", Content: json.RawMessage(`{}`)}), ErrNotFound)
		assert.ErrorIs(t, s.DeleteExercise(ctx, "missing"), ErrNotFound)
	})
}

func TestStoreListExercises(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seedExercise(t, s, "a")
		seedExercise(t, s, "b")
		other := Exercise{ID: "c", CompetencyID: "comp-2", Type: scoring.Matching, Title: "Capitals",
			Difficulty: 1, Content: json.RawMessage(`{"pairs":[]}`), CreatedAt: t0.Add(time.Minute), UpdatedAt: t0}
		require.NoError(t, s.CreateExercise(ctx, other))

		all, err := s.ListExercises(ctx, ExerciseListOpts{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "c", all[0].ID)

		byComp, err := s.ListExercises(ctx, ExerciseListOpts{CompetencyID: "comp-1"})
		require.NoError(t, err)
		assert.Len(t, byComp, 2)

		byType, err := s.ListExercises(ctx, ExerciseListOpts{Type: scoring.Matching})
		require.NoError(t, err)
		require.Len(t, byType, 1)
		assert.Equal(t, "c", byType[0].ID)

		paged, err := s.ListExercises(ctx, ExerciseListOpts{Limit: 1, Offset: 1})
		require.NoError(t, err)
		require.Len(t, paged, 1)
		assert.Equal(t, "a", paged[0].ID)
	})
}

func TestStoreAssignmentUniquePair(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seedExercise(t, s, "ex-1")
		seedAssignment(t, s, "as-1", "ex-1", "alice")

		ok, err := s.InsertAssignment(ctx, Assignment{ID: "as-2", ExerciseID: "ex-1", LearnerID: "alice", Status: StatusToDo, CreatedAt: t0})
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = s.InsertAssignment(ctx, Assignment{ID: "as-3", ExerciseID: "ex-1", LearnerID: "bob", Status: StatusToDo, CreatedAt: t0})
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestStoreGetAssignmentIsOwnerScoped(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seedExercise(t, s, "ex-1")
		seedAssignment(t, s, "as-1", "ex-1", "alice")

		a, e, err := s.GetAssignment(ctx, "as-1", "alice")
		require.NoError(t, err)
		assert.Equal(t, StatusToDo, a.Status)
		assert.Equal(t, "ex-1", e.ID)
		assert.Nil(t, a.Score)
		assert.Nil(t, a.StartedAt)

		_, _, err = s.GetAssignment(ctx, "as-1", "mallory")
		assert.ErrorIs(t, err, ErrNotFound)
		_, _, err = s.GetAssignment(ctx, "nope", "alice")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStoreMarkStartedOnce(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seedExercise(t, s, "ex-1")
		seedAssignment(t, s, "as-1", "ex-1", "alice")

		ok, err := s.MarkStarted(ctx, "as-1", "alice", t0)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.MarkStarted(ctx, "as-1", "alice", t0.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, ok)

		a, _, err := s.GetAssignment(ctx, "as-1", "alice")
		require.NoError(t, err)
		assert.Equal(t, StatusInProgress, a.Status)
		require.NotNil(t, a.StartedAt)
		assert.True(t, t0.Equal(*a.StartedAt))
	})
}

func TestStoreSaveResultCompareAndSwap(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seedExercise(t, s, "ex-1")
		seedAssignment(t, s, "as-1", "ex-1", "alice")

		a, _, err := s.GetAssignment(ctx, "as-1", "alice")
		require.NoError(t, err)
		stale := a

		a.Complete(80, json.RawMessage(`"4"`), t0)
		require.NoError(t, s.SaveResult(ctx, a, 0))

		stale.Complete(10, json.RawMessage(`"1"`), t0)
		assert.ErrorIs(t, s.SaveResult(ctx, stale, 0), ErrConflict)

		got, _, err := s.GetAssignment(ctx, "as-1", "alice")
		require.NoError(t, err)
		assert.Equal(t, StatusDone, got.Status)
		assert.Equal(t, 1, got.Attempts)
		require.NotNil(t, got.Score)
		assert.Equal(t, 80, *got.Score)
		assert.JSONEq(t, `"4"`, string(got.Answers))
		require.NotNil(t, got.FinishedAt)

		missing := a
		missing.ID = "nope"
		assert.ErrorIs(t, s.SaveResult(ctx, missing, 1), ErrNotFound)
	})
}

func TestStoreDeleteExerciseCascades(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seedExercise(t, s, "ex-1")
		seedExercise(t, s, "ex-2")
		seedAssignment(t, s, "as-1", "ex-1", "alice")
		seedAssignment(t, s, "as-2", "ex-2", "alice")

		require.NoError(t, s.DeleteExercise(ctx, "ex-1"))

		_, _, err := s.GetAssignment(ctx, "as-1", "alice")
		assert.ErrorIs(t, err, ErrNotFound)
		left, err := s.ListAssignments(ctx, AssignmentListOpts{LearnerID: "alice"})
		require.NoError(t, err)
		require.Len(t, left, 1)
		assert.Equal(t, "as-2", left[0].ID)

		// the pair is free again
		seedExercise(t, s, "ex-1")
		seedAssignment(t, s, "as-3", "ex-1", "alice")
	})
}

func TestStoreListAssignmentsFilters(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		seedExercise(t, s, "ex-1")
		seedExercise(t, s, "ex-2")
		seedAssignment(t, s, "as-1", "ex-1", "alice")
		seedAssignment(t, s, "as-2", "ex-2", "alice")
		seedAssignment(t, s, "as-3", "ex-1", "bob")
		_, err := s.MarkStarted(ctx, "as-2", "alice", t0)
		require.NoError(t, err)

		list, err := s.ListAssignments(ctx, AssignmentListOpts{ExerciseID: "ex-1"})
		require.NoError(t, err)
		assert.Len(t, list, 2)

		list, err = s.ListAssignments(ctx, AssignmentListOpts{LearnerID: "alice", Status: StatusInProgress})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "as-2", list[0].ID)

		list, err = s.ListAssignments(ctx, AssignmentListOpts{LearnerID: "carol"})
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}
