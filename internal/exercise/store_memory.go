package exercise

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type memoryStore struct {
	mu          sync.RWMutex
	exercises   map[string]Exercise
	assignments map[string]Assignment
	pairs       map[[2]string]string // (exercise, learner) -> assignment id
}

// NewMemoryStore keeps everything in process memory. Values are copied in
// and out so callers never share state with the store.
func NewMemoryStore() Store {
	return &memoryStore{
		exercises:   map[string]Exercise{},
		assignments: map[string]Assignment{},
		pairs:       map[[2]string]string{},
	}
}

func (m *memoryStore) CreateExercise(_ context.Context, e Exercise) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exercises[e.ID]; ok {
		return fmt.Errorf("exercise %s already exists", e.ID)
	}
	m.exercises[e.ID] = cloneExercise(e)
	return nil
}

func (m *memoryStore) UpdateExercise(_ context.Context, e Exercise) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.exercises[e.ID]
	if !ok {
		return fmt.Errorf("exercise %s: %w", e.ID, ErrNotFound)
	}
	e.CreatedAt = cur.CreatedAt
	m.exercises[e.ID] = cloneExercise(e)
	return nil
}

func (m *memoryStore) GetExercise(_ context.Context, id string) (Exercise, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exercises[id]
	if !ok {
		return Exercise{}, fmt.Errorf("exercise %s: %w", id, ErrNotFound)
	}
	return cloneExercise(e), nil
}

func (m *memoryStore) ListExercises(_ context.Context, opts ExerciseListOpts) ([]Exercise, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Exercise{}
	for _, e := range m.exercises {
		if opts.CompetencyID != "" && e.CompetencyID != opts.CompetencyID {
			continue
		}
		if opts.Type != "" && e.Type != opts.Type {
			continue
		}
		out = append(out, cloneExercise(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, opts.Limit, opts.Offset), nil
}

func (m *memoryStore) DeleteExercise(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exercises[id]; !ok {
		return fmt.Errorf("exercise %s: %w", id, ErrNotFound)
	}
	delete(m.exercises, id)
	for aid, a := range m.assignments {
		if a.ExerciseID == id {
			delete(m.assignments, aid)
			delete(m.pairs, [2]string{a.ExerciseID, a.LearnerID})
		}
	}
	return nil
}

func (m *memoryStore) InsertAssignment(_ context.Context, a Assignment) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exercises[a.ExerciseID]; !ok {
		return false, fmt.Errorf("exercise %s: %w", a.ExerciseID, ErrNotFound)
	}
	key := [2]string{a.ExerciseID, a.LearnerID}
	if _, ok := m.pairs[key]; ok {
		return false, nil
	}
	m.pairs[key] = a.ID
	m.assignments[a.ID] = cloneAssignment(a)
	return true, nil
}

func (m *memoryStore) GetAssignment(_ context.Context, id, learnerID string) (Assignment, Exercise, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assignments[id]
	if !ok || a.LearnerID != learnerID {
		return Assignment{}, Exercise{}, fmt.Errorf("assignment %s: %w", id, ErrNotFound)
	}
	e, ok := m.exercises[a.ExerciseID]
	if !ok {
		return Assignment{}, Exercise{}, fmt.Errorf("assignment %s: %w", id, ErrNotFound)
	}
	return cloneAssignment(a), cloneExercise(e), nil
}

func (m *memoryStore) ListAssignments(_ context.Context, opts AssignmentListOpts) ([]Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Assignment{}
	for _, a := range m.assignments {
		if opts.ExerciseID != "" && a.ExerciseID != opts.ExerciseID {
			continue
		}
		if opts.LearnerID != "" && a.LearnerID != opts.LearnerID {
			continue
		}
		if opts.Status != "" && a.Status != opts.Status {
			continue
		}
		out = append(out, cloneAssignment(a))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, opts.Limit, opts.Offset), nil
}

func (m *memoryStore) MarkStarted(_ context.Context, id, learnerID string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[id]
	if !ok || a.LearnerID != learnerID {
		return false, fmt.Errorf("assignment %s: %w", id, ErrNotFound)
	}
	if !a.Start(at) {
		return false, nil
	}
	m.assignments[id] = a
	return true, nil
}

func (m *memoryStore) SaveResult(_ context.Context, a Assignment, prevAttempts int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.assignments[a.ID]
	if !ok || cur.LearnerID != a.LearnerID {
		return fmt.Errorf("assignment %s: %w", a.ID, ErrNotFound)
	}
	if cur.Attempts != prevAttempts {
		return ErrConflict
	}
	if !cur.Status.CanMoveTo(a.Status) {
		return fmt.Errorf("assignment %s: status %s cannot move to %s", a.ID, cur.Status, a.Status)
	}
	cur.Status = a.Status
	cur.Attempts = a.Attempts
	cur.Score = a.Score
	cur.Answers = a.Answers
	cur.StartedAt = a.StartedAt
	cur.FinishedAt = a.FinishedAt
	m.assignments[a.ID] = cloneAssignment(cur)
	return nil
}

func page[T any](in []T, limit, offset int) []T {
	limit = clampLimit(limit)
	if offset < 0 {
		offset = 0
	}
	if offset >= len(in) {
		return in[:0]
	}
	end := min(offset+limit, len(in))
	return in[offset:end]
}

func cloneExercise(e Exercise) Exercise {
	e.Content = append([]byte(nil), e.Content...)
	return e
}

func cloneAssignment(a Assignment) Assignment {
	if a.Answers != nil {
		a.Answers = append([]byte(nil), a.Answers...)
	}
	if a.Score != nil {
		v := *a.Score
		a.Score = &v
	}
	a.DueDate = cloneTime(a.DueDate)
	a.StartedAt = cloneTime(a.StartedAt)
	a.FinishedAt = cloneTime(a.FinishedAt)
	return a
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
