package exercise

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/mindengage-exercises/internal/logger"
	"github.com/mind-engage/mindengage-exercises/internal/scoring"
)

// Config wires a Service. Store and Engine are required.
type Config struct {
	Store  Store
	Engine *scoring.Engine
	Logger *logger.Logger
	Clock  func() time.Time
	NewID  func() string
}

// Service owns the exercise catalog, assignment lifecycle and submissions.
type Service struct {
	store  Store
	engine *scoring.Engine
	log    *logger.Logger
	now    func() time.Time
	newID  func() string
}

func NewService(cfg Config) *Service {
	s := &Service{
		store:  cfg.Store,
		engine: cfg.Engine,
		log:    cfg.Logger,
		now:    cfg.Clock,
		newID:  cfg.NewID,
	}
	if s.engine == nil {
		s.engine = scoring.NewEngine()
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// Engine exposes the scoring engine, e.g. to list supported types.
func (s *Service) Engine() *scoring.Engine { return s.engine }

// --- catalog ---

func (s *Service) CreateExercise(ctx context.Context, in ExerciseInput) (Exercise, error) {
	if err := s.validateExercise(&in); err != nil {
		return Exercise{}, err
	}
	now := s.now().Truncate(time.Second)
	e := Exercise{
		ID:           s.newID(),
		CompetencyID: in.CompetencyID,
		CategoryID:   in.CategoryID,
		Type:         in.Type,
		Title:        in.Title,
		Description:  in.Description,
		Difficulty:   in.Difficulty,
		Content:      in.Content,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateExercise(ctx, e); err != nil {
		return Exercise{}, fmt.Errorf("create exercise: %w", err)
	}
	s.log.Info("exercise created", "exercise_id", e.ID, "type", e.Type, "competency_id", e.CompetencyID)
	return e, nil
}

func (s *Service) UpdateExercise(ctx context.Context, id string, in ExerciseInput) (Exercise, error) {
	if err := s.validateExercise(&in); err != nil {
		return Exercise{}, err
	}
	cur, err := s.store.GetExercise(ctx, id)
	if err != nil {
		return Exercise{}, err
	}
	cur.CompetencyID = in.CompetencyID
	cur.CategoryID = in.CategoryID
	cur.Type = in.Type
	cur.Title = in.Title
	cur.Description = in.Description
	cur.Difficulty = in.Difficulty
	cur.Content = in.Content
	cur.UpdatedAt = s.now().Truncate(time.Second)
	if err := s.store.UpdateExercise(ctx, cur); err != nil {
		return Exercise{}, fmt.Errorf("update exercise: %w", err)
	}
	s.log.Info("exercise updated", "exercise_id", id)
	return cur, nil
}

func (s *Service) GetExercise(ctx context.Context, id string) (Exercise, error) {
	return s.store.GetExercise(ctx, id)
}

func (s *Service) ListExercises(ctx context.Context, opts ExerciseListOpts) ([]Exercise, error) {
	return s.store.ListExercises(ctx, opts)
}

func (s *Service) DeleteExercise(ctx context.Context, id string) error {
	if err := s.store.DeleteExercise(ctx, id); err != nil {
		return err
	}
	s.log.Info("exercise deleted", "exercise_id", id)
	return nil
}

// validateExercise trims and checks in, and rejects types the engine cannot
// score so catalog mistakes surface at write time.
func (s *Service) validateExercise(in *ExerciseInput) error {
	in.CompetencyID = strings.TrimSpace(in.CompetencyID)
	in.CategoryID = strings.TrimSpace(in.CategoryID)
	in.Title = strings.TrimSpace(in.Title)
	in.Type = scoring.Type(strings.TrimSpace(string(in.Type)))
	switch {
	case in.CompetencyID == "":
		return invalid("competencyId", "required")
	case in.Type == "":
		return invalid("type", "required")
	case in.Title == "":
		return invalid("title", "required")
	case isNull(in.Content):
		return invalid("content", "required")
	}
	if in.Difficulty == 0 {
		in.Difficulty = 1
	}
	if in.Difficulty < 1 || in.Difficulty > 5 {
		return invalid("difficulty", "must be between 1 and 5")
	}
	if err := s.engine.Validate(in.Type, in.Content); err != nil {
		if errors.Is(err, scoring.ErrUnsupportedType) {
			return invalid("type", err.Error())
		}
		return invalid("content", err.Error())
	}
	return nil
}

// --- assignments ---

// AssignExercise creates one assignment per learner. Learners that already
// have the exercise are reported in Conflicts; the others are still created.
func (s *Service) AssignExercise(ctx context.Context, in AssignInput) (BatchResult, error) {
	in.ExerciseID = strings.TrimSpace(in.ExerciseID)
	if in.ExerciseID == "" {
		return BatchResult{}, invalid("exerciseId", "required")
	}
	if len(in.LearnerIDs) == 0 {
		return BatchResult{}, invalid("learnerIds", "at least one learner required")
	}
	learners := make([]string, len(in.LearnerIDs))
	for i, l := range in.LearnerIDs {
		learners[i] = strings.TrimSpace(l)
		if learners[i] == "" {
			return BatchResult{}, invalid("learnerIds", fmt.Sprintf("entry %d is blank", i))
		}
	}
	if _, err := s.store.GetExercise(ctx, in.ExerciseID); err != nil {
		return BatchResult{}, err
	}

	now := s.now().Truncate(time.Second)
	res := BatchResult{Created: []Assignment{}, Conflicts: []string{}}
	for _, learner := range learners {
		a := Assignment{
			ID:         s.newID(),
			ExerciseID: in.ExerciseID,
			LearnerID:  learner,
			DueDate:    in.DueDate,
			Status:     StatusToDo,
			CreatedAt:  now,
		}
		ok, err := s.store.InsertAssignment(ctx, a)
		if err != nil {
			return res, fmt.Errorf("assign %s to %s: %w", in.ExerciseID, learner, err)
		}
		if !ok {
			res.Conflicts = append(res.Conflicts, learner)
			continue
		}
		res.Created = append(res.Created, a)
	}
	s.log.Info("exercise assigned", "exercise_id", in.ExerciseID,
		"created", len(res.Created), "conflicts", len(res.Conflicts))
	return res, nil
}

// OpenAssignment returns the learner's assignment with its exercise, moving
// it from to_do to in_progress on first read. Answer keys are removed from
// the embedded exercise.
func (s *Service) OpenAssignment(ctx context.Context, id, learnerID string) (AssignmentView, error) {
	a, e, err := s.store.GetAssignment(ctx, id, learnerID)
	if err != nil {
		return AssignmentView{}, err
	}
	if a.Status == StatusToDo {
		now := s.now().Truncate(time.Second)
		started, err := s.store.MarkStarted(ctx, id, learnerID, now)
		if err != nil {
			return AssignmentView{}, fmt.Errorf("start assignment: %w", err)
		}
		if started {
			a.Start(now)
			s.log.Info("assignment started", "assignment_id", id, "learner_id", learnerID)
		} else {
			// someone else moved it first
			if a, _, err = s.store.GetAssignment(ctx, id, learnerID); err != nil {
				return AssignmentView{}, err
			}
		}
	}
	e.Content = s.engine.Redact(e.Type, e.Content)
	return AssignmentView{Assignment: a, Exercise: e}, nil
}

func (s *Service) ListAssignments(ctx context.Context, opts AssignmentListOpts) ([]Assignment, error) {
	if opts.Status != "" && !opts.Status.Valid() {
		return nil, invalid("status", fmt.Sprintf("unknown status %q", opts.Status))
	}
	return s.store.ListAssignments(ctx, opts)
}

// ListLearnerAssignments is ListAssignments pinned to one learner.
func (s *Service) ListLearnerAssignments(ctx context.Context, learnerID string, status Status, limit, offset int) ([]Assignment, error) {
	return s.ListAssignments(ctx, AssignmentListOpts{LearnerID: learnerID, Status: status, Limit: limit, Offset: offset})
}

// Submit scores answers for the learner's assignment and stores the result.
// The write is conditional on the attempt count that was read, so a
// concurrent submission makes this one fail with ErrConflict.
func (s *Service) Submit(ctx context.Context, id, learnerID string, answers json.RawMessage) (scoring.Result, error) {
	if isNull(answers) {
		return scoring.Result{}, invalid("answers", "required")
	}
	a, e, err := s.store.GetAssignment(ctx, id, learnerID)
	if err != nil {
		return scoring.Result{}, err
	}
	if !s.engine.Supports(e.Type) {
		s.log.Warn("submission for unsupported exercise type", "assignment_id", id, "exercise_id", e.ID, "type", e.Type)
	}
	res := s.engine.Score(e.Type, e.Content, answers)

	prev := a.Attempts
	a.Complete(res.Score, answers, s.now().Truncate(time.Second))
	if err := s.store.SaveResult(ctx, a, prev); err != nil {
		return scoring.Result{}, fmt.Errorf("save result: %w", err)
	}
	s.log.Info("assignment submitted", "assignment_id", id, "learner_id", learnerID,
		"type", e.Type, "score", res.Score, "attempts", a.Attempts)
	return res, nil
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}
