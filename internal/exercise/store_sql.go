package exercise

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mind-engage/mindengage-exercises/internal/scoring"
)

// SQLStore works with both the pgx and the modernc sqlite drivers.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

const exerciseCols = `id,competency_id,category_id,type,title,description,difficulty,content_json,created_at,updated_at`

const assignmentCols = `id,exercise_id,learner_id,due_date,status,attempts,answers_json,score,started_at,finished_at,created_at`

func (s *SQLStore) CreateExercise(ctx context.Context, e Exercise) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO exercises (`+exerciseCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		e.ID, e.CompetencyID, e.CategoryID, string(e.Type), e.Title, e.Description, e.Difficulty,
		string(e.Content), e.CreatedAt.Unix(), e.UpdatedAt.Unix())
	return err
}

func (s *SQLStore) UpdateExercise(ctx context.Context, e Exercise) error {
	res, err := s.db.ExecContext(ctx, `UPDATE exercises SET competency_id=$1, category_id=$2, type=$3, title=$4,
		description=$5, difficulty=$6, content_json=$7, updated_at=$8 WHERE id=$9`,
		e.CompetencyID, e.CategoryID, string(e.Type), e.Title, e.Description, e.Difficulty,
		string(e.Content), e.UpdatedAt.Unix(), e.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *SQLStore) GetExercise(ctx context.Context, id string) (Exercise, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+exerciseCols+` FROM exercises WHERE id=$1`, id)
	e, err := scanExercise(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Exercise{}, fmt.Errorf("exercise %s: %w", id, ErrNotFound)
	}
	return e, err
}

func (s *SQLStore) ListExercises(ctx context.Context, opts ExerciseListOpts) ([]Exercise, error) {
	var (
		where []string
		args  []any
	)
	if opts.CompetencyID != "" {
		args = append(args, opts.CompetencyID)
		where = append(where, fmt.Sprintf("competency_id=$%d", len(args)))
	}
	if opts.Type != "" {
		args = append(args, string(opts.Type))
		where = append(where, fmt.Sprintf("type=$%d", len(args)))
	}
	q := `SELECT ` + exerciseCols + ` FROM exercises`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, clampLimit(opts.Limit), max(opts.Offset, 0))
	q += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Exercise{}
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DeleteExercise removes assignments explicitly so the cascade does not
// depend on sqlite's foreign_keys pragma.
func (s *SQLStore) DeleteExercise(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM assignments WHERE exercise_id=$1`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM exercises WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLStore) InsertAssignment(ctx context.Context, a Assignment) (bool, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO assignments (id,exercise_id,learner_id,due_date,status,attempts,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (exercise_id, learner_id) DO NOTHING`,
		a.ID, a.ExerciseID, a.LearnerID, unixOrNil(a.DueDate), string(a.Status), a.Attempts, a.CreatedAt.Unix())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SQLStore) GetAssignment(ctx context.Context, id, learnerID string) (Assignment, Exercise, error) {
	row := s.db.QueryRowContext(ctx, `SELECT
		a.id,a.exercise_id,a.learner_id,a.due_date,a.status,a.attempts,a.answers_json,a.score,a.started_at,a.finished_at,a.created_at,
		e.id,e.competency_id,e.category_id,e.type,e.title,e.description,e.difficulty,e.content_json,e.created_at,e.updated_at
		FROM assignments a JOIN exercises e ON e.id=a.exercise_id
		WHERE a.id=$1 AND a.learner_id=$2`, id, learnerID)

	var a Assignment
	var e Exercise
	var status, typ, content string
	var answers sql.NullString
	var due, score, started, finished sql.NullInt64
	var aCreated, eCreated, eUpdated int64
	err := row.Scan(&a.ID, &a.ExerciseID, &a.LearnerID, &due, &status, &a.Attempts, &answers, &score, &started, &finished, &aCreated,
		&e.ID, &e.CompetencyID, &e.CategoryID, &typ, &e.Title, &e.Description, &e.Difficulty, &content, &eCreated, &eUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return Assignment{}, Exercise{}, fmt.Errorf("assignment %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Assignment{}, Exercise{}, err
	}
	fillAssignment(&a, status, answers, due, score, started, finished, aCreated)
	e.Type = scoring.Type(typ)
	e.Content = json.RawMessage(content)
	e.CreatedAt = time.Unix(eCreated, 0).UTC()
	e.UpdatedAt = time.Unix(eUpdated, 0).UTC()
	return a, e, nil
}

func (s *SQLStore) ListAssignments(ctx context.Context, opts AssignmentListOpts) ([]Assignment, error) {
	var (
		where []string
		args  []any
	)
	add := func(col string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	if opts.ExerciseID != "" {
		add("exercise_id", opts.ExerciseID)
	}
	if opts.LearnerID != "" {
		add("learner_id", opts.LearnerID)
	}
	if opts.Status != "" {
		add("status", string(opts.Status))
	}
	q := `SELECT ` + assignmentCols + ` FROM assignments`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, clampLimit(opts.Limit), max(opts.Offset, 0))
	q += fmt.Sprintf(` ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Assignment{}
	for rows.Next() {
		var a Assignment
		var status string
		var answers sql.NullString
		var due, score, started, finished sql.NullInt64
		var created int64
		if err := rows.Scan(&a.ID, &a.ExerciseID, &a.LearnerID, &due, &status, &a.Attempts, &answers, &score, &started, &finished, &created); err != nil {
			return nil, err
		}
		fillAssignment(&a, status, answers, due, score, started, finished, created)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) MarkStarted(ctx context.Context, id, learnerID string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE assignments SET status=$1, started_at=$2
		WHERE id=$3 AND learner_id=$4 AND status=$5`,
		string(StatusInProgress), at.Unix(), id, learnerID, string(StatusToDo))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *SQLStore) SaveResult(ctx context.Context, a Assignment, prevAttempts int) error {
	var answers any
	if len(a.Answers) > 0 {
		answers = string(a.Answers)
	}
	var score any
	if a.Score != nil {
		score = *a.Score
	}
	res, err := s.db.ExecContext(ctx, `UPDATE assignments
		SET status=$1, attempts=$2, score=$3, answers_json=$4, started_at=$5, finished_at=$6
		WHERE id=$7 AND learner_id=$8 AND attempts=$9`,
		string(a.Status), a.Attempts, score, answers, unixOrNil(a.StartedAt), unixOrNil(a.FinishedAt),
		a.ID, a.LearnerID, prevAttempts)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	var one int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM assignments WHERE id=$1 AND learner_id=$2`, a.ID, a.LearnerID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("assignment %s: %w", a.ID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	return ErrConflict
}

// helpers

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExercise(r rowScanner) (Exercise, error) {
	var e Exercise
	var typ, content string
	var created, updated int64
	if err := r.Scan(&e.ID, &e.CompetencyID, &e.CategoryID, &typ, &e.Title, &e.Description, &e.Difficulty, &content, &created, &updated); err != nil {
		return Exercise{}, err
	}
	e.Type = scoring.Type(typ)
	e.Content = json.RawMessage(content)
	e.CreatedAt = time.Unix(created, 0).UTC()
	e.UpdatedAt = time.Unix(updated, 0).UTC()
	return e, nil
}

func fillAssignment(a *Assignment, status string, answers sql.NullString, due, score, started, finished sql.NullInt64, created int64) {
	a.Status = Status(status)
	if answers.Valid && answers.String != "" {
		a.Answers = json.RawMessage(answers.String)
	}
	if score.Valid {
		v := int(score.Int64)
		a.Score = &v
	}
	a.DueDate = timeOrNil(due)
	a.StartedAt = timeOrNil(started)
	a.FinishedAt = timeOrNil(finished)
	a.CreatedAt = time.Unix(created, 0).UTC()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func unixOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func timeOrNil(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}
