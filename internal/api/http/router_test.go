package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/mind-engage/mindengage-exercises/internal/auth/middleware"
	"github.com/mind-engage/mindengage-exercises/internal/exercise"
	"github.com/mind-engage/mindengage-exercises/internal/rbac"
	"github.com/mind-engage/mindengage-exercises/internal/scoring"
)

type testAPI struct {
	t     *testing.T
	srv   http.Handler
	auth  *auth.AuthService
	admin string
	store exercise.Store
	ready error
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := exercise.NewMemoryStore()
	n := 0
	svc := exercise.NewService(exercise.Config{
		Store:  store,
		Engine: scoring.NewEngine(),
		Clock:  func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) },
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
	a := auth.NewAuthService("test-secret", time.Hour)
	api := &testAPI{t: t, auth: a, store: store}
	api.srv = NewRouter(RouterDeps{
		Service:     svc,
		Auth:        a,
		Login:       auth.LoginOptions{LocalLearners: true},
		CORSOrigins: []string{"http://localhost:3000"},
		Ready:       func(context.Context) error { return api.ready },
	})
	api.admin = api.token("admin", rbac.RoleAdmin)
	return api
}

func (a *testAPI) token(sub, role string) string {
	tok, err := a.auth.IssueJWT(sub, role)
	require.NoError(a.t, err)
	return tok
}

func (a *testAPI) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (a *testAPI) createExercise(in map[string]any) exercise.Exercise {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/exercises", a.admin, in)
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[exercise.Exercise](a.t, rec)
}

func (a *testAPI) assign(exerciseID string, learners ...string) exercise.BatchResult {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/assignments", a.admin, map[string]any{"exerciseId": exerciseID, "learnerIds": learners})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[exercise.BatchResult](a.t, rec)
}

func choiceExercise() map[string]any {
	return map[string]any{
		"competencyId": "comp-1",
		"type":         "multiple_choice",
		"title":        "Pick the primes",
		"content": map[string]any{"options": []map[string]any{
			{"text": "2", "correct": true}, {"text": "4"}, {"text": "5", "correct": true},
		}},
	}
}

func TestHealthAndReadiness(t *testing.T) {
	api := newTestAPI(t)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/healthz", "", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/readyz", "", nil).Code)

	api.ready = errors.New("db down")
	rec := api.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/me/assignments", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":{"message":"missing bearer","code":"unauthorized"}}`, rec.Body.String())

	learner := api.token("alice", rbac.RoleLearner)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodPost, "/exercises", learner, choiceExercise()).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/assignments", learner, nil).Code)
}

func TestLoginIssuesUsableToken(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodPost, "/auth/login", "", `{"username":"alice","password":"alice"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode[map[string]string](t, rec)

	rec = api.do(http.MethodGet, "/me/assignments", out["accessToken"], nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestExerciseCatalog(t *testing.T) {
	api := newTestAPI(t)
	e := api.createExercise(choiceExercise())
	assert.Equal(t, "id-1", e.ID)
	assert.Equal(t, 1, e.Difficulty)

	rec := api.do(http.MethodGet, "/exercises/"+e.ID, api.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"correct":true`)

	bad := choiceExercise()
	bad["type"] = "drawing"
	rec = api.do(http.MethodPost, "/exercises", api.admin, bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"invalid"`)

	rec = api.do(http.MethodPost, "/exercises", api.admin, `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	upd := choiceExercise()
	upd["title"] = "Primes"
	rec = api.do(http.MethodPut, "/exercises/"+e.ID, api.admin, upd)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Primes", decode[exercise.Exercise](t, rec).Title)

	rec = api.do(http.MethodGet, "/exercises?type=multiple_choice", api.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]exercise.Exercise](t, rec), 1)

	assert.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, "/exercises/"+e.ID, api.admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/exercises/"+e.ID, api.admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/exercises/"+e.ID, api.admin, nil).Code)
}

func TestScoringTypes(t *testing.T) {
	api := newTestAPI(t)
	rec := api.do(http.MethodGet, "/scoring/types", api.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"types":["matching","multiple_choice","numeric","ordering","short_answer"]}`, rec.Body.String())
}

func TestAssignmentFlow(t *testing.T) {
	api := newTestAPI(t)
	e := api.createExercise(choiceExercise())

	first := api.assign(e.ID, "alice")
	require.Len(t, first.Created, 1)
	id := first.Created[0].ID

	again := api.assign(e.ID, "alice", "bob")
	require.Len(t, again.Created, 1)
	assert.Equal(t, "bob", again.Created[0].LearnerID)
	assert.Equal(t, []string{"alice"}, again.Conflicts)

	alice := api.token("alice", rbac.RoleLearner)
	bob := api.token("bob", rbac.RoleLearner)

	// opening redacts the answer key and starts the assignment
	rec := api.do(http.MethodGet, "/assignment/"+id, alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "correct")
	view := decode[exercise.AssignmentView](t, rec)
	assert.Equal(t, exercise.StatusInProgress, view.Status)

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/assignment/"+id, bob, nil).Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, "/assignment/"+id+"/submit", bob, `{"answers":[0]}`).Code)

	rec = api.do(http.MethodPost, "/assignment/"+id+"/submit", alice, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodPost, "/assignment/"+id+"/submit", alice, `{"answers":[0,1,2]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"score":50,"details":{"correct":2,"total":2,"wrongSelected":1}}`, rec.Body.String())

	rec = api.do(http.MethodGet, "/me/assignments?status=done", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	mine := decode[[]exercise.Assignment](t, rec)
	require.Len(t, mine, 1)
	assert.Equal(t, 1, mine[0].Attempts)
	assert.Equal(t, 50, *mine[0].Score)

	rec = api.do(http.MethodGet, "/assignments?exerciseId="+e.ID+"&status=to_do", api.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	todo := decode[[]exercise.Assignment](t, rec)
	require.Len(t, todo, 1)
	assert.Equal(t, "bob", todo[0].LearnerID)

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/assignments?status=archived", api.admin, nil).Code)
}

func TestNumericSubmission(t *testing.T) {
	api := newTestAPI(t)
	e := api.createExercise(map[string]any{
		"competencyId": "comp-2",
		"type":         "numeric",
		"title":        "Pi",
		"content":      map[string]any{"answer": 3.14, "tolerance": 0.01},
	})
	id := api.assign(e.ID, "alice").Created[0].ID
	alice := api.token("alice", rbac.RoleLearner)

	rec := api.do(http.MethodPost, "/assignment/"+id+"/submit", alice, `{"answers":"3,145"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 100, decode[scoring.Result](t, rec).Score)
}

// conflictStore fails every result write as if another submission won.
type conflictStore struct{ exercise.Store }

func (conflictStore) SaveResult(context.Context, exercise.Assignment, int) error {
	return exercise.ErrConflict
}

func TestSubmitConflictMapsTo409(t *testing.T) {
	store := conflictStore{exercise.NewMemoryStore()}
	svc := exercise.NewService(exercise.Config{Store: store})
	a := auth.NewAuthService("test-secret", time.Hour)
	srv := NewRouter(RouterDeps{Service: svc, Auth: a})

	e, err := svc.CreateExercise(context.Background(), exercise.ExerciseInput{
		CompetencyID: "c", Type: scoring.ShortAnswer, Title: "Capital of France",
		Content: json.RawMessage(`{"answers":["Paris"]}`),
	})
	require.NoError(t, err)
	res, err := svc.AssignExercise(context.Background(), exercise.AssignInput{ExerciseID: e.ID, LearnerIDs: []string{"alice"}})
	require.NoError(t, err)

	tok, err := a.IssueJWT("alice", rbac.RoleLearner)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/assignment/"+res.Created[0].ID+"/submit", bytes.NewBufferString(`{"answers":"paris"}`))
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"conflict"`)
}
