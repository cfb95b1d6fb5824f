package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-exercises/internal/api/response"
	auth "github.com/mind-engage/mindengage-exercises/internal/auth/middleware"
	"github.com/mind-engage/mindengage-exercises/internal/exercise"
)

// POST /assignments  {exerciseId, learnerIds, dueDate?}
func (h *Handlers) AssignExercise(w http.ResponseWriter, r *http.Request) {
	var in exercise.AssignInput
	if err := decodeBody(r, &in); err != nil {
		badRequest(w, "bad json")
		return
	}
	res, err := h.svc.AssignExercise(r.Context(), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.JSON(w, http.StatusCreated, res)
}

// GET /assignments?exerciseId=&learnerId=&status=&limit=50&offset=0
func (h *Handlers) ListAssignments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.svc.ListAssignments(r.Context(), exercise.AssignmentListOpts{
		ExerciseID: strings.TrimSpace(q.Get("exerciseId")),
		LearnerID:  strings.TrimSpace(q.Get("learnerId")),
		Status:     exercise.Status(strings.TrimSpace(q.Get("status"))),
		Limit:      parseIntDefault(q.Get("limit"), 50),
		Offset:     parseIntDefault(q.Get("offset"), 0),
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.OK(w, list)
}

// GET /me/assignments?status=
// The learner is always the token subject.
func (h *Handlers) MyAssignments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.svc.ListLearnerAssignments(r.Context(),
		auth.SubjectFromContext(r.Context()),
		exercise.Status(strings.TrimSpace(q.Get("status"))),
		parseIntDefault(q.Get("limit"), 50),
		parseIntDefault(q.Get("offset"), 0),
	)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.OK(w, list)
}

// GET /assignment/{id}
// Opening an assignment moves it to in_progress. Answer keys are stripped.
func (h *Handlers) OpenAssignment(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.OpenAssignment(r.Context(), chi.URLParam(r, "id"), auth.SubjectFromContext(r.Context()))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.OK(w, v)
}

// POST /assignment/{id}/submit  {answers}
func (h *Handlers) SubmitAssignment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answers json.RawMessage `json:"answers"`
	}
	if err := decodeBody(r, &req); err != nil {
		badRequest(w, "bad json")
		return
	}
	res, err := h.svc.Submit(r.Context(), chi.URLParam(r, "id"), auth.SubjectFromContext(r.Context()), req.Answers)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.OK(w, res)
}
