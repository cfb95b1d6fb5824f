package http

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-exercises/internal/api/response"
	"github.com/mind-engage/mindengage-exercises/internal/exercise"
	"github.com/mind-engage/mindengage-exercises/internal/scoring"
)

// POST /exercises
func (h *Handlers) CreateExercise(w http.ResponseWriter, r *http.Request) {
	var in exercise.ExerciseInput
	if err := decodeBody(r, &in); err != nil {
		badRequest(w, "bad json")
		return
	}
	e, err := h.svc.CreateExercise(r.Context(), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.JSON(w, http.StatusCreated, e)
}

// GET /exercises?competencyId=&type=&limit=50&offset=0
func (h *Handlers) ListExercises(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.svc.ListExercises(r.Context(), exercise.ExerciseListOpts{
		CompetencyID: strings.TrimSpace(q.Get("competencyId")),
		Type:         scoring.Type(strings.TrimSpace(q.Get("type"))),
		Limit:        parseIntDefault(q.Get("limit"), 50),
		Offset:       parseIntDefault(q.Get("offset"), 0),
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.OK(w, list)
}

// GET /exercises/{id}
func (h *Handlers) GetExercise(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.GetExercise(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.OK(w, e)
}

// PUT /exercises/{id}
func (h *Handlers) UpdateExercise(w http.ResponseWriter, r *http.Request) {
	var in exercise.ExerciseInput
	if err := decodeBody(r, &in); err != nil {
		badRequest(w, "bad json")
		return
	}
	e, err := h.svc.UpdateExercise(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.OK(w, e)
}

// DELETE /exercises/{id}
func (h *Handlers) DeleteExercise(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteExercise(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	response.JSON(w, http.StatusNoContent, nil)
}

// GET /scoring/types
func (h *Handlers) ScoringTypes(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]any{"types": h.svc.Engine().Types()})
}
