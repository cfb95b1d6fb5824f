package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/mind-engage/mindengage-exercises/internal/api/response"
	"github.com/mind-engage/mindengage-exercises/internal/exercise"
	"github.com/mind-engage/mindengage-exercises/internal/logger"
)

// writeError maps service errors onto HTTP statuses. Anything unexpected is
// logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	var verr *exercise.ValidationError
	switch {
	case errors.As(err, &verr):
		response.Error(w, http.StatusBadRequest, "invalid", verr.Error())
	case errors.Is(err, exercise.ErrNotFound):
		response.Error(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, exercise.ErrConflict):
		response.Error(w, http.StatusConflict, "conflict", exercise.ErrConflict.Error())
	default:
		log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		response.Error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	response.Error(w, http.StatusBadRequest, "bad_request", msg)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

func parseIntDefault(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return def
	}
	return n
}
