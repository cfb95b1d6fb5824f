package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mind-engage/mindengage-exercises/internal/api/response"
	auth "github.com/mind-engage/mindengage-exercises/internal/auth/middleware"
	"github.com/mind-engage/mindengage-exercises/internal/exercise"
	"github.com/mind-engage/mindengage-exercises/internal/logger"
	"github.com/mind-engage/mindengage-exercises/internal/rbac"
)

// Handlers serves the exercise API on top of exercise.Service.
type Handlers struct {
	svc *exercise.Service
	log *logger.Logger
}

func NewHandlers(svc *exercise.Service, log *logger.Logger) *Handlers {
	if log == nil {
		log = logger.Nop()
	}
	return &Handlers{svc: svc, log: log}
}

type RouterDeps struct {
	Service *exercise.Service
	Auth    *auth.AuthService
	Login   auth.LoginOptions
	Logger  *logger.Logger

	CORSOrigins    []string
	RequestTimeout time.Duration
	// Ready reports whether backing storage is reachable. Nil means always ready.
	Ready func(ctx context.Context) error
}

func NewRouter(d RouterDeps) http.Handler {
	log := d.Logger
	if log == nil {
		log = logger.Nop()
	}
	if d.Login.Logger == nil {
		d.Login.Logger = log
	}
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	h := NewHandlers(d.Service, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, AccessLog(log), middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		response.OK(w, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r.Context()); err != nil {
				log.Warn("not ready", "error", err)
				response.Error(w, http.StatusServiceUnavailable, "unavailable", "storage unavailable")
				return
			}
		}
		response.OK(w, map[string]string{"status": "ready"})
	})
	r.Post("/auth/login", auth.LoginHandler(d.Auth, d.Login))

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.Auth))

		// learner
		pr.With(rbac.Require(rbac.PermAssignmentViewOwn)).Get("/assignment/{id}", h.OpenAssignment)
		pr.With(rbac.Require(rbac.PermAssignmentSubmit)).Post("/assignment/{id}/submit", h.SubmitAssignment)
		pr.With(rbac.Require(rbac.PermAssignmentViewOwn)).Get("/me/assignments", h.MyAssignments)

		// administrator
		pr.Route("/exercises", func(er chi.Router) {
			er.With(rbac.Require(rbac.PermExerciseCreate)).Post("/", h.CreateExercise)
			er.With(rbac.Require(rbac.PermExerciseView)).Get("/", h.ListExercises)
			er.With(rbac.Require(rbac.PermExerciseView)).Get("/{id}", h.GetExercise)
			er.With(rbac.Require(rbac.PermExerciseUpdate)).Put("/{id}", h.UpdateExercise)
			er.With(rbac.Require(rbac.PermExerciseDelete)).Delete("/{id}", h.DeleteExercise)
		})
		pr.Route("/assignments", func(ar chi.Router) {
			ar.With(rbac.Require(rbac.PermAssignmentCreate)).Post("/", h.AssignExercise)
			ar.With(rbac.Require(rbac.PermAssignmentViewAll)).Get("/", h.ListAssignments)
		})
		pr.With(rbac.Require(rbac.PermScoringView)).Get("/scoring/types", h.ScoringTypes)
	})

	return r
}
