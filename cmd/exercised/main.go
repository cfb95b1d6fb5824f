package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	api "github.com/mind-engage/mindengage-exercises/internal/api/http"
	auth "github.com/mind-engage/mindengage-exercises/internal/auth/middleware"
	"github.com/mind-engage/mindengage-exercises/internal/config"
	"github.com/mind-engage/mindengage-exercises/internal/db"
	"github.com/mind-engage/mindengage-exercises/internal/exercise"
	"github.com/mind-engage/mindengage-exercises/internal/logger"
	"github.com/mind-engage/mindengage-exercises/internal/scoring"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- storage ---
	var (
		store exercise.Store
		ready func(context.Context) error
	)
	if cfg.DBDriver == "memory" {
		log.Warn("using in-memory store, data is lost on exit")
		store = exercise.NewMemoryStore()
	} else {
		dbh, err := openDB(ctx, cfg)
		if err != nil {
			return err
		}
		defer dbh.Close()
		store = exercise.NewSQLStore(dbh)
		ready = dbh.PingContext
	}

	// --- domain ---
	engine := scoring.NewEngine(scoring.WithMaxEditDistance(cfg.ShortAnswerMaxEdit))
	svc := exercise.NewService(exercise.Config{
		Store:  store,
		Engine: engine,
		Logger: log.With("component", "exercise"),
	})

	// --- http ---
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret, cfg.TokenTTL)
	router := api.NewRouter(api.RouterDeps{
		Service: svc,
		Auth:    authSvc,
		Login: auth.LoginOptions{
			AdminUser:     cfg.AdminUser,
			AdminPassHash: cfg.AdminPassHash,
			LocalLearners: cfg.EnableLocalAuth,
		},
		Logger:         log.With("component", "http"),
		CORSOrigins:    cfg.CORSOrigins(),
		RequestTimeout: cfg.RequestTimeout,
		Ready:          ready,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", cfg.DBDriver,
			"types", engine.Types())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return nil, fmt.Errorf("db open failed: %w", err)
	}
	return dbh, nil
}
