package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/lib/pq"

	"employeesurvey/survey-client/internal/apiclient"
	"employeesurvey/survey-client/internal/audit"
	"employeesurvey/survey-client/internal/auth"
	"employeesurvey/survey-client/internal/config"
	"employeesurvey/survey-client/internal/observability"
	"employeesurvey/survey-client/internal/session"
	"employeesurvey/survey-client/internal/surveys"
)

const serviceName = "surveyctl"

// App owns the session store and every service built on it.
type App struct {
	cfg config.Config
	log *slog.Logger
	db  *sql.DB

	Session  *session.Store
	API      *apiclient.Client
	Auth     *auth.Service
	Surveys  *surveys.Service
	Activity *audit.Logger

	shutdownTracing func(context.Context) error
}

// New wires the client from cfg. A nil logger builds one from cfg.Log on
// stderr.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = observability.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	}

	shutdownTracing, err := observability.SetupTracing(ctx, serviceName, cfg.OTel.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}

	store, db, err := openSession(ctx, cfg.Session)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, err
	}
	logger.Debug("session store ready", "backend", cfg.Session.Backend)

	a := &App{
		cfg:             cfg,
		log:             logger,
		db:              db,
		Session:         store,
		Activity:        audit.NewLogger(cfg.Audit.File),
		shutdownTracing: shutdownTracing,
	}

	a.API, err = apiclient.New(apiclient.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  logger,
	}, store)
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("create api client: %w", err)
	}

	a.Auth, err = auth.NewService(a.API, store, auth.ServiceConfig{
		Activity: a.Activity,
		Logger:   logger,
	})
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("create auth service: %w", err)
	}

	a.Surveys, err = surveys.NewService(a.API, surveys.ServiceConfig{Logger: logger})
	if err != nil {
		_ = a.Close(ctx)
		return nil, fmt.Errorf("create survey service: %w", err)
	}

	return a, nil
}

func (a *App) Logger() *slog.Logger { return a.log }

func (a *App) Config() config.Config { return a.cfg }

// Close releases the session database and flushes traces.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close session database: %w", err))
		}
	}
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
		}
	}
	return errors.Join(errs...)
}

func openSession(ctx context.Context, cfg config.SessionConfig) (*session.Store, *sql.DB, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return session.NewMemoryStore(), nil, nil

	case config.BackendFile, "":
		p, err := session.NewFilePersister(cfg.File)
		if err != nil {
			return nil, nil, fmt.Errorf("create session file persister: %w", err)
		}
		store, err := session.Open(p)
		if err != nil {
			return nil, nil, fmt.Errorf("open session store: %w", err)
		}
		return store, nil, nil

	case config.BackendSQLite:
		db, err := session.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open session database: %w", err)
		}
		return openSQLSession(db)

	case config.BackendPostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ping database: %w", err)
		}
		return openSQLSession(db)

	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}

func openSQLSession(db *sql.DB) (*session.Store, *sql.DB, error) {
	p, err := session.NewSQLPersister(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("create sql session persister: %w", err)
	}
	store, err := session.Open(p)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("open session store: %w", err)
	}
	return store, db, nil
}
