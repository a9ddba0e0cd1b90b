// ABOUTME: Shared runtime for podium commands: config, logger, database, API client, and stores
// ABOUTME: Resources are opened lazily on first use and closed once the command returns
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/harperreed/podium/api"
	"github.com/harperreed/podium/charm"
	"github.com/harperreed/podium/config"
	"github.com/harperreed/podium/db"
	"github.com/harperreed/podium/logging"
	"github.com/harperreed/podium/metrics"
	"github.com/harperreed/podium/proposal"
	"github.com/harperreed/podium/wizard"
)

// App carries what every command needs.
type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Metrics *metrics.Metrics
	Out     io.Writer

	database *sql.DB
	charm    *charm.Client
	closers  []func() error
}

// Options are the global flags.
type Options struct {
	ConfigPath string
	DotEnv     string
	DBPath     string
	LogLevel   string
}

// NewApp loads configuration and builds a stderr logger.
func NewApp(opts Options, out io.Writer) (*App, error) {
	path := opts.ConfigPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.LoadFrom(path, opts.DotEnv)
	if err != nil {
		return nil, err
	}
	if opts.DBPath != "" {
		cfg.DBPath = opts.DBPath
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	return &App{
		Config:  cfg,
		Logger:  logging.New(cfg.LogLevel, os.Stderr),
		Metrics: metrics.New(),
		Out:     out,
	}, nil
}

// LogToFile redirects logging to the XDG log file, for commands that own the terminal.
func (a *App) LogToFile() error {
	f, err := logging.OpenFile(config.LogPath())
	if err != nil {
		return err
	}
	a.closers = append(a.closers, f.Close)
	a.Logger = logging.New(a.Config.LogLevel, f)
	return nil
}

// Database opens the local history database.
func (a *App) Database() (*sql.DB, error) {
	if a.database != nil {
		return a.database, nil
	}
	database, err := db.OpenDatabase(a.Config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.Logger.Debug("opened database", "path", a.Config.DBPath)
	a.database = database
	a.closers = append(a.closers, database.Close)
	return database, nil
}

// Charm opens the charm KV mirror.
func (a *App) Charm() (*charm.Client, error) {
	if a.charm != nil {
		return a.charm, nil
	}
	c, err := charm.NewClient(charm.ConfigFrom(a.Config.Sync))
	if err != nil {
		return nil, err
	}
	a.charm = c
	a.closers = append(a.closers, c.Close)
	return c, nil
}

// API returns a back-office client authenticated from config or the stored login.
func (a *App) API(ctx context.Context) (*api.Client, error) {
	if err := a.Config.Validate(); err != nil {
		return nil, err
	}
	stored, err := config.LoadToken(config.TokenPath())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		a.Logger.Warn("ignoring unreadable login token", "err", err)
		stored = nil
	}
	return api.FromConfig(ctx, a.Config.API, stored,
		api.WithLogger(a.Logger),
		api.WithMetrics(a.Metrics),
	), nil
}

// Sessions returns the local session repository.
func (a *App) Sessions() (*db.SessionRepository, error) {
	database, err := a.Database()
	if err != nil {
		return nil, err
	}
	return db.NewSessionRepository(database), nil
}

// Submissions returns the local submission history.
func (a *App) Submissions() (*db.SubmissionRepository, error) {
	database, err := a.Database()
	if err != nil {
		return nil, err
	}
	return db.NewSubmissionRepository(database), nil
}

// SessionStore returns the store wizard snapshots go to: the local database,
// mirrored to charm when sync is enabled. A charm failure only disables the mirror.
func (a *App) SessionStore() (wizard.Store, error) {
	sessions, err := a.Sessions()
	if err != nil {
		return nil, err
	}
	if !a.Config.Sync.Enabled {
		return sessions, nil
	}
	c, err := a.Charm()
	if err != nil {
		a.Logger.Warn("charm sync unavailable, keeping sessions local", "err", err)
		return sessions, nil
	}
	return wizard.Mirror(sessions, charm.NewSessionStore(c)), nil
}

// Finalizer returns a proposal finalizer that records attempts locally.
func (a *App) Finalizer(creator proposal.Creator) (*proposal.Finalizer, error) {
	submissions, err := a.Submissions()
	if err != nil {
		return nil, err
	}
	return proposal.NewFinalizer(creator, a.Logger,
		proposal.WithRecorder(submissions),
		proposal.WithObserver(a.Metrics.ObserveSubmission),
	), nil
}

// NewWorkflow starts or resumes a wizard bound to the session store.
func (a *App) NewWorkflow(ctx context.Context, resumeID string) (*wizard.Workflow, error) {
	store, err := a.SessionStore()
	if err != nil {
		return nil, err
	}
	var w *wizard.Workflow
	if resumeID != "" {
		w, err = wizard.ResumeWorkflow(ctx, store, resumeID, a.Logger)
		if err != nil {
			return nil, err
		}
	} else {
		w = wizard.NewWorkflow(store, a.Logger)
	}
	w.Observe(a.Metrics.ObserveTransition)
	return w, nil
}

// Close releases everything opened by the app, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
