// Package app provides the application context and dependency management
// for the pricemap CLI.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/agentstation/pricemap"
	"github.com/agentstation/pricemap/internal/cmd/application"
	"github.com/agentstation/pricemap/internal/hints"
	"github.com/agentstation/pricemap/internal/history"
	"github.com/agentstation/pricemap/internal/sources/providers"
	"github.com/agentstation/pricemap/pkg/errors"
	"github.com/agentstation/pricemap/pkg/pricing"
	"github.com/agentstation/pricemap/pkg/sources"
)

var _ application.Application = (*App)(nil)

// App holds configuration, logging and the lazily created client and
// history database.
type App struct {
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	mu       sync.Mutex
	client   pricemap.Client
	history  *history.DB
	adapters []sources.Adapter
}

// New creates an App with configuration loaded from the environment.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Output
}

// History opens the run history database on first use. It returns nil
// when history is disabled.
func (a *App) History() (*history.DB, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.historyLocked()
}

func (a *App) historyLocked() (*history.DB, error) {
	if a.history != nil || a.config.HistoryDB == "" {
		return a.history, nil
	}
	db, err := history.Open(a.config.HistoryDB)
	if err != nil {
		return nil, errors.WrapResource("open", "history", a.config.HistoryDB, err)
	}
	a.history = db
	return db, nil
}

// Client returns the pricing client, creating it on first use. Runs are
// recorded in the history database when one is configured.
func (a *App) Client() (pricemap.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	opts, err := a.clientOptions()
	if err != nil {
		return nil, err
	}
	client, err := pricemap.New(opts...)
	if err != nil {
		return nil, errors.WrapResource("create", "pricemap client", "", err)
	}

	db, err := a.historyLocked()
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	if db != nil {
		client.OnRefreshCompleted(a.recordRun(db))
	}

	a.client = client
	return client, nil
}

func (a *App) clientOptions() ([]pricemap.Option, error) {
	table, err := hints.Default()
	if err != nil {
		return nil, errors.WrapResource("load", "hints", "", err)
	}

	adapters := a.adapters
	if adapters == nil {
		adapters = providers.Default(providers.Config{
			RequestsPerSecond: a.config.HTTPRate,
			GeminiAPIKey:      a.config.GeminiAPIKey,
			RunwayAPIKey:      a.config.RunwayAPIKey,
		})
	}

	ids := make([]pricing.ProviderID, len(a.config.Providers))
	for i, p := range a.config.Providers {
		ids[i] = pricing.ProviderID(p)
	}

	return []pricemap.Option{
		pricemap.WithAdapters(adapters...),
		pricemap.WithProviders(ids...),
		pricemap.WithDataFile(a.config.DataFile),
		pricemap.WithHints(table),
		pricemap.WithLogger(a.logger),
		pricemap.WithRefreshInterval(a.config.RefreshInterval),
		pricemap.WithAdapterTimeout(a.config.AdapterTimeout),
		pricemap.WithAutoRefresh(false),
	}, nil
}

func (a *App) recordRun(db *history.DB) pricemap.RefreshCompletedHook {
	return func(result pricemap.RefreshResult) {
		entry := history.FromReport(string(result.Trigger), string(result.Outcome), result.Report, result.Err)
		if err := db.Record(context.Background(), entry); err != nil {
			a.logger.Warn().Err(err).Str("run_id", entry.RunID).Msg("Failed to record run history")
		}
	}
}

// Shutdown stops the client and closes the history database.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var firstErr error
	if a.client != nil {
		if err := a.client.Close(); err != nil {
			firstErr = err
		}
		a.client = nil
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		a.history = nil
	}
	return firstErr
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithAdapters replaces the built-in provider adapters.
func WithAdapters(adapters ...sources.Adapter) Option {
	return func(a *App) error {
		a.adapters = adapters
		return nil
	}
}
