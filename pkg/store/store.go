// Package store holds the published pricing catalog and the refresh state.
//
// Reads load the active catalog through an atomic pointer and never block.
// Publish is serialized: it writes the catalog file first and swaps the
// pointer only after the write succeeded, so a reader sees either the
// previous complete catalog or the next one.
package store

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/agentstation/pricemap/pkg/aggregator"
	"github.com/agentstation/pricemap/pkg/errors"
	"github.com/agentstation/pricemap/pkg/logging"
	"github.com/agentstation/pricemap/pkg/pricing"
	"github.com/rs/zerolog"
)

// State is the refresh state machine position.
type State string

// Refresh states.
const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// Outcome tells the caller what Publish did with a catalog.
type Outcome string

// Publish outcomes.
const (
	// Installed means the catalog is now active.
	Installed Outcome = "installed"
	// Skipped means an empty catalog was refused because a non-empty one
	// is active.
	Skipped Outcome = "skipped"
)

// Status is a point-in-time view of the store for health reporting.
type Status struct {
	State            State                `json:"state"`
	Ready            bool                 `json:"ready"`
	Size             int                  `json:"size"`
	LastSuccessAt    *time.Time           `json:"lastSuccessAt,omitempty"`
	LastRunAt        *time.Time           `json:"lastRunAt,omitempty"`
	LastRunID        string               `json:"lastRunId,omitempty"`
	LastError        []aggregator.Failure `json:"lastError"`
	LastPublishError string               `json:"lastPublishError,omitempty"`
}

// Store owns the active catalog and its refresh state.
type Store struct {
	path   string
	logger *zerolog.Logger

	catalog atomic.Pointer[pricing.Catalog]
	status  atomic.Pointer[Status]

	// mu serializes writers; readers never take it.
	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithPath sets the file the catalog is persisted to. An empty path keeps
// the store in memory only.
func WithPath(path string) Option {
	return func(s *Store) { s.path = path }
}

// WithLogger sets the store logger.
func WithLogger(l *zerolog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates an empty, idle store.
func New(opts ...Option) *Store {
	s := &Store{logger: logging.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.catalog.Store(pricing.EmptyCatalog())
	s.status.Store(&Status{State: StateIdle, LastError: []aggregator.Failure{}})
	return s
}

// Path returns the persistence path, empty for in-memory stores.
func (s *Store) Path() string {
	return s.path
}

// Catalog returns the active catalog. It is never nil.
func (s *Store) Catalog() *pricing.Catalog {
	return s.catalog.Load()
}

// Get returns the record under key.
//
// It returns a NotReadyError while no non-empty catalog is active and a
// NotFoundError when the key is absent.
func (s *Store) Get(key string) (pricing.Record, error) {
	cat := s.catalog.Load()
	if cat.IsEmpty() {
		return pricing.Record{}, errors.NewNotReadyError("pricing catalog")
	}
	r, ok := cat.Get(key)
	if !ok {
		return pricing.Record{}, errors.NewNotFoundError("pricing record", key)
	}
	return r, nil
}

// List returns the records matching filter, sorted by key.
func (s *Store) List(filter pricing.Filter) []pricing.Record {
	return s.catalog.Load().Filter(filter)
}

// Ready reports whether a non-empty catalog is active.
func (s *Store) Ready() bool {
	return !s.catalog.Load().IsEmpty()
}

// Status returns a copy of the current status. Size and Ready are
// recorded with the rest of the status when a catalog is installed, so
// one call never mixes two publishes.
func (s *Store) Status() Status {
	return s.status.Load().clone()
}

// SetState records a refresh state transition.
func (s *Store) SetState(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateStatus(func(st *Status) { st.State = state })
}

// Publish installs catalog as the active one according to the publish
// policy and records report in the status.
//
//   - An empty catalog never replaces a non-empty one; Skipped is returned.
//   - A non-empty catalog is written to disk before it becomes visible. If
//     the write fails the previous catalog stays active and a MergeError is
//     returned.
//   - An empty catalog over an empty one is installed in memory only.
func (s *Store) Publish(catalog *pricing.Catalog, report *aggregator.Report) (Outcome, error) {
	if catalog == nil {
		catalog = pricing.EmptyCatalog()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	finished := time.Now().UTC()
	if report != nil && !report.FinishedAt.IsZero() {
		finished = report.FinishedAt
	}
	recordRun := func(st *Status) {
		st.LastRunAt = &finished
		if report != nil {
			st.LastRunID = report.RunID
			st.LastError = append([]aggregator.Failure{}, report.Failed...)
		}
	}

	current := s.catalog.Load()
	if catalog.IsEmpty() && !current.IsEmpty() {
		s.updateStatus(recordRun)
		s.logger.Warn().
			Int("current_size", current.Len()).
			Msg("Refusing to replace catalog with an empty one")
		return Skipped, nil
	}

	if !catalog.IsEmpty() {
		if err := s.persist(catalog); err != nil {
			s.updateStatus(func(st *Status) {
				recordRun(st)
				st.LastPublishError = err.Error()
			})
			s.logger.Error().Err(err).Str("path", s.path).Msg("Publish failed, keeping previous catalog")
			return "", err
		}
	}

	s.catalog.Store(catalog)
	s.updateStatus(func(st *Status) {
		recordRun(st)
		st.setCatalog(catalog)
		st.LastPublishError = ""
		if report.AnySucceeded() {
			st.LastSuccessAt = &finished
		}
	})

	s.logger.Info().
		Int("records", catalog.Len()).
		Str("path", s.path).
		Msg("Catalog published")
	return Installed, nil
}

// updateStatus applies fn to a copy of the status and stores it.
// Callers hold s.mu.
func (s *Store) updateStatus(fn func(*Status)) {
	next := s.status.Load().clone()
	fn(&next)
	s.status.Store(&next)
}

func (st *Status) setCatalog(cat *pricing.Catalog) {
	st.Size = cat.Len()
	st.Ready = !cat.IsEmpty()
}

func (st *Status) clone() Status {
	c := *st
	c.LastError = append([]aggregator.Failure{}, st.LastError...)
	return c
}
