// Package aggregator runs every registered adapter concurrently and merges
// their output into one pricing catalog.
//
// Each adapter call gets its own timeout. A failure of any kind (returned
// error, deadline, panic) is recorded in the run report and never aborts
// the run. Merge precedence follows registration order, not completion
// order, so the same adapter outputs always yield the same catalog.
package aggregator

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/agentstation/pricemap/pkg/constants"
	"github.com/agentstation/pricemap/pkg/errors"
	"github.com/agentstation/pricemap/pkg/logging"
	"github.com/agentstation/pricemap/pkg/pricing"
	"github.com/agentstation/pricemap/pkg/sources"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HintLookup supplies static capability data for records that lack it.
type HintLookup interface {
	Lookup(provider pricing.ProviderID, key string) (pricing.Hint, bool)
}

// Aggregator executes refresh runs over a fixed adapter registry.
// It holds no per-run state and is safe for concurrent use.
type Aggregator struct {
	registry      *sources.Registry
	timeout       time.Duration
	maxConcurrent int
	hints         HintLookup
	now           func() time.Time
	logger        *zerolog.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator) error

// WithTimeout sets the per-adapter timeout.
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) error {
		if d <= 0 {
			return errors.NewValidationError("adapter_timeout", d, "must be positive")
		}
		a.timeout = d
		return nil
	}
}

// WithMaxConcurrent caps the number of adapters fetching at once.
// Zero means one goroutine per adapter.
func WithMaxConcurrent(n int) Option {
	return func(a *Aggregator) error {
		if n < 0 {
			return errors.NewValidationError("max_concurrent", n, "must not be negative")
		}
		a.maxConcurrent = n
		return nil
	}
}

// WithHints sets the capability hint table used during normalization.
func WithHints(h HintLookup) Option {
	return func(a *Aggregator) error {
		a.hints = h
		return nil
	}
}

// WithClock overrides the merge timestamp source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) error {
		if now != nil {
			a.now = now
		}
		return nil
	}
}

// WithLogger sets the logger used when the run context carries none.
func WithLogger(l *zerolog.Logger) Option {
	return func(a *Aggregator) error {
		a.logger = l
		return nil
	}
}

// New creates an Aggregator over registry.
func New(registry *sources.Registry, opts ...Option) (*Aggregator, error) {
	if registry == nil {
		return nil, errors.NewValidationError("registry", nil, "must not be nil")
	}
	a := &Aggregator{
		registry:      registry,
		timeout:       constants.AdapterTimeout,
		maxConcurrent: constants.MaxConcurrentAdapters,
		now:           func() time.Time { return time.Now().UTC() },
		logger:        logging.Default(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Registry returns the adapter registry.
func (a *Aggregator) Registry() *sources.Registry {
	return a.registry
}

// Run executes one refresh run.
//
// The returned catalog is always non-nil when err is nil, even if every
// adapter failed. err is non-nil only when ctx ends before the adapters
// have been collected; the partial results are then discarded.
func (a *Aggregator) Run(ctx context.Context) (*pricing.Catalog, *Report, error) {
	report := &Report{
		RunID:     uuid.New().String(),
		StartedAt: a.now(),
		Succeeded: []pricing.ProviderID{},
		Failed:    []Failure{},
	}

	if logging.FromContext(ctx) == logging.Default() && a.logger != nil {
		ctx = logging.WithLogger(ctx, a.logger)
	}
	ctx = logging.WithRunID(ctx, report.RunID)
	logger := logging.FromContext(ctx)
	logger.Info().Int("adapters", a.registry.Len()).Msg("Refresh run started")

	outcomes := a.collect(ctx, a.registry.Adapters())

	if err := ctx.Err(); err != nil {
		report.FinishedAt = a.now()
		return nil, report, errors.NewMergeError("aggregate", "", err)
	}

	mergedAt := a.now()
	records := make(map[string]pricing.Record)
	owner := make(map[string]pricing.ProviderID)
	for _, o := range outcomes {
		if o.err != nil {
			report.Failed = append(report.Failed, newFailure(o.provider, o.err))
			continue
		}
		report.Succeeded = append(report.Succeeded, o.provider)
		for _, key := range sortedKeys(o.records) {
			if prev, ok := owner[key]; ok && prev != o.provider {
				report.Overrides = append(report.Overrides, Override{Key: key, From: prev, To: o.provider})
			}
			records[key] = a.normalize(key, o.provider, o.records[key], mergedAt)
			owner[key] = o.provider
		}
	}

	catalog := pricing.NewCatalog(records)
	report.RecordCount = catalog.Len()
	report.FinishedAt = a.now()

	level := zerolog.InfoLevel
	if len(report.Failed) > 0 {
		level = zerolog.WarnLevel
	}
	logger.WithLevel(level).
		Strs("failed", report.FailedIDs()).
		Int("records", report.RecordCount).
		Int("succeeded", len(report.Succeeded)).
		Int("overrides", len(report.Overrides)).
		Dur("duration", report.Duration()).
		Msg("Refresh run finished")

	return catalog, report, nil
}

// normalize fills the fields the aggregator owns. The input record is not
// modified; modalities are copied before sorting.
func (a *Aggregator) normalize(key string, provider pricing.ProviderID, r pricing.Record, mergedAt time.Time) pricing.Record {
	r.Key = key
	if r.ProviderID == "" {
		r.ProviderID = provider
	}
	if r.LastUpdated.IsZero() {
		r.LastUpdated = mergedAt
	}

	if a.hints != nil && (len(r.Modalities) == 0 || r.ServiceType == "") {
		if hint, ok := a.hints.Lookup(r.ProviderID, key); ok {
			if len(r.Modalities) == 0 {
				r.Modalities = hint.Modalities
			}
			if r.ServiceType == "" {
				r.ServiceType = hint.ServiceType
			}
		}
	}

	modalities := slices.Clone(r.Modalities)
	slices.Sort(modalities)
	r.Modalities = slices.Compact(modalities)
	if r.Modalities == nil {
		r.Modalities = []string{}
	}
	return r
}

func sortedKeys(m map[string]pricing.Record) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func newFailure(provider pricing.ProviderID, err error) Failure {
	return Failure{Provider: provider, Error: err.Error(), Timeout: errors.IsTimeout(err), Err: err}
}

// String summarizes a failure for logs and CLI output.
func (f Failure) String() string {
	return fmt.Sprintf("%s: %s", f.Provider, f.Error)
}
