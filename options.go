package pricemap

import (
	"time"

	"github.com/agentstation/pricemap/pkg/aggregator"
	"github.com/agentstation/pricemap/pkg/constants"
	"github.com/agentstation/pricemap/pkg/errors"
	"github.com/agentstation/pricemap/pkg/logging"
	"github.com/agentstation/pricemap/pkg/pricing"
	"github.com/agentstation/pricemap/pkg/sources"
	"github.com/rs/zerolog"
)

// Option is a function that configures a Client.
type Option func(*options) error

type options struct {
	adapters       []sources.Adapter
	providers      []pricing.ProviderID
	dataFile       string
	hints          aggregator.HintLookup
	logger         *zerolog.Logger
	autoRefresh    bool
	interval       time.Duration
	adapterTimeout time.Duration
	runTimeout     time.Duration
	maxConcurrent  int
}

func defaults() *options {
	return &options{
		dataFile:       constants.DefaultDataFile,
		logger:         logging.Default(),
		autoRefresh:    true,
		interval:       constants.DefaultRefreshInterval,
		adapterTimeout: constants.AdapterTimeout,
		runTimeout:     constants.RefreshRunTimeout,
		maxConcurrent:  constants.MaxConcurrentAdapters,
	}
}

func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithAdapters sets the adapters in merge order. Later adapters win on
// key collisions.
func WithAdapters(adapters ...sources.Adapter) Option {
	return func(o *options) error {
		o.adapters = append(o.adapters, adapters...)
		return nil
	}
}

// WithProviders limits the client to the adapters with these IDs, keeping
// their registration order. No IDs means every adapter. An ID with no
// adapter makes New fail.
func WithProviders(ids ...pricing.ProviderID) Option {
	return func(o *options) error {
		o.providers = append(o.providers, ids...)
		return nil
	}
}

// WithDataFile sets the catalog file. An empty path disables persistence.
func WithDataFile(path string) Option {
	return func(o *options) error {
		o.dataFile = path
		return nil
	}
}

// WithHints sets the capability hint table.
func WithHints(h aggregator.HintLookup) Option {
	return func(o *options) error {
		o.hints = h
		return nil
	}
}

// WithLogger sets the logger for the client and its components.
func WithLogger(l *zerolog.Logger) Option {
	return func(o *options) error {
		if l == nil {
			return errors.NewValidationError("logger", nil, "must not be nil")
		}
		o.logger = l
		return nil
	}
}

// WithAutoRefresh configures whether the scheduler starts with the client.
func WithAutoRefresh(enabled bool) Option {
	return func(o *options) error {
		o.autoRefresh = enabled
		return nil
	}
}

// WithRefreshInterval sets the wait between the end of one run and the
// start of the next.
func WithRefreshInterval(interval time.Duration) Option {
	return func(o *options) error {
		if interval <= 0 {
			return errors.NewValidationError("refresh_interval", interval, "must be positive")
		}
		o.interval = interval
		return nil
	}
}

// WithAdapterTimeout sets the per-adapter timeout.
func WithAdapterTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.NewValidationError("adapter_timeout", d, "must be positive")
		}
		o.adapterTimeout = d
		return nil
	}
}

// WithRunTimeout bounds a whole refresh run.
func WithRunTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.NewValidationError("run_timeout", d, "must be positive")
		}
		o.runTimeout = d
		return nil
	}
}

// WithMaxConcurrent caps concurrent adapter calls; zero means no cap.
func WithMaxConcurrent(n int) Option {
	return func(o *options) error {
		o.maxConcurrent = n
		return nil
	}
}
