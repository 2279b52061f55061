// Package pricemap aggregates AI provider pricing into one catalog and keeps
// it fresh.
//
// A Client owns a catalog store, an aggregator over a fixed list of
// adapters, and a refresh scheduler. At most one refresh runs at a time.
// The periodic timer counts from the end of the previous run, and a fresh
// install with no persisted catalog refreshes immediately on start.
//
// Example usage:
//
//	pm, err := pricemap.New(
//	    pricemap.WithAdapters(providers.Default(providers.Config{})...),
//	    pricemap.WithDataFile("data/model_pricing.json"),
//	    pricemap.WithRefreshInterval(6*time.Hour),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer pm.Close()
//
//	pm.OnRecordAdded(func(r pricing.Record) {
//	    log.Printf("new price: %s", r.Key)
//	})
//
//	if pm.Refresh() == pricemap.RefreshPending {
//	    log.Print("a refresh is already running")
//	}
package pricemap

import (
	"context"
	"sync"

	"github.com/agentstation/pricemap/pkg/aggregator"
	"github.com/agentstation/pricemap/pkg/errors"
	"github.com/agentstation/pricemap/pkg/logging"
	"github.com/agentstation/pricemap/pkg/pricing"
	"github.com/agentstation/pricemap/pkg/sources"
	"github.com/agentstation/pricemap/pkg/store"
	"github.com/rs/zerolog"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Catalog provides read access to the published catalog.
type Catalog interface {
	// Catalog returns the active immutable catalog; never nil.
	Catalog() *pricing.Catalog

	// Get returns one record, or a NotFoundError / NotReadyError.
	Get(key string) (pricing.Record, error)

	// List returns records matching filter, sorted by key.
	List(filter pricing.Filter) []pricing.Record

	// Status reports refresh state and catalog health.
	Status() store.Status
}

// Client manages a pricing catalog with scheduled refreshes and hooks.
type Client interface {
	Catalog
	Refresher
	AutoRefresher
	Hooks

	// Providers returns the registered adapter IDs in merge order.
	Providers() []pricing.ProviderID

	// Close stops scheduled refreshes and waits for in-flight runs.
	Close() error
}

type client struct {
	options *options
	logger  *zerolog.Logger

	store      *store.Store
	aggregator *aggregator.Aggregator
	loaded     bool

	// gate has capacity 1; holding it means a run is in flight.
	gate chan struct{}
	// finished receives after every run started outside the loop so it can restart
	// its countdown.
	finished chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	runs   sync.WaitGroup

	mu       sync.Mutex
	booted   bool
	stopCh   chan struct{}
	loopDone chan struct{}

	hooks *hooks
}

// New creates a Client. The persisted catalog, if any, is loaded before
// New returns; scheduled refreshes start when auto refresh is enabled.
func New(opts ...Option) (Client, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	registry, err := sources.NewRegistry(o.adapters...)
	if err != nil {
		return nil, errors.WrapResource("create", "adapter registry", "", err)
	}
	if registry, err = registry.Only(o.providers...); err != nil {
		return nil, errors.WrapResource("select", "adapter registry", "", err)
	}

	aggOpts := []aggregator.Option{
		aggregator.WithTimeout(o.adapterTimeout),
		aggregator.WithMaxConcurrent(o.maxConcurrent),
		aggregator.WithLogger(o.logger),
	}
	if o.hints != nil {
		aggOpts = append(aggOpts, aggregator.WithHints(o.hints))
	}
	agg, err := aggregator.New(registry, aggOpts...)
	if err != nil {
		return nil, errors.WrapResource("create", "aggregator", "", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &client{
		options:    o,
		logger:     o.logger,
		store:      store.New(store.WithPath(o.dataFile), store.WithLogger(o.logger)),
		aggregator: agg,
		gate:       make(chan struct{}, 1),
		finished:   make(chan struct{}, 1),
		ctx:        ctx,
		cancel:     cancel,
		hooks:      newHooks(),
	}

	loaded, err := c.store.Load()
	if err != nil {
		c.logger.Warn().Err(err).Str("path", o.dataFile).Msg("Ignoring unreadable catalog file")
	}
	c.loaded = loaded

	if o.autoRefresh {
		if err := c.AutoRefreshOn(); err != nil {
			cancel()
			return nil, errors.WrapResource("start", "auto refresh", "", err)
		}
	}

	return c, nil
}

// Catalog returns the active catalog.
func (c *client) Catalog() *pricing.Catalog {
	return c.store.Catalog()
}

// Get returns the record under key.
func (c *client) Get(key string) (pricing.Record, error) {
	return c.store.Get(key)
}

// List returns records matching filter.
func (c *client) List(filter pricing.Filter) []pricing.Record {
	return c.store.List(filter)
}

// Status returns the store status.
func (c *client) Status() store.Status {
	return c.store.Status()
}

// Providers returns the adapter IDs in merge order.
func (c *client) Providers() []pricing.ProviderID {
	return c.aggregator.Registry().IDs()
}

// Close stops the scheduler, cancels in-flight runs and waits for them.
func (c *client) Close() error {
	c.cancel()
	err := c.AutoRefreshOff()
	c.runs.Wait()
	return err
}

// withLogger returns ctx carrying the client logger unless it has one.
func (c *client) withLogger(ctx context.Context) context.Context {
	if logging.FromContext(ctx) == logging.Default() {
		return logging.WithLogger(ctx, c.logger)
	}
	return ctx
}
