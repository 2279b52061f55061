package pricemap_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agentstation/pricemap"
	pkgerrors "github.com/agentstation/pricemap/pkg/errors"
	"github.com/agentstation/pricemap/pkg/logging"
	"github.com/agentstation/pricemap/pkg/pricing"
	"github.com/agentstation/pricemap/pkg/sources"
	"github.com/agentstation/pricemap/pkg/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAdapter returns whatever records is set to, counting calls.
type fakeAdapter struct {
	id    pricing.ProviderID
	calls atomic.Int32
	mu    sync.Mutex
	recs  map[string]pricing.Record
	err   error
	block chan struct{}
}

func (f *fakeAdapter) ID() pricing.ProviderID { return f.id }

func (f *fakeAdapter) Fetch(ctx context.Context) (map[string]pricing.Record, error) {
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recs, f.err
}

func (f *fakeAdapter) set(recs map[string]pricing.Record, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs, f.err = recs, err
}

func newClient(t *testing.T, opts ...pricemap.Option) pricemap.Client {
	t.Helper()
	base := []pricemap.Option{
		pricemap.WithDataFile(filepath.Join(t.TempDir(), "model_pricing.json")),
		pricemap.WithLogger(logging.NewNopLogger()),
		pricemap.WithAutoRefresh(false),
	}
	c, err := pricemap.New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestRefreshBackToBack(t *testing.T) {
	slow := &fakeAdapter{id: "slow", block: make(chan struct{}), recs: map[string]pricing.Record{"m1": {}}}
	c := newClient(t, pricemap.WithAdapters(slow))

	assert.Equal(t, pricemap.RefreshTriggered, c.Refresh())
	assert.Equal(t, pricemap.RefreshPending, c.Refresh())

	_, err := c.RefreshNow(context.Background())
	assert.True(t, pkgerrors.IsRefreshInProgress(err))

	assert.Eventually(t, func() bool { return c.Status().State == store.StateRunning }, time.Second, 5*time.Millisecond)
	close(slow.block)

	assert.Eventually(t, func() bool {
		st := c.Status()
		return st.State == store.StateIdle && st.Size == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), slow.calls.Load())

	assert.Equal(t, pricemap.RefreshTriggered, c.Refresh(), "gate is released after the run")
}

func TestRefreshNowPublishes(t *testing.T) {
	fast := &fakeAdapter{id: "fast", recs: map[string]pricing.Record{"m1": {Display: "$1"}}}
	broken := &fakeAdapter{id: "broken", err: errors.New("status 503")}
	c := newClient(t, pricemap.WithAdapters(fast, broken))

	report, err := c.RefreshNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"broken"}, report.FailedIDs())

	r, err := c.Get("m1")
	require.NoError(t, err)
	assert.Equal(t, "$1", r.Display)

	_, err = c.Get("m2")
	assert.True(t, pkgerrors.IsNotFound(err))

	st := c.Status()
	assert.Len(t, st.LastError, 1)
	assert.NotNil(t, st.LastSuccessAt)
}

func TestAllFailKeepsPreviousCatalog(t *testing.T) {
	a := &fakeAdapter{id: "a", recs: map[string]pricing.Record{"m1": {}}}
	c := newClient(t, pricemap.WithAdapters(a))

	_, err := c.RefreshNow(context.Background())
	require.NoError(t, err)
	first := c.Catalog()

	a.set(nil, errors.New("outage"))
	_, err = c.RefreshNow(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, c.Catalog())
	st := c.Status()
	require.Len(t, st.LastError, 1)
	assert.Equal(t, pricing.ProviderID("a"), st.LastError[0].Provider)
	assert.Equal(t, 1, st.Size)
}

func TestBootRefreshWithoutPersistedFile(t *testing.T) {
	a := &fakeAdapter{id: "a", recs: map[string]pricing.Record{"m1": {}}}
	c := newClient(t,
		pricemap.WithAdapters(a),
		pricemap.WithAutoRefresh(true),
		pricemap.WithRefreshInterval(time.Hour),
	)

	assert.Eventually(t, func() bool { return c.Status().Size == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), a.calls.Load())
}

func TestNoBootRefreshWithPersistedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model_pricing.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"cached":{"key":"cached","providerId":"openai","modalities":[]}}`), 0o644))

	a := &fakeAdapter{id: "a", recs: map[string]pricing.Record{"m1": {}}}
	c, err := pricemap.New(
		pricemap.WithAdapters(a),
		pricemap.WithDataFile(path),
		pricemap.WithLogger(logging.NewNopLogger()),
		pricemap.WithRefreshInterval(time.Hour),
	)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Get("cached")
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), a.calls.Load())
	assert.Equal(t, store.StateIdle, c.Status().State)
}

// timedAdapter records when each call started and ended.
type timedAdapter struct {
	mu     sync.Mutex
	starts []time.Time
	ends   []time.Time
	work   time.Duration
}

func (a *timedAdapter) ID() pricing.ProviderID { return "timed" }

func (a *timedAdapter) Fetch(context.Context) (map[string]pricing.Record, error) {
	a.mu.Lock()
	a.starts = append(a.starts, time.Now())
	a.mu.Unlock()
	time.Sleep(a.work)
	a.mu.Lock()
	a.ends = append(a.ends, time.Now())
	a.mu.Unlock()
	return map[string]pricing.Record{"m": {}}, nil
}

func TestIntervalCountsFromEndOfRun(t *testing.T) {
	interval := 40 * time.Millisecond
	a := &timedAdapter{work: 60 * time.Millisecond}
	c := newClient(t,
		pricemap.WithAdapters(a),
		pricemap.WithAutoRefresh(true),
		pricemap.WithRefreshInterval(interval),
	)

	assert.Eventually(t, func() bool {
		a.mu.Lock()
		defer a.mu.Unlock()
		return len(a.starts) >= 3
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, c.AutoRefreshOff())

	a.mu.Lock()
	defer a.mu.Unlock()
	for i := 1; i < len(a.starts) && i <= len(a.ends); i++ {
		gap := a.starts[i].Sub(a.ends[i-1])
		assert.GreaterOrEqual(t, gap, interval, "run %d started %s after previous end", i, gap)
	}
}

func TestHooks(t *testing.T) {
	a := &fakeAdapter{id: "a", recs: map[string]pricing.Record{
		"keep":   {Display: "$1", LastUpdated: time.Unix(1, 0)},
		"change": {Display: "$1"},
		"drop":   {},
	}}
	c := newClient(t, pricemap.WithAdapters(a))

	var added, updated, removed []string
	var results []pricemap.RefreshResult
	var started []pricemap.Trigger
	c.OnRecordAdded(func(r pricing.Record) { added = append(added, r.Key) })
	c.OnRecordUpdated(func(_, r pricing.Record) { updated = append(updated, r.Key) })
	c.OnRecordRemoved(func(r pricing.Record) { removed = append(removed, r.Key) })
	c.OnRefreshStarted(func(tr pricemap.Trigger) { started = append(started, tr) })
	c.OnRefreshCompleted(func(r pricemap.RefreshResult) { results = append(results, r) })

	_, err := c.RefreshNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"change", "drop", "keep"}, added)

	added = nil
	a.set(map[string]pricing.Record{
		"keep":   {Display: "$1", LastUpdated: time.Unix(2, 0)},
		"change": {Display: "$2"},
		"new":    {},
	}, nil)
	_, err = c.RefreshNow(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"new"}, added)
	assert.Equal(t, []string{"change"}, updated)
	assert.Equal(t, []string{"drop"}, removed)
	assert.Equal(t, []pricemap.Trigger{pricemap.TriggerDirect, pricemap.TriggerDirect}, started)
	require.Len(t, results, 2)
	assert.Equal(t, store.Installed, results[1].Outcome)
	assert.NoError(t, results[1].Err)
}

func TestNewRejectsDuplicateAdapters(t *testing.T) {
	_, err := pricemap.New(
		pricemap.WithAdapters(&fakeAdapter{id: "a"}, &fakeAdapter{id: "a"}),
		pricemap.WithAutoRefresh(false),
		pricemap.WithDataFile(""),
	)
	assert.True(t, pkgerrors.IsValidationError(err))

	_, err = pricemap.New(pricemap.WithRefreshInterval(0))
	assert.True(t, pkgerrors.IsValidationError(err))
}

func TestProvidersInRegistrationOrder(t *testing.T) {
	c := newClient(t, pricemap.WithAdapters(
		sources.Func{Provider: pricing.ProviderOpenAI},
		sources.Func{Provider: pricing.ProviderGemini},
	))
	assert.Equal(t, []pricing.ProviderID{"openai", "gemini"}, c.Providers())
}

func TestWithProvidersSelectsAdapters(t *testing.T) {
	openai := &fakeAdapter{id: "openai", recs: map[string]pricing.Record{"gpt": {}}}
	fal := &fakeAdapter{id: "fal", recs: map[string]pricing.Record{"flux": {}}}
	gemini := &fakeAdapter{id: "gemini", recs: map[string]pricing.Record{"pro": {}}}
	c := newClient(t,
		pricemap.WithAdapters(openai, fal, gemini),
		pricemap.WithProviders("gemini", "openai"),
	)
	assert.Equal(t, []pricing.ProviderID{"openai", "gemini"}, c.Providers())

	_, err := c.RefreshNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(0), fal.calls.Load())
	assert.Equal(t, []string{"gpt", "pro"}, c.Catalog().Keys())

	_, err = pricemap.New(
		pricemap.WithAdapters(openai),
		pricemap.WithProviders("acme"),
		pricemap.WithLogger(logging.NewNopLogger()),
		pricemap.WithAutoRefresh(false),
	)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestRestartWithSameDataFiresNoUpdates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model_pricing.json")
	price := decimal.RequireFromString("0.150")
	a := &fakeAdapter{id: "openai", recs: map[string]pricing.Record{
		"gpt-4o": {
			ServiceType: pricing.ServiceTypeAPIEndpoint,
			Display:     "$0.150",
			Price:       &price,
			Raw:         map[string]any{"tokens": 1000, "tier": "standard"},
		},
	}}
	open := func() pricemap.Client {
		c, err := pricemap.New(
			pricemap.WithAdapters(a),
			pricemap.WithDataFile(path),
			pricemap.WithLogger(logging.NewNopLogger()),
			pricemap.WithAutoRefresh(false),
		)
		require.NoError(t, err)
		return c
	}

	first := open()
	_, err := first.RefreshNow(context.Background())
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := open()
	defer second.Close()
	_, err = second.Get("gpt-4o")
	require.NoError(t, err, "catalog loaded from file")

	var updated []string
	second.OnRecordUpdated(func(_, r pricing.Record) { updated = append(updated, r.Key) })

	_, err = second.RefreshNow(context.Background())
	require.NoError(t, err)
	assert.Empty(t, updated)

	higher := decimal.RequireFromString("0.20")
	a.set(map[string]pricing.Record{
		"gpt-4o": {ServiceType: pricing.ServiceTypeAPIEndpoint, Display: "$0.20", Price: &higher, Raw: map[string]any{"tokens": 1000, "tier": "standard"}},
	}, nil)
	_, err = second.RefreshNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o"}, updated)
}

func TestDirectRunRestartsCountdown(t *testing.T) {
	interval := 300 * time.Millisecond
	a := &timedAdapter{}
	c := newClient(t,
		pricemap.WithAdapters(a),
		pricemap.WithAutoRefresh(true),
		pricemap.WithRefreshInterval(interval),
	)

	assert.Eventually(t, func() bool {
		a.mu.Lock()
		defer a.mu.Unlock()
		return len(a.ends) >= 1
	}, time.Second, 5*time.Millisecond, "boot run")

	time.Sleep(interval / 2)
	_, err := c.RefreshNow(context.Background())
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		a.mu.Lock()
		defer a.mu.Unlock()
		return len(a.starts) >= 3
	}, 3*time.Second, 5*time.Millisecond)
	require.NoError(t, c.AutoRefreshOff())

	a.mu.Lock()
	defer a.mu.Unlock()
	gap := a.starts[2].Sub(a.ends[1])
	assert.GreaterOrEqual(t, gap, interval, "scheduled run started %s after the direct run", gap)
}
