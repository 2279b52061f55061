package pricemap

import (
	"bytes"
	"encoding/json"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agentstation/pricemap/pkg/aggregator"
	"github.com/agentstation/pricemap/pkg/pricing"
	"github.com/agentstation/pricemap/pkg/store"
)

// Hook function types for catalog events.
type (
	// RecordAddedHook is called for each key new in a published catalog.
	RecordAddedHook func(record pricing.Record)

	// RecordUpdatedHook is called for each key whose record changed.
	// Changes to LastUpdated alone do not count.
	RecordUpdatedHook func(old, new pricing.Record)

	// RecordRemovedHook is called for each key missing from a published catalog.
	RecordRemovedHook func(record pricing.Record)

	// RefreshStartedHook is called when a run takes the gate.
	RefreshStartedHook func(runTrigger Trigger)

	// RefreshCompletedHook is called when a run ends, successful or not.
	RefreshCompletedHook func(result RefreshResult)
)

// Hooks registers callbacks for catalog events. Callbacks run on the
// refresh goroutine and should return quickly.
type Hooks interface {
	OnRecordAdded(fn RecordAddedHook)
	OnRecordUpdated(fn RecordUpdatedHook)
	OnRecordRemoved(fn RecordRemovedHook)
	OnRefreshStarted(fn RefreshStartedHook)
	OnRefreshCompleted(fn RefreshCompletedHook)
}

// RefreshResult summarizes one refresh run for hooks.
type RefreshResult struct {
	Trigger Trigger
	Report  *aggregator.Report
	Outcome store.Outcome
	Err     error
}

type hooks struct {
	mu               sync.RWMutex
	onRecordAdded    []RecordAddedHook
	onRecordUpdated  []RecordUpdatedHook
	onRecordRemoved  []RecordRemovedHook
	onRefreshStarted []RefreshStartedHook
	onRefreshDone    []RefreshCompletedHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnRecordAdded registers a callback for added records.
func (c *client) OnRecordAdded(fn RecordAddedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onRecordAdded = append(c.hooks.onRecordAdded, fn)
}

// OnRecordUpdated registers a callback for changed records.
func (c *client) OnRecordUpdated(fn RecordUpdatedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onRecordUpdated = append(c.hooks.onRecordUpdated, fn)
}

// OnRecordRemoved registers a callback for removed records.
func (c *client) OnRecordRemoved(fn RecordRemovedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onRecordRemoved = append(c.hooks.onRecordRemoved, fn)
}

// OnRefreshStarted registers a callback for run start.
func (c *client) OnRefreshStarted(fn RefreshStartedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onRefreshStarted = append(c.hooks.onRefreshStarted, fn)
}

// OnRefreshCompleted registers a callback for run completion.
func (c *client) OnRefreshCompleted(fn RefreshCompletedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onRefreshDone = append(c.hooks.onRefreshDone, fn)
}

func (h *hooks) refreshStarted(t Trigger) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onRefreshStarted {
		fn(t)
	}
}

func (h *hooks) refreshCompleted(result RefreshResult) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, fn := range h.onRefreshDone {
		fn(result)
	}
}

// catalogChanged diffs two catalogs and fires the record hooks in key order.
func (h *hooks) catalogChanged(old, next *pricing.Catalog) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.onRecordAdded)+len(h.onRecordUpdated)+len(h.onRecordRemoved) == 0 {
		return
	}

	for _, key := range next.Keys() {
		nr, _ := next.Get(key)
		or, existed := old.Get(key)
		switch {
		case !existed:
			for _, fn := range h.onRecordAdded {
				fn(nr)
			}
		case !sameRecord(or, nr):
			for _, fn := range h.onRecordUpdated {
				fn(or, nr)
			}
		}
	}

	for _, key := range old.Keys() {
		if _, ok := next.Get(key); !ok {
			or, _ := old.Get(key)
			for _, fn := range h.onRecordRemoved {
				fn(or)
			}
		}
	}
}

// sameRecord compares records the way they read back from the catalog
// file: prices by value, everything else by JSON encoding, LastUpdated
// ignored.
func sameRecord(a, b pricing.Record) bool {
	if !samePrice(a.Price, b.Price) {
		return false
	}
	a.LastUpdated, b.LastUpdated = time.Time{}, time.Time{}
	a.Price, b.Price = nil, nil

	aj, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bj, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(aj, bj)
}

func samePrice(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
