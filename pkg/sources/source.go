// Package sources defines the contract every pricing data source satisfies
// and the ordered registry the aggregator runs.
//
// Adapters are registered once, at construction time, and their order is
// significant: when two adapters return the same key, the one registered
// later wins.
//
//	static := sources.Func{
//	    Provider: "openai",
//	    FetchFn: func(ctx context.Context) (map[string]pricing.Record, error) {
//	        return fetchStatic(ctx)
//	    },
//	}
//	reg, err := sources.NewRegistry(static)
//	if err != nil {
//	    return err
//	}
//	for _, a := range reg.Adapters() {
//	    fmt.Println(a.ID())
//	}
package sources

import (
	"context"
	"fmt"
	"slices"

	"github.com/agentstation/pricemap/pkg/errors"
	"github.com/agentstation/pricemap/pkg/pricing"
)

// Adapter fetches pricing records from one provider.
//
// Fetch must honor ctx cancellation, must not share mutable state with
// other adapters, and must be safe to call repeatedly. Returned keys are
// adapter-local; uniqueness across adapters is the aggregator's concern.
type Adapter interface {
	ID() pricing.ProviderID
	Fetch(ctx context.Context) (map[string]pricing.Record, error)
}

// Func adapts a plain function to the Adapter interface.
type Func struct {
	Provider pricing.ProviderID
	FetchFn  func(ctx context.Context) (map[string]pricing.Record, error)
}

// ID implements Adapter.
func (f Func) ID() pricing.ProviderID {
	return f.Provider
}

// Fetch implements Adapter.
func (f Func) Fetch(ctx context.Context) (map[string]pricing.Record, error) {
	if f.FetchFn == nil {
		return map[string]pricing.Record{}, nil
	}
	return f.FetchFn(ctx)
}

// Registry is a fixed, ordered set of adapters.
type Registry struct {
	adapters []Adapter
}

// NewRegistry validates adapters and returns them as a registry.
// Nil adapters, empty IDs and duplicate IDs are rejected.
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	seen := make(map[pricing.ProviderID]struct{}, len(adapters))
	for i, a := range adapters {
		if a == nil {
			return nil, errors.NewValidationError("adapters", i, fmt.Sprintf("adapter at position %d is nil", i))
		}
		id := a.ID()
		if id == "" {
			return nil, errors.NewValidationError("adapters", i, fmt.Sprintf("adapter at position %d has an empty ID", i))
		}
		if _, dup := seen[id]; dup {
			return nil, errors.NewValidationError("adapters", id, fmt.Sprintf("adapter %s registered twice", id))
		}
		seen[id] = struct{}{}
	}
	return &Registry{adapters: slices.Clone(adapters)}, nil
}

// Adapters returns the adapters in registration order.
func (r *Registry) Adapters() []Adapter {
	return slices.Clone(r.adapters)
}

// IDs returns adapter IDs in registration order.
func (r *Registry) IDs() []pricing.ProviderID {
	ids := make([]pricing.ProviderID, len(r.adapters))
	for i, a := range r.adapters {
		ids[i] = a.ID()
	}
	return ids
}

// Len returns the number of registered adapters.
func (r *Registry) Len() int {
	return len(r.adapters)
}

// Get returns the adapter registered under id.
func (r *Registry) Get(id pricing.ProviderID) (Adapter, bool) {
	i := slices.IndexFunc(r.adapters, func(a Adapter) bool { return a.ID() == id })
	if i < 0 {
		return nil, false
	}
	return r.adapters[i], true
}

// Only returns a registry restricted to ids, keeping registration order.
// Unknown IDs produce a NotFoundError.
func (r *Registry) Only(ids ...pricing.ProviderID) (*Registry, error) {
	if len(ids) == 0 {
		return r, nil
	}
	for _, id := range ids {
		if _, ok := r.Get(id); !ok {
			return nil, errors.NewNotFoundError("adapter", string(id))
		}
	}
	kept := make([]Adapter, 0, len(ids))
	for _, a := range r.adapters {
		if slices.Contains(ids, a.ID()) {
			kept = append(kept, a)
		}
	}
	return &Registry{adapters: kept}, nil
}
