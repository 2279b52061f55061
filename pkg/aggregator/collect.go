package aggregator

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentstation/pricemap/pkg/errors"
	"github.com/agentstation/pricemap/pkg/logging"
	"github.com/agentstation/pricemap/pkg/pricing"
	"github.com/agentstation/pricemap/pkg/sources"
)

// outcome is the typed result of one adapter call.
type outcome struct {
	provider pricing.ProviderID
	records  map[string]pricing.Record
	err      error
}

// collect invokes every adapter and returns outcomes indexed by
// registration position. It returns once each adapter has either
// answered or hit its deadline.
func (a *Aggregator) collect(ctx context.Context, adapters []sources.Adapter) []outcome {
	outcomes := make([]outcome, len(adapters))

	var sem chan struct{}
	if a.maxConcurrent > 0 {
		sem = make(chan struct{}, a.maxConcurrent)
	}

	var wg sync.WaitGroup
	for i, adapter := range adapters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sem != nil {
				select {
				case sem <- struct{}{}:
					defer func() { <-sem }()
				case <-ctx.Done():
					outcomes[i] = outcome{provider: adapter.ID(), err: errors.NewAdapterError(string(adapter.ID()), "fetch", ctx.Err())}
					return
				}
			}
			outcomes[i] = a.invoke(ctx, adapter)
		}()
	}
	wg.Wait()

	return outcomes
}

// invoke runs one adapter under its own deadline. The adapter runs in a
// separate goroutine that reports into a buffered channel, so a result
// arriving after the deadline is dropped with the channel.
func (a *Aggregator) invoke(ctx context.Context, adapter sources.Adapter) outcome {
	id := adapter.ID()
	ctx = logging.WithProvider(ctx, string(id))
	logger := logging.FromContext(ctx)

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{provider: id, err: errors.NewAdapterError(string(id), "panic", fmt.Errorf("%v", r))}
			}
		}()
		records, err := adapter.Fetch(callCtx)
		if err != nil {
			done <- outcome{provider: id, err: errors.NewAdapterError(string(id), "fetch", err)}
			return
		}
		done <- outcome{provider: id, records: records}
	}()

	logger.Debug().Dur("timeout", a.timeout).Msg("Fetching")

	select {
	case o := <-done:
		if o.err != nil {
			logger.Warn().Err(o.err).Msg("Adapter failed")
		} else {
			logger.Info().Int("records", len(o.records)).Msg("Adapter finished")
		}
		return o
	case <-callCtx.Done():
		err := errors.NewAdapterError(string(id), "fetch", callCtx.Err())
		logger.Warn().Err(err).Msg("Adapter abandoned")
		return outcome{provider: id, err: err}
	}
}
