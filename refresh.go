package pricemap

import (
	"context"

	"github.com/agentstation/pricemap/pkg/aggregator"
	"github.com/agentstation/pricemap/pkg/errors"
	"github.com/agentstation/pricemap/pkg/logging"
	"github.com/agentstation/pricemap/pkg/store"
)

// Compile-time interface check to ensure proper implementation.
var _ Refresher = (*client)(nil)

// RefreshStatus is the answer to a manual refresh request.
type RefreshStatus string

// Refresh statuses.
const (
	// RefreshTriggered means a new run was started.
	RefreshTriggered RefreshStatus = "refresh_triggered"
	// RefreshPending means a run was already in flight; nothing was queued.
	RefreshPending RefreshStatus = "refresh_pending"
)

// Trigger names what started a run.
type Trigger string

// Run triggers.
const (
	TriggerBoot      Trigger = "boot"
	TriggerScheduled Trigger = "scheduled"
	TriggerManual    Trigger = "manual"
	TriggerDirect    Trigger = "direct"
)

// Refresher starts refresh runs.
type Refresher interface {
	// Refresh starts a run in the background and returns immediately.
	// It never blocks on and never queues behind a running refresh.
	Refresh() RefreshStatus

	// RefreshNow runs a refresh on the calling goroutine. It returns
	// ErrRefreshInProgress if another run holds the gate.
	RefreshNow(ctx context.Context) (*aggregator.Report, error)
}

// Refresh starts a background run unless one is in flight.
func (c *client) Refresh() RefreshStatus {
	if !c.tryAcquire() {
		c.logger.Debug().Msg("Refresh requested while running")
		return RefreshPending
	}

	c.runs.Add(1)
	go func() {
		defer c.runs.Done()
		defer c.release()
		_, _ = c.execute(c.ctx, TriggerManual)
		c.notifyFinished()
	}()
	return RefreshTriggered
}

// RefreshNow runs a refresh synchronously.
func (c *client) RefreshNow(ctx context.Context) (*aggregator.Report, error) {
	if !c.tryAcquire() {
		return nil, errors.ErrRefreshInProgress
	}
	defer c.release()
	defer c.notifyFinished()
	return c.execute(ctx, TriggerDirect)
}

// notifyFinished tells the loop a run outside it ended so the countdown
// restarts. It never blocks.
func (c *client) notifyFinished() {
	select {
	case c.finished <- struct{}{}:
	default:
	}
}

func (c *client) tryAcquire() bool {
	select {
	case c.gate <- struct{}{}:
		return true
	default:
		return false
	}
}

func (c *client) release() {
	<-c.gate
}

// execute performs one run. The caller holds the gate.
func (c *client) execute(ctx context.Context, trigger Trigger) (*aggregator.Report, error) {
	ctx, cancel := context.WithTimeout(c.withLogger(ctx), c.options.runTimeout)
	defer cancel()
	ctx = logging.WithField(ctx, "trigger", string(trigger))
	logger := logging.FromContext(ctx)

	c.store.SetState(store.StateRunning)
	defer c.store.SetState(store.StateIdle)
	c.hooks.refreshStarted(trigger)

	previous := c.store.Catalog()
	catalog, report, err := c.aggregator.Run(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Refresh aborted")
		c.hooks.refreshCompleted(RefreshResult{Trigger: trigger, Report: report, Err: err})
		return report, err
	}

	outcome, err := c.store.Publish(catalog, report)
	if err != nil {
		c.hooks.refreshCompleted(RefreshResult{Trigger: trigger, Report: report, Err: err})
		return report, err
	}

	if outcome == store.Installed {
		c.hooks.catalogChanged(previous, catalog)
	}
	c.hooks.refreshCompleted(RefreshResult{Trigger: trigger, Report: report, Outcome: outcome})
	return report, nil
}
