package pricemap

import (
	"time"

	"github.com/agentstation/pricemap/pkg/errors"
)

// Compile-time interface check to ensure proper implementation.
var _ AutoRefresher = (*client)(nil)

// AutoRefresher controls the periodic refresh loop.
type AutoRefresher interface {
	// AutoRefreshOn starts the loop. On the first start, if no persisted
	// catalog was loaded, a run begins immediately.
	AutoRefreshOn() error

	// AutoRefreshOff stops the loop and waits for it to exit. A run already
	// in progress is allowed to finish.
	AutoRefreshOff() error
}

// AutoRefreshOn starts the periodic refresh loop.
func (c *client) AutoRefreshOn() error {
	if c.options.interval <= 0 {
		return &errors.ValidationError{
			Field:   "refresh_interval",
			Value:   c.options.interval,
			Message: "refresh interval must be positive",
		}
	}

	if err := c.AutoRefreshOff(); err != nil {
		return err
	}

	c.mu.Lock()
	stop := make(chan struct{})
	done := make(chan struct{})
	c.stopCh = stop
	c.loopDone = done
	boot := !c.loaded && !c.booted
	c.booted = true
	c.mu.Unlock()

	go c.loop(stop, done, boot)
	return nil
}

// AutoRefreshOff stops the periodic refresh loop.
func (c *client) AutoRefreshOff() error {
	c.mu.Lock()
	stop, done := c.stopCh, c.loopDone
	c.stopCh, c.loopDone = nil, nil
	c.mu.Unlock()

	if stop == nil {
		return nil
	}
	close(stop)
	<-done
	return nil
}

// loop waits interval after each run, periodic or manual, before starting
// the next one.
func (c *client) loop(stop, done chan struct{}, boot bool) {
	defer close(done)

	interval := c.options.interval
	c.logger.Info().Dur("interval", interval).Bool("boot_refresh", boot).Msg("Auto refresh started")

	if boot {
		c.runScheduled(TriggerBoot)
	}

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			c.runScheduled(TriggerScheduled)
			timer.Reset(interval)
		case <-c.finished:
			timer.Reset(interval)
		case <-stop:
			c.logger.Info().Msg("Auto refresh stopped")
			return
		case <-c.ctx.Done():
			return
		}
	}
}

// runScheduled runs on the loop goroutine if the gate is free.
func (c *client) runScheduled(trigger Trigger) {
	if !c.tryAcquire() {
		c.logger.Debug().Str("trigger", string(trigger)).Msg("Skipping scheduled refresh; one is running")
		return
	}
	defer c.release()
	if _, err := c.execute(c.ctx, trigger); err != nil {
		c.logger.Error().Err(err).Str("trigger", string(trigger)).Msg("Scheduled refresh failed")
	}
}
