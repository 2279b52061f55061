package aggregator

import (
	"time"

	"github.com/agentstation/pricemap/pkg/pricing"
)

// Report describes one refresh run.
type Report struct {
	RunID       string               `json:"runId" yaml:"run_id"`
	StartedAt   time.Time            `json:"startedAt" yaml:"started_at"`
	FinishedAt  time.Time            `json:"finishedAt" yaml:"finished_at"`
	Succeeded   []pricing.ProviderID `json:"succeeded" yaml:"succeeded"`
	Failed      []Failure            `json:"failed" yaml:"failed"`
	RecordCount int                  `json:"recordCount" yaml:"record_count"`
	Overrides   []Override           `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

// Failure records one adapter that did not contribute to the run.
type Failure struct {
	Provider pricing.ProviderID `json:"provider" yaml:"provider"`
	Error    string             `json:"error" yaml:"error"`
	Timeout  bool               `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Err      error              `json:"-" yaml:"-"`
}

// Override records a key produced by an earlier adapter and replaced by a
// later one.
type Override struct {
	Key  string             `json:"key" yaml:"key"`
	From pricing.ProviderID `json:"from" yaml:"from"`
	To   pricing.ProviderID `json:"to" yaml:"to"`
}

// Duration returns how long the run took.
func (r *Report) Duration() time.Duration {
	if r == nil || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// AnySucceeded reports whether at least one adapter returned records or an
// empty success.
func (r *Report) AnySucceeded() bool {
	return r != nil && len(r.Succeeded) > 0
}

// AllFailed reports whether every adapter failed.
func (r *Report) AllFailed() bool {
	return r != nil && len(r.Succeeded) == 0 && len(r.Failed) > 0
}

// FailedIDs returns the failed provider IDs in registration order.
func (r *Report) FailedIDs() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, len(r.Failed))
	for i, f := range r.Failed {
		ids[i] = string(f.Provider)
	}
	return ids
}
