package output

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/pricemap/internal/history"
	"github.com/agentstation/pricemap/pkg/aggregator"
	"github.com/agentstation/pricemap/pkg/pricing"
)

// Records renders pricing records as a table of key, provider, type and
// price.
type Records []pricing.Record

// Table implements Tabular.
func (rs Records) Table() Data {
	data := Data{
		Headers:         []string{"key", "provider", "service_type", "price", "unit", "modalities"},
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignLeft, AlignLeft},
	}
	for _, r := range rs {
		data.Rows = append(data.Rows, []string{
			r.Key,
			string(r.ProviderID),
			string(r.ServiceType),
			price(r),
			r.Unit,
			strings.Join(r.Modalities, ", "),
		})
	}
	return data
}

// Value implements Tabular.
func (rs Records) Value() any {
	if rs == nil {
		return []pricing.Record{}
	}
	return []pricing.Record(rs)
}

// Record renders one record as property/value rows.
type Record pricing.Record

// Table implements Tabular.
func (r Record) Table() Data {
	rows := [][]string{
		{"key", r.Key},
		{"provider", string(r.ProviderID)},
		{"service_type", string(r.ServiceType)},
		{"price", price(pricing.Record(r))},
		{"unit", r.Unit},
		{"currency", r.Currency},
		{"modalities", strings.Join(r.Modalities, ", ")},
	}
	if r.CanonicalID != "" {
		rows = append(rows, []string{"canonical_id", r.CanonicalID})
	}
	if r.Description != "" {
		rows = append(rows, []string{"description", r.Description})
	}
	if r.SourceURL != "" {
		rows = append(rows, []string{"source_url", r.SourceURL})
	}
	rows = append(rows, []string{"last_updated", formatTime(r.LastUpdated)})
	for i := range rows {
		rows[i][0] = Title(rows[i][0])
	}
	return Data{Headers: []string{"property", "value"}, Rows: rows}
}

// Value implements Tabular.
func (r Record) Value() any {
	return pricing.Record(r)
}

// Report renders a refresh report as one row per provider.
type Report struct {
	*aggregator.Report
}

// Table implements Tabular.
func (r Report) Table() Data {
	data := Data{Headers: []string{"provider", "result", "detail"}}
	if r.Report == nil {
		return data
	}
	for _, id := range r.Succeeded {
		data.Rows = append(data.Rows, []string{string(id), "ok", ""})
	}
	for _, f := range r.Failed {
		result := "failed"
		if f.Timeout {
			result = "timeout"
		}
		data.Rows = append(data.Rows, []string{string(f.Provider), result, f.Error})
	}
	data.Rows = append(data.Rows, []string{
		"total",
		strconv.Itoa(r.RecordCount) + " records",
		fmt.Sprintf("run %s in %s", r.RunID, r.Duration().Round(time.Millisecond)),
	})
	return data
}

// Value implements Tabular.
func (r Report) Value() any {
	return r.Report
}

// Runs renders run history entries, newest first.
type Runs []history.Entry

// Table implements Tabular.
func (rs Runs) Table() Data {
	data := Data{
		Headers:         []string{"run_id", "trigger", "outcome", "started_at", "records", "failed"},
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignLeft},
	}
	for _, e := range rs {
		failed := make([]string, 0, len(e.Failed))
		for _, f := range e.Failed {
			failed = append(failed, string(f.Provider))
		}
		outcome := e.Outcome
		if e.Error != "" {
			outcome = "error"
		}
		data.Rows = append(data.Rows, []string{
			e.RunID,
			e.Trigger,
			outcome,
			formatTime(e.StartedAt),
			strconv.Itoa(e.RecordCount),
			strings.Join(failed, ", "),
		})
	}
	return data
}

// Value implements Tabular.
func (rs Runs) Value() any {
	if rs == nil {
		return []history.Entry{}
	}
	return []history.Entry(rs)
}

func price(r pricing.Record) string {
	switch {
	case r.HasPrice():
		return "$" + r.Price.String()
	case r.Display != "":
		return r.Display
	default:
		return "-"
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
