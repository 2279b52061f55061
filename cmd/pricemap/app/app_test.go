package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/pricemap/internal/history"
	"github.com/agentstation/pricemap/pkg/aggregator"
	pkgerrors "github.com/agentstation/pricemap/pkg/errors"
	"github.com/agentstation/pricemap/pkg/logging"
	"github.com/agentstation/pricemap/pkg/pricing"
	"github.com/agentstation/pricemap/pkg/sources"
)

func testApp(t *testing.T, adapters ...sources.Adapter) *App {
	t.Helper()
	dir := t.TempDir()
	cfg := &Config{
		DataFile:        filepath.Join(dir, "model_pricing.json"),
		HistoryDB:       filepath.Join(dir, "history.db"),
		RefreshInterval: time.Hour,
		AdapterTimeout:  time.Second,
		LogLevel:        "error",
		LogOutput:       "discard",
	}
	a := &App{
		version:  "1.2.3",
		commit:   "abc",
		date:     "today",
		builtBy:  "test",
		config:   cfg,
		logger:   logging.NewNopLogger(),
		adapters: adapters,
	}
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })
	return a
}

func run(t *testing.T, a *App, args ...string) (string, error) {
	t.Helper()
	root := a.createRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func fixed(id pricing.ProviderID, keys ...string) sources.Adapter {
	return sources.Func{
		Provider: id,
		FetchFn: func(context.Context) (map[string]pricing.Record, error) {
			m := map[string]pricing.Record{}
			for _, k := range keys {
				m[k] = pricing.Record{ServiceType: pricing.ServiceTypeAPIEndpoint}
			}
			return m, nil
		},
	}
}

func failing(id pricing.ProviderID) sources.Adapter {
	return sources.Func{
		Provider: id,
		FetchFn: func(context.Context) (map[string]pricing.Record, error) {
			return nil, errors.New("unreachable")
		},
	}
}

func TestRefreshThenList(t *testing.T) {
	a := testApp(t, fixed("openai", "gpt-x", "gpt-y"), failing("hedra"))

	out, err := run(t, a, "refresh", "-o", "json")
	require.NoError(t, err)
	var report aggregator.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.RecordCount)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, pricing.ProviderID("hedra"), report.Failed[0].Provider)

	out, err = run(t, a, "list", "--provider", "openai", "-o", "json")
	require.NoError(t, err)
	var records []pricing.Record
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 2)
	assert.Equal(t, "gpt-x", records[0].Key)
}

func TestRefreshWithProviders(t *testing.T) {
	a := testApp(t, fixed("openai", "gpt-x"), failing("hedra"))

	out, err := run(t, a, "refresh", "--providers", "openai", "-o", "json")
	require.NoError(t, err)
	var report aggregator.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, []pricing.ProviderID{"openai"}, report.Succeeded)
	assert.Empty(t, report.Failed)
}

func TestGet(t *testing.T) {
	a := testApp(t, fixed("openai", "gpt-x"))

	_, err := run(t, a, "get", "gpt-x", "-o", "json")
	assert.True(t, pkgerrors.IsNotReady(err))

	_, err = run(t, a, "refresh", "-o", "json")
	require.NoError(t, err)

	out, err := run(t, a, "get", "gpt-x", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "key: gpt-x")

	_, err = run(t, a, "get", "missing")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestRunsRecordsHistory(t *testing.T) {
	a := testApp(t, fixed("openai", "gpt-x"))

	_, err := run(t, a, "refresh", "-o", "json")
	require.NoError(t, err)
	_, err = run(t, a, "refresh", "-o", "json")
	require.NoError(t, err)

	out, err := run(t, a, "runs", "-o", "json")
	require.NoError(t, err)
	var entries []history.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "direct", entries[0].Trigger)
	assert.Equal(t, "installed", entries[0].Outcome)
}

func TestRunsDisabled(t *testing.T) {
	a := testApp(t)
	a.config.HistoryDB = ""

	_, err := run(t, a, "runs")
	assert.Error(t, err)
}

func TestInvalidOutputFormat(t *testing.T) {
	a := testApp(t)
	_, err := run(t, a, "list", "-o", "xml")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	a := testApp(t)
	out, err := run(t, a, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "pricemap version 1.2.3")
	assert.Contains(t, out, "commit: abc")
}
