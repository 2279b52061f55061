// Package testhelper provides fixtures and fake endpoints for adapter tests.
package testhelper

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/agentstation/pricemap/internal/transport"
)

// LoadTestdata loads a file from the caller's testdata directory.
func LoadTestdata(t *testing.T, filename string) []byte {
	t.Helper()

	path := filepath.Join("testdata", filename)
	data, err := os.ReadFile(path) //nolint:gosec // Test file paths are controlled
	if err != nil {
		t.Fatalf("Failed to load testdata file %s: %v", path, err)
	}
	return data
}

// Serve starts a server that answers every request with status and body.
func Serve(t *testing.T, status int, body []byte) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// ServeFile serves a testdata file with status 200.
func ServeFile(t *testing.T, filename string) *httptest.Server {
	t.Helper()
	return Serve(t, http.StatusOK, LoadTestdata(t, filename))
}

// Client returns a transport client with rate limiting disabled.
func Client() *transport.Client {
	return transport.New(transport.WithRateLimit(0))
}
