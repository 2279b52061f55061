// Package constants holds the timeouts, limits, permissions and default
// paths shared across pricemap.
package constants

import "time"

// Timeouts and intervals.
const (
	// DefaultHTTPTimeout bounds a single outbound HTTP request.
	DefaultHTTPTimeout = 30 * time.Second

	// AdapterTimeout bounds one adapter's Fetch within a refresh run.
	AdapterTimeout = 45 * time.Second

	// RefreshRunTimeout bounds a whole refresh run, including publish.
	RefreshRunTimeout = 5 * time.Minute

	// DefaultRefreshInterval is the wait between the end of one run and
	// the start of the next.
	DefaultRefreshInterval = 6 * time.Hour

	// MinRefreshInterval rejects intervals that would hammer the sources.
	MinRefreshInterval = time.Minute

	// ShutdownTimeout bounds graceful shutdown of the HTTP server.
	ShutdownTimeout = 10 * time.Second
)

// File permissions.
const (
	DirPermissions  = 0755
	FilePermissions = 0644
)

// Limits.
const (
	// MaxConcurrentAdapters caps in-flight adapter calls; 0 means no cap.
	MaxConcurrentAdapters = 0

	// DefaultRequestsPerSecond throttles a transport client per host.
	DefaultRequestsPerSecond = 2.0

	// DefaultHistoryLimit is how many run reports are listed by default.
	DefaultHistoryLimit = 20

	// MaxHistoryLimit caps the limit query parameter.
	MaxHistoryLimit = 500

	// ChannelBufferSize sizes event channels.
	ChannelBufferSize = 256
)

// Cache settings for the query service.
const (
	CacheTTL             = 5 * time.Minute
	CacheCleanupInterval = 10 * time.Minute
)

// Default paths.
const (
	DefaultDataFile   = "data/model_pricing.json"
	DefaultHistoryDB  = "data/history.db"
	DefaultConfigName = ".pricemap"
)

// UserAgent is sent with every scrape request. Several pricing pages
// reject requests without browser-like headers.
const UserAgent = "Mozilla/5.0 (compatible; pricemap/1.0)"
