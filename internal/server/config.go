package server

import "time"

// Config holds server configuration.
type Config struct {
	Host string
	Port int

	// CORSOrigins restricts cross-origin reads; empty allows all origins.
	CORSOrigins []string

	// RateLimit is requests per minute per IP; 0 disables limiting.
	RateLimit int
	CacheTTL  time.Duration

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// AutoRefresh starts the periodic refresh loop when the server starts.
	AutoRefresh bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         8080,
		RateLimit:    300,
		CacheTTL:     5 * time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // event streams stay open
		IdleTimeout:  120 * time.Second,
		AutoRefresh:  true,
	}
}
