// Package providers assembles the built-in pricing adapters.
package providers

import (
	"github.com/agentstation/pricemap/internal/sources/providers/elevenlabs"
	"github.com/agentstation/pricemap/internal/sources/providers/fal"
	"github.com/agentstation/pricemap/internal/sources/providers/gemini"
	"github.com/agentstation/pricemap/internal/sources/providers/hedra"
	"github.com/agentstation/pricemap/internal/sources/providers/openai"
	"github.com/agentstation/pricemap/internal/sources/providers/runway"
	"github.com/agentstation/pricemap/internal/transport"
	"github.com/agentstation/pricemap/pkg/sources"
)

// Config carries the credentials and transport settings adapters need.
type Config struct {
	// RequestsPerSecond limits each adapter's page requests. Zero uses the
	// transport default.
	RequestsPerSecond float64
	GeminiAPIKey      string
	RunwayAPIKey      string
}

// Default returns the built-in adapters in registration order: openai,
// fal, runway, hedra, elevenlabs, gemini. Each adapter gets its own
// transport client so rate limits apply per host.
func Default(cfg Config) []sources.Adapter {
	client := func() *transport.Client {
		if cfg.RequestsPerSecond > 0 {
			return transport.New(transport.WithRateLimit(cfg.RequestsPerSecond))
		}
		return transport.New()
	}

	return []sources.Adapter{
		openai.NewClient(client()),
		fal.NewClient(client()),
		runway.NewClient(client(), cfg.RunwayAPIKey),
		hedra.NewClient(client()),
		elevenlabs.NewClient(client()),
		gemini.NewClient(client(), gemini.WithAPIKey(cfg.GeminiAPIKey)),
	}
}
