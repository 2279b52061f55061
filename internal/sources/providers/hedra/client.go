// Package hedra covers Hedra, whose pricing page needs JavaScript to
// render. The adapter reports a single placeholder record describing
// whether the page could be reached.
package hedra

import (
	"context"
	"time"

	"github.com/agentstation/pricemap/internal/transport"
	"github.com/agentstation/pricemap/pkg/pricing"
)

// PricingURL is the page probed by default.
const PricingURL = "https://hedra.com/pricing"

// Key is the only record key this adapter produces.
const Key = "hedra"

// NotParsedMessage is recorded when the page loads but holds no prices.
const NotParsedMessage = "Pricing page accessible but data not parsed"

// Client implements sources.Adapter for Hedra.
type Client struct {
	http *transport.Client
	url  string
	now  func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithURL overrides the pricing page URL.
func WithURL(url string) Option {
	return func(c *Client) { c.url = url }
}

// NewClient creates a Hedra adapter.
func NewClient(tc *transport.Client, opts ...Option) *Client {
	c := &Client{http: tc, url: PricingURL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID implements sources.Adapter.
func (c *Client) ID() pricing.ProviderID {
	return pricing.ProviderHedra
}

// Fetch returns the placeholder record. A fetch error is captured in the
// record's raw data rather than failing the adapter.
func (c *Client) Fetch(ctx context.Context) (map[string]pricing.Record, error) {
	raw := map[string]any{}
	if _, err := c.http.Get(ctx, string(c.ID()), c.url, nil, nil); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		raw["error"] = err.Error()
	} else {
		raw["message"] = NotParsedMessage
	}

	return map[string]pricing.Record{
		Key: {
			Key:         Key,
			ProviderID:  pricing.ProviderHedra,
			Modalities:  []string{"speech-to-video", "text-to-video"},
			Raw:         raw,
			SourceURL:   c.url,
			LastUpdated: c.now().UTC(),
		},
	}, nil
}
