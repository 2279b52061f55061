// Package fal covers fal.ai. The pricing page is rendered client side, so
// the adapter only checks that it is reachable and contributes no records.
package fal

import (
	"context"

	"github.com/agentstation/pricemap/internal/transport"
	"github.com/agentstation/pricemap/pkg/logging"
	"github.com/agentstation/pricemap/pkg/pricing"
)

// PricingURL is the page probed by default.
const PricingURL = "https://fal.ai/pricing"

// Client implements sources.Adapter for fal.ai.
type Client struct {
	http *transport.Client
	url  string
}

// Option configures a Client.
type Option func(*Client)

// WithURL overrides the pricing page URL.
func WithURL(url string) Option {
	return func(c *Client) { c.url = url }
}

// NewClient creates a fal.ai adapter.
func NewClient(tc *transport.Client, opts ...Option) *Client {
	c := &Client{http: tc, url: PricingURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID implements sources.Adapter.
func (c *Client) ID() pricing.ProviderID {
	return pricing.ProviderFal
}

// Fetch always returns an empty set unless ctx ended.
func (c *Client) Fetch(ctx context.Context) (map[string]pricing.Record, error) {
	if _, err := c.http.Get(ctx, string(c.ID()), c.url, nil, nil); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.FromContext(ctx).Debug().Err(err).Msg("Pricing page unreachable")
	}
	return map[string]pricing.Record{}, nil
}
