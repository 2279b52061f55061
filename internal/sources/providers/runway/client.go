// Package runway reads organization and usage data from the Runway API.
// Runway does not publish prices through its API, so the record carries
// only the raw account data.
package runway

import (
	"context"
	"strings"
	"time"

	"github.com/agentstation/pricemap/internal/transport"
	"github.com/agentstation/pricemap/pkg/pricing"
)

const (
	// DefaultBaseURL is the Runway API host.
	DefaultBaseURL = "https://api.dev.runwayml.com"
	// APIVersion is sent in the X-Runway-Version header.
	APIVersion = "2024-11-06"
	// Key is the only record key this adapter produces.
	Key = "runway-organization"
)

// Client implements sources.Adapter for Runway.
type Client struct {
	http    *transport.Client
	apiKey  string
	baseURL string
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API host.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimSuffix(url, "/") }
}

// NewClient creates a Runway adapter. An empty apiKey makes Fetch return
// no records.
func NewClient(tc *transport.Client, apiKey string, opts ...Option) *Client {
	c := &Client{http: tc, apiKey: apiKey, baseURL: DefaultBaseURL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID implements sources.Adapter.
func (c *Client) ID() pricing.ProviderID {
	return pricing.ProviderRunway
}

// Fetch retrieves the organization and its credit usage.
func (c *Client) Fetch(ctx context.Context) (map[string]pricing.Record, error) {
	if c.apiKey == "" {
		return map[string]pricing.Record{}, nil
	}

	auth := transport.BearerAuth{Token: c.apiKey}
	headers := map[string]string{"X-Runway-Version": APIVersion}
	orgURL := c.baseURL + "/v1/organization"

	var org map[string]any
	if err := c.http.GetJSON(ctx, string(c.ID()), orgURL, auth, headers, &org); err != nil {
		return nil, err
	}
	var usage map[string]any
	if err := c.http.PostJSON(ctx, string(c.ID()), orgURL+"/usage", auth, headers, map[string]any{}, &usage); err != nil {
		return nil, err
	}

	return map[string]pricing.Record{
		Key: {
			Key:         Key,
			ProviderID:  pricing.ProviderRunway,
			ServiceType: pricing.ServiceTypeSubscription,
			Raw: map[string]any{
				"organization": org,
				"usage":        usage,
			},
			SourceURL:   orgURL,
			LastUpdated: c.now().UTC(),
		},
	}, nil
}
