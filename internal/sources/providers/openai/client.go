// Package openai scrapes the OpenAI pricing page.
package openai

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/agentstation/pricemap/internal/htmlutil"
	"github.com/agentstation/pricemap/internal/transport"
	"github.com/agentstation/pricemap/pkg/pricing"
)

// PricingURL is the page scraped by default.
const PricingURL = "https://openai.com/pricing"

// Client implements sources.Adapter for OpenAI.
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

// NewClient creates an OpenAI adapter using tc for requests.
func NewClient(tc *transport.Client, opts ...Option) *Client {
	c := &Client{http: tc, url: PricingURL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID implements sources.Adapter.
func (c *Client) ID() pricing.ProviderID {
	return pricing.ProviderOpenAI
}

// Fetch scans every table on the page. Tables with a "Model" column are
// priced per API call; anything else is recorded as other_service.
func (c *Client) Fetch(ctx context.Context) (map[string]pricing.Record, error) {
	page, err := c.http.Page(ctx, string(c.ID()), c.url)
	if err != nil {
		return nil, err
	}

	now := c.now().UTC()
	records := make(map[string]pricing.Record)
	page.Doc.Find("table").Each(func(_ int, s *goquery.Selection) {
		table := htmlutil.ParseTable(s)
		if len(table.Headers) == 0 {
			return
		}
		serviceType := pricing.ServiceTypeOther
		if table.HasHeader("Model") {
			serviceType = pricing.ServiceTypeAPIEndpoint
		}

		for _, row := range table.Records() {
			key := row["Model"]
			if key == "" {
				key = row[table.Headers[0]]
			}
			if key == "" {
				continue
			}
			rec := pricing.Record{
				Key:         key,
				ProviderID:  pricing.ProviderOpenAI,
				ServiceType: serviceType,
				Raw:         make(map[string]any, len(row)),
				SourceURL:   c.url,
				LastUpdated: now,
			}
			for k, v := range row {
				rec.Raw[k] = v
			}
			setPrice(&rec, table.Headers, row)
			records[key] = rec
		}
	})
	return records, nil
}

// setPrice takes the first cell, in column order, that holds a dollar
// amount.
func setPrice(rec *pricing.Record, headers []string, row map[string]string) {
	for _, h := range headers[1:] {
		p, ok := htmlutil.ParsePrice(row[h])
		if !ok {
			continue
		}
		amount := p.Amount
		rec.Price = &amount
		rec.Unit = p.Unit
		rec.Currency = p.Currency
		rec.Display = row[h]
		return
	}
}
