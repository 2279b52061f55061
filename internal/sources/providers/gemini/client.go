// Package gemini scrapes the Gemini API pricing page. Each model heading
// followed by a pricing table becomes one record. When an API key is
// configured, records are enriched with model metadata from the Gemini
// API.
package gemini

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/agentstation/pricemap/internal/htmlutil"
	"github.com/agentstation/pricemap/internal/transport"
	"github.com/agentstation/pricemap/pkg/logging"
	"github.com/agentstation/pricemap/pkg/pricing"
)

// PricingURL is the page scraped by default.
const PricingURL = "https://ai.google.dev/pricing"

// Modalities are the inputs Gemini models accept, all producing text.
var Modalities = []string{"text-to-text", "image-to-text", "audio-to-text", "video-to-text"}

// Client implements sources.Adapter for Gemini.
type Client struct {
	http   *transport.Client
	url    string
	models ModelLister
	now    func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithURL overrides the pricing page URL.
func WithURL(url string) Option {
	return func(c *Client) { c.url = url }
}

// WithAPIKey enables enrichment through the Gemini API.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if key != "" {
			c.models = NewGenAILister(key)
		}
	}
}

// WithModelLister sets the metadata source used for enrichment.
func WithModelLister(l ModelLister) Option {
	return func(c *Client) { c.models = l }
}

// NewClient creates a Gemini adapter.
func NewClient(tc *transport.Client, opts ...Option) *Client {
	c := &Client{http: tc, url: PricingURL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID implements sources.Adapter.
func (c *Client) ID() pricing.ProviderID {
	return pricing.ProviderGemini
}

// Fetch pairs every h2/h3 with the next table in the document. Headings
// that share a table each get a record for it.
func (c *Client) Fetch(ctx context.Context) (map[string]pricing.Record, error) {
	page, err := c.http.Page(ctx, string(c.ID()), c.url)
	if err != nil {
		return nil, err
	}

	now := c.now().UTC()
	records := make(map[string]pricing.Record)
	var pending []string
	page.Doc.Find("h2, h3, table").Each(func(_ int, s *goquery.Selection) {
		if !s.Is("table") {
			if name := htmlutil.Text(s); name != "" {
				pending = append(pending, name)
			}
			return
		}
		rows := tableRows(htmlutil.ParseTable(s))
		for _, model := range pending {
			if len(rows) == 0 {
				break
			}
			records[model] = pricing.Record{
				Key:         model,
				ProviderID:  pricing.ProviderGemini,
				ServiceType: pricing.ServiceTypeAPIEndpoint,
				Modalities:  Modalities,
				Raw:         rows,
				SourceURL:   c.url,
				LastUpdated: now,
			}
		}
		pending = pending[:0]
	})

	if c.models != nil && len(records) > 0 {
		if err := c.enrich(ctx, records); err != nil {
			logging.FromContext(ctx).Warn().Err(err).Msg("Model metadata unavailable")
		}
	}
	return records, nil
}

// tableRows keys each row by its first cell and maps the remaining
// headers to the row's values.
func tableRows(t htmlutil.Table) map[string]any {
	rows := make(map[string]any)
	for _, cols := range t.Rows {
		if len(cols) != len(t.Headers) || len(cols) == 0 {
			continue
		}
		row := make(map[string]any, len(cols)-1)
		for i, h := range t.Headers[1:] {
			row[h] = cols[i+1]
		}
		rows[cols[0]] = row
	}
	return rows
}

// enrich fills description and canonical id from the model list, matching
// a heading against a model's display name or id.
func (c *Client) enrich(ctx context.Context, records map[string]pricing.Record) error {
	models, err := c.models.ListModels(ctx)
	if err != nil {
		return err
	}

	byName := make(map[string]ModelInfo, len(models)*2)
	for _, m := range models {
		byName[strings.ToLower(m.DisplayName)] = m
		byName[strings.ToLower(m.ID())] = m
	}
	for key, rec := range records {
		m, ok := byName[strings.ToLower(key)]
		if !ok {
			continue
		}
		rec.CanonicalID = "gemini/" + m.ID()
		if rec.Description == "" {
			rec.Description = m.Description
		}
		records[key] = rec
	}
	return nil
}
