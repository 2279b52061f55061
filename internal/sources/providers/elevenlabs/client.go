// Package elevenlabs scrapes subscription plans from the ElevenLabs
// pricing page.
package elevenlabs

import (
	"context"
	"regexp"
	"slices"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/pricemap/internal/htmlutil"
	"github.com/agentstation/pricemap/internal/transport"
	"github.com/agentstation/pricemap/pkg/pricing"
)

// PricingURL is the page scraped by default.
const PricingURL = "https://elevenlabs.io/pricing"

// Plans lists plan names in the order they appear on the page. Usage
// rates on the page follow the same order.
var Plans = []string{"Free", "Starter", "Creator", "Pro", "Scale", "Business"}

// usageRe matches the approximate API rate shown for each plan.
var usageRe = regexp.MustCompile(`~\$(\d+\.\d+)/minute`)

var lower = cases.Lower(language.English)

// Client implements sources.Adapter for ElevenLabs.
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

// NewClient creates an ElevenLabs adapter.
func NewClient(tc *transport.Client, opts ...Option) *Client {
	c := &Client{http: tc, url: PricingURL, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID implements sources.Adapter.
func (c *Client) ID() pricing.ProviderID {
	return pricing.ProviderElevenLabs
}

type plan struct {
	price string
	usage string
}

// Fetch returns one subscription record per plan found on the page.
func (c *Client) Fetch(ctx context.Context) (map[string]pricing.Record, error) {
	page, err := c.http.Page(ctx, string(c.ID()), c.url)
	if err != nil {
		return nil, err
	}

	plans := make(map[string]*plan)
	page.Doc.Find("div").Each(func(_ int, card *goquery.Selection) {
		name := htmlutil.TextOf(card, "h2")
		if !slices.Contains(Plans, name) {
			return
		}
		price := card.Find("span.f-heading-03").First()
		if price.Length() == 0 {
			return
		}
		plans[name] = &plan{price: htmlutil.Text(price)}
	})

	for i, m := range usageRe.FindAllStringSubmatch(page.Text(), len(Plans)) {
		name := Plans[i]
		if plans[name] == nil {
			plans[name] = &plan{}
		}
		plans[name].usage = "$" + m[1] + "/minute"
	}

	now := c.now().UTC()
	records := make(map[string]pricing.Record, len(plans))
	for name, p := range plans {
		key := "elevenlabs-" + lower.String(name)
		rec := pricing.Record{
			Key:         key,
			ProviderID:  pricing.ProviderElevenLabs,
			ServiceType: pricing.ServiceTypeSubscription,
			Modalities:  []string{"text-to-speech", "speech-to-speech"},
			Raw:         map[string]any{"Plan": name},
			SourceURL:   c.url,
			LastUpdated: now,
		}
		if p.price != "" {
			rec.Raw["Price"] = p.price
			rec.Display = p.price
			if pr, ok := htmlutil.ParsePrice(p.price); ok {
				amount := pr.Amount
				rec.Price = &amount
				rec.Unit = pr.Unit
				rec.Currency = pr.Currency
			}
		}
		if p.usage != "" {
			rec.Raw["Usage"] = p.usage
		}
		records[key] = rec
	}
	return records, nil
}
