package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/PuerkitoBio/goquery"
	"github.com/agentstation/pricemap/pkg/errors"
)

// Page is an HTML response with its parsed document.
type Page struct {
	*Response
	Doc *goquery.Document
}

// Text returns the raw body as a string.
func (p *Page) Text() string {
	return string(p.Body)
}

// Page fetches and parses an HTML page.
func (c *Client) Page(ctx context.Context, provider, url string) (*Page, error) {
	resp, err := c.Get(ctx, provider, url, nil, nil)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body))
	if err != nil {
		return nil, errors.WrapParse("html", url, err)
	}
	return &Page{Response: resp, Doc: doc}, nil
}

// PostJSON sends body as JSON and decodes the JSON response into target.
func (c *Client) PostJSON(ctx context.Context, provider, url string, auth Authenticator, headers map[string]string, body, target any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.WrapParse("json", url, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return errors.WrapResource("create", "request", "POST "+url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if auth != nil {
		auth.Apply(req)
	}
	resp, err := c.Do(req, provider)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, target); err != nil {
		return errors.WrapParse("json", url, err)
	}
	return nil
}

// GetJSON fetches url and decodes the JSON body into target.
func (c *Client) GetJSON(ctx context.Context, provider, url string, auth Authenticator, headers map[string]string, target any) error {
	h := map[string]string{"Accept": "application/json"}
	for k, v := range headers {
		h[k] = v
	}
	resp, err := c.Get(ctx, provider, url, auth, h)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(resp.Body, target); err != nil {
		return errors.WrapParse("json", url, err)
	}
	return nil
}
