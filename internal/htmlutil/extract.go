// Package htmlutil holds the goquery helpers the scraping adapters share.
package htmlutil

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// Table is a parsed HTML table: header cells and body rows as text.
type Table struct {
	Headers []string
	Rows    [][]string
}

// ParseTable reads "thead th" as headers and "tbody tr" as rows. When
// the table has no thead, the first row is the header.
func ParseTable(table *goquery.Selection) Table {
	var t Table
	table.Find("thead th").Each(func(_ int, s *goquery.Selection) {
		t.Headers = append(t.Headers, Text(s))
	})

	rows := table.Find("tbody tr")
	if len(t.Headers) == 0 {
		all := table.Find("tr")
		if all.Length() < 2 {
			return t
		}
		all.First().Find("th, td").Each(func(_ int, s *goquery.Selection) {
			t.Headers = append(t.Headers, Text(s))
		})
		rows = all.Slice(1, all.Length())
	}

	rows.Each(func(_ int, row *goquery.Selection) {
		var cols []string
		row.Find("td").Each(func(_ int, cell *goquery.Selection) {
			cols = append(cols, Text(cell))
		})
		if len(cols) > 0 {
			t.Rows = append(t.Rows, cols)
		}
	})
	return t
}

// HasHeader reports whether the table has a header cell equal to name.
func (t Table) HasHeader(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// Records zips each row with the headers. Rows whose width differs from
// the header row are dropped.
func (t Table) Records() []map[string]string {
	if len(t.Headers) == 0 {
		return nil
	}
	var out []map[string]string
	for _, row := range t.Rows {
		if len(row) != len(t.Headers) {
			continue
		}
		m := make(map[string]string, len(row))
		for i, v := range row {
			m[t.Headers[i]] = v
		}
		out = append(out, m)
	}
	return out
}

// Text returns the selection's text with runs of whitespace collapsed.
func Text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}

// TextOf returns the collapsed text of the first element matching selector.
func TextOf(s *goquery.Selection, selector string) string {
	return Text(s.Find(selector).First())
}

// priceRe matches "$0.150", "$15.00 / 1M tokens", "$22/mo".
var priceRe = regexp.MustCompile(`\$\s*([\d,]*\.?\d+)\s*(?:(?:/|per)\s*([^\n;,()]+))?`)

// Price is a dollar amount found in free text.
type Price struct {
	Amount   decimal.Decimal
	Unit     string
	Currency string
}

// ParsePrice extracts the first dollar amount in s along with the unit
// that follows a "/" or "per". It returns false when s holds no amount.
func ParsePrice(s string) (Price, bool) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "-", "—", "N/A", "n/a":
		return Price{}, false
	}

	m := priceRe.FindStringSubmatch(s)
	if len(m) < 2 {
		return Price{}, false
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return Price{}, false
	}
	p := Price{Amount: amount, Currency: "USD"}
	if len(m) > 2 {
		p.Unit = strings.TrimSpace(m[2])
	}
	return p, true
}
