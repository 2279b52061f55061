package pricing

import (
	"encoding/json"
	"maps"
	"slices"
)

// Catalog is an immutable mapping from record key to Record.
//
// A Catalog is never modified after construction, so it can be shared
// between goroutines without locking.
type Catalog struct {
	records map[string]Record
}

// NewCatalog returns a catalog holding a copy of records.
func NewCatalog(records map[string]Record) *Catalog {
	return &Catalog{records: maps.Clone(records)}
}

// EmptyCatalog returns a catalog with no records.
func EmptyCatalog() *Catalog {
	return &Catalog{records: map[string]Record{}}
}

// Get returns the record stored under key.
func (c *Catalog) Get(key string) (Record, bool) {
	if c == nil {
		return Record{}, false
	}
	r, ok := c.records[key]
	return r, ok
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.records)
}

// IsEmpty reports whether the catalog holds no records.
func (c *Catalog) IsEmpty() bool {
	return c.Len() == 0
}

// Keys returns all keys in sorted order.
func (c *Catalog) Keys() []string {
	if c == nil {
		return []string{}
	}
	return slices.Sorted(maps.Keys(c.records))
}

// Records returns all records sorted by key.
func (c *Catalog) Records() []Record {
	return c.Filter(Filter{})
}

// Filter returns the records matching f, sorted by key.
func (c *Catalog) Filter(f Filter) []Record {
	out := make([]Record, 0, c.Len())
	for _, key := range c.Keys() {
		if r := c.records[key]; f.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Map returns a copy of the underlying mapping.
func (c *Catalog) Map() map[string]Record {
	if c == nil {
		return map[string]Record{}
	}
	return maps.Clone(c.records)
}

// MarshalJSON encodes the catalog as a JSON object keyed by record key.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	if c == nil || c.records == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c.records)
}

// UnmarshalJSON decodes a JSON object keyed by record key. Records missing
// their key field take it from the object key.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	records := map[string]Record{}
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	for key, r := range records {
		if r.Key == "" {
			r.Key = key
			records[key] = r
		}
	}
	c.records = records
	return nil
}
