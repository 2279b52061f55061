// Package pricing defines the normalized pricing record and the immutable
// catalog that a refresh run produces.
package pricing

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// ProviderID identifies the adapter that produced a record.
type ProviderID string

// Known provider identifiers.
const (
	ProviderOpenAI     ProviderID = "openai"
	ProviderFal        ProviderID = "fal"
	ProviderRunway     ProviderID = "runway"
	ProviderHedra      ProviderID = "hedra"
	ProviderElevenLabs ProviderID = "elevenlabs"
	ProviderGemini     ProviderID = "gemini"
)

// ProviderIDs lists the known providers in default registration order.
var ProviderIDs = []ProviderID{
	ProviderOpenAI,
	ProviderFal,
	ProviderRunway,
	ProviderHedra,
	ProviderElevenLabs,
	ProviderGemini,
}

// String returns the string representation of a ProviderID.
func (id ProviderID) String() string {
	return string(id)
}

// IsKnown reports whether id is one of the built-in providers.
func (id ProviderID) IsKnown() bool {
	return slices.Contains(ProviderIDs, id)
}

// ServiceType categorizes what a record is priced as.
type ServiceType string

// Service types.
const (
	ServiceTypeAPIEndpoint  ServiceType = "api_endpoint"
	ServiceTypeSubscription ServiceType = "subscription"
	ServiceTypeServerRental ServiceType = "server_rental"
	ServiceTypeOther        ServiceType = "other_service"
)

// String returns the string representation of a ServiceType.
func (s ServiceType) String() string {
	return string(s)
}

// Record is the normalized unit of catalog data.
//
// Optional fields are nil or empty when the source did not expose them.
// A nil Price means "unknown", never zero.
type Record struct {
	Key         string         `json:"key" yaml:"key"`
	CanonicalID string         `json:"canonicalId,omitempty" yaml:"canonical_id,omitempty"`
	ProviderID  ProviderID     `json:"providerId" yaml:"provider_id"`
	ServiceType ServiceType    `json:"serviceType,omitempty" yaml:"service_type,omitempty"`
	Modalities  []string       `json:"modalities" yaml:"modalities"`
	Raw         map[string]any `json:"raw,omitempty" yaml:"raw,omitempty"`

	Display  string           `json:"display,omitempty" yaml:"display,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty" yaml:"price,omitempty"`
	Unit     string           `json:"unit,omitempty" yaml:"unit,omitempty"`
	Currency string           `json:"currency,omitempty" yaml:"currency,omitempty"`

	APISchema         map[string]any `json:"apiSchema,omitempty" yaml:"api_schema,omitempty"`
	GenerationLatency string         `json:"generationLatency,omitempty" yaml:"generation_latency,omitempty"`
	Description       string         `json:"description,omitempty" yaml:"description,omitempty"`

	SourceURL   string    `json:"sourceUrl,omitempty" yaml:"source_url,omitempty"`
	LastUpdated time.Time `json:"lastUpdated" yaml:"last_updated"`
}

// HasPrice reports whether a numeric price was derived from the source.
func (r Record) HasPrice() bool {
	return r.Price != nil
}

// Hint carries static capability data for records whose source does not
// state them.
type Hint struct {
	ServiceType ServiceType `yaml:"service_type"`
	Modalities  []string    `yaml:"modalities"`
}

// Filter selects records by service type and provider. Zero fields match
// everything.
type Filter struct {
	ServiceType ServiceType
	ProviderID  ProviderID
}

// Matches reports whether r passes the filter.
func (f Filter) Matches(r Record) bool {
	if f.ServiceType != "" && r.ServiceType != f.ServiceType {
		return false
	}
	if f.ProviderID != "" && r.ProviderID != f.ProviderID {
		return false
	}
	return true
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return f.ServiceType == "" && f.ProviderID == ""
}
