package pricing_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/agentstation/pricemap/pkg/pricing"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() map[string]pricing.Record {
	price := decimal.RequireFromString("2.50")
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return map[string]pricing.Record{
		"gpt-4o": {
			Key:         "gpt-4o",
			CanonicalID: "openai/gpt-4o",
			ProviderID:  pricing.ProviderOpenAI,
			ServiceType: pricing.ServiceTypeAPIEndpoint,
			Modalities:  []string{"text-to-text"},
			Raw:         map[string]any{"Model": "gpt-4o", "Input": "$2.50 / 1M tokens"},
			Display:     "$2.50 / 1M tokens",
			Price:       &price,
			Unit:        "1M tokens",
			Currency:    "USD",
			SourceURL:   "https://openai.com/pricing",
			LastUpdated: ts,
		},
		"elevenlabs-pro": {
			Key:         "elevenlabs-pro",
			ProviderID:  pricing.ProviderElevenLabs,
			ServiceType: pricing.ServiceTypeSubscription,
			Modalities:  []string{"speech-to-speech", "text-to-speech"},
			Raw:         map[string]any{"Plan": "Pro"},
			LastUpdated: ts,
		},
		"hedra": {
			Key:         "hedra",
			ProviderID:  pricing.ProviderHedra,
			Modalities:  []string{},
			LastUpdated: ts,
		},
	}
}

func TestCatalogIsImmutable(t *testing.T) {
	src := sampleRecords()
	cat := pricing.NewCatalog(src)
	delete(src, "hedra")
	src["new"] = pricing.Record{Key: "new"}

	assert.Equal(t, 3, cat.Len())
	_, ok := cat.Get("new")
	assert.False(t, ok)

	m := cat.Map()
	delete(m, "gpt-4o")
	_, ok = cat.Get("gpt-4o")
	assert.True(t, ok)
}

func TestCatalogFilter(t *testing.T) {
	cat := pricing.NewCatalog(sampleRecords())

	tests := []struct {
		name   string
		filter pricing.Filter
		want   []string
	}{
		{"zero filter", pricing.Filter{}, []string{"elevenlabs-pro", "gpt-4o", "hedra"}},
		{"by service type", pricing.Filter{ServiceType: pricing.ServiceTypeSubscription}, []string{"elevenlabs-pro"}},
		{"by provider", pricing.Filter{ProviderID: pricing.ProviderOpenAI}, []string{"gpt-4o"}},
		{"both", pricing.Filter{ServiceType: pricing.ServiceTypeSubscription, ProviderID: pricing.ProviderOpenAI}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys := []string{}
			for _, r := range cat.Filter(tt.filter) {
				keys = append(keys, r.Key)
			}
			assert.Equal(t, tt.want, keys)
		})
	}
}

func TestCatalogJSONRoundTrip(t *testing.T) {
	cat := pricing.NewCatalog(sampleRecords())

	data, err := json.Marshal(cat)
	require.NoError(t, err)

	var obj map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &obj))
	assert.Contains(t, obj, "gpt-4o")
	assert.Equal(t, "2.5", obj["gpt-4o"]["price"])
	assert.NotContains(t, obj["hedra"], "price")

	var back pricing.Catalog
	require.NoError(t, json.Unmarshal(data, &back))
	if diff := cmp.Diff(cat.Map(), back.Map()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCatalogUnmarshalFillsKey(t *testing.T) {
	var cat pricing.Catalog
	require.NoError(t, json.Unmarshal([]byte(`{"m1":{"providerId":"fal","modalities":[]}}`), &cat))
	r, ok := cat.Get("m1")
	require.True(t, ok)
	assert.Equal(t, "m1", r.Key)
}

func TestNilAndEmptyCatalog(t *testing.T) {
	var nilCat *pricing.Catalog
	assert.Equal(t, 0, nilCat.Len())
	assert.True(t, nilCat.IsEmpty())
	assert.Empty(t, nilCat.Records())

	data, err := json.Marshal(pricing.EmptyCatalog())
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))
}

func TestProviderID(t *testing.T) {
	assert.True(t, pricing.ProviderGemini.IsKnown())
	assert.False(t, pricing.ProviderID("acme").IsKnown())
	assert.Equal(t, "runway", pricing.ProviderRunway.String())
}
