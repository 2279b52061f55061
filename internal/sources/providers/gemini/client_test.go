package gemini

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/pricemap/internal/sources/providers/testhelper"
	"github.com/agentstation/pricemap/pkg/pricing"
)

type fakeLister struct {
	models []ModelInfo
	err    error
}

func (f fakeLister) ListModels(context.Context) ([]ModelInfo, error) {
	return f.models, f.err
}

func TestFetch(t *testing.T) {
	srv := testhelper.ServeFile(t, "pricing.html")
	c := NewClient(testhelper.Client(), WithURL(srv.URL))

	records, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.NotContains(t, records, "Grounding")

	pro := records["Gemini 2.5 Pro"]
	assert.Equal(t, pricing.ProviderGemini, pro.ProviderID)
	assert.Equal(t, Modalities, pro.Modalities)
	input, ok := pro.Raw["Input price"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Free of charge", input["Free Tier"])
	assert.Equal(t, "$1.25, prompts <= 200k tokens", input["Paid Tier, per 1M tokens in USD"])

	assert.Equal(t, records["Gemini 2.5 Flash"].Raw, records["Standard"].Raw)
	assert.Empty(t, pro.CanonicalID)
}

func TestFetchEnrich(t *testing.T) {
	srv := testhelper.ServeFile(t, "pricing.html")
	lister := fakeLister{models: []ModelInfo{
		{Name: "models/gemini-2.5-pro", DisplayName: "Gemini 2.5 Pro", Description: "Most capable model."},
		{Name: "models/gemini-2.5-flash", DisplayName: "Gemini 2.5 Flash", Description: "Fast."},
	}}
	c := NewClient(testhelper.Client(), WithURL(srv.URL), WithModelLister(lister))

	records, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "gemini/gemini-2.5-pro", records["Gemini 2.5 Pro"].CanonicalID)
	assert.Equal(t, "Most capable model.", records["Gemini 2.5 Pro"].Description)
	assert.Equal(t, "gemini/gemini-2.5-flash", records["Gemini 2.5 Flash"].CanonicalID)
	assert.Empty(t, records["Standard"].CanonicalID)
}

func TestFetchEnrichFailureKeepsRecords(t *testing.T) {
	srv := testhelper.ServeFile(t, "pricing.html")
	c := NewClient(testhelper.Client(), WithURL(srv.URL), WithModelLister(fakeLister{err: fmt.Errorf("quota")}))

	records, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestModelInfoID(t *testing.T) {
	assert.Equal(t, "gemini-2.5-pro", ModelInfo{Name: "models/gemini-2.5-pro"}.ID())
	assert.Equal(t, "plain", ModelInfo{Name: "plain"}.ID())
}

func TestWithAPIKey(t *testing.T) {
	assert.Nil(t, NewClient(testhelper.Client(), WithAPIKey("")).models)
	assert.IsType(t, &GenAILister{}, NewClient(testhelper.Client(), WithAPIKey("k")).models)
}
