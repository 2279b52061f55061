package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/pricemap/pkg/pricing"
	"github.com/agentstation/pricemap/pkg/sources"
)

func TestDefaultOrder(t *testing.T) {
	adapters := Default(Config{})
	ids := make([]pricing.ProviderID, len(adapters))
	for i, a := range adapters {
		ids[i] = a.ID()
	}
	assert.Equal(t, pricing.ProviderIDs, ids)

	reg, err := sources.NewRegistry(adapters...)
	require.NoError(t, err)
	assert.Equal(t, len(pricing.ProviderIDs), reg.Len())
}
