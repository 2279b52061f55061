package hedra

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/pricemap/internal/sources/providers/testhelper"
	"github.com/agentstation/pricemap/pkg/pricing"
)

func TestFetchReachable(t *testing.T) {
	srv := testhelper.Serve(t, http.StatusOK, []byte("<html><div id=root></div></html>"))
	c := NewClient(testhelper.Client(), WithURL(srv.URL))

	records, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[Key]
	assert.Equal(t, pricing.ProviderHedra, rec.ProviderID)
	assert.Equal(t, NotParsedMessage, rec.Raw["message"])
	assert.NotContains(t, rec.Raw, "error")
	assert.Equal(t, []string{"speech-to-video", "text-to-video"}, rec.Modalities)
}

func TestFetchUnreachableStillReports(t *testing.T) {
	srv := testhelper.Serve(t, http.StatusBadGateway, nil)
	c := NewClient(testhelper.Client(), WithURL(srv.URL))

	records, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Contains(t, records, Key)
	assert.Contains(t, records[Key].Raw["error"], "502")
}
