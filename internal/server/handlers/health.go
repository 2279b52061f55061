package handlers

import (
	"net/http"
	"time"

	"github.com/agentstation/pricemap/internal/server/response"
	"github.com/agentstation/pricemap/pkg/aggregator"
	"github.com/agentstation/pricemap/pkg/store"
)

// Health status values.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	StatusEmpty    = "empty"
)

// Health is the GET /health body.
type Health struct {
	Status           string               `json:"status"`
	LastUpdated      *time.Time           `json:"lastUpdated"`
	CacheSize        int                  `json:"cacheSize"`
	State            store.State          `json:"state"`
	LastRunID        string               `json:"lastRunId,omitempty"`
	LastError        []aggregator.Failure `json:"lastError"`
	LastPublishError string               `json:"lastPublishError,omitempty"`
}

// HandleHealth handles GET /health. It always answers 200; adapter
// failures show up in lastError without changing the status.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	st := h.client.Status()
	response.OK(w, Health{
		Status:           healthStatus(st),
		LastUpdated:      st.LastSuccessAt,
		CacheSize:        st.Size,
		State:            st.State,
		LastRunID:        st.LastRunID,
		LastError:        st.LastError,
		LastPublishError: st.LastPublishError,
	})
}

// HandleReady handles GET /health/ready: 503 until a non-empty catalog
// is active.
func (h *Handlers) HandleReady(w http.ResponseWriter, _ *http.Request) {
	st := h.client.Status()
	if !st.Ready {
		response.ServiceUnavailable(w, "No pricing catalog has been published")
		return
	}

	response.OK(w, map[string]any{
		"status":            "ready",
		"cacheSize":         st.Size,
		"responseCache":     h.cache.ItemCount(),
		"websocket_clients": h.wsHub.ClientCount(),
		"sse_clients":       h.sseBroadcaster.ClientCount(),
	})
}

func healthStatus(st store.Status) string {
	switch {
	case st.LastPublishError != "":
		return StatusDegraded
	case st.Size == 0:
		return StatusEmpty
	default:
		return StatusOK
	}
}
