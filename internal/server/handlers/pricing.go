package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/agentstation/pricemap/internal/server/response"
	"github.com/agentstation/pricemap/pkg/logging"
	"github.com/agentstation/pricemap/pkg/pricing"
)

// HandleListPricing handles GET /pricing.
//
// The body is a JSON object mapping record key to record, restricted by the
// optional serviceType and provider query parameters. An empty catalog is
// an empty object, not an error.
func (h *Handlers) HandleListPricing(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := pricing.Filter{
		ServiceType: pricing.ServiceType(q.Get("serviceType")),
		ProviderID:  pricing.ProviderID(q.Get("provider")),
	}

	catalog := h.client.Catalog()
	cacheKey := "pricing:" + string(filter.ServiceType) + "|" + string(filter.ProviderID)
	if body, ok := h.cache.Get(cacheKey, catalog); ok {
		response.Raw(w, http.StatusOK, body)
		return
	}

	var body []byte
	var err error
	if filter.IsZero() {
		body, err = json.Marshal(catalog)
	} else {
		body, err = json.Marshal(pricing.NewCatalog(keyed(catalog.Filter(filter))))
	}
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Msg("Failed to encode catalog")
		response.InternalError(w, err)
		return
	}

	h.cache.Set(cacheKey, catalog, body)
	response.Raw(w, http.StatusOK, body)
}

// HandleGetPricing handles GET /pricing/{key}.
func (h *Handlers) HandleGetPricing(w http.ResponseWriter, r *http.Request) {
	record, err := h.client.Get(r.PathValue("key"))
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	response.OK(w, record)
}

func keyed(records []pricing.Record) map[string]pricing.Record {
	m := make(map[string]pricing.Record, len(records))
	for _, r := range records {
		m[r.Key] = r
	}
	return m
}
