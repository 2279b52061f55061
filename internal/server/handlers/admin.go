package handlers

import (
	"net/http"
	"strconv"

	"github.com/agentstation/pricemap/internal/history"
	"github.com/agentstation/pricemap/internal/server/response"
	"github.com/agentstation/pricemap/pkg/constants"
	"github.com/agentstation/pricemap/pkg/errors"
	"github.com/agentstation/pricemap/pkg/logging"
)

// HandleRefresh handles POST /refresh. The run happens in the background;
// the answer says whether this request started it.
func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	status := h.client.Refresh()
	logging.FromContext(r.Context()).Info().Str("status", string(status)).Msg("Refresh requested")
	response.Accepted(w, map[string]string{"status": string(status)})
}

// HandleRuns handles GET /runs?limit=N, newest first.
func (h *Handlers) HandleRuns(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		response.ServiceUnavailable(w, "Run history is disabled")
		return
	}

	limit := constants.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.ErrorFromType(w, errors.NewValidationError("limit", raw, "must be a positive integer"))
			return
		}
		limit = n
	}

	entries, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		logging.FromContext(r.Context()).Error().Err(err).Msg("Failed to read run history")
		response.InternalError(w, err)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	response.OK(w, entries)
}
