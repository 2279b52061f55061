package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/pricemap/pkg/errors"
)

func TestErrorFromType(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"not found", errors.NewNotFoundError("record", "m2"), http.StatusNotFound, "NOT_FOUND"},
		{"wrapped not found", fmt.Errorf("get: %w", errors.NewNotFoundError("record", "m2")), http.StatusNotFound, "NOT_FOUND"},
		{"not ready", errors.NewNotReadyError("catalog"), http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{"validation", errors.NewValidationError("limit", -1, "must be positive"), http.StatusBadRequest, "BAD_REQUEST"},
		{"refresh running", errors.ErrRefreshInProgress, http.StatusConflict, "REFRESH_IN_PROGRESS"},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			ErrorFromType(w, tt.err)

			assert.Equal(t, tt.wantCode, w.Code)
			var resp Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantErr, resp.Error.Code)
			assert.Nil(t, resp.Data)
		})
	}
}

func TestInternalErrorHidesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	InternalError(w, errors.New("secret path /var/lib/x"))
	assert.NotContains(t, w.Body.String(), "secret")
}

func TestRaw(t *testing.T) {
	w := httptest.NewRecorder()
	Raw(w, http.StatusOK, []byte(`{"a":1}`))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"a":1}`, w.Body.String())
}
