package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		config     CORSConfig
		method     string
		origin     string
		wantOrigin string
		wantStatus int
	}{
		{"default allows any origin", DefaultCORSConfig(), http.MethodGet, "https://example.com", "*", http.StatusOK},
		{"preflight", DefaultCORSConfig(), http.MethodOptions, "https://example.com", "*", http.StatusNoContent},
		{
			name:       "listed origin echoed",
			config:     CORSConfig{AllowedOrigins: []string{"https://a.test"}},
			method:     http.MethodGet,
			origin:     "https://a.test",
			wantOrigin: "https://a.test",
			wantStatus: http.StatusOK,
		},
		{
			name:       "unlisted origin gets no header",
			config:     CORSConfig{AllowedOrigins: []string{"https://a.test"}},
			method:     http.MethodGet,
			origin:     "https://b.test",
			wantOrigin: "",
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/pricing", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()

			CORS(tt.config)(ok).ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
