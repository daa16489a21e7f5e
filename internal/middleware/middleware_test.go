package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dbusana/internal/infrastructure"
	"dbusana/internal/shared/testutil"
)

func TestRequestID_GeneratesID(t *testing.T) {
	var gotTraceID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTraceID = infrastructure.GetTraceID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()

	RequestID(next).ServeHTTP(w, r)

	assert.NotEmpty(t, gotTraceID)
	assert.Equal(t, gotTraceID, w.Header().Get("X-Request-ID"))
}

func TestRequestID_PreservesIncomingID(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "req-abc", GetReqID(r.Context()))
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	r.Header.Set("X-Request-ID", "req-abc")
	w := httptest.NewRecorder()

	RequestID(next).ServeHTTP(w, r)

	assert.Equal(t, "req-abc", w.Header().Get("X-Request-ID"))
}

func TestStructuredLogger(t *testing.T) {
	logger, buf := testutil.NewTestLogger(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	r := httptest.NewRequest(http.MethodPost, "/api/import", nil)
	w := httptest.NewRecorder()

	StructuredLogger(logger)(next).ServeHTTP(w, r)

	assert.True(t, buf.ContainsMessage("request started"))
	assert.True(t, buf.ContainsMessage("request completed"))
	assert.True(t, buf.ContainsAttr("status", int64(http.StatusCreated)))
}

func TestRecoverer(t *testing.T) {
	logger, buf := testutil.NewTestLogger(t)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	r := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	w := httptest.NewRecorder()

	Recoverer(logger)(next).ServeHTTP(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.True(t, buf.ContainsMessage("panic recovered"))
}

func TestRateLimiter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	rl := NewRateLimiter(1, 1, logger)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := rl.Handler(next)

	// First request passes
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sales/daily", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// Second request within the same second is limited
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sales/daily", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
}

func TestTimeout(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
			w.WriteHeader(http.StatusOK)
		}
	})

	r := httptest.NewRequest(http.MethodGet, "/api/forecast", nil)
	w := httptest.NewRecorder()

	Timeout(50*time.Millisecond, logger)(next).ServeHTTP(w, r)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
}

func TestSecurityHeaders(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	SecurityHeaders(next).ServeHTTP(w, r)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get("Content-Security-Policy"))
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	cfg := CORSConfig{
		AllowedOrigins: []string{"http://localhost:3000"},
	}

	t.Run("allowed origin", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/dashboard/summary", nil)
		r.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()

		CORS(cfg)(next).ServeHTTP(w, r)

		assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodOptions, "/api/forecast", nil)
		r.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()

		CORS(cfg)(next).ServeHTTP(w, r)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
	})

	t.Run("disallowed origin", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/dashboard/summary", nil)
		r.Header.Set("Origin", "http://evil.example")
		w := httptest.NewRecorder()

		CORS(cfg)(next).ServeHTTP(w, r)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestValidationMiddleware_ValidateStruct(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewValidationMiddleware(logger, nil)

	type forecastRequest struct {
		Horizon     int    `json:"horizon" validate:"required,min=1,max=365"`
		Marketplace string `json:"marketplace" validate:"omitempty,marketplace"`
	}

	tests := []struct {
		name    string
		req     forecastRequest
		wantErr bool
	}{
		{"valid", forecastRequest{Horizon: 30, Marketplace: "shopee"}, false},
		{"valid without marketplace", forecastRequest{Horizon: 90}, false},
		{"horizon too large", forecastRequest{Horizon: 400}, true},
		{"missing horizon", forecastRequest{}, true},
		{"unknown marketplace", forecastRequest{Horizon: 30, Marketplace: "ebay"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handler.ValidateStruct(tt.req)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
