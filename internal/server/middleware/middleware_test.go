package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/searchterms/pkg/logging"
)

func TestChainOrder(t *testing.T) {
	var log []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				log = append(log, "start-"+name)
				next.ServeHTTP(w, r)
				log = append(log, "end-"+name)
			})
		}
	}
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		log = append(log, "handler")
		w.WriteHeader(http.StatusOK)
	})

	Chain(mark("1"), mark("2"))(handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"start-1", "start-2", "handler", "end-2", "end-1"}, log)
}

func TestLoggerAddsRequestScopedLogger(t *testing.T) {
	tl := logging.NewTestLogger(t)
	var requestID string
	handler := Logger(tl.Logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID = logging.RequestID(r.Context())
		logging.FromContext(r.Context()).Info().Msg("inside handler")
		w.WriteHeader(http.StatusAccepted)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/hooks/resources/created", nil))

	require.NotEmpty(t, requestID)
	assert.Equal(t, requestID, w.Header().Get(RequestIDHeader))
	assert.True(t, tl.Contains(`"path":"/hooks/resources/created"`))
	assert.True(t, tl.Contains("inside handler"))
	assert.True(t, tl.Contains(`"status":202`))
}

func TestLoggerKeepsIncomingRequestID(t *testing.T) {
	logger := zerolog.Nop()
	handler := Logger(&logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "req-42", logging.RequestID(r.Context()))
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}

func TestRecovery(t *testing.T) {
	tl := logging.NewTestLogger(t)
	handler := Recovery(tl.Logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.True(t, tl.Contains("Panic recovered"))
}

func TestAuth(t *testing.T) {
	logger := zerolog.Nop()
	enabled := DefaultAuthConfig()
	enabled.Enabled = true
	enabled.APIKey = "secret-key"

	tests := []struct {
		name    string
		config  AuthConfig
		path    string
		headers map[string]string
		want    int
	}{
		{"disabled", DefaultAuthConfig(), "/hooks/resources/created", nil, http.StatusOK},
		{"public health", enabled, "/health", nil, http.StatusOK},
		{"public metrics", enabled, "/metrics", nil, http.StatusOK},
		{"missing key", enabled, "/hooks/resources/created", nil, http.StatusUnauthorized},
		{"custom header", enabled, "/hooks/resources/created", map[string]string{"X-API-Key": "secret-key"}, http.StatusOK},
		{"bearer", enabled, "/hooks/resources/created", map[string]string{"Authorization": "Bearer secret-key"}, http.StatusOK},
		{"raw authorization", enabled, "/hooks/resources/created", map[string]string{"Authorization": "secret-key"}, http.StatusOK},
		{"wrong key", enabled, "/hooks/resources/created", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Auth(tt.config, &logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRateLimit(t *testing.T) {
	logger := zerolog.Nop()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	handler := RateLimit(NewRateLimiter(ctx, 2, &logger))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(forwarded string) int {
		req := httptest.NewRequest(http.MethodPost, "/hooks/resources/created", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		if forwarded != "" {
			req.Header.Set("X-Forwarded-For", forwarded)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send(""))
	assert.Equal(t, http.StatusOK, send(""))
	assert.Equal(t, http.StatusTooManyRequests, send(""))
	assert.Equal(t, http.StatusOK, send("192.0.2.7, 10.0.0.1"))
}
