package restapi

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainmapper.org/internal/logging"
)

func TestRequestLoggingMiddleware(t *testing.T) {
	t.Run("logs HTTP request details", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.NewStructuredLogger(&buf, slog.LevelInfo)

		testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("test response"))
		})

		handler := NewRequestLoggingMiddleware(logger)(testHandler)

		req := httptest.NewRequest("GET", "/api/routes?from=paris&to=lyon", nil)
		req.Header.Set("User-Agent", "test-client/1.0")
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "test response", recorder.Body.String())

		output := buf.String()
		assert.Contains(t, output, `"level":"INFO"`)
		assert.Contains(t, output, `"msg":"http_request"`)
		assert.Contains(t, output, `"method":"GET"`)
		assert.Contains(t, output, `"path":"/api/routes"`)
		assert.NotContains(t, output, "from=paris")
		assert.Contains(t, output, `"status":200`)
		assert.Contains(t, output, `"user_agent":"test-client/1.0"`)
		assert.Contains(t, output, `"duration_ms":`)
		assert.Contains(t, output, `"component":"http_server"`)
		assert.Contains(t, output, `"request_id":"`+recorder.Header().Get(requestIDHeader)+`"`)
	})

	t.Run("server errors are logged at error level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.NewStructuredLogger(&buf, slog.LevelInfo)

		testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.WriteHeader(http.StatusOK)
		})

		recorder := httptest.NewRecorder()
		NewRequestLoggingMiddleware(logger)(testHandler).ServeHTTP(recorder, httptest.NewRequest("POST", "/api/cities", nil))

		output := buf.String()
		assert.Contains(t, output, `"level":"ERROR"`)
		assert.Contains(t, output, `"status":500`)
	})

	t.Run("adds request scoped logger to context", func(t *testing.T) {
		var buf bytes.Buffer
		logger := logging.NewStructuredLogger(&buf, slog.LevelInfo)

		testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logging.FromContext(r.Context()).Info("inside handler")
		})

		req := httptest.NewRequest("GET", "/healthz", nil)
		recorder := httptest.NewRecorder()
		NewRequestLoggingMiddleware(logger)(testHandler).ServeHTTP(recorder, req)

		requestID := recorder.Header().Get(requestIDHeader)
		assert.Contains(t, buf.String(), `"msg":"inside handler","request_id":"`+requestID+`"`)
	})
}

func TestRequestIDHeader(t *testing.T) {
	handler := NewRequestLoggingMiddleware(logging.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	t.Run("generated when absent", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest("GET", "/", nil))

		_, err := uuid.Parse(recorder.Header().Get(requestIDHeader))
		require.NoError(t, err)
	})

	t.Run("kept when the client sends one", func(t *testing.T) {
		id := uuid.NewString()
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(requestIDHeader, id)

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)
		assert.Equal(t, id, recorder.Header().Get(requestIDHeader))
	})

	t.Run("replaced when malformed", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(requestIDHeader, "\"injected\nvalue")

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)
		assert.NotEqual(t, "\"injected\nvalue", recorder.Header().Get(requestIDHeader))
	})
}
