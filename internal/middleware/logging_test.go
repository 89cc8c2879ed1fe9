package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serve runs one request through RequestID and Logger and returns the
// decoded log record.
func serve(t *testing.T, h http.HandlerFunc) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	chain := chimiddleware.RequestID(Logger(logger)(h))

	chain.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/connections/request", nil))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record), "log: %s", buf.String())
	return record
}

func TestLogger_RecordsRequest(t *testing.T) {
	record := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("hello"))
	})

	assert.Equal(t, "request completed", record["msg"])
	assert.Equal(t, "INFO", record["level"])
	assert.Equal(t, "POST", record["method"])
	assert.Equal(t, "/connections/request", record["path"])
	assert.EqualValues(t, http.StatusCreated, record["status"])
	assert.EqualValues(t, 5, record["bytes"])
	assert.NotEmpty(t, record["requestID"])
}

func TestLogger_ImplicitOK(t *testing.T) {
	record := serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{}"))
	})

	assert.EqualValues(t, http.StatusOK, record["status"])
}

func TestLogger_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "INFO"},
		{http.StatusNotFound, "WARN"},
		{http.StatusServiceUnavailable, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			record := serve(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			assert.Equal(t, tt.level, record["level"])
		})
	}
}
