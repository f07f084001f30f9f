package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

func TestReadiness(t *testing.T) {
	t.Run("ready when all checks pass", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("store", func(context.Context) error { return nil })

		rec := httptest.NewRecorder()
		newRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var body ReadinessResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "up", body.Checks["store"])
	})

	t.Run("503 when a dependency is down", func(t *testing.T) {
		h := New("test")
		h.RegisterCheck("store", func(context.Context) error { return nil })
		h.RegisterCheck("provider", func(context.Context) error { return errors.New("circuit open") })

		rec := httptest.NewRecorder()
		newRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		var body ReadinessResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, "not_ready", body.Status)
		assert.Equal(t, "down: circuit open", body.Checks["provider"])
	})
}

func TestLivenessAndStatus(t *testing.T) {
	h := New("staging")
	router := newRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	var status StatusResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, "staging", status.Environment)
	assert.Equal(t, "healthy", status.Status)
}
