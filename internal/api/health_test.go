package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthCheck_Healthy(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(t, http.MethodGet, "/api/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var response HealthResponse
	decode(t, w, &response)
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "healthy", response.Database)
	assert.Equal(t, float64(0), response.Details["active_sessions"])
}

func TestHealthCheck_DatabaseClosed(t *testing.T) {
	env := setupTestRouter(t)
	_ = env.db.Close()

	w := env.do(t, http.MethodGet, "/api/health", nil)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var response HealthResponse
	decode(t, w, &response)
	assert.Equal(t, "degraded", response.Status)
	assert.Equal(t, "unhealthy", response.Database)
}
