//go:build integration
// +build integration

package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/snapback/internal/config"
	"github.com/stwalsh4118/snapback/internal/db"
	"github.com/stwalsh4118/snapback/internal/server"
)

// setupTestDB creates a file-backed test database with migrations applied
func setupTestDB(t *testing.T) (*db.DB, func()) {
	t.Helper()

	database, err := db.New(filepath.Join(t.TempDir(), "integration.db"))
	require.NoError(t, err, "Failed to create test database")

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err, "Failed to get SQL DB")

	// Get absolute path to migrations directory relative to this file
	// This ensures tests work regardless of working directory
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "Failed to get current file path")

	testDir := filepath.Dir(filename)                     // test/integration
	rootDir := filepath.Dir(filepath.Dir(testDir))        // module root
	migrationsDir := filepath.Join(rootDir, "migrations") // migrations
	migrationsPath := "file://" + migrationsDir

	err = db.RunMigrations(sqlDB, migrationsPath)
	require.NoError(t, err, "Failed to run migrations")

	cleanup := func() {
		_ = database.Close()
	}

	return database, cleanup
}

// setupTestServer creates the full router the binary serves, backed by a test database
func setupTestServer(t *testing.T, maxSessions int) (*server.Server, *gin.Engine) {
	t.Helper()

	database, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)

	cfg := &config.Config{
		Server:  config.ServerConfig{Host: "127.0.0.1", Port: 8080, ShutdownTimeout: time.Second},
		Logging: config.LoggingConfig{Level: "info"},
		Playback: config.PlaybackConfig{
			CuepointToleranceMs: 1,
			MaxSessions:         maxSessions,
			RequestTimeout:      5 * time.Second,
			SessionIdleTimeout:  time.Minute,
			CleanupInterval:     time.Minute,
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}

	srv := server.New(cfg, database)
	return srv, srv.Router()
}

// doJSON performs a JSON request against router and decodes the response into out
func doJSON(t *testing.T, router *gin.Engine, method, path string, body, out interface{}) int {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if out != nil && w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}
