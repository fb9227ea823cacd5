package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/stwalsh4118/snapback/internal/catalog"
	"github.com/stwalsh4118/snapback/internal/config"
	"github.com/stwalsh4118/snapback/internal/db"
	"github.com/stwalsh4118/snapback/internal/playback"
	"github.com/stwalsh4118/snapback/internal/timeline"
)

const testTimeout = 5 * time.Second

type testEnv struct {
	router  *gin.Engine
	db      *db.DB
	repos   *db.Repositories
	manager *playback.Manager
}

// setupTestRouter creates a Gin router with every API route backed by a temp database
func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()

	tmpFile := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(tmpFile)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	sqlDB, err := database.GetSQLDB()
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations(sqlDB, "file://../../migrations"))

	repos := db.NewRepositories(database)
	streamService := catalog.NewStreamService(database, repos)
	manager := playback.NewManager(streamService, timeline.NewBookmarkService(repos), config.PlaybackConfig{
		CuepointToleranceMs: 1,
		MaxSessions:         2,
		RequestTimeout:      testTimeout,
		SessionIdleTimeout:  time.Minute,
		CleanupInterval:     time.Minute,
	})

	gin.SetMode(gin.TestMode)
	router := gin.New()
	apiGroup := router.Group("/api")
	SetupHealthRoutes(apiGroup, database, manager)
	SetupStreamRoutes(apiGroup, streamService, testTimeout)
	SetupSessionRoutes(apiGroup, manager, testTimeout)

	return &testEnv{
		router:  router,
		db:      database,
		repos:   repos,
		manager: manager,
	}
}

// do performs a request and returns the recorder
func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// decode unmarshals the recorder body into v
func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}
