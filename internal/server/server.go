// Package server provides the HTTP server setup and routing configuration.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stwalsh4118/snapback/internal/api"
	"github.com/stwalsh4118/snapback/internal/catalog"
	"github.com/stwalsh4118/snapback/internal/config"
	"github.com/stwalsh4118/snapback/internal/db"
	"github.com/stwalsh4118/snapback/internal/logger"
	"github.com/stwalsh4118/snapback/internal/middleware"
	"github.com/stwalsh4118/snapback/internal/playback"
	"github.com/stwalsh4118/snapback/internal/timeline"
)

// Server represents the HTTP server
type Server struct {
	config          *config.Config
	db              *db.DB
	repos           *db.Repositories
	streamService   *catalog.StreamService
	bookmarkService *timeline.BookmarkService
	sessionManager  *playback.Manager
	router          *gin.Engine
	server          *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, database *db.DB) *Server {
	repos := db.NewRepositories(database)
	streamService := catalog.NewStreamService(database, repos)
	bookmarkService := timeline.NewBookmarkService(repos)
	sessionManager := playback.NewManager(streamService, bookmarkService, cfg.Playback)

	return &Server{
		config:          cfg,
		db:              database,
		repos:           repos,
		streamService:   streamService,
		bookmarkService: bookmarkService,
		sessionManager:  sessionManager,
	}
}

// Router builds the router on first use and returns it
func (s *Server) Router() *gin.Engine {
	if s.router == nil {
		s.setupRouter()
	}
	return s.router
}

// setupRouter initializes the Gin router with middleware and routes
func (s *Server) setupRouter() {
	// Set Gin mode based on log level
	if s.config.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()

	s.router.Use(middleware.RequestLogger()) // zerolog request logger
	s.router.Use(gin.Recovery())
	s.router.Use(cors.Default()) // allows all origins; players run on many hosts

	timeout := s.config.Playback.RequestTimeout

	apiGroup := s.router.Group("/api")
	api.SetupHealthRoutes(apiGroup, s.db, s.sessionManager)
	api.SetupStreamRoutes(apiGroup, s.streamService, timeout)
	api.SetupSessionRoutes(apiGroup, s.sessionManager, timeout)

	if s.config.Metrics.Enabled {
		s.router.GET(s.config.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.Router()

	if err := s.sessionManager.Start(); err != nil {
		return fmt.Errorf("failed to start playback manager: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	s.server = &http.Server{
		Addr:           addr,
		Handler:        s.router,
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	logger.Log.Info().
		Str("host", s.config.Server.Host).
		Int("port", s.config.Server.Port).
		Bool("metrics", s.config.Metrics.Enabled).
		Msg("Starting HTTP server")

	return s.server.ListenAndServe()
}

// Shutdown stops accepting requests, then ends every playback session so VOD
// bookmarks are saved before the database is closed by the caller.
func (s *Server) Shutdown(ctx context.Context) error {
	logger.Log.Info().Msg("Shutting down server gracefully")

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
	}

	if s.sessionManager != nil {
		s.sessionManager.Stop()
	}

	logger.Log.Info().Msg("Server stopped")
	return nil
}
