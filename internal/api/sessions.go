package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stwalsh4118/snapback/internal/catalog"
	"github.com/stwalsh4118/snapback/internal/cuepoint"
	"github.com/stwalsh4118/snapback/internal/logger"
	"github.com/stwalsh4118/snapback/internal/playback"
	"github.com/stwalsh4118/snapback/internal/snapback"
	"github.com/stwalsh4118/snapback/internal/timeline"
)

// Request/Response DTOs

// StartSessionRequest represents a request to start playback of a catalog stream
type StartSessionRequest struct {
	StreamID string `json:"stream_id" binding:"required"`
}

// UpdateCuepointsRequest replaces the session's cuepoint list
type UpdateCuepointsRequest struct {
	Cuepoints []cuepoint.Cuepoint `json:"cuepoints"`
}

// SeekRequest represents a seek intent from the player
type SeekRequest struct {
	CurrentTime   *float64 `json:"current_time" binding:"required,gte=0"`
	RequestedTime *float64 `json:"requested_time" binding:"required,gte=0"`
}

// EventRequest represents an ad-session or player event
type EventRequest struct {
	Type      string              `json:"type" binding:"required"`
	StartTime float64             `json:"start_time"`
	Time      float64             `json:"time"`
	Cuepoints []cuepoint.Cuepoint `json:"cuepoints,omitempty"`
}

// EndSessionRequest carries the playhead at the moment playback stopped
type EndSessionRequest struct {
	CurrentTime *float64 `json:"current_time" binding:"omitempty,gte=0"`
}

// SessionListResponse represents a list of sessions
type SessionListResponse struct {
	Sessions []playback.Snapshot `json:"sessions"`
}

// CuepointsResponse echoes the stored cuepoints
type CuepointsResponse struct {
	Cuepoints []cuepoint.Cuepoint `json:"cuepoints"`
	Warning   string              `json:"warning,omitempty"`
}

// SeekResponse is where the player should actually go
type SeekResponse struct {
	EffectiveTime float64          `json:"effective_time"`
	Decision      snapback.Outcome `json:"decision"`
	OriginalTime  *float64         `json:"original_time,omitempty"`
	State         snapback.State   `json:"state"`
}

// EventResponse carries any corrective commands the event produced
type EventResponse struct {
	Commands []playback.Command `json:"commands"`
	State    snapback.State     `json:"state"`
	Warning  string             `json:"warning,omitempty"`
}

// ResumeResponse is the bookmark converted to stream time
type ResumeResponse struct {
	StreamTime float64 `json:"stream_time"`
	Found      bool    `json:"found"`
}

// SessionHandler handles playback session API requests
type SessionHandler struct {
	manager *playback.Manager
	timeout time.Duration
}

// NewSessionHandler creates a new session handler instance
func NewSessionHandler(manager *playback.Manager, timeout time.Duration) *SessionHandler {
	return &SessionHandler{
		manager: manager,
		timeout: timeout,
	}
}

// lookupSession resolves the :id path parameter to a registered session
func (h *SessionHandler) lookupSession(c *gin.Context) (*playback.Session, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid session ID format",
		})
		return nil, false
	}

	session, ok := h.manager.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Session not found",
		})
		return nil, false
	}
	return session, true
}

// StartSession handles POST /api/sessions
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	streamID, err := uuid.Parse(req.StreamID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid stream ID format",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	session, err := h.manager.StartSession(ctx, streamID)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrStreamNotFound):
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Stream not found",
			})
		case errors.Is(err, playback.ErrTooManySessions):
			c.JSON(http.StatusTooManyRequests, ErrorResponse{
				Error:   "too_many_sessions",
				Message: "Session limit reached",
			})
		case errors.Is(err, playback.ErrManagerStopped):
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{
				Error:   "unavailable",
				Message: "Server is shutting down",
			})
		default:
			logger.Log.Error().
				Err(err).
				Str("stream_id", streamID.String()).
				Msg("Failed to start session")
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "internal_error",
				Message: "Failed to start session",
			})
		}
		return
	}

	c.JSON(http.StatusCreated, session.Snapshot())
}

// ListSessions handles GET /api/sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	sessions := h.manager.List()

	snapshots := make([]playback.Snapshot, len(sessions))
	for i, s := range sessions {
		snapshots[i] = s.Snapshot()
	}

	c.JSON(http.StatusOK, SessionListResponse{
		Sessions: snapshots,
	})
}

// GetSession handles GET /api/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, session.Snapshot())
}

// UpdateCuepoints handles PUT /api/sessions/:id/cuepoints
func (h *SessionHandler) UpdateCuepoints(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var req UpdateCuepointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	response := CuepointsResponse{}
	if err := session.UpdateCuepoints(req.Cuepoints); err != nil {
		response.Warning = err.Error()
	}
	response.Cuepoints = session.Snapshot().Cuepoints

	c.JSON(http.StatusOK, response)
}

// Seek handles POST /api/sessions/:id/seek
func (h *SessionHandler) Seek(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var req SeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	result := session.Seek(*req.CurrentTime, *req.RequestedTime)

	response := SeekResponse{
		EffectiveTime: result.Time,
		Decision:      result.Outcome,
		State:         session.Snapshot().State,
	}
	if result.Outcome == snapback.OutcomeRedirected {
		original := result.Original
		response.OriginalTime = &original
	}

	c.JSON(http.StatusOK, response)
}

// HandleEvent handles POST /api/sessions/:id/events
func (h *SessionHandler) HandleEvent(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	commands, err := session.HandleEvent(snapback.Event{
		Type:      snapback.EventType(req.Type),
		Cuepoints: req.Cuepoints,
		StartTime: req.StartTime,
		Time:      req.Time,
	})

	response := EventResponse{Commands: commands}
	if err != nil {
		if errors.Is(err, snapback.ErrUnknownEvent) {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_event",
				Message: err.Error(),
			})
			return
		}
		response.Warning = err.Error()
	}
	response.State = session.Snapshot().State

	c.JSON(http.StatusOK, response)
}

// Resume handles GET /api/sessions/:id/resume
func (h *SessionHandler) Resume(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	streamTime, found, err := h.manager.Resume(ctx, session.ID)
	if err != nil {
		if errors.Is(err, timeline.ErrLiveStream) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "live_stream",
				Message: "Live streams have no bookmark",
			})
			return
		}
		if errors.Is(err, catalog.ErrStreamNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Stream not found",
			})
			return
		}

		logger.Log.Error().
			Err(err).
			Str("session_id", session.ID.String()).
			Msg("Failed to load resume position")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to load resume position",
		})
		return
	}

	c.JSON(http.StatusOK, ResumeResponse{
		StreamTime: streamTime,
		Found:      found,
	})
}

// EndSession handles DELETE /api/sessions/:id. Without a body the last known
// position is bookmarked.
func (h *SessionHandler) EndSession(c *gin.Context) {
	session, ok := h.lookupSession(c)
	if !ok {
		return
	}

	var req EndSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_request",
				Message: "Invalid request body: " + err.Error(),
			})
			return
		}
	}

	streamTime := session.Snapshot().LastPosition
	if req.CurrentTime != nil {
		streamTime = *req.CurrentTime
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.manager.EndSession(ctx, session.ID, streamTime); err != nil {
		if errors.Is(err, playback.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "not_found",
				Message: "Session not found",
			})
			return
		}

		logger.Log.Error().
			Err(err).
			Str("session_id", session.ID.String()).
			Msg("Failed to end session")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to save bookmark",
		})
		return
	}

	c.JSON(http.StatusOK, DeleteResponse{
		Message: "Session ended successfully",
	})
}

// SetupSessionRoutes registers playback session routes
func SetupSessionRoutes(apiGroup *gin.RouterGroup, manager *playback.Manager, timeout time.Duration) {
	handler := NewSessionHandler(manager, timeout)

	apiGroup.POST("/sessions", handler.StartSession)
	apiGroup.GET("/sessions", handler.ListSessions)
	apiGroup.GET("/sessions/:id", handler.GetSession)
	apiGroup.DELETE("/sessions/:id", handler.EndSession)
	apiGroup.PUT("/sessions/:id/cuepoints", handler.UpdateCuepoints)
	apiGroup.POST("/sessions/:id/seek", handler.Seek)
	apiGroup.POST("/sessions/:id/events", handler.HandleEvent)
	apiGroup.GET("/sessions/:id/resume", handler.Resume)
}
