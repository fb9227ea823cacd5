package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stwalsh4118/snapback/internal/catalog"
	"github.com/stwalsh4118/snapback/internal/logger"
	"github.com/stwalsh4118/snapback/internal/models"
)

// Request/Response DTOs

// CreateStreamRequest represents a request to add a stream to the catalog
type CreateStreamRequest struct {
	Name            string  `json:"name" binding:"required"`
	Mode            string  `json:"mode" binding:"required,oneof=live vod"`
	AssetKey        *string `json:"asset_key,omitempty"`
	ContentSourceID *string `json:"content_source_id,omitempty"`
	VideoID         *string `json:"video_id,omitempty"`
	APIKey          *string `json:"api_key,omitempty"`
}

// UpdateStreamRequest represents a partial stream update
type UpdateStreamRequest struct {
	Name            *string `json:"name,omitempty"`
	Mode            *string `json:"mode,omitempty" binding:"omitempty,oneof=live vod"`
	AssetKey        *string `json:"asset_key,omitempty"`
	ContentSourceID *string `json:"content_source_id,omitempty"`
	VideoID         *string `json:"video_id,omitempty"`
	APIKey          *string `json:"api_key,omitempty"`
}

// StreamResponse represents a stream in API responses. The API key is never echoed.
type StreamResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Mode            string    `json:"mode"`
	AssetKey        *string   `json:"asset_key,omitempty"`
	ContentSourceID *string   `json:"content_source_id,omitempty"`
	VideoID         *string   `json:"video_id,omitempty"`
	HasAPIKey       bool      `json:"has_api_key"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// StreamListResponse represents a list of streams
type StreamListResponse struct {
	Streams []*StreamResponse `json:"streams"`
}

// StreamHandler handles catalog API requests
type StreamHandler struct {
	streamService *catalog.StreamService
	timeout       time.Duration
}

// NewStreamHandler creates a new stream handler instance
func NewStreamHandler(streamService *catalog.StreamService, timeout time.Duration) *StreamHandler {
	return &StreamHandler{
		streamService: streamService,
		timeout:       timeout,
	}
}

// toStreamResponse converts a stream model to API response format
func toStreamResponse(s *models.Stream) *StreamResponse {
	return &StreamResponse{
		ID:              s.ID.String(),
		Name:            s.Name,
		Mode:            s.Mode,
		AssetKey:        s.AssetKey,
		ContentSourceID: s.ContentSourceID,
		VideoID:         s.VideoID,
		HasAPIKey:       s.APIKey != nil,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

// writeStreamError maps catalog errors to HTTP responses
func writeStreamError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, catalog.ErrStreamNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Stream not found",
		})
	case errors.Is(err, catalog.ErrDuplicateStreamName):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "duplicate_name",
			Message: "A stream with this name already exists",
		})
	case catalog.IsInvalidStream(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_stream",
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: fallback,
		})
	}
}

// parseStreamID reads and validates the :id path parameter
func parseStreamID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid stream ID format",
		})
		return uuid.Nil, false
	}
	return id, true
}

// CreateStream handles POST /api/streams
func (h *StreamHandler) CreateStream(c *gin.Context) {
	var req CreateStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	stream, err := h.streamService.CreateStream(ctx, &models.Stream{
		Name:            req.Name,
		Mode:            req.Mode,
		AssetKey:        req.AssetKey,
		ContentSourceID: req.ContentSourceID,
		VideoID:         req.VideoID,
		APIKey:          req.APIKey,
	})
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("name", req.Name).
			Msg("Failed to create stream")
		writeStreamError(c, err, "Failed to create stream")
		return
	}

	c.JSON(http.StatusCreated, toStreamResponse(stream))
}

// ListStreams handles GET /api/streams
func (h *StreamHandler) ListStreams(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	streams, err := h.streamService.List(ctx)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to list streams")
		writeStreamError(c, err, "Failed to retrieve stream list")
		return
	}

	responses := make([]*StreamResponse, len(streams))
	for i, s := range streams {
		responses[i] = toStreamResponse(s)
	}

	c.JSON(http.StatusOK, StreamListResponse{
		Streams: responses,
	})
}

// GetStream handles GET /api/streams/:id
func (h *StreamHandler) GetStream(c *gin.Context) {
	id, ok := parseStreamID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	stream, err := h.streamService.GetByID(ctx, id)
	if err != nil {
		writeStreamError(c, err, "Failed to retrieve stream")
		return
	}

	c.JSON(http.StatusOK, toStreamResponse(stream))
}

// UpdateStream handles PUT /api/streams/:id
func (h *StreamHandler) UpdateStream(c *gin.Context) {
	id, ok := parseStreamID(c)
	if !ok {
		return
	}

	var req UpdateStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	stream, err := h.streamService.GetByID(ctx, id)
	if err != nil {
		writeStreamError(c, err, "Failed to retrieve stream")
		return
	}

	// Apply partial updates
	if req.Name != nil {
		stream.Name = *req.Name
	}
	if req.Mode != nil {
		stream.Mode = *req.Mode
	}
	if req.AssetKey != nil {
		stream.AssetKey = req.AssetKey
	}
	if req.ContentSourceID != nil {
		stream.ContentSourceID = req.ContentSourceID
	}
	if req.VideoID != nil {
		stream.VideoID = req.VideoID
	}
	if req.APIKey != nil {
		stream.APIKey = req.APIKey
	}

	if err := h.streamService.UpdateStream(ctx, stream); err != nil {
		logger.Log.Error().
			Err(err).
			Str("stream_id", id.String()).
			Msg("Failed to update stream")
		writeStreamError(c, err, "Failed to update stream")
		return
	}

	c.JSON(http.StatusOK, toStreamResponse(stream))
}

// DeleteStream handles DELETE /api/streams/:id
func (h *StreamHandler) DeleteStream(c *gin.Context) {
	id, ok := parseStreamID(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	if err := h.streamService.DeleteStream(ctx, id); err != nil {
		logger.Log.Error().
			Err(err).
			Str("stream_id", id.String()).
			Msg("Failed to delete stream")
		writeStreamError(c, err, "Failed to delete stream")
		return
	}

	c.JSON(http.StatusOK, DeleteResponse{
		Message: "Stream deleted successfully",
	})
}

// SetupStreamRoutes registers catalog routes
func SetupStreamRoutes(apiGroup *gin.RouterGroup, streamService *catalog.StreamService, timeout time.Duration) {
	handler := NewStreamHandler(streamService, timeout)

	apiGroup.POST("/streams", handler.CreateStream)
	apiGroup.GET("/streams", handler.ListStreams)
	apiGroup.GET("/streams/:id", handler.GetStream)
	apiGroup.PUT("/streams/:id", handler.UpdateStream)
	apiGroup.DELETE("/streams/:id", handler.DeleteStream)
}
