// Package catalog manages the streams a playback session can be started for.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/snapback/internal/db"
	"github.com/stwalsh4118/snapback/internal/logger"
	"github.com/stwalsh4118/snapback/internal/models"
)

// StreamService handles business logic for catalog streams
type StreamService struct {
	db    *db.DB
	repos *db.Repositories
}

// NewStreamService creates a new stream service instance
func NewStreamService(database *db.DB, repos *db.Repositories) *StreamService {
	return &StreamService{
		db:    database,
		repos: repos,
	}
}

// CreateStream validates and stores a new stream. ID and timestamps are assigned here.
func (s *StreamService) CreateStream(ctx context.Context, stream *models.Stream) (*models.Stream, error) {
	normalize(stream)

	if err := validateStream(stream); err != nil {
		logger.Log.Warn().
			Err(err).
			Str("name", stream.Name).
			Str("mode", stream.Mode).
			Msg("Stream creation failed: invalid stream")
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	if err := s.validateNameUniqueness(ctx, stream.Name, uuid.Nil); err != nil {
		logger.Log.Warn().
			Str("name", stream.Name).
			Msg("Stream creation failed: duplicate name")
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	now := time.Now().UTC()
	stream.ID = uuid.New()
	stream.CreatedAt = now
	stream.UpdatedAt = now

	if err := s.repos.Streams.Create(ctx, stream); err != nil {
		if db.IsDuplicate(err) {
			return nil, fmt.Errorf("failed to create stream: %w", ErrDuplicateStreamName)
		}
		logger.Log.Error().
			Err(err).
			Str("name", stream.Name).
			Msg("Failed to create stream in database")
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	logger.Log.Info().
		Str("stream_id", stream.ID.String()).
		Str("name", stream.Name).
		Str("mode", stream.Mode).
		Msg("Stream created successfully")

	return stream, nil
}

// GetByID retrieves a stream by its ID
func (s *StreamService) GetByID(ctx context.Context, id uuid.UUID) (*models.Stream, error) {
	stream, err := s.repos.Streams.GetByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrStreamNotFound
		}
		logger.Log.Error().
			Err(err).
			Str("stream_id", id.String()).
			Msg("Failed to get stream by ID")
		return nil, fmt.Errorf("failed to get stream: %w", err)
	}

	return stream, nil
}

// List retrieves all streams ordered by name
func (s *StreamService) List(ctx context.Context) ([]*models.Stream, error) {
	streams, err := s.repos.Streams.List(ctx)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to list streams")
		return nil, fmt.Errorf("failed to list streams: %w", err)
	}

	logger.Log.Debug().
		Int("count", len(streams)).
		Msg("Listed streams")

	return streams, nil
}

// UpdateStream validates and saves changes to an existing stream
func (s *StreamService) UpdateStream(ctx context.Context, stream *models.Stream) error {
	existing, err := s.GetByID(ctx, stream.ID)
	if err != nil {
		return err
	}

	normalize(stream)
	if err := validateStream(stream); err != nil {
		logger.Log.Warn().
			Err(err).
			Str("stream_id", stream.ID.String()).
			Msg("Stream update failed: invalid stream")
		return fmt.Errorf("failed to update stream: %w", err)
	}

	if !strings.EqualFold(existing.Name, stream.Name) {
		if err := s.validateNameUniqueness(ctx, stream.Name, stream.ID); err != nil {
			logger.Log.Warn().
				Str("stream_id", stream.ID.String()).
				Str("name", stream.Name).
				Msg("Stream update failed: duplicate name")
			return fmt.Errorf("failed to update stream: %w", err)
		}
	}

	// Live streams never resume, so a stream turning live loses its bookmark
	droppingBookmark := existing.Mode == models.StreamModeVOD && stream.Mode == models.StreamModeLive

	err = s.db.WithTransaction(ctx, func(tx *db.Repositories) error {
		if err := tx.Streams.Update(ctx, stream); err != nil {
			return err
		}
		if droppingBookmark {
			if err := tx.Bookmarks.Delete(ctx, stream.ID); err != nil && !db.IsNotFound(err) {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if db.IsDuplicate(err) {
			return fmt.Errorf("failed to update stream: %w", ErrDuplicateStreamName)
		}
		logger.Log.Error().
			Err(err).
			Str("stream_id", stream.ID.String()).
			Msg("Failed to update stream in database")
		return fmt.Errorf("failed to update stream: %w", err)
	}

	logger.Log.Info().
		Str("stream_id", stream.ID.String()).
		Str("name", stream.Name).
		Bool("bookmark_dropped", droppingBookmark).
		Msg("Stream updated successfully")

	return nil
}

// DeleteStream deletes a stream and, through the cascade, its bookmark
func (s *StreamService) DeleteStream(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.repos.Streams.Delete(ctx, id); err != nil {
		logger.Log.Error().
			Err(err).
			Str("stream_id", id.String()).
			Msg("Failed to delete stream from database")
		return fmt.Errorf("failed to delete stream: %w", err)
	}

	logger.Log.Info().
		Str("stream_id", id.String()).
		Msg("Stream deleted successfully")

	return nil
}

// validateNameUniqueness checks if a stream name is unique (case-insensitive)
// excludeID allows excluding a specific stream ID (for updates)
func (s *StreamService) validateNameUniqueness(ctx context.Context, name string, excludeID uuid.UUID) error {
	existing, err := s.repos.Streams.GetByName(ctx, name)
	if err != nil {
		if db.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to validate name uniqueness: %w", err)
	}
	if existing.ID == excludeID {
		return nil
	}
	return ErrDuplicateStreamName
}

// normalize trims whitespace and drops empty optional identifiers
func normalize(stream *models.Stream) {
	stream.Name = strings.TrimSpace(stream.Name)
	stream.Mode = strings.ToLower(strings.TrimSpace(stream.Mode))
	stream.AssetKey = trimOptional(stream.AssetKey)
	stream.ContentSourceID = trimOptional(stream.ContentSourceID)
	stream.VideoID = trimOptional(stream.VideoID)
	stream.APIKey = trimOptional(stream.APIKey)
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// validateStream checks that a live stream has an asset key and a VOD stream has
// a content source and video ID. The other mode's identifiers must be absent.
func validateStream(stream *models.Stream) error {
	if stream.Name == "" {
		return ErrEmptyName
	}

	switch stream.Mode {
	case models.StreamModeLive:
		if stream.AssetKey == nil {
			return fmt.Errorf("%w: live streams require an asset key", ErrInvalidStreamSource)
		}
		if stream.ContentSourceID != nil || stream.VideoID != nil {
			return fmt.Errorf("%w: live streams cannot set content source or video ID", ErrInvalidStreamSource)
		}
	case models.StreamModeVOD:
		if stream.ContentSourceID == nil || stream.VideoID == nil {
			return fmt.Errorf("%w: vod streams require content source and video ID", ErrInvalidStreamSource)
		}
		if stream.AssetKey != nil {
			return fmt.Errorf("%w: vod streams cannot set an asset key", ErrInvalidStreamSource)
		}
	default:
		return ErrInvalidMode
	}

	return nil
}
