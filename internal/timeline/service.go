package timeline

import (
	"context"
	"fmt"

	"github.com/stwalsh4118/snapback/internal/cuepoint"
	"github.com/stwalsh4118/snapback/internal/db"
	"github.com/stwalsh4118/snapback/internal/logger"
	"github.com/stwalsh4118/snapback/internal/models"
)

// BookmarkService persists and restores content-relative resume positions
type BookmarkService struct {
	repos *db.Repositories
}

// NewBookmarkService creates a new bookmark service instance
func NewBookmarkService(repos *db.Repositories) *BookmarkService {
	return &BookmarkService{
		repos: repos,
	}
}

// SaveBookmark converts streamTime to content time and stores it for the stream.
// It returns the saved content time.
func (s *BookmarkService) SaveBookmark(ctx context.Context, stream *models.Stream, streamTime float64, cuepoints []cuepoint.Cuepoint) (float64, error) {
	if stream.IsLive() {
		return 0, ErrLiveStream
	}

	contentTime, err := ContentTimeForStreamTime(streamTime, cuepoints)
	if err != nil {
		return 0, err
	}

	bookmark := &models.Bookmark{
		StreamID:       stream.ID,
		ContentSeconds: contentTime,
	}
	if err := s.repos.Bookmarks.Upsert(ctx, bookmark); err != nil {
		logger.Log.Error().
			Err(err).
			Str("stream_id", stream.ID.String()).
			Msg("Failed to save bookmark")
		return 0, err
	}

	logger.Log.Info().
		Str("stream_id", stream.ID.String()).
		Float64("stream_time", streamTime).
		Float64("content_time", contentTime).
		Msg("Bookmark saved")

	return contentTime, nil
}

// ResumePosition returns the stream time to resume the stream at, using the current
// cuepoints. found is false when no bookmark exists or it points at the very start.
func (s *BookmarkService) ResumePosition(ctx context.Context, stream *models.Stream, cuepoints []cuepoint.Cuepoint) (streamTime float64, found bool, err error) {
	if stream.IsLive() {
		return 0, false, ErrLiveStream
	}

	bookmark, err := s.repos.Bookmarks.Get(ctx, stream.ID)
	if err != nil {
		if db.IsNotFound(err) {
			return 0, false, nil
		}
		logger.Log.Error().
			Err(err).
			Str("stream_id", stream.ID.String()).
			Msg("Failed to load bookmark")
		return 0, false, fmt.Errorf("failed to load bookmark: %w", err)
	}

	if bookmark.ContentSeconds == 0 {
		return 0, false, nil
	}

	streamTime, err = StreamTimeForContentTime(bookmark.ContentSeconds, cuepoints)
	if err != nil {
		return 0, false, err
	}

	logger.Log.Debug().
		Str("stream_id", stream.ID.String()).
		Float64("content_time", bookmark.ContentSeconds).
		Float64("stream_time", streamTime).
		Msg("Bookmark loaded")

	return streamTime, true, nil
}
