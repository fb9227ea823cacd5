package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/snapback/internal/models"
	"gorm.io/gorm/clause"
)

// BookmarkRepository handles database operations for stream bookmarks
type BookmarkRepository struct {
	db *DB
}

// NewBookmarkRepository creates a new bookmark repository
func NewBookmarkRepository(db *DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

// Upsert saves the bookmark, replacing any existing bookmark for the same stream
func (r *BookmarkRepository) Upsert(ctx context.Context, bookmark *models.Bookmark) error {
	bookmark.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "stream_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"content_seconds", "updated_at"}),
		}).
		Create(bookmark)
	if result.Error != nil {
		return fmt.Errorf("failed to save bookmark: %w", MapGormError(result.Error))
	}
	return nil
}

// Get retrieves the bookmark for a stream
func (r *BookmarkRepository) Get(ctx context.Context, streamID uuid.UUID) (*models.Bookmark, error) {
	var bookmark models.Bookmark
	result := r.db.WithContext(ctx).Where("stream_id = ?", streamID.String()).First(&bookmark)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &bookmark, nil
}

// Delete removes the bookmark for a stream
func (r *BookmarkRepository) Delete(ctx context.Context, streamID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("stream_id = ?", streamID.String()).Delete(&models.Bookmark{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete bookmark: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
