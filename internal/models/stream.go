package models

import (
	"time"

	"github.com/google/uuid"
)

// Stream represents a playable stream in the catalog.
// Live streams are identified by an asset key, VOD streams by content source and video ID.
type Stream struct {
	ID              uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	Name            string    `json:"name" gorm:"type:text;not null;column:name" validate:"required,min=1,max=255"`
	Mode            string    `json:"mode" gorm:"type:text;not null;column:mode" validate:"oneof=live vod"`
	AssetKey        *string   `json:"asset_key,omitempty" gorm:"type:text;column:asset_key"`
	ContentSourceID *string   `json:"content_source_id,omitempty" gorm:"type:text;column:content_source_id"`
	VideoID         *string   `json:"video_id,omitempty" gorm:"type:text;column:video_id"`
	APIKey          *string   `json:"api_key,omitempty" gorm:"type:text;column:api_key"`
	CreatedAt       time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// NewLiveStream creates a live Stream with generated UUID and timestamps
func NewLiveStream(name, assetKey string) *Stream {
	now := time.Now().UTC()
	return &Stream{
		ID:        uuid.New(),
		Name:      name,
		Mode:      StreamModeLive,
		AssetKey:  &assetKey,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewVODStream creates an on-demand Stream with generated UUID and timestamps
func NewVODStream(name, contentSourceID, videoID string) *Stream {
	now := time.Now().UTC()
	return &Stream{
		ID:              uuid.New(),
		Name:            name,
		Mode:            StreamModeVOD,
		ContentSourceID: &contentSourceID,
		VideoID:         &videoID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// IsLive reports whether the stream is a live stream
func (s *Stream) IsLive() bool {
	return s.Mode == StreamModeLive
}
