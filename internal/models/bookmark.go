package models

import (
	"time"

	"github.com/google/uuid"
)

// Bookmark is the saved resume position of a VOD stream, in content time (ads excluded).
// There is at most one bookmark per stream.
type Bookmark struct {
	StreamID       uuid.UUID `json:"stream_id" gorm:"type:text;primaryKey;column:stream_id"`
	ContentSeconds float64   `json:"content_seconds" gorm:"type:real;not null;column:content_seconds" validate:"gte=0"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}
