package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Video represents a single uploaded short video. A record normally has
// exactly one storage backend populated, but records produced by a
// local-to-CDN migration may carry more than one pointer set; the resolver
// applies a fixed priority order in that case.
type Video struct {
	ID        string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Title       string `gorm:"uniqueIndex;not null" json:"title"`
	Description string `json:"description"`

	// Local storage
	FilePath string `json:"file_path,omitempty"`

	// Cloudinary
	CloudinaryPublicID string `gorm:"index" json:"cloudinary_public_id,omitempty"`
	CloudinaryURL      string `json:"cloudinary_url,omitempty"`

	// Bunny Stream
	BunnyVideoID      string `gorm:"index" json:"bunny_video_id,omitempty"`
	BunnyStreamURL    string `json:"bunny_stream_url,omitempty"`
	BunnyThumbnailURL string `json:"bunny_thumbnail_url,omitempty"`

	// Manually uploaded thumbnail (wins over CDN auto-thumbnails)
	ThumbnailURL string `json:"thumbnail_url,omitempty"`

	// Denormalized counters, bumped on every view/like event
	Views int64 `gorm:"default:0" json:"views"`
	Likes int64 `gorm:"default:0" json:"likes"`

	AdminID string `gorm:"index" json:"admin_id"`
}

func (v *Video) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}

// VideoLike records one like per device so the toggle endpoint is idempotent.
type VideoLike struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	VideoID   string    `gorm:"index:idx_video_device,unique;type:varchar(36)" json:"video_id"`
	DeviceID  string    `gorm:"index:idx_video_device,unique" json:"device_id"`
	CreatedAt time.Time `json:"created_at"`
}
