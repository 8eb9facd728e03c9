package models

import "time"

// Cleanup task lifecycle
const (
	CleanupPending   = "pending"
	CleanupDone      = "done"
	CleanupAbandoned = "abandoned"
)

// CleanupTask is an outbox row for deleting a remote CDN asset after its
// video record is gone. It is written in the same transaction as the video
// delete, so a committed delete always has a matching task.
type CleanupTask struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Provider      string    `gorm:"not null" json:"provider"` // "cloudinary", "bunny", "local"
	RemoteID      string    `gorm:"not null" json:"remote_id"`
	Status        string    `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	Attempts      int       `gorm:"default:0" json:"attempts"`
	NextAttemptAt time.Time `gorm:"index" json:"next_attempt_at"`
	LastError     string    `json:"last_error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
