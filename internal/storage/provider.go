package storage

import (
	"io"

	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/config"
)

// Provider defines the behavior for any video storage backend.
type Provider interface {
	Name() string
	Upload(key string, body io.ReadSeeker, contentType string) (*UploadResult, error)
	Delete(remoteID string) error
	Exists(remoteID string) (bool, error)
}

// UploadResult is the provider-agnostic outcome of a video upload. RemoteID
// is whatever handle the backend needs for a later delete.
type UploadResult struct {
	RemoteID     string
	URL          string
	ThumbnailURL string
}

// newProvider is a factory that returns the configured backend.
func newProvider(cfg *config.Config) Provider {
	switch cfg.Storage.Provider {
	case "cloudinary":
		return NewCloudinaryProvider(
			cfg.Storage.CloudinaryCloudName,
			cfg.Storage.CloudinaryAPIKey,
			cfg.Storage.CloudinaryAPISecret,
			cfg.Storage.CloudinaryUploadPreset,
		)
	case "bunny":
		return NewBunnyProvider(
			cfg.Storage.BunnyLibraryID,
			cfg.Storage.BunnyAPIKey,
			cfg.Storage.BunnyCDNHost,
		)
	default:
		return NewLocalProvider(cfg.Storage.LocalRoot)
	}
}
