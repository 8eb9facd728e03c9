package storage

import (
	"fmt"

	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/config"
)

// NewDeleter returns a delete function that dispatches on provider name.
// The cleanup outbox can hold tasks for backends other than the currently
// configured one (e.g. after a migration from local to a CDN), so every
// backend with credentials in the config gets a provider here.
func NewDeleter(cfg *config.Config) func(provider, remoteID string) error {
	providers := map[string]Provider{
		"local": NewLocalProvider(cfg.Storage.LocalRoot),
	}
	if cfg.Storage.CloudinaryCloudName != "" {
		providers["cloudinary"] = NewCloudinaryProvider(
			cfg.Storage.CloudinaryCloudName,
			cfg.Storage.CloudinaryAPIKey,
			cfg.Storage.CloudinaryAPISecret,
			cfg.Storage.CloudinaryUploadPreset,
		)
	}
	if cfg.Storage.BunnyLibraryID != "" {
		providers["bunny"] = NewBunnyProvider(
			cfg.Storage.BunnyLibraryID,
			cfg.Storage.BunnyAPIKey,
			cfg.Storage.BunnyCDNHost,
		)
	}

	return func(provider, remoteID string) error {
		p, ok := providers[provider]
		if !ok {
			return fmt.Errorf("no credentials for storage provider %q", provider)
		}
		return p.Delete(remoteID)
	}
}
