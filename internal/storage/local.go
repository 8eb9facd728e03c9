package storage

import (
	"io"
	"os"
	"path/filepath"

	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/utils"
)

type LocalProvider struct {
	// RootPath is the directory served as /uploads (e.g., "./data")
	RootPath string
}

func NewLocalProvider(root string) *LocalProvider {
	// Ensure the root directory exists
	_ = os.MkdirAll(root, 0755)
	return &LocalProvider{RootPath: root}
}

func (l *LocalProvider) Name() string { return "local" }

func (l *LocalProvider) Upload(key string, body io.ReadSeeker, contentType string) (*UploadResult, error) {
	safeKey := utils.SanitizeKey(key)
	path := filepath.Join(l.RootPath, filepath.FromSlash(safeKey))

	// Ensure sub-directories exist (e.g. videos/2024/clip.mp4)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return nil, err
	}

	return &UploadResult{
		RemoteID: safeKey,
		URL:      "/uploads/" + safeKey,
	}, nil
}

func (l *LocalProvider) Delete(remoteID string) error {
	return os.Remove(filepath.Join(l.RootPath, filepath.FromSlash(remoteID)))
}

func (l *LocalProvider) Exists(remoteID string) (bool, error) {
	info, err := os.Stat(filepath.Join(l.RootPath, filepath.FromSlash(remoteID)))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}
