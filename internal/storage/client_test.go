package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// flakyProvider fails a fixed number of uploads before succeeding.
type flakyProvider struct {
	failures int
	calls    int
	readAt   []int64 // body position observed at each call
}

func (f *flakyProvider) Name() string { return "flaky" }

func (f *flakyProvider) Upload(key string, body io.ReadSeeker, contentType string) (*UploadResult, error) {
	pos, _ := body.Seek(0, io.SeekCurrent)
	f.readAt = append(f.readAt, pos)
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("transient network error")
	}
	return &UploadResult{RemoteID: key, URL: "https://cdn.example/" + key}, nil
}

func (f *flakyProvider) Delete(remoteID string) error       { return nil }
func (f *flakyProvider) Exists(remoteID string) (bool, error) { return true, nil }

func TestUploadVideo_RetriesWithBackoff(t *testing.T) {
	backend := &flakyProvider{failures: 2}
	client := NewWithProvider(backend, 3)

	var delays []time.Duration
	client.sleep = func(d time.Duration) { delays = append(delays, d) }

	body := strings.NewReader("fake video bytes")
	// Leave the reader mid-stream to prove each attempt rewinds it
	body.Seek(5, io.SeekStart)

	result, err := client.UploadVideo("clip.mp4", body, "video/mp4")
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if result.RemoteID != "clip.mp4" {
		t.Errorf("RemoteID = %q", result.RemoteID)
	}

	if backend.calls != 3 {
		t.Errorf("calls = %d, want 3", backend.calls)
	}
	for i, pos := range backend.readAt {
		if pos != 0 {
			t.Errorf("attempt %d saw body at offset %d, want 0", i, pos)
		}
	}

	// Doubled delays: 1s then 2s
	if len(delays) != 2 || delays[0] != time.Second || delays[1] != 2*time.Second {
		t.Errorf("delays = %v, want [1s 2s]", delays)
	}
}

func TestUploadVideo_ExhaustsRetries(t *testing.T) {
	backend := &flakyProvider{failures: 100}
	client := NewWithProvider(backend, 2)
	client.sleep = func(time.Duration) {}

	_, err := client.UploadVideo("clip.mp4", strings.NewReader("x"), "video/mp4")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if backend.calls != 3 {
		t.Errorf("calls = %d, want 3 (initial + 2 retries)", backend.calls)
	}
}

func TestLocalProvider_RoundTrip(t *testing.T) {
	root := t.TempDir()
	p := NewLocalProvider(root)

	result, err := p.Upload("videos/my clip.mp4", strings.NewReader("data"), "video/mp4")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if result.URL != "/uploads/videos/my_clip.mp4" {
		t.Errorf("URL = %q", result.URL)
	}

	if _, err := os.Stat(filepath.Join(root, "videos", "my_clip.mp4")); err != nil {
		t.Fatalf("uploaded file missing: %v", err)
	}

	ok, err := p.Exists(result.RemoteID)
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}

	if err := p.Delete(result.RemoteID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	ok, _ = p.Exists(result.RemoteID)
	if ok {
		t.Error("file still exists after delete")
	}
}

func TestLocalProvider_PathEscapeBlocked(t *testing.T) {
	root := t.TempDir()
	p := NewLocalProvider(root)

	result, err := p.Upload("../../etc/passwd", strings.NewReader("x"), "text/plain")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if strings.Contains(result.RemoteID, "..") {
		t.Errorf("path escape survived sanitizing: %q", result.RemoteID)
	}
}
