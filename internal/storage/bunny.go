package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// BunnyProvider drives the Bunny Stream API: create a video object in the
// library, then PUT the binary against it. Playback goes through the
// library's CDN host.
type BunnyProvider struct {
	libraryID string
	apiKey    string
	cdnHost   string
	client    *http.Client
}

func NewBunnyProvider(libraryID, apiKey, cdnHost string) *BunnyProvider {
	return &BunnyProvider{
		libraryID: libraryID,
		apiKey:    apiKey,
		cdnHost:   cdnHost,
		client:    &http.Client{Timeout: 120 * time.Second},
	}
}

func (p *BunnyProvider) Name() string { return "bunny" }

func (p *BunnyProvider) Upload(key string, body io.ReadSeeker, contentType string) (*UploadResult, error) {
	// 1. Create the video object to get a GUID
	payload, _ := json.Marshal(map[string]string{"title": key})
	createURL := fmt.Sprintf("https://video.bunnycdn.com/library/%s/videos", p.libraryID)

	req, err := http.NewRequest(http.MethodPost, createURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("AccessKey", p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 && resp.StatusCode != 201 {
		return nil, fmt.Errorf("bunny create video: status %d", resp.StatusCode)
	}

	var created struct {
		GUID string `json:"guid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, err
	}

	// 2. Upload the binary against the GUID
	uploadURL := fmt.Sprintf("https://video.bunnycdn.com/library/%s/videos/%s", p.libraryID, created.GUID)
	upReq, err := http.NewRequest(http.MethodPut, uploadURL, body)
	if err != nil {
		return nil, err
	}
	upReq.Header.Set("AccessKey", p.apiKey)
	upReq.Header.Set("Content-Type", "application/octet-stream")

	upResp, err := p.client.Do(upReq)
	if err != nil {
		return nil, err
	}
	defer upResp.Body.Close()

	if upResp.StatusCode != 200 {
		return nil, fmt.Errorf("bunny upload: status %d", upResp.StatusCode)
	}

	return &UploadResult{
		RemoteID:     created.GUID,
		URL:          fmt.Sprintf("https://%s/%s/playlist.m3u8", p.cdnHost, created.GUID),
		ThumbnailURL: fmt.Sprintf("https://%s/%s/thumbnail.jpg", p.cdnHost, created.GUID),
	}, nil
}

func (p *BunnyProvider) Delete(remoteID string) error {
	endpoint := fmt.Sprintf("https://video.bunnycdn.com/library/%s/videos/%s", p.libraryID, remoteID)
	req, err := http.NewRequest(http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("AccessKey", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()

	// 404 counts as deleted for cleanup purposes
	if resp.StatusCode != 200 && resp.StatusCode != 404 {
		return fmt.Errorf("bunny delete: status %d", resp.StatusCode)
	}
	return nil
}

func (p *BunnyProvider) Exists(remoteID string) (bool, error) {
	endpoint := fmt.Sprintf("https://video.bunnycdn.com/library/%s/videos/%s", p.libraryID, remoteID)
	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("AccessKey", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return false, err
	}
	resp.Body.Close()
	return resp.StatusCode == 200, nil
}
