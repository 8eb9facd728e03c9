package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/models"
)

// Pagination is the block the list endpoint returns alongside the page.
type Pagination struct {
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"hasMore"`
}

// Page is one fetched slice of the feed.
type Page struct {
	Videos     []models.Video `json:"videos"`
	Pagination Pagination     `json:"pagination"`
}

// Source is where the controller gets feed pages from. The HTTP client
// below is the production implementation; tests substitute fakes.
type Source interface {
	ListVideos(ctx context.Context, limit, offset int, sortBy, sortOrder string) (*Page, error)
}

// APIClient talks to the platform's REST API.
type APIClient struct {
	baseURL string
	client  *http.Client
}

func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *APIClient) ListVideos(ctx context.Context, limit, offset int, sortBy, sortOrder string) (*Page, error) {
	u, err := url.Parse(a.baseURL + "/api/videos")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	if sortBy != "" {
		q.Set("sortBy", sortBy)
	}
	if sortOrder != "" {
		q.Set("sortOrder", sortOrder)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("list videos: status %d", resp.StatusCode)
	}

	var page Page
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, err
	}
	return &page, nil
}

// RecordView bumps the view counter. Fire-and-forget from the player's
// perspective; errors only matter to the caller's logging.
func (a *APIClient) RecordView(ctx context.Context, videoID string) error {
	return a.post(ctx, "/api/videos/"+videoID+"/view")
}

// ToggleLike flips the like for this device and returns the new state.
func (a *APIClient) ToggleLike(ctx context.Context, videoID, deviceID string) (liked bool, likes int64, err error) {
	body := fmt.Sprintf(`{"deviceId":%q}`, deviceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/api/videos/"+videoID+"/like", strings.NewReader(body))
	if err != nil {
		return false, 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return false, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return false, 0, fmt.Errorf("toggle like: status %d", resp.StatusCode)
	}

	var result struct {
		Liked bool  `json:"liked"`
		Likes int64 `json:"likes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return false, 0, err
	}
	return result.Liked, result.Likes, nil
}

func (a *APIClient) post(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		return fmt.Errorf("%s: status %d", path, resp.StatusCode)
	}
	return nil
}
