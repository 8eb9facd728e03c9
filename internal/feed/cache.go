package feed

import (
	"encoding/json"
	"time"

	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/localstore"
	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/models"
)

// CacheVersion is bumped whenever the cached shape changes; snapshots with
// any other tag are discarded on read.
const CacheVersion = "2"

// CacheTTL is how long a snapshot stays usable.
const CacheTTL = 1 * time.Hour

const (
	keyCache       = "feed.cache"
	keyScrollIndex = "feed.scroll_index"
)

// snapshot is the serialized first page plus its capture time.
type snapshot struct {
	Version    string         `json:"version"`
	CapturedAt time.Time      `json:"captured_at"`
	Videos     []models.Video `json:"videos"`
}

// Cache persists the first feed page on-device so a revisit renders
// instantly while a background refetch reconciles.
type Cache struct {
	store localstore.Store
	clock func() time.Time
}

func NewCache(store localstore.Store) *Cache {
	return &Cache{store: store, clock: time.Now}
}

// Load returns the cached page if it is still valid: matching version tag
// and younger than the TTL. Anything else is treated as absent and cleared.
func (c *Cache) Load() ([]models.Video, bool) {
	raw, ok := c.store.Get(keyCache)
	if !ok {
		return nil, false
	}

	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		c.Clear()
		return nil, false
	}

	if snap.Version != CacheVersion || c.clock().Sub(snap.CapturedAt) >= CacheTTL {
		c.Clear()
		return nil, false
	}

	return snap.Videos, true
}

// Save overwrites the snapshot with the given page.
func (c *Cache) Save(videos []models.Video) error {
	raw, err := json.Marshal(snapshot{
		Version:    CacheVersion,
		CapturedAt: c.clock(),
		Videos:     videos,
	})
	if err != nil {
		return err
	}
	return c.store.Set(keyCache, string(raw))
}

// Clear drops the snapshot. Called on logout and explicit refresh.
func (c *Cache) Clear() {
	c.store.Delete(keyCache)
}

// SaveScrollIndex remembers where the user was in the feed.
func (c *Cache) SaveScrollIndex(idx int) {
	raw, _ := json.Marshal(idx)
	c.store.Set(keyScrollIndex, string(raw))
}

// ScrollIndex returns the saved position, or 0.
func (c *Cache) ScrollIndex() int {
	raw, ok := c.store.Get(keyScrollIndex)
	if !ok {
		return 0
	}
	var idx int
	if err := json.Unmarshal([]byte(raw), &idx); err != nil || idx < 0 {
		return 0
	}
	return idx
}
