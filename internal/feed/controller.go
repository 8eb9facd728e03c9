package feed

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/models"
)

// Controller owns the ordered video list behind the scroll feed: cache
// hydration, offset/limit pagination with id dedup, fetch-ahead, shuffle
// and scroll restoration. Superseded requests are cancelled and their
// responses dropped via a generation check, so a slow refresh can never
// clobber a list that pagination has since extended.
type Controller struct {
	source Source
	cache  *Cache

	limit         int
	fetchAheadGap int

	mu         sync.Mutex
	videos     []models.Video
	seen       map[string]bool
	total      int64
	hasMore    bool
	inflight   bool
	generation int
	cancelPrev context.CancelFunc

	rng *rand.Rand
}

// Options tunes a new Controller. Zero values get sensible defaults.
type Options struct {
	PageLimit     int
	FetchAheadGap int
	Seed          int64 // shuffle seed; 0 means unseeded (time-based)
}

func NewController(source Source, cache *Cache, opts Options) *Controller {
	if opts.PageLimit <= 0 {
		opts.PageLimit = 10
	}
	if opts.FetchAheadGap <= 0 {
		opts.FetchAheadGap = 3
	}
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	return &Controller{
		source:        source,
		cache:         cache,
		limit:         opts.PageLimit,
		fetchAheadGap: opts.FetchAheadGap,
		seen:          make(map[string]bool),
		hasMore:       true,
		rng:           rand.New(rand.NewSource(seed)),
	}
}

// LoadFirstPage hydrates from the on-device cache when possible and kicks
// off a background reconcile; otherwise it fetches synchronously. Returns
// whether the returned list came from cache.
func (c *Controller) LoadFirstPage(ctx context.Context) (fromCache bool, err error) {
	if cached, ok := c.cache.Load(); ok && len(cached) > 0 {
		c.mu.Lock()
		c.replaceLocked(cached)
		c.hasMore = true
		c.mu.Unlock()

		// Reconcile in the background without blocking the caller
		go func() {
			if err := c.Refresh(ctx); err != nil && ctx.Err() == nil {
				slog.Warn("background feed reconcile failed", "error", err)
			}
		}()
		return true, nil
	}

	return false, c.Refresh(ctx)
}

// Refresh refetches the first page, supersedes any in-flight request and
// replaces the list. The cache snapshot is rewritten on success.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	gen := c.beginRequestLocked()
	reqCtx, cancel := context.WithCancel(ctx)
	c.cancelPrev = cancel
	c.mu.Unlock()

	page, err := c.source.ListVideos(reqCtx, c.limit, 0, "createdAt", "desc")

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight = false

	if err != nil {
		return err
	}
	if gen != c.generation {
		// A newer request superseded us while we were in flight
		return nil
	}

	c.replaceLocked(page.Videos)
	c.total = page.Pagination.Total
	c.hasMore = page.Pagination.HasMore

	if err := c.cache.Save(page.Videos); err != nil {
		slog.Warn("feed cache write failed", "error", err)
	}
	return nil
}

// LoadNextPage appends the next offset/limit slice, dropping any id the
// list already contains.
func (c *Controller) LoadNextPage(ctx context.Context) error {
	c.mu.Lock()
	if c.inflight || !c.hasMore {
		c.mu.Unlock()
		return nil
	}
	gen := c.generation
	offset := len(c.videos)
	c.inflight = true
	c.mu.Unlock()

	page, err := c.source.ListVideos(ctx, c.limit, offset, "createdAt", "desc")

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight = false

	if err != nil {
		return err
	}
	if gen != c.generation {
		return nil
	}

	for _, v := range page.Videos {
		if c.seen[v.ID] {
			continue // raced with a background refresh; drop, don't duplicate
		}
		c.seen[v.ID] = true
		c.videos = append(c.videos, v)
	}
	c.total = page.Pagination.Total
	c.hasMore = page.Pagination.HasMore
	return nil
}

// OnActiveIndexChanged records the scroll position and triggers the
// fetch-ahead when the user is near the end of the loaded list.
func (c *Controller) OnActiveIndexChanged(ctx context.Context, idx int) {
	c.cache.SaveScrollIndex(idx)

	c.mu.Lock()
	trigger := c.hasMore && !c.inflight && idx >= len(c.videos)-c.fetchAheadGap
	c.mu.Unlock()

	if trigger {
		go func() {
			if err := c.LoadNextPage(ctx); err != nil && ctx.Err() == nil {
				slog.Warn("fetch-ahead failed", "error", err)
			}
		}()
	}
}

// Shuffle randomizes the loaded list in place (Fisher–Yates) without
// refetching anything.
func (c *Controller) Shuffle() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.videos) - 1; i > 0; i-- {
		j := c.rng.Intn(i + 1)
		c.videos[i], c.videos[j] = c.videos[j], c.videos[i]
	}
}

// Remove drops a video from the local list (e.g. after the server reported
// it deleted). No error if the id is unknown.
func (c *Controller) Remove(videoID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.seen[videoID] {
		return
	}
	delete(c.seen, videoID)
	for i, v := range c.videos {
		if v.ID == videoID {
			c.videos = append(c.videos[:i], c.videos[i+1:]...)
			break
		}
	}
}

// Videos returns a copy of the loaded list.
func (c *Controller) Videos() []models.Video {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Video, len(c.videos))
	copy(out, c.videos)
	return out
}

// Total reports the server-side total from the last pagination block.
func (c *Controller) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// HasMore reports whether the server has more pages.
func (c *Controller) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

// RestoreScrollIndex returns the persisted scroll position clamped to the
// loaded list.
func (c *Controller) RestoreScrollIndex() int {
	idx := c.cache.ScrollIndex()
	c.mu.Lock()
	defer c.mu.Unlock()
	if idx >= len(c.videos) {
		if len(c.videos) == 0 {
			return 0
		}
		return len(c.videos) - 1
	}
	return idx
}

// beginRequestLocked supersedes whatever is in flight: bumps the
// generation and cancels the previous request context.
func (c *Controller) beginRequestLocked() int {
	c.generation++
	if c.cancelPrev != nil {
		c.cancelPrev()
		c.cancelPrev = nil
	}
	c.inflight = true
	return c.generation
}

func (c *Controller) replaceLocked(videos []models.Video) {
	c.seen = make(map[string]bool, len(videos))
	c.videos = c.videos[:0]
	for _, v := range videos {
		if c.seen[v.ID] {
			continue
		}
		c.seen[v.ID] = true
		c.videos = append(c.videos, v)
	}
}
