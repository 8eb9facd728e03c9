package feed

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/localstore"
	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/models"
)

// pagedSource serves a fixed catalog through offset/limit pagination.
type pagedSource struct {
	mu      sync.Mutex
	catalog []models.Video
	calls   int
}

func (s *pagedSource) ListVideos(ctx context.Context, limit, offset int, sortBy, sortOrder string) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++

	end := offset + limit
	if end > len(s.catalog) {
		end = len(s.catalog)
	}
	var slice []models.Video
	if offset < len(s.catalog) {
		slice = s.catalog[offset:end]
	}
	return &Page{
		Videos: slice,
		Pagination: Pagination{
			Total:   int64(len(s.catalog)),
			Limit:   limit,
			Offset:  offset,
			HasMore: end < len(s.catalog),
		},
	}, nil
}

func catalog(n int) []models.Video {
	out := make([]models.Video, n)
	for i := range out {
		out[i] = models.Video{ID: fmt.Sprintf("vid-%03d", i), Title: fmt.Sprintf("Video %d", i)}
	}
	return out
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	return NewCache(localstore.NewMemStore())
}

func TestFirstPageWithoutCacheFetchesSync(t *testing.T) {
	src := &pagedSource{catalog: catalog(35)}
	c := NewController(src, newTestCache(t), Options{PageLimit: 10})

	fromCache, err := c.LoadFirstPage(context.Background())
	if err != nil {
		t.Fatalf("LoadFirstPage: %v", err)
	}
	if fromCache {
		t.Error("no cache existed, fromCache should be false")
	}
	if got := len(c.Videos()); got != 10 {
		t.Errorf("loaded %d videos, want 10", got)
	}
	if c.Total() != 35 || !c.HasMore() {
		t.Errorf("total=%d hasMore=%v, want 35/true", c.Total(), c.HasMore())
	}
}

func TestPaginationMath(t *testing.T) {
	src := &pagedSource{catalog: catalog(35)}
	c := NewController(src, newTestCache(t), Options{PageLimit: 10})
	ctx := context.Background()

	c.LoadFirstPage(ctx)
	c.LoadNextPage(ctx)
	c.LoadNextPage(ctx)
	c.LoadNextPage(ctx) // offset 30 → 5 items, hasMore=false

	if got := len(c.Videos()); got != 35 {
		t.Errorf("loaded %d videos, want 35", got)
	}
	if c.HasMore() {
		t.Error("hasMore should be false after the last page")
	}

	// Further loads are no-ops
	before := src.calls
	c.LoadNextPage(ctx)
	if src.calls != before {
		t.Error("LoadNextPage fetched past the end")
	}
}

func TestOverlappingPagesNeverDuplicate(t *testing.T) {
	src := &pagedSource{catalog: catalog(20)}
	c := NewController(src, newTestCache(t), Options{PageLimit: 10})
	ctx := context.Background()

	c.LoadFirstPage(ctx)

	// A new upload shifts offsets, so the next page re-serves vid-009
	src.mu.Lock()
	src.catalog = append([]models.Video{{ID: "vid-new", Title: "fresh upload"}}, src.catalog...)
	src.mu.Unlock()

	c.LoadNextPage(ctx)

	counts := make(map[string]int)
	for _, v := range c.Videos() {
		counts[v.ID]++
	}
	for id, n := range counts {
		if n > 1 {
			t.Errorf("id %s appears %d times", id, n)
		}
	}
}

func TestCacheHydrationAndFreshness(t *testing.T) {
	kv := localstore.NewMemStore()
	cache := NewCache(kv)

	cache.Save(catalog(5))

	// 59 minutes old: still valid
	cache.clock = func() time.Time { return time.Now().Add(59 * time.Minute) }
	if videos, ok := cache.Load(); !ok || len(videos) != 5 {
		t.Errorf("59-minute-old cache rejected (ok=%v len=%d)", ok, len(videos))
	}

	// 61 minutes old: stale, treated as absent
	cache.clock = func() time.Time { return time.Now().Add(61 * time.Minute) }
	if _, ok := cache.Load(); ok {
		t.Error("61-minute-old cache accepted")
	}
	// And the stale blob is gone
	cache.clock = time.Now
	if _, ok := cache.Load(); ok {
		t.Error("stale cache not cleared")
	}
}

func TestCacheVersionMismatchRejected(t *testing.T) {
	kv := localstore.NewMemStore()
	cache := NewCache(kv)
	cache.Save(catalog(3))

	raw, _ := kv.Get("feed.cache")
	kv.Set("feed.cache", replaceVersion(raw, `"version":"2"`, `"version":"1"`))

	if _, ok := cache.Load(); ok {
		t.Error("cache with wrong version tag accepted")
	}
}

func replaceVersion(s, from, to string) string {
	for i := 0; i+len(from) <= len(s); i++ {
		if s[i:i+len(from)] == from {
			return s[:i] + to + s[i+len(from):]
		}
	}
	return s
}

func TestFirstPageHydratesFromCache(t *testing.T) {
	kv := localstore.NewMemStore()
	cache := NewCache(kv)
	cache.Save(catalog(10))

	src := &pagedSource{catalog: catalog(10)}
	c := NewController(src, cache, Options{PageLimit: 10})

	fromCache, err := c.LoadFirstPage(context.Background())
	if err != nil {
		t.Fatalf("LoadFirstPage: %v", err)
	}
	if !fromCache {
		t.Error("valid cache existed, fromCache should be true")
	}
	if got := len(c.Videos()); got != 10 {
		t.Errorf("hydrated %d videos, want 10", got)
	}
}

func TestFetchAheadTrigger(t *testing.T) {
	src := &pagedSource{catalog: catalog(30)}
	c := NewController(src, newTestCache(t), Options{PageLimit: 10, FetchAheadGap: 3})
	ctx := context.Background()

	c.LoadFirstPage(ctx)

	// Index 5 is far from the end: no fetch
	c.OnActiveIndexChanged(ctx, 5)
	time.Sleep(20 * time.Millisecond)
	if got := len(c.Videos()); got != 10 {
		t.Errorf("fetch-ahead fired too early, have %d videos", got)
	}

	// Index 7 is within 3 of the end (10-3): fetch
	c.OnActiveIndexChanged(ctx, 7)
	waitFor(t, func() bool { return len(c.Videos()) == 20 })
}

func TestShufflePreservesSet(t *testing.T) {
	src := &pagedSource{catalog: catalog(15)}
	c := NewController(src, newTestCache(t), Options{PageLimit: 15, Seed: 42})
	ctx := context.Background()

	c.LoadFirstPage(ctx)
	before := c.Videos()

	c.Shuffle()
	after := c.Videos()

	if len(after) != len(before) {
		t.Fatalf("shuffle changed length: %d → %d", len(before), len(after))
	}

	beforeIDs := make([]string, len(before))
	afterIDs := make([]string, len(after))
	for i := range before {
		beforeIDs[i] = before[i].ID
		afterIDs[i] = after[i].ID
	}
	sort.Strings(beforeIDs)
	sort.Strings(afterIDs)
	for i := range beforeIDs {
		if beforeIDs[i] != afterIDs[i] {
			t.Fatalf("shuffle changed the set of ids")
		}
	}

	if src.calls != 1 {
		t.Errorf("shuffle must not refetch (calls=%d)", src.calls)
	}
}

func TestRemoveDropsLocalEntry(t *testing.T) {
	src := &pagedSource{catalog: catalog(5)}
	c := NewController(src, newTestCache(t), Options{PageLimit: 5})
	c.LoadFirstPage(context.Background())

	c.Remove("vid-002")

	for _, v := range c.Videos() {
		if v.ID == "vid-002" {
			t.Error("vid-002 still present after Remove")
		}
	}
	if got := len(c.Videos()); got != 4 {
		t.Errorf("len = %d, want 4", got)
	}
}

func TestScrollIndexRestoreClamped(t *testing.T) {
	src := &pagedSource{catalog: catalog(5)}
	cache := newTestCache(t)
	c := NewController(src, cache, Options{PageLimit: 5})
	c.LoadFirstPage(context.Background())

	cache.SaveScrollIndex(3)
	if got := c.RestoreScrollIndex(); got != 3 {
		t.Errorf("RestoreScrollIndex = %d, want 3", got)
	}

	cache.SaveScrollIndex(99)
	if got := c.RestoreScrollIndex(); got != 4 {
		t.Errorf("RestoreScrollIndex = %d, want clamped to 4", got)
	}
}

// blockingSource parks the first request until released, so tests can
// interleave a slow response with a newer one.
type blockingSource struct {
	inner    *pagedSource
	mu       sync.Mutex
	block    chan struct{}
	blocked  bool
	firstArg int // offset of the blocked call
}

func (s *blockingSource) ListVideos(ctx context.Context, limit, offset int, sortBy, sortOrder string) (*Page, error) {
	s.mu.Lock()
	shouldBlock := !s.blocked
	if shouldBlock {
		s.blocked = true
		s.firstArg = offset
	}
	s.mu.Unlock()

	if shouldBlock {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.inner.ListVideos(ctx, limit, offset, sortBy, sortOrder)
}

func TestSupersededRefreshIsDropped(t *testing.T) {
	inner := &pagedSource{catalog: catalog(10)}
	src := &blockingSource{inner: inner, block: make(chan struct{})}
	c := NewController(src, newTestCache(t), Options{PageLimit: 10})
	ctx := context.Background()

	// First refresh parks in flight
	done := make(chan error, 1)
	go func() { done <- c.Refresh(ctx) }()
	waitFor(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.blocked
	})

	// Second refresh supersedes it; catalog changed in between
	inner.mu.Lock()
	inner.catalog = catalog(3)
	inner.mu.Unlock()
	if err := c.Refresh(ctx); err != nil {
		t.Fatalf("second refresh: %v", err)
	}

	// Release the stale request; its cancelled context should kill it,
	// and even if it resolved, the generation check drops the payload.
	close(src.block)
	<-done

	if got := len(c.Videos()); got != 3 {
		t.Errorf("stale response overwrote newer list: len=%d, want 3", got)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}
