package preload

import (
	"fmt"
	"sort"
	"testing"

	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/models"
)

type recordingLoader struct {
	started   []Item
	cancelled []string
}

func (l *recordingLoader) Start(item Item)        { l.started = append(l.started, item) }
func (l *recordingLoader) Cancel(videoID string) { l.cancelled = append(l.cancelled, videoID) }

func makeFeed(n int) []*models.Video {
	videos := make([]*models.Video, n)
	for i := range videos {
		videos[i] = &models.Video{
			ID:             fmt.Sprintf("vid-%02d", i),
			BunnyStreamURL: fmt.Sprintf("https://vz.b-cdn.net/%02d/playlist.m3u8", i),
		}
	}
	return videos
}

func prioritiesByID(items []Item) map[string]Priority {
	out := make(map[string]Priority, len(items))
	for _, item := range items {
		out[item.VideoID] = item.Priority
	}
	return out
}

func TestWindowShape(t *testing.T) {
	loader := &recordingLoader{}
	s := NewScheduler(loader)
	videos := makeFeed(10)

	s.Update(4, videos)

	got := prioritiesByID(s.Active())
	want := map[string]Priority{
		"vid-05": PriorityPartial,
		"vid-06": PriorityMetadata,
		"vid-07": PriorityMetadata,
		"vid-03": PriorityMetadata,
	}

	if len(got) != len(want) {
		t.Fatalf("window = %v, want %v", got, want)
	}
	for id, prio := range want {
		if got[id] != prio {
			t.Errorf("%s priority = %s, want %s", id, got[id], prio)
		}
	}
}

func TestWindowAtFeedEdges(t *testing.T) {
	loader := &recordingLoader{}
	s := NewScheduler(loader)
	videos := makeFeed(3)

	// At index 0 there is no previous video
	s.Update(0, videos)
	got := prioritiesByID(s.Active())
	if len(got) != 2 {
		t.Errorf("window at start = %v, want next + next+1 only", got)
	}

	// At the last index there is nothing ahead
	s.Update(2, videos)
	got = prioritiesByID(s.Active())
	if len(got) != 1 || got["vid-01"] != PriorityMetadata {
		t.Errorf("window at end = %v, want previous only", got)
	}
}

func TestAdvancingCancelsDepartedEntries(t *testing.T) {
	loader := &recordingLoader{}
	s := NewScheduler(loader)
	videos := makeFeed(10)

	s.Update(2, videos)
	loader.cancelled = nil

	s.Update(3, videos)

	// vid-01 (old previous) left the window entirely
	found := false
	for _, id := range loader.cancelled {
		if id == "vid-01" {
			found = true
		}
	}
	if !found {
		t.Errorf("cancelled = %v, want vid-01 cancelled", loader.cancelled)
	}
}

func TestPriorityChangeRestarts(t *testing.T) {
	loader := &recordingLoader{}
	s := NewScheduler(loader)
	videos := makeFeed(10)

	s.Update(2, videos) // vid-04 at metadata
	loader.started = nil
	loader.cancelled = nil

	s.Update(3, videos) // vid-04 now next → partial

	cancelled := false
	for _, id := range loader.cancelled {
		if id == "vid-04" {
			cancelled = true
		}
	}
	restartedAtPartial := false
	for _, item := range loader.started {
		if item.VideoID == "vid-04" && item.Priority == PriorityPartial {
			restartedAtPartial = true
		}
	}
	if !cancelled || !restartedAtPartial {
		t.Errorf("vid-04 not re-issued at partial (cancelled=%v restarted=%v)", cancelled, restartedAtPartial)
	}
}

func TestWindowStaysConstantSize(t *testing.T) {
	loader := &recordingLoader{}
	s := NewScheduler(loader)
	videos := makeFeed(500)

	for i := 0; i < 400; i++ {
		s.Update(i, videos)
		if n := len(s.Active()); n > 4 {
			t.Fatalf("window grew to %d at index %d", n, i)
		}
	}
}

func TestUnplayableVideosSkipped(t *testing.T) {
	loader := &recordingLoader{}
	s := NewScheduler(loader)

	videos := makeFeed(4)
	videos[1] = &models.Video{ID: "vid-01"} // no storage pointers at all

	s.Update(0, videos)

	for _, item := range s.Active() {
		if item.VideoID == "vid-01" {
			t.Error("unplayable video must not be preloaded")
		}
	}
}

func TestPreloadedURLsAreProgressive(t *testing.T) {
	loader := &recordingLoader{}
	s := NewScheduler(loader)

	s.Update(0, makeFeed(5))

	for _, item := range loader.started {
		if len(item.URL) > 5 && item.URL[len(item.URL)-5:] == ".m3u8" {
			t.Errorf("manifest URL issued to preloader: %s", item.URL)
		}
	}
}

func TestCloseCancelsEverything(t *testing.T) {
	loader := &recordingLoader{}
	s := NewScheduler(loader)

	s.Update(1, makeFeed(6))
	before := len(s.Active())
	if before == 0 {
		t.Fatal("expected a non-empty window")
	}

	s.Close()

	if len(s.Active()) != 0 {
		t.Error("window not empty after Close")
	}
	sort.Strings(loader.cancelled)
	if len(loader.cancelled) < before {
		t.Errorf("cancelled %d items, want at least %d", len(loader.cancelled), before)
	}
}
