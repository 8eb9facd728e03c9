// Package preload keeps a constant-size sliding window of upcoming videos
// warm: the next video buffers enough to start instantly, its two followers
// and the previous video fetch metadata only.
package preload

import (
	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/models"
	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/resolver"
)

type Priority string

const (
	// PriorityPartial buffers actual content so playback starts instantly
	PriorityPartial Priority = "partial"
	// PriorityMetadata fetches just enough to know duration/codec
	PriorityMetadata Priority = "metadata"
)

// Item is one pending or in-flight preload.
type Item struct {
	VideoID  string
	URL      string
	Priority Priority
}

// Loader issues and cancels the underlying preload requests.
type Loader interface {
	Start(item Item)
	Cancel(videoID string)
}

// Scheduler owns the preload window. Not safe for concurrent use; the feed
// drives it from its own event flow.
type Scheduler struct {
	loader Loader
	active map[string]Item
}

func NewScheduler(loader Loader) *Scheduler {
	return &Scheduler{
		loader: loader,
		active: make(map[string]Item),
	}
}

// Update rebuilds the window around the active index: next at partial
// priority, next+1/next+2 and previous at metadata. Entries that left the
// window are cancelled, entries already in flight at the right priority are
// left alone.
func (s *Scheduler) Update(activeIndex int, videos []*models.Video) {
	want := make(map[string]Item)

	add := func(idx int, prio Priority) {
		if idx < 0 || idx >= len(videos) {
			return
		}
		v := videos[idx]
		url := resolver.ResolveVideoURL(v)
		if url == "" {
			return // not playable, nothing to warm
		}
		if _, dup := want[v.ID]; dup {
			return
		}
		want[v.ID] = Item{VideoID: v.ID, URL: url, Priority: prio}
	}

	add(activeIndex+1, PriorityPartial)
	add(activeIndex+2, PriorityMetadata)
	add(activeIndex+3, PriorityMetadata)
	add(activeIndex-1, PriorityMetadata)

	// Cancel whatever fell out of the window or changed priority
	for id, item := range s.active {
		next, keep := want[id]
		if keep && next.Priority == item.Priority {
			continue
		}
		s.loader.Cancel(id)
		delete(s.active, id)
	}

	// Start the newcomers
	for id, item := range want {
		if _, exists := s.active[id]; exists {
			continue
		}
		s.loader.Start(item)
		s.active[id] = item
	}
}

// Active returns a snapshot of the current window, mainly for tests and
// debug endpoints.
func (s *Scheduler) Active() []Item {
	out := make([]Item, 0, len(s.active))
	for _, item := range s.active {
		out = append(out, item)
	}
	return out
}

// Close cancels everything in flight. Called on unmount.
func (s *Scheduler) Close() {
	for id := range s.active {
		s.loader.Cancel(id)
		delete(s.active, id)
	}
}
