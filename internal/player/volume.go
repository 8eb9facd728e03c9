package player

import (
	"strconv"
	"sync"

	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/localstore"
)

const (
	keyMuted  = "player.muted"
	keyVolume = "player.volume"
)

// VolumeState is the shared mute/volume snapshot broadcast to every player.
type VolumeState struct {
	Muted  bool
	Volume float64 // 0..1
}

// VolumeStore is the single source of truth for mute/volume across every
// mounted player. Writers don't coordinate; last write wins and every
// subscriber sees it, so the active element and all its siblings agree.
type VolumeStore struct {
	mu    sync.RWMutex
	state VolumeState
	store localstore.Store
	subs  map[int]func(VolumeState)
	next  int
}

// NewVolumeStore loads the persisted state (defaulting to muted, full
// volume, which is what autoplay policies want on first visit).
func NewVolumeStore(store localstore.Store) *VolumeStore {
	s := &VolumeStore{
		state: VolumeState{Muted: true, Volume: 1.0},
		store: store,
		subs:  make(map[int]func(VolumeState)),
	}

	if raw, ok := store.Get(keyMuted); ok {
		s.state.Muted = raw == "true"
	}
	if raw, ok := store.Get(keyVolume); ok {
		if v, err := strconv.ParseFloat(raw, 64); err == nil && v >= 0 && v <= 1 {
			s.state.Volume = v
		}
	}

	// Volume 0 always means muted, whatever was persisted
	if s.state.Volume == 0 {
		s.state.Muted = true
	}

	return s
}

func (s *VolumeStore) State() VolumeState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetMuted flips the shared mute flag and rebroadcasts.
func (s *VolumeStore) SetMuted(muted bool) {
	s.mu.Lock()
	s.state.Muted = muted
	state := s.state
	s.persistLocked()
	subs := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

// SetVolume sets the shared volume. Zero forces muted on; raising the
// volume while muted unmutes, matching what users expect from the slider.
func (s *VolumeStore) SetVolume(volume float64) {
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}

	s.mu.Lock()
	s.state.Volume = volume
	if volume == 0 {
		s.state.Muted = true
	} else if s.state.Muted {
		s.state.Muted = false
	}
	state := s.state
	s.persistLocked()
	subs := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
}

// Subscribe registers a listener and returns an unsubscribe func. The
// listener is NOT called with the current state; read State() first.
func (s *VolumeStore) Subscribe(fn func(VolumeState)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *VolumeStore) persistLocked() {
	s.store.Set(keyMuted, strconv.FormatBool(s.state.Muted))
	s.store.Set(keyVolume, strconv.FormatFloat(s.state.Volume, 'f', -1, 64))
}

func (s *VolumeStore) snapshotSubs() []func(VolumeState) {
	out := make([]func(VolumeState), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}
