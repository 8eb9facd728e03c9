package player

import (
	"sync"
	"time"

	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/resolver"
)

type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
	StateEnded   State = "ended"
	StateError   State = "error"
)

// Side is the third of the frame a tap landed in.
type Side string

const (
	SideLeft   Side = "left"
	SideCenter Side = "center"
	SideRight  Side = "right"
)

// Media abstracts the hosting video element. Implementations adapt the
// browser element (or a fake in tests); calls are expected to be cheap and
// non-blocking.
type Media interface {
	Play() error
	Pause()
	Seek(seconds float64)
	SetMuted(muted bool) error
	SetVolume(volume float64)
	Reload()
	Duration() float64
}

const (
	// Minimum intersection ratio before autoplay is attempted
	visibilityThreshold = 0.3
	// Playback must survive this long before we try to unmute
	unmuteDelay = 300 * time.Millisecond
	// Same-side second tap within this window is a double-tap
	doubleTapWindow = 300 * time.Millisecond
	// Double-tap skip distance
	skipSeconds = 2.0
	// How close to the end counts as "ended" for auto-advance
	endThreshold = 0.3

	maxPlayRetries = 3
)

// retryDelays is the bounded backoff for failed autoplay attempts.
var retryDelays = [maxPlayRetries]time.Duration{time.Second, 2 * time.Second, 3 * time.Second}

// Controller runs the per-element playback state machine:
//
//	idle → loading → playing ⇄ paused → ended, error from loading/playing.
//
// The host forwards viewport, gesture and media events; the controller
// decides what the element does and keeps the shared volume store applied.
type Controller struct {
	mu sync.Mutex

	media Media
	store *VolumeStore
	clock Clock
	sched Scheduler

	videoURL    string
	state       State
	errMessage  string
	inViewport  bool
	activeIndex bool // feed says this element is the active one

	retries    int
	retryTimer Timer

	unmuteTimer     Timer
	userToggledMute bool
	// autoplayHold keeps the element muted between a successful muted
	// autoplay and the delayed unmute (or the first user gesture).
	autoplayHold bool

	tapTimer Timer
	tapSide  Side
	tapAt    time.Time

	currentTime   float64
	autoAdvance   bool
	endedSignaled bool
	silentRetried bool

	unsubscribe func()

	// Callbacks into the hosting component. All optional.
	OnStateChange func(State)
	OnEnded       func()
	OnSkip        func(Side)
	OnError       func(string)
}

// Options tunes a new Controller.
type Options struct {
	VideoURL    string
	AutoAdvance bool
}

func NewController(media Media, store *VolumeStore, clock Clock, sched Scheduler, opts Options) *Controller {
	c := &Controller{
		media:       media,
		store:       store,
		clock:       clock,
		sched:       sched,
		videoURL:    opts.VideoURL,
		state:       StateIdle,
		autoAdvance: opts.AutoAdvance,
	}
	c.unsubscribe = store.Subscribe(c.onVolumeChange)
	return c
}

// Close detaches the controller from the shared store and stops timers.
func (c *Controller) Close() {
	c.mu.Lock()
	c.stopTimersLocked()
	c.mu.Unlock()
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMessage
}

// EnterViewport is called when the hosting element intersects the viewport.
// Autoplay only starts when the element is sufficiently visible AND the
// feed's active index points at it, so scrolling past a video half-way
// never starts it.
func (c *Controller) EnterViewport(ratio float64, active bool) {
	c.mu.Lock()
	c.inViewport = ratio >= visibilityThreshold
	c.activeIndex = active
	if !c.inViewport || !active || c.state == StatePlaying || c.state == StateLoading {
		c.mu.Unlock()
		return
	}
	c.retries = 0
	c.attemptPlayLocked()
	c.mu.Unlock()
}

// LeaveViewport forces pause + mute + rewind. This is the only mechanism
// keeping at most one audible video in the feed, so it must run from every
// state.
func (c *Controller) LeaveViewport() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inViewport = false
	c.activeIndex = false
	c.stopTimersLocked()

	c.media.Pause()
	c.media.SetMuted(true)
	c.media.Seek(0)
	c.currentTime = 0
	c.endedSignaled = false

	if c.state != StateIdle && c.state != StateError {
		c.setStateLocked(StatePaused)
	}
}

// Tap handles a single tap in the given third of the frame. Center taps
// toggle immediately; edge taps wait out the double-tap window first.
func (c *Controller) Tap(side Side) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if side == SideCenter {
		c.togglePlayLocked()
		return
	}

	now := c.clock.Now()
	if c.tapTimer != nil && c.tapSide == side && now.Sub(c.tapAt) <= doubleTapWindow {
		// Double-tap: cancel the pending toggle and skip instead
		c.tapTimer.Stop()
		c.tapTimer = nil

		delta := skipSeconds
		if side == SideLeft {
			delta = -skipSeconds
		}
		target := c.currentTime + delta
		if target < 0 {
			target = 0
		}
		if d := c.media.Duration(); d > 0 && target > d {
			target = d
		}
		c.media.Seek(target)
		c.currentTime = target
		if c.OnSkip != nil {
			c.OnSkip(side)
		}
		return
	}

	if c.tapTimer != nil {
		c.tapTimer.Stop()
	}
	c.tapSide = side
	c.tapAt = now
	c.tapTimer = c.sched.AfterFunc(doubleTapWindow, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.tapTimer = nil
		c.togglePlayLocked()
	})
}

// SeekToFraction seeks by percentage of the total duration (progress-bar drag).
func (c *Controller) SeekToFraction(f float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	d := c.media.Duration()
	if d <= 0 {
		return
	}
	c.media.Seek(f * d)
	c.currentTime = f * d
}

// ToggleMute flips the shared mute flag. A manual toggle also disables the
// automatic unmute for the rest of this session.
func (c *Controller) ToggleMute() {
	c.mu.Lock()
	c.userToggledMute = true
	c.autoplayHold = false
	if c.unmuteTimer != nil {
		c.unmuteTimer.Stop()
		c.unmuteTimer = nil
	}
	muted := !c.store.State().Muted
	c.mu.Unlock()

	c.store.SetMuted(muted)
}

// SetVolume writes through to the shared store; the store's invariants
// (zero mutes, raising unmutes) propagate back via the subscription.
func (c *Controller) SetVolume(v float64) {
	c.mu.Lock()
	c.autoplayHold = false
	c.mu.Unlock()
	c.store.SetVolume(v)
}

// SetAutoAdvance flips the auto-advance preference for this controller.
func (c *Controller) SetAutoAdvance(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoAdvance = enabled
}

// TimeUpdate is the playback-position heartbeat. Near the end it either
// signals the parent to advance (and loops seamlessly while the scroll
// animates) or lets the video run out.
func (c *Controller) TimeUpdate(current float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.currentTime = current
	if c.state != StatePlaying {
		return
	}

	d := c.media.Duration()
	if d <= 0 {
		return
	}

	if d-current <= endThreshold {
		if c.autoAdvance {
			if !c.endedSignaled {
				c.endedSignaled = true
				if c.OnEnded != nil {
					c.OnEnded()
				}
			}
			// Loop from the top instead of firing the native ended event;
			// the scroll transition hides the restart.
			c.media.Seek(0)
			c.currentTime = 0
			c.endedSignaled = false
		} else {
			c.setStateLocked(StateEnded)
		}
	}
}

// MediaError maps element errors to user-facing messages. A decode or
// unsupported-source failure on a private CDN URL gets one silent
// reload-retry before anything is surfaced.
func (c *Controller) MediaError(kind MediaErrorKind) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if (kind == MediaErrDecode || kind == MediaErrUnsupported) &&
		resolver.IsPrivateURL(c.videoURL) && !c.silentRetried {
		c.silentRetried = true
		c.media.Reload()
		c.retries = 0
		c.attemptPlayLocked()
		return
	}

	c.stopTimersLocked()
	c.errMessage = kind.userMessage()
	c.setStateLocked(StateError)
	if c.OnError != nil {
		c.OnError(c.errMessage)
	}
}

// ManualRetry reloads the media source and starts the play choreography
// over. Wired to the retry button in the error overlay.
func (c *Controller) ManualRetry() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateError {
		return
	}
	c.media.Reload()
	c.errMessage = ""
	c.retries = 0
	c.attemptPlayLocked()
}

// --- internals ---

func (c *Controller) togglePlayLocked() {
	switch c.state {
	case StatePlaying:
		c.media.Pause()
		c.setStateLocked(StatePaused)
	case StatePaused, StateEnded, StateIdle:
		c.retries = 0
		c.attemptPlayLocked()
	}
}

// attemptPlayLocked starts muted (autoplay policies require it), then
// schedules the automatic unmute once playback has survived briefly.
func (c *Controller) attemptPlayLocked() {
	c.setStateLocked(StateLoading)
	c.media.SetMuted(true)

	if err := c.media.Play(); err != nil {
		if c.retries < maxPlayRetries {
			delay := retryDelays[c.retries]
			c.retries++
			c.retryTimer = c.sched.AfterFunc(delay, func() {
				c.mu.Lock()
				defer c.mu.Unlock()
				c.retryTimer = nil
				if c.inViewport && c.activeIndex {
					c.attemptPlayLocked()
				}
			})
			return
		}
		c.errMessage = ErrUnableToPlay
		c.setStateLocked(StateError)
		if c.OnError != nil {
			c.OnError(c.errMessage)
		}
		return
	}

	c.retries = 0
	c.setStateLocked(StatePlaying)
	c.autoplayHold = true
	c.applyVolumeLocked(c.store.State())

	if c.unmuteTimer != nil {
		c.unmuteTimer.Stop()
	}
	c.unmuteTimer = c.sched.AfterFunc(unmuteDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.unmuteTimer = nil
		c.tryUnmuteLocked()
	})
}

// tryUnmuteLocked lifts the autoplay mute, unless the user has taken over
// mute control or prefers muted playback. Unmute failures are swallowed
// and mute is forced back on; they are never surfaced as errors.
func (c *Controller) tryUnmuteLocked() {
	c.autoplayHold = false
	if c.state != StatePlaying || c.userToggledMute {
		return
	}
	st := c.store.State()
	if st.Muted {
		return
	}
	c.media.SetVolume(st.Volume)
	if err := c.media.SetMuted(false); err != nil {
		c.media.SetMuted(true)
	}
}

// onVolumeChange applies shared store updates to this element. Only the
// active, playing element is allowed to be audible.
func (c *Controller) onVolumeChange(st VolumeState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.applyVolumeLocked(st)
}

func (c *Controller) applyVolumeLocked(st VolumeState) {
	c.media.SetVolume(st.Volume)
	audible := c.state == StatePlaying && c.inViewport && c.activeIndex &&
		!st.Muted && !c.autoplayHold
	c.media.SetMuted(!audible)
}

func (c *Controller) setStateLocked(s State) {
	if c.state == s {
		return
	}
	c.state = s
	if c.OnStateChange != nil {
		c.OnStateChange(s)
	}
}

func (c *Controller) stopTimersLocked() {
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	if c.unmuteTimer != nil {
		c.unmuteTimer.Stop()
		c.unmuteTimer = nil
	}
	if c.tapTimer != nil {
		c.tapTimer.Stop()
		c.tapTimer = nil
	}
}
