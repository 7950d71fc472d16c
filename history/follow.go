package history

import (
	"time"

	"peeches/loop"
)

type Mode int

const (
	Following Mode = iota
	Manual
)

func (m Mode) String() string {
	switch m {
	case Following:
		return "following"
	case Manual:
		return "manual"
	}
	return "unknown"
}

const (
	DefaultFocusDelay      = 100 * time.Millisecond
	DefaultIdleDelay       = 200 * time.Millisecond
	DefaultBottomTolerance = 50
)

type FollowConfig struct {
	FocusDelay      time.Duration // layout settle before centering a new entry
	IdleDelay       time.Duration // time at the bottom before auto-follow resumes
	BottomTolerance int           // in the host view's scroll units
}

func DefaultFollowConfig() FollowConfig {
	return FollowConfig{
		FocusDelay:      DefaultFocusDelay,
		IdleDelay:       DefaultIdleDelay,
		BottomTolerance: DefaultBottomTolerance,
	}
}

// Viewport is the scroll geometry of the history view after a scroll event.
type Viewport struct {
	ScrollTop    int
	ScrollHeight int
	ClientHeight int
}

func (v Viewport) NearBottom(tolerance int) bool {
	return v.ScrollTop+v.ClientHeight >= v.ScrollHeight-tolerance
}

// CenterOffset is the scroll offset that centers an item in the viewport.
func CenterOffset(itemTop, itemHeight, viewportHeight int) int {
	off := itemTop - (viewportHeight-itemHeight)/2
	if off < 0 {
		return 0
	}
	return off
}

// Follow is the scroll-follow state machine of the history view. All
// methods must run on the loop it was built with.
type Follow struct {
	cfg         FollowConfig
	mode        Mode
	highlighted int
	length      int

	focus    *loop.Debouncer
	refollow *loop.Debouncer
	scrollTo func(index int)
	onChange func()
}

// NewFollow starts in Following. scrollTo receives the index to center.
func NewFollow(l loop.Loop, cfg FollowConfig, scrollTo func(index int)) *Follow {
	if scrollTo == nil {
		scrollTo = func(int) {}
	}
	return &Follow{
		cfg:         cfg,
		mode:        Following,
		highlighted: -1,
		focus:       loop.NewDebouncer(l),
		refollow:    loop.NewDebouncer(l),
		scrollTo:    scrollTo,
	}
}

// OnChange registers a repaint hook for timer-driven transitions.
func (f *Follow) OnChange(fn func()) { f.onChange = fn }

func (f *Follow) Mode() Mode { return f.mode }

func (f *Follow) Highlighted() (int, bool) {
	return f.highlighted, f.highlighted >= 0
}

// OnEntry is called after the history grew to length entries.
func (f *Follow) OnEntry(length int) {
	f.length = length
	if f.mode != Following || length == 0 {
		return
	}
	f.focus.Reset(f.cfg.FocusDelay, f.focusLatest)
}

func (f *Follow) focusLatest() {
	if f.mode != Following || f.length == 0 {
		return
	}
	f.highlighted = f.length - 1
	f.scrollTo(f.highlighted)
	f.changed()
}

// OnScroll handles a user-initiated scroll. Any scroll drops to Manual; a
// scroll that ends near the bottom (re)starts the idle countdown back to
// Following.
func (f *Follow) OnScroll(v Viewport) {
	f.focus.Stop()
	f.refollow.Stop()
	if f.mode != Manual {
		f.mode = Manual
		f.changed()
	}
	if v.NearBottom(f.cfg.BottomTolerance) {
		f.refollow.Reset(f.cfg.IdleDelay, f.resume)
	}
}

func (f *Follow) resume() {
	f.mode = Following
	if f.length > 0 {
		f.highlighted = f.length - 1
		f.scrollTo(f.highlighted)
	}
	f.changed()
}

// Reset forgets the history (after a clear) but keeps the mode.
func (f *Follow) Reset() {
	f.focus.Stop()
	f.length = 0
	f.highlighted = -1
	f.changed()
}

// Stop cancels pending timers.
func (f *Follow) Stop() {
	f.focus.Stop()
	f.refollow.Stop()
}

func (f *Follow) changed() {
	if f.onChange != nil {
		f.onChange()
	}
}
