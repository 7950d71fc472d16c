package loop

import "time"

// Debouncer holds at most one pending timer for one logical transition.
// Reset cancels the pending timer before arming a new one, and a generation
// check drops a fire that was already queued when it was cancelled.
// Use it from the loop only.
type Debouncer struct {
	loop  Loop
	timer Timer
	gen   uint64
	armed bool
}

func NewDebouncer(l Loop) *Debouncer {
	return &Debouncer{loop: l}
}

func (d *Debouncer) Reset(delay time.Duration, f func()) {
	d.Stop()
	d.gen++
	gen := d.gen
	d.armed = true
	d.timer = d.loop.AfterFunc(delay, func() {
		if gen != d.gen || !d.armed {
			return
		}
		d.armed = false
		d.timer = nil
		f()
	})
}

func (d *Debouncer) Stop() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.armed = false
	d.gen++
}

func (d *Debouncer) Pending() bool {
	return d.armed
}
