package loop

import (
	"sort"
	"sync"
	"time"
)

// Manual is a deterministic Loop driven by a virtual clock. Posted callbacks
// run as soon as no other callback is running; timers fire only from Advance.
// Go runs work inline, which keeps tests free of real goroutines.
type Manual struct {
	mu      sync.Mutex
	now     time.Duration
	seq     int
	timers  []*manualTimer
	queue   []func()
	running bool
}

type manualTimer struct {
	m        *Manual
	deadline time.Duration
	seq      int
	f        func()
	fired    bool
	stopped  bool
}

func NewManual() *Manual {
	return &Manual{}
}

// Now is the virtual time elapsed since the Manual was created.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Post(f func()) {
	m.mu.Lock()
	m.queue = append(m.queue, f)
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()
	m.drain()
}

func (m *Manual) drain() {
	for {
		m.mu.Lock()
		if len(m.queue) == 0 {
			m.running = false
			m.mu.Unlock()
			return
		}
		f := m.queue[0]
		m.queue = m.queue[1:]
		m.mu.Unlock()
		Safe(f)
	}
}

func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{m: m, deadline: m.now + d, seq: m.seq, f: f}
	m.timers = append(m.timers, t)
	return t
}

func (m *Manual) Go(work func() error, done func(error)) {
	err := Guard(work)
	m.Post(func() { done(err) })
}

// Pending reports how many timers are armed and not yet fired.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

// Advance moves the virtual clock forward by d, firing every timer whose
// deadline is reached, in deadline order. Timers armed by fired callbacks
// also fire if they fall inside the window.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		t := m.nextDue(target)
		if t == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = t.deadline
		t.fired = true
		m.mu.Unlock()
		m.Post(t.f)
	}
}

func (m *Manual) nextDue(target time.Duration) *manualTimer {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.fired && !t.stopped {
			live = append(live, t)
		}
	}
	m.timers = live
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].deadline != m.timers[j].deadline {
			return m.timers[i].deadline < m.timers[j].deadline
		}
		return m.timers[i].seq < m.timers[j].seq
	})
	if len(m.timers) == 0 || m.timers[0].deadline > target {
		return nil
	}
	return m.timers[0]
}

func (t *manualTimer) Stop() bool {
	t.m.mu.Lock()
	defer t.m.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}
