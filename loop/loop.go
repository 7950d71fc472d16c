// Package loop models the single-threaded reaction loop every state
// transition runs on. Callbacks posted to a Loop run one at a time and to
// completion; timers and async work re-enter the loop as ordinary callbacks.
package loop

import (
	"context"
	"fmt"
	"sync"
	"time"

	"peeches/log"
)

type Timer interface {
	// Stop cancels the timer. It reports whether the call prevented the
	// callback from being scheduled.
	Stop() bool
}

type Loop interface {
	Post(f func())
	AfterFunc(d time.Duration, f func()) Timer
	// Go runs work off the loop and posts done(err) back onto it.
	Go(work func() error, done func(error))
}

// Safe runs f and logs a recovered panic instead of taking the loop down.
func Safe(f func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("loop callback panic: %v", r)
		}
	}()
	f()
}

// Runner is a Loop backed by one goroutine draining a queue.
type Runner struct {
	queue    chan func()
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewRunner(buffer int) *Runner {
	if buffer <= 0 {
		buffer = 256
	}
	return &Runner{
		queue: make(chan func(), buffer),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Run blocks until ctx is done or Stop is called.
func (r *Runner) Run(ctx context.Context) {
	defer close(r.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case f := <-r.queue:
			Safe(f)
		}
	}
}

func (r *Runner) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// Done is closed once Run has returned.
func (r *Runner) Done() <-chan struct{} {
	return r.done
}

func (r *Runner) Post(f func()) {
	select {
	case r.queue <- f:
	case <-r.stop:
	}
}

func (r *Runner) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, func() { r.Post(f) })
}

func (r *Runner) Go(work func() error, done func(error)) {
	go func() {
		err := Guard(work)
		r.Post(func() { done(err) })
	}()
}

// Guard runs work and turns a panic into an error.
func Guard(work func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("async work panic: %v", r)
		}
	}()
	return work()
}
