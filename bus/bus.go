// Package bus carries the engine's push streams (transcript events and
// download progress) over an EventBus, with typed topics and cancellable
// subscriptions.
package bus

import (
	"errors"
	"fmt"
	"sync"

	evbus "github.com/asaskevich/EventBus"

	"peeches/assets"
	"peeches/log"
	"peeches/transcript"
)

var ErrClosed = errors.New("bus closed")

type Topic[T any] struct {
	name string
}

func NewTopic[T any](name string) Topic[T] {
	return Topic[T]{name: name}
}

func (t Topic[T]) Name() string { return t.name }

var (
	Transcript       = NewTopic[transcript.Event]("event")
	DownloadProgress = NewTopic[assets.Progress]("download-progress")
)

// Bus registers one EventBus handler per topic, on first subscription, and
// fans out to its own subscriber table. Cancelling a subscription never
// touches the EventBus, so it is safe while a publish is in flight.
type Bus struct {
	ev     evbus.Bus
	mu     sync.Mutex
	nextID uint64
	topics map[string]*topic
	closed bool
}

type topic struct {
	handler any // registered with the EventBus
	order   []uint64
	subs    map[uint64]func(any)
}

func New() *Bus {
	return &Bus{ev: evbus.New(), topics: make(map[string]*topic)}
}

// Subscribe calls fn for every value published on t until the returned
// subscription is closed. fn runs on the publisher's goroutine.
func Subscribe[T any](b *Bus, t Topic[T], fn func(T)) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	tp, ok := b.topics[t.name]
	if !ok {
		name := t.name
		handler := func(v T) { b.dispatch(name, v) }
		if err := b.ev.Subscribe(name, handler); err != nil {
			return nil, fmt.Errorf("subscribe %s: %w", name, err)
		}
		tp = &topic{handler: handler, subs: make(map[uint64]func(any))}
		b.topics[name] = tp
	}

	b.nextID++
	id := b.nextID
	tp.subs[id] = func(v any) { fn(v.(T)) }
	tp.order = append(tp.order, id)
	return &Subscription{bus: b, topic: t.name, id: id}, nil
}

// Publish delivers v synchronously to the current subscribers of t.
func Publish[T any](b *Bus, t Topic[T], v T) {
	b.mu.Lock()
	_, ok := b.topics[t.name]
	closed := b.closed
	b.mu.Unlock()
	if !ok || closed {
		return
	}
	b.ev.Publish(t.name, v)
}

func (b *Bus) dispatch(name string, v any) {
	b.mu.Lock()
	tp, ok := b.topics[name]
	if !ok || b.closed {
		b.mu.Unlock()
		return
	}
	fns := make([]func(any), 0, len(tp.order))
	for _, id := range tp.order {
		fns = append(fns, tp.subs[id])
	}
	b.mu.Unlock()

	for _, fn := range fns {
		deliver(name, fn, v)
	}
}

func deliver(name string, fn func(any), v any) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("bus: subscriber of %s panicked: %v", name, r)
		}
	}()
	fn(v)
}

// Subscribers reports how many live subscriptions the named topic has.
func (b *Bus) Subscribers(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if tp, ok := b.topics[name]; ok {
		return len(tp.subs)
	}
	return 0
}

func (b *Bus) cancel(name string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	tp, ok := b.topics[name]
	if !ok {
		return
	}
	if _, ok := tp.subs[id]; !ok {
		return
	}
	delete(tp.subs, id)
	for i, v := range tp.order {
		if v == id {
			tp.order = append(tp.order[:i], tp.order[i+1:]...)
			break
		}
	}
}

// Close drops every subscription and detaches from the EventBus.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	topics := b.topics
	b.topics = make(map[string]*topic)
	b.mu.Unlock()

	for name, tp := range topics {
		if err := b.ev.Unsubscribe(name, tp.handler); err != nil {
			log.Warnf("bus: unsubscribe %s: %v", name, err)
		}
	}
}

type Subscription struct {
	bus   *Bus
	topic string
	id    uint64
	once  sync.Once
}

// Close cancels the subscription. It is idempotent.
func (s *Subscription) Close() error {
	s.once.Do(func() { s.bus.cancel(s.topic, s.id) })
	return nil
}

// ProgressSource adapts the bus to the download tracker.
type ProgressSource struct {
	Bus *Bus
}

func (p ProgressSource) SubscribeProgress(fn func(assets.Progress)) (assets.Subscription, error) {
	sub, err := Subscribe(p.Bus, DownloadProgress, fn)
	if err != nil {
		return nil, err
	}
	return sub, nil
}
