package assets

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
)

type memStore struct {
	mu     sync.Mutex
	data   map[string][]byte
	getErr error
	setErr error
	writes int
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.writes++
	return nil
}

// seed stores s under the persist key.
func (m *memStore) seed(s Set) {
	raw, _ := json.Marshal(s)
	m.data[PersistKey] = raw
}

func (m *memStore) decoded() (Set, bool) {
	raw, ok := m.data[PersistKey]
	if !ok {
		return nil, false
	}
	var s Set
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false
	}
	return s, true
}

type fakeVerifier struct {
	exists map[string]bool
	err    error
	calls  int
}

func (f *fakeVerifier) Verify(_ context.Context, names []string) (map[string]bool, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = f.exists[n]
	}
	return out, nil
}

type fakeSource struct {
	mu     sync.Mutex
	fn     func(Progress)
	opened int
	closed int
	err    error
}

func (f *fakeSource) SubscribeProgress(fn func(Progress)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.fn = fn
	f.opened++
	return &fakeSub{src: f}, nil
}

func (f *fakeSource) active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fn != nil
}

func (f *fakeSource) emit(fileName string, progress float64) {
	f.mu.Lock()
	fn := f.fn
	f.mu.Unlock()
	if fn != nil {
		fn(Progress{FileName: fileName, Progress: progress})
	}
}

type fakeSub struct {
	src  *fakeSource
	done bool
}

func (s *fakeSub) Close() error {
	if s.done {
		return errors.New("closed twice")
	}
	s.done = true
	s.src.mu.Lock()
	s.src.fn = nil
	s.src.closed++
	s.src.mu.Unlock()
	return nil
}

type fakeDownloader struct {
	err   error
	calls []string
}

func (f *fakeDownloader) Download(_ context.Context, url, fileName string) error {
	f.calls = append(f.calls, fileName)
	return f.err
}
