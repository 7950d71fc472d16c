package store

import (
	"context"
	"sync"

	"fyne.io/fyne/v2"
)

// Prefs stores values as strings in the desktop app's preferences. An empty
// string reads as absent.
type Prefs struct {
	mu     sync.Mutex
	prefs  fyne.Preferences
	prefix string
	closed bool
}

func NewPrefs(p fyne.Preferences, prefix string) *Prefs {
	return &Prefs{prefs: p, prefix: prefix}
}

func (s *Prefs) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false, ErrClosed
	}
	v := s.prefs.String(s.prefix + key)
	if v == "" {
		return nil, false, nil
	}
	return []byte(v), true, nil
}

func (s *Prefs) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.prefs.SetString(s.prefix+key, string(value))
	return nil
}

func (s *Prefs) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
