// Package history turns the accepted transcript stream into a sparse,
// ordered log and tracks whether the history view follows new entries.
package history

import (
	"time"

	"github.com/google/uuid"

	"peeches/transcript"
)

const DefaultPeriod = 4

// Entry is an immutable history line. Timestamp is Unix milliseconds.
type Entry struct {
	ID             string `json:"id"`
	OriginalText   string `json:"originalText"`
	TranslatedText string `json:"translatedText"`
	Timestamp      int64  `json:"timestamp"`
}

// Sampler commits every Period-th accepted event. The counter is session
// state: it survives across calls and is cleared only by Reset.
type Sampler struct {
	period   int
	accepted int
	lastTS   int64
	now      func() time.Time
	newID    func() string
}

func NewSampler(period int) *Sampler {
	if period < 1 {
		period = 1
	}
	return &Sampler{period: period, now: time.Now, newID: newID}
}

// newID returns a UUIDv7: a millisecond timestamp prefix followed by random
// bits, so IDs sort by creation time and do not collide within a session.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func (s *Sampler) Period() int { return s.period }

// Count is the number of accepted events since the last Reset.
func (s *Sampler) Count() int { return s.accepted }

// Accept counts an already-normalized event and returns the entry to commit
// when the counter lands on the sampling period.
func (s *Sampler) Accept(ev transcript.Event) (Entry, bool) {
	s.accepted++
	if s.accepted%s.period != 0 {
		return Entry{}, false
	}
	ts := s.now().UnixMilli()
	if ts < s.lastTS {
		ts = s.lastTS
	}
	s.lastTS = ts
	return Entry{
		ID:             s.newID(),
		OriginalText:   ev.OriginalText,
		TranslatedText: ev.TranslatedText,
		Timestamp:      ts,
	}, true
}

func (s *Sampler) Reset() {
	s.accepted = 0
	s.lastTS = 0
}

// Log is the session's append-only history.
type Log struct {
	entries []Entry
}

func (l *Log) Append(e Entry) int {
	l.entries = append(l.entries, e)
	return len(l.entries) - 1
}

func (l *Log) Len() int { return len(l.entries) }

func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Log) Last() (Entry, bool) {
	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[len(l.entries)-1], true
}

func (l *Log) Clear() {
	l.entries = nil
}
