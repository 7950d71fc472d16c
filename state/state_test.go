package state

import (
	"context"
	"errors"
	"testing"

	"peeches/transcript"
)

func TestReduce(t *testing.T) {
	tests := []struct {
		name   string
		start  UI
		action Action
		want   UI
	}{
		{"set live keeps sentinels", UI{}, SetLive{transcript.Blank()}, UI{OriginalText: "BLANK_AUDIO", TranslatedText: "空白"}},
		{"clear live", UI{OriginalText: "a", TranslatedText: "b", Recording: true}, ClearLive{}, UI{Recording: true}},
		{"toggle pin", UI{}, TogglePin{}, UI{Pinned: true}},
		{"toggle pin back", UI{Pinned: true}, TogglePin{}, UI{}},
		{"hover", UI{}, SetHovered{true}, UI{Hovered: true}},
		{"recording", UI{}, SetRecording{true}, UI{Recording: true}},
		{"toggle history", UI{}, ToggleHistory{}, UI{HistoryOpen: true}},
		{"settings", UI{}, SetSettingsOpen{true}, UI{SettingsOpen: true}},
		{"nil action", UI{Pinned: true}, nil, UI{Pinned: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Reduce(tt.start, tt.action); got != tt.want {
				t.Errorf("Reduce() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDisplayClasses(t *testing.T) {
	tests := []struct {
		pinned, hovered bool
		want            string
	}{
		{false, false, "text-display"},
		{false, true, "text-display show-hover-bg show-buttons"},
		{true, true, "text-display show-buttons"},
		{true, false, "text-display"},
	}
	for _, tt := range tests {
		s := UI{Pinned: tt.pinned, Hovered: tt.hovered}
		if got := s.DisplayClasses(); got != tt.want {
			t.Errorf("pinned=%v hovered=%v: %q, want %q", tt.pinned, tt.hovered, got, tt.want)
		}
	}
}

func TestPlaceholders(t *testing.T) {
	var s UI
	if s.DisplayOriginal() != PlaceholderOriginal || s.DisplayTranslated() != PlaceholderTranslated {
		t.Fatal("empty live text should show placeholders")
	}
	s = Reduce(s, SetLive{transcript.Paused()})
	if s.DisplayOriginal() != "已暂停" || s.DisplayTranslated() != PlaceholderTranslated {
		t.Fatalf("got %q / %q", s.DisplayOriginal(), s.DisplayTranslated())
	}
}

type mapKV struct {
	data map[string][]byte
	err  error
}

func (m *mapKV) Get(_ context.Context, key string) ([]byte, bool, error) {
	if m.err != nil {
		return nil, false, m.err
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mapKV) Set(_ context.Context, key string, value []byte) error {
	if m.err != nil {
		return m.err
	}
	m.data[key] = value
	return nil
}

func TestSaveAndRestore(t *testing.T) {
	ctx := context.Background()
	kv := &mapKV{data: map[string][]byte{}}

	prev := UI{}
	next := Reduce(Reduce(prev, TogglePin{}), SetHovered{true})
	if err := Save(ctx, kv, prev, next); err != nil {
		t.Fatal(err)
	}
	if string(kv.data[KeyPinned]) != "true" {
		t.Fatalf("isPinned = %q", kv.data[KeyPinned])
	}
	if _, ok := kv.data[KeyHistoryOpen]; ok {
		t.Fatal("unchanged flag written")
	}

	got, err := Restore(ctx, kv, UI{HistoryOpen: true})
	if err != nil {
		t.Fatal(err)
	}
	if !got.Pinned || !got.HistoryOpen || got.Hovered {
		t.Fatalf("Restore() = %+v", got)
	}
}

func TestRestoreErrors(t *testing.T) {
	ctx := context.Background()
	if _, err := Restore(ctx, &mapKV{err: errors.New("down")}, UI{}); err == nil {
		t.Fatal("expected store error")
	}
	kv := &mapKV{data: map[string][]byte{KeyPinned: []byte("yes")}}
	if _, err := Restore(ctx, kv, UI{}); err == nil {
		t.Fatal("expected decode error")
	}
}
