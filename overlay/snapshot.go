package overlay

import (
	"peeches/assets"
	"peeches/history"
	"peeches/state"
)

// Snapshot is everything the view renders.
type Snapshot struct {
	UI             state.UI
	Classes        string
	OriginalText   string
	TranslatedText string

	History     []history.Entry
	Highlighted int // -1 when nothing is highlighted
	Mode        history.Mode

	Assets      []assets.Descriptor
	Downloading bool
}

func (s *Session) Snapshot() Snapshot {
	idx, _ := s.follow.Highlighted()
	return Snapshot{
		UI:             s.ui,
		Classes:        s.ui.DisplayClasses(),
		OriginalText:   s.ui.DisplayOriginal(),
		TranslatedText: s.ui.DisplayTranslated(),
		History:        s.history.Entries(),
		Highlighted:    idx,
		Mode:           s.follow.Mode(),
		Assets:         s.registry.Snapshot(),
		Downloading:    s.registry.AnyDownloading(),
	}
}
