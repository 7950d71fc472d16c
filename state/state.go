// Package state is the overlay's UI state: typed flags and live text changed
// only through Reduce.
package state

import (
	"strings"

	"peeches/transcript"
)

const (
	PlaceholderOriginal   = "等待输入..."
	PlaceholderTranslated = "等待翻译..."
)

type UI struct {
	Pinned       bool
	Hovered      bool
	Recording    bool
	HistoryOpen  bool
	SettingsOpen bool

	OriginalText   string
	TranslatedText string
}

type Action interface {
	reduce(UI) UI
}

// SetLive shows an event as received, sentinels included.
type SetLive struct{ Event transcript.Event }

type ClearLive struct{}

type TogglePin struct{}

type SetPinned struct{ On bool }

type SetHovered struct{ On bool }

type SetRecording struct{ On bool }

type ToggleHistory struct{}

type SetHistoryOpen struct{ On bool }

type SetSettingsOpen struct{ On bool }

func (a SetLive) reduce(s UI) UI {
	s.OriginalText = a.Event.OriginalText
	s.TranslatedText = a.Event.TranslatedText
	return s
}

func (ClearLive) reduce(s UI) UI {
	s.OriginalText, s.TranslatedText = "", ""
	return s
}

func (TogglePin) reduce(s UI) UI         { s.Pinned = !s.Pinned; return s }
func (a SetPinned) reduce(s UI) UI       { s.Pinned = a.On; return s }
func (a SetHovered) reduce(s UI) UI      { s.Hovered = a.On; return s }
func (a SetRecording) reduce(s UI) UI    { s.Recording = a.On; return s }
func (ToggleHistory) reduce(s UI) UI     { s.HistoryOpen = !s.HistoryOpen; return s }
func (a SetHistoryOpen) reduce(s UI) UI  { s.HistoryOpen = a.On; return s }
func (a SetSettingsOpen) reduce(s UI) UI { s.SettingsOpen = a.On; return s }

// Reduce returns the state after a. It never mutates s.
func Reduce(s UI, a Action) UI {
	if a == nil {
		return s
	}
	return a.reduce(s)
}

// DisplayClasses mirrors how the live text box is decorated: the hover
// background only when unpinned, the buttons whenever hovered.
func (s UI) DisplayClasses() string {
	classes := []string{"text-display"}
	if s.Hovered && !s.Pinned {
		classes = append(classes, "show-hover-bg")
	}
	if s.Hovered {
		classes = append(classes, "show-buttons")
	}
	return strings.Join(classes, " ")
}

func (s UI) DisplayOriginal() string {
	if s.OriginalText == "" {
		return PlaceholderOriginal
	}
	return s.OriginalText
}

func (s UI) DisplayTranslated() string {
	if s.TranslatedText == "" {
		return PlaceholderTranslated
	}
	return s.TranslatedText
}
