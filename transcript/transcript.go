// Package transcript holds the engine's transcript/translation pairs and
// the filter that keeps placeholder pairs out of history.
package transcript

import "strings"

// Event is one transcript/translation pair pushed by the engine.
type Event struct {
	OriginalText   string `json:"originalText"`
	TranslatedText string `json:"translatedText"`
}

// Placeholder pairs the engine emits while idle.
const (
	WaitingOriginal   = "wait for audio"
	WaitingTranslated = "等待音频"
	BlankOriginal     = "BLANK_AUDIO"
	BlankTranslated   = "空白"
	PausedOriginal    = "已暂停"
	PausedTranslated  = ""
	// EngineBlankMarker is whisper's raw output for a silent window.
	EngineBlankMarker = " [BLANK_AUDIO]"
)

var (
	originalSentinels = map[string]struct{}{
		WaitingOriginal: {},
		BlankOriginal:   {},
		PausedOriginal:  {},
	}
	translatedSentinels = map[string]struct{}{
		WaitingTranslated: {},
		BlankTranslated:   {},
	}
)

// Waiting is the pair emitted right after recording starts.
func Waiting() Event { return Event{OriginalText: WaitingOriginal, TranslatedText: WaitingTranslated} }

// Blank is the pair emitted for a silent audio window.
func Blank() Event { return Event{OriginalText: BlankOriginal, TranslatedText: BlankTranslated} }

// Paused is the pair emitted when recording stops.
func Paused() Event { return Event{OriginalText: PausedOriginal, TranslatedText: PausedTranslated} }

// IsSentinel reports whether text is a placeholder in either language.
func IsSentinel(text string) bool {
	if _, ok := originalSentinels[text]; ok {
		return true
	}
	_, ok := translatedSentinels[text]
	return ok
}

// Normalize reports whether ev carries real content. It is pure: the same
// event always yields the same answer.
func Normalize(ev Event) bool {
	if strings.TrimSpace(ev.OriginalText) == "" || strings.TrimSpace(ev.TranslatedText) == "" {
		return false
	}
	if _, ok := originalSentinels[ev.OriginalText]; ok {
		return false
	}
	if _, ok := translatedSentinels[ev.TranslatedText]; ok {
		return false
	}
	return true
}
