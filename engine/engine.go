// Package engine is the boundary to the transcription/translation engine.
package engine

import "peeches/transcript"

// Recorder controls audio capture. StartRecording reports false when the
// engine cannot run yet (models missing); the caller then shows settings.
type Recorder interface {
	StartRecording() (bool, error)
	StopRecording() error
}

// Line is one recognised utterance and its translation.
type Line struct {
	Original   string
	Translated string
}

// FromRaw maps raw engine output to the event the view receives. The engine
// marks silence with a bracketed token that becomes the blank pair.
func FromRaw(original, translated string) transcript.Event {
	if original == transcript.EngineBlankMarker {
		return transcript.Blank()
	}
	return transcript.Event{OriginalText: original, TranslatedText: translated}
}
