//go:build !gui

package main

import "fyne.io/fyne/v2"

// Stub for non-GUI builds: the prefs store driver reports that it needs
// -tags gui.
func preferences() fyne.Preferences {
	return nil
}
