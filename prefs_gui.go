//go:build gui

package main

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
)

const appID = "io.peeches.overlay"

// preferences is the per-application preference store fyne keeps for appID.
func preferences() fyne.Preferences {
	return app.NewWithID(appID).Preferences()
}
