package store

import (
	"fmt"

	"fyne.io/fyne/v2"
)

// Dependencies carries handles only some drivers need.
type Dependencies struct {
	Prefs fyne.Preferences
}

// New opens the store selected by cfg.Driver (file when empty).
func New(cfg Config, deps Dependencies) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFile
	}

	switch driver {
	case DriverFile:
		f, err := OpenFile(cfg.Path)
		if err != nil {
			return nil, err
		}
		return f, nil
	case DriverRedis:
		r, err := NewRedis(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return r, nil
	case DriverPrefs:
		if deps.Prefs == nil {
			return nil, fmt.Errorf("prefs driver requires a preferences handle (build with -tags gui)")
		}
		return NewPrefs(deps.Prefs, ""), nil
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}
}
