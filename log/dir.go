package log

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "peeches"

// defaultDir is ~/Library/Logs/peeches on macOS, %LOCALAPPDATA%\peeches\logs
// on Windows and $XDG_CONFIG_HOME/peeches/logs elsewhere.
func defaultDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Logs", appName), nil
	case "windows":
		local, err := os.UserCacheDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(local, appName, "logs"), nil
	}
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, appName, "logs"), nil
}
