// Package doctor runs environment diagnostics and prints a PASS/FAIL report.
package doctor

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"peeches/assets"
	"peeches/clipboard"
)

// CheckTimeout bounds each check.
const CheckTimeout = 5 * time.Second

type Check struct {
	Name string
	Run  func(ctx context.Context) (detail string, err error)
}

// Run executes checks in order and returns an exit code (0=all pass, 1=any fail).
func Run(ctx context.Context, w io.Writer, checks []Check) int {
	fmt.Fprintln(w, "peeches doctor - system diagnostics")
	fmt.Fprintln(w, "===================================")

	allPass := true
	for i, c := range checks {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "[%d/%d] %s\n", i+1, len(checks), c.Name)

		cctx, cancel := context.WithTimeout(ctx, CheckTimeout)
		detail, err := c.Run(cctx)
		cancel()
		if err != nil {
			fmt.Fprintf(w, "  FAIL: %v\n", err)
			allPass = false
			continue
		}
		fmt.Fprintf(w, "  PASS: %s\n", detail)
	}

	fmt.Fprintln(w)
	if allPass {
		fmt.Fprintln(w, "All checks passed!")
		return 0
	}
	fmt.Fprintln(w, "Some checks failed. See details above.")
	return 1
}

// Writable checks that files can be created in dir.
func Writable(name, dir string) Check {
	return Check{Name: name, Run: func(context.Context) (string, error) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
		f, err := os.CreateTemp(dir, ".doctor-*")
		if err != nil {
			return "", err
		}
		f.Close()
		os.Remove(f.Name())
		return dir, nil
	}}
}

// Models checks that every named model file is present.
func Models(v assets.Verifier, fileNames ...string) Check {
	return Check{Name: "Model files", Run: func(ctx context.Context) (string, error) {
		exists, err := v.Verify(ctx, fileNames)
		if err != nil {
			return "", err
		}
		var missing []string
		for _, name := range fileNames {
			if !exists[name] {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return "", fmt.Errorf("missing %s (download them from the models pane)", strings.Join(missing, ", "))
		}
		return fmt.Sprintf("%d models present", len(fileNames)), nil
	}}
}

// Store checks that the persisted asset set can be read.
func Store(driver string, s assets.Store) Check {
	return Check{Name: "Store (" + driver + ")", Run: func(ctx context.Context) (string, error) {
		_, ok, err := s.Get(ctx, assets.PersistKey)
		if err != nil {
			return "", err
		}
		if !ok {
			return "reachable, no saved models yet", nil
		}
		return "reachable, saved models found", nil
	}}
}

// Clipboard checks that a clipboard utility is available.
func Clipboard() Check {
	return Check{Name: "Clipboard", Run: func(context.Context) (string, error) {
		if !clipboard.Available() {
			return "", fmt.Errorf("no clipboard utility found (install xclip, xsel or wl-clipboard)")
		}
		return "available", nil
	}}
}

// LogDir is Writable for the log directory.
func LogDir(dir string) Check {
	return Writable("Log directory", filepath.Clean(dir))
}
