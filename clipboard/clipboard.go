// Package clipboard copies caption lines to the system clipboard.
package clipboard

import (
	"strings"

	cb "github.com/atotto/clipboard"
)

// Available reports whether a clipboard utility was found.
func Available() bool {
	return !cb.Unsupported
}

func Copy(text string) error {
	return cb.WriteAll(text)
}

// Caption joins the original and translated halves of a line, one per row.
// Empty halves are left out.
func Caption(original, translated string) string {
	var parts []string
	for _, s := range []string{original, translated} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}
