// Package modeldir is the on-disk side of model assets: checking which files
// exist and fetching missing ones.
package modeldir

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
)

const verifyConcurrency = 4

type Verifier struct {
	Dir string
}

// Verify stats each file. A missing directory means nothing exists yet; any
// other failure to read the directory is an error.
func (v Verifier) Verify(ctx context.Context, fileNames []string) (map[string]bool, error) {
	out := make(map[string]bool, len(fileNames))
	info, err := os.Stat(v.Dir)
	if errors.Is(err, os.ErrNotExist) {
		for _, name := range fileNames {
			out[name] = false
		}
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("model dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("model dir %s: not a directory", v.Dir)
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(verifyConcurrency)
	for _, name := range fileNames {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ok, err := regularFile(filepath.Join(v.Dir, name))
			if err != nil {
				return fmt.Errorf("stat %s: %w", name, err)
			}
			mu.Lock()
			out[name] = ok
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func regularFile(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}
