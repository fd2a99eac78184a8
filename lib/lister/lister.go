// Package lister collects directory entries and their metadata snapshots.
// Stat calls run through a bounded worker pool; the parallelism ends here,
// before any plugin is invoked.
package lister

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/triyanox/lla/lib/api"
)

// DefaultWorkers bounds the stat pool when the caller passes zero.
const DefaultWorkers = 8

// Collect reads dir non-recursively and returns one decorated entry per
// child, in name order, each with its metadata captured once. Entries that
// vanish between the directory read and the stat are skipped.
func Collect(ctx context.Context, dir string, workers int) ([]*api.DecoratedEntry, error) {
	children, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}

	out := make([]*api.DecoratedEntry, len(children))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, child := range children {
		i, child := i, child
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			entry, err := api.NewEntry(filepath.Join(dir, child.Name()))
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil
				}
				return err
			}
			out[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make([]*api.DecoratedEntry, 0, len(out))
	for _, e := range out {
		if e != nil {
			entries = append(entries, e)
		}
	}
	return entries, nil
}
