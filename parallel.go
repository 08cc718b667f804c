package cds

import (
	"golang.org/x/sync/errgroup"
)

// forEachClause runs fn for every position in [0, count) with at most limit
// goroutines. A limit of 1 runs serially and stops at the first error.
// Each call to fn must only touch state owned by its position.
func forEachClause(limit, count int, fn func(pos int) error) error {
	if limit <= 1 || count <= 1 {
		for pos := 0; pos < count; pos++ {
			if err := fn(pos); err != nil {
				return err
			}
		}
		return nil
	}

	eg := errgroup.Group{}
	eg.SetLimit(limit)
	for pos := 0; pos < count; pos++ {
		pos := pos
		eg.Go(func() error {
			return fn(pos)
		})
	}
	return eg.Wait()
}
