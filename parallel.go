package region

import (
	"context"
	"iter"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/region/chunk"
)

// ChunksParallel is Chunks with slot decoding spread over a bounded worker
// pool. Chunks are still yielded in ascending slot order; only the decode
// work is concurrent. Each slot's decode is independent, and positional
// ReadAt keeps the single file handle safe to share.
//
// workers <= 1 falls back to the sequential iterator.
func (c *Container) ChunksParallel(workers int) iter.Seq[*chunk.Chunk] {
	if workers <= 1 {
		return c.Chunks()
	}
	return func(yield func(*chunk.Chunk) bool) {
		c.resetStats()

		var slots []int
		for slot, seg := range c.index {
			if seg != 0 {
				slots = append(slots, slot)
			}
		}

		// One single-buffered channel per slot keeps delivery ordered
		// without blocking workers: a send always completes, even when the
		// consumer stops early.
		results := make([]chan *chunk.Chunk, len(slots))
		for i := range results {
			results[i] = make(chan *chunk.Chunk, 1)
		}

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		// Drain in-flight workers before returning so Stats is settled once
		// the iteration ends, including an early break.
		defer func() {
			cancel()
			<-done
		}()

		var g errgroup.Group
		g.SetLimit(workers)
		go func() {
			defer close(done)
			defer func() { _ = g.Wait() }()
			for i, slot := range slots {
				if ctx.Err() != nil {
					return
				}
				ch := results[i]
				g.Go(func() error {
					ck, err := c.ChunkAt(slot)
					if err != nil {
						c.failed.Add(1)
						c.logger.Warn("skipping chunk",
							"slot", slot,
							"region_x", c.regionX,
							"region_z", c.regionZ,
							"error", err)
						ch <- nil
						return nil
					}
					ch <- ck
					return nil
				})
			}
		}()

		for i := range slots {
			ck := <-results[i]
			if ck == nil {
				continue
			}
			c.decoded.Add(1)
			if !yield(ck) {
				return
			}
		}
	}
}
