package region

import (
	"iter"

	"github.com/meigma/region/chunk"
)

// Stats counts the outcome of the most recent chunk iteration.
type Stats struct {
	// Decoded is the number of chunks successfully assembled and yielded.
	Decoded int

	// Failed is the number of populated slots skipped because their blob
	// failed to read, decompress, or decode.
	Failed int
}

// Stats returns counters from the most recently completed or in-progress
// iteration over the container.
func (c *Container) Stats() Stats {
	return Stats{
		Decoded: int(c.decoded.Load()),
		Failed:  int(c.failed.Load()),
	}
}

func (c *Container) resetStats() {
	c.decoded.Store(0)
	c.failed.Store(0)
}

// ChunkAt reads, decompresses, and assembles the chunk in a single slot.
// The returned chunk carries its absolute coordinates.
func (c *Container) ChunkAt(slot int) (*chunk.Chunk, error) {
	blob, err := c.ReadBlob(slot)
	if err != nil {
		return nil, err
	}
	ck := chunk.Assemble(blob)
	ck.X, ck.Z = c.ChunkCoords(slot)
	return ck, nil
}

// Chunks returns a lazy iterator over every populated slot in ascending slot
// order, one assembled chunk per slot.
//
// A failure in one slot is logged, counted in Stats, and skipped; iteration
// always continues through the remaining slots. The iterator is restartable:
// calling Chunks again iterates the container from the beginning.
func (c *Container) Chunks() iter.Seq[*chunk.Chunk] {
	return func(yield func(*chunk.Chunk) bool) {
		c.resetStats()
		for slot := range len(c.index) {
			if c.index[slot] == 0 {
				continue
			}
			ck, err := c.ChunkAt(slot)
			if err != nil {
				c.failed.Add(1)
				c.logger.Warn("skipping chunk",
					"slot", slot,
					"region_x", c.regionX,
					"region_z", c.regionZ,
					"error", err)
				continue
			}
			c.decoded.Add(1)
			if !yield(ck) {
				return
			}
		}
	}
}
