// Package export flattens decoded regions into JSON-ready structures for
// external consumers.
package export

import (
	"fmt"
	"sort"

	"github.com/meigma/region"
	"github.com/meigma/region/chunk"
)

// Metadata describes a region export as a whole.
type Metadata struct {
	RegionX int `json:"region_x"`
	RegionZ int `json:"region_z"`

	// ChunkCount is the number of chunks decoded into the export.
	ChunkCount int `json:"chunk_count"`

	// FailedChunks is the number of populated slots that could not be
	// decoded and were skipped.
	FailedChunks int `json:"failed_chunks,omitempty"`

	// BlockSummary aggregates palette occurrence counts by block name
	// across every decoded chunk.
	BlockSummary map[string]int `json:"block_summary"`
}

// Container is an item container placed in the world.
type Container struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`

	Capacity   int    `json:"capacity"`
	CustomName string `json:"custom_name,omitempty"`

	Items []Item `json:"items"`
}

// Component is a non-container block component placed in the world.
type Component struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`

	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Region is the full export of one region file.
type Region struct {
	Metadata Metadata `json:"metadata"`

	// Blocks maps "x,y,z" world positions to block names. Empty voxels
	// are omitted. Nil when block placements were not requested.
	Blocks map[string]string `json:"blocks,omitempty"`

	Containers []Container `json:"containers"`

	Components []Component `json:"block_components,omitempty"`
}

// Option configures an export.
type Option func(*exporter)

// WithWorkers spreads chunk decoding over n workers.
func WithWorkers(n int) Option {
	return func(e *exporter) {
		e.workers = n
	}
}

// WithoutBlocks omits the per-position block map, keeping only the
// aggregate summary. Large regions hold millions of placed blocks; the
// summary is usually what analysis wants.
func WithoutBlocks() Option {
	return func(e *exporter) {
		e.blocks = false
	}
}

type exporter struct {
	workers int
	blocks  bool
}

// Export decodes every chunk in the container and flattens it into a Region.
func Export(c *region.Container, opts ...Option) *Region {
	e := exporter{workers: 1, blocks: true}
	for _, opt := range opts {
		opt(&e)
	}

	rx, rz := c.Region()
	out := &Region{
		Metadata: Metadata{
			RegionX:      rx,
			RegionZ:      rz,
			BlockSummary: map[string]int{},
		},
		Containers: []Container{},
	}
	if e.blocks {
		out.Blocks = map[string]string{}
	}

	for ck := range c.ChunksParallel(e.workers) {
		addChunk(out, ck, e.blocks)
	}

	stats := c.Stats()
	out.Metadata.ChunkCount = stats.Decoded
	out.Metadata.FailedChunks = stats.Failed
	sortContainers(out.Containers)
	return out
}

// Summary is Export without per-position blocks or components.
func Summary(c *region.Container, opts ...Option) *Region {
	r := Export(c, append(opts, WithoutBlocks())...)
	r.Components = nil
	return r
}

func addChunk(out *Region, ck *chunk.Chunk, blocks bool) {
	baseX := ck.X * chunk.SectionSize
	baseZ := ck.Z * chunk.SectionSize

	for _, sec := range ck.Sections {
		for name, n := range sec.BlockCounts {
			out.Metadata.BlockSummary[name] += n
		}
		if !blocks {
			continue
		}
		baseY := sec.Y * chunk.SectionSize
		for voxel, id := range sec.Blocks() {
			name, ok := sec.PaletteName(id)
			if !ok || name == chunk.EmptyBlockName {
				continue
			}
			x, y, z := chunk.VoxelCoords(voxel)
			key := fmt.Sprintf("%d,%d,%d", baseX+x, baseY+y, baseZ+z)
			out.Blocks[key] = name
		}
	}

	for _, ic := range ck.Containers {
		out.Containers = append(out.Containers, Container{
			X:          baseX + ic.X,
			Y:          ic.Y,
			Z:          baseZ + ic.Z,
			Capacity:   ic.Capacity,
			CustomName: ic.CustomName,
			Items:      summarizeItems(ic.Items),
		})
	}

	if blocks {
		for _, bc := range ck.BlockComponents {
			comp := Component{
				X:    baseX + bc.X,
				Y:    bc.Y,
				Z:    baseZ + bc.Z,
				Type: bc.Type,
			}
			if bc.Data != nil {
				comp.Data = bc.Data
			}
			out.Components = append(out.Components, comp)
		}
	}
}

func sortContainers(cs []Container) {
	sort.Slice(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		return a.X < b.X
	})
}
