package chunk

import (
	"github.com/meigma/region/codec"
)

// Voxel geometry constants. A chunk is a 32x32 column of voxel space divided
// into 32-voxel-high sections; block components address the full column height.
const (
	SectionSize      = 32
	VoxelsPerSection = SectionSize * SectionSize * SectionSize
	ColumnHeight     = 320
)

// PaletteWidth identifies the packing width of a section's block-index array.
type PaletteWidth uint8

const (
	WidthEmpty    PaletteWidth = iota // no palette or index data
	WidthHalfByte                     // two 4-bit indices per byte
	WidthByte                         // one byte per voxel
	WidthShort                        // one big-endian uint16 per voxel
)

func (w PaletteWidth) String() string {
	switch w {
	case WidthEmpty:
		return "empty"
	case WidthHalfByte:
		return "halfbyte"
	case WidthByte:
		return "byte"
	case WidthShort:
		return "short"
	}
	return "unknown"
}

// PaletteEntry maps a section-internal block id to a block type name.
// Count is the occurrence count as stored; source data legitimately contains
// negative counts, which are clamped only when aggregating.
type PaletteEntry struct {
	ID    uint8
	Name  string
	Count int16
}

// Section is one 32x32x32 voxel sub-volume of a chunk.
type Section struct {
	// Y is the section's index within the column.
	Y int

	// Version is the section's format/migration version.
	Version uint32

	// Width is the palette-encoding width tag.
	Width PaletteWidth

	// Palette lists entries in on-disk order.
	Palette []PaletteEntry

	// BlockCounts aggregates occurrence counts by block name, clamped at
	// zero and excluding entries named "Empty".
	BlockCounts map[string]int

	// Indices is the raw packed block-index array, one index per voxel in
	// X-fastest order. Decode per voxel with BlockID or Blocks.
	Indices []byte
}

// BlockComponent is a non-terrain attachment on a specific voxel.
type BlockComponent struct {
	// Index is the linear voxel index within the chunk column.
	Index int

	// X, Y, Z are the local coordinates decoded from Index.
	X, Y, Z int

	// Type is the component's name within the voxel's component map.
	// It is free-form; new component types appear without notice.
	Type string

	// Data is the component's payload, nil when the payload is not a document.
	Data *codec.Document
}

// ItemContainer is a container component (chest, barrel, ...) on a voxel.
type ItemContainer struct {
	// X, Y, Z are the container's local coordinates.
	X, Y, Z int

	// Capacity is the slot capacity.
	Capacity int

	// Items lists item stacks as opaque payloads. A slot-keyed map on disk is
	// normalized to a list in key order.
	Items []codec.Value

	// AllowViewing reports whether other players may view the contents.
	AllowViewing bool

	// CustomName is the user-assigned name, empty when unset.
	CustomName string

	// WhoPlaced identifies the placing entity, empty when unset.
	WhoPlaced string

	// PlacedByInteraction reports whether placement was interaction-triggered.
	PlacedByInteraction bool
}

// Chunk is the assembled data for one chunk. It is self-contained: nothing in
// it references another chunk's memory.
type Chunk struct {
	// X, Z are the absolute chunk coordinates, filled in by the orchestrator.
	X, Z int

	// Version is the chunk payload's top-level format version.
	Version int

	// Sections lists decoded block sections in document order.
	Sections []*Section

	// BlockComponents lists non-container block components.
	BlockComponents []BlockComponent

	// Containers lists item containers.
	Containers []ItemContainer

	// Entities holds entity payloads, copied verbatim from the document.
	Entities []codec.Value

	// BlockNames is the set of distinct block type names observed.
	BlockNames map[string]struct{}

	// Heightmap and Tintmap are raw byte blobs when the chunk carries them.
	Heightmap []byte
	Tintmap   []byte

	// Raw is the decoded document tree, retained for diagnostic consumers.
	// Nil when the payload failed to decode.
	Raw *codec.Document
}

// VoxelCoords converts a section-local linear voxel index to coordinates.
// The layout is X-fastest, then Z, then Y.
func VoxelCoords(idx int) (x, y, z int) {
	x = idx % SectionSize
	z = (idx / SectionSize) % SectionSize
	y = idx / (SectionSize * SectionSize)
	return x, y, z
}

// ColumnCoords converts a column-addressed voxel index (as used by block
// component keys) to local coordinates within a 32x320x32 column.
func ColumnCoords(idx int) (x, y, z int) {
	x = idx % SectionSize
	y = (idx / SectionSize) % ColumnHeight
	z = idx / (SectionSize * ColumnHeight)
	return x, y, z
}
