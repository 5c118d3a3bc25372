package region

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
)

const (
	// Magic is the fixed identifier at the start of every container file.
	Magic = "HytaleIndexedStorage"

	headerSize     = 32
	blobHeaderSize = 8

	versionOffset     = 20
	slotCountOffset   = 24
	segmentSizeOffset = 28

	// DefaultMaxBlobSize bounds a single blob's declared uncompressed
	// length (16MB). A region chunk is far smaller; anything near the limit
	// is corrupt data.
	DefaultMaxBlobSize = 16 << 20

	// maxSlotCount rejects nonsense slot counts before allocating the
	// index table. Real containers hold exactly GridSize*GridSize slots.
	maxSlotCount = 1 << 20
)

// ByteSource provides random access to container bytes.
type ByteSource interface {
	io.ReaderAt
	Size() int64
}

// Container reads an indexed-storage region file.
//
// The header and slot index table are read once at open; blobs are then read
// on demand. Slot count and segment size never change after open. ReadAt
// access is positional, so a single Container is safe for concurrent reads.
type Container struct {
	src    ByteSource
	closer io.Closer
	logger *slog.Logger
	pool   *decoderPool

	regionX, regionZ int

	version     uint32
	slotCount   uint32
	segmentSize uint32
	index       []uint32

	maxBlobSize uint64

	decoded atomic.Int64
	failed  atomic.Int64
}

// Option configures a Container.
type Option func(*Container)

// WithLogger sets the logger used to report skipped slots during iteration.
func WithLogger(l *slog.Logger) Option {
	return func(c *Container) {
		c.logger = l
	}
}

// WithMaxBlobSize sets the limit on a blob's declared uncompressed length.
// Set to 0 to disable the limit.
func WithMaxBlobSize(limit uint64) Option {
	return func(c *Container) {
		c.maxBlobSize = limit
	}
}

// Open opens a region file, deriving region coordinates from its
// <x>.<z>.region.bin filename.
func Open(path string, opts ...Option) (*Container, error) {
	rx, rz, err := ParseFilename(filepath.Base(path))
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	c, err := NewContainer(fileSource{f: f, size: st.Size()}, rx, rz, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	c.closer = f
	return c, nil
}

// NewContainer reads a container from src with caller-supplied region
// coordinates. Closing the returned Container does not close src.
func NewContainer(src ByteSource, regionX, regionZ int, opts ...Option) (*Container, error) {
	c := &Container{
		src:         src,
		logger:      slog.Default(),
		regionX:     regionX,
		regionZ:     regionZ,
		maxBlobSize: DefaultMaxBlobSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.readHeader(); err != nil {
		return nil, err
	}
	c.pool = newDecoderPool(c.maxBlobSize)
	return c, nil
}

func (c *Container) readHeader() error {
	hdr := make([]byte, headerSize)
	if _, err := c.src.ReadAt(hdr, 0); err != nil {
		return fmt.Errorf("%w: %v", ErrTruncatedHeader, err)
	}
	if string(hdr[:len(Magic)]) != Magic {
		return fmt.Errorf("%w: got %q", ErrBadMagic, hdr[:len(Magic)])
	}

	c.version = binary.BigEndian.Uint32(hdr[versionOffset:])
	if c.version > 1 {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, c.version)
	}
	c.slotCount = binary.BigEndian.Uint32(hdr[slotCountOffset:])
	c.segmentSize = binary.BigEndian.Uint32(hdr[segmentSizeOffset:])

	if c.slotCount > maxSlotCount {
		return fmt.Errorf("%w: slot count %d", ErrTruncatedHeader, c.slotCount)
	}
	tableSize := int64(c.slotCount) * 4
	if headerSize+tableSize > c.src.Size() {
		return fmt.Errorf("%w: index table past end of file", ErrTruncatedHeader)
	}

	table := make([]byte, tableSize)
	if _, err := c.src.ReadAt(table, headerSize); err != nil {
		return fmt.Errorf("%w: %v", ErrTruncatedHeader, err)
	}
	c.index = make([]uint32, c.slotCount)
	for i := range c.index {
		c.index[i] = binary.BigEndian.Uint32(table[i*4:])
	}
	return nil
}

// Version returns the container format version.
func (c *Container) Version() int { return int(c.version) }

// SlotCount returns the total number of slots.
func (c *Container) SlotCount() int { return int(c.slotCount) }

// SegmentSize returns the fixed segment size in bytes.
func (c *Container) SegmentSize() int { return int(c.segmentSize) }

// Region returns the container's region coordinates.
func (c *Container) Region() (x, z int) { return c.regionX, c.regionZ }

// Populated reports whether the slot's index entry marks it as holding data.
func (c *Container) Populated(slot int) bool {
	return slot >= 0 && slot < len(c.index) && c.index[slot] != 0
}

// PopulatedSlots returns the number of slots holding data.
func (c *Container) PopulatedSlots() int {
	n := 0
	for _, seg := range c.index {
		if seg != 0 {
			n++
		}
	}
	return n
}

// Close releases the underlying file handle, when the Container owns one.
func (c *Container) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

// segmentPos converts a 1-based segment index to a file offset. Segments
// begin immediately after the slot index table.
func (c *Container) segmentPos(segment uint32) int64 {
	base := int64(headerSize) + int64(c.slotCount)*4
	return base + int64(segment-1)*int64(c.segmentSize)
}

// ReadBlob reads and decompresses the blob for a slot. It returns
// ErrSlotRange for an out-of-range index and ErrEmptySlot for a slot whose
// index entry is zero.
func (c *Container) ReadBlob(slot int) ([]byte, error) {
	if slot < 0 || slot >= len(c.index) {
		return nil, fmt.Errorf("%w: %d", ErrSlotRange, slot)
	}
	segment := c.index[slot]
	if segment == 0 {
		return nil, ErrEmptySlot
	}

	pos := c.segmentPos(segment)
	hdr := make([]byte, blobHeaderSize)
	if _, err := c.src.ReadAt(hdr, pos); err != nil {
		return nil, fmt.Errorf("%w: slot %d: %v", ErrTruncatedBlob, slot, err)
	}
	srcLen := binary.BigEndian.Uint32(hdr[0:])
	compLen := binary.BigEndian.Uint32(hdr[4:])

	if c.maxBlobSize > 0 && uint64(srcLen) > c.maxBlobSize {
		return nil, fmt.Errorf("%w: slot %d declares %d bytes", ErrBlobSize, slot, srcLen)
	}
	// Bound the compressed length against the file before allocating; a
	// corrupt header can declare up to 4GB.
	if int64(compLen) > c.src.Size()-pos-blobHeaderSize {
		return nil, fmt.Errorf("%w: slot %d declares %d compressed bytes", ErrTruncatedBlob, slot, compLen)
	}

	compressed := make([]byte, compLen)
	if _, err := c.src.ReadAt(compressed, pos+blobHeaderSize); err != nil {
		return nil, fmt.Errorf("%w: slot %d: %v", ErrTruncatedBlob, slot, err)
	}

	blob, err := c.pool.decompress(compressed, int(srcLen))
	if err != nil {
		return nil, fmt.Errorf("%w: slot %d: %v", ErrDecompress, slot, err)
	}
	return blob, nil
}

// fileSource adapts an *os.File to ByteSource with a size cached at open.
type fileSource struct {
	f    *os.File
	size int64
}

func (s fileSource) ReadAt(p []byte, off int64) (int, error) { return s.f.ReadAt(p, off) }
func (s fileSource) Size() int64                             { return s.size }
