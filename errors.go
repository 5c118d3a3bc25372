package region

import "errors"

// Sentinel errors. Container-level errors abort the operation that produced
// them; per-slot errors are isolated by the chunk iterator.
var (
	// ErrBadMagic is returned when a file does not start with the container magic.
	ErrBadMagic = errors.New("region: bad magic")

	// ErrUnsupportedVersion is returned for a container format version other than 0 or 1.
	ErrUnsupportedVersion = errors.New("region: unsupported version")

	// ErrTruncatedHeader is returned when a file is too small for its header
	// or slot index table.
	ErrTruncatedHeader = errors.New("region: truncated header")

	// ErrSlotRange is returned when a slot index is outside the container's slot table.
	ErrSlotRange = errors.New("region: slot index out of range")

	// ErrEmptySlot is returned when a slot's index entry marks it as holding no data.
	ErrEmptySlot = errors.New("region: slot has no data")

	// ErrTruncatedBlob is returned when a blob record declares more
	// compressed bytes than the file holds.
	ErrTruncatedBlob = errors.New("region: truncated blob record")

	// ErrBlobSize is returned when a blob's declared uncompressed length
	// exceeds the configured limit.
	ErrBlobSize = errors.New("region: blob exceeds size limit")

	// ErrDecompress is returned when a blob's compressed payload does not
	// decompress to its declared length.
	ErrDecompress = errors.New("region: decompression failed")

	// ErrFilename is returned when a filename does not follow the
	// <x>.<z>.region.bin convention.
	ErrFilename = errors.New("region: invalid region filename")
)
