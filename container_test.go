package region

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"runtime"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRecord is one blob to place in a built container file.
type testRecord struct {
	raw []byte
	// corrupt replaces the compressed payload with garbage while keeping a
	// plausible record header.
	corrupt bool
}

// buildContainer assembles an in-memory container file with the given
// records keyed by slot index.
func buildContainer(t *testing.T, slotCount, segmentSize int, records map[int]testRecord) []byte {
	t.Helper()

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	defer enc.Close()

	hdr := make([]byte, headerSize)
	copy(hdr, Magic)
	binary.BigEndian.PutUint32(hdr[versionOffset:], 1)
	binary.BigEndian.PutUint32(hdr[slotCountOffset:], uint32(slotCount))
	binary.BigEndian.PutUint32(hdr[segmentSizeOffset:], uint32(segmentSize))

	table := make([]byte, slotCount*4)
	var data []byte
	segment := uint32(1)
	for slot := range slotCount {
		rec, ok := records[slot]
		if !ok {
			continue
		}
		compressed := enc.EncodeAll(rec.raw, nil)
		if rec.corrupt {
			compressed = bytes.Repeat([]byte{0xCC}, 16)
		}
		record := make([]byte, blobHeaderSize, blobHeaderSize+len(compressed))
		binary.BigEndian.PutUint32(record[0:], uint32(len(rec.raw)))
		binary.BigEndian.PutUint32(record[4:], uint32(len(compressed)))
		record = append(record, compressed...)
		require.LessOrEqual(t, len(record), segmentSize, "record must fit one segment")

		padded := make([]byte, segmentSize)
		copy(padded, record)
		data = append(data, padded...)

		binary.BigEndian.PutUint32(table[slot*4:], segment)
		segment++
	}

	out := append(hdr, table...)
	return append(out, data...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func openTest(t *testing.T, file []byte, rx, rz int, opts ...Option) *Container {
	t.Helper()
	c, err := NewContainer(bytes.NewReader(file), rx, rz, opts...)
	require.NoError(t, err)
	return c
}

func TestOpenHeader(t *testing.T) {
	file := buildContainer(t, 1024, 256, map[int]testRecord{
		0: {raw: []byte("payload")},
	})
	c := openTest(t, file, 0, 0)

	assert.Equal(t, 1, c.Version())
	assert.Equal(t, 1024, c.SlotCount())
	assert.Equal(t, 256, c.SegmentSize())
	assert.Equal(t, 1, c.PopulatedSlots())
	assert.True(t, c.Populated(0))
	assert.False(t, c.Populated(1))
}

func TestOpenBadMagic(t *testing.T) {
	file := buildContainer(t, 16, 256, nil)
	copy(file, "NotTheRightMagicXXX!")
	_, err := NewContainer(bytes.NewReader(file), 0, 0)
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestOpenUnsupportedVersion(t *testing.T) {
	file := buildContainer(t, 16, 256, nil)
	binary.BigEndian.PutUint32(file[versionOffset:], 2)
	_, err := NewContainer(bytes.NewReader(file), 0, 0)
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestOpenTruncatedHeader(t *testing.T) {
	_, err := NewContainer(bytes.NewReader([]byte(Magic)), 0, 0)
	require.ErrorIs(t, err, ErrTruncatedHeader)
}

func TestOpenTruncatedIndexTable(t *testing.T) {
	file := buildContainer(t, 16, 256, nil)
	_, err := NewContainer(bytes.NewReader(file[:headerSize+8]), 0, 0)
	require.ErrorIs(t, err, ErrTruncatedHeader)
}

func TestReadBlob(t *testing.T) {
	file := buildContainer(t, 64, 256, map[int]testRecord{
		3:  {raw: []byte("chunk three")},
		10: {raw: []byte("chunk ten")},
	})
	c := openTest(t, file, 0, 0)

	blob, err := c.ReadBlob(3)
	require.NoError(t, err)
	assert.Equal(t, []byte("chunk three"), blob)

	blob, err = c.ReadBlob(10)
	require.NoError(t, err)
	assert.Equal(t, []byte("chunk ten"), blob)
}

func TestReadBlobEmptySlot(t *testing.T) {
	file := buildContainer(t, 64, 256, map[int]testRecord{3: {raw: []byte("x")}})
	c := openTest(t, file, 0, 0)

	_, err := c.ReadBlob(4)
	require.ErrorIs(t, err, ErrEmptySlot)
}

func TestReadBlobSlotRange(t *testing.T) {
	file := buildContainer(t, 64, 256, nil)
	c := openTest(t, file, 0, 0)

	_, err := c.ReadBlob(64)
	require.ErrorIs(t, err, ErrSlotRange)
	_, err = c.ReadBlob(-1)
	require.ErrorIs(t, err, ErrSlotRange)
}

func TestReadBlobEverySlotMatchesIndex(t *testing.T) {
	records := map[int]testRecord{}
	for slot := 0; slot < 32; slot += 3 {
		records[slot] = testRecord{raw: []byte{byte(slot)}}
	}
	file := buildContainer(t, 32, 256, records)
	c := openTest(t, file, 0, 0)

	for slot := range 32 {
		blob, err := c.ReadBlob(slot)
		if _, ok := records[slot]; ok {
			require.NoError(t, err, "slot %d", slot)
			assert.Equal(t, []byte{byte(slot)}, blob)
		} else {
			require.ErrorIs(t, err, ErrEmptySlot, "slot %d", slot)
		}
	}
}

func TestReadBlobTruncated(t *testing.T) {
	file := buildContainer(t, 16, 256, map[int]testRecord{0: {raw: bytes.Repeat([]byte("abc"), 40)}})
	// Cut the file in the middle of slot 0's compressed payload.
	cut := file[:headerSize+16*4+blobHeaderSize+2]
	c := openTest(t, cut, 0, 0)

	_, err := c.ReadBlob(0)
	require.ErrorIs(t, err, ErrTruncatedBlob)
}

func TestReadBlobHugeDeclaredCompLen(t *testing.T) {
	file := buildContainer(t, 16, 256, map[int]testRecord{0: {raw: []byte("x")}})
	// Fabricate a compressed length far past the end of the file. The read
	// must fail on the bounds check, before any buffer is sized from it.
	recordOff := headerSize + 16*4
	binary.BigEndian.PutUint32(file[recordOff+4:], 1<<30)
	c := openTest(t, file, 0, 0)

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err := c.ReadBlob(0)
	runtime.ReadMemStats(&after)

	require.ErrorIs(t, err, ErrTruncatedBlob)
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(1<<20))
}

func TestReadBlobCorrupt(t *testing.T) {
	file := buildContainer(t, 16, 256, map[int]testRecord{0: {raw: []byte("data"), corrupt: true}})
	c := openTest(t, file, 0, 0)

	_, err := c.ReadBlob(0)
	require.ErrorIs(t, err, ErrDecompress)
}

func TestReadBlobSizeLimit(t *testing.T) {
	file := buildContainer(t, 16, 4096, map[int]testRecord{0: {raw: bytes.Repeat([]byte("a"), 2048)}})
	c := openTest(t, file, 0, 0, WithMaxBlobSize(1024))

	_, err := c.ReadBlob(0)
	require.ErrorIs(t, err, ErrBlobSize)
}

func TestParseFilename(t *testing.T) {
	x, z, err := ParseFilename("-2.-3.region.bin")
	require.NoError(t, err)
	assert.Equal(t, -2, x)
	assert.Equal(t, -3, z)

	x, z, err = ParseFilename("0.0.region.bin")
	require.NoError(t, err)
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, z)

	for _, name := range []string{"region.bin", "1.2.chunks.bin", "a.b.region.bin", "1.2.region"} {
		_, _, err := ParseFilename(name)
		assert.ErrorIs(t, err, ErrFilename, name)
	}
}

func TestChunkCoords(t *testing.T) {
	file := buildContainer(t, 1024, 256, nil)
	c := openTest(t, file, -2, -3)

	// Slot 33: localX=1, localZ=1.
	x, z := c.ChunkCoords(33)
	assert.Equal(t, -63, x)
	assert.Equal(t, -95, z)

	c = openTest(t, file, 0, 0)
	x, z = c.ChunkCoords(33)
	assert.Equal(t, 1, x)
	assert.Equal(t, 1, z)
}
