package chunk

import (
	"encoding/binary"
	"iter"
	"strings"
	"unicode/utf8"
)

// EmptyBlockName is the palette name for absent blocks; it is excluded from
// aggregate counts and name sets.
const EmptyBlockName = "Empty"

// DecodeSection parses the binary block-section payload embedded in a chunk
// document. It never fails: source files contain truncated and legacy
// sections, so on any structural problem the section built so far is
// returned. Decoding the same bytes always yields the same result.
//
// Layout: 4-byte migration version, 1-byte palette-width tag, big-endian
// uint16 palette entry count, palette entries, then the packed index array.
// Each entry is a 1-byte id, a big-endian uint16 name length, the UTF-8 name,
// and a big-endian int16 occurrence count.
func DecodeSection(data []byte, sectionY int) *Section {
	s := &Section{
		Y:           sectionY,
		BlockCounts: make(map[string]int),
	}
	c := sectionCursor{buf: data}

	version, ok := c.uint32()
	if !ok {
		return s
	}
	s.Version = version

	width, ok := c.uint8()
	if !ok {
		return s
	}
	s.Width = PaletteWidth(width)
	if s.Width == WidthEmpty || s.Width > WidthShort {
		return s
	}

	count, ok := c.uint16()
	if !ok {
		return s
	}
	for range count {
		id, ok := c.uint8()
		if !ok {
			break
		}
		nameLen, ok := c.uint16()
		if !ok {
			break
		}
		name, ok := c.bytes(int(nameLen))
		if !ok {
			break
		}
		entry := PaletteEntry{ID: id, Name: lossyName(name)}
		// A count cut off at the end of the buffer still yields the entry.
		if n, ok := c.int16(); ok {
			entry.Count = n
		}
		s.Palette = append(s.Palette, entry)
	}

	for _, e := range s.Palette {
		if e.Name == EmptyBlockName || e.Name == "" {
			continue
		}
		s.BlockCounts[e.Name] += max(0, int(e.Count))
	}

	s.Indices = c.rest()
	return s
}

// BlockID returns the palette id at the given voxel index, decoding the
// packed index array per the section's width. ok is false for out-of-range
// voxels, truncated index data, or empty sections.
func (s *Section) BlockID(voxel int) (id int, ok bool) {
	if voxel < 0 || voxel >= VoxelsPerSection {
		return 0, false
	}
	switch s.Width {
	case WidthHalfByte:
		b := voxel / 2
		if b >= len(s.Indices) {
			return 0, false
		}
		if voxel%2 == 0 {
			return int(s.Indices[b] & 0x0F), true
		}
		return int(s.Indices[b] >> 4), true
	case WidthByte:
		if voxel >= len(s.Indices) {
			return 0, false
		}
		return int(s.Indices[voxel]), true
	case WidthShort:
		off := voxel * 2
		if off+2 > len(s.Indices) {
			return 0, false
		}
		return int(binary.BigEndian.Uint16(s.Indices[off:])), true
	}
	return 0, false
}

// Blocks returns an iterator over (voxel index, palette id) pairs, stopping
// at the end of the index data or at 32768 voxels, whichever comes first.
func (s *Section) Blocks() iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		for voxel := range VoxelsPerSection {
			id, ok := s.BlockID(voxel)
			if !ok {
				return
			}
			if !yield(voxel, id) {
				return
			}
		}
	}
}

// PaletteName returns the block name for a palette id.
func (s *Section) PaletteName(id int) (string, bool) {
	for _, e := range s.Palette {
		if int(e.ID) == id {
			return e.Name, true
		}
	}
	return "", false
}

// sectionCursor is a best-effort cursor: reads report ok instead of failing,
// so the decoder can stop at a truncation point and keep its prefix.
type sectionCursor struct {
	buf []byte
	pos int
}

func (c *sectionCursor) uint8() (byte, bool) {
	if c.pos >= len(c.buf) {
		return 0, false
	}
	b := c.buf[c.pos]
	c.pos++
	return b, true
}

func (c *sectionCursor) bytes(n int) ([]byte, bool) {
	if c.pos+n > len(c.buf) {
		return nil, false
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, true
}

func (c *sectionCursor) uint16() (uint16, bool) {
	b, ok := c.bytes(2)
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint16(b), true
}

func (c *sectionCursor) int16() (int16, bool) {
	v, ok := c.uint16()
	return int16(v), ok
}

func (c *sectionCursor) uint32() (uint32, bool) {
	b, ok := c.bytes(4)
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint32(b), true
}

func (c *sectionCursor) rest() []byte {
	if c.pos >= len(c.buf) {
		return nil
	}
	return c.buf[c.pos:]
}

func lossyName(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "�")
}
