package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Sentinel errors. Decode failures wrap one of these.
var (
	// ErrTruncated is returned when fewer bytes remain than a length prefix declares.
	ErrTruncated = errors.New("codec: truncated input")

	// ErrInvalidLength is returned when a declared length is negative or
	// exceeds the remaining buffer.
	ErrInvalidLength = errors.New("codec: invalid length")

	// ErrUnterminatedString is returned when a string is missing its null terminator.
	ErrUnterminatedString = errors.New("codec: unterminated string")

	// ErrUnknownType is returned for an unrecognized element type tag.
	ErrUnknownType = errors.New("codec: unknown element type")

	// ErrArrayKey is returned when an array document is missing a consecutive
	// decimal key.
	ErrArrayKey = errors.New("codec: non-contiguous array keys")
)

// Element type tags.
const (
	tagDouble    = 0x01
	tagString    = 0x02
	tagDocument  = 0x03
	tagArray     = 0x04
	tagBinary    = 0x05
	tagUndefined = 0x06
	tagObjectID  = 0x07
	tagBool      = 0x08
	tagDateTime  = 0x09
	tagNull      = 0x0A
	tagRegex     = 0x0B
	tagInt32     = 0x10
	tagTimestamp = 0x11
	tagInt64     = 0x12
)

// Decode parses data as a single document.
//
// Binary payloads in the returned tree alias data; callers must not modify
// the buffer while the tree is in use.
func Decode(data []byte) (*Document, error) {
	r := &reader{buf: data}
	return r.document()
}

// reader is a bounds-checked cursor over a borrowed byte slice.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) remaining() int {
	return len(r.buf) - r.pos
}

func (r *reader) byte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, ErrTruncated
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, ErrInvalidLength
	}
	if r.pos+n > len(r.buf) {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrTruncated, n, r.remaining())
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) int32() (int32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

func (r *reader) int64() (int64, error) {
	b, err := r.bytes(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

func (r *reader) double() (float64, error) {
	b, err := r.bytes(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(b)), nil
}

// cstring reads a null-terminated string.
func (r *reader) cstring() (string, error) {
	end := bytes.IndexByte(r.buf[r.pos:], 0)
	if end < 0 {
		return "", ErrUnterminatedString
	}
	s := lossyString(r.buf[r.pos : r.pos+end])
	r.pos += end + 1
	return s, nil
}

// lpstring reads a length-prefixed string, including its null terminator.
func (r *reader) lpstring() (string, error) {
	length, err := r.int32()
	if err != nil {
		return "", err
	}
	if length < 1 {
		return "", fmt.Errorf("%w: string length %d", ErrInvalidLength, length)
	}
	b, err := r.bytes(int(length))
	if err != nil {
		return "", err
	}
	if b[len(b)-1] != 0 {
		return "", ErrUnterminatedString
	}
	return lossyString(b[:len(b)-1]), nil
}

func (r *reader) binary() (Binary, error) {
	length, err := r.int32()
	if err != nil {
		return Binary{}, err
	}
	if length < 0 {
		return Binary{}, fmt.Errorf("%w: binary length %d", ErrInvalidLength, length)
	}
	subtype, err := r.byte()
	if err != nil {
		return Binary{}, err
	}
	data, err := r.bytes(int(length))
	if err != nil {
		return Binary{}, err
	}
	return Binary{Subtype: subtype, Data: data}, nil
}

func (r *reader) document() (*Document, error) {
	start := r.pos
	size, err := r.int32()
	if err != nil {
		return nil, err
	}
	if size < 5 || start+int(size) > len(r.buf) {
		return nil, fmt.Errorf("%w: document size %d", ErrInvalidLength, size)
	}
	end := start + int(size)

	doc := NewDocument()
	for r.pos < end-1 {
		tag, err := r.byte()
		if err != nil {
			return nil, err
		}
		if tag == 0 {
			break
		}
		name, err := r.cstring()
		if err != nil {
			return nil, err
		}
		v, err := r.element(tag)
		if err != nil {
			return nil, err
		}
		doc.Set(name, v)
	}

	// Advance past the terminator and any writer-side slack.
	if r.pos < end {
		r.pos = end
	}
	return doc, nil
}

// array reads a document and converts it to a sequence by looking up the
// consecutive decimal keys "0", "1", ... A non-contiguous key set is an error.
func (r *reader) array() (Array, error) {
	doc, err := r.document()
	if err != nil {
		return nil, err
	}
	arr := make(Array, doc.Len())
	for i := range arr {
		v, ok := doc.Get(strconv.Itoa(i))
		if !ok {
			return nil, fmt.Errorf("%w: missing key %q", ErrArrayKey, strconv.Itoa(i))
		}
		arr[i] = v
	}
	return arr, nil
}

func (r *reader) element(tag byte) (Value, error) {
	switch tag {
	case tagDouble:
		v, err := r.double()
		return Double(v), err
	case tagString:
		v, err := r.lpstring()
		return String(v), err
	case tagDocument:
		return r.document()
	case tagArray:
		return r.array()
	case tagBinary:
		return r.binary()
	case tagBool:
		b, err := r.byte()
		return Bool(b != 0), err
	case tagNull, tagUndefined:
		return Null{}, nil
	case tagInt32:
		v, err := r.int32()
		return Int32(v), err
	case tagInt64:
		v, err := r.int64()
		return Int64(v), err
	case tagDateTime:
		v, err := r.int64()
		return DateTime(v), err
	case tagTimestamp:
		v, err := r.int64()
		return Timestamp(v), err
	case tagObjectID:
		b, err := r.bytes(12)
		if err != nil {
			return nil, err
		}
		var id ObjectID
		copy(id[:], b)
		return id, nil
	case tagRegex:
		pattern, err := r.cstring()
		if err != nil {
			return nil, err
		}
		options, err := r.cstring()
		if err != nil {
			return nil, err
		}
		return Regex{Pattern: pattern, Options: options}, nil
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownType, tag)
	}
}

// lossyString decodes UTF-8 with invalid sequences replaced by U+FFFD.
func lossyString(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), "�")
}
