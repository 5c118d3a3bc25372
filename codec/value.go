package codec

import (
	"encoding/hex"
	"fmt"
	"iter"
)

// Value is one decoded element of a document. The set of implementations is
// closed: Double, String, *Document, Array, Binary, Bool, Null, Int32, Int64,
// DateTime, Timestamp, ObjectID, and Regex.
type Value interface {
	// Kind returns a short name for the value's type, used in error messages.
	Kind() string
}

type (
	// Double is an 8-byte IEEE-754 floating point value.
	Double float64

	// String is a length-prefixed UTF-8 string. Invalid byte sequences are
	// replaced with U+FFFD during decode.
	String string

	// Array is an ordered sequence of values.
	Array []Value

	// Binary is an opaque byte payload with a one-byte subtype. Data aliases
	// the decoded input buffer and must be treated as immutable.
	Binary struct {
		Subtype byte
		Data    []byte
	}

	// Bool is a boolean value.
	Bool bool

	// Null is an explicit null (also used for the deprecated undefined tag).
	Null struct{}

	// Int32 is a 32-bit signed integer.
	Int32 int32

	// Int64 is a 64-bit signed integer.
	Int64 int64

	// DateTime is a UTC datetime in milliseconds since the Unix epoch.
	DateTime int64

	// Timestamp is an opaque 64-bit timestamp.
	Timestamp int64

	// ObjectID is a 12-byte object identifier.
	ObjectID [12]byte

	// Regex is a regular expression pattern with its option string.
	Regex struct {
		Pattern string
		Options string
	}
)

// Document is an ordered mapping from element names to values.
// Field order is the order the elements appear on disk.
type Document struct {
	names  []string
	values map[string]Value
}

// NewDocument returns an empty document. Fields are added with Set.
func NewDocument() *Document {
	return &Document{values: make(map[string]Value)}
}

// Set appends a field, or replaces the value of an existing field in place.
func (d *Document) Set(name string, v Value) {
	if _, ok := d.values[name]; !ok {
		d.names = append(d.names, name)
	}
	d.values[name] = v
}

// Get returns the value for the given field name.
func (d *Document) Get(name string) (Value, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.values[name]
	return v, ok
}

// Len returns the number of fields.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.names)
}

// Fields returns an iterator over fields in document order.
func (d *Document) Fields() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if d == nil {
			return
		}
		for _, name := range d.names {
			if !yield(name, d.values[name]) {
				return
			}
		}
	}
}

func (Double) Kind() string    { return "double" }
func (String) Kind() string    { return "string" }
func (*Document) Kind() string { return "document" }
func (Array) Kind() string     { return "array" }
func (Binary) Kind() string    { return "binary" }
func (Bool) Kind() string      { return "bool" }
func (Null) Kind() string      { return "null" }
func (Int32) Kind() string     { return "int32" }
func (Int64) Kind() string     { return "int64" }
func (DateTime) Kind() string  { return "datetime" }
func (Timestamp) Kind() string { return "timestamp" }
func (ObjectID) Kind() string  { return "objectid" }
func (Regex) Kind() string     { return "regex" }

// Hex returns the identifier as a lowercase hex string.
func (id ObjectID) Hex() string {
	return hex.EncodeToString(id[:])
}

// AsDocument converts v to a document.
func AsDocument(v Value) (*Document, error) {
	d, ok := v.(*Document)
	if !ok {
		return nil, convErr(v, "document")
	}
	return d, nil
}

// AsArray converts v to an array.
func AsArray(v Value) (Array, error) {
	a, ok := v.(Array)
	if !ok {
		return nil, convErr(v, "array")
	}
	return a, nil
}

// AsString converts v to a string.
func AsString(v Value) (string, error) {
	s, ok := v.(String)
	if !ok {
		return "", convErr(v, "string")
	}
	return string(s), nil
}

// AsBinary converts v to a binary payload.
func AsBinary(v Value) (Binary, error) {
	b, ok := v.(Binary)
	if !ok {
		return Binary{}, convErr(v, "binary")
	}
	return b, nil
}

// AsBool converts v to a boolean.
func AsBool(v Value) (bool, error) {
	b, ok := v.(Bool)
	if !ok {
		return false, convErr(v, "bool")
	}
	return bool(b), nil
}

// AsInt converts any numeric value to an int64. Doubles are truncated.
func AsInt(v Value) (int64, error) {
	switch n := v.(type) {
	case Int32:
		return int64(n), nil
	case Int64:
		return int64(n), nil
	case Double:
		return int64(n), nil
	case DateTime:
		return int64(n), nil
	case Timestamp:
		return int64(n), nil
	}
	return 0, convErr(v, "int")
}

func convErr(v Value, want string) error {
	if v == nil {
		return fmt.Errorf("codec: cannot convert nil value to %s", want)
	}
	return fmt.Errorf("codec: cannot convert %s to %s", v.Kind(), want)
}
