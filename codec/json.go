package codec

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
)

// JSON marshaling for decoded trees. Documents preserve field order, binary
// payloads render as hex, and object ids render as hex strings.

var (
	_ json.Marshaler = (*Document)(nil)
	_ json.Marshaler = Binary{}
	_ json.Marshaler = Null{}
	_ json.Marshaler = ObjectID{}
)

// MarshalJSON renders the document as a JSON object in field order.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for name, v := range d.Fields() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON renders the payload as its subtype and hex-encoded bytes.
func (b Binary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Subtype byte   `json:"subtype"`
		Data    string `json:"data"`
	}{Subtype: b.Subtype, Data: hex.EncodeToString(b.Data)})
}

// MarshalJSON renders a JSON null.
func (Null) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// MarshalJSON renders the identifier as a hex string.
func (id ObjectID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Hex())
}
