// Package codec decodes the self-describing binary document format used for
// chunk payloads.
//
// The format is structurally identical to BSON: a document is a little-endian
// int32 total size, a run of tagged elements, and a 0x00 terminator. Each
// element carries a one-byte type tag, a null-terminated name, and a
// type-specific payload. Arrays are documents whose keys are consecutive
// decimal strings.
//
// Only the element types emitted by the source system are supported; an
// unrecognized tag is a hard decode error.
package codec
