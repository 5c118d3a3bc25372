// Package chunk assembles decoded chunk payloads into a queryable data model.
//
// A chunk payload is a codec document wrapping per-component data: bit-packed
// block sections, block-level components such as item containers, and entity
// payloads. Assemble extracts all of them into a self-contained Chunk; the
// section decoder handles the bespoke palette + packed-index binary layout
// embedded as hex inside the document.
package chunk
