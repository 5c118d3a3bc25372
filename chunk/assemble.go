package chunk

import (
	"encoding/hex"
	"strconv"

	"github.com/meigma/region/codec"
)

// maxScanDepth bounds the fallback container scan. The schema path covers
// every file observed so far; the scan exists for files that predate it.
const maxScanDepth = 4

// Assemble decodes a blob into a Chunk. It never fails: a payload that does
// not decode as a document yields a chunk with empty collections and version
// zero, so a region with corrupt slots still reports its healthy chunks.
//
// Chunk coordinates are left zero; the orchestrator fills them in from the
// slot index.
func Assemble(blob []byte) *Chunk {
	c := &Chunk{BlockNames: make(map[string]struct{})}

	doc, err := codec.Decode(blob)
	if err != nil {
		// The document is unreadable, but block names frequently survive in
		// the raw bytes of legacy payloads.
		for name := range ScanBlockNames(blob) {
			c.BlockNames[name] = struct{}{}
		}
		return c
	}
	c.Raw = doc

	if v, ok := doc.Get("Version"); ok {
		if n, err := codec.AsInt(v); err == nil {
			c.Version = int(n)
		}
	}

	if comps := getDoc(doc, "Components"); comps != nil {
		assembleBlockComponents(c, comps)
		assembleSections(c, comps)
		assembleEntities(c, comps)
	}

	if len(c.Containers) == 0 {
		c.Containers = scanContainers(doc, 0)
	}
	return c
}

// assembleBlockComponents walks Components.BlockComponentChunk.BlockComponents,
// a document keyed by decimal voxel-index strings. Each entry's nested
// Components map yields one ItemContainer for a "container" key and one
// generic BlockComponent per other key.
func assembleBlockComponents(c *Chunk, comps *codec.Document) {
	bcs := getDoc(getDoc(comps, "BlockComponentChunk"), "BlockComponents")
	if bcs == nil {
		return
	}
	for key, v := range bcs.Fields() {
		idx, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		entry, err := codec.AsDocument(v)
		if err != nil {
			continue
		}
		x, y, z := ColumnCoords(idx)

		inner := getDoc(entry, "Components")
		if inner == nil {
			continue
		}
		for name, payload := range inner.Fields() {
			if name == "container" {
				if cd, err := codec.AsDocument(payload); err == nil {
					c.Containers = append(c.Containers, parseContainer(cd, x, y, z))
				}
				continue
			}
			data, _ := payload.(*codec.Document)
			c.BlockComponents = append(c.BlockComponents, BlockComponent{
				Index: idx,
				X:     x, Y: y, Z: z,
				Type: name,
				Data: data,
			})
		}
	}
}

// parseContainer builds an ItemContainer from a container component document.
// The computed voxel coordinates are used unless the document carries an
// explicit Position.
func parseContainer(cd *codec.Document, x, y, z int) ItemContainer {
	ic := ItemContainer{X: x, Y: y, Z: z, AllowViewing: true}

	if pos := getDoc(cd, "Position"); pos != nil {
		ic.X = getInt(pos, "X", x)
		ic.Y = getInt(pos, "Y", y)
		ic.Z = getInt(pos, "Z", z)
	}

	if inner := getDoc(cd, "ItemContainer"); inner != nil {
		ic.Capacity = getInt(inner, "Capacity", 0)
		if items, ok := inner.Get("Items"); ok {
			ic.Items = normalizeItems(items)
		}
	}

	ic.AllowViewing = getBool(cd, "AllowViewing", true)
	ic.CustomName = getString(cd, "Custom_Name")
	ic.WhoPlaced = getString(cd, "WhoPlacedUuid")
	ic.PlacedByInteraction = getBool(cd, "PlacedByInteraction", false)
	return ic
}

// normalizeItems accepts either a positional sequence or a slot-keyed map;
// map values are taken in key order.
func normalizeItems(v codec.Value) []codec.Value {
	switch items := v.(type) {
	case codec.Array:
		return []codec.Value(items)
	case *codec.Document:
		out := make([]codec.Value, 0, items.Len())
		for _, item := range items.Fields() {
			out = append(out, item)
		}
		return out
	}
	return nil
}

// assembleSections walks Components.ChunkColumn.Sections, hex-decoding each
// section's Components.Block.Data payload and unioning its palette names into
// the chunk's block-name set. The sequence position is the section Y index.
func assembleSections(c *Chunk, comps *codec.Document) {
	col := getDoc(comps, "ChunkColumn")
	if col == nil {
		return
	}
	c.Heightmap = getBytes(col, "Heightmap")
	c.Tintmap = getBytes(col, "Tintmap")

	v, ok := col.Get("Sections")
	if !ok {
		return
	}
	secs, err := codec.AsArray(v)
	if err != nil {
		return
	}
	for i, sv := range secs {
		sd, err := codec.AsDocument(sv)
		if err != nil {
			continue
		}
		blk := getDoc(getDoc(sd, "Components"), "Block")
		data := getString(blk, "Data")
		if data == "" {
			continue
		}
		raw, err := hex.DecodeString(data)
		if err != nil && len(raw) == 0 {
			continue
		}
		sec := DecodeSection(raw, i)
		c.Sections = append(c.Sections, sec)
		for _, e := range sec.Palette {
			if e.Name != EmptyBlockName && e.Name != "" {
				c.BlockNames[e.Name] = struct{}{}
			}
		}
	}
}

// assembleEntities copies Components.EntityChunk.Entities verbatim.
func assembleEntities(c *Chunk, comps *codec.Document) {
	ec := getDoc(comps, "EntityChunk")
	if ec == nil {
		return
	}
	v, ok := ec.Get("Entities")
	if !ok {
		return
	}
	entities, err := codec.AsArray(v)
	if err != nil {
		return
	}
	c.Entities = append(c.Entities, entities...)
}

// scanContainers is the bounded-depth fallback for payloads whose containers
// do not sit on the expected schema path. It recognizes the same shapes the
// schema walk does: a Components.container child, an ItemContainerState type
// marker, or a direct ItemContainer field.
func scanContainers(v codec.Value, depth int) []ItemContainer {
	if depth > maxScanDepth {
		return nil
	}
	var found []ItemContainer
	switch val := v.(type) {
	case *codec.Document:
		target := val
		if inner := getDoc(getDoc(val, "Components"), "container"); inner != nil {
			target = inner
		}
		if getString(target, "Type") == "ItemContainerState" || hasKey(target, "ItemContainer") {
			found = append(found, parseContainer(target, 0, 0, 0))
		}
		for name, child := range val.Fields() {
			if name == "Components" {
				continue
			}
			found = append(found, scanContainers(child, depth+1)...)
		}
	case codec.Array:
		for _, child := range val {
			found = append(found, scanContainers(child, depth+1)...)
		}
	}
	return found
}

// Document field helpers with lookup defaults. Lookups never fail; absent or
// mistyped fields fall back to the provided default.

func getDoc(d *codec.Document, name string) *codec.Document {
	v, ok := d.Get(name)
	if !ok {
		return nil
	}
	sub, err := codec.AsDocument(v)
	if err != nil {
		return nil
	}
	return sub
}

func getString(d *codec.Document, name string) string {
	v, ok := d.Get(name)
	if !ok {
		return ""
	}
	s, err := codec.AsString(v)
	if err != nil {
		return ""
	}
	return s
}

func getInt(d *codec.Document, name string, def int) int {
	v, ok := d.Get(name)
	if !ok {
		return def
	}
	n, err := codec.AsInt(v)
	if err != nil {
		return def
	}
	return int(n)
}

func getBool(d *codec.Document, name string, def bool) bool {
	v, ok := d.Get(name)
	if !ok {
		return def
	}
	b, err := codec.AsBool(v)
	if err != nil {
		return def
	}
	return b
}

// getBytes reads a field that is either a binary payload or a hex string.
func getBytes(d *codec.Document, name string) []byte {
	v, ok := d.Get(name)
	if !ok {
		return nil
	}
	switch val := v.(type) {
	case codec.Binary:
		return val.Data
	case codec.String:
		raw, err := hex.DecodeString(string(val))
		if err != nil {
			return nil
		}
		return raw
	}
	return nil
}

func hasKey(d *codec.Document, name string) bool {
	_, ok := d.Get(name)
	return ok
}
