package chunk

import (
	"regexp"
	"strings"
)

// Block names follow a Category_SubCategory[_Detail...] convention, e.g.
// Rock_Stone_Mossy. The pattern and prefix table are immutable process-wide
// constants, initialized once.
var blockNamePattern = regexp.MustCompile(`[A-Z][a-z]+(?:_[A-Z][a-z][a-z0-9]*)+`)

var validBlockPrefixes = map[string]struct{}{
	"Rock": {}, "Soil": {}, "Plant": {}, "Wood": {}, "Ore": {}, "Furniture": {},
	"Rubble": {}, "Metal": {}, "Stone": {}, "Grass": {}, "Tree": {}, "Water": {},
	"Lava": {}, "Ice": {}, "Sand": {}, "Brick": {}, "Glass": {}, "Cloth": {},
	"Roof": {}, "Survival": {}, "Structure": {}, "Decor": {}, "Light": {},
	"Fence": {}, "Wall": {}, "Floor": {}, "Stair": {}, "Door": {}, "Window": {},
	"Chest": {}, "Barrel": {}, "Crate": {}, "Tool": {}, "Weapon": {},
	"Crystal": {}, "Coral": {}, "Seaweed": {}, "Shell": {}, "Kelp": {},
}

const maxBlockNameLen = 80

// ScanBlockNames extracts block type names from raw payload bytes by pattern
// matching. Used when a payload does not decode as a document but its palette
// strings are still present in the bytes.
func ScanBlockNames(data []byte) map[string]struct{} {
	names := make(map[string]struct{})
	text := string(data)

	for _, loc := range blockNamePattern.FindAllStringIndex(text, -1) {
		name := text[loc[0]:loc[1]]
		if !validBoundary(text, loc[0], loc[1]) {
			continue
		}
		if !validBlockName(name) {
			continue
		}
		names[name] = struct{}{}
	}
	return names
}

// validBoundary rejects matches embedded in larger identifiers: the preceding
// byte must not be alphanumeric or underscore, and the following byte must
// not be a lowercase letter.
func validBoundary(text string, start, end int) bool {
	if start > 0 {
		c := text[start-1]
		if c == '_' || isAlnum(c) {
			return false
		}
	}
	if end < len(text) {
		c := text[end]
		if c >= 'a' && c <= 'z' {
			return false
		}
	}
	return true
}

// validBlockName checks prefix membership and per-segment shape: each segment
// is an uppercase letter followed by lowercase letters and digits, with at
// least one lowercase letter.
func validBlockName(name string) bool {
	if len(name) > maxBlockNameLen {
		return false
	}
	segments := strings.Split(name, "_")
	if _, ok := validBlockPrefixes[segments[0]]; !ok {
		return false
	}
	for _, seg := range segments {
		if len(seg) < 2 || seg[0] < 'A' || seg[0] > 'Z' {
			return false
		}
		hasLower := false
		for i := 1; i < len(seg); i++ {
			c := seg[i]
			switch {
			case c >= 'a' && c <= 'z':
				hasLower = true
			case c >= '0' && c <= '9':
			default:
				return false
			}
		}
		if !hasLower {
			return false
		}
	}
	return true
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
