package region

import (
	"fmt"
	"strconv"
	"strings"
)

// GridSize is the number of chunks along each axis of a region.
const GridSize = 32

// ParseFilename extracts region coordinates from a <x>.<z>.region.bin name.
func ParseFilename(name string) (x, z int, err error) {
	base, ok := strings.CutSuffix(name, ".bin")
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrFilename, name)
	}
	parts := strings.Split(base, ".")
	if len(parts) != 3 || parts[2] != "region" {
		return 0, 0, fmt.Errorf("%w: %q", ErrFilename, name)
	}
	x, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrFilename, name)
	}
	z, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrFilename, name)
	}
	return x, z, nil
}

// ChunkCoords returns the absolute chunk coordinates for a slot. The
// composition is arithmetic rather than bitwise so it holds for negative
// region coordinates.
func (c *Container) ChunkCoords(slot int) (x, z int) {
	localX := slot % GridSize
	localZ := slot / GridSize
	return c.regionX*GridSize + localX, c.regionZ*GridSize + localZ
}
