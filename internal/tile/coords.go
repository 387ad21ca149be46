// Package tile addresses square regions of the noise plane with XYZ tile
// coordinates. Tile z/x/y covers [x, x+1] x [y, y+1] scaled by 2^-z inside the
// unit square, with y growing downwards.
package tile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// MaxZoom is the deepest zoom level accepted by ParsePath and Pyramid.
const MaxZoom = 24

// Coords is a tile coordinate (z/x/y).
type Coords struct {
	Z uint32
	X uint32
	Y uint32
}

// NewCoords creates Coords from zoom, x and y.
func NewCoords(z, x, y uint32) Coords {
	return Coords{Z: z, X: x, Y: y}
}

// FromTile converts a maptile.Tile.
func FromTile(t maptile.Tile) Coords {
	return Coords{Z: uint32(t.Z), X: t.X, Y: t.Y}
}

// String returns the coordinate as "z{z}_x{x}_y{y}".
func (c Coords) String() string {
	return fmt.Sprintf("z%d_x%d_y%d", c.Z, c.X, c.Y)
}

// Path returns the file name for this tile with the given extension.
func (c Coords) Path(extension string) string {
	return fmt.Sprintf("%s.%s", c.String(), extension)
}

// Tile returns the maptile.Tile for this coordinate.
func (c Coords) Tile() maptile.Tile {
	return maptile.New(c.X, c.Y, maptile.Zoom(c.Z))
}

// Valid reports whether x and y lie inside the zoom level's grid.
func (c Coords) Valid() bool {
	if c.Z > MaxZoom {
		return false
	}
	n := uint32(1) << c.Z
	return c.X < n && c.Y < n
}

// Region returns the area covered by the tile in the unit plane. Min is the
// top-left corner.
func (c Coords) Region() orb.Bound {
	size := 1.0 / float64(uint64(1)<<c.Z)
	x0 := float64(c.X) * size
	y0 := float64(c.Y) * size
	return orb.Bound{
		Min: orb.Point{x0, y0},
		Max: orb.Point{x0 + size, y0 + size},
	}
}

// ParseCoords parses a tile string like "z3_x1_y5".
func ParseCoords(s string) (Coords, error) {
	var c Coords
	_, err := fmt.Sscanf(s, "z%d_x%d_y%d", &c.Z, &c.X, &c.Y)
	if err != nil {
		return c, fmt.Errorf("invalid tile coordinate format: %s", s)
	}
	if !c.Valid() {
		return c, fmt.Errorf("tile %s is outside its zoom level", s)
	}
	return c, nil
}

// ParsePath parses a slash separated "z/x/y" coordinate.
func ParsePath(s string) (Coords, error) {
	parts := strings.Split(strings.Trim(s, "/"), "/")
	if len(parts) != 3 {
		return Coords{}, fmt.Errorf("invalid tile path %q, expected z/x/y", s)
	}

	var vals [3]uint32
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return Coords{}, fmt.Errorf("invalid tile path %q: %w", s, err)
		}
		vals[i] = uint32(n)
	}

	c := NewCoords(vals[0], vals[1], vals[2])
	if !c.Valid() {
		return Coords{}, fmt.Errorf("tile %s is outside its zoom level", s)
	}
	return c, nil
}

// Pyramid returns root's descendants for every zoom in [zoomMin, zoomMax],
// including root itself when zoomMin equals its zoom. Zooms above root are
// skipped.
func Pyramid(root Coords, zoomMin, zoomMax uint32) []Coords {
	if zoomMin < root.Z {
		zoomMin = root.Z
	}
	if zoomMax > MaxZoom {
		zoomMax = MaxZoom
	}

	tiles := make([]Coords, 0, Count(root, zoomMin, zoomMax))
	t := root.Tile()
	for z := zoomMin; z <= zoomMax; z++ {
		lo, hi := t.Range(maptile.Zoom(z))
		for x := lo.X; x <= hi.X; x++ {
			for y := lo.Y; y <= hi.Y; y++ {
				tiles = append(tiles, NewCoords(z, x, y))
			}
		}
	}
	return tiles
}

// Count returns len(Pyramid(root, zoomMin, zoomMax)) without allocating.
func Count(root Coords, zoomMin, zoomMax uint32) int {
	if zoomMin < root.Z {
		zoomMin = root.Z
	}
	if zoomMax > MaxZoom {
		zoomMax = MaxZoom
	}

	count := 0
	for z := zoomMin; z <= zoomMax; z++ {
		side := 1 << (z - root.Z)
		count += side * side
	}
	return count
}
