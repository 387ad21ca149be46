// Package render drives the shader the way a renderer would: one shading
// sample per pixel, evaluated concurrently over a read-only Config.
package render

import (
	"github.com/MeKo-Tech/fastnoise/internal/shader"
	"github.com/MeKo-Tech/fastnoise/internal/tile"
	"github.com/go-gl/mathgl/mgl64"
)

// Plane is an axis-aligned rectangle in world space at height Origin.Z()
// seen from above. Origin is the bottom-left corner.
type Plane struct {
	Origin mgl64.Vec3
	Size   mgl64.Vec2
	// ObjectOrigin is the world position of the object's local origin.
	ObjectOrigin mgl64.Vec3
}

// UnitPlane covers [0, 1] x [0, 1] at z = 0 with the object at the world
// origin.
func UnitPlane() Plane {
	return Plane{Size: mgl64.Vec2{1, 1}}
}

// TilePlane maps a tile region of the unit square onto a plane of the given
// world extent. Tile y grows downwards while world y grows upwards, so tile
// 0/0/0 spans (0, 0) to (extent, extent).
func TilePlane(c tile.Coords, extent float64) Plane {
	r := c.Region()
	return Plane{
		Origin: mgl64.Vec3{r.Min.X() * extent, (1 - r.Max.Y()) * extent, 0},
		Size:   mgl64.Vec2{(r.Max.X() - r.Min.X()) * extent, (r.Max.Y() - r.Min.Y()) * extent},
	}
}

// Sample returns the shading request for pixel (i, j) of a w x h raster.
// Pixels are sampled at their centres; v grows downwards with the rows.
func (p Plane) Sample(i, j, w, h int) shader.SampleRequest {
	u := (float64(i) + 0.5) / float64(w)
	v := (float64(j) + 0.5) / float64(h)
	world := mgl64.Vec3{
		p.Origin[0] + u*p.Size[0],
		p.Origin[1] + (1-v)*p.Size[1],
		p.Origin[2],
	}
	return shader.SampleRequest{
		World:  world,
		Object: world.Sub(p.ObjectOrigin),
		U:      u,
		V:      v,
	}
}
