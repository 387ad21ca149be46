package noise

import "math"

const cellularFar = 999999.0

func (g *Generator) cellularDistance(vx, vy, vz float64) float64 {
	switch g.settings.CellularDistance {
	case Manhattan:
		return math.Abs(vx) + math.Abs(vy) + math.Abs(vz)
	case Natural:
		return (math.Abs(vx) + math.Abs(vy) + math.Abs(vz)) + (vx*vx + vy*vy + vz*vz)
	default:
		return vx*vx + vy*vy + vz*vz
	}
}

// cellular scans the 3x3x3 neighbourhood of feature points. Euclidean
// distances stay squared.
func (g *Generator) cellular(octave int, x, y, z float64) float64 {
	s := &g.settings
	seed := g.seed(octave)
	xr, yr, zr := fastRound(x), fastRound(y), fastRound(z)

	d0, d1 := cellularFar, cellularFar
	var cx, cy, cz int32
	var fx, fy, fz float64

	for xi := xr - 1; xi <= xr+1; xi++ {
		for yi := yr - 1; yi <= yr+1; yi++ {
			for zi := zr - 1; zi <= zr+1; zi++ {
				jx, jy, jz := latticeVec3(seed, xi, yi, zi)
				px := float64(xi) + jx*s.CellularJitter
				py := float64(yi) + jy*s.CellularJitter
				pz := float64(zi) + jz*s.CellularJitter

				d := g.cellularDistance(px-x, py-y, pz-z)
				if s.CellularReturn.needsSecond() {
					d1 = math.Max(math.Min(d1, d), d0)
				}
				if d < d0 {
					d0 = d
					cx, cy, cz = xi, yi, zi
					fx, fy, fz = px, py, pz
				}
			}
		}
	}

	switch s.CellularReturn {
	case CellValue:
		return valCoord3(seed, cx, cy, cz)
	case NoiseLookup:
		if g.lookup == nil {
			return 0
		}
		return g.lookup.Noise(fx, fy, fz)
	case Distance:
		return d0 - 1
	case Distance2:
		return d1 - 1
	case Distance2Add:
		return d1 + d0 - 1
	case Distance2Sub:
		return d1 - d0 - 1
	case Distance2Mul:
		return d1*d0 - 1
	case Distance2Div:
		return d0/d1 - 1
	default:
		return 0
	}
}
