package noise

import "math"

// octaveFunc evaluates a single octave of a base noise at already scaled
// coordinates.
type octaveFunc func(octave int, x, y, z float64) float64

// fractalBounding normalises the summed octave amplitudes to one.
func fractalBounding(octaves int, gain float64) float64 {
	amp := gain
	ampFractal := 1.0
	for i := 1; i < octaves; i++ {
		ampFractal += amp
		amp *= gain
	}
	return 1 / ampFractal
}

func (g *Generator) fractal(base octaveFunc, x, y, z float64) float64 {
	switch g.settings.FractalType {
	case Billow:
		return g.fractalBillow(base, x, y, z)
	case RigidMulti:
		return g.fractalRigidMulti(base, x, y, z)
	default:
		return g.fractalFBM(base, x, y, z)
	}
}

func (g *Generator) fractalFBM(base octaveFunc, x, y, z float64) float64 {
	s := &g.settings
	sum := base(0, x, y, z)
	amp := 1.0

	for i := 1; i < s.FractalOctaves; i++ {
		x *= s.FractalLacunarity
		y *= s.FractalLacunarity
		z *= s.FractalLacunarity

		amp *= s.FractalGain
		sum += base(i, x, y, z) * amp
	}

	return sum * g.bounding
}

func (g *Generator) fractalBillow(base octaveFunc, x, y, z float64) float64 {
	s := &g.settings
	sum := math.Abs(base(0, x, y, z))*2 - 1
	amp := 1.0

	for i := 1; i < s.FractalOctaves; i++ {
		x *= s.FractalLacunarity
		y *= s.FractalLacunarity
		z *= s.FractalLacunarity

		amp *= s.FractalGain
		sum += (math.Abs(base(i, x, y, z))*2 - 1) * amp
	}

	return sum * g.bounding
}

func (g *Generator) fractalRigidMulti(base octaveFunc, x, y, z float64) float64 {
	s := &g.settings
	sum := 1 - math.Abs(base(0, x, y, z))
	amp := 1.0

	for i := 1; i < s.FractalOctaves; i++ {
		x *= s.FractalLacunarity
		y *= s.FractalLacunarity
		z *= s.FractalLacunarity

		amp *= s.FractalGain
		sum -= (1 - math.Abs(base(i, x, y, z))) * amp
	}

	return sum
}
