package noise

import "github.com/go-gl/mathgl/mgl64"

// GradientPerturb displaces p by one octave of interpolated lattice vectors
// scaled by the generator's perturb amplitude.
func (g *Generator) GradientPerturb(p mgl64.Vec3) mgl64.Vec3 {
	s := &g.settings
	return gradientPerturb(s.Seed, s.GradientPerturbAmp, s.Frequency, p)
}

// GradientPerturbFractal displaces p by FractalOctaves octaves of gradient
// perturbation, following the generator's lacunarity and gain.
func (g *Generator) GradientPerturbFractal(p mgl64.Vec3) mgl64.Vec3 {
	s := &g.settings
	amp := s.GradientPerturbAmp * g.bounding
	freq := s.Frequency

	p = gradientPerturb(s.Seed, amp, freq, p)
	for i := 1; i < s.FractalOctaves; i++ {
		freq *= s.FractalLacunarity
		amp *= s.FractalGain
		p = gradientPerturb(g.seed(i), amp, freq, p)
	}
	return p
}

func gradientPerturb(seed int32, amp, freq float64, p mgl64.Vec3) mgl64.Vec3 {
	xf, yf, zf := p[0]*freq, p[1]*freq, p[2]*freq

	x0, y0, z0 := fastFloor(xf), fastFloor(yf), fastFloor(zf)
	x1, y1, z1 := x0+1, y0+1, z0+1

	xs := interpQuintic(xf - float64(x0))
	ys := interpQuintic(yf - float64(y0))
	zs := interpQuintic(zf - float64(z0))

	edge := func(yi, zi int32) (float64, float64, float64) {
		ax, ay, az := latticeVec3(seed, x0, yi, zi)
		bx, by, bz := latticeVec3(seed, x1, yi, zi)
		return lerp(ax, bx, xs), lerp(ay, by, xs), lerp(az, bz, xs)
	}
	face := func(zi int32) (float64, float64, float64) {
		ax, ay, az := edge(y0, zi)
		bx, by, bz := edge(y1, zi)
		return lerp(ax, bx, ys), lerp(ay, by, ys), lerp(az, bz, ys)
	}

	ax, ay, az := face(z0)
	bx, by, bz := face(z1)

	return mgl64.Vec3{
		p[0] + lerp(ax, bx, zs)*amp,
		p[1] + lerp(ay, by, zs)*amp,
		p[2] + lerp(az, bz, zs)*amp,
	}
}
