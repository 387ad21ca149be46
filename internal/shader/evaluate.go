package shader

import (
	"github.com/MeKo-Tech/fastnoise/internal/params"
	"github.com/go-gl/mathgl/mgl64"
)

// Remap maps raw noise from [-1, 1] to [0, 1]. Values outside the nominal
// range are not clamped.
func Remap(raw float64) float64 {
	return (raw + 1) / 2
}

// Evaluate warps p according to the config's warp mode, evaluates the noise
// and remaps it. It never fails.
func Evaluate(cfg *Config, p mgl64.Vec3) float64 {
	g := cfg.generator
	switch cfg.warp {
	case params.WarpOn:
		p = g.GradientPerturb(p)
	case params.WarpFractal:
		p = g.GradientPerturbFractal(p)
	}
	return Remap(g.Noise(p[0], p[1], p[2]))
}

// Sample resolves and evaluates one shading sample.
func (c *Config) Sample(req SampleRequest) float64 {
	return Evaluate(c, Resolve(c.space, req, c.transform))
}
