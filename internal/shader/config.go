// Package shader turns a FastNoise parameter set into an immutable Config and
// evaluates it per shading sample: resolve the sample position, warp it, and
// remap the noise to [0, 1].
package shader

import (
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/fastnoise/internal/noise"
	"github.com/MeKo-Tech/fastnoise/internal/params"
)

// Config is the per-node snapshot built when parameters change. It is never
// mutated after Build, so any number of samples may read it concurrently.
type Config struct {
	values    params.Values
	space     params.Space
	transform Transform
	warp      params.Warp
	generator *noise.Generator
}

// Values returns the parameters after enum clamping and octave correction.
func (c *Config) Values() params.Values { return c.values }

// Space returns the coordinate space samples are resolved in.
func (c *Config) Space() params.Space { return c.space }

// Transform returns the offset, scale and rotation applied to positions.
func (c *Config) Transform() Transform { return c.transform }

// Warp returns the position warp mode.
func (c *Config) Warp() params.Warp { return c.warp }

// Generator returns the primary noise generator.
func (c *Config) Generator() *noise.Generator { return c.generator }

// Lookup returns the secondary Perlin generator. It exists only when the
// cellular return type is NoiseLookup.
func (c *Config) Lookup() (*noise.Generator, bool) {
	return c.generator.Lookup()
}

// Build creates a Config from resolved parameter values. Invalid enum
// integers are clamped into range and logged; octave counts below one are
// treated as one. Build never fails.
func Build(v params.Values, logger *slog.Logger) *Config {
	if logger == nil {
		logger = slog.Default()
	}
	warnClamped := func(name string, got int, used fmt.Stringer) {
		logger.Warn("Shader parameter out of range, clamped",
			"param", name, "value", got, "using", used.String())
	}

	var ok bool
	rawSpace := v.Space
	if v.Space, ok = params.SpaceFromInt(int(rawSpace)); !ok {
		warnClamped("space", int(rawSpace), v.Space)
	}

	s := noise.DefaultSettings()

	// Order follows the host parameter table.
	rawKind := v.NoiseType
	if s.Kind, ok = noise.KindFromInt(int(rawKind)); !ok {
		warnClamped("noise_type", int(rawKind), s.Kind)
	}
	s.Seed = int32(v.Seed)
	s.Frequency = v.Frequency

	rawFractal := v.FractalType
	if s.FractalType, ok = noise.FractalTypeFromInt(int(rawFractal)); !ok {
		warnClamped("fractal_type", int(rawFractal), s.FractalType)
	}
	s.FractalOctaves = v.FractalOctaves
	if s.FractalOctaves < 1 {
		logger.Debug("Non-positive octave count, using one octave", "fractal_octaves", v.FractalOctaves)
		s.FractalOctaves = 1
	}
	s.FractalLacunarity = v.FractalLacunarity
	s.FractalGain = v.FractalGain

	rawDistance := v.CellularDistanceFunction
	if s.CellularDistance, ok = noise.CellularDistanceFromInt(int(rawDistance)); !ok {
		warnClamped("cellular_distance_function", int(rawDistance), s.CellularDistance)
	}
	rawReturn := v.CellularReturnType
	if s.CellularReturn, ok = noise.CellularReturnFromInt(int(rawReturn)); !ok {
		warnClamped("cellular_return_type", int(rawReturn), s.CellularReturn)
	}
	s.CellularJitter = v.CellularJitter

	rawWarp := v.PositionWarp
	if v.PositionWarp, ok = params.WarpFromInt(int(rawWarp)); !ok {
		warnClamped("position_warp", int(rawWarp), v.PositionWarp)
	}
	s.GradientPerturbAmp = v.PositionWarpAmplitude

	var opts []noise.Option
	if s.CellularReturn == noise.NoiseLookup {
		opts = append(opts, noise.WithCellularLookup(newLookup(s)))
	}

	v.NoiseType = s.Kind
	v.FractalType = s.FractalType
	v.FractalOctaves = s.FractalOctaves
	v.CellularDistanceFunction = s.CellularDistance
	v.CellularReturnType = s.CellularReturn

	return &Config{
		values:    v,
		space:     v.Space,
		transform: NewTransform(v.Offset, v.Scale, v.Rotate),
		warp:      v.PositionWarp,
		generator: noise.New(s, opts...),
	}
}

// newLookup builds the Perlin generator sampled by NoiseLookup cells. Seed
// and frequency always follow the primary.
func newLookup(primary noise.Settings) *noise.Generator {
	s := noise.DefaultSettings()
	s.Kind = noise.Perlin
	s.Seed = primary.Seed
	s.Frequency = primary.Frequency
	return noise.New(s)
}
