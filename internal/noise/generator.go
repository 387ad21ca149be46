// Package noise provides the procedural noise generator evaluated by the
// shader. Perlin and Simplex kinds delegate to go-perlin and opensimplex-go;
// the lattice kinds (Value, Cubic, White, Cellular) use a seeded integer hash.
package noise

import (
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Settings configures a Generator. The zero value is not useful; start from
// DefaultSettings.
type Settings struct {
	Kind      Kind
	Seed      int32
	Frequency float64

	FractalType       FractalType
	FractalOctaves    int
	FractalLacunarity float64
	FractalGain       float64

	CellularDistance CellularDistance
	CellularReturn   CellularReturn
	CellularJitter   float64

	GradientPerturbAmp float64
}

// DefaultSettings returns the generator defaults.
func DefaultSettings() Settings {
	return Settings{
		Kind:               SimplexFractal,
		Seed:               1337,
		Frequency:          0.01,
		FractalType:        FBM,
		FractalOctaves:     3,
		FractalLacunarity:  2.0,
		FractalGain:        0.5,
		CellularDistance:   Euclidean,
		CellularReturn:     CellValue,
		CellularJitter:     0.45,
		GradientPerturbAmp: 1.0,
	}
}

// Option customises a Generator at construction.
type Option func(*Generator)

// WithCellularLookup attaches the generator sampled by the NoiseLookup
// cellular return type.
func WithCellularLookup(lookup *Generator) Option {
	return func(g *Generator) {
		g.lookup = lookup
	}
}

// Generator evaluates one noise configuration. It is immutable after New and
// safe for concurrent use.
type Generator struct {
	settings Settings
	bounding float64

	// One source per octave, seeded seed+octave.
	perlins  []*perlin.Perlin
	simplexs []opensimplex.Noise

	lookup *Generator
}

// perlinPeriod is the repeat length of go-perlin's lattice. Coordinates are
// wrapped into [0, perlinPeriod) before sampling: the library switches to 2D
// noise for negative z and truncates the lattice index to int32.
const perlinPeriod = 256

func wrapPerlin(v float64) float64 {
	v = math.Mod(v, perlinPeriod)
	if v < 0 {
		v += perlinPeriod
	}
	return v
}

// New builds a Generator. Octave counts below one are treated as one.
func New(s Settings, opts ...Option) *Generator {
	if s.FractalOctaves < 1 {
		s.FractalOctaves = 1
	}

	g := &Generator{settings: s}
	for _, opt := range opts {
		opt(g)
	}
	g.bounding = fractalBounding(s.FractalOctaves, s.FractalGain)

	octaves := 1
	if s.Kind.Fractal() {
		octaves = s.FractalOctaves
	}
	switch s.Kind {
	case Perlin, PerlinFractal:
		g.perlins = make([]*perlin.Perlin, octaves)
		for i := range g.perlins {
			g.perlins[i] = perlin.NewPerlin(2, 2, 1, int64(s.Seed)+int64(i))
		}
	case Simplex, SimplexFractal:
		g.simplexs = make([]opensimplex.Noise, octaves)
		for i := range g.simplexs {
			g.simplexs[i] = opensimplex.New(int64(s.Seed) + int64(i))
		}
	}

	return g
}

// Settings returns the settings the generator was built with, after octave
// clamping.
func (g *Generator) Settings() Settings { return g.settings }

// Lookup returns the cellular lookup generator when one is attached.
func (g *Generator) Lookup() (*Generator, bool) {
	return g.lookup, g.lookup != nil
}

// Noise evaluates the configured kind at a position. The result is nominally
// in [-1, 1]; some fractal configurations exceed it.
func (g *Generator) Noise(x, y, z float64) float64 {
	s := &g.settings
	x *= s.Frequency
	y *= s.Frequency
	z *= s.Frequency

	switch s.Kind {
	case Value:
		return g.value(0, x, y, z)
	case ValueFractal:
		return g.fractal(g.value, x, y, z)
	case Perlin:
		return g.perlin(0, x, y, z)
	case PerlinFractal:
		return g.fractal(g.perlin, x, y, z)
	case Simplex:
		return g.simplex(0, x, y, z)
	case SimplexFractal:
		return g.fractal(g.simplex, x, y, z)
	case Cellular:
		return g.cellular(0, x, y, z)
	case CellularFractal:
		return g.fractal(g.cellular, x, y, z)
	case White:
		return g.white(x, y, z)
	case Cubic:
		return g.cubic(0, x, y, z)
	case CubicFractal:
		return g.fractal(g.cubic, x, y, z)
	default:
		return 0
	}
}

func (g *Generator) seed(octave int) int32 {
	return g.settings.Seed + int32(octave)
}

func (g *Generator) perlin(octave int, x, y, z float64) float64 {
	return g.perlins[octave].Noise3D(wrapPerlin(x), wrapPerlin(y), wrapPerlin(z))
}

func (g *Generator) simplex(octave int, x, y, z float64) float64 {
	return g.simplexs[octave].Eval3(x, y, z)
}

func (g *Generator) value(octave int, x, y, z float64) float64 {
	seed := g.seed(octave)
	x0, y0, z0 := fastFloor(x), fastFloor(y), fastFloor(z)
	x1, y1, z1 := x0+1, y0+1, z0+1

	xs := interpQuintic(x - float64(x0))
	ys := interpQuintic(y - float64(y0))
	zs := interpQuintic(z - float64(z0))

	xf00 := lerp(valCoord3(seed, x0, y0, z0), valCoord3(seed, x1, y0, z0), xs)
	xf10 := lerp(valCoord3(seed, x0, y1, z0), valCoord3(seed, x1, y1, z0), xs)
	xf01 := lerp(valCoord3(seed, x0, y0, z1), valCoord3(seed, x1, y0, z1), xs)
	xf11 := lerp(valCoord3(seed, x0, y1, z1), valCoord3(seed, x1, y1, z1), xs)

	yf0 := lerp(xf00, xf10, ys)
	yf1 := lerp(xf01, xf11, ys)

	return lerp(yf0, yf1, zs)
}

const cubicBounding = 1 / (1.5 * 1.5 * 1.5)

func (g *Generator) cubic(octave int, x, y, z float64) float64 {
	seed := g.seed(octave)
	x1, y1, z1 := fastFloor(x), fastFloor(y), fastFloor(z)

	xs := x - float64(x1)
	ys := y - float64(y1)
	zs := z - float64(z1)

	var planes [4]float64
	for k := int32(0); k < 4; k++ {
		zi := z1 - 1 + k
		var rows [4]float64
		for j := int32(0); j < 4; j++ {
			yi := y1 - 1 + j
			rows[j] = cubicLerp(
				valCoord3(seed, x1-1, yi, zi),
				valCoord3(seed, x1, yi, zi),
				valCoord3(seed, x1+1, yi, zi),
				valCoord3(seed, x1+2, yi, zi),
				xs)
		}
		planes[k] = cubicLerp(rows[0], rows[1], rows[2], rows[3], ys)
	}

	return cubicLerp(planes[0], planes[1], planes[2], planes[3], zs) * cubicBounding
}

func (g *Generator) white(x, y, z float64) float64 {
	fold := func(f float64) int32 {
		b := math.Float64bits(f)
		i := int32(b ^ (b >> 32))
		return i ^ (i >> 16)
	}
	return valCoord3(g.settings.Seed, fold(x), fold(y), fold(z))
}
