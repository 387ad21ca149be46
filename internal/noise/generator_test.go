package noise

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKinds = []Kind{
	Value, ValueFractal, Perlin, PerlinFractal, Simplex, SimplexFractal,
	Cellular, CellularFractal, White, Cubic, CubicFractal,
}

func samplePoints() []mgl64.Vec3 {
	var pts []mgl64.Vec3
	for i := 0; i < 12; i++ {
		for j := 0; j < 12; j++ {
			pts = append(pts, mgl64.Vec3{
				float64(i)*0.37 - 2.1,
				float64(j)*0.53 - 3.3,
				float64(i*j)*0.011 - 0.4,
			})
		}
	}
	return pts
}

func settingsFor(kind Kind) Settings {
	s := DefaultSettings()
	s.Kind = kind
	s.Frequency = 1.3
	return s
}

func TestGenerator_Deterministic(t *testing.T) {
	for _, kind := range allKinds {
		t.Run(kind.String(), func(t *testing.T) {
			a := New(settingsFor(kind))
			b := New(settingsFor(kind))
			for _, p := range samplePoints() {
				require.Equal(t, a.Noise(p[0], p[1], p[2]), b.Noise(p[0], p[1], p[2]))
			}
		})
	}
}

func TestGenerator_SingleOctaveRange(t *testing.T) {
	for _, kind := range []Kind{Value, Perlin, Simplex, White, Cubic, Cellular} {
		t.Run(kind.String(), func(t *testing.T) {
			g := New(settingsFor(kind))
			for _, p := range samplePoints() {
				n := g.Noise(p[0], p[1], p[2])
				assert.False(t, math.IsNaN(n))
				assert.LessOrEqual(t, n, 1.0)
				assert.GreaterOrEqual(t, n, -1.0)
			}
		})
	}
}

func TestGenerator_ProducesVariation(t *testing.T) {
	for _, kind := range allKinds {
		t.Run(kind.String(), func(t *testing.T) {
			g := New(settingsFor(kind))
			first := g.Noise(0.1, 0.2, 0.3)
			varied := false
			for _, p := range samplePoints() {
				if g.Noise(p[0], p[1], p[2]) != first {
					varied = true
					break
				}
			}
			assert.True(t, varied, "noise should vary across positions")
		})
	}
}

func TestGenerator_SeedChangesOutput(t *testing.T) {
	for _, kind := range []Kind{Value, Perlin, Simplex, Cubic, Cellular} {
		t.Run(kind.String(), func(t *testing.T) {
			s := settingsFor(kind)
			a := New(s)
			s.Seed = 42
			b := New(s)

			different := 0
			pts := samplePoints()
			for _, p := range pts {
				if a.Noise(p[0], p[1], p[2]) != b.Noise(p[0], p[1], p[2]) {
					different++
				}
			}
			assert.Greater(t, different, len(pts)/2)
		})
	}
}

func TestGenerator_NonPositiveOctavesActAsOne(t *testing.T) {
	for _, kind := range []Kind{ValueFractal, PerlinFractal, SimplexFractal, CellularFractal, CubicFractal} {
		for _, ft := range []FractalType{FBM, Billow, RigidMulti} {
			s := settingsFor(kind)
			s.FractalType = ft
			s.FractalOctaves = 1
			one := New(s)

			for _, octaves := range []int{0, -4} {
				s.FractalOctaves = octaves
				g := New(s)
				assert.Equal(t, 1, g.Settings().FractalOctaves)
				for _, p := range samplePoints() {
					require.Equal(t, one.Noise(p[0], p[1], p[2]), g.Noise(p[0], p[1], p[2]),
						"%s/%s octaves=%d", kind, ft, octaves)
				}
			}
		}
	}
}

func TestGenerator_PerlinContinuousAcrossZeroZ(t *testing.T) {
	g := New(settingsFor(Perlin))
	for _, p := range samplePoints() {
		below := g.Noise(p[0], p[1], -1e-7)
		above := g.Noise(p[0], p[1], 1e-7)
		assert.InDelta(t, above, below, 1e-4)
	}
}

func TestGenerator_PerlinFarFromOrigin(t *testing.T) {
	s := settingsFor(Perlin)
	s.Frequency = 1
	g := New(s)

	// Continuous across the old z cliff and across the wrap seam.
	for _, z := range []float64{-4096, -2048, -256, 0, 256, 5000} {
		below := g.Noise(0.31, 0.77, z-1e-6)
		above := g.Noise(0.31, 0.77, z+1e-6)
		assert.InDelta(t, above, below, 1e-4, "z=%g", z)
	}

	// Still three dimensional deep below z = 0.
	var distinct int
	first := g.Noise(0.31, 0.77, -5000.3)
	for i := 1; i < 8; i++ {
		if math.Abs(g.Noise(0.31, 0.77, -5000.3+float64(i)*0.37)-first) > 1e-6 {
			distinct++
		}
	}
	assert.Greater(t, distinct, 4)

	// The lattice period holds for far negative coordinates on every axis.
	for _, p := range []mgl64.Vec3{
		{0.4, 0.2, -4096.3},
		{-9000.25, 1.5, 2.7},
		{3.3, -20000.6, -7000.1},
	} {
		want := g.Noise(p[0], p[1], p[2])
		assert.InDelta(t, want, g.Noise(p[0]+256, p[1], p[2]), 1e-9)
		assert.InDelta(t, want, g.Noise(p[0], p[1]+256, p[2]), 1e-9)
		assert.InDelta(t, want, g.Noise(p[0], p[1], p[2]+256), 1e-9)
	}
}

func TestWrapPerlin(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{255.5, 255.5},
		{256, 0},
		{-0.25, 255.75},
		{-4096.5, 255.5},
		{1000, 232},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, wrapPerlin(tt.in), 1e-9, "wrapPerlin(%g)", tt.in)
	}
}

func TestFractalBounding(t *testing.T) {
	assert.InDelta(t, 1.0, fractalBounding(1, 0.5), 1e-12)
	assert.InDelta(t, 1/1.75, fractalBounding(3, 0.5), 1e-12)
}

func TestCellular_SecondDistanceNotCloser(t *testing.T) {
	for _, dist := range []CellularDistance{Euclidean, Manhattan, Natural} {
		s := settingsFor(Cellular)
		s.CellularDistance = dist
		s.CellularReturn = Distance
		near := New(s)
		s.CellularReturn = Distance2
		far := New(s)

		for _, p := range samplePoints() {
			assert.GreaterOrEqual(t, far.Noise(p[0], p[1], p[2]), near.Noise(p[0], p[1], p[2]))
		}
	}
}

func TestCellular_NoiseLookup(t *testing.T) {
	s := settingsFor(Cellular)
	s.CellularReturn = NoiseLookup

	without := New(s)
	_, ok := without.Lookup()
	assert.False(t, ok)
	assert.Equal(t, 0.0, without.Noise(0.3, 0.7, 1.1))

	ls := DefaultSettings()
	ls.Kind = Perlin
	ls.Seed = s.Seed
	ls.Frequency = s.Frequency
	lookup := New(ls)

	with := New(s, WithCellularLookup(lookup))
	got, ok := with.Lookup()
	require.True(t, ok)
	assert.Same(t, lookup, got)

	nonZero := false
	for _, p := range samplePoints() {
		n := with.Noise(p[0], p[1], p[2])
		assert.LessOrEqual(t, math.Abs(n), 1.0)
		if n != 0 {
			nonZero = true
		}
	}
	assert.True(t, nonZero)
}

func TestGradientPerturb(t *testing.T) {
	s := settingsFor(Simplex)
	s.GradientPerturbAmp = 0
	still := New(s)
	p := mgl64.Vec3{0.25, -1.5, 3.75}
	assert.Equal(t, p, still.GradientPerturb(p))
	assert.Equal(t, p, still.GradientPerturbFractal(p))

	s.GradientPerturbAmp = 0.5
	g := New(s)
	moved := false
	for _, q := range samplePoints() {
		w := g.GradientPerturb(q)
		assert.LessOrEqual(t, w.Sub(q).Len(), 0.5*math.Sqrt(3)+1e-9)
		if w != q {
			moved = true
		}
		assert.Equal(t, w, g.GradientPerturb(q))
	}
	assert.True(t, moved)
}

func TestGradientPerturbFractal_Bounded(t *testing.T) {
	s := settingsFor(SimplexFractal)
	s.GradientPerturbAmp = 0.25
	s.FractalOctaves = 4
	g := New(s)

	// Octave amplitudes sum to the perturb amplitude after bounding.
	for _, q := range samplePoints() {
		w := g.GradientPerturbFractal(q)
		assert.LessOrEqual(t, w.Sub(q).Len(), 0.25*math.Sqrt(3)+1e-9)
	}
}

func TestLatticeVec3_Unit(t *testing.T) {
	for i := int32(-5); i < 5; i++ {
		x, y, z := latticeVec3(1337, i, i*3, -i)
		assert.InDelta(t, 1.0, math.Sqrt(x*x+y*y+z*z), 1e-9)
	}
}
