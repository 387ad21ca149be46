package render

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"math"
	"testing"

	"github.com/MeKo-Tech/fastnoise/internal/noise"
	"github.com/MeKo-Tech/fastnoise/internal/params"
	"github.com/MeKo-Tech/fastnoise/internal/shader"
	"github.com/MeKo-Tech/fastnoise/internal/tile"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildConfig(t *testing.T, mutate func(*params.Values)) *shader.Config {
	t.Helper()
	v := params.Default()
	if mutate != nil {
		mutate(&v)
	}
	return shader.Build(v, nil)
}

func TestPlane_Sample(t *testing.T) {
	p := Plane{
		Origin:       mgl64.Vec3{10, 20, 5},
		Size:         mgl64.Vec2{4, 2},
		ObjectOrigin: mgl64.Vec3{10, 20, 0},
	}

	req := p.Sample(0, 0, 4, 2)
	assert.InDelta(t, 0.125, req.U, 1e-12)
	assert.InDelta(t, 0.25, req.V, 1e-12)
	assert.Equal(t, mgl64.Vec3{10.5, 21.5, 5}, req.World)
	assert.Equal(t, mgl64.Vec3{0.5, 1.5, 5}, req.Object)

	// Bottom-right pixel.
	req = p.Sample(3, 1, 4, 2)
	assert.Equal(t, mgl64.Vec3{13.5, 20.5, 5}, req.World)
}

func TestTilePlane(t *testing.T) {
	root := TilePlane(tile.Coords{}, 8)
	assert.Equal(t, mgl64.Vec3{0, 0, 0}, root.Origin)
	assert.Equal(t, mgl64.Vec2{8, 8}, root.Size)

	// Top-right quadrant at zoom 1.
	q := TilePlane(tile.NewCoords(1, 1, 0), 8)
	assert.Equal(t, mgl64.Vec3{4, 4, 0}, q.Origin)
	assert.Equal(t, mgl64.Vec2{4, 4}, q.Size)
}

func TestRenderFloat_WorkerCountDoesNotChangeResult(t *testing.T) {
	cfg := buildConfig(t, func(v *params.Values) {
		v.PositionWarp = params.WarpFractal
		v.Rotate = mgl64.Vec3{10, 20, 30}
	})

	single, err := RenderFloat(context.Background(), cfg, UnitPlane(), Options{Width: 19, Height: 37, Workers: 1})
	require.NoError(t, err)
	parallel, err := RenderFloat(context.Background(), cfg, UnitPlane(), Options{Width: 19, Height: 37, Workers: 8})
	require.NoError(t, err)

	require.Len(t, single, 19*37)
	for i := range single {
		assert.Equal(t, math.Float64bits(single[i]), math.Float64bits(parallel[i]), "pixel %d", i)
	}
}

func TestRenderFloat_MatchesDirectSampling(t *testing.T) {
	cfg := buildConfig(t, nil)
	p := UnitPlane()

	values, err := RenderFloat(context.Background(), cfg, p, Options{Width: 5, Height: 3})
	require.NoError(t, err)
	for j := 0; j < 3; j++ {
		for i := 0; i < 5; i++ {
			assert.Equal(t, cfg.Sample(p.Sample(i, j, 5, 3)), values[j*5+i])
		}
	}
}

func TestRenderFloat_PrefSource(t *testing.T) {
	cfg := buildConfig(t, func(v *params.Values) { v.Space = params.SpacePref })
	p := UnitPlane()
	opts := Options{Width: 6, Height: 6}

	missing, err := RenderFloat(context.Background(), cfg, p, opts)
	require.NoError(t, err)

	objectCfg := buildConfig(t, func(v *params.Values) { v.Space = params.SpaceObject })
	object, err := RenderFloat(context.Background(), objectCfg, p, opts)
	require.NoError(t, err)
	assert.Equal(t, object, missing, "Pref miss must fall back to object space")

	opts.Pref = PrefOffset(mgl64.Vec3{3.3, -1.7, 0.9})
	shifted, err := RenderFloat(context.Background(), cfg, p, opts)
	require.NoError(t, err)
	assert.NotEqual(t, object, shifted)

	// A zero offset puts the rest position on the object position.
	opts.Pref = PrefOffset(mgl64.Vec3{})
	same, err := RenderFloat(context.Background(), cfg, p, opts)
	require.NoError(t, err)
	assert.Equal(t, object, same)
}

func TestTileGenerator_PrefSource(t *testing.T) {
	cfg := buildConfig(t, func(v *params.Values) { v.Space = params.SpacePref })
	c := tile.NewCoords(1, 0, 1)

	plain, err := NewTileGenerator(cfg, TileOptions{TileSize: 8, Extent: 1}, nil)
	require.NoError(t, err)
	withPref, err := NewTileGenerator(cfg, TileOptions{
		TileSize: 8,
		Extent:   1,
		Pref:     PrefOffset(mgl64.Vec3{5, 5, 5}),
	}, nil)
	require.NoError(t, err)

	a, err := plain.Generate(context.Background(), c)
	require.NoError(t, err)
	b, err := withPref.Generate(context.Background(), c)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestRenderFloat_LinkOverridesSpace(t *testing.T) {
	opts := Options{
		Width:  4,
		Height: 4,
		Link: func(req shader.SampleRequest) mgl64.Vec3 {
			return mgl64.Vec3{req.U * 7, req.V * 7, 1}
		},
	}

	var results [][]float64
	for _, space := range []params.Space{params.SpaceWorld, params.SpaceUV} {
		cfg := buildConfig(t, func(v *params.Values) { v.Space = space })
		values, err := RenderFloat(context.Background(), cfg, UnitPlane(), opts)
		require.NoError(t, err)
		results = append(results, values)
	}
	assert.Equal(t, results[0], results[1])
}

func TestRenderFloat_Errors(t *testing.T) {
	cfg := buildConfig(t, nil)

	_, err := RenderFloat(context.Background(), nil, UnitPlane(), Options{Width: 1, Height: 1})
	assert.Error(t, err)

	_, err = RenderFloat(context.Background(), cfg, UnitPlane(), Options{Width: 0, Height: 4})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = RenderFloat(ctx, cfg, UnitPlane(), Options{Width: 64, Height: 64})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestToGray16_ClampsOnlyWhenQuantizing(t *testing.T) {
	img := ToGray16([]float64{-0.5, 0, 0.5, 1, 1.5, math.NaN()}, 3, 2)
	assert.Equal(t, uint16(0), img.Gray16At(0, 0).Y)
	assert.Equal(t, uint16(0), img.Gray16At(1, 0).Y)
	assert.Equal(t, uint16(32768), img.Gray16At(2, 0).Y)
	assert.Equal(t, uint16(65535), img.Gray16At(0, 1).Y)
	assert.Equal(t, uint16(65535), img.Gray16At(1, 1).Y)
	assert.Equal(t, uint16(0), img.Gray16At(2, 1).Y)
}

func TestPostProcess(t *testing.T) {
	cfg := buildConfig(t, nil)
	img, err := Render(context.Background(), cfg, UnitPlane(), Options{Width: 32, Height: 32})
	require.NoError(t, err)

	assert.Same(t, img, PostProcess(img, PostOptions{}).(*image.Gray16))

	down := PostProcess(img, PostOptions{Supersample: 2})
	assert.Equal(t, image.Rect(0, 0, 16, 16), down.Bounds())

	blurred := PostProcess(img, PostOptions{Blur: 1.5, Contrast: 20})
	assert.Equal(t, img.Bounds(), blurred.Bounds())
	assert.NotEqual(t, img.Pix, blurred.(*image.Gray16).Pix)
}

func TestEncodePNG(t *testing.T) {
	img := ToGray16([]float64{0, 0.25, 0.5, 0.75}, 2, 2)

	for _, name := range []string{"", "default", "speed", "best", "none", "BEST"} {
		var buf bytes.Buffer
		require.NoError(t, EncodePNG(&buf, img, name), name)
		decoded, err := png.Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, img.Bounds(), decoded.Bounds())
	}

	assert.Error(t, EncodePNG(&bytes.Buffer{}, img, "ultra"))
}

func TestTileGenerator(t *testing.T) {
	cfg := buildConfig(t, func(v *params.Values) { v.NoiseType = noise.Cellular })

	_, err := NewTileGenerator(cfg, TileOptions{TileSize: 0, Extent: 1}, nil)
	assert.Error(t, err)
	_, err = NewTileGenerator(cfg, TileOptions{TileSize: 8, Extent: 1, Compression: "fast"}, nil)
	assert.Error(t, err)

	gen, err := NewTileGenerator(cfg, TileOptions{
		TileSize: 16,
		Extent:   4,
		Post:     PostOptions{Supersample: 2},
	}, nil)
	require.NoError(t, err)

	data, err := gen.Generate(context.Background(), tile.NewCoords(2, 1, 3))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 16, 16), img.Bounds())

	_, err = gen.Generate(context.Background(), tile.NewCoords(1, 2, 0))
	assert.Error(t, err)
}

func TestTileGenerator_RootTileMatchesUnitPlane(t *testing.T) {
	cfg := buildConfig(t, nil)
	gen, err := NewTileGenerator(cfg, TileOptions{TileSize: 8, Extent: 1}, nil)
	require.NoError(t, err)

	data, err := gen.Generate(context.Background(), tile.Coords{})
	require.NoError(t, err)
	got, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	want, err := Render(context.Background(), cfg, UnitPlane(), Options{Width: 8, Height: 8})
	require.NoError(t, err)
	assert.Equal(t, want.Pix, got.(*image.Gray16).Pix)
}
