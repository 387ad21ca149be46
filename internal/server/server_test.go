package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/fastnoise/internal/mbtiles"
	"github.com/MeKo-Tech/fastnoise/internal/params"
	"github.com/MeKo-Tech/fastnoise/internal/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	if cfg.Base == (params.Values{}) {
		cfg.Base = params.Default()
	}
	s, err := New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decodePNG(t *testing.T, body []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(body))
	require.NoError(t, err)
	return img
}

func TestParseTilePath(t *testing.T) {
	tests := []struct {
		path string
		want tile.Coords
		ok   bool
	}{
		{"/tiles/0/0/0.png", tile.Coords{}, true},
		{"/tiles/3/5/2.png", tile.NewCoords(3, 5, 2), true},
		{"/tiles/3/5/2.jpg", tile.Coords{}, false},
		{"/tiles/1/2/0.png", tile.Coords{}, false},
		{"/demo/3/5/2.png", tile.Coords{}, false},
		{"/tiles/z3_x5_y2.png", tile.Coords{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := parseTilePath(tt.path)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, Config{})
	rec := get(t, s.Handler(), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestParams(t *testing.T) {
	s := newTestServer(t, Config{})
	rec := get(t, s.Handler(), "/params")
	require.Equal(t, http.StatusOK, rec.Code)

	var defs []paramInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &defs))
	require.Len(t, defs, len(params.All()))
	assert.Equal(t, "space", defs[0].Name)
	assert.Equal(t, "enum", defs[0].Type)
	assert.Contains(t, defs[0].EnumNames, "Pref")
}

func TestPreview(t *testing.T) {
	s := newTestServer(t, Config{MaxConcurrentRenders: 2})
	h := s.Handler()

	rec := get(t, h, "/render.png?size=24&noise_type=cellular&seed=7&rotate=0,45,0&P=1,2,3")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, image.Rect(0, 0, 24, 24), decodePNG(t, rec.Body.Bytes()).Bounds())

	rec = get(t, h, "/render.png?width=16&height=8&supersample=2&blur=1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, image.Rect(0, 0, 16, 8), decodePNG(t, rec.Body.Bytes()).Bounds())

	// Same query, same bytes.
	a := get(t, h, "/render.png?size=8&seed=3").Body.Bytes()
	b := get(t, h, "/render.png?size=8&seed=3").Body.Bytes()
	assert.Equal(t, a, b)

	assert.Equal(t, int64(4), s.Status().TotalRendered)
}

func TestPreview_PrefOffset(t *testing.T) {
	s := newTestServer(t, Config{})
	h := s.Handler()

	fallback := get(t, h, "/render.png?size=8&space=Pref").Body.Bytes()
	object := get(t, h, "/render.png?size=8&space=object").Body.Bytes()
	assert.Equal(t, object, fallback)

	rec := get(t, h, "/render.png?size=8&space=Pref&pref_offset=4,-2,7")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEqual(t, object, rec.Body.Bytes())
}

func TestPreview_BadRequests(t *testing.T) {
	s := newTestServer(t, Config{MaxPreviewSize: 64})
	h := s.Handler()

	for _, q := range []string{
		"size=0",
		"size=65",
		"size=abc",
		"supersample=8",
		"noise_type=plasma",
		"octaves=3",
		"offset=1,2",
		"info=mine",
		"pref_offset=1,2",
	} {
		t.Run(q, func(t *testing.T) {
			rec := get(t, h, "/render.png?"+q)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestPreview_QueueFull(t *testing.T) {
	s := newTestServer(t, Config{MaxConcurrentRenders: 1, RenderTimeout: 1})
	s.sem <- struct{}{}
	defer func() { <-s.sem }()

	rec := get(t, s.Handler(), "/render.png?size=4")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTiles_OnDemand(t *testing.T) {
	s := newTestServer(t, Config{TileSize: 16})
	rec := get(t, s.Handler(), "/tiles/2/1/3.png")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, image.Rect(0, 0, 16, 16), decodePNG(t, rec.Body.Bytes()).Bounds())

	assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/tiles/1/5/0.png").Code)
}

func TestTiles_FromArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noise.mbtiles")
	v := params.Default()
	v.Seed = 99

	w, err := mbtiles.New(path, mbtiles.Metadata{Format: "png", TileSize: 8, Params: v.Map()})
	require.NoError(t, err)
	stored := []byte("stored tile")
	require.NoError(t, w.WriteTile(tile.Coords{}, stored))
	require.NoError(t, w.Close())

	s := newTestServer(t, Config{MBTilesPath: path})
	assert.True(t, s.Status().Archive)
	h := s.Handler()

	rec := get(t, h, "/tiles/0/0/0.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, stored, rec.Body.Bytes())

	// Missing tiles render with the archive's tile size.
	rec = get(t, h, "/tiles/1/0/1.png")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, image.Rect(0, 0, 8, 8), decodePNG(t, rec.Body.Bytes()).Bounds())
}

func TestNew_Errors(t *testing.T) {
	_, err := New(Config{Base: params.Default(), PNGCompression: "ultra"}, nil)
	assert.Error(t, err)

	_, err = New(Config{Base: params.Default(), MBTilesPath: filepath.Join(t.TempDir(), "missing.mbtiles")}, nil)
	assert.Error(t, err)
}
