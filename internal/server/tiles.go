package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/MeKo-Tech/fastnoise/internal/mbtiles"
	"github.com/MeKo-Tech/fastnoise/internal/tile"
)

// parseTilePath parses /tiles/{z}/{x}/{y}.png.
func parseTilePath(requestPath string) (tile.Coords, bool) {
	rest, ok := strings.CutPrefix(requestPath, "/tiles/")
	if !ok {
		return tile.Coords{}, false
	}
	rest, ok = strings.CutSuffix(rest, ".png")
	if !ok {
		return tile.Coords{}, false
	}
	c, err := tile.ParsePath(rest)
	if err != nil {
		return tile.Coords{}, false
	}
	return c, true
}

func (s *Server) serveTile(w http.ResponseWriter, r *http.Request) {
	coords, ok := parseTilePath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Cache-Control", s.cfg.CacheControl)

	if s.reader != nil {
		data, err := s.reader.ReadTile(coords)
		switch {
		case err == nil:
			s.writePNG(w, data)
			return
		case !errors.Is(err, mbtiles.ErrTileNotFound):
			s.log().Error("Failed to read tile", "coords", coords.String(), "error", err)
			http.Error(w, "failed to read tile", http.StatusInternalServerError)
			return
		}
		s.log().Debug("Tile missing from archive, rendering", "coords", coords.String())
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RenderTimeout)
	defer cancel()

	release, ok := s.acquire(ctx)
	if !ok {
		http.Error(w, "render queue is full", http.StatusServiceUnavailable)
		return
	}
	defer release()

	data, err := s.tiles.Generate(ctx, coords)
	s.recordRender(err)
	if err != nil {
		s.log().Error("Tile render failed", "coords", coords.String(), "error", err)
		http.Error(w, "render failed", http.StatusGatewayTimeout)
		return
	}
	s.writePNG(w, data)
}

func (s *Server) writePNG(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	if _, err := w.Write(data); err != nil {
		s.log().Error("Failed to write response", "error", err)
	}
}
