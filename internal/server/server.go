// Package server exposes noise previews and tiles over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/fastnoise/internal/mbtiles"
	"github.com/MeKo-Tech/fastnoise/internal/params"
	"github.com/MeKo-Tech/fastnoise/internal/render"
	"github.com/MeKo-Tech/fastnoise/internal/shader"
)

// Config configures the preview server.
type Config struct {
	// Base are the parameters query values are applied on top of.
	Base params.Values
	// MBTilesPath optionally points at an archive served under /tiles/.
	// Its stored parameters replace Base for tiles missing from it.
	MBTilesPath          string
	TileSize             int
	Extent               float64
	PNGCompression       string
	CacheControl         string
	MaxConcurrentRenders int
	RenderTimeout        time.Duration
	// MaxPreviewSize caps width and height of /render.png.
	MaxPreviewSize int
}

// Server serves /render.png, /tiles/, /params, /status and /healthz.
type Server struct {
	cfg    Config
	logger *slog.Logger
	sem    chan struct{}
	reader *mbtiles.Reader
	tiles  *render.TileGenerator

	activeRenders atomic.Int32
	totalRendered atomic.Int64
	totalFailed   atomic.Int64
}

// Status is the JSON body of /status.
type Status struct {
	ActiveRenders int   `json:"active_renders"`
	TotalRendered int64 `json:"total_rendered"`
	TotalFailed   int64 `json:"total_failed"`
	MaxConcurrent int   `json:"max_concurrent"`
	Archive       bool  `json:"archive"`
}

// New applies defaults, opens the archive if configured and prepares the
// tile generator.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.TileSize <= 0 {
		cfg.TileSize = 256
	}
	if cfg.Extent <= 0 {
		cfg.Extent = 1
	}
	if cfg.MaxConcurrentRenders <= 0 {
		cfg.MaxConcurrentRenders = 1
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = 30 * time.Second
	}
	if cfg.MaxPreviewSize <= 0 {
		cfg.MaxPreviewSize = 2048
	}
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-store"
	}
	if _, err := render.ParseCompression(cfg.PNGCompression); err != nil {
		return nil, err
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		sem:    make(chan struct{}, cfg.MaxConcurrentRenders),
	}

	tileValues := cfg.Base
	if cfg.MBTilesPath != "" {
		reader, err := mbtiles.OpenReader(cfg.MBTilesPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open MBTiles: %w", err)
		}
		s.reader = reader

		meta, err := reader.Metadata()
		if err != nil {
			reader.Close()
			return nil, fmt.Errorf("failed to read MBTiles metadata: %w", err)
		}
		if meta.Params != nil {
			if tileValues, err = params.Decode(meta.Params); err != nil {
				reader.Close()
				return nil, fmt.Errorf("failed to decode archive parameters: %w", err)
			}
		}
		if meta.TileSize > 0 {
			s.cfg.TileSize = meta.TileSize
		}
		s.log().Info("Serving tiles from archive", "path", cfg.MBTilesPath, "params", tileValues.Summary())
	}

	gen, err := render.NewTileGenerator(shader.Build(tileValues, s.log()), render.TileOptions{
		TileSize:    s.cfg.TileSize,
		Extent:      cfg.Extent,
		Compression: cfg.PNGCompression,
	}, s.log())
	if err != nil {
		s.Close()
		return nil, err
	}
	s.tiles = gen

	return s, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/params", s.serveParams)
	mux.HandleFunc("/status", s.serveStatus)
	mux.HandleFunc("/render.png", s.servePreview)
	mux.HandleFunc("/tiles/", s.serveTile)
	return withCORS(mux)
}

// Status reports render counters.
func (s *Server) Status() Status {
	return Status{
		ActiveRenders: int(s.activeRenders.Load()),
		TotalRendered: s.totalRendered.Load(),
		TotalFailed:   s.totalFailed.Load(),
		MaxConcurrent: cap(s.sem),
		Archive:       s.reader != nil,
	}
}

// Close releases the archive.
func (s *Server) Close() error {
	if s.reader == nil {
		return nil
	}
	return s.reader.Close()
}

// acquire waits for a render slot. The returned release must be called when
// ok is true.
func (s *Server) acquire(ctx context.Context) (release func(), ok bool) {
	select {
	case s.sem <- struct{}{}:
		s.activeRenders.Add(1)
		return func() {
			s.activeRenders.Add(-1)
			<-s.sem
		}, true
	case <-ctx.Done():
		return nil, false
	}
}

func (s *Server) recordRender(err error) {
	if err != nil {
		s.totalFailed.Add(1)
		return
	}
	s.totalRendered.Add(1)
}

type paramInfo struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Default     any      `json:"default"`
	EnumNames   []string `json:"enum_names,omitempty"`
	Description string   `json:"description"`
	Linkable    bool     `json:"linkable,omitempty"`
	ReadOnly    bool     `json:"read_only,omitempty"`
}

func (s *Server) serveParams(w http.ResponseWriter, r *http.Request) {
	defs := params.All()
	out := make([]paramInfo, 0, len(defs))
	for _, d := range defs {
		out = append(out, paramInfo{
			Name:        d.Name,
			Type:        d.Type.String(),
			Default:     d.Default,
			EnumNames:   d.EnumNames,
			Description: d.Description,
			Linkable:    d.Linkable,
			ReadOnly:    d.ReadOnly,
		})
	}
	writeJSON(w, out, s.log())
}

func (s *Server) serveStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Status(), s.log())
}

func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode JSON response", "error", err)
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return slog.Default()
}
