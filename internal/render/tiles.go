package render

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/fastnoise/internal/shader"
	"github.com/MeKo-Tech/fastnoise/internal/tile"
)

// TileGenerator renders noise tiles as PNG. Tile 0/0/0 covers Extent world
// units; deeper tiles zoom into it.
type TileGenerator struct {
	config      *shader.Config
	tileSize    int
	extent      float64
	post        PostOptions
	compression string
	workers     int
	pref        PrefFunc
	logger      *slog.Logger
}

// TileOptions configures a TileGenerator.
type TileOptions struct {
	TileSize    int
	Extent      float64
	Post        PostOptions
	Compression string
	// Workers per tile. Tiles usually render in parallel already, so the
	// default is one.
	Workers int
	// Pref optionally supplies rest positions for space=Pref.
	Pref PrefFunc
}

// NewTileGenerator validates opts and returns a generator for cfg.
func NewTileGenerator(cfg *shader.Config, opts TileOptions, logger *slog.Logger) (*TileGenerator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("tile generator requires a shader config")
	}
	if opts.TileSize <= 0 {
		return nil, fmt.Errorf("invalid tile size %d", opts.TileSize)
	}
	if opts.Extent <= 0 {
		return nil, fmt.Errorf("invalid extent %g", opts.Extent)
	}
	if _, err := ParseCompression(opts.Compression); err != nil {
		return nil, err
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}

	return &TileGenerator{
		config:      cfg,
		tileSize:    opts.TileSize,
		extent:      opts.Extent,
		post:        opts.Post,
		compression: opts.Compression,
		workers:     opts.Workers,
		pref:        opts.Pref,
		logger:      logger,
	}, nil
}

// TileSize returns the output edge length in pixels.
func (g *TileGenerator) TileSize() int { return g.tileSize }

// Generate renders one tile and returns the encoded PNG.
func (g *TileGenerator) Generate(ctx context.Context, c tile.Coords) ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid tile %s", c)
	}

	size := g.tileSize
	if g.post.Supersample > 1 {
		size *= g.post.Supersample
	}

	img, err := Render(ctx, g.config, TilePlane(c, g.extent), Options{
		Width:   size,
		Height:  size,
		Workers: g.workers,
		Pref:    g.pref,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render tile %s: %w", c, err)
	}

	var buf bytes.Buffer
	if err := EncodePNG(&buf, PostProcess(img, g.post), g.compression); err != nil {
		return nil, fmt.Errorf("failed to encode tile %s: %w", c, err)
	}

	g.log().Debug("Rendered tile", "coords", c.String(), "bytes", buf.Len())
	return buf.Bytes(), nil
}

func (g *TileGenerator) log() *slog.Logger {
	if g.logger != nil {
		return g.logger
	}
	return slog.Default()
}
