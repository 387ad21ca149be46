package cmd

import (
	"bytes"
	"fmt"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/MeKo-Tech/fastnoise/internal/mbtiles"
	"github.com/MeKo-Tech/fastnoise/internal/tile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert folder tiles to MBTiles format",
	Long: `Convert packs a tile folder written by "tiles --format folder" (flat or nested
layout) into an MBTiles archive. The shader parameters given via --preset and
--set are recorded in the archive so "serve" can render missing tiles.`,
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().String("input-dir", "", "Input directory containing tiles (defaults to --output-dir)")
	convertCmd.Flags().StringP("output", "o", "", "Output MBTiles file path (required)")
	convertCmd.Flags().String("name", "FastNoise", "Tileset name")
	addShaderFlags(convertCmd)

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"convert.input_dir", "input-dir"},
		{"convert.output", "output"},
		{"convert.name", "name"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, convertCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputDir := viper.GetString("convert.input_dir")
	outputFile := viper.GetString("convert.output")
	name := viper.GetString("convert.name")

	if logger == nil {
		initLogging()
	}

	if inputDir == "" {
		inputDir = viper.GetString("output-dir")
	}
	if outputFile == "" {
		return fmt.Errorf("--output is required")
	}
	if _, err := os.Stat(inputDir); os.IsNotExist(err) {
		return fmt.Errorf("input directory does not exist: %s", inputDir)
	}

	values, err := shaderValues(cmd.Context(), cmd)
	if err != nil {
		return err
	}

	logger.Info("Converting folder tiles to MBTiles",
		"input_dir", inputDir,
		"output", outputFile,
		"name", name,
	)

	tiles, minZoom, maxZoom, err := scanTilesDirectory(inputDir)
	if err != nil {
		return fmt.Errorf("failed to scan tiles directory: %w", err)
	}
	if len(tiles) == 0 {
		return fmt.Errorf("no tiles found in %s", inputDir)
	}

	logger.Info("Found tiles", "count", len(tiles), "min_zoom", minZoom, "max_zoom", maxZoom)

	first, err := os.ReadFile(tiles[0].path)
	if err != nil {
		return fmt.Errorf("failed to read tile: %w", err)
	}
	imgCfg, err := png.DecodeConfig(bytes.NewReader(first))
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", tiles[0].path, err)
	}

	writer, err := mbtiles.New(outputFile, mbtiles.Metadata{
		Name:        name,
		Format:      "png",
		Description: values.Summary(),
		Type:        "baselayer",
		Version:     "1.0",
		MinZoom:     minZoom,
		MaxZoom:     maxZoom,
		TileSize:    imgCfg.Width,
		Params:      values.Map(),
	})
	if err != nil {
		return fmt.Errorf("failed to create MBTiles writer: %w", err)
	}

	var failed int
	for i, t := range tiles {
		data, err := os.ReadFile(t.path)
		if err != nil {
			logger.Error("Failed to read tile", "path", t.path, "error", err)
			failed++
			continue
		}
		if err := writer.WriteTile(t.coords, data); err != nil {
			logger.Error("Failed to write tile", "coords", t.coords.String(), "error", err)
			failed++
			continue
		}

		if (i+1)%100 == 0 {
			logger.Info("Progress", "converted", i+1, "total", len(tiles))
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize MBTiles: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d tiles could not be converted", failed, len(tiles))
	}

	logger.Info("Conversion complete", "output", outputFile, "tiles", len(tiles))
	return nil
}

type tileFile struct {
	coords tile.Coords
	path   string
}

var (
	flatTilePattern   = regexp.MustCompile(`^z\d+_x\d+_y\d+\.png$`)
	nestedTilePattern = regexp.MustCompile(`^\d+/\d+/\d+\.png$`)
)

// scanTilesDirectory finds tiles in the flat (z3_x1_y2.png) and nested
// (3/1/2.png) layouts and reports the zoom range found.
func scanTilesDirectory(dir string) ([]tileFile, int, int, error) {
	var tiles []tileFile
	minZoom := tile.MaxZoom
	maxZoom := 0

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		var c tile.Coords
		switch {
		case flatTilePattern.MatchString(filepath.Base(rel)):
			c, err = tile.ParseCoords(strings.TrimSuffix(filepath.Base(rel), ".png"))
		case nestedTilePattern.MatchString(rel):
			c, err = tile.ParsePath(strings.TrimSuffix(rel, ".png"))
		default:
			return nil
		}
		if err != nil {
			logger.Warn("Skipping invalid tile file", "path", path, "error", err)
			return nil
		}

		tiles = append(tiles, tileFile{coords: c, path: path})
		minZoom = min(minZoom, int(c.Z))
		maxZoom = max(maxZoom, int(c.Z))
		return nil
	})
	if err != nil {
		return nil, 0, 0, err
	}

	if len(tiles) == 0 {
		minZoom = 0
		maxZoom = 0
	}

	return tiles, minZoom, maxZoom, nil
}
