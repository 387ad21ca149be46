package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/MeKo-Tech/fastnoise/internal/mbtiles"
	"github.com/MeKo-Tech/fastnoise/internal/render"
	"github.com/MeKo-Tech/fastnoise/internal/shader"
	"github.com/MeKo-Tech/fastnoise/internal/tile"
	"github.com/MeKo-Tech/fastnoise/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var tilesCmd = &cobra.Command{
	Use:   "tiles",
	Short: "Render a tile pyramid",
	Long: `Tiles renders every tile below --root for the zoom levels --zoom-min to
--zoom-max. Tile 0/0/0 covers --extent world units of the z = 0 plane; each
zoom level halves the tile size in world units.`,
	RunE: runTiles,
}

func init() {
	rootCmd.AddCommand(tilesCmd)

	tilesCmd.Flags().String("root", "0/0/0", "Root tile (z/x/y) of the pyramid")
	tilesCmd.Flags().Int("zoom-min", 0, "Minimum zoom level")
	tilesCmd.Flags().Int("zoom-max", 2, "Maximum zoom level")
	tilesCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	tilesCmd.Flags().Bool("progress", true, "Show progress bar")
	tilesCmd.Flags().Bool("allow-failures", false, "Exit successfully even if some tiles fail")
	tilesCmd.Flags().Bool("force", false, "Re-render tiles that already exist")

	tilesCmd.Flags().Int("tile-size", 256, "Tile size in pixels")
	tilesCmd.Flags().Float64("extent", 1, "World size covered by tile 0/0/0")
	tilesCmd.Flags().Int("supersample", 1, "Render at N times the tile size and downscale")
	tilesCmd.Flags().Float32("blur", 0, "Gaussian blur sigma applied to each tile")
	tilesCmd.Flags().Float32("contrast", 0, "Contrast adjustment in percent (-100..100)")
	tilesCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")
	tilesCmd.Flags().String("pref-offset", "", "Give samples a rest position (Pref) of object position plus x,y,z")

	tilesCmd.Flags().String("format", "folder", "Output format: folder or mbtiles")
	tilesCmd.Flags().String("output-file", "", "Output file path for MBTiles format (e.g., noise.mbtiles)")
	tilesCmd.Flags().String("folder-structure", "nested", "Folder structure: flat (z{z}_x{x}_y{y}.png) or nested ({z}/{x}/{y}.png)")
	tilesCmd.Flags().String("name", "FastNoise", "Tileset name stored in MBTiles metadata")
	addShaderFlags(tilesCmd)

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"tiles.root", "root"},
		{"tiles.zoom_min", "zoom-min"},
		{"tiles.zoom_max", "zoom-max"},
		{"tiles.workers", "workers"},
		{"tiles.progress", "progress"},
		{"tiles.allow_failures", "allow-failures"},
		{"tiles.force", "force"},
		{"tiles.tile_size", "tile-size"},
		{"tiles.extent", "extent"},
		{"tiles.supersample", "supersample"},
		{"tiles.blur", "blur"},
		{"tiles.contrast", "contrast"},
		{"tiles.png_compression", "png-compression"},
		{"tiles.pref_offset", "pref-offset"},
		{"tiles.format", "format"},
		{"tiles.output_file", "output-file"},
		{"tiles.folder_structure", "folder-structure"},
		{"tiles.name", "name"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, tilesCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

// tileSink is where rendered tiles go.
type tileSink interface {
	worker.Sink
	Close() error
}

type folderSink struct{ *worker.FolderSink }

func (folderSink) Close() error { return nil }

func runTiles(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	rootStr := viper.GetString("tiles.root")
	zoomMin := viper.GetInt("tiles.zoom_min")
	zoomMax := viper.GetInt("tiles.zoom_max")
	workers := viper.GetInt("tiles.workers")
	showProgress := viper.GetBool("tiles.progress")
	allowFailures := viper.GetBool("tiles.allow_failures")
	force := viper.GetBool("tiles.force")
	tileSize := viper.GetInt("tiles.tile_size")
	extent := viper.GetFloat64("tiles.extent")
	pngCompression := viper.GetString("tiles.png_compression")
	format := viper.GetString("tiles.format")
	outputFile := viper.GetString("tiles.output_file")
	folderStructure := viper.GetString("tiles.folder_structure")
	outputDir := viper.GetString("output-dir")

	if format != "folder" && format != "mbtiles" {
		return fmt.Errorf("invalid format %q: must be 'folder' or 'mbtiles'", format)
	}
	if format == "mbtiles" && outputFile == "" {
		return fmt.Errorf("--output-file is required when using --format=mbtiles")
	}

	root, err := tile.ParsePath(rootStr)
	if err != nil {
		return fmt.Errorf("invalid root: %w", err)
	}
	if zoomMin < 0 || zoomMax < 0 {
		return fmt.Errorf("zoom levels must be non-negative")
	}
	if zoomMin > zoomMax {
		return fmt.Errorf("--zoom-min (%d) must be <= --zoom-max (%d)", zoomMin, zoomMax)
	}
	if zoomMax > tile.MaxZoom {
		return fmt.Errorf("--zoom-max (%d) exceeds %d", zoomMax, tile.MaxZoom)
	}
	if uint32(zoomMax) < root.Z {
		return fmt.Errorf("--zoom-max (%d) is above the root tile zoom %d", zoomMax, root.Z)
	}
	zoomMin = max(zoomMin, int(root.Z))

	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	pref, err := prefSource(viper.GetString("tiles.pref_offset"))
	if err != nil {
		return err
	}

	values, err := shaderValues(cmd.Context(), cmd)
	if err != nil {
		return err
	}

	gen, err := render.NewTileGenerator(shader.Build(values, logger), render.TileOptions{
		TileSize: tileSize,
		Extent:   extent,
		Post: render.PostOptions{
			Blur:        float32(viper.GetFloat64("tiles.blur")),
			Contrast:    float32(viper.GetFloat64("tiles.contrast")),
			Supersample: viper.GetInt("tiles.supersample"),
		},
		Compression: pngCompression,
		Pref:        pref,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to init tile generator: %w", err)
	}

	var sink tileSink
	if format == "mbtiles" {
		w, err := mbtiles.New(outputFile, mbtiles.Metadata{
			Name:        viper.GetString("tiles.name"),
			Format:      "png",
			Description: values.Summary(),
			Type:        "baselayer",
			Version:     "1.0",
			MinZoom:     zoomMin,
			MaxZoom:     zoomMax,
			TileSize:    tileSize,
			Params:      values.Map(),
		})
		if err != nil {
			return fmt.Errorf("failed to create MBTiles writer: %w", err)
		}
		sink = w
	} else {
		fs, err := worker.NewFolderSink(outputDir, folderStructure)
		if err != nil {
			return err
		}
		sink = folderSink{fs}
	}
	sinkClosed := false
	defer func() {
		if !sinkClosed {
			sink.Close()
		}
	}()

	coords := tile.Pyramid(root, uint32(zoomMin), uint32(zoomMax))
	tasks := make([]worker.Task, 0, len(coords))
	for _, c := range coords {
		tasks = append(tasks, worker.Task{Coords: c, Force: force})
	}

	logger.Info("Starting tile rendering",
		"root", root.String(),
		"zoom_range", fmt.Sprintf("%d-%d", zoomMin, zoomMax),
		"tiles", len(tasks),
		"workers", workers,
		"format", format,
		"params", values.Summary(),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received interrupt signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	progress := worker.NewProgress(len(tasks), showProgress, os.Stderr)
	pool := worker.New(worker.Config{
		Workers:    workers,
		Generator:  gen,
		Sink:       sink,
		OnProgress: progress.Callback(),
	})

	results := pool.Run(ctx, tasks)
	progress.Done()

	var failedCount int
	for _, r := range results {
		if r.Err != nil {
			failedCount++
			logger.Error("Tile rendering failed", "coords", r.Task.Coords.String(), "error", r.Err)
		}
	}

	logger.Info(progress.Summary())

	sinkClosed = true
	if err := sink.Close(); err != nil {
		return fmt.Errorf("failed to finalize output: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("tile rendering interrupted: %w", err)
	}
	if failedCount > 0 {
		if !allowFailures {
			return fmt.Errorf("%d tiles failed to render", failedCount)
		}
		logger.Warn("Some tiles failed to render, but continuing due to --allow-failures flag", "failed_count", failedCount)
	}
	return nil
}
