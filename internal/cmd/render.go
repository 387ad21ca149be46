package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/MeKo-Tech/fastnoise/internal/params"
	"github.com/MeKo-Tech/fastnoise/internal/render"
	"github.com/MeKo-Tech/fastnoise/internal/shader"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render the shader into a single PNG",
	Long: `Render evaluates the shader once per pixel over a plane in world space and
writes a 16-bit grayscale PNG. The default plane covers [0, 1] x [0, 1] at z = 0.`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().Int("size", 512, "Image width and height in pixels")
	renderCmd.Flags().Int("width", 0, "Image width in pixels (overrides --size)")
	renderCmd.Flags().Int("height", 0, "Image height in pixels (overrides --size)")
	renderCmd.Flags().Int("supersample", 1, "Render at N times the size and downscale")
	renderCmd.Flags().Float32("blur", 0, "Gaussian blur sigma applied after rendering")
	renderCmd.Flags().Float32("contrast", 0, "Contrast adjustment in percent (-100..100)")
	renderCmd.Flags().StringP("output", "o", "", "Output PNG path (default: <output-dir>/noise.png)")
	renderCmd.Flags().IntP("workers", "w", 0, "Number of parallel workers (default: number of CPUs)")
	renderCmd.Flags().String("png-compression", "default", "PNG compression (default, speed, best, none)")
	renderCmd.Flags().Float64("extent", 1, "World size of the rendered plane")
	renderCmd.Flags().String("origin", "0,0,0", "World position of the plane's bottom-left corner (x,y,z)")
	renderCmd.Flags().String("pref-offset", "", "Give samples a rest position (Pref) of object position plus x,y,z")
	addShaderFlags(renderCmd)

	bindFlags := []struct {
		key  string
		flag string
	}{
		{"render.size", "size"},
		{"render.width", "width"},
		{"render.height", "height"},
		{"render.supersample", "supersample"},
		{"render.blur", "blur"},
		{"render.contrast", "contrast"},
		{"render.output", "output"},
		{"render.workers", "workers"},
		{"render.png_compression", "png-compression"},
		{"render.extent", "extent"},
		{"render.origin", "origin"},
		{"render.pref_offset", "pref-offset"},
	}

	for _, bf := range bindFlags {
		if err := viper.BindPFlag(bf.key, renderCmd.Flags().Lookup(bf.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", bf.flag, err))
		}
	}
}

func runRender(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	size := viper.GetInt("render.size")
	width := viper.GetInt("render.width")
	height := viper.GetInt("render.height")
	supersample := max(1, viper.GetInt("render.supersample"))
	output := viper.GetString("render.output")
	workers := viper.GetInt("render.workers")
	pngCompression := viper.GetString("render.png_compression")
	extent := viper.GetFloat64("render.extent")

	if width <= 0 {
		width = size
	}
	if height <= 0 {
		height = size
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid image size %dx%d", width, height)
	}
	if extent <= 0 {
		return fmt.Errorf("invalid extent %g", extent)
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if output == "" {
		output = filepath.Join(viper.GetString("output-dir"), "noise.png")
	}

	origin, err := parseOrigin(viper.Get("render.origin"))
	if err != nil {
		return err
	}

	pref, err := prefSource(viper.GetString("render.pref_offset"))
	if err != nil {
		return err
	}

	values, err := shaderValues(cmd.Context(), cmd)
	if err != nil {
		return err
	}

	plane := render.Plane{Origin: origin, Size: mgl64.Vec2{extent, extent}, ObjectOrigin: origin}
	post := render.PostOptions{
		Blur:        float32(viper.GetFloat64("render.blur")),
		Contrast:    float32(viper.GetFloat64("render.contrast")),
		Supersample: supersample,
	}

	logger.Info("Rendering image",
		"output", output,
		"width", width,
		"height", height,
		"supersample", supersample,
		"workers", workers,
		"params", values.Summary(),
	)

	start := time.Now()
	cfg := shader.Build(values, logger)
	img, err := render.Render(cmd.Context(), cfg, plane, render.Options{
		Width:   width * supersample,
		Height:  height * supersample,
		Workers: workers,
		Pref:    pref,
	})
	if err != nil {
		return fmt.Errorf("failed to render: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := render.EncodePNG(f, render.PostProcess(img, post), pngCompression); err != nil {
		f.Close()
		return fmt.Errorf("failed to write PNG: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}

	logger.Info("Image rendered", "output", output, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// parseOrigin accepts an "x,y,z" flag value or a config list.
func parseOrigin(raw any) (mgl64.Vec3, error) {
	if raw == nil {
		return mgl64.Vec3{}, nil
	}
	if s, ok := raw.(string); ok && s == "" {
		return mgl64.Vec3{}, nil
	}
	v, err := params.ParseVector(raw)
	if err != nil {
		return mgl64.Vec3{}, fmt.Errorf("invalid origin: %w", err)
	}
	return v, nil
}

// prefSource turns a --pref-offset value into a Pref source. Empty means the
// samples carry no rest position.
func prefSource(raw string) (render.PrefFunc, error) {
	if raw == "" {
		return nil, nil
	}
	offset, err := params.ParseVector(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid pref offset: %w", err)
	}
	return render.PrefOffset(offset), nil
}
