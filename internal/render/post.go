package render

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/disintegration/gift"
	"golang.org/x/image/draw"
)

// PostOptions are optional image filters applied after shading.
type PostOptions struct {
	// Blur is the gaussian sigma in output pixels; 0 disables it.
	Blur float32
	// Contrast in percent, -100 to 100; 0 disables it.
	Contrast float32
	// Supersample is the factor the image was rendered larger by. It is
	// scaled down with Catmull-Rom filtering. Values below 2 disable it.
	Supersample int
}

// Enabled reports whether any filter is active.
func (o PostOptions) Enabled() bool {
	return o.Blur > 0 || o.Contrast != 0 || o.Supersample > 1
}

// PostProcess downsamples and filters img. It returns img unchanged when no
// filter is enabled.
func PostProcess(img image.Image, opts PostOptions) image.Image {
	out := img
	if opts.Supersample > 1 {
		b := img.Bounds()
		dst := image.NewGray16(image.Rect(0, 0,
			max(1, b.Dx()/opts.Supersample), max(1, b.Dy()/opts.Supersample)))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
		out = dst
	}

	var filters []gift.Filter
	if opts.Blur > 0 {
		filters = append(filters, gift.GaussianBlur(opts.Blur))
	}
	if opts.Contrast != 0 {
		filters = append(filters, gift.Contrast(opts.Contrast))
	}
	if len(filters) == 0 {
		return out
	}

	g := gift.New(filters...)
	dst := image.NewGray16(g.Bounds(out.Bounds()))
	g.Draw(dst, out)
	return dst
}

// Compression names accepted by ParseCompression.
var compressionLevels = map[string]png.CompressionLevel{
	"default": png.DefaultCompression,
	"speed":   png.BestSpeed,
	"best":    png.BestCompression,
	"none":    png.NoCompression,
}

// ParseCompression maps a compression name onto a PNG level.
func ParseCompression(name string) (png.CompressionLevel, error) {
	if name == "" {
		return png.DefaultCompression, nil
	}
	level, ok := compressionLevels[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("invalid png compression %q (use default, speed, best or none)", name)
	}
	return level, nil
}

// EncodePNG writes img with the named compression level.
func EncodePNG(w io.Writer, img image.Image, compression string) error {
	level, err := ParseCompression(compression)
	if err != nil {
		return err
	}
	enc := png.Encoder{CompressionLevel: level}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}
