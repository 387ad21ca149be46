package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"runtime"
	"sync"

	"github.com/MeKo-Tech/fastnoise/internal/shader"
	"github.com/go-gl/mathgl/mgl64"
)

// bandRows is the number of image rows handed to a worker at once.
const bandRows = 16

// PrefFunc produces the Pref user data of a sample. Returning false is a
// lookup miss.
type PrefFunc func(req shader.SampleRequest) (mgl64.Vec3, bool)

// PrefOffset returns a Pref source placing every sample's rest position at its
// object position displaced by offset.
func PrefOffset(offset mgl64.Vec3) PrefFunc {
	return func(req shader.SampleRequest) (mgl64.Vec3, bool) {
		return req.Object.Add(offset), true
	}
}

// LinkFunc drives P from an upstream node.
type LinkFunc func(req shader.SampleRequest) mgl64.Vec3

// Options configures a render.
type Options struct {
	Width   int
	Height  int
	Workers int // defaults to GOMAXPROCS
	Pref    PrefFunc
	Link    LinkFunc
}

func (o Options) validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return fmt.Errorf("invalid render size %dx%d", o.Width, o.Height)
	}
	return nil
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

type prefData struct {
	fn  PrefFunc
	req shader.SampleRequest
}

func (d prefData) Vec(key string) (mgl64.Vec3, bool) {
	if key != shader.PrefKey {
		return mgl64.Vec3{}, false
	}
	return d.fn(d.req)
}

// request assembles the full shading request for one pixel.
func (o Options) request(p Plane, i, j int) shader.SampleRequest {
	req := p.Sample(i, j, o.Width, o.Height)
	if o.Pref != nil {
		req.UserData = prefData{fn: o.Pref, req: req}
	}
	if o.Link != nil {
		req.Linked = true
		req.LinkedP = o.Link(req)
	}
	return req
}

// RenderFloat evaluates every pixel and returns the unclamped shader
// results in row-major order.
func RenderFloat(ctx context.Context, cfg *shader.Config, p Plane, opts Options) ([]float64, error) {
	if cfg == nil {
		return nil, errors.New("render requires a shader config")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	out := make([]float64, opts.Width*opts.Height)
	bands := make(chan int)

	var wg sync.WaitGroup
	for n := 0; n < opts.workers(); n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for start := range bands {
				end := min(start+bandRows, opts.Height)
				for j := start; j < end; j++ {
					row := out[j*opts.Width : (j+1)*opts.Width]
					for i := range row {
						row[i] = cfg.Sample(opts.request(p, i, j))
					}
				}
			}
		}()
	}

	var err error
feed:
	for start := 0; start < opts.Height; start += bandRows {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case bands <- start:
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		}
	}
	close(bands)
	wg.Wait()

	if err != nil {
		return nil, fmt.Errorf("render cancelled: %w", err)
	}
	return out, nil
}

// Render evaluates every pixel into a 16-bit grayscale image. Values are
// clamped to [0, 1] only when quantized.
func Render(ctx context.Context, cfg *shader.Config, p Plane, opts Options) (*image.Gray16, error) {
	values, err := RenderFloat(ctx, cfg, p, opts)
	if err != nil {
		return nil, err
	}
	return ToGray16(values, opts.Width, opts.Height), nil
}

// ToGray16 quantizes row-major values into an image.
func ToGray16(values []float64, w, h int) *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, w, h))
	for j := 0; j < h; j++ {
		for i := 0; i < w; i++ {
			img.SetGray16(i, j, color.Gray16{Y: quantize(values[j*w+i])})
		}
	}
	return img
}

func quantize(v float64) uint16 {
	if math.IsNaN(v) {
		return 0
	}
	v = math.Max(0, math.Min(1, v))
	return uint16(math.Round(v * math.MaxUint16))
}
