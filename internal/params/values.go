package params

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/MeKo-Tech/fastnoise/internal/noise"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cast"
)

// Values holds one resolved value per shader parameter. Enum fields keep the
// host's integer encoding; the shader builder clamps invalid integers.
type Values struct {
	Space  Space      `mapstructure:"space"`
	Offset mgl64.Vec3 `mapstructure:"offset"`
	Scale  mgl64.Vec3 `mapstructure:"scale"`
	Rotate mgl64.Vec3 `mapstructure:"rotate"`
	P      mgl64.Vec3 `mapstructure:"P"`

	NoiseType noise.Kind `mapstructure:"noise_type"`
	Seed      int        `mapstructure:"seed"`
	Frequency float64    `mapstructure:"frequency"`

	FractalType       noise.FractalType `mapstructure:"fractal_type"`
	FractalOctaves    int               `mapstructure:"fractal_octaves"`
	FractalLacunarity float64           `mapstructure:"fractal_lacunarity"`
	FractalGain       float64           `mapstructure:"fractal_gain"`

	CellularDistanceFunction noise.CellularDistance `mapstructure:"cellular_distance_function"`
	CellularReturnType       noise.CellularReturn   `mapstructure:"cellular_return_type"`
	CellularJitter           float64                `mapstructure:"cellular_jitter"`

	PositionWarp          Warp    `mapstructure:"position_warp"`
	PositionWarpAmplitude float64 `mapstructure:"position_warp_amplitude"`

	Info string `mapstructure:"info"`
}

// Default returns the declared parameter defaults.
func Default() Values {
	return Values{
		Space:  SpaceObject,
		Offset: mgl64.Vec3{0, 0, 0},
		Scale:  mgl64.Vec3{1, 1, 1},
		Rotate: mgl64.Vec3{0, 0, 0},
		P:      mgl64.Vec3{0, 0, 0},

		NoiseType: noise.SimplexFractal,
		Seed:      1337,
		Frequency: 2.0,

		FractalType:       noise.FBM,
		FractalOctaves:    3,
		FractalLacunarity: 2.0,
		FractalGain:       0.5,

		CellularDistanceFunction: noise.Euclidean,
		CellularReturnType:       noise.CellValue,
		CellularJitter:           0.45,

		PositionWarp:          WarpOff,
		PositionWarpAmplitude: 0.25,

		Info: Info,
	}
}

// Decode overlays a flat parameter mapping onto the defaults. Keys match
// parameter names case-insensitively; enums accept display names or
// integers; vectors accept three-element lists or "x,y,z" strings. Unknown
// keys are an error.
func Decode(m map[string]any) (Values, error) {
	v := Default()
	if err := DecodeInto(m, &v); err != nil {
		return Values{}, err
	}
	return v, nil
}

// DecodeInto overlays a flat parameter mapping onto an existing Values.
// Read-only parameters are rejected.
func DecodeInto(m map[string]any, v *Values) error {
	for key := range m {
		if d, ok := Lookup(key); ok && d.ReadOnly {
			return fmt.Errorf("parameter %s is read-only", d.Name)
		}
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(enumHook, vectorHook),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           v,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(m); err != nil {
		return fmt.Errorf("failed to decode shader parameters: %w", err)
	}
	return nil
}

var enumParsers = map[reflect.Type]func(string) (int, error){
	reflect.TypeOf(Space(0)): func(s string) (int, error) {
		v, err := ParseSpace(s)
		return int(v), err
	},
	reflect.TypeOf(Warp(0)): func(s string) (int, error) {
		v, err := ParseWarp(s)
		return int(v), err
	},
	reflect.TypeOf(noise.Kind(0)): func(s string) (int, error) {
		v, err := noise.ParseKind(s)
		return int(v), err
	},
	reflect.TypeOf(noise.FractalType(0)): func(s string) (int, error) {
		v, err := noise.ParseFractalType(s)
		return int(v), err
	},
	reflect.TypeOf(noise.CellularDistance(0)): func(s string) (int, error) {
		v, err := noise.ParseCellularDistance(s)
		return int(v), err
	},
	reflect.TypeOf(noise.CellularReturn(0)): func(s string) (int, error) {
		v, err := noise.ParseCellularReturn(s)
		return int(v), err
	},
}

func enumHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	parse, ok := enumParsers[to]
	if !ok || from.Kind() != reflect.String {
		return data, nil
	}
	i, err := parse(data.(string))
	if err != nil {
		return nil, err
	}
	return reflect.ValueOf(i).Convert(to).Interface(), nil
}

var vecType = reflect.TypeOf(mgl64.Vec3{})

func vectorHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != vecType {
		return data, nil
	}
	return ParseVector(data)
}

// ParseVector converts a three-element list or an "x,y,z" string to a vector.
func ParseVector(data any) (mgl64.Vec3, error) {
	var parts []any
	switch d := data.(type) {
	case mgl64.Vec3:
		return d, nil
	case [3]float64:
		return mgl64.Vec3(d), nil
	case string:
		for _, p := range strings.Split(d, ",") {
			parts = append(parts, strings.TrimSpace(p))
		}
	default:
		rv := reflect.ValueOf(data)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return mgl64.Vec3{}, fmt.Errorf("expected 3-vector, got %T", data)
		}
		for i := 0; i < rv.Len(); i++ {
			parts = append(parts, rv.Index(i).Interface())
		}
	}

	if len(parts) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("expected 3 components, got %d", len(parts))
	}
	var out mgl64.Vec3
	for i, p := range parts {
		f, err := cast.ToFloat64E(p)
		if err != nil {
			return mgl64.Vec3{}, fmt.Errorf("invalid vector component %d: %w", i, err)
		}
		out[i] = f
	}
	return out, nil
}

// Map renders the settable values as a flat mapping using display names for
// enums, suitable for Decode, JSON and YAML. Out-of-range enum integers are
// kept as integers so the mapping still decodes. Read-only parameters are
// omitted.
func (v Values) Map() map[string]any {
	vec := func(x mgl64.Vec3) []float64 { return []float64{x[0], x[1], x[2]} }
	return map[string]any{
		"space":                      enumValue(SpaceNames, int(v.Space)),
		"offset":                     vec(v.Offset),
		"scale":                      vec(v.Scale),
		"rotate":                     vec(v.Rotate),
		"P":                          vec(v.P),
		"noise_type":                 enumValue(noise.KindNames, int(v.NoiseType)),
		"seed":                       v.Seed,
		"frequency":                  v.Frequency,
		"fractal_type":               enumValue(noise.FractalTypeNames, int(v.FractalType)),
		"fractal_octaves":            v.FractalOctaves,
		"fractal_lacunarity":         v.FractalLacunarity,
		"fractal_gain":               v.FractalGain,
		"cellular_distance_function": enumValue(noise.CellularDistanceNames, int(v.CellularDistanceFunction)),
		"cellular_return_type":       enumValue(noise.CellularReturnNames, int(v.CellularReturnType)),
		"cellular_jitter":            v.CellularJitter,
		"position_warp":              enumValue(WarpNames, int(v.PositionWarp)),
		"position_warp_amplitude":    v.PositionWarpAmplitude,
	}
}

func enumValue(names []string, i int) any {
	if _, ok := noise.ClampEnum(i, len(names)); !ok {
		return i
	}
	return names[i]
}

// Summary is a short human readable description used in logs and tileset
// metadata.
func (v Values) Summary() string {
	return fmt.Sprintf("%s seed=%d freq=%g octaves=%d warp=%s space=%s",
		v.NoiseType, v.Seed, v.Frequency, v.FractalOctaves, v.PositionWarp, v.Space)
}
