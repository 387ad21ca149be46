// Package params declares the FastNoise shader parameters and decodes the
// flat name/value mapping a host (config file, CLI, HTTP query, preset)
// resolves for one shader node.
package params

import (
	"strings"

	"github.com/MeKo-Tech/fastnoise/internal/noise"
)

// Info is the provenance string exposed as the read-only "info" parameter.
const Info = "FastNoise was originally developed by Jordan Peck as an open-source noise library. Shader pipeline ported to Go."

// Type is the host-facing type of a parameter.
type Type int

const (
	TypeEnum Type = iota
	TypeVector
	TypeInt
	TypeFloat
	TypeString
)

func (t Type) String() string {
	switch t {
	case TypeEnum:
		return "enum"
	case TypeVector:
		return "vector"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeString:
		return "string"
	default:
		return "unknown"
	}
}

// Definition describes one shader parameter.
type Definition struct {
	Name        string
	Type        Type
	Default     any
	EnumNames   []string
	Description string
	// Linkable parameters may be driven per sample by an upstream node.
	Linkable bool
	ReadOnly bool
}

var definitions = []Definition{
	{Name: "space", Type: TypeEnum, Default: "object", EnumNames: SpaceNames,
		Description: "Coordinate space the noise is evaluated in; Pref falls back to object when the sample has no rest position (see --pref-offset)"},
	{Name: "offset", Type: TypeVector, Default: [3]float64{0, 0, 0},
		Description: "Added to the sample position"},
	{Name: "scale", Type: TypeVector, Default: [3]float64{1, 1, 1},
		Description: "Component-wise multiplier applied after offset"},
	{Name: "rotate", Type: TypeVector, Default: [3]float64{0, 0, 0},
		Description: "Rotation in degrees about X, then Y, then Z"},
	{Name: "P", Type: TypeVector, Default: [3]float64{0, 0, 0}, Linkable: true,
		Description: "Sample position; overrides space only when linked per sample, the static value is not evaluated"},

	{Name: "noise_type", Type: TypeEnum, Default: "Simplex Fractal", EnumNames: noise.KindNames,
		Description: "Noise function"},
	{Name: "seed", Type: TypeInt, Default: 1337,
		Description: "Generator seed"},
	{Name: "frequency", Type: TypeFloat, Default: 2.0,
		Description: "Base frequency"},

	{Name: "fractal_type", Type: TypeEnum, Default: "FBM", EnumNames: noise.FractalTypeNames,
		Description: "Octave combination for fractal kinds"},
	{Name: "fractal_octaves", Type: TypeInt, Default: 3,
		Description: "Octave count; values below one act as one"},
	{Name: "fractal_lacunarity", Type: TypeFloat, Default: 2.0,
		Description: "Frequency multiplier between octaves"},
	{Name: "fractal_gain", Type: TypeFloat, Default: 0.5,
		Description: "Amplitude multiplier between octaves"},

	{Name: "cellular_distance_function", Type: TypeEnum, Default: "Euclidean", EnumNames: noise.CellularDistanceNames,
		Description: "Distance metric for cellular kinds"},
	{Name: "cellular_return_type", Type: TypeEnum, Default: "CellValue", EnumNames: noise.CellularReturnNames,
		Description: "Value reported by cellular kinds"},
	{Name: "cellular_jitter", Type: TypeFloat, Default: 0.45,
		Description: "Feature point displacement within a cell"},

	{Name: "position_warp", Type: TypeEnum, Default: "Off", EnumNames: WarpNames,
		Description: "Domain warp applied before evaluation"},
	{Name: "position_warp_amplitude", Type: TypeFloat, Default: 0.25,
		Description: "Domain warp amplitude"},
	{Name: "info", Type: TypeString, Default: Info, ReadOnly: true,
		Description: "Provenance"},
}

// All returns the parameter definitions in declaration order.
func All() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Lookup returns the definition for a parameter name, ignoring case like
// Decode does.
func Lookup(name string) (Definition, bool) {
	for _, d := range definitions {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return Definition{}, false
}
