package noise

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind selects the noise function evaluated by a Generator.
type Kind int

const (
	Value Kind = iota
	ValueFractal
	Perlin
	PerlinFractal
	Simplex
	SimplexFractal
	Cellular
	CellularFractal
	White
	Cubic
	CubicFractal
)

// KindNames are the display names in enum order.
var KindNames = []string{
	"Value",
	"Value Fractal",
	"Perlin",
	"Perlin Fractal",
	"Simplex",
	"Simplex Fractal",
	"Cellular",
	"Cellular Fractal",
	"White Noise",
	"Cubic",
	"Cubic Fractal",
}

func (k Kind) String() string { return EnumName(KindNames, int(k)) }

// Fractal reports whether the kind combines several octaves.
func (k Kind) Fractal() bool {
	switch k {
	case ValueFractal, PerlinFractal, SimplexFractal, CellularFractal, CubicFractal:
		return true
	}
	return false
}

// KindFromInt maps a host integer onto a Kind. Out-of-range values are
// clamped and reported with ok=false.
func KindFromInt(i int) (Kind, bool) {
	v, ok := ClampEnum(i, len(KindNames))
	return Kind(v), ok
}

// ParseKind resolves a display name or integer string.
func ParseKind(s string) (Kind, error) {
	i, err := ParseEnum(KindNames, s)
	return Kind(i), err
}

// FractalType selects how octaves are combined.
type FractalType int

const (
	FBM FractalType = iota
	Billow
	RigidMulti
)

// FractalTypeNames are the display names in enum order.
var FractalTypeNames = []string{"FBM", "Billow", "Ridge Multi"}

func (f FractalType) String() string { return EnumName(FractalTypeNames, int(f)) }

// FractalTypeFromInt maps a host integer onto a FractalType.
func FractalTypeFromInt(i int) (FractalType, bool) {
	v, ok := ClampEnum(i, len(FractalTypeNames))
	return FractalType(v), ok
}

// ParseFractalType resolves a display name or integer string.
func ParseFractalType(s string) (FractalType, error) {
	i, err := ParseEnum(FractalTypeNames, s)
	return FractalType(i), err
}

// CellularDistance is the metric used to find the nearest feature points.
type CellularDistance int

const (
	Euclidean CellularDistance = iota
	Manhattan
	Natural
)

// CellularDistanceNames are the display names in enum order.
var CellularDistanceNames = []string{"Euclidean", "Manhattan", "Natural"}

func (d CellularDistance) String() string { return EnumName(CellularDistanceNames, int(d)) }

// CellularDistanceFromInt maps a host integer onto a CellularDistance.
func CellularDistanceFromInt(i int) (CellularDistance, bool) {
	v, ok := ClampEnum(i, len(CellularDistanceNames))
	return CellularDistance(v), ok
}

// ParseCellularDistance resolves a display name or integer string.
func ParseCellularDistance(s string) (CellularDistance, error) {
	i, err := ParseEnum(CellularDistanceNames, s)
	return CellularDistance(i), err
}

// CellularReturn selects what cellular noise reports for a position.
type CellularReturn int

const (
	CellValue CellularReturn = iota
	NoiseLookup
	Distance
	Distance2
	Distance2Add
	Distance2Sub
	Distance2Mul
	Distance2Div
)

// CellularReturnNames are the display names in enum order.
var CellularReturnNames = []string{
	"CellValue",
	"NoiseLookup",
	"Distance",
	"Distance2",
	"Distance2Add",
	"Distance2Sub",
	"Distance2Mul",
	"Distance2Div",
}

func (r CellularReturn) String() string { return EnumName(CellularReturnNames, int(r)) }

// needsSecond reports whether the return type uses the second nearest point.
func (r CellularReturn) needsSecond() bool {
	return r >= Distance2
}

// CellularReturnFromInt maps a host integer onto a CellularReturn.
func CellularReturnFromInt(i int) (CellularReturn, bool) {
	v, ok := ClampEnum(i, len(CellularReturnNames))
	return CellularReturn(v), ok
}

// ParseCellularReturn resolves a display name or integer string.
func ParseCellularReturn(s string) (CellularReturn, error) {
	i, err := ParseEnum(CellularReturnNames, s)
	return CellularReturn(i), err
}

// EnumName returns the display name at index i of an enum name table.
func EnumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("invalid(%d)", i)
	}
	return names[i]
}

// ClampEnum clamps i into [0, n) and reports whether it was already valid.
func ClampEnum(i, n int) (int, bool) {
	if i < 0 {
		return 0, false
	}
	if i >= n {
		return n - 1, false
	}
	return i, true
}

// ParseEnum accepts a display name (case and whitespace insensitive, so
// "simplex_fractal" and "SimplexFractal" both match "Simplex Fractal") or the
// integer index.
func ParseEnum(names []string, s string) (int, error) {
	key := normalizeName(s)
	for i, name := range names {
		if normalizeName(name) == key {
			return i, nil
		}
	}
	if idx, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && idx >= 0 && idx < len(names) {
		return idx, nil
	}
	return 0, fmt.Errorf("unknown value %q (valid: %s)", s, strings.Join(names, ", "))
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s)
}
