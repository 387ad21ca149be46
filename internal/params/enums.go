package params

import "github.com/MeKo-Tech/fastnoise/internal/noise"

// Space selects the base position fed to the noise.
type Space int

const (
	SpaceWorld Space = iota
	SpaceObject
	SpacePref
	SpaceUV
)

// SpaceNames are the display names in enum order.
var SpaceNames = []string{"world", "object", "Pref", "UV"}

func (s Space) String() string { return noise.EnumName(SpaceNames, int(s)) }

// SpaceFromInt maps a host integer onto a Space, clamping out-of-range values.
func SpaceFromInt(i int) (Space, bool) {
	v, ok := noise.ClampEnum(i, len(SpaceNames))
	return Space(v), ok
}

// ParseSpace resolves a display name or integer string.
func ParseSpace(s string) (Space, error) {
	i, err := noise.ParseEnum(SpaceNames, s)
	return Space(i), err
}

// Warp selects the domain warp mode.
type Warp int

const (
	WarpOff Warp = iota
	WarpOn
	WarpFractal
)

// WarpNames are the display names in enum order.
var WarpNames = []string{"Off", "On", "Fractal"}

func (w Warp) String() string { return noise.EnumName(WarpNames, int(w)) }

// WarpFromInt maps a host integer onto a Warp, clamping out-of-range values.
func WarpFromInt(i int) (Warp, bool) {
	v, ok := noise.ClampEnum(i, len(WarpNames))
	return Warp(v), ok
}

// ParseWarp resolves a display name or integer string.
func ParseWarp(s string) (Warp, error) {
	i, err := noise.ParseEnum(WarpNames, s)
	return Warp(i), err
}
