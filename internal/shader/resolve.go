package shader

import (
	"github.com/MeKo-Tech/fastnoise/internal/params"
	"github.com/go-gl/mathgl/mgl64"
)

// PrefKey is the user-data key holding the reference position.
const PrefKey = "Pref"

// UserData is the per-sample keyed lookup into primitive user data.
type UserData interface {
	Vec(key string) (mgl64.Vec3, bool)
}

// MapUserData is a UserData backed by a map.
type MapUserData map[string]mgl64.Vec3

// Vec implements UserData.
func (m MapUserData) Vec(key string) (mgl64.Vec3, bool) {
	v, ok := m[key]
	return v, ok
}

// SampleRequest carries the shading data of one sample.
type SampleRequest struct {
	World  mgl64.Vec3
	Object mgl64.Vec3
	U, V   float64

	// UserData may be nil, which behaves like a lookup miss.
	UserData UserData

	// Linked is set when P is driven by an upstream node; LinkedP then
	// replaces the space selection.
	Linked  bool
	LinkedP mgl64.Vec3
}

// Transform is the offset, scale and rotation applied to the base position.
type Transform struct {
	Offset mgl64.Vec3
	Scale  mgl64.Vec3
	// Rotate holds angles in degrees.
	Rotate mgl64.Vec3

	rotation mgl64.Mat3
	rotated  bool
}

// NewTransform precomputes the rotation matrix. Rotation is skipped entirely
// when all three angles are zero.
func NewTransform(offset, scale, rotate mgl64.Vec3) Transform {
	t := Transform{Offset: offset, Scale: scale, Rotate: rotate}
	if rotate != (mgl64.Vec3{}) {
		t.rotation = rotationXYZ(rotate)
		t.rotated = true
	}
	return t
}

// rotationXYZ composes rotations about X, then Y, then Z. With column vectors
// the X matrix sits rightmost so it is applied first.
func rotationXYZ(deg mgl64.Vec3) mgl64.Mat3 {
	rx := mgl64.Rotate3DX(mgl64.DegToRad(deg[0]))
	ry := mgl64.Rotate3DY(mgl64.DegToRad(deg[1]))
	rz := mgl64.Rotate3DZ(mgl64.DegToRad(deg[2]))
	return rz.Mul3(ry).Mul3(rx)
}

// Apply adds the offset, multiplies component-wise by the scale and rotates.
func (t Transform) Apply(p mgl64.Vec3) mgl64.Vec3 {
	p = p.Add(t.Offset)
	p = mgl64.Vec3{p[0] * t.Scale[0], p[1] * t.Scale[1], p[2] * t.Scale[2]}
	if t.rotated {
		p = t.rotation.Mul3x1(p)
	}
	return p
}

// BasePosition selects the untransformed sample position for a space. A
// linked P wins over the space; Pref falls back to object space when the
// user data has no reference position.
func BasePosition(space params.Space, req SampleRequest) mgl64.Vec3 {
	if req.Linked {
		return req.LinkedP
	}

	switch space {
	case params.SpaceObject:
		return req.Object
	case params.SpaceUV:
		return mgl64.Vec3{req.U, req.V, 0}
	case params.SpacePref:
		if req.UserData != nil {
			if p, ok := req.UserData.Vec(PrefKey); ok {
				return p
			}
		}
		return req.Object
	default:
		return req.World
	}
}

// Resolve computes the position handed to the noise. It is a pure function
// of its inputs.
func Resolve(space params.Space, req SampleRequest, xf Transform) mgl64.Vec3 {
	return xf.Apply(BasePosition(space, req))
}
