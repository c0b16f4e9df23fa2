package math3d

import "math"

const sphericalEPS = 1e-6

// Spherical holds spherical coordinates. Phi is the polar angle measured
// from +Y, Theta the azimuth around Y measured from +Z.
type Spherical struct {
	Radius float64
	Phi    float64
	Theta  float64
}

// SphericalFromVec3 converts a cartesian offset to spherical coordinates.
func SphericalFromVec3(v Vec3) Spherical {
	r := v.Len()
	if r == 0 {
		return Spherical{}
	}
	return Spherical{
		Radius: r,
		Theta:  math.Atan2(v.X, v.Z),
		Phi:    math.Acos(clamp(v.Y/r, -1, 1)),
	}
}

// Vec3 converts back to a cartesian offset.
func (s Spherical) Vec3() Vec3 {
	sinPhi, cosPhi := math.Sincos(s.Phi)
	sinTheta, cosTheta := math.Sincos(s.Theta)
	return Vec3{
		X: s.Radius * sinPhi * sinTheta,
		Y: s.Radius * cosPhi,
		Z: s.Radius * sinPhi * cosTheta,
	}
}

// MakeSafe keeps Phi away from the poles so LookAt stays well defined.
func (s Spherical) MakeSafe() Spherical {
	s.Phi = clamp(s.Phi, sphericalEPS, math.Pi-sphericalEPS)
	return s
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return clamp(v, lo, hi)
}
