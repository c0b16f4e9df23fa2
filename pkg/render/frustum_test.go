package render

import (
	"math"
	"testing"

	"github.com/taigrr/orbitview/pkg/math3d"
)

func TestPlaneDistanceToPoint(t *testing.T) {
	// Plane at Z=0, normal pointing +Z
	plane := Plane{Normal: math3d.V3(0, 0, 1), D: 0}

	tests := []struct {
		name     string
		point    math3d.Vec3
		expected float64
	}{
		{"origin", math3d.V3(0, 0, 0), 0},
		{"in front", math3d.V3(0, 0, 5), 5},
		{"behind", math3d.V3(0, 0, -3), -3},
		{"offset XY", math3d.V3(10, -5, 2), 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dist := plane.DistanceToPoint(tc.point)
			if math.Abs(dist-tc.expected) > 1e-9 {
				t.Errorf("got %v, want %v", dist, tc.expected)
			}
		})
	}
}

func TestPlaneNormalize(t *testing.T) {
	plane := Plane{Normal: math3d.V3(0, 3, 4), D: 10}
	plane.Normalize()

	if length := plane.Normal.Len(); math.Abs(length-1.0) > 1e-9 {
		t.Errorf("normalized normal length = %v, want 1.0", length)
	}
	// (0, 3/5, 4/5), D = 10/5
	if math.Abs(plane.Normal.Y-0.6) > 1e-9 || math.Abs(plane.Normal.Z-0.8) > 1e-9 {
		t.Errorf("normal = %v, want (0, 0.6, 0.8)", plane.Normal)
	}
	if math.Abs(plane.D-2.0) > 1e-9 {
		t.Errorf("D = %v, want 2.0", plane.D)
	}
}

func TestFrustumFromPerspective(t *testing.T) {
	proj := math3d.Perspective(math.Pi/3, 16.0/9.0, 0.1, 100)
	frustum := NewFrustumFromMatrix(proj)

	for i, plane := range frustum.Planes {
		if length := plane.Normal.Len(); math.Abs(length-1.0) > 1e-6 {
			t.Errorf("plane %d normal length = %v, want 1.0", i, length)
		}
	}
}

func TestFrustumContainsPoint(t *testing.T) {
	proj := math3d.Perspective(math.Pi/3, 16.0/9.0, 0.1, 100)
	frustum := NewFrustumFromMatrix(proj)

	tests := []struct {
		name     string
		point    math3d.Vec3
		expected bool
	}{
		{"center near", math3d.V3(0, 0, -1), true},
		{"center mid", math3d.V3(0, 0, -50), true},
		{"center far", math3d.V3(0, 0, -99), true},
		{"behind camera", math3d.V3(0, 0, 1), false},
		{"too far", math3d.V3(0, 0, -200), false},
		{"too close", math3d.V3(0, 0, -0.01), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := frustum.ContainsPoint(tc.point); got != tc.expected {
				t.Errorf("ContainsPoint(%v) = %v, want %v", tc.point, got, tc.expected)
			}
		})
	}
}

func TestFrustumIntersectsSphere(t *testing.T) {
	proj := math3d.Perspective(math.Pi/3, 16.0/9.0, 1.0, 100.0)
	frustum := NewFrustumFromMatrix(proj)

	tests := []struct {
		name     string
		sphere   math3d.Sphere
		expected bool
	}{
		{"inside", math3d.Sphere{Center: math3d.V3(0, 0, -10), Radius: 1}, true},
		{"straddles near plane", math3d.Sphere{Center: math3d.V3(0, 0, -0.5), Radius: 1}, true},
		{"behind", math3d.Sphere{Center: math3d.V3(0, 0, 5), Radius: 1}, false},
		{"far to the right", math3d.Sphere{Center: math3d.V3(100, 0, -10), Radius: 1}, false},
		{"empty", math3d.Sphere{Center: math3d.V3(0, 0, -10), Radius: -1}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := frustum.IntersectsSphere(tc.sphere); got != tc.expected {
				t.Errorf("IntersectsSphere(%v) = %v, want %v", tc.sphere, got, tc.expected)
			}
		})
	}
}

func TestFrustumWithRotatedCamera(t *testing.T) {
	// Camera at origin looking along +X
	proj := math3d.Perspective(math.Pi/3, 1.0, 1.0, 100.0)
	view := math3d.LookAt(math3d.Zero3(), math3d.V3(10, 0, 0), math3d.Up())
	frustum := NewFrustumFromMatrix(proj.Mul(view))

	if !frustum.ContainsPoint(math3d.V3(10, 0, 0)) {
		t.Error("point in front of rotated camera should be visible")
	}
	if frustum.ContainsPoint(math3d.V3(-10, 0, 0)) {
		t.Error("point behind rotated camera should not be visible")
	}
}
