package math3d

import (
	"math"
	"testing"
)

func TestBoundingSphere(t *testing.T) {
	tests := []struct {
		name   string
		points []Vec3
		center Vec3
		radius float64
	}{
		{"empty", nil, Zero3(), -1},
		{"single point", []Vec3{V3(1, 2, 3)}, V3(1, 2, 3), 0},
		{"unit cube", []Vec3{V3(0, 0, 0), V3(2, 2, 2)}, V3(1, 1, 1), math.Sqrt(3)},
		{"off origin", []Vec3{V3(10, 0, 0), V3(14, 0, 0), V3(12, 1, 0)}, V3(12, 0.5, 0), math.Sqrt(4.25)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := BoundingSphere(tc.points)
			if !s.Center.ApproxEqual(tc.center, 1e-9) {
				t.Errorf("center = %v, want %v", s.Center, tc.center)
			}
			if math.Abs(s.Radius-tc.radius) > 1e-9 {
				t.Errorf("radius = %v, want %v", s.Radius, tc.radius)
			}
		})
	}
}

func TestBoundingSphereEncloses(t *testing.T) {
	points := []Vec3{V3(-3, 1, 0), V3(5, -2, 7), V3(0, 9, -4), V3(2, 2, 2)}
	s := BoundingSphere(points)
	for _, p := range points {
		if s.Center.Distance(p) > s.Radius+1e-9 {
			t.Errorf("point %v outside sphere %v", p, s)
		}
	}
}

func TestEmptyBox(t *testing.T) {
	b := EmptyBox3()
	if !b.IsEmpty() {
		t.Fatal("EmptyBox3 should be empty")
	}
	if b.Size() != Zero3() || b.Center() != Zero3() {
		t.Error("empty box should have zero size and center")
	}
	b = b.ExpandByPoint(V3(1, 1, 1))
	if b.IsEmpty() || b.Size() != Zero3() {
		t.Errorf("box with one point = %+v", b)
	}
}

func TestSphericalRoundTrip(t *testing.T) {
	vectors := []Vec3{
		V3(0, 0, 5),
		V3(3, 4, 0),
		V3(-1, -2, 3),
		V3(0.5, 10, -0.5),
	}
	for _, v := range vectors {
		got := SphericalFromVec3(v).Vec3()
		if !got.ApproxEqual(v, 1e-9) {
			t.Errorf("round trip %v -> %v", v, got)
		}
	}
}

func TestSphericalZero(t *testing.T) {
	s := SphericalFromVec3(Zero3())
	if s != (Spherical{}) {
		t.Errorf("zero vector spherical = %+v", s)
	}
}

func TestSphericalMakeSafe(t *testing.T) {
	s := Spherical{Radius: 1, Phi: 0}.MakeSafe()
	if s.Phi <= 0 {
		t.Errorf("phi = %v, want > 0", s.Phi)
	}
	s = Spherical{Radius: 1, Phi: math.Pi}.MakeSafe()
	if s.Phi >= math.Pi {
		t.Errorf("phi = %v, want < pi", s.Phi)
	}
}

func TestInverse(t *testing.T) {
	m := Translate(V3(1, 2, 3)).Mul(RotateY(0.5)).Mul(Scale(V3(2, 2, 2)))
	got := m.Mul(m.Inverse())
	want := Identity()
	for i := range got {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("m * inv(m) = %v", got)
		}
	}
}

func TestInverseSingular(t *testing.T) {
	if got := (Mat4{}).Inverse(); got != Identity() {
		t.Errorf("singular inverse = %v, want identity", got)
	}
}

func TestLookAtMapsTargetToNegativeZ(t *testing.T) {
	eye := V3(0, 0, 5)
	view := LookAt(eye, Zero3(), Up())
	got := view.MulVec3(Zero3())
	if !got.ApproxEqual(V3(0, 0, -5), 1e-9) {
		t.Errorf("target in view space = %v, want (0,0,-5)", got)
	}
}

func TestPerspectiveDepthRange(t *testing.T) {
	proj := Perspective(math.Pi/2, 1, 1, 100)
	near := proj.MulVec4(V4FromV3(V3(0, 0, -1), 1)).PerspectiveDivide()
	far := proj.MulVec4(V4FromV3(V3(0, 0, -100), 1)).PerspectiveDivide()
	if math.Abs(near.Z+1) > 1e-9 || math.Abs(far.Z-1) > 1e-9 {
		t.Errorf("near z = %v, far z = %v", near.Z, far.Z)
	}
}

func BenchmarkMat4Mul(b *testing.B) {
	m1 := Translate(V3(1, 2, 3))
	m2 := RotateY(0.5)

	for b.Loop() {
		_ = m1.Mul(m2)
	}
}

func BenchmarkBoundingSphere(b *testing.B) {
	points := make([]Vec3, 10000)
	for i := range points {
		f := float64(i)
		points[i] = V3(math.Sin(f), math.Cos(f), f/1000)
	}

	for b.Loop() {
		_ = BoundingSphere(points)
	}
}
