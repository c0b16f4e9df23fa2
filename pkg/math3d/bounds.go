package math3d

import "math"

// Box3 is an axis-aligned bounding box.
type Box3 struct {
	Min, Max Vec3
}

// EmptyBox3 returns a box that contains nothing; expanding it by a point
// yields a zero-size box at that point.
func EmptyBox3() Box3 {
	inf := math.Inf(1)
	return Box3{
		Min: V3(inf, inf, inf),
		Max: V3(-inf, -inf, -inf),
	}
}

// IsEmpty reports whether the box contains no points.
func (b Box3) IsEmpty() bool {
	return b.Max.X < b.Min.X || b.Max.Y < b.Min.Y || b.Max.Z < b.Min.Z
}

// ExpandByPoint grows the box to include p.
func (b Box3) ExpandByPoint(p Vec3) Box3 {
	return Box3{Min: b.Min.Min(p), Max: b.Max.Max(p)}
}

// Center returns the center of the box. An empty box has a zero center.
func (b Box3) Center() Vec3 {
	if b.IsEmpty() {
		return Zero3()
	}
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the box dimensions. An empty box has zero size.
func (b Box3) Size() Vec3 {
	if b.IsEmpty() {
		return Zero3()
	}
	return b.Max.Sub(b.Min)
}

// Sphere is a bounding sphere. A negative radius marks an empty sphere.
type Sphere struct {
	Center Vec3
	Radius float64
}

// IsEmpty reports whether the sphere bounds nothing.
func (s Sphere) IsEmpty() bool {
	return s.Radius < 0
}

// BoundingSphere computes a sphere enclosing points. The center is the
// center of the points' bounding box and the radius the largest distance
// from it, which is not minimal but stable and cheap.
func BoundingSphere(points []Vec3) Sphere {
	if len(points) == 0 {
		return Sphere{Radius: -1}
	}

	box := EmptyBox3()
	for _, p := range points {
		box = box.ExpandByPoint(p)
	}
	center := box.Center()

	var maxSq float64
	for _, p := range points {
		maxSq = math.Max(maxSq, center.DistanceSq(p))
	}
	return Sphere{Center: center, Radius: math.Sqrt(maxSq)}
}
