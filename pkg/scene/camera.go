package scene

import (
	"math"

	"github.com/taigrr/orbitview/pkg/math3d"
)

// PerspectiveCamera is a pinhole camera. FOV is vertical, in degrees.
//
// The projection matrix is only recomputed by UpdateProjectionMatrix, so
// changes to FOV, Aspect, Near or Far take effect after calling it.
type PerspectiveCamera struct {
	Object3D
	FOV    float64
	Aspect float64
	Near   float64
	Far    float64

	orientation math3d.Mat4
	projection  math3d.Mat4
}

// NewPerspectiveCamera creates a camera at the origin looking down -Z.
func NewPerspectiveCamera(fov, aspect, near, far float64) *PerspectiveCamera {
	c := &PerspectiveCamera{
		FOV:         fov,
		Aspect:      aspect,
		Near:        near,
		Far:         far,
		orientation: math3d.Identity(),
	}
	c.init(c, "PerspectiveCamera")
	c.UpdateProjectionMatrix()
	return c
}

// UpdateProjectionMatrix recomputes the projection from the current fields.
func (c *PerspectiveCamera) UpdateProjectionMatrix() {
	aspect := c.Aspect
	if aspect <= 0 || math.IsNaN(aspect) || math.IsInf(aspect, 0) {
		aspect = 1
	}
	c.projection = math3d.Perspective(c.FOV*math.Pi/180, aspect, c.Near, c.Far)
}

// ProjectionMatrix returns the projection computed by the last
// UpdateProjectionMatrix call.
func (c *PerspectiveCamera) ProjectionMatrix() math3d.Mat4 {
	return c.projection
}

// LookAt orients the camera towards a world-space target. When the target
// coincides with the camera position the orientation is left unchanged.
func (c *PerspectiveCamera) LookAt(target math3d.Vec3) {
	if target.DistanceSq(c.Position) == 0 {
		return
	}
	view := math3d.LookAt(c.Position, target, math3d.Up())
	view[12], view[13], view[14] = 0, 0, 0
	c.orientation = view.Inverse()
}

// Direction returns the world-space viewing direction.
func (c *PerspectiveCamera) Direction() math3d.Vec3 {
	return c.orientation.MulVec3Dir(math3d.V3(0, 0, -1)).Normalize()
}

// LocalMatrix combines position and orientation.
func (c *PerspectiveCamera) LocalMatrix() math3d.Mat4 {
	return math3d.Translate(c.Position).Mul(c.orientation)
}

// ViewMatrix maps world space into camera space.
func (c *PerspectiveCamera) ViewMatrix() math3d.Mat4 {
	return WorldMatrix(c).Inverse()
}

// ViewProjectionMatrix returns projection * view.
func (c *PerspectiveCamera) ViewProjectionMatrix() math3d.Mat4 {
	return c.projection.Mul(c.ViewMatrix())
}
