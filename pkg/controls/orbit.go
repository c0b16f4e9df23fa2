// Package controls implements orbit camera controls: drag to rotate around a
// target, wheel to dolly, optional pan, with spring-damped inertia.
package controls

import (
	"math"

	"github.com/charmbracelet/harmonica"

	"github.com/taigrr/orbitview/pkg/math3d"
	"github.com/taigrr/orbitview/pkg/scene"
)

// Button identifies a pointer button.
type Button int

const (
	ButtonLeft Button = iota
	ButtonMiddle
	ButtonRight
)

// Key is a navigation key understood by the controls.
type Key int

const (
	KeyLeft Key = iota
	KeyRight
	KeyUp
	KeyDown
	KeyZoomIn
	KeyZoomOut
	KeyReset
)

type dragMode int

const (
	dragNone dragMode = iota
	dragRotate
	dragDolly
	dragPan
)

// settleEpsilon is the velocity below which a damped axis stops.
const settleEpsilon = 1e-6

// dampedAxis carries angular velocity that a critically damped spring pulls
// back to zero.
type dampedAxis struct {
	Velocity float64
	accel    float64 // spring velocity, for animating Velocity toward 0
	spring   harmonica.Spring
	// gain is the total motion one unit of velocity produces before the
	// spring settles.
	gain float64
}

func newDampedAxis(fps int) dampedAxis {
	// Frequency 4.0 = moderate speed, damping 1.0 = critically damped (no overshoot)
	a := dampedAxis{spring: harmonica.NewSpring(harmonica.FPS(fps), 4.0, 1.0)}
	a.gain = settleGain(a.spring)
	return a
}

// settleGain sums the per-frame output of a spring released with unit
// velocity.
func settleGain(s harmonica.Spring) float64 {
	v, accel, sum := 1.0, 0.0, 0.0
	for range 1 << 16 {
		sum += v
		v, accel = s.Update(v, accel, 0)
		if math.Abs(v) < settleEpsilon && math.Abs(accel) < settleEpsilon {
			break
		}
	}
	return max(sum, 1)
}

// push adds velocity that moves the axis by delta in total, whatever the
// frame rate.
func (a *dampedAxis) push(delta float64) {
	a.Velocity += delta / a.gain
}

// step returns the velocity to apply this frame and decays it.
func (a *dampedAxis) step() float64 {
	v := a.Velocity
	a.Velocity, a.accel = a.spring.Update(a.Velocity, a.accel, 0)
	if math.Abs(a.Velocity) < settleEpsilon && math.Abs(a.accel) < settleEpsilon {
		a.Velocity, a.accel = 0, 0
	}
	return v
}

func (a *dampedAxis) stop() {
	a.Velocity, a.accel = 0, 0
}

// OrbitControls orbits a camera around Target. Inputs accumulate deltas and
// Update applies them, so Update must run once per frame.
type OrbitControls struct {
	camera *scene.PerspectiveCamera

	Target math3d.Vec3

	Enabled       bool
	EnableDamping bool
	EnableRotate  bool
	EnableZoom    bool
	EnablePan     bool

	RotateSpeed float64
	ZoomSpeed   float64
	PanSpeed    float64
	// KeyRotateAngle is the rotation per arrow key press, in radians.
	KeyRotateAngle float64

	MinDistance, MaxDistance         float64
	MinPolarAngle, MaxPolarAngle     float64
	MinAzimuthAngle, MaxAzimuthAngle float64

	width, height int
	fps           int

	mode         dragMode
	lastX, lastY int

	deltaTheta, deltaPhi float64
	theta, phi           dampedAxis
	scale                float64
	panOffset            math3d.Vec3

	lastPosition math3d.Vec3
	lastTarget   math3d.Vec3
	lastDir      math3d.Vec3

	savedTarget, savedPosition math3d.Vec3
}

// NewOrbitControls binds controls to a camera. Rotation, zoom and pan are
// enabled; damping is off.
func NewOrbitControls(camera *scene.PerspectiveCamera) *OrbitControls {
	c := &OrbitControls{
		camera:          camera,
		Enabled:         true,
		EnableRotate:    true,
		EnableZoom:      true,
		EnablePan:       true,
		RotateSpeed:     1,
		ZoomSpeed:       1,
		PanSpeed:        1,
		KeyRotateAngle:  math.Pi / 36,
		MinDistance:     0,
		MaxDistance:     math.Inf(1),
		MinPolarAngle:   0,
		MaxPolarAngle:   math.Pi,
		MinAzimuthAngle: math.Inf(-1),
		MaxAzimuthAngle: math.Inf(1),
		width:           1,
		height:          1,
		scale:           1,
	}
	c.SetFPS(60)
	c.lastPosition = camera.Position
	c.lastDir = camera.Direction()
	c.SaveState()
	return c
}

// SetFPS sets the frame rate the damping springs are tuned for.
func (c *OrbitControls) SetFPS(fps int) {
	if fps <= 0 {
		fps = 60
	}
	c.fps = fps
	c.theta = newDampedAxis(fps)
	c.phi = newDampedAxis(fps)
}

// SetSize sets the viewport size in pixels. Rotation per pixel dragged is
// relative to the height.
func (c *OrbitControls) SetSize(width, height int) {
	c.width, c.height = max(width, 1), max(height, 1)
}

// Camera returns the controlled camera.
func (c *OrbitControls) Camera() *scene.PerspectiveCamera { return c.camera }

// PointerDown starts a drag. Left rotates, middle dollies, right pans.
func (c *OrbitControls) PointerDown(b Button, x, y int) {
	if !c.Enabled {
		return
	}
	switch b {
	case ButtonLeft:
		if !c.EnableRotate {
			return
		}
		c.mode = dragRotate
	case ButtonMiddle:
		if !c.EnableZoom {
			return
		}
		c.mode = dragDolly
	case ButtonRight:
		if !c.EnablePan {
			return
		}
		c.mode = dragPan
	default:
		return
	}
	c.lastX, c.lastY = x, y
}

// PointerMove continues a drag.
func (c *OrbitControls) PointerMove(x, y int) {
	if !c.Enabled || c.mode == dragNone {
		return
	}
	dx, dy := x-c.lastX, y-c.lastY
	c.lastX, c.lastY = x, y

	switch c.mode {
	case dragRotate:
		h := float64(c.height)
		c.rotateLeft(2 * math.Pi * float64(dx) / h * c.RotateSpeed)
		c.rotateUp(2 * math.Pi * float64(dy) / h * c.RotateSpeed)
	case dragDolly:
		switch {
		case dy > 0:
			c.dollyOut(c.zoomScale())
		case dy < 0:
			c.dollyIn(c.zoomScale())
		}
	case dragPan:
		c.Pan(float64(dx), float64(dy))
	}
}

// PointerUp ends a drag.
func (c *OrbitControls) PointerUp() {
	c.mode = dragNone
}

// Wheel dollies the camera; negative delta moves closer.
func (c *OrbitControls) Wheel(delta float64) {
	if !c.Enabled || !c.EnableZoom || delta == 0 {
		return
	}
	if delta < 0 {
		c.dollyIn(c.zoomScale())
	} else {
		c.dollyOut(c.zoomScale())
	}
}

// Key handles a navigation key. Arrow keys rotate and KeyReset returns
// to the saved view.
func (c *OrbitControls) Key(k Key) {
	if !c.Enabled {
		return
	}
	switch k {
	case KeyReset:
		c.Reset()
		return
	case KeyLeft, KeyRight, KeyUp, KeyDown:
		if !c.EnableRotate {
			return
		}
	case KeyZoomIn, KeyZoomOut:
		if !c.EnableZoom {
			return
		}
	}
	switch k {
	case KeyLeft:
		c.rotateLeft(c.KeyRotateAngle)
	case KeyRight:
		c.rotateLeft(-c.KeyRotateAngle)
	case KeyUp:
		c.rotateUp(c.KeyRotateAngle)
	case KeyDown:
		c.rotateUp(-c.KeyRotateAngle)
	case KeyZoomIn:
		c.dollyIn(c.zoomScale())
	case KeyZoomOut:
		c.dollyOut(c.zoomScale())
	}
}

// Pan shifts the target and camera in the view plane by a pixel delta. It
// does nothing while EnablePan is false.
func (c *OrbitControls) Pan(dx, dy float64) {
	if !c.Enabled || !c.EnablePan {
		return
	}
	offset := c.camera.Position.Sub(c.Target)
	// Half the visible height at the target distance.
	dist := offset.Len() * math.Tan(c.camera.FOV/2*math.Pi/180)
	h := float64(c.height)

	view := c.camera.ViewMatrix()
	// Rows of the view rotation are the camera axes in world space.
	right := math3d.V3(view[0], view[4], view[8])
	up := math3d.V3(view[1], view[5], view[9])

	move := right.Scale(-2 * dx * dist / h * c.PanSpeed).
		Add(up.Scale(2 * dy * dist / h * c.PanSpeed))
	c.panOffset = c.panOffset.Add(move)
}

// SaveState records the current target and camera position for Reset.
func (c *OrbitControls) SaveState() {
	c.savedTarget = c.Target
	c.savedPosition = c.camera.Position
}

// Reset stops any motion in progress and restores the state recorded by
// SaveState. The next Update re-aims the camera.
func (c *OrbitControls) Reset() {
	c.Target = c.savedTarget
	c.camera.Position = c.savedPosition
	c.mode = dragNone
	c.deltaTheta, c.deltaPhi = 0, 0
	c.theta.stop()
	c.phi.stop()
	c.scale = 1
	c.panOffset = math3d.Zero3()
}

func (c *OrbitControls) zoomScale() float64 {
	return math.Pow(0.95, c.ZoomSpeed)
}

func (c *OrbitControls) rotateLeft(angle float64) {
	if c.EnableDamping {
		c.theta.push(-angle)
		return
	}
	c.deltaTheta -= angle
}

func (c *OrbitControls) rotateUp(angle float64) {
	if c.EnableDamping {
		c.phi.push(-angle)
		return
	}
	c.deltaPhi -= angle
}

func (c *OrbitControls) dollyIn(s float64)  { c.scale *= s }
func (c *OrbitControls) dollyOut(s float64) { c.scale /= s }

// Update applies pending input to the camera, keeps it looking at Target
// and reports whether the camera moved.
func (c *OrbitControls) Update() bool {
	offset := c.camera.Position.Sub(c.Target)
	s := math3d.SphericalFromVec3(offset)

	if c.EnableDamping {
		s.Theta += c.theta.step()
		s.Phi += c.phi.step()
	} else {
		s.Theta += c.deltaTheta
		s.Phi += c.deltaPhi
	}
	c.deltaTheta, c.deltaPhi = 0, 0

	if !math.IsInf(c.MinAzimuthAngle, 0) || !math.IsInf(c.MaxAzimuthAngle, 0) {
		s.Theta = math3d.Clamp(s.Theta, c.MinAzimuthAngle, c.MaxAzimuthAngle)
	}
	s.Phi = math3d.Clamp(s.Phi, c.MinPolarAngle, c.MaxPolarAngle)
	s = s.MakeSafe()

	s.Radius = math3d.Clamp(s.Radius*c.scale, c.MinDistance, c.MaxDistance)
	c.scale = 1

	c.Target = c.Target.Add(c.panOffset)
	c.panOffset = math3d.Zero3()

	c.camera.Position = c.Target.Add(s.Vec3())
	c.camera.LookAt(c.Target)

	const eps = 1e-6
	dir := c.camera.Direction()
	moved := c.camera.Position.DistanceSq(c.lastPosition) > eps ||
		c.Target.DistanceSq(c.lastTarget) > eps ||
		8*(1-dir.Dot(c.lastDir)) > eps
	if moved {
		c.lastPosition = c.camera.Position
		c.lastTarget = c.Target
		c.lastDir = dir
	}
	return moved
}
