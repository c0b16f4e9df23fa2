package controls

import (
	"math"
	"testing"

	"github.com/taigrr/orbitview/pkg/math3d"
	"github.com/taigrr/orbitview/pkg/scene"
)

func newTestControls() (*OrbitControls, *scene.PerspectiveCamera) {
	cam := scene.NewPerspectiveCamera(40, 1, 1, 100)
	cam.Position = math3d.V3(0, 0, 10)
	cam.LookAt(math3d.Zero3())
	c := NewOrbitControls(cam)
	c.SetSize(100, 100)
	c.Update()
	return c, cam
}

func drag(c *OrbitControls, b Button, dx, dy int) {
	c.PointerDown(b, 50, 50)
	c.PointerMove(50+dx, 50+dy)
	c.PointerUp()
}

func TestRotate(t *testing.T) {
	c, cam := newTestControls()

	// A quarter of the viewport height turns a quarter circle.
	drag(c, ButtonLeft, 25, 0)
	if !c.Update() {
		t.Fatal("Update should report movement after a drag")
	}
	if !cam.Position.ApproxEqual(math3d.V3(-10, 0, 0), 1e-6) {
		t.Errorf("position = %v, want (-10, 0, 0)", cam.Position)
	}
	if d := cam.Direction(); !d.ApproxEqual(math3d.V3(1, 0, 0), 1e-6) {
		t.Errorf("camera should look at target, direction = %v", d)
	}
	if c.Update() {
		t.Error("Update without input should report no movement")
	}
}

func TestPolarClamp(t *testing.T) {
	c, cam := newTestControls()
	c.MaxPolarAngle = math.Pi / 2

	drag(c, ButtonLeft, 0, -100) // drag up: camera goes under the target
	c.Update()

	phi := math3d.SphericalFromVec3(cam.Position).Phi
	if phi > math.Pi/2+1e-9 {
		t.Errorf("phi = %v, want <= pi/2", phi)
	}
}

func TestZoom(t *testing.T) {
	tests := []struct {
		name  string
		delta float64
		want  float64
	}{
		{"in", -1, 10 * 0.95},
		{"out", 1, 10 / 0.95},
		{"zero", 0, 10},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, cam := newTestControls()
			c.Wheel(tc.delta)
			c.Update()
			if got := cam.Position.Len(); math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("distance = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestDistanceLimits(t *testing.T) {
	c, cam := newTestControls()
	c.MinDistance = 9.8
	c.MaxDistance = 10.2

	for range 5 {
		c.Wheel(-1)
	}
	c.Update()
	if got := cam.Position.Len(); math.Abs(got-9.8) > 1e-9 {
		t.Errorf("distance = %v, want MinDistance", got)
	}

	for range 10 {
		c.Wheel(1)
	}
	c.Update()
	if got := cam.Position.Len(); math.Abs(got-10.2) > 1e-9 {
		t.Errorf("distance = %v, want MaxDistance", got)
	}
}

func TestPanDisabled(t *testing.T) {
	c, cam := newTestControls()
	c.EnablePan = false
	before := cam.Position

	drag(c, ButtonRight, 20, 20)
	c.Pan(10, 10)
	if c.Update() {
		t.Error("pan should be a no-op while disabled")
	}
	if c.Target != math3d.Zero3() || cam.Position != before {
		t.Errorf("target %v, position %v changed", c.Target, cam.Position)
	}
}

func TestPanEnabled(t *testing.T) {
	c, cam := newTestControls()
	drag(c, ButtonRight, 10, 0)
	if !c.Update() {
		t.Fatal("pan should move the camera")
	}
	// Dragging right moves the scene right, so the target moves left.
	if c.Target.X >= 0 {
		t.Errorf("target = %v, want negative X", c.Target)
	}
	if got := cam.Position.Sub(c.Target); !got.ApproxEqual(math3d.V3(0, 0, 10), 1e-9) {
		t.Errorf("camera offset = %v, want unchanged", got)
	}
}

func TestDampingKeepsMoving(t *testing.T) {
	c, cam := newTestControls()
	c.EnableDamping = true

	drag(c, ButtonLeft, 10, 0)
	if !c.Update() {
		t.Fatal("first update should move")
	}
	first := cam.Position
	if !c.Update() {
		t.Fatal("damped controls should keep moving after release")
	}
	if cam.Position == first {
		t.Error("position did not change on the inertia frame")
	}

	settled := false
	for range 1200 {
		if !c.Update() {
			settled = true
			break
		}
	}
	if !settled {
		t.Error("damped motion never settled")
	}
	if got := cam.Position.Len(); math.Abs(got-10) > 1e-6 {
		t.Errorf("distance drifted to %v", got)
	}
}

func TestDampedRotationIndependentOfFPS(t *testing.T) {
	for _, fps := range []int{15, 30, 60, 144} {
		c, cam := newTestControls()
		c.SetFPS(fps)
		c.EnableDamping = true

		drag(c, ButtonLeft, 25, 0)
		for range 20 * fps {
			c.Update()
		}
		if !cam.Position.ApproxEqual(math3d.V3(-10, 0, 0), 1e-3) {
			t.Errorf("fps %d: position = %v, want (-10, 0, 0)", fps, cam.Position)
		}
	}
}

func TestReset(t *testing.T) {
	c, cam := newTestControls()
	c.EnablePan = true

	drag(c, ButtonLeft, 25, 10)
	c.Pan(5, 5)
	c.Wheel(-1)
	c.Update()
	if cam.Position.ApproxEqual(math3d.V3(0, 0, 10), 1e-6) {
		t.Fatal("camera did not move")
	}

	c.Key(KeyReset)
	c.Update()
	if !cam.Position.ApproxEqual(math3d.V3(0, 0, 10), 1e-9) || c.Target != math3d.Zero3() {
		t.Errorf("after reset position = %v, target = %v", cam.Position, c.Target)
	}

	c.Target = math3d.V3(1, 0, 0)
	c.Update()
	c.SaveState()
	drag(c, ButtonLeft, 10, 0)
	c.Update()
	c.Reset()
	c.Update()
	if c.Target != math3d.V3(1, 0, 0) {
		t.Errorf("target = %v, want the saved (1, 0, 0)", c.Target)
	}
	if d := cam.Direction(); !d.ApproxEqual(math3d.V3(1, 0, -10).Normalize(), 1e-6) {
		t.Errorf("direction = %v, want towards the saved target", d)
	}
}

func TestDisabledIgnoresInput(t *testing.T) {
	c, _ := newTestControls()
	c.Enabled = false
	drag(c, ButtonLeft, 30, 30)
	c.Wheel(-5)
	c.Key(KeyLeft)
	if c.Update() {
		t.Error("disabled controls should not move the camera")
	}
}

func TestKeysRotate(t *testing.T) {
	c, cam := newTestControls()
	c.KeyRotateAngle = math.Pi / 2
	c.Key(KeyRight)
	c.Update()
	if !cam.Position.ApproxEqual(math3d.V3(10, 0, 0), 1e-6) {
		t.Errorf("position = %v, want (10, 0, 0)", cam.Position)
	}
}

func TestCameraAtTarget(t *testing.T) {
	cam := scene.NewPerspectiveCamera(40, 1, 1, 100)
	c := NewOrbitControls(cam)
	c.Update()
	if cam.Position != math3d.Zero3() {
		t.Errorf("position = %v, want origin", cam.Position)
	}
	for _, v := range []float64{cam.Position.X, cam.Position.Y, cam.Position.Z} {
		if math.IsNaN(v) {
			t.Fatal("NaN position")
		}
	}
}
