package scene

import "github.com/taigrr/orbitview/pkg/math3d"

// Scene is the root of a scene graph.
type Scene struct {
	Object3D
	Background  Color
	Environment *Environment
	// EnvironmentIntensity scales the environment's contribution.
	EnvironmentIntensity float64
}

// NewScene creates an empty scene with a black background.
func NewScene() *Scene {
	s := &Scene{EnvironmentIntensity: 1}
	s.init(s, "Scene")
	return s
}

// Lights collects the lights in the scene, including those attached to
// the camera when the camera is part of the graph.
func (s *Scene) Lights() (ambient []*AmbientLight, points []*PointLight) {
	Traverse(s, func(n Node, _ math3d.Mat4) {
		switch l := n.(type) {
		case *AmbientLight:
			ambient = append(ambient, l)
		case *PointLight:
			points = append(points, l)
		}
	})
	return ambient, points
}

// Meshes returns every visible mesh node in traversal order.
func (s *Scene) Meshes() []*Mesh {
	var out []*Mesh
	Traverse(s, func(n Node, _ math3d.Mat4) {
		if m, ok := n.(*Mesh); ok {
			out = append(out, m)
		}
	})
	return out
}
