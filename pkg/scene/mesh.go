package scene

import (
	"github.com/taigrr/orbitview/pkg/math3d"
	"github.com/taigrr/orbitview/pkg/models"
)

// Mesh places model geometry in the scene.
type Mesh struct {
	Object3D
	Geometry *models.Mesh

	// DoubleSided disables back-face culling for this mesh.
	DoubleSided bool

	boundingSphere *math3d.Sphere
}

// NewMesh wraps geometry in a scene node named after it.
func NewMesh(geometry *models.Mesh) *Mesh {
	m := &Mesh{Geometry: geometry}
	m.init(m, geometry.Name)
	return m
}

// ComputeBoundingSphere computes and caches the geometry's bounding sphere
// in local space.
func (m *Mesh) ComputeBoundingSphere() math3d.Sphere {
	s := m.Geometry.BoundingSphere()
	m.boundingSphere = &s
	return s
}

// BoundingSphere returns the cached sphere, if it has been computed.
func (m *Mesh) BoundingSphere() (math3d.Sphere, bool) {
	if m.boundingSphere == nil {
		return math3d.Sphere{}, false
	}
	return *m.boundingSphere, true
}
