// Package scene is a small scene graph: groups, mesh nodes, lights and a
// perspective camera, composed under a Scene with a background color and an
// environment.
package scene

import (
	"slices"

	"github.com/taigrr/orbitview/pkg/math3d"
)

// Node is anything that can live in the scene graph.
type Node interface {
	Object() *Object3D
	// LocalMatrix returns the node's transform relative to its parent.
	LocalMatrix() math3d.Mat4
}

// Object3D carries the fields shared by every node. Embed it to make a new
// node type.
type Object3D struct {
	Name     string
	Position math3d.Vec3
	Visible  bool

	self     Node
	parent   Node
	children []Node
}

func (o *Object3D) init(self Node, name string) {
	o.Name = name
	o.Visible = true
	o.self = self
}

// Object returns o.
func (o *Object3D) Object() *Object3D { return o }

// LocalMatrix is a plain translation.
func (o *Object3D) LocalMatrix() math3d.Mat4 {
	return math3d.Translate(o.Position)
}

// Parent returns the parent node, or nil.
func (o *Object3D) Parent() Node { return o.parent }

// Children returns the direct children. The slice must not be modified.
func (o *Object3D) Children() []Node { return o.children }

// Add attaches nodes as children, detaching them from any previous parent.
// A node is never added to itself.
func (o *Object3D) Add(nodes ...Node) {
	for _, n := range nodes {
		obj := n.Object()
		if obj == o {
			continue
		}
		if obj.parent != nil {
			obj.parent.Object().Remove(n)
		}
		obj.parent = o.self
		o.children = append(o.children, n)
	}
}

// Remove detaches a direct child.
func (o *Object3D) Remove(n Node) {
	i := slices.Index(o.children, n)
	if i < 0 {
		return
	}
	o.children = slices.Delete(o.children, i, i+1)
	n.Object().parent = nil
}

// WorldMatrix returns the node's transform relative to the root of its graph.
func WorldMatrix(n Node) math3d.Mat4 {
	m := n.LocalMatrix()
	for p := n.Object().parent; p != nil; p = p.Object().parent {
		m = p.LocalMatrix().Mul(m)
	}
	return m
}

// WorldPosition returns the node origin in world space.
func WorldPosition(n Node) math3d.Vec3 {
	return WorldMatrix(n).Translation()
}

// Traverse visits n and its visible descendants depth-first, passing each
// node's world matrix.
func Traverse(n Node, fn func(n Node, world math3d.Mat4)) {
	traverse(n, math3d.Identity(), fn)
}

func traverse(n Node, parent math3d.Mat4, fn func(Node, math3d.Mat4)) {
	obj := n.Object()
	if !obj.Visible {
		return
	}
	world := parent.Mul(n.LocalMatrix())
	fn(n, world)
	for _, c := range obj.children {
		traverse(c, world, fn)
	}
}

// Group is an empty node that only holds children.
type Group struct {
	Object3D
}

// NewGroup creates a named group.
func NewGroup(name string) *Group {
	g := &Group{}
	g.init(g, name)
	return g
}
