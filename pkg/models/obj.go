package models

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/taigrr/orbitview/pkg/math3d"
)

// OBJModel is a parsed Wavefront OBJ file.
type OBJModel struct {
	// MaterialLibs lists the mtllib references in the file.
	MaterialLibs []string
	// Objects holds one mesh per "o" statement, in file order. Objects
	// without faces are dropped.
	Objects []*Mesh
}

// TriangleCount returns the number of triangles across all objects.
func (m *OBJModel) TriangleCount() int {
	n := 0
	for _, o := range m.Objects {
		n += o.TriangleCount()
	}
	return n
}

// VertexCount returns the number of vertices across all objects.
func (m *OBJModel) VertexCount() int {
	n := 0
	for _, o := range m.Objects {
		n += o.VertexCount()
	}
	return n
}

type objVertexKey struct {
	v, vt, vn int
}

// objBuilder accumulates the object currently being parsed.
type objBuilder struct {
	mesh       *Mesh
	vertexMap  map[objVertexKey]int
	materials  map[string]int
	hasNormals bool
}

func newObjBuilder(name string) *objBuilder {
	return &objBuilder{
		mesh:      NewMesh(name),
		vertexMap: make(map[objVertexKey]int),
		materials: make(map[string]int),
	}
}

type objParser struct {
	lib       *MaterialLibrary
	positions []math3d.Vec3
	uvs       []math3d.Vec2
	normals   []math3d.Vec3

	model   *OBJModel
	cur     *objBuilder
	matName string
}

// ParseOBJ parses Wavefront OBJ geometry and binds "usemtl" references to
// lib. lib may be nil, in which case faces carry no material.
func ParseOBJ(r io.Reader, lib *MaterialLibrary) (*OBJModel, error) {
	p := &objParser{
		lib:   lib,
		model: &OBJModel{},
	}
	p.cur = newObjBuilder("")

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		// Line continuations.
		for strings.HasSuffix(line, "\\") && sc.Scan() {
			lineNo++
			line = strings.TrimSuffix(line, "\\") + " " + strings.TrimSpace(sc.Text())
		}
		if err := p.parseLine(line); err != nil {
			return nil, fmt.Errorf("obj line %d: %w", lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read obj: %w", err)
	}

	p.finishObject()
	if len(p.model.Objects) == 0 {
		return nil, ErrNoGeometry
	}
	return p.model, nil
}

func (p *objParser) parseLine(line string) error {
	fields := strings.Fields(line)
	args := fields[1:]

	switch fields[0] {
	case "v":
		v, err := parseFloats(args, 3)
		if err != nil {
			return fmt.Errorf("vertex: %w", err)
		}
		p.positions = append(p.positions, math3d.V3(v[0], v[1], v[2]))
	case "vt":
		if len(args) == 0 {
			return fmt.Errorf("texture coordinate: no values")
		}
		v, err := parseFloats(args, min(len(args), 2))
		if err != nil {
			return fmt.Errorf("texture coordinate: %w", err)
		}
		uv := math3d.V2(v[0], 0)
		if len(v) > 1 {
			uv.Y = v[1]
		}
		p.uvs = append(p.uvs, uv)
	case "vn":
		v, err := parseFloats(args, 3)
		if err != nil {
			return fmt.Errorf("normal: %w", err)
		}
		p.normals = append(p.normals, math3d.V3(v[0], v[1], v[2]))
	case "f":
		return p.parseFace(args)
	case "o", "g":
		p.startObject(strings.Join(args, " "))
	case "usemtl":
		// The active material carries over into following objects.
		p.matName = strings.Join(args, " ")
	case "mtllib":
		p.model.MaterialLibs = append(p.model.MaterialLibs, strings.Join(args, " "))
	}
	// s, l, p and unknown statements are ignored.
	return nil
}

func (p *objParser) startObject(name string) {
	if len(p.cur.mesh.Faces) == 0 {
		p.cur.mesh.Name = name
		return
	}
	p.finishObject()
	p.cur = newObjBuilder(name)
}

func (p *objParser) finishObject() {
	b := p.cur
	if len(b.mesh.Faces) == 0 {
		return
	}
	if !b.hasNormals {
		b.mesh.CalculateSmoothNormals()
	}
	b.mesh.CalculateBounds()
	p.model.Objects = append(p.model.Objects, b.mesh)
}

// materialIndex returns the mesh-local index for a library material,
// adding it on first use. Unknown names give -1.
func (b *objBuilder) materialIndex(lib *MaterialLibrary, name string) int {
	if name == "" {
		return -1
	}
	if idx, ok := b.materials[name]; ok {
		return idx
	}
	m, ok := lib.Get(name)
	if !ok {
		return -1
	}
	idx := len(b.mesh.Materials)
	b.mesh.Materials = append(b.mesh.Materials, *m)
	b.materials[name] = idx
	return idx
}

func (p *objParser) parseFace(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("face needs at least 3 vertices, got %d", len(args))
	}
	idx := make([]int, len(args))
	for i, a := range args {
		vi, err := p.faceVertex(a)
		if err != nil {
			return fmt.Errorf("face vertex %q: %w", a, err)
		}
		idx[i] = vi
	}
	mat := p.cur.materialIndex(p.lib, p.matName)
	// Fan triangulation keeps the polygon's winding.
	for i := 1; i+1 < len(idx); i++ {
		p.cur.mesh.Faces = append(p.cur.mesh.Faces, Face{
			V:        [3]int{idx[0], idx[i], idx[i+1]},
			Material: mat,
		})
	}
	return nil
}

// faceVertex resolves a v, v/vt, v//vn or v/vt/vn reference to a mesh
// vertex, creating it on first use.
func (p *objParser) faceVertex(ref string) (int, error) {
	parts := strings.Split(ref, "/")
	if len(parts) > 3 {
		return 0, fmt.Errorf("too many components")
	}

	key := objVertexKey{v: -1, vt: -1, vn: -1}
	var err error
	if key.v, err = resolveIndex(parts[0], len(p.positions)); err != nil {
		return 0, err
	}
	if len(parts) > 1 && parts[1] != "" {
		if key.vt, err = resolveIndex(parts[1], len(p.uvs)); err != nil {
			return 0, err
		}
	}
	if len(parts) > 2 && parts[2] != "" {
		if key.vn, err = resolveIndex(parts[2], len(p.normals)); err != nil {
			return 0, err
		}
	}

	b := p.cur
	if vi, ok := b.vertexMap[key]; ok {
		return vi, nil
	}
	v := MeshVertex{Position: p.positions[key.v]}
	if key.vt >= 0 {
		v.UV = p.uvs[key.vt]
	}
	if key.vn >= 0 {
		v.Normal = p.normals[key.vn]
		b.hasNormals = true
	}
	vi := len(b.mesh.Vertices)
	b.mesh.Vertices = append(b.mesh.Vertices, v)
	b.vertexMap[key] = vi
	return vi, nil
}

// resolveIndex converts a 1-based or negative (relative) OBJ index to a
// 0-based one.
func resolveIndex(s string, count int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	switch {
	case n > 0 && n <= count:
		return n - 1, nil
	case n < 0 && -n <= count:
		return count + n, nil
	default:
		return 0, fmt.Errorf("index %d out of range (have %d)", n, count)
	}
}

func parseFloats(fields []string, n int) ([]float64, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("need %d values, got %d", n, len(fields))
	}
	out := make([]float64, n)
	for i := range n {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
