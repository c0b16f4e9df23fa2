package models

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/taigrr/orbitview/pkg/math3d"
)

// GLTFLoader converts binary glTF documents into meshes.
type GLTFLoader struct {
	// CalculateNormals generates normals for primitives that lack them.
	CalculateNormals bool
	SmoothNormals    bool
}

// NewGLTFLoader creates a loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals: true,
		SmoothNormals:    true,
	}
}

// LoadGLB decodes a .glb stream into one mesh per glTF mesh.
func LoadGLB(r io.Reader) ([]*Mesh, error) {
	return NewGLTFLoader().Decode(r)
}

// Decode reads a binary glTF document. External buffers are not supported;
// everything must be embedded in the GLB container.
func (l *GLTFLoader) Decode(r io.Reader) ([]*Mesh, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(r).Decode(doc); err != nil {
		return nil, fmt.Errorf("decode gltf: %w", err)
	}

	materials := make([]Material, len(doc.Materials))
	for i, m := range doc.Materials {
		materials[i] = l.convertMaterial(doc, m)
	}

	var meshes []*Mesh
	for i, m := range doc.Meshes {
		name := m.Name
		if name == "" {
			name = fmt.Sprintf("mesh_%d", i)
		}
		mesh := NewMesh(name)
		if err := l.processMesh(doc, m, mesh, materials); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", name, err)
		}
		if len(mesh.Faces) == 0 {
			continue
		}
		if l.CalculateNormals && !mesh.HasNormals() {
			if l.SmoothNormals {
				mesh.CalculateSmoothNormals()
			} else {
				mesh.CalculateNormals()
			}
		}
		mesh.CalculateBounds()
		meshes = append(meshes, mesh)
	}
	if len(meshes) == 0 {
		return nil, ErrNoGeometry
	}
	return meshes, nil
}

func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh, materials []Material) error {
	localMat := make(map[int]int)

	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			// Lines and points are not rendered.
			continue
		}
		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}

		acc, err := accessor(doc, posIdx)
		if err != nil {
			return fmt.Errorf("positions: %w", err)
		}
		positions, err := modeler.ReadPosition(doc, acc, nil)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals [][3]float32
		if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
			if acc, err = accessor(doc, idx); err != nil {
				return fmt.Errorf("normals: %w", err)
			}
			if normals, err = modeler.ReadNormal(doc, acc, nil); err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		var uvs [][2]float32
		if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			if acc, err = accessor(doc, idx); err != nil {
				return fmt.Errorf("uvs: %w", err)
			}
			if uvs, err = modeler.ReadTextureCoord(doc, acc, nil); err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}

		matIdx := -1
		if prim.Material != nil && *prim.Material < len(materials) {
			src := *prim.Material
			if idx, ok := localMat[src]; ok {
				matIdx = idx
			} else {
				matIdx = len(mesh.Materials)
				mesh.Materials = append(mesh.Materials, materials[src])
				localMat[src] = matIdx
			}
		}

		base := len(mesh.Vertices)
		for i, p := range positions {
			v := MeshVertex{Position: math3d.V3(float64(p[0]), float64(p[1]), float64(p[2]))}
			if i < len(normals) {
				n := normals[i]
				v.Normal = math3d.V3(float64(n[0]), float64(n[1]), float64(n[2]))
			}
			if i < len(uvs) {
				// glTF puts V=0 at the top of the image; textures sample with V=0 at the bottom.
				v.UV = math3d.V2(float64(uvs[i][0]), 1-float64(uvs[i][1]))
			}
			mesh.Vertices = append(mesh.Vertices, v)
		}

		var indices []uint32
		if prim.Indices != nil {
			if acc, err = accessor(doc, *prim.Indices); err != nil {
				return fmt.Errorf("indices: %w", err)
			}
			if indices, err = modeler.ReadIndices(doc, acc, nil); err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]uint32, len(positions))
			for i := range indices {
				indices[i] = uint32(i)
			}
		}

		for _, idx := range indices {
			if int(idx) >= len(positions) {
				return fmt.Errorf("index %d out of range (have %d)", idx, len(positions))
			}
		}
		for i := 0; i+2 < len(indices); i += 3 {
			mesh.Faces = append(mesh.Faces, Face{
				V:        [3]int{base + int(indices[i]), base + int(indices[i+1]), base + int(indices[i+2])},
				Material: matIdx,
			})
		}
	}
	return nil
}

// accessor returns the accessor at idx, rejecting references outside the
// document.
func accessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if idx < 0 || idx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range (have %d)", idx, len(doc.Accessors))
	}
	return doc.Accessors[idx], nil
}

func (l *GLTFLoader) convertMaterial(doc *gltf.Document, m *gltf.Material) Material {
	out := NewMaterial(m.Name)
	pbr := m.PBRMetallicRoughness
	if pbr == nil {
		return out
	}
	if pbr.BaseColorFactor != nil {
		out.BaseColor = *pbr.BaseColorFactor
	}
	if pbr.MetallicFactor != nil {
		out.Metallic = *pbr.MetallicFactor
	}
	if pbr.RoughnessFactor != nil {
		out.Roughness = *pbr.RoughnessFactor
	}
	if pbr.BaseColorTexture != nil {
		if img := embeddedImage(doc, pbr.BaseColorTexture.Index); img != nil {
			out.BaseMap = img
			out.HasTexture = true
		}
	}
	return out
}

// embeddedImage decodes the image behind a texture index when it lives in a
// buffer view. URI images are skipped since GLB streams carry no base path.
func embeddedImage(doc *gltf.Document, texIdx int) image.Image {
	if texIdx < 0 || texIdx >= len(doc.Textures) {
		return nil
	}
	src := doc.Textures[texIdx].Source
	if src == nil || *src >= len(doc.Images) {
		return nil
	}
	img := doc.Images[*src]
	if img.BufferView == nil || *img.BufferView >= len(doc.BufferViews) {
		return nil
	}
	bv := doc.BufferViews[*img.BufferView]
	if bv.Buffer >= len(doc.Buffers) {
		return nil
	}
	buf := doc.Buffers[bv.Buffer]
	if buf.Data == nil || bv.ByteOffset+bv.ByteLength > len(buf.Data) {
		return nil
	}
	decoded, _, err := image.Decode(bytes.NewReader(buf.Data[bv.ByteOffset : bv.ByteOffset+bv.ByteLength]))
	if err != nil {
		return nil
	}
	return decoded
}
