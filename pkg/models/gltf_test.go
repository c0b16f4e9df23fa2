package models

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

func TestGLTFLoaderCreation(t *testing.T) {
	loader := NewGLTFLoader()
	if !loader.CalculateNormals {
		t.Error("CalculateNormals should default to true")
	}
	if !loader.SmoothNormals {
		t.Error("SmoothNormals should default to true")
	}
}

func TestLoadGLBInvalid(t *testing.T) {
	if _, err := LoadGLB(strings.NewReader("not a glb")); err == nil {
		t.Error("Expected error for garbage input")
	}
}

// triangleDoc builds a single-triangle document. A non-negative posAccessor
// replaces the POSITION reference.
func triangleDoc(indices []uint16, posAccessor int) *gltf.Document {
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	idx := modeler.WriteIndices(doc, indices)
	if posAccessor >= 0 {
		pos = posAccessor
	}
	doc.Meshes = []*gltf.Mesh{{
		Name: "tri",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: map[string]int{gltf.POSITION: pos},
		}},
	}}
	return doc
}

func encodeGLB(t *testing.T, doc *gltf.Document) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func encodeTriangleGLB(t *testing.T) []byte {
	t.Helper()
	return encodeGLB(t, triangleDoc([]uint16{0, 1, 2}, -1))
}

func TestLoadGLBMalformedReferences(t *testing.T) {
	tests := []struct {
		name string
		doc  *gltf.Document
	}{
		{"index past vertices", triangleDoc([]uint16{0, 1, 7}, -1)},
		{"missing position accessor", triangleDoc([]uint16{0, 1, 2}, 99)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := encodeGLB(t, tt.doc)
			if _, err := LoadGLB(bytes.NewReader(data)); err == nil {
				t.Error("expected an error for a malformed document")
			}
		})
	}
}

func TestLoadGLBTriangle(t *testing.T) {
	meshes, err := LoadGLB(bytes.NewReader(encodeTriangleGLB(t)))
	if err != nil {
		t.Fatalf("LoadGLB: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("got %d meshes", len(meshes))
	}
	m := meshes[0]
	if m.Name != "tri" || m.TriangleCount() != 1 || m.VertexCount() != 3 {
		t.Errorf("mesh %q: %d triangles, %d vertices", m.Name, m.TriangleCount(), m.VertexCount())
	}
	if !m.HasNormals() {
		t.Error("normals should be generated")
	}
}

func TestLoadGLBNoMeshes(t *testing.T) {
	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	if err := enc.Encode(gltf.NewDocument()); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadGLB(&buf); !errors.Is(err, ErrNoGeometry) {
		t.Errorf("err = %v, want ErrNoGeometry", err)
	}
}
