package loader

import (
	"bytes"
	"context"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

func triangleGLB(t *testing.T) []byte {
	t.Helper()
	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2})
	doc.Meshes = []*gltf.Mesh{{
		Name: "tri",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: map[string]int{gltf.POSITION: pos},
		}},
	}}

	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestLoadModelGLB(t *testing.T) {
	dir := writeAssets(t, map[string][]byte{"robin.glb": triangleGLB(t)})

	var stages []Stage
	progressed := false
	model, err := LoadModel(context.Background(), LoadRequest{
		Fetcher:    FileFetcher{Dir: dir},
		Model:      "robin",
		Format:     FormatGLB,
		OnStage:    func(s Stage) { stages = append(stages, s) },
		OnProgress: func(ProgressEvent) { progressed = true },
	})
	if err != nil {
		t.Fatalf("LoadModel: %v", err)
	}
	if len(stages) != 1 || stages[0] != StageGeometry {
		t.Errorf("stages = %v, want [geometry]", stages)
	}
	if !progressed {
		t.Error("no progress reported")
	}
	if model.Materials != nil {
		t.Error("glb models carry materials on their meshes")
	}
	if n := len(model.Root.Children()); n != 1 {
		t.Errorf("children = %d, want 1", n)
	}
}
