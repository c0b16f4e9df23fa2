package models

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/taigrr/orbitview/pkg/math3d"
)

const quadOBJ = `mtllib robin.mtl
o body
v 0 0 0
v 2 0 0
v 2 2 0
v 0 2 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
usemtl body
f 1/1/1 2/2/1 3/3/1 4/4/1
o beak
v 0 0 1
v 1 0 1
v 0 1 1
usemtl beak
f -3 -2 -1
`

func testLibrary(t *testing.T) *MaterialLibrary {
	t.Helper()
	lib, err := ParseMTL(strings.NewReader(robinMTL))
	if err != nil {
		t.Fatal(err)
	}
	return lib
}

func TestParseOBJObjects(t *testing.T) {
	model, err := ParseOBJ(strings.NewReader(quadOBJ), testLibrary(t))
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}

	if len(model.MaterialLibs) != 1 || model.MaterialLibs[0] != "robin.mtl" {
		t.Errorf("MaterialLibs = %v", model.MaterialLibs)
	}
	if len(model.Objects) != 2 {
		t.Fatalf("got %d objects, want 2", len(model.Objects))
	}

	body := model.Objects[0]
	if body.Name != "body" {
		t.Errorf("first object name = %q", body.Name)
	}
	if body.VertexCount() != 4 || body.TriangleCount() != 2 {
		t.Errorf("quad: %d vertices, %d triangles", body.VertexCount(), body.TriangleCount())
	}
	if body.Faces[0].Material != 0 || body.Materials[0].Name != "body" {
		t.Errorf("quad should be bound to material 'body'")
	}
	if body.Vertices[2].UV != math3d.V2(1, 1) {
		t.Errorf("uv = %v", body.Vertices[2].UV)
	}
	if body.BoundsMax != math3d.V3(2, 2, 0) {
		t.Errorf("bounds max = %v", body.BoundsMax)
	}

	beak := model.Objects[1]
	if beak.TriangleCount() != 1 || beak.Materials[0].Name != "beak" {
		t.Errorf("beak: %d triangles, materials %v", beak.TriangleCount(), beak.Materials)
	}
	// No vn statements were used, so normals are generated: +Z for this triangle.
	if !beak.Vertices[0].Normal.ApproxEqual(math3d.V3(0, 0, 1), 1e-9) {
		t.Errorf("generated normal = %v", beak.Vertices[0].Normal)
	}
}

func TestParseOBJWithoutLibrary(t *testing.T) {
	model, err := ParseOBJ(strings.NewReader(quadOBJ), nil)
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}
	for _, f := range model.Objects[0].Faces {
		if f.Material != -1 {
			t.Errorf("face material = %d, want -1", f.Material)
		}
	}
}

func TestParseOBJDefaultObject(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\ng wing\nf 1 2 3\n"
	model, err := ParseOBJ(strings.NewReader(src), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(model.Objects) != 1 || model.Objects[0].Name != "wing" {
		t.Errorf("objects = %+v", model.Objects)
	}
}

func TestParseOBJGroupsStartObjects(t *testing.T) {
	src := strings.NewReplacer("o body", "g body", "o beak", "g beak").Replace(quadOBJ)
	model, err := ParseOBJ(strings.NewReader(src), testLibrary(t))
	if err != nil {
		t.Fatalf("ParseOBJ: %v", err)
	}
	if len(model.Objects) != 2 {
		t.Fatalf("got %d objects, want 2", len(model.Objects))
	}
	tests := []struct {
		name      string
		triangles int
	}{
		{"body", 2},
		{"beak", 1},
	}
	for i, tt := range tests {
		o := model.Objects[i]
		if o.Name != tt.name || o.TriangleCount() != tt.triangles {
			t.Errorf("object %d = %q with %d triangles, want %q with %d", i, o.Name, o.TriangleCount(), tt.name, tt.triangles)
		}
	}
	if model.Objects[0].BoundsMax != math3d.V3(2, 2, 0) {
		t.Errorf("body bounds max = %v", model.Objects[0].BoundsMax)
	}
}

func TestParseOBJSharedVertices(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nv 1 1 0\nf 1 2 3\nf 2 4 3\n"
	model, err := ParseOBJ(strings.NewReader(src), nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := model.Objects[0].VertexCount(); got != 4 {
		t.Errorf("vertex count = %d, want 4 (shared)", got)
	}
}

func TestParseOBJErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"empty", "# nothing\n", ErrNoGeometry},
		{"vertices only", "v 0 0 0\nv 1 0 0\n", ErrNoGeometry},
		{"bad index", "v 0 0 0\nf 1 2 3\n", nil},
		{"bad float", "v 0 x 0\n", nil},
		{"short face", "v 0 0 0\nv 1 1 1\nf 1 2\n", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseOBJ(strings.NewReader(tc.src), nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestMeshBoundingSphere(t *testing.T) {
	model, err := ParseOBJ(strings.NewReader(quadOBJ), nil)
	if err != nil {
		t.Fatal(err)
	}
	s := model.Objects[0].BoundingSphere()
	if !s.Center.ApproxEqual(math3d.V3(1, 1, 0), 1e-9) {
		t.Errorf("center = %v", s.Center)
	}
	if math.Abs(s.Radius-math.Sqrt2) > 1e-9 {
		t.Errorf("radius = %v", s.Radius)
	}
}
