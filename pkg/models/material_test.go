package models

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"strings"
	"testing"
)

// TestMaterialDefaults verifies default material values.
func TestMaterialDefaults(t *testing.T) {
	m := NewMaterial("test")

	if m.BaseColor != [4]float64{1, 1, 1, 1} {
		t.Errorf("Expected white opaque base color, got %v", m.BaseColor)
	}
	if m.HasTexture {
		t.Errorf("HasTexture should be false by default")
	}
}

// TestFaceMaterialIndex verifies per-face material assignment.
func TestFaceMaterialIndex(t *testing.T) {
	mesh := NewMesh("test")
	mesh.Materials = []Material{
		{Name: "red", BaseColor: [4]float64{1, 0, 0, 1}},
		{Name: "green", BaseColor: [4]float64{0, 1, 0, 1}},
	}
	mesh.Faces = []Face{
		{V: [3]int{0, 1, 2}, Material: 0},
		{V: [3]int{3, 4, 5}, Material: 1},
		{V: [3]int{6, 7, 8}, Material: -1},
	}

	if mat := mesh.GetMaterial(mesh.Faces[0].Material); mat == nil || mat.Name != "red" {
		t.Errorf("face 0 should use 'red'")
	}
	if mat := mesh.GetMaterial(mesh.Faces[2].Material); mat != nil {
		t.Errorf("GetMaterial(-1) should return nil")
	}
	if mat := mesh.GetMaterial(99); mat != nil {
		t.Errorf("GetMaterial(99) should return nil for out-of-bounds")
	}
}

// TestMeshClonePreservesMaterials verifies Clone copies materials.
func TestMeshClonePreservesMaterials(t *testing.T) {
	mesh := NewMesh("source")
	mesh.Materials = []Material{{Name: "mat1"}, {Name: "mat2"}}

	clone := mesh.Clone()
	if clone.MaterialCount() != mesh.MaterialCount() {
		t.Errorf("Clone should have %d materials, got %d", mesh.MaterialCount(), clone.MaterialCount())
	}

	clone.Materials[0].Name = "modified"
	if mesh.Materials[0].Name == "modified" {
		t.Errorf("Clone should have independent material copy")
	}
}

const robinMTL = `# two materials
newmtl body
Ka 0.1 0.1 0.1
Kd 0.8 0.4 0.2
Ks 0.5
Ns 96
d 0.9
illum 2
map_Kd -s 1 1 1 -clamp on robin body.png

newmtl beak
Kd 1 0.8 0
Tr 0.25
`

func TestParseMTL(t *testing.T) {
	lib, err := ParseMTL(strings.NewReader(robinMTL))
	if err != nil {
		t.Fatalf("ParseMTL: %v", err)
	}
	if got := lib.Names(); len(got) != 2 || got[0] != "body" || got[1] != "beak" {
		t.Fatalf("Names = %v, want [body beak]", got)
	}

	body, ok := lib.Get("body")
	if !ok {
		t.Fatal("body material missing")
	}
	if body.BaseColor != [4]float64{0.8, 0.4, 0.2, 0.9} {
		t.Errorf("body BaseColor = %v", body.BaseColor)
	}
	if body.Specular != [3]float64{0.5, 0.5, 0.5} {
		t.Errorf("single-value Ks should fill all channels, got %v", body.Specular)
	}
	if body.Shininess != 96 || body.Illum != 2 {
		t.Errorf("Ns/illum = %v/%v", body.Shininess, body.Illum)
	}
	if body.DiffuseMap != "robin body.png" {
		t.Errorf("DiffuseMap = %q, want %q", body.DiffuseMap, "robin body.png")
	}

	beak, _ := lib.Get("beak")
	if beak.BaseColor[3] != 0.75 {
		t.Errorf("Tr 0.25 should give alpha 0.75, got %v", beak.BaseColor[3])
	}
}

func TestParseMTLInvalidNumber(t *testing.T) {
	_, err := ParseMTL(strings.NewReader("newmtl a\nKd one two three\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected line-numbered error, got %v", err)
	}
}

func TestTextureFileName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"wood.png", "wood.png"},
		{"-o 0.5 0.5 wood.png", "wood.png"},
		{"-bm 0.2 -mm 0 1 bump.jpg", "bump.jpg"},
		{"-blendu off -blendv off tex/a b.png", "tex/a b.png"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := textureFileName(tc.in); got != tc.want {
				t.Errorf("textureFileName(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestPreload(t *testing.T) {
	lib := NewMaterialLibrary()
	tex := NewMaterial("textured")
	tex.DiffuseMap = "ok.png"
	lib.Add(tex)
	missing := NewMaterial("missing")
	missing.DiffuseMap = "gone.png"
	lib.Add(missing)
	lib.Add(NewMaterial("flat"))

	data := pngBytes(t)
	err := lib.Preload(func(name string) (io.ReadCloser, error) {
		if name == "ok.png" {
			return io.NopCloser(bytes.NewReader(data)), nil
		}
		return nil, os.ErrNotExist
	})
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Preload error = %v, want wrapped ErrNotExist", err)
	}

	got, _ := lib.Get("textured")
	if !got.HasTexture || got.BaseMap == nil {
		t.Error("textured material should have a decoded texture")
	}
	got, _ = lib.Get("missing")
	if got.HasTexture {
		t.Error("missing texture should leave the material untextured")
	}
}
