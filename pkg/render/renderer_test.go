package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/taigrr/orbitview/pkg/math3d"
	"github.com/taigrr/orbitview/pkg/models"
	"github.com/taigrr/orbitview/pkg/scene"
)

func triangleGeometry() *models.Mesh {
	m := models.NewMesh("tri")
	n := math3d.V3(0, 0, 1)
	m.Vertices = []models.MeshVertex{
		{Position: math3d.V3(-1, -1, 0), Normal: n},
		{Position: math3d.V3(1, -1, 0), Normal: n},
		{Position: math3d.V3(0, 1, 0), Normal: n},
	}
	m.Faces = []models.Face{{V: [3]int{0, 1, 2}, Material: -1}}
	m.CalculateBounds()
	return m
}

func testScene() (*scene.Scene, *scene.PerspectiveCamera, *scene.Mesh) {
	sc := scene.NewScene()
	sc.Background = scene.HexColor(0x102030)
	cam := scene.NewPerspectiveCamera(40, 1, 1, 100)
	cam.Position = math3d.V3(0, 0, 4)
	cam.LookAt(math3d.Zero3())
	sc.Add(cam)
	mesh := scene.NewMesh(triangleGeometry())
	sc.Add(mesh)
	sc.Add(scene.NewAmbientLight(scene.Color{R: 1, G: 1, B: 1}, 0.5))
	return sc, cam, mesh
}

func TestRendererClearsToBackground(t *testing.T) {
	sc, cam, _ := testScene()
	r := NewRenderer(Options{})
	r.SetSize(20, 20)
	r.Render(sc, cam)

	want := color.RGBA{0x10, 0x20, 0x30, 255}
	if got := r.Frame().GetPixel(0, 0); got != want {
		t.Errorf("corner = %v, want background %v", got, want)
	}
	if got := r.Frame().GetPixel(10, 10); got == want {
		t.Error("center pixel should show the mesh")
	}
	info := r.Info()
	if info.Frames != 1 || info.Meshes != 1 || info.Triangles != 1 || info.Pixels == 0 {
		t.Errorf("info = %+v", info)
	}
}

func TestRendererSizes(t *testing.T) {
	tests := []struct {
		name       string
		antialias  bool
		ratio      float64
		wantTarget int
	}{
		{"plain", false, 1, 30},
		{"antialias", true, 1, 60},
		{"ratio 2", false, 2, 60},
		{"antialias ratio 2", true, 2, 120},
		{"bad ratio", false, -1, 30},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := NewRenderer(Options{Antialias: tc.antialias})
			r.SetPixelRatio(tc.ratio)
			r.SetSize(30, 20)

			if w, h := r.Size(); w != 30 || h != 20 {
				t.Errorf("Size() = %dx%d", w, h)
			}
			if r.Frame().Width != 30 || r.Frame().Height != 20 {
				t.Errorf("frame = %dx%d, want logical size", r.Frame().Width, r.Frame().Height)
			}
			if r.target.Width != tc.wantTarget {
				t.Errorf("internal width = %d, want %d", r.target.Width, tc.wantTarget)
			}
		})
	}
}

func TestRendererAntialiasSoftensEdges(t *testing.T) {
	sc, cam, _ := testScene()
	r := NewRenderer(Options{Antialias: true})
	r.SetSize(20, 20)
	r.Render(sc, cam)

	bg := color.RGBA{0x10, 0x20, 0x30, 255}
	var mixed bool
	for _, p := range r.Frame().Pixels {
		if p != bg && p.R > bg.R && p.R < 127 {
			mixed = true
			break
		}
	}
	if !mixed {
		t.Error("expected some blended edge pixels")
	}
}

func TestRendererCullsOutsideFrustum(t *testing.T) {
	sc, cam, mesh := testScene()
	mesh.Position = math3d.V3(0, 0, 10) // behind the camera
	r := NewRenderer(Options{})
	r.SetSize(10, 10)
	r.Render(sc, cam)

	if info := r.Info(); info.Culled != 1 || info.Meshes != 0 {
		t.Errorf("info = %+v, want one culled mesh", info)
	}
}

func TestRendererCameraLight(t *testing.T) {
	sc, cam, _ := testScene()
	r := NewRenderer(Options{})
	r.SetSize(20, 20)

	r.Render(sc, cam)
	unlit := r.Frame().GetPixel(10, 10)

	cam.Add(scene.NewPointLight(scene.Color{R: 1, G: 1, B: 1}, 0.8))
	r.Render(sc, cam)
	lit := r.Frame().GetPixel(10, 10)

	if lit.R <= unlit.R {
		t.Errorf("camera light should brighten the mesh: %v <= %v", lit, unlit)
	}
}

func TestRendererEnvironment(t *testing.T) {
	sc, cam, _ := testScene()
	r := NewRenderer(Options{})
	r.SetSize(20, 20)

	r.Render(sc, cam)
	plain := r.Frame().GetPixel(10, 10)

	sc.Environment = scene.NewEnvironment(scene.NewRoomEnvironment(), 0.04)
	r.Render(sc, cam)
	withEnv := r.Frame().GetPixel(10, 10)

	if withEnv.R <= plain.R {
		t.Errorf("environment should add light: %v <= %v", withEnv, plain)
	}
}

func TestRendererMaterialTexture(t *testing.T) {
	sc, cam, mesh := testScene()
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Set(0, 0, color.RGBA{0, 255, 0, 255})
	mat := models.NewMaterial("green")
	mat.BaseMap = img
	mat.HasTexture = true
	mesh.Geometry.Materials = []models.Material{mat}
	mesh.Geometry.Faces[0].Material = 0

	r := NewRenderer(Options{})
	r.SetSize(20, 20)
	r.Render(sc, cam)

	if got := r.Frame().GetPixel(10, 10); got.G == 0 || got.R != 0 || got.B != 0 {
		t.Errorf("center = %v, want green", got)
	}
	if len(r.textures) != 1 {
		t.Errorf("texture cache has %d entries, want 1", len(r.textures))
	}
}

func TestRendererZeroSize(t *testing.T) {
	sc, cam, _ := testScene()
	r := NewRenderer(Options{Antialias: true})
	r.Render(sc, cam)
	if info := r.Info(); info.Frames != 1 || info.Meshes != 0 {
		t.Errorf("info = %+v", info)
	}
}
