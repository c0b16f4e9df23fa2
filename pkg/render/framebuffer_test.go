package render

import (
	"image/color"
	"path/filepath"
	"testing"
)

func TestFramebufferBounds(t *testing.T) {
	fb := NewFramebuffer(4, 2)
	fb.SetPixel(-1, 0, color.RGBA{255, 0, 0, 255})
	fb.SetPixel(4, 0, color.RGBA{255, 0, 0, 255})
	for _, p := range fb.Pixels {
		if p != (color.RGBA{}) {
			t.Fatal("out-of-bounds SetPixel wrote into the buffer")
		}
	}
	if fb.GetPixel(10, 10) != (color.RGBA{}) {
		t.Error("out-of-bounds GetPixel should be transparent")
	}
	if NewFramebuffer(-3, 5).Width != 0 {
		t.Error("negative width should clamp to zero")
	}
}

func TestFramebufferResolve(t *testing.T) {
	src := NewFramebuffer(4, 2)
	src.Clear(color.RGBA{0, 0, 0, 255})
	src.SetPixel(0, 0, color.RGBA{200, 100, 0, 255})
	src.SetPixel(1, 1, color.RGBA{200, 100, 0, 255})

	dst := NewFramebuffer(2, 1)
	src.ResolveInto(dst)

	if got, want := dst.GetPixel(0, 0), (color.RGBA{100, 50, 0, 255}); got != want {
		t.Errorf("resolved pixel = %v, want %v", got, want)
	}
	if got, want := dst.GetPixel(1, 0), (color.RGBA{0, 0, 0, 255}); got != want {
		t.Errorf("resolved pixel = %v, want %v", got, want)
	}
}

func TestFramebufferSavePNG(t *testing.T) {
	fb := NewFramebuffer(3, 3)
	fb.Clear(color.RGBA{1, 2, 3, 255})
	path := filepath.Join(t.TempDir(), "frame.png")
	if err := fb.SavePNG(path); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
	if img := fb.ToImage(); img.RGBAAt(2, 2) != (color.RGBA{1, 2, 3, 255}) {
		t.Errorf("ToImage pixel = %v", img.RGBAAt(2, 2))
	}
}

func TestTextureSampling(t *testing.T) {
	tex := NewTexture(2, 2)
	// Row 0 is the top of the image, which is v = 1.
	tex.SetPixel(0, 0, color.RGBA{255, 0, 0, 255})
	tex.SetPixel(1, 0, color.RGBA{0, 255, 0, 255})
	tex.SetPixel(0, 1, color.RGBA{0, 0, 255, 255})
	tex.SetPixel(1, 1, color.RGBA{255, 255, 255, 255})
	tex.FilterMode = FilterNearest

	tests := []struct {
		name string
		u, v float64
		want color.RGBA
	}{
		{"top left", 0.25, 0.75, color.RGBA{255, 0, 0, 255}},
		{"top right", 0.75, 0.75, color.RGBA{0, 255, 0, 255}},
		{"bottom left", 0.25, 0.25, color.RGBA{0, 0, 255, 255}},
		{"repeat", 1.25, 0.75, color.RGBA{255, 0, 0, 255}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tex.Sample(tc.u, tc.v); got != tc.want {
				t.Errorf("Sample(%v, %v) = %v, want %v", tc.u, tc.v, got, tc.want)
			}
		})
	}

	tex.FilterMode = FilterBilinear
	tex.WrapU, tex.WrapV = WrapClamp, WrapClamp
	mid := tex.Sample(0.5, 0.75)
	if mid.R == 0 || mid.G == 0 {
		t.Errorf("bilinear midpoint = %v, want a blend of red and green", mid)
	}
}
