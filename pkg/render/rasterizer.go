package render

import (
	"image/color"
	"math"

	"github.com/taigrr/orbitview/pkg/math3d"
	"github.com/taigrr/orbitview/pkg/scene"
)

// ShadedVertex is a vertex after the vertex stage: clip-space position plus
// the lighting computed for it.
type ShadedVertex struct {
	Clip     math3d.Vec4
	Diffuse  scene.Color // light reaching the surface, multiplied by the base color
	Specular scene.Color // added on top of the diffuse term
	UV       math3d.Vec2
}

// Surface describes how a triangle's pixels are colored.
type Surface struct {
	Base     scene.Color
	Emissive scene.Color
	Texture  *Texture // optional, modulates Base
	// DoubleSided disables back-face culling.
	DoubleSided bool
}

// Rasterizer handles software triangle rasterization into a framebuffer.
type Rasterizer struct {
	fb      *Framebuffer
	zbuffer []float64 // Depth buffer (1D array, row-major)
}

// NewRasterizer creates a new rasterizer.
func NewRasterizer(fb *Framebuffer) *Rasterizer {
	r := &Rasterizer{fb: fb}
	r.Resize()
	return r
}

// Resize resizes the rasterizer's depth buffer to match the framebuffer.
func (r *Rasterizer) Resize() {
	if r.fb == nil {
		r.zbuffer = nil
		return
	}
	r.zbuffer = make([]float64, r.fb.Width*r.fb.Height)
	r.ClearDepth()
}

// Width returns the framebuffer width.
func (r *Rasterizer) Width() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Width
}

// Height returns the framebuffer height.
func (r *Rasterizer) Height() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Height
}

// ClearDepth clears the Z-buffer (call before each frame).
func (r *Rasterizer) ClearDepth() {
	// Use copy-doubling for faster clearing
	n := len(r.zbuffer)
	if n == 0 {
		return
	}
	r.zbuffer[0] = math.MaxFloat64
	for i := 1; i < n; i *= 2 {
		copy(r.zbuffer[i:], r.zbuffer[:i])
	}
}

// getDepth returns the depth at (x, y).
func (r *Rasterizer) getDepth(x, y int) float64 {
	if x < 0 || x >= r.Width() || y < 0 || y >= r.Height() {
		return -math.MaxFloat64
	}
	return r.zbuffer[y*r.Width()+x]
}

// nearClip is the distance to the near plane in clip space (z + w).
func nearClip(v ShadedVertex) float64 {
	return v.Clip.Z + v.Clip.W
}

func lerpVertex(a, b ShadedVertex, t float64) ShadedVertex {
	lerp := func(x, y float64) float64 { return x + (y-x)*t }
	return ShadedVertex{
		Clip: math3d.Vec4{
			X: lerp(a.Clip.X, b.Clip.X),
			Y: lerp(a.Clip.Y, b.Clip.Y),
			Z: lerp(a.Clip.Z, b.Clip.Z),
			W: lerp(a.Clip.W, b.Clip.W),
		},
		Diffuse:  scene.Color{R: lerp(a.Diffuse.R, b.Diffuse.R), G: lerp(a.Diffuse.G, b.Diffuse.G), B: lerp(a.Diffuse.B, b.Diffuse.B)},
		Specular: scene.Color{R: lerp(a.Specular.R, b.Specular.R), G: lerp(a.Specular.G, b.Specular.G), B: lerp(a.Specular.B, b.Specular.B)},
		UV:       math3d.V2(lerp(a.UV.X, b.UV.X), lerp(a.UV.Y, b.UV.Y)),
	}
}

// DrawTriangle clips a triangle against the near plane and rasterizes the
// result. It returns the number of pixels written.
func (r *Rasterizer) DrawTriangle(tri [3]ShadedVertex, s *Surface) int {
	inside := 0
	for _, v := range tri {
		if nearClip(v) >= 0 {
			inside++
		}
	}
	switch inside {
	case 0:
		return 0
	case 3:
		return r.rasterize(tri, s)
	}

	// Sutherland-Hodgman against the near plane; at most four vertices.
	poly := make([]ShadedVertex, 0, 4)
	for i := range 3 {
		a, b := tri[i], tri[(i+1)%3]
		da, db := nearClip(a), nearClip(b)
		if da >= 0 {
			poly = append(poly, a)
		}
		if (da >= 0) != (db >= 0) {
			poly = append(poly, lerpVertex(a, b, da/(da-db)))
		}
	}
	drawn := 0
	for i := 1; i+1 < len(poly); i++ {
		drawn += r.rasterize([3]ShadedVertex{poly[0], poly[i], poly[i+1]}, s)
	}
	return drawn
}

// screenVertex holds a vertex transformed to screen space.
type screenVertex struct {
	X, Y float64 // Screen coordinates
	Z    float64 // NDC depth (for Z-buffer)
	InvW float64 // 1/w for perspective-correct interpolation
}

func (r *Rasterizer) rasterize(tri [3]ShadedVertex, s *Surface) int {
	width, height := float64(r.Width()), float64(r.Height())
	if width == 0 || height == 0 {
		return 0
	}

	var sv [3]screenVertex
	for i, v := range tri {
		if v.Clip.W <= 0 {
			return 0
		}
		invW := 1 / v.Clip.W
		ndc := v.Clip.PerspectiveDivide()
		sv[i] = screenVertex{
			X:    (ndc.X + 1) * 0.5 * width,
			Y:    (1 - ndc.Y) * 0.5 * height, // Y flipped
			Z:    ndc.Z,
			InvW: invW,
		}
	}

	// Signed area in screen space. Y is flipped, so counter-clockwise
	// front faces have negative area here.
	area := (sv[1].X-sv[0].X)*(sv[2].Y-sv[0].Y) - (sv[2].X-sv[0].X)*(sv[1].Y-sv[0].Y)
	if area == 0 || (area > 0 && !s.DoubleSided) {
		return 0
	}

	minX := int(math.Max(0, math.Floor(min3(sv[0].X, sv[1].X, sv[2].X))))
	maxX := int(math.Min(width-1, math.Ceil(max3(sv[0].X, sv[1].X, sv[2].X))))
	minY := int(math.Max(0, math.Floor(min3(sv[0].Y, sv[1].Y, sv[2].Y))))
	maxY := int(math.Min(height-1, math.Ceil(max3(sv[0].Y, sv[1].Y, sv[2].Y))))

	invArea := 1 / area
	drawn := 0
	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5

			// Edge functions divided by the area give barycentric weights
			// for either winding.
			b0 := edge(sv[1], sv[2], px, py) * invArea
			b1 := edge(sv[2], sv[0], px, py) * invArea
			b2 := 1 - b0 - b1
			if b0 < 0 || b1 < 0 || b2 < 0 {
				continue
			}

			z := b0*sv[0].Z + b1*sv[1].Z + b2*sv[2].Z
			if z > 1 || z >= r.getDepth(x, y) {
				continue
			}

			// Perspective-correct weights.
			w0, w1, w2 := b0*sv[0].InvW, b1*sv[1].InvW, b2*sv[2].InvW
			norm := 1 / (w0 + w1 + w2)
			w0, w1, w2 = w0*norm, w1*norm, w2*norm

			r.zbuffer[y*r.Width()+x] = z
			r.fb.SetPixel(x, y, shade(tri, s, w0, w1, w2))
			drawn++
		}
	}
	return drawn
}

func edge(a, b screenVertex, px, py float64) float64 {
	return (b.X-a.X)*(py-a.Y) - (b.Y-a.Y)*(px-a.X)
}

func shade(tri [3]ShadedVertex, s *Surface, w0, w1, w2 float64) color.RGBA {
	mix := func(c0, c1, c2 scene.Color) scene.Color {
		return c0.Scale(w0).Add(c1.Scale(w1)).Add(c2.Scale(w2))
	}
	base := s.Base
	if s.Texture != nil {
		u := tri[0].UV.X*w0 + tri[1].UV.X*w1 + tri[2].UV.X*w2
		v := tri[0].UV.Y*w0 + tri[1].UV.Y*w1 + tri[2].UV.Y*w2
		base = base.Mul(s.Texture.SampleColor(u, v))
	}
	c := base.Mul(mix(tri[0].Diffuse, tri[1].Diffuse, tri[2].Diffuse)).
		Add(mix(tri[0].Specular, tri[1].Specular, tri[2].Specular)).
		Add(s.Emissive)
	r, g, b := c.RGBA8()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}
