package render

import (
	"image"
	"image/color"
	"math"

	"github.com/taigrr/orbitview/pkg/math3d"
	"github.com/taigrr/orbitview/pkg/models"
	"github.com/taigrr/orbitview/pkg/scene"
)

// Options configures a Renderer.
type Options struct {
	// Antialias renders at twice the resolution and box-filters the result.
	Antialias bool
}

// Info holds counters for the most recent frame.
type Info struct {
	Frames    int // total frames rendered
	Meshes    int // meshes drawn in the last frame
	Culled    int // meshes rejected by the frustum test in the last frame
	Triangles int // triangles submitted in the last frame
	Pixels    int // pixels written in the last frame, at internal resolution
}

// Renderer draws a scene from a camera into a framebuffer of a logical size.
// Internally it renders at size × pixel ratio (× 2 with antialiasing) and
// resolves down to the logical size.
type Renderer struct {
	opts       Options
	pixelRatio float64
	width      int
	height     int

	target *Framebuffer // internal resolution
	frame  *Framebuffer // logical resolution
	raster *Rasterizer

	textures map[image.Image]*Texture
	info     Info
}

// NewRenderer creates a renderer with a zero size and pixel ratio 1.
func NewRenderer(opts Options) *Renderer {
	r := &Renderer{
		opts:       opts,
		pixelRatio: 1,
		textures:   make(map[image.Image]*Texture),
	}
	r.allocate()
	return r
}

// SetPixelRatio sets the device pixel ratio. Non-positive values are
// treated as 1. Ratios are rounded to whole supersampling factors.
func (r *Renderer) SetPixelRatio(ratio float64) {
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		ratio = 1
	}
	r.pixelRatio = ratio
	r.allocate()
}

// PixelRatio returns the configured pixel ratio.
func (r *Renderer) PixelRatio() float64 { return r.pixelRatio }

// SetSize sets the logical output size in pixels.
func (r *Renderer) SetSize(width, height int) {
	r.width, r.height = max(width, 0), max(height, 0)
	r.allocate()
}

// Size returns the logical output size.
func (r *Renderer) Size() (width, height int) { return r.width, r.height }

// Frame returns the last rendered frame at the logical size.
func (r *Renderer) Frame() *Framebuffer { return r.frame }

// Info returns counters for the last frame.
func (r *Renderer) Info() Info { return r.info }

func (r *Renderer) scale() int {
	s := max(int(math.Round(r.pixelRatio)), 1)
	if r.opts.Antialias {
		s *= 2
	}
	return s
}

func (r *Renderer) allocate() {
	s := r.scale()
	r.frame = NewFramebuffer(r.width, r.height)
	if s == 1 {
		r.target = r.frame
	} else {
		r.target = NewFramebuffer(r.width*s, r.height*s)
	}
	r.raster = NewRasterizer(r.target)
}

// texture returns the cached texture for img.
func (r *Renderer) texture(img image.Image) *Texture {
	if img == nil {
		return nil
	}
	if t, ok := r.textures[img]; ok {
		return t
	}
	t := TextureFromImage(img)
	r.textures[img] = t
	return t
}

type pointLight struct {
	position  math3d.Vec3
	radiance  scene.Color
	intensity float64
	light     *scene.PointLight
}

// lighting is the per-frame light setup.
type lighting struct {
	ambient   scene.Color
	env       *scene.Environment
	envScale  float64
	points    []pointLight
	cameraPos math3d.Vec3
}

func collectLights(sc *scene.Scene, cam *scene.PerspectiveCamera) lighting {
	l := lighting{
		env:       sc.Environment,
		envScale:  sc.EnvironmentIntensity,
		cameraPos: scene.WorldPosition(cam),
	}
	ambient, points := sc.Lights()
	for _, a := range ambient {
		l.ambient = l.ambient.Add(a.Color.Scale(a.Intensity))
	}
	// Lights attached to a camera outside the scene graph still count.
	if cam.Parent() == nil {
		for _, c := range cam.Children() {
			if p, ok := c.(*scene.PointLight); ok && p.Visible {
				points = append(points, p)
			}
		}
	}
	for _, p := range points {
		l.points = append(l.points, pointLight{
			position:  scene.WorldPosition(p),
			radiance:  p.Color,
			intensity: p.Intensity,
			light:     p,
		})
	}
	return l
}

// diffuse returns the light reaching a surface point, before the base color.
func (l *lighting) diffuse(pos, n math3d.Vec3) scene.Color {
	c := l.ambient
	if l.env != nil {
		c = c.Add(l.env.Irradiance(n).Scale(l.envScale))
	}
	for _, p := range l.points {
		toLight := p.position.Sub(pos)
		d := toLight.Len()
		if d == 0 {
			continue
		}
		ndotl := n.Dot(toLight.Scale(1 / d))
		if ndotl <= 0 {
			continue
		}
		c = c.Add(p.radiance.Scale(p.intensity * p.light.Attenuation(d) * ndotl))
	}
	return c
}

// specular returns the Blinn-Phong highlight for a material.
func (l *lighting) specular(pos, n math3d.Vec3, ks scene.Color, shininess float64) scene.Color {
	if ks == (scene.Color{}) {
		return scene.Color{}
	}
	view := l.cameraPos.Sub(pos).Normalize()
	var c scene.Color
	for _, p := range l.points {
		toLight := p.position.Sub(pos)
		d := toLight.Len()
		if d == 0 {
			continue
		}
		ld := toLight.Scale(1 / d)
		if n.Dot(ld) <= 0 {
			continue
		}
		h := ld.Add(view).Normalize()
		s := math.Pow(math.Max(0, n.Dot(h)), math.Max(shininess, 1))
		c = c.Add(p.radiance.Scale(p.intensity * p.light.Attenuation(d) * s))
	}
	return c.Mul(ks)
}

// Render draws sc from cam. The camera's projection matrix is used as last
// updated; the renderer never recomputes it.
func (r *Renderer) Render(sc *scene.Scene, cam *scene.PerspectiveCamera) {
	r.info.Frames++
	r.info.Meshes, r.info.Culled, r.info.Triangles, r.info.Pixels = 0, 0, 0, 0

	bgR, bgG, bgB := sc.Background.RGBA8()
	r.target.Clear(color.RGBA{R: bgR, G: bgG, B: bgB, A: 255})
	r.raster.ClearDepth()

	if r.target.Width > 0 && r.target.Height > 0 {
		viewProj := cam.ViewProjectionMatrix()
		frustum := NewFrustumFromMatrix(viewProj)
		lights := collectLights(sc, cam)

		scene.Traverse(sc, func(n scene.Node, world math3d.Mat4) {
			m, ok := n.(*scene.Mesh)
			if !ok || m.Geometry == nil {
				return
			}
			sphere, ok := m.BoundingSphere()
			if !ok {
				sphere = m.ComputeBoundingSphere()
			}
			sphere.Center = world.MulVec3(sphere.Center)
			if !frustum.IntersectsSphere(sphere) {
				r.info.Culled++
				return
			}
			r.info.Meshes++
			r.drawMesh(m, world, viewProj, &lights)
		})
	}

	if r.target != r.frame {
		r.target.ResolveInto(r.frame)
	}
}

type worldVertex struct {
	pos     math3d.Vec3
	normal  math3d.Vec3
	clip    math3d.Vec4
	diffuse scene.Color
}

func (r *Renderer) drawMesh(m *scene.Mesh, world, viewProj math3d.Mat4, lights *lighting) {
	g := m.Geometry
	verts := make([]worldVertex, len(g.Vertices))
	for i, v := range g.Vertices {
		pos := world.MulVec3(v.Position)
		n := world.MulVec3Dir(v.Normal).Normalize()
		verts[i] = worldVertex{
			pos:     pos,
			normal:  n,
			clip:    viewProj.MulVec4(math3d.V4FromV3(pos, 1)),
			diffuse: lights.diffuse(pos, n),
		}
	}

	fallback := models.NewMaterial("")
	surfaces := make([]Surface, len(g.Materials)+1)
	surfaces[0] = surfaceFor(&fallback, nil, m.DoubleSided)
	for i := range g.Materials {
		mat := &g.Materials[i]
		var tex *Texture
		if mat.HasTexture {
			tex = r.texture(mat.BaseMap)
		}
		surfaces[i+1] = surfaceFor(mat, tex, m.DoubleSided)
	}

	for _, f := range g.Faces {
		mat := g.GetMaterial(f.Material)
		s := &surfaces[0]
		if mat != nil {
			s = &surfaces[f.Material+1]
		} else {
			mat = &fallback
		}
		ks := scene.Color{R: mat.Specular[0], G: mat.Specular[1], B: mat.Specular[2]}

		var tri [3]ShadedVertex
		for k, idx := range f.V {
			wv := verts[idx]
			tri[k] = ShadedVertex{
				Clip:     wv.clip,
				Diffuse:  wv.diffuse,
				Specular: lights.specular(wv.pos, wv.normal, ks, mat.Shininess),
				UV:       g.Vertices[idx].UV,
			}
		}
		r.info.Triangles++
		r.info.Pixels += r.raster.DrawTriangle(tri, s)
	}
}

func surfaceFor(mat *models.Material, tex *Texture, doubleSided bool) Surface {
	return Surface{
		Base:        scene.Color{R: mat.BaseColor[0], G: mat.BaseColor[1], B: mat.BaseColor[2]},
		Emissive:    scene.Color{R: mat.Emissive[0], G: mat.Emissive[1], B: mat.Emissive[2]},
		Texture:     tex,
		DoubleSided: doubleSided,
	}
}
