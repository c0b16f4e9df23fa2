package loader

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/taigrr/orbitview/pkg/models"
	"github.com/taigrr/orbitview/pkg/scene"
)

// MTLLoader loads Wavefront material libraries and their textures.
type MTLLoader struct {
	fetcher Fetcher
	path    string
	log     *zap.Logger
}

// NewMTLLoader creates a material loader. log may be nil.
func NewMTLLoader(f Fetcher, log *zap.Logger) *MTLLoader {
	if log == nil {
		log = zap.NewNop()
	}
	return &MTLLoader{fetcher: f, log: log}
}

// SetPath sets the prefix for the library and the textures it references.
func (l *MTLLoader) SetPath(p string) *MTLLoader {
	l.path = p
	return l
}

// Load fetches and parses a material library, then decodes its textures.
// A texture that cannot be loaded is logged and its material keeps the flat
// diffuse color.
func (l *MTLLoader) Load(ctx context.Context, name string) (*models.MaterialLibrary, error) {
	full := joinPath(l.path, name)
	rc, _, err := l.fetcher.Fetch(ctx, full)
	if err != nil {
		return nil, fmt.Errorf("fetch materials: %w", err)
	}
	defer rc.Close()

	lib, err := models.ParseMTL(rc)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", full, err)
	}
	l.log.Debug("materials parsed", zap.String("file", full), zap.Int("count", lib.Len()))

	open := func(tex string) (io.ReadCloser, error) {
		trc, _, err := l.fetcher.Fetch(ctx, joinPath(l.path, tex))
		return trc, err
	}
	if err := lib.Preload(open); err != nil {
		l.log.Warn("texture load failed", zap.String("file", full), zap.Error(err))
	}
	return lib, nil
}

// OBJLoader loads Wavefront geometry into a scene group.
type OBJLoader struct {
	fetcher   Fetcher
	path      string
	materials *models.MaterialLibrary
	log       *zap.Logger
}

// NewOBJLoader creates a geometry loader. log may be nil.
func NewOBJLoader(f Fetcher, log *zap.Logger) *OBJLoader {
	if log == nil {
		log = zap.NewNop()
	}
	return &OBJLoader{fetcher: f, log: log}
}

// SetMaterials binds usemtl statements to lib.
func (l *OBJLoader) SetMaterials(lib *models.MaterialLibrary) *OBJLoader {
	l.materials = lib
	return l
}

// SetPath sets the prefix for the geometry file.
func (l *OBJLoader) SetPath(p string) *OBJLoader {
	l.path = p
	return l
}

// Load fetches and parses an OBJ file. onProgress, if set, is called from
// the calling goroutine while bytes arrive.
func (l *OBJLoader) Load(ctx context.Context, name string, onProgress func(ProgressEvent)) (*scene.Group, error) {
	full := joinPath(l.path, name)
	rc, size, err := l.fetcher.Fetch(ctx, full)
	if err != nil {
		return nil, fmt.Errorf("fetch geometry: %w", err)
	}
	defer rc.Close()

	model, err := models.ParseOBJ(newProgressReader(rc, size, onProgress), l.materials)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", full, err)
	}
	l.log.Debug("geometry parsed",
		zap.String("file", full),
		zap.Int("objects", len(model.Objects)),
		zap.Int("triangles", model.TriangleCount()),
	)
	return groupOf(baseName(name), model.Objects), nil
}

// GLBLoader loads binary glTF into a scene group.
type GLBLoader struct {
	fetcher Fetcher
	path    string
	log     *zap.Logger
}

// NewGLBLoader creates a binary glTF loader. log may be nil.
func NewGLBLoader(f Fetcher, log *zap.Logger) *GLBLoader {
	if log == nil {
		log = zap.NewNop()
	}
	return &GLBLoader{fetcher: f, log: log}
}

// SetPath sets the prefix for the model file.
func (l *GLBLoader) SetPath(p string) *GLBLoader {
	l.path = p
	return l
}

// Load fetches and decodes a .glb file.
func (l *GLBLoader) Load(ctx context.Context, name string, onProgress func(ProgressEvent)) (*scene.Group, error) {
	full := joinPath(l.path, name)
	rc, size, err := l.fetcher.Fetch(ctx, full)
	if err != nil {
		return nil, fmt.Errorf("fetch model: %w", err)
	}
	defer rc.Close()

	meshes, err := models.LoadGLB(newProgressReader(rc, size, onProgress))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", full, err)
	}
	l.log.Debug("glb decoded", zap.String("file", full), zap.Int("meshes", len(meshes)))
	return groupOf(baseName(name), meshes), nil
}

func groupOf(name string, meshes []*models.Mesh) *scene.Group {
	g := scene.NewGroup(name)
	for _, m := range meshes {
		g.Add(scene.NewMesh(m))
	}
	return g
}

func baseName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	return name
}
