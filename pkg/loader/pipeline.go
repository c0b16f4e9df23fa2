package loader

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/taigrr/orbitview/pkg/models"
	"github.com/taigrr/orbitview/pkg/scene"
)

// Format selects the asset layout of a model.
type Format string

const (
	// FormatOBJ is <model>.mtl followed by <model>.obj.
	FormatOBJ Format = "obj"
	// FormatGLB is a single <model>.glb.
	FormatGLB Format = "glb"
)

// ParseFormat validates a format name. Empty means FormatOBJ.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatOBJ:
		return FormatOBJ, nil
	case FormatGLB:
		return FormatGLB, nil
	default:
		return "", fmt.Errorf("unknown model format %q (want obj or glb)", s)
	}
}

// Stage is a step of the load pipeline.
type Stage int

const (
	StageMaterials Stage = iota
	StageGeometry
)

func (s Stage) String() string {
	switch s {
	case StageMaterials:
		return "materials"
	case StageGeometry:
		return "geometry"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// LoadRequest describes one model load.
type LoadRequest struct {
	Fetcher Fetcher
	// Path is prefixed to every asset name.
	Path   string
	Model  string
	Format Format

	// OnStage is called as each stage starts.
	OnStage func(Stage)
	// OnProgress is called while the geometry bytes arrive.
	OnProgress func(ProgressEvent)
	Logger     *zap.Logger
}

// Model is a loaded model.
type Model struct {
	Root      *scene.Group
	Materials *models.MaterialLibrary // nil for glb
}

// LoadModel runs the load pipeline. For OBJ the material library is loaded
// first and geometry is only fetched once it has resolved.
func LoadModel(ctx context.Context, req LoadRequest) (*Model, error) {
	log := req.Logger
	if log == nil {
		log = zap.NewNop()
	}
	stage := func(s Stage) {
		log.Debug("load stage", zap.String("model", req.Model), zap.Stringer("stage", s))
		if req.OnStage != nil {
			req.OnStage(s)
		}
	}

	switch req.Format {
	case "", FormatOBJ:
		stage(StageMaterials)
		lib, err := NewMTLLoader(req.Fetcher, log).SetPath(req.Path).Load(ctx, req.Model+".mtl")
		if err != nil {
			return nil, err
		}

		stage(StageGeometry)
		root, err := NewOBJLoader(req.Fetcher, log).
			SetMaterials(lib).
			SetPath(req.Path).
			Load(ctx, req.Model+".obj", req.OnProgress)
		if err != nil {
			return nil, err
		}
		return &Model{Root: root, Materials: lib}, nil

	case FormatGLB:
		stage(StageGeometry)
		root, err := NewGLBLoader(req.Fetcher, log).SetPath(req.Path).Load(ctx, req.Model+".glb", req.OnProgress)
		if err != nil {
			return nil, err
		}
		return &Model{Root: root}, nil

	default:
		return nil, fmt.Errorf("unknown model format %q", req.Format)
	}
}
