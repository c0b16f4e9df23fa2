package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/taigrr/orbitview/internal/config"
	"github.com/taigrr/orbitview/internal/logger"
	"github.com/taigrr/orbitview/pkg/loader"
	"github.com/taigrr/orbitview/pkg/math3d"
	"github.com/taigrr/orbitview/pkg/models"
	"github.com/taigrr/orbitview/pkg/scene"
)

type infoOptions struct {
	snapshot string
	width    int
}

func newInfoCmd(o *config.Overrides) *cobra.Command {
	var opts infoOptions
	cmd := &cobra.Command{
		Use:   "info [model]",
		Short: "Load a model without a terminal and print its statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(o, args)
			if err != nil {
				return err
			}
			return info(cmd.Context(), cfg, cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "also render one frame to this PNG file")
	cmd.Flags().IntVar(&opts.width, "width", 320, "snapshot width in pixels")
	return cmd
}

func info(ctx context.Context, cfg *config.Config, out io.Writer, opts infoOptions) error {
	log, err := logger.Init(cfg.Logging.Level, "", os.Stderr)
	if err != nil {
		return err
	}
	defer logger.Sync()

	format, err := loader.ParseFormat(cfg.Viewer.Format)
	if err != nil {
		return err
	}
	model, err := loader.LoadModel(ctx, loader.LoadRequest{
		Fetcher: newFetcher(cfg),
		Model:   cfg.Viewer.Model,
		Format:  format,
		OnStage: func(s loader.Stage) {
			fmt.Fprintf(os.Stderr, "loading %s\n", s)
		},
		Logger: log,
	})
	if err != nil {
		return fmt.Errorf("load %s: %w", cfg.Viewer.Model, err)
	}

	writeStats(out, cfg.Viewer.Model, statsFor(model))
	if opts.snapshot == "" {
		return nil
	}
	if err := snapshot(ctx, cfg, log, opts.snapshot, opts.width); err != nil {
		return err
	}
	fmt.Fprintf(out, "snapshot:   %s\n", opts.snapshot)
	return nil
}

type modelStats struct {
	Objects   int
	Vertices  int
	Triangles int
	Materials int
	Textures  int
	// Target is the first object's bounding sphere center, where the
	// viewer points the camera.
	Target math3d.Vec3
	Bounds math3d.Sphere
}

func statsFor(m *loader.Model) modelStats {
	var s modelStats
	var points []math3d.Vec3
	materials := make(map[string]bool)
	textures := make(map[string]bool)

	for i, n := range m.Root.Children() {
		mesh, ok := n.(*scene.Mesh)
		if !ok {
			continue
		}
		g := mesh.Geometry
		s.Objects++
		s.Vertices += g.VertexCount()
		s.Triangles += g.TriangleCount()
		world := scene.WorldMatrix(mesh)
		for _, v := range g.Vertices {
			points = append(points, world.MulVec3(v.Position))
		}
		if i == 0 {
			s.Target = world.MulVec3(g.BoundingSphere().Center)
		}
		for j := range g.Materials {
			countMaterial(&g.Materials[j], materials, textures)
		}
	}
	if m.Materials != nil {
		for _, name := range m.Materials.Names() {
			mat, _ := m.Materials.Get(name)
			countMaterial(mat, materials, textures)
		}
	}

	s.Materials = len(materials)
	s.Textures = len(textures)
	s.Bounds = math3d.BoundingSphere(points)
	return s
}

func countMaterial(mat *models.Material, materials, textures map[string]bool) {
	materials[mat.Name] = true
	if mat.BaseMap != nil {
		textures[mat.Name] = true
	}
}

func writeStats(w io.Writer, name string, s modelStats) {
	fmt.Fprintf(w, "model:      %s\n", name)
	fmt.Fprintf(w, "objects:    %d\n", s.Objects)
	fmt.Fprintf(w, "vertices:   %d\n", s.Vertices)
	fmt.Fprintf(w, "triangles:  %d\n", s.Triangles)
	fmt.Fprintf(w, "materials:  %d\n", s.Materials)
	fmt.Fprintf(w, "textures:   %d\n", s.Textures)
	fmt.Fprintf(w, "target:     (%.3f, %.3f, %.3f)\n", s.Target.X, s.Target.Y, s.Target.Z)
	fmt.Fprintf(w, "bounds:     center (%.3f, %.3f, %.3f) radius %.3f\n",
		s.Bounds.Center.X, s.Bounds.Center.Y, s.Bounds.Center.Z, s.Bounds.Radius)
}
