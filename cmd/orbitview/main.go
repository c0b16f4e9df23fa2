package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/taigrr/orbitview/internal/config"
	"github.com/taigrr/orbitview/internal/logger"
	"github.com/taigrr/orbitview/internal/termhost"
	"github.com/taigrr/orbitview/pkg/loader"
	"github.com/taigrr/orbitview/pkg/viewer"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(ctx, newRootCmd(), fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var overrides *config.Overrides

	root := &cobra.Command{
		Use:   "orbitview [model]",
		Short: "Orbit a textured 3D model in the terminal",
		Long: `orbitview loads <model>.mtl and then <model>.obj (or <model>.glb with
--format glb) from a directory or URL and renders it in the terminal.

Drag with the mouse or use the arrow keys to orbit, scroll or +/- to zoom,
r to reset the view, and q or Esc to quit.`,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(overrides, args)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
	overrides = config.BindFlags(root.PersistentFlags())

	root.AddCommand(newInfoCmd(overrides), newConfigCmd(overrides))
	return root
}

// loadConfig merges defaults, the config file, flags and the model argument.
func loadConfig(o *config.Overrides, args []string) (*config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return nil, err
	}
	o.Apply(cfg)
	if len(args) > 0 {
		cfg.Viewer.Model = args[0]
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newFetcher(cfg *config.Config) loader.Fetcher {
	return loader.NewFetcher(cfg.Viewer.BasePath, &http.Client{Timeout: cfg.Network.Timeout})
}

func run(ctx context.Context, cfg *config.Config) error {
	// The terminal belongs to the renderer, so logs only go to the file.
	log, err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile, nil)
	if err != nil {
		return err
	}
	defer logger.Sync()

	settings, err := cfg.Settings()
	if err != nil {
		return err
	}
	format, err := loader.ParseFormat(cfg.Viewer.Format)
	if err != nil {
		return err
	}

	host, err := termhost.New(log.Named("term"))
	if err != nil {
		return err
	}
	if err := host.Start(); err != nil {
		return err
	}
	defer host.Close()

	model := cfg.Viewer.Model
	host.SetTitle(model)
	v := viewer.LoadModelToView(model, host, host,
		viewer.WithSettings(settings),
		viewer.WithFetcher(newFetcher(cfg)),
		viewer.WithFormat(format),
		viewer.WithLogger(log.Named("viewer")),
		viewer.OnLoad(func(r viewer.LoadResult) {
			if !r.OK() {
				host.Status().SetText(fmt.Sprintf("Failed to load %s: %v", model, r.Err))
			}
		}),
	)
	defer v.Close()

	log.Info("starting",
		zap.String("model", model),
		zap.String("base", cfg.Viewer.BasePath),
		zap.String("format", string(format)),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return host.Run(gctx) })
	g.Go(func() error { return v.Run(gctx) })

	err = g.Wait()
	if errors.Is(err, termhost.ErrQuit) || errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Info("stopped", zap.Stringer("state", v.State()), zap.Error(err))
	return err
}
