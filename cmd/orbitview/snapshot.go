package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/taigrr/orbitview/internal/config"
	"github.com/taigrr/orbitview/pkg/loader"
	"github.com/taigrr/orbitview/pkg/render"
	"github.com/taigrr/orbitview/pkg/viewer"
)

// offscreen is a window, container and frame source with no terminal
// behind it. It keeps a copy of the last presented frame.
type offscreen struct {
	width, height int

	mu        sync.Mutex
	frame     *render.Framebuffer
	presented chan struct{}
	ticks     chan time.Time
}

func newOffscreen(width, height int) *offscreen {
	return &offscreen{
		width:     width,
		height:    height,
		presented: make(chan struct{}, 1),
		ticks:     make(chan time.Time),
	}
}

func (o *offscreen) InnerSize() (int, int)     { return o.width, o.height }
func (o *offscreen) DevicePixelRatio() float64 { return 1 }
func (o *offscreen) ClientWidth() int          { return o.width }
func (o *offscreen) Status() viewer.Status     { return nil }
func (o *offscreen) Attach(viewer.Surface)     {}
func (o *offscreen) Detach(viewer.Surface)     {}
func (o *offscreen) Start() <-chan time.Time   { return o.ticks }
func (o *offscreen) Stop()                     {}

// Subscribe returns a nil channel; nothing is ever resized or clicked.
func (o *offscreen) Subscribe() (<-chan viewer.Event, func()) {
	return nil, func() {}
}

func (o *offscreen) Present(s viewer.Surface) {
	src := s.Frame()
	if src == nil {
		return
	}
	o.mu.Lock()
	if o.frame == nil || o.frame.Width != src.Width || o.frame.Height != src.Height {
		o.frame = render.NewFramebuffer(src.Width, src.Height)
	}
	copy(o.frame.Pixels, src.Pixels)
	o.mu.Unlock()
	select {
	case o.presented <- struct{}{}:
	default:
	}
}

func (o *offscreen) lastFrame() *render.Framebuffer {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.frame
}

// snapshot loads the configured model into an offscreen viewer, renders
// one frame after the load and writes it to path as a PNG.
func snapshot(ctx context.Context, cfg *config.Config, log *zap.Logger, path string, width int) error {
	if width <= 0 {
		return fmt.Errorf("snapshot width must be positive, got %d", width)
	}
	settings, err := cfg.Settings()
	if err != nil {
		return err
	}
	format, err := loader.ParseFormat(cfg.Viewer.Format)
	if err != nil {
		return err
	}

	out := newOffscreen(width, width*3/4)
	loaded := make(chan viewer.LoadResult, 1)
	v := viewer.LoadModelToView(cfg.Viewer.Model, out, out,
		viewer.WithSettings(settings),
		viewer.WithFetcher(newFetcher(cfg)),
		viewer.WithFormat(format),
		viewer.WithFrameSource(out),
		viewer.WithLogger(log.Named("snapshot")),
		viewer.OnLoad(func(r viewer.LoadResult) { loaded <- r }),
	)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error { return v.Run(gctx) })
	g.Go(func() error {
		defer cancel()
		var r viewer.LoadResult
		select {
		case r = <-loaded:
		case <-gctx.Done():
			return gctx.Err()
		}
		if !r.OK() {
			return fmt.Errorf("load %s: %w", cfg.Viewer.Model, r.Err)
		}
		// Drop the placeholder frame shown while loading.
		select {
		case <-out.presented:
		default:
		}
		select {
		case out.ticks <- time.Now():
		case <-gctx.Done():
			return gctx.Err()
		}
		select {
		case <-out.presented:
			return nil
		case <-gctx.Done():
			return gctx.Err()
		}
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	frame := out.lastFrame()
	if frame == nil {
		return errors.New("no frame rendered")
	}
	if err := frame.SavePNG(path); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	log.Info("snapshot written", zap.String("path", path), zap.Int("width", frame.Width), zap.Int("height", frame.Height))
	return nil
}
