// Package viewer loads a model into a container and keeps it on screen:
// it sizes the output from the window, builds a lit scene with an orbiting
// camera, loads materials and then geometry while reporting progress, and
// renders frames once the model is in place.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/taigrr/orbitview/pkg/controls"
	"github.com/taigrr/orbitview/pkg/loader"
	"github.com/taigrr/orbitview/pkg/math3d"
	"github.com/taigrr/orbitview/pkg/render"
	"github.com/taigrr/orbitview/pkg/scene"
)

var (
	// ErrClosed is returned by Run after Close.
	ErrClosed = errors.New("viewer closed")
	// ErrRunning is returned by a second call to Run.
	ErrRunning = errors.New("viewer already running")
)

// State is a viewer's lifecycle state.
type State int32

const (
	Bootstrapping State = iota
	WaitingForMaterials
	WaitingForGeometry
	Rendering
	Failed
	Closed
)

func (s State) String() string {
	switch s {
	case Bootstrapping:
		return "bootstrapping"
	case WaitingForMaterials:
		return "waiting-for-materials"
	case WaitingForGeometry:
		return "waiting-for-geometry"
	case Rendering:
		return "rendering"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// rank orders states; a viewer only moves to a higher rank.
func (s State) rank() int {
	switch s {
	case Rendering, Failed:
		return 3
	case Closed:
		return 4
	default:
		return int(s)
	}
}

// LoadResult is the outcome of a model load. Exactly one of Model and Err
// is set.
type LoadResult struct {
	Model *loader.Model
	// Target is the point the controls orbit after a successful load.
	Target math3d.Vec3
	Err    error
}

// OK reports whether the load succeeded.
func (r LoadResult) OK() bool { return r.Err == nil && r.Model != nil }

// Viewer shows one model in one container.
//
// Everything a viewer owns is mutated by the goroutine running Run. The
// accessors for the scene, camera, controls and renderer are only safe to
// use from OnLoad or after Run has returned.
type Viewer struct {
	model     string
	window    Window
	container Container
	opts      options
	log       *zap.Logger

	state atomic.Int32

	viewport Viewport
	renderer *render.Renderer
	scene    *scene.Scene
	camera   *scene.PerspectiveCamera
	controls *controls.OrbitControls
	ambient  *scene.AmbientLight
	point    *scene.PointLight
	status   Status
	root     *scene.Group

	events      <-chan Event
	unsubscribe func()
	frames      <-chan time.Time
	lastPercent int
	frameCount  int

	mu        sync.Mutex
	started   bool
	closing   chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// LoadModelToView prepares a viewer for modelName in container. Nothing
// happens until Run is called.
func LoadModelToView(modelName string, container Container, window Window, opts ...Option) *Viewer {
	o := options{settings: DefaultSettings()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.fetcher == nil {
		o.fetcher = loader.FileFetcher{}
	}
	if o.frames == nil {
		o.frames = NewTickerFrames(o.settings.FPS)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	return &Viewer{
		model:       modelName,
		window:      window,
		container:   container,
		opts:        o,
		log:         o.log.With(zap.String("model", modelName)),
		lastPercent: -1,
		closing:     make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// State returns the current lifecycle state. It is safe for concurrent use.
func (v *Viewer) State() State { return State(v.state.Load()) }

func (v *Viewer) setState(s State) bool {
	for {
		cur := State(v.state.Load())
		if s.rank() <= cur.rank() {
			return false
		}
		if v.state.CompareAndSwap(int32(cur), int32(s)) {
			v.log.Debug("state", zap.Stringer("from", cur), zap.Stringer("to", s))
			return true
		}
	}
}

// Scene returns the scene graph built by Run.
func (v *Viewer) Scene() *scene.Scene { return v.scene }

// Camera returns the perspective camera. It sits in the scene and carries
// the point light.
func (v *Viewer) Camera() *scene.PerspectiveCamera { return v.camera }

// Controls returns the orbit controls driving the camera.
func (v *Viewer) Controls() *controls.OrbitControls { return v.controls }

// Renderer returns the renderer presented to the container.
func (v *Viewer) Renderer() *render.Renderer { return v.renderer }

// AmbientLight returns the scene's ambient light.
func (v *Viewer) AmbientLight() *scene.AmbientLight { return v.ambient }

// PointLight returns the light attached to the camera.
func (v *Viewer) PointLight() *scene.PointLight { return v.point }

// Viewport returns the size computed by the last resize.
func (v *Viewer) Viewport() Viewport { return v.viewport }

// Model returns the loaded model root, or nil before a successful load.
func (v *Viewer) Model() *scene.Group { return v.root }

// Frames returns how many loop frames have been rendered. The bootstrap
// frame is not counted.
func (v *Viewer) Frames() int { return v.frameCount }

type stageMsg struct{ stage loader.Stage }

type progressMsg struct{ ev loader.ProgressEvent }

type doneMsg struct {
	model *loader.Model
	err   error
}

// Run bootstraps the viewer, loads the model and renders until ctx is
// cancelled or Close is called. A load failure does not end Run; the
// viewer stays in the Failed state showing the empty scene.
func (v *Viewer) Run(ctx context.Context) error {
	v.mu.Lock()
	switch {
	case v.started:
		v.mu.Unlock()
		return ErrRunning
	case v.State() == Closed:
		v.mu.Unlock()
		return ErrClosed
	}
	v.started = true
	v.mu.Unlock()
	defer close(v.done)

	v.bootstrap()

	loadCtx, cancelLoad := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancelLoad()
		wg.Wait()
		v.dispose()
	}()

	msgs := make(chan any)
	send := func(m any) {
		select {
		case msgs <- m:
		case <-loadCtx.Done():
		}
	}

	v.setState(WaitingForMaterials)
	wg.Add(1)
	go func() {
		defer wg.Done()
		model, err := loader.LoadModel(loadCtx, loader.LoadRequest{
			Fetcher:    v.opts.fetcher,
			Path:       v.opts.path,
			Model:      v.model,
			Format:     v.opts.format,
			OnStage:    func(s loader.Stage) { send(stageMsg{s}) },
			OnProgress: func(ev loader.ProgressEvent) { send(progressMsg{ev}) },
			Logger:     v.log,
		})
		send(doneMsg{model, err})
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-v.closing:
			return nil
		case ev, ok := <-v.events:
			if !ok {
				v.events = nil
				continue
			}
			v.handleEvent(ev)
		case m := <-msgs:
			switch m := m.(type) {
			case stageMsg:
				if m.stage == loader.StageGeometry {
					v.setState(WaitingForGeometry)
				}
			case progressMsg:
				v.onProgress(m.ev)
			case doneMsg:
				v.finishLoad(m.model, m.err)
			}
		case <-v.frames:
			v.animate()
		}
	}
}

// Close stops the viewer: it unsubscribes from the window, halts frames
// and detaches the renderer. It waits for Run to return and is safe to call
// more than once.
func (v *Viewer) Close() {
	v.closeOnce.Do(func() { close(v.closing) })
	v.mu.Lock()
	started := v.started
	if !started {
		v.setState(Closed)
	}
	v.mu.Unlock()
	if started {
		<-v.done
	}
}

func (v *Viewer) bootstrap() {
	s := v.opts.settings
	v.viewport = ComputeViewportSize(v.window, v.container)

	v.renderer = render.NewRenderer(render.Options{Antialias: s.Antialias})
	ratio := s.PixelRatio
	if ratio <= 0 {
		ratio = v.window.DevicePixelRatio()
	}
	v.renderer.SetPixelRatio(ratio)
	v.renderer.SetSize(v.viewport.Width, v.viewport.Height)
	v.container.Attach(v.renderer)

	v.scene = scene.NewScene()
	v.scene.Background = s.Background
	v.scene.Environment = scene.NewEnvironment(scene.NewRoomEnvironment(), s.EnvironmentSigma)

	v.camera = scene.NewPerspectiveCamera(s.FOV, v.viewport.Aspect(), s.Near, s.Far)
	v.camera.Position = math3d.Zero3()
	v.scene.Add(v.camera)

	v.controls = controls.NewOrbitControls(v.camera)
	v.controls.SetFPS(s.FPS)
	v.controls.SetSize(v.viewport.Width, v.viewport.Height)
	v.controls.Target = math3d.Zero3()
	v.controls.Update()
	v.controls.EnablePan = s.EnablePan
	v.controls.EnableDamping = s.EnableDamping
	v.controls.RotateSpeed = s.RotateSpeed
	v.controls.ZoomSpeed = s.ZoomSpeed

	v.ambient = scene.NewAmbientLight(s.AmbientColor, s.AmbientIntensity)
	v.scene.Add(v.ambient)
	v.point = scene.NewPointLight(s.PointColor, s.PointIntensity)
	v.camera.Add(v.point)

	v.status = v.container.Status()
	if v.status == nil {
		v.status = noStatus{}
	}
	v.events, v.unsubscribe = v.window.Subscribe()

	v.renderer.Render(v.scene, v.camera)
	v.container.Present(v.renderer)

	v.log.Info("viewer ready",
		zap.Int("width", v.viewport.Width),
		zap.Int("height", v.viewport.Height),
		zap.Float64("pixel_ratio", v.renderer.PixelRatio()),
	)
}

func (v *Viewer) dispose() {
	if v.unsubscribe != nil {
		v.unsubscribe()
		v.unsubscribe = nil
	}
	v.events = nil
	v.opts.frames.Stop()
	v.frames = nil
	if v.renderer != nil {
		v.container.Detach(v.renderer)
	}
	v.setState(Closed)
	v.log.Debug("viewer closed", zap.Int("frames", v.frameCount))
}

func (v *Viewer) handleEvent(ev Event) {
	switch ev := ev.(type) {
	case ResizeEvent:
		v.resize()
	case PointerEvent:
		switch ev.Kind {
		case PointerDown:
			v.controls.PointerDown(ev.Button, ev.X, ev.Y)
		case PointerMove:
			v.controls.PointerMove(ev.X, ev.Y)
		case PointerUp:
			v.controls.PointerUp()
		}
	case WheelEvent:
		v.controls.Wheel(ev.Delta)
	case KeyEvent:
		v.controls.Key(ev.Key)
	}
}

// resize follows the window size. Only the camera projection, the
// renderer size and the controls' pointer scale change.
func (v *Viewer) resize() {
	v.viewport = ComputeViewportSize(v.window, v.container)
	v.camera.Aspect = v.viewport.Aspect()
	v.camera.UpdateProjectionMatrix()
	v.renderer.SetSize(v.viewport.Width, v.viewport.Height)
	v.controls.SetSize(v.viewport.Width, v.viewport.Height)
	v.log.Debug("resize", zap.Int("width", v.viewport.Width), zap.Int("height", v.viewport.Height))
}

func (v *Viewer) onProgress(ev loader.ProgressEvent) {
	pct, ok := ev.Percent()
	if !ok || v.State() != WaitingForGeometry || pct <= v.lastPercent {
		return
	}
	v.lastPercent = pct
	v.status.SetText(fmt.Sprintf("Loading model %d%%", pct))
}

func (v *Viewer) finishLoad(model *loader.Model, err error) {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		v.setState(Failed)
		v.log.Error("load failed", zap.Error(err))
		v.notify(LoadResult{Err: err})
		return
	}

	v.root = model.Root
	v.scene.Add(v.root)

	var target math3d.Vec3
	if children := v.root.Children(); len(children) > 0 {
		if m, ok := children[0].(*scene.Mesh); ok {
			sphere := m.ComputeBoundingSphere()
			target = scene.WorldMatrix(m).MulVec3(sphere.Center)
		}
	}
	v.controls.Target = target
	v.controls.SaveState()
	v.status.Hide()

	v.frames = v.opts.frames.Start()
	v.setState(Rendering)

	v.log.Info("model loaded",
		zap.Int("objects", len(v.root.Children())),
		zap.Int("meshes", len(v.scene.Meshes())),
		zap.Float64("target_distance", target.Distance(v.camera.Position)),
	)
	v.notify(LoadResult{Model: model, Target: target})
}

func (v *Viewer) notify(r LoadResult) {
	if v.opts.onLoad != nil {
		v.opts.onLoad(r)
	}
}

// animate renders one loop frame.
func (v *Viewer) animate() {
	v.controls.Update()
	v.renderer.Render(v.scene, v.camera)
	v.container.Present(v.renderer)
	v.frameCount++
}

type noStatus struct{}

func (noStatus) SetText(string) {}
func (noStatus) Hide()          {}
