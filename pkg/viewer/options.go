package viewer

import (
	"go.uber.org/zap"

	"github.com/taigrr/orbitview/pkg/loader"
	"github.com/taigrr/orbitview/pkg/scene"
)

// Settings tune the scene a viewer builds. DefaultSettings matches the
// stock look.
type Settings struct {
	Background       scene.Color
	EnvironmentSigma float64

	FOV  float64
	Near float64
	Far  float64

	AmbientColor     scene.Color
	AmbientIntensity float64
	PointColor       scene.Color
	PointIntensity   float64

	Antialias bool
	// PixelRatio overrides the window's device pixel ratio when positive.
	PixelRatio float64

	EnableDamping bool
	EnablePan     bool
	RotateSpeed   float64
	ZoomSpeed     float64

	FPS int
}

// DefaultSettings returns the stock viewer settings.
func DefaultSettings() Settings {
	return Settings{
		Background:       scene.HexColor(0xbfe3dd),
		EnvironmentSigma: 0.04,
		FOV:              40,
		Near:             1,
		Far:              100,
		AmbientColor:     scene.HexColor(0xcccccc),
		AmbientIntensity: 0.4,
		PointColor:       scene.HexColor(0xffffff),
		PointIntensity:   0.8,
		Antialias:        true,
		EnableDamping:    true,
		EnablePan:        false,
		RotateSpeed:      1,
		ZoomSpeed:        1,
		FPS:              30,
	}
}

type options struct {
	settings Settings
	fetcher  loader.Fetcher
	path     string
	format   loader.Format
	frames   FrameSource
	log      *zap.Logger
	onLoad   func(LoadResult)
}

// Option configures a Viewer.
type Option func(*options)

// WithSettings replaces the default settings.
func WithSettings(s Settings) Option {
	return func(o *options) { o.settings = s }
}

// WithFetcher sets where assets come from. The default reads files
// relative to the working directory.
func WithFetcher(f loader.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithPath prefixes every asset name.
func WithPath(path string) Option {
	return func(o *options) { o.path = path }
}

// WithFormat selects the model format. The default is OBJ with an MTL
// material library.
func WithFormat(f loader.Format) Option {
	return func(o *options) { o.format = f }
}

// WithFrameSource sets the render loop pacing. The default ticks at
// Settings.FPS.
func WithFrameSource(fs FrameSource) Option {
	return func(o *options) { o.frames = fs }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// OnLoad registers a callback for the load outcome. It runs on the
// goroutine running Run.
func OnLoad(fn func(LoadResult)) Option {
	return func(o *options) { o.onLoad = fn }
}
