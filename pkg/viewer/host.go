package viewer

import (
	"time"

	"github.com/taigrr/orbitview/pkg/controls"
	"github.com/taigrr/orbitview/pkg/render"
)

// Window is the environment the viewer lives in.
type Window interface {
	// InnerSize returns the window size in pixels.
	InnerSize() (width, height int)
	// DevicePixelRatio returns output pixels per logical pixel.
	DevicePixelRatio() float64
	// Subscribe returns a channel of input and resize events. Calling
	// unsubscribe releases it; the channel may be closed afterwards.
	Subscribe() (events <-chan Event, unsubscribe func())
}

// Status is the text element that shows load progress.
type Status interface {
	SetText(text string)
	Hide()
}

// Surface is the renderer output attached to a container.
type Surface interface {
	Frame() *render.Framebuffer
	Size() (width, height int)
}

// Container hosts a viewer's output.
type Container interface {
	// ClientWidth returns the usable width in pixels.
	ClientWidth() int
	// Status returns the progress element, or nil if there is none.
	Status() Status
	Attach(s Surface)
	Detach(s Surface)
	// Present shows the surface's current frame. It is called on the
	// viewer goroutine after every render.
	Present(s Surface)
}

// FrameSource paces the render loop.
type FrameSource interface {
	// Start begins delivering frame ticks.
	Start() <-chan time.Time
	// Stop halts delivery. It may be called without Start.
	Stop()
}

// Event is an input or window event.
type Event interface {
	event()
}

// ResizeEvent reports that the window or container changed size.
type ResizeEvent struct{}

// PointerKind distinguishes pointer events.
type PointerKind int

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
)

// PointerEvent is a mouse event in container pixel coordinates.
type PointerEvent struct {
	Kind   PointerKind
	Button controls.Button
	X, Y   int
}

// WheelEvent is a scroll; negative Delta scrolls towards the user.
type WheelEvent struct {
	Delta float64
}

// KeyEvent is a navigation key press.
type KeyEvent struct {
	Key controls.Key
}

func (ResizeEvent) event()  {}
func (PointerEvent) event() {}
func (WheelEvent) event()   {}
func (KeyEvent) event()     {}

// TickerFrames is a FrameSource backed by a time.Ticker.
type TickerFrames struct {
	interval time.Duration
	ticker   *time.Ticker
}

// NewTickerFrames ticks fps times per second. Non-positive fps means 60.
func NewTickerFrames(fps int) *TickerFrames {
	if fps <= 0 {
		fps = 60
	}
	return &TickerFrames{interval: time.Second / time.Duration(fps)}
}

// Start implements FrameSource.
func (t *TickerFrames) Start() <-chan time.Time {
	if t.ticker == nil {
		t.ticker = time.NewTicker(t.interval)
	}
	return t.ticker.C
}

// Stop implements FrameSource.
func (t *TickerFrames) Stop() {
	if t.ticker != nil {
		t.ticker.Stop()
	}
}
