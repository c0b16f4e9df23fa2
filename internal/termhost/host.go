// Package termhost runs a viewer in a terminal. The terminal is the window,
// the full screen is the container, and every cell shows two vertically
// stacked pixels.
package termhost

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"os"
	"sync"
	"time"

	uv "github.com/charmbracelet/ultraviolet"
	"go.uber.org/zap"

	"github.com/taigrr/orbitview/pkg/controls"
	"github.com/taigrr/orbitview/pkg/render"
	"github.com/taigrr/orbitview/pkg/viewer"
)

// ErrQuit is returned by Run when the user asks to quit.
var ErrQuit = errors.New("quit")

const (
	enableMouse  = "\x1b[?1003h\x1b[?1006h" // any-event tracking, SGR coordinates
	disableMouse = "\x1b[?1003l\x1b[?1006l"
)

// Host is a terminal viewer.Window and viewer.Container.
type Host struct {
	term *uv.Terminal
	log  *zap.Logger
	hub  *hub

	mu         sync.Mutex
	cols, rows int
	surface    viewer.Surface
	frame      *render.Framebuffer // last presented frame
	status     statusLine
	hud        hud
	started    bool
	closed     bool
}

var (
	_ viewer.Window    = (*Host)(nil)
	_ viewer.Container = (*Host)(nil)
)

// New creates a host on the process terminal. Call Start before use.
func New(log *zap.Logger) (*Host, error) {
	if log == nil {
		log = zap.NewNop()
	}
	term := uv.DefaultTerminal()
	cols, rows, err := term.GetSize()
	if err != nil {
		return nil, fmt.Errorf("get terminal size: %w", err)
	}
	return &Host{
		term: term,
		log:  log,
		hub:  newHub(),
		cols: cols,
		rows: rows,
	}, nil
}

// Start takes over the terminal: alt screen, hidden cursor and mouse
// tracking.
func (h *Host) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}
	h.term.EnterAltScreen()
	h.term.HideCursor()
	h.term.Resize(h.cols, h.rows)
	fmt.Fprint(os.Stdout, enableMouse)
	h.started = true
	h.log.Debug("terminal started", zap.Int("cols", h.cols), zap.Int("rows", h.rows))
	return nil
}

// Close restores the terminal. It is safe to call more than once.
func (h *Host) Close() error {
	h.hub.closeAll()
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || !h.started {
		h.closed = true
		return nil
	}
	h.closed = true
	fmt.Fprint(os.Stdout, disableMouse)
	h.term.ExitAltScreen()
	h.term.ShowCursor()
	h.term.Shutdown(context.Background())
	return nil
}

// Run translates terminal events until ctx ends or a quit key is pressed,
// in which case it returns ErrQuit.
func (h *Host) Run(ctx context.Context) error {
	events := h.term.Events()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := h.handle(ctx, ev); err != nil {
				return err
			}
		}
	}
}

func (h *Host) handle(ctx context.Context, ev uv.Event) error {
	switch ev := ev.(type) {
	case uv.WindowSizeEvent:
		h.mu.Lock()
		h.cols, h.rows = ev.Width, ev.Height
		h.term.Erase()
		h.term.Resize(ev.Width, ev.Height)
		h.redrawLocked()
		h.mu.Unlock()
		h.hub.publish(ctx, viewer.ResizeEvent{})

	case uv.KeyPressEvent:
		switch {
		case ev.MatchString("escape", "ctrl+c", "q"):
			return ErrQuit
		case ev.MatchString("?", "shift+/"):
			h.mu.Lock()
			h.hud.show = !h.hud.show
			h.redrawLocked()
			h.mu.Unlock()
		case ev.MatchString("left", "h", "a"):
			h.hub.publish(ctx, viewer.KeyEvent{Key: controls.KeyLeft})
		case ev.MatchString("right", "l", "d"):
			h.hub.publish(ctx, viewer.KeyEvent{Key: controls.KeyRight})
		case ev.MatchString("up", "k", "w"):
			h.hub.publish(ctx, viewer.KeyEvent{Key: controls.KeyUp})
		case ev.MatchString("down", "j", "s"):
			h.hub.publish(ctx, viewer.KeyEvent{Key: controls.KeyDown})
		case ev.MatchString("+", "="):
			h.hub.publish(ctx, viewer.KeyEvent{Key: controls.KeyZoomIn})
		case ev.MatchString("-", "_"):
			h.hub.publish(ctx, viewer.KeyEvent{Key: controls.KeyZoomOut})
		case ev.MatchString("r"):
			h.hub.publish(ctx, viewer.KeyEvent{Key: controls.KeyReset})
		}

	case uv.MouseClickEvent:
		h.hub.publish(ctx, viewer.PointerEvent{
			Kind:   viewer.PointerDown,
			Button: buttonFor(ev.Button),
			X:      ev.X,
			Y:      ev.Y * 2,
		})

	case uv.MouseReleaseEvent:
		h.hub.publish(ctx, viewer.PointerEvent{Kind: viewer.PointerUp, X: ev.X, Y: ev.Y * 2})

	case uv.MouseMotionEvent:
		h.hub.publish(ctx, viewer.PointerEvent{Kind: viewer.PointerMove, X: ev.X, Y: ev.Y * 2})

	case uv.MouseWheelEvent:
		switch ev.Button {
		case uv.MouseWheelUp:
			h.hub.publish(ctx, viewer.WheelEvent{Delta: -1})
		case uv.MouseWheelDown:
			h.hub.publish(ctx, viewer.WheelEvent{Delta: 1})
		}
	}
	return nil
}

func buttonFor(b uv.MouseButton) controls.Button {
	switch b {
	case uv.MouseMiddle:
		return controls.ButtonMiddle
	case uv.MouseRight:
		return controls.ButtonRight
	default:
		return controls.ButtonLeft
	}
}

// InnerSize reports the screen in pixels: one column and two rows per cell.
func (h *Host) InnerSize() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cols, h.rows * 2
}

// DevicePixelRatio is always 1; antialiasing supersamples instead.
func (h *Host) DevicePixelRatio() float64 { return 1 }

// Subscribe implements viewer.Window.
func (h *Host) Subscribe() (<-chan viewer.Event, func()) {
	return h.hub.subscribe()
}

// ClientWidth implements viewer.Container.
func (h *Host) ClientWidth() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cols
}

// Status implements viewer.Container.
func (h *Host) Status() viewer.Status { return hostStatus{h} }

// Attach implements viewer.Container.
func (h *Host) Attach(s viewer.Surface) {
	h.mu.Lock()
	h.surface = s
	h.mu.Unlock()
}

// Detach implements viewer.Container.
func (h *Host) Detach(s viewer.Surface) {
	h.mu.Lock()
	if h.surface == s {
		h.surface = nil
	}
	h.mu.Unlock()
}

// Present copies the surface's frame and draws it.
func (h *Host) Present(s viewer.Surface) {
	src := s.Frame()
	if src == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.surface != s {
		return
	}
	if h.frame == nil || h.frame.Width != src.Width || h.frame.Height != src.Height {
		h.frame = render.NewFramebuffer(src.Width, src.Height)
	}
	copy(h.frame.Pixels, src.Pixels)
	h.hud.tick(time.Now())
	h.redrawLocked()
}

// redrawLocked draws the last frame and the status line. h.mu must be held.
func (h *Host) redrawLocked() {
	if !h.started || h.closed {
		return
	}
	area := uv.Rect(0, 0, h.cols, h.rows)
	var bg color.Color = color.Black
	if h.frame != nil {
		h.frame.Draw(h.term, area)
		bg = h.frame.GetPixel(h.frame.Width/2, h.frame.Height/2)
	}
	if !h.status.hidden && h.status.text != "" {
		h.drawStatusLocked(bg)
	}
	if h.hud.show {
		left, right := h.hud.line()
		h.drawTextLocked(0, 0, left, color.White, color.Black)
		h.drawTextLocked(max(h.cols-runewidthOf(right), 0), 0, right, color.White, color.Black)
	}
	if err := h.term.Display(); err != nil {
		h.log.Warn("display failed", zap.Error(err))
	}
}

func (h *Host) drawStatusLocked(bg color.Color) {
	col, text := layoutStatus(h.status.text, h.cols)
	h.drawTextLocked(col, h.rows/2, text, textColorOn(bg), bg)
}

func (h *Host) drawTextLocked(col, row int, text string, fg, bg color.Color) {
	style := uv.Style{Fg: fg, Bg: bg}
	for _, r := range text {
		if col >= h.cols {
			return
		}
		w := max(runeWidth(r), 1)
		h.term.SetCell(col, row, &uv.Cell{Content: string(r), Width: w, Style: style})
		col += w
	}
}

// SetTitle sets the model name shown by the HUD.
func (h *Host) SetTitle(title string) {
	h.mu.Lock()
	h.hud.title = title
	h.mu.Unlock()
}

type hostStatus struct{ h *Host }

func (s hostStatus) SetText(text string) {
	s.h.mu.Lock()
	defer s.h.mu.Unlock()
	s.h.status.text = text
	s.h.redrawLocked()
}

func (s hostStatus) Hide() {
	s.h.mu.Lock()
	defer s.h.mu.Unlock()
	s.h.status.hidden = true
	s.h.redrawLocked()
}
