package termhost

import (
	"fmt"
	"time"
)

// hud is the optional overlay with the frame rate and model name.
type hud struct {
	title string
	show  bool

	fps     float64
	frames  int
	fpsTime time.Time
}

// tick counts a presented frame.
func (h *hud) tick(now time.Time) {
	if h.fpsTime.IsZero() {
		h.fpsTime = now
	}
	h.frames++
	if elapsed := now.Sub(h.fpsTime); elapsed >= time.Second {
		h.fps = float64(h.frames) / elapsed.Seconds()
		h.frames = 0
		h.fpsTime = now
	}
}

// line returns the left and right parts of the top row.
func (h *hud) line() (left, right string) {
	return fmt.Sprintf(" %.0f FPS ", h.fps), fmt.Sprintf(" %s ", h.title)
}
