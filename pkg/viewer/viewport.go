package viewer

import "math"

// Viewport is the output size of a viewer. Ratio is height/width of the
// window, not of the container.
type Viewport struct {
	Ratio  float64
	Width  int
	Height int
}

// ViewportFor derives a viewport from the window's inner size and the
// container's client width: the width follows the container and the height
// keeps the window's aspect ratio. A degenerate window gives ratio 0.
func ViewportFor(innerWidth, innerHeight, clientWidth int) Viewport {
	var ratio float64
	if innerWidth > 0 && innerHeight > 0 {
		ratio = float64(innerHeight) / float64(innerWidth)
	}
	width := max(clientWidth, 0)
	return Viewport{
		Ratio:  ratio,
		Width:  width,
		Height: int(math.Round(float64(width) * ratio)),
	}
}

// ComputeViewportSize queries the window and container.
func ComputeViewportSize(w Window, c Container) Viewport {
	iw, ih := w.InnerSize()
	return ViewportFor(iw, ih, c.ClientWidth())
}

// Aspect returns width/height, or 1 when the viewport has no height.
func (v Viewport) Aspect() float64 {
	if v.Width <= 0 || v.Height <= 0 {
		return 1
	}
	return float64(v.Width) / float64(v.Height)
}
