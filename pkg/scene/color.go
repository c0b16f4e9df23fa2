package scene

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Color is a linear RGB color with channels nominally in [0, 1].
type Color struct {
	R, G, B float64
}

// HexColor converts 0xRRGGBB.
func HexColor(hex uint32) Color {
	return Color{
		R: float64(hex>>16&0xff) / 255,
		G: float64(hex>>8&0xff) / 255,
		B: float64(hex&0xff) / 255,
	}
}

// ParseColor accepts "#rrggbb", "0xrrggbb" or "r,g,b" with 0-255 channels.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "#"), strings.HasPrefix(s, "0x"):
		hex := strings.TrimPrefix(strings.TrimPrefix(s, "#"), "0x")
		if len(hex) != 6 {
			return Color{}, fmt.Errorf("color %q: want 6 hex digits", s)
		}
		v, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return Color{}, fmt.Errorf("color %q: %w", s, err)
		}
		return HexColor(uint32(v)), nil
	case strings.Count(s, ",") == 2:
		var c [3]float64
		for i, part := range strings.Split(s, ",") {
			v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 8)
			if err != nil {
				return Color{}, fmt.Errorf("color %q: %w", s, err)
			}
			c[i] = float64(v) / 255
		}
		return Color{c[0], c[1], c[2]}, nil
	default:
		return Color{}, fmt.Errorf("color %q: unrecognized format", s)
	}
}

// Add returns the channel-wise sum.
func (c Color) Add(o Color) Color {
	return Color{c.R + o.R, c.G + o.G, c.B + o.B}
}

// Mul returns the channel-wise product.
func (c Color) Mul(o Color) Color {
	return Color{c.R * o.R, c.G * o.G, c.B * o.B}
}

// Scale multiplies every channel by s.
func (c Color) Scale(s float64) Color {
	return Color{c.R * s, c.G * s, c.B * s}
}

// RGBA8 clamps the color to 8-bit channels.
func (c Color) RGBA8() (r, g, b uint8) {
	return to8(c.R), to8(c.G), to8(c.B)
}

func to8(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}

func pow(x, y float64) float64 { return math.Pow(x, y) }

// Sub returns the channel-wise difference.
func (c Color) Sub(o Color) Color {
	return Color{c.R - o.R, c.G - o.G, c.B - o.B}
}
