package termhost

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"
)

// statusLine is the progress text shown over the frame.
type statusLine struct {
	text   string
	hidden bool
}

// layoutStatus returns the first column that centers text in cols cells,
// and the text truncated to fit.
func layoutStatus(text string, cols int) (int, string) {
	if cols <= 0 {
		return 0, ""
	}
	text = runewidth.Truncate(text, cols, "…")
	return (cols - runewidth.StringWidth(text)) / 2, text
}

// textColorOn picks black or white text, whichever reads better on bg.
func textColorOn(bg color.Color) color.Color {
	c, ok := colorful.MakeColor(bg)
	if !ok {
		return color.White
	}
	l, _, _ := c.Lab()
	if l > 0.6 {
		return color.Black
	}
	return color.White
}

func runeWidth(r rune) int { return runewidth.RuneWidth(r) }

func runewidthOf(s string) int { return runewidth.StringWidth(s) }
