package finding

import (
	"fmt"
	"math"
)

// Location is a rectangle on the rendered page, expressed on a 0-100
// normalized scale so that findings from agents rendering at different
// viewport sizes remain comparable. The zero value means the finding is
// not visually anchored.
type Location struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsZero reports whether the location carries no spatial anchor.
func (l Location) IsZero() bool {
	return l.X == 0 && l.Y == 0 && l.Width == 0 && l.Height == 0
}

// GridKey snaps the rectangle origin to a coarse grid of the given cell
// size and returns a stable key. Coarse binning absorbs small coordinate
// disagreements between agents that rendered the same element.
func (l Location) GridKey(cell float64) string {
	if l.IsZero() {
		return ""
	}
	if cell <= 0 {
		cell = 10
	}
	gx := math.Floor(l.X / cell)
	gy := math.Floor(l.Y / cell)
	return fmt.Sprintf("%.0f:%.0f", gx, gy)
}

// Normalize converts pixel coordinates to the 0-100 scale given the
// viewport dimensions. Non-positive viewport dimensions yield the zero
// location.
func Normalize(x, y, w, h, viewportW, viewportH float64) Location {
	if viewportW <= 0 || viewportH <= 0 {
		return Location{}
	}
	return Location{
		X:      clampPct(x / viewportW * 100),
		Y:      clampPct(y / viewportH * 100),
		Width:  clampPct(w / viewportW * 100),
		Height: clampPct(h / viewportH * 100),
	}
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
