// Package chart turns binned statistics into charts: SVG with hover regions
// for the viewer, go-echarts pages for interactive inspection, and PNG
// exports drawn with gonum/plot.
//
// Constructors return nil when the input has nothing to show. Callers treat
// a nil chart as "no histogram available" rather than as an error.
package chart

import (
	"fmt"
	"math"

	"github.com/banshee-data/raster.viewer/internal/units"
)

// Box is the pixel frame of a chart. Pad is applied on every side.
type Box struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Pad    float64 `json:"pad"`
}

// DefaultBox is the frame used by the viewer panels.
var DefaultBox = Box{Width: 320, Height: 180, Pad: 28}

// Inner returns the plotting area inside the padding.
func (b Box) Inner() (w, h float64) {
	return math.Max(0, b.Width-2*b.Pad), math.Max(0, b.Height-2*b.Pad)
}

// Region is a hover target. Tip is the tooltip text shown while the pointer
// is over the region.
type Region struct {
	X, Y, W, H float64
	Tip        string
}

// Label is a piece of axis text anchored at (X, Y).
type Label struct {
	X, Y   float64
	Anchor string // start, middle or end
	Text   string
}

func rangeTip(lo, hi float64, count int64) string {
	return fmt.Sprintf("[%s, %s): %s", units.Label(lo), units.Label(hi), units.Count(count))
}

func cellTip(c Cell) string {
	return fmt.Sprintf("x [%s, %s) y [%s, %s): %s",
		units.Label(c.X0), units.Label(c.X1), units.Label(c.Y0), units.Label(c.Y1), units.Count(c.Count))
}
