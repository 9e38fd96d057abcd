package chart

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/raster.viewer/internal/units"
)

// Bar is one histogram bin in pixel space.
type Bar struct {
	Lo, Hi     float64
	Count      int64
	X, Y, W, H float64
}

// Histogram is a laid-out 1-D histogram.
type Histogram struct {
	Box      Box
	Bars     []Bar
	MaxCount int64
	Labels   []Label
}

// NewHistogram lays out counts over binEdges. It returns nil when counts is
// empty or len(binEdges) != len(counts)+1.
//
// Bars are innerWidth/len(counts) wide. A bin's height is
// count/max(counts)*innerHeight, but never less than one pixel when the bin
// is non-empty.
func NewHistogram(counts []int64, binEdges []float64, box Box) *Histogram {
	if len(counts) == 0 || len(binEdges) != len(counts)+1 {
		return nil
	}
	innerW, innerH := box.Inner()

	fc := make([]float64, len(counts))
	for i, c := range counts {
		fc[i] = math.Max(0, float64(c))
	}
	maxCount := floats.Max(fc)

	h := &Histogram{
		Box:      box,
		Bars:     make([]Bar, len(counts)),
		MaxCount: int64(maxCount),
	}
	barW := innerW / float64(len(counts))
	for i, c := range counts {
		height := 0.0
		if fc[i] > 0 && maxCount > 0 {
			height = math.Max(1, fc[i]/maxCount*innerH)
		}
		h.Bars[i] = Bar{
			Lo:    binEdges[i],
			Hi:    binEdges[i+1],
			Count: c,
			X:     box.Pad + float64(i)*barW,
			Y:     box.Pad + innerH - height,
			W:     barW,
			H:     height,
		}
	}

	bottom := box.Pad + innerH
	h.Labels = []Label{
		{X: box.Pad - 4, Y: bottom, Anchor: "end", Text: "0"},
		{X: box.Pad - 4, Y: box.Pad + 4, Anchor: "end", Text: units.Count(h.MaxCount)},
		{X: box.Pad, Y: bottom + 14, Anchor: "start", Text: units.Label(binEdges[0])},
		{X: box.Pad + innerW, Y: bottom + 14, Anchor: "end", Text: units.Label(binEdges[len(binEdges)-1])},
	}
	return h
}

// Tallest returns the index of the bar with the largest count, or -1.
func (h *Histogram) Tallest() int {
	if h == nil {
		return -1
	}
	best := -1
	for i, b := range h.Bars {
		if best < 0 || b.H > h.Bars[best].H {
			best = i
		}
	}
	return best
}

// Regions returns one hover region per bin. Regions span the full column so
// that short and empty bins can still be inspected.
func (h *Histogram) Regions() []Region {
	if h == nil {
		return nil
	}
	_, innerH := h.Box.Inner()
	out := make([]Region, len(h.Bars))
	for i, b := range h.Bars {
		out[i] = Region{
			X:   b.X,
			Y:   h.Box.Pad,
			W:   b.W,
			H:   innerH,
			Tip: rangeTip(b.Lo, b.Hi, b.Count),
		}
	}
	return out
}
