package chart

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/raster.viewer/internal/units"
)

// Cell is one populated bin of a density grid.
type Cell struct {
	X0, X1, Y0, Y1 float64 // data-space bounds
	Count          int64
	Opacity        float64
	X, Y, W, H     float64 // pixel rectangle
}

// Density is a laid-out 2-D density grid. Cells holds only the bins with a
// positive count.
type Density struct {
	Box                    Box
	XEdges, YEdges         []float64
	Matrix                 [][]int64
	Cells                  []Cell
	MaxCount               int64
	XMin, XMax, YMin, YMax float64
	Labels                 []Label
}

// NewDensity lays out a grid whose row i covers [xEdges[i], xEdges[i+1]) and
// column j covers [yEdges[j], yEdges[j+1]). It returns nil when the matrix
// shape does not match the edges.
//
// Each axis scales linearly from the min to the max of its edges. Cell
// opacity is 0.2 + 0.8*count/maxCount.
func NewDensity(xEdges, yEdges []float64, matrix [][]int64, box Box) *Density {
	if len(xEdges) < 2 || len(yEdges) < 2 || len(matrix) != len(xEdges)-1 {
		return nil
	}
	for _, row := range matrix {
		if len(row) != len(yEdges)-1 {
			return nil
		}
	}

	d := &Density{
		Box:    box,
		XEdges: xEdges,
		YEdges: yEdges,
		Matrix: matrix,
		XMin:   floats.Min(xEdges),
		XMax:   floats.Max(xEdges),
		YMin:   floats.Min(yEdges),
		YMax:   floats.Max(yEdges),
	}
	for _, row := range matrix {
		for _, c := range row {
			if c > d.MaxCount {
				d.MaxCount = c
			}
		}
	}

	innerW, innerH := box.Inner()
	xSpan := span(d.XMin, d.XMax)
	ySpan := span(d.YMin, d.YMax)
	sx := func(v float64) float64 { return box.Pad + (v-d.XMin)/xSpan*innerW }
	sy := func(v float64) float64 { return box.Pad + innerH - (v-d.YMin)/ySpan*innerH }

	for i, row := range matrix {
		for j, c := range row {
			if c <= 0 {
				continue
			}
			x0, x1 := xEdges[i], xEdges[i+1]
			y0, y1 := yEdges[j], yEdges[j+1]
			px0, px1 := sx(x0), sx(x1)
			py0, py1 := sy(y0), sy(y1)
			d.Cells = append(d.Cells, Cell{
				X0: x0, X1: x1, Y0: y0, Y1: y1,
				Count:   c,
				Opacity: 0.2 + 0.8*float64(c)/float64(d.MaxCount),
				X:       math.Min(px0, px1),
				Y:       math.Min(py0, py1),
				W:       math.Abs(px1 - px0),
				H:       math.Abs(py1 - py0),
			})
		}
	}

	bottom := box.Pad + innerH
	d.Labels = []Label{
		{X: box.Pad, Y: bottom + 14, Anchor: "start", Text: units.Label(d.XMin)},
		{X: box.Pad + innerW, Y: bottom + 14, Anchor: "end", Text: units.Label(d.XMax)},
		{X: box.Pad - 4, Y: bottom, Anchor: "end", Text: units.Label(d.YMin)},
		{X: box.Pad - 4, Y: box.Pad + 4, Anchor: "end", Text: units.Label(d.YMax)},
	}
	return d
}

// Regions returns one hover region per populated cell.
func (d *Density) Regions() []Region {
	if d == nil {
		return nil
	}
	out := make([]Region, len(d.Cells))
	for i, c := range d.Cells {
		out[i] = Region{
			X: c.X, Y: c.Y, W: c.W, H: c.H,
			Tip: cellTip(c),
		}
	}
	return out
}

func span(lo, hi float64) float64 {
	s := hi - lo
	if s == 0 || math.IsNaN(s) {
		return 1
	}
	return s
}
