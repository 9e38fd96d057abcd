package chart

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PNG export size.
var (
	PNGWidth  = 6 * vg.Inch
	PNGHeight = 4 * vg.Inch
)

// WritePNG draws h with gonum/plot.
func (h *Histogram) WritePNG(w io.Writer, title, xLabel string) error {
	if h == nil {
		return ErrNoData
	}
	bins := make([]plotter.HistogramBin, len(h.Bars))
	for i, b := range h.Bars {
		bins[i] = plotter.HistogramBin{Min: b.Lo, Max: b.Hi, Weight: float64(b.Count)}
	}
	hist := &plotter.Histogram{
		Bins:      bins,
		Width:     h.Bars[0].Hi - h.Bars[0].Lo,
		FillColor: mustHex(BarColor),
		LineStyle: plotter.DefaultLineStyle,
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "pixels"
	p.Add(hist)
	return writePlot(p, w)
}

// WritePNG draws d as a heat map. Empty cells are left transparent.
func (d *Density) WritePNG(w io.Writer, title, xLabel, yLabel string) error {
	if d == nil || len(d.Cells) == 0 {
		return ErrNoData
	}
	grid := newCellGrid(d)
	if c, r := grid.Dims(); c < 2 || r < 2 {
		return ErrNoData
	}
	hm := plotter.NewHeatMap(grid, palette.Heat(12, 1))
	hm.NaN = color.Transparent

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(hm)
	return writePlot(p, w)
}

func writePlot(p *plot.Plot, w io.Writer) error {
	wt, err := p.WriterTo(PNGWidth, PNGHeight, "png")
	if err != nil {
		return fmt.Errorf("create png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

// cellGrid adapts a Density to plotter.GridXYZ. Columns are x bins and rows
// are y bins; empty cells are NaN so the heat map skips them.
type cellGrid struct{ d *Density }

func newCellGrid(d *Density) cellGrid { return cellGrid{d: d} }

func (g cellGrid) Dims() (c, r int) { return len(g.d.XEdges) - 1, len(g.d.YEdges) - 1 }
func (g cellGrid) X(c int) float64  { return (g.d.XEdges[c] + g.d.XEdges[c+1]) / 2 }
func (g cellGrid) Y(r int) float64  { return (g.d.YEdges[r] + g.d.YEdges[r+1]) / 2 }

func (g cellGrid) Z(c, r int) float64 {
	if v := g.d.Matrix[c][r]; v > 0 {
		return float64(v)
	}
	return math.NaN()
}

func mustHex(s string) color.Color {
	var r, gr, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &gr, &b); err != nil {
		return color.Black
	}
	return color.RGBA{R: r, G: gr, B: b, A: 0xff}
}
