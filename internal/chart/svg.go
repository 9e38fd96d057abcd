package chart

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"
)

// Colours used by the SVG renderer.
const (
	BarColor     = "#41ab5d"
	DensityColor = "#005a32"
	AxisColor    = "#888888"
	LabelColor   = "#333333"
)

// Renderer is implemented by every chart model.
type Renderer interface {
	WriteSVG(w io.Writer) error
}

// WriteSVG writes h as a standalone SVG document.
func (h *Histogram) WriteSVG(w io.Writer) error {
	if h == nil {
		return ErrNoData
	}
	canvas := begin(w, h.Box, "histogram")
	canvas.Group(`class="bars"`, "fill:"+BarColor)
	peak := h.Tallest()
	for i, b := range h.Bars {
		if b.H <= 0 {
			continue
		}
		x0, x1 := px(b.X), px(b.X+b.W)
		x, y, bw, bh := x0, px(b.Y), max(1, x1-x0-1), max(1, px(b.Y+b.H)-px(b.Y))
		if i == peak {
			canvas.Rect(x, y, bw, bh, `class="peak"`)
			continue
		}
		canvas.Rect(x, y, bw, bh)
	}
	canvas.Gend()
	finish(canvas, h.Box, h.Labels, h.Regions())
	return nil
}

// WriteSVG writes d as a standalone SVG document.
func (d *Density) WriteSVG(w io.Writer) error {
	if d == nil {
		return ErrNoData
	}
	canvas := begin(w, d.Box, "density")
	canvas.Group(`class="cells"`, "fill:"+DensityColor)
	for _, c := range d.Cells {
		x0, x1 := px(c.X), px(c.X+c.W)
		y0, y1 := px(c.Y), px(c.Y+c.H)
		canvas.Rect(x0, y0, max(1, x1-x0), max(1, y1-y0),
			fmt.Sprintf(`fill-opacity="%.3f"`, c.Opacity))
	}
	canvas.Gend()
	finish(canvas, d.Box, d.Labels, d.Regions())
	return nil
}

// Inline renders r for embedding in an HTML page, without the XML prolog.
func Inline(r Renderer) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.WriteSVG(&buf); err != nil {
		return "", err
	}
	s := buf.String()
	if i := strings.Index(s, "<svg"); i > 0 {
		s = s[i:]
	}
	return template.HTML(s), nil
}

func begin(w io.Writer, box Box, kind string) *svg.SVG {
	canvas := svg.New(w)
	width, height := px(box.Width), px(box.Height)
	canvas.Start(width, height,
		fmt.Sprintf(`viewBox="0 0 %d %d"`, width, height),
		fmt.Sprintf(`class="chart chart-%s"`, kind))
	return canvas
}

func finish(canvas *svg.SVG, box Box, labels []Label, regions []Region) {
	innerW, innerH := box.Inner()
	left, bottom := px(box.Pad), px(box.Pad+innerH)
	canvas.Line(left, bottom, px(box.Pad+innerW), bottom, "stroke:"+AxisColor)
	canvas.Line(left, px(box.Pad), left, bottom, "stroke:"+AxisColor)

	canvas.Group(`class="labels"`, "font-size:10px;font-family:sans-serif;fill:"+LabelColor)
	for _, l := range labels {
		canvas.Text(px(l.X), px(l.Y), l.Text, `text-anchor="`+l.Anchor+`"`)
	}
	canvas.Gend()

	canvas.Group(`class="regions"`, `fill="transparent"`)
	for _, r := range regions {
		x0, x1 := px(r.X), px(r.X+r.W)
		y0, y1 := px(r.Y), px(r.Y+r.H)
		canvas.Rect(x0, y0, max(1, x1-x0), max(1, y1-y0),
			`data-tip="`+html.EscapeString(r.Tip)+`"`)
	}
	canvas.Gend()
	canvas.End()
}

func px(v float64) int {
	return int(math.Round(v))
}
