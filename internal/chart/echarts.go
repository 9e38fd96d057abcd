package chart

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/raster.viewer/internal/units"
)

// EChartsAssetsHost is where rendered pages load the echarts scripts from.
var EChartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

var densityRamp = []string{"#f7fcb9", "#d9f0a3", "#addd8e", "#78c679", "#41ab5d", "#238443", "#005a32"}

// WriteECharts renders h as an interactive bar chart page.
func (h *Histogram) WriteECharts(w io.Writer, title, subtitle string) error {
	if h == nil {
		return ErrNoData
	}
	x := make([]string, len(h.Bars))
	y := make([]opts.BarData, len(h.Bars))
	for i, b := range h.Bars {
		x[i] = units.Label(b.Lo) + "–" + units.Label(b.Hi)
		y[i] = opts.BarData{Value: b.Count, Name: rangeTip(b.Lo, b.Hi, b.Count)}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "480px", AssetsHost: EChartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "value", NameLocation: "middle", NameGap: 30}),
		charts.WithYAxisOpts(opts.YAxis{Name: "pixels", Min: 0}),
	)
	bar.SetXAxis(x).
		AddSeries("histogram", y, charts.WithItemStyleOpts(opts.ItemStyle{Color: BarColor}))

	return renderPage(w, bar)
}

// WriteECharts renders d as a scatter of cell centres coloured by count.
func (d *Density) WriteECharts(w io.Writer, title, subtitle string) error {
	if d == nil {
		return ErrNoData
	}
	data := make([]opts.ScatterData, 0, len(d.Cells))
	for _, c := range d.Cells {
		data = append(data, opts.ScatterData{
			Value: []interface{}{(c.X0 + c.X1) / 2, (c.Y0 + c.Y1) / 2, c.Count},
			Name:  cellTip(c),
		})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "720px", Height: "720px", AssetsHost: EChartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("%s cells=%d", subtitle, len(data))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: d.XMin, Max: d.XMax, Name: "x", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: d.YMin, Max: d.YMax, Name: "y", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(d.MaxCount),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: densityRamp},
		}),
	)
	scatter.AddSeries("density", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))

	return renderPage(w, scatter)
}

func renderPage(w io.Writer, c components.Charter) error {
	page := components.NewPage()
	page.SetAssetsHost(EChartsAssetsHost)
	page.AddCharts(c)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render chart page: %w", err)
	}
	return nil
}
