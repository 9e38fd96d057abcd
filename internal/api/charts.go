package api

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/banshee-data/raster.viewer/internal/chart"
	"github.com/banshee-data/raster.viewer/internal/httputil"
	"github.com/banshee-data/raster.viewer/internal/monitoring"
	"github.com/banshee-data/raster.viewer/internal/rstats"
	"github.com/banshee-data/raster.viewer/internal/session"
	"github.com/banshee-data/raster.viewer/internal/units"
)

//go:embed templates/*.html
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

var templates = template.Must(template.ParseFS(templateFiles, "templates/*.html"))

func staticFS() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

type statRow struct {
	Label string
	Value string
}

type slotView struct {
	Slot      string
	Title     string
	Phase     string
	RequestID uint64
	Message   string
	Rows      []statRow
	Chart     template.HTML
	NoChart   string
	PageURL   string
	PNGURL    string
}

type viewData struct {
	Slots []slotView
}

// layerName is the display name of a catalog layer, falling back to its id.
func (s *Server) layerName(id string) string {
	if ref, ok := s.catalog.Get(id); ok && ref.DisplayName != "" {
		return ref.DisplayName
	}
	return id
}

func (s *Server) layerUnits(id string, stats *rstats.AreaStats) string {
	if stats != nil && stats.Units != "" {
		return stats.Units
	}
	ref, _ := s.catalog.Get(id)
	return ref.Units
}

func (s *Server) slotTitle(st session.SlotState) string {
	if st.Slot == session.SlotScatter {
		return fmt.Sprintf("%s vs %s", s.layerName(st.LayerID), s.layerName(st.LayerIDY))
	}
	return fmt.Sprintf("%s: %s", st.Slot, s.layerName(st.LayerID))
}

// histogramFor returns the area histogram of a successful slot, or nil.
func histogramFor(st session.SlotState) *chart.Histogram {
	if st.Phase != session.Success || st.Area == nil || st.Area.Histogram == nil {
		return nil
	}
	return chart.NewHistogram(st.Area.Histogram.Counts, st.Area.Histogram.BinEdges, chart.DefaultBox)
}

// densityFor returns the scatter density of a successful slot, or nil.
func densityFor(st session.SlotState) *chart.Density {
	if st.Phase != session.Success || st.Scatter == nil || st.Scatter.Density == nil {
		return nil
	}
	d := st.Scatter.Density
	return chart.NewDensity(d.XEdges, d.YEdges, d.Matrix, chart.DefaultBox)
}

func (s *Server) areaRows(st session.SlotState) []statRow {
	a := st.Area
	u := s.layerUnits(st.LayerID, a)
	return []statRow{
		{"Count", units.Count(a.Count)},
		{"Mean", units.Value(a.Mean, u)},
		{"Median", units.Value(a.Median, u)},
		{"Min", units.Value(a.Min, u)},
		{"Max", units.Value(a.Max, u)},
		{"Std", units.Value(a.Std, u)},
		{"Sum", units.Value(a.Sum, u)},
		{"Valid area", units.Area(a.ValidAreaM2)},
		{"No-data area", units.Area(a.NoDataAreaM2)},
		{"Coverage", units.Percent(a.CoverageRatio)},
	}
}

func scatterRows(sc *rstats.ScatterStats) []statRow {
	return []statRow{
		{"Pairs", units.Count(sc.N)},
		{"Pearson r", units.Label(sc.R)},
		{"Slope", units.Label(sc.Slope)},
		{"Intercept", units.Label(sc.Intercept)},
	}
}

func (s *Server) buildSlotView(st session.SlotState) slotView {
	v := slotView{
		Slot:      string(st.Slot),
		Title:     s.slotTitle(st),
		Phase:     string(st.Phase),
		RequestID: st.RequestID,
		Message:   st.Message,
		PageURL:   "/charts/" + string(st.Slot),
		PNGURL:    "/api/chart/" + string(st.Slot) + ".png",
	}
	if st.Phase != session.Success {
		return v
	}

	var r chart.Renderer
	if st.Slot == session.SlotScatter {
		v.Rows = scatterRows(st.Scatter)
		v.NoChart = "No density available"
		if d := densityFor(st); d != nil {
			r = d
		}
	} else {
		v.Rows = s.areaRows(st)
		v.NoChart = "No histogram available"
		if h := histogramFor(st); h != nil {
			r = h
		}
	}
	if r == nil {
		return v
	}
	html, err := chart.Inline(r)
	if err != nil {
		monitoring.Logf("api: rendering %s chart failed: %v", st.Slot, err)
		return v
	}
	v.Chart = html
	return v
}

// showView renders the result panel. The page shell carries the tooltip the
// charts share, so the fragment never includes it.
func (s *Server) showView(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	var data viewData
	for _, slot := range []session.Slot{session.SlotA, session.SlotB, session.SlotScatter} {
		st := s.view.Slot(slot)
		if st.Phase == session.Idle {
			continue
		}
		data.Slots = append(data.Slots, s.buildSlotView(st))
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "view.html", data); err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteBody(w, "text/html; charset=utf-8", buf.Bytes())
}

// showChart serves /api/chart/{slot}.svg and /api/chart/{slot}.png.
func (s *Server) showChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/api/chart/")
	ext := path.Ext(name)
	slot, ok := session.ParseSlot(strings.TrimSuffix(name, ext))
	if !ok {
		httputil.NotFound(w, fmt.Sprintf("unknown slot %q", strings.TrimSuffix(name, ext)))
		return
	}
	st := s.view.Slot(slot)

	var buf bytes.Buffer
	var err error
	var contentType string
	switch ext {
	case ".svg":
		contentType = "image/svg+xml"
		if slot == session.SlotScatter {
			err = densityFor(st).WriteSVG(&buf)
		} else {
			err = histogramFor(st).WriteSVG(&buf)
		}
	case ".png":
		contentType = "image/png"
		if slot == session.SlotScatter {
			err = densityFor(st).WritePNG(&buf, s.slotTitle(st), s.layerName(st.LayerID), s.layerName(st.LayerIDY))
		} else {
			err = histogramFor(st).WritePNG(&buf, s.slotTitle(st), s.layerUnits(st.LayerID, st.Area))
		}
	default:
		httputil.NotFound(w, fmt.Sprintf("unsupported chart format %q", ext))
		return
	}
	if errors.Is(err, chart.ErrNoData) {
		httputil.NotFound(w, fmt.Sprintf("no chart for slot %s", slot))
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteBody(w, contentType, buf.Bytes())
}

// showChartPage serves the interactive go-echarts page for a slot.
func (s *Server) showChartPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	slot, ok := session.ParseSlot(strings.TrimPrefix(r.URL.Path, "/charts/"))
	if !ok {
		httputil.NotFound(w, "unknown slot")
		return
	}
	st := s.view.Slot(slot)
	subtitle := fmt.Sprintf("request %d", st.RequestID)

	var buf bytes.Buffer
	var err error
	if slot == session.SlotScatter {
		err = densityFor(st).WriteECharts(&buf, s.slotTitle(st), subtitle)
	} else {
		err = histogramFor(st).WriteECharts(&buf, s.slotTitle(st), subtitle)
	}
	if errors.Is(err, chart.ErrNoData) {
		httputil.NotFound(w, fmt.Sprintf("no chart for slot %s", slot))
		return
	}
	if err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteBody(w, "text/html; charset=utf-8", buf.Bytes())
}
