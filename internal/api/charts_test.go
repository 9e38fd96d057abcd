package api

import (
	"bytes"
	"image/png"
	"math"
	"net/http"
	"strings"
	"testing"

	"github.com/banshee-data/raster.viewer/internal/rstats"
	"github.com/banshee-data/raster.viewer/internal/session"
	"github.com/banshee-data/raster.viewer/internal/testutil"
	"github.com/banshee-data/raster.viewer/internal/units"
)

func successArea() session.SlotState {
	return session.SlotState{
		Slot:      session.SlotA,
		Phase:     session.Success,
		RequestID: 7,
		LayerID:   "elev",
		Area: &rstats.AreaStats{
			Count:         6,
			Mean:          12.5,
			Median:        12,
			Min:           1,
			Max:           14,
			Std:           math.NaN(),
			Sum:           75,
			ValidAreaM2:   2.5e6,
			NoDataAreaM2:  400,
			CoverageRatio: 0.75,
			Histogram:     &rstats.Histogram{Counts: []int64{1, 3, 2}, BinEdges: []float64{0, 5, 10, 15}},
		},
	}
}

func successScatter() session.SlotState {
	return session.SlotState{
		Slot:      session.SlotScatter,
		Phase:     session.Success,
		RequestID: 9,
		LayerID:   "elev",
		LayerIDY:  "slope",
		Scatter: &rstats.ScatterStats{
			N: 10, R: 0.8, Slope: 2, Intercept: math.NaN(),
			Density: &rstats.Density2D{
				XEdges: []float64{0, 1, 2},
				YEdges: []float64{0, 10, 20},
				Matrix: [][]int64{{1, 0}, {4, 5}},
			},
		},
	}
}

func TestShowView_Empty(t *testing.T) {
	ts := setupTestServer(t, false)
	rec := ts.do(t, http.MethodGet, "/api/view", nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	body := rec.Body.String()
	if !strings.Contains(body, "Click the map") {
		t.Errorf("missing hint:\n%s", body)
	}
	if strings.Contains(body, `id="chart-tooltip"`) || strings.Contains(body, "<script") {
		t.Errorf("view fragment must not carry the tooltip:\n%s", body)
	}
}

func TestShowView_AllSlots(t *testing.T) {
	ts := setupTestServer(t, false)
	ts.view.RenderSlot(successArea())
	ts.view.RenderSlot(session.SlotState{Slot: session.SlotB, Phase: session.Loading, RequestID: 8, LayerID: "slope"})
	ts.view.RenderSlot(successScatter())

	rec := ts.do(t, http.MethodGet, "/api/view", nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rec.Body.String()

	for _, want := range []string{
		"A: Elevation",
		"<td>12.5 m</td>",
		"<td>" + units.Missing + "</td>",
		"<td>2.50 km²</td>",
		"<td>75.0%</td>",
		`class="chart chart-histogram"`,
		"B: slope",
		"Loading…",
		"Elevation vs slope",
		`class="chart chart-density"`,
		`href="/charts/scatter"`,
		`href="/api/chart/A.png"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if strings.Contains(body, `id="chart-tooltip"`) {
		t.Error("view fragment carries a tooltip element")
	}
	if n := strings.Count(body, `class="chart-wrap"`); n != 2 {
		t.Errorf("chart wrappers = %d, want 2", n)
	}
}

func TestShowView_NoHistogram(t *testing.T) {
	ts := setupTestServer(t, false)
	st := successArea()
	st.Area.Histogram = nil
	ts.view.RenderSlot(st)
	sc := successScatter()
	sc.Scatter.Density = nil
	ts.view.RenderSlot(sc)

	rec := ts.do(t, http.MethodGet, "/api/view", nil)
	body := rec.Body.String()
	if !strings.Contains(body, "No histogram available") || !strings.Contains(body, "No density available") {
		t.Errorf("missing fallbacks:\n%s", body)
	}
	if strings.Contains(body, "<svg") {
		t.Error("no chart should be drawn")
	}
}

func TestShowChart(t *testing.T) {
	ts := setupTestServer(t, false)
	ts.view.RenderSlot(successArea())
	ts.view.RenderSlot(successScatter())

	tests := []struct {
		path        string
		status      int
		contentType string
	}{
		{"/api/chart/A.svg", http.StatusOK, "image/svg+xml"},
		{"/api/chart/a.png", http.StatusOK, "image/png"},
		{"/api/chart/scatter.svg", http.StatusOK, "image/svg+xml"},
		{"/api/chart/scatter.png", http.StatusOK, "image/png"},
		{"/api/chart/B.svg", http.StatusNotFound, "application/json"},
		{"/api/chart/A.gif", http.StatusNotFound, "application/json"},
		{"/api/chart/Z.svg", http.StatusNotFound, "application/json"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := ts.do(t, http.MethodGet, tt.path, nil)
			testutil.AssertStatusCode(t, rec.Code, tt.status)
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			if tt.contentType == "image/png" {
				if _, err := png.Decode(bytes.NewReader(rec.Body.Bytes())); err != nil {
					t.Errorf("invalid png: %v", err)
				}
			}
		})
	}
}

func TestShowChartPage(t *testing.T) {
	ts := setupTestServer(t, false)
	ts.view.RenderSlot(successArea())

	rec := ts.do(t, http.MethodGet, "/charts/A", nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	body := rec.Body.String()
	if !strings.Contains(body, "echarts") || !strings.Contains(body, "A: Elevation") {
		t.Errorf("unexpected page:\n%.400s", body)
	}

	rec = ts.do(t, http.MethodGet, "/charts/scatter", nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
	rec = ts.do(t, http.MethodGet, "/charts/nope", nil)
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
}
