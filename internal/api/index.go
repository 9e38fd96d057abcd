package api

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/banshee-data/raster.viewer/internal/catalog"
	"github.com/banshee-data/raster.viewer/internal/chart"
	"github.com/banshee-data/raster.viewer/internal/httputil"
	"github.com/banshee-data/raster.viewer/internal/monitoring"
	"github.com/banshee-data/raster.viewer/internal/session"
	"github.com/banshee-data/raster.viewer/internal/version"
)

type indexData struct {
	Layers  []catalog.RasterRef
	LayerA  string
	LayerB  string
	Compare bool
	EdgeKm  float64
	Config  map[string]interface{}
	Tooltip template.HTML
}

// showIndex serves the viewer shell. ?layerA= and ?layerB= select layers
// into the slots before the page is rendered.
func (s *Server) showIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		httputil.NotFound(w, "not found")
		return
	}
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}

	sn := s.view.Snapshot()
	data := indexData{
		Layers:  s.catalog.Layers(),
		LayerA:  sn.Slot(session.SlotA).LayerID,
		LayerB:  sn.Slot(session.SlotB).LayerID,
		Compare: sn.Compare,
		EdgeKm:  sn.EdgeKm,
		Config: map[string]interface{}{
			"geoserver_base_url": s.cfg.GetGeoServerBaseURL(),
			"global_crs":         s.cfg.GetGlobalCRS(),
			"app_version":        version.Version,
		},
	}
	if data.EdgeKm <= 0 {
		data.EdgeKm = s.cfg.GetDefaultEdgeKm()
	}

	q := r.URL.Query()
	for _, p := range []struct {
		param string
		slot  session.Slot
		dst   *string
	}{
		{"layerA", session.SlotA, &data.LayerA},
		{"layerB", session.SlotB, &data.LayerB},
	} {
		id := q.Get(p.param)
		if id == "" {
			continue
		}
		ev, err := s.selectLayer(string(p.slot), id)
		if err != nil {
			monitoring.Logf("api: ignoring %s=%q: %v", p.param, id, err)
			continue
		}
		if err := s.events.Post(ev); err != nil {
			httputil.ServiceUnavailable(w, err.Error())
			return
		}
		*p.dst = id
	}

	var tip bytes.Buffer
	if err := chart.WriteTooltip(&tip); err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	data.Tooltip = template.HTML(tip.String())

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		httputil.InternalServerError(w, err.Error())
		return
	}
	httputil.WriteBody(w, "text/html; charset=utf-8", buf.Bytes())
}
