package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/paulmach/orb"

	"github.com/banshee-data/raster.viewer/internal/geo"
	"github.com/banshee-data/raster.viewer/internal/httputil"
	"github.com/banshee-data/raster.viewer/internal/monitoring"
	"github.com/banshee-data/raster.viewer/internal/session"
	"github.com/banshee-data/raster.viewer/internal/style"
	"github.com/banshee-data/raster.viewer/internal/tiles"
	"github.com/banshee-data/raster.viewer/internal/version"
)

const maxBodySize = 64 << 10

type clickRequest struct {
	Lon *float64 `json:"lon"`
	Lat *float64 `json:"lat"`
}

type edgeRequest struct {
	EdgeKm *float64 `json:"edge_km"`
}

type layerRequest struct {
	Slot string `json:"slot"`
	ID   string `json:"id"`
}

type compareRequest struct {
	Enabled bool `json:"enabled"`
}

type styleRequest struct {
	Slot   string        `json:"slot"`
	Params *style.Params `json:"params"`
}

type stateResponse struct {
	session.Snapshot
	Outline  *geo.SquareWindow  `json:"outline"`
	Preview  *orb.Bound         `json:"outline_preview"`
	Tiles    []tiles.LayerState `json:"tiles"`
	Revision uint64             `json:"revision"`
}

func decodeBody(r *http.Request, v interface{}) error {
	body := io.LimitReader(r.Body, maxBodySize)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return fmt.Errorf("invalid JSON: %v", err)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// post queues ev and answers 202, or 503 once the session has stopped.
func (s *Server) post(w http.ResponseWriter, ev session.Event) {
	if err := s.events.Post(ev); err != nil {
		httputil.ServiceUnavailable(w, err.Error())
		return
	}
	httputil.Accepted(w, map[string]string{"status": "queued"})
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"geoserver_base_url": s.cfg.GetGeoServerBaseURL(),
		"rstats_base_url":    s.cfg.GetStatsBaseURL(),
		"global_crs":         s.cfg.GetGlobalCRS(),
		"style_name":         s.cfg.GetStyleName(),
		"default_edge_km":    s.cfg.GetDefaultEdgeKm(),
		"layers":             s.catalog.Layers(),
		"app_version":        version.Version,
		"git_sha":            version.GitSHA,
	})
}

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req clickRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if req.Lon == nil || req.Lat == nil {
		httputil.BadRequest(w, "lon and lat are required")
		return
	}
	lon, lat := *req.Lon, *req.Lat
	if !finite(lon) || !finite(lat) || lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		httputil.BadRequest(w, fmt.Sprintf("invalid coordinate %v,%v", lon, lat))
		return
	}
	s.post(w, session.Click{Center: orb.Point{lon, lat}})
}

func (s *Server) handleEdge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req edgeRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if req.EdgeKm == nil || !finite(*req.EdgeKm) {
		httputil.BadRequest(w, "edge_km must be a number")
		return
	}
	s.post(w, session.SetEdge{EdgeKm: *req.EdgeKm})
}

func (s *Server) handleLayer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req layerRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	ev, err := s.selectLayer(req.Slot, req.ID)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	s.post(w, ev)
}

// selectLayer builds a SelectLayer event, attaching the layer's saved
// preset if there is one. An empty id clears the slot.
func (s *Server) selectLayer(slotName, id string) (session.SelectLayer, error) {
	slot, ok := session.ParseSlot(slotName)
	if !ok || slot == session.SlotScatter {
		return session.SelectLayer{}, fmt.Errorf("slot must be A or B, got %q", slotName)
	}
	ev := session.SelectLayer{Slot: slot, LayerID: id}
	if id == "" {
		return ev, nil
	}
	if _, ok := s.catalog.Get(id); !ok {
		return ev, fmt.Errorf("unknown layer %q", id)
	}
	if s.presets != nil {
		preset, err := s.presets.GetStylePreset(id)
		if err != nil {
			monitoring.Logf("api: preset lookup for %s failed: %v", id, err)
		}
		ev.Preset = preset
	}
	return ev, nil
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req compareRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	s.post(w, session.SetCompare{Enabled: req.Enabled})
}

func (s *Server) handleStyle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	var req styleRequest
	if err := decodeBody(r, &req); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	slot, ok := session.ParseSlot(req.Slot)
	if !ok || slot == session.SlotScatter {
		httputil.BadRequest(w, fmt.Sprintf("slot must be A or B, got %q", req.Slot))
		return
	}
	if req.Params == nil {
		httputil.BadRequest(w, "params are required")
		return
	}
	if err := req.Params.Validate(); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	s.post(w, session.SetStyle{Slot: slot, Params: *req.Params})
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	s.post(w, session.Dismiss{})
}

func (s *Server) showState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	outline, preview := s.view.Outline()
	httputil.WriteJSONOK(w, stateResponse{
		Snapshot: s.view.Snapshot(),
		Outline:  outline,
		Preview:  preview,
		Tiles:    s.tiles.Layers(),
		Revision: s.view.Revision(),
	})
}

func (s *Server) showTiles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, s.tiles.Layers())
}
