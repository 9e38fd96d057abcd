// Package tiles tracks the styling of map tile layers served by a WMS tile
// server and builds the tile URLs the map widget loads.
package tiles

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/banshee-data/raster.viewer/internal/catalog"
	"github.com/banshee-data/raster.viewer/internal/monitoring"
)

// Renderer re-renders a layer's tiles with a named style and an env string.
type Renderer interface {
	Apply(ctx context.Context, layerID, styleName, env string, opacity float64) error
}

// BBoxPlaceholder is substituted by the map widget for each tile request.
const BBoxPlaceholder = "{bbox-epsg-3857}"

// TileSize is the pixel size requested per tile.
const TileSize = 256

// LayerState is the current rendering of one layer.
type LayerState struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Style    string  `json:"style"`
	Env      string  `json:"env"`
	Opacity  float64 `json:"opacity"`
	Revision int     `json:"revision"`
	URL      string  `json:"url"`
}

// WMS is a Renderer for GeoServer-style WMS endpoints. Each Apply bumps the
// layer revision so the map widget drops cached tiles.
type WMS struct {
	mu      sync.RWMutex
	baseURL string
	crs     string
	layers  map[string]*LayerState
}

// NewWMS creates a renderer for the tile server at baseURL. All catalog
// layers are registered unstyled.
func NewWMS(baseURL, crs string, cat *catalog.Catalog) *WMS {
	w := &WMS{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		crs:     crs,
		layers:  make(map[string]*LayerState),
	}
	for _, ref := range cat.Layers() {
		w.layers[ref.ID] = &LayerState{ID: ref.ID, Name: ref.QualifiedName(), Opacity: 1}
	}
	return w
}

// Apply implements Renderer.
func (w *WMS) Apply(ctx context.Context, layerID, styleName, env string, opacity float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if opacity < 0 || opacity > 1 {
		return fmt.Errorf("opacity %v out of range [0,1]", opacity)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	l, ok := w.layers[layerID]
	if !ok {
		return fmt.Errorf("unknown layer %q", layerID)
	}
	if l.Style == styleName && l.Env == env && l.Opacity == opacity && l.Revision > 0 {
		return nil
	}
	l.Style = styleName
	l.Env = env
	l.Opacity = opacity
	l.Revision++
	l.URL = w.tileURL(l)
	monitoring.Logf("tiles: %s rev=%d style=%s env=%q opacity=%.2f", layerID, l.Revision, styleName, env, opacity)
	return nil
}

// Layer returns the state of one layer.
func (w *WMS) Layer(id string) (LayerState, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	l, ok := w.layers[id]
	if !ok {
		return LayerState{}, false
	}
	s := *l
	if s.URL == "" {
		s.URL = w.tileURL(l)
	}
	return s, true
}

// Layers returns every layer state ordered by id.
func (w *WMS) Layers() []LayerState {
	w.mu.RLock()
	ids := make([]string, 0, len(w.layers))
	for id := range w.layers {
		ids = append(ids, id)
	}
	w.mu.RUnlock()
	sort.Strings(ids)

	out := make([]LayerState, 0, len(ids))
	for _, id := range ids {
		if s, ok := w.Layer(id); ok {
			out = append(out, s)
		}
	}
	return out
}

func (w *WMS) tileURL(l *LayerState) string {
	q := url.Values{}
	q.Set("SERVICE", "WMS")
	q.Set("VERSION", "1.1.1")
	q.Set("REQUEST", "GetMap")
	q.Set("FORMAT", "image/png")
	q.Set("TRANSPARENT", "true")
	q.Set("LAYERS", l.Name)
	q.Set("STYLES", l.Style)
	q.Set("SRS", w.crs)
	q.Set("WIDTH", fmt.Sprint(TileSize))
	q.Set("HEIGHT", fmt.Sprint(TileSize))
	if l.Env != "" {
		q.Set("ENV", l.Env)
	}
	if l.Revision > 0 {
		q.Set("_rev", fmt.Sprint(l.Revision))
	}
	return w.baseURL + "/wms?" + q.Encode() + "&BBOX=" + BBoxPlaceholder
}
