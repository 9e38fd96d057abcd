package geo

import (
	"encoding/json"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// SquareWindow is the square sampling polygon around a clicked point.
// Ring is closed (first == last) and holds the SW, SE, NE, NW corners.
type SquareWindow struct {
	Center         orb.Point
	EdgeKm         float64
	HalfSizeMeters float64
	Ring           orb.Ring
}

// halfSize returns half the planar edge length in metres; non-positive or
// NaN edges collapse to zero.
func halfSize(edgeKm float64) float64 {
	if !(edgeKm > 0) {
		return 0
	}
	return edgeKm * 1000 / 2
}

// NewSquareWindow builds a square of side edgeKm kilometres centred on center,
// square in the planar system of proj. The window is always rebuilt as a
// whole; a non-positive edge yields a ring whose points all equal center.
func NewSquareWindow(proj Projector, center orb.Point, edgeKm float64) SquareWindow {
	half := halfSize(edgeKm)
	w := SquareWindow{
		Center:         center,
		EdgeKm:         edgeKm,
		HalfSizeMeters: half,
	}
	if half == 0 {
		w.Ring = orb.Ring{center, center, center, center, center}
		return w
	}

	c := proj.ToPlanar(center)
	offsets := [4][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	ring := make(orb.Ring, 0, 5)
	for _, o := range offsets {
		ring = append(ring, proj.ToGeo(orb.Point{c[0] + o[0]*half, c[1] + o[1]*half}))
	}
	w.Ring = append(ring, ring[0])
	return w
}

// BoundsFor returns only the SW and NE corners of the window, for live
// preview rectangles that follow the pointer.
func BoundsFor(proj Projector, center orb.Point, edgeKm float64) orb.Bound {
	half := halfSize(edgeKm)
	if half == 0 {
		return orb.Bound{Min: center, Max: center}
	}
	c := proj.ToPlanar(center)
	return orb.Bound{
		Min: proj.ToGeo(orb.Point{c[0] - half, c[1] - half}),
		Max: proj.ToGeo(orb.Point{c[0] + half, c[1] + half}),
	}
}

// Degenerate reports whether the window has zero area. Callers must not
// request statistics for a degenerate window.
func (w SquareWindow) Degenerate() bool {
	return w.HalfSizeMeters == 0 || len(w.Ring) < 4 || math.IsNaN(w.Center.Lon()) || math.IsNaN(w.Center.Lat())
}

// Polygon returns the window as a single-ring polygon.
func (w SquareWindow) Polygon() orb.Polygon {
	return orb.Polygon{w.Ring}
}

// Bound returns the bounding box of the ring.
func (w SquareWindow) Bound() orb.Bound {
	return w.Ring.Bound()
}

// GeoJSON returns the GeoJSON geometry object for the window polygon.
func (w SquareWindow) GeoJSON() *geojson.Geometry {
	return geojson.NewGeometry(w.Polygon())
}

// MarshalJSON encodes the window for the viewer state endpoint.
func (w SquareWindow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Center         orb.Point         `json:"center"`
		EdgeKm         float64           `json:"edge_km"`
		HalfSizeMeters float64           `json:"half_size_m"`
		Geometry       *geojson.Geometry `json:"geometry"`
	}{w.Center, w.EdgeKm, w.HalfSizeMeters, w.GeoJSON()})
}
