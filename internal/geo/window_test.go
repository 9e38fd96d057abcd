package geo

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCenters = []orb.Point{
	{0, 0},
	{-79.3832, 43.6532},
	{151.2093, -33.8688},
	{-123.1207, 49.2827},
	{12.5, 78.2},
	{-179.5, -60},
}

func TestWebMercator_RoundTrip(t *testing.T) {
	proj := WebMercator{}
	for lat := -85.0; lat <= 85.0; lat += 8.5 {
		for lon := -180.0; lon <= 180.0; lon += 22.5 {
			p := orb.Point{lon, lat}
			got := proj.ToGeo(proj.ToPlanar(p))
			assert.InDelta(t, lon, got.Lon(), 1e-6, "lon at %v", p)
			assert.InDelta(t, lat, got.Lat(), 1e-6, "lat at %v", p)
		}
	}
}

func TestForCRS(t *testing.T) {
	for _, code := range []string{"", "EPSG:3857", "epsg:900913", " EPSG:3785 "} {
		proj, err := ForCRS(code)
		require.NoError(t, err, code)
		assert.Equal(t, "EPSG:3857", proj.CRS())
	}

	_, err := ForCRS("EPSG:3347")
	assert.Error(t, err)
}

func TestNewSquareWindow_IsPlanarSquare(t *testing.T) {
	proj := WebMercator{}
	for _, center := range testCenters {
		for _, edgeKm := range []float64{0.25, 1, 10, 55.5} {
			w := NewSquareWindow(proj, center, edgeKm)

			require.Len(t, w.Ring, 5)
			assert.Equal(t, w.Ring[0], w.Ring[4], "ring must be closed")
			assert.Equal(t, edgeKm*500, w.HalfSizeMeters)

			sw := proj.ToPlanar(w.Ring[0])
			se := proj.ToPlanar(w.Ring[1])
			ne := proj.ToPlanar(w.Ring[2])
			nw := proj.ToPlanar(w.Ring[3])
			side := edgeKm * 1000

			// Axis aligned.
			assert.InDelta(t, sw[1], se[1], 1e-3)
			assert.InDelta(t, nw[1], ne[1], 1e-3)
			assert.InDelta(t, sw[0], nw[0], 1e-3)
			assert.InDelta(t, se[0], ne[0], 1e-3)

			// Equal sides of the requested length.
			assert.InDelta(t, side, se[0]-sw[0], 1e-3)
			assert.InDelta(t, side, ne[1]-se[1], 1e-3)
			assert.InDelta(t, side, ne[0]-nw[0], 1e-3)
			assert.InDelta(t, side, nw[1]-sw[1], 1e-3)

			assert.False(t, w.Degenerate())
		}
	}
}

func TestNewSquareWindow_CornerOrder(t *testing.T) {
	w := NewSquareWindow(WebMercator{}, orb.Point{10, 45}, 20)

	sw, se, ne, nw := w.Ring[0], w.Ring[1], w.Ring[2], w.Ring[3]
	assert.Less(t, sw.Lon(), se.Lon())
	assert.Less(t, se.Lat(), ne.Lat())
	assert.Greater(t, ne.Lon(), nw.Lon())
	assert.Less(t, sw.Lat(), nw.Lat())
}

func TestNewSquareWindow_Degenerate(t *testing.T) {
	center := orb.Point{-79.3832, 43.6532}
	for _, edgeKm := range []float64{0, -1, -0.0001, math.NaN()} {
		w := NewSquareWindow(WebMercator{}, center, edgeKm)
		require.Len(t, w.Ring, 5)
		for _, p := range w.Ring {
			assert.Equal(t, center, p)
		}
		assert.Zero(t, w.HalfSizeMeters)
		assert.True(t, w.Degenerate())
	}
}

func TestBoundsFor(t *testing.T) {
	proj := WebMercator{}
	center := orb.Point{2.35, 48.85}

	b := BoundsFor(proj, center, 4)
	w := NewSquareWindow(proj, center, 4)
	assert.InDelta(t, w.Ring[0].Lon(), b.Min.Lon(), 1e-12)
	assert.InDelta(t, w.Ring[0].Lat(), b.Min.Lat(), 1e-12)
	assert.InDelta(t, w.Ring[2].Lon(), b.Max.Lon(), 1e-12)
	assert.InDelta(t, w.Ring[2].Lat(), b.Max.Lat(), 1e-12)

	zero := BoundsFor(proj, center, 0)
	assert.Equal(t, center, zero.Min)
	assert.Equal(t, center, zero.Max)
}

func TestSquareWindow_GeoJSON(t *testing.T) {
	w := NewSquareWindow(WebMercator{}, orb.Point{0, 0}, 2)

	data, err := json.Marshal(w.GeoJSON())
	require.NoError(t, err)

	var decoded struct {
		Type        string         `json:"type"`
		Coordinates [][][2]float64 `json:"coordinates"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Polygon", decoded.Type)
	require.Len(t, decoded.Coordinates, 1)
	require.Len(t, decoded.Coordinates[0], 5)
	assert.Equal(t, decoded.Coordinates[0][0], decoded.Coordinates[0][4])
}
