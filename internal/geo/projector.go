// Package geo converts between geographic and planar map coordinates and
// builds the square sampling windows sent to the stats service.
package geo

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"
)

// SourceCRS is the reference system every geometry leaving this package is
// expressed in.
const SourceCRS = "EPSG:4326"

// MaxMercatorLatitude bounds the extent the Web Mercator projector supports.
const MaxMercatorLatitude = 85.05112878

// Projector converts a geographic point (lon, lat in WGS84 degrees) to the
// planar metric system of the host map and back. ToGeo(ToPlanar(p)) returns
// p up to floating point rounding.
type Projector interface {
	ToPlanar(p orb.Point) orb.Point
	ToGeo(p orb.Point) orb.Point
	CRS() string
}

// WebMercator is the spherical Mercator system used by slippy map tiles.
type WebMercator struct{}

// ToPlanar projects a WGS84 point to Web Mercator metres.
func (WebMercator) ToPlanar(p orb.Point) orb.Point {
	return project.WGS84.ToMercator(p)
}

// ToGeo unprojects Web Mercator metres to a WGS84 point.
func (WebMercator) ToGeo(p orb.Point) orb.Point {
	return project.Mercator.ToWGS84(p)
}

// CRS returns the EPSG code of the planar system.
func (WebMercator) CRS() string { return "EPSG:3857" }

// ForCRS returns the projector for the map's configured reference system.
// An empty code selects Web Mercator.
func ForCRS(code string) (Projector, error) {
	switch strings.ToUpper(strings.TrimSpace(code)) {
	case "", "EPSG:3857", "EPSG:900913", "EPSG:3785":
		return WebMercator{}, nil
	default:
		return nil, fmt.Errorf("unsupported map CRS %q", code)
	}
}
