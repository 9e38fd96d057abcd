package rstats

import (
	"github.com/paulmach/orb/geojson"
)

type areaRequest struct {
	RasterID string            `json:"raster_id"`
	Geometry *geojson.Geometry `json:"geometry"`
	FromCRS  string            `json:"from_crs"`
}

type scatterRequest struct {
	RasterIDX string            `json:"raster_id_x"`
	RasterIDY string            `json:"raster_id_y"`
	Geometry  *geojson.Geometry `json:"geometry"`
	FromCRS   string            `json:"from_crs"`
	Bins      int               `json:"bins"`
	MaxPoints int               `json:"max_points"`
}

type minMaxRequest struct {
	RasterID string `json:"raster_id"`
}

type areaResponse struct {
	Stats  *areaStatsWire `json:"stats"`
	Units  *string        `json:"units"`
	NoData *float64       `json:"nodata"`
}

type areaStatsWire struct {
	Count         *int64    `json:"count"`
	Mean          *float64  `json:"mean"`
	Median        *float64  `json:"median"`
	Min           *float64  `json:"min"`
	Max           *float64  `json:"max"`
	Sum           *float64  `json:"sum"`
	Std           *float64  `json:"std"`
	Hist          []int64   `json:"hist"`
	BinEdges      []float64 `json:"bin_edges"`
	PixelArea     *float64  `json:"pixel_area"`
	MaskPixels    *int64    `json:"window_mask_pixels"`
	ValidPixels   *int64    `json:"valid_pixels"`
	NoDataPixels  *int64    `json:"nodata_pixels"`
	MaskAreaM2    *float64  `json:"window_mask_area_m2"`
	ValidAreaM2   *float64  `json:"valid_area_m2"`
	NoDataAreaM2  *float64  `json:"nodata_area_m2"`
	CoverageRatio *float64  `json:"coverage_ratio"`
}

func (w *areaResponse) normalize() *AreaStats {
	s := &AreaStats{}
	if w.Units != nil {
		s.Units = *w.Units
	}
	s.NoData = w.NoData
	st := w.Stats
	if st == nil {
		st = &areaStatsWire{}
	}
	s.Count = orZero(st.Count)
	s.Mean = orNaN(st.Mean)
	s.Median = orNaN(st.Median)
	s.Min = orNaN(st.Min)
	s.Max = orNaN(st.Max)
	s.Sum = orNaN(st.Sum)
	s.Std = orNaN(st.Std)
	s.PixelArea = orNaN(st.PixelArea)
	s.MaskPixels = orZero(st.MaskPixels)
	s.ValidPixels = orZero(st.ValidPixels)
	s.NoDataPixels = orZero(st.NoDataPixels)
	s.MaskAreaM2 = orNaN(st.MaskAreaM2)
	s.ValidAreaM2 = orNaN(st.ValidAreaM2)
	s.NoDataAreaM2 = orNaN(st.NoDataAreaM2)
	s.CoverageRatio = orNaN(st.CoverageRatio)

	h := &Histogram{Counts: st.Hist, BinEdges: st.BinEdges}
	if h.Valid() {
		s.Histogram = h
	}
	return s
}

// scatterResponse accepts both naming variants the service has used for the
// pair count and the correlation coefficient.
type scatterResponse struct {
	N         *int64       `json:"n"`
	NPairs    *int64       `json:"n_pairs"`
	R         *float64     `json:"r"`
	PearsonR  *float64     `json:"pearson_r"`
	Slope     *float64     `json:"slope"`
	Intercept *float64     `json:"intercept"`
	Hist2D    *hist2DWire  `json:"hist2d"`
	Points    [][2]float64 `json:"points"`
	XUnits    *string      `json:"x_units"`
	YUnits    *string      `json:"y_units"`
}

type hist2DWire struct {
	XEdges []float64 `json:"x_edges"`
	YEdges []float64 `json:"y_edges"`
	Counts [][]int64 `json:"counts"`
	Matrix [][]int64 `json:"matrix"`
}

func (w *scatterResponse) normalize(rasterX, rasterY string) *ScatterStats {
	s := &ScatterStats{
		RasterIDX: rasterX,
		RasterIDY: rasterY,
		Slope:     orNaN(w.Slope),
		Intercept: orNaN(w.Intercept),
		Points:    w.Points,
	}
	switch {
	case w.N != nil:
		s.N = *w.N
	case w.NPairs != nil:
		s.N = *w.NPairs
	}
	switch {
	case w.R != nil:
		s.R = *w.R
	default:
		s.R = orNaN(w.PearsonR)
	}
	if w.XUnits != nil {
		s.XUnits = *w.XUnits
	}
	if w.YUnits != nil {
		s.YUnits = *w.YUnits
	}
	if w.Hist2D != nil {
		matrix := w.Hist2D.Counts
		if matrix == nil {
			matrix = w.Hist2D.Matrix
		}
		d := &Density2D{XEdges: w.Hist2D.XEdges, YEdges: w.Hist2D.YEdges, Matrix: matrix}
		if d.Valid() {
			s.Density = d
		}
	}
	return s
}

type minMaxResponse struct {
	Min *float64 `json:"min_"`
	Max *float64 `json:"max_"`
}

func orZero(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
