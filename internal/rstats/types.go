package rstats

import (
	"encoding/json"
	"math"
)

// Histogram is a 1-D binned count; len(BinEdges) == len(Counts)+1 and the
// edges strictly increase.
type Histogram struct {
	Counts   []int64   `json:"counts"`
	BinEdges []float64 `json:"bin_edges"`
}

// Valid reports whether the histogram satisfies its shape invariant.
func (h *Histogram) Valid() bool {
	if h == nil || len(h.Counts) == 0 || len(h.BinEdges) != len(h.Counts)+1 {
		return false
	}
	return strictlyIncreasing(h.BinEdges)
}

func strictlyIncreasing(v []float64) bool {
	for i := 1; i < len(v); i++ {
		if !(v[i] > v[i-1]) {
			return false
		}
	}
	return true
}

// AreaStats summarises one raster over a window. Absent statistics are NaN.
type AreaStats struct {
	Count         int64      `json:"count"`
	Mean          float64    `json:"mean"`
	Median        float64    `json:"median"`
	Min           float64    `json:"min"`
	Max           float64    `json:"max"`
	Sum           float64    `json:"sum"`
	Std           float64    `json:"std"`
	ValidPixels   int64      `json:"valid_pixels"`
	NoDataPixels  int64      `json:"nodata_pixels"`
	MaskPixels    int64      `json:"mask_pixels"`
	PixelArea     float64    `json:"pixel_area"`
	CoverageRatio float64    `json:"coverage_ratio"`
	ValidAreaM2   float64    `json:"valid_area_m2"`
	MaskAreaM2    float64    `json:"mask_area_m2"`
	NoDataAreaM2  float64    `json:"nodata_area_m2"`
	Histogram     *Histogram `json:"histogram,omitempty"`
	Units         string     `json:"units,omitempty"`
	NoData        *float64   `json:"nodata,omitempty"`
}

// MarshalJSON writes NaN statistics as null.
func (s AreaStats) MarshalJSON() ([]byte, error) {
	type alias AreaStats
	return json.Marshal(struct {
		alias
		Mean          *float64 `json:"mean"`
		Median        *float64 `json:"median"`
		Min           *float64 `json:"min"`
		Max           *float64 `json:"max"`
		Sum           *float64 `json:"sum"`
		Std           *float64 `json:"std"`
		PixelArea     *float64 `json:"pixel_area"`
		CoverageRatio *float64 `json:"coverage_ratio"`
		ValidAreaM2   *float64 `json:"valid_area_m2"`
		MaskAreaM2    *float64 `json:"mask_area_m2"`
		NoDataAreaM2  *float64 `json:"nodata_area_m2"`
	}{
		alias:         alias(s),
		Mean:          nullable(s.Mean),
		Median:        nullable(s.Median),
		Min:           nullable(s.Min),
		Max:           nullable(s.Max),
		Sum:           nullable(s.Sum),
		Std:           nullable(s.Std),
		PixelArea:     nullable(s.PixelArea),
		CoverageRatio: nullable(s.CoverageRatio),
		ValidAreaM2:   nullable(s.ValidAreaM2),
		MaskAreaM2:    nullable(s.MaskAreaM2),
		NoDataAreaM2:  nullable(s.NoDataAreaM2),
	})
}

// Density2D is a 2-D binned count. Matrix has len(XEdges)-1 rows, one per
// x bin, each with len(YEdges)-1 counts.
type Density2D struct {
	XEdges []float64 `json:"x_edges"`
	YEdges []float64 `json:"y_edges"`
	Matrix [][]int64 `json:"matrix"`
}

// Valid reports whether the grid matches its edge arrays.
func (d *Density2D) Valid() bool {
	if d == nil || len(d.XEdges) < 2 || len(d.YEdges) < 2 {
		return false
	}
	if !strictlyIncreasing(d.XEdges) || !strictlyIncreasing(d.YEdges) {
		return false
	}
	if len(d.Matrix) != len(d.XEdges)-1 {
		return false
	}
	for _, row := range d.Matrix {
		if len(row) != len(d.YEdges)-1 {
			return false
		}
	}
	return true
}

// ScatterStats compares two rasters over the same window. Absent regression
// values are NaN.
type ScatterStats struct {
	N         int64        `json:"n"`
	R         float64      `json:"r"`
	Slope     float64      `json:"slope"`
	Intercept float64      `json:"intercept"`
	Density   *Density2D   `json:"density2d,omitempty"`
	Points    [][2]float64 `json:"points,omitempty"`
	RasterIDX string       `json:"raster_id_x"`
	RasterIDY string       `json:"raster_id_y"`
	XUnits    string       `json:"x_units,omitempty"`
	YUnits    string       `json:"y_units,omitempty"`
}

// MarshalJSON writes NaN regression values as null.
func (s ScatterStats) MarshalJSON() ([]byte, error) {
	type alias ScatterStats
	return json.Marshal(struct {
		alias
		R         *float64 `json:"r"`
		Slope     *float64 `json:"slope"`
		Intercept *float64 `json:"intercept"`
	}{alias(s), nullable(s.R), nullable(s.Slope), nullable(s.Intercept)})
}

// MinMax is the full-raster value range used to seed default styles.
type MinMax struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Health is the stats service status.
type Health struct {
	OK      bool     `json:"ok"`
	Rasters []string `json:"rasters"`
}

func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}
