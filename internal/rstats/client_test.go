package rstats

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/raster.viewer/internal/geo"
	"github.com/banshee-data/raster.viewer/internal/httputil"
)

func testWindow() geo.SquareWindow {
	return geo.NewSquareWindow(geo.WebMercator{}, orb.Point{-122.4, 37.8}, 10)
}

func TestFetchAreaStats_Request(t *testing.T) {
	t.Parallel()
	mock := httputil.NewMockHTTPClient().AddResponse(http.StatusOK, `{"stats":{"count":4}}`)
	c := NewClient("http://stats.local/", mock)

	_, err := c.FetchAreaStats(context.Background(), "ndvi", testWindow())
	require.NoError(t, err)
	require.Equal(t, 1, mock.RequestCount())

	req := mock.GetRequest(0)
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "http://stats.local/stats/geometry", req.URL.String())
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(mock.GetBody(0)), &body))
	assert.Equal(t, "ndvi", body["raster_id"])
	assert.Equal(t, "EPSG:4326", body["from_crs"])
	geom, ok := body["geometry"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Polygon", geom["type"])
	rings := geom["coordinates"].([]interface{})
	require.Len(t, rings, 1)
	assert.Len(t, rings[0], 5)
}

func TestFetchAreaStats_Decode(t *testing.T) {
	t.Parallel()
	mock := httputil.NewMockHTTPClient().AddResponse(http.StatusOK, `{
		"stats": {
			"count": 4, "mean": 2.5, "median": 2, "min": 1, "max": 4, "sum": 10, "std": null,
			"hist": [1, 2, 1], "bin_edges": [1, 2, 3, 4],
			"pixel_area": 900, "window_mask_pixels": 6, "valid_pixels": 4, "nodata_pixels": 2,
			"window_mask_area_m2": 5400, "valid_area_m2": 3600, "nodata_area_m2": 1800,
			"coverage_ratio": 0.5
		},
		"units": "mm",
		"nodata": -9999
	}`)
	c := NewClient("http://stats.local", mock)

	s, err := c.FetchAreaStats(context.Background(), "rain", testWindow())
	require.NoError(t, err)

	assert.Equal(t, int64(4), s.Count)
	assert.Equal(t, 2.5, s.Mean)
	assert.Equal(t, 2.0, s.Median)
	assert.True(t, math.IsNaN(s.Std))
	assert.Equal(t, int64(6), s.MaskPixels)
	assert.Equal(t, 5400.0, s.MaskAreaM2)
	assert.Equal(t, 0.5, s.CoverageRatio)
	assert.Equal(t, "mm", s.Units)
	require.NotNil(t, s.NoData)
	assert.Equal(t, -9999.0, *s.NoData)
	require.NotNil(t, s.Histogram)
	assert.Equal(t, []int64{1, 2, 1}, s.Histogram.Counts)
	assert.Equal(t, []float64{1, 2, 3, 4}, s.Histogram.BinEdges)
}

func TestFetchAreaStats_MismatchedHistogramDropped(t *testing.T) {
	t.Parallel()
	mock := httputil.NewMockHTTPClient().AddResponse(http.StatusOK,
		`{"stats":{"count":1,"hist":[1,2],"bin_edges":[0,1]}}`)
	c := NewClient("http://stats.local", mock)

	s, err := c.FetchAreaStats(context.Background(), "rain", testWindow())
	require.NoError(t, err)
	assert.Nil(t, s.Histogram)
	assert.True(t, math.IsNaN(s.Mean))
}

func TestFetchAreaStats_RequestError(t *testing.T) {
	t.Parallel()
	mock := httputil.NewMockHTTPClient().AddResponse(http.StatusNotFound, "unknown raster_id: foo\n")
	c := NewClient("http://stats.local", mock)

	s, err := c.FetchAreaStats(context.Background(), "foo", testWindow())
	assert.Nil(t, s)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusNotFound, reqErr.StatusCode)
	assert.Equal(t, "unknown raster_id: foo", err.Error())
}

func TestFetchAreaStats_TransportError(t *testing.T) {
	t.Parallel()
	boom := errors.New("connection refused")
	mock := httputil.NewMockHTTPClient().AddErrorResponse(boom)
	c := NewClient("http://stats.local", mock)

	_, err := c.FetchAreaStats(context.Background(), "rain", testWindow())
	var tErr *TransportError
	require.True(t, errors.As(err, &tErr))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, mock.RequestCount(), "client must not retry")
}

func TestFetchAreaStats_DecodeError(t *testing.T) {
	t.Parallel()
	mock := httputil.NewMockHTTPClient().AddResponse(http.StatusOK, `not json`)
	c := NewClient("http://stats.local", mock)

	_, err := c.FetchAreaStats(context.Background(), "rain", testWindow())
	var dErr *DecodeError
	require.True(t, errors.As(err, &dErr), "got %T: %v", err, err)
	assert.Equal(t, PathArea, dErr.Path)
	assert.Contains(t, err.Error(), "decode /stats/geometry response")
}

func TestHealth_DecodeError(t *testing.T) {
	t.Parallel()
	mock := httputil.NewMockHTTPClient().AddResponse(http.StatusOK, `{"ok": "yes"}`)
	c := NewClient("http://stats.local", mock)

	_, err := c.Health(context.Background())
	var dErr *DecodeError
	require.True(t, errors.As(err, &dErr), "got %T: %v", err, err)
	assert.Equal(t, PathHealth, dErr.Path)
}

func TestFetchScatterStats_DefaultsAndVariants(t *testing.T) {
	t.Parallel()
	mock := httputil.NewMockHTTPClient().AddResponse(http.StatusOK, `{
		"n_pairs": 120, "pearson_r": 0.8, "slope": 1.5, "intercept": -2,
		"hist2d": {"x_edges": [0, 1, 2], "y_edges": [0, 10], "counts": [[3], [4]]}
	}`)
	c := NewClient("http://stats.local", mock)

	s, err := c.FetchScatterStats(context.Background(), "a", "b", testWindow(), 0, -1)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(mock.GetBody(0)), &body))
	assert.Equal(t, "a", body["raster_id_x"])
	assert.Equal(t, "b", body["raster_id_y"])
	assert.Equal(t, float64(DefaultBins), body["bins"])
	assert.Equal(t, float64(DefaultMaxPoints), body["max_points"])
	assert.Equal(t, "http://stats.local/stats/scatter", mock.GetRequest(0).URL.String())

	assert.Equal(t, int64(120), s.N)
	assert.Equal(t, 0.8, s.R)
	assert.Equal(t, 1.5, s.Slope)
	assert.Equal(t, -2.0, s.Intercept)
	require.NotNil(t, s.Density)
	assert.Equal(t, [][]int64{{3}, {4}}, s.Density.Matrix)
	assert.Equal(t, "a", s.RasterIDX)
}

func TestFetchScatterStats_CanonicalNames(t *testing.T) {
	t.Parallel()
	mock := httputil.NewMockHTTPClient().AddResponse(http.StatusOK,
		`{"n": 7, "r": -0.25, "points": [[1, 2], [3, 4]], "hist2d": {"x_edges": [0], "y_edges": [0, 1], "counts": []}}`)
	c := NewClient("http://stats.local", mock)

	s, err := c.FetchScatterStats(context.Background(), "a", "b", testWindow(), 10, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(7), s.N)
	assert.Equal(t, -0.25, s.R)
	assert.True(t, math.IsNaN(s.Slope))
	assert.Nil(t, s.Density, "malformed grid is dropped")
	assert.Equal(t, [][2]float64{{1, 2}, {3, 4}}, s.Points)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(mock.GetBody(0)), &body))
	assert.Equal(t, float64(10), body["bins"])
	assert.Equal(t, float64(100), body["max_points"])
}

func TestFetchMinMax(t *testing.T) {
	t.Parallel()
	mock := httputil.NewMockHTTPClient().
		AddResponse(http.StatusOK, `{"min_": -3.5, "max_": 12}`).
		AddResponse(http.StatusOK, `{"min_": null}`)
	c := NewClient("http://stats.local", mock)

	mm, err := c.FetchMinMax(context.Background(), "dem")
	require.NoError(t, err)
	assert.Equal(t, MinMax{Min: -3.5, Max: 12}, mm)
	assert.JSONEq(t, `{"raster_id":"dem"}`, mock.GetBody(0))

	mm, err = c.FetchMinMax(context.Background(), "dem")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(mm.Min))
	assert.True(t, math.IsNaN(mm.Max))
}

func TestHealth(t *testing.T) {
	t.Parallel()
	mock := httputil.NewMockHTTPClient().AddResponse(http.StatusOK, `{"ok": true, "rasters": ["a", "b"]}`)
	c := NewClient("http://stats.local", mock)

	h, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.True(t, h.OK)
	assert.Equal(t, []string{"a", "b"}, h.Rasters)

	req := mock.GetRequest(0)
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Empty(t, mock.GetBody(0))
}

func TestRequestError_EmptyBody(t *testing.T) {
	t.Parallel()
	err := &RequestError{StatusCode: 502}
	assert.Equal(t, "stats service returned status 502", err.Error())
}

func TestAreaStats_MarshalNaNAsNull(t *testing.T) {
	t.Parallel()
	s := AreaStats{Count: 1, Mean: math.NaN(), Median: 1, Min: 1, Max: 1, Sum: 1, Std: math.NaN(),
		PixelArea: math.NaN(), CoverageRatio: 1, ValidAreaM2: 1, MaskAreaM2: 1, NoDataAreaM2: 0}
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Nil(t, m["mean"])
	assert.Contains(t, m, "mean")
	assert.Equal(t, 1.0, m["median"])
}
