// Package rstats is the client for the raster statistics service: area
// statistics over a window, two-raster scatter statistics, and per-raster
// value ranges.
package rstats

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/banshee-data/raster.viewer/internal/geo"
	"github.com/banshee-data/raster.viewer/internal/httputil"
	"github.com/banshee-data/raster.viewer/internal/monitoring"
)

// Scatter request defaults bounding the response size.
const (
	DefaultBins      = 50
	DefaultMaxPoints = 20000
)

// Service paths, relative to the base URL.
const (
	PathArea    = "/stats/geometry"
	PathScatter = "/stats/scatter"
	PathMinMax  = "/stats/minmax"
	PathHealth  = "/health"
)

const maxErrorBody = 64 * 1024

// Client talks to the stats service. It never retries; every failed call
// returns exactly one *RequestError, *TransportError or *DecodeError.
type Client struct {
	baseURL string
	http    httputil.HTTPClient
}

// NewClient creates a client for the service at baseURL. A nil httpClient
// uses http.DefaultClient.
func NewClient(baseURL string, httpClient httputil.HTTPClient) *Client {
	if httpClient == nil {
		httpClient = httputil.NewStandardClient(nil)
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    httpClient,
	}
}

// BaseURL returns the service root.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchAreaStats returns statistics for rasterID over the window.
func (c *Client) FetchAreaStats(ctx context.Context, rasterID string, w geo.SquareWindow) (*AreaStats, error) {
	body := areaRequest{
		RasterID: rasterID,
		Geometry: w.GeoJSON(),
		FromCRS:  geo.SourceCRS,
	}
	var resp areaResponse
	if err := c.do(ctx, http.MethodPost, PathArea, body, &resp); err != nil {
		return nil, err
	}
	return resp.normalize(), nil
}

// FetchScatterStats returns the pairwise statistics of rasterX against
// rasterY over the window. Non-positive bins or maxPoints use the defaults.
func (c *Client) FetchScatterStats(ctx context.Context, rasterX, rasterY string, w geo.SquareWindow, bins, maxPoints int) (*ScatterStats, error) {
	if bins <= 0 {
		bins = DefaultBins
	}
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	body := scatterRequest{
		RasterIDX: rasterX,
		RasterIDY: rasterY,
		Geometry:  w.GeoJSON(),
		FromCRS:   geo.SourceCRS,
		Bins:      bins,
		MaxPoints: maxPoints,
	}
	var resp scatterResponse
	if err := c.do(ctx, http.MethodPost, PathScatter, body, &resp); err != nil {
		return nil, err
	}
	return resp.normalize(rasterX, rasterY), nil
}

// FetchMinMax returns the value range of a whole raster. Missing bounds are NaN.
func (c *Client) FetchMinMax(ctx context.Context, rasterID string) (MinMax, error) {
	var resp minMaxResponse
	if err := c.do(ctx, http.MethodPost, PathMinMax, minMaxRequest{RasterID: rasterID}, &resp); err != nil {
		return MinMax{}, err
	}
	return MinMax{Min: orNaN(resp.Min), Max: orNaN(resp.Max)}, nil
}

// Health reports the service status and its registered raster ids.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.do(ctx, http.MethodGet, PathHealth, nil, &h)
	return h, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	url := c.baseURL + path
	req, err := httputil.NewJSONRequest(ctx, method, url, body)
	if err != nil {
		return &TransportError{Op: "build " + path + " request", Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		monitoring.Logf("rstats: %s %s failed: %v", method, path, err)
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		monitoring.Logf("rstats: %s %s returned %d", method, path, resp.StatusCode)
		return &RequestError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: "read " + path + " response", Err: err}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	return nil
}
