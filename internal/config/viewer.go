package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/raster.viewer/internal/geo"
)

// Environment variables that override file values.
const (
	EnvGeoServerBaseURL = "GEOSERVER_BASE_URL"
	EnvStatsBaseURL     = "RSTATS_BASE_URL"
	EnvLayersPath       = "LAYERS_YAML_PATH"
	EnvGlobalCRS        = "GLOBAL_CRS"
)

// ViewerConfig is the viewer's startup configuration. Omitted fields fall
// back to the defaults returned by the Get* methods, so partial files are
// safe.
type ViewerConfig struct {
	// Collaborating services
	StatsBaseURL     *string `json:"stats_base_url,omitempty"`
	GeoServerBaseURL *string `json:"geoserver_base_url,omitempty"`
	LayersPath       *string `json:"layers_path,omitempty"`
	GlobalCRS        *string `json:"global_crs,omitempty"`

	// Styling
	StyleName      *string  `json:"style_name,omitempty"`
	DefaultOpacity *float64 `json:"default_opacity,omitempty"`

	// Sampling
	DefaultEdgeKm    *float64 `json:"default_edge_km,omitempty"`
	ScatterBins      *int     `json:"scatter_bins,omitempty"`
	ScatterMaxPoints *int     `json:"scatter_max_points,omitempty"`

	// Style preset store
	DBPath *string `json:"db_path,omitempty"`
}

func ptrString(v string) *string { return &v }

// EmptyViewerConfig returns a ViewerConfig with all fields unset.
func EmptyViewerConfig() *ViewerConfig {
	return &ViewerConfig{}
}

// LoadViewerConfig loads a ViewerConfig from a JSON file, applies
// environment overrides and validates the result.
func LoadViewerConfig(path string) (*ViewerConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyViewerConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// FromEnv builds a configuration from environment variables alone.
func FromEnv() (*ViewerConfig, error) {
	cfg := EmptyViewerConfig()
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields with any non-empty environment values.
func (c *ViewerConfig) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(dst **string, key string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = ptrString(strings.TrimSpace(v))
		}
	}
	set(&c.GeoServerBaseURL, EnvGeoServerBaseURL)
	set(&c.StatsBaseURL, EnvStatsBaseURL)
	set(&c.LayersPath, EnvLayersPath)
	set(&c.GlobalCRS, EnvGlobalCRS)
}

// Validate checks that the configuration values are usable.
func (c *ViewerConfig) Validate() error {
	for name, v := range map[string]*string{
		"stats_base_url":     c.StatsBaseURL,
		"geoserver_base_url": c.GeoServerBaseURL,
	} {
		if v == nil || *v == "" {
			continue
		}
		u, err := url.Parse(*v)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, *v)
		}
	}

	if _, err := geo.ForCRS(c.GetGlobalCRS()); err != nil {
		return fmt.Errorf("global_crs: %w", err)
	}

	if c.DefaultEdgeKm != nil && !(*c.DefaultEdgeKm > 0) {
		return fmt.Errorf("default_edge_km must be positive, got %f", *c.DefaultEdgeKm)
	}
	if c.DefaultOpacity != nil && (*c.DefaultOpacity < 0 || *c.DefaultOpacity > 1) {
		return fmt.Errorf("default_opacity must be between 0 and 1, got %f", *c.DefaultOpacity)
	}
	if c.ScatterBins != nil && *c.ScatterBins <= 0 {
		return fmt.Errorf("scatter_bins must be positive, got %d", *c.ScatterBins)
	}
	if c.ScatterMaxPoints != nil && *c.ScatterMaxPoints < 0 {
		return fmt.Errorf("scatter_max_points must be non-negative, got %d", *c.ScatterMaxPoints)
	}
	return nil
}

// GetStatsBaseURL returns the stats service root without a trailing slash.
func (c *ViewerConfig) GetStatsBaseURL() string {
	if c.StatsBaseURL == nil {
		return ""
	}
	return strings.TrimRight(strings.TrimSpace(*c.StatsBaseURL), "/")
}

// GetGeoServerBaseURL returns the tile server root without a trailing slash.
func (c *ViewerConfig) GetGeoServerBaseURL() string {
	if c.GeoServerBaseURL == nil {
		return ""
	}
	return strings.TrimRight(strings.TrimSpace(*c.GeoServerBaseURL), "/")
}

// GetLayersPath returns the layer catalog path or the default.
func (c *ViewerConfig) GetLayersPath() string {
	if c.LayersPath == nil || *c.LayersPath == "" {
		return "layers.yml"
	}
	return *c.LayersPath
}

// GetGlobalCRS returns the map CRS or the default.
func (c *ViewerConfig) GetGlobalCRS() string {
	if c.GlobalCRS == nil || strings.TrimSpace(*c.GlobalCRS) == "" {
		return "EPSG:3857"
	}
	return strings.TrimSpace(*c.GlobalCRS)
}

// GetStyleName returns the tile style name or the default.
func (c *ViewerConfig) GetStyleName() string {
	if c.StyleName == nil || *c.StyleName == "" {
		return "dynamic_ramp"
	}
	return *c.StyleName
}

// GetDefaultOpacity returns the default layer opacity.
func (c *ViewerConfig) GetDefaultOpacity() float64 {
	if c.DefaultOpacity == nil {
		return 0.8
	}
	return *c.DefaultOpacity
}

// GetDefaultEdgeKm returns the initial window edge length.
func (c *ViewerConfig) GetDefaultEdgeKm() float64 {
	if c.DefaultEdgeKm == nil {
		return 10
	}
	return *c.DefaultEdgeKm
}

// GetScatterBins returns the scatter bin count.
func (c *ViewerConfig) GetScatterBins() int {
	if c.ScatterBins == nil {
		return 50
	}
	return *c.ScatterBins
}

// GetScatterMaxPoints returns the cap on returned scatter points.
func (c *ViewerConfig) GetScatterMaxPoints() int {
	if c.ScatterMaxPoints == nil {
		return 20000
	}
	return *c.ScatterMaxPoints
}

// GetDBPath returns the preset store path or the default.
func (c *ViewerConfig) GetDBPath() string {
	if c.DBPath == nil || *c.DBPath == "" {
		return "viewer.db"
	}
	return *c.DBPath
}
