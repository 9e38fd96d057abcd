// Package catalog loads the raster layer catalog shared by the tile server
// and the stats service.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/raster.viewer/internal/fsutil"
)

// maxCatalogSize caps the size of a layers file.
const maxCatalogSize = 1 << 20

// RasterRef identifies one raster layer. ID is the key used by the stats
// service; TileName is the name the tile server publishes it under.
type RasterRef struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Workspace   string `json:"workspace"`
	TileName    string `json:"name"`
	Units       string `json:"units,omitempty"`
	FilePath    string `json:"-"`
}

// QualifiedName returns "workspace:name" as used in WMS LAYERS parameters.
func (r RasterRef) QualifiedName() string {
	if r.Workspace == "" {
		return r.TileName
	}
	return r.Workspace + ":" + r.TileName
}

type fileLayer struct {
	FilePath    string `yaml:"file_path"`
	DisplayName string `yaml:"display_name"`
	Units       string `yaml:"units"`
}

type file struct {
	WorkspaceID string               `yaml:"workspace_id"`
	Layers      map[string]fileLayer `yaml:"layers"`
}

// Catalog is an immutable, id-ordered set of layers.
type Catalog struct {
	Workspace string
	layers    []RasterRef
	byID      map[string]int
}

// Load reads a layers file from disk. Environment variables in the file are
// expanded before parsing.
func Load(path string) (*Catalog, error) {
	return LoadFS(fsutil.OSFileSystem{}, path)
}

// LoadFS reads a layers file from fsys.
func LoadFS(fsys fsutil.FileSystem, path string) (*Catalog, error) {
	info, err := fsys.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("layers file not found at %s: %w", path, err)
	}
	if info.Size() > maxCatalogSize {
		return nil, fmt.Errorf("layers file too large: %d bytes (max %d)", info.Size(), maxCatalogSize)
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layers file: %w", err)
	}
	return Parse(data)
}

// Parse decodes catalog YAML.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &f); err != nil {
		return nil, fmt.Errorf("failed to parse layers file: %w", err)
	}
	if strings.TrimSpace(f.WorkspaceID) == "" {
		return nil, fmt.Errorf("layers file: workspace_id is required")
	}

	ids := make([]string, 0, len(f.Layers))
	for id := range f.Layers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	c := &Catalog{Workspace: f.WorkspaceID, byID: make(map[string]int, len(ids))}
	for _, id := range ids {
		l := f.Layers[id]
		if strings.TrimSpace(l.FilePath) == "" {
			return nil, fmt.Errorf("layer %q: file_path is required", id)
		}
		ref := RasterRef{
			ID:          id,
			DisplayName: l.DisplayName,
			Workspace:   f.WorkspaceID,
			TileName:    tileName(l.FilePath),
			Units:       l.Units,
			FilePath:    l.FilePath,
		}
		if ref.DisplayName == "" {
			ref.DisplayName = id
		}
		c.byID[id] = len(c.layers)
		c.layers = append(c.layers, ref)
	}
	return c, nil
}

// tileName is the file stem, lowercased the way the tile server stores it.
func tileName(path string) string {
	base := filepath.Base(filepath.ToSlash(path))
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// Layers returns the layers ordered by id.
func (c *Catalog) Layers() []RasterRef {
	if c == nil {
		return nil
	}
	out := make([]RasterRef, len(c.layers))
	copy(out, c.layers)
	return out
}

// Get looks up a layer by id.
func (c *Catalog) Get(id string) (RasterRef, bool) {
	if c == nil {
		return RasterRef{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return RasterRef{}, false
	}
	return c.layers[i], true
}

// Missing returns the catalog ids not present in known.
func (c *Catalog) Missing(known []string) []string {
	set := make(map[string]bool, len(known))
	for _, k := range known {
		set[k] = true
	}
	var out []string
	for _, l := range c.Layers() {
		if !set[l.ID] {
			out = append(out, l.ID)
		}
	}
	return out
}
