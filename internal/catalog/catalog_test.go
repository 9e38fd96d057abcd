package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/raster.viewer/internal/fsutil"
)

const sampleYAML = `
workspace_id: rasters
layers:
  ndvi:
    file_path: /data/NDVI_2023.tif
    display_name: NDVI 2023
  dem:
    file_path: ${DATA_DIR}/Elevation.TIF
    units: m
`

func TestParse(t *testing.T) {
	t.Setenv("DATA_DIR", "/mnt/data")

	c, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	want := []RasterRef{
		{ID: "dem", DisplayName: "dem", Workspace: "rasters", TileName: "elevation", Units: "m", FilePath: "/mnt/data/Elevation.TIF"},
		{ID: "ndvi", DisplayName: "NDVI 2023", Workspace: "rasters", TileName: "ndvi_2023", FilePath: "/data/NDVI_2023.tif"},
	}
	if diff := cmp.Diff(want, c.Layers()); diff != "" {
		t.Errorf("Layers() mismatch (-want +got):\n%s", diff)
	}

	ref, ok := c.Get("ndvi")
	require.True(t, ok)
	assert.Equal(t, "rasters:ndvi_2023", ref.QualifiedName())

	_, ok = c.Get("nope")
	assert.False(t, ok)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		yaml string
	}{
		{"invalid yaml", "layers: [unclosed"},
		{"no workspace", "layers:\n  a:\n    file_path: a.tif\n"},
		{"no file path", "workspace_id: w\nlayers:\n  a:\n    display_name: A\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "layers.yml")
	require.NoError(t, os.WriteFile(path, []byte("workspace_id: w\nlayers:\n  a:\n    file_path: A.tif\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, c.Layers(), 1)

	_, err = Load(filepath.Join(dir, "missing.yml"))
	assert.Error(t, err)
}

func TestMissing(t *testing.T) {
	t.Parallel()
	c, err := Parse([]byte("workspace_id: w\nlayers:\n  a:\n    file_path: a.tif\n  b:\n    file_path: b.tif\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, c.Missing([]string{"a", "z"}))
	assert.Nil(t, c.Missing([]string{"a", "b"}))
}

func TestNilCatalog(t *testing.T) {
	t.Parallel()
	var c *Catalog
	assert.Nil(t, c.Layers())
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestLoadFS(t *testing.T) {
	t.Parallel()
	fsys := fsutil.NewMemoryFileSystem()
	fsys.WriteFile("conf/layers.yml", []byte("workspace_id: w\nlayers:\n  dem:\n    file_path: /data/DEM_30m.tif\n"))

	c, err := LoadFS(fsys, "conf/layers.yml")
	require.NoError(t, err)
	ref, ok := c.Get("dem")
	require.True(t, ok)
	assert.Equal(t, "dem_30m", ref.TileName)
	assert.Equal(t, "w:dem_30m", ref.QualifiedName())

	fsys.WriteFile("big.yml", make([]byte, maxCatalogSize+1))
	_, err = LoadFS(fsys, "big.yml")
	assert.ErrorContains(t, err, "too large")
}
