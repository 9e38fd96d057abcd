// Command sample requests statistics for one square window and prints them,
// optionally writing the histogram or density chart to a file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/paulmach/orb"

	"github.com/banshee-data/raster.viewer/internal/chart"
	"github.com/banshee-data/raster.viewer/internal/config"
	"github.com/banshee-data/raster.viewer/internal/fsutil"
	"github.com/banshee-data/raster.viewer/internal/geo"
	"github.com/banshee-data/raster.viewer/internal/rstats"
	"github.com/banshee-data/raster.viewer/internal/units"
)

var (
	lon      = flag.Float64("lon", 0, "Window centre longitude (WGS84 degrees)")
	lat      = flag.Float64("lat", 0, "Window centre latitude (WGS84 degrees)")
	edgeKm   = flag.Float64("edge-km", 10, "Window edge length in kilometres")
	raster   = flag.String("raster", "", "Raster id to sample (x axis when -raster-y is set)")
	rasterY  = flag.String("raster-y", "", "Second raster id; samples the pair as a scatter")
	statsURL = flag.String("stats-url", "", "Stats service base URL (defaults to $"+config.EnvStatsBaseURL+")")
	crs      = flag.String("crs", "EPSG:3857", "Planar CRS the window is built in")
	bins     = flag.Int("bins", rstats.DefaultBins, "Scatter density bins per axis")
	svgOut   = flag.String("svg", "", "Write the chart as SVG to this file")
	pngOut   = flag.String("png", "", "Write the chart as PNG to this file")
)

type sampleOptions struct {
	Center   orb.Point
	EdgeKm   float64
	RasterX  string
	RasterY  string
	StatsURL string
	CRS      string
	Bins     int
	SVGPath  string
	PNGPath  string
	FS       fsutil.FileSystem
}

func run(ctx context.Context, o sampleOptions, out io.Writer) error {
	if o.RasterX == "" {
		return errors.New("-raster is required")
	}
	if o.StatsURL == "" {
		return fmt.Errorf("-stats-url or %s is required", config.EnvStatsBaseURL)
	}
	proj, err := geo.ForCRS(o.CRS)
	if err != nil {
		return err
	}
	w := geo.NewSquareWindow(proj, o.Center, o.EdgeKm)
	if w.Degenerate() {
		return fmt.Errorf("edge %v km gives an empty window", o.EdgeKm)
	}
	client := rstats.NewClient(o.StatsURL, nil)

	if o.RasterY == "" {
		stats, err := client.FetchAreaStats(ctx, o.RasterX, w)
		if err != nil {
			return err
		}
		printArea(out, o.RasterX, stats)
		var h *chart.Histogram
		if stats.Histogram != nil {
			h = chart.NewHistogram(stats.Histogram.Counts, stats.Histogram.BinEdges, chart.DefaultBox)
		}
		if h == nil {
			fmt.Fprintln(out, "No histogram available")
			return nil
		}
		return writeCharts(o, h, func(f io.Writer) error {
			return h.WritePNG(f, o.RasterX, stats.Units)
		})
	}

	stats, err := client.FetchScatterStats(ctx, o.RasterX, o.RasterY, w, o.Bins, rstats.DefaultMaxPoints)
	if err != nil {
		return err
	}
	printScatter(out, o.RasterX, o.RasterY, stats)
	var d *chart.Density
	if stats.Density != nil {
		d = chart.NewDensity(stats.Density.XEdges, stats.Density.YEdges, stats.Density.Matrix, chart.DefaultBox)
	}
	if d == nil {
		fmt.Fprintln(out, "No density available")
		return nil
	}
	return writeCharts(o, d, func(f io.Writer) error {
		return d.WritePNG(f, o.RasterX+" vs "+o.RasterY, o.RasterX, o.RasterY)
	})
}

func printArea(out io.Writer, id string, s *rstats.AreaStats) {
	fmt.Fprintf(out, "raster:     %s\n", id)
	fmt.Fprintf(out, "count:      %s\n", units.Count(s.Count))
	fmt.Fprintf(out, "mean:       %s\n", units.Value(s.Mean, s.Units))
	fmt.Fprintf(out, "median:     %s\n", units.Value(s.Median, s.Units))
	fmt.Fprintf(out, "min:        %s\n", units.Value(s.Min, s.Units))
	fmt.Fprintf(out, "max:        %s\n", units.Value(s.Max, s.Units))
	fmt.Fprintf(out, "std:        %s\n", units.Value(s.Std, s.Units))
	fmt.Fprintf(out, "valid area: %s\n", units.Area(s.ValidAreaM2))
	fmt.Fprintf(out, "coverage:   %s\n", units.Percent(s.CoverageRatio))
}

func printScatter(out io.Writer, x, y string, s *rstats.ScatterStats) {
	fmt.Fprintf(out, "rasters:   %s vs %s\n", x, y)
	fmt.Fprintf(out, "pairs:     %s\n", units.Count(s.N))
	fmt.Fprintf(out, "pearson r: %s\n", units.Label(s.R))
	fmt.Fprintf(out, "slope:     %s\n", units.Label(s.Slope))
	fmt.Fprintf(out, "intercept: %s\n", units.Label(s.Intercept))
}

// writeCharts writes the requested chart files.
func writeCharts(o sampleOptions, c chart.Renderer, png func(io.Writer) error) error {
	if o.SVGPath != "" {
		if err := writeFile(o.FS, o.SVGPath, c.WriteSVG); err != nil {
			return err
		}
	}
	if o.PNGPath != "" {
		if err := writeFile(o.FS, o.PNGPath, png); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(fsys fsutil.FileSystem, path string, write func(io.Writer) error) error {
	if fsys == nil {
		fsys = fsutil.OSFileSystem{}
	}
	f, err := fsys.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func main() {
	flag.Parse()

	url := *statsURL
	if url == "" {
		url = strings.TrimSpace(os.Getenv(config.EnvStatsBaseURL))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, sampleOptions{
		Center:   orb.Point{*lon, *lat},
		EdgeKm:   *edgeKm,
		RasterX:  *raster,
		RasterY:  *rasterY,
		StatsURL: url,
		CRS:      *crs,
		Bins:     *bins,
		SVGPath:  *svgOut,
		PNGPath:  *pngOut,
	}, os.Stdout)
	if err != nil {
		var reqErr *rstats.RequestError
		if errors.As(err, &reqErr) {
			log.Fatalf("stats service rejected the request: %v", reqErr)
		}
		log.Fatalf("sample failed: %v", err)
	}
}
