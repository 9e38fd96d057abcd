package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/banshee-data/raster.viewer/internal/api"
	"github.com/banshee-data/raster.viewer/internal/catalog"
	"github.com/banshee-data/raster.viewer/internal/config"
	"github.com/banshee-data/raster.viewer/internal/db"
	"github.com/banshee-data/raster.viewer/internal/geo"
	"github.com/banshee-data/raster.viewer/internal/rstats"
	"github.com/banshee-data/raster.viewer/internal/session"
	"github.com/banshee-data/raster.viewer/internal/tiles"
	"github.com/banshee-data/raster.viewer/internal/version"
)

var (
	listen     = flag.String("listen", ":8080", "Listen address")
	configPath = flag.String("config", "", "Path to a JSON viewer config (environment variables are used when empty)")
	dbPath     = flag.String("db", "", "Style preset database (overrides db_path from the config)")
	debug      = flag.Bool("debug", false, "Mount the /debug/ admin routes")
)

// healthTimeout bounds the startup check against the stats service.
const healthTimeout = 5 * time.Second

func loadConfig() (*config.ViewerConfig, error) {
	var cfg *config.ViewerConfig
	var err error
	if *configPath != "" {
		cfg, err = config.LoadViewerConfig(*configPath)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return nil, err
	}
	if *dbPath != "" {
		cfg.DBPath = dbPath
	}
	return cfg, nil
}

// checkStatsService logs catalog layers the stats service cannot sample.
// The viewer still starts when the service is down.
func checkStatsService(ctx context.Context, client *rstats.Client, cat *catalog.Catalog) {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	h, err := client.Health(ctx)
	if err != nil {
		log.Printf("stats service at %s unreachable: %v", client.BaseURL(), err)
		return
	}
	if !h.OK {
		log.Printf("stats service at %s reports unhealthy", client.BaseURL())
	}
	if missing := cat.Missing(h.Rasters); len(missing) > 0 {
		log.Printf("stats service does not know layers %v", missing)
	}
}

func main() {
	flag.Parse()

	if flag.Arg(0) == "migrate" {
		cfg, err := loadConfig()
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		if err := db.RunMigrateCommand(flag.Args()[1:], cfg.GetDBPath(), os.Stdout); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		return
	}

	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.GetStatsBaseURL() == "" || cfg.GetGeoServerBaseURL() == "" {
		log.Fatalf("%s and %s must be set", config.EnvStatsBaseURL, config.EnvGeoServerBaseURL)
	}
	proj, err := geo.ForCRS(cfg.GetGlobalCRS())
	if err != nil {
		log.Fatalf("unsupported map CRS: %v", err)
	}

	cat, err := catalog.Load(cfg.GetLayersPath())
	if err != nil {
		log.Fatalf("failed to load layer catalog: %v", err)
	}
	log.Printf("raster viewer %s (%s): %d layers in workspace %s", version.Version, version.GitSHA, len(cat.Layers()), cat.Workspace)

	presets, err := db.NewDB(cfg.GetDBPath())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer presets.Close()

	client := rstats.NewClient(cfg.GetStatsBaseURL(), nil)
	wms := tiles.NewWMS(cfg.GetGeoServerBaseURL(), proj.CRS(), cat)
	view := api.NewView()

	s := session.New(proj, session.Options{
		EdgeKm:         cfg.GetDefaultEdgeKm(),
		StyleName:      cfg.GetStyleName(),
		DefaultOpacity: cfg.GetDefaultOpacity(),
		ScatterBins:    cfg.GetScatterBins(),
		MaxPoints:      cfg.GetScatterMaxPoints(),
	})
	loop := session.NewLoop(s, session.Deps{
		Fetcher: client,
		Tiles:   wms,
		Presets: presets,
		Surface: view,
	})
	log.Printf("session %s started", s.ID)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	checkStatsService(ctx, client, cat)

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := loop.Run(ctx); err != nil && err != context.Canceled {
			log.Printf("session loop failed: %v", err)
		}
		log.Print("session loop terminated")
	}()

	// HTTP server goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()

		opts := api.Options{
			Config:  cfg,
			Catalog: cat,
			Tiles:   wms,
			Events:  loop,
			View:    view,
			Presets: presets,
		}
		if *debug {
			opts.DB = presets
		}
		mux := api.NewServer(opts).ServeMux()

		server := &http.Server{
			Addr:    *listen,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
			if err := server.Close(); err != nil {
				log.Printf("HTTP server force close error: %v", err)
			}
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}
