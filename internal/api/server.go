// Package api serves the viewer: the HTTP endpoints that feed events into
// the overlay session and the rendered views of its state.
package api

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/raster.viewer/internal/catalog"
	"github.com/banshee-data/raster.viewer/internal/config"
	"github.com/banshee-data/raster.viewer/internal/db"
	"github.com/banshee-data/raster.viewer/internal/session"
	"github.com/banshee-data/raster.viewer/internal/style"
	"github.com/banshee-data/raster.viewer/internal/tiles"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

// Poster queues session events. *session.Loop implements it.
type Poster interface {
	Post(ev session.Event) error
}

// PresetSource looks up saved layer styles. *db.DB implements it.
type PresetSource interface {
	GetStylePreset(layerID string) (*style.Params, error)
}

// Options wire a Server to the rest of the viewer.
type Options struct {
	Config  *config.ViewerConfig
	Catalog *catalog.Catalog
	Tiles   *tiles.WMS
	Events  Poster
	View    *View
	Presets PresetSource // optional
	DB      *db.DB       // optional; mounts /debug/ when set
}

type Server struct {
	cfg     *config.ViewerConfig
	catalog *catalog.Catalog
	tiles   *tiles.WMS
	events  Poster
	view    *View
	presets PresetSource
	db      *db.DB
}

func NewServer(opts Options) *Server {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.EmptyViewerConfig()
	}
	return &Server{
		cfg:     cfg,
		catalog: opts.Catalog,
		tiles:   opts.Tiles,
		events:  opts.Events,
		view:    opts.View,
		presets: opts.Presets,
		db:      opts.DB,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.showIndex)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS()))))
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/api/click", s.handleClick)
	mux.HandleFunc("/api/edge", s.handleEdge)
	mux.HandleFunc("/api/layer", s.handleLayer)
	mux.HandleFunc("/api/compare", s.handleCompare)
	mux.HandleFunc("/api/style", s.handleStyle)
	mux.HandleFunc("/api/dismiss", s.handleDismiss)
	mux.HandleFunc("/api/state", s.showState)
	mux.HandleFunc("/api/view", s.showView)
	mux.HandleFunc("/api/tiles", s.showTiles)
	mux.HandleFunc("/api/chart/", s.showChart)
	mux.HandleFunc("/charts/", s.showChartPage)
	if s.db != nil {
		s.db.AttachAdminRoutes(mux)
	}
	return mux
}
