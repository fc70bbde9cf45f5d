// Package viewer serves a converted block graph model over HTTP for
// inspection in a browser. The model file is re-read on every request, so
// a watch-driven re-conversion shows up on the next refresh without
// restarting the server.
package viewer

import (
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bgraph-dev/dot2bgraph/pkg/render/sink"
)

// Options configures the viewer handler.
type Options struct {
	// ModelPath is the bgraph JSON file to serve.
	ModelPath string

	// CellSize is the SVG grid cell size in pixels. Zero means the
	// renderer default.
	CellSize int

	// RefreshSeconds is the browser auto-refresh interval. Zero disables
	// auto-refresh.
	RefreshSeconds int

	// Logger receives one line per request. Nil disables request logging.
	Logger *log.Logger
}

// Handler builds the HTTP handler for the viewer.
func Handler(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if opts.Logger != nil {
		r.Use(requestLogger(opts.Logger))
	}

	r.Get("/", opts.indexHandler)
	r.Get("/model.json", opts.modelHandler)
	r.Get("/model.svg", opts.svgHandler)

	return r
}

// requestLogger logs one line per request with method, path, and duration.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, req)
			logger.Debug("request",
				"method", req.Method,
				"path", req.URL.Path,
				"duration", time.Since(start))
		})
	}
}

func (o Options) indexHandler(w http.ResponseWriter, req *http.Request) {
	refresh := ""
	if o.RefreshSeconds > 0 {
		refresh = fmt.Sprintf(`<meta http-equiv="refresh" content="%d">`, o.RefreshSeconds)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, indexPage, refresh)
}

func (o Options) modelHandler(w http.ResponseWriter, req *http.Request) {
	m, err := sink.ReadModelFile(o.ModelPath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	data, err := sink.MarshalModel(m)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (o Options) svgHandler(w http.ResponseWriter, req *http.Request) {
	m, err := sink.ReadModelFile(o.ModelPath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	var svgOpts []sink.SVGOption
	if o.CellSize > 0 {
		svgOpts = append(svgOpts, sink.WithCellSize(o.CellSize))
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(sink.RenderSVG(m, svgOpts...))
}

const indexPage = `<!DOCTYPE html>
<html>
<head>
<title>dot2bgraph</title>
%s
<style>
  body { margin: 0; background: #1e1e1e; }
  header { padding: 8px 16px; color: #ccc; font: 13px monospace; }
  header a { color: #8cf; }
  main { padding: 16px; overflow: auto; }
</style>
</head>
<body>
<header>dot2bgraph &middot; <a href="/model.json">model.json</a> &middot; <a href="/model.svg">model.svg</a></header>
<main><img src="/model.svg" alt="block graph"></main>
</body>
</html>
`
