package api

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"pulsecart/internal/telemetry"
)

// Handler serves the built storefront and forwards API traffic to the backend.
type Handler struct {
	dist  string
	proxy *httputil.ReverseProxy
	log   zerolog.Logger
}

func NewHandler(distDir, apiURL string, log zerolog.Logger) (*Handler, error) {
	target, err := url.Parse(apiURL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid dev api url %q", apiURL)
	}

	h := &Handler{
		dist: distDir,
		log:  log.With().Str("component", "devserver").Logger(),
	}
	h.proxy = &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			// SetURL also points the Host header at the target.
			r.SetURL(target)
			r.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			h.log.Error().Err(err).Str("path", r.URL.Path).Msg("proxy error")
			http.Error(w, "Bad Gateway", http.StatusBadGateway)
		},
	}
	return h, nil
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("/api/", telemetry.Middleware("/api", h.proxy))
	mux.Handle("/docs", telemetry.Middleware("/docs", h.proxy))
	mux.Handle("/docs/", telemetry.Middleware("/docs", h.proxy))
	mux.Handle("/", telemetry.Middleware("static", http.HandlerFunc(h.ServeStatic)))

	return mux
}

// ServeStatic serves files from the dist directory and falls back to
// index.html for client-side routes.
func (h *Handler) ServeStatic(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	clean := path.Clean("/" + r.URL.Path)
	if clean != "/" && h.serveFile(w, r, filepath.Join(h.dist, filepath.FromSlash(clean))) {
		return
	}
	if !h.serveFile(w, r, filepath.Join(h.dist, "index.html")) {
		h.log.Warn().Str("dist", h.dist).Msg("index.html missing, run the build first")
		http.NotFound(w, r)
	}
}

func (h *Handler) serveFile(w http.ResponseWriter, r *http.Request, name string) bool {
	f, err := os.Open(name)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			h.log.Error().Err(err).Str("file", name).Msg("open static file")
		}
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}

	if strings.HasSuffix(name, "index.html") {
		w.Header().Set("Cache-Control", "no-cache")
	}
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return true
}
