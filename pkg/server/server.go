// Package server exposes the decoders over HTTP: source extraction, STL
// parsing, a size-limited STL proxy and the shared active-viewer state.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"meshchat/pkg/extract"
	"meshchat/pkg/history"
	"meshchat/pkg/stl"
	"meshchat/pkg/viewer"
)

// Server is the HTTP transport for the mesh decoders.
type Server struct {
	Activation *viewer.Activation
	Fetcher    *stl.Fetcher
	Options    stl.Options
	// History is optional; /api/history answers 404 when it is nil.
	History *history.Store

	// AllowHosts restricts /stl-proxy targets. Empty allows any host.
	AllowHosts []string
	// MaxBodyBytes caps uploaded STL bodies. Zero means stl.DefaultMaxBytes.
	MaxBodyBytes int64
}

// Handler builds the route table.
func (s Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":          true,
			"time":        time.Now().UTC().Format(time.RFC3339Nano),
			"allow_hosts": s.AllowHosts,
		})
	})

	mux.HandleFunc("POST /api/extract", s.handleExtract)
	mux.HandleFunc("POST /api/stl/parse", s.handleParse)
	mux.HandleFunc("GET /stl-proxy", s.handleProxy)

	mux.HandleFunc("GET /api/viewer", s.handleViewerGet)
	mux.HandleFunc("POST /api/viewer", s.handleViewerSet)

	mux.HandleFunc("GET /api/history", s.handleHistoryList)
	mux.HandleFunc("GET /api/history/{id}", s.handleHistoryGet)

	return logRequests(mux)
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe over an existing listener.
func (s Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		<-errCh
		slog.Info("server_stopped")
		return nil
	}
}

func (s Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := readJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
		return
	}

	res := extract.Analyze(body.Text)
	out := map[string]any{
		"ok":        true,
		"sources":   nonNilSources(res.Sources),
		"ambiguous": res.Ambiguous,
	}
	if res.Ambiguous {
		out["advisory"] = extract.AmbiguityAdvisory
	}
	writeJSON(w, http.StatusOK, out)
}

func (s Server) handleParse(w http.ResponseWriter, r *http.Request) {
	limit := s.MaxBodyBytes
	if limit <= 0 {
		limit = stl.DefaultMaxBytes
	}
	data, err := readBody(r, limit)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, stl.ErrTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, map[string]any{"ok": false, "error": err.Error()})
		return
	}

	g, err := stl.Decode(data)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, stl.ErrNoTriangles) || errors.Is(err, stl.ErrTruncated) {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, map[string]any{"ok": false, "error": err.Error()})
		return
	}

	p := stl.Prepare(g, s.Options)
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"triangles": p.Geometry.TriangleCount(),
		"scale":     p.Scale,
		"bounds":    p.Bounds,
		"size":      p.Bounds.Size(),
	})
}

func (s Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("url"))
	target, err := url.Parse(raw)
	if raw == "" || err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "url must be an absolute http(s) URL"})
		return
	}
	if !hostAllowed(target.Hostname(), s.AllowHosts) {
		writeJSON(w, http.StatusForbidden, map[string]any{"ok": false, "error": "host not allowed: " + target.Hostname()})
		return
	}

	data, err := s.proxyFetcher().Download(r.Context(), target.String())
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, stl.ErrTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		if errors.Is(err, errRedirectNotAllowed) {
			status = http.StatusForbidden
		}
		slog.Warn("stl_proxy_failed", "url", target.String(), "error", err)
		writeJSON(w, status, map[string]any{"ok": false, "error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "model/stl")
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

var errRedirectNotAllowed = errors.New("redirect target not allowed")

const maxProxyRedirects = 10

// proxyFetcher copies s.Fetcher with a client that applies the host
// allow-list to every redirect hop.
func (s Server) proxyFetcher() *stl.Fetcher {
	f := stl.Fetcher{}
	if s.Fetcher != nil {
		f = *s.Fetcher
	}
	client := http.Client{}
	if f.Client != nil {
		client = *f.Client
	}
	next := client.CheckRedirect
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxProxyRedirects {
			return fmt.Errorf("stopped after %d redirects", maxProxyRedirects)
		}
		if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
			return fmt.Errorf("%w: scheme %q", errRedirectNotAllowed, req.URL.Scheme)
		}
		if !hostAllowed(req.URL.Hostname(), s.AllowHosts) {
			return fmt.Errorf("%w: %s", errRedirectNotAllowed, req.URL.Hostname())
		}
		if next != nil {
			return next(req, via)
		}
		return nil
	}
	f.Client = &client
	return &f
}

func (s Server) handleViewerGet(w http.ResponseWriter, r *http.Request) {
	if s.Activation == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "server misconfigured: Activation is nil"})
		return
	}
	id, ok := s.Activation.Active()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "active": ok, "id": id})
}

func (s Server) handleViewerSet(w http.ResponseWriter, r *http.Request) {
	if s.Activation == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": "server misconfigured: Activation is nil"})
		return
	}
	var body struct {
		ID     string `json:"id"`
		Toggle bool   `json:"toggle"`
	}
	if err := readJSON(r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
		return
	}

	id := strings.TrimSpace(body.ID)
	switch {
	case body.Toggle && id != "":
		s.Activation.Toggle(id)
	default:
		s.Activation.SetActive(id)
	}

	active, ok := s.Activation.Active()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "active": ok, "id": active})
}

func (s Server) handleHistoryList(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "history disabled"})
		return
	}
	limit := intFromQuery(r, "limit", 50)
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	entries, err := s.History.List(r.Context(), limit)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "items": entries})
}

func (s Server) handleHistoryGet(w http.ResponseWriter, r *http.Request) {
	if s.History == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "history disabled"})
		return
	}
	e, err := s.History.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, history.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "item": e})
}

// hostAllowed matches host against the allow-list exactly or as a subdomain.
func hostAllowed(host string, allow []string) bool {
	if len(allow) == 0 {
		return true
	}
	host = strings.ToLower(host)
	for _, a := range allow {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if host == a || strings.HasSuffix(host, "."+a) {
			return true
		}
	}
	return false
}

func nonNilSources(src []extract.Source) []extract.Source {
	if src == nil {
		return []extract.Source{}
	}
	return src
}
