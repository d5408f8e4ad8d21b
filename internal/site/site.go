// Package site serves composed pages over HTTP.
package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dusk-indust/pagecraft/internal/engine"
	"github.com/dusk-indust/pagecraft/internal/theme"
)

// HomeSlug is the slug served at "/".
const HomeSlug = "home"

// Options configures a Handler.
type Options struct {
	Dev bool
	// CacheMaxAge is the max-age in seconds for rendered pages. Zero
	// disables caching.
	CacheMaxAge int
	Logger      *slog.Logger
}

// Handler renders pages at "/" and "/{slug}".
type Handler struct {
	engine *engine.Engine
	theme  *theme.Theme
	opts   Options
	mux    *http.ServeMux
}

// New creates a Handler.
func New(e *engine.Engine, th *theme.Theme, opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	h := &Handler{engine: e, theme: th, opts: opts, mux: http.NewServeMux()}
	h.mux.HandleFunc("GET /healthz", h.handleHealth)
	h.mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		h.servePage(w, r, HomeSlug)
	})
	h.mux.HandleFunc("GET /{slug}", func(w http.ResponseWriter, r *http.Request) {
		h.servePage(w, r, r.PathValue("slug"))
	})
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (h *Handler) servePage(w http.ResponseWriter, r *http.Request, slug string) {
	comp, units := h.engine.Render(r.Context(), slug)
	if comp == nil {
		h.notFound(w, r)
		return
	}

	var body strings.Builder
	for _, u := range units {
		body.WriteString(string(u.HTML))
		body.WriteByte('\n')
	}
	view := theme.PageView{
		Title:           comp.Page.Title,
		PageType:        comp.Page.PageType,
		MetaTitle:       comp.Page.MetaTitle,
		MetaDescription: comp.Page.MetaDescription,
		OGImage:         comp.Page.OGImage,
		Body:            template.HTML(body.String()),
		Empty:           len(units) == 0,
		Dev:             h.opts.Dev,
	}
	h.write(w, r, http.StatusOK, view)
}

func (h *Handler) notFound(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, http.StatusNotFound, theme.PageView{
		Title: "Page not found",
		Body:  template.HTML(`<section class="not-found"><h1>Page not found</h1><p><a href="/">Back to the home page</a></p></section>`),
		Dev:   h.opts.Dev,
	})
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, status int, view theme.PageView) {
	var buf bytes.Buffer
	if err := h.theme.RenderPage(&buf, view); err != nil {
		if errors.Is(r.Context().Err(), context.Canceled) {
			return
		}
		h.opts.Logger.Error("render layout", "path", r.URL.Path, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", h.cacheControl(status))
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) cacheControl(status int) string {
	if h.opts.Dev || status != http.StatusOK || h.opts.CacheMaxAge <= 0 {
		return "no-store"
	}
	return fmt.Sprintf("public, max-age=%d", h.opts.CacheMaxAge)
}
