package contentapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dusk-indust/pagecraft/internal/content"
	"github.com/dusk-indust/pagecraft/internal/store"
)

// Server exposes a store.Store on the content API routes.
type Server struct {
	store  store.Store
	logger *slog.Logger
	http   *http.Server
}

// NewServer creates a content API server backed by st.
func NewServer(st store.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: st, logger: logger}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/pages/{slug}", s.handlePage)
	mux.HandleFunc("GET /api/sections", s.handleSections)
	mux.HandleFunc("GET /api/collections/{name}", s.handleCollection)
	return mux
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.http.ListenAndServe() }()

	select {
	case <-ctx.Done():
		return s.http.Shutdown(context.WithoutCancel(ctx))
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	bundle, err := s.store.GetPage(r.Context(), slug)
	if err != nil {
		s.writeError(w, "get page", err)
		return
	}
	writeJSON(w, bundle)
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	var ids []string
	for _, id := range strings.Split(r.URL.Query().Get("ids"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	sections, err := s.store.GetSections(r.Context(), ids)
	if err != nil {
		s.writeError(w, "get sections", err)
		return
	}
	writeJSON(w, sections)
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	c, err := content.ParseCollection(r.PathValue("name"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	q := r.URL.Query()
	var f content.Filter
	f.Featured, _ = strconv.ParseBool(q.Get("featured"))
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		f.Limit = n
	}

	records, err := s.store.ListCollection(r.Context(), c, f)
	if err != nil {
		s.writeError(w, "list "+string(c), err)
		return
	}
	writeJSON(w, records)
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	s.logger.Error("content api request failed", "op", op, "error", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
