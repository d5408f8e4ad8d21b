// Package contentapi speaks the Content Store's JSON-over-HTTP read API, both
// as a client (HTTPStore) and as a server exposing any local store.Store.
package contentapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dusk-indust/pagecraft/internal/content"
	"github.com/dusk-indust/pagecraft/internal/store"
)

// Compile-time interface check.
var _ store.Store = (*HTTPStore)(nil)

// StatusError is returned when the content API answers with an unexpected
// HTTP status.
type StatusError struct {
	Code int
	Path string
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("contentapi: %s: HTTP %d: %s", e.Path, e.Code, e.Body)
}

// HTTPStore implements store.Store against a remote content API.
type HTTPStore struct {
	baseURL string
	http    *http.Client
}

// Option configures an HTTPStore.
type Option func(*HTTPStore)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *HTTPStore) {
		s.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) Option {
	return func(s *HTTPStore) {
		s.http = hc
	}
}

// NewHTTPStore creates a client for the content API rooted at baseURL.
func NewHTTPStore(baseURL string, opts ...Option) *HTTPStore {
	s := &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetPage fetches GET /api/pages/{slug}.
func (s *HTTPStore) GetPage(ctx context.Context, slug string) (*content.PageBundle, error) {
	var bundle content.PageBundle
	if err := s.get(ctx, "/api/pages/"+url.PathEscape(slug), nil, &bundle); err != nil {
		return nil, err
	}
	if bundle.Sections == nil {
		bundle.Sections = []content.Section{}
	}
	return &bundle, nil
}

// GetSections fetches GET /api/sections?ids=a,b.
func (s *HTTPStore) GetSections(ctx context.Context, ids []string) ([]content.Section, error) {
	if len(ids) == 0 {
		return []content.Section{}, nil
	}
	q := url.Values{"ids": {strings.Join(ids, ",")}}
	var sections []content.Section
	if err := s.get(ctx, "/api/sections", q, &sections); err != nil {
		return nil, err
	}
	if sections == nil {
		sections = []content.Section{}
	}
	return sections, nil
}

// ListCollection fetches GET /api/collections/{name}.
func (s *HTTPStore) ListCollection(ctx context.Context, c content.Collection, f content.Filter) ([]content.Record, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("contentapi: unknown collection %q", c)
	}
	q := url.Values{}
	if f.Featured {
		q.Set("featured", "true")
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	var records []content.Record
	if err := s.get(ctx, "/api/collections/"+string(c), q, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []content.Record{}
	}
	return records, nil
}

// Close releases idle connections.
func (s *HTTPStore) Close() error {
	s.http.CloseIdleConnections()
	return nil
}

// get performs a GET request and decodes the JSON response into out.
func (s *HTTPStore) get(ctx context.Context, path string, q url.Values, out any) error {
	target := s.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("contentapi: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("contentapi: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return store.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Path: path, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("contentapi: decode %s: %w", path, err)
	}
	return nil
}
