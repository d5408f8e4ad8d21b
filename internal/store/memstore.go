package store

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/dusk-indust/pagecraft/internal/content"
)

// Compile-time assertions.
var (
	_ Store  = (*MemStore)(nil)
	_ Writer = (*MemStore)(nil)
)

// MemStore implements Store and Writer using Go maps. Thread-safe via
// sync.RWMutex.
type MemStore struct {
	mu       sync.RWMutex
	pages    map[string]content.Page // key: slug
	sections []content.Section      // insertion order is fetch order
	records  map[content.Collection][]content.Record
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		pages:   make(map[string]content.Page),
		records: make(map[content.Collection][]content.Record),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// PutPage stores a page keyed by its slug, replacing any previous one.
func (m *MemStore) PutPage(_ context.Context, page content.Page) error {
	if page.Slug == "" {
		return fmt.Errorf("store: page without slug")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	page.SectionIDs = slices.Clone(page.SectionIDs)
	m.pages[page.Slug] = page
	return nil
}

// PutSection stores a section, replacing one with the same ID in place.
func (m *MemStore) PutSection(_ context.Context, sec content.Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sec = cloneSection(sec)
	for i, s := range m.sections {
		if s.ID == sec.ID {
			m.sections[i] = sec
			return nil
		}
	}
	m.sections = append(m.sections, sec)
	return nil
}

// PutRecord appends a record to a collection.
func (m *MemStore) PutRecord(_ context.Context, c content.Collection, rec content.Record) error {
	if !c.Valid() {
		return fmt.Errorf("store: unknown collection %q", c)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[c] = append(m.records[c], maps.Clone(rec))
	return nil
}

// GetPage returns the page for slug with its owned sections.
func (m *MemStore) GetPage(_ context.Context, slug string) (*content.PageBundle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	page, ok := m.pages[slug]
	if !ok {
		return nil, ErrNotFound
	}
	page.SectionIDs = slices.Clone(page.SectionIDs)

	bundle := &content.PageBundle{Page: page, Sections: []content.Section{}}
	for _, s := range m.sections {
		if s.PageID != "" && s.PageID == page.ID {
			bundle.Sections = append(bundle.Sections, cloneSection(s))
		}
	}
	return bundle, nil
}

// GetSections returns the sections with the given IDs in the order of ids.
func (m *MemStore) GetSections(_ context.Context, ids []string) ([]content.Section, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]content.Section, 0, len(ids))
	for _, id := range ids {
		for _, s := range m.sections {
			if s.ID == id {
				out = append(out, cloneSection(s))
				break
			}
		}
	}
	return out, nil
}

// ListCollection returns the filtered records of c.
func (m *MemStore) ListCollection(_ context.Context, c content.Collection, f content.Filter) ([]content.Record, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("store: unknown collection %q", c)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := content.ApplyFilter(m.records[c], f)
	for i, r := range out {
		out[i] = maps.Clone(r)
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}

func cloneSection(s content.Section) content.Section {
	s.Content = slices.Clone(s.Content)
	s.Settings = slices.Clone(s.Settings)
	if s.Visible != nil {
		v := *s.Visible
		s.Visible = &v
	}
	return s
}
