package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dusk-indust/pagecraft/internal/content"
	"github.com/google/uuid"
)

// Seed is the on-disk interchange format used to populate local stores and
// to export their contents.
type Seed struct {
	Pages       []content.Page     `json:"pages"`
	Sections    []content.Section  `json:"sections"`
	Collections content.RecordSets `json:"collections"`
}

// LoadSeed reads a seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("store: read seed %s: %w", path, err)
	}
	var s Seed
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("store: decode seed %s: %w", path, err)
	}
	return &s, nil
}

// Apply writes the seed into w. Pages are written before sections so that
// backends with relationship tables can link them. Pages, sections and
// records without an ID get a fresh UUID; sections may reference their page
// by slug.
func (s *Seed) Apply(ctx context.Context, w Writer) error {
	if err := w.InitSchema(ctx); err != nil {
		return fmt.Errorf("store: init schema: %w", err)
	}

	pageIDs := make(map[string]string, len(s.Pages))
	for _, p := range s.Pages {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.Status == "" {
			p.Status = content.StatusDraft
		}
		pageIDs[p.Slug] = p.ID
		if err := w.PutPage(ctx, p); err != nil {
			return fmt.Errorf("store: seed page %q: %w", p.Slug, err)
		}
	}

	for _, sec := range s.Sections {
		if sec.ID == "" {
			sec.ID = uuid.NewString()
		}
		if id, ok := pageIDs[sec.PageID]; ok {
			sec.PageID = id
		}
		if err := w.PutSection(ctx, sec); err != nil {
			return fmt.Errorf("store: seed section %q: %w", sec.Name, err)
		}
	}

	for c, records := range s.Collections {
		if !c.Valid() {
			return fmt.Errorf("store: seed: unknown collection %q", c)
		}
		for _, rec := range records {
			if content.RecordID(rec) == "" {
				rec["id"] = uuid.NewString()
			}
			if err := w.PutRecord(ctx, c, rec); err != nil {
				return fmt.Errorf("store: seed %s record: %w", c, err)
			}
		}
	}
	return nil
}
