// Package engine turns a page slug into rendered section units: it resolves
// the page, gathers related collections concurrently and runs the sections
// through the dispatcher in display order.
package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dusk-indust/pagecraft/internal/content"
	"github.com/dusk-indust/pagecraft/internal/store"
)

// Resolved is a page with its visible sections in display order.
type Resolved struct {
	Page     content.Page
	Sections []content.Section
	// Related is relatedData supplied by the store alongside the page.
	Related content.RecordSets
}

// Resolver fetches pages from a store.
type Resolver struct {
	store       store.Store
	allowDrafts bool
	logger      *slog.Logger
}

// NewResolver creates a Resolver. Unpublished pages resolve only when
// allowDrafts is set.
func NewResolver(st store.Store, allowDrafts bool, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{store: st, allowDrafts: allowDrafts, logger: logger}
}

// ResolvePage returns the page for slug, or nil when it is missing, not
// published, or the store fails. It never returns an error.
func (r *Resolver) ResolvePage(ctx context.Context, slug string) *Resolved {
	log := r.logger.With("slug", slug)

	bundle, err := r.store.GetPage(ctx, slug)
	switch {
	case errors.Is(err, store.ErrNotFound):
		log.Debug("page not found")
		return nil
	case err != nil:
		log.Error("fetch page failed", "error", err)
		return nil
	case bundle == nil:
		return nil
	}

	if !bundle.Page.Published() && !r.allowDrafts {
		log.Info("page not published", "status", bundle.Page.Status)
		return nil
	}

	sections := bundle.Sections
	if len(sections) == 0 && len(bundle.Page.SectionIDs) > 0 {
		sections = r.referenced(ctx, log, bundle.Page.SectionIDs)
	}

	visible := make([]content.Section, 0, len(sections))
	for _, s := range sections {
		if !s.IsVisible() {
			log.Debug("dropping hidden section", "section", s.ID)
			continue
		}
		visible = append(visible, s)
	}
	content.SortSections(visible)

	return &Resolved{
		Page:     bundle.Page,
		Sections: visible,
		Related:  bundle.Related,
	}
}

// referenced fetches a page's section-ID list. List position is the display
// order.
func (r *Resolver) referenced(ctx context.Context, log *slog.Logger, ids []string) []content.Section {
	sections, err := r.store.GetSections(ctx, ids)
	if err != nil {
		log.Warn("fetch referenced sections failed", "error", err)
		return nil
	}
	if len(sections) < len(ids) {
		log.Warn("some referenced sections are missing", "want", len(ids), "got", len(sections))
	}
	out := make([]content.Section, len(sections))
	for i, s := range sections {
		s.Order = i + 1
		out[i] = s
	}
	return out
}
