// Package store holds the content store backends the composition engine
// reads from. All backends satisfy Store; the local ones also satisfy Writer
// so they can be filled from a seed file.
package store

import (
	"context"
	"errors"
	"io"

	"github.com/dusk-indust/pagecraft/internal/content"
)

// ErrNotFound is returned when a page slug does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the read side of the content store.
// Implementations: HTTPStore (production, in contentapi), SQLiteStore,
// KuzuStore and MemStore.
type Store interface {
	io.Closer

	// GetPage returns the page and the sections it owns, in fetch order.
	// The page is returned whatever its status; publication checks belong
	// to the caller.
	GetPage(ctx context.Context, slug string) (*content.PageBundle, error)

	// GetSections returns the sections with the given IDs in the order of
	// ids. Unknown IDs are skipped.
	GetSections(ctx context.Context, ids []string) ([]content.Section, error)

	// ListCollection returns the records of one collection that pass f, in
	// position order.
	ListCollection(ctx context.Context, c content.Collection, f content.Filter) ([]content.Record, error)
}

// Writer is implemented by stores that can be populated locally.
type Writer interface {
	// InitSchema prepares tables; it is idempotent.
	InitSchema(ctx context.Context) error

	PutPage(ctx context.Context, page content.Page) error
	PutSection(ctx context.Context, sec content.Section) error
	PutRecord(ctx context.Context, c content.Collection, rec content.Record) error
}
