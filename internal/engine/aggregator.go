package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/dusk-indust/pagecraft/internal/content"
	"github.com/dusk-indust/pagecraft/internal/store"
	"golang.org/x/sync/errgroup"
)

// Aggregator fetches related collections for one request.
type Aggregator struct {
	store  store.Store
	logger *slog.Logger
}

// NewAggregator creates an Aggregator reading from st.
func NewAggregator(st store.Store, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{store: st, logger: logger}
}

// Gather issues every request concurrently and combines the results by
// collection name. A failed fetch becomes an empty list for its
// collection; Gather itself never fails. When a collection is requested
// more than once the first request wins.
func (a *Aggregator) Gather(ctx context.Context, reqs []content.Request) content.RelatedData {
	reqs = dedupe(reqs, a.logger)
	results := make([][]content.Record, len(reqs))

	var g errgroup.Group
	for i, req := range reqs {
		g.Go(func() error {
			start := time.Now()
			records, err := a.store.ListCollection(ctx, req.Collection, req.Filter)
			if err != nil {
				a.logger.Warn("related collection unavailable",
					"collection", req.Collection, "error", err)
				records = []content.Record{}
			}
			a.logger.Debug("fetched related collection",
				"collection", req.Collection, "count", len(records), "took", time.Since(start))
			results[i] = records
			return nil
		})
	}
	_ = g.Wait()

	sets := make(map[content.Collection][]content.Record, len(reqs))
	for i, req := range reqs {
		sets[req.Collection] = results[i]
	}
	return content.NewRelatedData(sets)
}

func dedupe(reqs []content.Request, logger *slog.Logger) []content.Request {
	seen := make(map[content.Collection]bool, len(reqs))
	out := make([]content.Request, 0, len(reqs))
	for _, r := range reqs {
		if seen[r.Collection] {
			logger.Warn("duplicate related collection request ignored", "collection", r.Collection)
			continue
		}
		seen[r.Collection] = true
		out = append(out, r)
	}
	return out
}
