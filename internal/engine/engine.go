package engine

import (
	"context"
	"log/slog"

	"github.com/dusk-indust/pagecraft/internal/content"
	"github.com/dusk-indust/pagecraft/internal/section"
	"github.com/dusk-indust/pagecraft/internal/store"
	"golang.org/x/sync/errgroup"
)

// Composition is a resolved page with the related data for its sections.
type Composition struct {
	Page     content.Page
	Sections []content.Section
	Related  content.RelatedData
}

// Engine is the entry point for page assembly.
type Engine struct {
	resolver   *Resolver
	aggregator *Aggregator
	pipeline   *Pipeline
	plan       Plan
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	plan        Plan
	allowDrafts bool
	logger      *slog.Logger
}

// WithPlan sets the related-collection plan.
func WithPlan(p Plan) Option {
	return func(o *options) { o.plan = p }
}

// WithDrafts lets unpublished pages resolve.
func WithDrafts(allow bool) Option {
	return func(o *options) { o.allowDrafts = allow }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates an Engine reading from st and rendering through d.
func New(st store.Store, d *section.Dispatcher, opts ...Option) *Engine {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{
		resolver:   NewResolver(st, o.allowDrafts, o.logger),
		aggregator: NewAggregator(st, o.logger),
		pipeline:   NewPipeline(d, o.logger),
		plan:       o.plan,
	}
}

// ResolvePage resolves slug and gathers its related data concurrently. It
// returns nil when the page does not resolve; in-flight collection fetches
// are cancelled in that case.
func (e *Engine) ResolvePage(ctx context.Context, slug string) *Composition {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		resolved *Resolved
		related  content.RelatedData
		g        errgroup.Group
	)
	g.Go(func() error {
		resolved = e.resolver.ResolvePage(ctx, slug)
		if resolved == nil {
			cancel()
		}
		return nil
	})
	g.Go(func() error {
		related = e.aggregator.Gather(ctx, e.plan.For(slug))
		return nil
	})
	_ = g.Wait()

	if resolved == nil {
		return nil
	}
	return &Composition{
		Page:     resolved.Page,
		Sections: resolved.Sections,
		Related:  related.Merge(resolved.Related),
	}
}

// RenderSections renders sections in display order.
func (e *Engine) RenderSections(sections []content.Section, related content.RelatedData) []section.Unit {
	return e.pipeline.Render(sections, related)
}

// Render resolves and renders slug. It returns a nil composition when the
// page does not resolve.
func (e *Engine) Render(ctx context.Context, slug string) (*Composition, []section.Unit) {
	comp := e.ResolvePage(ctx, slug)
	if comp == nil {
		return nil, nil
	}
	return comp, e.RenderSections(comp.Sections, comp.Related)
}

// Dispatcher returns the dispatcher sections are rendered through.
func (e *Engine) Dispatcher() *section.Dispatcher {
	return e.pipeline.dispatcher
}
