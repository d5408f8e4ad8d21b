package engine

import (
	"log/slog"
	"slices"

	"github.com/dusk-indust/pagecraft/internal/content"
	"github.com/dusk-indust/pagecraft/internal/section"
)

// Pipeline renders an ordered list of sections.
type Pipeline struct {
	dispatcher *section.Dispatcher
	logger     *slog.Logger
}

// NewPipeline creates a Pipeline that renders through d.
func NewPipeline(d *section.Dispatcher, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{dispatcher: d, logger: logger}
}

// Render sorts sections by display order, skips those without a type tag
// and dispatches the rest. The first dispatched section carries the
// priority flag. The input slice is not modified.
func (p *Pipeline) Render(sections []content.Section, related content.RelatedData) []section.Unit {
	ordered := slices.Clone(sections)
	content.SortSections(ordered)

	units := make([]section.Unit, 0, len(ordered))
	priority := true
	for _, s := range ordered {
		if s.Type == "" {
			p.logger.Warn("skipping section without type", "section", s.ID, "name", s.Name)
			continue
		}
		if u, ok := p.dispatcher.Render(s, related, priority); ok {
			units = append(units, u)
		}
		priority = false
	}
	return units
}
