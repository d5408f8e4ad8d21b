package mcptools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dusk-indust/pagecraft/internal/content"
	"github.com/dusk-indust/pagecraft/internal/engine"
	"github.com/dusk-indust/pagecraft/internal/section"
	"github.com/dusk-indust/pagecraft/internal/store"
	"github.com/dusk-indust/pagecraft/internal/theme"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// PreviewService backs the authoring preview tools. Drafts always resolve.
type PreviewService struct {
	registry *section.Registry
	engines  map[section.Mode]*engine.Engine
}

// NewPreviewService creates a PreviewService over st. Both modes share one
// registry so renderers materialize once.
func NewPreviewService(st store.Store, th *theme.Theme, plan engine.Plan, logger *slog.Logger) *PreviewService {
	if logger == nil {
		logger = slog.Default()
	}
	reg := section.NewRegistry(th)
	svc := &PreviewService{registry: reg, engines: make(map[section.Mode]*engine.Engine, 2)}
	for _, mode := range []section.Mode{section.ModeDevelopment, section.ModeProduction} {
		d := section.NewDispatcher(reg, th, mode, logger)
		svc.engines[mode] = engine.New(st, d,
			engine.WithPlan(plan),
			engine.WithDrafts(true),
			engine.WithLogger(logger),
		)
	}
	return svc
}

// ResolvePage resolves a page and summarizes its sections and related data.
func (s *PreviewService) ResolvePage(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ResolvePageInput,
) (*mcp.CallToolResult, ResolvePageOutput, error) {
	if input.Slug == "" {
		return nil, ResolvePageOutput{}, fmt.Errorf("slug is required")
	}

	out := ResolvePageOutput{Sections: []SectionSummary{}, Collections: map[string]int{}}
	comp := s.engines[section.ModeDevelopment].ResolvePage(ctx, input.Slug)
	if comp == nil {
		return nil, out, nil
	}

	out.Found = true
	out.Page = &PageSummary{
		ID:              comp.Page.ID,
		Slug:            comp.Page.Slug,
		Title:           comp.Page.Title,
		PageType:        comp.Page.PageType,
		Status:          string(comp.Page.Status),
		MetaTitle:       comp.Page.MetaTitle,
		MetaDescription: comp.Page.MetaDescription,
	}
	for _, sec := range comp.Sections {
		out.Sections = append(out.Sections, SectionSummary{
			ID:       sec.ID,
			Name:     sec.Name,
			Type:     sec.Type,
			Order:    sec.Order,
			Global:   sec.Global(),
			Known:    s.registry.Has(section.Kind(sec.Type)),
			Content:  content.ResolvePayload(sec.Content),
			Settings: content.ResolvePayload(sec.Settings),
		})
	}
	for _, c := range comp.Related.Collections() {
		out.Collections[string(c)] = comp.Related.Len(c)
	}
	return nil, out, nil
}

// RenderSections renders a page's sections in the requested mode.
func (s *PreviewService) RenderSections(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RenderSectionsInput,
) (*mcp.CallToolResult, RenderSectionsOutput, error) {
	if input.Slug == "" {
		return nil, RenderSectionsOutput{}, fmt.Errorf("slug is required")
	}
	mode := section.ModeDevelopment
	if input.Mode != "" {
		m, err := section.ParseMode(input.Mode)
		if err != nil {
			return nil, RenderSectionsOutput{}, err
		}
		mode = m
	}

	out := RenderSectionsOutput{Mode: string(mode), Units: []RenderedUnit{}}
	comp, units := s.engines[mode].Render(ctx, input.Slug)
	if comp == nil {
		return nil, out, nil
	}
	out.Found = true
	for _, u := range units {
		out.Units = append(out.Units, RenderedUnit{
			SectionID:   u.SectionID,
			Name:        u.Name,
			Kind:        string(u.Kind),
			Order:       u.Order,
			Priority:    u.Priority,
			Placeholder: u.Placeholder,
			HTML:        string(u.HTML),
		})
	}
	return nil, out, nil
}

// ListSectionKinds lists the registered section kinds.
func (s *PreviewService) ListSectionKinds(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListSectionKindsInput,
) (*mcp.CallToolResult, ListSectionKindsOutput, error) {
	out := ListSectionKindsOutput{Kinds: []KindInfo{}}
	for _, k := range s.registry.Kinds() {
		out.Kinds = append(out.Kinds, KindInfo{Kind: string(k), Materialized: s.registry.Materialized(k)})
	}
	return nil, out, nil
}
