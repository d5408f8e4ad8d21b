package mcptools

// --- resolve_page ---

// ResolvePageInput is the input for the resolve_page tool.
type ResolvePageInput struct {
	Slug string `json:"slug" jsonschema:"page slug to resolve, e.g. home"`
}

// ResolvePageOutput is the output for the resolve_page tool.
type ResolvePageOutput struct {
	Found       bool             `json:"found"`
	Page        *PageSummary     `json:"page,omitempty"`
	Sections    []SectionSummary `json:"sections"`
	Collections map[string]int   `json:"collections"`
}

// PageSummary describes a resolved page.
type PageSummary struct {
	ID              string `json:"id"`
	Slug            string `json:"slug"`
	Title           string `json:"title"`
	PageType        string `json:"pageType,omitempty"`
	Status          string `json:"status"`
	MetaTitle       string `json:"metaTitle,omitempty"`
	MetaDescription string `json:"metaDescription,omitempty"`
}

// SectionSummary describes one section of a resolved page.
type SectionSummary struct {
	ID       string         `json:"id"`
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	Order    int            `json:"order"`
	Global   bool           `json:"global"`
	Known    bool           `json:"known"`
	Content  map[string]any `json:"content"`
	Settings map[string]any `json:"settings"`
}

// --- render_sections ---

// RenderSectionsInput is the input for the render_sections tool.
type RenderSectionsInput struct {
	Slug string `json:"slug" jsonschema:"page slug to render"`
	Mode string `json:"mode,omitempty" jsonschema:"development (default) shows placeholders for unknown section types; production hides them"`
}

// RenderSectionsOutput is the output for the render_sections tool.
type RenderSectionsOutput struct {
	Found bool           `json:"found"`
	Mode  string         `json:"mode"`
	Units []RenderedUnit `json:"units"`
}

// RenderedUnit is one rendered section.
type RenderedUnit struct {
	SectionID   string `json:"sectionId"`
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Order       int    `json:"order"`
	Priority    bool   `json:"priority"`
	Placeholder bool   `json:"placeholder"`
	HTML        string `json:"html"`
}

// --- list_section_kinds ---

// ListSectionKindsInput is the input for the list_section_kinds tool.
type ListSectionKindsInput struct{}

// ListSectionKindsOutput is the output for the list_section_kinds tool.
type ListSectionKindsOutput struct {
	Kinds []KindInfo `json:"kinds"`
}

// KindInfo describes a registered section kind.
type KindInfo struct {
	Kind         string `json:"kind"`
	Materialized bool   `json:"materialized"`
}
