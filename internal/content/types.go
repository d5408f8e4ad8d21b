// Package content defines the records the composition engine reads from the
// content store: pages, sections, auxiliary collections and the per-request
// related-data bag.
package content

import (
	"encoding/json"
	"sort"
	"time"
)

// Status is the publication state of a page.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Page is a routable page record.
type Page struct {
	ID       string `json:"id,omitempty"`
	Slug     string `json:"slug"`
	PageType string `json:"pageType,omitempty"`
	Title    string `json:"title"`

	MetaTitle       string `json:"metaTitle,omitempty"`
	MetaDescription string `json:"metaDescription,omitempty"`
	OGImage         string `json:"ogImage,omitempty"`

	Status Status `json:"status"`

	// SectionIDs references an ordered list of sections, usually global
	// ones. It is consulted only when the page owns no sections itself.
	SectionIDs []string `json:"sectionIds,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

// Published reports whether the page may be served publicly.
func (p Page) Published() bool {
	return p.Status == StatusPublished
}

// Section is one typed unit of page composition as it arrives from the
// store. Content and Settings are kept raw because the store may send them
// either as nested objects or as JSON-encoded strings.
type Section struct {
	ID       string          `json:"id"`
	PageID   string          `json:"pageId,omitempty"`
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	Content  json.RawMessage `json:"content,omitempty"`
	Settings json.RawMessage `json:"settings,omitempty"`
	Order    int             `json:"order"`
	Visible  *bool           `json:"visible,omitempty"`
}

// IsVisible reports whether the section should be rendered. A missing flag
// counts as visible.
func (s Section) IsVisible() bool {
	return s.Visible == nil || *s.Visible
}

// Global reports whether the section is not owned by a page.
func (s Section) Global() bool {
	return s.PageID == ""
}

// SortSections orders sections by ascending display order. Ties keep their
// fetch order.
func SortSections(sections []Section) {
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Order < sections[j].Order
	})
}

// PageBundle is the page-by-slug response of the content store.
type PageBundle struct {
	Page     Page       `json:"page"`
	Sections []Section  `json:"sections"`
	Related  RecordSets `json:"relatedData,omitempty"`
}

// RecordSets is the wire form of related data: collection name to records.
type RecordSets map[Collection][]Record
