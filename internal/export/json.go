// Package export writes page compositions as JSON outlines and Mermaid
// diagrams.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dusk-indust/pagecraft/internal/engine"
	"github.com/dusk-indust/pagecraft/internal/section"
	"github.com/natefinch/atomic"
)

// PageExport is the top-level JSON export structure.
type PageExport struct {
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	Status      string          `json:"status"`
	ExportedAt  string          `json:"exportedAt"`
	Sections    []SectionExport `json:"sections"`
	Collections map[string]int  `json:"collections"`
}

// SectionExport describes one section and what it rendered to.
type SectionExport struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Order       int    `json:"order"`
	Global      bool   `json:"global,omitempty"`
	Rendered    bool   `json:"rendered"`
	Priority    bool   `json:"priority,omitempty"`
	Placeholder bool   `json:"placeholder,omitempty"`
	HTML        string `json:"html,omitempty"`
}

// ExportPage builds a PageExport from a composition and its rendered units.
// Sections that rendered nothing are listed with Rendered false.
func ExportPage(comp *engine.Composition, units []section.Unit) *PageExport {
	byID := make(map[string]section.Unit, len(units))
	for _, u := range units {
		byID[u.SectionID] = u
	}

	exp := &PageExport{
		Slug:        comp.Page.Slug,
		Title:       comp.Page.Title,
		Status:      string(comp.Page.Status),
		ExportedAt:  time.Now().UTC().Format(time.RFC3339),
		Sections:    make([]SectionExport, 0, len(comp.Sections)),
		Collections: make(map[string]int),
	}
	for _, s := range comp.Sections {
		se := SectionExport{
			ID:     s.ID,
			Name:   s.Name,
			Type:   s.Type,
			Order:  s.Order,
			Global: s.Global(),
		}
		if u, ok := byID[s.ID]; ok {
			se.Rendered = true
			se.Priority = u.Priority
			se.Placeholder = u.Placeholder
			se.HTML = string(u.HTML)
		}
		exp.Sections = append(exp.Sections, se)
	}
	for _, c := range comp.Related.Collections() {
		exp.Collections[string(c)] = comp.Related.Len(c)
	}
	return exp
}

// Marshal encodes exp as indented JSON.
func Marshal(exp *PageExport) ([]byte, error) {
	data, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export: marshal: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFile writes exp to path atomically.
func WriteFile(path string, exp *PageExport) error {
	data, err := Marshal(exp)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("export: create directory: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}
