package export

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/pagecraft/internal/content"
	"github.com/dusk-indust/pagecraft/internal/engine"
	"github.com/dusk-indust/pagecraft/internal/section"
)

// GenerateMermaid produces a Mermaid graph TD diagram of a composition: the
// page, its sections in display order, and the related collections each
// section reads.
func GenerateMermaid(comp *engine.Composition) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString(fmt.Sprintf("  P[\"%s\"]\n", label(comp.Page.Slug+": "+comp.Page.Title)))

	used := make(map[content.Collection]bool)
	var edges []string
	for i, s := range comp.Sections {
		id := fmt.Sprintf("S%d", i)
		sb.WriteString(fmt.Sprintf("  %s[\"%d. %s (%s)\"]\n", id, i+1, label(s.Name), label(s.Type)))
		edges = append(edges, fmt.Sprintf("  P --> %s\n", id))
		for _, c := range section.Kind(s.Type).Collections() {
			used[c] = true
			edges = append(edges, fmt.Sprintf("  %s -.-> C_%s\n", id, c))
		}
	}

	// Collections in the bag, whether or not a section reads them.
	for _, c := range comp.Related.Collections() {
		used[c] = true
	}
	for _, c := range content.AllCollections {
		if !used[c] {
			continue
		}
		sb.WriteString(fmt.Sprintf("  C_%s[(\"%s: %d\")]\n", c, c, comp.Related.Len(c)))
	}

	for _, e := range edges {
		sb.WriteString(e)
	}
	return sb.String()
}

// maxLabel is the longest label, in runes, before escaping.
const maxLabel = 40

// label makes s safe inside a quoted Mermaid label, truncating it to
// maxLabel runes.
func label(s string) string {
	if r := []rune(s); len(r) > maxLabel {
		s = string(r[:maxLabel])
	}
	return strings.ReplaceAll(s, `"`, "#quot;")
}
