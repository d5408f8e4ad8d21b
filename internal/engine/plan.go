package engine

import "github.com/dusk-indust/pagecraft/internal/content"

// Plan decides which related collections to gather for a page.
type Plan struct {
	// Default applies to pages without an entry in Pages. A nil Default
	// requests every collection unfiltered.
	Default []content.Request
	// Pages maps a slug to its requests. An empty list gathers nothing.
	Pages map[string][]content.Request
}

// For returns the requests for slug.
func (p Plan) For(slug string) []content.Request {
	if reqs, ok := p.Pages[slug]; ok {
		return reqs
	}
	if p.Default != nil {
		return p.Default
	}
	return AllCollections()
}

// AllCollections requests every known collection without filters.
func AllCollections() []content.Request {
	reqs := make([]content.Request, len(content.AllCollections))
	for i, c := range content.AllCollections {
		reqs[i] = content.Request{Collection: c}
	}
	return reqs
}
