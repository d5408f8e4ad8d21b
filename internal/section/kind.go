// Package section maps section type tags to renderers and dispatches
// sections to them without ever failing the page.
package section

import (
	"fmt"
	"regexp"

	"github.com/dusk-indust/pagecraft/internal/content"
)

// Kind is a validated section type tag.
type Kind string

const (
	KindHero              Kind = "hero"
	KindServicesGrid      Kind = "services_grid"
	KindPortfolioShowcase Kind = "portfolio_showcase"
	KindBlogFeed          Kind = "blog_feed"
	KindTestimonials      Kind = "testimonials"
	KindCTABanner         Kind = "cta_banner"
	KindRichText          Kind = "rich_text"
	KindStats             Kind = "stats"
	KindFAQ               Kind = "faq"
)

// BuiltinKinds lists the kinds NewRegistry registers.
var BuiltinKinds = []Kind{
	KindHero,
	KindServicesGrid,
	KindPortfolioShowcase,
	KindBlogFeed,
	KindTestimonials,
	KindCTABanner,
	KindRichText,
	KindStats,
	KindFAQ,
}

// Collections returns the related collections a built-in kind reads.
func (k Kind) Collections() []content.Collection {
	switch k {
	case KindServicesGrid:
		return []content.Collection{content.CollectionServices}
	case KindPortfolioShowcase:
		return []content.Collection{content.CollectionPortfolio}
	case KindBlogFeed:
		return []content.Collection{content.CollectionBlogPosts}
	case KindTestimonials:
		return []content.Collection{content.CollectionTestimonials}
	case KindCTABanner:
		return []content.Collection{content.CollectionSettings}
	}
	return nil
}

var kindPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ParseKind validates a type tag. Matching is exact: no case folding and no
// trimming.
func ParseKind(s string) (Kind, error) {
	if !kindPattern.MatchString(s) {
		return "", fmt.Errorf("section: invalid kind %q", s)
	}
	return Kind(s), nil
}

// Mode selects how unknown section kinds are handled.
type Mode string

const (
	// ModeDevelopment renders a visible placeholder for unknown kinds.
	ModeDevelopment Mode = "development"
	// ModeProduction renders nothing for unknown kinds.
	ModeProduction Mode = "production"
)

// ParseMode accepts "development"/"dev" and "production"/"prod".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "development", "dev":
		return ModeDevelopment, nil
	case "production", "prod", "":
		return ModeProduction, nil
	}
	return "", fmt.Errorf("section: unknown mode %q", s)
}
