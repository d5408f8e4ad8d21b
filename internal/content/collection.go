package content

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
)

// Collection names an auxiliary collection in the content store.
type Collection string

const (
	CollectionServices     Collection = "services"
	CollectionPortfolio    Collection = "portfolio"
	CollectionBlogPosts    Collection = "blog_posts"
	CollectionTestimonials Collection = "testimonials"
	CollectionSettings     Collection = "settings"
)

// AllCollections lists every collection the store serves.
var AllCollections = []Collection{
	CollectionServices,
	CollectionPortfolio,
	CollectionBlogPosts,
	CollectionTestimonials,
	CollectionSettings,
}

// Valid reports whether c is a known collection.
func (c Collection) Valid() bool {
	return slices.Contains(AllCollections, c)
}

// ParseCollection validates a collection name.
func ParseCollection(s string) (Collection, error) {
	c := Collection(s)
	if !c.Valid() {
		return "", fmt.Errorf("content: unknown collection %q", s)
	}
	return c, nil
}

// Filter narrows a collection fetch.
type Filter struct {
	Featured bool `json:"featured,omitempty" yaml:"featured,omitempty"`
	Limit    int  `json:"limit,omitempty" yaml:"limit,omitempty"`
}

// Request asks for one collection with a filter.
type Request struct {
	Collection Collection `json:"collection" yaml:"collection"`
	Filter     `yaml:",inline"`
}

// Record is one element of a collection. Records are schemaless on the
// wire; typed views are obtained with DecodeRecords.
type Record = Payload

// RecordID returns the record's "id" field.
func RecordID(r Record) string {
	return r.String("id")
}

// Featured reports the record's "featured" flag.
func Featured(r Record) bool {
	return r.Bool("featured")
}

// Position returns the record's "position" field, 0 when absent.
func Position(r Record) int {
	return r.Int("position", 0)
}

// SortRecords orders records by ascending position, keeping fetch order
// for ties.
func SortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return Position(records[i]) < Position(records[j])
	})
}

// ApplyFilter returns the records that pass f, in position order.
func ApplyFilter(records []Record, f Filter) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Featured && !Featured(r) {
			continue
		}
		out = append(out, r)
	}
	SortRecords(out)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

// DecodeRecords decodes each record into T. Records that fail to decode are
// skipped.
func DecodeRecords[T any](records []Record) []T {
	out := make([]T, 0, len(records))
	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			continue
		}
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Service is an offering listed on the site.
type Service struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Icon      string `json:"icon,omitempty"`
	PriceFrom string `json:"priceFrom,omitempty"`
	Featured  bool   `json:"featured,omitempty"`
	Position  int    `json:"position,omitempty"`
}

// PortfolioItem is a showcased project.
type PortfolioItem struct {
	ID       string   `json:"id"`
	Slug     string   `json:"slug"`
	Title    string   `json:"title"`
	Client   string   `json:"client,omitempty"`
	Summary  string   `json:"summary"`
	Image    string   `json:"image,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Featured bool     `json:"featured,omitempty"`
	Position int      `json:"position,omitempty"`
}

// BlogPost is a published article.
type BlogPost struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Excerpt     string `json:"excerpt"`
	Author      string `json:"author,omitempty"`
	CoverImage  string `json:"coverImage,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
	Featured    bool   `json:"featured,omitempty"`
	Position    int    `json:"position,omitempty"`
}

// Testimonial is a client quote.
type Testimonial struct {
	ID       string `json:"id"`
	Quote    string `json:"quote"`
	Author   string `json:"author"`
	Role     string `json:"role,omitempty"`
	Company  string `json:"company,omitempty"`
	Rating   int    `json:"rating,omitempty"`
	Featured bool   `json:"featured,omitempty"`
	Position int    `json:"position,omitempty"`
}

// Setting is a site-wide key-value entry.
type Setting struct {
	ID    string `json:"id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}
