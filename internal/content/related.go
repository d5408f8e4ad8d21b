package content

import (
	"maps"
	"slices"
)

// RelatedData is the per-request bag of auxiliary collections. It is built
// once by the aggregator and shared read-only by every section renderer:
// accessors hand out copies, never the underlying slices.
type RelatedData struct {
	sets map[Collection][]Record
}

// NewRelatedData builds a bag from sets. The map and its slices are copied.
func NewRelatedData(sets map[Collection][]Record) RelatedData {
	rd := RelatedData{sets: make(map[Collection][]Record, len(sets))}
	for c, records := range sets {
		rd.sets[c] = cloneRecords(records)
	}
	return rd
}

// Records returns a copy of the records for c. Unknown or empty collections
// return an empty, non-nil slice.
func (rd RelatedData) Records(c Collection) []Record {
	return cloneRecords(rd.sets[c])
}

// Has reports whether c was requested for this page, regardless of whether
// any records came back.
func (rd RelatedData) Has(c Collection) bool {
	_, ok := rd.sets[c]
	return ok
}

// Len returns the number of records in c.
func (rd RelatedData) Len(c Collection) int {
	return len(rd.sets[c])
}

// Collections returns the collection names present in the bag, sorted.
func (rd RelatedData) Collections() []Collection {
	return slices.Sorted(maps.Keys(rd.sets))
}

// RecordSets returns a deep copy in wire form.
func (rd RelatedData) RecordSets() RecordSets {
	out := make(RecordSets, len(rd.sets))
	for c, records := range rd.sets {
		out[c] = cloneRecords(records)
	}
	return out
}

// Merge returns a new bag holding rd's collections plus any collection from
// fallback that rd lacks or left empty.
func (rd RelatedData) Merge(fallback RecordSets) RelatedData {
	sets := make(map[Collection][]Record, len(rd.sets)+len(fallback))
	for c, records := range rd.sets {
		sets[c] = records
	}
	for c, records := range fallback {
		if len(sets[c]) == 0 {
			sets[c] = records
		}
	}
	return NewRelatedData(sets)
}

func (rd RelatedData) Services() []Service {
	return DecodeRecords[Service](rd.sets[CollectionServices])
}

func (rd RelatedData) PortfolioItems() []PortfolioItem {
	return DecodeRecords[PortfolioItem](rd.sets[CollectionPortfolio])
}

func (rd RelatedData) BlogPosts() []BlogPost {
	return DecodeRecords[BlogPost](rd.sets[CollectionBlogPosts])
}

func (rd RelatedData) Testimonials() []Testimonial {
	return DecodeRecords[Testimonial](rd.sets[CollectionTestimonials])
}

// Settings returns site settings keyed by Setting.Key.
func (rd RelatedData) Settings() map[string]string {
	settings := DecodeRecords[Setting](rd.sets[CollectionSettings])
	out := make(map[string]string, len(settings))
	for _, s := range settings {
		out[s.Key] = s.Value
	}
	return out
}

// cloneRecords deep-copies the slice and every record in it.
func cloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = cloneMap(r)
		if out[i] == nil {
			out[i] = Record{}
		}
	}
	return out
}

func cloneMap[M ~map[string]any](m M) M {
	if m == nil {
		return nil
	}
	out := make(M, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue copies the container types JSON decoding produces. Scalars are
// returned as-is.
func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return cloneMap(v)
	case Payload:
		return cloneMap(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return slices.Clone(v)
	case []map[string]any:
		out := make([]map[string]any, len(v))
		for i, e := range v {
			out[i] = cloneMap(e)
		}
		return out
	}
	return v
}
