package section

import (
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dusk-indust/pagecraft/internal/content"
	"github.com/dusk-indust/pagecraft/internal/theme"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDispatcher(mode Mode) *Dispatcher {
	th := theme.New("")
	return NewDispatcher(NewRegistry(th), th, mode, quietLogger())
}

func sec(id, typ string, order int, body string) content.Section {
	s := content.Section{ID: id, Name: "Section " + id, Type: typ, Order: order}
	if body != "" {
		s.Content = json.RawMessage(body)
	}
	return s
}

// --------------------------------------------------------------------------
// Kinds
// --------------------------------------------------------------------------

func TestParseKind(t *testing.T) {
	for _, ok := range []string{"hero", "services_grid", "x1"} {
		k, err := ParseKind(ok)
		require.NoError(t, err)
		assert.Equal(t, Kind(ok), k)
	}
	for _, bad := range []string{"", "Hero", " hero", "hero ", "1hero", "cta-banner"} {
		_, err := ParseKind(bad)
		assert.Error(t, err, "ParseKind(%q)", bad)
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("dev")
	require.NoError(t, err)
	assert.Equal(t, ModeDevelopment, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeProduction, m)

	_, err = ParseMode("staging")
	assert.Error(t, err)
}

// --------------------------------------------------------------------------
// Registry
// --------------------------------------------------------------------------

func TestRegistry_BuiltinKinds(t *testing.T) {
	reg := NewRegistry(theme.New(""))
	kinds := reg.Kinds()
	assert.Len(t, kinds, len(BuiltinKinds))
	for _, k := range BuiltinKinds {
		assert.Contains(t, kinds, k)
	}
}

func TestRegistry_LazyMaterialization(t *testing.T) {
	th := theme.New("")
	reg := NewRegistry(th)

	assert.False(t, reg.Materialized(KindHero))
	assert.Zero(t, th.Parses(), "nothing is parsed at registration")

	r1, ok := reg.Lookup(KindHero)
	require.True(t, ok)
	r2, ok := reg.Lookup(KindHero)
	require.True(t, ok)

	assert.True(t, reg.Materialized(KindHero))
	assert.False(t, reg.Materialized(KindFAQ))
	assert.Equal(t, int64(1), th.Parses(), "hero template parsed exactly once")
	assert.NotNil(t, r1)
	assert.NotNil(t, r2)
}

func TestRegistry_ExactMatchOnly(t *testing.T) {
	reg := NewRegistry(theme.New(""))
	for _, k := range []Kind{"Hero", "HERO", "hero ", "heros", ""} {
		_, ok := reg.Lookup(k)
		assert.False(t, ok, "Lookup(%q)", k)
	}
}

func TestRegistry_RegisterValidation(t *testing.T) {
	reg := NewEmptyRegistry()
	noop := func() (Renderer, error) { return RendererFunc(func(Input) (template.HTML, error) { return "x", nil }), nil }

	assert.Error(t, reg.Register("Bad Kind", noop))
	assert.Error(t, reg.Register("widget", nil))
	require.NoError(t, reg.Register("widget", noop))
	assert.Equal(t, []Kind{"widget"}, reg.Kinds())
}

func TestRegistry_FactoryFailure(t *testing.T) {
	reg := NewEmptyRegistry()
	calls := 0
	require.NoError(t, reg.Register("broken", func() (Renderer, error) {
		calls++
		return nil, errors.New("template missing")
	}))

	d := NewDispatcher(reg, nil, ModeDevelopment, quietLogger())
	_, ok := d.Render(sec("s1", "broken", 1, ""), content.RelatedData{}, true)
	assert.False(t, ok, "a renderer that cannot be built renders nothing")
	_, ok = d.Render(sec("s2", "broken", 2, ""), content.RelatedData{}, false)
	assert.False(t, ok)
	assert.Equal(t, 1, calls, "factory runs once")
}

func TestRegistry_FactoryPanic(t *testing.T) {
	reg := NewEmptyRegistry()
	calls := 0
	require.NoError(t, reg.Register("fragile", func() (Renderer, error) {
		calls++
		panic("template cache corrupted")
	}))
	d := NewDispatcher(reg, nil, ModeProduction, quietLogger())

	for i := range 2 {
		assert.NotPanics(t, func() {
			_, ok := d.Render(sec("s1", "fragile", i+1, ""), content.RelatedData{}, i == 0)
			assert.False(t, ok)
		})
	}
	assert.Equal(t, 1, calls, "factory runs once")
	assert.True(t, reg.Materialized("fragile"))
}

func TestRegistry_FactoryReturnsNil(t *testing.T) {
	reg := NewEmptyRegistry()
	require.NoError(t, reg.Register("hollow", func() (Renderer, error) { return nil, nil }))
	d := NewDispatcher(reg, nil, ModeProduction, quietLogger())

	assert.NotPanics(t, func() {
		_, ok := d.Render(sec("s1", "hollow", 1, ""), content.RelatedData{}, true)
		assert.False(t, ok)
	})
}

func TestRegistry_NilTheme(t *testing.T) {
	d := NewDispatcher(NewRegistry(nil), nil, ModeProduction, quietLogger())
	assert.NotPanics(t, func() {
		_, ok := d.Render(sec("h", "hero", 1, `{"headline":"Hi"}`), content.RelatedData{}, true)
		assert.False(t, ok)
	})
}

// --------------------------------------------------------------------------
// Dispatcher
// --------------------------------------------------------------------------

// capture registers a renderer under "recorder" that records its input.
func capture(t *testing.T, mode Mode) (*Dispatcher, *Input) {
	t.Helper()
	var got Input
	reg := NewEmptyRegistry()
	require.NoError(t, reg.Register("recorder", func() (Renderer, error) {
		return RendererFunc(func(in Input) (template.HTML, error) {
			got = in
			return "<p>recorded</p>", nil
		}), nil
	}))
	return NewDispatcher(reg, nil, mode, quietLogger()), &got
}

func TestDispatcher_MalformedContentResolvesEmpty(t *testing.T) {
	cases := map[string]string{
		"string literal":  `"not valid json"`,
		"raw garbage":     `not valid json`,
		"null":            `null`,
		"array":           `[1,2]`,
		"absent":          ``,
		"encoded garbage": `"{broken"`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			d, got := capture(t, ModeProduction)
			s := sec("s1", "recorder", 1, raw)
			s.Settings = json.RawMessage(raw)

			u, ok := d.Render(s, content.RelatedData{}, false)
			require.True(t, ok)
			assert.Equal(t, template.HTML("<p>recorded</p>"), u.HTML)
			assert.NotNil(t, got.Content)
			assert.Empty(t, got.Content)
			assert.NotNil(t, got.Settings)
			assert.Empty(t, got.Settings)
		})
	}
}

func TestDispatcher_PassesResolvedInput(t *testing.T) {
	d, got := capture(t, ModeProduction)
	related := content.NewRelatedData(map[content.Collection][]content.Record{
		content.CollectionTestimonials: {{"id": "t1", "quote": "Q", "author": "A"}},
	})
	s := sec("s1", "recorder", 4, `"{\"headline\":\"Encoded\"}"`)
	s.Settings = json.RawMessage(`{"theme":"dark"}`)

	u, ok := d.Render(s, related, true)
	require.True(t, ok)
	assert.Equal(t, content.Payload{"headline": "Encoded"}, got.Content)
	assert.Equal(t, content.Payload{"theme": "dark"}, got.Settings)
	assert.True(t, got.Priority)
	assert.Equal(t, 1, got.Related.Len(content.CollectionTestimonials))

	assert.Equal(t, Unit{
		SectionID: "s1",
		Name:      "Section s1",
		Kind:      "recorder",
		Order:     4,
		Priority:  true,
		HTML:      "<p>recorded</p>",
	}, u)
}

func TestDispatcher_UnknownKind(t *testing.T) {
	s := sec("s7", "unregistered_widget", 1, `{}`)

	t.Run("production", func(t *testing.T) {
		d := newTestDispatcher(ModeProduction)
		assert.NotPanics(t, func() {
			_, ok := d.Render(s, content.RelatedData{}, true)
			assert.False(t, ok)
		})
	})

	t.Run("development", func(t *testing.T) {
		d := newTestDispatcher(ModeDevelopment)
		u, ok := d.Render(s, content.RelatedData{}, true)
		require.True(t, ok)
		assert.True(t, u.Placeholder)
		assert.Contains(t, string(u.HTML), "unregistered_widget")
		assert.Contains(t, string(u.HTML), "Section s7")
	})

	t.Run("development without theme", func(t *testing.T) {
		d := NewDispatcher(NewEmptyRegistry(), nil, ModeDevelopment, quietLogger())
		u, ok := d.Render(sec("s8", "<b>odd</b>", 1, ""), content.RelatedData{}, false)
		require.True(t, ok)
		assert.NotContains(t, string(u.HTML), "<b>")
	})
}

func TestDispatcher_RecoversPanics(t *testing.T) {
	reg := NewEmptyRegistry()
	require.NoError(t, reg.Register("explodes", func() (Renderer, error) {
		return RendererFunc(func(in Input) (template.HTML, error) {
			var m map[string]int
			m["boom"]++
			return "", nil
		}), nil
	}))
	d := NewDispatcher(reg, nil, ModeProduction, quietLogger())

	assert.NotPanics(t, func() {
		_, ok := d.Render(sec("s1", "explodes", 1, ""), content.RelatedData{}, false)
		assert.False(t, ok)
	})
}

func TestDispatcher_EmptyOutputRendersNothing(t *testing.T) {
	reg := NewEmptyRegistry()
	require.NoError(t, reg.Register("blank", func() (Renderer, error) {
		return RendererFunc(func(Input) (template.HTML, error) { return "  \n", nil }), nil
	}))
	d := NewDispatcher(reg, nil, ModeDevelopment, quietLogger())

	_, ok := d.Render(sec("s1", "blank", 1, ""), content.RelatedData{}, false)
	assert.False(t, ok)
}

// --------------------------------------------------------------------------
// Built-in renderers
// --------------------------------------------------------------------------

func render(t *testing.T, s content.Section, related content.RelatedData, priority bool) (string, bool) {
	t.Helper()
	u, ok := newTestDispatcher(ModeProduction).Render(s, related, priority)
	return string(u.HTML), ok
}

func TestHero(t *testing.T) {
	html, ok := render(t, sec("h1", "hero", 1,
		`{"headline":"Build better sites","subheadline":"Fast","ctaText":"Start","ctaLink":"/start","backgroundImage":"/bg.jpg"}`),
		content.RelatedData{}, true)
	require.True(t, ok)
	assert.Contains(t, html, "<h1>Build better sites</h1>")
	assert.Contains(t, html, `href="/start"`)
	assert.Contains(t, html, `fetchpriority="high"`)

	html, ok = render(t, sec("h1", "hero", 1, `{"headline":"Later","backgroundImage":"/bg.jpg"}`), content.RelatedData{}, false)
	require.True(t, ok)
	assert.Contains(t, html, `loading="lazy"`)

	_, ok = render(t, sec("h2", "hero", 1, `{}`), content.RelatedData{}, true)
	assert.False(t, ok, "hero without a headline renders nothing")
}

func TestHero_EscapesContent(t *testing.T) {
	html, ok := render(t, sec("h1", "hero", 1, `{"headline":"<script>alert(1)</script>"}`), content.RelatedData{}, true)
	require.True(t, ok)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestServicesGrid(t *testing.T) {
	related := content.NewRelatedData(map[content.Collection][]content.Record{
		content.CollectionServices: {
			{"id": "1", "slug": "design", "title": "Design", "summary": "Pixels", "featured": true},
			{"id": "2", "slug": "build", "title": "Build", "summary": "Code"},
			{"id": "3", "slug": "run", "title": "Run", "summary": "Ops", "featured": true},
		},
	})

	html, ok := render(t, sec("g", "services_grid", 2, `{"title":"What we do","columns":2}`), related, false)
	require.True(t, ok)
	assert.Contains(t, html, "What we do")
	assert.Contains(t, html, "cols-2")
	assert.Equal(t, 3, strings.Count(html, `class="service"`))

	html, ok = render(t, sec("g", "services_grid", 2, `{"featuredOnly":true,"limit":1}`), related, false)
	require.True(t, ok)
	assert.Equal(t, 1, strings.Count(html, `class="service"`))
	assert.Contains(t, html, "Design")
	assert.Contains(t, html, "cols-3", "columns default to 3")
}

func TestServicesGrid_WrongFieldTypeKeepsDefault(t *testing.T) {
	related := content.NewRelatedData(map[content.Collection][]content.Record{
		content.CollectionServices: {{"id": "1", "slug": "design", "title": "Design"}},
	})
	html, ok := render(t, sec("g", "services_grid", 2, `{"title":"Ours","columns":"three"}`), related, false)
	require.True(t, ok)
	assert.Contains(t, html, "<h2>Ours</h2>")
	assert.Contains(t, html, "cols-3", "a mistyped field falls back to its default")
	assert.Equal(t, 1, strings.Count(html, `class="service"`))
}

func TestTemplatesReloadWithTheme(t *testing.T) {
	dir := t.TempDir()
	hero := filepath.Join(dir, "sections", "hero.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(hero), 0o755))
	require.NoError(t, os.WriteFile(hero, []byte(`<h1>v1 {{.Content.Headline}}</h1>`), 0o644))

	th := theme.New(dir)
	d := NewDispatcher(NewRegistry(th), th, ModeProduction, quietLogger())
	s := sec("h", "hero", 1, `{"headline":"Hi"}`)

	u, ok := d.Render(s, content.RelatedData{}, true)
	require.True(t, ok)
	assert.Equal(t, template.HTML("<h1>v1 Hi</h1>"), u.HTML)

	require.NoError(t, os.WriteFile(hero, []byte(`<h1>v2 {{.Content.Headline}}</h1>`), 0o644))
	u, _ = d.Render(s, content.RelatedData{}, true)
	assert.Equal(t, template.HTML("<h1>v1 Hi</h1>"), u.HTML, "templates stay cached until reload")

	th.Reload()
	u, ok = d.Render(s, content.RelatedData{}, true)
	require.True(t, ok)
	assert.Equal(t, template.HTML("<h1>v2 Hi</h1>"), u.HTML)
}

func TestTestimonials_EmptyFallback(t *testing.T) {
	related := content.NewRelatedData(map[content.Collection][]content.Record{
		content.CollectionTestimonials: {},
	})
	html, ok := render(t, sec("t", "testimonials", 3, `{"title":"Clients"}`), related, false)
	require.True(t, ok)
	assert.Contains(t, html, "Kind words from our clients are on their way.")
	assert.NotContains(t, html, "<blockquote>")
}

func TestTestimonials_WithRecords(t *testing.T) {
	related := content.NewRelatedData(map[content.Collection][]content.Record{
		content.CollectionTestimonials: {
			{"id": "t1", "quote": "Superb", "author": "Ann", "company": "Acme"},
		},
	})
	html, ok := render(t, sec("t", "testimonials", 3, ``), related, false)
	require.True(t, ok)
	assert.Contains(t, html, "Superb")
	assert.Contains(t, html, "Ann at Acme")
}

func TestPortfolio_NothingWithoutItems(t *testing.T) {
	_, ok := render(t, sec("p", "portfolio_showcase", 1, `{"title":"Work"}`), content.RelatedData{}, false)
	assert.False(t, ok)

	related := content.NewRelatedData(map[content.Collection][]content.Record{
		content.CollectionPortfolio: {{"id": "w1", "slug": "shop", "title": "Shop", "tags": []any{"ecommerce"}}},
	})
	html, ok := render(t, sec("p", "portfolio_showcase", 1, `{"title":"Work"}`), related, false)
	require.True(t, ok)
	assert.Contains(t, html, `href="/work/shop"`)
	assert.Contains(t, html, "ecommerce")
}

func TestBlogFeed_DefaultLimit(t *testing.T) {
	var posts []content.Record
	for _, id := range []string{"a", "b", "c", "d"} {
		posts = append(posts, content.Record{"id": id, "slug": id, "title": "Post " + id})
	}
	related := content.NewRelatedData(map[content.Collection][]content.Record{content.CollectionBlogPosts: posts})

	html, ok := render(t, sec("b", "blog_feed", 1, ``), related, false)
	require.True(t, ok)
	assert.Contains(t, html, "Latest posts")
	assert.Equal(t, 3, strings.Count(html, `class="post"`))
	assert.NotContains(t, html, "Post d")
}

func TestCTABanner_LinkFromSettings(t *testing.T) {
	related := content.NewRelatedData(map[content.Collection][]content.Record{
		content.CollectionSettings: {{"id": "1", "key": "contact_url", "value": "/hello"}},
	})
	html, ok := render(t, sec("c", "cta_banner", 9, `{"headline":"Ready?"}`), related, false)
	require.True(t, ok)
	assert.Contains(t, html, `href="/hello"`)
	assert.Contains(t, html, "Get in touch")

	html, ok = render(t, sec("c", "cta_banner", 9, `{"headline":"Ready?"}`), content.RelatedData{}, false)
	require.True(t, ok)
	assert.Contains(t, html, `href="/contact"`)
}

func TestRichText(t *testing.T) {
	html, ok := render(t, sec("r", "rich_text", 1,
		`{"markdown":"# Title\n\nSome **bold** text.\n\n<script>alert(1)</script>"}`), content.RelatedData{}, false)
	require.True(t, ok)
	assert.Contains(t, html, "<strong>bold</strong>")
	assert.NotContains(t, html, "<script>")

	html, ok = render(t, sec("r", "rich_text", 1, `{"html":"<p onclick=\"x()\">Hi</p>"}`), content.RelatedData{}, false)
	require.True(t, ok)
	assert.Contains(t, html, "<p>Hi</p>")
	assert.NotContains(t, html, "onclick")

	_, ok = render(t, sec("r", "rich_text", 1, `{"title":"Nothing else"}`), content.RelatedData{}, false)
	assert.False(t, ok)
}

func TestStatsAndFAQ(t *testing.T) {
	html, ok := render(t, sec("s", "stats", 1, `{"items":[{"label":"Clients","value":"120"}]}`), content.RelatedData{}, false)
	require.True(t, ok)
	assert.Contains(t, html, "<dd>120</dd>")

	_, ok = render(t, sec("s", "stats", 1, `{}`), content.RelatedData{}, false)
	assert.False(t, ok)

	html, ok = render(t, sec("f", "faq", 1, `{"items":[{"question":"Why?","answer":"Because."}]}`), content.RelatedData{}, false)
	require.True(t, ok)
	assert.Contains(t, html, "<summary>Why?</summary>")

	_, ok = render(t, sec("f", "faq", 1, `null`), content.RelatedData{}, false)
	assert.False(t, ok)
}

func TestRendering_Idempotent(t *testing.T) {
	d := newTestDispatcher(ModeProduction)
	related := content.NewRelatedData(map[content.Collection][]content.Record{
		content.CollectionServices: {{"id": "1", "title": "Design"}},
	})
	s := sec("g", "services_grid", 1, `{"title":"Services"}`)

	first, ok1 := d.Render(s, related, true)
	second, ok2 := d.Render(s, related, true)
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, first, second)
}
