package theme

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSection_EmbeddedKinds(t *testing.T) {
	th := New("")
	kinds := []string{
		"hero", "services_grid", "portfolio_showcase", "blog_feed",
		"testimonials", "cta_banner", "rich_text", "stats", "faq",
	}
	for _, k := range kinds {
		t.Run(k, func(t *testing.T) {
			assert.True(t, th.HasSection(k))
			tmpl, err := th.Section(k)
			require.NoError(t, err)
			assert.NotNil(t, tmpl)
		})
	}
	assert.Equal(t, int64(len(kinds)), th.Parses())
}

func TestSection_Missing(t *testing.T) {
	th := New("")
	assert.False(t, th.HasSection("carousel"))
	_, err := th.Section("carousel")
	assert.Error(t, err)
	assert.Zero(t, th.Parses())
}

func TestSection_Override(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sections"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sections", "hero.html"),
		[]byte(`<div class="custom">{{.}}</div>`), 0o644))

	th := New(dir)
	tmpl, err := th.Section("hero")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tmpl.Execute(&buf, "hi"))
	assert.Equal(t, `<div class="custom">hi</div>`, buf.String())

	// Kinds without an override still come from the embedded set.
	_, err = th.Section("faq")
	require.NoError(t, err)
}

func TestRenderPage(t *testing.T) {
	th := New("")

	var buf bytes.Buffer
	require.NoError(t, th.RenderPage(&buf, PageView{
		Title:     "Home",
		MetaTitle: "Acme | Home",
		Body:      `<section class="hero">x</section>`,
	}))
	out := buf.String()
	assert.Contains(t, out, "<title>Acme | Home</title>")
	assert.Contains(t, out, `<section class="hero">x</section>`)
	assert.NotContains(t, out, "Content coming soon")

	buf.Reset()
	require.NoError(t, th.RenderPage(&buf, PageView{Title: "About", Empty: true, Dev: true}))
	assert.Contains(t, buf.String(), "Content coming soon")
	assert.Contains(t, buf.String(), "development mode")
	assert.Equal(t, int64(1), th.Parses(), "layout is parsed once")
}

func TestPlaceholder(t *testing.T) {
	tmpl, err := New("").Placeholder()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tmpl.Execute(&buf, PlaceholderView{SectionID: "s9", Name: "Promo", Type: "unregistered_widget"}))
	assert.Contains(t, buf.String(), "unregistered_widget")
	assert.Contains(t, buf.String(), "Promo")
}

func TestReload(t *testing.T) {
	dir := t.TempDir()
	layout := filepath.Join(dir, "layout.html")
	require.NoError(t, os.WriteFile(layout, []byte(`v1 {{.Title}}`), 0o644))

	th := New(dir)
	var buf bytes.Buffer
	require.NoError(t, th.RenderPage(&buf, PageView{Title: "Home"}))
	assert.Equal(t, "v1 Home", buf.String())

	require.NoError(t, os.WriteFile(layout, []byte(`v2 {{.Title}}`), 0o644))
	buf.Reset()
	require.NoError(t, th.RenderPage(&buf, PageView{Title: "Home"}))
	assert.Equal(t, "v1 Home", buf.String(), "layout stays cached")

	th.Reload()
	buf.Reset()
	require.NoError(t, th.RenderPage(&buf, PageView{Title: "Home"}))
	assert.Equal(t, "v2 Home", buf.String())
}

func TestWatch_ReloadsLayout(t *testing.T) {
	dir := t.TempDir()
	layout := filepath.Join(dir, "layout.html")
	require.NoError(t, os.WriteFile(layout, []byte(`old {{.Title}}`), 0o644))

	th := New(dir)
	render := func() string {
		var buf bytes.Buffer
		require.NoError(t, th.RenderPage(&buf, PageView{Title: "Home"}))
		return buf.String()
	}
	assert.Equal(t, "old Home", render())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- th.Watch(ctx, nil) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// The watcher registers asynchronously; keep rewriting until it sees one.
	assert.Eventually(t, func() bool {
		if err := os.WriteFile(layout, []byte(`new {{.Title}}`), 0o644); err != nil {
			return false
		}
		return render() == "new Home"
	}, 5*time.Second, 50*time.Millisecond)
}

func TestWatch_NoOverrideDir(t *testing.T) {
	assert.NoError(t, New("").Watch(context.Background(), nil))
}

func TestReload_SectionTemplates(t *testing.T) {
	dir := t.TempDir()
	hero := filepath.Join(dir, "sections", "hero.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(hero), 0o755))
	require.NoError(t, os.WriteFile(hero, []byte(`v1 {{.}}`), 0o644))

	th := New(dir)
	assert.Equal(t, "v1 x", executeSection(th, "hero"))

	require.NoError(t, os.WriteFile(hero, []byte(`v2 {{.}}`), 0o644))
	assert.Equal(t, "v1 x", executeSection(th, "hero"), "sections stay cached")
	assert.Equal(t, int64(1), th.Parses())

	th.Reload()
	assert.Equal(t, "v2 x", executeSection(th, "hero"))
}

func TestWatch_SectionsDirectoryCreatedLater(t *testing.T) {
	dir := t.TempDir()
	th := New(dir)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- th.Watch(ctx, nil) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	hero := filepath.Join(dir, "sections", "hero.html")
	assert.Eventually(t, func() bool {
		if err := os.MkdirAll(filepath.Dir(hero), 0o755); err != nil {
			return false
		}
		if err := os.WriteFile(hero, []byte(`custom {{.}}`), 0o644); err != nil {
			return false
		}
		return executeSection(th, "hero") == "custom x"
	}, 5*time.Second, 50*time.Millisecond)
}

// executeSection renders kind's template with "x", or returns "" when the
// template cannot take a string.
func executeSection(th *Theme, kind string) string {
	tmpl, err := th.Section(kind)
	if err != nil {
		return ""
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, "x"); err != nil {
		return ""
	}
	return buf.String()
}
