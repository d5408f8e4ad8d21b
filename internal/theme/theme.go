// Package theme holds the HTML templates for section kinds, the development
// placeholder and the page layout. Templates are embedded and may be
// overridden file by file from a directory on disk.
package theme

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"sync"
	"sync/atomic"
)

//go:embed templates
var embedded embed.FS

// PageView is the data passed to the layout template.
type PageView struct {
	Title           string
	PageType        string
	MetaTitle       string
	MetaDescription string
	OGImage         string
	Body            template.HTML
	// Empty selects the "content coming soon" presentation.
	Empty bool
	Dev   bool
}

// PlaceholderView is the data passed to the placeholder template.
type PlaceholderView struct {
	SectionID string
	Name      string
	Type      string
}

// Theme loads templates on demand and keeps them until Reload.
type Theme struct {
	base     fs.FS
	override fs.FS
	funcs    template.FuncMap
	dir      string
	parses   atomic.Int64

	mu    sync.Mutex
	cache map[string]*template.Template
}

// New returns a Theme backed by the embedded templates. When overrideDir is
// non-empty, files found there take precedence over the embedded ones.
func New(overrideDir string) *Theme {
	base, _ := fs.Sub(embedded, "templates")
	t := &Theme{base: base, funcs: funcMap(), cache: make(map[string]*template.Template)}
	if overrideDir != "" {
		t.override = os.DirFS(overrideDir)
		t.dir = overrideDir
	}
	return t
}

// Section returns the template for a section kind, parsing it on first use.
func (t *Theme) Section(kind string) (*template.Template, error) {
	return t.lookup(path.Join("sections", kind+".html"))
}

// HasSection reports whether a template exists for kind.
func (t *Theme) HasSection(kind string) bool {
	_, err := t.read(path.Join("sections", kind+".html"))
	return err == nil
}

// Placeholder parses the development-mode placeholder template.
func (t *Theme) Placeholder() (*template.Template, error) {
	return t.lookup("placeholder.html")
}

// Parses returns how many templates have been parsed so far.
func (t *Theme) Parses() int64 {
	return t.parses.Load()
}

// RenderPage executes the layout for v.
func (t *Theme) RenderPage(w io.Writer, v PageView) error {
	layout, err := t.lookup("layout.html")
	if err != nil {
		return err
	}
	if err := layout.Execute(w, v); err != nil {
		return fmt.Errorf("theme: render layout: %w", err)
	}
	return nil
}

// Reload drops every parsed template so the next lookup reads it again.
func (t *Theme) Reload() {
	t.mu.Lock()
	clear(t.cache)
	t.mu.Unlock()
}

// lookup returns the cached template for name. Parse failures are not
// cached.
func (t *Theme) lookup(name string) (*template.Template, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if tmpl, ok := t.cache[name]; ok {
		return tmpl, nil
	}
	tmpl, err := t.parse(name)
	if err != nil {
		return nil, err
	}
	t.cache[name] = tmpl
	return tmpl, nil
}

func (t *Theme) parse(name string) (*template.Template, error) {
	src, err := t.read(name)
	if err != nil {
		return nil, err
	}
	t.parses.Add(1)
	tmpl, err := template.New(path.Base(name)).Funcs(t.funcs).Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("theme: parse %s: %w", name, err)
	}
	return tmpl, nil
}

func (t *Theme) read(name string) ([]byte, error) {
	if t.override != nil {
		data, err := fs.ReadFile(t.override, name)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("theme: read override %s: %w", name, err)
		}
	}
	data, err := fs.ReadFile(t.base, name)
	if err != nil {
		return nil, fmt.Errorf("theme: read %s: %w", name, err)
	}
	return data, nil
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"truncate": func(n int, s string) string {
			r := []rune(s)
			if len(r) <= n {
				return s
			}
			return strings.TrimSpace(string(r[:n])) + "…"
		},
	}
}
