package section

import (
	"errors"
	"fmt"
	"html/template"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dusk-indust/pagecraft/internal/content"
)

// Input is everything a renderer receives for one section.
type Input struct {
	Section  content.Section
	Content  content.Payload
	Settings content.Payload
	Related  content.RelatedData
	Priority bool
}

// Renderer turns one section into HTML. An empty result means the section
// has nothing to show.
type Renderer interface {
	Render(in Input) (template.HTML, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(in Input) (template.HTML, error)

// Render calls f.
func (f RendererFunc) Render(in Input) (template.HTML, error) { return f(in) }

// Factory builds a Renderer. It runs at most once per registration.
type Factory func() (Renderer, error)

type binding struct {
	factory Factory
	once    sync.Once
	done    atomic.Bool
	r       Renderer
}

func (b *binding) materialize() Renderer {
	b.once.Do(func() {
		b.r = buildRenderer(b.factory)
		b.done.Store(true)
	})
	return b.r
}

// buildRenderer runs f, turning an error, a panic or a nil renderer into a
// failedRenderer.
func buildRenderer(f Factory) (r Renderer) {
	defer func() {
		if p := recover(); p != nil {
			r = failedRenderer{err: fmt.Errorf("section: renderer factory panicked: %v", p)}
		}
	}()
	r, err := f()
	if err != nil {
		return failedRenderer{err: err}
	}
	if r == nil {
		return failedRenderer{err: errors.New("section: factory returned no renderer")}
	}
	return r
}

// failedRenderer stands in for a renderer whose factory failed.
type failedRenderer struct{ err error }

func (f failedRenderer) Render(Input) (template.HTML, error) {
	return "", f.err
}

// Registry maps kinds to renderer factories. Renderers are materialized on
// first lookup.
type Registry struct {
	mu       sync.RWMutex
	bindings map[Kind]*binding
}

// NewEmptyRegistry returns a registry with no kinds.
func NewEmptyRegistry() *Registry {
	return &Registry{bindings: make(map[Kind]*binding)}
}

// Register binds k to f, replacing any previous binding.
func (r *Registry) Register(k Kind, f Factory) error {
	if _, err := ParseKind(string(k)); err != nil {
		return err
	}
	if f == nil {
		return fmt.Errorf("section: nil factory for %q", k)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bindings[k] = &binding{factory: f}
	return nil
}

// Lookup returns the renderer for k, materializing it if needed.
func (r *Registry) Lookup(k Kind) (Renderer, bool) {
	r.mu.RLock()
	b, ok := r.bindings[k]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return b.materialize(), true
}

// Has reports whether k is registered without materializing its renderer.
func (r *Registry) Has(k Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bindings[k]
	return ok
}

// Materialized reports whether the renderer for k has been built.
func (r *Registry) Materialized(k Kind) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[k]
	return ok && b.done.Load()
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Kind, 0, len(r.bindings))
	for k := range r.bindings {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
