package section

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/dusk-indust/pagecraft/internal/content"
	"github.com/dusk-indust/pagecraft/internal/theme"
)

// Unit is one rendered section.
type Unit struct {
	SectionID   string        `json:"sectionId"`
	Name        string        `json:"name"`
	Kind        Kind          `json:"kind"`
	Order       int           `json:"order"`
	Priority    bool          `json:"priority"`
	Placeholder bool          `json:"placeholder,omitempty"`
	HTML        template.HTML `json:"html"`
}

// Dispatcher resolves a section's payloads, looks up its renderer and
// invokes it. It never returns an error and never panics.
type Dispatcher struct {
	registry *Registry
	theme    *theme.Theme
	mode     Mode
	logger   *slog.Logger
}

// NewDispatcher creates a Dispatcher. th supplies the development
// placeholder and may be nil.
func NewDispatcher(reg *Registry, th *theme.Theme, mode Mode, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{registry: reg, theme: th, mode: mode, logger: logger}
}

// Mode returns the unknown-kind policy in effect.
func (d *Dispatcher) Mode() Mode { return d.mode }

// Registry returns the registry renderers are looked up in.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Render renders sec. ok is false when the section contributes nothing.
func (d *Dispatcher) Render(sec content.Section, related content.RelatedData, priority bool) (u Unit, ok bool) {
	log := d.logger.With("section", sec.ID, "name", sec.Name, "type", sec.Type)

	unit := Unit{
		SectionID: sec.ID,
		Name:      sec.Name,
		Kind:      Kind(sec.Type),
		Order:     sec.Order,
		Priority:  priority,
	}

	var r Renderer
	if k, err := ParseKind(sec.Type); err == nil {
		r, ok = d.registry.Lookup(k)
	}
	if !ok {
		if d.mode != ModeDevelopment {
			log.Warn("skipping section with unknown type")
			return Unit{}, false
		}
		log.Warn("rendering placeholder for unknown section type")
		unit.Placeholder = true
		unit.HTML = d.renderPlaceholder(sec)
		return unit, true
	}

	in := Input{
		Section:  sec,
		Content:  d.resolve(log, "content", sec.Content),
		Settings: d.resolve(log, "settings", sec.Settings),
		Related:  related,
		Priority: priority,
	}

	html, err := invoke(r, in)
	if err != nil {
		log.Error("section renderer failed", "error", err)
		return Unit{}, false
	}
	if strings.TrimSpace(string(html)) == "" {
		log.Debug("section rendered no output")
		return Unit{}, false
	}
	unit.HTML = html
	return unit, true
}

func (d *Dispatcher) resolve(log *slog.Logger, field string, raw []byte) content.Payload {
	p, err := content.DecodePayload(raw)
	if err != nil {
		log.Warn("section payload unreadable, using empty", "field", field, "error", err)
	}
	return p
}

// invoke calls r, turning a panic into an error.
func invoke(r Renderer, in Input) (html template.HTML, err error) {
	defer func() {
		if p := recover(); p != nil {
			html, err = "", fmt.Errorf("section: renderer panicked: %v", p)
		}
	}()
	return r.Render(in)
}

func (d *Dispatcher) renderPlaceholder(sec content.Section) template.HTML {
	view := theme.PlaceholderView{SectionID: sec.ID, Name: sec.Name, Type: sec.Type}
	if d.theme != nil {
		t, err := d.theme.Placeholder()
		if err != nil {
			d.logger.Error("load placeholder template", "error", err)
		} else {
			var buf bytes.Buffer
			if err := t.Execute(&buf, view); err == nil {
				return template.HTML(buf.String())
			}
		}
	}
	return template.HTML(fmt.Sprintf(`<div class="section-placeholder">Unknown section type %q in section %q</div>`,
		template.HTMLEscapeString(sec.Type), template.HTMLEscapeString(sec.Name)))
}
