package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/dusk-indust/pagecraft/internal/engine"
	"github.com/dusk-indust/pagecraft/internal/export"
	"github.com/dusk-indust/pagecraft/internal/section"
	"github.com/dusk-indust/pagecraft/internal/theme"
)

// compose resolves and renders slug against the configured store.
func (a *app) compose(ctx context.Context, slug string) (*engine.Composition, []section.Unit, error) {
	st, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer st.Close()

	comp, units := a.newEngine(st, theme.New(a.cfg.TemplateDir)).Render(ctx, slug)
	if comp == nil {
		return nil, nil, fmt.Errorf("page %q not found", slug)
	}
	return comp, units, nil
}

func (a *app) runRender(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "print a JSON outline instead of HTML")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: sitectl render [-json] <slug>")
	}

	comp, units, err := a.compose(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	if *asJSON {
		out, err := export.Marshal(export.ExportPage(comp, units))
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	}

	for _, u := range units {
		if _, err := fmt.Fprintf(os.Stdout, "%s\n", u.HTML); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) runDiagram(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: sitectl diagram <slug>")
	}
	comp, _, err := a.compose(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Print(export.GenerateMermaid(comp))
	return nil
}

func (a *app) runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	out := fs.String("o", "", "output file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || *out == "" {
		return fmt.Errorf("usage: sitectl export -o <file> <slug>")
	}

	comp, units, err := a.compose(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	if err := export.WriteFile(*out, export.ExportPage(comp, units)); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	a.logger.Info("exported page", "slug", comp.Page.Slug, "file", *out)
	return nil
}
