package main

import (
	"context"
	"fmt"

	"github.com/dusk-indust/pagecraft/internal/config"
	"github.com/dusk-indust/pagecraft/internal/store"
)

// runSeed loads a seed file into the configured local store.
func (a *app) runSeed(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: sitectl seed <file>")
	}
	if a.cfg.Store.Backend == config.BackendHTTP || a.cfg.Store.Backend == config.BackendMemory {
		return fmt.Errorf("seed needs a persistent local backend, have %q", a.cfg.Store.Backend)
	}

	seed, err := store.LoadSeed(args[0])
	if err != nil {
		return err
	}

	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	w, ok := st.(store.Writer)
	if !ok {
		return fmt.Errorf("backend %q is read-only", a.cfg.Store.Backend)
	}
	if err := seed.Apply(ctx, w); err != nil {
		return err
	}

	a.logger.Info("seeded store",
		"backend", a.cfg.Store.Backend,
		"pages", len(seed.Pages),
		"sections", len(seed.Sections),
		"collections", len(seed.Collections),
	)
	return nil
}
