package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/dusk-indust/pagecraft/internal/config"
	"github.com/dusk-indust/pagecraft/internal/contentapi"
	"github.com/dusk-indust/pagecraft/internal/engine"
	"github.com/dusk-indust/pagecraft/internal/section"
	"github.com/dusk-indust/pagecraft/internal/store"
	"github.com/dusk-indust/pagecraft/internal/theme"
)

// app carries the loaded configuration shared by every command.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newApp(configDir string) (*app, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}
	lvl, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	return &app{cfg: cfg, logger: logger}, nil
}

// openStore opens the configured content store. A memory store is filled
// from store.seedFile when one is set.
func (a *app) openStore(ctx context.Context) (store.Store, error) {
	sc := a.cfg.Store
	switch sc.Backend {
	case config.BackendHTTP:
		return contentapi.NewHTTPStore(sc.URL, contentapi.WithTimeout(sc.Timeout)), nil
	case config.BackendSQLite:
		return store.NewSQLiteStore(sc.SQLitePath)
	case config.BackendKuzu:
		return openKuzu(sc.KuzuPath)
	case config.BackendMemory:
		mem := store.NewMemStore()
		if sc.SeedFile == "" {
			return mem, nil
		}
		seed, err := store.LoadSeed(sc.SeedFile)
		if err != nil {
			return nil, err
		}
		if err := seed.Apply(ctx, mem); err != nil {
			return nil, err
		}
		return mem, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", sc.Backend)
}

func (a *app) plan() engine.Plan {
	return engine.Plan{
		Default: a.cfg.Collections.Default,
		Pages:   a.cfg.Collections.Pages,
	}
}

func (a *app) mode() section.Mode {
	if a.cfg.Development() {
		return section.ModeDevelopment
	}
	return section.ModeProduction
}

// newEngine builds the composition engine over st.
func (a *app) newEngine(st store.Store, th *theme.Theme) *engine.Engine {
	d := section.NewDispatcher(section.NewRegistry(th), th, a.mode(), a.logger)
	return engine.New(st, d,
		engine.WithPlan(a.plan()),
		engine.WithDrafts(a.cfg.PreviewDrafts),
		engine.WithLogger(a.logger),
	)
}
