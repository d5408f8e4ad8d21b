package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/dusk-indust/pagecraft/internal/contentapi"
	"github.com/dusk-indust/pagecraft/internal/mcptools"
	"github.com/dusk-indust/pagecraft/internal/site"
	"github.com/dusk-indust/pagecraft/internal/theme"
)

// runServe serves rendered pages on cfg.Addr until ctx is cancelled.
func (a *app) runServe(ctx context.Context) error {
	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	th := theme.New(a.cfg.TemplateDir)
	if a.cfg.Development() && a.cfg.TemplateDir != "" {
		go func() {
			if err := th.Watch(ctx, a.logger); err != nil {
				a.logger.Warn("template reload disabled", "err", err)
			}
		}()
	}
	h := site.New(a.newEngine(st, th), th, site.Options{
		Dev:         a.cfg.Development(),
		CacheMaxAge: a.cfg.CacheMaxAge,
		Logger:      a.logger,
	})

	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	a.logger.Info("serving pages", "addr", a.cfg.Addr, "mode", a.mode(), "backend", a.cfg.Store.Backend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// runServeContent exposes a local store on the content API so a site
// process can read it through the http backend.
func (a *app) runServeContent(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve-content", flag.ContinueOnError)
	addr := fs.String("addr", ":8081", "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	a.logger.Info("serving content api", "addr", *addr, "backend", a.cfg.Store.Backend)
	return contentapi.NewServer(st, a.logger).ListenAndServe(ctx, *addr)
}

// runServeMCP runs the preview tools on stdio, or on streamable HTTP when
// -http is given.
func (a *app) runServeMCP(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve-mcp", flag.ContinueOnError)
	httpAddr := fs.String("http", "", "serve MCP over streamable HTTP at this address instead of stdio")
	if err := fs.Parse(args); err != nil {
		return err
	}

	st, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	svc := mcptools.NewPreviewService(st, theme.New(a.cfg.TemplateDir), a.plan(), a.logger)
	server := mcptools.NewPreviewMCPServer(svc)

	if *httpAddr != "" {
		a.logger.Info("serving mcp", "addr", *httpAddr)
		return mcptools.RunHTTP(ctx, server, *httpAddr)
	}
	if err := mcptools.RunStdio(ctx, server); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}
