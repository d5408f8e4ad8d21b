// Package mcptools exposes page previews to authoring assistants over MCP.
package mcptools

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewPreviewMCPServer creates an MCP server with the preview tools
// registered: resolve_page, render_sections and list_section_kinds.
func NewPreviewMCPServer(svc *PreviewService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "pagecraft-preview",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_page",
		Description: "Resolve a page by slug, including drafts. Returns the page, its visible sections in display order with decoded content, and the size of each related collection.",
	}, svc.ResolvePage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "render_sections",
		Description: "Render a page's sections to HTML. Development mode (the default) includes placeholders for unknown section types.",
	}, svc.RenderSections)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_section_kinds",
		Description: "List the registered section types and whether each renderer has been loaded.",
	}, svc.ListSectionKinds)

	return server
}

// RunStdio runs the server on stdio, blocking until stdin is closed or ctx
// is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the MCP server over streamable HTTP at addr until ctx is
// cancelled.
func RunHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
