package mcptools

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sort"
	"testing"

	"github.com/dusk-indust/pagecraft/internal/content"
	"github.com/dusk-indust/pagecraft/internal/engine"
	"github.com/dusk-indust/pagecraft/internal/store"
	"github.com/dusk-indust/pagecraft/internal/theme"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupServerClient wires the preview server and a client together over
// in-memory transports.
func setupServerClient(t *testing.T) *mcp.ClientSession {
	t.Helper()

	seed := &store.Seed{
		Pages: []content.Page{
			{ID: "p1", Slug: "launch", Title: "Launch", Status: content.StatusDraft},
		},
		Sections: []content.Section{
			{ID: "s1", PageID: "p1", Name: "Hero", Type: "hero", Order: 1, Content: json.RawMessage(`"{\"headline\":\"Coming soon\"}"`)},
			{ID: "s2", PageID: "p1", Name: "Widget", Type: "countdown_timer", Order: 2},
			{ID: "s3", PageID: "p1", Name: "Quotes", Type: "testimonials", Order: 3},
		},
		Collections: content.RecordSets{
			content.CollectionTestimonials: {{"id": "t1", "quote": "Wow", "author": "Bo"}},
		},
	}
	mem := store.NewMemStore()
	require.NoError(t, seed.Apply(context.Background(), mem))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewPreviewService(mem, theme.New(""), engine.Plan{}, logger)
	server := NewPreviewMCPServer(svc)

	st, ct := mcp.NewInMemoryTransports()
	ctx := context.Background()

	_, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		session.Close()
	})
	return session
}

// callTool calls a tool and decodes its structured output into out.
func callTool(t *testing.T, session *mcp.ClientSession, name string, args any, out any) {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	require.False(t, result.IsError, "%s should not return an error", name)
	require.NotNil(t, result.StructuredContent, "expected structured content from %s", name)

	raw, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func TestMCPListTools(t *testing.T) {
	session := setupServerClient(t)

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}
	sort.Strings(names)
	assert.Equal(t, []string{"list_section_kinds", "render_sections", "resolve_page"}, names)
}

func TestMCPResolvePage(t *testing.T) {
	session := setupServerClient(t)

	var out ResolvePageOutput
	callTool(t, session, "resolve_page", ResolvePageInput{Slug: "launch"}, &out)

	require.True(t, out.Found, "drafts resolve in preview")
	require.NotNil(t, out.Page)
	assert.Equal(t, "draft", out.Page.Status)
	require.Len(t, out.Sections, 3)
	assert.Equal(t, "Coming soon", out.Sections[0].Content["headline"])
	assert.True(t, out.Sections[0].Known)
	assert.False(t, out.Sections[1].Known)
	assert.Equal(t, 1, out.Collections["testimonials"])
	assert.Equal(t, 0, out.Collections["services"])
}

func TestMCPResolvePage_NotFound(t *testing.T) {
	session := setupServerClient(t)

	var out ResolvePageOutput
	callTool(t, session, "resolve_page", ResolvePageInput{Slug: "nope"}, &out)
	assert.False(t, out.Found)
	assert.Nil(t, out.Page)
	assert.Empty(t, out.Sections)
}

func TestMCPRenderSections(t *testing.T) {
	session := setupServerClient(t)

	var dev RenderSectionsOutput
	callTool(t, session, "render_sections", RenderSectionsInput{Slug: "launch"}, &dev)
	require.True(t, dev.Found)
	assert.Equal(t, "development", dev.Mode)
	require.Len(t, dev.Units, 3)
	assert.True(t, dev.Units[0].Priority)
	assert.True(t, dev.Units[1].Placeholder)
	assert.Contains(t, dev.Units[1].HTML, "countdown_timer")
	assert.Contains(t, dev.Units[2].HTML, "Wow")

	var prod RenderSectionsOutput
	callTool(t, session, "render_sections", RenderSectionsInput{Slug: "launch", Mode: "production"}, &prod)
	require.Len(t, prod.Units, 2)
	assert.Equal(t, "s1", prod.Units[0].SectionID)
	assert.Equal(t, "s3", prod.Units[1].SectionID)
}

func TestMCPRenderSections_BadMode(t *testing.T) {
	session := setupServerClient(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "render_sections",
		Arguments: RenderSectionsInput{Slug: "launch", Mode: "staging"},
	})
	if err != nil {
		return
	}
	assert.True(t, result.IsError)
}

func TestMCPListSectionKinds(t *testing.T) {
	session := setupServerClient(t)

	var before ListSectionKindsOutput
	callTool(t, session, "list_section_kinds", ListSectionKindsInput{}, &before)
	require.Len(t, before.Kinds, 9)
	for _, k := range before.Kinds {
		assert.False(t, k.Materialized, k.Kind)
	}

	var rendered RenderSectionsOutput
	callTool(t, session, "render_sections", RenderSectionsInput{Slug: "launch"}, &rendered)

	var after ListSectionKindsOutput
	callTool(t, session, "list_section_kinds", ListSectionKindsInput{}, &after)
	materialized := map[string]bool{}
	for _, k := range after.Kinds {
		materialized[k.Kind] = k.Materialized
	}
	assert.True(t, materialized["hero"])
	assert.True(t, materialized["testimonials"])
	assert.False(t, materialized["faq"])
}

func TestMCPCallUnknownTool(t *testing.T) {
	session := setupServerClient(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "nonexistent_tool",
		Arguments: map[string]any{},
	})
	if err != nil {
		return
	}
	require.NotNil(t, result)
	assert.True(t, result.IsError, "calling an unknown tool should set IsError")
}
