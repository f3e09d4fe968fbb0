// Package mcpserver exposes an assembled vault to LLM clients over the
// Model Context Protocol, stdio transport only.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/othala/internal/export"
	"github.com/starford/othala/internal/index"
	"github.com/starford/othala/internal/models"
	"github.com/starford/othala/internal/vault"
)

// StateURI names the resource carrying the JSON export of the vault.
const StateURI = "othala://state"

// ReloadFunc re-runs the assembly pipeline and returns a fresh state.
type ReloadFunc func(context.Context) (*vault.State, error)

// Server wraps the MCP server with vault query tools. The state is
// replaced wholesale by reload_vault; individual tools only read it.
type Server struct {
	mcp    *server.MCPServer
	db     *index.DB
	reload ReloadFunc

	mu    sync.RWMutex
	state *vault.State
}

// New creates an MCP server over the given state. The index must
// already hold the state's objects; reload may be nil to disable the
// reload_vault tool.
func New(state *vault.State, db *index.DB, reload ReloadFunc) *Server {
	s := &Server{state: state, db: db, reload: reload}

	s.mcp = server.NewMCPServer(
		"Othala",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("vault_overview",
		mcp.WithDescription("Object, issue, and per-source counts for the assembled vault."),
	), s.vaultOverview)

	s.mcp.AddTool(mcp.NewTool("list_objects",
		mcp.WithDescription("List vault objects, optionally filtered by project, type, or visibility."),
		mcp.WithString("project", mcp.Description("Project name to filter by")),
		mcp.WithString("type", mcp.Description("Object type to filter by")),
		mcp.WithString("visibility", mcp.Description("Visibility value to filter by")),
	), s.listObjects)

	s.mcp.AddTool(mcp.NewTool("read_object",
		mcp.WithDescription("Read one vault object: frontmatter and Markdown body."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Object id (relative path without extension)")),
		mcp.WithString("source", mcp.Description("Source id, required only when the id exists in several sources")),
	), s.readObject)

	s.mcp.AddTool(mcp.NewTool("search_vault",
		mcp.WithDescription("Full-text search over object titles and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchVault)

	s.mcp.AddTool(mcp.NewTool("vault_issues",
		mcp.WithDescription("Diagnostics collected during assembly, optionally filtered by severity."),
		mcp.WithString("severity", mcp.Description("error, warn, or info")),
	), s.vaultIssues)

	if reload != nil {
		s.mcp.AddTool(mcp.NewTool("reload_vault",
			mcp.WithDescription("Re-run the assembly pipeline against the current on-disk state."),
		), s.reloadVault)
	}

	s.mcp.AddResource(
		mcp.NewResource(StateURI, "Vault State",
			mcp.WithResourceDescription("JSON export of the assembled vault: objects, issues, summaries."),
			mcp.WithMIMEType("application/json"),
		),
		s.readStateResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) current() *vault.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Server) vaultOverview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.current().Overview(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

// objectRef is the compact listing shape returned by list_objects.
type objectRef struct {
	SourceID   string `json:"source_id"`
	ID         string `json:"id"`
	Title      string `json:"title,omitempty"`
	Type       string `json:"type"`
	Project    string `json:"project"`
	Visibility string `json:"visibility,omitempty"`
}

func (s *Server) listObjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var q vault.Query
	if v, err := req.RequireString("project"); err == nil {
		q.Project = v
	}
	if v, err := req.RequireString("type"); err == nil {
		q.Type = v
	}
	if v, err := req.RequireString("visibility"); err == nil {
		q.Visibility = v
	}

	objects := s.current().Filter(q)
	refs := make([]objectRef, 0, len(objects))
	for _, obj := range objects {
		refs = append(refs, objectRef{
			SourceID:   obj.SourceID,
			ID:         obj.ID,
			Title:      obj.Title,
			Type:       obj.Type,
			Project:    obj.Project,
			Visibility: obj.Visibility,
		})
	}
	out, _ := json.MarshalIndent(refs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readObject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	state := s.current()
	var obj *models.Object
	var ok bool
	if src, srcErr := req.RequireString("source"); srcErr == nil && src != "" {
		obj, ok = state.Lookup(src, id)
	} else {
		obj, ok = state.ByID(id)
	}
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}

	out, _ := json.MarshalIndent(obj, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchVault(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	hits, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(hits, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) vaultIssues(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sev models.Severity
	if v, err := req.RequireString("severity"); err == nil {
		sev = models.Severity(v)
	}

	var lines []string
	for _, iss := range s.current().Issues {
		if sev != "" && iss.Severity != sev {
			continue
		}
		lines = append(lines, iss.String())
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("no issues"), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) reloadVault(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := s.reload(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reload failed: %v", err)), nil
	}
	if err := s.db.Rebuild(state.Objects); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reindex failed: %v", err)), nil
	}

	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	out, _ := json.MarshalIndent(state.Overview(), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readStateResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	var buf strings.Builder
	if err := export.WriteJSON(&buf, s.current()); err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      StateURI,
			MIMEType: "application/json",
			Text:     buf.String(),
		},
	}, nil
}
