package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"docsearch/internal/services/search"
)

// Server exposes the documentation search tool to AI assistants over the
// MCP protocol. Transport is streamable HTTP; the bearer-token middleware
// in front of the handler has already verified the caller when a tool
// handler runs.
type Server struct {
	searcher  *search.Service
	logger    *slog.Logger
	mcpServer *server.MCPServer
	httpSrv   *server.StreamableHTTPServer
}

// New creates the MCP server and registers the search_docs tool
func New(logger *slog.Logger, searcher *search.Service) *Server {
	mcpServer := server.NewMCPServer(
		"docsearch",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s := &Server{
		searcher:  searcher,
		logger:    logger,
		mcpServer: mcpServer,
	}
	s.registerTools()
	s.httpSrv = server.NewStreamableHTTPServer(mcpServer)
	return s
}

// Handler returns the streamable HTTP handler to mount behind auth middleware
func (s *Server) Handler() http.Handler {
	return s.httpSrv
}

func (s *Server) registerTools() {
	searchTool := mcp.NewTool("search_docs",
		mcp.WithDescription("Search the documentation index semantically and return the most relevant passages"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Natural-language query to search for"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of passages to return (default 5)"),
		),
	)
	s.mcpServer.AddTool(searchTool, s.handleSearch)
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := request.GetInt("limit", search.DefaultLimit)

	results, err := s.searcher.Search(ctx, query, limit)
	if err != nil {
		s.logger.Error("search tool failed", slog.String("error", err.Error()))
		return mcp.NewToolResultError("search failed: " + err.Error()), nil
	}

	payload, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("failed to encode results: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}
