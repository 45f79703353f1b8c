package api

import (
	"github.com/hazyhaar/product-name-normalizer/pkg/kit"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ServerName is the MCP implementation name announced to clients.
const ServerName = "product-name-normalizer"

// NewMCPServer returns an MCP server exposing the normalizer tools.
func NewMCPServer(eps Endpoints, version string) *server.MCPServer {
	srv := server.NewMCPServer(ServerName, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	RegisterMCPTools(srv, eps)
	return srv
}

// RegisterMCPTools registers fix_terms, add_term and list_terms on the server.
func RegisterMCPTools(srv *server.MCPServer, eps Endpoints) {
	registerFixTerms(srv, eps)
	registerAddTerm(srv, eps)
	registerListTerms(srv, eps)
}

func registerFixTerms(srv *server.MCPServer, eps Endpoints) {
	tool := mcp.NewTool("fix_terms",
		mcp.WithDescription("Fix misspelled product and tool names in text. Returns the corrected text; markup tags are left untouched."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to correct")),
	)

	kit.RegisterMCPTool(srv, tool, eps.FixTerms, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &FixTermsRequest{Text: text}}, nil
	})
}

func registerAddTerm(srv *server.MCPServer, eps Endpoints) {
	tool := mcp.NewTool("add_term",
		mcp.WithDescription("Add a canonical product name and its known misspellings to the dictionary."),
		mcp.WithString("correct", mcp.Required(), mcp.Description("Canonical spelling, e.g. \"Claude Code\"")),
		mcp.WithArray("wrong_variants", mcp.Required(), mcp.Description("Misspellings to rewrite to the canonical form"), mcp.WithStringItems()),
	)

	kit.RegisterMCPTool(srv, tool, eps.AddTerm, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		correct, err := req.RequireString("correct")
		if err != nil {
			return nil, err
		}
		variants, err := req.RequireStringSlice("wrong_variants")
		if err != nil {
			return nil, err
		}
		return &kit.MCPDecodeResult{Request: &AddTermRequest{Correct: correct, Variants: variants}}, nil
	})
}

func registerListTerms(srv *server.MCPServer, eps Endpoints) {
	tool := mcp.NewTool("list_terms",
		mcp.WithDescription("List every canonical name in the dictionary with its known misspellings."),
	)

	kit.RegisterMCPTool(srv, tool, eps.ListTerms, func(_ mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: nil}, nil
	})
}
