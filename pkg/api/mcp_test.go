package api

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

func newTestMCPClient(t *testing.T) *client.Client {
	t.Helper()
	eps, _ := newTestEndpoints(t, &memHistory{})
	srv := NewMCPServer(eps, "test")

	c, err := client.NewInProcessClient(srv)
	if err != nil {
		t.Fatalf("NewInProcessClient: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "api-test", Version: "0.0.0"}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return c
}

func callTool(t *testing.T, c *client.Client, name string, args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := c.CallTool(context.Background(), req)
	if err != nil {
		t.Fatalf("CallTool %s: %v", name, err)
	}
	if len(res.Content) == 0 {
		t.Fatalf("CallTool %s: empty content", name)
	}
	text, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("CallTool %s: content is %T, want text", name, res.Content[0])
	}
	return text.Text, res.IsError
}

func TestMCPListTools(t *testing.T) {
	c := newTestMCPClient(t)

	res, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	names := map[string]bool{}
	for _, tool := range res.Tools {
		names[tool.Name] = true
	}
	for _, want := range []string{"fix_terms", "add_term", "list_terms"} {
		if !names[want] {
			t.Errorf("tool %q not registered", want)
		}
	}
}

func TestMCPFixTerms(t *testing.T) {
	c := newTestMCPClient(t)

	got, isErr := callTool(t, c, "fix_terms", map[string]any{"text": "Cloudcode vs Wisprflow and Antygravity"})
	if isErr {
		t.Fatalf("fix_terms returned error: %s", got)
	}
	if want := "Claude Code vs Wispr Flow and Antigravity"; got != want {
		t.Errorf("fix_terms = %q, want %q", got, want)
	}
}

func TestMCPAddTermRoundTrip(t *testing.T) {
	c := newTestMCPClient(t)

	got, isErr := callTool(t, c, "add_term", map[string]any{
		"correct":        "FooBar",
		"wrong_variants": []any{"foobar", "Foo Bar"},
	})
	if isErr || got != "ok" {
		t.Fatalf("add_term = %q (error=%v)", got, isErr)
	}

	got, _ = callTool(t, c, "fix_terms", map[string]any{"text": "I like foobar"})
	if got != "I like FooBar" {
		t.Errorf("fix_terms = %q, want %q", got, "I like FooBar")
	}
}

func TestMCPAddTerm_Errors(t *testing.T) {
	c := newTestMCPClient(t)

	tests := []struct {
		name string
		args map[string]any
	}{
		{"blank correct", map[string]any{"correct": "  ", "wrong_variants": []any{"x"}}},
		{"missing variants", map[string]any{"correct": "FooBar"}},
		{"non-string variant", map[string]any{"correct": "FooBar", "wrong_variants": []any{"x", 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, isErr := callTool(t, c, "add_term", tt.args)
			if !isErr {
				t.Errorf("expected tool error, got %q", msg)
			}
		})
	}
}

func TestMCPListTerms(t *testing.T) {
	c := newTestMCPClient(t)

	got, isErr := callTool(t, c, "list_terms", nil)
	if isErr {
		t.Fatalf("list_terms error: %s", got)
	}
	var resp termsResponse
	if err := json.Unmarshal([]byte(got), &resp); err != nil {
		t.Fatalf("decode list_terms: %v", err)
	}
	if len(resp.Terms) != 9 {
		t.Errorf("expected 9 terms, got %d", len(resp.Terms))
	}
}
