package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rmax-ai/mdstval/pkg/compose"
	"github.com/rmax-ai/mdstval/pkg/config"
	"github.com/rmax-ai/mdstval/pkg/generator"
	"github.com/rmax-ai/mdstval/pkg/graph"
	"github.com/rmax-ai/mdstval/pkg/reports"
	"github.com/rmax-ai/mdstval/pkg/validate"
)

// Server exposes the validator over the Model Context Protocol.
type Server struct {
	mcpServer   *server.MCPServer
	summaryPath string
	gen         generator.Generator
}

// NewServer creates a new MCP server instance. summaryPath is a summary file, or an artifact
// directory whose newest run is exposed; it may be empty.
func NewServer(summaryPath string, gen generator.Generator) *Server {
	if gen == nil {
		gen = generator.NewRandomConnected()
	}
	s := &Server{
		mcpServer:   server.NewMCPServer("mdstval", "1.0.0"),
		summaryPath: summaryPath,
		gen:         gen,
	}
	s.registerResources()
	s.registerTools()
	s.registerPrompts()
	return s
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

// --- Resources ---

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(
		"mdstval://summary",
		"Validation Run Summary",
		mcp.WithResourceDescription("Per-group verdict counts and accuracy of the last successful run"),
		mcp.WithMIMEType("application/json"),
	), s.handleReadSummary)
}

// --- Tools ---

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		"validate_output",
		mcp.WithDescription("Grade a solver answer against the checker answer for a test case. Returns exact, approximate or the mismatch reason."),
		mcp.WithString("test_case", mcp.Required(), mcp.Description("The test case as fed on stdin: 'V E', the vertex line, then one edge per line")),
		mcp.WithString("solver_output", mcp.Required(), mcp.Description("Solver stdout")),
		mcp.WithString("checker_output", mcp.Required(), mcp.Description("Checker stdout")),
	), s.handleValidateOutput)

	s.mcpServer.AddTool(mcp.NewTool(
		"check_connectivity",
		mcp.WithDescription("Report whether a test case graph is connected and its maximum degree."),
		mcp.WithString("test_case", mcp.Required(), mcp.Description("The test case in stdin form")),
	), s.handleCheckConnectivity)

	s.mcpServer.AddTool(mcp.NewTool(
		"generate_case",
		mcp.WithDescription("Generate a connected test case in stdin form."),
		mcp.WithNumber("vertex_count", mcp.Required(), mcp.Description("Vertices per component")),
		mcp.WithNumber("edges_count", mcp.Required(), mcp.Description("Edges per component")),
		mcp.WithString("mode", mcp.Description("usual (default) or components")),
		mcp.WithNumber("seed", mcp.Description("Seed for reproducible output (default 1)")),
	), s.handleGenerateCase)
}

// --- Prompts ---

func (s *Server) registerPrompts() {
	s.mcpServer.AddPrompt(mcp.NewPrompt(
		"mdstval-protocol",
		mcp.WithPromptDescription("Explains the input and output formats of the solver and checker binaries"),
	), s.handleGetPrompt)
}

// --- Handlers ---

func (s *Server) handleReadSummary(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	if s.summaryPath == "" {
		return nil, fmt.Errorf("no summary file configured")
	}
	path, err := reports.ResolveSummary(ctx, s.summaryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to find summary: %w", err)
	}
	summary, err := reports.LoadSummary(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load summary: %w", err)
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleValidateOutput(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tc, err := graph.ParseTestCase(mcp.ParseString(request, "test_case", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("test_case: %v", err)), nil
	}

	verdict, err := validate.Validate(
		mcp.ParseString(request, "solver_output", ""),
		mcp.ParseString(request, "checker_output", ""),
		tc,
	)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Verdict: %s\nReason: %v", validate.Failed, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Verdict: %s", verdict)), nil
}

func (s *Server) handleCheckConnectivity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tc, err := graph.ParseTestCase(mcp.ParseString(request, "test_case", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("test_case: %v", err)), nil
	}

	connected := graph.IsConnected(tc.Vertices(), tc.Edges)
	return mcp.NewToolResultText(fmt.Sprintf("Connected: %t\nMax degree: %d", connected, graph.MaxDegree(tc.Edges))), nil
}

func (s *Server) handleGenerateCase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	seed := int64(mcp.ParseFloat64(request, "seed", 1))
	group := config.Group{
		Name:        "mcp",
		RegenFactor: 1,
		Mode:        mcp.ParseString(request, "mode", config.ModeUsual),
		Parameters: []config.Parameters{{
			VertexCount: int(mcp.ParseFloat64(request, "vertex_count", 0)),
			EdgeCount:   int(mcp.ParseFloat64(request, "edges_count", 0)),
		}},
	}

	next := seed
	composer := compose.New(s.gen,
		compose.WithSeedSource(func() int64 { next++; return next }),
		compose.WithRand(rand.New(rand.NewSource(seed))),
		compose.WithSanityCheck(),
	)
	corpus, err := composer.Compose([]config.Group{group})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cases, _ := corpus.Cases(group.Name)
	return mcp.NewToolResultText(cases[0].String()), nil
}

func (s *Server) handleGetPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := request.Params.Name
	if name != "mdstval-protocol" {
		return nil, fmt.Errorf("prompt not found: %s", name)
	}

	promptText := `You are working with mdstval, which cross-checks a minimum-degree spanning tree solver against a reference checker.

Input (stdin of both binaries):
- line 1: "V E"
- line 2: the vertices "1 2 ... V"
- then E lines "a b", one undirected edge each

Output (stdout of both binaries), either the single line "no mst in graph" or:
- line 1: "V E maxdeg" where E must be V-1
- line 2: the vertices of the tree
- then E edge lines

The solver is graded exact when its max degree equals the checker's and approximate when it is one higher. Anything else fails the run.
Use 'validate_output' to grade a pair of answers and 'check_connectivity' to inspect an input.
`

	return mcp.NewGetPromptResult(
		"mdstval-protocol",
		[]mcp.PromptMessage{
			mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(promptText)),
		},
	), nil
}
