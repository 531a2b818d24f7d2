package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/rendis/flowscope/internal/store"
	"github.com/rendis/flowscope/internal/validation"
)

// FlowscopeServerDeps holds the dependencies for creating a FlowscopeServer.
// Registries may be nil; registry-backed reference checks are then skipped.
type FlowscopeServerDeps struct {
	Validator *validation.GraphValidator
	Documents *validation.DocumentValidator
	Registry  store.RegistryStore
	Logger    *slog.Logger
}

// FlowscopeServer wraps an MCP server with flow analysis tool handlers.
// The editing layer calls it after each edit (debounced on its side) and
// before any "implement" action; every handler is a pure computation over
// the snapshot it receives.
type FlowscopeServer struct {
	validator *validation.GraphValidator
	documents *validation.DocumentValidator
	registry  store.RegistryStore
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewFlowscopeServer creates a FlowscopeServer with all 5 tools registered.
func NewFlowscopeServer(deps FlowscopeServerDeps) *FlowscopeServer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	documents := deps.Documents
	if documents == nil {
		documents = validation.NewDocumentValidator()
	}

	s := &FlowscopeServer{
		validator: deps.Validator,
		documents: documents,
		registry:  deps.Registry,
		logger:    logger,
	}

	mcpSrv := server.NewMCPServer(
		"flowscope",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Flowscope analyzes visual flow designs. Use flow.validate to check one flow, flow.validate_system to check a full domain/system snapshot, flow.derive_paths and flow.derive_boundaries to enumerate test paths and boundary cases, and flow.diagram to render a Mermaid preview."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *FlowscopeServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *FlowscopeServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// tools returns the 5 registered MCP tools as ServerTool entries.
func (s *FlowscopeServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: validateTool(), Handler: s.handleValidate},
		{Tool: validateSystemTool(), Handler: s.handleValidateSystem},
		{Tool: derivePathsTool(), Handler: s.handleDerivePaths},
		{Tool: deriveBoundariesTool(), Handler: s.handleDeriveBoundaries},
		{Tool: diagramTool(), Handler: s.handleDiagram},
	}
}

// --- Tool definitions ---

func validateTool() mcp.Tool {
	return mcp.NewTool("flow.validate",
		mcp.WithDescription("Validate a single flow graph: structure, branches, cycles, spec completeness"),
		mcp.WithString("flow", mcp.Required(), mcp.Description("Flow document as a JSON string")),
	)
}

func validateSystemTool() mcp.Tool {
	return mcp.NewTool("flow.validate_system",
		mcp.WithDescription("Validate a full system snapshot: every flow, every domain, cross-domain wiring"),
		mcp.WithString("system", mcp.Required(), mcp.Description("System document (domains with flows and event declarations) as a JSON string")),
	)
}

func derivePathsTool() mcp.Tool {
	return mcp.NewTool("flow.derive_paths",
		mcp.WithDescription("Enumerate every entry-to-terminal test path of a flow with classifications"),
		mcp.WithString("flow", mcp.Required(), mcp.Description("Flow document as a JSON string")),
	)
}

func deriveBoundariesTool() mcp.Tool {
	return mcp.NewTool("flow.derive_boundaries",
		mcp.WithDescription("Generate boundary-value test cases from a flow's input field validation rules"),
		mcp.WithString("flow", mcp.Required(), mcp.Description("Flow document as a JSON string")),
	)
}

func diagramTool() mcp.Tool {
	return mcp.NewTool("flow.diagram",
		mcp.WithDescription("Render a flow graph as a Mermaid flowchart"),
		mcp.WithString("flow", mcp.Required(), mcp.Description("Flow document as a JSON string")),
	)
}
