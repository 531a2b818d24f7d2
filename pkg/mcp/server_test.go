package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFlowscopeServer(t *testing.T) {
	s := NewFlowscopeServer(FlowscopeServerDeps{})
	require.NotNil(t, s)
	assert.NotNil(t, s.mcpServer)
	assert.NotNil(t, s.logger)
	assert.NotNil(t, s.documents)
}

func TestToolRegistration(t *testing.T) {
	s := NewFlowscopeServer(FlowscopeServerDeps{})

	tools := s.mcpServer.ListTools()
	require.Len(t, tools, 5)

	expectedTools := []string{
		"flow.validate",
		"flow.validate_system",
		"flow.derive_paths",
		"flow.derive_boundaries",
		"flow.diagram",
	}
	for _, name := range expectedTools {
		tool := s.mcpServer.GetTool(name)
		assert.NotNil(t, tool, "tool %s should be registered", name)
	}
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name        string
		toolName    string
		description string
	}{
		{"validate", "flow.validate", "Validate a single flow graph: structure, branches, cycles, spec completeness"},
		{"validate_system", "flow.validate_system", "Validate a full system snapshot: every flow, every domain, cross-domain wiring"},
		{"derive_paths", "flow.derive_paths", "Enumerate every entry-to-terminal test path of a flow with classifications"},
		{"derive_boundaries", "flow.derive_boundaries", "Generate boundary-value test cases from a flow's input field validation rules"},
		{"diagram", "flow.diagram", "Render a flow graph as a Mermaid flowchart"},
	}

	s := NewFlowscopeServer(FlowscopeServerDeps{})

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tool := s.mcpServer.GetTool(tc.toolName)
			require.NotNil(t, tool)
			assert.Equal(t, tc.description, tool.Tool.Description)
		})
	}
}
