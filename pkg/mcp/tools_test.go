package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rendis/flowscope/internal/validation"
	"github.com/rendis/flowscope/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock Registry Store ---

type mockRegistryStore struct {
	registries *schema.Registries
	loadErr    error
}

func (m *mockRegistryStore) LoadRegistries(_ context.Context) (*schema.Registries, error) {
	return m.registries, m.loadErr
}

func (m *mockRegistryStore) PutErrorCode(_ context.Context, _, _ string) error { return nil }
func (m *mockRegistryStore) DeleteErrorCode(_ context.Context, _ string) error { return nil }
func (m *mockRegistryStore) PutSchema(_ context.Context, _ string) error       { return nil }
func (m *mockRegistryStore) DeleteSchema(_ context.Context, _ string) error    { return nil }
func (m *mockRegistryStore) PutModel(_ context.Context, _ string) error        { return nil }
func (m *mockRegistryStore) DeleteModel(_ context.Context, _ string) error     { return nil }
func (m *mockRegistryStore) Close() error                                      { return nil }

// --- Helpers ---

func newTestServer(t *testing.T) *FlowscopeServer {
	t.Helper()
	gv, err := validation.NewGraphValidator()
	require.NoError(t, err)
	return NewFlowscopeServer(FlowscopeServerDeps{Validator: gv})
}

func buildRequest(toolName string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      toolName,
			Arguments: args,
		},
	}
}

func extractText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	return mcp.GetTextFromContent(result.Content[0])
}

func unmarshalResult(t *testing.T, result *mcp.CallToolResult, target any) {
	t.Helper()
	text := extractText(t, result)
	require.NoError(t, json.Unmarshal([]byte(text), target))
}

// simpleFlowJSON is a minimal valid flow: manual trigger into a success terminal.
const simpleFlowJSON = `{
  "id": "signup",
  "kind": "traditional",
  "nodes": [
    {"id": "start", "kind": "trigger", "spec": {"type": "manual"}, "outgoing": {"default": "done"}},
    {"id": "done", "kind": "terminal", "spec": {"outcome": "success"}}
  ]
}`

// branchedFlowJSON adds a decision with two terminal outcomes and a
// validated input field.
const branchedFlowJSON = `{
  "id": "checkout",
  "kind": "traditional",
  "nodes": [
    {"id": "start", "kind": "trigger", "spec": {"type": "manual"}, "outgoing": {"default": "form"}},
    {"id": "form", "kind": "input", "spec": {"fields": [{"name": "qty", "type": "number", "required": true, "min": 1, "max": 99, "error_message": "quantity out of range"}]}, "outgoing": {"valid": "gate", "invalid": "rejected"}},
    {"id": "gate", "kind": "decision", "spec": {"condition": "input.qty < 10"}, "outgoing": {"true": "accepted", "false": "rejected"}},
    {"id": "accepted", "kind": "terminal", "spec": {"outcome": "success"}},
    {"id": "rejected", "kind": "terminal", "spec": {"outcome": "failure"}}
  ]
}`

// --- flow.validate ---

func TestValidateTool(t *testing.T) {
	s := newTestServer(t)

	req := buildRequest("flow.validate", map[string]any{"flow": simpleFlowJSON})
	result, err := s.handleValidate(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	var resp validateResponse
	unmarshalResult(t, result, &resp)
	assert.True(t, resp.Valid)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "signup", resp.Results[0].TargetID)
}

func TestValidateToolReportsIssues(t *testing.T) {
	s := newTestServer(t)

	// The trigger leads nowhere: a dead end, not a transport error.
	deadEnd := `{
	  "id": "broken",
	  "kind": "traditional",
	  "nodes": [{"id": "start", "kind": "trigger", "spec": {"type": "manual"}}]
	}`
	req := buildRequest("flow.validate", map[string]any{"flow": deadEnd})
	result, err := s.handleValidate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var resp validateResponse
	unmarshalResult(t, result, &resp)
	assert.False(t, resp.Valid)
	require.Len(t, resp.Results, 1)
	assert.NotEmpty(t, resp.Results[0].Errors())
}

func TestValidateToolStructurallyInvalid(t *testing.T) {
	s := newTestServer(t)

	req := buildRequest("flow.validate", map[string]any{"flow": `{"kind": "traditional"}`})
	result, err := s.handleValidate(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var resp validateResponse
	unmarshalResult(t, result, &resp)
	assert.False(t, resp.Valid)
}

func TestValidateToolMissingParam(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleValidate(context.Background(), buildRequest("flow.validate", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

// --- flow.validate_system ---

func TestValidateSystemTool(t *testing.T) {
	s := newTestServer(t)

	sys := map[string]any{
		"domains": []any{
			map[string]any{
				"name":  "billing",
				"flows": []any{json.RawMessage(simpleFlowJSON)},
			},
		},
	}
	raw, err := json.Marshal(sys)
	require.NoError(t, err)

	req := buildRequest("flow.validate_system", map[string]any{"system": string(raw)})
	result, err := s.handleValidateSystem(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var resp validateResponse
	unmarshalResult(t, result, &resp)
	assert.True(t, resp.Valid)
	// One result per flow, one per domain, one for the system.
	require.Len(t, resp.Results, 3)
	assert.Equal(t, schema.ScopeFlow, resp.Results[0].Scope)
	assert.Equal(t, schema.ScopeDomain, resp.Results[1].Scope)
	assert.Equal(t, schema.ScopeSystem, resp.Results[2].Scope)
}

func TestValidateSystemToolUsesRegistry(t *testing.T) {
	gv, err := validation.NewGraphValidator()
	require.NoError(t, err)

	reg := schema.NewRegistries(nil, nil, []string{"gpt-4"})
	rs := &mockRegistryStore{registries: reg}
	s := NewFlowscopeServer(FlowscopeServerDeps{Validator: gv, Registry: rs})

	llmFlow := `{
	  "id": "summarize",
	  "kind": "traditional",
	  "nodes": [
	    {"id": "start", "kind": "trigger", "spec": {"type": "manual"}, "outgoing": {"default": "llm"}},
	    {"id": "llm", "kind": "llm_call", "spec": {"model": "claude-unknown", "prompt": "p"}, "outgoing": {"default": "done"}},
	    {"id": "done", "kind": "terminal", "spec": {"outcome": "success"}}
	  ]
	}`
	sys := `{"domains": [{"name": "docs", "flows": [` + llmFlow + `]}]}`

	req := buildRequest("flow.validate_system", map[string]any{"system": sys})
	result, err := s.handleValidateSystem(context.Background(), req)
	require.NoError(t, err)

	var resp validateResponse
	unmarshalResult(t, result, &resp)
	assert.False(t, resp.Valid, "unknown model should fail against a loaded registry")
}

func TestValidateSystemToolBadJSON(t *testing.T) {
	s := newTestServer(t)

	req := buildRequest("flow.validate_system", map[string]any{"system": "not json"})
	result, err := s.handleValidateSystem(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

// --- flow.derive_paths ---

func TestDerivePathsTool(t *testing.T) {
	s := newTestServer(t)

	req := buildRequest("flow.derive_paths", map[string]any{"flow": branchedFlowJSON})
	result, err := s.handleDerivePaths(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var resp pathsResponse
	unmarshalResult(t, result, &resp)
	assert.Equal(t, "checkout", resp.FlowID)
	// valid->true, valid->false, invalid.
	require.Len(t, resp.Paths, 3)
	assert.Equal(t, "path-001", resp.Paths[0].ID)
}

func TestDerivePathsToolInvalidDocument(t *testing.T) {
	s := newTestServer(t)

	// Decodable JSON that fails schema validation must not reach derivation.
	req := buildRequest("flow.derive_paths", map[string]any{"flow": `{"id": "x"}`})
	result, err := s.handleDerivePaths(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, extractText(t, result), "structurally invalid")
}

func TestDeriveBoundariesToolInvalidDocument(t *testing.T) {
	s := newTestServer(t)

	req := buildRequest("flow.derive_boundaries", map[string]any{"flow": `{"id": "x", "kind": "traditional", "nodes": [{"kind": "input"}]}`})
	result, err := s.handleDeriveBoundaries(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestDiagramToolInvalidDocument(t *testing.T) {
	s := newTestServer(t)

	req := buildRequest("flow.diagram", map[string]any{"flow": `{"id": "x"}`})
	result, err := s.handleDiagram(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

// --- flow.derive_boundaries ---

func TestDeriveBoundariesTool(t *testing.T) {
	s := newTestServer(t)

	req := buildRequest("flow.derive_boundaries", map[string]any{"flow": branchedFlowJSON})
	result, err := s.handleDeriveBoundaries(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var resp boundariesResponse
	unmarshalResult(t, result, &resp)
	assert.Equal(t, "checkout", resp.FlowID)
	require.NotEmpty(t, resp.Tests)
	for _, bt := range resp.Tests {
		assert.Equal(t, "qty", bt.Field)
		assert.Equal(t, "form", bt.NodeID)
	}
}

// --- flow.diagram ---

func TestDiagramTool(t *testing.T) {
	s := newTestServer(t)

	req := buildRequest("flow.diagram", map[string]any{"flow": simpleFlowJSON})
	result, err := s.handleDiagram(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var resp diagramResponse
	unmarshalResult(t, result, &resp)
	assert.Equal(t, "signup", resp.FlowID)
	assert.Contains(t, resp.Mermaid, "graph TD")
	assert.Contains(t, resp.Mermaid, "start")
}

func TestDiagramToolMissingParam(t *testing.T) {
	s := newTestServer(t)

	result, err := s.handleDiagram(context.Background(), buildRequest("flow.diagram", map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
