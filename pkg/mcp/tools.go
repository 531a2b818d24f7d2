package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/rendis/flowscope/internal/derive"
	"github.com/rendis/flowscope/internal/diagram"
	"github.com/rendis/flowscope/internal/logging"
	"github.com/rendis/flowscope/pkg/schema"
)

// validateResponse is the payload returned by flow.validate and flow.validate_system.
type validateResponse struct {
	Valid   bool                       `json:"valid"`
	Results []*schema.ValidationResult `json:"results"`
}

// pathsResponse is the payload returned by flow.derive_paths.
type pathsResponse struct {
	FlowID string            `json:"flow_id"`
	Paths  []schema.TestPath `json:"paths"`
}

// boundariesResponse is the payload returned by flow.derive_boundaries.
type boundariesResponse struct {
	FlowID string                `json:"flow_id"`
	Tests  []schema.BoundaryTest `json:"tests"`
}

// diagramResponse is the payload returned by flow.diagram.
type diagramResponse struct {
	FlowID  string `json:"flow_id"`
	Mermaid string `json:"mermaid"`
}

func (s *FlowscopeServer) handleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = logging.WithRequestID(ctx, uuid.New().String())

	flow, result := s.decodeFlowParam(ctx, req)
	if flow == nil {
		if result == nil {
			return mcp.NewToolResultError("missing required parameter: flow"), nil
		}
		// Structurally broken documents still produce a report, not a transport error.
		return marshalResult(validateResponse{Valid: false, Results: []*schema.ValidationResult{result}})
	}

	graphResult := s.validator.ValidateFlow(flow)
	result.Merge(graphResult)

	s.logger.InfoContext(ctx, "flow validated",
		"flow_id", flow.ID,
		"issues", len(result.Issues),
		"valid", result.IsValid())
	return marshalResult(validateResponse{Valid: result.IsValid(), Results: []*schema.ValidationResult{result}})
}

func (s *FlowscopeServer) handleValidateSystem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = logging.WithRequestID(ctx, uuid.New().String())

	raw, err := req.RequireString("system")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: system"), nil
	}

	var sys schema.System
	if err := json.Unmarshal([]byte(raw), &sys); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid system document: %v", err)), nil
	}

	reg, err := s.loadRegistries(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "registry load failed, reference checks against registries skipped", "error", err)
	}

	results := s.validator.ValidateAll(&sys, reg)
	valid := true
	issues := 0
	for _, r := range results {
		issues += len(r.Issues)
		if !r.IsValid() {
			valid = false
		}
	}

	s.logger.InfoContext(ctx, "system validated",
		"domains", len(sys.Domains),
		"results", len(results),
		"issues", issues,
		"valid", valid)
	return marshalResult(validateResponse{Valid: valid, Results: results})
}

func (s *FlowscopeServer) handleDerivePaths(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = logging.WithRequestID(ctx, uuid.New().String())

	flow, result := s.decodeFlowParam(ctx, req)
	if flow == nil {
		return s.decodeFailure(result), nil
	}

	paths := derive.DerivePaths(flow)
	s.logger.InfoContext(ctx, "paths derived", "flow_id", flow.ID, "paths", len(paths))
	return marshalResult(pathsResponse{FlowID: flow.ID, Paths: paths})
}

func (s *FlowscopeServer) handleDeriveBoundaries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = logging.WithRequestID(ctx, uuid.New().String())

	flow, result := s.decodeFlowParam(ctx, req)
	if flow == nil {
		return s.decodeFailure(result), nil
	}

	tests := derive.DeriveBoundaries(flow)
	s.logger.InfoContext(ctx, "boundaries derived", "flow_id", flow.ID, "tests", len(tests))
	return marshalResult(boundariesResponse{FlowID: flow.ID, Tests: tests})
}

func (s *FlowscopeServer) handleDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx = logging.WithRequestID(ctx, uuid.New().String())

	flow, result := s.decodeFlowParam(ctx, req)
	if flow == nil {
		return s.decodeFailure(result), nil
	}

	mermaid := diagram.RenderMermaid(flow)
	s.logger.InfoContext(ctx, "diagram rendered", "flow_id", flow.ID)
	return marshalResult(diagramResponse{FlowID: flow.ID, Mermaid: mermaid})
}

// decodeFlowParam extracts and structurally validates the "flow" parameter.
// The returned flow is non-nil only when the document passed structural
// validation; a decodable document with schema violations is still rejected.
// A nil result means the parameter itself was missing.
func (s *FlowscopeServer) decodeFlowParam(ctx context.Context, req mcp.CallToolRequest) (*schema.FlowGraph, *schema.ValidationResult) {
	raw, err := req.RequireString("flow")
	if err != nil {
		return nil, nil
	}
	flow, result := s.documents.DecodeFlow([]byte(raw))
	if flow != nil && !result.IsValid() {
		flow = nil
	}
	if flow == nil {
		s.logger.WarnContext(ctx, "flow document rejected", "issues", len(result.Issues))
	}
	return flow, result
}

// decodeFailure turns a structural validation failure into a tool error
// listing each violation.
func (s *FlowscopeServer) decodeFailure(result *schema.ValidationResult) *mcp.CallToolResult {
	if result == nil {
		return mcp.NewToolResultError("missing required parameter: flow")
	}
	msg := "flow document is structurally invalid:"
	for _, issue := range result.Errors() {
		msg += "\n- " + issue.Message
	}
	return mcp.NewToolResultError(msg)
}

func (s *FlowscopeServer) loadRegistries(ctx context.Context) (*schema.Registries, error) {
	if s.registry == nil {
		return nil, nil
	}
	return s.registry.LoadRegistries(ctx)
}

func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
