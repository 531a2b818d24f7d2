package schema

import "encoding/json"

// NodeKind enumerates the kinds of nodes in a flow graph.
type NodeKind string

const (
	NodeKindTrigger      NodeKind = "trigger"
	NodeKindInput        NodeKind = "input"
	NodeKindProcess      NodeKind = "process"
	NodeKindDecision     NodeKind = "decision"
	NodeKindTerminal     NodeKind = "terminal"
	NodeKindDataStore    NodeKind = "data_store"
	NodeKindServiceCall  NodeKind = "service_call"
	NodeKindEvent        NodeKind = "event"
	NodeKindLoop         NodeKind = "loop"
	NodeKindParallel     NodeKind = "parallel"
	NodeKindSubFlow      NodeKind = "sub_flow"
	NodeKindLLMCall      NodeKind = "llm_call"
	NodeKindAgentLoop    NodeKind = "agent_loop"
	NodeKindTool         NodeKind = "tool"
	NodeKindOrchestrator NodeKind = "orchestrator"
	NodeKindSmartRouter  NodeKind = "smart_router"
	NodeKindHandoff      NodeKind = "handoff"
)

// NodeKinds lists every recognized kind, in canonical order.
var NodeKinds = []NodeKind{
	NodeKindTrigger, NodeKindInput, NodeKindProcess, NodeKindDecision,
	NodeKindTerminal, NodeKindDataStore, NodeKindServiceCall, NodeKindEvent,
	NodeKindLoop, NodeKindParallel, NodeKindSubFlow, NodeKindLLMCall,
	NodeKindAgentLoop, NodeKindTool, NodeKindOrchestrator,
	NodeKindSmartRouter, NodeKindHandoff,
}

// KnownKind reports whether k is a recognized node kind.
func KnownKind(k NodeKind) bool {
	for _, known := range NodeKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Node is a single node in a flow graph. Spec holds the kind-specific
// configuration as raw JSON; unrecognized custom fields are preserved by the
// document but ignored by analysis. Outgoing maps branch name to target node ID.
type Node struct {
	ID       string            `json:"id"`
	Kind     NodeKind          `json:"kind"`
	Name     string            `json:"name,omitempty"`
	Spec     json.RawMessage   `json:"spec,omitempty"`
	Outgoing map[string]string `json:"outgoing,omitempty"`
}

// FlowKind enumerates the kinds of flow graphs.
type FlowKind string

const (
	FlowKindTraditional   FlowKind = "traditional"
	FlowKindAgent         FlowKind = "agent"
	FlowKindOrchestration FlowKind = "orchestration"
)

// FlowGraph is one editable flow: nodes plus labeled edges.
// Traditional graphs must be acyclic; agent graphs are exempt because
// agent_loop intentionally represents unbounded iteration.
type FlowGraph struct {
	ID    string   `json:"id"`
	Kind  FlowKind `json:"kind"`
	Name  string   `json:"name,omitempty"`
	Nodes []Node   `json:"nodes"`
}

// NodeByID returns the node with the given ID, or nil.
func (g *FlowGraph) NodeByID(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// BranchDefault is the single outgoing branch for kinds without a fixed set.
const BranchDefault = "default"

// RequiredBranches maps a node kind to the branches that must be wired.
// A missing required branch is an error-severity issue.
var RequiredBranches = map[NodeKind][]string{
	NodeKindDecision:    {"true", "false"},
	NodeKindInput:       {"valid"},
	NodeKindDataStore:   {"success"},
	NodeKindServiceCall: {"success"},
	NodeKindLoop:        {"body"},
}

// AdvisoryBranches maps a node kind to branches whose absence merely degrades
// the flow; a missing advisory branch is a warning.
var AdvisoryBranches = map[NodeKind][]string{
	NodeKindInput:       {"invalid"},
	NodeKindDataStore:   {"error"},
	NodeKindServiceCall: {"error"},
	NodeKindLoop:        {"done"},
	NodeKindParallel:    {"done"},
}

// FailureBranches are the branch names that signal a failure outcome when
// taken along a derived path.
var FailureBranches = map[string]bool{
	"error":   true,
	"invalid": true,
}

// --- Kind-specific spec payloads ---

// TriggerSpec configures a trigger node. Type selects the trigger mechanism;
// http triggers need Method+Path, schedule triggers need a cron Schedule.
type TriggerSpec struct {
	Type     string `json:"type"` // http | schedule | event | manual
	Method   string `json:"method,omitempty"`
	Path     string `json:"path,omitempty"`
	Schedule string `json:"schedule,omitempty"`
	Event    string `json:"event,omitempty"`
}

// FieldSpec declares one input field with its validation rules.
type FieldSpec struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"` // string | number | boolean | object | array
	Required     bool     `json:"required,omitempty"`
	MinLength    *int     `json:"min_length,omitempty"`
	MaxLength    *int     `json:"max_length,omitempty"`
	Min          *float64 `json:"min,omitempty"`
	Max          *float64 `json:"max,omitempty"`
	Format       string   `json:"format,omitempty"` // email | uuid | date | url
	ErrorMessage string   `json:"error_message,omitempty"`
}

// InputSpec configures an input node.
type InputSpec struct {
	Fields []FieldSpec `json:"fields"`
}

// DecisionSpec configures a decision node. Engine defaults to "cel".
type DecisionSpec struct {
	Condition string `json:"condition"`
	Engine    string `json:"engine,omitempty"` // cel | expr | jq
}

// ProcessSpec configures a process node. Engine defaults to "jq" when a
// transform is declared.
type ProcessSpec struct {
	Transform string `json:"transform,omitempty"`
	Engine    string `json:"engine,omitempty"`
}

// TerminalSpec configures a terminal node. Outcome "success" (or an HTTP
// status below 400) marks the success range.
type TerminalSpec struct {
	Outcome    string `json:"outcome,omitempty"` // success | failure
	StatusCode int    `json:"status_code,omitempty"`
	Message    string `json:"message,omitempty"`
}

// DataStoreSpec configures a data_store node. Schema names a registered
// schema; ErrorCodes name registered error codes the store may surface.
type DataStoreSpec struct {
	Schema     string   `json:"schema,omitempty"`
	Operation  string   `json:"operation,omitempty"` // create | read | update | delete
	ErrorCodes []string `json:"error_codes,omitempty"`
}

// ServiceCallSpec configures a service_call node.
type ServiceCallSpec struct {
	Service    string   `json:"service,omitempty"`
	Operation  string   `json:"operation,omitempty"`
	ErrorCodes []string `json:"error_codes,omitempty"`
}

// EventSpec configures an event node: the event it publishes.
type EventSpec struct {
	Event   string            `json:"event"`
	Payload map[string]string `json:"payload,omitempty"`
}

// LoopSpec configures a loop node.
type LoopSpec struct {
	Condition     string `json:"condition,omitempty"`
	Engine        string `json:"engine,omitempty"`
	MaxIterations int    `json:"max_iterations,omitempty"`
}

// ParallelSpec configures a parallel node; Branches is the declared branch
// count (branch-0 .. branch-N-1).
type ParallelSpec struct {
	Branches int `json:"branches"`
}

// SubFlowSpec configures a sub_flow node referencing another flow by ID.
type SubFlowSpec struct {
	FlowID string `json:"flow_id"`
}

// LLMCallSpec configures an llm_call node. Model names a registered model.
type LLMCallSpec struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt,omitempty"`
}

// AgentLoopSpec configures an agent_loop node.
type AgentLoopSpec struct {
	MaxIterations int `json:"max_iterations,omitempty"`
}

// ToolSpec configures a tool node; Terminal marks a tool whose invocation
// ends the enclosing agent loop.
type ToolSpec struct {
	Name     string `json:"name,omitempty"`
	Terminal bool   `json:"terminal,omitempty"`
}

// OrchestratorSpec configures an orchestrator node. Members reference agent
// IDs or flow IDs; MinMembers, when positive, is the minimum member count.
type OrchestratorSpec struct {
	Members    []string `json:"members,omitempty"`
	MinMembers int      `json:"min_members,omitempty"`
	Mode       string   `json:"mode,omitempty"` // sequential | parallel
}

// SmartRouterSpec configures a smart_router node; Routes reference flow or
// agent IDs.
type SmartRouterSpec struct {
	Routes []string `json:"routes,omitempty"`
}

// HandoffSpec configures a handoff node; Target references a flow or agent ID.
type HandoffSpec struct {
	Target string `json:"target"`
}

// DecodeSpec unmarshals a node's raw spec into the given kind-specific
// struct. A nil or empty spec leaves dst zero-valued; unknown fields in the
// document are ignored (the open custom-field bag).
func DecodeSpec(n *Node, dst any) error {
	if len(n.Spec) == 0 {
		return nil
	}
	return json.Unmarshal(n.Spec, dst)
}
