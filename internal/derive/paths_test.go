package derive

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/flowscope/pkg/schema"
)

func node(id string, kind schema.NodeKind, spec string, outgoing map[string]string) schema.Node {
	n := schema.Node{ID: id, Kind: kind, Outgoing: outgoing}
	if spec != "" {
		n.Spec = json.RawMessage(spec)
	}
	return n
}

func trigger(id string, outgoing map[string]string) schema.Node {
	return node(id, schema.NodeKindTrigger, `{"type":"manual"}`, outgoing)
}

func flow(id string, nodes ...schema.Node) *schema.FlowGraph {
	return &schema.FlowGraph{ID: id, Kind: schema.FlowKindTraditional, Nodes: nodes}
}

// --- Enumeration ---

func TestPaths_SingleLinearPath(t *testing.T) {
	g := flow("f",
		trigger("start", map[string]string{"default": "work"}),
		node("work", schema.NodeKindProcess, "", map[string]string{"default": "end"}),
		node("end", schema.NodeKindTerminal, `{"outcome":"success"}`, nil),
	)
	paths := DerivePaths(g)
	require.Len(t, paths, 1)
	assert.Equal(t, "path-001", paths[0].ID)
	assert.Equal(t, []string{"start", "work", "end"}, paths[0].Nodes)
	assert.Equal(t, schema.PathHappy, paths[0].Classification)
}

func TestPaths_TwoBranchesConverging(t *testing.T) {
	// entry -> A -> C, entry -> B -> C, C -> terminal: exactly two paths.
	g := flow("f",
		trigger("entry", map[string]string{"left": "A", "right": "B"}),
		node("A", schema.NodeKindProcess, "", map[string]string{"default": "C"}),
		node("B", schema.NodeKindProcess, "", map[string]string{"default": "C"}),
		node("C", schema.NodeKindProcess, "", map[string]string{"default": "end"}),
		node("end", schema.NodeKindTerminal, `{"outcome":"success"}`, nil),
	)
	paths := DerivePaths(g)
	require.Len(t, paths, 2)
	assert.Equal(t, []string{"entry", "A", "C", "end"}, paths[0].Nodes)
	assert.Equal(t, []string{"entry", "B", "C", "end"}, paths[1].Nodes)
}

func TestPaths_DecisionBranchOrder(t *testing.T) {
	// Canonical decision order is true before false regardless of lexicographic order.
	g := flow("f",
		trigger("start", map[string]string{"default": "d"}),
		node("d", schema.NodeKindDecision, `{"condition":"input.ok == true"}`,
			map[string]string{"false": "reject", "true": "accept"}),
		node("accept", schema.NodeKindTerminal, `{"outcome":"success"}`, nil),
		node("reject", schema.NodeKindTerminal, `{"outcome":"failure"}`, nil),
	)
	paths := DerivePaths(g)
	require.Len(t, paths, 2)
	assert.Equal(t, []string{"start", "d", "accept"}, paths[0].Nodes)
	assert.Equal(t, []string{"start", "d", "reject"}, paths[1].Nodes)
}

func TestPaths_CyclicInputTerminates(t *testing.T) {
	// Malformed cycle: a node on the current path is never re-entered.
	g := flow("f",
		trigger("start", map[string]string{"default": "a"}),
		node("a", schema.NodeKindProcess, "", map[string]string{"default": "b"}),
		node("b", schema.NodeKindProcess, "", map[string]string{"back": "a", "out": "end"}),
		node("end", schema.NodeKindTerminal, `{"outcome":"success"}`, nil),
	)
	paths := DerivePaths(g)
	require.Len(t, paths, 1)
	assert.Equal(t, []string{"start", "a", "b", "end"}, paths[0].Nodes)
}

func TestPaths_NoEntryNoPaths(t *testing.T) {
	g := flow("f", node("end", schema.NodeKindTerminal, "", nil))
	assert.Empty(t, DerivePaths(g))
}

func TestPaths_DeadEndProducesNoPath(t *testing.T) {
	g := flow("f",
		trigger("start", map[string]string{"default": "stuck"}),
		node("stuck", schema.NodeKindProcess, "", nil),
	)
	assert.Empty(t, DerivePaths(g))
}

// --- Classification ---

func TestPaths_ErrorBranchClassification(t *testing.T) {
	g := flow("f",
		trigger("start", map[string]string{"default": "call"}),
		node("call", schema.NodeKindServiceCall, `{"service":"payments"}`,
			map[string]string{"success": "ok", "error": "failed"}),
		node("ok", schema.NodeKindTerminal, `{"outcome":"success"}`, nil),
		node("failed", schema.NodeKindTerminal, `{"outcome":"success"}`, nil),
	)
	paths := DerivePaths(g)
	require.Len(t, paths, 2)
	assert.Equal(t, schema.PathHappy, paths[0].Classification, "success branch first")
	assert.Equal(t, schema.PathError, paths[1].Classification, "error branch taken marks the path")
}

func TestPaths_FailingTerminalClassification(t *testing.T) {
	g := flow("f",
		trigger("start", map[string]string{"default": "end"}),
		node("end", schema.NodeKindTerminal, `{"outcome":"failure","message":"rejected"}`, nil),
	)
	paths := DerivePaths(g)
	require.Len(t, paths, 1)
	assert.Equal(t, schema.PathError, paths[0].Classification)
	assert.Contains(t, paths[0].ExpectedOutcome, "rejected")
}

func TestPaths_HTTPStatusClassification(t *testing.T) {
	g := flow("f",
		trigger("start", map[string]string{"ok": "created", "bad": "invalid"}),
		node("created", schema.NodeKindTerminal, `{"status_code":201}`, nil),
		node("invalid", schema.NodeKindTerminal, `{"status_code":422}`, nil),
	)
	paths := DerivePaths(g)
	require.Len(t, paths, 2)
	assert.Equal(t, schema.PathError, paths[0].Classification, "bad sorts before ok")
	assert.Equal(t, schema.PathHappy, paths[1].Classification)
}

func TestPaths_EdgeCaseClassification(t *testing.T) {
	g := flow("f",
		trigger("start", map[string]string{"default": "end"}),
		node("end", schema.NodeKindTerminal, `{"outcome":"timeout"}`, nil),
	)
	paths := DerivePaths(g)
	require.Len(t, paths, 1)
	assert.Equal(t, schema.PathEdgeCase, paths[0].Classification)
}

// --- Determinism ---

func TestPaths_Deterministic(t *testing.T) {
	g := flow("f",
		trigger("start", map[string]string{"x": "a", "y": "b", "z": "c"}),
		node("a", schema.NodeKindProcess, "", map[string]string{"default": "end"}),
		node("b", schema.NodeKindProcess, "", map[string]string{"default": "end"}),
		node("c", schema.NodeKindProcess, "", map[string]string{"default": "end"}),
		node("end", schema.NodeKindTerminal, `{"outcome":"success"}`, nil),
	)
	first := DerivePaths(g)
	second := DerivePaths(g)
	assert.Equal(t, first, second)
	require.Len(t, first, 3)
	assert.Equal(t, "a", first[0].Nodes[1])
	assert.Equal(t, "b", first[1].Nodes[1])
	assert.Equal(t, "c", first[2].Nodes[1])
}
