package derive

import (
	"fmt"
	"sort"

	"github.com/rendis/flowscope/pkg/schema"
)

// DerivePaths enumerates every entry-to-terminal path of a flow graph via
// depth-first traversal. A node already on the current path is never
// re-entered, so enumeration terminates even on malformed cyclic input; a
// self-referencing node gets at most one representable visit per path.
// Output is deterministic: identical input yields identical, identically
// ordered paths.
func DerivePaths(g *schema.FlowGraph) []schema.TestPath {
	if g == nil || len(g.Nodes) == 0 {
		return nil
	}

	entry := entryNode(g)
	if entry == nil {
		return nil
	}

	index := make(map[string]*schema.Node, len(g.Nodes))
	for i := range g.Nodes {
		index[g.Nodes[i].ID] = &g.Nodes[i]
	}

	var paths []schema.TestPath
	walk(g, index, entry, []string{entry.ID}, nil, map[string]bool{entry.ID: true}, &paths)

	for i := range paths {
		paths[i].ID = fmt.Sprintf("path-%03d", i+1)
	}
	return paths
}

func entryNode(g *schema.FlowGraph) *schema.Node {
	var trigger, orchestrator *schema.Node
	triggers, orchestrators := 0, 0
	for i := range g.Nodes {
		switch g.Nodes[i].Kind {
		case schema.NodeKindTrigger:
			triggers++
			if trigger == nil {
				trigger = &g.Nodes[i]
			}
		case schema.NodeKindOrchestrator:
			orchestrators++
			if orchestrator == nil {
				orchestrator = &g.Nodes[i]
			}
		}
	}
	if triggers >= 1 {
		return trigger
	}
	if g.Kind == schema.FlowKindOrchestration && orchestrators == 1 {
		return orchestrator
	}
	return nil
}

func walk(g *schema.FlowGraph, index map[string]*schema.Node, n *schema.Node, trail []string, branches []string, onPath map[string]bool, paths *[]schema.TestPath) {
	if n.Kind == schema.NodeKindTerminal {
		*paths = append(*paths, recordPath(n, trail, branches))
		return
	}

	for _, branch := range branchOrder(n) {
		target := n.Outgoing[branch]
		next := index[target]
		if next == nil || onPath[target] {
			continue
		}
		onPath[target] = true
		walk(g, index, next,
			append(append([]string{}, trail...), target),
			append(append([]string{}, branches...), branch),
			onPath, paths)
		delete(onPath, target)
	}
}

func recordPath(terminal *schema.Node, trail, branches []string) schema.TestPath {
	var spec schema.TerminalSpec
	_ = schema.DecodeSpec(terminal, &spec)

	failed := terminalFails(spec)
	for _, b := range branches {
		if schema.FailureBranches[b] {
			failed = true
			break
		}
	}

	classification := schema.PathEdgeCase
	switch {
	case failed:
		classification = schema.PathError
	case terminalSucceeds(spec):
		classification = schema.PathHappy
	}

	outcome := spec.Outcome
	if outcome == "" {
		if failed {
			outcome = "failure"
		} else {
			outcome = "success"
		}
	}
	expected := fmt.Sprintf("reaches terminal %q with outcome %s", terminal.ID, outcome)
	if spec.Message != "" {
		expected = fmt.Sprintf("%s: %s", expected, spec.Message)
	}

	return schema.TestPath{
		Classification:  classification,
		Nodes:           trail,
		Branches:        branches,
		ExpectedOutcome: expected,
	}
}

// terminalFails reports whether the terminal itself signals failure.
func terminalFails(spec schema.TerminalSpec) bool {
	switch spec.Outcome {
	case "failure", "error":
		return true
	}
	return spec.StatusCode >= 400
}

// terminalSucceeds reports whether the terminal's outcome is success-range.
func terminalSucceeds(spec schema.TerminalSpec) bool {
	if terminalFails(spec) {
		return false
	}
	switch spec.Outcome {
	case "success":
		return true
	case "":
		return spec.StatusCode == 0 || spec.StatusCode < 400
	}
	return false
}

// canonicalOrder is the fixed branch ordering per kind; branches outside it
// follow lexicographically.
var canonicalOrder = map[schema.NodeKind][]string{
	schema.NodeKindDecision:    {"true", "false"},
	schema.NodeKindInput:       {"valid", "invalid"},
	schema.NodeKindDataStore:   {"success", "error"},
	schema.NodeKindServiceCall: {"success", "error"},
	schema.NodeKindLoop:        {"body", "done"},
}

// branchOrder returns a node's wired branches in deterministic order:
// canonical per-kind order first, remaining names lexicographically.
func branchOrder(n *schema.Node) []string {
	ordered := make([]string, 0, len(n.Outgoing))
	taken := make(map[string]bool, len(n.Outgoing))

	for _, b := range canonicalOrder[n.Kind] {
		if _, ok := n.Outgoing[b]; ok {
			ordered = append(ordered, b)
			taken[b] = true
		}
	}

	rest := make([]string, 0, len(n.Outgoing))
	for b := range n.Outgoing {
		if !taken[b] {
			rest = append(rest, b)
		}
	}
	sort.Strings(rest)
	return append(ordered, rest...)
}
