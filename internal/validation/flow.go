package validation

import (
	"fmt"
	"sort"

	"github.com/robfig/cron/v3"

	"github.com/rendis/flowscope/internal/expressions"
	"github.com/rendis/flowscope/pkg/schema"
)

// FlowValidator checks a single flow graph for structural soundness and
// kind-specific spec completeness. It is a pure function of its input:
// identical graphs always yield identical, identically ordered issues.
// Reference resolution against sibling flows and registries is the
// SystemValidator's job.
type FlowValidator struct {
	engines    *expressions.EngineSet
	cronParser cron.Parser
}

// NewFlowValidator creates a FlowValidator with the default expression engines.
func NewFlowValidator() (*FlowValidator, error) {
	engines, err := expressions.NewEngineSet()
	if err != nil {
		return nil, err
	}
	return &FlowValidator{
		engines:    engines,
		cronParser: cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
	}, nil
}

// Validate runs every flow-scope check and returns the complete issue set.
// Checks are additive: one failing check never suppresses another.
func (v *FlowValidator) Validate(g *schema.FlowGraph) *schema.ValidationResult {
	result := schema.NewValidationResult(schema.ScopeFlow, flowID(g))
	if g == nil {
		result.AddError(schema.CategoryGraphCompleteness, "flow graph is nil")
		return result
	}
	if len(g.Nodes) == 0 {
		result.AddError(schema.CategoryGraphCompleteness, "flow has no nodes").
			At(g.ID, "", "")
		return result
	}

	v.checkDuplicateNodeIDs(g, result)
	v.checkKinds(g, result)

	entry := v.checkEntry(g, result)

	reachable := map[string]bool{}
	if entry != nil {
		reachable = reachableFrom(g, entry.ID)
		v.checkReachability(g, entry, reachable, result)
		v.checkDeadEnds(g, reachable, result)
	}

	v.checkBranchCompleteness(g, result)

	if g.Kind == schema.FlowKindTraditional {
		v.checkCycles(g, result)
	}

	v.checkAgentLoops(g, result)
	v.checkSpecCompleteness(g, result)

	return result
}

func flowID(g *schema.FlowGraph) string {
	if g == nil {
		return ""
	}
	return g.ID
}

func (v *FlowValidator) checkDuplicateNodeIDs(g *schema.FlowGraph, result *schema.ValidationResult) {
	seen := make(map[string]bool, len(g.Nodes))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if seen[n.ID] {
			result.AddError(schema.CategoryGraphCompleteness,
				fmt.Sprintf("duplicate node id %q", n.ID)).
				At(g.ID, n.ID, "")
			continue
		}
		seen[n.ID] = true
	}
}

func (v *FlowValidator) checkKinds(g *schema.FlowGraph, result *schema.ValidationResult) {
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if !schema.KnownKind(n.Kind) {
			result.AddError(schema.CategorySpecCompleteness,
				fmt.Sprintf("node %q has unrecognized kind %q", n.ID, n.Kind)).
				At(g.ID, n.ID, "")
		}
	}
}

// checkEntry resolves the flow's entry node. Traditional and agent graphs
// require exactly one trigger. Orchestration graphs accept a unique
// orchestrator node when no trigger exists.
func (v *FlowValidator) checkEntry(g *schema.FlowGraph, result *schema.ValidationResult) *schema.Node {
	var triggers []*schema.Node
	for i := range g.Nodes {
		if g.Nodes[i].Kind == schema.NodeKindTrigger {
			triggers = append(triggers, &g.Nodes[i])
		}
	}

	switch {
	case len(triggers) == 1:
		return triggers[0]
	case len(triggers) > 1:
		ids := make([]string, len(triggers))
		for i, t := range triggers {
			ids[i] = t.ID
		}
		result.AddError(schema.CategoryGraphCompleteness,
			fmt.Sprintf("flow has %d trigger nodes (%v), expected exactly one", len(triggers), ids)).
			At(g.ID, "", "").
			Suggest("remove the extra trigger nodes or split into separate flows")
		return triggers[0]
	}

	// No trigger. Orchestration graphs may start at a unique orchestrator.
	if g.Kind == schema.FlowKindOrchestration {
		var orchestrators []*schema.Node
		for i := range g.Nodes {
			if g.Nodes[i].Kind == schema.NodeKindOrchestrator {
				orchestrators = append(orchestrators, &g.Nodes[i])
			}
		}
		if len(orchestrators) == 1 {
			return orchestrators[0]
		}
	}

	if g.Kind == schema.FlowKindOrchestration {
		result.AddError(schema.CategoryGraphCompleteness,
			"orchestration flow needs exactly one trigger or orchestrator entry").
			At(g.ID, "", "").
			Suggest("add a trigger node or keep a single orchestrator as the entry point")
		return nil
	}

	result.AddError(schema.CategoryGraphCompleteness, "flow has no trigger node").
		At(g.ID, "", "").
		Suggest("add a trigger node as the flow entry point")
	return nil
}

// reachableFrom computes the set of node IDs reachable from start by
// following outgoing edges.
func reachableFrom(g *schema.FlowGraph, start string) map[string]bool {
	index := make(map[string]*schema.Node, len(g.Nodes))
	for i := range g.Nodes {
		index[g.Nodes[i].ID] = &g.Nodes[i]
	}

	reachable := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		n := index[id]
		if n == nil {
			continue
		}
		for _, branch := range sortedBranches(n) {
			target := n.Outgoing[branch]
			if target == "" || reachable[target] {
				continue
			}
			reachable[target] = true
			queue = append(queue, target)
		}
	}
	return reachable
}

func (v *FlowValidator) checkReachability(g *schema.FlowGraph, entry *schema.Node, reachable map[string]bool, result *schema.ValidationResult) {
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.Kind == schema.NodeKindTrigger || reachable[n.ID] {
			continue
		}
		result.AddError(schema.CategoryGraphCompleteness,
			fmt.Sprintf("node %q is unreachable from entry %q", n.ID, entry.ID)).
			At(g.ID, n.ID, "").
			Suggest("wire the node into the flow or remove it")
	}
}

func (v *FlowValidator) checkDeadEnds(g *schema.FlowGraph, reachable map[string]bool, result *schema.ValidationResult) {
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if !reachable[n.ID] || n.Kind == schema.NodeKindTerminal || len(n.Outgoing) > 0 {
			continue
		}
		// A tool flagged terminal legitimately ends its agent loop.
		if n.Kind == schema.NodeKindTool {
			var spec schema.ToolSpec
			if schema.DecodeSpec(n, &spec) == nil && spec.Terminal {
				continue
			}
		}
		result.AddError(schema.CategoryGraphCompleteness,
			fmt.Sprintf("node %q is a dead end: reachable, non-terminal, no outgoing edges", n.ID)).
			At(g.ID, n.ID, "").
			Suggest("connect the node to a terminal or downstream node")
	}
}

// checkBranchCompleteness verifies each node's outgoing branches against the
// per-kind branch tables. Each missing branch is its own issue naming that
// branch.
func (v *FlowValidator) checkBranchCompleteness(g *schema.FlowGraph, result *schema.ValidationResult) {
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.Kind == schema.NodeKindTerminal {
			continue
		}

		required := schema.RequiredBranches[n.Kind]
		advisory := schema.AdvisoryBranches[n.Kind]

		if n.Kind == schema.NodeKindParallel {
			var spec schema.ParallelSpec
			if err := schema.DecodeSpec(n, &spec); err != nil {
				// Reported by checkSpecCompleteness; the expected branch
				// set is unknowable here.
				continue
			}
			for b := 0; b < spec.Branches; b++ {
				required = append(required, fmt.Sprintf("branch-%d", b))
			}
		}

		for _, branch := range required {
			if _, ok := n.Outgoing[branch]; !ok {
				result.AddError(schema.CategoryGraphCompleteness,
					fmt.Sprintf("node %q is missing required branch %q", n.ID, branch)).
					At(g.ID, n.ID, "").
					Suggest(fmt.Sprintf("wire the %q branch to a target node", branch))
			}
		}
		for _, branch := range advisory {
			if _, ok := n.Outgoing[branch]; !ok {
				result.AddWarning(schema.CategoryGraphCompleteness,
					fmt.Sprintf("node %q has no %q branch", n.ID, branch)).
					At(g.ID, n.ID, "")
			}
		}

		// Unknown branch names on kinds with a fixed branch set.
		if allowed := allowedBranches(n, required, advisory); allowed != nil {
			for _, branch := range sortedBranches(n) {
				if !allowed[branch] {
					result.AddWarning(schema.CategoryGraphCompleteness,
						fmt.Sprintf("node %q has unknown branch %q for kind %q", n.ID, branch, n.Kind)).
						At(g.ID, n.ID, "")
				}
			}
		}
	}
}

// allowedBranches returns the valid branch-name set for a node, or nil when
// the kind takes a single default branch (anything goes there is still just
// "default", checked below).
func allowedBranches(n *schema.Node, required, advisory []string) map[string]bool {
	if len(required) == 0 && len(advisory) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(required)+len(advisory))
	for _, b := range required {
		allowed[b] = true
	}
	for _, b := range advisory {
		allowed[b] = true
	}
	return allowed
}

// checkCycles runs a three-color DFS over the whole edge relation. A
// back-edge to a gray node yields one cycle error naming the graph.
// Agent graphs are exempt: agent_loop intentionally iterates.
func (v *FlowValidator) checkCycles(g *schema.FlowGraph, result *schema.ValidationResult) {
	adj := make(map[string][]string, len(g.Nodes))
	order := make([]string, 0, len(g.Nodes))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		order = append(order, n.ID)
		for _, branch := range sortedBranches(n) {
			adj[n.ID] = append(adj[n.ID], n.Outgoing[branch])
		}
	}

	if cycle := findCycle(order, adj); cycle != nil {
		result.AddError(schema.CategoryGraphCompleteness,
			fmt.Sprintf("flow %q contains a cycle: %s", g.ID, joinPath(cycle))).
			At(g.ID, "", "").
			Suggest("traditional flows must be acyclic; use a loop node or an agent flow for iteration")
	}
}

// checkAgentLoops validates agent_loop completeness: at least one reachable
// tool, at least one of them flagged terminal, and a configured iteration
// bound.
func (v *FlowValidator) checkAgentLoops(g *schema.FlowGraph, result *schema.ValidationResult) {
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.Kind != schema.NodeKindAgentLoop {
			continue
		}

		reachable := reachableFrom(g, n.ID)
		var tools, terminalTools int
		for j := range g.Nodes {
			t := &g.Nodes[j]
			if t.Kind != schema.NodeKindTool || !reachable[t.ID] {
				continue
			}
			tools++
			var spec schema.ToolSpec
			if schema.DecodeSpec(t, &spec) == nil && spec.Terminal {
				terminalTools++
			}
		}

		if tools == 0 {
			result.AddError(schema.CategorySpecCompleteness,
				fmt.Sprintf("agent loop %q has no reachable tool nodes", n.ID)).
				At(g.ID, n.ID, "")
		} else if terminalTools == 0 {
			result.AddError(schema.CategorySpecCompleteness,
				fmt.Sprintf("agent loop %q has no tool flagged terminal; the loop could never end", n.ID)).
				At(g.ID, n.ID, "").
				Suggest("flag at least one reachable tool as terminal")
		}

		var spec schema.AgentLoopSpec
		if schema.DecodeSpec(n, &spec) == nil && spec.MaxIterations <= 0 {
			result.AddWarning(schema.CategorySpecCompleteness,
				fmt.Sprintf("agent loop %q has no iteration bound configured", n.ID)).
				At(g.ID, n.ID, "").
				Suggest("set max_iterations to bound the loop")
		}
	}
}

// checkSpecCompleteness verifies kind-specific required fields.
func (v *FlowValidator) checkSpecCompleteness(g *schema.FlowGraph, result *schema.ValidationResult) {
	for i := range g.Nodes {
		v.checkNodeSpec(g, &g.Nodes[i], result)
	}
}

func (v *FlowValidator) checkNodeSpec(g *schema.FlowGraph, n *schema.Node, result *schema.ValidationResult) {
	addErr := func(format string, args ...any) *schema.ValidationIssue {
		return result.AddError(schema.CategorySpecCompleteness,
			fmt.Sprintf(format, args...)).At(g.ID, n.ID, "")
	}

	switch n.Kind {
	case schema.NodeKindTrigger:
		var spec schema.TriggerSpec
		if err := schema.DecodeSpec(n, &spec); err != nil {
			addErr("trigger %q has malformed spec: %v", n.ID, err)
			return
		}
		if spec.Type == "" {
			addErr("trigger %q has no trigger type", n.ID)
			return
		}
		switch spec.Type {
		case "http":
			if spec.Method == "" {
				addErr("http trigger %q has no method", n.ID)
			}
			if spec.Path == "" {
				addErr("http trigger %q has no path", n.ID)
			}
		case "schedule":
			if spec.Schedule == "" {
				addErr("schedule trigger %q has no schedule", n.ID)
			} else if _, err := v.cronParser.Parse(spec.Schedule); err != nil {
				addErr("schedule trigger %q has invalid cron expression %q: %v", n.ID, spec.Schedule, err)
			}
		case "event":
			if spec.Event == "" {
				addErr("event trigger %q names no event", n.ID)
			}
		}

	case schema.NodeKindInput:
		var spec schema.InputSpec
		if err := schema.DecodeSpec(n, &spec); err != nil {
			addErr("input %q has malformed spec: %v", n.ID, err)
			return
		}
		for fi, f := range spec.Fields {
			if f.Name == "" {
				addErr("input %q field %d has no name", n.ID, fi)
			}
			if f.Type == "" {
				addErr("input %q field %q has no type", n.ID, f.Name)
			}
			// Degrades feedback but the field still functions.
			if hasConstraints(f) && f.ErrorMessage == "" {
				result.AddWarning(schema.CategorySpecCompleteness,
					fmt.Sprintf("input %q field %q has validation rules but no error message", n.ID, f.Name)).
					At(g.ID, n.ID, "").
					Suggest("configure error_message so rejections explain themselves")
			}
		}

	case schema.NodeKindDecision:
		var spec schema.DecisionSpec
		if err := schema.DecodeSpec(n, &spec); err != nil {
			addErr("decision %q has malformed spec: %v", n.ID, err)
			return
		}
		if spec.Condition == "" {
			addErr("decision %q has no condition", n.ID)
			return
		}
		v.checkExpression(g, n, spec.Condition, spec.Engine, "cel", result)

	case schema.NodeKindProcess:
		var spec schema.ProcessSpec
		if err := schema.DecodeSpec(n, &spec); err != nil {
			addErr("process %q has malformed spec: %v", n.ID, err)
			return
		}
		if spec.Transform != "" {
			v.checkExpression(g, n, spec.Transform, spec.Engine, "jq", result)
		}

	case schema.NodeKindLoop:
		var spec schema.LoopSpec
		if err := schema.DecodeSpec(n, &spec); err != nil {
			addErr("loop %q has malformed spec: %v", n.ID, err)
			return
		}
		if spec.Condition != "" {
			v.checkExpression(g, n, spec.Condition, spec.Engine, "cel", result)
		}

	case schema.NodeKindLLMCall:
		var spec schema.LLMCallSpec
		if err := schema.DecodeSpec(n, &spec); err != nil {
			addErr("llm call %q has malformed spec: %v", n.ID, err)
			return
		}
		if spec.Model == "" {
			addErr("llm call %q names no model", n.ID)
		}

	case schema.NodeKindSubFlow:
		var spec schema.SubFlowSpec
		if err := schema.DecodeSpec(n, &spec); err != nil {
			addErr("sub-flow %q has malformed spec: %v", n.ID, err)
			return
		}
		if spec.FlowID == "" {
			addErr("sub-flow %q references no flow", n.ID)
		}

	case schema.NodeKindEvent:
		var spec schema.EventSpec
		if err := schema.DecodeSpec(n, &spec); err != nil {
			addErr("event node %q has malformed spec: %v", n.ID, err)
			return
		}
		if spec.Event == "" {
			addErr("event node %q names no event", n.ID)
		}

	case schema.NodeKindOrchestrator:
		var spec schema.OrchestratorSpec
		if err := schema.DecodeSpec(n, &spec); err != nil {
			addErr("orchestrator %q has malformed spec: %v", n.ID, err)
			return
		}
		if len(spec.Members) == 0 {
			addErr("orchestrator %q has no members", n.ID)
		} else if spec.MinMembers > 0 && len(spec.Members) < spec.MinMembers {
			addErr("orchestrator %q has %d members, minimum is %d", n.ID, len(spec.Members), spec.MinMembers)
		}

	case schema.NodeKindSmartRouter:
		var spec schema.SmartRouterSpec
		if err := schema.DecodeSpec(n, &spec); err != nil {
			addErr("smart router %q has malformed spec: %v", n.ID, err)
			return
		}
		if len(spec.Routes) == 0 {
			addErr("smart router %q has no routes", n.ID)
		}

	case schema.NodeKindHandoff:
		var spec schema.HandoffSpec
		if err := schema.DecodeSpec(n, &spec); err != nil {
			addErr("handoff %q has malformed spec: %v", n.ID, err)
			return
		}
		if spec.Target == "" {
			addErr("handoff %q has no target", n.ID)
		}

	case schema.NodeKindTerminal:
		var spec schema.TerminalSpec
		if err := schema.DecodeSpec(n, &spec); err != nil {
			addErr("terminal %q has malformed spec: %v", n.ID, err)
		}

	case schema.NodeKindDataStore:
		var spec schema.DataStoreSpec
		if err := schema.DecodeSpec(n, &spec); err != nil {
			addErr("data store %q has malformed spec: %v", n.ID, err)
		}

	case schema.NodeKindServiceCall:
		var spec schema.ServiceCallSpec
		if err := schema.DecodeSpec(n, &spec); err != nil {
			addErr("service call %q has malformed spec: %v", n.ID, err)
		}

	case schema.NodeKindParallel:
		var spec schema.ParallelSpec
		if err := schema.DecodeSpec(n, &spec); err != nil {
			addErr("parallel %q has malformed spec: %v", n.ID, err)
		}

	case schema.NodeKindAgentLoop:
		var spec schema.AgentLoopSpec
		if err := schema.DecodeSpec(n, &spec); err != nil {
			addErr("agent loop %q has malformed spec: %v", n.ID, err)
		}

	case schema.NodeKindTool:
		var spec schema.ToolSpec
		if err := schema.DecodeSpec(n, &spec); err != nil {
			addErr("tool %q has malformed spec: %v", n.ID, err)
		}
	}
}

// checkExpression compiles an expression with its declared engine, falling
// back to the kind's default engine name.
func (v *FlowValidator) checkExpression(g *schema.FlowGraph, n *schema.Node, expression, engineName, defaultEngine string, result *schema.ValidationResult) {
	if engineName == "" {
		engineName = defaultEngine
	}
	engine := v.engines.ByName(engineName)
	if engine == nil {
		result.AddError(schema.CategorySpecCompleteness,
			fmt.Sprintf("node %q declares unknown expression engine %q", n.ID, engineName)).
			At(g.ID, n.ID, "")
		return
	}
	if err := engine.Compile(expression); err != nil {
		result.AddError(schema.CategorySpecCompleteness,
			fmt.Sprintf("node %q has invalid %s expression: %v", n.ID, engine.Name(), err)).
			At(g.ID, n.ID, "")
	}
}

func hasConstraints(f schema.FieldSpec) bool {
	return f.Required || f.MinLength != nil || f.MaxLength != nil ||
		f.Min != nil || f.Max != nil || f.Format != ""
}

// sortedBranches returns a node's branch names in deterministic order.
func sortedBranches(n *schema.Node) []string {
	branches := make([]string, 0, len(n.Outgoing))
	for b := range n.Outgoing {
		branches = append(branches, b)
	}
	sort.Strings(branches)
	return branches
}
