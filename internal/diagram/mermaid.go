package diagram

import (
	"fmt"
	"strings"

	"github.com/rendis/flowscope/pkg/schema"
)

// RenderMermaid renders a flow graph as a Mermaid flowchart string, for the
// canvas preview and CLI output.
func RenderMermaid(g *schema.FlowGraph) string {
	model := Build(g)

	var b strings.Builder
	b.WriteString("graph TD\n")

	if model.Title != "" {
		b.WriteString(fmt.Sprintf("    %%%% %s\n", model.Title))
	}

	for _, node := range model.Nodes {
		b.WriteString(fmt.Sprintf("    %s\n", mermaidNodeDef(node)))
	}

	for _, edge := range model.Edges {
		label := ""
		if edge.Branch != "" && edge.Branch != schema.BranchDefault {
			label = fmt.Sprintf("|%s|", edge.Branch)
		}
		b.WriteString(fmt.Sprintf("    %s -->%s %s\n",
			mermaidSafeID(edge.From), label, mermaidSafeID(edge.To)))
	}

	return b.String()
}

// mermaidNodeDef picks a shape per node kind.
func mermaidNodeDef(node Node) string {
	id := mermaidSafeID(node.ID)
	label := mermaidSafeLabel(node.Label)

	switch node.Kind {
	case schema.NodeKindTrigger:
		return fmt.Sprintf("%s([\"%s\"])", id, label)
	case schema.NodeKindDecision, schema.NodeKindSmartRouter:
		return fmt.Sprintf("%s{\"%s\"}", id, label)
	case schema.NodeKindTerminal:
		return fmt.Sprintf("%s[[\"%s\"]]", id, label)
	case schema.NodeKindDataStore:
		return fmt.Sprintf("%s[(\"%s\")]", id, label)
	case schema.NodeKindLoop, schema.NodeKindAgentLoop:
		return fmt.Sprintf("%s((\"%s\"))", id, label)
	case schema.NodeKindSubFlow, schema.NodeKindOrchestrator:
		return fmt.Sprintf("%s[/\"%s\"/]", id, label)
	default:
		return fmt.Sprintf("%s[\"%s\"]", id, label)
	}
}

// mermaidSafeID strips characters Mermaid treats as syntax from node IDs.
func mermaidSafeID(id string) string {
	r := strings.NewReplacer(" ", "_", "-", "_", ".", "_", "\"", "", "[", "", "]", "", "(", "", ")", "")
	return r.Replace(id)
}

func mermaidSafeLabel(label string) string {
	return strings.ReplaceAll(label, "\"", "'")
}
