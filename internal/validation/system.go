package validation

import (
	"fmt"
	"sort"

	"github.com/rendis/flowscope/pkg/schema"
)

// SystemValidator checks cross-domain wiring: event publication/consumption,
// payload-shape matching, reference integrity against the shared registries,
// and cycles in the system-wide orchestration reference graph.
type SystemValidator struct{}

// NewSystemValidator creates a SystemValidator.
func NewSystemValidator() *SystemValidator {
	return &SystemValidator{}
}

// Validate runs every system-scope check against an immutable snapshot of
// the full system plus the shared registries. reg may be nil to skip
// registry-backed checks.
func (v *SystemValidator) Validate(s *schema.System, reg *schema.Registries) *schema.ValidationResult {
	result := schema.NewValidationResult(schema.ScopeSystem, "system")
	if s == nil {
		result.AddError(schema.CategoryReferenceIntegrity, "system is nil")
		return result
	}

	v.checkDuplicateDomains(s, result)
	v.checkEventWiring(s, result)
	v.checkReferences(s, reg, result)
	v.checkOrchestrationCycles(s, result)

	return result
}

func (v *SystemValidator) checkDuplicateDomains(s *schema.System, result *schema.ValidationResult) {
	seen := make(map[string]bool, len(s.Domains))
	for _, d := range s.Domains {
		if seen[d.Name] {
			result.AddError(schema.CategoryDomainConsistency,
				fmt.Sprintf("duplicate domain name %q", d.Name)).
				At("", "", d.Name)
			continue
		}
		seen[d.Name] = true
	}
}

// checkEventWiring matches consumed events against publishers across the
// whole system. A consumer with no publisher anywhere is an error; a
// publisher with no consumer is a warning; payload shapes are compared
// field by field per consumer/publisher pair.
func (v *SystemValidator) checkEventWiring(s *schema.System, result *schema.ValidationResult) {
	type decl struct {
		domain string
		schema.EventDecl
	}
	publishers := map[string][]decl{}
	consumers := map[string][]decl{}

	for _, d := range s.Domains {
		for _, e := range d.Published {
			publishers[e.Event] = append(publishers[e.Event], decl{d.Name, e})
		}
		for _, e := range d.Consumed {
			consumers[e.Event] = append(consumers[e.Event], decl{d.Name, e})
		}
	}

	// Consumers without a publisher, and payload mismatches.
	for _, d := range s.Domains {
		for _, e := range d.Consumed {
			pubs := publishers[e.Event]
			if len(pubs) == 0 {
				result.AddError(schema.CategoryEventWiring,
					fmt.Sprintf("domain %q consumes event %q but no domain publishes it", d.Name, e.Event)).
					At(e.FlowID, "", d.Name).
					Suggest("publish the event from a producing flow or remove the consumption")
				continue
			}
			if len(e.Payload) == 0 {
				continue
			}
			for _, pub := range pubs {
				if len(pub.Payload) == 0 {
					continue
				}
				v.comparePayloads(d.Name, pub.domain, e, pub.EventDecl, result)
			}
		}
	}

	// Publishers without a consumer: unused output is not necessarily wrong.
	for _, d := range s.Domains {
		for _, e := range d.Published {
			if len(consumers[e.Event]) == 0 {
				result.AddWarning(schema.CategoryEventWiring,
					fmt.Sprintf("domain %q publishes event %q but no domain consumes it", d.Name, e.Event)).
					At(e.FlowID, "", d.Name)
			}
		}
	}
}

// comparePayloads reports every field the consumer expects that the
// publisher's shape lacks (one error per missing field), and extra publisher
// fields as informational.
func (v *SystemValidator) comparePayloads(consumerDomain, publisherDomain string, consumer, publisher schema.EventDecl, result *schema.ValidationResult) {
	for _, field := range sortedFields(consumer.Payload) {
		if _, ok := publisher.Payload[field]; !ok {
			result.AddError(schema.CategoryEventWiring,
				fmt.Sprintf("event %q: consumer in domain %q expects field %q missing from publisher in domain %q",
					consumer.Event, consumerDomain, field, publisherDomain)).
				At(consumer.FlowID, "", consumerDomain)
		}
	}
	for _, field := range sortedFields(publisher.Payload) {
		if _, ok := consumer.Payload[field]; !ok {
			result.AddInfo(schema.CategoryEventWiring,
				fmt.Sprintf("event %q: publisher in domain %q declares field %q not expected by consumer in domain %q",
					publisher.Event, publisherDomain, field, consumerDomain)).
				At(publisher.FlowID, "", publisherDomain)
		}
	}
}

// checkReferences verifies error codes, schema and model names against the
// registries, and sub-flow / orchestration references against the system's
// flow IDs. Unresolved references are errors, never crashes.
func (v *SystemValidator) checkReferences(s *schema.System, reg *schema.Registries, result *schema.ValidationResult) {
	flowIDs := collectFlowIDs(s)

	for _, d := range s.Domains {
		for _, f := range d.Flows {
			for i := range f.Nodes {
				v.checkNodeReferences(d, f, &f.Nodes[i], flowIDs, reg, result)
			}
		}
	}
}

func (v *SystemValidator) checkNodeReferences(d *schema.Domain, f *schema.FlowGraph, n *schema.Node, flowIDs map[string]bool, reg *schema.Registries, result *schema.ValidationResult) {
	addRef := func(format string, args ...any) *schema.ValidationIssue {
		return result.AddError(schema.CategoryReferenceIntegrity,
			fmt.Sprintf(format, args...)).At(f.ID, n.ID, d.Name)
	}

	checkErrorCodes := func(codes []string) {
		for _, code := range codes {
			if !reg.HasErrorCode(code) {
				addRef("node %q references unregistered error code %q", n.ID, code)
			}
		}
	}

	switch n.Kind {
	case schema.NodeKindDataStore:
		var spec schema.DataStoreSpec
		if schema.DecodeSpec(n, &spec) != nil {
			return // malformed spec reported at flow scope
		}
		if spec.Schema != "" && !reg.HasSchema(spec.Schema) {
			addRef("data store %q references unregistered schema %q", n.ID, spec.Schema)
		}
		checkErrorCodes(spec.ErrorCodes)

	case schema.NodeKindServiceCall:
		var spec schema.ServiceCallSpec
		if schema.DecodeSpec(n, &spec) != nil {
			return
		}
		checkErrorCodes(spec.ErrorCodes)

	case schema.NodeKindLLMCall:
		var spec schema.LLMCallSpec
		if schema.DecodeSpec(n, &spec) != nil {
			return
		}
		if spec.Model != "" && !reg.HasModel(spec.Model) {
			addRef("llm call %q references unregistered model %q", n.ID, spec.Model)
		}

	case schema.NodeKindSubFlow:
		var spec schema.SubFlowSpec
		if schema.DecodeSpec(n, &spec) != nil {
			return
		}
		if spec.FlowID != "" && !flowIDs[spec.FlowID] {
			addRef("sub-flow %q references unknown flow %q", n.ID, spec.FlowID)
		}

	case schema.NodeKindOrchestrator:
		var spec schema.OrchestratorSpec
		if schema.DecodeSpec(n, &spec) != nil {
			return
		}
		for _, member := range spec.Members {
			if !flowIDs[member] {
				addRef("orchestrator %q references unknown member %q", n.ID, member)
			}
		}

	case schema.NodeKindSmartRouter:
		var spec schema.SmartRouterSpec
		if schema.DecodeSpec(n, &spec) != nil {
			return
		}
		for _, route := range spec.Routes {
			if !flowIDs[route] {
				addRef("smart router %q references unknown route target %q", n.ID, route)
			}
		}

	case schema.NodeKindHandoff:
		var spec schema.HandoffSpec
		if schema.DecodeSpec(n, &spec) != nil {
			return
		}
		if spec.Target != "" && !flowIDs[spec.Target] {
			addRef("handoff %q references unknown target %q", n.ID, spec.Target)
		}
	}
}

// checkOrchestrationCycles builds one reference graph from every
// orchestrator/smart_router/handoff edge across the system and runs the
// three-color cycle check on it. A cycle is one error naming the full path.
// This graph is intentionally independent of the per-flow cycle check.
func (v *SystemValidator) checkOrchestrationCycles(s *schema.System, result *schema.ValidationResult) {
	adj := map[string][]string{}
	var order []string
	flowIDs := collectFlowIDs(s)

	addEdge := func(from string, targets []string) {
		for _, to := range targets {
			if flowIDs[to] {
				adj[from] = append(adj[from], to)
			}
		}
	}

	for _, d := range s.Domains {
		for _, f := range d.Flows {
			order = append(order, f.ID)
			for i := range f.Nodes {
				n := &f.Nodes[i]
				switch n.Kind {
				case schema.NodeKindOrchestrator:
					var spec schema.OrchestratorSpec
					if schema.DecodeSpec(n, &spec) == nil {
						addEdge(f.ID, spec.Members)
					}
				case schema.NodeKindSmartRouter:
					var spec schema.SmartRouterSpec
					if schema.DecodeSpec(n, &spec) == nil {
						addEdge(f.ID, spec.Routes)
					}
				case schema.NodeKindHandoff:
					var spec schema.HandoffSpec
					if schema.DecodeSpec(n, &spec) == nil && spec.Target != "" {
						addEdge(f.ID, []string{spec.Target})
					}
				}
			}
		}
	}

	if cycle := findCycle(order, adj); cycle != nil {
		result.AddError(schema.CategoryReferenceIntegrity,
			fmt.Sprintf("orchestration reference cycle: %s", joinPath(cycle))).
			Suggest("break the cycle by removing one orchestration reference")
	}
}

func collectFlowIDs(s *schema.System) map[string]bool {
	ids := map[string]bool{}
	for _, d := range s.Domains {
		for _, f := range d.Flows {
			ids[f.ID] = true
		}
	}
	return ids
}

func sortedFields(payload map[string]string) []string {
	fields := make([]string, 0, len(payload))
	for f := range payload {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}
