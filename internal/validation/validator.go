package validation

import "github.com/rendis/flowscope/pkg/schema"

// Validator is the full analysis surface the editing layer calls into.
// All methods are pure functions of their input snapshots: nothing is
// retained between calls and inputs are never mutated.
type Validator interface {
	ValidateFlow(g *schema.FlowGraph) *schema.ValidationResult
	ValidateDomain(d *schema.Domain) *schema.ValidationResult
	ValidateSystem(s *schema.System, reg *schema.Registries) *schema.ValidationResult
}

// GraphValidator bundles the flow, domain and system validators behind the
// Validator interface.
type GraphValidator struct {
	flow   *FlowValidator
	domain *DomainValidator
	system *SystemValidator
}

// NewGraphValidator creates a GraphValidator with default sub-validators.
func NewGraphValidator() (*GraphValidator, error) {
	fv, err := NewFlowValidator()
	if err != nil {
		return nil, err
	}
	return &GraphValidator{
		flow:   fv,
		domain: NewDomainValidator(),
		system: NewSystemValidator(),
	}, nil
}

// ValidateFlow checks one flow graph for structural soundness and spec
// completeness.
func (v *GraphValidator) ValidateFlow(g *schema.FlowGraph) *schema.ValidationResult {
	return v.flow.Validate(g)
}

// ValidateDomain checks one domain for internal consistency. Per-flow issues
// are not repeated here; run ValidateFlow per flow for those.
func (v *GraphValidator) ValidateDomain(d *schema.Domain) *schema.ValidationResult {
	return v.domain.Validate(d)
}

// ValidateSystem checks cross-domain wiring and reference integrity against
// the shared registries.
func (v *GraphValidator) ValidateSystem(s *schema.System, reg *schema.Registries) *schema.ValidationResult {
	return v.system.Validate(s, reg)
}

// ValidateAll runs every scope over a full system snapshot: each flow, each
// domain, then the system itself. The results are returned in deterministic
// order: flows in document order per domain, domains in order, system last.
// Gate decision: the caller must refuse downstream generation while any
// result contains an error-severity issue.
func (v *GraphValidator) ValidateAll(s *schema.System, reg *schema.Registries) []*schema.ValidationResult {
	var results []*schema.ValidationResult
	if s == nil {
		return []*schema.ValidationResult{v.system.Validate(nil, reg)}
	}
	for _, d := range s.Domains {
		for _, f := range d.Flows {
			results = append(results, v.flow.Validate(f))
		}
		results = append(results, v.domain.Validate(d))
	}
	results = append(results, v.system.Validate(s, reg))
	return results
}
