package validation

import (
	"fmt"

	"github.com/rendis/flowscope/pkg/schema"
)

// DomainValidator checks one domain for internal consistency: duplicate flow
// IDs and duplicate (method, path) trigger pairs.
type DomainValidator struct{}

// NewDomainValidator creates a DomainValidator.
func NewDomainValidator() *DomainValidator {
	return &DomainValidator{}
}

// Validate runs every domain-scope check and returns the complete issue set.
func (v *DomainValidator) Validate(d *schema.Domain) *schema.ValidationResult {
	name := ""
	if d != nil {
		name = d.Name
	}
	result := schema.NewValidationResult(schema.ScopeDomain, name)
	if d == nil {
		result.AddError(schema.CategoryDomainConsistency, "domain is nil")
		return result
	}

	v.checkDuplicateFlowIDs(d, result)
	v.checkDuplicateTriggers(d, result)

	return result
}

func (v *DomainValidator) checkDuplicateFlowIDs(d *schema.Domain, result *schema.ValidationResult) {
	seen := make(map[string]bool, len(d.Flows))
	for _, f := range d.Flows {
		if seen[f.ID] {
			result.AddError(schema.CategoryDomainConsistency,
				fmt.Sprintf("duplicate flow id %q in domain %q", f.ID, d.Name)).
				At(f.ID, "", d.Name)
			continue
		}
		seen[f.ID] = true
	}
}

// checkDuplicateTriggers reports each (method, path) pair claimed by more
// than one http trigger in the domain, once per offending pair.
func (v *DomainValidator) checkDuplicateTriggers(d *schema.Domain, result *schema.ValidationResult) {
	type route struct{ method, path string }
	owners := map[route][]string{}
	var order []route

	for _, f := range d.Flows {
		for i := range f.Nodes {
			n := &f.Nodes[i]
			if n.Kind != schema.NodeKindTrigger {
				continue
			}
			var spec schema.TriggerSpec
			if schema.DecodeSpec(n, &spec) != nil || spec.Type != "http" || spec.Method == "" || spec.Path == "" {
				continue
			}
			r := route{spec.Method, spec.Path}
			if _, ok := owners[r]; !ok {
				order = append(order, r)
			}
			owners[r] = append(owners[r], f.ID)
		}
	}

	for _, r := range order {
		flows := owners[r]
		if len(flows) < 2 {
			continue
		}
		result.AddError(schema.CategoryDomainConsistency,
			fmt.Sprintf("duplicate trigger %s %s in domain %q, declared by flows %v", r.method, r.path, d.Name, flows)).
			At("", "", d.Name).
			Suggest("give each flow a distinct method and path")
	}
}
