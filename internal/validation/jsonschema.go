package validation

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/rendis/flowscope/pkg/schema"
)

// flowSchemaJSON is the JSON Schema for raw flow documents handed over by
// the editing layer. Embedded as a constant to avoid filesystem dependencies.
const flowSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://flowscope.dev/schemas/flow.json",
  "type": "object",
  "required": ["id", "kind", "nodes"],
  "properties": {
    "id": { "type": "string", "minLength": 1 },
    "kind": {
      "type": "string",
      "enum": ["traditional", "agent", "orchestration"]
    },
    "name": { "type": "string" },
    "nodes": {
      "type": "array",
      "items": { "$ref": "#/$defs/node" }
    }
  },
  "additionalProperties": false,
  "$defs": {
    "node": {
      "type": "object",
      "required": ["id", "kind"],
      "properties": {
        "id": { "type": "string", "minLength": 1 },
        "kind": { "type": "string", "minLength": 1 },
        "name": { "type": "string" },
        "spec": { "type": "object" },
        "outgoing": {
          "type": "object",
          "additionalProperties": { "type": "string" }
        }
      },
      "additionalProperties": false
    }
  }
}`

// DocumentValidator checks raw flow documents against the embedded JSON
// Schema before graph analysis. It is safe for concurrent use.
type DocumentValidator struct {
	once       sync.Once
	flowSchema *jsonschema.Schema
	compileErr error
}

// NewDocumentValidator creates a DocumentValidator; the schema is compiled
// lazily on first use.
func NewDocumentValidator() *DocumentValidator {
	return &DocumentValidator{}
}

func (v *DocumentValidator) compiled() (*jsonschema.Schema, error) {
	v.once.Do(func() {
		c := jsonschema.NewCompiler()
		c.AssertFormat()

		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(flowSchemaJSON))
		if err != nil {
			v.compileErr = fmt.Errorf("unmarshal flow schema: %w", err)
			return
		}
		if err := c.AddResource("https://flowscope.dev/schemas/flow.json", doc); err != nil {
			v.compileErr = fmt.Errorf("add flow schema resource: %w", err)
			return
		}
		v.flowSchema, v.compileErr = c.Compile("https://flowscope.dev/schemas/flow.json")
	})
	return v.flowSchema, v.compileErr
}

// DecodeFlow validates a raw JSON flow document structurally and decodes it.
// Every defect is reported as a ValidationIssue; the returned graph is nil
// only when decoding is impossible. Malformed input never raises.
func (v *DocumentValidator) DecodeFlow(raw []byte) (*schema.FlowGraph, *schema.ValidationResult) {
	result := schema.NewValidationResult(schema.ScopeFlow, "")

	compiled, err := v.compiled()
	if err != nil {
		result.AddError(schema.CategorySpecCompleteness,
			fmt.Sprintf("flow schema unavailable: %v", err))
		return nil, result
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(raw)))
	if err != nil {
		result.AddError(schema.CategorySpecCompleteness,
			fmt.Sprintf("flow document is not valid JSON: %v", err))
		return nil, result
	}

	if err := compiled.Validate(doc); err != nil {
		for _, violation := range collectViolations(err) {
			result.AddError(schema.CategorySpecCompleteness, violation)
		}
	}

	var g schema.FlowGraph
	if err := json.Unmarshal(raw, &g); err != nil {
		result.AddError(schema.CategorySpecCompleteness,
			fmt.Sprintf("flow document does not decode: %v", err))
		return nil, result
	}
	result.TargetID = g.ID

	// Duplicate node IDs are inexpressible in JSON Schema; the flow
	// validator reports them too, but a structurally broken document
	// should already say so here.
	seen := make(map[string]bool, len(g.Nodes))
	for i := range g.Nodes {
		id := g.Nodes[i].ID
		if seen[id] {
			result.AddError(schema.CategorySpecCompleteness,
				fmt.Sprintf("duplicate node id %q in document", id)).
				At(g.ID, id, "")
		}
		seen[id] = true
	}

	return &g, result
}

// collectViolations walks a ValidationError tree and collects leaf messages
// with their instance locations.
func collectViolations(err error) []string {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{err.Error()}
	}
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}

	var violations []string
	for _, cause := range verr.Causes {
		violations = append(violations, collectViolations(cause)...)
	}
	return violations
}
