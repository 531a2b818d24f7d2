package derive

import (
	"strings"

	"github.com/rendis/flowscope/pkg/schema"
)

// DeriveBoundaries generates boundary-value test cases for every declared
// field of every input node, independently per present constraint: a
// missing case if required, below/at minimum if a minimum is declared,
// at/above maximum if a maximum is declared, a malformed case if a format
// is declared, and always one valid case. Output order is deterministic.
func DeriveBoundaries(g *schema.FlowGraph) []schema.BoundaryTest {
	if g == nil {
		return nil
	}

	var tests []schema.BoundaryTest
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if n.Kind != schema.NodeKindInput {
			continue
		}
		var spec schema.InputSpec
		if schema.DecodeSpec(n, &spec) != nil {
			continue // malformed spec reported by the validator
		}
		for _, f := range spec.Fields {
			tests = append(tests, fieldBoundaries(n.ID, f)...)
		}
	}
	return tests
}

func fieldBoundaries(nodeID string, f schema.FieldSpec) []schema.BoundaryTest {
	add := func(kind schema.BoundaryKind, value any, ok bool) schema.BoundaryTest {
		t := schema.BoundaryTest{
			Field:         f.Name,
			NodeID:        nodeID,
			Kind:          kind,
			Value:         value,
			ExpectSuccess: ok,
		}
		if !ok {
			t.ExpectedError = f.ErrorMessage
		}
		return t
	}

	var tests []schema.BoundaryTest

	if f.Required {
		tests = append(tests, add(schema.BoundaryMissing, nil, false))
	}

	if f.Type == "string" {
		if f.MinLength != nil {
			min := *f.MinLength
			if min > 0 {
				tests = append(tests, add(schema.BoundaryBelowMin, repeatedString(min-1), false))
			}
			tests = append(tests, add(schema.BoundaryAtMin, repeatedString(min), true))
		}
		if f.MaxLength != nil {
			max := *f.MaxLength
			tests = append(tests, add(schema.BoundaryAtMax, repeatedString(max), true))
			tests = append(tests, add(schema.BoundaryAboveMax, repeatedString(max+1), false))
		}
	} else {
		if f.Min != nil {
			tests = append(tests, add(schema.BoundaryBelowMin, *f.Min-1, false))
			tests = append(tests, add(schema.BoundaryAtMin, *f.Min, true))
		}
		if f.Max != nil {
			tests = append(tests, add(schema.BoundaryAtMax, *f.Max, true))
			tests = append(tests, add(schema.BoundaryAboveMax, *f.Max+1, false))
		}
	}

	if f.Format != "" {
		tests = append(tests, add(schema.BoundaryBadFormat, malformedValue(f.Format), false))
	}

	tests = append(tests, add(schema.BoundaryValid, validValue(f), true))
	return tests
}

// repeatedString builds a string of exactly n characters.
func repeatedString(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("a", n)
}

// validValue produces a value that satisfies every declared constraint.
func validValue(f schema.FieldSpec) any {
	if f.Format != "" {
		return wellFormedValue(f.Format)
	}
	switch f.Type {
	case "string":
		length := 5
		if f.MinLength != nil {
			length = *f.MinLength
		}
		if f.MaxLength != nil && length > *f.MaxLength {
			length = *f.MaxLength
		}
		if length < 1 {
			length = 1
		}
		return repeatedString(length)
	case "number":
		if f.Min != nil {
			return *f.Min
		}
		if f.Max != nil {
			return *f.Max
		}
		return float64(1)
	case "boolean":
		return true
	case "array":
		return []any{}
	case "object":
		return map[string]any{}
	default:
		return "value"
	}
}

func wellFormedValue(format string) any {
	switch format {
	case "email":
		return "user@example.com"
	case "uuid":
		return "00000000-0000-4000-8000-000000000000"
	case "date":
		return "2026-01-15"
	case "url":
		return "https://example.com/path"
	default:
		return "value"
	}
}

func malformedValue(format string) any {
	switch format {
	case "email":
		return "not-an-email"
	case "uuid":
		return "not-a-uuid"
	case "date":
		return "15/01/2026"
	case "url":
		return "not a url"
	default:
		return "\x00malformed"
	}
}
