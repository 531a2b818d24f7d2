package schema

// PathClassification labels a derived test path by its expected outcome.
type PathClassification string

const (
	PathHappy    PathClassification = "happy_path"
	PathError    PathClassification = "error_path"
	PathEdgeCase PathClassification = "edge_case"
)

// TestPath is one entry-to-terminal path through a flow, with the branch
// labels taken along the way.
type TestPath struct {
	ID              string             `json:"id"`
	Classification  PathClassification `json:"classification"`
	Nodes           []string           `json:"nodes"`
	Branches        []string           `json:"branches,omitempty"`
	ExpectedOutcome string             `json:"expected_outcome"`
}

// BoundaryKind labels the constraint a boundary test probes.
type BoundaryKind string

const (
	BoundaryValid     BoundaryKind = "valid"
	BoundaryMissing   BoundaryKind = "missing"
	BoundaryBelowMin  BoundaryKind = "below_min"
	BoundaryAtMin     BoundaryKind = "at_min"
	BoundaryAtMax     BoundaryKind = "at_max"
	BoundaryAboveMax  BoundaryKind = "above_max"
	BoundaryBadFormat BoundaryKind = "bad_format"
)

// BoundaryTest is one directly assertable boundary-value case for a declared
// input field.
type BoundaryTest struct {
	Field         string       `json:"field"`
	NodeID        string       `json:"node_id,omitempty"`
	Kind          BoundaryKind `json:"kind"`
	Value         any          `json:"value"`
	ExpectSuccess bool         `json:"expect_success"`
	ExpectedError string       `json:"expected_error,omitempty"`
}
