package schema

// Severity ranks a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// IssueCategory classifies a validation issue by the rule family that
// produced it.
type IssueCategory string

const (
	CategoryGraphCompleteness  IssueCategory = "graph_completeness"
	CategorySpecCompleteness   IssueCategory = "spec_completeness"
	CategoryReferenceIntegrity IssueCategory = "reference_integrity"
	CategoryEventWiring        IssueCategory = "event_wiring"
	CategoryDomainConsistency  IssueCategory = "domain_consistency"
)

// Scope identifies which level of the system a validation was run at.
type Scope string

const (
	ScopeFlow   Scope = "flow"
	ScopeDomain Scope = "domain"
	ScopeSystem Scope = "system"
)

// ValidationIssue is a single defect found during analysis. Malformed input
// is never an error return; every defect becomes an issue.
type ValidationIssue struct {
	Severity   Severity      `json:"severity"`
	Category   IssueCategory `json:"category"`
	Message    string        `json:"message"`
	FlowID     string        `json:"flow_id,omitempty"`
	NodeID     string        `json:"node_id,omitempty"`
	DomainID   string        `json:"domain_id,omitempty"`
	Suggestion string        `json:"suggestion,omitempty"`
}

// ValidationResult aggregates every issue found in one validation pass.
// Checks are additive: one failing check never suppresses another.
type ValidationResult struct {
	Scope    Scope             `json:"scope"`
	TargetID string            `json:"target_id"`
	Issues   []ValidationIssue `json:"issues"`
}

// NewValidationResult creates an empty result for the given scope and target.
func NewValidationResult(scope Scope, targetID string) *ValidationResult {
	return &ValidationResult{Scope: scope, TargetID: targetID}
}

// IsValid reports whether the result contains no error-severity issue.
// Warnings and infos are advisory.
func (r *ValidationResult) IsValid() bool {
	for _, iss := range r.Issues {
		if iss.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Add appends an issue.
func (r *ValidationResult) Add(iss ValidationIssue) {
	r.Issues = append(r.Issues, iss)
}

// AddError appends an error-severity issue.
func (r *ValidationResult) AddError(cat IssueCategory, message string) *ValidationIssue {
	r.Issues = append(r.Issues, ValidationIssue{
		Severity: SeverityError, Category: cat, Message: message,
	})
	return &r.Issues[len(r.Issues)-1]
}

// AddWarning appends a warning-severity issue.
func (r *ValidationResult) AddWarning(cat IssueCategory, message string) *ValidationIssue {
	r.Issues = append(r.Issues, ValidationIssue{
		Severity: SeverityWarning, Category: cat, Message: message,
	})
	return &r.Issues[len(r.Issues)-1]
}

// AddInfo appends an info-severity issue.
func (r *ValidationResult) AddInfo(cat IssueCategory, message string) *ValidationIssue {
	r.Issues = append(r.Issues, ValidationIssue{
		Severity: SeverityInfo, Category: cat, Message: message,
	})
	return &r.Issues[len(r.Issues)-1]
}

// Merge appends another result's issues into this one.
func (r *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	r.Issues = append(r.Issues, other.Issues...)
}

// Errors returns only the error-severity issues.
func (r *ValidationResult) Errors() []ValidationIssue {
	var out []ValidationIssue
	for _, iss := range r.Issues {
		if iss.Severity == SeverityError {
			out = append(out, iss)
		}
	}
	return out
}

// At attaches location context to an issue, for call chaining:
//
//	result.AddError(cat, msg).At(flowID, nodeID, "")
func (i *ValidationIssue) At(flowID, nodeID, domainID string) *ValidationIssue {
	i.FlowID = flowID
	i.NodeID = nodeID
	i.DomainID = domainID
	return i
}

// Suggest attaches a remediation hint to an issue.
func (i *ValidationIssue) Suggest(s string) *ValidationIssue {
	i.Suggestion = s
	return i
}
