package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationResult_EmptyIsValid(t *testing.T) {
	r := NewValidationResult(ScopeFlow, "f1")
	assert.True(t, r.IsValid())
	assert.Empty(t, r.Errors())
}

func TestValidationResult_AddError(t *testing.T) {
	r := NewValidationResult(ScopeFlow, "f1")
	r.AddError(CategoryGraphCompleteness, "node unreachable").At("f1", "n2", "")

	assert.False(t, r.IsValid())
	require.Len(t, r.Issues, 1)
	assert.Equal(t, SeverityError, r.Issues[0].Severity)
	assert.Equal(t, CategoryGraphCompleteness, r.Issues[0].Category)
	assert.Equal(t, "f1", r.Issues[0].FlowID)
	assert.Equal(t, "n2", r.Issues[0].NodeID)
}

func TestValidationResult_AddWarning(t *testing.T) {
	r := NewValidationResult(ScopeFlow, "f1")
	r.AddWarning(CategorySpecCompleteness, "no error message")

	assert.True(t, r.IsValid(), "warnings alone should not make result invalid")
	require.Len(t, r.Issues, 1)
	assert.Equal(t, SeverityWarning, r.Issues[0].Severity)
}

func TestValidationResult_Suggest(t *testing.T) {
	r := NewValidationResult(ScopeFlow, "f1")
	r.AddError(CategoryGraphCompleteness, "missing branch").Suggest("wire the false branch")

	assert.Equal(t, "wire the false branch", r.Issues[0].Suggestion)
}

func TestValidationResult_Merge(t *testing.T) {
	r1 := NewValidationResult(ScopeSystem, "system")
	r1.AddError(CategoryEventWiring, "err1")
	r1.AddWarning(CategoryEventWiring, "warn1")

	r2 := NewValidationResult(ScopeSystem, "system")
	r2.AddError(CategoryReferenceIntegrity, "err2")

	r1.Merge(r2)

	assert.Len(t, r1.Issues, 3)
	assert.Len(t, r1.Errors(), 2)
}

func TestValidationResult_MergeNil(t *testing.T) {
	r := NewValidationResult(ScopeDomain, "d1")
	r.AddError(CategoryDomainConsistency, "err")
	r.Merge(nil)
	assert.Len(t, r.Issues, 1)
}
