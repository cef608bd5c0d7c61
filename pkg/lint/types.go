package lint

import (
	"github.com/leapstack-labs/cptcheck/pkg/core"
	"github.com/leapstack-labs/cptcheck/pkg/document"
)

// Severity is an alias for core.Severity.
type Severity = core.Severity

// Severity levels, re-exported for rule packages.
const (
	SeverityError   = core.SeverityError
	SeverityWarning = core.SeverityWarning
	SeverityInfo    = core.SeverityInfo
	SeverityHint    = core.SeverityHint
)

// =============================================================================
// Rule Definitions
// =============================================================================

// RuleDef is a data-driven rule definition. Rules are stateless; everything
// they need comes from the document.
type RuleDef struct {
	ID          string        // Unique identifier, e.g., "CP01"
	Name        string        // Human-readable name, e.g., "penetrometer.cone_diameter"
	Group       string        // Category, e.g., "penetrometer", "cpt", "dissipation"
	Description string        // Human-readable description
	Severity    core.Severity // Default severity
	Check       CheckFunc     // The check function

	// Documentation fields
	Rationale string // Why this rule exists
	Fix       string // How to fix violations
}

// CheckFunc inspects a document and reports an Outcome.
type CheckFunc func(doc *document.Document) Outcome

// Info returns the rule's metadata for documentation and tooling.
func (r RuleDef) Info() core.RuleInfo {
	return core.RuleInfo{
		ID:              r.ID,
		Name:            r.Name,
		Group:           r.Group,
		Description:     r.Description,
		DefaultSeverity: r.Severity,
		Rationale:       r.Rationale,
		Fix:             r.Fix,
	}
}

// =============================================================================
// Diagnostics
// =============================================================================

// Diagnostic represents a lint finding, or a rule that could not be evaluated.
type Diagnostic struct {
	RuleID   string        `json:"rule_id" yaml:"rule_id"`
	Severity core.Severity `json:"severity" yaml:"severity"`
	Message  string        `json:"message" yaml:"message"`
	// Failed is set when Message is the error of a rule that could not run
	// to completion rather than a finding.
	Failed bool `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// Messages returns the text of each diagnostic, in order.
func Messages(diags []Diagnostic) []string {
	out := make([]string, 0, len(diags))
	for _, d := range diags {
		out = append(out, d.Message)
	}
	return out
}
