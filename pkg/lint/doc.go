// Package lint runs completeness rules against parsed registration requests.
//
// Rules are plain RuleDef values registered from init() in their group
// package under pkg/lint/rules. Importing pkg/lint/rules registers all of
// them:
//
//	import _ "github.com/leapstack-labs/cptcheck/pkg/lint/rules"
//
// The Analyzer evaluates registered rules in ID order. A rule never aborts the
// run: a rule that fails or panics contributes its error text as a diagnostic
// and evaluation moves on to the next rule.
package lint
