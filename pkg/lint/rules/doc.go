// Package rules provides the completeness rules for CPT registration requests.
//
// Rules are organized by the part of the request they check:
//   - penetrometer: cone penetrometer description (CP01-CP05)
//   - cpt: cone penetration test measurements (CT01-CT05)
//   - dissipation: dissipation test measurements (DT01-DT03)
//
// Rules run in ID order, so the groups are evaluated penetrometer first, then
// cpt, then dissipation.
//
// To register all rules with the global lint registry, import this package
// with a blank identifier:
//
//	import _ "github.com/leapstack-labs/cptcheck/pkg/lint/rules"
package rules
