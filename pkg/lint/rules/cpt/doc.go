// Package cpt provides lint rules for cone penetration test measurements.
//
// Each rule checks one measured column, but only when the survey parameters
// flag that column as measured ("ja").
//
// Rules in this package:
//   - CT01: depth
//   - CT02: corrected cone resistance
//   - CT03: inclination resultant
//   - CT04: local friction
//   - CT05: friction ratio
package cpt
