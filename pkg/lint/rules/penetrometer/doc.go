// Package penetrometer provides lint rules for the cone penetrometer
// description of a survey.
//
// Rules in this package:
//   - CP01: cone diameter
//   - CP02: cone surface quotient
//   - CP03: distance from cone to friction sleeve centre
//   - CP04: friction sleeve surface area
//   - CP05: friction sleeve surface quotient
package penetrometer
