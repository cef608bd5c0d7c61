// Package dissipation provides lint rules for dissipation test measurements.
// Each rule reports once per dissipation test with missing values.
//
// Rules in this package:
//   - DT01: cone resistance
//   - DT02: pore pressure u1
//   - DT03: pore pressure u2
package dissipation
