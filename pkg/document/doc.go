// Package document turns a BRO registration request into a read-only Document.
//
// A Document exposes three views of the XML it was built from:
//
//   - Metadata: the element tree flattened into nested maps keyed by local name.
//     Leaf elements hold their text. Repeated siblings are renamed name2, name3, ...
//   - the cone penetration test matrix: the `values` payload of the first
//     conePenetrationTest element, 25 fields per row.
//   - the dissipation test matrices: one 5-field matrix per dissipationTest element.
//
// Matrices keep only numbers. A measurement that was not taken is stored as
// MissingValue.
//
// Typical use:
//
//	doc, err := document.Parse(r)
//	if err != nil {
//		return err
//	}
//	if m, ok := doc.ConeTestMatrix(); ok {
//		missing := m.Count(int(document.CptDepth), document.MissingValue)
//		...
//	}
package document
