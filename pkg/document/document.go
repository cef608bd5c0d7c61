package document

import (
	"fmt"
	"io"
	"strings"
)

// Element names the document model looks for, matched on local name only.
const (
	conePenetrationTestTag = "conePenetrationTest"
	dissipationTestTag     = "dissipationTest"
)

// Metadata paths used by the completeness rules.
var (
	// CPTPath identifies a CPT registration request.
	CPTPath = []string{"registrationRequest", "sourceDocument", "CPT"}
	// SurveyPath leads to the cone penetrometer survey.
	SurveyPath = subPath(CPTPath, "conePenetrometerSurvey")
	// PenetrometerPath leads to the cone penetrometer description.
	PenetrometerPath = subPath(SurveyPath, "conePenetrometer")
	// ParametersPath leads to the map of measured-parameter flags.
	ParametersPath = subPath(SurveyPath, "parameters")
)

// subPath returns base extended with more, in a slice of exact capacity so
// appending to the result never aliases base.
func subPath(base []string, more ...string) []string {
	out := make([]string, 0, len(base)+len(more))
	return append(append(out, base...), more...)
}

// Document is a parsed registration request. It is never modified after New.
type Document struct {
	root        *Node
	namespaces  map[string]string
	metadata    Metadata
	cone        *Matrix
	dissipation []*Matrix
	hasDiss     bool
	isCPT       bool
}

// Parse decodes XML from r and builds a Document.
func Parse(r io.Reader) (*Document, error) {
	root, err := DecodeTree(r)
	if err != nil {
		return nil, err
	}
	return New(root)
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// ParseBytes is Parse over a byte slice.
func ParseBytes(b []byte) (*Document, error) {
	root, err := DecodeTreeBytes(b)
	if err != nil {
		return nil, err
	}
	return New(root)
}

// New builds a Document from a decoded tree. It fails only when a kept
// measurement row holds a field that is not a number; the error wraps a
// *ParseError.
func New(root *Node) (*Document, error) {
	if !root.IsElement() {
		return nil, fmt.Errorf("document: root is not an element")
	}

	d := &Document{
		root:       root,
		namespaces: collectNamespaces(root),
	}

	if cpt := root.Find(conePenetrationTestTag); cpt != nil {
		if values := cpt.Find(valuesTag); values != nil {
			m, err := ParseMatrix(values.Text, CptFieldCount)
			if err != nil {
				return nil, fmt.Errorf("%s values: %w", conePenetrationTestTag, err)
			}
			d.cone = m
		}
	}

	tests := root.FindAll(dissipationTestTag)
	if len(tests) > 0 {
		d.hasDiss = true
		d.dissipation = make([]*Matrix, 0, len(tests))
		for i, test := range tests {
			values := test.Find(valuesTag)
			if values == nil {
				continue
			}
			m, err := ParseMatrix(values.Text, DissipationFieldCount)
			if err != nil {
				return nil, fmt.Errorf("%s %d values: %w", dissipationTestTag, i+1, err)
			}
			d.dissipation = append(d.dissipation, m)
		}
	}

	d.metadata = Flatten(root)
	d.isCPT = d.metadata.Has(CPTPath...)
	return d, nil
}

// Root returns the decoded element tree.
func (d *Document) Root() *Node {
	return d.root
}

// Metadata returns the flattened element tree.
func (d *Document) Metadata() Metadata {
	return d.metadata
}

// IsCPT reports whether the document is a CPT registration request.
func (d *Document) IsCPT() bool {
	return d.isCPT
}

// ConeTestMatrix returns the cone penetration test measurements, if the
// document has a conePenetrationTest with a values element.
func (d *Document) ConeTestMatrix() (*Matrix, bool) {
	return d.cone, d.cone != nil
}

// DissipationMatrices returns one matrix per dissipationTest element that has
// values. ok is false when the document has no dissipationTest at all.
func (d *Document) DissipationMatrices() (matrices []*Matrix, ok bool) {
	return d.dissipation, d.hasDiss
}

// ConePenetrometer returns the metadata node describing the cone penetrometer.
// An empty conePenetrometer element yields an empty mapping.
func (d *Document) ConePenetrometer() (Metadata, error) {
	return d.metadata.Section(PenetrometerPath...)
}

// CptParameters returns the map of measured-parameter flags of the survey.
// An empty parameters element yields an empty mapping.
func (d *Document) CptParameters() (Metadata, error) {
	return d.metadata.Section(ParametersPath...)
}

// Namespaces returns a copy of the prefix table. Each URI is in {uri} form so
// it can be joined with a local name.
func (d *Document) Namespaces() map[string]string {
	out := make(map[string]string, len(d.namespaces))
	for k, v := range d.namespaces {
		out[k] = v
	}
	return out
}

// QualifiedTag resolves "prefix:local" to "{uri}local" through the prefix
// table. ok is false for unknown prefixes or malformed tags.
func (d *Document) QualifiedTag(tag string) (string, bool) {
	prefix, local, found := strings.Cut(strings.TrimSpace(tag), ":")
	if !found {
		return "", false
	}
	uri, ok := d.namespaces[prefix]
	if !ok {
		return "", false
	}
	return uri + local, true
}

// FindQualified returns the first element, in post-order, matching a
// "prefix:local" tag.
func (d *Document) FindQualified(tag string) *Node {
	qualified, ok := d.QualifiedTag(tag)
	if !ok {
		return nil
	}
	var found *Node
	d.root.Walk(func(n *Node) bool {
		if n.QualifiedName() == qualified {
			found = n
			return false
		}
		return true
	})
	return found
}

// Paths lists the local-name path of every element in document order, with
// segments joined by dots.
func (d *Document) Paths() []string {
	var paths []string
	var visit func(n *Node, prefix []string)
	visit = func(n *Node, prefix []string) {
		if !n.IsElement() {
			return
		}
		path := append(prefix, n.LocalName())
		paths = append(paths, strings.Join(path, "."))
		for _, child := range n.Children {
			visit(child, path[:len(path):len(path)])
		}
	}
	visit(d.root, nil)
	return paths
}

func collectNamespaces(root *Node) map[string]string {
	table := make(map[string]string)
	var visit func(n *Node)
	visit = func(n *Node) {
		if !n.IsElement() {
			return
		}
		for prefix, uri := range n.Declarations {
			table[prefix] = "{" + uri + "}"
		}
		for _, child := range n.Children {
			visit(child)
		}
	}
	visit(root)
	return table
}
