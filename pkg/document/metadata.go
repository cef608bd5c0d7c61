package document

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// valuesTag is the element holding a raw measurement table. It is read into a
// Matrix and never copied into Metadata.
const valuesTag = "values"

// Metadata is the flattened element tree. Values are either Metadata or string.
type Metadata map[string]any

// Errors returned (wrapped in *PathError) by Metadata lookups.
var (
	ErrMissingKey  = errors.New("missing key")
	ErrNotMapping  = errors.New("not a mapping")
	ErrNotAString  = errors.New("not a string")
	ErrEmptyLookup = errors.New("empty path")
)

// PathError describes a failed Metadata lookup.
type PathError struct {
	// Path is the part of the lookup that resolved before the failure.
	Path []string
	// Key is the key that could not be resolved.
	Key string
	Err error
}

func (e *PathError) Error() string {
	at := "metadata root"
	if len(e.Path) > 0 {
		at = strings.Join(e.Path, ".")
	}
	return fmt.Sprintf("metadata: %v %q at %s", e.Err, e.Key, at)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// Lookup follows path through nested mappings and returns the value found.
func (m Metadata) Lookup(path ...string) (any, error) {
	if len(path) == 0 {
		return nil, &PathError{Err: ErrEmptyLookup}
	}
	var cur any = m
	for i, key := range path {
		node, ok := cur.(Metadata)
		if !ok {
			return nil, &PathError{Path: path[:i], Key: key, Err: ErrNotMapping}
		}
		next, ok := node[key]
		if !ok {
			return nil, &PathError{Path: path[:i], Key: key, Err: ErrMissingKey}
		}
		cur = next
	}
	return cur, nil
}

// LookupPath is Lookup as a function, for callers holding a plain map.
func LookupPath(m Metadata, path ...string) (any, error) {
	return m.Lookup(path...)
}

// Has reports whether path resolves to any value.
func (m Metadata) Has(path ...string) bool {
	_, err := m.Lookup(path...)
	return err == nil
}

// Map resolves path and requires the result to be a mapping.
func (m Metadata) Map(path ...string) (Metadata, error) {
	v, err := m.Lookup(path...)
	if err != nil {
		return nil, err
	}
	node, ok := v.(Metadata)
	if !ok {
		return nil, &PathError{Path: path[:len(path)-1], Key: path[len(path)-1], Err: ErrNotMapping}
	}
	return node, nil
}

// Section resolves path like Map, except that a leaf at path reads as an
// empty mapping. An element with no child elements describes nothing, whether
// or not it holds text.
func (m Metadata) Section(path ...string) (Metadata, error) {
	v, err := m.Lookup(path...)
	if err != nil {
		return nil, err
	}
	switch node := v.(type) {
	case Metadata:
		return node, nil
	case string:
		return Metadata{}, nil
	default:
		return nil, &PathError{Path: path[:len(path)-1], Key: path[len(path)-1], Err: ErrNotMapping}
	}
}

// String resolves path and requires the result to be leaf text.
func (m Metadata) String(path ...string) (string, error) {
	v, err := m.Lookup(path...)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", &PathError{Path: path[:len(path)-1], Key: path[len(path)-1], Err: ErrNotAString}
	}
	return s, nil
}

// Flatten converts an element into Metadata.
//
// A leaf element yields {local: text}, except `values` which yields nothing.
// An element with children yields {local: {...}} holding the flattened element
// children. When a child name repeats under the same parent, the second
// occurrence is stored as name2, the third as name3, and so on. Comment and
// processing-instruction children make an element non-leaf but add no keys; an
// element whose children are all such nodes yields nothing.
func Flatten(n *Node) Metadata {
	ret := Metadata{}
	if !n.IsElement() {
		return ret
	}

	local := n.LocalName()
	if n.IsLeaf() {
		if local != valuesTag {
			ret[local] = n.Text
		}
		return ret
	}

	var (
		children Metadata
		counts   = make(map[string]int)
	)
	for _, child := range n.Children {
		if !child.IsElement() {
			continue
		}
		if children == nil {
			children = Metadata{}
		}

		name := child.LocalName()
		value, ok := Flatten(child)[name]
		if !ok {
			continue
		}

		key := name
		if _, taken := children[name]; taken {
			seen := counts[name]
			if seen == 0 {
				seen = 1
			}
			seen++
			counts[name] = seen
			key = name + strconv.Itoa(seen)
		}
		children[key] = value
	}

	if children != nil {
		ret[local] = children
	}
	return ret
}
