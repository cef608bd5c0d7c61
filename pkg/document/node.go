package document

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// NodeKind distinguishes elements from the other nodes that can appear
// between element children.
type NodeKind int

// Node kinds.
const (
	ElementNode NodeKind = iota
	CommentNode
	ProcInstNode
)

// Node is one node of a decoded XML tree.
//
// Comments and processing instructions inside an element are kept as children:
// an element that contains only a comment is not a leaf.
type Node struct {
	Kind NodeKind
	// Name.Space holds the resolved namespace URI, Name.Local the local name.
	Name xml.Name
	// Text is the character data before the first child node.
	Text string
	// Declarations holds the xmlns declarations made on this element, prefix to URI.
	// The default namespace uses the empty prefix.
	Declarations map[string]string
	Children     []*Node
}

// IsElement reports whether the node is an element.
func (n *Node) IsElement() bool {
	return n != nil && n.Kind == ElementNode
}

// IsLeaf reports whether the node has no child nodes of any kind.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// LocalName returns the element name without its namespace.
func (n *Node) LocalName() string {
	return n.Name.Local
}

// QualifiedName returns the name in {uri}local form, or just local when the
// element has no namespace.
func (n *Node) QualifiedName() string {
	if n.Name.Space == "" {
		return n.Name.Local
	}
	return "{" + n.Name.Space + "}" + n.Name.Local
}

// Walk visits every element in post-order (children before their parent), in
// document order among siblings. Returning false from fn stops the walk.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !n.IsElement() {
		return true
	}
	for _, child := range n.Children {
		if !child.Walk(fn) {
			return false
		}
	}
	return fn(n)
}

// Find returns the first element in post-order whose local name matches,
// including n itself.
func (n *Node) Find(local string) *Node {
	var found *Node
	n.Walk(func(e *Node) bool {
		if e.Name.Local == local {
			found = e
			return false
		}
		return true
	})
	return found
}

// FindAll returns every element in post-order whose local name matches.
func (n *Node) FindAll(local string) []*Node {
	var found []*Node
	n.Walk(func(e *Node) bool {
		if e.Name.Local == local {
			found = append(found, e)
		}
		return true
	})
	return found
}

// DecodeTree reads a single XML document and returns its root element.
// Non UTF-8 encodings declared in the XML header are converted on the fly.
func DecodeTree(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var (
		root  *Node
		stack []*Node
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			node := &Node{Kind: ElementNode, Name: t.Name}
			for _, attr := range t.Attr {
				switch {
				case attr.Name.Space == "xmlns":
					node.declare(attr.Name.Local, attr.Value)
				case attr.Name.Space == "" && attr.Name.Local == "xmlns":
					node.declare("", attr.Value)
				}
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, fmt.Errorf("decode xml: multiple root elements")
				}
				root = node
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, node)

		case xml.EndElement:
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			cur := stack[len(stack)-1]
			if cur.IsLeaf() {
				cur.Text += string(t)
			}

		case xml.Comment:
			if len(stack) > 0 {
				cur := stack[len(stack)-1]
				cur.Children = append(cur.Children, &Node{Kind: CommentNode, Text: string(t)})
			}

		case xml.ProcInst:
			if len(stack) > 0 {
				cur := stack[len(stack)-1]
				cur.Children = append(cur.Children, &Node{
					Kind: ProcInstNode,
					Name: xml.Name{Local: t.Target},
					Text: string(t.Inst),
				})
			}
		}
	}

	if root == nil {
		return nil, fmt.Errorf("decode xml: no root element")
	}
	return root, nil
}

func (n *Node) declare(prefix, uri string) {
	if n.Declarations == nil {
		n.Declarations = make(map[string]string)
	}
	n.Declarations[prefix] = uri
}

// DecodeTreeString is DecodeTree over an in-memory string.
func DecodeTreeString(s string) (*Node, error) {
	return DecodeTree(strings.NewReader(s))
}

// DecodeTreeBytes is DecodeTree over an in-memory byte slice.
func DecodeTreeBytes(b []byte) (*Node, error) {
	return DecodeTree(bytes.NewReader(b))
}
