// Package document defines the rich-text content tree stored in a note.
//
// A Document is an ordered list of block nodes. A block is an *Element tagged
// with a type and holding child nodes; the recursion ends in *Text leaves that
// carry literal text and independent style marks.
package document

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Block type tags understood by the editor.
const (
	TypeParagraph    = "paragraph"
	TypeHeading      = "heading"
	TypeBulletedList = "bulleted-list"
	TypeListItem     = "list-item"
)

// MaxDepth bounds element nesting accepted from clients.
const MaxDepth = 32

// Kind is the closed set of block kinds. Tags outside the set map to KindUnknown.
type Kind int

const (
	KindUnknown Kind = iota
	KindParagraph
	KindHeading
	KindBulletedList
	KindListItem
)

// KindOf returns the kind for a raw type tag.
func KindOf(tag string) Kind {
	switch tag {
	case TypeParagraph:
		return KindParagraph
	case TypeHeading:
		return KindHeading
	case TypeBulletedList:
		return KindBulletedList
	case TypeListItem:
		return KindListItem
	default:
		return KindUnknown
	}
}

func (k Kind) String() string {
	switch k {
	case KindParagraph:
		return TypeParagraph
	case KindHeading:
		return TypeHeading
	case KindBulletedList:
		return TypeBulletedList
	case KindListItem:
		return TypeListItem
	default:
		return "unknown"
	}
}

// Renderable returns the kind a presentation layer should draw.
// Unknown kinds fall back to a paragraph.
func (k Kind) Renderable() Kind {
	if k == KindUnknown {
		return KindParagraph
	}
	return k
}

// Node is either an *Element or a *Text.
type Node interface {
	isNode()
}

// Element is a block node. Type keeps the raw tag and Attrs keeps any keys
// this package does not interpret, so that unknown kinds survive a
// store/retrieve cycle unchanged.
type Element struct {
	Type     string
	Children []Node
	Attrs    map[string]json.RawMessage
}

func (*Element) isNode() {}

// Kind reports the block kind of the element.
func (e *Element) Kind() Kind { return KindOf(e.Type) }

// Text is a leaf node. The marks are orthogonal and may be combined.
type Text struct {
	Text      string
	Bold      bool
	Italic    bool
	Underline bool
	Attrs     map[string]json.RawMessage
}

func (*Text) isNode() {}

// Document is the content of a note.
type Document []Node

// NewParagraph returns a paragraph element. With no children it holds a single
// empty text leaf.
func NewParagraph(children ...Node) *Element {
	if len(children) == 0 {
		children = []Node{&Text{}}
	}
	return &Element{Type: TypeParagraph, Children: children}
}

// Default returns the content of a freshly created note: one empty paragraph.
func Default() Document {
	return Document{NewParagraph()}
}

// Normalize returns a copy of doc that satisfies the storage invariants:
// the document has at least one block, bare top-level text is wrapped in a
// paragraph, and every element has at least one child.
func Normalize(doc Document) Document {
	out := make(Document, 0, len(doc))
	for _, n := range doc {
		switch v := n.(type) {
		case *Element:
			if v == nil {
				continue
			}
			out = append(out, normalizeElement(v))
		case *Text:
			if v == nil {
				continue
			}
			out = append(out, NewParagraph(cloneText(v)))
		}
	}
	if len(out) == 0 {
		return Default()
	}
	return out
}

func normalizeElement(e *Element) *Element {
	children := make([]Node, 0, len(e.Children))
	for _, c := range e.Children {
		switch v := c.(type) {
		case *Element:
			if v != nil {
				children = append(children, normalizeElement(v))
			}
		case *Text:
			if v != nil {
				children = append(children, cloneText(v))
			}
		}
	}
	if len(children) == 0 {
		children = append(children, &Text{})
	}
	return &Element{Type: e.Type, Children: children, Attrs: cloneAttrs(e.Attrs)}
}

// IsEmpty reports whether the document carries no text at all.
func IsEmpty(doc Document) bool {
	return strings.TrimSpace(PlainText(doc)) == ""
}

// PlainText flattens the document, one line per top-level block.
func PlainText(doc Document) string {
	lines := make([]string, 0, len(doc))
	for _, n := range doc {
		var b strings.Builder
		writeText(&b, n)
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

func writeText(b *strings.Builder, n Node) {
	switch v := n.(type) {
	case *Text:
		if v != nil {
			b.WriteString(v.Text)
		}
	case *Element:
		if v == nil {
			return
		}
		for i, c := range v.Children {
			// list items inside a list read as separate lines
			if i > 0 && v.Kind() == KindBulletedList {
				b.WriteByte('\n')
			}
			writeText(b, c)
		}
	}
}

// Clone returns a deep copy of doc.
func Clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for i, n := range doc {
		out[i] = cloneNode(n)
	}
	return out
}

func cloneNode(n Node) Node {
	switch v := n.(type) {
	case *Element:
		if v == nil {
			return v
		}
		children := make([]Node, len(v.Children))
		for i, c := range v.Children {
			children[i] = cloneNode(c)
		}
		return &Element{Type: v.Type, Children: children, Attrs: cloneAttrs(v.Attrs)}
	case *Text:
		if v == nil {
			return v
		}
		return cloneText(v)
	default:
		return n
	}
}

func cloneText(t *Text) *Text {
	c := *t
	c.Attrs = cloneAttrs(t.Attrs)
	return &c
}

func cloneAttrs(attrs map[string]json.RawMessage) map[string]json.RawMessage {
	if attrs == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(attrs))
	for k, v := range attrs {
		out[k] = bytes.Clone(v)
	}
	return out
}
