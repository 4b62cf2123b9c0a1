package mongo

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/nexusnotes/nexus-notes/internal/document"
)

var errBadStoredNode = errors.New("stored content node is neither element nor text")

// contentNode is the BSON shape of a document node. Type is set on elements
// and Text on leaves, so an element with an empty tag is still recognised.
// Attrs holds the keys the editor sent that the document model does not
// interpret.
type contentNode struct {
	Type      *string       `bson:"type,omitempty"`
	Children  []contentNode `bson:"children,omitempty"`
	Text      *string       `bson:"text,omitempty"`
	Bold      bool          `bson:"bold,omitempty"`
	Italic    bool          `bson:"italic,omitempty"`
	Underline bool          `bson:"underline,omitempty"`
	Attrs     bson.M        `bson:"attrs,omitempty"`
}

func encodeContent(doc document.Document) ([]contentNode, error) {
	out := make([]contentNode, 0, len(doc))
	for _, n := range doc {
		c, ok, err := encodeNode(n)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func encodeNode(n document.Node) (contentNode, bool, error) {
	switch v := n.(type) {
	case *document.Element:
		if v == nil {
			return contentNode{}, false, nil
		}
		tag := v.Type
		children := make([]contentNode, 0, len(v.Children))
		for _, c := range v.Children {
			cn, ok, err := encodeNode(c)
			if err != nil {
				return contentNode{}, false, err
			}
			if ok {
				children = append(children, cn)
			}
		}
		attrs, err := encodeAttrs(v.Attrs)
		if err != nil {
			return contentNode{}, false, err
		}
		return contentNode{Type: &tag, Children: children, Attrs: attrs}, true, nil
	case *document.Text:
		if v == nil {
			return contentNode{}, false, nil
		}
		attrs, err := encodeAttrs(v.Attrs)
		if err != nil {
			return contentNode{}, false, err
		}
		text := v.Text
		return contentNode{
			Text:      &text,
			Bold:      v.Bold,
			Italic:    v.Italic,
			Underline: v.Underline,
			Attrs:     attrs,
		}, true, nil
	}
	return contentNode{}, false, nil
}

func encodeAttrs(attrs map[string]json.RawMessage) (bson.M, error) {
	if len(attrs) == 0 {
		return nil, nil
	}
	out := make(bson.M, len(attrs))
	for k, raw := range attrs {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("content attribute %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

func decodeContent(nodes []contentNode) (document.Document, error) {
	doc := make(document.Document, 0, len(nodes))
	for _, c := range nodes {
		n, err := decodeNode(c)
		if err != nil {
			return nil, err
		}
		doc = append(doc, n)
	}
	return document.Normalize(doc), nil
}

func decodeNode(c contentNode) (document.Node, error) {
	attrs, err := decodeAttrs(c.Attrs)
	if err != nil {
		return nil, err
	}

	if c.Type != nil {
		children := make([]document.Node, 0, len(c.Children))
		for _, cc := range c.Children {
			n, err := decodeNode(cc)
			if err != nil {
				return nil, err
			}
			children = append(children, n)
		}
		return &document.Element{Type: *c.Type, Children: children, Attrs: attrs}, nil
	}
	if c.Text != nil {
		return &document.Text{
			Text:      *c.Text,
			Bold:      c.Bold,
			Italic:    c.Italic,
			Underline: c.Underline,
			Attrs:     attrs,
		}, nil
	}
	return nil, errBadStoredNode
}

func decodeAttrs(m bson.M) (map[string]json.RawMessage, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		raw, err := json.Marshal(plainValue(v))
		if err != nil {
			return nil, fmt.Errorf("stored content attribute %q: %w", k, err)
		}
		out[k] = raw
	}
	return out, nil
}

// plainValue turns decoded BSON containers into the maps and slices that
// encoding/json understands.
func plainValue(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plainValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plainValue(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = plainValue(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	case primitive.ObjectID:
		return t.Hex()
	default:
		return v
	}
}
