package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidContent = errors.New("content must be an array of block nodes")
	ErrInvalidNode    = errors.New("content node must be an element or a text leaf")
	ErrTooDeep        = errors.New("content is nested too deeply")
)

// Parse decodes raw JSON content and normalizes it. Absent or null content
// yields the default document.
func Parse(raw json.RawMessage) (Document, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Default(), nil
	}

	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, err
	}
	return Normalize(doc), nil
}

// MarshalJSON always emits the children array, even when empty, and
// writes unrecognised attributes back beside the known keys.
func (e *Element) MarshalJSON() ([]byte, error) {
	children := e.Children
	if children == nil {
		children = []Node{}
	}
	fields := attrFields(e.Attrs, 2)
	fields["type"] = e.Type
	fields["children"] = children
	return json.Marshal(fields)
}

// MarshalJSON omits unset marks.
func (t Text) MarshalJSON() ([]byte, error) {
	fields := attrFields(t.Attrs, 4)
	fields["text"] = t.Text
	if t.Bold {
		fields["bold"] = true
	}
	if t.Italic {
		fields["italic"] = true
	}
	if t.Underline {
		fields["underline"] = true
	}
	return json.Marshal(fields)
}

func attrFields(attrs map[string]json.RawMessage, known int) map[string]any {
	fields := make(map[string]any, len(attrs)+known)
	for k, v := range attrs {
		fields[k] = v
	}
	return fields
}

// MarshalJSON encodes a nil document as an empty array.
func (d Document) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Node(d))
}

// UnmarshalJSON decodes an array of nodes. A node with "type" or a non-null
// "children" array is an element; otherwise it must carry "text".
func (d *Document) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*d = nil
		return nil
	}
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return ErrInvalidContent
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return ErrInvalidContent
	}

	doc := make(Document, 0, len(raws))
	for i, raw := range raws {
		n, err := decodeNode(raw, 1)
		if err != nil {
			return fmt.Errorf("content[%d]: %w", i, err)
		}
		doc = append(doc, n)
	}
	*d = doc
	return nil
}

// Keys consumed by the node decoder. Everything else is kept in Attrs.
var (
	elementKeys = map[string]bool{"type": true, "children": true}
	textKeys    = map[string]bool{"text": true, "bold": true, "italic": true, "underline": true, "children": true}
)

func decodeNode(raw json.RawMessage, depth int) (Node, error) {
	if depth > MaxDepth {
		return nil, ErrTooDeep
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrInvalidNode
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, ErrInvalidNode
	}

	typeRaw, hasType := fields["type"]
	children := fields["children"]
	if isNull(children) {
		children = nil
	}

	if hasType || children != nil {
		el := &Element{}
		if hasType && !isNull(typeRaw) {
			if err := json.Unmarshal(typeRaw, &el.Type); err != nil {
				return nil, ErrInvalidNode
			}
		}
		nodes, err := decodeChildren(children, depth)
		if err != nil {
			return nil, err
		}
		el.Children = nodes
		attrs, err := extraAttrs(fields, elementKeys)
		if err != nil {
			return nil, err
		}
		el.Attrs = attrs
		return el, nil
	}

	textRaw, hasText := fields["text"]
	if !hasText || isNull(textRaw) {
		return nil, ErrInvalidNode
	}

	t := &Text{}
	for key, dst := range map[string]any{
		"text":      &t.Text,
		"bold":      &t.Bold,
		"italic":    &t.Italic,
		"underline": &t.Underline,
	} {
		v, ok := fields[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(v, dst); err != nil {
			return nil, ErrInvalidNode
		}
	}
	attrs, err := extraAttrs(fields, textKeys)
	if err != nil {
		return nil, err
	}
	t.Attrs = attrs
	return t, nil
}

// extraAttrs returns the compacted values of every key not in known, or nil
// when there are none.
func extraAttrs(fields map[string]json.RawMessage, known map[string]bool) (map[string]json.RawMessage, error) {
	var attrs map[string]json.RawMessage
	for k, v := range fields {
		if known[k] {
			continue
		}
		var buf bytes.Buffer
		if err := json.Compact(&buf, v); err != nil {
			return nil, ErrInvalidNode
		}
		if attrs == nil {
			attrs = make(map[string]json.RawMessage)
		}
		attrs[k] = buf.Bytes()
	}
	return attrs, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeChildren(raw json.RawMessage, depth int) ([]Node, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []Node{}, nil
	}
	if trimmed[0] != '[' {
		return nil, ErrInvalidNode
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, ErrInvalidNode
	}

	children := make([]Node, 0, len(raws))
	for _, r := range raws {
		n, err := decodeNode(r, depth+1)
		if err != nil {
			return nil, err
		}
		children = append(children, n)
	}
	return children, nil
}
