package document

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_DefaultsForMissingContent(t *testing.T) {
	for _, raw := range []string{"", "null", "  ", "[]"} {
		doc, err := Parse(json.RawMessage(raw))
		require.NoError(t, err, "raw=%q", raw)
		assert.Equal(t, Default(), doc, "raw=%q", raw)
	}
}

func TestDefault_MarshalsToEmptyParagraph(t *testing.T) {
	b, err := json.Marshal(Default())
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"paragraph","children":[{"text":""}]}]`, string(b))
}

func TestParse_RoundTrip(t *testing.T) {
	input := `[
		{"type":"heading","children":[{"text":"Title","bold":true}]},
		{"type":"paragraph","children":[
			{"text":"plain "},
			{"text":"all marks","bold":true,"italic":true,"underline":true},
			{"text":" italic","italic":true}
		]},
		{"type":"bulleted-list","children":[
			{"type":"list-item","children":[{"text":"one"}]},
			{"type":"list-item","children":[{"text":"two","underline":true}]}
		]},
		{"type":"callout","children":[{"text":"from a newer editor"}]}
	]`

	doc, err := Parse(json.RawMessage(input))
	require.NoError(t, err)

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(out))

	again, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, doc, again)
}

func TestParse_UnknownTypeFallsBackToParagraph(t *testing.T) {
	doc, err := Parse(json.RawMessage(`[{"type":"table","children":[{"text":"x"}]}]`))
	require.NoError(t, err)
	require.Len(t, doc, 1)

	el, ok := doc[0].(*Element)
	require.True(t, ok)
	assert.Equal(t, "table", el.Type)
	assert.Equal(t, KindUnknown, el.Kind())
	assert.Equal(t, KindParagraph, el.Kind().Renderable())
}

func TestParse_RejectsMalformedContent(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{name: "bare string", raw: `"hello"`, want: ErrInvalidContent},
		{name: "number", raw: `42`, want: ErrInvalidContent},
		{name: "object", raw: `{"type":"paragraph"}`, want: ErrInvalidContent},
		{name: "string node", raw: `["hello"]`, want: ErrInvalidNode},
		{name: "empty node", raw: `[{}]`, want: ErrInvalidNode},
		{name: "children not array", raw: `[{"type":"paragraph","children":"x"}]`, want: ErrInvalidNode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(json.RawMessage(tt.raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestParse_RejectsDeepNesting(t *testing.T) {
	raw := strings.Repeat(`{"type":"list-item","children":[`, MaxDepth+1) +
		`{"text":"deep"}` + strings.Repeat(`]}`, MaxDepth+1)

	_, err := Parse(json.RawMessage("[" + raw + "]"))
	assert.ErrorIs(t, err, ErrTooDeep)
}

func TestNormalize(t *testing.T) {
	doc := Normalize(Document{
		&Text{Text: "loose", Bold: true},
		&Element{Type: TypeHeading},
		nil,
	})

	require.Len(t, doc, 2)
	assert.Equal(t, NewParagraph(&Text{Text: "loose", Bold: true}), doc[0])
	assert.Equal(t, &Element{Type: TypeHeading, Children: []Node{&Text{}}}, doc[1])

	assert.Equal(t, Default(), Normalize(nil))
}

func TestNormalize_DoesNotAliasInput(t *testing.T) {
	leaf := &Text{Text: "a"}
	in := Document{NewParagraph(leaf)}

	out := Normalize(in)
	leaf.Text = "changed"

	assert.Equal(t, "a", PlainText(out))
}

func TestPlainText(t *testing.T) {
	doc := Document{
		&Element{Type: TypeHeading, Children: []Node{&Text{Text: "Groceries"}}},
		&Element{Type: TypeBulletedList, Children: []Node{
			&Element{Type: TypeListItem, Children: []Node{&Text{Text: "milk"}}},
			&Element{Type: TypeListItem, Children: []Node{&Text{Text: "eggs"}}},
		}},
	}

	assert.Equal(t, "Groceries\nmilk\neggs", PlainText(doc))
	assert.False(t, IsEmpty(doc))
	assert.True(t, IsEmpty(Default()))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindParagraph, KindOf("paragraph"))
	assert.Equal(t, KindHeading, KindOf("heading"))
	assert.Equal(t, KindBulletedList, KindOf("bulleted-list"))
	assert.Equal(t, KindListItem, KindOf("list-item"))
	assert.Equal(t, KindUnknown, KindOf("Paragraph"))
	assert.Equal(t, "list-item", KindListItem.String())
}

func TestParse_KeepsUnknownAttributes(t *testing.T) {
	input := `[
		{"type":"image","url":"https://x/y.png","children":[{"text":""}]},
		{"type":"heading","level":2,"children":[{"text":"H","code":true}]}
	]`

	doc, err := Parse(json.RawMessage(input))
	require.NoError(t, err)
	require.Len(t, doc, 2)

	img := doc[0].(*Element)
	assert.Equal(t, json.RawMessage(`"https://x/y.png"`), img.Attrs["url"])

	heading := doc[1].(*Element)
	assert.Equal(t, json.RawMessage(`2`), heading.Attrs["level"])
	assert.Equal(t, json.RawMessage(`true`), heading.Children[0].(*Text).Attrs["code"])

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(out))
}

func TestParse_AttributesAreCompacted(t *testing.T) {
	doc, err := Parse(json.RawMessage(`[{"type":"embed","meta": { "w" : 1 },"children":[{"text":"x"}]}]`))
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage(`{"w":1}`), doc[0].(*Element).Attrs["meta"])
}

func TestParse_LeafWithNullChildren(t *testing.T) {
	doc, err := Parse(json.RawMessage(`[{"type":"paragraph","children":[{"text":"x","children":null,"italic":true}]}]`))
	require.NoError(t, err)

	el := doc[0].(*Element)
	require.Len(t, el.Children, 1)
	assert.Equal(t, &Text{Text: "x", Italic: true}, el.Children[0])

	_, err = Parse(json.RawMessage(`[{"children":null}]`))
	assert.ErrorIs(t, err, ErrInvalidNode)

	_, err = Parse(json.RawMessage(`[{"text":"x","bold":"yes"}]`))
	assert.ErrorIs(t, err, ErrInvalidNode)
}

func TestClone_CopiesAttributes(t *testing.T) {
	doc, err := Parse(json.RawMessage(`[{"type":"image","url":"a","children":[{"text":"","k":"v"}]}]`))
	require.NoError(t, err)

	c := Clone(doc)
	c[0].(*Element).Attrs["url"][1] = 'b'
	c[0].(*Element).Children[0].(*Text).Attrs["k"] = json.RawMessage(`"w"`)

	assert.Equal(t, json.RawMessage(`"a"`), doc[0].(*Element).Attrs["url"])
	assert.Equal(t, json.RawMessage(`"v"`), doc[0].(*Element).Children[0].(*Text).Attrs["k"])
	assert.Equal(t, doc, Normalize(doc))
}
