// api/schemas/dom_test.go
package schemas

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func sampleTree() *ElementNode {
	button := &ElementNode{
		Type:           NodeTypeElement,
		TagName:        "button",
		Attributes:     map[string]string{"id": "save", "class": "primary"},
		XPath:          "html/body/div/button",
		IsInteractive:  true,
		IsVisible:      true,
		IsTopElement:   true,
		HighlightIndex: intPtr(0),
		Children: []any{
			&TextNode{Type: NodeTypeText, Text: "Save", IsVisible: true},
		},
	}
	link := &ElementNode{
		Type:           NodeTypeElement,
		TagName:        "a",
		Attributes:     map[string]string{"href": "/next"},
		XPath:          "html/body/div/a",
		IsInteractive:  true,
		IsVisible:      true,
		IsTopElement:   true,
		HighlightIndex: intPtr(1),
		Children: []any{
			&TextNode{Type: NodeTypeText, Text: "Next page", IsVisible: true},
		},
	}
	return &ElementNode{
		Type:       NodeTypeElement,
		TagName:    "body",
		Attributes: map[string]string{},
		XPath:      "html/body",
		IsVisible:  true,
		Children: []any{
			&ElementNode{
				Type:       NodeTypeElement,
				TagName:    "div",
				Attributes: map[string]string{},
				XPath:      "html/body/div",
				IsVisible:  true,
				Children:   []any{button, link},
			},
		},
	}
}

func TestBuildSelectorMap(t *testing.T) {
	m := BuildSelectorMap(sampleTree())
	require.Len(t, m, 2)
	assert.Equal(t, "button", m[0].TagName)
	assert.Equal(t, "a", m[1].TagName)
	assert.Equal(t, []int{0, 1}, m.SortedIndices())
}

func TestMarshalTreeShape(t *testing.T) {
	out, err := MarshalTree(sampleTree())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, jsoniter.Unmarshal(out, &decoded))

	assert.Equal(t, "ELEMENT", decoded["type"])
	assert.Equal(t, "body", decoded["tagName"])
	// Unindexed elements omit highlightIndex entirely.
	assert.NotContains(t, decoded, "highlightIndex")
	assert.NotContains(t, decoded, "shadowRoot")

	div := decoded["children"].([]any)[0].(map[string]any)
	button := div["children"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(0), button["highlightIndex"])

	text := button["children"].([]any)[0].(map[string]any)
	assert.Equal(t, "TEXT_NODE", text["type"])
	assert.Equal(t, "Save", text["text"])
	assert.Equal(t, true, text["isVisible"])
}

func TestMarshalTreeAttributeOrderStable(t *testing.T) {
	node := &ElementNode{
		Type:    NodeTypeElement,
		TagName: "input",
		Attributes: map[string]string{
			"type": "text", "name": "q", "id": "search",
			"placeholder": "find", "class": "wide",
		},
		XPath: "html/body/input",
	}

	first, err := MarshalTree(node)
	require.NoError(t, err)
	assert.Contains(t, string(first),
		`"attributes":{"class":"wide","id":"search","name":"q","placeholder":"find","type":"text"}`)

	// Same page state marshals byte-identically every time.
	for i := 0; i < 8; i++ {
		again, err := MarshalTree(node)
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestDefaultBuildOptions(t *testing.T) {
	opts := DefaultBuildOptions()
	assert.True(t, opts.DoHighlightElements)
	assert.Equal(t, -1, opts.FocusHighlightIndex)
	assert.Equal(t, 0, opts.ViewportExpansion)
}

func TestInnerTextStopsAtIndexedDescendants(t *testing.T) {
	tree := sampleTree()
	div := tree.Children[0].(*ElementNode)

	// From the div, both descendants are indexed; their text is cut off.
	assert.Equal(t, "", div.InnerText(-1))

	// From the button itself, its own text is included.
	button := div.Children[0].(*ElementNode)
	assert.Equal(t, "Save", button.InnerText(-1))
}

func TestInnerTextDepthLimit(t *testing.T) {
	tree := &ElementNode{
		TagName: "div",
		Children: []any{
			&TextNode{Text: "shallow"},
			&ElementNode{
				TagName: "span",
				Children: []any{
					&TextNode{Text: "deep"},
				},
			},
		},
	}
	assert.Equal(t, "shallow", tree.InnerText(1))
	assert.Equal(t, "shallow\ndeep", tree.InnerText(-1))
}

func TestClickableElementsToString(t *testing.T) {
	got := sampleTree().ClickableElementsToString([]string{"id", "href"})
	assert.Equal(t,
		"[0]<button id=\"save\">Save</button>\n[1]<a href=\"/next\">Next page</a>",
		got)

	// nil attribute filter renders bare tags.
	bare := sampleTree().ClickableElementsToString(nil)
	assert.Contains(t, bare, "[0]<button>Save</button>")
}
