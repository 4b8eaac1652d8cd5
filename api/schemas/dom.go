package schemas

import (
	"sort"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go" // Use json-iterator for consistency and performance
)

// json sorts map keys so the attributes object of a given page state
// serializes byte-identically on every marshal.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// -- DOM Tree Schemas --
//
// These types are the wire format returned by a single tree build. The JSON
// shape is the contract consumed by downstream planners/executors and must
// stay stable for a given page state.

// NodeType discriminates the two node record kinds.
type NodeType string

const (
	NodeTypeElement NodeType = "ELEMENT"
	NodeTypeText    NodeType = "TEXT_NODE"
)

// Coordinates is a single integer point.
type Coordinates struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// CoordinateSet describes an element box: four corners, center, and size.
// All values are rounded to integers.
type CoordinateSet struct {
	TopLeft     Coordinates `json:"topLeft"`
	TopRight    Coordinates `json:"topRight"`
	BottomLeft  Coordinates `json:"bottomLeft"`
	BottomRight Coordinates `json:"bottomRight"`
	Center      Coordinates `json:"center"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
}

// ViewportInfo captures the ambient viewport state at build time.
type ViewportInfo struct {
	ScrollX int `json:"scrollX"`
	ScrollY int `json:"scrollY"`
	Width   int `json:"width"`
	Height  int `json:"height"`
}

// TextNode is the record emitted for a visible, non-empty text node.
// Invisible or empty text nodes are pruned, never emitted with a false flag.
type TextNode struct {
	Type      NodeType `json:"type"`
	Text      string   `json:"text"`
	IsVisible bool     `json:"isVisible"`
}

// ElementNode is the record emitted for every element that survives the
// denylist. Children holds both element and text records in document order.
type ElementNode struct {
	Type                NodeType          `json:"type"`
	TagName             string            `json:"tagName"`
	Attributes          map[string]string `json:"attributes"`
	XPath               string            `json:"xpath"`
	Children            []any             `json:"children"`
	ViewportCoordinates CoordinateSet     `json:"viewportCoordinates"`
	PageCoordinates     CoordinateSet     `json:"pageCoordinates"`
	Viewport            ViewportInfo      `json:"viewport"`
	IsInteractive       bool              `json:"isInteractive"`
	IsVisible           bool              `json:"isVisible"`
	IsTopElement        bool              `json:"isTopElement"`
	HighlightIndex      *int              `json:"highlightIndex,omitempty"`
	ShadowRoot          bool              `json:"shadowRoot,omitempty"`
}

// BuildOptions is the caller-supplied configuration for one tree build.
// It is never persisted; every build starts a fresh index numbering.
type BuildOptions struct {
	// DoHighlightElements controls whether overlays are painted at all.
	DoHighlightElements bool `json:"doHighlightElements"`
	// FocusHighlightIndex, when >= 0, restricts painting to the single
	// element that receives exactly that index. Index assignment itself is
	// unaffected.
	FocusHighlightIndex int `json:"focusHighlightIndex"`
	// ViewportExpansion is a signed pixel margin added to the viewport when
	// deciding occlusion eligibility. The sentinel -1 disables occlusion
	// filtering entirely.
	ViewportExpansion int `json:"viewportExpansion"`
}

// DefaultBuildOptions mirrors the defaults of the original call contract.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		DoHighlightElements: true,
		FocusHighlightIndex: -1,
		ViewportExpansion:   0,
	}
}

// SelectorMap maps a highlight index to its element record, the structure a
// downstream executor keys click/type-by-index commands on.
type SelectorMap map[int]*ElementNode

// BuildSelectorMap walks the tree and collects every indexed element.
func BuildSelectorMap(root *ElementNode) SelectorMap {
	m := make(SelectorMap)
	var visit func(n *ElementNode)
	visit = func(n *ElementNode) {
		if n == nil {
			return
		}
		if n.HighlightIndex != nil {
			m[*n.HighlightIndex] = n
		}
		for _, child := range n.Children {
			if el, ok := child.(*ElementNode); ok {
				visit(el)
			}
		}
	}
	visit(root)
	return m
}

// MarshalTree serializes a node tree to JSON.
func MarshalTree(root *ElementNode) ([]byte, error) {
	return json.Marshal(root)
}

// MarshalTreeIndent serializes a node tree to indented JSON for human review.
func MarshalTreeIndent(root *ElementNode) ([]byte, error) {
	return json.MarshalIndent(root, "", "  ")
}

// InnerText concatenates the text of all descendant text nodes up to the
// next indexed element, newline separated. maxDepth < 0 means unbounded.
func (n *ElementNode) InnerText(maxDepth int) string {
	var parts []string
	var collect func(node any, depth int)
	collect = func(node any, depth int) {
		if maxDepth >= 0 && depth > maxDepth {
			return
		}
		switch t := node.(type) {
		case *TextNode:
			parts = append(parts, t.Text)
		case *ElementNode:
			if t != n && t.HighlightIndex != nil {
				return
			}
			for _, child := range t.Children {
				collect(child, depth+1)
			}
		}
	}
	collect(n, 0)
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// ClickableElementsToString renders every indexed element as one line of the
// form "[i]<tag attr=\"v\">text</tag>", the compact form handed to a planner.
// includeAttributes selects which attributes are rendered; nil means none.
func (n *ElementNode) ClickableElementsToString(includeAttributes []string) string {
	var lines []string
	var process func(node any)
	process = func(node any) {
		el, ok := node.(*ElementNode)
		if !ok {
			return
		}
		if el.HighlightIndex != nil {
			var sb strings.Builder
			for _, key := range includeAttributes {
				if val, ok := el.Attributes[key]; ok && val != "" && val != el.TagName {
					sb.WriteString(" " + key + `="` + val + `"`)
				}
			}
			text := el.InnerText(-1)
			lines = append(lines, "["+strconv.Itoa(*el.HighlightIndex)+"]<"+el.TagName+sb.String()+">"+text+"</"+el.TagName+">")
		}
		for _, child := range el.Children {
			process(child)
		}
	}
	process(n)
	return strings.Join(lines, "\n")
}

// SortedIndices returns the highlight indices of a selector map in ascending
// order; useful for deterministic reporting.
func (m SelectorMap) SortedIndices() []int {
	out := make([]int, 0, len(m))
	for idx := range m {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}
