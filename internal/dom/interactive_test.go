// internal/dom/interactive_test.go
package dom

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func elem(tag string, attrs ...string) NodeInfo {
	info := NodeInfo{ID: 1, Kind: KindElement, Tag: tag}
	for i := 0; i+1 < len(attrs); i += 2 {
		info.Attrs = append(info.Attrs, Attr{Name: attrs[i], Value: attrs[i+1]})
	}
	return info
}

func TestElementInteractiveGenericRules(t *testing.T) {
	divParent := elem("div")
	bodyParent := elem("body")

	tests := []struct {
		name   string
		node   NodeInfo
		parent *NodeInfo
		want   bool
	}{
		{"anchor tag", elem("a", "href", "#"), &divParent, true},
		{"button tag", elem("button"), &divParent, true},
		{"select tag", elem("select"), &divParent, true},
		{"plain div", elem("div"), &divParent, false},
		{"body never interactive", elem("body"), nil, false},
		{"aria role button", elem("div", "role", "button"), &divParent, true},
		{"aria role uppercased", elem("div", "role", "Button"), &divParent, true},
		{"vendor role", elem("span", "role", "a-dropdown-button"), &divParent, true},
		{"presentation role", elem("div", "role", "presentation"), &divParent, false},
		{"tabindex zero", elem("div", "tabindex", "0"), &divParent, true},
		{"tabindex minus one", elem("div", "tabindex", "-1"), &divParent, false},
		{"tabindex under body", elem("div", "tabindex", "0"), &bodyParent, false},
		{"button class", elem("div", "class", "fancy button wide"), &divParent, true},
		{"dropdown toggle class", elem("div", "class", "dropdown-toggle"), &divParent, true},
		{"unknown class", elem("div", "class", "buttons"), &divParent, false},
		{"data-action dropdown", elem("span", "data-action", "a-dropdown-select"), &divParent, true},
		{"onclick attribute", elem("div", "onclick", "go()"), &divParent, true},
		{"angular click", elem("div", "ng-click", "go()"), &divParent, true},
		{"vue shorthand click", elem("div", "@click", "go"), &divParent, true},
		{"vue long click", elem("div", "v-on:click", "go"), &divParent, true},
		{"aria-expanded state", elem("div", "aria-expanded", "false"), &divParent, true},
		{"aria-pressed state", elem("div", "aria-pressed", "true"), &divParent, true},
		{"aria-selected state", elem("li", "aria-selected", "false"), &divParent, true},
		{"aria-checked state", elem("div", "aria-checked", "mixed"), &divParent, true},
		{"draggable attr", elem("div", "draggable", "true"), &divParent, true},
		{"draggable false attr", elem("div", "draggable", "false"), &divParent, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := elementInteractive(context.Background(), &stubAccessor{}, tc.node, tc.parent)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestElementInteractiveReflectedProperties(t *testing.T) {
	parent := elem("div")
	acc := &stubAccessor{
		props: func(id NodeID) (NodeProps, error) {
			return NodeProps{HasClickHandler: true}, nil
		},
	}
	got, err := elementInteractive(context.Background(), acc, elem("div"), &parent)
	require.NoError(t, err)
	assert.True(t, got)

	acc.props = func(id NodeID) (NodeProps, error) {
		return NodeProps{Draggable: true}, nil
	}
	got, err = elementInteractive(context.Background(), acc, elem("div"), &parent)
	require.NoError(t, err)
	assert.True(t, got)
}

// Accessibility-layer hosts replace the generic rules with the
// pointer-events / size / label decision table.
func TestSemanticsLayerDecisionTable(t *testing.T) {
	parent := elem("div")
	accWith := func(pointerEvents string, w, h float64) *stubAccessor {
		return &stubAccessor{
			styles: func(id NodeID, props ...string) (map[string]string, error) {
				return map[string]string{"pointer-events": pointerEvents}, nil
			},
			rect: func(id NodeID) (Rect, error) {
				return Rect{Width: w, Height: h}, nil
			},
		}
	}

	tests := []struct {
		name string
		node NodeInfo
		acc  *stubAccessor
		want bool
	}{
		{
			"role button needs no label",
			elem("flt-semantics", "role", "button"),
			accWith("all", 20, 20), true,
		},
		{
			"role button too small",
			elem("flt-semantics", "role", "button"),
			accWith("all", 3, 3), false,
		},
		{
			"role button pointer-events none",
			elem("flt-semantics", "role", "button"),
			accWith("none", 20, 20), false,
		},
		{
			"role checkbox requires label",
			elem("flt-semantics", "role", "checkbox"),
			accWith("all", 20, 20), false,
		},
		{
			"role checkbox with label",
			elem("flt-semantics", "role", "checkbox", "aria-label", "agree"),
			accWith("all", 20, 20), true,
		},
		{
			"role text with label",
			elem("flt-semantics", "role", "text", "aria-label", "field"),
			accWith("all", 20, 20), true,
		},
		{
			"tabindex zero with label",
			elem("flt-semantics", "tabindex", "0", "aria-label", "go"),
			accWith("all", 20, 20), true,
		},
		{
			"tabindex zero blank label",
			elem("flt-semantics", "tabindex", "0", "aria-label", "  "),
			accWith("all", 20, 20), false,
		},
		{
			"no role no tabindex",
			elem("flt-semantics", "onclick", "go()"),
			accWith("all", 20, 20), false,
		},
		{
			"placeholder host uses same table",
			elem("flt-semantics-placeholder", "role", "button"),
			accWith("all", 20, 20), true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := elementInteractive(context.Background(), tc.acc, tc.node, &parent)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
