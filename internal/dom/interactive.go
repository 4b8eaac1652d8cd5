// internal/dom/interactive.go
package dom

import (
	"context"
	"strings"
)

// interactiveTags always qualify regardless of attributes.
var interactiveTags = map[string]bool{
	"a": true, "button": true, "details": true, "embed": true,
	"input": true, "label": true, "menu": true, "menuitem": true,
	"object": true, "select": true, "textarea": true, "summary": true,
	"canvas": true, "dialog": true,
}

// interactiveRoles qualify via the role attribute. The list deliberately
// includes vendor strings (Amazon a-* widgets, generic framework roles) seen
// in the wild alongside the standard ARIA widget roles.
var interactiveRoles = map[string]bool{
	"button": true, "link": true, "checkbox": true, "radio": true,
	"textbox": true, "combobox": true, "listbox": true, "option": true,
	"menu": true, "menuitem": true, "menuitemcheckbox": true,
	"menuitemradio": true, "tab": true, "switch": true, "slider": true,
	"spinbutton": true, "searchbox": true, "scrollbar": true,
	"progressbar": true, "treeitem": true, "gridcell": true,
	"alertdialog": true, "dialog": true, "dropdown": true, "widget": true,
	"click": true,
	"button-icon": true, "button-icon-only": true, "button-text": true,
	"button-text-icon-only": true,
	"a-button-inner": true, "a-button-text": true,
	"a-dropdown-button": true, "a-dropdown-link": true,
}

// semanticsRoles is the narrower allow-list used for accessibility-layer
// host elements.
var semanticsRoles = map[string]bool{
	"button": true, "checkbox": true, "radio": true, "textbox": true,
	"combobox": true, "slider": true, "switch": true, "tab": true,
	"menuitem": true, "text": true,
}

// interactiveClasses and interactiveActions cover the handful of custom
// widget conventions that mark otherwise inert containers as clickable.
var interactiveClasses = map[string]bool{
	"button":          true,
	"dropdown-toggle": true,
}

var interactiveActions = map[string]bool{
	"a-dropdown-select": true,
	"a-dropdown-button": true,
}

// clickBindingAttrs are framework-specific click bindings that imply a
// handler without a native onclick property.
var clickBindingAttrs = []string{"onclick", "ng-click", "@click", "v-on:click"}

// ariaStateAttrs signal a stateful widget.
var ariaStateAttrs = []string{"aria-expanded", "aria-pressed", "aria-selected", "aria-checked"}

// elementInteractive applies the interactivity heuristics to one element.
// parent may be nil at the traversal root.
func elementInteractive(ctx context.Context, a Accessor, node NodeInfo, parent *NodeInfo) (bool, error) {
	if node.Kind != KindElement || node.Tag == "body" {
		return false, nil
	}

	// Flutter web paints the page on a canvas and exposes interaction only
	// through its flt-semantics accessibility layer; the generic rules do
	// not apply to those hosts.
	if strings.HasPrefix(node.Tag, "flt-semantics") {
		return semanticsInteractive(ctx, a, node)
	}

	if interactiveTags[node.Tag] {
		return true, nil
	}
	if role, ok := node.Attr("role"); ok && interactiveRoles[strings.ToLower(role)] {
		return true, nil
	}
	if ti, ok := node.Attr("tabindex"); ok && ti != "-1" {
		if parent == nil || parent.Tag != "body" {
			return true, nil
		}
	}

	for cls := range interactiveClasses {
		if hasClass(node, cls) {
			return true, nil
		}
	}
	if action, ok := node.Attr("data-action"); ok && interactiveActions[action] {
		return true, nil
	}

	for _, name := range clickBindingAttrs {
		if _, ok := node.Attr(name); ok {
			return true, nil
		}
	}
	for _, name := range ariaStateAttrs {
		if _, ok := node.Attr(name); ok {
			return true, nil
		}
	}
	if d, ok := node.Attr("draggable"); ok && d != "false" {
		return true, nil
	}

	// onclick registered as a property and the draggable DOM property are
	// invisible in the attribute map; ask the host.
	props, err := a.Properties(ctx, node.ID)
	if err != nil {
		return false, err
	}
	return props.HasClickHandler || props.Draggable, nil
}

// semanticsInteractive evaluates the accessibility-layer decision table.
// It fully replaces the generic rules for flt-semantics hosts.
func semanticsInteractive(ctx context.Context, a Accessor, node NodeInfo) (bool, error) {
	styles, err := a.Styles(ctx, node.ID, "pointer-events")
	if err != nil {
		return false, err
	}
	pointerActive := styles["pointer-events"] == "all"

	r, err := a.BoundingRect(ctx, node.ID)
	if err != nil {
		return false, err
	}
	sizeValid := r.Width > 5 && r.Height > 5

	label, _ := node.Attr("aria-label")
	hasLabel := strings.TrimSpace(label) != ""
	tabIndex, _ := node.Attr("tabindex")
	role, _ := node.Attr("role")
	role = strings.ToLower(role)

	switch {
	case role == "button":
		return pointerActive && sizeValid, nil
	case role == "text":
		return pointerActive && hasLabel && sizeValid, nil
	case semanticsRoles[role]:
		return pointerActive && hasLabel && sizeValid, nil
	case tabIndex == "0":
		return pointerActive && hasLabel && sizeValid, nil
	}
	return false, nil
}

func hasClass(node NodeInfo, class string) bool {
	raw, ok := node.Attr("class")
	if !ok {
		return false
	}
	for _, f := range strings.Fields(raw) {
		if f == class {
			return true
		}
	}
	return false
}
