// internal/dom/visibility.go
package dom

import "context"

// elementVisible reports whether an element takes up layout space and is not
// hidden by CSS. Opacity is deliberately not consulted: a fully transparent
// element still occupies space and can receive events.
func elementVisible(ctx context.Context, a Accessor, id NodeID) (bool, error) {
	w, h, err := a.OffsetSize(ctx, id)
	if err != nil {
		return false, err
	}
	if w <= 0 || h <= 0 {
		return false, nil
	}
	styles, err := a.Styles(ctx, id, "visibility", "display")
	if err != nil {
		return false, err
	}
	if styles["visibility"] == "hidden" || styles["display"] == "none" {
		return false, nil
	}
	return true, nil
}

// textVisible reports whether a text node renders inside the vertical band
// of the viewport. Only the top edge is range-checked: a node whose top is
// above the viewport is excluded, one hanging off the bottom with its top
// still inside is kept.
func textVisible(ctx context.Context, a Accessor, id NodeID, vp Viewport) (bool, error) {
	r, err := a.TextRect(ctx, id)
	if err != nil {
		return false, err
	}
	if r.Width == 0 || r.Height == 0 {
		return false, nil
	}
	if r.Y < 0 || r.Y > vp.Height {
		return false, nil
	}
	return a.ParentCheckVisibility(ctx, id)
}
