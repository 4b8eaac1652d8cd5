// internal/dom/overlay.go
package dom

import (
	"context"
	"strconv"
)

// HighlightAttr is stamped on every highlighted element so external tooling
// can find or clean up highlighted targets later.
const HighlightAttr = "data-domlens-highlight"

// OverlayContainerID names the shared overlay container element.
const OverlayContainerID = "domlens-highlight-container"

// palette cycles by highlight index mod 12.
var palette = [12]string{
	"#FF0000", "#00FF00", "#0000FF", "#FFA500",
	"#800080", "#008080", "#FF69B4", "#4B0082",
	"#FF4500", "#2E8B57", "#DC143C", "#4682B4",
}

// fillAlpha is the hex alpha suffix for the ~10% fill.
const fillAlpha = "1A"

// PaletteColor returns the hex border color assigned to a highlight index.
// Screenshot annotation uses the same cycle so on-page overlays and rendered
// images agree on colors.
func PaletteColor(index int) string {
	if index < 0 {
		index = -index
	}
	return palette[index%len(palette)]
}

// highlight paints one numbered box over the element. It never fails the
// walk: overlay drawing is purely additive page mutation, so accessor errors
// are logged and swallowed.
func (w *walk) highlight(ctx context.Context, id NodeID, rect Rect, index int, parentFrame *NodeID) {
	a := w.b.acc

	// Page-space box. Elements one iframe deep are shifted by that frame's
	// own page-space origin; deeper nesting is not compounded.
	x := rect.X + w.vp.ScrollX
	y := rect.Y + w.vp.ScrollY
	if parentFrame != nil {
		fr, err := a.BoundingRect(ctx, *parentFrame)
		if err != nil {
			w.b.log.Warn("overlay frame offset unavailable", "index", index, "error", err)
		} else {
			x = rect.X + fr.X + w.vp.ScrollX
			y = rect.Y + fr.Y + w.vp.ScrollY
		}
	}

	box := overlayBox(x, y, rect.Width, rect.Height, index)

	if _, err := a.EnsureOverlay(ctx); err != nil {
		w.b.log.Warn("overlay container unavailable", "index", index, "error", err)
		return
	}
	if err := a.AppendOverlayBox(ctx, box); err != nil {
		w.b.log.Warn("overlay box not drawn", "index", index, "error", err)
	}
	if err := a.SetAttribute(ctx, id, HighlightAttr, strconv.Itoa(index)); err != nil {
		w.b.log.Warn("highlight attribute not stamped", "index", index, "error", err)
	}
}

// overlayBox lays out one highlight box: palette color, 10% fill, numeric
// label in the top-right corner, flipped above the box when the box is
// smaller than the label's footprint.
func overlayBox(x, y, width, height float64, index int) OverlayBox {
	color := PaletteColor(index)
	label := strconv.Itoa(index)
	fontSize := labelFontSize(height)

	labelW := estimateLabelWidth(label, fontSize)
	labelH := float64(fontSize) + 4

	labelX := x + width - labelW - 2
	labelY := y + 2
	if width < labelW+4 || height < labelH+4 {
		labelX = x + width - labelW
		labelY = y - labelH - 2
	}

	return OverlayBox{
		Index:     index,
		X:         x,
		Y:         y,
		Width:     width,
		Height:    height,
		Color:     color,
		FillColor: color + fillAlpha,
		Label:     label,
		FontSize:  fontSize,
		LabelX:    labelX,
		LabelY:    labelY,
	}
}

// labelFontSize scales with box height, clamped to 8..12px.
func labelFontSize(height float64) int {
	size := int(height / 2)
	if size < 8 {
		return 8
	}
	if size > 12 {
		return 12
	}
	return size
}

// estimateLabelWidth approximates rendered digit width without a layout
// pass. Digits in the UI fonts involved run close to 0.6em plus padding.
func estimateLabelWidth(label string, fontSize int) float64 {
	return float64(len(label))*float64(fontSize)*0.6 + 4
}
