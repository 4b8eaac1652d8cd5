// internal/dom/overlay_test.go
package dom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverlayBoxPaletteCycles(t *testing.T) {
	first := overlayBox(0, 0, 100, 50, 0)
	wrapped := overlayBox(0, 0, 100, 50, 12)
	assert.Equal(t, first.Color, wrapped.Color)
	assert.NotEqual(t, first.Color, overlayBox(0, 0, 100, 50, 1).Color)
	assert.Equal(t, first.Color+fillAlpha, first.FillColor)
}

func TestOverlayBoxLabel(t *testing.T) {
	box := overlayBox(10, 20, 200, 100, 7)
	assert.Equal(t, "7", box.Label)
	assert.Equal(t, 7, box.Index)
	// Tall box clamps to the max label size and keeps the label inside the
	// top-right corner.
	assert.Equal(t, 12, box.FontSize)
	assert.Greater(t, box.LabelX, box.X)
	assert.Less(t, box.LabelX, box.X+box.Width)
	assert.InDelta(t, box.Y+2, box.LabelY, 0.001)
}

func TestOverlayBoxLabelFlipsAboveSmallBox(t *testing.T) {
	box := overlayBox(50, 50, 6, 6, 3)
	assert.Less(t, box.LabelY, box.Y)
}

func TestLabelFontSizeClamps(t *testing.T) {
	assert.Equal(t, 8, labelFontSize(4))
	assert.Equal(t, 10, labelFontSize(20))
	assert.Equal(t, 12, labelFontSize(500))
}
