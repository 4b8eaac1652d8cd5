// Package annotate renders highlight boxes onto captured screenshots so the
// numbered elements survive outside the live page.
package annotate

import (
	"bytes"
	"fmt"
	"image/png"
	"strconv"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/xkilldash9x/domlens-cli/api/schemas"
	"github.com/xkilldash9x/domlens-cli/internal/dom"
)

// Options controls how annotations are drawn.
type Options struct {
	// BorderWidth is the stroke width of bounding boxes in pixels.
	BorderWidth float64
	// ShowLabels draws the highlight index next to each box.
	ShowLabels bool
	// FillBoxes paints a translucent fill inside each box, matching the
	// in-page overlay.
	FillBoxes bool
}

// DefaultOptions mirrors the on-page overlay: 2px border, labels on,
// translucent fill.
func DefaultOptions() Options {
	return Options{
		BorderWidth: 2,
		ShowLabels:  true,
		FillBoxes:   true,
	}
}

// Screenshot draws one box per indexed element over a PNG screenshot and
// returns the annotated PNG. Elements are placed by their viewport
// coordinates, so the screenshot must come from the same viewport the tree
// was built against. Elements with empty geometry are skipped.
func Screenshot(imgData []byte, selectorMap schemas.SelectorMap, opts Options) ([]byte, error) {
	if len(selectorMap) == 0 {
		return imgData, nil
	}

	img, err := png.Decode(bytes.NewReader(imgData))
	if err != nil {
		return nil, fmt.Errorf("decoding screenshot: %w", err)
	}

	dc := gg.NewContextForImage(img)
	dc.SetFontFace(basicfont.Face7x13)

	for _, index := range selectorMap.SortedIndices() {
		el := selectorMap[index]
		box := el.ViewportCoordinates
		if box.Width <= 0 || box.Height <= 0 {
			continue
		}
		drawBox(dc, index, box, opts)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dc.Image()); err != nil {
		return nil, fmt.Errorf("encoding annotated screenshot: %w", err)
	}
	return buf.Bytes(), nil
}

func drawBox(dc *gg.Context, index int, box schemas.CoordinateSet, opts Options) {
	color := dom.PaletteColor(index)
	x := float64(box.TopLeft.X)
	y := float64(box.TopLeft.Y)
	w := float64(box.Width)
	h := float64(box.Height)

	if opts.FillBoxes {
		dc.SetRGBA(channelsOf(color))
		dc.DrawRectangle(x, y, w, h)
		dc.Fill()
	}

	dc.SetHexColor(color)
	dc.SetLineWidth(opts.BorderWidth)
	dc.DrawRectangle(x, y, w, h)
	dc.Stroke()

	if opts.ShowLabels {
		drawLabel(dc, strconv.Itoa(index), color, x, y, w, h)
	}
}

// drawLabel places the index in the top-right corner of the box, flipped
// above the box when the box is too small to hold it, the same placement the
// in-page overlay uses.
func drawLabel(dc *gg.Context, label, color string, x, y, w, h float64) {
	tw, th := dc.MeasureString(label)
	padX, padY := 4.0, 2.0
	bgW := tw + padX*2
	bgH := th + padY*2

	bgX := x + w - bgW - 2
	bgY := y + 2
	if w < bgW+4 || h < bgH+4 {
		bgX = x + w - bgW
		bgY = y - bgH - 2
	}
	if bgX < 0 {
		bgX = 0
	}
	if bgY < 0 {
		bgY = y + 2
	}

	dc.SetHexColor(color)
	dc.DrawRectangle(bgX, bgY, bgW, bgH)
	dc.Fill()

	dc.SetHexColor("#FFFFFF")
	dc.DrawStringAnchored(label, bgX+bgW/2, bgY+bgH/2, 0.5, 0.35)
}

// channelsOf converts a #RRGGBB hex color into normalized RGBA channels with
// the overlay's ~10% fill opacity.
func channelsOf(hex string) (r, g, b, a float64) {
	var ri, gi, bi uint8
	fmt.Sscanf(hex, "#%02x%02x%02x", &ri, &gi, &bi)
	return float64(ri) / 255, float64(gi) / 255, float64(bi) / 255, 0.1
}
