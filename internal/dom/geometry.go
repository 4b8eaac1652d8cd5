// internal/dom/geometry.go
package dom

import (
	"math"

	"github.com/xkilldash9x/domlens-cli/api/schemas"
)

// expandViewport returns the viewport rect grown by expansion CSS pixels on
// every side. A negative expansion disables culling entirely; callers must
// check that before intersecting.
func expandViewport(vp Viewport, expansion int) Rect {
	e := float64(expansion)
	return Rect{
		X:      -e,
		Y:      -e,
		Width:  vp.Width + 2*e,
		Height: vp.Height + 2*e,
	}
}

// intersects reports whether two rects share any area. Zero-size rects never
// intersect anything.
func intersects(a, b Rect) bool {
	return a.X < b.X+b.Width &&
		a.X+a.Width > b.X &&
		a.Y < b.Y+b.Height &&
		a.Y+a.Height > b.Y
}

func roundi(f float64) int {
	return int(math.Round(f))
}

// viewportCoordinates converts a viewport-relative rect into the serialized
// corner set, rounding every component to whole pixels.
func viewportCoordinates(r Rect) schemas.CoordinateSet {
	return cornerSet(r.X, r.Y, r.Width, r.Height)
}

// pageCoordinates translates a viewport-relative rect into absolute page
// space using the top document's scroll offsets.
func pageCoordinates(r Rect, vp Viewport) schemas.CoordinateSet {
	return cornerSet(r.X+vp.ScrollX, r.Y+vp.ScrollY, r.Width, r.Height)
}

func cornerSet(x, y, w, h float64) schemas.CoordinateSet {
	return schemas.CoordinateSet{
		TopLeft:     schemas.Coordinates{X: roundi(x), Y: roundi(y)},
		TopRight:    schemas.Coordinates{X: roundi(x + w), Y: roundi(y)},
		BottomLeft:  schemas.Coordinates{X: roundi(x), Y: roundi(y + h)},
		BottomRight: schemas.Coordinates{X: roundi(x + w), Y: roundi(y + h)},
		Center:      schemas.Coordinates{X: roundi(x + w/2), Y: roundi(y + h/2)},
		Width:       roundi(w),
		Height:      roundi(h),
	}
}

// viewportInfo converts the accessor viewport into its wire form.
func viewportInfo(vp Viewport) schemas.ViewportInfo {
	return schemas.ViewportInfo{
		ScrollX: roundi(vp.ScrollX),
		ScrollY: roundi(vp.ScrollY),
		Width:   roundi(vp.Width),
		Height:  roundi(vp.Height),
	}
}
