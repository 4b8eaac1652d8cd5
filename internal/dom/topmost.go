// internal/dom/topmost.go
package dom

import "context"

// Verdict is the outcome of an occlusion check.
type Verdict int

const (
	// VerdictTop means the element was positively hit at its center.
	VerdictTop Verdict = iota
	// VerdictNotTop means another element was hit instead.
	VerdictNotTop
	// VerdictUnknown means the check could not be performed: the hit-test
	// failed, returned nothing, or the point lies off-screen.
	VerdictUnknown
)

// UnknownPolicy decides how an Unknown verdict is folded into the boolean
// isTopElement field.
type UnknownPolicy int

const (
	// UnknownIsTop treats unverifiable elements as unoccluded. This is the
	// default: an agent that skips an occluded element loses little, one
	// that skips a reachable element loses the interaction.
	UnknownIsTop UnknownPolicy = iota
	// UnknownIsNotTop treats unverifiable elements as occluded.
	UnknownIsNotTop
)

// Apply folds a verdict into a boolean under the policy.
func (p UnknownPolicy) Apply(v Verdict) bool {
	switch v {
	case VerdictTop:
		return true
	case VerdictNotTop:
		return false
	default:
		return p == UnknownIsTop
	}
}

// topmost decides whether an element is the element actually painted at its
// visual center. The three branches intentionally differ in strictness:
//
//   - iframe content: always Top. Hit-testing across frame documents is not
//     attempted; frame content is assumed unoccluded.
//   - shadow content: hit-test inside the owning shadow root.
//   - top document: viewport culling, then a document-level hit-test.
func topmost(ctx context.Context, a Accessor, id NodeID, rect Rect, vp Viewport, expansion int) (Verdict, error) {
	// Expansion -1 disables occlusion checking for every element, shadow
	// and frame content included.
	if expansion == -1 {
		return VerdictTop, nil
	}

	inFrame, err := a.InFrame(ctx, id)
	if err != nil {
		return VerdictUnknown, err
	}
	if inFrame {
		return VerdictTop, nil
	}

	inShadow, err := a.InShadow(ctx, id)
	if err != nil {
		return VerdictUnknown, err
	}
	if inShadow {
		return shadowTopmost(ctx, a, id, rect)
	}

	// The band is held viewport-relative; intersecting the client rect with
	// it is the same comparison as page-space box vs scrolled band.
	band := expandViewport(vp, expansion)
	if !intersects(rect, band) {
		return VerdictNotTop, nil
	}

	cx, cy := rect.Center()
	// A center outside the live viewport cannot be hit-tested; the element
	// survives culling, so assume it is reachable.
	if cx < 0 || cx >= vp.Width || cy < 0 || cy >= vp.Height {
		return VerdictTop, nil
	}

	hit, found, err := a.ElementFromPoint(ctx, cx, cy)
	if err != nil {
		return VerdictUnknown, nil
	}
	if !found {
		return VerdictNotTop, nil
	}
	return ancestorMatch(ctx, a, hit, id)
}

// shadowTopmost hit-tests against the shadow root containing id. A failed
// lookup is Unknown; an empty result is NotTop.
func shadowTopmost(ctx context.Context, a Accessor, id NodeID, rect Rect) (Verdict, error) {
	cx, cy := rect.Center()
	hit, found, err := a.ShadowElementFromPoint(ctx, id, cx, cy)
	if err != nil {
		return VerdictUnknown, nil
	}
	if !found {
		return VerdictNotTop, nil
	}
	return ancestorMatch(ctx, a, hit, id)
}

// ancestorMatch walks up from the hit element looking for the target.
// Hitting the target's own descendant still counts as the target being on
// top at that point.
func ancestorMatch(ctx context.Context, a Accessor, hit NodeInfo, target NodeID) (Verdict, error) {
	cur := hit
	for {
		if cur.ID == target {
			return VerdictTop, nil
		}
		parent, ok, err := a.Parent(ctx, cur.ID)
		if err != nil {
			return VerdictUnknown, nil
		}
		if !ok {
			return VerdictNotTop, nil
		}
		cur = parent
	}
}
