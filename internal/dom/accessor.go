// internal/dom/accessor.go
package dom

import (
	"context"
	"errors"
)

// NodeID is an opaque, host-assigned handle for a single DOM node. IDs are
// only meaningful to the Accessor that issued them and only for the lifetime
// of one analysis pass.
type NodeID int64

// NodeKind classifies a node handle.
type NodeKind int

const (
	KindElement NodeKind = iota + 1
	KindText
	KindDocument
	KindOther
)

// Attr is a single attribute. Order of appearance in the source document is
// preserved by hosts that know it.
type Attr struct {
	Name  string
	Value string
}

// NodeInfo is the structural description of one node. Hosts return it from
// every structural read so that remote implementations can batch the
// round-trip.
type NodeInfo struct {
	ID            NodeID
	Kind          NodeKind
	Tag           string // lowercased; elements only
	Text          string // raw data; text nodes only
	Attrs         []Attr
	HasShadowRoot bool
}

// Attr returns the value of the named attribute and whether it is present.
func (n NodeInfo) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrMap copies the attributes into an ordered-insertion map for
// serialization.
func (n NodeInfo) AttrMap() map[string]string {
	m := make(map[string]string, len(n.Attrs))
	for _, a := range n.Attrs {
		m[a.Name] = a.Value
	}
	return m
}

// Rect is a viewport-relative box in CSS pixels, as returned by
// getBoundingClientRect.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Center returns the visual center point of the rect.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Viewport holds the scroll offsets and window size of the top document.
type Viewport struct {
	ScrollX float64
	ScrollY float64
	Width   float64
	Height  float64
}

// NodeProps carries the reflected element properties the attribute map
// cannot answer (live handler registration, property-only state).
type NodeProps struct {
	HasClickHandler bool
	Draggable       bool
}

// OverlayBox is one highlight box for the overlay layer. Coordinates are
// page-space, already corrected for iframe offsets by the renderer.
type OverlayBox struct {
	Index     int
	X         float64
	Y         float64
	Width     float64
	Height    float64
	Color     string // border color, #rrggbb
	FillColor string // background color, #rrggbb with alpha suffix
	Label     string
	FontSize  int
	// Label placement, page-space.
	LabelX float64
	LabelY float64
}

// ErrFrameAccess is returned by FrameChildren when the frame document cannot
// be read (cross-origin). Callers keep the iframe node with empty children.
var ErrFrameAccess = errors.New("dom: frame document not accessible")

// Accessor is the capability surface the engine needs from a rendered page.
// A host may be an in-process document model or a remote browser reached
// over a debugging protocol; the traversal, classification and overlay logic
// is identical either way.
//
// All reads are synchronous with respect to the page: the host must not
// reorder them against each other.
type Accessor interface {
	// Body returns the <body> element of the top document.
	Body(ctx context.Context) (NodeInfo, error)

	// Children returns the ordinary child nodes of an element, in document
	// order. Shadow and frame content is not included.
	Children(ctx context.Context, id NodeID) ([]NodeInfo, error)

	// ShadowChildren returns the child nodes of the element's shadow root.
	// Empty when the element hosts no shadow root.
	ShadowChildren(ctx context.Context, id NodeID) ([]NodeInfo, error)

	// FrameChildren returns the child nodes of an iframe's content body.
	// Returns ErrFrameAccess (possibly wrapped) when the document cannot be
	// introspected.
	FrameChildren(ctx context.Context, id NodeID) ([]NodeInfo, error)

	// Parent returns the parent element of a node. ok is false when the
	// walk would leave the current document or shadow tree, or when the
	// node has no element parent.
	Parent(ctx context.Context, id NodeID) (info NodeInfo, ok bool, err error)

	// BoundingRect returns the border box of an element, viewport-relative.
	BoundingRect(ctx context.Context, id NodeID) (Rect, error)

	// OffsetSize returns offsetWidth and offsetHeight of an element.
	OffsetSize(ctx context.Context, id NodeID) (w, h float64, err error)

	// Styles resolves the requested computed style properties.
	Styles(ctx context.Context, id NodeID, props ...string) (map[string]string, error)

	// TextRect returns the bounding rect of a range spanning the text node.
	TextRect(ctx context.Context, id NodeID) (Rect, error)

	// ParentCheckVisibility runs the native combined opacity and CSS
	// visibility check on the text node's parent element.
	ParentCheckVisibility(ctx context.Context, id NodeID) (bool, error)

	// Viewport returns scroll offsets and window size of the top document.
	Viewport(ctx context.Context) (Viewport, error)

	// InFrame reports whether the node's owning document is not the top
	// document.
	InFrame(ctx context.Context, id NodeID) (bool, error)

	// InShadow reports whether the node's root is a shadow root.
	InShadow(ctx context.Context, id NodeID) (bool, error)

	// ElementFromPoint hit-tests the top document at a viewport-relative
	// point. ok is false when nothing is painted there.
	ElementFromPoint(ctx context.Context, x, y float64) (NodeInfo, bool, error)

	// ShadowElementFromPoint hit-tests the shadow root that contains id.
	ShadowElementFromPoint(ctx context.Context, id NodeID, x, y float64) (NodeInfo, bool, error)

	// Properties reflects handler and property state off an element.
	Properties(ctx context.Context, id NodeID) (NodeProps, error)

	// EnsureOverlay lazily creates (once per page) the shared highlight
	// container and returns its handle.
	EnsureOverlay(ctx context.Context) (NodeID, error)

	// AppendOverlayBox adds one highlight box to the shared container.
	AppendOverlayBox(ctx context.Context, box OverlayBox) error

	// SetAttribute stamps an attribute onto an element, used to leave a
	// locator on highlighted elements for external cleanup and reference.
	SetAttribute(ctx context.Context, id NodeID, name, value string) error
}
