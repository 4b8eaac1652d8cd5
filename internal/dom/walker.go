// internal/dom/walker.go

// Package dom discovers visible, interactive, unoccluded elements in a
// rendered page and serializes them as a tree of node records. Qualifying
// elements receive contiguous highlight indices in document order, and can
// optionally be painted with a numbered overlay for screenshot correlation.
//
// All page reads go through the Accessor interface, so the same engine runs
// against a live browser or an in-memory document.
package dom

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xkilldash9x/domlens-cli/api/schemas"
)

// Logger is the minimal logging surface the engine needs. Hosts typically
// adapt a zap.SugaredLogger.
type Logger interface {
	Warn(msg string, args ...interface{})
	Debug(msg string, args ...interface{})
}

// NopLogger discards everything.
type NopLogger struct{}

func (NopLogger) Warn(msg string, args ...interface{})  {}
func (NopLogger) Debug(msg string, args ...interface{}) {}

// denylist tags are pruned together with their entire subtree.
var denylist = map[string]bool{
	"svg": true, "script": true, "style": true, "link": true, "meta": true,
}

// Builder runs analysis passes against one page.
type Builder struct {
	acc Accessor
	log Logger

	// OnUnknown folds unresolved hit-tests into the isTopElement flag.
	// Defaults to UnknownIsTop.
	OnUnknown UnknownPolicy
}

// NewBuilder wires an engine to a page host. A nil logger is replaced with
// NopLogger.
func NewBuilder(acc Accessor, log Logger) *Builder {
	if log == nil {
		log = NopLogger{}
	}
	return &Builder{acc: acc, log: log, OnUnknown: UnknownIsTop}
}

// BuildTree analyzes the page behind acc with default logging. See
// Builder.Build.
func BuildTree(ctx context.Context, acc Accessor, opts schemas.BuildOptions) (*schemas.ElementNode, error) {
	return NewBuilder(acc, nil).Build(ctx, opts)
}

// Build walks the document from <body>, classifies every element, assigns
// highlight indices and optionally paints overlays. The returned tree is
// rebuilt fresh on every call; the only page state left behind is the
// overlay container, which accumulates across calls until the caller
// removes it.
func (b *Builder) Build(ctx context.Context, opts schemas.BuildOptions) (*schemas.ElementNode, error) {
	body, err := b.acc.Body(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving document body: %w", err)
	}
	vp, err := b.acc.Viewport(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading viewport: %w", err)
	}

	w := &walk{b: b, vp: vp, opts: opts}
	root, err := w.element(ctx, body, nil, "html/body", nil)
	if err != nil {
		return nil, err
	}
	return root, nil
}

// walk carries the per-call state: one viewport snapshot and the highlight
// counter, threaded explicitly through the recursion.
type walk struct {
	b       *Builder
	vp      Viewport
	opts    schemas.BuildOptions
	counter int
}

// element builds the record for one element and recurses into its subtree.
// parentFrame is the node id of the nearest ancestor iframe, nil in the top
// document; it selects the overlay offset and the topmost branch.
func (w *walk) element(ctx context.Context, node NodeInfo, parent *NodeInfo, xpath string, parentFrame *NodeID) (*schemas.ElementNode, error) {
	a := w.b.acc

	rect, err := a.BoundingRect(ctx, node.ID)
	if err != nil {
		return nil, fmt.Errorf("bounding rect for %s: %w", xpath, err)
	}

	rec := &schemas.ElementNode{
		Type:                schemas.NodeTypeElement,
		TagName:             node.Tag,
		Attributes:          node.AttrMap(),
		XPath:               xpath,
		ViewportCoordinates: viewportCoordinates(rect),
		PageCoordinates:     pageCoordinates(rect, w.vp),
		Viewport:            viewportInfo(w.vp),
	}

	// The -1 sentinel turns occlusion filtering off for the whole tree:
	// every element reports topmost, interactive or not.
	if w.opts.ViewportExpansion == -1 {
		rec.IsTopElement = true
	}

	rec.IsVisible, err = elementVisible(ctx, a, node.ID)
	if err != nil {
		return nil, err
	}
	// Classification is gated cheapest-first; a hidden element is never
	// hit-tested and stays non-interactive.
	if rec.IsVisible {
		rec.IsInteractive, err = elementInteractive(ctx, a, node, parent)
		if err != nil {
			return nil, err
		}
		if rec.IsInteractive && !rec.IsTopElement {
			verdict, err := topmost(ctx, a, node.ID, rect, w.vp, w.opts.ViewportExpansion)
			if err != nil {
				return nil, err
			}
			rec.IsTopElement = w.b.OnUnknown.Apply(verdict)
			if verdict == VerdictUnknown {
				w.b.log.Debug("unresolved hit-test treated as topmost", "xpath", xpath)
			}
		}
	}

	if rec.IsInteractive && rec.IsVisible && rec.IsTopElement {
		idx := w.counter
		w.counter++
		rec.HighlightIndex = &idx
		if w.opts.DoHighlightElements &&
			(w.opts.FocusHighlightIndex < 0 || w.opts.FocusHighlightIndex == idx) {
			w.highlight(ctx, node.ID, rect, idx, parentFrame)
		}
	}

	// Shadow content is appended ahead of light children; the subtree gets
	// boundary-local xpaths.
	if node.HasShadowRoot {
		rec.ShadowRoot = true
		shadow, err := a.ShadowChildren(ctx, node.ID)
		if err != nil {
			return nil, err
		}
		if err := w.children(ctx, rec, shadow, &node, "", parentFrame); err != nil {
			return nil, err
		}
	}

	if node.Tag == "iframe" {
		frameID := node.ID
		kids, err := a.FrameChildren(ctx, node.ID)
		switch {
		case errors.Is(err, ErrFrameAccess):
			w.b.log.Warn("iframe document not accessible, skipping content", "xpath", xpath)
		case err != nil:
			return nil, err
		default:
			// FrameChildren yields the frame body's children, so they get a
			// body parent for the tabindex rule, same as top-document roots.
			frameBody := NodeInfo{Kind: KindElement, Tag: "body"}
			if err := w.children(ctx, rec, kids, &frameBody, "", &frameID); err != nil {
				return nil, err
			}
		}
		return rec, nil
	}

	kids, err := a.Children(ctx, node.ID)
	if err != nil {
		return nil, err
	}
	if err := w.children(ctx, rec, kids, &node, xpath, parentFrame); err != nil {
		return nil, err
	}
	return rec, nil
}

// children classifies and appends one sibling list. prefix is the xpath of
// the parent, empty at a shadow or frame boundary.
func (w *walk) children(ctx context.Context, rec *schemas.ElementNode, kids []NodeInfo, parent *NodeInfo, prefix string, parentFrame *NodeID) error {
	counter := newXPathCounter()
	for _, kid := range kids {
		switch kid.Kind {
		case KindText:
			txt, err := w.text(ctx, kid)
			if err != nil {
				return err
			}
			if txt != nil {
				rec.Children = append(rec.Children, txt)
			}
		case KindElement:
			if denylist[kid.Tag] {
				continue
			}
			pos := counter.next(kid.Tag)
			child, err := w.element(ctx, kid, parent, childXPath(prefix, kid.Tag, pos), parentFrame)
			if err != nil {
				return err
			}
			rec.Children = append(rec.Children, child)
		}
	}
	return nil
}

// text emits a record for a text node, or nil when the node is blank or not
// rendered inside the viewport band.
func (w *walk) text(ctx context.Context, node NodeInfo) (*schemas.TextNode, error) {
	trimmed := strings.TrimSpace(node.Text)
	if trimmed == "" {
		return nil, nil
	}
	visible, err := textVisible(ctx, w.b.acc, node.ID, w.vp)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, nil
	}
	return &schemas.TextNode{Type: schemas.NodeTypeText, Text: trimmed, IsVisible: true}, nil
}
