// internal/dom/domtest/fake.go

// Package domtest provides an in-memory dom.Accessor over parsed HTML for
// engine tests. Geometry, styles and hit-testing have no layout engine
// behind them; tests declare them per element with XPath selectors.
//
// Declarative shadow roots (<template shadowrootmode="...">) are honored:
// the template disappears from the light tree and its children become the
// host's shadow children.
package domtest

import (
	"context"
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/domlens-cli/internal/dom"
)

type nodeState struct {
	n        *html.Node
	inFrame  bool
	inShadow bool
}

// Fake implements dom.Accessor against one or more parsed documents.
type Fake struct {
	doc    *html.Node
	nextID dom.NodeID

	ids   map[dom.NodeID]*nodeState
	byPtr map[*html.Node]dom.NodeID

	rects       map[dom.NodeID]dom.Rect
	offsets     map[dom.NodeID][2]float64
	styles      map[dom.NodeID]map[string]string
	textRects   map[dom.NodeID]dom.Rect
	parentVis   map[dom.NodeID]bool
	props       map[dom.NodeID]dom.NodeProps
	frameDocs   map[dom.NodeID]*html.Node
	frameDenied map[dom.NodeID]bool
	hits        map[[2]int]dom.NodeID

	viewport dom.Viewport

	// Recorded overlay mutations, in call order.
	Boxes   []dom.OverlayBox
	Stamped map[dom.NodeID]map[string]string

	overlayID dom.NodeID
}

// New parses src as a full HTML document and returns a host with a
// 1280x800 unscrolled viewport.
func New(src string) (*Fake, error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("domtest: parsing document: %w", err)
	}
	f := &Fake{
		doc:         doc,
		nextID:      1,
		ids:         make(map[dom.NodeID]*nodeState),
		byPtr:       make(map[*html.Node]dom.NodeID),
		rects:       make(map[dom.NodeID]dom.Rect),
		offsets:     make(map[dom.NodeID][2]float64),
		styles:      make(map[dom.NodeID]map[string]string),
		textRects:   make(map[dom.NodeID]dom.Rect),
		parentVis:   make(map[dom.NodeID]bool),
		props:       make(map[dom.NodeID]dom.NodeProps),
		frameDocs:   make(map[dom.NodeID]*html.Node),
		frameDenied: make(map[dom.NodeID]bool),
		hits:        make(map[[2]int]dom.NodeID),
		Stamped:     make(map[dom.NodeID]map[string]string),
		viewport:    dom.Viewport{Width: 1280, Height: 800},
	}
	return f, nil
}

// MustNew is New for test setup; it panics on parse failure.
func MustNew(src string) *Fake {
	f, err := New(src)
	if err != nil {
		panic(err)
	}
	return f
}

func (f *Fake) register(n *html.Node, inFrame, inShadow bool) dom.NodeID {
	if id, ok := f.byPtr[n]; ok {
		return id
	}
	id := f.nextID
	f.nextID++
	f.byPtr[n] = id
	f.ids[id] = &nodeState{n: n, inFrame: inFrame, inShadow: inShadow}
	return id
}

func (f *Fake) state(id dom.NodeID) (*nodeState, error) {
	st, ok := f.ids[id]
	if !ok {
		return nil, fmt.Errorf("domtest: unknown node id %d", id)
	}
	return st, nil
}

// Node resolves an XPath selector against the main document and returns the
// node's id, registering it if the walk has not reached it yet. It panics
// when the selector matches nothing; this is a test-setup helper.
func (f *Fake) Node(selector string) dom.NodeID {
	n := f.query(f.doc, selector)
	return f.register(n, false, f.underShadow(n))
}

// FrameNode resolves a selector inside a previously attached frame document.
func (f *Fake) FrameNode(iframeSelector, selector string) dom.NodeID {
	frameID := f.Node(iframeSelector)
	doc, ok := f.frameDocs[frameID]
	if !ok {
		panic(fmt.Sprintf("domtest: no frame document attached at %s", iframeSelector))
	}
	n := f.query(doc, selector)
	return f.register(n, true, false)
}

func (f *Fake) query(doc *html.Node, selector string) *html.Node {
	n, err := htmlquery.Query(doc, selector)
	if err != nil {
		panic(fmt.Sprintf("domtest: bad selector %q: %v", selector, err))
	}
	if n == nil {
		panic(fmt.Sprintf("domtest: selector %q matched nothing", selector))
	}
	return n
}

func (f *Fake) underShadow(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if isShadowTemplate(p) {
			return true
		}
	}
	return false
}

// --- test-side declarations ---

// SetViewport replaces the viewport snapshot.
func (f *Fake) SetViewport(vp dom.Viewport) { f.viewport = vp }

// SetRect declares the bounding client rect of the selected element. Offset
// size defaults to the same extent unless SetOffsetSize overrides it.
func (f *Fake) SetRect(selector string, r dom.Rect) {
	f.rects[f.Node(selector)] = r
}

// SetRectByID declares a rect for an already-resolved node id.
func (f *Fake) SetRectByID(id dom.NodeID, r dom.Rect) { f.rects[id] = r }

// SetOffsetSize overrides offsetWidth/offsetHeight for the element.
func (f *Fake) SetOffsetSize(selector string, w, h float64) {
	f.offsets[f.Node(selector)] = [2]float64{w, h}
}

// SetStyle declares one computed style property.
func (f *Fake) SetStyle(selector, prop, value string) {
	id := f.Node(selector)
	if f.styles[id] == nil {
		f.styles[id] = make(map[string]string)
	}
	f.styles[id][prop] = value
}

// SetTextRect declares the range rect of the first text child of the
// selected element, and marks the parent's visibility check as passing.
func (f *Fake) SetTextRect(parentSelector string, r dom.Rect) {
	parent := f.query(f.doc, parentSelector)
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			id := f.register(c, false, f.underShadow(c))
			f.textRects[id] = r
			f.parentVis[id] = true
			return
		}
	}
	panic(fmt.Sprintf("domtest: %q has no text child", parentSelector))
}

// SetParentVisibility overrides the text node's parent visibility check.
func (f *Fake) SetParentVisibility(parentSelector string, visible bool) {
	parent := f.query(f.doc, parentSelector)
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			f.parentVis[f.register(c, false, f.underShadow(c))] = visible
			return
		}
	}
	panic(fmt.Sprintf("domtest: %q has no text child", parentSelector))
}

// SetProps declares reflected element properties.
func (f *Fake) SetProps(selector string, p dom.NodeProps) {
	f.props[f.Node(selector)] = p
}

// AttachFrame parses src as the content document of the selected iframe.
func (f *Fake) AttachFrame(iframeSelector, src string) {
	id := f.Node(iframeSelector)
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		panic(fmt.Sprintf("domtest: parsing frame document: %v", err))
	}
	f.frameDocs[id] = doc
}

// DenyFrame marks the selected iframe's document as inaccessible, the way a
// cross-origin frame behaves.
func (f *Fake) DenyFrame(iframeSelector string) {
	f.frameDenied[f.Node(iframeSelector)] = true
}

// SetHit pins the element returned by hit-testing at an exact point. Without
// a pin, hit-testing falls back to the smallest declared rect containing the
// point.
func (f *Fake) SetHit(x, y int, selector string) {
	f.hits[[2]int{x, y}] = f.Node(selector)
}

// --- dom.Accessor ---

func (f *Fake) Body(ctx context.Context) (dom.NodeInfo, error) {
	body := htmlquery.FindOne(f.doc, "//body")
	if body == nil {
		return dom.NodeInfo{}, fmt.Errorf("domtest: document has no body")
	}
	return f.info(f.register(body, false, false))
}

func (f *Fake) info(id dom.NodeID) (dom.NodeInfo, error) {
	st, err := f.state(id)
	if err != nil {
		return dom.NodeInfo{}, err
	}
	n := st.n
	info := dom.NodeInfo{ID: id}
	switch n.Type {
	case html.ElementNode:
		info.Kind = dom.KindElement
		info.Tag = strings.ToLower(n.Data)
		for _, a := range n.Attr {
			info.Attrs = append(info.Attrs, dom.Attr{Name: a.Key, Value: a.Val})
		}
		info.HasShadowRoot = shadowTemplateOf(n) != nil
	case html.TextNode:
		info.Kind = dom.KindText
		info.Text = n.Data
	case html.DocumentNode:
		info.Kind = dom.KindDocument
	default:
		info.Kind = dom.KindOther
	}
	return info, nil
}

func (f *Fake) Children(ctx context.Context, id dom.NodeID) ([]dom.NodeInfo, error) {
	st, err := f.state(id)
	if err != nil {
		return nil, err
	}
	var out []dom.NodeInfo
	for c := st.n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode && c.Type != html.TextNode {
			continue
		}
		// Shadow templates are not light children.
		if isShadowTemplate(c) {
			continue
		}
		info, err := f.info(f.register(c, st.inFrame, st.inShadow))
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

func (f *Fake) ShadowChildren(ctx context.Context, id dom.NodeID) ([]dom.NodeInfo, error) {
	st, err := f.state(id)
	if err != nil {
		return nil, err
	}
	tpl := shadowTemplateOf(st.n)
	if tpl == nil {
		return nil, nil
	}
	var out []dom.NodeInfo
	for c := tpl.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode && c.Type != html.TextNode {
			continue
		}
		info, err := f.info(f.register(c, st.inFrame, true))
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

func (f *Fake) FrameChildren(ctx context.Context, id dom.NodeID) ([]dom.NodeInfo, error) {
	if f.frameDenied[id] {
		return nil, dom.ErrFrameAccess
	}
	doc, ok := f.frameDocs[id]
	if !ok {
		return nil, dom.ErrFrameAccess
	}
	body := htmlquery.FindOne(doc, "//body")
	if body == nil {
		return nil, nil
	}
	var out []dom.NodeInfo
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode && c.Type != html.TextNode {
			continue
		}
		info, err := f.info(f.register(c, true, false))
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

func (f *Fake) Parent(ctx context.Context, id dom.NodeID) (dom.NodeInfo, bool, error) {
	st, err := f.state(id)
	if err != nil {
		return dom.NodeInfo{}, false, err
	}
	p := st.n.Parent
	// Stop at the shadow boundary and at the document node; the walk never
	// leaves the local tree.
	if p == nil || p.Type != html.ElementNode || isShadowTemplate(p) {
		return dom.NodeInfo{}, false, nil
	}
	info, err := f.info(f.register(p, st.inFrame, st.inShadow))
	if err != nil {
		return dom.NodeInfo{}, false, err
	}
	return info, true, nil
}

func (f *Fake) BoundingRect(ctx context.Context, id dom.NodeID) (dom.Rect, error) {
	if _, err := f.state(id); err != nil {
		return dom.Rect{}, err
	}
	return f.rects[id], nil
}

func (f *Fake) OffsetSize(ctx context.Context, id dom.NodeID) (float64, float64, error) {
	if o, ok := f.offsets[id]; ok {
		return o[0], o[1], nil
	}
	r := f.rects[id]
	return r.Width, r.Height, nil
}

func (f *Fake) Styles(ctx context.Context, id dom.NodeID, props ...string) (map[string]string, error) {
	out := make(map[string]string, len(props))
	declared := f.styles[id]
	for _, p := range props {
		out[p] = declared[p]
	}
	return out, nil
}

func (f *Fake) TextRect(ctx context.Context, id dom.NodeID) (dom.Rect, error) {
	return f.textRects[id], nil
}

func (f *Fake) ParentCheckVisibility(ctx context.Context, id dom.NodeID) (bool, error) {
	v, ok := f.parentVis[id]
	if !ok {
		return true, nil
	}
	return v, nil
}

func (f *Fake) Viewport(ctx context.Context) (dom.Viewport, error) {
	return f.viewport, nil
}

func (f *Fake) InFrame(ctx context.Context, id dom.NodeID) (bool, error) {
	st, err := f.state(id)
	if err != nil {
		return false, err
	}
	return st.inFrame, nil
}

func (f *Fake) InShadow(ctx context.Context, id dom.NodeID) (bool, error) {
	st, err := f.state(id)
	if err != nil {
		return false, err
	}
	return st.inShadow, nil
}

func (f *Fake) ElementFromPoint(ctx context.Context, x, y float64) (dom.NodeInfo, bool, error) {
	return f.hitTest(x, y, false)
}

func (f *Fake) ShadowElementFromPoint(ctx context.Context, id dom.NodeID, x, y float64) (dom.NodeInfo, bool, error) {
	return f.hitTest(x, y, true)
}

func (f *Fake) hitTest(x, y float64, shadow bool) (dom.NodeInfo, bool, error) {
	if id, ok := f.hits[[2]int{int(x), int(y)}]; ok {
		info, err := f.info(id)
		return info, err == nil, err
	}
	// Fallback: smallest declared rect containing the point, restricted to
	// the matching tree.
	var best dom.NodeID
	bestArea := -1.0
	for id, r := range f.rects {
		st := f.ids[id]
		if st == nil || st.n.Type != html.ElementNode || st.inShadow != shadow {
			continue
		}
		if x < r.X || x >= r.X+r.Width || y < r.Y || y >= r.Y+r.Height {
			continue
		}
		area := r.Width * r.Height
		if bestArea < 0 || area < bestArea {
			best, bestArea = id, area
		}
	}
	if bestArea < 0 {
		return dom.NodeInfo{}, false, nil
	}
	info, err := f.info(best)
	return info, err == nil, err
}

func (f *Fake) Properties(ctx context.Context, id dom.NodeID) (dom.NodeProps, error) {
	return f.props[id], nil
}

func (f *Fake) EnsureOverlay(ctx context.Context) (dom.NodeID, error) {
	if f.overlayID == 0 {
		f.overlayID = f.nextID
		f.nextID++
	}
	return f.overlayID, nil
}

func (f *Fake) AppendOverlayBox(ctx context.Context, box dom.OverlayBox) error {
	f.Boxes = append(f.Boxes, box)
	return nil
}

func (f *Fake) SetAttribute(ctx context.Context, id dom.NodeID, name, value string) error {
	st, err := f.state(id)
	if err != nil {
		return err
	}
	if f.Stamped[id] == nil {
		f.Stamped[id] = make(map[string]string)
	}
	f.Stamped[id][name] = value
	for i, a := range st.n.Attr {
		if a.Key == name {
			st.n.Attr[i].Val = value
			return nil
		}
	}
	st.n.Attr = append(st.n.Attr, html.Attribute{Key: name, Val: value})
	return nil
}

// isShadowTemplate reports whether n is a declarative shadow root template.
func isShadowTemplate(n *html.Node) bool {
	if n.Type != html.ElementNode || !strings.EqualFold(n.Data, "template") {
		return false
	}
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, "shadowrootmode") || strings.EqualFold(a.Key, "shadowroot") {
			return true
		}
	}
	return false
}

// shadowTemplateOf returns the element's declarative shadow template, if any.
func shadowTemplateOf(n *html.Node) *html.Node {
	if n.Type != html.ElementNode {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isShadowTemplate(c) {
			return c
		}
	}
	return nil
}
