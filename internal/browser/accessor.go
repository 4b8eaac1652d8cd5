// internal/browser/accessor.go
package browser

import (
	"context"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	cdpdom "github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/domlens-cli/internal/dom"
)

// objectGroup tags every remote object this accessor resolves so they can be
// released in one call when the pass ends.
const objectGroup = "domlens"

// defaultReadRate paces CDP round-trips. Large pages issue thousands of
// layout reads; an unthrottled burst can starve the target's IO loop.
const defaultReadRate = 400

type nodeEntry struct {
	node *cdp.Node
	// parent is zero when the node has no element parent in its own tree:
	// document roots, shadow root children, frame document content.
	parent   dom.NodeID
	inFrame  bool
	inShadow bool
}

// Accessor implements dom.Accessor against a chromedp tab. The document
// topology is prefetched once (DOM.getDocument with pierce), so structural
// reads are answered locally; geometry, styles and hit-tests are live CDP
// calls against backend node ids.
//
// The snapshot is not refreshed mid-pass: a page that mutates during
// analysis yields best-effort results, same as any tree walk over a live
// document.
type Accessor struct {
	logger  *zap.Logger
	limiter *rate.Limiter

	entries  map[dom.NodeID]*nodeEntry   // keyed by backend node id
	byNodeID map[cdp.NodeID]dom.NodeID   // session node id -> backend
	objects  map[dom.NodeID]runtime.RemoteObjectID

	body           dom.NodeID
	overlayCreated bool
}

var _ dom.Accessor = (*Accessor)(nil)

// NewAccessor snapshots the current document topology of the tab behind ctx.
// readRate caps live CDP reads per second; zero or negative selects the
// default.
func NewAccessor(ctx context.Context, logger *zap.Logger, readRate float64) (*Accessor, error) {
	if readRate <= 0 {
		readRate = defaultReadRate
	}
	a := &Accessor{
		logger:   logger.Named("accessor"),
		limiter:  rate.NewLimiter(rate.Limit(readRate), int(readRate)),
		entries:  make(map[dom.NodeID]*nodeEntry),
		byNodeID: make(map[cdp.NodeID]dom.NodeID),
		objects:  make(map[dom.NodeID]runtime.RemoteObjectID),
	}

	var root *cdp.Node
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		var err error
		root, err = cdpdom.GetDocument().WithDepth(-1).WithPierce(true).Do(c)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("snapshotting document topology: %w", err)
	}

	a.index(root, 0, false, false)
	if a.body == 0 {
		return nil, fmt.Errorf("document has no body element")
	}
	return a, nil
}

// index registers one node and its subtree. Document and fragment roots
// break the parent chain: their children carry a zero parent so upward walks
// stop at the boundary.
func (a *Accessor) index(n *cdp.Node, parent dom.NodeID, inFrame, inShadow bool) {
	if n == nil {
		return
	}
	id := dom.NodeID(n.BackendNodeID)
	a.entries[id] = &nodeEntry{node: n, parent: parent, inFrame: inFrame, inShadow: inShadow}
	a.byNodeID[n.NodeID] = id

	childParent := dom.NodeID(0)
	if n.NodeType == cdp.NodeTypeElement {
		childParent = id
		if a.body == 0 && !inFrame && !inShadow && strings.EqualFold(n.NodeName, "body") {
			a.body = id
		}
	}
	for _, c := range n.Children {
		a.index(c, childParent, inFrame, inShadow)
	}
	for _, sr := range n.ShadowRoots {
		// The fragment itself is indexed for completeness; its children
		// start a fresh parent chain.
		a.index(sr, 0, inFrame, true)
	}
	if n.ContentDocument != nil {
		a.index(n.ContentDocument, 0, true, false)
	}
}

func (a *Accessor) entry(id dom.NodeID) (*nodeEntry, error) {
	e, ok := a.entries[id]
	if !ok {
		return nil, fmt.Errorf("node %d not in topology snapshot", id)
	}
	return e, nil
}

func (a *Accessor) info(id dom.NodeID) (dom.NodeInfo, error) {
	e, err := a.entry(id)
	if err != nil {
		return dom.NodeInfo{}, err
	}
	n := e.node
	info := dom.NodeInfo{ID: id}
	switch n.NodeType {
	case cdp.NodeTypeElement:
		info.Kind = dom.KindElement
		info.Tag = strings.ToLower(n.NodeName)
		for i := 0; i+1 < len(n.Attributes); i += 2 {
			info.Attrs = append(info.Attrs, dom.Attr{Name: n.Attributes[i], Value: n.Attributes[i+1]})
		}
		info.HasShadowRoot = len(n.ShadowRoots) > 0
	case cdp.NodeTypeText:
		info.Kind = dom.KindText
		info.Text = n.NodeValue
	case cdp.NodeTypeDocument, cdp.NodeTypeDocumentFragment:
		info.Kind = dom.KindDocument
	default:
		info.Kind = dom.KindOther
	}
	return info, nil
}

func (a *Accessor) childInfos(kids []*cdp.Node) ([]dom.NodeInfo, error) {
	var out []dom.NodeInfo
	for _, c := range kids {
		if c.NodeType != cdp.NodeTypeElement && c.NodeType != cdp.NodeTypeText {
			continue
		}
		info, err := a.info(dom.NodeID(c.BackendNodeID))
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, nil
}

// --- structural reads (answered from the snapshot) ---

func (a *Accessor) Body(ctx context.Context) (dom.NodeInfo, error) {
	return a.info(a.body)
}

func (a *Accessor) Children(ctx context.Context, id dom.NodeID) ([]dom.NodeInfo, error) {
	e, err := a.entry(id)
	if err != nil {
		return nil, err
	}
	return a.childInfos(e.node.Children)
}

func (a *Accessor) ShadowChildren(ctx context.Context, id dom.NodeID) ([]dom.NodeInfo, error) {
	e, err := a.entry(id)
	if err != nil {
		return nil, err
	}
	var out []dom.NodeInfo
	for _, sr := range e.node.ShadowRoots {
		infos, err := a.childInfos(sr.Children)
		if err != nil {
			return nil, err
		}
		out = append(out, infos...)
	}
	return out, nil
}

func (a *Accessor) FrameChildren(ctx context.Context, id dom.NodeID) ([]dom.NodeInfo, error) {
	e, err := a.entry(id)
	if err != nil {
		return nil, err
	}
	doc := e.node.ContentDocument
	if doc == nil {
		// Out-of-process or cross-origin frames are not pierced by the
		// snapshot; their content stays opaque.
		return nil, dom.ErrFrameAccess
	}
	body := findElement(doc, "body")
	if body == nil {
		return nil, nil
	}
	return a.childInfos(body.Children)
}

func (a *Accessor) Parent(ctx context.Context, id dom.NodeID) (dom.NodeInfo, bool, error) {
	e, err := a.entry(id)
	if err != nil {
		return dom.NodeInfo{}, false, err
	}
	if e.parent == 0 {
		return dom.NodeInfo{}, false, nil
	}
	info, err := a.info(e.parent)
	if err != nil {
		return dom.NodeInfo{}, false, err
	}
	return info, true, nil
}

func (a *Accessor) InFrame(ctx context.Context, id dom.NodeID) (bool, error) {
	e, err := a.entry(id)
	if err != nil {
		return false, err
	}
	return e.inFrame, nil
}

func (a *Accessor) InShadow(ctx context.Context, id dom.NodeID) (bool, error) {
	e, err := a.entry(id)
	if err != nil {
		return false, err
	}
	return e.inShadow, nil
}

// findElement digs through document/html wrapper nodes for a named element.
func findElement(n *cdp.Node, name string) *cdp.Node {
	if n == nil {
		return nil
	}
	if n.NodeType == cdp.NodeTypeElement && strings.EqualFold(n.NodeName, name) {
		return n
	}
	for _, c := range n.Children {
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

// --- live reads (CDP round-trips) ---

// resolve pins the node to a remote object in its own execution context.
func (a *Accessor) resolve(ctx context.Context, id dom.NodeID) (runtime.RemoteObjectID, error) {
	if objID, ok := a.objects[id]; ok {
		return objID, nil
	}
	e, err := a.entry(id)
	if err != nil {
		return "", err
	}
	var obj *runtime.RemoteObject
	err = a.run(ctx, func(c context.Context) error {
		var err error
		obj, err = cdpdom.ResolveNode().
			WithBackendNodeID(e.node.BackendNodeID).
			WithObjectGroup(objectGroup).
			Do(c)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("resolving node %d: %w", id, err)
	}
	if obj == nil || obj.ObjectID == "" {
		return "", fmt.Errorf("node %d resolved to nothing", id)
	}
	a.objects[id] = obj.ObjectID
	return obj.ObjectID, nil
}

// callOn runs a JS function with `this` bound to the node and decodes the
// by-value result into out (out may be nil). Arguments are embedded into the
// declaration with jsEncode rather than passed as call arguments.
func (a *Accessor) callOn(ctx context.Context, id dom.NodeID, decl string, out any) error {
	objID, err := a.resolve(ctx, id)
	if err != nil {
		return err
	}
	params := runtime.CallFunctionOn(decl).
		WithObjectID(objID).
		WithReturnByValue(true).
		WithSilent(true)

	var result *runtime.RemoteObject
	var exc *runtime.ExceptionDetails
	err = a.run(ctx, func(c context.Context) error {
		var err error
		result, exc, err = params.Do(c)
		return err
	})
	if err != nil {
		return err
	}
	if exc != nil {
		return fmt.Errorf("remote call failed: %s", exc.Text)
	}
	if out == nil || result == nil || result.Value == nil {
		return nil
	}
	return json.Unmarshal(result.Value, out)
}

// run executes one paced CDP action on the tab.
func (a *Accessor) run(ctx context.Context, f func(context.Context) error) error {
	if err := a.limiter.Wait(ctx); err != nil {
		return err
	}
	return chromedp.Run(ctx, chromedp.ActionFunc(f))
}

func (a *Accessor) BoundingRect(ctx context.Context, id dom.NodeID) (dom.Rect, error) {
	var r dom.Rect
	err := a.callOn(ctx, id,
		`function() { const r = this.getBoundingClientRect(); return {X: r.x, Y: r.y, Width: r.width, Height: r.height}; }`,
		&r)
	return r, err
}

func (a *Accessor) OffsetSize(ctx context.Context, id dom.NodeID) (float64, float64, error) {
	var out struct {
		W float64 `json:"w"`
		H float64 `json:"h"`
	}
	err := a.callOn(ctx, id,
		`function() { return {w: this.offsetWidth || 0, h: this.offsetHeight || 0}; }`,
		&out)
	return out.W, out.H, err
}

func (a *Accessor) Styles(ctx context.Context, id dom.NodeID, props ...string) (map[string]string, error) {
	out := make(map[string]string, len(props))
	decl := fmt.Sprintf(`function() {
		const cs = window.getComputedStyle(this);
		const out = {};
		for (const p of %s) { out[p] = cs.getPropertyValue(p); }
		return out;
	}`, jsEncode(props))
	err := a.callOn(ctx, id, decl, &out)
	return out, err
}

func (a *Accessor) TextRect(ctx context.Context, id dom.NodeID) (dom.Rect, error) {
	var r dom.Rect
	err := a.callOn(ctx, id,
		`function() {
			const range = document.createRange();
			range.selectNodeContents(this);
			const r = range.getBoundingClientRect();
			return {X: r.x, Y: r.y, Width: r.width, Height: r.height};
		}`,
		&r)
	return r, err
}

func (a *Accessor) ParentCheckVisibility(ctx context.Context, id dom.NodeID) (bool, error) {
	var visible bool
	err := a.callOn(ctx, id,
		`function() {
			const p = this.parentElement;
			if (!p) { return false; }
			if (typeof p.checkVisibility !== 'function') { return true; }
			return p.checkVisibility({checkOpacity: true, checkVisibilityCSS: true});
		}`,
		&visible)
	return visible, err
}

func (a *Accessor) Viewport(ctx context.Context) (dom.Viewport, error) {
	var vp dom.Viewport
	err := a.run(ctx, func(c context.Context) error {
		return chromedp.Evaluate(
			`({ScrollX: window.scrollX, ScrollY: window.scrollY, Width: window.innerWidth, Height: window.innerHeight})`,
			&vp,
		).Do(c)
	})
	return vp, err
}

func (a *Accessor) Properties(ctx context.Context, id dom.NodeID) (dom.NodeProps, error) {
	var out struct {
		Click bool `json:"click"`
		Drag  bool `json:"drag"`
	}
	err := a.callOn(ctx, id,
		`function() { return {click: this.onclick != null, drag: this.draggable === true}; }`,
		&out)
	return dom.NodeProps{HasClickHandler: out.Click, Draggable: out.Drag}, err
}

// ElementFromPoint hit-tests the top document. The result comes back as a
// remote object and is mapped to the snapshot through DOM.requestNode.
func (a *Accessor) ElementFromPoint(ctx context.Context, x, y float64) (dom.NodeInfo, bool, error) {
	expr := fmt.Sprintf("document.elementFromPoint(%g, %g)", x, y)
	return a.hitTest(ctx, func(c context.Context) (*runtime.RemoteObject, error) {
		obj, exc, err := runtime.Evaluate(expr).
			WithObjectGroup(objectGroup).
			WithSilent(true).
			Do(c)
		if err != nil {
			return nil, err
		}
		if exc != nil {
			return nil, fmt.Errorf("hit-test failed: %s", exc.Text)
		}
		return obj, nil
	})
}

// ShadowElementFromPoint hit-tests the shadow root containing id, in that
// node's own execution context.
func (a *Accessor) ShadowElementFromPoint(ctx context.Context, id dom.NodeID, x, y float64) (dom.NodeInfo, bool, error) {
	objID, err := a.resolve(ctx, id)
	if err != nil {
		return dom.NodeInfo{}, false, err
	}
	decl := fmt.Sprintf(`function() {
		const root = this.getRootNode();
		if (!root || typeof root.elementFromPoint !== 'function') { throw new Error('no shadow lookup'); }
		return root.elementFromPoint(%g, %g);
	}`, x, y)
	return a.hitTest(ctx, func(c context.Context) (*runtime.RemoteObject, error) {
		obj, exc, err := runtime.CallFunctionOn(decl).
			WithObjectID(objID).
			WithObjectGroup(objectGroup).
			WithSilent(true).
			Do(c)
		if err != nil {
			return nil, err
		}
		if exc != nil {
			return nil, fmt.Errorf("shadow hit-test failed: %s", exc.Text)
		}
		return obj, nil
	})
}

func (a *Accessor) hitTest(ctx context.Context, eval func(context.Context) (*runtime.RemoteObject, error)) (dom.NodeInfo, bool, error) {
	var info dom.NodeInfo
	var found bool
	err := a.run(ctx, func(c context.Context) error {
		obj, err := eval(c)
		if err != nil {
			return err
		}
		if obj == nil || obj.ObjectID == "" {
			return nil // null result: nothing painted there
		}
		nodeID, err := cdpdom.RequestNode(obj.ObjectID).Do(c)
		if err != nil {
			return fmt.Errorf("mapping hit result to node: %w", err)
		}
		backendID, ok := a.byNodeID[nodeID]
		if !ok {
			// The page mutated after the snapshot; the hit result is a node
			// the walk has never seen.
			return fmt.Errorf("hit result outside topology snapshot")
		}
		info, err = a.info(backendID)
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return dom.NodeInfo{}, false, err
	}
	return info, found, nil
}

// --- overlay mutation ---

const overlayContainerJS = `(function() {
	let c = document.getElementById('` + dom.OverlayContainerID + `');
	if (!c) {
		c = document.createElement('div');
		c.id = '` + dom.OverlayContainerID + `';
		c.style.position = 'absolute';
		c.style.top = '0';
		c.style.left = '0';
		c.style.width = '100%';
		c.style.height = '100%';
		c.style.pointerEvents = 'none';
		c.style.zIndex = '2147483647';
		document.body.appendChild(c);
	}
	return true;
})()`

func (a *Accessor) EnsureOverlay(ctx context.Context) (dom.NodeID, error) {
	if a.overlayCreated {
		return 0, nil
	}
	var ok bool
	err := a.run(ctx, func(c context.Context) error {
		return chromedp.Evaluate(overlayContainerJS, &ok).Do(c)
	})
	if err != nil {
		return 0, fmt.Errorf("creating overlay container: %w", err)
	}
	a.overlayCreated = true
	return 0, nil
}

func (a *Accessor) AppendOverlayBox(ctx context.Context, box dom.OverlayBox) error {
	raw, err := json.Marshal(box)
	if err != nil {
		return err
	}
	js := `(function(b) {
		const c = document.getElementById('` + dom.OverlayContainerID + `');
		if (!c) { return false; }
		const el = document.createElement('div');
		el.style.position = 'absolute';
		el.style.left = b.X + 'px';
		el.style.top = b.Y + 'px';
		el.style.width = b.Width + 'px';
		el.style.height = b.Height + 'px';
		el.style.border = '2px solid ' + b.Color;
		el.style.backgroundColor = b.FillColor;
		el.style.boxSizing = 'border-box';
		c.appendChild(el);
		const label = document.createElement('span');
		label.textContent = b.Label;
		label.style.position = 'absolute';
		label.style.left = b.LabelX + 'px';
		label.style.top = b.LabelY + 'px';
		label.style.color = '#fff';
		label.style.backgroundColor = b.Color;
		label.style.fontSize = b.FontSize + 'px';
		label.style.padding = '1px 3px';
		label.style.borderRadius = '3px';
		c.appendChild(label);
		return true;
	})(` + string(raw) + `)`

	var ok bool
	if err := a.run(ctx, func(c context.Context) error {
		return chromedp.Evaluate(js, &ok).Do(c)
	}); err != nil {
		return fmt.Errorf("appending overlay box %d: %w", box.Index, err)
	}
	return nil
}

func (a *Accessor) SetAttribute(ctx context.Context, id dom.NodeID, name, value string) error {
	decl := fmt.Sprintf(`function() { this.setAttribute(%s, %s); }`, jsEncode(name), jsEncode(value))
	return a.callOn(ctx, id, decl, nil)
}

// jsEncode safely embeds a value into generated JavaScript.
func jsEncode(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

// Release frees every remote object the pass resolved. Call it when the
// analysis is done with this accessor.
func (a *Accessor) Release(ctx context.Context) {
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		return runtime.ReleaseObjectGroup(objectGroup).Do(c)
	}))
	if err != nil {
		a.logger.Debug("Could not release remote object group.", zap.Error(err))
	}
	a.objects = make(map[dom.NodeID]runtime.RemoteObjectID)
}
