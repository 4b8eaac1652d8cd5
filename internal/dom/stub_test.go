// internal/dom/stub_test.go
package dom

import "context"

// stubAccessor lets unit tests script exactly the accessor calls a helper
// makes. Unset hooks fail loudly via the zero values.
type stubAccessor struct {
	styles     func(id NodeID, props ...string) (map[string]string, error)
	rect       func(id NodeID) (Rect, error)
	props      func(id NodeID) (NodeProps, error)
	offset     func(id NodeID) (w, h float64, err error)
	inFrame    func(id NodeID) (bool, error)
	inShadow   func(id NodeID) (bool, error)
	fromPoint  func(x, y float64) (NodeInfo, bool, error)
	shadowHit  func(id NodeID, x, y float64) (NodeInfo, bool, error)
	parent     func(id NodeID) (NodeInfo, bool, error)
	textRect   func(id NodeID) (Rect, error)
	parentVis  func(id NodeID) (bool, error)
	viewport   Viewport
	setAttrLog map[NodeID]map[string]string
	boxes      []OverlayBox
}

func (s *stubAccessor) Body(ctx context.Context) (NodeInfo, error) { return NodeInfo{}, nil }

func (s *stubAccessor) Children(ctx context.Context, id NodeID) ([]NodeInfo, error) {
	return nil, nil
}

func (s *stubAccessor) ShadowChildren(ctx context.Context, id NodeID) ([]NodeInfo, error) {
	return nil, nil
}

func (s *stubAccessor) FrameChildren(ctx context.Context, id NodeID) ([]NodeInfo, error) {
	return nil, ErrFrameAccess
}

func (s *stubAccessor) Parent(ctx context.Context, id NodeID) (NodeInfo, bool, error) {
	if s.parent == nil {
		return NodeInfo{}, false, nil
	}
	return s.parent(id)
}

func (s *stubAccessor) BoundingRect(ctx context.Context, id NodeID) (Rect, error) {
	if s.rect == nil {
		return Rect{}, nil
	}
	return s.rect(id)
}

func (s *stubAccessor) OffsetSize(ctx context.Context, id NodeID) (float64, float64, error) {
	if s.offset == nil {
		return 0, 0, nil
	}
	return s.offset(id)
}

func (s *stubAccessor) Styles(ctx context.Context, id NodeID, props ...string) (map[string]string, error) {
	if s.styles == nil {
		return map[string]string{}, nil
	}
	return s.styles(id, props...)
}

func (s *stubAccessor) TextRect(ctx context.Context, id NodeID) (Rect, error) {
	if s.textRect == nil {
		return Rect{}, nil
	}
	return s.textRect(id)
}

func (s *stubAccessor) ParentCheckVisibility(ctx context.Context, id NodeID) (bool, error) {
	if s.parentVis == nil {
		return true, nil
	}
	return s.parentVis(id)
}

func (s *stubAccessor) Viewport(ctx context.Context) (Viewport, error) { return s.viewport, nil }

func (s *stubAccessor) InFrame(ctx context.Context, id NodeID) (bool, error) {
	if s.inFrame == nil {
		return false, nil
	}
	return s.inFrame(id)
}

func (s *stubAccessor) InShadow(ctx context.Context, id NodeID) (bool, error) {
	if s.inShadow == nil {
		return false, nil
	}
	return s.inShadow(id)
}

func (s *stubAccessor) ElementFromPoint(ctx context.Context, x, y float64) (NodeInfo, bool, error) {
	if s.fromPoint == nil {
		return NodeInfo{}, false, nil
	}
	return s.fromPoint(x, y)
}

func (s *stubAccessor) ShadowElementFromPoint(ctx context.Context, id NodeID, x, y float64) (NodeInfo, bool, error) {
	if s.shadowHit == nil {
		return NodeInfo{}, false, nil
	}
	return s.shadowHit(id, x, y)
}

func (s *stubAccessor) Properties(ctx context.Context, id NodeID) (NodeProps, error) {
	if s.props == nil {
		return NodeProps{}, nil
	}
	return s.props(id)
}

func (s *stubAccessor) EnsureOverlay(ctx context.Context) (NodeID, error) { return 9999, nil }

func (s *stubAccessor) AppendOverlayBox(ctx context.Context, box OverlayBox) error {
	s.boxes = append(s.boxes, box)
	return nil
}

func (s *stubAccessor) SetAttribute(ctx context.Context, id NodeID, name, value string) error {
	if s.setAttrLog == nil {
		s.setAttrLog = make(map[NodeID]map[string]string)
	}
	if s.setAttrLog[id] == nil {
		s.setAttrLog[id] = make(map[string]string)
	}
	s.setAttrLog[id][name] = value
	return nil
}
