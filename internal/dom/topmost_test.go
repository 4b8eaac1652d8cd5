// internal/dom/topmost_test.go
package dom

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testViewport = Viewport{Width: 1000, Height: 600}

func TestTopmostFrameContentAlwaysTop(t *testing.T) {
	acc := &stubAccessor{
		inFrame: func(id NodeID) (bool, error) { return true, nil },
		fromPoint: func(x, y float64) (NodeInfo, bool, error) {
			t.Fatal("frame content must not be hit-tested")
			return NodeInfo{}, false, nil
		},
	}
	v, err := topmost(context.Background(), acc, 1, Rect{X: 10, Y: 10, Width: 50, Height: 20}, testViewport, 0)
	require.NoError(t, err)
	assert.Equal(t, VerdictTop, v)
}

func TestTopmostExpansionSentinelSkipsEverything(t *testing.T) {
	acc := &stubAccessor{
		inFrame:  func(id NodeID) (bool, error) { t.Fatal("unexpected read"); return false, nil },
		inShadow: func(id NodeID) (bool, error) { t.Fatal("unexpected read"); return false, nil },
	}
	v, err := topmost(context.Background(), acc, 1, Rect{X: 0, Y: 90000, Width: 5, Height: 5}, testViewport, -1)
	require.NoError(t, err)
	assert.Equal(t, VerdictTop, v)
}

func TestTopmostCulledOutsideExpandedViewport(t *testing.T) {
	acc := &stubAccessor{}
	tests := []struct {
		name      string
		rect      Rect
		expansion int
		want      Verdict
	}{
		{"below band", Rect{X: 0, Y: 700, Width: 50, Height: 20}, 0, VerdictNotTop},
		{"inside widened band", Rect{X: 0, Y: 700, Width: 50, Height: 20}, 200, VerdictTop},
		{"left of band", Rect{X: -300, Y: 10, Width: 50, Height: 20}, 0, VerdictNotTop},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := topmost(context.Background(), acc, 1, tc.rect, testViewport, tc.expansion)
			require.NoError(t, err)
			assert.Equal(t, tc.want, v)
		})
	}
}

// An element that survives culling but whose center is off-screen cannot be
// hit-tested; it is assumed reachable.
func TestTopmostOffscreenCenterAssumedTop(t *testing.T) {
	acc := &stubAccessor{
		fromPoint: func(x, y float64) (NodeInfo, bool, error) {
			t.Fatal("off-screen point must not be hit-tested")
			return NodeInfo{}, false, nil
		},
	}
	// Straddles the right edge: intersects the band, center beyond width.
	v, err := topmost(context.Background(), acc, 1, Rect{X: 980, Y: 10, Width: 100, Height: 20}, testViewport, 0)
	require.NoError(t, err)
	assert.Equal(t, VerdictTop, v)
}

func TestTopmostHitTestResolution(t *testing.T) {
	const target NodeID = 7
	rect := Rect{X: 100, Y: 100, Width: 40, Height: 20}

	t.Run("direct hit", func(t *testing.T) {
		acc := &stubAccessor{
			fromPoint: func(x, y float64) (NodeInfo, bool, error) {
				assert.InDelta(t, 120.0, x, 0.001)
				assert.InDelta(t, 110.0, y, 0.001)
				return NodeInfo{ID: target}, true, nil
			},
		}
		v, err := topmost(context.Background(), acc, target, rect, testViewport, 0)
		require.NoError(t, err)
		assert.Equal(t, VerdictTop, v)
	})

	t.Run("hit on descendant resolves through ancestors", func(t *testing.T) {
		acc := &stubAccessor{
			fromPoint: func(x, y float64) (NodeInfo, bool, error) {
				return NodeInfo{ID: 9}, true, nil
			},
			parent: func(id NodeID) (NodeInfo, bool, error) {
				if id == 9 {
					return NodeInfo{ID: target}, true, nil
				}
				return NodeInfo{}, false, nil
			},
		}
		v, err := topmost(context.Background(), acc, target, rect, testViewport, 0)
		require.NoError(t, err)
		assert.Equal(t, VerdictTop, v)
	})

	t.Run("hit on unrelated element", func(t *testing.T) {
		acc := &stubAccessor{
			fromPoint: func(x, y float64) (NodeInfo, bool, error) {
				return NodeInfo{ID: 42}, true, nil
			},
		}
		v, err := topmost(context.Background(), acc, target, rect, testViewport, 0)
		require.NoError(t, err)
		assert.Equal(t, VerdictNotTop, v)
	})

	t.Run("empty result", func(t *testing.T) {
		acc := &stubAccessor{
			fromPoint: func(x, y float64) (NodeInfo, bool, error) {
				return NodeInfo{}, false, nil
			},
		}
		v, err := topmost(context.Background(), acc, target, rect, testViewport, 0)
		require.NoError(t, err)
		assert.Equal(t, VerdictNotTop, v)
	})

	t.Run("failed lookup is unknown", func(t *testing.T) {
		acc := &stubAccessor{
			fromPoint: func(x, y float64) (NodeInfo, bool, error) {
				return NodeInfo{}, false, errors.New("boom")
			},
		}
		v, err := topmost(context.Background(), acc, target, rect, testViewport, 0)
		require.NoError(t, err)
		assert.Equal(t, VerdictUnknown, v)
	})
}

func TestShadowTopmost(t *testing.T) {
	const target NodeID = 3
	rect := Rect{X: 10, Y: 10, Width: 20, Height: 20}
	shadowAcc := func(hit func(id NodeID, x, y float64) (NodeInfo, bool, error)) *stubAccessor {
		return &stubAccessor{
			inShadow:  func(id NodeID) (bool, error) { return true, nil },
			shadowHit: hit,
		}
	}

	t.Run("found", func(t *testing.T) {
		acc := shadowAcc(func(id NodeID, x, y float64) (NodeInfo, bool, error) {
			return NodeInfo{ID: target}, true, nil
		})
		v, err := topmost(context.Background(), acc, target, rect, testViewport, 0)
		require.NoError(t, err)
		assert.Equal(t, VerdictTop, v)
	})

	t.Run("lookup failure is unknown", func(t *testing.T) {
		acc := shadowAcc(func(id NodeID, x, y float64) (NodeInfo, bool, error) {
			return NodeInfo{}, false, errors.New("detached root")
		})
		v, err := topmost(context.Background(), acc, target, rect, testViewport, 0)
		require.NoError(t, err)
		assert.Equal(t, VerdictUnknown, v)
	})

	t.Run("empty result is not top", func(t *testing.T) {
		acc := shadowAcc(func(id NodeID, x, y float64) (NodeInfo, bool, error) {
			return NodeInfo{}, false, nil
		})
		v, err := topmost(context.Background(), acc, target, rect, testViewport, 0)
		require.NoError(t, err)
		assert.Equal(t, VerdictNotTop, v)
	})
}

func TestUnknownPolicy(t *testing.T) {
	assert.True(t, UnknownIsTop.Apply(VerdictTop))
	assert.False(t, UnknownIsTop.Apply(VerdictNotTop))
	assert.True(t, UnknownIsTop.Apply(VerdictUnknown))

	assert.True(t, UnknownIsNotTop.Apply(VerdictTop))
	assert.False(t, UnknownIsNotTop.Apply(VerdictNotTop))
	assert.False(t, UnknownIsNotTop.Apply(VerdictUnknown))
}
