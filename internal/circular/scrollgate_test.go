package circular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func measure(t *testing.T, g *ScrollGate, vp Viewport) GateState {
	t.Helper()
	state, err := g.Measure(vp)
	require.NoError(t, err)
	return state
}

func scroll(t *testing.T, g *ScrollGate, vp Viewport) GateState {
	t.Helper()
	state, err := g.OnScroll(vp)
	require.NoError(t, err)
	return state
}

func TestScrollGateFitsImmediately(t *testing.T) {
	g := NewScrollGate(DefaultScrollTolerance)
	g.Open("c1")
	assert.Equal(t, GateLocked, g.State())

	assert.Equal(t, GateUnlockable, measure(t, g, Viewport{VisibleHeight: 400, TotalHeight: 404}))
}

func TestScrollGateUnlocksAtEndAndStaysUnlocked(t *testing.T) {
	g := NewScrollGate(DefaultScrollTolerance)
	g.Open("c1")

	assert.Equal(t, GateLocked, measure(t, g, Viewport{VisibleHeight: 400, TotalHeight: 1200}))
	assert.Equal(t, GateLocked, scroll(t, g, Viewport{ScrollOffset: 300, VisibleHeight: 400, TotalHeight: 1200}))
	assert.Equal(t, GateUnlockable, scroll(t, g, Viewport{ScrollOffset: 795.2, VisibleHeight: 400, TotalHeight: 1200}))

	assert.Equal(t, GateUnlockable, scroll(t, g, Viewport{ScrollOffset: 0, VisibleHeight: 400, TotalHeight: 1200}))
	assert.True(t, g.Unlocked())
}

func TestScrollGateRejectsMissingLayout(t *testing.T) {
	g := NewScrollGate(DefaultScrollTolerance)
	g.Open("c1")

	for _, vp := range []Viewport{
		{},
		{VisibleHeight: 400},
		{TotalHeight: 1200},
		{ScrollOffset: -1, VisibleHeight: 400, TotalHeight: 1200},
	} {
		state, err := g.Measure(vp)
		assert.ErrorIs(t, err, ErrInvalidViewport)
		assert.Equal(t, GateLocked, state)
	}

	assert.Equal(t, GateLocked, measure(t, g, Viewport{VisibleHeight: 100, TotalHeight: 500}))
	state, err := g.OnScroll(Viewport{})
	assert.ErrorIs(t, err, ErrInvalidViewport)
	assert.Equal(t, GateLocked, state)
	assert.False(t, g.Unlocked())
}

func TestScrollGateReopenResets(t *testing.T) {
	g := NewScrollGate(DefaultScrollTolerance)
	g.Open("c1")
	measure(t, g, Viewport{VisibleHeight: 400, TotalHeight: 100})
	assert.True(t, g.Unlocked())

	g.Close()
	assert.Equal(t, GateClosed, g.State())
	assert.Empty(t, g.ItemID())
	assert.Equal(t, GateClosed, scroll(t, g, Viewport{ScrollOffset: 900, VisibleHeight: 400, TotalHeight: 1200}))

	g.Open("c1")
	assert.Equal(t, GateLocked, g.State())
	assert.Equal(t, "c1", g.ItemID())
}
