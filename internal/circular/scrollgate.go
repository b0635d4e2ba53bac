package circular

import (
	"errors"
	"math"
)

// DefaultScrollTolerance is the slack, in pixels, allowed when deciding that
// content has been scrolled to its end.
const DefaultScrollTolerance = 5.0

// GateState is the acknowledgement gate of the open item.
type GateState string

const (
	GateClosed     GateState = "CLOSED"
	GateLocked     GateState = "LOCKED"
	GateUnlockable GateState = "UNLOCKABLE"
)

// ErrInvalidViewport rejects layouts that cannot come from a rendered reader.
var ErrInvalidViewport = errors.New("viewport heights must be positive and the scroll offset non-negative")

// Viewport describes the scroll container of the open item.
type Viewport struct {
	ScrollOffset  float64 `json:"scroll_offset"`
	VisibleHeight float64 `json:"visible_height"`
	TotalHeight   float64 `json:"total_height"`
}

// Validate reports ErrInvalidViewport for non-physical layouts.
func (vp Viewport) Validate() error {
	if vp.TotalHeight <= 0 || vp.VisibleHeight <= 0 || vp.ScrollOffset < 0 {
		return ErrInvalidViewport
	}
	return nil
}

// ScrollGate unlocks the acknowledgement action once the open item has been
// read to its end. Once unlocked it stays unlocked until the item is closed.
type ScrollGate struct {
	tolerance float64
	itemID    string
	state     GateState
}

// NewScrollGate builds a closed gate.
func NewScrollGate(tolerance float64) *ScrollGate {
	if tolerance < 0 {
		tolerance = DefaultScrollTolerance
	}
	return &ScrollGate{tolerance: tolerance, state: GateClosed}
}

// Open starts a new reading session for itemID in the Locked state.
func (g *ScrollGate) Open(itemID string) {
	g.itemID = itemID
	g.state = GateLocked
}

// Close ends the reading session.
func (g *ScrollGate) Close() {
	g.itemID = ""
	g.state = GateClosed
}

// ItemID returns the open item, or "" when closed.
func (g *ScrollGate) ItemID() string { return g.itemID }

// State returns the current gate state.
func (g *ScrollGate) State() GateState { return g.state }

// Unlocked reports whether the acknowledgement action is enabled.
func (g *ScrollGate) Unlocked() bool { return g.state == GateUnlockable }

// Measure runs the fit check once layout is known: content that already fits
// its viewport unlocks immediately. An invalid viewport leaves the gate as is.
func (g *ScrollGate) Measure(vp Viewport) (GateState, error) {
	if err := vp.Validate(); err != nil {
		return g.state, err
	}
	if g.state != GateLocked {
		return g.state, nil
	}
	if vp.TotalHeight <= vp.VisibleHeight+g.tolerance {
		g.state = GateUnlockable
	}
	return g.state, nil
}

// OnScroll unlocks the gate when the viewport reaches the end of the content.
func (g *ScrollGate) OnScroll(vp Viewport) (GateState, error) {
	if err := vp.Validate(); err != nil {
		return g.state, err
	}
	if g.state != GateLocked {
		return g.state, nil
	}
	if vp.TotalHeight <= vp.VisibleHeight+g.tolerance ||
		math.Ceil(vp.ScrollOffset+vp.VisibleHeight) >= vp.TotalHeight-g.tolerance {
		g.state = GateUnlockable
	}
	return g.state, nil
}
