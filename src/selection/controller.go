package selection

import (
	"log"

	"quickcap/src/geometry"
)

// State is the interaction state of the selection controller.
type State int

const (
	// Idle: no corner is live; a Trigger starts a new selection cycle.
	Idle State = iota
	// TrackingCorner1: corner 1 follows the pointer on every poll sample.
	TrackingCorner1
	// TrackingCorner2: corner 2 follows the pointer on every poll sample.
	TrackingCorner2
	// Locked: both corners are fixed; the rectangle can be captured or
	// re-edited with another Trigger.
	Locked
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case TrackingCorner1:
		return "tracking-corner1"
	case TrackingCorner2:
		return "tracking-corner2"
	case Locked:
		return "locked"
	}
	return "unknown"
}

// Listener receives rectangle updates from the controller. The preview
// overlay implements it; it must never feed geometry back.
type Listener interface {
	// RectChanged is called with the normalized rectangle after every
	// corner mutation. The overlay repositions itself to exactly this
	// rectangle and shows itself if hidden.
	RectChanged(geometry.Rect)
	// SelectionHidden is called when the selection cycle ends (confirm or
	// cancel). May be called on an already-hidden overlay.
	SelectionHidden()
}

// Controller owns the two corner points and the interaction state. All
// methods must be called from a single goroutine (the event loop); they
// never block and run in O(1).
//
// Corner2 at the origin means "no selection started yet". The sentinel is
// deliberately ambiguous with a pointer that genuinely sits at (0,0): a
// Trigger fired there starts the cycle with corner 2 seeded to the origin,
// which a later poll sample overwrites while TrackingCorner2. This mirrors
// the historical interaction design and is accepted behavior.
type Controller struct {
	state    State
	corner1  geometry.Point
	corner2  geometry.Point
	visible  bool
	listener Listener
}

// New creates a controller in the Idle state. listener may be nil.
func New(listener Listener) *Controller {
	if listener == nil {
		listener = nopListener{}
	}
	return &Controller{listener: listener}
}

// State returns the current interaction state.
func (c *Controller) State() State { return c.state }

// Corners returns the current corner points. Corner 2 at the origin means no
// selection cycle is active.
func (c *Controller) Corners() (corner1, corner2 geometry.Point) {
	return c.corner1, c.corner2
}

// Tracking reports whether a poll sample would currently move a corner. The
// poll loop uses this to turn ticks into no-ops while Idle or Locked.
func (c *Controller) Tracking() bool {
	return c.state == TrackingCorner1 || c.state == TrackingCorner2
}

// Trigger advances the selection cycle by one step. pointer is the current
// pointer position and is only used to seed corner 2 when a fresh cycle
// starts.
func (c *Controller) Trigger(pointer geometry.Point) {
	switch c.state {
	case Idle, Locked:
		// From Locked, corner 2 is already set and stays fixed so the
		// user can re-anchor corner 1 without losing it.
		if c.corner2.IsOrigin() {
			c.corner2 = pointer
		}
		c.state = TrackingCorner1
	case TrackingCorner1:
		c.state = TrackingCorner2
	case TrackingCorner2:
		c.state = Locked
	}
	log.Printf("selection: trigger -> %s", c.state)
}

// PollSample delivers a pointer sample. While tracking, the live corner is
// overwritten, the rectangle recomputed, and the listener notified. In any
// other state the sample is ignored.
func (c *Controller) PollSample(p geometry.Point) {
	switch c.state {
	case TrackingCorner1:
		c.corner1 = p
	case TrackingCorner2:
		c.corner2 = p
	default:
		return
	}
	c.visible = true
	c.listener.RectChanged(geometry.Normalize(c.corner1, c.corner2))
}

// Confirm freezes the current rectangle and resets the controller to Idle.
// It returns the frozen rectangle and true when a selection was active;
// confirming with nothing on screen is a no-op returning false.
func (c *Controller) Confirm() (geometry.Rect, bool) {
	if !c.visible {
		return geometry.Rect{}, false
	}
	rect := geometry.Normalize(c.corner1, c.corner2)
	c.reset()
	log.Printf("selection: confirmed %+v", rect)
	return rect, true
}

// Cancel discards the current selection and resets to Idle. Accepted from
// any state and idempotent: canceling an Idle controller is a no-op apart
// from the (idempotent) hide notification.
func (c *Controller) Cancel() {
	c.reset()
	log.Printf("selection: cancelled")
}

func (c *Controller) reset() {
	c.state = Idle
	c.corner2 = geometry.Point{}
	c.visible = false
	c.listener.SelectionHidden()
}

type nopListener struct{}

func (nopListener) RectChanged(geometry.Rect) {}
func (nopListener) SelectionHidden()          {}
