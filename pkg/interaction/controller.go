// Package interaction turns pointer events into model and view mutations.
// The gesture logic is an explicit state machine so the legal transitions
// are enumerable and testable without any UI toolkit attached.
package interaction

import (
	"math"
	"sort"

	"github.com/Schwaller/graphlens/pkg/graph"
	"github.com/Schwaller/graphlens/pkg/logging"
	"github.com/Schwaller/graphlens/pkg/view"
	"gonum.org/v1/gonum/spatial/r2"
)

// State is the active pointer gesture.
type State int

const (
	Idle State = iota
	Panning
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Panning:
		return "panning"
	case Dragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// Options tunes hit testing and gesture classification.
type Options struct {
	HitTolerance   float64 // world-space slack added to each node radius
	ClickThreshold float64 // max screen-space travel for a press to count as a click
	WheelStep      float64 // zoom factor applied per wheel notch
	FocusOnDouble  bool    // double-click focuses instead of toggling pins
}

// DefaultOptions returns the pointer tuning used by the web frontend.
func DefaultOptions() Options {
	return Options{
		HitTolerance:   4,
		ClickThreshold: 5,
		WheelStep:      1.1,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.HitTolerance <= 0 {
		o.HitTolerance = d.HitTolerance
	}
	if o.ClickThreshold <= 0 {
		o.ClickThreshold = d.ClickThreshold
	}
	if o.WheelStep <= 1 {
		o.WheelStep = d.WheelStep
	}
	return o
}

// Hooks are the collaborator callbacks the controller fires. Any hook may
// be nil.
type Hooks struct {
	// OnSelect fires when the selection changes; the empty id means
	// selection was cleared.
	OnSelect func(id string)
	// OnCommit fires when a drag releases a node at its final position.
	OnCommit func(id string, pos r2.Vec, pinned bool)
	// OnPin fires after a double-click toggles a node's pinned flag.
	OnPin func(id string, pinned bool)
	// OnDisturb fires whenever the layout should resume ticking (a drag
	// ended, a pin was released).
	OnDisturb func()
	// OnFocus fires on double-click when FocusOnDouble is set.
	OnFocus func(id string)
}

// Controller is the pointer state machine. It is owned by the same
// goroutine as the model and the transform.
type Controller struct {
	model *graph.Model
	view  *view.Transform
	opts  Options
	hooks Hooks

	state    State
	dragID   string
	hoverID  string
	selected string

	lastScreen r2.Vec
	travel     float64
}

func New(model *graph.Model, vt *view.Transform, opts Options, hooks Hooks) *Controller {
	return &Controller{
		model: model,
		view:  vt,
		opts:  opts.withDefaults(),
		hooks: hooks,
	}
}

// SetModel swaps in a replacement model. Any in-flight gesture is
// abandoned and stale hover/selection ids are dropped.
func (c *Controller) SetModel(m *graph.Model) {
	c.model = m
	c.state = Idle
	c.dragID = ""
	if c.hoverID != "" && !m.Has(c.hoverID) {
		c.hoverID = ""
	}
	if c.selected != "" && !m.Has(c.selected) {
		c.setSelected("")
	}
}

// State returns the active gesture.
func (c *Controller) State() State { return c.state }

// DraggedID returns the node excluded from physics, or "" when no drag is
// active. The tick loop passes this straight to the layout engine.
func (c *Controller) DraggedID() string { return c.dragID }

// HoveredID returns the node under the pointer, or "".
func (c *Controller) HoveredID() string { return c.hoverID }

// SelectedID returns the selected node, or "".
func (c *Controller) SelectedID() string { return c.selected }

// PointerMove handles a pointer move at screen coordinates.
func (c *Controller) PointerMove(sx, sy float64) {
	screen := r2.Vec{X: sx, Y: sy}
	delta := r2.Sub(screen, c.lastScreen)
	c.travel += r2.Norm(delta)

	switch c.state {
	case Dragging:
		if n := c.model.Node(c.dragID); n != nil {
			n.Pos = c.view.ScreenToWorld(screen)
			n.Vel = r2.Vec{}
		}
	case Panning:
		c.view.PanBy(delta)
	default:
		c.hoverID = c.hitTest(screen)
	}
	c.lastScreen = screen
}

// PointerDown begins a gesture: a drag when a node is under the pointer,
// a pan otherwise.
func (c *Controller) PointerDown(sx, sy float64) {
	screen := r2.Vec{X: sx, Y: sy}
	c.lastScreen = screen
	c.travel = 0

	if id := c.hitTest(screen); id != "" {
		c.state = Dragging
		c.dragID = id
		return
	}
	c.state = Panning
}

// PointerUp ends the active gesture. A press that travelled less than the
// click threshold is a click: it selects the pressed node or, over empty
// space, clears the selection. A genuine drag commits the node's final
// position and wakes the layout.
func (c *Controller) PointerUp(sx, sy float64) {
	c.PointerMove(sx, sy)
	click := c.travel < c.opts.ClickThreshold

	switch c.state {
	case Dragging:
		id := c.dragID
		c.state = Idle
		c.dragID = ""
		if click {
			c.setSelected(id)
			return
		}
		if n := c.model.Node(id); n != nil {
			logging.Debug("drag committed", "node", id, "x", n.Pos.X, "y", n.Pos.Y)
			if c.hooks.OnCommit != nil {
				c.hooks.OnCommit(id, n.Pos, n.Pinned)
			}
		}
		if c.hooks.OnDisturb != nil {
			c.hooks.OnDisturb()
		}

	case Panning:
		c.state = Idle
		if click {
			c.setSelected("")
		}
	}
}

// DoubleClick toggles the hit node's pinned flag, or focuses it when the
// controller is configured for focus-on-double.
func (c *Controller) DoubleClick(sx, sy float64) {
	id := c.hitTest(r2.Vec{X: sx, Y: sy})
	if id == "" {
		return
	}
	if c.opts.FocusOnDouble {
		if c.hooks.OnFocus != nil {
			c.hooks.OnFocus(id)
		}
		return
	}
	n := c.model.Node(id)
	n.Pinned = !n.Pinned
	if !n.Pinned {
		n.Vel = r2.Vec{}
		if c.hooks.OnDisturb != nil {
			c.hooks.OnDisturb()
		}
	}
	if c.hooks.OnPin != nil {
		c.hooks.OnPin(id, n.Pinned)
	}
}

// Wheel zooms by WheelStep per notch, anchored at the pointer so the
// world point under the cursor stays fixed. Positive dy zooms out.
func (c *Controller) Wheel(sx, sy, dy float64) {
	if dy == 0 {
		return
	}
	factor := math.Pow(c.opts.WheelStep, -dy)
	c.view.ZoomBy(factor, r2.Vec{X: sx, Y: sy})
}

// hitTest returns the id of the nearest node whose disc (radius plus
// tolerance) covers the screen point, or "".
func (c *Controller) hitTest(screen r2.Vec) string {
	world := c.view.ScreenToWorld(screen)

	best := ""
	bestDist := math.Inf(1)
	nodes := c.model.Nodes()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	for _, n := range nodes {
		d := r2.Norm(r2.Sub(world, n.Pos))
		if d <= n.Radius+c.opts.HitTolerance && d < bestDist {
			best = n.ID
			bestDist = d
		}
	}
	return best
}

func (c *Controller) setSelected(id string) {
	if id == c.selected {
		return
	}
	c.selected = id
	if c.hooks.OnSelect != nil {
		c.hooks.OnSelect(id)
	}
}
