// Package layout owns the mode state machine that decides how node
// positions evolve: Manual (drag only), Spring (force simulation until it
// settles) and TreeAnimating (hierarchical targets approached by
// exponential interpolation). Mode transitions are synchronous and
// idempotent; entering a mode that is already active never double-starts
// anything.
package layout

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/Schwaller/graphlens/pkg/graph"
	"github.com/Schwaller/graphlens/pkg/logging"
	"github.com/Schwaller/graphlens/pkg/physics"
	"gonum.org/v1/gonum/spatial/r2"
)

// Mode selects the active layout strategy.
type Mode int

const (
	Manual Mode = iota
	Spring
	TreeAnimating
)

func (m Mode) String() string {
	switch m {
	case Manual:
		return "manual"
	case Spring:
		return "spring"
	case TreeAnimating:
		return "tree"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode converts a mode name ("manual", "spring", "tree") to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "manual":
		return Manual, nil
	case "spring":
		return Spring, nil
	case "tree":
		return TreeAnimating, nil
	default:
		return Manual, fmt.Errorf("unknown layout mode %q", s)
	}
}

// Options tunes seeding, animation and tree geometry.
type Options struct {
	Center        r2.Vec
	ScatterRadius float64 // random seed spread around Center
	LerpFactor    float64 // fraction of the remaining delta covered per tick
	SnapDistance  float64 // below this the node jumps to its target
	TreeEdgeKind  string  // edge kind defining the parent/child relation
	ColumnSpacing float64
	RowSpacing    float64
	Seed          int64 // RNG seed; fixed default keeps scatter reproducible
}

// DefaultOptions returns the layout tuning used by the dashboard views.
func DefaultOptions() Options {
	return Options{
		ScatterRadius: 250,
		LerpFactor:    0.18,
		SnapDistance:  0.5,
		TreeEdgeKind:  "parent",
		ColumnSpacing: 180,
		RowSpacing:    70,
		Seed:          42,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ScatterRadius <= 0 {
		o.ScatterRadius = d.ScatterRadius
	}
	if o.LerpFactor <= 0 || o.LerpFactor >= 1 {
		o.LerpFactor = d.LerpFactor
	}
	if o.SnapDistance <= 0 {
		o.SnapDistance = d.SnapDistance
	}
	if o.TreeEdgeKind == "" {
		o.TreeEdgeKind = d.TreeEdgeKind
	}
	if o.ColumnSpacing <= 0 {
		o.ColumnSpacing = d.ColumnSpacing
	}
	if o.RowSpacing <= 0 {
		o.RowSpacing = d.RowSpacing
	}
	if o.Seed == 0 {
		o.Seed = d.Seed
	}
	return o
}

// Engine drives one model through the active layout mode, one tick at a
// time. It is owned by the same goroutine as the model.
type Engine struct {
	model    *graph.Model
	phys     *physics.Engine
	opts     Options
	mode     Mode
	targets  map[string]r2.Vec
	active   bool
	rng      *rand.Rand
	onSettle func()
}

// New creates a layout engine. onSettle fires whenever a layout pass
// finishes (spring settled, tree animation completed) so positions can be
// persisted; it may be nil.
func New(model *graph.Model, phys *physics.Engine, opts Options, onSettle func()) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		model:    model,
		phys:     phys,
		opts:     opts,
		mode:     Manual,
		rng:      rand.New(rand.NewSource(opts.Seed)),
		onSettle: onSettle,
	}
}

// Mode returns the active layout mode.
func (e *Engine) Mode() Mode { return e.mode }

// Active reports whether the engine still needs ticks.
func (e *Engine) Active() bool { return e.active }

// SetModel swaps in a replacement model after a data reload. The active
// mode restarts against the new model.
func (e *Engine) SetModel(m *graph.Model) {
	e.model = m
	mode := e.mode
	e.mode = Manual
	e.active = false
	e.targets = nil
	e.SetMode(mode)
}

// SetMode switches the layout strategy. Setting the current mode is a
// no-op, so callers can't double-schedule a running pass.
func (e *Engine) SetMode(mode Mode) {
	if mode == e.mode {
		return
	}
	logging.Debug("layout mode change", "from", e.mode.String(), "to", mode.String())

	e.targets = nil
	e.mode = mode
	switch mode {
	case Manual:
		e.active = false
	case Spring:
		e.seedUnplaced()
		e.perturb()
		e.phys.Reheat()
		e.active = true
	case TreeAnimating:
		e.targets = TreeTargets(e.model, e.opts.TreeEdgeKind, e.opts.Center, e.opts.ColumnSpacing, e.opts.RowSpacing)
		e.active = e.model.NodeCount() > 0
		if !e.active {
			e.mode = Manual
		}
	}
}

// Reheat wakes a settled spring layout after a disturbance (node added,
// drag finished). Outside Spring mode it does nothing.
func (e *Engine) Reheat() {
	if e.mode != Spring {
		return
	}
	e.seedUnplaced()
	e.perturb()
	e.phys.Reheat()
	e.active = true
}

// Tick advances the active layout by one step. The node with excludedID
// (a live drag) is left alone. It returns true while further ticks are
// needed.
func (e *Engine) Tick(excludedID string) bool {
	if !e.active {
		return false
	}

	switch e.mode {
	case Spring:
		if e.phys.Step(e.model, excludedID) {
			return true
		}
		e.active = false
		e.settled()
		return false

	case TreeAnimating:
		if e.animate(excludedID) {
			return true
		}
		e.active = false
		e.mode = Manual
		e.settled()
		return false
	}

	e.active = false
	return false
}

// animate moves every node a fraction of the way to its target, snapping
// when close. Returns true while any node is still in flight.
func (e *Engine) animate(excludedID string) bool {
	moving := false
	for id, target := range e.targets {
		if id == excludedID {
			moving = true
			continue
		}
		n := e.model.Node(id)
		if n == nil {
			continue
		}

		delta := r2.Sub(target, n.Pos)
		if r2.Norm(delta) < e.opts.SnapDistance {
			n.Pos = target
		} else {
			n.Pos = r2.Add(n.Pos, r2.Scale(e.opts.LerpFactor, delta))
			moving = true
		}
		n.Vel = r2.Vec{}
		n.Placed = true
	}
	return moving
}

// seedUnplaced scatters nodes that have never been positioned around the
// center. Restored nodes keep their coordinates.
func (e *Engine) seedUnplaced() {
	for _, n := range e.model.Nodes() {
		if n.Placed {
			continue
		}
		angle := e.rng.Float64() * 2 * math.Pi
		dist := e.rng.Float64() * e.opts.ScatterRadius
		n.Pos = r2.Add(e.opts.Center, r2.Vec{X: dist * math.Cos(angle), Y: dist * math.Sin(angle)})
		n.Placed = true
	}
}

// perturb gives every unpinned node a small random velocity so a settled
// layout can escape its local rest state.
func (e *Engine) perturb() {
	for _, n := range e.model.Nodes() {
		if n.Pinned {
			continue
		}
		n.Vel = r2.Vec{
			X: (e.rng.Float64() - 0.5) * 2,
			Y: (e.rng.Float64() - 0.5) * 2,
		}
	}
}

func (e *Engine) settled() {
	logging.Debug("layout settled", "mode", e.mode.String(), "nodes", e.model.NodeCount())
	if e.onSettle != nil {
		e.onSettle()
	}
}
