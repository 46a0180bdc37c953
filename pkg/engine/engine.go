// Package engine ties the graph model, view transform, physics, layout
// modes, pointer interaction and distance classification into one facade.
// All methods must be called from a single owning goroutine; the engine
// holds no locks.
package engine

import (
	"sort"

	"github.com/Schwaller/graphlens/pkg/graph"
	"github.com/Schwaller/graphlens/pkg/hull"
	"github.com/Schwaller/graphlens/pkg/interaction"
	"github.com/Schwaller/graphlens/pkg/layout"
	"github.com/Schwaller/graphlens/pkg/lens"
	"github.com/Schwaller/graphlens/pkg/logging"
	"github.com/Schwaller/graphlens/pkg/physics"
	"github.com/Schwaller/graphlens/pkg/view"
	"gonum.org/v1/gonum/spatial/r2"
)

// Options aggregates the tuning for every subsystem.
type Options struct {
	Physics     physics.Params
	Layout      layout.Options
	Interaction interaction.Options
	MinZoom     float64
	MaxZoom     float64
	ScreenW     float64 // rendering surface size, used by view fitting
	ScreenH     float64
	FitMargin   float64
	HubKinds    []string // node kinds treated as hubs by the classifier
	FocusCap    int      // max neighborhood size for double-click focus
}

// DefaultOptions returns the engine tuning used by the server.
func DefaultOptions() Options {
	return Options{
		Physics:     physics.DefaultParams(),
		Layout:      layout.DefaultOptions(),
		Interaction: interaction.DefaultOptions(),
		ScreenW:     1280,
		ScreenH:     800,
		FitMargin:   40,
		FocusCap:    50,
	}
}

// Position is one persisted node placement.
type Position struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Pinned bool    `json:"pinned,omitempty"`
}

// Hooks are the outward collaborator callbacks. Any hook may be nil.
type Hooks struct {
	// OnSelect fires when the selection changes; "" means cleared.
	OnSelect func(id string)
	// OnPositions fires with a full position snapshot when a drag ends or
	// a layout pass settles.
	OnPositions func([]Position)
}

// Engine is the interactive layout facade.
type Engine struct {
	opts  Options
	hooks Hooks

	model  *graph.Model
	vt     *view.Transform
	phys   *physics.Engine
	layout *layout.Engine
	ctrl   *interaction.Controller

	isHub   func(*graph.Node) bool
	focalID string
	tiers   lens.Result
}

// New creates an engine around an empty model.
func New(opts Options, hooks Hooks) *Engine {
	if opts.ScreenW <= 0 || opts.ScreenH <= 0 {
		d := DefaultOptions()
		opts.ScreenW, opts.ScreenH = d.ScreenW, d.ScreenH
	}
	if opts.FitMargin <= 0 {
		opts.FitMargin = DefaultOptions().FitMargin
	}
	if opts.FocusCap <= 0 {
		opts.FocusCap = DefaultOptions().FocusCap
	}
	opts.Layout.Center = r2.Vec{X: opts.ScreenW / 2, Y: opts.ScreenH / 2}
	opts.Physics.Center = opts.Layout.Center

	e := &Engine{
		opts:  opts,
		hooks: hooks,
		model: graph.NewModel(nil, nil),
		vt:    view.New(opts.MinZoom, opts.MaxZoom),
		phys:  physics.NewEngine(opts.Physics),
		isHub: lens.KindSet(opts.HubKinds),
	}
	e.layout = layout.New(e.model, e.phys, opts.Layout, e.persistPositions)
	e.ctrl = interaction.New(e.model, e.vt, opts.Interaction, interaction.Hooks{
		OnSelect:  e.selectionChanged,
		OnCommit:  func(string, r2.Vec, bool) { e.persistPositions() },
		OnDisturb: e.Disturb,
		OnPin:     func(string, bool) { e.persistPositions() },
		OnFocus:   e.focusNeighborhood,
	})
	e.tiers = lens.Classify(e.model, "", e.isHub)
	return e
}

// SetData replaces the model wholesale. Restored nodes should arrive with
// Placed set so the spring layout does not re-scatter them.
func (e *Engine) SetData(nodes []graph.Node, edges []graph.Edge) {
	e.model = graph.NewModel(nodes, edges)
	e.layout.SetModel(e.model)
	e.ctrl.SetModel(e.model)
	if e.focalID != "" && !e.model.Has(e.focalID) {
		e.focalID = ""
	}
	e.reclassify()
	logging.Info("graph data replaced", "nodes", e.model.NodeCount(), "edges", len(e.model.Edges()))
}

// Model exposes the live model for read access.
func (e *Engine) Model() *graph.Model { return e.model }

// View exposes the live transform for read access.
func (e *Engine) View() *view.Transform { return e.vt }

// SetFocalNode drives the distance classifier. The empty id (or an
// unknown one) restores full visibility.
func (e *Engine) SetFocalNode(id string) {
	if id != "" && !e.model.Has(id) {
		id = ""
	}
	e.focalID = id
	e.reclassify()
}

// FocalNode returns the current focal node id, or "".
func (e *Engine) FocalNode() string { return e.focalID }

// SetLayoutMode switches the layout strategy.
func (e *Engine) SetLayoutMode(mode layout.Mode) { e.layout.SetMode(mode) }

// LayoutMode returns the active layout mode.
func (e *Engine) LayoutMode() layout.Mode { return e.layout.Mode() }

// Disturb wakes a settled spring layout, e.g. after a drag or data edit.
func (e *Engine) Disturb() { e.layout.Reheat() }

// Tick advances the active layout by one step. Returns true while more
// ticks are needed.
func (e *Engine) Tick() bool {
	return e.layout.Tick(e.ctrl.DraggedID())
}

// Active reports whether the layout still needs ticks.
func (e *Engine) Active() bool { return e.layout.Active() }

// ResetView restores the identity transform.
func (e *Engine) ResetView() { e.vt.Reset() }

// SetView sets zoom and pan directly, clamped.
func (e *Engine) SetView(zoom float64, pan r2.Vec) { e.vt.Set(zoom, pan) }

// FitToBounds frames the given nodes (all nodes when none are given).
func (e *Engine) FitToBounds(ids ...string) {
	box, ok := e.model.Bounds(ids...)
	if !ok {
		e.vt.Reset()
		return
	}
	e.vt.FitToBounds(box, e.opts.ScreenW, e.opts.ScreenH, e.opts.FitMargin)
}

// PointerMove forwards a pointer move in screen coordinates.
func (e *Engine) PointerMove(sx, sy float64) { e.ctrl.PointerMove(sx, sy) }

// PointerDown forwards a pointer press.
func (e *Engine) PointerDown(sx, sy float64) { e.ctrl.PointerDown(sx, sy) }

// PointerUp forwards a pointer release.
func (e *Engine) PointerUp(sx, sy float64) { e.ctrl.PointerUp(sx, sy) }

// DoubleClick forwards a double-click.
func (e *Engine) DoubleClick(sx, sy float64) { e.ctrl.DoubleClick(sx, sy) }

// Wheel forwards a wheel notch; positive dy zooms out.
func (e *Engine) Wheel(sx, sy, dy float64) { e.ctrl.Wheel(sx, sy, dy) }

// SelectedID returns the selected node id, or "".
func (e *Engine) SelectedID() string { return e.ctrl.SelectedID() }

// Positions returns a persistence snapshot of every node, sorted by id so
// the saved file is stable across runs.
func (e *Engine) Positions() []Position {
	nodes := e.model.Nodes()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	out := make([]Position, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Position{ID: n.ID, X: n.Pos.X, Y: n.Pos.Y, Pinned: n.Pinned})
	}
	return out
}

// CategoryBlobs groups nodes by kind and returns a smoothed boundary per
// kind with at least two members.
func (e *Engine) CategoryBlobs(padding float64) map[string]hull.Curve {
	byKind := make(map[string][]r2.Vec)
	for _, n := range e.model.Nodes() {
		byKind[n.Kind] = append(byKind[n.Kind], n.Pos)
	}

	blobs := make(map[string]hull.Curve)
	for kind, pts := range byKind {
		if kind == "" || len(pts) < 2 {
			continue
		}
		blobs[kind] = hull.SmoothBlob(pts, padding)
	}
	return blobs
}

// reclassify reruns the distance classifier against the current model.
func (e *Engine) reclassify() {
	e.tiers = lens.Classify(e.model, e.focalID, e.isHub)
}

// focusNeighborhood frames the focal node's BFS-reachable neighborhood,
// capped so one giant component cannot swallow the whole view.
func (e *Engine) focusNeighborhood(id string) {
	if !e.model.Has(id) {
		return
	}
	reach := []string{id}
	seen := map[string]bool{id: true}
	for i := 0; i < len(reach) && len(reach) < e.opts.FocusCap; i++ {
		for _, nb := range e.model.Neighbors(reach[i]) {
			if seen[nb] {
				continue
			}
			seen[nb] = true
			reach = append(reach, nb)
			if len(reach) >= e.opts.FocusCap {
				break
			}
		}
	}
	e.SetFocalNode(id)
	e.FitToBounds(reach...)
}

func (e *Engine) persistPositions() {
	if e.hooks.OnPositions != nil {
		e.hooks.OnPositions(e.Positions())
	}
}

func (e *Engine) selectionChanged(id string) {
	if e.hooks.OnSelect != nil {
		e.hooks.OnSelect(id)
	}
}
