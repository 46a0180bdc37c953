// Package physics advances the force-directed simulation one step at a
// time. Each step sums pairwise repulsion, edge-spring attraction and a
// weak center pull per node, then integrates damped, clamped velocities.
// A cooling temperature bounds force magnitudes so the system always
// settles instead of oscillating forever.
package physics

import (
	"sort"

	"github.com/Schwaller/graphlens/pkg/graph"
	"gonum.org/v1/gonum/spatial/r2"
)

// Params holds the simulation tuning. These are configuration, not derived
// state; zero values are replaced with the defaults.
type Params struct {
	Repulsion         float64 // pairwise push, magnitude Repulsion/d²
	Attraction        float64 // spring pull per edge, magnitude Attraction*d
	Damping           float64 // per-step velocity decay, (0, 1)
	CenterPull        float64 // pull toward Center, magnitude CenterPull*offset
	MaxVelocity       float64 // per-step displacement cap
	SleepVelocity     float64 // speeds below this are treated as zero
	RepulsionCutoff   float64 // pairs farther apart than this don't repel
	MinSpringDistance float64 // springs only engage past this distance
	StartTemperature  float64 // initial force-magnitude cap
	Cooling           float64 // temperature decay per step, (0, 1)
	Center            r2.Vec
}

// DefaultParams returns the tuning used by the dashboard views.
func DefaultParams() Params {
	return Params{
		Repulsion:         6000,
		Attraction:        0.02,
		Damping:           0.85,
		CenterPull:        0.005,
		MaxVelocity:       12,
		SleepVelocity:     0.05,
		RepulsionCutoff:   600,
		MinSpringDistance: 40,
		StartTemperature:  60,
		Cooling:           0.96,
	}
}

func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.Repulsion <= 0 {
		p.Repulsion = d.Repulsion
	}
	if p.Attraction <= 0 {
		p.Attraction = d.Attraction
	}
	if p.Damping <= 0 || p.Damping >= 1 {
		p.Damping = d.Damping
	}
	if p.CenterPull <= 0 {
		p.CenterPull = d.CenterPull
	}
	if p.MaxVelocity <= 0 {
		p.MaxVelocity = d.MaxVelocity
	}
	if p.SleepVelocity <= 0 {
		p.SleepVelocity = d.SleepVelocity
	}
	if p.RepulsionCutoff <= 0 {
		p.RepulsionCutoff = d.RepulsionCutoff
	}
	if p.MinSpringDistance < 0 {
		p.MinSpringDistance = d.MinSpringDistance
	}
	if p.StartTemperature <= 0 {
		p.StartTemperature = d.StartTemperature
	}
	if p.Cooling <= 0 || p.Cooling >= 1 {
		p.Cooling = d.Cooling
	}
	return p
}

// Engine runs the simulation. It carries the cooling temperature between
// steps; Reheat resets it after a disturbance (drag, new nodes, mode
// switch) so the layout can resettle.
type Engine struct {
	params Params
	temp   float64
}

// NewEngine creates a simulation engine with the given tuning.
func NewEngine(p Params) *Engine {
	p = p.withDefaults()
	return &Engine{params: p, temp: p.StartTemperature}
}

// Params returns the active tuning.
func (e *Engine) Params() Params { return e.params }

// Reheat restores the starting temperature.
func (e *Engine) Reheat() {
	e.temp = e.params.StartTemperature
}

// Step advances the simulation by one tick. Pinned nodes and the node with
// excludedID (the one being dragged, if any) do not move, but still repel
// and attract their neighbors. It returns true while any node is still
// moving; callers stop ticking once it reports false.
func (e *Engine) Step(m *graph.Model, excludedID string) bool {
	p := e.params

	ids := m.IDs()
	sort.Strings(ids)

	forces := make(map[string]r2.Vec, len(ids))

	// Pairwise repulsion within the cutoff. The distance is floored at 1
	// so coincident nodes can't blow up the division.
	for i, idA := range ids {
		a := m.Node(idA)
		for _, idB := range ids[i+1:] {
			b := m.Node(idB)

			delta := r2.Sub(a.Pos, b.Pos)
			dist := r2.Norm(delta)
			if dist > p.RepulsionCutoff {
				continue
			}
			dir := separationDir(delta, dist)
			if dist < 1 {
				dist = 1
			}

			push := r2.Scale(p.Repulsion/(dist*dist), dir)
			forces[idA] = r2.Add(forces[idA], push)
			forces[idB] = r2.Sub(forces[idB], push)
		}
	}

	// Spring attraction along edges, engaging only past the minimum
	// distance so adjacent nodes aren't forced to overlap.
	for _, edge := range m.Edges() {
		a, b := m.Node(edge.From), m.Node(edge.To)
		if a == nil || b == nil {
			continue
		}

		delta := r2.Sub(b.Pos, a.Pos)
		dist := r2.Norm(delta)
		if dist <= p.MinSpringDistance || dist == 0 {
			continue
		}

		pull := r2.Scale(p.Attraction*dist, r2.Scale(1/dist, delta))
		forces[edge.From] = r2.Add(forces[edge.From], pull)
		forces[edge.To] = r2.Sub(forces[edge.To], pull)
	}

	// Integrate.
	moving := false
	for _, id := range ids {
		n := m.Node(id)
		if n.Pinned || id == excludedID {
			n.Vel = r2.Vec{}
			continue
		}

		f := r2.Add(forces[id], r2.Scale(p.CenterPull, r2.Sub(p.Center, n.Pos)))
		if mag := r2.Norm(f); mag > e.temp && mag > 0 {
			f = r2.Scale(e.temp/mag, f)
		}

		v := r2.Scale(p.Damping, r2.Add(n.Vel, f))
		if speed := r2.Norm(v); speed > p.MaxVelocity {
			v = r2.Scale(p.MaxVelocity/speed, v)
		}
		if r2.Norm(v) < p.SleepVelocity {
			v = r2.Vec{}
		}

		n.Vel = v
		if v != (r2.Vec{}) {
			n.Pos = r2.Add(n.Pos, v)
			n.Placed = true
			moving = true
		}
	}

	e.temp *= p.Cooling
	return moving
}

// separationDir returns a unit vector pointing from b toward a given
// delta = a-b. Coincident nodes get a fixed axis so they separate
// deterministically instead of dividing by zero.
func separationDir(delta r2.Vec, dist float64) r2.Vec {
	if dist < 1e-9 {
		return r2.Vec{X: 1}
	}
	return r2.Scale(1/dist, delta)
}
