package layout

import (
	"testing"

	"github.com/Schwaller/graphlens/pkg/graph"
	"github.com/Schwaller/graphlens/pkg/physics"
	"gonum.org/v1/gonum/spatial/r2"
)

func pairModel(t *testing.T) *graph.Model {
	t.Helper()
	return graph.NewModel(
		[]graph.Node{
			{ID: "a", Pos: r2.Vec{X: 0, Y: 0}, Radius: 10, Placed: true},
			{ID: "b", Pos: r2.Vec{X: 50, Y: 0}, Radius: 10, Placed: true},
		},
		[]graph.Edge{{From: "a", To: "b"}},
	)
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"manual", Manual, false},
		{"spring", Spring, false},
		{"tree", TreeAnimating, false},
		{"SPRING", Spring, false},
		{"circular", Manual, true},
		{"", Manual, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSetModeIdempotent(t *testing.T) {
	m := pairModel(t)
	e := New(m, physics.NewEngine(physics.DefaultParams()), Options{}, nil)

	e.SetMode(Spring)
	if !e.Active() {
		t.Fatal("spring mode should start active")
	}
	for e.Tick("") {
	}
	if e.Active() {
		t.Fatal("engine still active after settling")
	}

	// Re-entering the current mode must not restart the simulation.
	e.SetMode(Spring)
	if e.Active() {
		t.Error("re-entering spring mode restarted the pass")
	}
}

func TestSpringSeedsUnplacedNodes(t *testing.T) {
	m := graph.NewModel(
		[]graph.Node{
			{ID: "a", Radius: 10},
			{ID: "b", Radius: 10},
		},
		nil,
	)
	e := New(m, physics.NewEngine(physics.DefaultParams()), Options{ScatterRadius: 100}, nil)
	e.SetMode(Spring)

	a, b := m.Node("a"), m.Node("b")
	if !a.Placed || !b.Placed {
		t.Fatal("nodes not marked placed after seeding")
	}
	if a.Pos == b.Pos {
		t.Error("both nodes seeded at the same point")
	}
	for _, n := range []*graph.Node{a, b} {
		if r2.Norm(n.Pos) > 100 {
			t.Errorf("node %s seeded outside scatter radius: %v", n.ID, n.Pos)
		}
	}
}

func TestSpringSettlesAndNotifies(t *testing.T) {
	m := pairModel(t)
	settled := 0
	e := New(m, physics.NewEngine(physics.DefaultParams()), Options{}, func() { settled++ })
	e.SetMode(Spring)

	steps := 0
	for e.Tick("") {
		steps++
		if steps > 2000 {
			t.Fatal("spring layout did not settle within 2000 ticks")
		}
	}
	if settled != 1 {
		t.Errorf("onSettle fired %d times, want 1", settled)
	}
	if e.Mode() != Spring {
		t.Errorf("mode after settling = %v, want Spring", e.Mode())
	}
}

func TestReheatRestartsSpring(t *testing.T) {
	m := pairModel(t)
	e := New(m, physics.NewEngine(physics.DefaultParams()), Options{}, nil)
	e.SetMode(Spring)
	for e.Tick("") {
	}

	e.Reheat()
	if !e.Active() {
		t.Fatal("reheat did not reactivate the engine")
	}
	if !e.Tick("") {
		t.Error("no motion on the first tick after reheat")
	}
}

func TestReheatOutsideSpringIsNoop(t *testing.T) {
	m := pairModel(t)
	e := New(m, physics.NewEngine(physics.DefaultParams()), Options{}, nil)
	e.Reheat()
	if e.Active() {
		t.Error("reheat in manual mode activated the engine")
	}
}

func TestTreeAnimatesToTargetsAndReturnsToManual(t *testing.T) {
	m := graph.NewModel(
		[]graph.Node{
			{ID: "root", Pos: r2.Vec{X: 500, Y: 500}, Placed: true},
			{ID: "kid", Pos: r2.Vec{X: -500, Y: -500}, Placed: true},
		},
		[]graph.Edge{{From: "root", To: "kid", Kind: "parent"}},
	)
	settled := 0
	e := New(m, physics.NewEngine(physics.DefaultParams()), Options{}, func() { settled++ })
	e.SetMode(TreeAnimating)

	want := TreeTargets(m, "parent", r2.Vec{}, 180, 70)
	steps := 0
	for e.Tick("") {
		steps++
		if steps > 1000 {
			t.Fatal("tree animation did not finish within 1000 ticks")
		}
	}

	for id, target := range want {
		got := m.Node(id).Pos
		if r2.Norm(r2.Sub(got, target)) > 1e-9 {
			t.Errorf("node %s ended at %v, want %v", id, got, target)
		}
	}
	if e.Mode() != Manual {
		t.Errorf("mode after tree animation = %v, want Manual", e.Mode())
	}
	if settled != 1 {
		t.Errorf("onSettle fired %d times, want 1", settled)
	}
}

func TestTickExcludesDraggedNode(t *testing.T) {
	m := graph.NewModel(
		[]graph.Node{
			{ID: "root", Pos: r2.Vec{X: 300, Y: 300}, Placed: true},
			{ID: "kid", Pos: r2.Vec{X: 300, Y: -300}, Placed: true},
		},
		[]graph.Edge{{From: "root", To: "kid", Kind: "parent"}},
	)
	e := New(m, physics.NewEngine(physics.DefaultParams()), Options{}, nil)
	e.SetMode(TreeAnimating)

	before := m.Node("root").Pos
	for i := 0; i < 50; i++ {
		e.Tick("root")
	}
	if m.Node("root").Pos != before {
		t.Error("excluded node moved during tree animation")
	}
	if !e.Active() {
		t.Error("animation finished while a target node was excluded")
	}
}

func TestSetModelRestartsActiveMode(t *testing.T) {
	m := pairModel(t)
	e := New(m, physics.NewEngine(physics.DefaultParams()), Options{}, nil)
	e.SetMode(Spring)
	for e.Tick("") {
	}

	e.SetModel(pairModel(t))
	if e.Mode() != Spring {
		t.Errorf("mode after SetModel = %v, want Spring", e.Mode())
	}
	if !e.Active() {
		t.Error("spring pass not restarted for the replacement model")
	}
}
