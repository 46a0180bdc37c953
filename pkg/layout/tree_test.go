package layout

import (
	"testing"

	"github.com/Schwaller/graphlens/pkg/graph"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestTreeTargetsLevels(t *testing.T) {
	m := graph.NewModel(
		[]graph.Node{
			{ID: "root"}, {ID: "left"}, {ID: "right"}, {ID: "leaf"},
		},
		[]graph.Edge{
			{From: "root", To: "left", Kind: "parent"},
			{From: "root", To: "right", Kind: "parent"},
			{From: "left", To: "leaf", Kind: "parent"},
		},
	)
	got := TreeTargets(m, "parent", r2.Vec{}, 100, 50)

	if got["root"].X != 0 {
		t.Errorf("root column x = %v, want 0", got["root"].X)
	}
	if got["left"].X != 100 || got["right"].X != 100 {
		t.Errorf("children column x = %v, %v, want 100", got["left"].X, got["right"].X)
	}
	if got["leaf"].X != 200 {
		t.Errorf("grandchild column x = %v, want 200", got["leaf"].X)
	}

	// Two nodes in the middle column straddle the origin row.
	if got["left"].Y != -25 || got["right"].Y != 25 {
		t.Errorf("middle column rows = %v, %v, want -25, 25", got["left"].Y, got["right"].Y)
	}
	// Single-node columns sit on the origin row.
	if got["root"].Y != 0 || got["leaf"].Y != 0 {
		t.Errorf("single columns rows = %v, %v, want 0", got["root"].Y, got["leaf"].Y)
	}
}

func TestTreeTargetsIgnoresOtherEdgeKinds(t *testing.T) {
	m := graph.NewModel(
		[]graph.Node{{ID: "a"}, {ID: "b"}},
		[]graph.Edge{{From: "a", To: "b", Kind: "link"}},
	)
	got := TreeTargets(m, "parent", r2.Vec{}, 100, 50)

	// Neither node has a tree parent, so both land in column zero.
	if got["a"].X != 0 || got["b"].X != 0 {
		t.Errorf("columns = %v, %v, want both 0", got["a"].X, got["b"].X)
	}
}

func TestTreeTargetsOrigin(t *testing.T) {
	m := graph.NewModel(
		[]graph.Node{{ID: "solo"}},
		nil,
	)
	origin := r2.Vec{X: 400, Y: 300}
	got := TreeTargets(m, "parent", origin, 100, 50)
	if got["solo"] != origin {
		t.Errorf("solo node target = %v, want %v", got["solo"], origin)
	}
}

func TestTreeTargetsCycle(t *testing.T) {
	m := graph.NewModel(
		[]graph.Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		[]graph.Edge{
			{From: "a", To: "b", Kind: "parent"},
			{From: "b", To: "c", Kind: "parent"},
			{From: "c", To: "a", Kind: "parent"},
		},
	)
	got := TreeTargets(m, "parent", r2.Vec{}, 100, 50)
	if len(got) != 3 {
		t.Fatalf("got %d targets, want 3", len(got))
	}
	// The cycle is broken at the smallest id, which becomes the root.
	if got["a"].X != 0 {
		t.Errorf("cycle root column x = %v, want 0", got["a"].X)
	}
	if got["b"].X != 100 || got["c"].X != 200 {
		t.Errorf("cycle member columns = %v, %v, want 100, 200", got["b"].X, got["c"].X)
	}
}

func TestTreeTargetsHangingCycle(t *testing.T) {
	m := graph.NewModel(
		[]graph.Node{{ID: "r"}, {ID: "x"}, {ID: "y"}, {ID: "z"}},
		[]graph.Edge{
			{From: "x", To: "y", Kind: "parent"},
			{From: "y", To: "x", Kind: "parent"},
			{From: "y", To: "z", Kind: "parent"},
		},
	)
	got := TreeTargets(m, "parent", r2.Vec{}, 100, 50)

	// The x/y cycle is unreachable from root r; it gets broken at x and
	// laid out below the main tree, with z hanging off y.
	wantX := map[string]float64{"r": 0, "x": 100, "y": 200, "z": 300}
	for id, want := range wantX {
		if got[id].X != want {
			t.Errorf("node %s column x = %v, want %v", id, got[id].X, want)
		}
	}
}

func TestTreeTargetsDeterministic(t *testing.T) {
	m := graph.NewModel(
		[]graph.Node{{ID: "r"}, {ID: "x"}, {ID: "y"}, {ID: "z"}},
		[]graph.Edge{
			{From: "r", To: "x", Kind: "parent"},
			{From: "r", To: "y", Kind: "parent"},
			{From: "r", To: "z", Kind: "parent"},
		},
	)
	first := TreeTargets(m, "parent", r2.Vec{}, 100, 50)
	for i := 0; i < 5; i++ {
		again := TreeTargets(m, "parent", r2.Vec{}, 100, 50)
		for id, want := range first {
			if again[id] != want {
				t.Fatalf("run %d: node %s moved from %v to %v", i, id, want, again[id])
			}
		}
	}
}
