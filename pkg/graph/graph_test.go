package graph

import (
	"math"
	"sort"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestNewModelEmpty(t *testing.T) {
	m := NewModel(nil, nil)
	if m.NodeCount() != 0 {
		t.Errorf("Empty model should have 0 nodes, got %d", m.NodeCount())
	}
	if len(m.Edges()) != 0 {
		t.Errorf("Empty model should have 0 edges, got %d", len(m.Edges()))
	}
	if _, ok := m.Bounds(); ok {
		t.Error("Bounds() on empty model should report no nodes")
	}
}

func TestDuplicateNodeIDKeepsFirst(t *testing.T) {
	m := NewModel([]Node{
		{ID: "a", Kind: "person"},
		{ID: "a", Kind: "coin"},
	}, nil)

	if m.NodeCount() != 1 {
		t.Fatalf("Expected 1 node after duplicate insert, got %d", m.NodeCount())
	}
	if kind := m.Node("a").Kind; kind != "person" {
		t.Errorf("Expected first occurrence to win, got kind %q", kind)
	}
}

func TestAddEdgeValidation(t *testing.T) {
	m := NewModel([]Node{{ID: "a"}, {ID: "b"}}, nil)

	tests := []struct {
		name string
		edge Edge
		want bool
	}{
		{"valid", Edge{From: "a", To: "b"}, true},
		{"missing target", Edge{From: "a", To: "ghost"}, false},
		{"missing source", Edge{From: "ghost", To: "b"}, false},
		{"self edge", Edge{From: "a", To: "a"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.AddEdge(tt.edge); got != tt.want {
				t.Errorf("AddEdge(%v) = %v, want %v", tt.edge, got, tt.want)
			}
		})
	}

	if len(m.Edges()) != 1 {
		t.Errorf("Expected 1 surviving edge, got %d", len(m.Edges()))
	}
}

func TestNeighborsUndirected(t *testing.T) {
	m := NewModel(
		[]Node{{ID: "a"}, {ID: "b"}, {ID: "c"}},
		[]Edge{{From: "a", To: "b"}, {From: "c", To: "a"}},
	)

	got := m.Neighbors("a")
	sort.Strings(got)
	want := []string{"b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Neighbors(a) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Neighbors(a) = %v, want %v", got, want)
		}
	}

	if n := m.Neighbors("ghost"); n != nil {
		t.Errorf("Neighbors of unknown node should be nil, got %v", n)
	}
}

func TestSanitizeNonFiniteState(t *testing.T) {
	m := NewModel([]Node{
		{ID: "a", Pos: r2.Vec{X: math.NaN(), Y: 3}, Placed: true},
		{ID: "b", Vel: r2.Vec{X: math.Inf(1)}, Radius: math.NaN()},
	}, nil)

	a := m.Node("a")
	if a.Pos != (r2.Vec{}) || a.Placed {
		t.Errorf("NaN position should reset to origin and clear Placed, got %+v", a)
	}

	b := m.Node("b")
	if b.Vel != (r2.Vec{}) {
		t.Errorf("Infinite velocity should reset, got %+v", b.Vel)
	}
	if b.Radius != 0 {
		t.Errorf("NaN radius should reset to 0, got %v", b.Radius)
	}
}

func TestBounds(t *testing.T) {
	m := NewModel([]Node{
		{ID: "a", Pos: r2.Vec{X: -10, Y: 0}, Radius: 5},
		{ID: "b", Pos: r2.Vec{X: 20, Y: 30}, Radius: 2},
	}, nil)

	box, ok := m.Bounds()
	if !ok {
		t.Fatal("Bounds() reported no nodes")
	}
	if box.Min.X != -15 || box.Min.Y != -5 {
		t.Errorf("Bounds min = %+v, want (-15, -5)", box.Min)
	}
	if box.Max.X != 22 || box.Max.Y != 32 {
		t.Errorf("Bounds max = %+v, want (22, 32)", box.Max)
	}

	sub, ok := m.Bounds("a")
	if !ok || sub.Max.X != -5 {
		t.Errorf("Bounds(a) = %+v ok=%v, want max.X -5", sub, ok)
	}
}
