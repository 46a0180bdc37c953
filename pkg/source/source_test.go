package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Schwaller/graphlens/pkg/engine"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDataset(t *testing.T) {
	path := writeFile(t, "graph.json", `{
		"name": "portfolio",
		"nodes": [
			{"id": "btc", "kind": "coin", "weight": 100},
			{"id": "alice", "kind": "person"}
		],
		"edges": [
			{"from": "alice", "to": "btc", "kind": "holds"}
		]
	}`)

	ds, err := LoadDataset(path)
	if err != nil {
		t.Fatal(err)
	}
	if ds.Name != "portfolio" || len(ds.Nodes) != 2 || len(ds.Edges) != 1 {
		t.Errorf("dataset = %+v", ds)
	}
}

func TestLoadDatasetErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", `{"nodes": [`},
		{"node without id", `{"nodes": [{"kind": "coin"}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "bad.json", tt.content)
			if _, err := LoadDataset(path); err == nil {
				t.Error("expected an error")
			}
		})
	}

	if _, err := LoadDataset(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected an error for a missing dataset")
	}
}

func TestRadiusFromWeight(t *testing.T) {
	tests := []struct {
		weight float64
		want   float64
	}{
		{0, 11},    // defaults to weight 1
		{1, 11},    // 8 + 3*1
		{100, 38},  // 8 + 3*10
		{1e6, 40},  // capped
		{-5, 11},   // negative defaults
	}
	for _, tt := range tests {
		if got := RadiusFromWeight(tt.weight); got != tt.want {
			t.Errorf("RadiusFromWeight(%v) = %v, want %v", tt.weight, got, tt.want)
		}
	}
}

func TestBuildAppliesRestoredPositions(t *testing.T) {
	ds := &Dataset{
		Nodes: []NodeSpec{{ID: "a", Weight: 4}, {ID: "b"}},
		Edges: []EdgeSpec{{From: "a", To: "b", Kind: "link"}},
	}
	restored := map[string]engine.Position{
		"a": {ID: "a", X: 120, Y: -30, Pinned: true},
	}
	nodes, edges := ds.Build(restored)

	if len(nodes) != 2 || len(edges) != 1 {
		t.Fatalf("built %d nodes %d edges, want 2 and 1", len(nodes), len(edges))
	}
	a := nodes[0]
	if a.Pos.X != 120 || a.Pos.Y != -30 || !a.Pinned || !a.Placed {
		t.Errorf("restored node = %+v", a)
	}
	if a.Radius != 14 { // 8 + 3*sqrt(4)
		t.Errorf("radius = %v, want 14", a.Radius)
	}
	b := nodes[1]
	if b.Placed || b.Pinned {
		t.Errorf("fresh node should be unplaced: %+v", b)
	}
}

func TestPositionsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "positions.json")
	saved := []engine.Position{
		{ID: "a", X: 1.5, Y: -2.25, Pinned: true},
		{ID: "b", X: 0, Y: 300},
	}
	if err := SavePositions(path, saved); err != nil {
		t.Fatal(err)
	}

	got, err := LoadPositions(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("loaded %d positions, want 2", len(got))
	}
	for _, want := range saved {
		if got[want.ID] != want {
			t.Errorf("position %s = %+v, want %+v", want.ID, got[want.ID], want)
		}
	}
}

func TestLoadPositionsMissingFile(t *testing.T) {
	got, err := LoadPositions(filepath.Join(t.TempDir(), "none.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("missing file produced %d positions, want 0", len(got))
	}
}

func TestLoadPositionsSkipsMalformedEntries(t *testing.T) {
	path := writeFile(t, "positions.json", `{
		"positions": [
			{"id": "", "x": 1, "y": 2},
			{"id": "ok", "x": 5, "y": 6}
		]
	}`)
	got, err := LoadPositions(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got["ok"].X != 5 {
		t.Errorf("positions = %v, want just ok", got)
	}
}
