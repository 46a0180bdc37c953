// Package source loads graph datasets from JSON files and persists node
// positions between sessions. It is the only part of the system that
// touches the filesystem for graph data; the engine itself stays pure.
package source

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/Schwaller/graphlens/pkg/engine"
	"github.com/Schwaller/graphlens/pkg/graph"
	"github.com/Schwaller/graphlens/pkg/logging"
	"gonum.org/v1/gonum/spatial/r2"
)

// Radius mapping from dataset weight. sqrt keeps heavy nodes from
// dwarfing everything else.
const (
	minRadius     = 8
	maxRadius     = 40
	radiusScale   = 3
	defaultWeight = 1
)

// NodeSpec is one node as it appears in a dataset file.
type NodeSpec struct {
	ID     string  `json:"id"`
	Label  string  `json:"label,omitempty"`
	Kind   string  `json:"kind,omitempty"`
	Weight float64 `json:"weight,omitempty"`
}

// EdgeSpec is one edge as it appears in a dataset file.
type EdgeSpec struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind,omitempty"`
}

// Dataset is the on-disk graph description.
type Dataset struct {
	Name  string     `json:"name,omitempty"`
	Nodes []NodeSpec `json:"nodes"`
	Edges []EdgeSpec `json:"edges"`
}

// LoadDataset reads and validates a dataset file.
func LoadDataset(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	var ds Dataset
	dec := json.NewDecoder(f)
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	for i, n := range ds.Nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("dataset %s: node %d has no id", path, i)
		}
	}
	logging.Info("dataset loaded", "path", path, "nodes", len(ds.Nodes), "edges", len(ds.Edges))
	return &ds, nil
}

// RadiusFromWeight maps a dataset weight to a node radius.
func RadiusFromWeight(weight float64) float64 {
	if weight <= 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		weight = defaultWeight
	}
	r := minRadius + radiusScale*math.Sqrt(weight)
	if r > maxRadius {
		r = maxRadius
	}
	return r
}

// Build converts the dataset into model inputs, applying any restored
// positions. Nodes with a restored position arrive placed; the rest are
// left for the layout engine to seed.
func (d *Dataset) Build(restored map[string]engine.Position) ([]graph.Node, []graph.Edge) {
	nodes := make([]graph.Node, 0, len(d.Nodes))
	for _, spec := range d.Nodes {
		n := graph.Node{
			ID:     spec.ID,
			Kind:   spec.Kind,
			Radius: RadiusFromWeight(spec.Weight),
		}
		if p, ok := restored[spec.ID]; ok {
			n.Pos = r2.Vec{X: p.X, Y: p.Y}
			n.Pinned = p.Pinned
			n.Placed = true
		}
		nodes = append(nodes, n)
	}

	edges := make([]graph.Edge, 0, len(d.Edges))
	for _, spec := range d.Edges {
		edges = append(edges, graph.Edge{From: spec.From, To: spec.To, Kind: spec.Kind})
	}
	return nodes, edges
}

// positionsFile is the persisted layout format.
type positionsFile struct {
	Positions []engine.Position `json:"positions"`
}

// SavePositions writes the position snapshot atomically (temp file plus
// rename) so a crash mid-write never corrupts the stored layout.
func SavePositions(path string, positions []engine.Position) error {
	data, err := json.MarshalIndent(positionsFile{Positions: positions}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode positions: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".positions-*.json")
	if err != nil {
		return fmt.Errorf("write positions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write positions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write positions: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write positions: %w", err)
	}
	return nil
}

// LoadPositions reads a stored layout. A missing file is a normal first
// run and returns an empty map.
func LoadPositions(path string) (map[string]engine.Position, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]engine.Position{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	var pf positionsFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse positions %s: %w", path, err)
	}
	out := make(map[string]engine.Position, len(pf.Positions))
	for _, p := range pf.Positions {
		if p.ID == "" || math.IsNaN(p.X) || math.IsNaN(p.Y) {
			continue
		}
		out[p.ID] = p
	}
	return out, nil
}
