package graph

import (
	"math"

	"github.com/Schwaller/graphlens/pkg/logging"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/spatial/r2"
)

// Node represents an entity in the relationship graph along with its mutable
// layout state. Pos and Vel are in world space; Pinned nodes are excluded
// from the physics simulation until unpinned.
type Node struct {
	ID     string
	Kind   string // opaque tag, used by the distance classifier and hull grouping
	Pos    r2.Vec
	Vel    r2.Vec
	Radius float64
	Pinned bool
	Placed bool // true once a position has been assigned (restored or laid out)
}

// Edge is a typed connection between two nodes. Edges are treated as
// undirected by the physics and the distance classifier; Kind may carry
// directional semantics for callers (e.g. a parent/child relation).
type Edge struct {
	From string
	To   string
	Kind string
}

// Model is the id-indexed arena holding nodes and edges. Adjacency is kept
// in a gonum undirected graph with an id<->int64 mapping so neighbor
// queries don't scan the edge list.
//
// Model is not safe for concurrent use; it assumes a single owning
// goroutine (the tick loop).
type Model struct {
	nodes  map[string]*Node
	ids    map[string]int64
	labels map[int64]string
	adj    *simple.UndirectedGraph
	edges  []Edge
	nextID int64
}

// NewModel builds a model from node and edge lists. Duplicate node IDs keep
// the first occurrence; edges referencing a missing node or connecting a
// node to itself are skipped.
func NewModel(nodes []Node, edges []Edge) *Model {
	m := &Model{
		nodes:  make(map[string]*Node, len(nodes)),
		ids:    make(map[string]int64, len(nodes)),
		labels: make(map[int64]string, len(nodes)),
		adj:    simple.NewUndirectedGraph(),
	}

	for i := range nodes {
		n := nodes[i]
		m.AddNode(&n)
	}
	for _, e := range edges {
		m.AddEdge(e)
	}

	return m
}

// AddNode inserts a node into the arena. A node with a duplicate or empty
// ID is rejected and the model is unchanged.
func (m *Model) AddNode(n *Node) bool {
	if n.ID == "" {
		logging.Warn("rejecting node with empty id")
		return false
	}
	if _, exists := m.nodes[n.ID]; exists {
		logging.Warn("rejecting duplicate node id", "id", n.ID)
		return false
	}

	sanitize(n)
	m.nodes[n.ID] = n
	m.ids[n.ID] = m.nextID
	m.labels[m.nextID] = n.ID
	m.adj.AddNode(simple.Node(m.nextID))
	m.nextID++
	return true
}

// AddEdge inserts an edge. Edges to unknown nodes and self-edges are
// silently dropped; this is a normal condition after partial data edits,
// not an error.
func (m *Model) AddEdge(e Edge) bool {
	fromID, okFrom := m.ids[e.From]
	toID, okTo := m.ids[e.To]
	if !okFrom || !okTo {
		logging.Debug("skipping edge with missing endpoint", "from", e.From, "to", e.To)
		return false
	}
	if fromID == toID {
		logging.Debug("skipping self edge", "id", e.From)
		return false
	}

	if !m.adj.HasEdgeBetween(fromID, toID) {
		m.adj.SetEdge(m.adj.NewEdge(m.adj.Node(fromID), m.adj.Node(toID)))
	}
	m.edges = append(m.edges, e)
	return true
}

// Node returns the node with the given id, or nil.
func (m *Model) Node(id string) *Node {
	return m.nodes[id]
}

// Has reports whether a node with the given id exists.
func (m *Model) Has(id string) bool {
	_, ok := m.nodes[id]
	return ok
}

// NodeCount returns the number of nodes.
func (m *Model) NodeCount() int {
	return len(m.nodes)
}

// Nodes returns all nodes in unspecified order.
func (m *Model) Nodes() []*Node {
	out := make([]*Node, 0, len(m.nodes))
	for _, n := range m.nodes {
		out = append(out, n)
	}
	return out
}

// IDs returns all node ids in unspecified order.
func (m *Model) IDs() []string {
	out := make([]string, 0, len(m.nodes))
	for id := range m.nodes {
		out = append(out, id)
	}
	return out
}

// Edges returns the edges that survived validation.
func (m *Model) Edges() []Edge {
	return m.edges
}

// Neighbors returns the ids of all nodes sharing an edge with id,
// regardless of edge direction.
func (m *Model) Neighbors(id string) []string {
	gid, ok := m.ids[id]
	if !ok {
		return nil
	}

	var out []string
	it := m.adj.From(gid)
	for it.Next() {
		out = append(out, m.labels[it.Node().ID()])
	}
	return out
}

// Bounds returns the world-space bounding box of the given nodes, grown by
// each node's radius. With no ids it covers every node. The second return
// is false when no listed node exists.
func (m *Model) Bounds(ids ...string) (r2.Box, bool) {
	if len(ids) == 0 {
		ids = m.IDs()
	}

	box := r2.Box{
		Min: r2.Vec{X: math.Inf(1), Y: math.Inf(1)},
		Max: r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)},
	}
	found := false
	for _, id := range ids {
		n := m.nodes[id]
		if n == nil {
			continue
		}
		found = true
		box.Min.X = math.Min(box.Min.X, n.Pos.X-n.Radius)
		box.Min.Y = math.Min(box.Min.Y, n.Pos.Y-n.Radius)
		box.Max.X = math.Max(box.Max.X, n.Pos.X+n.Radius)
		box.Max.Y = math.Max(box.Max.Y, n.Pos.Y+n.Radius)
	}
	return box, found
}

// sanitize normalizes non-finite layout state so a bad restore can never
// poison the simulation.
func sanitize(n *Node) {
	if !isFinite(n.Pos) {
		n.Pos = r2.Vec{}
		n.Placed = false
	}
	if !isFinite(n.Vel) {
		n.Vel = r2.Vec{}
	}
	if math.IsNaN(n.Radius) || math.IsInf(n.Radius, 0) || n.Radius < 0 {
		n.Radius = 0
	}
}

func isFinite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}
