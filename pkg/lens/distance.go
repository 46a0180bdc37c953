// Package lens grades nodes and edges into visual relevance tiers around a
// focal node. The grading is a two-phase breadth-first search: the first
// phase reaches everything connected to the focal node without passing
// through a second hub entity, the second phase expands outward from the
// hubs found in phase one. Hubs typically have enormous degree; stopping at
// them in phase one keeps one hub's neighborhood from visually flooding
// another's.
package lens

import "github.com/Schwaller/graphlens/pkg/graph"

// Tier values, ordered by visual relevance.
const (
	TierUnreachable = -1 // no path from the focal node
	TierFocal       = 0  // the focal node itself (or every node when unfocused)
	TierNear        = 1  // reachable without traversing a second hub
	TierExtended    = 2  // reachable by passing through exactly one hub
)

// Result holds the computed tier per node id. Edge tiers are derived from
// endpoint tiers on demand.
type Result struct {
	nodes   map[string]int
	focused bool
}

// NodeTier returns the tier for a node id. Unknown ids are unreachable;
// with no focal node every id is TierFocal.
func (r Result) NodeTier(id string) int {
	if !r.focused {
		return TierFocal
	}
	if tier, ok := r.nodes[id]; ok {
		return tier
	}
	return TierUnreachable
}

// EdgeTier grades an edge as the worse of its endpoint tiers. An edge
// touching an unreachable node is unreachable itself.
func (r Result) EdgeTier(e graph.Edge) int {
	from := r.NodeTier(e.From)
	to := r.NodeTier(e.To)
	if from == TierUnreachable || to == TierUnreachable {
		return TierUnreachable
	}
	if from > to {
		return from
	}
	return to
}

// Focused reports whether a focal node was set when classifying.
func (r Result) Focused() bool { return r.focused }

// Classify runs the two-phase BFS from focalID. isHub decides which node
// kinds act as expansion barriers in phase one; a nil predicate means no
// hubs. An empty or unknown focalID yields the unfocused result where
// every node is TierFocal.
func Classify(m *graph.Model, focalID string, isHub func(*graph.Node) bool) Result {
	if focalID == "" || !m.Has(focalID) {
		return Result{focused: false}
	}
	if isHub == nil {
		isHub = func(*graph.Node) bool { return false }
	}

	tiers := make(map[string]int, m.NodeCount())
	tiers[focalID] = TierFocal

	// Phase one: explore outward from the focal node. Hub neighbors are
	// recorded at TierNear but not expanded; everything else keeps the
	// frontier going.
	var hubs []string
	queue := []string{focalID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range m.Neighbors(current) {
			if _, seen := tiers[next]; seen {
				continue
			}
			tiers[next] = TierNear
			if isHub(m.Node(next)) {
				hubs = append(hubs, next)
				continue
			}
			queue = append(queue, next)
		}
	}

	// Phase two: everything newly reached from a tier-one hub is extended
	// context.
	queue = hubs
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, next := range m.Neighbors(current) {
			if _, seen := tiers[next]; seen {
				continue
			}
			tiers[next] = TierExtended
			queue = append(queue, next)
		}
	}

	return Result{nodes: tiers, focused: true}
}

// KindSet builds a hub predicate from a list of node kinds.
func KindSet(kinds []string) func(*graph.Node) bool {
	if len(kinds) == 0 {
		return nil
	}
	set := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return func(n *graph.Node) bool {
		return n != nil && set[n.Kind]
	}
}
