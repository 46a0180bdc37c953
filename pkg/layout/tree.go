package layout

import (
	"sort"

	"github.com/Schwaller/graphlens/pkg/graph"
	"gonum.org/v1/gonum/spatial/r2"
)

// TreeTargets computes hierarchical target positions: parent-before-child
// levels derived from edges of the designated kind, columns by depth, rows
// spread evenly within a column. Nodes outside any parent/child relation
// become their own roots in column zero. The traversal is deterministic
// (ids sorted) so repeated runs produce identical targets.
func TreeTargets(m *graph.Model, edgeKind string, origin r2.Vec, colSpacing, rowSpacing float64) map[string]r2.Vec {
	children := make(map[string][]string)
	hasParent := make(map[string]bool)
	for _, e := range m.Edges() {
		if e.Kind != edgeKind {
			continue
		}
		if m.Node(e.From) == nil || m.Node(e.To) == nil {
			continue
		}
		children[e.From] = append(children[e.From], e.To)
		hasParent[e.To] = true
	}

	ids := m.IDs()
	sort.Strings(ids)

	var roots []string
	for _, id := range ids {
		if !hasParent[id] {
			roots = append(roots, id)
		}
	}
	if len(roots) == 0 && len(ids) > 0 {
		// Every node has a parent: the relation is cyclic. Start somewhere.
		roots = ids[:1]
	}

	// Level assignment by BFS from the roots.
	levels := make(map[string]int, len(ids))
	visited := make(map[string]bool, len(ids))
	bfs := func(seeds map[string]int) {
		queue := make([]string, 0, len(seeds))
		for _, id := range ids {
			if lvl, ok := seeds[id]; ok && !visited[id] {
				visited[id] = true
				levels[id] = lvl
				queue = append(queue, id)
			}
		}
		for len(queue) > 0 {
			current := queue[0]
			queue = queue[1:]

			kids := children[current]
			sort.Strings(kids)
			for _, kid := range kids {
				if visited[kid] {
					continue
				}
				visited[kid] = true
				levels[kid] = levels[current] + 1
				queue = append(queue, kid)
			}
		}
	}

	seeds := make(map[string]int, len(roots))
	for _, r := range roots {
		seeds[r] = 0
	}
	bfs(seeds)

	maxLevel := 0
	for _, lvl := range levels {
		if lvl > maxLevel {
			maxLevel = lvl
		}
	}

	// Anything still unvisited hangs off a cycle with no incoming root
	// path. Break each such cycle at its smallest member and lay the
	// cluster out below the main tree.
	unreached := false
	for _, id := range ids {
		if !visited[id] {
			unreached = true
			break
		}
	}
	if unreached {
		seeds = make(map[string]int)
		for _, scc := range stronglyConnected(ids, children) {
			least := scc[0]
			for _, id := range scc[1:] {
				if id < least {
					least = id
				}
			}
			if !visited[least] {
				seeds[least] = maxLevel + 1
			}
		}
		bfs(seeds)

		for _, id := range ids {
			if !visited[id] {
				levels[id] = maxLevel
			}
		}
	}

	// Gather columns, then spread each column's rows around the origin.
	columns := make(map[int][]string)
	for _, id := range ids {
		lvl := levels[id]
		columns[lvl] = append(columns[lvl], id)
	}

	targets := make(map[string]r2.Vec, len(ids))
	for lvl, col := range columns {
		sort.Strings(col)
		for i, id := range col {
			offset := float64(i) - float64(len(col)-1)/2
			targets[id] = r2.Vec{
				X: origin.X + float64(lvl)*colSpacing,
				Y: origin.Y + offset*rowSpacing,
			}
		}
	}
	return targets
}
