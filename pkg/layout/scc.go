package layout

// stronglyConnected finds the strongly connected components of the tree
// relation with more than one member, i.e. its cycles, using Tarjan's
// algorithm. ids fixes the visit order so the result is deterministic.
func stronglyConnected(ids []string, children map[string][]string) [][]string {
	t := &tarjan{
		children: children,
		onStack:  make(map[string]bool),
		indices:  make(map[string]int),
		lowLink:  make(map[string]int),
	}
	for _, id := range ids {
		if _, visited := t.indices[id]; !visited {
			t.strongConnect(id)
		}
	}
	return t.sccs
}

type tarjan struct {
	children map[string][]string
	index    int
	stack    []string
	onStack  map[string]bool
	indices  map[string]int
	lowLink  map[string]int
	sccs     [][]string
}

func (t *tarjan) strongConnect(id string) {
	t.indices[id] = t.index
	t.lowLink[id] = t.index
	t.index++
	t.stack = append(t.stack, id)
	t.onStack[id] = true

	for _, kid := range t.children[id] {
		if _, visited := t.indices[kid]; !visited {
			t.strongConnect(kid)
			t.lowLink[id] = min(t.lowLink[id], t.lowLink[kid])
		} else if t.onStack[kid] {
			t.lowLink[id] = min(t.lowLink[id], t.indices[kid])
		}
	}

	if t.lowLink[id] == t.indices[id] {
		var scc []string
		for {
			w := t.stack[len(t.stack)-1]
			t.stack = t.stack[:len(t.stack)-1]
			t.onStack[w] = false
			scc = append(scc, w)
			if w == id {
				break
			}
		}
		// Single-node components are not cycles.
		if len(scc) > 1 {
			t.sccs = append(t.sccs, scc)
		}
	}
}
