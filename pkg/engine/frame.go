package engine

import "sort"

// Frame is a render snapshot: node screen positions, distance tiers and
// interaction flags, ready for serialization to a client.
type Frame struct {
	Nodes  []FrameNode `json:"nodes"`
	Edges  []FrameEdge `json:"edges"`
	Zoom   float64     `json:"zoom"`
	Moving bool        `json:"moving"`
}

// FrameNode is one node in screen space.
type FrameNode struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	R        float64 `json:"r"`
	Kind     string  `json:"kind,omitempty"`
	Tier     int     `json:"tier"`
	Pinned   bool    `json:"pinned,omitempty"`
	Hovered  bool    `json:"hovered,omitempty"`
	Selected bool    `json:"selected,omitempty"`
}

// FrameEdge is one edge with the tier driving its opacity.
type FrameEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Kind string `json:"kind,omitempty"`
	Tier int    `json:"tier"`
}

// Frame returns the current render snapshot. Node order is stable (sorted
// by id) so consecutive frames diff cleanly.
func (e *Engine) Frame() Frame {
	hovered := e.ctrl.HoveredID()
	selected := e.ctrl.SelectedID()

	nodes := e.model.Nodes()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	f := Frame{
		Nodes:  make([]FrameNode, 0, len(nodes)),
		Zoom:   e.vt.Zoom(),
		Moving: e.layout.Active(),
	}
	for _, n := range nodes {
		screen := e.vt.WorldToScreen(n.Pos)
		f.Nodes = append(f.Nodes, FrameNode{
			ID:       n.ID,
			X:        screen.X,
			Y:        screen.Y,
			R:        n.Radius * e.vt.Zoom(),
			Kind:     n.Kind,
			Tier:     e.tiers.NodeTier(n.ID),
			Pinned:   n.Pinned,
			Hovered:  n.ID == hovered && hovered != "",
			Selected: n.ID == selected && selected != "",
		})
	}
	for _, edge := range e.model.Edges() {
		f.Edges = append(f.Edges, FrameEdge{
			From: edge.From,
			To:   edge.To,
			Kind: edge.Kind,
			Tier: e.tiers.EdgeTier(edge),
		})
	}
	return f
}
