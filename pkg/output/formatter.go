// Package output renders console reports for the non-server mode.
package output

import (
	"fmt"
	"sort"

	"github.com/fatih/color"

	"github.com/Schwaller/graphlens/pkg/graph"
)

// LayoutResult summarizes an offline layout pass.
type LayoutResult struct {
	Steps   int  // simulation steps until the layout settled
	Settled bool // false when the step budget ran out first
}

// PrintGraphReport prints a colorized summary of a loaded graph and,
// when a layout pass ran, its outcome.
func PrintGraphReport(path string, m *graph.Model, result *LayoutResult) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	bold.Println("graphlens - Dataset Report")
	bold.Println("==========================")
	fmt.Printf("Dataset: %s\n", path)
	fmt.Printf("Nodes: %d\n", m.NodeCount())
	fmt.Printf("Edges: %d\n", len(m.Edges()))
	fmt.Println()

	kinds := make(map[string]int)
	isolated := 0
	for _, n := range m.Nodes() {
		kind := n.Kind
		if kind == "" {
			kind = "(untagged)"
		}
		kinds[kind]++
		if len(m.Neighbors(n.ID)) == 0 {
			isolated++
		}
	}

	if len(kinds) > 0 {
		cyan.Println("NODE KINDS:")
		names := make([]string, 0, len(kinds))
		for name := range kinds {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-20s %d\n", name, kinds[name])
		}
		fmt.Println()
	}

	if isolated > 0 {
		yellow.Printf("Isolated nodes: %d (no edges reference them)\n", isolated)
		fmt.Println()
	}

	if result == nil {
		return
	}
	if result.Settled {
		green.Printf("✓ Layout settled after %d steps\n", result.Steps)
	} else {
		red.Printf("Layout did not settle within %d steps\n", result.Steps)
	}
}
