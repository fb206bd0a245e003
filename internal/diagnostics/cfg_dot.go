// Package diagnostics renders optional Graphviz output for inspecting a
// recompiled function's control flow. It never runs as part of a normal
// pipeline.Recompile call: nothing here changes recompiler output, and
// CFGDot only returns the DOT text as a string. Grounded on the DOT-rendering idiom of
// internal/render/callgraph.go and internal/render/helpers.go, generalized
// from a whole-binary callgraph to one function's lattice.FuncCFG.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/zboralski/lattice"
)

// Theme holds the colors a CFG dump renders with. Carried over from the
// callgraph renderer's palette approach rather than hardcoded DOT attributes.
type Theme struct {
	Background   string
	NodeFill     string
	NodeBorder   string
	TextColor    string
	EdgeFallthru string
	EdgeBranch   string
	EdgeCall     string
}

// Default is a plain, low-contrast palette suitable for terminal viewers.
var Default = Theme{
	Background:   "white",
	NodeFill:     "#F5F5F5",
	NodeBorder:   "#1A1A1A",
	TextColor:    "#1A1A1A",
	EdgeFallthru: "#424242",
	EdgeBranch:   "#0B3D91",
	EdgeCall:     "#9E9E9E",
}

func dotID(prefix string, n int) string { return fmt.Sprintf("%s_%d", prefix, n) }

func dotEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

// CFGDot renders one function's recompiled control-flow graph as a Graphviz
// DOT digraph: one node per basic block labeled with its address range and
// call count, one edge per successor colored by whether it's an
// unconditional fall-through or a conditional branch. Calls are not drawn as
// edges, so Theme.EdgeCall is not used.
func CFGDot(cfg *lattice.FuncCFG, t Theme) string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %q {\n", dotEscape(cfg.Name))
	fmt.Fprintf(&b, "\tbgcolor=%q;\n", t.Background)
	fmt.Fprintf(&b, "\tnode [shape=box, style=filled, fillcolor=%q, color=%q, fontcolor=%q];\n",
		t.NodeFill, t.NodeBorder, t.TextColor)

	for _, blk := range cfg.Blocks {
		label := fmt.Sprintf("0x%X-0x%X", blk.Start, blk.End)
		if len(blk.Calls) > 0 {
			label += fmt.Sprintf("\\n%d call(s)", len(blk.Calls))
		}
		fmt.Fprintf(&b, "\t%s [label=%q];\n", dotID("blk", blk.ID), dotEscape(label))
	}

	for _, blk := range cfg.Blocks {
		for _, succ := range blk.Succs {
			color := t.EdgeFallthru
			if succ.Cond != "" {
				color = t.EdgeBranch
			}
			fmt.Fprintf(&b, "\t%s -> %s [color=%q, label=%q];\n",
				dotID("blk", blk.ID), dotID("blk", succ.BlockID), color, dotEscape(succ.Cond))
		}
	}

	b.WriteString("}\n")
	return b.String()
}
