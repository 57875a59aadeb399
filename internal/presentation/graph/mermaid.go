package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/ironflow/pkg/flow"
)

// Overlay marks nodes to highlight, e.g. recommendation targets.
type Overlay struct {
	Highlight []string
}

// Mermaid renders a flow as a Mermaid flowchart. Shapes:
//   - source nodes (no inputs): ((circle))
//   - exec-driving nodes: [[subroutine]]
//   - everything else: [rectangle]
//
// Data connections are solid and labelled with the port pair; exec
// connections are dotted. Nodes whose last update failed get the "failed"
// class.
func Mermaid(f *flow.Flow, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	ids := make(map[*flow.Node]string, len(f.Nodes()))
	var failed []string
	for i, n := range f.Nodes() {
		id := fmt.Sprintf("n%d", i)
		ids[n] = id

		opener, closer := "[", "]"
		switch {
		case len(n.Inputs) == 0:
			opener, closer = "((", "))"
		case n.Template != nil && n.Template.Update != nil:
			opener, closer = "[[", "]]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, escape(n.Title), closer)
		if n.Err() != nil {
			failed = append(failed, id)
		}
	}

	for _, c := range f.Connections() {
		from, to := ids[c.Out.Node()], ids[c.In.Node()]
		if c.In.Type == flow.PortExec {
			fmt.Fprintf(&sb, "    %s -.-> %s\n", from, to)
			continue
		}
		fmt.Fprintf(&sb, "    %s -- \"%s → %s\" --> %s\n", from, escape(c.Out.Label), escape(c.In.Label), to)
	}

	if len(failed) == 0 && (overlay == nil || len(overlay.Highlight) == 0) {
		return sb.String()
	}

	sb.WriteString("\n    %% Styles\n")
	sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef highlight fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
	for _, id := range failed {
		fmt.Fprintf(&sb, "    class %s failed;\n", id)
	}
	if overlay != nil {
		seen := map[string]bool{}
		for _, nodeID := range overlay.Highlight {
			n := f.Node(nodeID)
			if n == nil || seen[nodeID] {
				continue
			}
			seen[nodeID] = true
			fmt.Fprintf(&sb, "    class %s highlight;\n", ids[n])
		}
	}
	return sb.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
