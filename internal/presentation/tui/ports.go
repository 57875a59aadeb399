package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"

	"github.com/aretw0/ironflow/pkg/flow"
)

// Palette colours port state.
type Palette struct {
	profile termenv.Profile
}

// NewPalette detects the colour support of w.
func NewPalette(w io.Writer) Palette {
	return Palette{profile: termenv.NewOutput(w).ColorProfile()}
}

// Valid paints s green.
func (p Palette) Valid(s string) string {
	return termenv.String(s).Foreground(p.profile.Color("#22c55e")).String()
}

// Invalid paints s red.
func (p Palette) Invalid(s string) string {
	return termenv.String(s).Foreground(p.profile.Color("#ef4444")).String()
}

// Port renders one port line: label, dtype, otype and value, coloured by
// readiness.
func (p Palette) Port(port *flow.Port) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s", port.Direction, port.Label)
	if port.Type == flow.PortExec {
		sb.WriteString(" (exec)")
		return p.Valid(sb.String())
	}
	fmt.Fprintf(&sb, " : %s", port.DType)
	if port.OType != nil {
		fmt.Fprintf(&sb, " <%s>", port.OType.Ref())
	}
	fmt.Fprintf(&sb, " = %v", port.Value)
	if !port.Ready() {
		return p.Invalid(sb.String())
	}
	return p.Valid(sb.String())
}

// PrintNode writes a node header followed by its ports.
func (p Palette) PrintNode(w io.Writer, n *flow.Node) {
	header := n.Title
	if n.Group != "" {
		header = n.Group + "." + n.Title
	}
	if err := n.Err(); err != nil {
		header += " " + p.Invalid("["+err.Error()+"]")
	}
	fmt.Fprintln(w, header)
	for _, port := range n.Inputs {
		fmt.Fprintln(w, "  "+p.Port(port))
	}
	for _, port := range n.Outputs {
		fmt.Fprintln(w, "  "+p.Port(port))
	}
}
