package flow

import (
	"github.com/aretw0/ironflow/pkg/dtype"
	"github.com/aretw0/ironflow/pkg/otype"
)

// PortState is the saved state of a port.
type PortState struct {
	DType    *dtype.DType
	OType    otype.Term
	Value    any
	HasValue bool
}

// NodeState is the saved state of a node, applied by RestoreNode.
type NodeState struct {
	ID      string
	X, Y    float64
	Color   string
	State   map[string]any
	Inputs  []PortState
	Outputs []PortState
}

// RestoreNode places a node from a template and overrides its ports with the
// saved state before the initial update. Ports beyond the template's are
// ignored; missing ones keep the template defaults.
func (f *Flow) RestoreNode(t *Template, s NodeState) *Node {
	n := f.newNode(t, s.X, s.Y)
	if s.ID != "" {
		n.ID = s.ID
	}
	if s.Color != "" {
		n.Color = s.Color
	}
	for k, v := range s.State {
		n.State[k] = v
	}
	for i, p := range n.Inputs {
		var ps PortState
		if i < len(s.Inputs) {
			ps = s.Inputs[i]
		}
		restorePort(p, ps)
		if !ps.HasValue {
			spec := t.Inputs[i]
			switch {
			case p.DType != nil && p.DType.Default != nil:
				p.Value = p.DType.Default
			case spec.Value != nil:
				p.Value = spec.Value
			}
		}
		p.setDTypeOK()
	}
	for i, p := range n.Outputs {
		if i < len(s.Outputs) {
			restorePort(p, s.Outputs[i])
		}
	}
	f.place(n)
	_ = n.Update(-1)
	return n
}

func restorePort(p *Port, ps PortState) {
	if ps.DType != nil {
		p.DType = ps.DType.Clone()
	}
	if ps.OType != nil {
		p.OType = ps.OType
	}
	if ps.HasValue {
		p.Value = p.DType.Coerce(ps.Value)
	}
}
