package flow

import (
	"fmt"

	"github.com/aretw0/ironflow/pkg/dtype"
	"github.com/aretw0/ironflow/pkg/otype"
)

// Direction tells inputs from outputs.
type Direction int

const (
	DirInput Direction = iota
	DirOutput
)

func (d Direction) String() string {
	if d == DirInput {
		return "input"
	}
	return "output"
}

// PortType is "data" or "exec".
type PortType string

const (
	PortData PortType = "data"
	PortExec PortType = "exec"
)

// Port is a typed node input or output.
type Port struct {
	Label     string
	Direction Direction
	Type      PortType
	DType     *dtype.DType
	OType     otype.Term
	Value     any

	dtypeOK bool
	otypeOK bool
	node    *Node
	conns   []*Connection
}

func newPort(n *Node, dir Direction, spec PortSpec) *Port {
	p := &Port{
		Label:     spec.Label,
		Direction: dir,
		Type:      spec.Type,
		DType:     spec.DType.Clone(),
		OType:     spec.OType,
		node:      n,
		otypeOK:   true,
	}
	if p.Type == "" {
		p.Type = PortData
	}
	p.setDTypeOK()
	return p
}

// Node returns the node owning the port.
func (p *Port) Node() *Node { return p.node }

// Connections returns the port's connections.
func (p *Port) Connections() []*Connection { return p.conns }

// Connected reports whether the port has at least one connection.
func (p *Port) Connected() bool { return len(p.conns) > 0 }

// IsInput reports whether the port is an input.
func (p *Port) IsInput() bool { return p.Direction == DirInput }

// Index returns the port's position among its node's inputs or outputs.
func (p *Port) Index() int {
	for i, q := range p.siblings() {
		if q == p {
			return i
		}
	}
	return -1
}

func (p *Port) siblings() []*Port {
	if p.IsInput() {
		return p.node.Inputs
	}
	return p.node.Outputs
}

// opposite returns the ports on the other side of the node.
func (p *Port) opposite() []*Port {
	if p.IsInput() {
		return p.node.Outputs
	}
	return p.node.Inputs
}

// String renders the port as "Node.label".
func (p *Port) String() string {
	label := p.Label
	if label == "" {
		label = fmt.Sprintf("%s%d", p.Direction, p.Index())
	}
	return p.node.Title + "." + label
}

// Batched reports whether the port's dtype is batched.
func (p *Port) Batched() bool { return p.DType != nil && p.DType.Batched }

// DTypeOK reports whether the current value fits the dtype.
func (p *Port) DTypeOK() bool { return p.dtypeOK }

// OTypeOK reports whether the port's connections are consistent with the ontology.
func (p *Port) OTypeOK() bool { return p.otypeOK }

// Ready reports whether both the dtype and the otype checks pass.
func (p *Port) Ready() bool { return p.dtypeOK && p.otypeOK }

func (p *Port) setDTypeOK() {
	switch {
	case p.Type == PortExec || p.DType == nil:
		p.dtypeOK = true
	case p.Value != nil:
		p.dtypeOK = p.DType.AcceptsValue(p.Value)
	default:
		p.dtypeOK = p.DType.AllowNone
	}
}

// Update sets the value of an input and updates its node. For exec inputs it
// only triggers the node.
func (p *Port) Update(v any) error {
	if !p.IsInput() {
		return fmt.Errorf("%s: update is only valid on inputs, use Node.SetOutput", p)
	}
	if p.Type == PortData {
		p.Value = v
	}
	p.setDTypeOK()
	return p.node.Update(p.Index())
}

// Batch turns the input into a batched one. An unconnected input wraps its
// current value in a one-element batch.
func (p *Port) Batch() error {
	if !p.IsInput() || p.DType == nil || p.DType.Batched {
		return nil
	}
	p.DType.Batched = true
	if !p.Connected() {
		return p.Update([]any{p.Value})
	}
	p.setDTypeOK()
	return p.node.Update(p.Index())
}

// Unbatch reverts Batch. An unconnected input keeps the last batch element.
func (p *Port) Unbatch() error {
	if !p.IsInput() || p.DType == nil || !p.DType.Batched {
		return nil
	}
	p.DType.Batched = false
	if !p.Connected() {
		var last any
		if elems := dtype.Elements(p.Value); len(elems) > 0 {
			last = elems[len(elems)-1]
		}
		return p.Update(last)
	}
	p.setDTypeOK()
	return p.node.Update(p.Index())
}

// Connection is an output feeding an input.
type Connection struct {
	Out *Port
	In  *Port
}

func (c *Connection) String() string { return c.Out.String() + " -> " + c.In.String() }
