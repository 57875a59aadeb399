package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/ironflow/pkg/dtype"
	"github.com/aretw0/ironflow/pkg/flow"
	"github.com/aretw0/ironflow/pkg/otype"
)

// ErrDuplicatePort is reported by Build for a label used twice on one side.
var ErrDuplicatePort = errors.New("duplicate port label")

// PortOption refines a port declared with In or Out.
type PortOption func(*flow.PortSpec)

// OType attaches an ontology term to the port.
func OType(t otype.Term) PortOption {
	return func(p *flow.PortSpec) { p.OType = t }
}

// Value seeds an input whose dtype has no default.
func Value(v any) PortOption {
	return func(p *flow.PortSpec) { p.Value = v }
}

// NodeBuilder provides a fluent API for configuring a template.
type NodeBuilder struct {
	tmpl *flow.Template
}

func port(label string, t flow.PortType, dt *dtype.DType, opts []PortOption) flow.PortSpec {
	p := flow.PortSpec{Label: label, Type: t, DType: dt}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// In adds a data input.
func (n *NodeBuilder) In(label string, dt *dtype.DType, opts ...PortOption) *NodeBuilder {
	n.tmpl.Inputs = append(n.tmpl.Inputs, port(label, flow.PortData, dt, opts))
	return n
}

// Out adds a data output.
func (n *NodeBuilder) Out(label string, dt *dtype.DType, opts ...PortOption) *NodeBuilder {
	n.tmpl.Outputs = append(n.tmpl.Outputs, port(label, flow.PortData, dt, opts))
	return n
}

// ExecIn adds an exec input.
func (n *NodeBuilder) ExecIn(label string) *NodeBuilder {
	n.tmpl.Inputs = append(n.tmpl.Inputs, flow.PortSpec{Label: label, Type: flow.PortExec})
	return n
}

// ExecOut adds an exec output.
func (n *NodeBuilder) ExecOut(label string) *NodeBuilder {
	n.tmpl.Outputs = append(n.tmpl.Outputs, flow.PortSpec{Label: label, Type: flow.PortExec})
	return n
}

func (n *NodeBuilder) Doc(doc string) *NodeBuilder         { n.tmpl.Doc = doc; return n }
func (n *NodeBuilder) Color(color string) *NodeBuilder     { n.tmpl.Color = color; return n }
func (n *NodeBuilder) Version(version string) *NodeBuilder { n.tmpl.Version = version; return n }

// Func makes the template a data node.
func (n *NodeBuilder) Func(fn flow.NodeFunction) *NodeBuilder {
	n.tmpl.Func = fn
	return n
}

// Update gives the template its own update behaviour, e.g. for exec nodes.
func (n *NodeBuilder) Update(fn flow.UpdateFunc) *NodeBuilder {
	n.tmpl.Update = fn
	return n
}

// Representations adds extra representations to placed nodes.
func (n *NodeBuilder) Representations(fn func(*flow.Node) map[string]any) *NodeBuilder {
	n.tmpl.Representations = fn
	return n
}

// Template returns the template being built.
func (n *NodeBuilder) Template() *flow.Template { return n.tmpl }

func (n *NodeBuilder) validate() error {
	var errs []error
	for _, side := range [][]flow.PortSpec{n.tmpl.Inputs, n.tmpl.Outputs} {
		seen := map[string]bool{}
		for _, p := range side {
			if p.Label == "" {
				errs = append(errs, errors.New("port without label"))
				continue
			}
			if seen[p.Label] {
				errs = append(errs, fmt.Errorf("%w %q", ErrDuplicatePort, p.Label))
			}
			seen[p.Label] = true
		}
	}
	return errors.Join(errs...)
}
