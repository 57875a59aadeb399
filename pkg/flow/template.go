package flow

import (
	"github.com/aretw0/ironflow/pkg/dtype"
	"github.com/aretw0/ironflow/pkg/otype"
)

// Values maps port labels to values.
type Values map[string]any

// NodeFunction computes the data outputs of a node from its data inputs.
// It must return a value for every data output.
type NodeFunction func(in Values) (Values, error)

// UpdateFunc replaces the data-node behaviour for nodes that drive execution
// themselves. inp is the index of the input that changed, or -1.
type UpdateFunc func(n *Node, inp int) error

// PortSpec declares a port of a template.
type PortSpec struct {
	Label string
	Type  PortType
	DType *dtype.DType
	OType otype.Term
	// Value seeds an input whose dtype has no default.
	Value any
}

// Template is the blueprint nodes are placed from.
type Template struct {
	Title   string
	Group   string
	Color   string
	Doc     string
	Version string
	Inputs  []PortSpec
	Outputs []PortSpec

	// Func makes the node a data node: it runs as soon as every input is ready.
	Func NodeFunction
	// Update takes precedence over Func.
	Update UpdateFunc
	// Representations adds to, or overrides, the default output representations.
	Representations func(n *Node) map[string]any
}

// DefaultColor is used when a template sets none.
const DefaultColor = "#ff69b4"

// Identifier is the unique key of the template, "group.title".
func (t *Template) Identifier() string {
	if t.Group == "" {
		return t.Title
	}
	return t.Group + "." + t.Title
}

// Input returns the input spec with the given label.
func (t *Template) Input(label string) (PortSpec, bool) {
	for _, p := range t.Inputs {
		if p.Label == label {
			return p, true
		}
	}
	return PortSpec{}, false
}

// Output returns the output spec with the given label.
func (t *Template) Output(label string) (PortSpec, bool) {
	for _, p := range t.Outputs {
		if p.Label == label {
			return p, true
		}
	}
	return PortSpec{}, false
}
