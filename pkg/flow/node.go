package flow

import (
	"errors"
	"fmt"

	"github.com/aretw0/ironflow/pkg/dtype"
)

// Node is a template placed in a flow.
type Node struct {
	ID       string
	Title    string
	Group    string
	Color    string
	X, Y     float64
	Inputs   []*Port
	Outputs  []*Port
	Template *Template
	// State is scratch space for UpdateFuncs, e.g. counters.
	State map[string]any

	flow         *Flow
	beforeUpdate []func(n *Node, inp int)
	afterUpdate  []func(n *Node, inp int)
	depth        int
	err          error
	// RepresentationUpdated is set after every update and cleared by the reader.
	RepresentationUpdated bool
}

// Flow returns the flow the node was placed in.
func (n *Node) Flow() *Flow { return n.flow }

// Err returns the error of the last update, if any.
func (n *Node) Err() error { return n.err }

// OnBeforeUpdate registers a callback run before every update.
func (n *Node) OnBeforeUpdate(fn func(n *Node, inp int)) {
	n.beforeUpdate = append(n.beforeUpdate, fn)
}

// OnAfterUpdate registers a callback run after every update.
func (n *Node) OnAfterUpdate(fn func(n *Node, inp int)) {
	n.afterUpdate = append(n.afterUpdate, fn)
}

// Input returns the input with the given label, or nil.
func (n *Node) Input(label string) *Port { return findPort(n.Inputs, label) }

// Output returns the output with the given label, or nil.
func (n *Node) Output(label string) *Port { return findPort(n.Outputs, label) }

func findPort(ports []*Port, label string) *Port {
	for _, p := range ports {
		if p.Label == label {
			return p
		}
	}
	return nil
}

// InputValue returns the value of input i. In exec mode a connected input
// reads the current value of its output.
func (n *Node) InputValue(i int) any {
	p := n.Inputs[i]
	if n.flow != nil && n.flow.Mode() == ModeExec && p.Type == PortData && len(p.conns) > 0 {
		return p.conns[0].Out.Value
	}
	return p.Value
}

// OutputValue returns the value of output i.
func (n *Node) OutputValue(i int) any { return n.Outputs[i].Value }

// Batched reports whether any data input is batched.
func (n *Node) Batched() bool {
	for _, p := range n.Inputs {
		if p.Type == PortData && p.Batched() {
			return true
		}
	}
	return false
}

// AllInputReady reports whether every input passes its checks.
func (n *Node) AllInputReady() bool {
	for _, p := range n.Inputs {
		if !p.Ready() {
			return false
		}
	}
	return true
}

// SetOutput sets output i. In data mode the value is pushed to connected inputs.
func (n *Node) SetOutput(i int, v any) error {
	p := n.Outputs[i]
	p.Value = v
	p.setDTypeOK()
	if p.Type != PortData || n.flow == nil || n.flow.Mode() != ModeData {
		return nil
	}
	var errs []error
	for _, c := range p.conns {
		if err := c.In.Update(v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ExecOutput fires exec output i, updating every node it is connected to.
func (n *Node) ExecOutput(i int) error {
	p := n.Outputs[i]
	if p.Type != PortExec {
		return fmt.Errorf("%s is not an exec output", p)
	}
	var errs []error
	for _, c := range p.conns {
		if err := c.In.node.Update(c.In.Index()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// MaxExecDepth bounds how deeply exec signals may re-enter a node, e.g. a
// ForEach whose loop body feeds back into start.
const MaxExecDepth = 1000

// Update runs the node. inp is the index of the input that changed, or -1.
// Exec signals may re-enter a node that is still updating, up to
// MaxExecDepth. Any other re-entry fails with ErrCycle.
func (n *Node) Update(inp int) error {
	if n.depth > 0 && (!n.isExecInput(inp) || n.depth >= MaxExecDepth) {
		err := &NodeError{Node: n.Title, Err: fmt.Errorf("%w: input %d re-entered at depth %d", ErrCycle, inp, n.depth)}
		if n.flow != nil {
			n.flow.logger.Warn("update cycle", "node", n.Title, "id", n.ID, "input", inp, "depth", n.depth)
		}
		return err
	}
	n.depth++
	defer func() { n.depth-- }()

	for _, fn := range n.beforeUpdate {
		fn(n, inp)
	}

	if n.flow != nil && n.flow.Mode() == ModeExec {
		n.pullInputs()
	}

	var err error
	switch {
	case n.Template != nil && n.Template.Update != nil:
		err = n.Template.Update(n, inp)
	case n.Template != nil && n.Template.Func != nil:
		err = n.updateData()
	}
	if err != nil {
		var nodeErr *NodeError
		if !errors.As(err, &nodeErr) {
			err = &NodeError{Node: n.Title, Err: err}
		}
	}
	n.err = err

	n.RepresentationUpdated = true
	for _, fn := range n.afterUpdate {
		fn(n, inp)
	}
	if n.flow != nil {
		n.flow.nodeUpdated(n, inp, err)
	}
	return err
}

func (n *Node) isExecInput(inp int) bool {
	return inp >= 0 && inp < len(n.Inputs) && n.Inputs[inp].Type == PortExec
}

func (n *Node) pullInputs() {
	for i, p := range n.Inputs {
		if p.Type == PortData && len(p.conns) > 0 {
			p.Value = n.InputValue(i)
			p.setDTypeOK()
		}
	}
}

// updateData is the data-node behaviour: run the function when all input is
// ready, batching over batched inputs; otherwise clear the outputs.
func (n *Node) updateData() error {
	if !n.AllInputReady() {
		return n.resetOutputs()
	}

	batched := n.Batched()
	var (
		out Values
		err error
	)
	if batched {
		out, err = n.batchedOutput()
	} else {
		out, err = n.Template.Func(n.unbatchedValues())
	}
	if err != nil {
		if rerr := n.resetOutputs(); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}

	var errs []error
	for i, p := range n.Outputs {
		if p.Type != PortData {
			continue
		}
		v, ok := out[p.Label]
		if !ok {
			errs = append(errs, fmt.Errorf("%w %q", ErrMissingOutput, p.Label))
			continue
		}
		if p.DType != nil {
			p.DType.Batched = batched
		}
		if err := n.SetOutput(i, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *Node) resetOutputs() error {
	var errs []error
	for i, p := range n.Outputs {
		if p.Type != PortData {
			continue
		}
		if p.DType != nil {
			p.DType.Batched = false
		}
		if err := n.SetOutput(i, nil); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *Node) unbatchedValues() Values {
	vals := Values{}
	for _, p := range n.Inputs {
		if p.Type == PortData && !p.Batched() {
			vals[p.Label] = p.Value
		}
	}
	return vals
}

// BatchLengths returns the length of every batched input by label.
func (n *Node) BatchLengths() map[string]int {
	lengths := map[string]int{}
	for _, p := range n.Inputs {
		if p.Type == PortData && p.Batched() {
			lengths[p.Label] = len(dtype.Elements(p.Value))
		}
	}
	return lengths
}

func (n *Node) batchedOutput() (Values, error) {
	length := -1
	batches := map[string][]any{}
	for _, p := range n.Inputs {
		if p.Type != PortData || !p.Batched() {
			continue
		}
		elems := dtype.Elements(p.Value)
		if length >= 0 && len(elems) != length {
			return nil, fmt.Errorf("%w: %v", ErrBatchLength, n.BatchLengths())
		}
		length = len(elems)
		batches[p.Label] = elems
	}

	collected := Values{}
	for _, p := range n.Outputs {
		if p.Type == PortData {
			collected[p.Label] = make([]any, 0, length)
		}
	}
	for i := 0; i < length; i++ {
		in := n.unbatchedValues()
		for label, elems := range batches {
			in[label] = elems[i]
		}
		out, err := n.Template.Func(in)
		if err != nil {
			return nil, fmt.Errorf("batch element %d: %w", i, err)
		}
		for label, v := range out {
			if list, ok := collected[label].([]any); ok {
				collected[label] = append(list, v)
			}
		}
	}
	return collected, nil
}

// Representations returns the output values by label, the template doc and
// any template-specific extras.
func (n *Node) Representations() map[string]any {
	reps := map[string]any{}
	for i, p := range n.Outputs {
		if p.Type != PortData {
			continue
		}
		label := p.Label
		if label == "" {
			label = fmt.Sprintf("output%d", i)
		}
		reps[label] = p.Value
	}
	if n.Template != nil {
		reps["doc"] = n.Template.Doc
		if n.Template.Representations != nil {
			for k, v := range n.Template.Representations(n) {
				reps[k] = v
			}
		}
	}
	return reps
}
