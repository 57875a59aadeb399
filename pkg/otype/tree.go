package otype

import (
	"fmt"
	"strings"
)

// Tree is a source tree. Levels alternate between inputs, candidate outputs
// and the functions owning them:
//
//	input -> output -> function -> input -> output -> ...
//
// Every output node has exactly one child, its function.
type Tree struct {
	Value    any
	Children []*Tree
}

// Ref returns the reference of the node's value.
func (t *Tree) Ref() string {
	switch v := t.Value.(type) {
	case Term:
		return v.Ref()
	case *Function:
		return "function:" + v.Name
	}
	return fmt.Sprint(t.Value)
}

// Child returns the child whose value has the given reference.
func (t *Tree) Child(ref string) *Tree {
	if t == nil {
		return nil
	}
	for _, c := range t.Children {
		if c.Ref() == ref {
			return c
		}
	}
	return nil
}

// HasSource reports whether out is a direct candidate of the tree's input.
func (t *Tree) HasSource(out *Output) bool { return t.Child(out.Ref()) != nil }

// Inputs returns the input branches below a candidate output node.
func (t *Tree) Inputs() []*Tree {
	if t == nil || len(t.Children) == 0 {
		return nil
	}
	return t.Children[0].Children
}

// Outputs returns every output referenced anywhere in the tree.
func (t *Tree) Outputs() []*Output {
	var outs []*Output
	t.walk(func(n *Tree) {
		if o, ok := n.Value.(*Output); ok {
			outs = append(outs, o)
		}
	})
	return outs
}

func (t *Tree) walk(fn func(*Tree)) {
	if t == nil {
		return
	}
	fn(t)
	for _, c := range t.Children {
		c.walk(fn)
	}
}

// String renders the tree indented, one node per line.
func (t *Tree) String() string {
	var b strings.Builder
	var render func(n *Tree, depth int)
	render = func(n *Tree, depth int) {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(n.Ref())
		b.WriteByte('\n')
		for _, c := range n.Children {
			render(c, depth+1)
		}
	}
	render(t, 0)
	return b.String()
}

type candidate struct {
	output *Output
	fn     *Function
	unmet  []string
}

// candidates lists the outputs able to feed in under the given requirements.
// Functions in path are skipped.
func (o *Ontology) candidates(in *Input, requirements []string, path map[string]bool) []candidate {
	var found []candidate
	for _, fn := range o.Functions {
		if path[fn.Name] {
			continue
		}
		for _, out := range fn.Outputs {
			if !o.IsA(out.Generic, in.Generic) {
				continue
			}
			unmet := out.Unmet(requirements)
			if len(unmet) > 0 && len(out.Transfers) == 0 {
				continue
			}
			found = append(found, candidate{output: out, fn: fn, unmet: unmet})
		}
	}
	return found
}

// SourceTree returns every workflow that can produce a value for the input
// while satisfying its requirements plus additional ones.
func (i *Input) SourceTree(additional []string) *Tree {
	o := i.ontology
	path := map[string]bool{i.function: true}
	return o.sourceTree(i, i.Requirements(additional), path, 0)
}

func (o *Ontology) sourceTree(in *Input, requirements []string, path map[string]bool, depth int) *Tree {
	root := &Tree{Value: in}
	limit := o.MaxDepth
	if limit <= 0 {
		limit = DefaultMaxDepth
	}
	if depth >= limit {
		return root
	}
	for _, c := range o.candidates(in, requirements, path) {
		path[c.fn.Name] = true
		fnNode := &Tree{Value: c.fn}
		for _, upstream := range c.fn.Inputs {
			var transferred []string
			if c.output.TransfersTo(upstream.Label) {
				transferred = c.unmet
			}
			fnNode.Children = append(fnNode.Children,
				o.sourceTree(upstream, upstream.Requirements(transferred), path, depth+1))
		}
		delete(path, c.fn.Name)
		root.Children = append(root.Children, &Tree{Value: c.output, Children: []*Tree{fnNode}})
	}
	return root
}
