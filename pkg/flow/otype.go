package flow

import (
	"slices"
	"sort"

	"github.com/aretw0/ironflow/pkg/otype"
)

// RecalculateOTypeChecks refreshes the ontology checks of the given ports and
// of every otype-carrying port reachable from them, along connections and
// across nodes. Each port is recomputed once.
func (f *Flow) RecalculateOTypeChecks(ports ...*Port) {
	visited := map[*Port]bool{}
	var visit func(p *Port)
	visit = func(p *Port) {
		if visited[p] {
			return
		}
		visited[p] = true
		p.setOTypeOK()
		if p.OType == nil {
			return
		}
		for _, c := range p.conns {
			other := c.In
			if p.IsInput() {
				other = c.Out
			}
			if other.OType != nil {
				visit(other)
			}
		}
		for _, q := range p.opposite() {
			if q.OType != nil {
				visit(q)
			}
		}
	}
	for _, p := range ports {
		visit(p)
	}
}

func (p *Port) setOTypeOK() {
	p.otypeOK = true
	if p.OType == nil {
		return
	}
	if p.IsInput() {
		in, ok := p.OType.(*otype.Input)
		if !ok {
			p.otypeOK = false
			return
		}
		tree := in.SourceTree(p.DownstreamRequirements())
		for _, c := range p.conns {
			if c.Out.OType != nil && !representedIn(c.Out, tree) {
				p.otypeOK = false
				return
			}
		}
		return
	}
	for _, c := range p.conns {
		if c.In.OType != nil && !c.In.TreeContains(p) {
			p.otypeOK = false
			return
		}
	}
}

// SourceTree returns the ontology source tree of an input, taking the
// requirements of everything downstream into account. It is nil for ports
// without an input otype.
func (p *Port) SourceTree() *otype.Tree {
	in, ok := p.OType.(*otype.Input)
	if !ok || !p.IsInput() {
		return nil
	}
	return in.SourceTree(p.DownstreamRequirements())
}

// TreeContains reports whether the workflow upstream of out is one the
// ontology allows for this input.
func (p *Port) TreeContains(out *Port) bool {
	tree := p.SourceTree()
	if tree == nil {
		return false
	}
	return representedIn(out, tree)
}

// representedIn walks the actual workflow upstream of out alongside the
// ontology tree, failing as soon as a connected otype has no branch.
func representedIn(out *Port, tree *otype.Tree) bool {
	if out.OType == nil {
		return false
	}
	candidate := tree.Child(out.OType.Ref())
	if candidate == nil {
		return false
	}
	branches := candidate.Inputs()
	for _, upstream := range out.node.Inputs {
		if upstream.OType == nil || len(upstream.conns) == 0 {
			continue
		}
		idx := slices.IndexFunc(branches, func(b *otype.Tree) bool { return b.Ref() == upstream.OType.Ref() })
		if idx < 0 {
			return false
		}
		for _, c := range upstream.conns {
			if c.Out.OType != nil && !representedIn(c.Out, branches[idx]) {
				return false
			}
		}
	}
	return true
}

// DownstreamRequirements collects the requirements this input must satisfy:
// its own plus those that downstream inputs place on the node's outputs and
// that the outputs transfer to it.
func (p *Port) DownstreamRequirements() []string {
	return p.downstreamRequirements(map[*Port]bool{})
}

func (p *Port) downstreamRequirements(seen map[*Port]bool) []string {
	seen[p] = true
	in, _ := p.OType.(*otype.Input)

	var reqs []string
	for _, out := range p.node.Outputs {
		if out.OType == nil {
			continue
		}
		ot, _ := out.OType.(*otype.Output)
		for _, c := range out.conns {
			if c.In.OType == nil || seen[c.In] {
				continue
			}
			down := c.In.downstreamRequirements(seen)
			if ot != nil && in != nil {
				if !ot.TransfersTo(in.Label) {
					continue
				}
				down = ot.Unmet(down)
			}
			reqs = append(reqs, down...)
		}
	}
	if in != nil {
		return in.Requirements(reqs)
	}
	sort.Strings(reqs)
	return slices.Compact(reqs)
}
