package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/ironflow/pkg/adapters/memory"
	"github.com/aretw0/ironflow/pkg/flow"
	"github.com/aretw0/ironflow/pkg/registry"
)

// Builder collects templates of one group in declaration order.
type Builder struct {
	group string
	order []string
	nodes map[string]*NodeBuilder
}

// New creates a builder for templates in group.
func New(group string) *Builder {
	return &Builder{group: group, nodes: make(map[string]*NodeBuilder)}
}

// Add starts a template with the given title.
// If the title was already added, it returns the existing builder.
func (b *Builder) Add(title string) *NodeBuilder {
	if nb, ok := b.nodes[title]; ok {
		return nb
	}
	nb := &NodeBuilder{tmpl: &flow.Template{Title: title, Group: b.group}}
	b.nodes[title] = nb
	b.order = append(b.order, title)
	return nb
}

// Templates validates and returns the templates in declaration order.
func (b *Builder) Templates() ([]*flow.Template, error) {
	var errs []error
	tpls := make([]*flow.Template, 0, len(b.order))
	for _, title := range b.order {
		nb := b.nodes[title]
		if err := nb.validate(); err != nil {
			errs = append(errs, fmt.Errorf("template %s: %w", title, err))
			continue
		}
		tpls = append(tpls, nb.tmpl)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return tpls, nil
}

// Build compiles the templates into a memory loader.
func (b *Builder) Build() (*memory.Loader, error) {
	tpls, err := b.Templates()
	if err != nil {
		return nil, err
	}
	return memory.NewLoader(tpls...), nil
}

// Register adds every template to r.
func (b *Builder) Register(r *registry.Registry) error {
	tpls, err := b.Templates()
	if err != nil {
		return err
	}
	for _, t := range tpls {
		if err := r.Register(t, b.group); err != nil {
			return err
		}
	}
	return nil
}
