package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/ironflow/pkg/flow"
	"github.com/aretw0/ironflow/pkg/ports"
)

// DefaultGroup holds templates registered without a group.
const DefaultGroup = "custom"

// Registry holds node templates by group and title, plus named node functions
// that templates loaded from files refer to.
type Registry struct {
	mu        sync.RWMutex
	groups    map[string]map[string]*flow.Template
	functions map[string]flow.NodeFunction
	updates   map[string]flow.UpdateFunc
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		groups:    make(map[string]map[string]*flow.Template),
		functions: make(map[string]flow.NodeFunction),
		updates:   make(map[string]flow.UpdateFunc),
	}
}

// Register adds a template under group, or under the template's own group
// when group is empty. A template with the same group and title is replaced;
// nodes already placed keep the template they were placed from. The registry
// stores a copy, so t itself is left untouched.
func (r *Registry) Register(t *flow.Template, group string) error {
	if t == nil || t.Title == "" {
		return fmt.Errorf("template needs a title")
	}
	if strings.Contains(t.Title, ".") {
		return fmt.Errorf("template title %q must not contain '.'", t.Title)
	}
	if group == "" {
		group = t.Group
	}
	if group == "" {
		group = DefaultGroup
	}
	c := *t
	c.Group = group

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.groups[group] == nil {
		r.groups[group] = make(map[string]*flow.Template)
	}
	r.groups[group][c.Title] = &c
	return nil
}

// Unregister removes a template. It reports whether the template existed.
func (r *Registry) Unregister(group, title string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[group][title]; !ok {
		return false
	}
	delete(r.groups[group], title)
	if len(r.groups[group]) == 0 {
		delete(r.groups, group)
	}
	return true
}

// Get returns the template registered under group and title.
func (r *Registry) Get(group, title string) (*flow.Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.groups[group][title]
	return t, ok
}

// Lookup resolves "group.title", or a bare title when it is unambiguous.
func (r *Registry) Lookup(name string) (*flow.Template, error) {
	if group, title, ok := strings.Cut(name, "."); ok {
		if t, found := r.Get(group, title); found {
			return t, nil
		}
		return nil, fmt.Errorf("%w: %s", ports.ErrTemplateNotFound, name)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	var found []*flow.Template
	for _, g := range r.groups {
		if t, ok := g[name]; ok {
			found = append(found, t)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ports.ErrTemplateNotFound, name)
	case 1:
		return found[0], nil
	}
	return nil, fmt.Errorf("template %q is ambiguous, qualify it with its group", name)
}

// GetTemplate implements ports.TemplateLoader.
func (r *Registry) GetTemplate(id string) (*flow.Template, error) { return r.Lookup(id) }

// ListTemplates implements ports.TemplateLoader. Identifiers are sorted.
func (r *Registry) ListTemplates() ([]string, error) {
	all := r.All()
	ids := make([]string, len(all))
	for i, t := range all {
		ids[i] = t.Identifier()
	}
	sort.Strings(ids)
	return ids, nil
}

// Groups returns the group names, sorted.
func (r *Registry) Groups() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	groups := make([]string, 0, len(r.groups))
	for g := range r.groups {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// Templates returns the templates of a group sorted by title.
func (r *Registry) Templates(group string) []*flow.Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tpls := make([]*flow.Template, 0, len(r.groups[group]))
	for _, t := range r.groups[group] {
		tpls = append(tpls, t)
	}
	sort.Slice(tpls, func(i, j int) bool { return tpls[i].Title < tpls[j].Title })
	return tpls
}

// All returns every template, ordered by group then title.
func (r *Registry) All() []*flow.Template {
	var all []*flow.Template
	for _, g := range r.Groups() {
		all = append(all, r.Templates(g)...)
	}
	return all
}

// RegisterFunction names a node function. Existing names are overwritten.
func (r *Registry) RegisterFunction(name string, fn flow.NodeFunction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions[name] = fn
}

// Function looks up a node function by name.
func (r *Registry) Function(name string) (flow.NodeFunction, error) {
	r.mu.RLock()
	fn, ok := r.functions[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("function not found: %s", name)
	}
	return fn, nil
}

// RegisterUpdate names an update function for execution-driving nodes.
func (r *Registry) RegisterUpdate(name string, fn flow.UpdateFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates[name] = fn
}

// Update looks up an update function by name.
func (r *Registry) Update(name string) (flow.UpdateFunc, error) {
	r.mu.RLock()
	fn, ok := r.updates[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("update function not found: %s", name)
	}
	return fn, nil
}

// Functions returns the registered function names, sorted.
func (r *Registry) Functions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions)+len(r.updates))
	for n := range r.functions {
		names = append(names, n)
	}
	for n := range r.updates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
