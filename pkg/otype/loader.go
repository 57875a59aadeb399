package otype

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Parse decodes an ontology from YAML (a JSON document is valid YAML too).
func Parse(data []byte) (*Ontology, error) {
	var o Ontology
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("failed to parse ontology: %w", err)
	}
	if err := o.index(); err != nil {
		return nil, err
	}
	return &o, nil
}

// LoadFile reads an ontology from a .yaml, .yml or .json file.
func LoadFile(path string) (*Ontology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ontology: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		var o Ontology
		if err := json.Unmarshal(data, &o); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
		if err := o.index(); err != nil {
			return nil, err
		}
		return &o, nil
	}
	return Parse(data)
}

// Registry resolves otype references across ontologies.
type Registry struct {
	mu         sync.RWMutex
	ontologies map[string]*Ontology
}

// NewRegistry creates a registry holding the given ontologies.
func NewRegistry(ontologies ...*Ontology) *Registry {
	r := &Registry{ontologies: make(map[string]*Ontology)}
	for _, o := range ontologies {
		r.Register(o)
	}
	return r
}

// Register adds or replaces an ontology under its namespace.
func (r *Registry) Register(o *Ontology) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ontologies[o.Namespace] = o
}

// Get returns the ontology of a namespace.
func (r *Registry) Get(namespace string) (*Ontology, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.ontologies[namespace]
	return o, ok
}

// Namespaces lists the registered namespaces, sorted.
func (r *Registry) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ontologies))
	for n := range r.ontologies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Resolve finds the term named by namespace and name.
func (r *Registry) Resolve(namespace, name string) (Term, error) {
	o, ok := r.Get(namespace)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownNamespace, namespace)
	}
	return o.Term(name)
}

// ResolveRef resolves a full "namespace/function/input|output/name" reference.
func (r *Registry) ResolveRef(ref string) (Term, error) {
	namespace, name, ok := strings.Cut(ref, "/")
	if !ok {
		return nil, fmt.Errorf("%w: malformed reference %q", ErrUnknownTerm, ref)
	}
	return r.Resolve(namespace, name)
}
