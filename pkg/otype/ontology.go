package otype

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Term is an ontological type that can be attached to a port: an *Input or an *Output.
type Term interface {
	Namespace() string
	// Name is the term's name within its namespace, "function/input/name" or
	// "function/output/name".
	Name() string
	// Ref is the fully qualified reference, Namespace()+"/"+Name().
	Ref() string
}

// Concept is a node of the ontology's is-a hierarchy.
type Concept struct {
	Name    string   `yaml:"name" json:"name"`
	Parents []string `yaml:"parents,omitempty" json:"parents,omitempty"`
}

// Function turns its inputs into its outputs.
type Function struct {
	Name    string    `yaml:"name" json:"name"`
	Inputs  []*Input  `yaml:"inputs" json:"inputs"`
	Outputs []*Output `yaml:"outputs" json:"outputs"`
}

// Input is the otype of an input port.
type Input struct {
	Label        string   `yaml:"name" json:"name"`
	Generic      string   `yaml:"generic" json:"generic"`
	Requires     []string `yaml:"requirements,omitempty" json:"requirements,omitempty"`

	ontology *Ontology
	function string
}

// Output is the otype of an output port.
type Output struct {
	Label      string   `yaml:"name" json:"name"`
	Generic    string   `yaml:"generic" json:"generic"`
	Conditions []string `yaml:"conditions,omitempty" json:"conditions,omitempty"`
	Transfers  []string `yaml:"transfers,omitempty" json:"transfers,omitempty"`

	ontology *Ontology
	function string
}

func (i *Input) Namespace() string { return i.ontology.Namespace }
func (i *Input) Name() string      { return i.function + "/input/" + i.Label }
func (i *Input) Ref() string       { return i.Namespace() + "/" + i.Name() }
func (i *Input) String() string    { return i.Ref() }

// Function returns the name of the function owning the input.
func (i *Input) Function() string { return i.function }

// Ontology returns the ontology the input belongs to.
func (i *Input) Ontology() *Ontology { return i.ontology }

func (o *Output) Namespace() string { return o.ontology.Namespace }
func (o *Output) Name() string      { return o.function + "/output/" + o.Label }
func (o *Output) Ref() string       { return o.Namespace() + "/" + o.Name() }
func (o *Output) String() string    { return o.Ref() }

// Function returns the name of the function owning the output.
func (o *Output) Function() string { return o.function }

// Ontology returns the ontology the output belongs to.
func (o *Output) Ontology() *Ontology { return o.ontology }

// TransfersTo reports whether unmet requirements travel to the named input.
func (o *Output) TransfersTo(input string) bool { return slices.Contains(o.Transfers, input) }

// Unmet returns the requirements the output does not guarantee itself.
func (o *Output) Unmet(requirements []string) []string {
	var unmet []string
	for _, r := range requirements {
		if !slices.Contains(o.Conditions, r) {
			unmet = append(unmet, r)
		}
	}
	return unmet
}

// Requirements returns the input's own requirements merged with additional
// ones, sorted and without duplicates.
func (i *Input) Requirements(additional []string) []string {
	return merge(i.Requires, additional)
}

func merge(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	sort.Strings(out)
	return slices.Compact(out)
}

// Ontology is a namespace of concepts and functions.
type Ontology struct {
	Namespace string      `yaml:"namespace" json:"namespace"`
	Concepts  []*Concept  `yaml:"concepts" json:"concepts"`
	Functions []*Function `yaml:"functions" json:"functions"`

	concepts  map[string]*Concept
	functions map[string]*Function
	terms     map[string]Term
	// MaxDepth bounds SourceTree recursion. Zero means DefaultMaxDepth.
	MaxDepth int `yaml:"max_depth,omitempty" json:"max_depth,omitempty"`
}

// DefaultMaxDepth bounds how many functions deep a source tree is expanded.
const DefaultMaxDepth = 8

// New builds an ontology from concepts and functions.
func New(namespace string, concepts []*Concept, functions []*Function) (*Ontology, error) {
	o := &Ontology{Namespace: namespace, Concepts: concepts, Functions: functions}
	if err := o.index(); err != nil {
		return nil, err
	}
	return o, nil
}

// index links terms to the ontology and validates names.
func (o *Ontology) index() error {
	if o.Namespace == "" || strings.Contains(o.Namespace, "/") {
		return fmt.Errorf("%w: namespace %q", ErrInvalidOntology, o.Namespace)
	}
	o.concepts = make(map[string]*Concept, len(o.Concepts))
	for _, c := range o.Concepts {
		if c.Name == "" {
			return fmt.Errorf("%w: concept without a name", ErrInvalidOntology)
		}
		if _, dup := o.concepts[c.Name]; dup {
			return fmt.Errorf("%w: duplicate concept %q", ErrInvalidOntology, c.Name)
		}
		o.concepts[c.Name] = c
	}
	for _, c := range o.Concepts {
		for _, p := range c.Parents {
			if _, ok := o.concepts[p]; !ok {
				return fmt.Errorf("%w: concept %q has unknown parent %q", ErrInvalidOntology, c.Name, p)
			}
		}
	}

	o.functions = make(map[string]*Function, len(o.Functions))
	o.terms = make(map[string]Term)
	for _, fn := range o.Functions {
		if fn.Name == "" || strings.Contains(fn.Name, "/") {
			return fmt.Errorf("%w: function name %q", ErrInvalidOntology, fn.Name)
		}
		if _, dup := o.functions[fn.Name]; dup {
			return fmt.Errorf("%w: duplicate function %q", ErrInvalidOntology, fn.Name)
		}
		o.functions[fn.Name] = fn
		for _, in := range fn.Inputs {
			if err := o.checkGeneric(fn.Name, in.Label, in.Generic); err != nil {
				return err
			}
			in.ontology, in.function = o, fn.Name
			o.terms[in.Name()] = in
		}
		for _, out := range fn.Outputs {
			if err := o.checkGeneric(fn.Name, out.Label, out.Generic); err != nil {
				return err
			}
			out.ontology, out.function = o, fn.Name
			o.terms[out.Name()] = out
			for _, target := range out.Transfers {
				if fn.input(target) == nil {
					return fmt.Errorf("%w: %s transfers to unknown input %q", ErrInvalidOntology, out.Name(), target)
				}
			}
		}
	}
	return nil
}

func (o *Ontology) checkGeneric(fn, label, generic string) error {
	if label == "" {
		return fmt.Errorf("%w: function %q has an unnamed port", ErrInvalidOntology, fn)
	}
	if _, ok := o.concepts[generic]; !ok {
		return fmt.Errorf("%w: %s.%s uses unknown concept %q", ErrInvalidOntology, fn, label, generic)
	}
	return nil
}

func (f *Function) input(name string) *Input {
	for _, in := range f.Inputs {
		if in.Label == name {
			return in
		}
	}
	return nil
}

// Function returns the named function, or nil.
func (o *Ontology) Function(name string) *Function { return o.functions[name] }

// Input returns the otype of a function input, or nil.
func (o *Ontology) Input(function, name string) *Input {
	if t, ok := o.terms[function+"/input/"+name].(*Input); ok {
		return t
	}
	return nil
}

// Output returns the otype of a function output, or nil.
func (o *Ontology) Output(function, name string) *Output {
	if t, ok := o.terms[function+"/output/"+name].(*Output); ok {
		return t
	}
	return nil
}

// Term looks up an input or output by its name within the namespace.
func (o *Ontology) Term(name string) (Term, error) {
	t, ok := o.terms[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnknownTerm, o.Namespace, name)
	}
	return t, nil
}

// IsA reports whether concept a is b or descends from it.
func (o *Ontology) IsA(a, b string) bool {
	if a == b {
		return true
	}
	seen := map[string]bool{}
	queue := []string{a}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		c, ok := o.concepts[cur]
		if !ok {
			continue
		}
		for _, p := range c.Parents {
			if p == b {
				return true
			}
			queue = append(queue, p)
		}
	}
	return false
}

// Consumers returns every input that can directly receive the output.
func (o *Ontology) Consumers(out *Output) []*Input {
	var consumers []*Input
	for _, fn := range o.Functions {
		for _, in := range fn.Inputs {
			if slices.ContainsFunc(o.candidates(in, in.Requirements(nil), nil), func(c candidate) bool {
				return c.output == out
			}) {
				consumers = append(consumers, in)
			}
		}
	}
	return consumers
}
