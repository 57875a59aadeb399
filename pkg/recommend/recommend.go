// Package recommend suggests node templates that can be attached to a
// selected port.
//
// Ports carrying an ontology type are matched through the ontology: an input
// is offered every template producing one of its source candidates, an
// output every template consuming it. Other ports fall back to the dtype
// compatibility check used by flow.Connect.
package recommend

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/aretw0/ironflow/internal/logging"
	"github.com/aretw0/ironflow/pkg/dtype"
	"github.com/aretw0/ironflow/pkg/flow"
	"github.com/aretw0/ironflow/pkg/otype"
	"github.com/aretw0/ironflow/pkg/ports"
)

// Reason tells how a recommendation was found.
type Reason string

const (
	// ReasonSource marks a template whose output can feed the selected input.
	ReasonSource Reason = "ontology-source"
	// ReasonConsumer marks a template whose input can take the selected output.
	ReasonConsumer Reason = "ontology-consumer"
	// ReasonDType marks a template with a dtype-compatible port.
	ReasonDType Reason = "dtype"
	// ReasonExec marks a template with an opposite exec port.
	ReasonExec Reason = "exec"
)

// ErrNoPort is returned for a nil port.
var ErrNoPort = errors.New("no port selected")

// Recommendation is one template port the selected port can connect to.
type Recommendation struct {
	Group  string `json:"group"`
	Title  string `json:"title"`
	Port   string `json:"port"`
	Reason Reason `json:"reason"`
}

// Identifier returns "group.title" of the recommended template.
func (r Recommendation) Identifier() string {
	if r.Group == "" {
		return r.Title
	}
	return r.Group + "." + r.Title
}

// Recommender searches a template catalog.
type Recommender struct {
	templates ports.TemplateLoader
	logger    *slog.Logger
}

// Option configures a Recommender.
type Option func(*Recommender)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recommender) { r.logger = logger }
}

// New returns a Recommender over templates.
func New(templates ports.TemplateLoader, opts ...Option) *Recommender {
	r := &Recommender{templates: templates, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// For lists the template ports p may be connected to, ordered by template
// identifier and port position.
func (r *Recommender) For(p *flow.Port) ([]Recommendation, error) {
	if p == nil {
		return nil, ErrNoPort
	}
	ids, err := r.templates.ListTemplates()
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}
	slices.Sort(ids)

	match := r.matcher(p)
	var recs []Recommendation
	for _, id := range ids {
		t, err := r.templates.GetTemplate(id)
		if err != nil {
			return nil, err
		}
		candidates := t.Outputs
		if !p.IsInput() {
			candidates = t.Inputs
		}
		for _, spec := range candidates {
			if reason, ok := match(spec); ok {
				recs = append(recs, Recommendation{Group: t.Group, Title: t.Title, Port: spec.Label, Reason: reason})
			}
		}
	}
	r.logger.Debug("recommendations built", "port", p.String(), "count", len(recs))
	return recs, nil
}

// Clear drops nothing: highlights belong to the client.
func (r *Recommender) Clear() {}

func (r *Recommender) matcher(p *flow.Port) func(flow.PortSpec) (Reason, bool) {
	switch {
	case p.Type == flow.PortExec:
		return func(s flow.PortSpec) (Reason, bool) { return ReasonExec, s.Type == flow.PortExec }
	case p.OType != nil && p.IsInput():
		refs := sourceRefs(p.SourceTree())
		return func(s flow.PortSpec) (Reason, bool) {
			return ReasonSource, s.OType != nil && refs[s.OType.Ref()]
		}
	case p.OType != nil:
		refs := consumerRefs(p.OType)
		return func(s flow.PortSpec) (Reason, bool) {
			return ReasonConsumer, s.OType != nil && refs[s.OType.Ref()]
		}
	}
	return func(s flow.PortSpec) (Reason, bool) {
		if s.Type == flow.PortExec {
			return ReasonDType, false
		}
		return ReasonDType, compatible(p, s.DType)
	}
}

// sourceRefs are the direct candidates of the tree's input.
func sourceRefs(tree *otype.Tree) map[string]bool {
	refs := map[string]bool{}
	if tree == nil {
		return refs
	}
	for _, c := range tree.Children {
		if o, ok := c.Value.(*otype.Output); ok {
			refs[o.Ref()] = true
		}
	}
	return refs
}

func consumerRefs(t otype.Term) map[string]bool {
	refs := map[string]bool{}
	out, ok := t.(*otype.Output)
	if !ok {
		return refs
	}
	for _, in := range out.Ontology().Consumers(out) {
		refs[in.Ref()] = true
	}
	return refs
}

// compatible runs the connection dtype check between the selected port and
// a port freshly placed from a template, whose value is nil.
func compatible(p *flow.Port, other *dtype.DType) bool {
	out, in := other, p.DType
	var outValue any
	if !p.IsInput() {
		out, in = p.DType, other
		outValue = p.Value
	}
	if in == nil {
		in = dtype.Untyped()
	}
	if !in.IsUntyped() && !out.IsUntyped() {
		ok, err := in.Accepts(out)
		return err == nil && ok
	}
	return in.AcceptsValue(outValue)
}
