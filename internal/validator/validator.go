// Package validator checks saved session documents against the templates
// available now, without modifying them.
package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/ironflow/pkg/domain"
	"github.com/aretw0/ironflow/pkg/ports"
	"github.com/aretw0/ironflow/pkg/session"
)

// Severity of an issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding.
type Issue struct {
	Severity Severity `json:"severity"`
	Script   string   `json:"script,omitempty"`
	Node     string   `json:"node,omitempty"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	var sb strings.Builder
	sb.WriteString(string(i.Severity))
	if i.Script != "" {
		fmt.Fprintf(&sb, " [%s", i.Script)
		if i.Node != "" {
			fmt.Fprintf(&sb, " / %s", i.Node)
		}
		sb.WriteString("]")
	}
	return sb.String() + ": " + i.Message
}

// Report is the result of Check.
type Report struct {
	Scripts     int     `json:"scripts"`
	Nodes       int     `json:"nodes"`
	Connections int     `json:"connections"`
	Issues      []Issue `json:"issues"`
}

func (r *Report) add(sev Severity, script, node, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Severity: sev, Script: script, Node: node, Message: fmt.Sprintf(format, args...)})
}

// Err returns the errors of the report joined, or nil when there are none.
// Warnings do not count.
func (r *Report) Err() error {
	var errs []string
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			errs = append(errs, i.String())
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("found %d errors:\n- %s", len(errs), strings.Join(errs, "\n- "))
}

// Check reports missing templates, port layouts that changed since the
// document was saved, connections that no longer type-check, failing nodes
// and inputs that are not ready.
func Check(doc *domain.Document, templates ports.TemplateLoader, opts ...session.LoadOption) *Report {
	r := &Report{Scripts: len(doc.Scripts)}
	for _, sd := range doc.Scripts {
		r.Nodes += len(sd.Flow.Nodes)
		r.Connections += len(sd.Flow.Connections)
	}
	if err := doc.Validate(); err != nil {
		r.add(SeverityError, "", "", "%v", err)
		return r
	}

	missing := false
	for _, sd := range doc.Scripts {
		for _, nd := range sd.Flow.Nodes {
			t, err := templates.GetTemplate(nd.Identifier)
			if err != nil {
				missing = true
				if errors.Is(err, ports.ErrTemplateNotFound) {
					r.add(SeverityError, sd.Title, nd.Identifier, "template not found")
				} else {
					r.add(SeverityError, sd.Title, nd.Identifier, "loading template: %v", err)
				}
				continue
			}
			if len(t.Inputs) != len(nd.Inputs) || len(t.Outputs) != len(nd.Outputs) {
				r.add(SeverityWarning, sd.Title, nd.Identifier,
					"saved with %d inputs and %d outputs, template now has %d and %d",
					len(nd.Inputs), len(nd.Outputs), len(t.Inputs), len(t.Outputs))
			}
		}
	}
	if missing {
		return r
	}

	opts = append(opts, session.OnDroppedConnection(func(script string, c domain.ConnectionData, err error) {
		r.add(SeverityError, script, "", "connection %d.%d -> %d.%d: %v", c.Parent, c.OutputPort, c.Connected, c.InputPort, err)
	}))
	s, err := session.Load(doc, templates, opts...)
	if err != nil {
		r.add(SeverityError, "", "", "%v", err)
		return r
	}

	for _, sc := range s.Scripts {
		for _, n := range sc.Flow.Nodes() {
			id := n.Template.Identifier()
			if err := n.Err(); err != nil {
				r.add(SeverityError, sc.Title, id, "update failed: %v", err)
			}
			for _, p := range n.Inputs {
				switch {
				case !p.DTypeOK():
					r.add(SeverityWarning, sc.Title, id, "input %q holds %v, which %s does not accept", p.Label, p.Value, p.DType)
				case !p.OTypeOK():
					r.add(SeverityWarning, sc.Title, id, "input %q fails its ontology check", p.Label)
				}
			}
		}
	}
	return r
}
