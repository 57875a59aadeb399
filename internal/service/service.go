// Package service exposes template inspection, connection checks,
// recommendations and stored sessions to the outer adapters (HTTP, MCP, CLI).
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/aretw0/ironflow/internal/logging"
	"github.com/aretw0/ironflow/internal/presentation/graph"
	"github.com/aretw0/ironflow/internal/validator"
	"github.com/aretw0/ironflow/pkg/domain"
	"github.com/aretw0/ironflow/pkg/flow"
	"github.com/aretw0/ironflow/pkg/otype"
	"github.com/aretw0/ironflow/pkg/recommend"
	"github.com/aretw0/ironflow/pkg/registry"
	"github.com/aretw0/ironflow/pkg/session"
)

var (
	// ErrUnknownPort is returned when a PortRef names a port the template lacks.
	ErrUnknownPort = errors.New("unknown port")
	// ErrInvalidSession is returned by SaveSession when the document has errors.
	ErrInvalidSession = errors.New("session document has errors")
)

// Side selects inputs or outputs of a template.
type Side string

const (
	SideInput  Side = "input"
	SideOutput Side = "output"
)

// PortRef addresses a port of a template by identifier and label.
type PortRef struct {
	Template string `json:"template"`
	Port     string `json:"port"`
}

func (r PortRef) String() string { return r.Template + "." + r.Port }

// PortInfo describes a template port.
type PortInfo struct {
	Label string `json:"label"`
	Type  string `json:"type"`
	DType string `json:"dtype,omitempty"`
	OType string `json:"otype,omitempty"`
	Value any    `json:"value,omitempty"`
}

// TemplateInfo describes a template.
type TemplateInfo struct {
	Identifier string     `json:"identifier"`
	Group      string     `json:"group"`
	Title      string     `json:"title"`
	Doc        string     `json:"doc,omitempty"`
	Version    string     `json:"version,omitempty"`
	Color      string     `json:"color,omitempty"`
	Inputs     []PortInfo `json:"inputs"`
	Outputs    []PortInfo `json:"outputs"`
}

// ConnectionCheck is the outcome of CheckConnection.
type ConnectionCheck struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Service is the application layer shared by the adapters.
type Service struct {
	templates   *registry.Registry
	sessions    *session.Manager
	ontologies  *otype.Registry
	recommender *recommend.Recommender
	hooks       flow.Hooks
	logger      *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithOntologies resolves saved ontology references against reg.
func WithOntologies(reg *otype.Registry) Option {
	return func(s *Service) { s.ontologies = reg }
}

// WithHooks observes the flows the service builds.
func WithHooks(h flow.Hooks) Option {
	return func(s *Service) { s.hooks = h }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// New creates a Service. sessions may be nil when no store is configured.
func New(templates *registry.Registry, sessions *session.Manager, opts ...Option) *Service {
	s := &Service{
		templates:  templates,
		sessions:   sessions,
		ontologies: otype.NewRegistry(),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.recommender = recommend.New(templates, recommend.WithLogger(s.logger))
	return s
}

func (s *Service) flowOptions() []flow.Option {
	return []flow.Option{flow.WithLogger(s.logger), flow.WithHooks(s.hooks)}
}

// Templates describes the templates of group, or all of them when group is
// empty, sorted by identifier.
func (s *Service) Templates(group string) []TemplateInfo {
	var tpls []*flow.Template
	if group == "" {
		tpls = s.templates.All()
	} else {
		tpls = s.templates.Templates(group)
	}
	infos := make([]TemplateInfo, 0, len(tpls))
	for _, t := range tpls {
		infos = append(infos, Describe(t))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Identifier < infos[j].Identifier })
	return infos
}

// Template describes one template.
func (s *Service) Template(id string) (TemplateInfo, error) {
	t, err := s.templates.Lookup(id)
	if err != nil {
		return TemplateInfo{}, err
	}
	return Describe(t), nil
}

// Describe converts a template to its description.
func Describe(t *flow.Template) TemplateInfo {
	info := TemplateInfo{
		Identifier: t.Identifier(),
		Group:      t.Group,
		Title:      t.Title,
		Doc:        t.Doc,
		Version:    t.Version,
		Color:      t.Color,
		Inputs:     describePorts(t.Inputs),
		Outputs:    describePorts(t.Outputs),
	}
	return info
}

func describePorts(specs []flow.PortSpec) []PortInfo {
	ports := make([]PortInfo, 0, len(specs))
	for _, p := range specs {
		pi := PortInfo{Label: p.Label, Type: string(p.Type), Value: p.Value}
		if p.DType != nil {
			pi.DType = p.DType.String()
			if pi.Value == nil {
				pi.Value = p.DType.Default
			}
		}
		if p.OType != nil {
			pi.OType = p.OType.Ref()
		}
		ports = append(ports, pi)
	}
	return ports
}

// place puts a fresh node of the template into f and returns its port.
func (s *Service) place(f *flow.Flow, ref PortRef, side Side) (*flow.Port, error) {
	t, err := s.templates.Lookup(ref.Template)
	if err != nil {
		return nil, err
	}
	n := f.CreateNode(t, 0, 0)
	var p *flow.Port
	if side == SideInput {
		p = n.Input(ref.Port)
	} else {
		p = n.Output(ref.Port)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s has no %s %q", ErrUnknownPort, ref.Template, side, ref.Port)
	}
	return p, nil
}

// CheckConnection places both templates in a scratch flow and reports
// whether out may be connected to in. An invalid connection is not an error.
func (s *Service) CheckConnection(out, in PortRef) (ConnectionCheck, error) {
	f := flow.New(s.flowOptions()...)
	po, err := s.place(f, out, SideOutput)
	if err != nil {
		return ConnectionCheck{}, err
	}
	pi, err := s.place(f, in, SideInput)
	if err != nil {
		return ConnectionCheck{}, err
	}
	valid, err := f.CheckConnectionValidity(po, pi)
	if err != nil {
		return ConnectionCheck{Valid: false, Reason: err.Error()}, nil
	}
	return ConnectionCheck{Valid: valid}, nil
}

// Recommend lists the templates whose ports connect to the given port.
func (s *Service) Recommend(ref PortRef, side Side) ([]recommend.Recommendation, error) {
	p, err := s.place(flow.New(s.flowOptions()...), ref, side)
	if err != nil {
		return nil, err
	}
	return s.recommender.For(p)
}

var errNoStore = errors.New("no session store configured")

func (s *Service) manager() (*session.Manager, error) {
	if s.sessions == nil {
		return nil, errNoStore
	}
	return s.sessions, nil
}

// Sessions summarizes every stored session.
func (s *Service) Sessions(ctx context.Context) ([]domain.Summary, error) {
	m, err := s.manager()
	if err != nil {
		return nil, err
	}
	ids, err := m.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	summaries := make([]domain.Summary, 0, len(ids))
	for _, id := range ids {
		doc, err := m.Load(ctx, id)
		if err != nil {
			s.logger.Warn("skipping unreadable session", "session_id", id, "err", err)
			continue
		}
		summaries = append(summaries, doc.Summarize(id))
	}
	return summaries, nil
}

// Session returns a stored document.
func (s *Service) Session(ctx context.Context, id string) (*domain.Document, error) {
	m, err := s.manager()
	if err != nil {
		return nil, err
	}
	return m.Load(ctx, id)
}

// Check validates doc against the registered templates.
func (s *Service) Check(doc *domain.Document) *validator.Report {
	return validator.Check(doc, s.templates,
		session.WithOntologies(s.ontologies),
		session.WithLoadLogger(s.logger),
	)
}

// SaveSession stores doc unless Check finds errors in it. The report is
// returned either way.
func (s *Service) SaveSession(ctx context.Context, id string, doc *domain.Document) (*validator.Report, error) {
	m, err := s.manager()
	if err != nil {
		return nil, err
	}
	report := s.Check(doc)
	if err := report.Err(); err != nil {
		return report, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if doc.Version == "" {
		doc.Version = domain.FormatVersion
	}
	return report, m.Save(ctx, id, doc)
}

// DeleteSession removes a stored session.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	m, err := s.manager()
	if err != nil {
		return err
	}
	return m.Delete(ctx, id)
}

// Open rebuilds the flows of a document. Connections that no longer
// type-check are dropped.
func (s *Service) Open(doc *domain.Document) (*session.Session, error) {
	return session.Load(doc, s.templates,
		session.WithOntologies(s.ontologies),
		session.WithFlowOptions(s.flowOptions()...),
		session.WithLoadLogger(s.logger),
	)
}

func (s *Service) script(ctx context.Context, id string, script int) (*session.Script, error) {
	doc, err := s.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	sess, err := s.Open(doc)
	if err != nil {
		return nil, err
	}
	return sess.Script(script)
}

// Graph renders a script of a stored session as a Mermaid flowchart.
func (s *Service) Graph(ctx context.Context, id string, script int) (string, error) {
	sc, err := s.script(ctx, id, script)
	if err != nil {
		return "", err
	}
	return graph.Mermaid(sc.Flow, nil), nil
}

// DescribeFlow summarizes a script of a stored session as markdown: its
// nodes with their port values and readiness, then its connections.
func (s *Service) DescribeFlow(ctx context.Context, id string, script int) (string, error) {
	sc, err := s.script(ctx, id, script)
	if err != nil {
		return "", err
	}
	return DescribeFlow(sc), nil
}

// DescribeFlow renders a script as markdown.
func DescribeFlow(sc *session.Script) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", sc.Title)
	for _, n := range sc.Flow.Nodes() {
		fmt.Fprintf(&sb, "## %s (%s)\n\n", n.Title, n.Template.Identifier())
		if err := n.Err(); err != nil {
			fmt.Fprintf(&sb, "**failed:** %v\n\n", err)
		}
		for _, p := range n.Inputs {
			sb.WriteString(portLine(p))
		}
		for _, p := range n.Outputs {
			sb.WriteString(portLine(p))
		}
		sb.WriteString("\n")
	}
	if conns := sc.Flow.Connections(); len(conns) > 0 {
		sb.WriteString("## Connections\n\n")
		for _, c := range conns {
			fmt.Fprintf(&sb, "- %s\n", c)
		}
	}
	return sb.String()
}

func portLine(p *flow.Port) string {
	if p.Type == flow.PortExec {
		return fmt.Sprintf("- %s `%s` (exec)\n", p.Direction, p.Label)
	}
	mark := ""
	if p.IsInput() && !p.Ready() {
		mark = " (not ready)"
	}
	return fmt.Sprintf("- %s `%s`: %s = %v%s\n", p.Direction, p.Label, p.DType, p.Value, mark)
}

// Markdown documents the template: identifier, doc and a table per side.
func (t TemplateInfo) Markdown() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n`%s`", t.Title, t.Identifier)
	if t.Version != "" {
		fmt.Fprintf(&sb, " %s", t.Version)
	}
	sb.WriteString("\n\n")
	if t.Doc != "" {
		sb.WriteString(t.Doc + "\n\n")
	}
	for _, side := range []struct {
		name  string
		ports []PortInfo
	}{{"Inputs", t.Inputs}, {"Outputs", t.Outputs}} {
		if len(side.ports) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "## %s\n\n| label | type | default | otype |\n|---|---|---|---|\n", side.name)
		for _, p := range side.ports {
			typ := p.DType
			if p.Type == "exec" {
				typ = "exec"
			}
			def := ""
			if p.Value != nil {
				def = fmt.Sprintf("`%v`", p.Value)
			}
			fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n", p.Label, typ, def, p.OType)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
