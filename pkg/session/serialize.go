package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/ironflow/internal/logging"
	"github.com/aretw0/ironflow/pkg/domain"
	"github.com/aretw0/ironflow/pkg/dtype"
	"github.com/aretw0/ironflow/pkg/flow"
	"github.com/aretw0/ironflow/pkg/otype"
	"github.com/aretw0/ironflow/pkg/ports"
)

// Serialize captures the session as a document.
func (s *Session) Serialize() (*domain.Document, error) {
	doc := domain.NewDocument(s.Title)
	doc.SavedAt = time.Now().UTC()
	for _, sc := range s.Scripts {
		fd, err := serializeFlow(sc.Flow)
		if err != nil {
			return nil, fmt.Errorf("script %q: %w", sc.Title, err)
		}
		doc.Scripts = append(doc.Scripts, domain.ScriptData{Title: sc.Title, Flow: fd})
	}
	return doc, nil
}

func serializeFlow(f *flow.Flow) (domain.FlowData, error) {
	fd := domain.FlowData{
		Mode:        string(f.Mode()),
		Nodes:       []domain.NodeData{},
		Connections: []domain.ConnectionData{},
	}
	for _, n := range f.Nodes() {
		nd := domain.NodeData{
			Identifier: n.Template.Identifier(),
			ID:         n.ID,
			Title:      n.Title,
			Color:      n.Color,
			Pos:        domain.Position{X: n.X, Y: n.Y},
			State:      n.State,
		}
		for _, p := range n.Inputs {
			pd := portData(p)
			if p.Type == flow.PortData && !p.Connected() {
				val, err := json.Marshal(p.Value)
				if err != nil {
					return fd, fmt.Errorf("value of %s: %w", p, err)
				}
				pd.Val = val
			}
			nd.Inputs = append(nd.Inputs, pd)
		}
		for _, p := range n.Outputs {
			nd.Outputs = append(nd.Outputs, portData(p))
		}
		fd.Nodes = append(fd.Nodes, nd)
	}
	for _, c := range f.Connections() {
		fd.Connections = append(fd.Connections, domain.ConnectionData{
			Parent:     f.NodeIndex(c.Out.Node()),
			OutputPort: c.Out.Index(),
			Connected:  f.NodeIndex(c.In.Node()),
			InputPort:  c.In.Index(),
		})
	}
	return fd, nil
}

func portData(p *flow.Port) domain.PortData {
	pd := domain.PortData{Label: p.Label, Type: string(p.Type)}
	if p.DType != nil {
		pd.DType = p.DType.Clone()
	}
	if p.OType != nil {
		pd.OTypeNamespace = p.OType.Namespace()
		pd.OTypeName = p.OType.Name()
	}
	return pd
}

// LoadOption configures Load.
type LoadOption func(*loadConfig)

type loadConfig struct {
	ontologies *otype.Registry
	flowOpts   []flow.Option
	logger     *slog.Logger
	dropped    func(script string, c domain.ConnectionData, err error)
}

// WithLoadLogger reports connections dropped while loading.
func WithLoadLogger(logger *slog.Logger) LoadOption {
	return func(c *loadConfig) { c.logger = logger }
}

// OnDroppedConnection is called for every saved connection that fails the
// validity check on load.
func OnDroppedConnection(fn func(script string, c domain.ConnectionData, err error)) LoadOption {
	return func(c *loadConfig) { c.dropped = fn }
}

// WithOntologies resolves saved otype references that the templates do not declare.
func WithOntologies(r *otype.Registry) LoadOption {
	return func(c *loadConfig) { c.ontologies = r }
}

// WithFlowOptions sets the options of every rebuilt flow.
func WithFlowOptions(opts ...flow.Option) LoadOption {
	return func(c *loadConfig) { c.flowOpts = append(c.flowOpts, opts...) }
}

// Load rebuilds a session from a document. Connections that no longer pass
// the validity check are dropped with a warning.
func Load(doc *domain.Document, templates ports.TemplateLoader, opts ...LoadOption) (*Session, error) {
	cfg := &loadConfig{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(cfg)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	s := New(doc.Title, cfg.flowOpts...)
	for _, sd := range doc.Scripts {
		sc := s.CreateScript(sd.Title)
		if err := loadFlow(sc.Flow, sd, templates, cfg); err != nil {
			return nil, fmt.Errorf("script %q: %w", sd.Title, err)
		}
	}
	return s, nil
}

func loadFlow(f *flow.Flow, sd domain.ScriptData, templates ports.TemplateLoader, cfg *loadConfig) error {
	fd := sd.Flow
	if fd.Mode != "" {
		if err := f.SetMode(flow.Mode(fd.Mode)); err != nil {
			return err
		}
	}
	nodes := make([]*flow.Node, 0, len(fd.Nodes))
	for _, nd := range fd.Nodes {
		t, err := templates.GetTemplate(nd.Identifier)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrUnknownTemplate, nd.Identifier, err)
		}
		state := flow.NodeState{ID: nd.ID, X: nd.Pos.X, Y: nd.Pos.Y, Color: nd.Color, State: nd.State}
		for _, pd := range nd.Inputs {
			ps, err := portState(pd, cfg)
			if err != nil {
				return fmt.Errorf("node %s input %s: %w", nd.Identifier, pd.Label, err)
			}
			state.Inputs = append(state.Inputs, ps)
		}
		for _, pd := range nd.Outputs {
			ps, err := portState(pd, cfg)
			if err != nil {
				return fmt.Errorf("node %s output %s: %w", nd.Identifier, pd.Label, err)
			}
			state.Outputs = append(state.Outputs, ps)
		}
		nodes = append(nodes, f.RestoreNode(t, state))
	}
	for _, cd := range fd.Connections {
		outs, ins := nodes[cd.Parent].Outputs, nodes[cd.Connected].Inputs
		if cd.OutputPort >= len(outs) || cd.InputPort >= len(ins) {
			return fmt.Errorf("%w: connection to a port the template no longer has", domain.ErrInvalidDocument)
		}
		if _, err := f.Connect(outs[cd.OutputPort], ins[cd.InputPort]); err != nil {
			cfg.logger.Warn("dropping connection", "script", sd.Title, "err", err)
			if cfg.dropped != nil {
				cfg.dropped(sd.Title, cd, err)
			}
		}
	}
	return nil
}

func portState(pd domain.PortData, cfg *loadConfig) (flow.PortState, error) {
	ps := flow.PortState{DType: pd.DType}
	if pd.HasValue() {
		dec := json.NewDecoder(bytes.NewReader(pd.Val))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return ps, fmt.Errorf("decoding value: %w", err)
		}
		ps.Value = dtype.Normalize(v)
		ps.HasValue = true
	}
	if pd.OTypeNamespace != "" && cfg.ontologies != nil {
		term, err := cfg.ontologies.Resolve(pd.OTypeNamespace, pd.OTypeName)
		if err != nil {
			return ps, err
		}
		ps.OType = term
	}
	return ps, nil
}
