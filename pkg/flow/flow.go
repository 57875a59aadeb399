package flow

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/aretw0/ironflow/internal/logging"
	"github.com/google/uuid"
)

// Mode selects how execution travels through the flow.
type Mode string

const (
	// ModeData pushes output values along data connections.
	ModeData Mode = "data"
	// ModeExec only follows exec connections; data inputs pull their values.
	ModeExec Mode = "exec"
)

// Flow owns nodes and the connections between them.
// A Flow is not safe for concurrent use.
type Flow struct {
	nodes       []*Node
	connections []*Connection
	mode        Mode
	logger      *slog.Logger
	hooks       Hooks
}

// Option configures a Flow.
type Option func(*Flow)

// WithLogger sets the logger used for connection checks and update failures.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Flow) { f.logger = logger }
}

// WithHooks attaches observability callbacks.
func WithHooks(h Hooks) Option {
	return func(f *Flow) { f.hooks = f.hooks.Merge(h) }
}

// WithMode sets the initial algorithm mode.
func WithMode(m Mode) Option {
	return func(f *Flow) { f.mode = m }
}

// New creates an empty flow in data mode.
func New(opts ...Option) *Flow {
	f := &Flow{mode: ModeData, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Mode returns the algorithm mode.
func (f *Flow) Mode() Mode { return f.mode }

// SetMode switches between data and exec mode.
func (f *Flow) SetMode(m Mode) error {
	if m != ModeData && m != ModeExec {
		return fmt.Errorf("unknown flow mode %q", m)
	}
	f.mode = m
	return nil
}

// Nodes returns the nodes in placement order.
func (f *Flow) Nodes() []*Node { return f.nodes }

// Connections returns all connections.
func (f *Flow) Connections() []*Connection { return f.connections }

// Node finds a node by ID.
func (f *Flow) Node(id string) *Node {
	for _, n := range f.nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// NodeIndex returns the position of a node, or -1.
func (f *Flow) NodeIndex(n *Node) int { return slices.Index(f.nodes, n) }

// CreateNode places a node from a template, fills input defaults and runs an
// initial update. Update failures are recorded on the node, not returned.
func (f *Flow) CreateNode(t *Template, x, y float64) *Node {
	n := f.newNode(t, x, y)
	for i, spec := range t.Inputs {
		p := n.Inputs[i]
		switch {
		case p.DType != nil && p.DType.Default != nil:
			p.Value = p.DType.Default
		case spec.Value != nil:
			p.Value = spec.Value
		}
		p.setDTypeOK()
	}
	f.place(n)
	_ = n.Update(-1)
	return n
}

// newNode builds the node and its ports without placing it.
func (f *Flow) newNode(t *Template, x, y float64) *Node {
	n := &Node{
		ID:       uuid.NewString(),
		Title:    t.Title,
		Group:    t.Group,
		Color:    t.Color,
		X:        x,
		Y:        y,
		Template: t,
		State:    map[string]any{},
		flow:     f,
	}
	if n.Color == "" {
		n.Color = DefaultColor
	}
	for _, spec := range t.Inputs {
		n.Inputs = append(n.Inputs, newPort(n, DirInput, spec))
	}
	for _, spec := range t.Outputs {
		n.Outputs = append(n.Outputs, newPort(n, DirOutput, spec))
	}
	return n
}

func (f *Flow) place(n *Node) {
	f.nodes = append(f.nodes, n)
	if f.hooks.OnNodePlaced != nil {
		f.hooks.OnNodePlaced(&NodeEvent{EventBase: newBase(EventNodePlaced), NodeID: n.ID, Title: n.Title, Input: -1})
	}
}

// RemoveNode deletes the node and all of its connections.
func (f *Flow) RemoveNode(n *Node) error {
	idx := f.NodeIndex(n)
	if idx < 0 {
		return ErrUnknownNode
	}
	for _, c := range slices.Clone(f.connections) {
		if c.Out.node == n || c.In.node == n {
			if err := f.Disconnect(c.Out, c.In); err != nil {
				return err
			}
		}
	}
	f.nodes = slices.Delete(f.nodes, idx, idx+1)
	n.flow = nil
	if f.hooks.OnNodeRemoved != nil {
		f.hooks.OnNodeRemoved(&NodeEvent{EventBase: newBase(EventNodeRemoved), NodeID: n.ID, Title: n.Title, Input: -1})
	}
	return nil
}

// orient returns (out, in) for two ports given in either order.
func orient(p1, p2 *Port) (out, in *Port) {
	if p1.IsInput() {
		return p2, p1
	}
	return p1, p2
}

// CheckConnectionValidity reports whether p1 and p2, in either order, may be
// connected. The error carries the reason when they may not.
func (f *Flow) CheckConnectionValidity(p1, p2 *Port) (bool, error) {
	out, in := orient(p1, p2)
	valid, check, err := f.checkConnection(out, in)
	f.logger.Debug(fmt.Sprintf("%s check for %s and %s returned %t", check, in, out, valid))
	if f.hooks.OnConnectionChecked != nil {
		f.hooks.OnConnectionChecked(&ConnectionEvent{
			EventBase: newBase(EventConnectionChecked),
			Out:       out.String(),
			In:        in.String(),
			Check:     check,
			Valid:     valid,
		})
	}
	if err != nil {
		return false, &ConnectionError{From: out.String(), To: in.String(), Err: err}
	}
	return valid, nil
}

func (f *Flow) checkConnection(out, in *Port) (bool, string, error) {
	if out.node == in.node {
		return false, "structure", ErrSameNode
	}
	if out.Direction == in.Direction || out.Type != in.Type {
		return false, "structure", ErrDirection
	}
	if in.Type == PortExec {
		return true, "structure", nil
	}

	if !in.DType.IsUntyped() && !out.DType.IsUntyped() {
		ok, err := in.DType.Accepts(out.DType)
		if err != nil {
			return false, "dtype-dtype", err
		}
		if !ok {
			return false, "dtype-dtype", fmt.Errorf("%w: %s does not accept %s", ErrTypeMismatch, in.DType, out.DType)
		}
		return true, "dtype-dtype", nil
	}

	if in.DType.AcceptsValue(out.Value) {
		return true, "dtype-value", nil
	}
	return false, "dtype-value", fmt.Errorf("%w: %s does not accept value %v", ErrTypeMismatch, in.DType, out.Value)
}

// Connect links an output and an input given in either order. An input keeps
// a single incoming data connection; a new one replaces the old. Failures of
// the resulting node updates are recorded on the nodes.
func (f *Flow) Connect(p1, p2 *Port) (*Connection, error) {
	out, in := orient(p1, p2)
	if _, err := f.CheckConnectionValidity(out, in); err != nil {
		return nil, err
	}
	for _, c := range in.conns {
		if c.Out == out {
			return nil, &ConnectionError{From: out.String(), To: in.String(), Err: ErrDuplicateConnection}
		}
	}
	if in.Type == PortData {
		for _, c := range slices.Clone(in.conns) {
			if err := f.Disconnect(c.Out, c.In); err != nil {
				return nil, err
			}
		}
	}

	c := &Connection{Out: out, In: in}
	f.connections = append(f.connections, c)
	out.conns = append(out.conns, c)
	in.conns = append(in.conns, c)

	in.setDTypeOK()
	f.RecalculateOTypeChecks(in)
	if f.hooks.OnConnected != nil {
		f.hooks.OnConnected(&ConnectionEvent{EventBase: newBase(EventConnected), Out: out.String(), In: in.String(), Valid: true})
	}

	if in.Type == PortData && f.mode == ModeData {
		if err := in.Update(out.Value); err != nil {
			f.logger.Warn("update after connect failed", "connection", c.String(), "error", err)
		}
	}
	return c, nil
}

// Disconnect removes the connection between out and in, given in either order.
func (f *Flow) Disconnect(p1, p2 *Port) error {
	out, in := orient(p1, p2)
	idx := slices.IndexFunc(f.connections, func(c *Connection) bool { return c.Out == out && c.In == in })
	if idx < 0 {
		return &ConnectionError{From: out.String(), To: in.String(), Err: ErrNotConnected}
	}
	c := f.connections[idx]
	f.connections = slices.Delete(f.connections, idx, idx+1)
	out.conns = removeConn(out.conns, c)
	in.conns = removeConn(in.conns, c)

	in.setDTypeOK()
	f.RecalculateOTypeChecks(in, out)
	if f.hooks.OnDisconnected != nil {
		f.hooks.OnDisconnected(&ConnectionEvent{EventBase: newBase(EventDisconnected), Out: out.String(), In: in.String()})
	}
	return nil
}

func removeConn(conns []*Connection, c *Connection) []*Connection {
	return slices.DeleteFunc(conns, func(x *Connection) bool { return x == c })
}

func (f *Flow) nodeUpdated(n *Node, inp int, err error) {
	if err != nil {
		var nodeErr *NodeError
		if errors.As(err, &nodeErr) && nodeErr.Node == n.Title {
			f.logger.Error("node update failed", "node", n.Title, "id", n.ID, "error", nodeErr.Err)
		}
	}
	if f.hooks.OnNodeUpdated != nil {
		f.hooks.OnNodeUpdated(&NodeEvent{
			EventBase: newBase(EventNodeUpdated),
			NodeID:    n.ID,
			Title:     n.Title,
			Input:     inp,
			Batched:   n.Batched(),
			Err:       err,
		})
	}
}
