package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/ironflow/pkg/dtype"
)

// FormatVersion is written into every document.
const FormatVersion = "1"

// Document is a saved session.
type Document struct {
	Title        string       `json:"title" msgpack:"title"`
	Version      string       `json:"version" msgpack:"version"`
	SavedAt      time.Time    `json:"saved_at,omitempty" msgpack:"saved_at,omitempty"`
	ActiveScript int          `json:"active_script" msgpack:"active_script"`
	Scripts      []ScriptData `json:"scripts" msgpack:"scripts"`
	// Sealed carries an encrypted document; Scripts is then empty.
	Sealed []byte `json:"sealed,omitempty" msgpack:"sealed,omitempty"`
}

// ScriptData is one script of a session.
type ScriptData struct {
	Title string   `json:"title" msgpack:"title"`
	Flow  FlowData `json:"flow" msgpack:"flow"`
}

// FlowData holds the nodes and connections of a script.
type FlowData struct {
	Mode        string           `json:"algorithm mode" msgpack:"algorithm mode"`
	Nodes       []NodeData       `json:"nodes" msgpack:"nodes"`
	Connections []ConnectionData `json:"connections" msgpack:"connections"`
}

// Position is a node's place on the canvas.
type Position struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
}

// NodeData is a placed node.
type NodeData struct {
	Identifier string         `json:"identifier" msgpack:"identifier"`
	ID         string         `json:"id" msgpack:"id"`
	Title      string         `json:"title" msgpack:"title"`
	Color      string         `json:"color,omitempty" msgpack:"color,omitempty"`
	Pos        Position       `json:"pos" msgpack:"pos"`
	Inputs     []PortData     `json:"inputs" msgpack:"inputs"`
	Outputs    []PortData     `json:"outputs" msgpack:"outputs"`
	State      map[string]any `json:"state,omitempty" msgpack:"state,omitempty"`
}

// PortData is the saved state of a port. Val is only present for unconnected
// data inputs.
type PortData struct {
	Label          string          `json:"label" msgpack:"label"`
	Type           string          `json:"type" msgpack:"type"`
	DType          *dtype.DType    `json:"dtype state,omitempty" msgpack:"dtype state,omitempty"`
	Val            json.RawMessage `json:"val,omitempty" msgpack:"val,omitempty"`
	OTypeNamespace string          `json:"otype_namespace,omitempty" msgpack:"otype_namespace,omitempty"`
	OTypeName      string          `json:"otype_name,omitempty" msgpack:"otype_name,omitempty"`
}

// HasValue reports whether the port carried a saved value.
func (p PortData) HasValue() bool { return len(p.Val) > 0 }

// ConnectionData links output port OutputPort of node Parent to input port
// InputPort of node Connected. Nodes are indices into FlowData.Nodes.
type ConnectionData struct {
	Parent     int `json:"parent node index" msgpack:"parent node index"`
	OutputPort int `json:"output port index" msgpack:"output port index"`
	Connected  int `json:"connected node" msgpack:"connected node"`
	InputPort  int `json:"connected input port index" msgpack:"connected input port index"`
}

// NewDocument creates an empty document.
func NewDocument(title string) *Document {
	return &Document{Title: title, Version: FormatVersion}
}

// Validate checks that every connection refers to existing nodes and ports.
func (d *Document) Validate() error {
	if d.ActiveScript < 0 || (len(d.Scripts) > 0 && d.ActiveScript >= len(d.Scripts)) {
		return fmt.Errorf("%w: active script %d of %d", ErrInvalidDocument, d.ActiveScript, len(d.Scripts))
	}
	for si, s := range d.Scripts {
		nodes := s.Flow.Nodes
		for ci, c := range s.Flow.Connections {
			if c.Parent < 0 || c.Parent >= len(nodes) || c.Connected < 0 || c.Connected >= len(nodes) {
				return fmt.Errorf("%w: script %d connection %d refers to a missing node", ErrInvalidDocument, si, ci)
			}
			if c.OutputPort < 0 || c.OutputPort >= len(nodes[c.Parent].Outputs) {
				return fmt.Errorf("%w: script %d connection %d refers to a missing output", ErrInvalidDocument, si, ci)
			}
			if c.InputPort < 0 || c.InputPort >= len(nodes[c.Connected].Inputs) {
				return fmt.Errorf("%w: script %d connection %d refers to a missing input", ErrInvalidDocument, si, ci)
			}
		}
	}
	return nil
}

// Summary is a short description of a saved session, used for listings.
type Summary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Scripts     int    `json:"scripts"`
	Nodes       int    `json:"nodes"`
	Connections int    `json:"connections"`
}

// Summarize counts the contents of a document.
func (d *Document) Summarize(id string) Summary {
	s := Summary{ID: id, Title: d.Title, Scripts: len(d.Scripts)}
	for _, sc := range d.Scripts {
		s.Nodes += len(sc.Flow.Nodes)
		s.Connections += len(sc.Flow.Connections)
	}
	return s
}
