package flow

import "time"

// EventType defines the category of the event.
type EventType string

const (
	EventConnectionChecked EventType = "connection_checked"
	EventConnected         EventType = "connected"
	EventDisconnected      EventType = "disconnected"
	EventNodePlaced        EventType = "node_placed"
	EventNodeRemoved       EventType = "node_removed"
	EventNodeUpdated       EventType = "node_updated"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

func newBase(t EventType) EventBase {
	return EventBase{Timestamp: time.Now(), Type: t}
}

// ConnectionEvent reports a validity check or a connection change.
type ConnectionEvent struct {
	EventBase
	Out   string `json:"out"`
	In    string `json:"in"`
	Check string `json:"check,omitempty"` // "dtype-dtype", "dtype-value" or "structure"
	Valid bool   `json:"valid"`
}

// NodeEvent reports a node being placed, removed or updated.
type NodeEvent struct {
	EventBase
	NodeID  string `json:"node_id"`
	Title   string `json:"title"`
	Input   int    `json:"input"`
	Batched bool   `json:"batched,omitempty"`
	Err     error  `json:"-"`
}

// Hooks are optional callbacks for flow observability.
type Hooks struct {
	OnConnectionChecked func(*ConnectionEvent)
	OnConnected         func(*ConnectionEvent)
	OnDisconnected      func(*ConnectionEvent)
	OnNodePlaced        func(*NodeEvent)
	OnNodeRemoved       func(*NodeEvent)
	OnNodeUpdated       func(*NodeEvent)
}

// Merge returns hooks calling h then other.
func (h Hooks) Merge(other Hooks) Hooks {
	return Hooks{
		OnConnectionChecked: chain(h.OnConnectionChecked, other.OnConnectionChecked),
		OnConnected:         chain(h.OnConnected, other.OnConnected),
		OnDisconnected:      chain(h.OnDisconnected, other.OnDisconnected),
		OnNodePlaced:        chain(h.OnNodePlaced, other.OnNodePlaced),
		OnNodeRemoved:       chain(h.OnNodeRemoved, other.OnNodeRemoved),
		OnNodeUpdated:       chain(h.OnNodeUpdated, other.OnNodeUpdated),
	}
}

func chain[E any](a, b func(E)) func(E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(e E) {
		a(e)
		b(e)
	}
}
