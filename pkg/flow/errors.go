package flow

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeMismatch is returned when the input's dtype rejects the output.
	ErrTypeMismatch = errors.New("incompatible port types")
	// ErrSameNode is returned when connecting two ports of one node.
	ErrSameNode = errors.New("ports belong to the same node")
	// ErrDirection is returned when both ports face the same way or carry different port types.
	ErrDirection = errors.New("connections need one output and one input of the same port type")
	// ErrDuplicateConnection is returned when the connection already exists.
	ErrDuplicateConnection = errors.New("connection already exists")
	// ErrNotConnected is returned when disconnecting ports that are not connected.
	ErrNotConnected = errors.New("ports are not connected")
	// ErrBatchLength is returned when batched inputs of a node differ in length.
	ErrBatchLength = errors.New("not all batch lengths are the same")
	// ErrUnknownNode is returned for nodes that are not part of the flow.
	ErrUnknownNode = errors.New("node not in flow")
	// ErrMissingOutput is returned when a node function omits one of its outputs.
	ErrMissingOutput = errors.New("node function did not return output")
	// ErrCycle is returned when a data update reaches a node that is still
	// updating, or exec signals nest deeper than MaxExecDepth.
	ErrCycle = errors.New("update cycle")
)

// ConnectionError describes a rejected connection.
type ConnectionError struct {
	From string // node.port of the output
	To   string // node.port of the input
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect %s to %s: %v", e.From, e.To, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// NodeError is a failure raised while updating a node.
type NodeError struct {
	Node string
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %s: %v", e.Node, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }
