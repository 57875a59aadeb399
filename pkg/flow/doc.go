/*
Package flow is the node-graph model: nodes placed from templates, typed ports
and the connections between them.

A connection is only made when the input's dtype accepts the output (see
package dtype). Values set on outputs propagate along data connections, and
every input keeps its validity cached so a node only runs when all of its
inputs are ready.

# Key Entities

  - Template: the blueprint a node is placed from (ports, function, doc).
  - Node: a placed template with its own ports and state.
  - Port: a typed input or output. Ready() combines the dtype check with the
    optional ontology check.
  - Connection: an output feeding an input.
  - Flow: owns nodes and connections and enforces the connection rules.

# Batching

Any data input can be batched. A node with batched inputs runs its function
once per batch element, broadcasting the unbatched inputs, and emits batched
outputs.
*/
package flow
