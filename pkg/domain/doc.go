/*
Package domain contains the persisted form of an ironflow session.

A Document is what session stores save and load: every script with its flow,
the nodes placed in it (template identifier, position, port dtypes and the
values of unconnected inputs) and the connections between them, addressed by
node and port indices. The package is free of I/O so that every store adapter
and the session package can share it.

# Key Entities

  - Document: a session with its scripts.
  - FlowData: the nodes and connections of one script.
  - NodeData / PortData: a placed node and the state of its ports.
  - ConnectionData: an output-to-input link by indices.
*/
package domain
