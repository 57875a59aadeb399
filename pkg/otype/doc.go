// Package otype provides ontological types for node ports.
//
// An Ontology declares concepts and the functions that turn some concepts into
// others. Each function input carries requirements and each output carries the
// conditions it guarantees. An output may transfer requirements it cannot meet
// itself to inputs of the same function, which is how requirements travel
// upstream through a workflow.
//
// The SourceTree of an input enumerates every workflow the ontology knows that
// can produce a value for it.
package otype
