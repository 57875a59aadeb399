package otype

import "errors"

var (
	// ErrUnknownNamespace is returned when resolving a reference to an unregistered ontology.
	ErrUnknownNamespace = errors.New("unknown ontology namespace")
	// ErrUnknownTerm is returned when a reference names no input or output of the ontology.
	ErrUnknownTerm = errors.New("unknown ontology term")
	// ErrInvalidOntology is returned when an ontology definition is inconsistent.
	ErrInvalidOntology = errors.New("invalid ontology")
)
