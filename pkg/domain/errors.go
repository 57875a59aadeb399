package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrInvalidDocument is returned when a document refers to nodes or ports that do not exist.
var ErrInvalidDocument = errors.New("invalid session document")
