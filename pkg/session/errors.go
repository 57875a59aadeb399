package session

import (
	"errors"

	"github.com/aretw0/ironflow/pkg/domain"
)

var (
	// ErrUnknownTemplate is returned by Load when a node's identifier cannot be resolved.
	ErrUnknownTemplate = errors.New("unknown node template")
	// ErrScriptIndex is returned for script indices outside the session.
	ErrScriptIndex = errors.New("script index out of range")
	// ErrSessionNotFound aliases domain.ErrSessionNotFound for callers of the Manager.
	ErrSessionNotFound = domain.ErrSessionNotFound
)
