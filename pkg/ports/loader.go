package ports

import (
	"context"
	"errors"

	"github.com/aretw0/ironflow/pkg/flow"
)

// ErrTemplateNotFound is returned by loaders for unknown template identifiers.
var ErrTemplateNotFound = errors.New("template not found")

// TemplateLoader defines how node templates are retrieved.
// This allows the template source (Loam, memory, plugins) to be decoupled.
type TemplateLoader interface {
	// GetTemplate retrieves a template by its identifier ("group.title").
	// Returns ErrTemplateNotFound when the identifier is unknown.
	GetTemplate(id string) (*flow.Template, error)

	// ListTemplates returns the identifiers of all available templates.
	ListTemplates() ([]string, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying templates change.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
