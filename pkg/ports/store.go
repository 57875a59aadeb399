package ports

import (
	"context"

	"github.com/aretw0/ironflow/pkg/domain"
)

// SessionStore defines the interface for persisting session documents.
type SessionStore interface {
	// Save persists the document for a given session ID, replacing any previous one.
	Save(ctx context.Context, sessionID string, doc *domain.Document) error

	// Load retrieves the document for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Document, error)

	// Delete removes the document for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
