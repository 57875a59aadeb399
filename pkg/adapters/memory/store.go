package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/ironflow/pkg/codec"
	"github.com/aretw0/ironflow/pkg/domain"
)

// Store implements ports.SessionStore in memory.
// Documents are kept encoded so callers never share state with the store.
// Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	data  map[string][]byte
	codec *codec.Serializer
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithSerializer sets how documents are encoded. The default is JSON.
func WithSerializer(s *codec.Serializer) StoreOption {
	return func(st *Store) { st.codec = s }
}

// NewStore creates a new in-memory store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{data: make(map[string][]byte), codec: codec.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save stores a copy of doc.
func (s *Store) Save(_ context.Context, sessionID string, doc *domain.Document) error {
	b, err := s.codec.Marshal(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = b
	return nil
}

// Load returns a fresh copy of the stored document.
func (s *Store) Load(_ context.Context, sessionID string) (*domain.Document, error) {
	s.mu.RLock()
	b, ok := s.data[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	var doc domain.Document
	if err := s.codec.Unmarshal(b, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Delete removes the document.
func (s *Store) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns the stored session IDs, sorted.
func (s *Store) List(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
