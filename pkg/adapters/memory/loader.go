package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/ironflow/pkg/flow"
	"github.com/aretw0/ironflow/pkg/ports"
)

// Loader implements ports.TemplateLoader over templates held in memory.
type Loader struct {
	mu        sync.RWMutex
	templates map[string]*flow.Template
}

// NewLoader creates a loader holding the given templates, keyed by identifier.
func NewLoader(templates ...*flow.Template) *Loader {
	l := &Loader{templates: make(map[string]*flow.Template, len(templates))}
	for _, t := range templates {
		l.Add(t)
	}
	return l
}

// Add stores t, replacing a template with the same identifier.
func (l *Loader) Add(t *flow.Template) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.templates[t.Identifier()] = t
}

// GetTemplate returns the template with the given identifier.
func (l *Loader) GetTemplate(id string) (*flow.Template, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.templates[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrTemplateNotFound, id)
	}
	return t, nil
}

// ListTemplates returns all identifiers, sorted.
func (l *Loader) ListTemplates() ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.templates))
	for id := range l.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
