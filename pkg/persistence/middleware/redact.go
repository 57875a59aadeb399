package middleware

import (
	"context"
	"encoding/json"
	"maps"
	"regexp"
	"slices"

	"github.com/aretw0/ironflow/pkg/domain"
	"github.com/aretw0/ironflow/pkg/ports"
)

// Mask replaces redacted values.
const Mask = "***"

var maskJSON = json.RawMessage(`"` + Mask + `"`)

type redactMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewRedactMiddleware masks, before saving, the values of unconnected inputs
// and the node state entries whose label or key matches one of the patterns.
// The caller's document is left untouched.
func NewRedactMiddleware(patterns []string) Middleware {
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		res[i] = regexp.MustCompile(p)
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &redactMiddleware{next: next, patterns: res}
	}
}

func (m *redactMiddleware) matches(s string) bool {
	return slices.ContainsFunc(m.patterns, func(re *regexp.Regexp) bool { return re.MatchString(s) })
}

func (m *redactMiddleware) Save(ctx context.Context, sessionID string, doc *domain.Document) error {
	cloned := *doc
	cloned.Scripts = make([]domain.ScriptData, len(doc.Scripts))
	for si, sc := range doc.Scripts {
		nodes := make([]domain.NodeData, len(sc.Flow.Nodes))
		for ni, n := range sc.Flow.Nodes {
			n.Inputs = slices.Clone(n.Inputs)
			for pi, p := range n.Inputs {
				if p.HasValue() && m.matches(p.Label) {
					n.Inputs[pi].Val = maskJSON
				}
			}
			if n.State != nil {
				n.State = maps.Clone(n.State)
				for k := range n.State {
					if m.matches(k) {
						n.State[k] = Mask
					}
				}
			}
			nodes[ni] = n
		}
		sc.Flow.Nodes = nodes
		cloned.Scripts[si] = sc
	}
	return m.next.Save(ctx, sessionID, &cloned)
}

func (m *redactMiddleware) Load(ctx context.Context, sessionID string) (*domain.Document, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *redactMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *redactMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
