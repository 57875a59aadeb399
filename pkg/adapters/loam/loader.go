package loam

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/ironflow/pkg/dtype"
	"github.com/aretw0/ironflow/pkg/flow"
	"github.com/aretw0/ironflow/pkg/otype"
	"github.com/aretw0/ironflow/pkg/ports"
	"github.com/aretw0/ironflow/pkg/registry"
	"github.com/aretw0/loam"
	"github.com/mitchellh/mapstructure"
)

// ErrInvalidTemplate is returned for template documents that cannot be built.
var ErrInvalidTemplate = errors.New("invalid template document")

// Resolver supplies the Go functions template documents refer to by name.
// *registry.Registry implements it.
type Resolver interface {
	Function(name string) (flow.NodeFunction, error)
	Update(name string) (flow.UpdateFunc, error)
}

// Loader adapts a Loam repository of markdown template documents to
// ports.TemplateLoader.
type Loader struct {
	Repo       *loam.TypedRepository[TemplateMetadata]
	resolver   Resolver
	ontologies *otype.Registry
}

// Option configures a Loader.
type Option func(*Loader)

// WithOntologies resolves port otype references against reg.
func WithOntologies(reg *otype.Registry) Option {
	return func(l *Loader) { l.ontologies = reg }
}

// New creates a Loam adapter resolving functions through resolver.
func New(repo *loam.TypedRepository[TemplateMetadata], resolver Resolver, opts ...Option) *Loader {
	l := &Loader{Repo: repo, resolver: resolver}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Open initializes a read-only Loam repository at dir.
func Open(dir string, resolver Resolver, opts ...Option) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[TemplateMetadata](repo), resolver, opts...), nil
}

// identify derives "group.title" from the metadata, falling back to the
// document path: "math/scale.md" is template "scale" in group "math".
func identify(docID string, meta TemplateMetadata) (group, title string) {
	rel := trimExtension(docID)
	dir, base := path.Split(rel)
	title = meta.Title
	if title == "" {
		title = base
	}
	group = meta.Group
	if group == "" {
		group = strings.ReplaceAll(strings.Trim(dir, "/"), "/", "_")
	}
	if group == "" {
		group = registry.DefaultGroup
	}
	return group, title
}

func identifier(group, title string) string { return group + "." + title }

// ListTemplates implements ports.TemplateLoader.
func (l *Loader) ListTemplates() ([]string, error) {
	_, ids, err := l.index(context.Background())
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// index maps template identifiers to document IDs, failing on collisions.
func (l *Loader) index(ctx context.Context) (map[string]string, []string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string, len(docs))
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		id := identifier(identify(doc.ID, doc.Data))
		if existing, ok := seen[id]; ok {
			return nil, nil, fmt.Errorf("collision detected: template '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return seen, ids, nil
}

// GetTemplate implements ports.TemplateLoader.
func (l *Loader) GetTemplate(id string) (*flow.Template, error) {
	ctx := context.Background()
	docs, _, err := l.index(ctx)
	if err != nil {
		return nil, err
	}
	docID, ok := docs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ports.ErrTemplateNotFound, id)
	}
	doc, err := l.Repo.Get(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", docID, err)
	}

	t, err := l.build(doc.ID, doc.Data, doc.Content)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrInvalidTemplate, docID, err)
	}
	return t, nil
}

// Templates builds every template in the repository.
func (l *Loader) Templates() ([]*flow.Template, error) {
	ids, err := l.ListTemplates()
	if err != nil {
		return nil, err
	}
	tpls := make([]*flow.Template, 0, len(ids))
	for _, id := range ids {
		t, err := l.GetTemplate(id)
		if err != nil {
			return nil, err
		}
		tpls = append(tpls, t)
	}
	return tpls, nil
}

func (l *Loader) build(docID string, meta TemplateMetadata, content string) (*flow.Template, error) {
	group, title := identify(docID, meta)
	t := &flow.Template{
		Title:   title,
		Group:   group,
		Color:   meta.Color,
		Doc:     strings.TrimSpace(content),
		Version: meta.Version,
	}

	var errs []error
	for _, pm := range meta.Inputs {
		spec, err := l.port(pm, true)
		if err != nil {
			errs = append(errs, fmt.Errorf("input %q: %w", pm.Label, err))
			continue
		}
		t.Inputs = append(t.Inputs, spec)
	}
	for _, pm := range meta.Outputs {
		spec, err := l.port(pm, false)
		if err != nil {
			errs = append(errs, fmt.Errorf("output %q: %w", pm.Label, err))
			continue
		}
		t.Outputs = append(t.Outputs, spec)
	}
	if err := l.resolve(t, meta); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return t, nil
}

func (l *Loader) resolve(t *flow.Template, meta TemplateMetadata) error {
	if meta.Update == "" && meta.Function == "" {
		return nil
	}
	if l.resolver == nil {
		return fmt.Errorf("no resolver for function %q", meta.Function+meta.Update)
	}
	if meta.Update != "" {
		fn, err := l.resolver.Update(meta.Update)
		if err != nil {
			return err
		}
		t.Update = fn
		return nil
	}
	fn, err := l.resolver.Function(meta.Function)
	if err != nil {
		return err
	}
	t.Func = fn
	return nil
}

func (l *Loader) port(pm PortMetadata, input bool) (flow.PortSpec, error) {
	spec := flow.PortSpec{Label: pm.Label, Type: flow.PortData, Value: dtype.Normalize(pm.Value)}
	switch pm.Type {
	case "", string(flow.PortData):
	case string(flow.PortExec):
		spec.Type = flow.PortExec
		return spec, nil
	default:
		return spec, fmt.Errorf("unknown port type %q", pm.Type)
	}

	dt, err := decodeDType(pm.DType)
	if err != nil {
		return spec, err
	}
	spec.DType = dt

	if pm.OType != "" {
		if l.ontologies == nil {
			return spec, fmt.Errorf("otype %q needs an ontology", pm.OType)
		}
		term, err := l.ontologies.ResolveRef(pm.OType)
		if err != nil {
			return spec, err
		}
		_, isInput := term.(*otype.Input)
		if isInput != input {
			return spec, fmt.Errorf("otype %q is on the wrong side", pm.OType)
		}
		spec.OType = term
	}
	return spec, nil
}

var constructors = map[dtype.Kind]func(...dtype.Option) *dtype.DType{
	dtype.KindUntyped: dtype.Untyped,
	dtype.KindData:    dtype.Data,
	dtype.KindInteger: dtype.Integer,
	dtype.KindFloat:   dtype.Float,
	dtype.KindBoolean: dtype.Boolean,
	dtype.KindString:  dtype.String,
	dtype.KindList:    dtype.List,
}

// decodeDType builds a dtype from its frontmatter block, starting from the
// kind's constructor so unset fields keep their usual defaults.
func decodeDType(raw map[string]any) (*dtype.DType, error) {
	if len(raw) == 0 {
		return dtype.Untyped(), nil
	}
	var m DTypeMetadata
	if err := mapstructure.Decode(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to decode dtype: %w", err)
	}
	kind := dtype.KindUntyped
	if m.Kind != "" {
		k, err := dtype.KindFromString(m.Kind)
		if err != nil {
			return nil, err
		}
		kind = k
	}

	var opts []dtype.Option
	if _, ok := raw["default"]; ok {
		opts = append(opts, dtype.WithDefault(dtype.Normalize(m.Default)))
	}
	if m.Doc != "" {
		opts = append(opts, dtype.WithDoc(m.Doc))
	}
	if len(m.Classes) > 0 {
		opts = append(opts, dtype.WithClasses(m.Classes...))
	}
	if m.AllowNone {
		opts = append(opts, dtype.AllowNone())
	}
	if m.Batched {
		opts = append(opts, dtype.Batched())
	}
	if m.Min != nil && m.Max != nil {
		opts = append(opts, dtype.WithBounds(*m.Min, *m.Max))
	}
	if m.Decimals > 0 {
		opts = append(opts, dtype.WithDecimals(m.Decimals))
	}
	if m.Size != "" {
		opts = append(opts, dtype.WithSize(m.Size))
	}

	var d *dtype.DType
	if kind == dtype.KindChoice {
		items := make([]any, len(m.Items))
		for i, it := range m.Items {
			items[i] = dtype.Normalize(it)
		}
		d = dtype.Choice(items, opts...)
	} else {
		d = constructors[kind](opts...)
	}
	d.Default = d.Coerce(d.Default)
	return d, nil
}

func trimExtension(id string) string {
	id = filepath.ToSlash(id)
	return strings.TrimSuffix(id, path.Ext(id))
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()
	return ch, nil
}
