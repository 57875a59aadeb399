package ironflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/ironflow/internal/logging"
	"github.com/aretw0/ironflow/pkg/adapters/file"
	loamAdapter "github.com/aretw0/ironflow/pkg/adapters/loam"
	"github.com/aretw0/ironflow/pkg/domain"
	"github.com/aretw0/ironflow/pkg/flow"
	"github.com/aretw0/ironflow/pkg/nodes/std"
	"github.com/aretw0/ironflow/pkg/otype"
	"github.com/aretw0/ironflow/pkg/ports"
	"github.com/aretw0/ironflow/pkg/recommend"
	"github.com/aretw0/ironflow/pkg/registry"
	"github.com/aretw0/ironflow/pkg/session"
)

// ErrScriptIndex is returned when activating a script that does not exist.
var ErrScriptIndex = session.ErrScriptIndex

// Package registers a set of templates, e.g. std.Register.
type Package func(*registry.Registry) error

// Ironflow holds a session of scripts together with the node templates and
// ontologies they are built from.
type Ironflow struct {
	session     *session.Session
	active      int
	registry    *registry.Registry
	ontologies  *otype.Registry
	recommender *recommend.Recommender

	logger      *slog.Logger
	hooks       flow.Hooks
	packages    []Package
	nodeDirs    []string
	sessionFile string
}

// Option configures an Ironflow.
type Option func(*Ironflow)

// WithLogger sets the logger handed to every flow.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Ironflow) { i.logger = logger }
}

// WithHooks registers flow observability hooks, e.g. metrics.
func WithHooks(h flow.Hooks) Option {
	return func(i *Ironflow) { i.hooks = i.hooks.Merge(h) }
}

// WithPackages registers extra template packages after the built-in ones.
func WithPackages(pkgs ...Package) Option {
	return func(i *Ironflow) { i.packages = append(i.packages, pkgs...) }
}

// WithNodeDirs registers the templates of Loam repositories at dirs.
func WithNodeDirs(dirs ...string) Option {
	return func(i *Ironflow) { i.nodeDirs = append(i.nodeDirs, dirs...) }
}

// WithOntologies makes the ontologies available to templates and loading.
func WithOntologies(onts ...*otype.Ontology) Option {
	return func(i *Ironflow) {
		for _, o := range onts {
			i.ontologies.Register(o)
		}
	}
}

// WithSessionFile loads the session from path when it exists.
func WithSessionFile(path string) Option {
	return func(i *Ironflow) { i.sessionFile = path }
}

// New creates an Ironflow with the built-in node library and one empty
// script, or the session of WithSessionFile.
func New(title string, opts ...Option) (*Ironflow, error) {
	i := &Ironflow{
		registry:   registry.NewRegistry(),
		ontologies: otype.NewRegistry(),
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.recommender = recommend.New(i.registry, recommend.WithLogger(i.logger))
	i.session = session.New(title, i.flowOptions()...)

	for _, pkg := range append([]Package{std.Register}, i.packages...) {
		if err := pkg(i.registry); err != nil {
			return nil, fmt.Errorf("registering package: %w", err)
		}
	}
	for _, dir := range i.nodeDirs {
		if err := i.RegisterNodesFromDir(dir); err != nil {
			return nil, err
		}
	}

	if i.sessionFile != "" {
		err := i.Load(i.sessionFile)
		if err == nil {
			i.logger.Info("loaded session", "path", i.sessionFile)
			return i, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		i.logger.Info("no session data found, making a new script", "path", i.sessionFile)
	}
	i.CreateScript("")
	return i, nil
}

func (i *Ironflow) flowOptions() []flow.Option {
	return []flow.Option{flow.WithLogger(i.logger), flow.WithHooks(i.hooks)}
}

// Title is the session title.
func (i *Ironflow) Title() string { return i.session.Title }

// Session returns the underlying session.
func (i *Ironflow) Session() *session.Session { return i.session }

// Registry returns the template registry.
func (i *Ironflow) Registry() *registry.Registry { return i.registry }

// Ontologies returns the ontology registry.
func (i *Ironflow) Ontologies() *otype.Registry { return i.ontologies }

// NScripts is the number of scripts.
func (i *Ironflow) NScripts() int { return len(i.session.Scripts) }

// ActiveScriptIndex is the index of the active script.
func (i *Ironflow) ActiveScriptIndex() int { return i.active }

// SetActiveScript activates script idx. Negative indices count from the end.
func (i *Ironflow) SetActiveScript(idx int) error {
	n := i.NScripts()
	if idx >= n || n == 0 {
		return fmt.Errorf("%w: attempted to activate script %d, but there are only %d available", ErrScriptIndex, idx, n)
	}
	i.active = ((idx % n) + n) % n
	return nil
}

// Script returns the active script.
func (i *Ironflow) Script() *session.Script { return i.session.Scripts[i.active] }

// Flow returns the flow of the active script.
func (i *Ironflow) Flow() *flow.Flow { return i.Script().Flow }

// NextAutoScriptName is the first free name of the form script_N.
func (i *Ironflow) NextAutoScriptName() string {
	for n := 0; ; n++ {
		name := fmt.Sprintf("script_%d", n)
		if i.session.ScriptIndex(name) < 0 {
			return name
		}
	}
}

// CreateScript appends a script and activates it. An empty title picks
// NextAutoScriptName.
func (i *Ironflow) CreateScript(title string) *session.Script {
	if title == "" {
		title = i.NextAutoScriptName()
	}
	sc := i.session.CreateScript(title)
	i.active = i.NScripts() - 1
	return sc
}

// DeleteScript removes the active script and activates the one before it,
// wrapping to the last. Removing the only script replaces it with a new one.
func (i *Ironflow) DeleteScript() error {
	last := i.active
	if err := i.session.DeleteScript(last); err != nil {
		return err
	}
	if i.NScripts() == 0 {
		i.CreateScript("")
		return nil
	}
	return i.SetActiveScript(last - 1)
}

// RenameScript renames the active script. It reports false for empty or
// taken names.
func (i *Ironflow) RenameScript(name string) bool {
	return i.session.RenameScript(i.active, name)
}

// Serialize captures the session as a document.
func (i *Ironflow) Serialize() (*domain.Document, error) {
	doc, err := i.session.Serialize()
	if err != nil {
		return nil, err
	}
	doc.ActiveScript = i.active
	return doc, nil
}

// LoadFromData replaces every script with those of doc and activates the
// document's active script.
func (i *Ironflow) LoadFromData(doc *domain.Document) error {
	s, err := session.Load(doc, i.registry,
		session.WithOntologies(i.ontologies),
		session.WithFlowOptions(i.flowOptions()...),
		session.WithLoadLogger(i.logger),
	)
	if err != nil {
		return err
	}
	if len(s.Scripts) == 0 {
		return fmt.Errorf("%w: no scripts", domain.ErrInvalidDocument)
	}
	i.session = s
	i.active = doc.ActiveScript
	return nil
}

// Save writes the session to path as indented JSON.
func (i *Ironflow) Save(path string) error {
	doc, err := i.Serialize()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	return file.WriteAtomic(path, data)
}

// Load replaces the session with the one saved at path.
func (i *Ironflow) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidDocument, path, err)
	}
	return i.LoadFromData(&doc)
}

// SaveTo stores the session under id.
func (i *Ironflow) SaveTo(ctx context.Context, store ports.SessionStore, id string) error {
	doc, err := i.Serialize()
	if err != nil {
		return err
	}
	return store.Save(ctx, id, doc)
}

// LoadFrom replaces the session with the one stored under id.
func (i *Ironflow) LoadFrom(ctx context.Context, store ports.SessionStore, id string) error {
	doc, err := store.Load(ctx, id)
	if err != nil {
		return err
	}
	return i.LoadFromData(doc)
}

// RegisterNode adds a template under group, replacing one with the same
// title. Placed nodes keep the template they were placed from.
func (i *Ironflow) RegisterNode(t *flow.Template, group string) error {
	return i.registry.Register(t, group)
}

// RegisterNodes adds several templates under group.
func (i *Ironflow) RegisterNodes(group string, templates ...*flow.Template) error {
	for _, t := range templates {
		if err := i.RegisterNode(t, group); err != nil {
			return err
		}
	}
	return nil
}

// RegisterNodesFromDir registers the templates of the Loam repository at
// dir. Functions the documents name must already be registered.
func (i *Ironflow) RegisterNodesFromDir(dir string) error {
	loader, err := loamAdapter.Open(dir, i.registry, loamAdapter.WithOntologies(i.ontologies))
	if err != nil {
		return err
	}
	tpls, err := loader.Templates()
	if err != nil {
		return fmt.Errorf("loading templates from %s: %w", dir, err)
	}
	for _, t := range tpls {
		if err := i.RegisterNode(t, t.Group); err != nil {
			return err
		}
	}
	i.logger.Debug("registered templates", "dir", dir, "count", len(tpls))
	return nil
}

// RegisterFunction names a node function for template documents.
func (i *Ironflow) RegisterFunction(name string, fn flow.NodeFunction) {
	i.registry.RegisterFunction(name, fn)
}

// RegisterUpdate names an update function for template documents.
func (i *Ironflow) RegisterUpdate(name string, fn flow.UpdateFunc) {
	i.registry.RegisterUpdate(name, fn)
}

// CreateNode places the template with the given identifier in the active flow.
func (i *Ironflow) CreateNode(id string, x, y float64) (*flow.Node, error) {
	t, err := i.registry.Lookup(id)
	if err != nil {
		return nil, err
	}
	return i.Flow().CreateNode(t, x, y), nil
}

// Recommend lists the templates that can be connected to p.
func (i *Ironflow) Recommend(p *flow.Port) ([]recommend.Recommendation, error) {
	return i.recommender.For(p)
}
