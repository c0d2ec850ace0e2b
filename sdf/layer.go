package sdf

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/signadot/go-sdf/change"
	"github.com/signadot/go-sdf/sdfdata"
	"github.com/signadot/go-sdf/sdfdiff"
	"github.com/signadot/go-sdf/sdfpath"
	"github.com/signadot/go-sdf/textfmt"
)

// Layer is a tree of specs with an identity. A layer has a single
// writer; readers that must not observe a partial edit should make
// multi-field edits inside one change block.
type Layer struct {
	env     *Env
	id      *identity
	store   sdfdata.Store
	dirty   bool
	canEdit bool
	canSave bool
	scope   *change.Scope[*Layer]
	log     *slog.Logger
}

type layerOptions struct {
	store sdfdata.Store
	scope *change.Scope[*Layer]
}

type LayerOption func(*layerOptions)

// WithStore sets the backing store of the layer. The store content is
// replaced by the layer content when the layer is created or opened.
func WithStore(s sdfdata.Store) LayerOption {
	return func(o *layerOptions) { o.store = s }
}

// WithChangeScope sets the change scope the layer records its edits in.
// The default is the default scope of the Env change manager.
func WithChangeScope(s *change.Scope[*Layer]) LayerOption {
	return func(o *layerOptions) { o.scope = s }
}

func newLayer(env *Env, id *identity, opts []LayerOption) *Layer {
	o := &layerOptions{}
	for _, opt := range opts {
		opt(o)
	}
	l := &Layer{
		env:     env,
		id:      id,
		store:   o.store,
		canEdit: true,
		canSave: true,
		scope:   o.scope,
	}
	if l.scope == nil {
		l.scope = env.changes.DefaultScope()
	}
	l.log = env.log.With("layer", l.Identifier())
	return l
}

// load makes src the content of l.
func (l *Layer) load(src *sdfdata.Mem) error {
	if l.store == nil {
		l.store = src
		return nil
	}
	if err := sdfdata.Copy(l.store, src); err != nil {
		return fmt.Errorf("%w: %s: loading store: %w", ErrOpen, l, err)
	}
	return nil
}

// CreateNew creates an empty layer for identifier and writes it. It fails
// with ErrOpen if a layer with the same identity is open.
func CreateNew(env *Env, identifier string, args map[string]string, opts ...LayerOption) (*Layer, error) {
	id, err := parseIdentity(identifier, args)
	if err != nil {
		return nil, err
	}
	if IsAnonymousIdentifier(id.loc) {
		return nil, fmt.Errorf("%w: %s: anonymous identifiers are made by CreateAnonymous", ErrOpen, id.loc)
	}
	if err := env.locate(id, false); err != nil {
		return nil, err
	}
	if env.layers.get(id.key()) != nil {
		return nil, fmt.Errorf("%w: %s is already open", ErrOpen, id.identifier())
	}
	l := newLayer(env, id, opts)
	if err := l.load(sdfdata.NewMem()); err != nil {
		return nil, err
	}
	if err := l.Save(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	if _, ok := env.layers.insert(id.key(), l); !ok {
		return nil, fmt.Errorf("%w: %s is already open", ErrOpen, id.identifier())
	}
	l.log.Debug("layer created", "path", id.realPath)
	return l, nil
}

// CreateAnonymous creates an empty layer that has no file. Its
// identifier is "anon:<uuid>:<tag>".
func CreateAnonymous(env *Env, tag string, opts ...LayerOption) (*Layer, error) {
	id := &identity{loc: anonymousIdentifier(tag)}
	l := newLayer(env, id, opts)
	if err := l.load(sdfdata.NewMem()); err != nil {
		return nil, err
	}
	env.layers.insert(id.key(), l)
	return l, nil
}

// FindOrOpen returns the open layer with the identity of identifier and
// args, reading it from its file if it is not open.
func FindOrOpen(env *Env, identifier string, args map[string]string, opts ...LayerOption) (*Layer, error) {
	id, err := parseIdentity(identifier, args)
	if err != nil {
		return nil, err
	}
	if err := env.locate(id, true); err != nil {
		return nil, err
	}
	if l := env.layers.get(id.key()); l != nil {
		return l, nil
	}
	if id.realPath == "" {
		return nil, fmt.Errorf("%w: %s: anonymous layer is not open", ErrOpen, id.loc)
	}
	d, err := os.ReadFile(id.realPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOpen, err)
	}
	mem, err := textfmt.Read(d, textfmt.ReadSchema(env.schema))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpen, id.realPath, err)
	}
	l := newLayer(env, id, opts)
	if err := l.load(mem); err != nil {
		return nil, err
	}
	if x, ok := env.layers.insert(id.key(), l); !ok {
		return x, nil
	}
	l.log.Debug("layer opened", "path", id.realPath)
	return l, nil
}

// Find returns the open layer with the identity of identifier and args,
// or nil.
func Find(env *Env, identifier string, args map[string]string) *Layer {
	id, err := parseIdentity(identifier, args)
	if err != nil {
		return nil
	}
	if err := env.locate(id, true); err != nil {
		return nil
	}
	return env.layers.get(id.key())
}

func (l *Layer) Env() *Env { return l.env }

// Identifier returns the identifier of l with its format arguments.
func (l *Layer) Identifier() string { return l.id.identifier() }

// RealPath returns the file of l, or "" for anonymous layers.
func (l *Layer) RealPath() string { return l.id.realPath }

func (l *Layer) IsAnonymous() bool { return l.id.realPath == "" }

// FormatArgs returns a copy of the format arguments of l.
func (l *Layer) FormatArgs() map[string]string { return maps.Clone(l.id.args) }

// DisplayName is the base name of the file of l, or the tag of an
// anonymous layer.
func (l *Layer) DisplayName() string {
	if l.IsAnonymous() {
		rest := strings.TrimPrefix(l.id.loc, anonPrefix)
		_, tag, _ := strings.Cut(rest, ":")
		return tag
	}
	return filepath.Base(l.id.loc)
}

func (l *Layer) String() string { return l.Identifier() }

func (l *Layer) IsDirty() bool { return l.dirty }

// SetPermissionToEdit controls whether l may be edited. Edits of a layer
// without permission fail with ErrPermissionDenied.
func (l *Layer) SetPermissionToEdit(b bool) { l.canEdit = b }

func (l *Layer) PermissionToEdit() bool { return l.canEdit }

// SetPermissionToSave controls whether Save may write l.
func (l *Layer) SetPermissionToSave(b bool) { l.canSave = b }

func (l *Layer) PermissionToSave() bool { return l.canSave }

// SetChangeScope makes l record its edits in s. Layers edited from
// separate goroutines need separate scopes. Changes already pending for
// l stay in the old scope.
func (l *Layer) SetChangeScope(s *change.Scope[*Layer]) { l.scope = s }

// ChangeScope returns the scope l records its edits in.
func (l *Layer) ChangeScope() *change.Scope[*Layer] { return l.scope }

// Save writes l to its file. The file is replaced atomically while
// holding a lock on it.
func (l *Layer) Save() error {
	switch {
	case l.IsAnonymous():
		return fmt.Errorf("%w: %s is anonymous", ErrNotWritable, l)
	case !l.canSave:
		return fmt.Errorf("%w: %s: no permission to save", ErrNotWritable, l)
	}
	text, err := l.ExportToString()
	if err != nil {
		return err
	}
	if err := writeFile(l.id.realPath, text); err != nil {
		return fmt.Errorf("%w: %w", ErrNotWritable, err)
	}
	l.dirty = false
	l.log.Debug("layer saved", "path", l.id.realPath)
	return nil
}

// Export writes l to path without changing its identity.
func (l *Layer) Export(path string, opts ...textfmt.WriteOption) error {
	text, err := l.ExportToString(opts...)
	if err != nil {
		return err
	}
	if err := writeFile(path, text); err != nil {
		return fmt.Errorf("%w: %w", ErrNotWritable, err)
	}
	return nil
}

func writeFile(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock %s: %w", path, err)
	}
	defer lock.Unlock()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(text), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// ExportToString returns the text of l.
func (l *Layer) ExportToString(opts ...textfmt.WriteOption) (string, error) {
	opts = append([]textfmt.WriteOption{textfmt.WriteSchema(l.env.schema)}, opts...)
	return textfmt.WriteString(l.store, opts...)
}

// ImportFromString replaces the content of l with the layer in text. When
// text does not parse, l is left unchanged and the *textfmt.ParseError is
// returned. Observers see the specs and fields that differ.
func (l *Layer) ImportFromString(text string) error {
	if err := l.checkEdit(); err != nil {
		return err
	}
	mem, err := textfmt.Read([]byte(text), textfmt.ReadSchema(l.env.schema))
	if err != nil {
		return err
	}
	return l.replace(mem, false)
}

// Import replaces the content of l with the layer in the file at path.
func (l *Layer) Import(path string) error {
	d, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return l.ImportFromString(string(d))
}

// Reload replaces the content of l with the content of its file and
// marks l clean.
func (l *Layer) Reload() error {
	if l.IsAnonymous() {
		return fmt.Errorf("%w: %s has no file", ErrOpen, l)
	}
	d, err := os.ReadFile(l.id.realPath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrOpen, err)
	}
	mem, err := textfmt.Read(d, textfmt.ReadSchema(l.env.schema))
	if err != nil {
		return err
	}
	if err := l.replace(mem, true); err != nil {
		return err
	}
	l.dirty = false
	return nil
}

// Clear removes every spec and every layer field.
func (l *Layer) Clear() error {
	if err := l.checkEdit(); err != nil {
		return err
	}
	return l.replace(sdfdata.NewMem(), false)
}

// replace makes the content of l equal to src, writing and recording only
// what differs.
func (l *Layer) replace(src sdfdata.Store, reload bool) error {
	deltas := sdfdiff.Diff(l.store, src)
	if len(deltas) == 0 && !reload {
		return nil
	}
	return l.scope.Do(func() error {
		if err := sdfdiff.Apply(l.store, deltas); err != nil {
			return err
		}
		var removed []sdfpath.Path
		for i := range deltas {
			d := &deltas[i]
			switch d.Kind {
			case sdfdiff.SpecAdded:
				l.specAdded(d.Path)
			case sdfdiff.SpecRemoved:
				if !under(d.Path, removed) {
					removed = append(removed, d.Path)
					l.specRemoved(d.Path)
				}
			case sdfdiff.FieldChanged:
				l.fieldChanged(d.Path, d.Field)
			}
		}
		if reload {
			l.scope.LayerReloaded(l)
		}
		return nil
	})
}

func under(p sdfpath.Path, roots []sdfpath.Path) bool {
	for _, r := range roots {
		if p.HasPrefix(r) {
			return true
		}
	}
	return false
}
