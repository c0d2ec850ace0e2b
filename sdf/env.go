package sdf

import (
	"log/slog"

	"github.com/signadot/go-sdf/change"
	"github.com/signadot/go-sdf/resolver"
	"github.com/signadot/go-sdf/sdfdata"
	"github.com/signadot/go-sdf/value"
)

// Env is the process scoped state shared by a set of layers.
type Env struct {
	reg      *value.Registry
	schema   *sdfdata.Schema
	changes  *change.Manager[*Layer]
	resolver resolver.Resolver
	log      *slog.Logger
	layers   *registry
}

type envOptions struct {
	reg      *value.Registry
	resolver resolver.Resolver
	log      *slog.Logger
}

type EnvOption func(*envOptions)

// WithValueRegistry sets the value registry. Types registered on it may
// be used for attributes.
func WithValueRegistry(r *value.Registry) EnvOption {
	return func(o *envOptions) { o.reg = r }
}

// WithResolver sets the resolver locating layer files. The default
// resolves relative identifiers against the working directory.
func WithResolver(r resolver.Resolver) EnvOption {
	return func(o *envOptions) { o.resolver = r }
}

func WithLogger(l *slog.Logger) EnvOption {
	return func(o *envOptions) { o.log = l }
}

// NewEnv returns an Env with an empty layer registry.
func NewEnv(opts ...EnvOption) *Env {
	o := &envOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.reg == nil {
		o.reg = value.NewRegistry()
	}
	if o.resolver == nil {
		o.resolver = resolver.NewFS()
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	return &Env{
		reg:      o.reg,
		schema:   sdfdata.NewSchema(o.reg),
		changes:  change.NewManager[*Layer](change.WithLogger(o.log)),
		resolver: o.resolver,
		log:      o.log,
		layers:   newRegistry(),
	}
}

// Changes returns the change manager of the layers of e. Layers record
// their edits in its default scope unless given another one.
func (e *Env) Changes() *change.Manager[*Layer] { return e.changes }

// NewChangeScope returns a new mutation context for the layers of e.
func (e *Env) NewChangeScope() *change.Scope[*Layer] { return e.changes.NewScope() }

func (e *Env) Registry() *value.Registry { return e.reg }

func (e *Env) Schema() *sdfdata.Schema { return e.schema }

func (e *Env) Resolver() resolver.Resolver { return e.resolver }

func (e *Env) Logger() *slog.Logger { return e.log }

// Layers returns the layers currently open, in no particular order.
func (e *Env) Layers() []*Layer { return e.layers.layers() }

// Close drops every registry entry. Layers still referenced stay usable
// but are no longer found by identifier.
func (e *Env) Close() {
	e.layers.clear()
}
