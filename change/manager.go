package change

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/signadot/go-sdf/debug"
	"github.com/signadot/go-sdf/sdfpath"
)

// Observer is notified once per batch for each layer changed in it.
type Observer[L comparable] interface {
	LayerChanged(l L, changes *List) error
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc[L comparable] func(L, *List) error

func (f ObserverFunc[L]) LayerChanged(l L, changes *List) error {
	return f(l, changes)
}

// ObserverError collects the errors and panics of observers during one
// dispatch.
type ObserverError struct {
	Errs []error
}

func (e *ObserverError) Error() string {
	return errors.Join(e.Errs...).Error()
}

func (e *ObserverError) Unwrap() []error {
	return e.Errs
}

type options struct {
	log *slog.Logger
}

type Option func(*options)

// WithLogger sets the logger observer failures are reported to.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// Manager holds the observers of layers of type L and the scopes their
// changes are recorded in.
//
// A Scope is one mutation context with its own block depth and pending
// records. Blocks of one scope nest: all records made in the scope while
// any of its blocks is open are delivered once its last open block
// closes. A record made while no block of its scope is open is delivered
// immediately as its own batch. Blocks of different scopes never hold
// back each other's records.
//
// The Manager methods that open blocks and record changes act on its
// default scope.
type Manager[L comparable] struct {
	mu        sync.Mutex
	observers []*Registration[L]
	log       *slog.Logger
	def       *Scope[L]
}

// NewManager returns a manager with no observers and nothing pending.
func NewManager[L comparable](opts ...Option) *Manager[L] {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	m := &Manager[L]{log: o.log}
	m.def = m.NewScope()
	return m
}

// Scope is a mutation context of a Manager.
type Scope[L comparable] struct {
	m       *Manager[L]
	mu      sync.Mutex
	depth   int
	pending map[L]*pending
	order   []L
}

// NewScope returns a scope with nothing pending, notifying the observers
// of m.
func (m *Manager[L]) NewScope() *Scope[L] {
	return &Scope[L]{m: m, pending: map[L]*pending{}}
}

// DefaultScope returns the scope used by the recording methods of m.
func (m *Manager[L]) DefaultScope() *Scope[L] { return m.def }

// Registration is the handle of a registered observer.
type Registration[L comparable] struct {
	m *Manager[L]
	o Observer[L]
}

// Cancel unregisters the observer. It is safe to call more than once and
// from within a notification.
func (r *Registration[L]) Cancel() {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.observers = slices.DeleteFunc(r.m.observers, func(x *Registration[L]) bool {
		return x == r
	})
}

// Register adds o. Observers are notified in registration order.
func (m *Manager[L]) Register(o Observer[L]) *Registration[L] {
	r := &Registration[L]{m: m, o: o}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, r)
	return r
}

// Block is an open change block of a Scope.
type Block[L comparable] struct {
	s      *Scope[L]
	closed bool
}

// OpenBlock opens a change block in the default scope.
func (m *Manager[L]) OpenBlock() *Block[L] { return m.def.OpenBlock() }

// Do runs fn inside a block of the default scope.
func (m *Manager[L]) Do(fn func() error) error { return m.def.Do(fn) }

// InBlock reports whether a block of the default scope is open.
func (m *Manager[L]) InBlock() bool { return m.def.InBlock() }

// FieldChanged records a change of field on the spec at p in the default
// scope.
func (m *Manager[L]) FieldChanged(l L, p sdfpath.Path, field string) { m.def.FieldChanged(l, p, field) }

func (m *Manager[L]) SpecAdded(l L, p sdfpath.Path) { m.def.SpecAdded(l, p) }

func (m *Manager[L]) SpecRemoved(l L, p sdfpath.Path) { m.def.SpecRemoved(l, p) }

func (m *Manager[L]) SpecMoved(l L, from, to sdfpath.Path) { m.def.SpecMoved(l, from, to) }

func (m *Manager[L]) LayerReloaded(l L) { m.def.LayerReloaded(l) }

func (m *Manager[L]) Discard(l L) { m.def.Discard(l) }

// OpenBlock opens a change block. Every block must be closed.
func (s *Scope[L]) OpenBlock() *Block[L] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.depth++
	return &Block[L]{s: s}
}

// Close closes the block. Closing the outermost block of its scope
// notifies observers before returning; the returned error is an
// *ObserverError when any observer failed. Closing an already closed
// block does nothing.
func (b *Block[L]) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	return b.s.closeBlock()
}

// Do runs fn inside a block.
func (s *Scope[L]) Do(fn func() error) error {
	b := s.OpenBlock()
	err := fn()
	return errors.Join(err, b.Close())
}

// InBlock reports whether a block of s is open.
func (s *Scope[L]) InBlock() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.depth > 0
}

func (s *Scope[L]) closeBlock() error {
	s.mu.Lock()
	s.depth--
	if s.depth > 0 {
		s.mu.Unlock()
		return nil
	}
	batch, order := s.pending, s.order
	s.pending, s.order = map[L]*pending{}, nil
	s.mu.Unlock()
	return s.m.dispatch(batch, order)
}

func (m *Manager[L]) dispatch(batch map[L]*pending, order []L) error {
	m.mu.Lock()
	obs := slices.Clone(m.observers)
	m.mu.Unlock()
	var errs []error
	for _, l := range order {
		p := batch[l]
		if p.empty() {
			continue
		}
		list := p.list()
		if list.Len() == 0 && !list.Reloaded {
			continue
		}
		if debug.Changes() {
			debug.Logf("%v %s", l, list)
		}
		for _, r := range obs {
			if err := m.notify(r, l, list); err != nil {
				m.log.Error("change observer failed", "layer", l, "serial", list.Serial.String(), "error", err)
				errs = append(errs, err)
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &ObserverError{Errs: errs}
}

func (m *Manager[L]) notify(r *Registration[L], l L, list *List) (err error) {
	defer func() {
		if x := recover(); x != nil {
			err = fmt.Errorf("observer panic: %v", x)
		}
	}()
	return r.o.LayerChanged(l, list)
}

// record applies fn to the pending changes of l, delivering them at once
// when no block of s is open.
func (s *Scope[L]) record(l L, fn func(*pending)) {
	s.mu.Lock()
	p := s.pending[l]
	if p == nil {
		p = newPending()
		s.pending[l] = p
		s.order = append(s.order, l)
	}
	fn(p)
	implicit := s.depth == 0
	if implicit {
		s.depth++
	}
	s.mu.Unlock()
	if implicit {
		if err := s.closeBlock(); err != nil {
			s.m.log.Warn("change delivered outside a block had observer errors", "error", err)
		}
	}
}

// FieldChanged records a change of field on the spec at p.
func (s *Scope[L]) FieldChanged(l L, p sdfpath.Path, field string) {
	s.record(l, func(pd *pending) { pd.fieldChanged(p, field) })
}

// SpecAdded records the creation of the spec at p.
func (s *Scope[L]) SpecAdded(l L, p sdfpath.Path) {
	s.record(l, func(pd *pending) { pd.specAdded(p) })
}

// SpecRemoved records the removal of the spec at p and its descendants.
func (s *Scope[L]) SpecRemoved(l L, p sdfpath.Path) {
	s.record(l, func(pd *pending) { pd.specRemoved(p) })
}

// SpecMoved records that the spec at from and its descendants moved to to.
func (s *Scope[L]) SpecMoved(l L, from, to sdfpath.Path) {
	s.record(l, func(pd *pending) { pd.specMoved(from, to) })
}

// LayerReloaded records that the content of l was replaced as a whole.
func (s *Scope[L]) LayerReloaded(l L) {
	s.record(l, func(pd *pending) { pd.reloaded = true })
}

// Discard drops everything pending for l in s, as when l is closed.
func (s *Scope[L]) Discard(l L) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, l)
	s.order = slices.DeleteFunc(s.order, func(x L) bool { return x == l })
}
