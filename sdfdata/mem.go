package sdfdata

import (
	"fmt"
	"maps"
	"slices"
	"sort"

	"github.com/signadot/go-sdf/sdfpath"
)

type memSpec struct {
	typ    SpecType
	fields map[string]any
}

// Mem is the in-memory Store. It is not safe for concurrent mutation.
type Mem struct {
	specs map[sdfpath.Path]*memSpec
}

var _ Store = (*Mem)(nil)

// NewMem returns a store holding only the pseudo root.
func NewMem() *Mem {
	m := &Mem{specs: map[sdfpath.Path]*memSpec{}}
	m.specs[sdfpath.AbsoluteRoot()] = &memSpec{typ: SpecTypePseudoRoot, fields: map[string]any{}}
	return m
}

func (m *Mem) CreateSpec(p sdfpath.Path, t SpecType) error {
	if _, ok := m.specs[p]; ok {
		return fmt.Errorf("%w: %s", ErrSpecExists, p)
	}
	m.specs[p] = &memSpec{typ: t, fields: map[string]any{}}
	return nil
}

func (m *Mem) HasSpec(p sdfpath.Path) bool {
	_, ok := m.specs[p]
	return ok
}

func (m *Mem) SpecType(p sdfpath.Path) SpecType {
	if s, ok := m.specs[p]; ok {
		return s.typ
	}
	return SpecTypeUnknown
}

func (m *Mem) EraseSpec(p sdfpath.Path) error {
	if _, ok := m.specs[p]; !ok {
		return fmt.Errorf("%w: %s", ErrNoSpec, p)
	}
	delete(m.specs, p)
	return nil
}

func (m *Mem) MoveSpec(from, to sdfpath.Path) error {
	s, ok := m.specs[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSpec, from)
	}
	if _, ok := m.specs[to]; ok {
		return fmt.Errorf("%w: %s", ErrSpecExists, to)
	}
	delete(m.specs, from)
	m.specs[to] = s
	return nil
}

func (m *Mem) VisitSpecs(fn func(sdfpath.Path, SpecType) bool) {
	paths := slices.SortedFunc(maps.Keys(m.specs), sdfpath.Compare)
	for _, p := range paths {
		s, ok := m.specs[p]
		if !ok {
			continue
		}
		if !fn(p, s.typ) {
			return
		}
	}
}

func (m *Mem) ReadField(p sdfpath.Path, name string) (any, bool) {
	s, ok := m.specs[p]
	if !ok {
		return nil, false
	}
	v, ok := s.fields[name]
	return v, ok
}

func (m *Mem) WriteField(p sdfpath.Path, name string, v any) error {
	s, ok := m.specs[p]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSpec, p)
	}
	s.fields[name] = v
	return nil
}

func (m *Mem) EraseField(p sdfpath.Path, name string) error {
	s, ok := m.specs[p]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoSpec, p)
	}
	delete(s.fields, name)
	return nil
}

func (m *Mem) ListFields(p sdfpath.Path) []string {
	s, ok := m.specs[p]
	if !ok {
		return nil
	}
	res := make([]string, 0, len(s.fields))
	for k := range s.fields {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}

// Len returns the number of specs, including the pseudo root.
func (m *Mem) Len() int { return len(m.specs) }
