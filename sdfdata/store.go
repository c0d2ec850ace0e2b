package sdfdata

import (
	"errors"
	"fmt"
	"reflect"
	"slices"

	"github.com/signadot/go-sdf/sdfpath"
)

var (
	ErrUnknownField = errors.New("unknown field")
	ErrNoSpec       = errors.New("no spec at path")
	ErrSpecExists   = errors.New("spec exists")
)

// Store holds the specs and fields of one layer. Reads never fail;
// implementations backed by external storage keep the data in memory and
// write through.
//
// Stores do not check spec hierarchy or field schema. Values passed to
// WriteField are owned by the store afterwards and values returned by
// ReadField must not be modified.
type Store interface {
	CreateSpec(p sdfpath.Path, t SpecType) error
	HasSpec(p sdfpath.Path) bool
	SpecType(p sdfpath.Path) SpecType
	// EraseSpec removes the spec at p with its fields, but not its
	// descendants.
	EraseSpec(p sdfpath.Path) error
	// MoveSpec moves the spec at from and its fields to to.
	MoveSpec(from, to sdfpath.Path) error
	// VisitSpecs calls fn for every spec in path order until fn returns
	// false.
	VisitSpecs(fn func(sdfpath.Path, SpecType) bool)

	ReadField(p sdfpath.Path, name string) (any, bool)
	WriteField(p sdfpath.Path, name string, v any) error
	EraseField(p sdfpath.Path, name string) error
	// ListFields returns the names of the fields set on p, sorted.
	ListFields(p sdfpath.Path) []string
}

// FieldEqual reports whether two field values are equal. List ops compare
// by their sub-lists; other values compare deeply.
func FieldEqual(a, b any) bool {
	switch x := a.(type) {
	case TokenListOp:
		y, ok := b.(TokenListOp)
		return ok && x.Equal(y)
	case PathListOp:
		y, ok := b.(PathListOp)
		return ok && x.Equal(y)
	case ReferenceListOp:
		y, ok := b.(ReferenceListOp)
		return ok && x.Equal(y)
	case PayloadListOp:
		y, ok := b.(PayloadListOp)
		return ok && x.Equal(y)
	}
	return reflect.DeepEqual(a, b)
}

// Copy replaces the content of dst with the content of src.
func Copy(dst, src Store) error {
	var old []sdfpath.Path
	dst.VisitSpecs(func(p sdfpath.Path, _ SpecType) bool {
		old = append(old, p)
		return true
	})
	for i := len(old) - 1; i >= 0; i-- {
		if err := dst.EraseSpec(old[i]); err != nil {
			return err
		}
	}
	var err error
	src.VisitSpecs(func(p sdfpath.Path, t SpecType) bool {
		if err = dst.CreateSpec(p, t); err != nil {
			return false
		}
		for _, name := range src.ListFields(p) {
			v, _ := src.ReadField(p, name)
			if err = dst.WriteField(p, name, v); err != nil {
				err = fmt.Errorf("copying %s %s: %w", p, name, err)
				return false
			}
		}
		return true
	})
	return err
}

// Equal reports whether two stores hold the same specs and fields.
func Equal(a, b Store) bool {
	var pa, pb []sdfpath.Path
	a.VisitSpecs(func(p sdfpath.Path, _ SpecType) bool { pa = append(pa, p); return true })
	b.VisitSpecs(func(p sdfpath.Path, _ SpecType) bool { pb = append(pb, p); return true })
	if len(pa) != len(pb) {
		return false
	}
	for i, p := range pa {
		if pb[i] != p || a.SpecType(p) != b.SpecType(p) {
			return false
		}
		fa, fb := a.ListFields(p), b.ListFields(p)
		if !slices.Equal(fa, fb) {
			return false
		}
		for _, name := range fa {
			va, _ := a.ReadField(p, name)
			vb, _ := b.ReadField(p, name)
			if !FieldEqual(va, vb) {
				return false
			}
		}
	}
	return true
}
