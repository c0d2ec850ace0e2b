package sdf

import (
	"fmt"
	"slices"

	"github.com/signadot/go-sdf/sdfdata"
	"github.com/signadot/go-sdf/sdfpath"
)

// MoveSpec moves the prim or property at from, with its descendants, to
// to. Paths held by the moved specs that point into the moved subtree
// are rewritten to point to the new location.
func (l *Layer) MoveSpec(from, to sdfpath.Path) error {
	return l.edit(func() error { return l.moveSpec(from, to) })
}

func (l *Layer) moveSpec(from, to sdfpath.Path) error {
	if !l.store.HasSpec(from) {
		return fmt.Errorf("%w: %s", ErrSpecNotFound, from)
	}
	t := l.store.SpecType(from)
	switch t {
	case sdfdata.SpecTypePrim, sdfdata.SpecTypeAttribute, sdfdata.SpecTypeRelationship:
	default:
		return fmt.Errorf("%w: cannot move %s spec %s", ErrInvalidPathOperation, t, from)
	}
	if from == to {
		return nil
	}
	if l.store.HasSpec(to) {
		return fmt.Errorf("%w: %s is occupied", ErrNamespaceEditConflict, to)
	}
	if to.HasPrefix(from) {
		return fmt.Errorf("%w: cannot move %s below itself to %s", ErrNamespaceEditConflict, from, to)
	}
	oldParent, field, oldName, err := childSlot(from, t)
	if err != nil {
		return err
	}
	newParent, _, newName, err := childSlot(to, t)
	if err != nil {
		return err
	}
	if err := l.checkParent(newParent, t); err != nil {
		return err
	}
	paths := l.subtree(from)
	moved := make([]sdfpath.Path, len(paths))
	for i, p := range paths {
		np, err := p.ReplacePrefix(from, to)
		if err != nil {
			return err
		}
		if l.store.HasSpec(np) {
			return fmt.Errorf("%w: %s is occupied", ErrNamespaceEditConflict, np)
		}
		moved[i] = np
	}

	for i, p := range paths {
		if err := l.store.MoveSpec(p, moved[i]); err != nil {
			return err
		}
	}
	l.dirty = true
	l.scope.SpecMoved(l, from, to)

	if oldParent == newParent {
		names := slices.Clone(l.names(oldParent, field))
		if i := slices.Index(names, oldName); i >= 0 {
			names[i] = newName
		}
		if err := l.write(oldParent, field, names); err != nil {
			return err
		}
		if err := l.renameInOrder(oldParent, field, oldName, newName); err != nil {
			return err
		}
	} else {
		names := slices.DeleteFunc(slices.Clone(l.names(oldParent, field)), func(n string) bool { return n == oldName })
		if err := l.writeNames(oldParent, field, names); err != nil {
			return err
		}
		if err := l.renameInOrder(oldParent, field, oldName, ""); err != nil {
			return err
		}
		if err := l.write(newParent, field, append(slices.Clone(l.names(newParent, field)), newName)); err != nil {
			return err
		}
	}
	for _, p := range moved {
		if err := l.retarget(p, from, to); err != nil {
			return err
		}
	}
	return nil
}

// retarget rewrites the paths held by the fields of p that point into
// from to point into to. References to other layers are left alone.
func (l *Layer) retarget(p, from, to sdfpath.Path) error {
	fix := func(q sdfpath.Path) sdfpath.Path {
		if r, err := q.ReplacePrefix(from, to); err == nil {
			return r
		}
		return q
	}
	for _, name := range l.store.ListFields(p) {
		v, _ := l.store.ReadField(p, name)
		var nv any
		switch x := v.(type) {
		case sdfdata.PathListOp:
			op := x.Clone()
			if op.ModifyItems(func(q sdfpath.Path) (sdfpath.Path, bool) { return fix(q), true }) {
				nv = op
			}
		case sdfdata.ReferenceListOp:
			op := x.Clone()
			if op.ModifyItems(func(r sdfdata.Reference) (sdfdata.Reference, bool) {
				if r.AssetPath == "" {
					r.PrimPath = fix(r.PrimPath)
				}
				return r, true
			}) {
				nv = op
			}
		case sdfdata.PayloadListOp:
			op := x.Clone()
			if op.ModifyItems(func(r sdfdata.Payload) (sdfdata.Payload, bool) {
				if r.AssetPath == "" {
					r.PrimPath = fix(r.PrimPath)
				}
				return r, true
			}) {
				nv = op
			}
		}
		if nv == nil {
			continue
		}
		if err := l.write(p, name, nv); err != nil {
			return err
		}
	}
	return nil
}
