package sdf

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/signadot/go-sdf/change"
	"github.com/signadot/go-sdf/sdfdata"
	"github.com/signadot/go-sdf/sdfpath"
	"github.com/signadot/go-sdf/value"
)

// allowedParents lists the spec types each spec type may be a child of.
var allowedParents = map[sdfdata.SpecType][]sdfdata.SpecType{
	sdfdata.SpecTypePrim:         {sdfdata.SpecTypePseudoRoot, sdfdata.SpecTypePrim, sdfdata.SpecTypeVariant},
	sdfdata.SpecTypeAttribute:    {sdfdata.SpecTypePrim, sdfdata.SpecTypeVariant},
	sdfdata.SpecTypeRelationship: {sdfdata.SpecTypePrim, sdfdata.SpecTypeVariant},
	sdfdata.SpecTypeVariantSet:   {sdfdata.SpecTypePrim, sdfdata.SpecTypeVariant},
	sdfdata.SpecTypeVariant:      {sdfdata.SpecTypeVariantSet},
}

var childFields = []string{
	sdfdata.FieldPrimChildren,
	sdfdata.FieldProperties,
	sdfdata.FieldVariantSetChildren,
	sdfdata.FieldVariantChildren,
}

// childSlot returns the parent of a spec of type t at p, the children
// field of the parent listing it and the name it is listed under. The
// parent of a variant is its variant set.
func childSlot(p sdfpath.Path, t sdfdata.SpecType) (sdfpath.Path, string, string, error) {
	bad := func() (sdfpath.Path, string, string, error) {
		return sdfpath.Path{}, "", "", fmt.Errorf("%w: %s cannot hold a %s spec", ErrInvalidPathOperation, p, t)
	}
	if !p.IsAbsolute() {
		return bad()
	}
	switch t {
	case sdfdata.SpecTypePrim:
		if p.Kind() != sdfpath.PrimKind {
			return bad()
		}
		return p.Parent(), sdfdata.FieldPrimChildren, p.Name(), nil
	case sdfdata.SpecTypeAttribute, sdfdata.SpecTypeRelationship:
		if p.Kind() != sdfpath.PropertyKind {
			return bad()
		}
		return p.Parent(), sdfdata.FieldProperties, p.Name(), nil
	case sdfdata.SpecTypeVariantSet:
		set, sel := p.VariantSelection()
		if p.Kind() != sdfpath.VariantSelectionKind || sel != "" {
			return bad()
		}
		return p.Parent(), sdfdata.FieldVariantSetChildren, set, nil
	case sdfdata.SpecTypeVariant:
		set, sel := p.VariantSelection()
		if p.Kind() != sdfpath.VariantSelectionKind || sel == "" {
			return bad()
		}
		sp, err := p.Parent().AppendVariantSelection(set, "")
		if err != nil {
			return bad()
		}
		return sp, sdfdata.FieldVariantChildren, sel, nil
	}
	return bad()
}

// childPath is the path of the child listed as name in field of parent.
func childPath(parent sdfpath.Path, field, name string) (sdfpath.Path, error) {
	switch field {
	case sdfdata.FieldPrimChildren:
		return parent.AppendChild(name)
	case sdfdata.FieldProperties:
		return parent.AppendProperty(name)
	case sdfdata.FieldVariantSetChildren:
		return parent.AppendVariantSelection(name, "")
	case sdfdata.FieldVariantChildren:
		set, _ := parent.VariantSelection()
		return parent.Parent().AppendVariantSelection(set, name)
	}
	return sdfpath.Path{}, fmt.Errorf("%w: %q is not a children field", ErrUnknownField, field)
}

func (l *Layer) names(p sdfpath.Path, field string) []string {
	v, _ := l.store.ReadField(p, field)
	names, _ := v.([]string)
	return names
}

func (l *Layer) children(p sdfpath.Path, field string) []sdfpath.Path {
	var res []sdfpath.Path
	for _, name := range l.names(p, field) {
		c, err := childPath(p, field, name)
		if err == nil && l.store.HasSpec(c) {
			res = append(res, c)
		}
	}
	return res
}

// subtree returns p and its descendants, parents before children.
func (l *Layer) subtree(p sdfpath.Path) []sdfpath.Path {
	res := []sdfpath.Path{p}
	for _, f := range childFields {
		for _, c := range l.children(p, f) {
			res = append(res, l.subtree(c)...)
		}
	}
	return res
}

func (l *Layer) checkEdit() error {
	if !l.canEdit {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, l)
	}
	return nil
}

// edit runs fn in a change block after checking permission. fn validates
// before it writes anything.
func (l *Layer) edit(fn func() error) error {
	if err := l.checkEdit(); err != nil {
		return err
	}
	return l.scope.Do(fn)
}

func (l *Layer) fieldChanged(p sdfpath.Path, name string) {
	l.dirty = true
	l.scope.FieldChanged(l, p, name)
}

func (l *Layer) specAdded(p sdfpath.Path) {
	l.dirty = true
	l.scope.SpecAdded(l, p)
}

func (l *Layer) specRemoved(p sdfpath.Path) {
	l.dirty = true
	l.scope.SpecRemoved(l, p)
}

func (l *Layer) write(p sdfpath.Path, name string, v any) error {
	if err := l.store.WriteField(p, name, v); err != nil {
		return err
	}
	l.fieldChanged(p, name)
	return nil
}

func (l *Layer) erase(p sdfpath.Path, name string) error {
	if err := l.store.EraseField(p, name); err != nil {
		return err
	}
	l.fieldChanged(p, name)
	return nil
}

// writeNames writes a children or order field, erasing it when empty.
func (l *Layer) writeNames(p sdfpath.Path, field string, names []string) error {
	if len(names) == 0 {
		return l.erase(p, field)
	}
	return l.write(p, field, names)
}

// checkParent verifies that a spec of type t may be created below parent.
func (l *Layer) checkParent(parent sdfpath.Path, t sdfdata.SpecType) error {
	if !l.store.HasSpec(parent) {
		return fmt.Errorf("%w: no spec at %s", ErrInvalidParent, parent)
	}
	if pt := l.store.SpecType(parent); !slices.Contains(allowedParents[t], pt) {
		return fmt.Errorf("%w: a %s spec cannot be below a %s spec at %s", ErrInvalidParent, t, pt, parent)
	}
	return nil
}

// CreateSpec creates a spec of type t at p and lists it in its parent.
// Prims get the specifier over and relationships are non-custom and
// varying. Attributes need a value type, so they are created with
// CreateAttributeSpec.
func (l *Layer) CreateSpec(p sdfpath.Path, t sdfdata.SpecType) (Spec, error) {
	switch t {
	case sdfdata.SpecTypePrim:
		return l.create(p, t, func() error {
			return l.write(p, sdfdata.FieldSpecifier, sdfdata.SpecifierOver)
		})
	case sdfdata.SpecTypeRelationship:
		return l.create(p, t, func() error {
			return l.writeProperty(p, sdfdata.VariabilityVarying, false, "")
		})
	case sdfdata.SpecTypeAttribute:
		if _, _, _, err := childSlot(p, t); err != nil {
			return Spec{}, err
		}
		return Spec{}, fmt.Errorf("%w: attribute %s has no type, use CreateAttributeSpec", ErrUnknownType, p)
	}
	return l.create(p, t, nil)
}

func (l *Layer) createSpec(p sdfpath.Path, t sdfdata.SpecType) error {
	parent, field, name, err := childSlot(p, t)
	if err != nil {
		return err
	}
	if l.store.HasSpec(p) {
		return fmt.Errorf("%w: %s", ErrDuplicateSpec, p)
	}
	if err := l.checkParent(parent, t); err != nil {
		return err
	}
	if err := l.store.CreateSpec(p, t); err != nil {
		return err
	}
	l.specAdded(p)
	return l.write(parent, field, append(slices.Clone(l.names(parent, field)), name))
}

// CreatePrimSpec creates the prim name below parent. An empty typeName
// leaves the prim untyped.
func (l *Layer) CreatePrimSpec(parent sdfpath.Path, name string, spec sdfdata.Specifier, typeName string) (Spec, error) {
	p, err := parent.AppendChild(name)
	if err != nil {
		return Spec{}, err
	}
	return l.create(p, sdfdata.SpecTypePrim, func() error {
		if err := l.write(p, sdfdata.FieldSpecifier, spec); err != nil {
			return err
		}
		if typeName == "" {
			return nil
		}
		return l.write(p, sdfdata.FieldTypeName, value.Token(typeName))
	})
}

// CreateAttributeSpec creates the attribute name of prim holding values of
// the registered type typeName.
func (l *Layer) CreateAttributeSpec(prim sdfpath.Path, name, typeName string, v sdfdata.Variability, custom bool) (Spec, error) {
	p, err := prim.AppendProperty(name)
	if err != nil {
		return Spec{}, err
	}
	if l.env.reg.Lookup(typeName) == nil {
		return Spec{}, fmt.Errorf("%w: %q", ErrUnknownType, typeName)
	}
	return l.create(p, sdfdata.SpecTypeAttribute, func() error {
		return l.writeProperty(p, v, custom, value.Token(typeName))
	})
}

// CreateRelationshipSpec creates the relationship name of prim.
func (l *Layer) CreateRelationshipSpec(prim sdfpath.Path, name string, v sdfdata.Variability, custom bool) (Spec, error) {
	p, err := prim.AppendProperty(name)
	if err != nil {
		return Spec{}, err
	}
	return l.create(p, sdfdata.SpecTypeRelationship, func() error {
		return l.writeProperty(p, v, custom, "")
	})
}

func (l *Layer) writeProperty(p sdfpath.Path, v sdfdata.Variability, custom bool, typeName value.Token) error {
	if err := l.write(p, sdfdata.FieldCustom, custom); err != nil {
		return err
	}
	if err := l.write(p, sdfdata.FieldVariability, v); err != nil {
		return err
	}
	if typeName == "" {
		return nil
	}
	return l.write(p, sdfdata.FieldTypeName, typeName)
}

// CreateVariantSetSpec creates the variant set name of prim.
func (l *Layer) CreateVariantSetSpec(prim sdfpath.Path, name string) (Spec, error) {
	p, err := prim.AppendVariantSelection(name, "")
	if err != nil {
		return Spec{}, err
	}
	return l.create(p, sdfdata.SpecTypeVariantSet, nil)
}

// CreateVariantSpec creates the variant name of the variant set at set.
func (l *Layer) CreateVariantSpec(set sdfpath.Path, name string) (Spec, error) {
	sn, sel := set.VariantSelection()
	if set.Kind() != sdfpath.VariantSelectionKind || sel != "" {
		return Spec{}, fmt.Errorf("%w: %s is not a variant set path", ErrInvalidPathOperation, set)
	}
	if name == "" {
		return Spec{}, fmt.Errorf("%w: empty variant name", ErrInvalidPathOperation)
	}
	p, err := set.Parent().AppendVariantSelection(sn, name)
	if err != nil {
		return Spec{}, err
	}
	return l.create(p, sdfdata.SpecTypeVariant, nil)
}

func (l *Layer) create(p sdfpath.Path, t sdfdata.SpecType, init func() error) (Spec, error) {
	err := l.edit(func() error {
		if err := l.createSpec(p, t); err != nil {
			return err
		}
		if init == nil {
			return nil
		}
		return init()
	})
	return handle(l, p, err)
}

// handle returns the spec at p with err. Only observer failures leave
// the edit in place, so any other error yields no spec.
func handle(l *Layer, p sdfpath.Path, err error) (Spec, error) {
	var oerr *change.ObserverError
	if err != nil && !errors.As(err, &oerr) {
		return Spec{}, err
	}
	return Spec{layer: l, path: p}, err
}

// GetSpec returns the spec at p.
func (l *Layer) GetSpec(p sdfpath.Path) (Spec, bool) {
	if !l.store.HasSpec(p) {
		return Spec{}, false
	}
	return Spec{layer: l, path: p}, true
}

// PseudoRoot returns the root spec of l, which holds the layer metadata.
func (l *Layer) PseudoRoot() Spec {
	return Spec{layer: l, path: sdfpath.AbsoluteRoot()}
}

// RootPrims returns the prims directly below the pseudo root.
func (l *Layer) RootPrims() []Spec {
	return l.PseudoRoot().NameChildren()
}

// RemoveSpec removes the spec at p and its descendants.
func (l *Layer) RemoveSpec(p sdfpath.Path) error {
	return l.edit(func() error { return l.removeSpec(p) })
}

func (l *Layer) removeSpec(p sdfpath.Path) error {
	if !l.store.HasSpec(p) {
		return fmt.Errorf("%w: %s", ErrSpecNotFound, p)
	}
	if p.IsAbsoluteRoot() {
		return fmt.Errorf("%w: the pseudo root cannot be removed", ErrInvalidPathOperation)
	}
	parent, field, name, err := childSlot(p, l.store.SpecType(p))
	if err != nil {
		return err
	}
	paths := l.subtree(p)
	for i := len(paths) - 1; i >= 0; i-- {
		if err := l.store.EraseSpec(paths[i]); err != nil {
			return err
		}
	}
	l.specRemoved(p)
	if !l.store.HasSpec(parent) {
		return nil
	}
	names := slices.DeleteFunc(slices.Clone(l.names(parent, field)), func(n string) bool { return n == name })
	if err := l.writeNames(parent, field, names); err != nil {
		return err
	}
	return l.renameInOrder(parent, field, name, "")
}

// orderFields maps a children field to the field that reorders it.
var orderFields = map[string]string{
	sdfdata.FieldPrimChildren: sdfdata.FieldPrimOrder,
	sdfdata.FieldProperties:   sdfdata.FieldPropertyOrder,
}

// renameInOrder replaces from with to in the order field of parent
// matching the children field, dropping from when to is empty or
// already listed.
func (l *Layer) renameInOrder(parent sdfpath.Path, field, from, to string) error {
	of, ok := orderFields[field]
	if !ok {
		return nil
	}
	names := slices.Clone(l.names(parent, of))
	i := slices.Index(names, from)
	if i < 0 {
		return nil
	}
	if to == "" || slices.Contains(names, to) {
		names = slices.Delete(names, i, i+1)
	} else {
		names[i] = to
	}
	return l.writeNames(parent, of, names)
}

// HasField reports whether the spec at p holds the field name.
func (l *Layer) HasField(p sdfpath.Path, name string) bool {
	_, ok := l.store.ReadField(p, name)
	return ok
}

// GetField returns a copy of the value of field name of the spec at p.
func (l *Layer) GetField(p sdfpath.Path, name string) (any, bool) {
	v, ok := l.store.ReadField(p, name)
	if !ok {
		return nil, false
	}
	return cloneValue(v), true
}

// ListFields returns the names of the fields held by the spec at p,
// sorted.
func (l *Layer) ListFields(p sdfpath.Path) []string {
	return l.store.ListFields(p)
}

// SetField sets the field name of the spec at p to a copy of v. The value
// is checked against the schema and, for attribute values, against the
// attribute type. List ops are stored normalized: an explicit op keeps
// only its explicit items, and a zero reference or payload offset is
// stored as the identity offset. A list op holding no opinion clears the
// field.
func (l *Layer) SetField(p sdfpath.Path, name string, v any) error {
	return l.edit(func() error { return l.setField(p, name, v) })
}

func (l *Layer) setField(p sdfpath.Path, name string, v any) error {
	if !l.store.HasSpec(p) {
		return fmt.Errorf("%w: %s", ErrSpecNotFound, p)
	}
	t := l.store.SpecType(p)
	if d := l.env.schema.Field(name); d != nil && d.Children {
		return fmt.Errorf("%w: %s", ErrChildrenField, name)
	}
	if err := l.env.schema.Check(t, name, v); err != nil {
		return err
	}
	v = canonicalValue(v)
	if isEmptyListOp(v) {
		return l.clearField(p, name)
	}
	if t == sdfdata.SpecTypePrim && name == sdfdata.FieldTypeName && v == value.Token("") {
		return l.clearField(p, name)
	}
	if t == sdfdata.SpecTypeAttribute {
		if err := l.checkAttributeField(p, name, v); err != nil {
			return err
		}
	}
	if old, ok := l.store.ReadField(p, name); ok && sdfdata.FieldEqual(old, v) {
		return nil
	}
	return l.write(p, name, v)
}

func (l *Layer) attributeType(p sdfpath.Path) string {
	v, _ := l.store.ReadField(p, sdfdata.FieldTypeName)
	tn, _ := v.(value.Token)
	return string(tn)
}

func (l *Layer) checkAttributeField(p sdfpath.Path, name string, v any) error {
	reg := l.env.reg
	switch name {
	case sdfdata.FieldDefault:
		if _, ok := v.(value.Block); ok {
			return nil
		}
		if err := reg.Check(l.attributeType(p), v); err != nil {
			return fmt.Errorf("default of %s: %w", p, err)
		}
	case sdfdata.FieldTimeSamples:
		tn := l.attributeType(p)
		ts := v.(value.TimeSamples)
		for i, s := range ts {
			if i > 0 && ts[i-1].Time >= s.Time {
				return fmt.Errorf("%w: time samples of %s are not strictly increasing at %v", ErrTypeMismatch, p, s.Time)
			}
			if _, ok := s.Value.(value.Block); ok {
				continue
			}
			if err := reg.Check(tn, s.Value); err != nil {
				return fmt.Errorf("sample %v of %s: %w", s.Time, p, err)
			}
		}
	case sdfdata.FieldTypeName:
		tn := string(v.(value.Token))
		if reg.Lookup(tn) == nil {
			return fmt.Errorf("%w: %q", ErrUnknownType, tn)
		}
		if def, ok := l.store.ReadField(p, sdfdata.FieldDefault); ok {
			if _, blocked := def.(value.Block); !blocked {
				if err := reg.Check(tn, def); err != nil {
					return fmt.Errorf("retyping %s: %w", p, err)
				}
			}
		}
	}
	return nil
}

func isEmptyListOp(v any) bool {
	switch x := v.(type) {
	case sdfdata.TokenListOp:
		return !x.HasKeys()
	case sdfdata.PathListOp:
		return !x.HasKeys()
	case sdfdata.ReferenceListOp:
		return !x.HasKeys()
	case sdfdata.PayloadListOp:
		return !x.HasKeys()
	}
	return false
}

// ClearField removes the field name from the spec at p.
func (l *Layer) ClearField(p sdfpath.Path, name string) error {
	return l.edit(func() error {
		if !l.store.HasSpec(p) {
			return fmt.Errorf("%w: %s", ErrSpecNotFound, p)
		}
		if d := l.env.schema.Field(name); d != nil && d.Children {
			return fmt.Errorf("%w: %s", ErrChildrenField, name)
		}
		return l.clearField(p, name)
	})
}

func (l *Layer) clearField(p sdfpath.Path, name string) error {
	if _, ok := l.store.ReadField(p, name); !ok {
		return nil
	}
	if slices.Contains(requiredFields[l.store.SpecType(p)], name) {
		return fmt.Errorf("%w: %s of %s", ErrRequiredField, name, p)
	}
	return l.erase(p, name)
}

// requiredFields are the fields every spec of a type holds once created.
var requiredFields = map[sdfdata.SpecType][]string{
	sdfdata.SpecTypePrim:         {sdfdata.FieldSpecifier},
	sdfdata.SpecTypeAttribute:    {sdfdata.FieldCustom, sdfdata.FieldVariability, sdfdata.FieldTypeName},
	sdfdata.SpecTypeRelationship: {sdfdata.FieldCustom, sdfdata.FieldVariability},
}

// Traverse calls fn on the spec at root and its descendants, parents
// first, stopping at the first error.
func (l *Layer) Traverse(root sdfpath.Path, fn func(Spec) error) error {
	if !l.store.HasSpec(root) {
		return fmt.Errorf("%w: %s", ErrSpecNotFound, root)
	}
	for _, p := range l.subtree(root) {
		if err := fn(Spec{layer: l, path: p}); err != nil {
			return err
		}
	}
	return nil
}

// canonicalValue returns a copy of v in the form the text format reads
// back: list ops without ignored sub-lists and references without zero
// offsets.
func canonicalValue(v any) any {
	v = cloneValue(v)
	switch x := v.(type) {
	case sdfdata.TokenListOp:
		x.Normalize()
		return x
	case sdfdata.PathListOp:
		x.Normalize()
		return x
	case sdfdata.ReferenceListOp:
		x.Normalize()
		x.ModifyItems(func(r sdfdata.Reference) (sdfdata.Reference, bool) {
			r.Offset = r.Offset.Canonical()
			return r, true
		})
		return x
	case sdfdata.PayloadListOp:
		x.Normalize()
		x.ModifyItems(func(r sdfdata.Payload) (sdfdata.Payload, bool) {
			r.Offset = r.Offset.Canonical()
			return r, true
		})
		return x
	}
	return v
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case sdfdata.TokenListOp:
		return x.Clone()
	case sdfdata.PathListOp:
		return x.Clone()
	case sdfdata.ReferenceListOp:
		return x.Clone()
	case sdfdata.PayloadListOp:
		return x.Clone()
	case value.Dictionary:
		return x.Clone()
	case sdfdata.VariantSelectionMap:
		return maps.Clone(x)
	case value.TimeSamples:
		return slices.Clone(x)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice && !rv.IsNil() {
		c := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		reflect.Copy(c, rv)
		return c.Interface()
	}
	return v
}
