package sdf

import (
	"github.com/signadot/go-sdf/listop"
	"github.com/signadot/go-sdf/sdfdata"
	"github.com/signadot/go-sdf/sdfpath"
)

// effective applies the list op held in field of p to an empty list.
func effective[T comparable](l *Layer, p sdfpath.Path, field string) []T {
	v, _ := l.store.ReadField(p, field)
	op, _ := v.(listop.Op[T])
	return op.Apply(nil)
}

func (l *Layer) EffectiveReferences(p sdfpath.Path) []sdfdata.Reference {
	return effective[sdfdata.Reference](l, p, sdfdata.FieldReferences)
}

func (l *Layer) EffectivePayloads(p sdfpath.Path) []sdfdata.Payload {
	return effective[sdfdata.Payload](l, p, sdfdata.FieldPayload)
}

func (l *Layer) EffectiveInherits(p sdfpath.Path) []sdfpath.Path {
	return effective[sdfpath.Path](l, p, sdfdata.FieldInheritPaths)
}

func (l *Layer) EffectiveSpecializes(p sdfpath.Path) []sdfpath.Path {
	return effective[sdfpath.Path](l, p, sdfdata.FieldSpecializes)
}

func (l *Layer) EffectiveVariantSetNames(p sdfpath.Path) []string {
	return effective[string](l, p, sdfdata.FieldVariantSetNames)
}

func (l *Layer) EffectiveAPISchemas(p sdfpath.Path) []string {
	return effective[string](l, p, sdfdata.FieldAPISchemas)
}

func (l *Layer) EffectiveTargetPaths(p sdfpath.Path) []sdfpath.Path {
	return effective[sdfpath.Path](l, p, sdfdata.FieldTargetPaths)
}

func (l *Layer) EffectiveConnectionPaths(p sdfpath.Path) []sdfpath.Path {
	return effective[sdfpath.Path](l, p, sdfdata.FieldConnectionPaths)
}

// OrderedPrimChildren returns the child prim names of p reordered by the
// primOrder field.
func (l *Layer) OrderedPrimChildren(p sdfpath.Path) []string {
	return l.ordered(p, sdfdata.FieldPrimChildren, sdfdata.FieldPrimOrder)
}

// OrderedProperties returns the property names of p reordered by the
// propertyOrder field.
func (l *Layer) OrderedProperties(p sdfpath.Path) []string {
	return l.ordered(p, sdfdata.FieldProperties, sdfdata.FieldPropertyOrder)
}

func (l *Layer) ordered(p sdfpath.Path, children, order string) []string {
	op := listop.CreateOrdered(l.names(p, order)...)
	return op.Apply(l.names(p, children))
}
