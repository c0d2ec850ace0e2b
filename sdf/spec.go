package sdf

import (
	"github.com/signadot/go-sdf/sdfdata"
	"github.com/signadot/go-sdf/sdfpath"
	"github.com/signadot/go-sdf/value"
)

// Spec is a handle to the spec at a path of a layer. Handles are
// addressed by path, so they stay valid across edits of other specs. A
// handle whose spec was removed or moved away is dormant.
type Spec struct {
	layer *Layer
	path  sdfpath.Path
}

func (s Spec) Layer() *Layer { return s.layer }

func (s Spec) Path() sdfpath.Path { return s.path }

// IsDormant reports whether the spec no longer exists.
func (s Spec) IsDormant() bool {
	return s.layer == nil || !s.layer.store.HasSpec(s.path)
}

// Kind returns the spec type, SpecTypeUnknown when dormant.
func (s Spec) Kind() sdfdata.SpecType {
	if s.layer == nil {
		return sdfdata.SpecTypeUnknown
	}
	return s.layer.store.SpecType(s.path)
}

func (s Spec) String() string {
	if s.layer == nil {
		return "<dormant>"
	}
	return s.layer.Identifier() + "<" + s.path.String() + ">"
}

// Name returns the name the spec is listed under in its parent: the prim
// or property name, the variant set name or the variant name.
func (s Spec) Name() string {
	switch s.Kind() {
	case sdfdata.SpecTypeVariantSet:
		set, _ := s.path.VariantSelection()
		return set
	case sdfdata.SpecTypeVariant:
		_, sel := s.path.VariantSelection()
		return sel
	case sdfdata.SpecTypePseudoRoot, sdfdata.SpecTypeUnknown:
		return ""
	}
	return s.path.Name()
}

// Parent returns the spec owning s. The parent of a variant is its
// variant set.
func (s Spec) Parent() (Spec, bool) {
	if s.IsDormant() {
		return Spec{}, false
	}
	p, _, _, err := childSlot(s.path, s.Kind())
	if err != nil {
		return Spec{}, false
	}
	return s.layer.GetSpec(p)
}

func (s Spec) Field(name string) (any, bool) {
	if s.layer == nil {
		return nil, false
	}
	return s.layer.GetField(s.path, name)
}

func (s Spec) SetField(name string, v any) error {
	return s.layer.SetField(s.path, name, v)
}

func (s Spec) ClearField(name string) error {
	return s.layer.ClearField(s.path, name)
}

func (s Spec) ListFields() []string {
	if s.layer == nil {
		return nil
	}
	return s.layer.ListFields(s.path)
}

func (s Spec) specs(field string) []Spec {
	if s.layer == nil {
		return nil
	}
	ps := s.layer.children(s.path, field)
	res := make([]Spec, len(ps))
	for i, p := range ps {
		res[i] = Spec{layer: s.layer, path: p}
	}
	return res
}

// NameChildren returns the child prims in authored order.
func (s Spec) NameChildren() []Spec { return s.specs(sdfdata.FieldPrimChildren) }

// Properties returns the attributes and relationships in authored order.
func (s Spec) Properties() []Spec { return s.specs(sdfdata.FieldProperties) }

func (s Spec) VariantSets() []Spec { return s.specs(sdfdata.FieldVariantSetChildren) }

func (s Spec) Variants() []Spec { return s.specs(sdfdata.FieldVariantChildren) }

func get[T any](s Spec, name string) T {
	v, _ := s.Field(name)
	x, _ := v.(T)
	return x
}

// TypeName returns the prim schema type or the attribute value type.
func (s Spec) TypeName() string { return string(get[value.Token](s, sdfdata.FieldTypeName)) }

// Specifier returns the prim specifier. Prims without one are overs.
func (s Spec) Specifier() sdfdata.Specifier {
	v, ok := s.Field(sdfdata.FieldSpecifier)
	if !ok {
		return sdfdata.SpecifierOver
	}
	return v.(sdfdata.Specifier)
}

func (s Spec) Variability() sdfdata.Variability {
	return get[sdfdata.Variability](s, sdfdata.FieldVariability)
}

func (s Spec) Custom() bool { return get[bool](s, sdfdata.FieldCustom) }

func (s Spec) References() sdfdata.ReferenceListOp {
	return get[sdfdata.ReferenceListOp](s, sdfdata.FieldReferences)
}

func (s Spec) Payload() sdfdata.PayloadListOp {
	return get[sdfdata.PayloadListOp](s, sdfdata.FieldPayload)
}

func (s Spec) Inherits() sdfdata.PathListOp {
	return get[sdfdata.PathListOp](s, sdfdata.FieldInheritPaths)
}

func (s Spec) Specializes() sdfdata.PathListOp {
	return get[sdfdata.PathListOp](s, sdfdata.FieldSpecializes)
}

// VariantSelections returns the variant selections authored on a prim.
func (s Spec) VariantSelections() sdfdata.VariantSelectionMap {
	return get[sdfdata.VariantSelectionMap](s, sdfdata.FieldVariantSelection)
}

// Default returns the default value of an attribute.
func (s Spec) Default() (any, bool) { return s.Field(sdfdata.FieldDefault) }

func (s Spec) TimeSamples() value.TimeSamples {
	return get[value.TimeSamples](s, sdfdata.FieldTimeSamples)
}

func (s Spec) TargetPaths() sdfdata.PathListOp {
	return get[sdfdata.PathListOp](s, sdfdata.FieldTargetPaths)
}

func (s Spec) ConnectionPaths() sdfdata.PathListOp {
	return get[sdfdata.PathListOp](s, sdfdata.FieldConnectionPaths)
}

// CustomData returns the customData dictionary, nil if unset.
func (s Spec) CustomData() value.Dictionary {
	return get[value.Dictionary](s, sdfdata.FieldCustomData)
}
