package sdfdata

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/signadot/go-sdf/value"
)

// Field names.
const (
	FieldSpecifier          = "specifier"
	FieldTypeName           = "typeName"
	FieldPrimChildren       = "primChildren"
	FieldProperties         = "properties"
	FieldVariantSetChildren = "variantSetChildren"
	FieldVariantChildren    = "variantChildren"
	FieldPrimOrder          = "primOrder"
	FieldPropertyOrder      = "propertyOrder"

	FieldReferences       = "references"
	FieldPayload          = "payload"
	FieldInheritPaths     = "inheritPaths"
	FieldSpecializes      = "specializes"
	FieldVariantSetNames  = "variantSetNames"
	FieldVariantSelection = "variantSelection"
	FieldAPISchemas       = "apiSchemas"

	FieldKind          = "kind"
	FieldActive        = "active"
	FieldHidden        = "hidden"
	FieldInstanceable  = "instanceable"
	FieldDocumentation = "documentation"
	FieldComment       = "comment"
	FieldDisplayName   = "displayName"
	FieldCustomData    = "customData"
	FieldAssetInfo     = "assetInfo"

	FieldDefault         = "default"
	FieldTimeSamples     = "timeSamples"
	FieldVariability     = "variability"
	FieldCustom          = "custom"
	FieldInterpolation   = "interpolation"
	FieldConnectionPaths = "connectionPaths"
	FieldTargetPaths     = "targetPaths"

	FieldDefaultPrim        = "defaultPrim"
	FieldSubLayers          = "subLayers"
	FieldStartTimeCode      = "startTimeCode"
	FieldEndTimeCode        = "endTimeCode"
	FieldTimeCodesPerSecond = "timeCodesPerSecond"
	FieldFramesPerSecond    = "framesPerSecond"
	FieldUpAxis             = "upAxis"
	FieldMetersPerUnit      = "metersPerUnit"
	FieldCustomLayerData    = "customLayerData"
)

// ValueKind says what Go type a field holds.
type ValueKind int

const (
	// KindValue fields hold a value of the registry type FieldDef.ValueType.
	KindValue ValueKind = iota
	KindTokenListOp
	KindPathListOp
	KindReferenceListOp
	KindPayloadListOp
	// KindNameList fields hold []string.
	KindNameList
	KindVariantSelection
	KindTimeSamples
	// KindAttributeValue fields hold a value of the attribute's typeName.
	KindAttributeValue
	KindSpecifier
	KindVariability
)

// IsListOp reports whether k is one of the list op kinds.
func (k ValueKind) IsListOp() bool {
	switch k {
	case KindTokenListOp, KindPathListOp, KindReferenceListOp, KindPayloadListOp:
		return true
	}
	return false
}

// FieldDef describes one field.
type FieldDef struct {
	Name string
	// Key is the metadata key used in text, empty when the field is not
	// written as metadata.
	Key       string
	Kind      ValueKind
	ValueType string
	Specs     []SpecType
	// Children marks fields listing the names of child specs.
	Children bool
}

// AppliesTo reports whether specs of type t may hold the field.
func (d *FieldDef) AppliesTo(t SpecType) bool {
	return slices.Contains(d.Specs, t)
}

// Schema is the set of known fields in a fixed order.
type Schema struct {
	defs   []*FieldDef
	byName map[string]*FieldDef
	reg    *value.Registry
}

var (
	primLike   = []SpecType{SpecTypePrim, SpecTypeVariant}
	allNonRoot = []SpecType{SpecTypePrim, SpecTypeVariant, SpecTypeAttribute, SpecTypeRelationship}
	props      = []SpecType{SpecTypeAttribute, SpecTypeRelationship}
	rootOnly   = []SpecType{SpecTypePseudoRoot}
)

// NewSchema returns the schema of the builtin fields. Values of KindValue
// fields are checked with reg.
func NewSchema(reg *value.Registry) *Schema {
	s := &Schema{byName: map[string]*FieldDef{}, reg: reg}
	for _, d := range []*FieldDef{
		{Name: FieldSpecifier, Kind: KindSpecifier, Specs: []SpecType{SpecTypePrim}},
		{Name: FieldTypeName, Kind: KindValue, ValueType: "token", Specs: []SpecType{SpecTypePrim, SpecTypeAttribute}},
		{Name: FieldVariability, Kind: KindVariability, Specs: props},
		{Name: FieldCustom, Kind: KindValue, ValueType: "bool", Specs: props},

		{Name: FieldDocumentation, Key: "doc", Kind: KindValue, ValueType: "string",
			Specs: []SpecType{SpecTypePseudoRoot, SpecTypePrim, SpecTypeVariant, SpecTypeAttribute, SpecTypeRelationship}},
		{Name: FieldComment, Key: "comment", Kind: KindValue, ValueType: "string",
			Specs: []SpecType{SpecTypePseudoRoot, SpecTypePrim, SpecTypeVariant, SpecTypeAttribute, SpecTypeRelationship}},
		{Name: FieldDefaultPrim, Key: "defaultPrim", Kind: KindValue, ValueType: "token", Specs: rootOnly},
		{Name: FieldStartTimeCode, Key: "startTimeCode", Kind: KindValue, ValueType: "double", Specs: rootOnly},
		{Name: FieldEndTimeCode, Key: "endTimeCode", Kind: KindValue, ValueType: "double", Specs: rootOnly},
		{Name: FieldTimeCodesPerSecond, Key: "timeCodesPerSecond", Kind: KindValue, ValueType: "double", Specs: rootOnly},
		{Name: FieldFramesPerSecond, Key: "framesPerSecond", Kind: KindValue, ValueType: "double", Specs: rootOnly},
		{Name: FieldUpAxis, Key: "upAxis", Kind: KindValue, ValueType: "token", Specs: rootOnly},
		{Name: FieldMetersPerUnit, Key: "metersPerUnit", Kind: KindValue, ValueType: "double", Specs: rootOnly},
		{Name: FieldCustomLayerData, Key: "customLayerData", Kind: KindValue, ValueType: "dictionary", Specs: rootOnly},
		{Name: FieldSubLayers, Key: "subLayers", Kind: KindValue, ValueType: "asset[]", Specs: rootOnly},

		{Name: FieldKind, Key: "kind", Kind: KindValue, ValueType: "token", Specs: primLike},
		{Name: FieldActive, Key: "active", Kind: KindValue, ValueType: "bool", Specs: primLike},
		{Name: FieldHidden, Key: "hidden", Kind: KindValue, ValueType: "bool", Specs: allNonRoot},
		{Name: FieldInstanceable, Key: "instanceable", Kind: KindValue, ValueType: "bool", Specs: primLike},
		{Name: FieldDisplayName, Key: "displayName", Kind: KindValue, ValueType: "string", Specs: allNonRoot},
		{Name: FieldInterpolation, Key: "interpolation", Kind: KindValue, ValueType: "token", Specs: []SpecType{SpecTypeAttribute}},
		{Name: FieldAPISchemas, Key: "apiSchemas", Kind: KindTokenListOp, Specs: primLike},
		{Name: FieldReferences, Key: "references", Kind: KindReferenceListOp, Specs: primLike},
		{Name: FieldPayload, Key: "payload", Kind: KindPayloadListOp, Specs: primLike},
		{Name: FieldInheritPaths, Key: "inherits", Kind: KindPathListOp, Specs: primLike},
		{Name: FieldSpecializes, Key: "specializes", Kind: KindPathListOp, Specs: primLike},
		{Name: FieldVariantSetNames, Key: "variantSets", Kind: KindTokenListOp, Specs: primLike},
		{Name: FieldVariantSelection, Key: "variants", Kind: KindVariantSelection, Specs: primLike},
		{Name: FieldAssetInfo, Key: "assetInfo", Kind: KindValue, ValueType: "dictionary", Specs: primLike},
		{Name: FieldCustomData, Key: "customData", Kind: KindValue, ValueType: "dictionary", Specs: allNonRoot},

		{Name: FieldDefault, Kind: KindAttributeValue, Specs: []SpecType{SpecTypeAttribute}},
		{Name: FieldTimeSamples, Kind: KindTimeSamples, Specs: []SpecType{SpecTypeAttribute}},
		{Name: FieldConnectionPaths, Kind: KindPathListOp, Specs: []SpecType{SpecTypeAttribute}},
		{Name: FieldTargetPaths, Kind: KindPathListOp, Specs: []SpecType{SpecTypeRelationship}},

		{Name: FieldPrimOrder, Kind: KindNameList, Specs: []SpecType{SpecTypePseudoRoot, SpecTypePrim, SpecTypeVariant}},
		{Name: FieldPropertyOrder, Kind: KindNameList, Specs: primLike},
		{Name: FieldPrimChildren, Kind: KindNameList, Children: true, Specs: []SpecType{SpecTypePseudoRoot, SpecTypePrim, SpecTypeVariant}},
		{Name: FieldProperties, Kind: KindNameList, Children: true, Specs: primLike},
		{Name: FieldVariantSetChildren, Kind: KindNameList, Children: true, Specs: primLike},
		{Name: FieldVariantChildren, Kind: KindNameList, Children: true, Specs: []SpecType{SpecTypeVariantSet}},
	} {
		s.defs = append(s.defs, d)
		s.byName[d.Name] = d
	}
	return s
}

// Registry returns the value registry used to check fields.
func (s *Schema) Registry() *value.Registry { return s.reg }

// Field returns the definition of the named field, or nil.
func (s *Schema) Field(name string) *FieldDef {
	return s.byName[name]
}

// Fields returns all field definitions in schema order.
func (s *Schema) Fields() []*FieldDef {
	return s.defs
}

// FieldsFor returns the fields specs of type t may hold, in schema order.
func (s *Schema) FieldsFor(t SpecType) []*FieldDef {
	var res []*FieldDef
	for _, d := range s.defs {
		if d.AppliesTo(t) {
			res = append(res, d)
		}
	}
	return res
}

// FieldForKey returns the field written under the metadata key for specs
// of type t, or nil.
func (s *Schema) FieldForKey(t SpecType, key string) *FieldDef {
	for _, d := range s.defs {
		if d.Key == key && d.AppliesTo(t) {
			return d
		}
	}
	return nil
}

// Order returns the schema position of name, or len(Fields()) for
// unknown fields.
func (s *Schema) Order(name string) int {
	i := slices.IndexFunc(s.defs, func(d *FieldDef) bool { return d.Name == name })
	if i < 0 {
		return len(s.defs)
	}
	return i
}

var goTypes = map[ValueKind]reflect.Type{
	KindTokenListOp:      reflect.TypeFor[TokenListOp](),
	KindPathListOp:       reflect.TypeFor[PathListOp](),
	KindReferenceListOp:  reflect.TypeFor[ReferenceListOp](),
	KindPayloadListOp:    reflect.TypeFor[PayloadListOp](),
	KindNameList:         reflect.TypeFor[[]string](),
	KindVariantSelection: reflect.TypeFor[VariantSelectionMap](),
	KindTimeSamples:      reflect.TypeFor[value.TimeSamples](),
	KindSpecifier:        reflect.TypeFor[Specifier](),
	KindVariability:      reflect.TypeFor[Variability](),
}

// Check verifies that v may be stored in the named field of a spec of
// type t. Values of KindAttributeValue fields and time sample values are
// not checked here since their type depends on the attribute.
func (s *Schema) Check(t SpecType, name string, v any) error {
	d := s.byName[name]
	if d == nil {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if !d.AppliesTo(t) {
		return fmt.Errorf("%w: %q on %s spec", ErrUnknownField, name, t)
	}
	switch d.Kind {
	case KindValue:
		if err := s.reg.Check(d.ValueType, v); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		return nil
	case KindAttributeValue:
		if v == nil {
			return fmt.Errorf("%w: field %q: nil value", value.ErrTypeMismatch, name)
		}
		return nil
	}
	if v == nil || reflect.TypeOf(v) != goTypes[d.Kind] {
		return fmt.Errorf("%w: field %q holds %s, not %T", value.ErrTypeMismatch, name, goTypes[d.Kind], v)
	}
	return nil
}
