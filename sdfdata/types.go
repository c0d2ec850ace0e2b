package sdfdata

import (
	"fmt"

	"github.com/signadot/go-sdf/listop"
	"github.com/signadot/go-sdf/sdfpath"
)

// SpecType is the kind of a spec.
type SpecType int

const (
	SpecTypeUnknown SpecType = iota
	SpecTypePseudoRoot
	SpecTypePrim
	SpecTypeAttribute
	SpecTypeRelationship
	SpecTypeVariantSet
	SpecTypeVariant
)

func (t SpecType) String() string {
	switch t {
	case SpecTypePseudoRoot:
		return "pseudoRoot"
	case SpecTypePrim:
		return "prim"
	case SpecTypeAttribute:
		return "attribute"
	case SpecTypeRelationship:
		return "relationship"
	case SpecTypeVariantSet:
		return "variantSet"
	case SpecTypeVariant:
		return "variant"
	}
	return "unknown"
}

// IsPrimLike reports whether specs of type t hold prims and properties.
func (t SpecType) IsPrimLike() bool {
	return t == SpecTypePseudoRoot || t == SpecTypePrim || t == SpecTypeVariant
}

// IsProperty reports whether t is an attribute or relationship.
func (t SpecType) IsProperty() bool {
	return t == SpecTypeAttribute || t == SpecTypeRelationship
}

// Specifier says whether a prim defines, overrides or abstracts.
type Specifier int

const (
	SpecifierDef Specifier = iota
	SpecifierOver
	SpecifierClass
)

func (s Specifier) String() string {
	switch s {
	case SpecifierDef:
		return "def"
	case SpecifierOver:
		return "over"
	case SpecifierClass:
		return "class"
	}
	return fmt.Sprintf("Specifier(%d)", int(s))
}

// ParseSpecifier maps "def", "over" and "class" to a Specifier.
func ParseSpecifier(s string) (Specifier, bool) {
	switch s {
	case "def":
		return SpecifierDef, true
	case "over":
		return SpecifierOver, true
	case "class":
		return SpecifierClass, true
	}
	return 0, false
}

// Variability says whether an attribute may be time sampled.
type Variability int

const (
	VariabilityVarying Variability = iota
	VariabilityUniform
)

func (v Variability) String() string {
	if v == VariabilityUniform {
		return "uniform"
	}
	return "varying"
}

// LayerOffset maps times of a referenced layer: t' = t*Scale + Offset.
type LayerOffset struct {
	Offset float64
	Scale  float64
}

// IdentityOffset is the offset that leaves times unchanged.
var IdentityOffset = LayerOffset{Scale: 1}

func (o LayerOffset) IsIdentity() bool { return o == IdentityOffset }

// Canonical returns IdentityOffset for the zero LayerOffset and o
// otherwise.
func (o LayerOffset) Canonical() LayerOffset {
	if o == (LayerOffset{}) {
		return IdentityOffset
	}
	return o
}

// Reference is an item of a references list op. An empty AssetPath
// refers into the same layer.
type Reference struct {
	AssetPath string
	PrimPath  sdfpath.Path
	Offset    LayerOffset
}

// Payload is an item of a payload list op.
type Payload struct {
	AssetPath string
	PrimPath  sdfpath.Path
	Offset    LayerOffset
}

type (
	TokenListOp     = listop.Op[string]
	PathListOp      = listop.Op[sdfpath.Path]
	ReferenceListOp = listop.Op[Reference]
	PayloadListOp   = listop.Op[Payload]
)

// VariantSelectionMap maps variant set names to selected variants.
type VariantSelectionMap map[string]string
