package sdfdata

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/go-sdf/listop"
	"github.com/signadot/go-sdf/sdfpath"
	"github.com/signadot/go-sdf/value"
)

func TestSchemaCheck(t *testing.T) {
	s := NewSchema(value.NewRegistry())
	tests := []struct {
		name  string
		spec  SpecType
		field string
		v     any
		want  error
	}{
		{"token field", SpecTypePrim, FieldKind, value.Token("component"), nil},
		{"string for token", SpecTypePrim, FieldKind, "component", value.ErrTypeMismatch},
		{"block", SpecTypePrim, FieldKind, value.Block{}, nil},
		{"reference op", SpecTypePrim, FieldReferences, listop.CreatePrepended(Reference{AssetPath: "a.sdf"}), nil},
		{"path op for references", SpecTypePrim, FieldReferences, listop.CreatePrepended(sdfpath.MustParse("/A")), value.ErrTypeMismatch},
		{"children", SpecTypePrim, FieldPrimChildren, []string{"a"}, nil},
		{"specifier", SpecTypePrim, FieldSpecifier, SpecifierOver, nil},
		{"specifier on attribute", SpecTypeAttribute, FieldSpecifier, SpecifierOver, ErrUnknownField},
		{"unknown", SpecTypePrim, "nosuch", 1, ErrUnknownField},
		{"attribute default", SpecTypeAttribute, FieldDefault, float32(1), nil},
		{"nil default", SpecTypeAttribute, FieldDefault, nil, value.ErrTypeMismatch},
		{"sublayers", SpecTypePseudoRoot, FieldSubLayers, []value.AssetPath{{Path: "a.sdf"}}, nil},
		{"variant selection", SpecTypeVariant, FieldVariantSelection, VariantSelectionMap{"v": "x"}, nil},
		{"custom data", SpecTypeRelationship, FieldCustomData, value.Dictionary{"a": int32(1)}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Check(tt.spec, tt.field, tt.v)
			if tt.want == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSchemaKeys(t *testing.T) {
	s := NewSchema(value.NewRegistry())
	if d := s.FieldForKey(SpecTypePrim, "inherits"); d == nil || d.Name != FieldInheritPaths {
		t.Errorf("inherits key maps to %v", d)
	}
	if d := s.FieldForKey(SpecTypePseudoRoot, "kind"); d != nil {
		t.Errorf("kind is not layer metadata, got %v", d)
	}
	if s.Order(FieldSpecifier) >= s.Order(FieldPrimChildren) {
		t.Errorf("schema order not preserved")
	}
	for _, d := range s.FieldsFor(SpecTypeVariantSet) {
		if d.Name != FieldVariantChildren {
			t.Errorf("variant sets hold only variantChildren, got %s", d.Name)
		}
	}
}

func TestMem(t *testing.T) {
	m := NewMem()
	a := sdfpath.MustParse("/A")
	b := sdfpath.MustParse("/B")
	if !m.HasSpec(sdfpath.AbsoluteRoot()) {
		t.Fatal("no pseudo root")
	}
	if err := m.CreateSpec(a, SpecTypePrim); err != nil {
		t.Fatal(err)
	}
	if err := m.CreateSpec(a, SpecTypePrim); !errors.Is(err, ErrSpecExists) {
		t.Errorf("duplicate create: %v", err)
	}
	if err := m.WriteField(a, FieldKind, value.Token("group")); err != nil {
		t.Fatal(err)
	}
	if err := m.WriteField(b, FieldKind, value.Token("group")); !errors.Is(err, ErrNoSpec) {
		t.Errorf("write to missing spec: %v", err)
	}
	if err := m.MoveSpec(a, b); err != nil {
		t.Fatal(err)
	}
	if m.HasSpec(a) || m.SpecType(b) != SpecTypePrim {
		t.Errorf("move did not relocate spec")
	}
	if v, ok := m.ReadField(b, FieldKind); !ok || v != value.Token("group") {
		t.Errorf("field lost in move: %v %v", v, ok)
	}
	if err := m.EraseField(b, FieldKind); err != nil {
		t.Fatal(err)
	}
	if fs := m.ListFields(b); len(fs) != 0 {
		t.Errorf("fields after erase: %v", fs)
	}
	if err := m.EraseSpec(b); err != nil {
		t.Fatal(err)
	}
	if err := m.EraseSpec(b); !errors.Is(err, ErrNoSpec) {
		t.Errorf("double erase: %v", err)
	}
}

func TestVisitOrderCopyEqual(t *testing.T) {
	m := NewMem()
	for _, p := range []string{"/B", "/A/C", "/A", "/A.x"} {
		typ := SpecTypePrim
		if p == "/A.x" {
			typ = SpecTypeAttribute
		}
		if err := m.CreateSpec(sdfpath.MustParse(p), typ); err != nil {
			t.Fatal(err)
		}
	}
	m.WriteField(sdfpath.MustParse("/A"), FieldInheritPaths, listop.CreateAppended(sdfpath.MustParse("/B")))
	var got []string
	m.VisitSpecs(func(p sdfpath.Path, _ SpecType) bool {
		got = append(got, p.String())
		return true
	})
	if diff := cmp.Diff([]string{"/", "/A", "/A/C", "/A.x", "/B"}, got); diff != "" {
		t.Errorf("visit order (-want +got):\n%s", diff)
	}
	c := NewMem()
	c.CreateSpec(sdfpath.MustParse("/Old"), SpecTypePrim)
	if err := Copy(c, m); err != nil {
		t.Fatal(err)
	}
	if !Equal(c, m) {
		t.Errorf("copy differs from source")
	}
	c.WriteField(sdfpath.MustParse("/A"), FieldInheritPaths, listop.CreateAppended(sdfpath.MustParse("/C")))
	if Equal(c, m) {
		t.Errorf("stores with different list ops compare equal")
	}
}

func TestFieldEqual(t *testing.T) {
	a := listop.Op[string]{AppendedItems: []string{}}
	b := listop.Op[string]{}
	if !FieldEqual(a, b) {
		t.Errorf("empty and nil sub-lists differ")
	}
	if FieldEqual(a, value.Token("x")) {
		t.Errorf("list op equals token")
	}
	if !FieldEqual(value.Dictionary{"a": int32(1)}, value.Dictionary{"a": int32(1)}) {
		t.Errorf("equal dictionaries differ")
	}
}
