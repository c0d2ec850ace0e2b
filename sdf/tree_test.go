package sdf

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/go-sdf/change"
	"github.com/signadot/go-sdf/listop"
	"github.com/signadot/go-sdf/sdfdata"
	"github.com/signadot/go-sdf/sdfpath"
	"github.com/signadot/go-sdf/value"
)

func TestChangeBatching(t *testing.T) {
	env := testEnv(t)
	l := anon(t, env)
	rec := record(env)

	b := env.Changes().OpenBlock()
	prim, err := l.CreatePrimSpec(sdfpath.AbsoluteRoot(), "A", sdfdata.SpecifierDef, "")
	must(t, err)
	must(t, prim.SetField(sdfdata.FieldKind, value.Token("component")))
	must(t, prim.SetField(sdfdata.FieldComment, "hello"))
	if len(rec.got) != 0 {
		t.Fatalf("notified before the block closed")
	}
	must(t, b.Close())

	if len(rec.got) != 1 {
		t.Fatalf("got %d notifications, want 1", len(rec.got))
	}
	n := rec.got[0]
	if n.layer != l {
		t.Errorf("notified for %v", n.layer)
	}
	want := []string{
		"/: fields primChildren",
		"/A: added; fields comment,kind,specifier",
	}
	if diff := cmp.Diff(want, summary(n.list)); diff != "" {
		t.Errorf("change list (-want +got):\n%s", diff)
	}
}

func TestImplicitBatch(t *testing.T) {
	env := testEnv(t)
	l := anon(t, env)
	rec := record(env)
	_, err := l.CreatePrimSpec(sdfpath.AbsoluteRoot(), "A", sdfdata.SpecifierDef, "Xform")
	must(t, err)
	must(t, l.SetField(path("/A"), sdfdata.FieldActive, false))
	if len(rec.got) != 2 {
		t.Fatalf("got %d notifications, want one per edit", len(rec.got))
	}
}

func TestObserverEditStartsNewBatch(t *testing.T) {
	env := testEnv(t)
	l := anon(t, env)
	other := anon(t, env)
	_, err := other.CreatePrimSpec(sdfpath.AbsoluteRoot(), "Log", sdfdata.SpecifierDef, "")
	must(t, err)

	var lists []string
	reg := env.Changes().Register(change.ObserverFunc[*Layer](func(x *Layer, c *change.List) error {
		lists = append(lists, x.DisplayName())
		if x == l {
			return other.SetField(path("/Log"), sdfdata.FieldComment, "seen")
		}
		return nil
	}))
	defer reg.Cancel()
	_, err = l.CreatePrimSpec(sdfpath.AbsoluteRoot(), "A", sdfdata.SpecifierDef, "")
	must(t, err)
	if diff := cmp.Diff([]string{"test", "test"}, lists); diff != "" {
		t.Errorf("notifications (-want +got):\n%s", diff)
	}
	if v, _ := other.GetField(path("/Log"), sdfdata.FieldComment); v != "seen" {
		t.Errorf("observer edit lost: %v", v)
	}
}

func TestDuplicateSpec(t *testing.T) {
	env := testEnv(t)
	l := anon(t, env)
	_, err := l.CreateSpec(path("/A"), sdfdata.SpecTypePrim)
	must(t, err)
	_, err = l.CreateSpec(path("/A"), sdfdata.SpecTypePrim)
	if !errors.Is(err, ErrDuplicateSpec) {
		t.Fatalf("second create: %v", err)
	}
	if diff := cmp.Diff([]string{"A"}, l.OrderedPrimChildren(sdfpath.AbsoluteRoot())); diff != "" {
		t.Errorf("root children (-want +got):\n%s", diff)
	}
	n := 0
	must(t, l.Traverse(sdfpath.AbsoluteRoot(), func(Spec) error { n++; return nil }))
	if n != 2 {
		t.Errorf("traversed %d specs, want the root and /A", n)
	}
}

func TestCreateErrors(t *testing.T) {
	env := testEnv(t)
	l := anon(t, env)
	_, err := l.CreatePrimSpec(sdfpath.AbsoluteRoot(), "A", sdfdata.SpecifierDef, "")
	must(t, err)
	_, err = l.CreateAttributeSpec(path("/A"), "x", "double", sdfdata.VariabilityVarying, false)
	must(t, err)

	cases := []struct {
		name string
		do   func() error
		want error
	}{
		{"missing parent", func() error {
			_, err := l.CreatePrimSpec(path("/B"), "C", sdfdata.SpecifierDef, "")
			return err
		}, ErrInvalidParent},
		{"existing property", func() error {
			_, err := l.CreateSpec(path("/A.x"), sdfdata.SpecTypeRelationship)
			return err
		}, ErrDuplicateSpec},
		{"attribute on root", func() error {
			_, err := l.CreateAttributeSpec(sdfpath.AbsoluteRoot(), "y", "int", sdfdata.VariabilityVarying, false)
			return err
		}, ErrInvalidPathOperation},
		{"prim below attribute", func() error {
			_, err := l.CreatePrimSpec(path("/A.x"), "B", sdfdata.SpecifierDef, "")
			return err
		}, ErrInvalidPathOperation},
		{"variant without set", func() error {
			_, err := l.CreateVariantSpec(path("/A{v=}"), "red")
			return err
		}, ErrInvalidParent},
		{"unknown attribute type", func() error {
			_, err := l.CreateAttributeSpec(path("/A"), "z", "bogus", sdfdata.VariabilityVarying, false)
			return err
		}, ErrUnknownType},
		{"wrong kind for path", func() error {
			_, err := l.CreateSpec(path("/A/B"), sdfdata.SpecTypeAttribute)
			return err
		}, ErrInvalidPathOperation},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if err := c.do(); !errors.Is(err, c.want) {
				t.Errorf("got %v, want %v", err, c.want)
			}
		})
	}
	if _, ok := l.GetSpec(path("/A.z")); ok {
		t.Errorf("failed create left a spec")
	}
}

func TestVariants(t *testing.T) {
	env := testEnv(t)
	l := anon(t, env)
	_, err := l.CreatePrimSpec(sdfpath.AbsoluteRoot(), "A", sdfdata.SpecifierDef, "")
	must(t, err)
	set, err := l.CreateVariantSetSpec(path("/A"), "color")
	must(t, err)
	red, err := l.CreateVariantSpec(set.Path(), "red")
	must(t, err)
	_, err = l.CreateVariantSpec(set.Path(), "blue")
	must(t, err)
	_, err = l.CreatePrimSpec(red.Path(), "Geom", sdfdata.SpecifierDef, "Mesh")
	must(t, err)

	a, _ := l.GetSpec(path("/A"))
	sets := a.VariantSets()
	if len(sets) != 1 || sets[0].Name() != "color" {
		t.Fatalf("variant sets: %v", sets)
	}
	var names []string
	for _, v := range sets[0].Variants() {
		names = append(names, v.Name())
	}
	if diff := cmp.Diff([]string{"red", "blue"}, names); diff != "" {
		t.Errorf("variants (-want +got):\n%s", diff)
	}
	if p, ok := red.Parent(); !ok || p.Path() != set.Path() {
		t.Errorf("parent of variant: %v", p)
	}
	geom, ok := l.GetSpec(path("/A{color=red}Geom"))
	if !ok || geom.TypeName() != "Mesh" {
		t.Fatalf("prim in variant: %v", geom)
	}

	must(t, l.RemoveSpec(set.Path()))
	if !geom.IsDormant() || !red.IsDormant() {
		t.Errorf("variant content survived removal of its set")
	}
	if len(a.VariantSets()) != 0 || l.HasField(a.Path(), sdfdata.FieldVariantSetChildren) {
		t.Errorf("variant set still listed")
	}
}

func TestRemoveSpec(t *testing.T) {
	env := testEnv(t)
	l := anon(t, env)
	_, err := l.CreatePrimSpec(sdfpath.AbsoluteRoot(), "A", sdfdata.SpecifierDef, "")
	must(t, err)
	_, err = l.CreatePrimSpec(path("/A"), "B", sdfdata.SpecifierDef, "")
	must(t, err)
	_, err = l.CreateAttributeSpec(path("/A/B"), "x", "int", sdfdata.VariabilityVarying, false)
	must(t, err)
	_, err = l.CreatePrimSpec(sdfpath.AbsoluteRoot(), "C", sdfdata.SpecifierDef, "")
	must(t, err)

	rec := record(env)
	must(t, l.RemoveSpec(path("/A")))
	for _, p := range []string{"/A", "/A/B", "/A/B.x"} {
		if _, ok := l.GetSpec(path(p)); ok {
			t.Errorf("%s survived", p)
		}
	}
	if diff := cmp.Diff([]string{"C"}, l.OrderedPrimChildren(sdfpath.AbsoluteRoot())); diff != "" {
		t.Errorf("root children (-want +got):\n%s", diff)
	}
	want := []string{"/: fields primChildren", "/A: removed"}
	if diff := cmp.Diff(want, summary(rec.got[0].list)); diff != "" {
		t.Errorf("change list (-want +got):\n%s", diff)
	}
	if err := l.RemoveSpec(path("/A")); !errors.Is(err, ErrSpecNotFound) {
		t.Errorf("second remove: %v", err)
	}
	if err := l.RemoveSpec(sdfpath.AbsoluteRoot()); !errors.Is(err, ErrInvalidPathOperation) {
		t.Errorf("remove root: %v", err)
	}
}

func TestSetField(t *testing.T) {
	env := testEnv(t)
	l := anon(t, env)
	_, err := l.CreatePrimSpec(sdfpath.AbsoluteRoot(), "A", sdfdata.SpecifierDef, "")
	must(t, err)
	x, err := l.CreateAttributeSpec(path("/A"), "x", "double", sdfdata.VariabilityVarying, false)
	must(t, err)

	must(t, x.SetField(sdfdata.FieldDefault, 1.5))
	if err := x.SetField(sdfdata.FieldDefault, int32(1)); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("int default on double attribute: %v", err)
	}
	if v, _ := x.Default(); v != 1.5 {
		t.Errorf("failed set changed the default to %v", v)
	}
	must(t, x.SetField(sdfdata.FieldDefault, value.Block{}))
	if err := x.SetField(sdfdata.FieldTypeName, value.Token("nope")); !errors.Is(err, ErrUnknownType) {
		t.Errorf("retype to unknown type: %v", err)
	}
	must(t, x.SetField(sdfdata.FieldTimeSamples, value.TimeSamples{{Time: 1, Value: 1.0}, {Time: 2, Value: 2.0}}))
	if err := x.SetField(sdfdata.FieldTimeSamples, value.TimeSamples{{Time: 2, Value: 1.0}, {Time: 1, Value: 2.0}}); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("unordered samples: %v", err)
	}
	if err := l.SetField(path("/A"), sdfdata.FieldKind, "component"); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("string for token field: %v", err)
	}
	if err := l.SetField(path("/A"), sdfdata.FieldPrimChildren, []string{"Z"}); !errors.Is(err, ErrChildrenField) {
		t.Errorf("children field: %v", err)
	}
	if err := l.SetField(path("/A"), "bogus", 1); !errors.Is(err, ErrUnknownField) {
		t.Errorf("unknown field: %v", err)
	}
	if err := l.SetField(path("/Nope"), sdfdata.FieldKind, value.Token("x")); !errors.Is(err, ErrSpecNotFound) {
		t.Errorf("missing spec: %v", err)
	}

	refs := listop.CreatePrepended(sdfdata.Reference{AssetPath: "a.sdf", PrimPath: path("/R")})
	must(t, l.SetField(path("/A"), sdfdata.FieldReferences, refs))
	refs.AddToAppend(sdfdata.Reference{AssetPath: "b.sdf"})
	a, _ := l.GetSpec(path("/A"))
	if got := a.References(); len(got.AppendedItems) != 0 {
		t.Errorf("stored list op aliases the caller's: %+v", got)
	}
	got := a.References()
	got.AddToDelete(sdfdata.Reference{AssetPath: "c.sdf"})
	if again := a.References(); len(again.DeletedItems) != 0 {
		t.Errorf("returned list op aliases the stored one")
	}
	if diff := cmp.Diff([]sdfdata.Reference{{AssetPath: "a.sdf", PrimPath: path("/R"), Offset: sdfdata.IdentityOffset}}, l.EffectiveReferences(path("/A")), cmp.Comparer(sdfpath.Path.Equal)); diff != "" {
		t.Errorf("effective references (-want +got):\n%s", diff)
	}

	must(t, l.SetField(path("/A"), sdfdata.FieldReferences, sdfdata.ReferenceListOp{}))
	if l.HasField(path("/A"), sdfdata.FieldReferences) {
		t.Errorf("empty list op did not clear the field")
	}
	explicitNone := listop.CreateExplicit[sdfdata.Reference]()
	must(t, l.SetField(path("/A"), sdfdata.FieldReferences, explicitNone))
	if !l.HasField(path("/A"), sdfdata.FieldReferences) {
		t.Errorf("explicit empty list op was dropped")
	}
}

func TestSetFieldUnchanged(t *testing.T) {
	env := testEnv(t)
	l := anon(t, env)
	_, err := l.CreatePrimSpec(sdfpath.AbsoluteRoot(), "A", sdfdata.SpecifierDef, "")
	must(t, err)
	must(t, l.SetField(path("/A"), sdfdata.FieldKind, value.Token("group")))
	rec := record(env)
	must(t, l.SetField(path("/A"), sdfdata.FieldKind, value.Token("group")))
	must(t, l.ClearField(path("/A"), sdfdata.FieldHidden))
	if len(rec.got) != 0 {
		t.Errorf("no-op edits notified: %v", rec.got[0].list)
	}
}

func TestMoveSpec(t *testing.T) {
	env := testEnv(t)
	l := anon(t, env)
	must(t, l.ImportFromString(`#sdf 1.0

def "A"
{
    rel r = </A/B.x>

    def "B" (
        inherits = </A/C>
    )
    {
        int x = 1
    }

    def "C"
    {
    }
}

def "D"
{
    rel out = </A/B>
}
`))
	rec := record(env)
	must(t, l.MoveSpec(path("/A/B"), path("/D/B2")))

	if _, ok := l.GetSpec(path("/A/B")); ok {
		t.Errorf("old path still present")
	}
	x, ok := l.GetSpec(path("/D/B2.x"))
	if !ok {
		t.Fatalf("property did not move")
	}
	if v, _ := x.Default(); v != int32(1) {
		t.Errorf("moved default: %v", v)
	}
	if diff := cmp.Diff([]string{"C"}, l.OrderedPrimChildren(path("/A"))); diff != "" {
		t.Errorf("old parent children (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"B2"}, l.OrderedPrimChildren(path("/D"))); diff != "" {
		t.Errorf("new parent children (-want +got):\n%s", diff)
	}
	eq := cmp.Comparer(sdfpath.Path.Equal)
	if diff := cmp.Diff([]sdfpath.Path{path("/A/C")}, l.EffectiveInherits(path("/D/B2")), eq); diff != "" {
		t.Errorf("inherits outside the subtree changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]sdfpath.Path{path("/A/B.x")}, l.EffectiveTargetPaths(path("/A.r")), eq); diff != "" {
		t.Errorf("targets outside the moved subtree changed (-want +got):\n%s", diff)
	}
	want := []string{
		"/A: fields primChildren",
		"/D: fields primChildren",
		"/D/B2: renamed from /A/B",
	}
	if diff := cmp.Diff(want, summary(rec.got[0].list)); diff != "" {
		t.Errorf("change list (-want +got):\n%s", diff)
	}

	cases := []struct {
		from, to string
		want     error
	}{
		{"/D/B2", "/D", ErrNamespaceEditConflict},
		{"/D", "/D/B2/E", ErrNamespaceEditConflict},
		{"/A", "/Z/A", ErrInvalidParent},
		{"/Nope", "/Z", ErrSpecNotFound},
		{"/D/B2.x", "/D/B2/E", ErrInvalidPathOperation},
	}
	for _, c := range cases {
		if err := l.MoveSpec(path(c.from), path(c.to)); !errors.Is(err, c.want) {
			t.Errorf("MoveSpec(%s, %s) = %v, want %v", c.from, c.to, err, c.want)
		}
	}
}

func TestMoveRetargetsInsideSubtree(t *testing.T) {
	env := testEnv(t)
	l := anon(t, env)
	must(t, l.ImportFromString(`#sdf 1.0

def "A"
{
    rel r = </A/B>
    double y.connect = </A.z>

    def "B" (
        references = </A/C>
    )
    {
    }
}
`))
	must(t, l.MoveSpec(path("/A"), path("/M")))
	eq := cmp.Comparer(sdfpath.Path.Equal)
	if diff := cmp.Diff([]sdfpath.Path{path("/M/B")}, l.EffectiveTargetPaths(path("/M.r")), eq); diff != "" {
		t.Errorf("targets (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]sdfpath.Path{path("/M.z")}, l.EffectiveConnectionPaths(path("/M.y")), eq); diff != "" {
		t.Errorf("connections (-want +got):\n%s", diff)
	}
	refs := l.EffectiveReferences(path("/M/B"))
	if len(refs) != 1 || refs[0].PrimPath != path("/M/C") {
		t.Errorf("internal reference not retargeted: %v", refs)
	}
	if diff := cmp.Diff([]string{"M"}, l.OrderedPrimChildren(sdfpath.AbsoluteRoot())); diff != "" {
		t.Errorf("rename kept position (-want +got):\n%s", diff)
	}
}

func TestPermissionToEdit(t *testing.T) {
	env := testEnv(t)
	l := anon(t, env)
	l.SetPermissionToEdit(false)
	if _, err := l.CreatePrimSpec(sdfpath.AbsoluteRoot(), "A", sdfdata.SpecifierDef, ""); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("create: %v", err)
	}
	if err := l.SetComment("x"); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("set field: %v", err)
	}
	if err := l.ImportFromString("#sdf 1.0\n"); !errors.Is(err, ErrPermissionDenied) {
		t.Errorf("import: %v", err)
	}
	if l.IsDirty() {
		t.Errorf("denied edits dirtied the layer")
	}
}

func TestOrdered(t *testing.T) {
	env := testEnv(t)
	l := anon(t, env)
	must(t, l.ImportFromString(`#sdf 1.0

reorder nameChildren = ["C", "A"]

def "A"
{
}

def "B"
{
}

def "C"
{
}
`))
	if diff := cmp.Diff([]string{"C", "B", "A"}, l.OrderedPrimChildren(sdfpath.AbsoluteRoot())); diff != "" {
		t.Errorf("ordered children (-want +got):\n%s", diff)
	}
	var names []string
	for _, s := range l.RootPrims() {
		names = append(names, s.Name())
	}
	if diff := cmp.Diff([]string{"A", "B", "C"}, names); diff != "" {
		t.Errorf("authored children (-want +got):\n%s", diff)
	}
}

func TestCreateSpecDefaults(t *testing.T) {
	env := testEnv(t)
	l := anon(t, env)
	tests := []struct {
		path string
		typ  sdfdata.SpecType
		want map[string]any
	}{
		{"/A", sdfdata.SpecTypePrim, map[string]any{sdfdata.FieldSpecifier: sdfdata.SpecifierOver}},
		{"/A.r", sdfdata.SpecTypeRelationship, map[string]any{
			sdfdata.FieldCustom:      false,
			sdfdata.FieldVariability: sdfdata.VariabilityVarying,
		}},
		{"/A{v=}", sdfdata.SpecTypeVariantSet, map[string]any{}},
		{"/A{v=x}", sdfdata.SpecTypeVariant, map[string]any{}},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			s, err := l.CreateSpec(path(tt.path), tt.typ)
			must(t, err)
			got := map[string]any{}
			for _, f := range s.ListFields() {
				if d := env.Schema().Field(f); d != nil && d.Children {
					continue
				}
				got[f], _ = s.Field(f)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("fields of %s (-want +got):\n%s", tt.path, diff)
			}
		})
	}
	if _, err := l.CreateSpec(path("/A.x"), sdfdata.SpecTypeAttribute); !errors.Is(err, ErrUnknownType) {
		t.Errorf("untyped attribute: %v", err)
	}
	if _, ok := l.GetSpec(path("/A.x")); ok {
		t.Errorf("untyped attribute was created")
	}
}

func TestRequiredFields(t *testing.T) {
	env := testEnv(t)
	l := anon(t, env)
	_, err := l.CreatePrimSpec(sdfpath.AbsoluteRoot(), "A", sdfdata.SpecifierDef, "Xform")
	must(t, err)
	_, err = l.CreateAttributeSpec(path("/A"), "x", "int", sdfdata.VariabilityVarying, false)
	must(t, err)
	_, err = l.CreateRelationshipSpec(path("/A"), "r", sdfdata.VariabilityVarying, false)
	must(t, err)
	for _, c := range []struct{ path, field string }{
		{"/A", sdfdata.FieldSpecifier},
		{"/A.x", sdfdata.FieldTypeName},
		{"/A.x", sdfdata.FieldCustom},
		{"/A.r", sdfdata.FieldVariability},
	} {
		if err := l.ClearField(path(c.path), c.field); !errors.Is(err, ErrRequiredField) {
			t.Errorf("ClearField(%s, %s) = %v", c.path, c.field, err)
		}
		if !l.HasField(path(c.path), c.field) {
			t.Errorf("%s lost %s", c.path, c.field)
		}
	}
	must(t, l.SetField(path("/A"), sdfdata.FieldTypeName, value.Token("")))
	if l.HasField(path("/A"), sdfdata.FieldTypeName) {
		t.Errorf("empty prim type name was stored")
	}
}

func TestSetFieldNormalizesListOps(t *testing.T) {
	env := testEnv(t)
	l := anon(t, env)
	_, err := l.CreatePrimSpec(sdfpath.AbsoluteRoot(), "A", sdfdata.SpecifierDef, "")
	must(t, err)
	a := path("/A")
	tests := []struct {
		name  string
		field string
		set   any
		want  any
	}{
		{
			name:  "zero reference offset",
			field: sdfdata.FieldReferences,
			set:   listop.CreatePrepended(sdfdata.Reference{AssetPath: "x.sdf", PrimPath: path("/B")}),
			want:  listop.CreatePrepended(sdfdata.Reference{AssetPath: "x.sdf", PrimPath: path("/B"), Offset: sdfdata.IdentityOffset}),
		},
		{
			name:  "zero payload offset",
			field: sdfdata.FieldPayload,
			set:   listop.CreateExplicit(sdfdata.Payload{AssetPath: "p.sdf"}),
			want:  listop.CreateExplicit(sdfdata.Payload{AssetPath: "p.sdf", Offset: sdfdata.IdentityOffset}),
		},
		{
			name:  "explicit with appended",
			field: sdfdata.FieldInheritPaths,
			set: listop.Op[sdfpath.Path]{
				Explicit:      true,
				ExplicitItems: []sdfpath.Path{path("/X"), path("/Y")},
				AppendedItems: []sdfpath.Path{path("/Z")},
			},
			want: listop.CreateExplicit(path("/X"), path("/Y")),
		},
		{
			name:  "stale explicit items",
			field: sdfdata.FieldAPISchemas,
			set:   listop.Op[string]{ExplicitItems: []string{"Old"}, AppendedItems: []string{"New"}},
			want:  listop.CreateAppended("New"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			must(t, l.SetField(a, tt.field, tt.set))
			got, _ := l.GetField(a, tt.field)
			if !sdfdata.FieldEqual(tt.want, got) {
				t.Errorf("stored %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestEditsKeepOrderFields(t *testing.T) {
	env := testEnv(t)
	l := anon(t, env)
	must(t, l.ImportFromString(`#sdf 1.0

reorder nameChildren = ["C", "B", "A"]

def "A"
{
    reorder properties = ["z", "y", "x"]
    int x
    int y
    int z
}

def "B"
{
}

def "C"
{
}
`))
	root := sdfpath.AbsoluteRoot()
	order := func(p sdfpath.Path, field string) []string {
		v, _ := l.GetField(p, field)
		names, _ := v.([]string)
		return names
	}
	tests := []struct {
		name   string
		edit   func() error
		p      sdfpath.Path
		field  string
		want   []string
		listed []string
	}{
		{
			name:   "rename prim",
			edit:   func() error { return l.MoveSpec(path("/B"), path("/B2")) },
			p:      root,
			field:  sdfdata.FieldPrimOrder,
			want:   []string{"C", "B2", "A"},
			listed: []string{"C", "B2", "A"},
		},
		{
			name:   "remove prim",
			edit:   func() error { return l.RemoveSpec(path("/C")) },
			p:      root,
			field:  sdfdata.FieldPrimOrder,
			want:   []string{"B2", "A"},
			listed: []string{"B2", "A"},
		},
		{
			name:   "move prim to another parent",
			edit:   func() error { return l.MoveSpec(path("/B2"), path("/A/B")) },
			p:      root,
			field:  sdfdata.FieldPrimOrder,
			want:   []string{"A"},
			listed: []string{"A"},
		},
		{
			name:   "rename property",
			edit:   func() error { return l.MoveSpec(path("/A.y"), path("/A.w")) },
			p:      path("/A"),
			field:  sdfdata.FieldPropertyOrder,
			want:   []string{"z", "w", "x"},
			listed: []string{"z", "w", "x"},
		},
		{
			name:   "remove property",
			edit:   func() error { return l.RemoveSpec(path("/A.z")) },
			p:      path("/A"),
			field:  sdfdata.FieldPropertyOrder,
			want:   []string{"w", "x"},
			listed: []string{"w", "x"},
		},
		{
			name:   "remove last ordered names",
			edit:   func() error { return l.RemoveSpec(path("/A")) },
			p:      root,
			field:  sdfdata.FieldPrimOrder,
			want:   nil,
			listed: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			must(t, tt.edit())
			if diff := cmp.Diff(tt.want, order(tt.p, tt.field)); diff != "" {
				t.Errorf("%s of %s (-want +got):\n%s", tt.field, tt.p, diff)
			}
			var listed []string
			if tt.field == sdfdata.FieldPrimOrder {
				listed = l.OrderedPrimChildren(tt.p)
			} else {
				listed = l.OrderedProperties(tt.p)
			}
			if diff := cmp.Diff(tt.listed, listed); diff != "" {
				t.Errorf("ordered names (-want +got):\n%s", diff)
			}
		})
	}
}

func TestChangeScopes(t *testing.T) {
	env := testEnv(t)
	x, y := anon(t, env), anon(t, env)
	sx, sy := env.NewChangeScope(), env.NewChangeScope()
	x.SetChangeScope(sx)
	y.SetChangeScope(sy)
	if x.ChangeScope() != sx || y.ChangeScope() != sy {
		t.Fatalf("change scopes not set")
	}
	rec := record(env)

	by := sy.OpenBlock()
	_, err := y.CreatePrimSpec(sdfpath.AbsoluteRoot(), "Y", sdfdata.SpecifierDef, "")
	must(t, err)
	bx := sx.OpenBlock()
	_, err = x.CreatePrimSpec(sdfpath.AbsoluteRoot(), "X", sdfdata.SpecifierDef, "")
	must(t, err)
	must(t, bx.Close())
	if len(rec.got) != 1 || rec.got[0].layer != x {
		t.Fatalf("after closing x's block got %d notifications, want one for x", len(rec.got))
	}
	must(t, by.Close())
	if len(rec.got) != 2 || rec.got[1].layer != y {
		t.Fatalf("after closing y's block got %d notifications, want a second for y", len(rec.got))
	}

	l, err := CreateAnonymous(env, "scoped", WithChangeScope(sx))
	must(t, err)
	if l.ChangeScope() != sx {
		t.Errorf("WithChangeScope not applied")
	}
	if anon(t, env).ChangeScope() != env.Changes().DefaultScope() {
		t.Errorf("layers default to a scope other than the manager's")
	}
}
