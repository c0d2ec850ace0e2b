package sdfpath

import (
	"errors"
	"slices"
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		in   string
		kind Kind
	}{
		{"/", RootKind},
		{".", ReflexiveKind},
		{"..", ParentKind},
		{"../..", ParentKind},
		{"/A", PrimKind},
		{"/A/B/C", PrimKind},
		{"A/B", PrimKind},
		{"../A", PrimKind},
		{"/A{v=red}", VariantSelectionKind},
		{"/A{v=}", VariantSelectionKind},
		{"/A{v=red}B", PrimKind},
		{"/A{v=red}{w=x}B", PrimKind},
		{"/A{v=red}.size", PropertyKind},
		{"/A.size", PropertyKind},
		{"/A.ns:size", PropertyKind},
		{".size", PropertyKind},
		{"../.size", PropertyKind},
		{"/A.rel[/B]", TargetKind},
		{"/A.rel[/B].attr", RelationalAttributeKind},
		{"/A.rel[/B.r[/C]].attr", RelationalAttributeKind},
		{"/A.attr.mapper[/B.c]", MapperKind},
		{"/A.attr.mapper[/B.c].arg", MapperArgKind},
		{"/A.attr.expression", ExpressionKind},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.in, err)
			}
			if got := p.String(); got != tt.in {
				t.Errorf("String() = %q, want %q", got, tt.in)
			}
			if p.Kind() != tt.kind {
				t.Errorf("Kind() = %s, want %s", p.Kind(), tt.kind)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{
		"//",
		"/A/",
		"/A//B",
		"/.A",
		"/A/./B",
		"/A/../B",
		"/A.b.c",
		"/A{v}",
		"/A{v=red",
		"/A.rel[/B",
		"/A.rel[]",
		"/A{v=}B",
		"/1A",
		"/A.",
		"..A",
		"{v=x}",
	} {
		t.Run(in, func(t *testing.T) {
			if _, err := Parse(in); !errors.Is(err, ErrInvalidPath) {
				t.Errorf("Parse(%q) error = %v, want ErrInvalidPath", in, err)
			}
		})
	}
}

func TestInterning(t *testing.T) {
	a := MustParse("/World/Geom.points")
	b, err := AbsoluteRoot().AppendChild("World")
	if err != nil {
		t.Fatal(err)
	}
	b, _ = b.AppendChild("Geom")
	b, _ = b.AppendProperty("points")
	if a != b {
		t.Errorf("independently built paths differ: %v vs %v", a, b)
	}
	m := map[Path]int{a: 1}
	if m[b] != 1 {
		t.Errorf("map lookup by equal path failed")
	}
	if internedCount() == 0 {
		t.Errorf("expected live interned entries")
	}
}

func TestInvalidPathOperation(t *testing.T) {
	prop := MustParse("/A.b")
	tests := []struct {
		name string
		op   func() (Path, error)
	}{
		{"child of property", func() (Path, error) { return prop.AppendChild("C") }},
		{"property of property", func() (Path, error) { return prop.AppendProperty("c") }},
		{"property of root", func() (Path, error) { return AbsoluteRoot().AppendProperty("c") }},
		{"variant of root", func() (Path, error) { return AbsoluteRoot().AppendVariantSelection("v", "x") }},
		{"target of prim", func() (Path, error) { return MustParse("/A").AppendTarget(MustParse("/B")) }},
		{"relattr of property", func() (Path, error) { return prop.AppendRelationalAttribute("x") }},
		{"bad child name", func() (Path, error) { return MustParse("/A").AppendChild("a b") }},
		{"child of variant set", func() (Path, error) { return MustParse("/A{v=}").AppendChild("B") }},
		{"parent above root", func() (Path, error) { return AbsoluteRoot().AppendElementString("..") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.op(); !errors.Is(err, ErrInvalidPathOperation) {
				t.Errorf("error = %v, want ErrInvalidPathOperation", err)
			}
		})
	}
}

func TestTotalOrder(t *testing.T) {
	p1 := MustParse("/A/b")
	p2 := MustParse("/A/c")
	p3 := MustParse("/A")
	if !(Compare(p3, p1) < 0 && Compare(p1, p2) < 0 && Compare(p3, p2) < 0) {
		t.Errorf("expected /A < /A/b < /A/c")
	}
	if got := p1.CommonPrefix(p2); got != p3 {
		t.Errorf("CommonPrefix = %v, want /A", got)
	}
	paths := []Path{
		MustParse("/B"),
		MustParse("/A.x"),
		MustParse("/A/C"),
		MustParse("/A"),
		AbsoluteRoot(),
		MustParse("/A{v=a}"),
	}
	slices.SortFunc(paths, Compare)
	want := []string{"/", "/A", "/A/C", "/A{v=a}", "/A.x", "/B"}
	for i, p := range paths {
		if p.String() != want[i] {
			t.Errorf("sorted[%d] = %v, want %s", i, p, want[i])
		}
	}
	if Compare(p1, p1) != 0 {
		t.Errorf("Compare not reflexive")
	}
}

func TestParent(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/A/B", "/A"},
		{"/A", "/"},
		{"/", ""},
		{".", ".."},
		{"..", "../.."},
		{"A", "."},
		{"/A{v=x}B", "/A{v=x}"},
		{"/A{v=x}", "/A"},
		{"/A.b[/C].d", "/A.b[/C]"},
	}
	for _, tt := range tests {
		p := MustParse(tt.in)
		if got := p.Parent().String(); got != tt.want {
			t.Errorf("Parent(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if p.Parent() == p {
			t.Errorf("Parent(%q) is itself", tt.in)
		}
	}
}

func TestPrefixOps(t *testing.T) {
	p := MustParse("/A/B.rel[/A/B/C].x")
	if !p.HasPrefix(MustParse("/A")) || p.HasPrefix(MustParse("/B")) {
		t.Errorf("HasPrefix wrong")
	}
	got, err := p.ReplacePrefix(MustParse("/A/B"), MustParse("/Z"))
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "/Z.rel[/Z/C].x" {
		t.Errorf("ReplacePrefix = %v", got)
	}
	if got := MustParse("/A{v=x}B{w=y}C.p").StripAllVariantSelections(); got.String() != "/A/B/C.p" {
		t.Errorf("StripAllVariantSelections = %v", got)
	}
	if got := MustParse("/A/B.p").PrimPath(); got.String() != "/A/B" {
		t.Errorf("PrimPath = %v", got)
	}
	pre := MustParse("/A/B/C").Prefixes()
	if len(pre) != 3 || pre[0].String() != "/A" || pre[2].String() != "/A/B/C" {
		t.Errorf("Prefixes = %v", pre)
	}
}

func TestRelative(t *testing.T) {
	anchor := MustParse("/A/B")
	abs, err := MustParse("../C.x").MakeAbsolute(anchor)
	if err != nil {
		t.Fatal(err)
	}
	if abs.String() != "/A/C.x" {
		t.Errorf("MakeAbsolute = %v", abs)
	}
	rel, err := abs.MakeRelative(anchor)
	if err != nil {
		t.Fatal(err)
	}
	if rel.String() != "../C.x" {
		t.Errorf("MakeRelative = %v", rel)
	}
	if _, err := MustParse("../../..").MakeAbsolute(anchor); err == nil {
		t.Errorf("expected error going above root")
	}
}

func TestTextMarshal(t *testing.T) {
	var p Path
	if err := p.UnmarshalText([]byte("/A.b")); err != nil {
		t.Fatal(err)
	}
	d, _ := p.MarshalText()
	if string(d) != "/A.b" {
		t.Errorf("MarshalText = %s", d)
	}
}
