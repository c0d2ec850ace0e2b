package sqlitestore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/go-sdf/listop"
	"github.com/signadot/go-sdf/sdfdata"
	"github.com/signadot/go-sdf/sdfpath"
	"github.com/signadot/go-sdf/value"
)

func openTemp(t *testing.T, dbPath string) *Store {
	t.Helper()
	s, err := Open(context.Background(), dbPath, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

func TestPersistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "layer.db")
	s := openTemp(t, dbPath)

	a := sdfpath.MustParse("/A")
	b := sdfpath.MustParse("/A/B")
	x := sdfpath.MustParse("/A.x")
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(s.CreateSpec(a, sdfdata.SpecTypePrim))
	must(s.CreateSpec(b, sdfdata.SpecTypePrim))
	must(s.CreateSpec(x, sdfdata.SpecTypeAttribute))
	must(s.WriteField(sdfpath.AbsoluteRoot(), sdfdata.FieldPrimChildren, []string{"A"}))
	must(s.WriteField(a, sdfdata.FieldSpecifier, sdfdata.SpecifierDef))
	must(s.WriteField(a, sdfdata.FieldPrimChildren, []string{"B"}))
	must(s.WriteField(a, sdfdata.FieldProperties, []string{"x"}))
	must(s.WriteField(a, sdfdata.FieldInheritPaths, listop.CreatePrepended(sdfpath.MustParse("/C"))))
	must(s.WriteField(a, sdfdata.FieldCustomData, value.Dictionary{"k": "v"}))
	must(s.WriteField(x, sdfdata.FieldTypeName, value.Token("double")))
	must(s.WriteField(x, sdfdata.FieldDefault, 2.5))
	must(s.WriteField(x, sdfdata.FieldTimeSamples, value.TimeSamples{{Time: 1, Value: 3.0}}))
	must(s.WriteField(b, sdfdata.FieldKind, value.Token("component")))
	must(s.EraseField(b, sdfdata.FieldKind))
	must(s.WriteField(b, sdfdata.FieldSpecifier, sdfdata.SpecifierOver))

	c := sdfpath.MustParse("/A/C")
	must(s.MoveSpec(b, c))

	snapshot := sdfdata.NewMem()
	must(sdfdata.Copy(snapshot, s))
	must(s.Close())

	s = openTemp(t, dbPath)
	defer s.Close()
	if !sdfdata.Equal(snapshot, s) {
		t.Errorf("reopened store differs from the one written")
	}
	if s.HasSpec(b) {
		t.Errorf("moved spec still at old path")
	}
	if v, _ := s.ReadField(c, sdfdata.FieldSpecifier); v != sdfdata.SpecifierOver {
		t.Errorf("moved spec lost its fields: %v", v)
	}
	if diff := cmp.Diff([]string{sdfdata.FieldSpecifier}, s.ListFields(c)); diff != "" {
		t.Errorf("fields of moved spec (-want +got):\n%s", diff)
	}
	must(s.EraseSpec(c))
	if s.HasSpec(c) || len(s.ListFields(c)) != 0 {
		t.Errorf("erased spec still present")
	}
}

func TestErrors(t *testing.T) {
	s := openTemp(t, filepath.Join(t.TempDir(), "sub", "layer.db"))
	defer s.Close()
	a := sdfpath.MustParse("/A")
	if err := s.WriteField(a, sdfdata.FieldKind, value.Token("x")); !errors.Is(err, sdfdata.ErrNoSpec) {
		t.Errorf("write to missing spec: %v", err)
	}
	if err := s.CreateSpec(a, sdfdata.SpecTypePrim); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateSpec(a, sdfdata.SpecTypePrim); !errors.Is(err, sdfdata.ErrSpecExists) {
		t.Errorf("duplicate create: %v", err)
	}
	if err := s.WriteField(a, "bogus", 1); !errors.Is(err, sdfdata.ErrUnknownField) {
		t.Errorf("unknown field: %v", err)
	}
	if _, ok := s.ReadField(a, "bogus"); ok {
		t.Errorf("failed write left a value")
	}
	if err := s.MoveSpec(sdfpath.MustParse("/Z"), a); !errors.Is(err, sdfdata.ErrNoSpec) {
		t.Errorf("move of missing spec: %v", err)
	}
}
