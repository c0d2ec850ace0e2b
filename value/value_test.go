package value

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRoundTrip(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		typ  string
		v    any
		text string
	}{
		{"bool", true, "true"},
		{"uchar", uint8(200), "200"},
		{"int", int32(-7), "-7"},
		{"uint", uint32(7), "7"},
		{"int64", int64(1) << 40, "1099511627776"},
		{"uint64", uint64(math.MaxUint64), "18446744073709551615"},
		{"half", Half(0.5), "0.5"},
		{"float", float32(0.1), "0.1"},
		{"double", 0.1, "0.1"},
		{"double", math.Inf(-1), "-inf"},
		{"string", "a \"b\"\n", `"a \"b\"\n"`},
		{"token", Token("component"), `"component"`},
		{"asset", AssetPath{Path: "./a.sdf"}, "@./a.sdf@"},
		{"asset", AssetPath{Path: "odd@name"}, "@@@odd@name@@@"},
		{"int2", Int2{1, -2}, "(1, -2)"},
		{"float3", Float3{1, 2.5, 3}, "(1, 2.5, 3)"},
		{"color3f", Color3f{0.25, 0.5, 1}, "(0.25, 0.5, 1)"},
		{"quatd", Quatd{1, 0, 0, 0}, "(1, 0, 0, 0)"},
		{"matrix2d", Matrix2d{{1, 0}, {0, 1}}, "((1, 0), (0, 1))"},
		{"float[]", []float32{1, 2}, "[1, 2]"},
		{"token[]", []Token{"a", "b"}, `["a", "b"]`},
		{"point3f[]", []Point3f{{0, 0, 0}, {1, 1, 1}}, "[(0, 0, 0), (1, 1, 1)]"},
		{"string[]", []string{}, "[]"},
		{"dictionary", Dictionary{}, "{}"},
		{"dictionary", Dictionary{
			"b":     int32(1),
			"a key": "x",
			"sub":   Dictionary{"f": []float64{1}},
		}, `{ string "a key" = "x"; int b = 1; dictionary sub = { double[] f = [1] } }`},
	}
	for _, tt := range tests {
		t.Run(tt.typ+" "+tt.text, func(t *testing.T) {
			if err := r.Check(tt.typ, tt.v); err != nil {
				t.Fatalf("Check: %v", err)
			}
			got, err := r.Format(tt.typ, tt.v)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.text {
				t.Errorf("Format = %s, want %s", got, tt.text)
			}
			back, err := r.Parse(tt.typ, got)
			if err != nil {
				t.Fatalf("Parse(%s): %v", got, err)
			}
			if diff := cmp.Diff(tt.v, back); diff != "" {
				t.Errorf("round trip (-want +got):\n%s", diff)
			}
			name, err := r.TypeOf(tt.v)
			if err != nil {
				t.Fatal(err)
			}
			if name != tt.typ {
				t.Errorf("TypeOf = %s, want %s", name, tt.typ)
			}
		})
	}
}

func TestParseForms(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		typ  string
		text string
		want any
	}{
		{"bool", "1", true},
		{"bool", "false", false},
		{"double", "1e3", 1000.0},
		{"double", ".5", 0.5},
		{"float", "inf", float32(math.Inf(1))},
		{"string", "'single'", "single"},
		{"string", `"""tri
ple"""`, "tri\nple"},
		{"int[]", "[1, 2, 3,]", []int32{1, 2, 3}},
		{"float", "None", Block{}},
		{"dictionary", "{\n  int a = 1\n  string b = \"x\"\n}", Dictionary{"a": int32(1), "b": "x"}},
	}
	for _, tt := range tests {
		got, err := r.Parse(tt.typ, tt.text)
		if err != nil {
			t.Errorf("Parse(%s, %q): %v", tt.typ, tt.text, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Parse(%s, %q) (-want +got):\n%s", tt.typ, tt.text, diff)
		}
	}
}

func TestParseErrors(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		typ  string
		text string
		want error
	}{
		{"int", "1.5", ErrBadLiteral},
		{"uchar", "300", ErrBadLiteral},
		{"float3", "(1, 2)", ErrBadLiteral},
		{"float3", "(1, 2, 3", ErrBadLiteral},
		{"string", "abc", ErrBadLiteral},
		{"bool", "yes", ErrBadLiteral},
		{"int", "1 2", ErrBadLiteral},
		{"nosuch", "1", ErrUnknownType},
		{"dictionary", "{ nosuch a = 1 }", ErrUnknownType},
	}
	for _, tt := range tests {
		if _, err := r.Parse(tt.typ, tt.text); !errors.Is(err, tt.want) {
			t.Errorf("Parse(%s, %q) error = %v, want %v", tt.typ, tt.text, err, tt.want)
		}
	}
}

func TestCheck(t *testing.T) {
	r := NewRegistry()
	if err := r.Check("float", 1.0); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("float64 checked as float: %v", err)
	}
	if err := r.Check("float3", Color3f{}); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("color3f checked as float3: %v", err)
	}
	if err := r.Check("float3", Block{}); err != nil {
		t.Errorf("Block rejected: %v", err)
	}
	if err := r.Check("dictionary", Dictionary{"a": 3}); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("untyped int in dictionary accepted: %v", err)
	}
}

func TestDefaults(t *testing.T) {
	r := NewRegistry()
	for _, name := range r.Names() {
		d, err := r.Default(name)
		if err != nil {
			t.Fatal(err)
		}
		if got := reflect.TypeOf(d); got != r.Lookup(name).GoType {
			t.Errorf("Default(%s) has type %v", name, got)
		}
		if err := r.Check(name, d); err != nil {
			t.Errorf("Check(Default(%s)): %v", name, err)
		}
	}
}

func TestRegister(t *testing.T) {
	type Frame int32
	r := NewRegistry()
	ft := scalar("frame", func(l Literal) (Frame, error) {
		i, err := litInt(l, 32)
		return Frame(i), err
	}, func(f Frame) string { return FormatFloat(float64(f), 64) })
	if err := r.Register(ft); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(ft); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate register: %v", err)
	}
	v, err := r.Parse("frame", "12")
	if err != nil {
		t.Fatal(err)
	}
	if v != Frame(12) {
		t.Errorf("got %v", v)
	}
}

func TestTimeSamples(t *testing.T) {
	var ts TimeSamples
	ts = ts.Set(2, 2.0)
	ts = ts.Set(0, 0.0)
	ts = ts.Set(1, Block{})
	ts = ts.Set(2, 4.0)
	if diff := cmp.Diff([]float64{0, 1, 2}, ts.Times()); diff != "" {
		t.Errorf("times (-want +got):\n%s", diff)
	}
	if v, ok := ts.Get(2); !ok || v != 4.0 {
		t.Errorf("Get(2) = %v, %v", v, ok)
	}
	ts = ts.Remove(1)
	if _, ok := ts.Get(1); ok {
		t.Errorf("sample 1 not removed")
	}
}
