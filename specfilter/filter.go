// Package specfilter selects specs of a store with expr-lang predicates.
//
// A predicate sees the variables path, name, parent, type, depth and
// fields, and the functions has(name) and field(name). Field values are
// plain: tokens, specifiers and variabilities are strings, name lists are
// string slices, numbers and booleans are themselves, and every other
// value is its text form.
//
//	type == "prim" && field("kind") == "component"
//	type == "attribute" && has("timeSamples")
package specfilter

import (
	"errors"
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/signadot/go-sdf/sdfdata"
	"github.com/signadot/go-sdf/sdfpath"
	"github.com/signadot/go-sdf/textfmt"
	"github.com/signadot/go-sdf/value"
)

var ErrFilter = errors.New("filter error")

// Filter is a compiled predicate.
type Filter struct {
	src     string
	program *vm.Program
	codec   *textfmt.FieldCodec
}

// Compile compiles src. The schema is used to render field values and may
// be nil.
func Compile(src string, schema *sdfdata.Schema) (*Filter, error) {
	if src == "" {
		return nil, fmt.Errorf("%w: empty expression", ErrFilter)
	}
	program, err := expr.Compile(src, exprOpts()...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFilter, err)
	}
	return &Filter{src: src, program: program, codec: textfmt.NewFieldCodec(schema)}, nil
}

func (f *Filter) String() string { return f.src }

// sampleEnv fixes the types of the environment for compilation.
func sampleEnv() map[string]any {
	return map[string]any{
		"path":   "",
		"name":   "",
		"parent": "",
		"type":   "",
		"depth":  0,
		"fields": map[string]any{},
		"has":    func(string) bool { return false },
		"field":  func(string) any { return nil },
	}
}

func exprOpts() []expr.Option {
	return []expr.Option{
		expr.Env(sampleEnv()),
		expr.AsBool(),
	}
}

// Match reports whether the spec at p satisfies the predicate.
func (f *Filter) Match(s sdfdata.Store, p sdfpath.Path) (bool, error) {
	env, err := f.env(s, p)
	if err != nil {
		return false, err
	}
	res, err := expr.Run(f.program, env)
	if err != nil {
		return false, fmt.Errorf("%w: %s at %s: %w", ErrFilter, f.src, p, err)
	}
	return res.(bool), nil
}

// Select returns the paths of the matching specs in path order. The
// pseudo root is never selected.
func (f *Filter) Select(s sdfdata.Store) ([]sdfpath.Path, error) {
	var (
		res []sdfpath.Path
		err error
	)
	s.VisitSpecs(func(p sdfpath.Path, _ sdfdata.SpecType) bool {
		if p.IsAbsoluteRoot() {
			return true
		}
		var ok bool
		ok, err = f.Match(s, p)
		if err != nil {
			return false
		}
		if ok {
			res = append(res, p)
		}
		return true
	})
	return res, err
}

func (f *Filter) env(s sdfdata.Store, p sdfpath.Path) (map[string]any, error) {
	fields := map[string]any{}
	for _, name := range s.ListFields(p) {
		v, _ := s.ReadField(p, name)
		pv, err := f.plain(name, v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %s: %w", ErrFilter, p, name, err)
		}
		fields[name] = pv
	}
	parent := ""
	if pp := p.Parent(); !pp.IsEmpty() {
		parent = pp.String()
	}
	return map[string]any{
		"path":   p.String(),
		"name":   p.Name(),
		"parent": parent,
		"type":   s.SpecType(p).String(),
		"depth":  p.Depth(),
		"fields": fields,
		"has": func(name string) bool {
			_, ok := fields[name]
			return ok
		},
		"field": func(name string) any {
			return fields[name]
		},
	}, nil
}

func (f *Filter) plain(name string, v any) (any, error) {
	switch x := v.(type) {
	case bool, string, float64, float32, int, int32, int64, uint32, uint64:
		return x, nil
	case value.Token:
		return string(x), nil
	case sdfdata.Specifier:
		return x.String(), nil
	case sdfdata.Variability:
		return x.String(), nil
	case []string:
		return x, nil
	}
	return f.codec.Encode(name, v)
}
