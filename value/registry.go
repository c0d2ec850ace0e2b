package value

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/signadot/go-sdf/token"
)

// Type describes one value type.
type Type struct {
	Name   string
	GoType reflect.Type
	// Elem is the element type of array types.
	Elem *Type

	Default     func() any
	FromLiteral func(Literal) (any, error)
	Format      func(any) (string, error)
}

// IsArray reports whether t is an array type.
func (t *Type) IsArray() bool {
	return t.GoType.Kind() == reflect.Slice
}

// Registry maps type names to types. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Type
	byGo   map[reflect.Type]*Type
}

// NewRegistry returns a registry holding the builtin types and their
// array forms.
func NewRegistry() *Registry {
	r := &Registry{
		byName: map[string]*Type{},
		byGo:   map[reflect.Type]*Type{},
	}
	for _, t := range builtins() {
		r.mustRegister(t)
		r.mustRegister(ArrayOf(t))
	}
	r.mustRegister(dictionaryType(r))
	return r
}

func (r *Registry) mustRegister(t *Type) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Register adds t. It fails if the name or Go type is already taken.
func (r *Registry) Register(t *Type) error {
	if t == nil || t.Name == "" || t.GoType == nil {
		return fmt.Errorf("%w: type needs a name and a Go type", ErrUnknownType)
	}
	if t.FromLiteral == nil || t.Format == nil {
		return fmt.Errorf("%w: type %q needs literal conversions", ErrUnknownType, t.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[t.Name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicate, t.Name)
	}
	if o, exists := r.byGo[t.GoType]; exists {
		return fmt.Errorf("%w: Go type %s already used by %q", ErrDuplicate, t.GoType, o.Name)
	}
	r.byName[t.Name] = t
	r.byGo[t.GoType] = t
	return nil
}

// Lookup returns the type named name, or nil.
func (r *Registry) Lookup(name string) *Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

func (r *Registry) lookup(name string) (*Type, error) {
	t := r.Lookup(name)
	if t == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}
	return t, nil
}

// Names returns all registered type names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]string, 0, len(r.byName))
	for k := range r.byName {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}

// TypeOf returns the name of the type whose Go representation is the
// dynamic type of v.
func (r *Registry) TypeOf(v any) (string, error) {
	if v == nil {
		return "", fmt.Errorf("%w: nil value", ErrTypeMismatch)
	}
	r.mu.RLock()
	t := r.byGo[reflect.TypeOf(v)]
	r.mu.RUnlock()
	if t == nil {
		return "", fmt.Errorf("%w: no type for Go %T", ErrTypeMismatch, v)
	}
	return t.Name, nil
}

// Default returns the default value of the named type.
func (r *Registry) Default(name string) (any, error) {
	t, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	return t.Default(), nil
}

// Check verifies v holds the named type. Block is valid for every type.
func (r *Registry) Check(name string, v any) error {
	t, err := r.lookup(name)
	if err != nil {
		return err
	}
	if _, ok := v.(Block); ok {
		return nil
	}
	if v == nil || reflect.TypeOf(v) != t.GoType {
		return fmt.Errorf("%w: %T is not %s", ErrTypeMismatch, v, name)
	}
	if d, ok := v.(Dictionary); ok {
		for _, k := range d.Keys() {
			if _, err := r.TypeOf(d[k]); err != nil {
				return fmt.Errorf("dictionary key %q: %w", k, err)
			}
		}
	}
	return nil
}

// FromLiteral converts lit to a value of the named type.
func (r *Registry) FromLiteral(name string, lit Literal) (any, error) {
	if lit.IsNone() {
		return Block{}, nil
	}
	t, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	return t.FromLiteral(lit)
}

// Parse converts the literal text s to a value of the named type.
func (r *Registry) Parse(name string, s string) (any, error) {
	toks, err := token.Tokenize(nil, []byte(s))
	if err != nil {
		return nil, err
	}
	i := 0
	lit, err := ReadLiteral(toks, &i)
	if err != nil {
		return nil, err
	}
	if t := &toks[i]; t.Type != token.TEOF {
		return nil, litErr(t, "trailing %s", t.Type)
	}
	return r.FromLiteral(name, lit)
}

// Format returns the literal text of v as the named type.
func (r *Registry) Format(name string, v any) (string, error) {
	if _, ok := v.(Block); ok {
		return "None", nil
	}
	t, err := r.lookup(name)
	if err != nil {
		return "", err
	}
	return t.Format(v)
}

// FormatValue formats v using the type registered for its Go type.
func (r *Registry) FormatValue(v any) (string, error) {
	if _, ok := v.(Block); ok {
		return "None", nil
	}
	name, err := r.TypeOf(v)
	if err != nil {
		return "", err
	}
	return r.Format(name, v)
}

// ArrayOf returns the array type "elem[]".
func ArrayOf(elem *Type) *Type {
	gt := reflect.SliceOf(elem.GoType)
	name := elem.Name + "[]"
	return &Type{
		Name:    name,
		GoType:  gt,
		Elem:    elem,
		Default: func() any { return reflect.MakeSlice(gt, 0, 0).Interface() },
		FromLiteral: func(l Literal) (any, error) {
			if l.Kind != LitList {
				return nil, l.errorf("expected list for %s, got %s", name, l.Kind)
			}
			v := reflect.MakeSlice(gt, 0, len(l.Elems))
			for _, e := range l.Elems {
				x, err := elem.FromLiteral(e)
				if err != nil {
					return nil, err
				}
				v = reflect.Append(v, reflect.ValueOf(x))
			}
			return v.Interface(), nil
		},
		Format: func(x any) (string, error) {
			v := reflect.ValueOf(x)
			if !v.IsValid() || v.Type() != gt {
				return "", fmt.Errorf("%w: %T is not %s", ErrTypeMismatch, x, name)
			}
			parts := make([]string, v.Len())
			for i := range parts {
				s, err := elem.Format(v.Index(i).Interface())
				if err != nil {
					return "", err
				}
				parts[i] = s
			}
			return "[" + strings.Join(parts, ", ") + "]", nil
		},
	}
}

func tupleType(name string, gt reflect.Type, elem *Type) *Type {
	n := gt.Len()
	return &Type{
		Name:    name,
		GoType:  gt,
		Default: func() any { return reflect.Zero(gt).Interface() },
		FromLiteral: func(l Literal) (any, error) {
			if l.Kind != LitTuple || len(l.Elems) != n {
				return nil, l.errorf("expected %d-tuple for %s", n, name)
			}
			v := reflect.New(gt).Elem()
			for i, e := range l.Elems {
				x, err := elem.FromLiteral(e)
				if err != nil {
					return nil, err
				}
				v.Index(i).Set(reflect.ValueOf(x))
			}
			return v.Interface(), nil
		},
		Format: func(x any) (string, error) {
			v := reflect.ValueOf(x)
			if !v.IsValid() || v.Type() != gt {
				return "", fmt.Errorf("%w: %T is not %s", ErrTypeMismatch, x, name)
			}
			parts := make([]string, n)
			for i := range parts {
				s, err := elem.Format(v.Index(i).Interface())
				if err != nil {
					return "", err
				}
				parts[i] = s
			}
			return "(" + strings.Join(parts, ", ") + ")", nil
		},
	}
}

func dictionaryType(r *Registry) *Type {
	return &Type{
		Name:    "dictionary",
		GoType:  reflect.TypeFor[Dictionary](),
		Default: func() any { return Dictionary{} },
		FromLiteral: func(l Literal) (any, error) {
			if l.Kind != LitDict {
				return nil, l.errorf("expected dictionary, got %s", l.Kind)
			}
			d := make(Dictionary, len(l.Entries))
			for _, e := range l.Entries {
				v, err := r.FromLiteral(e.Type, e.Value)
				if err != nil {
					return nil, fmt.Errorf("dictionary key %q: %w", e.Key, err)
				}
				d[e.Key] = v
			}
			return d, nil
		},
		Format: func(x any) (string, error) {
			d, ok := x.(Dictionary)
			if !ok {
				return "", fmt.Errorf("%w: %T is not dictionary", ErrTypeMismatch, x)
			}
			if len(d) == 0 {
				return "{}", nil
			}
			var b strings.Builder
			b.WriteString("{ ")
			for i, k := range d.Keys() {
				if i > 0 {
					b.WriteString("; ")
				}
				s, err := r.FormatEntry(k, d[k])
				if err != nil {
					return "", err
				}
				b.WriteString(s)
			}
			b.WriteString(" }")
			return b.String(), nil
		},
	}
}

// FormatEntry formats one dictionary entry as "type key = value".
func (r *Registry) FormatEntry(key string, v any) (string, error) {
	name, err := r.TypeOf(v)
	if err != nil {
		return "", fmt.Errorf("dictionary key %q: %w", key, err)
	}
	s, err := r.Format(name, v)
	if err != nil {
		return "", err
	}
	return name + " " + formatKey(key) + " = " + s, nil
}
