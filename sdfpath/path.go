package sdfpath

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidPath          = errors.New("invalid path")
	ErrInvalidPathOperation = errors.New("invalid path operation")
)

// Kind is the kind of the last element of a path.
type Kind uint8

const (
	NoKind Kind = iota
	RootKind
	ReflexiveKind
	ParentKind
	PrimKind
	VariantSelectionKind
	PropertyKind
	TargetKind
	RelationalAttributeKind
	MapperKind
	MapperArgKind
	ExpressionKind
)

func (k Kind) String() string {
	switch k {
	case RootKind:
		return "root"
	case ReflexiveKind:
		return "reflexive"
	case ParentKind:
		return "parent"
	case PrimKind:
		return "prim"
	case VariantSelectionKind:
		return "variantSelection"
	case PropertyKind:
		return "property"
	case TargetKind:
		return "target"
	case RelationalAttributeKind:
		return "relationalAttribute"
	case MapperKind:
		return "mapper"
	case MapperArgKind:
		return "mapperArg"
	case ExpressionKind:
		return "expression"
	}
	return "none"
}

// Path is an interned namespace path. The zero value is the empty path.
type Path struct {
	n *node
}

var (
	absoluteRoot = intern(nodeKey{kind: RootKind})
	reflexive    = intern(nodeKey{kind: ReflexiveKind})
)

// AbsoluteRoot returns "/".
func AbsoluteRoot() Path { return Path{absoluteRoot} }

// Reflexive returns ".", the root of relative paths.
func Reflexive() Path { return Path{reflexive} }

// Empty returns the empty path.
func Empty() Path { return Path{} }

func (p Path) IsEmpty() bool { return p.n == nil }

func (p Path) String() string {
	if p.n == nil {
		return ""
	}
	return p.n.text
}

func (p Path) Kind() Kind {
	if p.n == nil {
		return NoKind
	}
	return p.n.kind
}

// Depth is the number of elements below the root element.
func (p Path) Depth() int {
	if p.n == nil {
		return 0
	}
	return p.n.depth
}

func (p Path) IsAbsolute() bool {
	return p.n != nil && p.root() == absoluteRoot
}

func (p Path) IsAbsoluteRoot() bool { return p.n == absoluteRoot }

func (p Path) IsReflexive() bool { return p.n == reflexive }

func (p Path) IsPrimPath() bool { return p.Kind() == PrimKind }

func (p Path) IsPrimOrPrimVariantSelectionPath() bool {
	k := p.Kind()
	return k == PrimKind || k == VariantSelectionKind
}

func (p Path) IsPrimVariantSelectionPath() bool {
	return p.Kind() == VariantSelectionKind && p.n.sel != ""
}

// IsVariantSetPath reports whether p addresses a variant set, "{set=}".
func (p Path) IsVariantSetPath() bool {
	return p.Kind() == VariantSelectionKind && p.n.sel == ""
}

func (p Path) IsPropertyPath() bool {
	k := p.Kind()
	return k == PropertyKind || k == RelationalAttributeKind
}

func (p Path) IsPrimPropertyPath() bool { return p.Kind() == PropertyKind }

func (p Path) IsTargetPath() bool { return p.Kind() == TargetKind }

func (p Path) IsMapperPath() bool { return p.Kind() == MapperKind }

func (p Path) IsExpressionPath() bool { return p.Kind() == ExpressionKind }

func (p Path) ContainsPrimVariantSelection() bool {
	for n := p.n; n != nil; n = n.parent {
		if n.kind == VariantSelectionKind && n.sel != "" {
			return true
		}
	}
	return false
}

// Name returns the name of the last element. For variant selections it
// is the selection in braces, for the roots "/" and "." it is "" and ".".
func (p Path) Name() string {
	if p.n == nil {
		return ""
	}
	switch p.n.kind {
	case RootKind:
		return ""
	case ReflexiveKind:
		return "."
	case ParentKind:
		return ".."
	case VariantSelectionKind:
		return "{" + p.n.name + "=" + p.n.sel + "}"
	case TargetKind:
		return "[" + p.n.target.text + "]"
	case MapperKind:
		return "mapper[" + p.n.target.text + "]"
	case ExpressionKind:
		return "expression"
	}
	return p.n.name
}

// VariantSelection returns the variant set name and selection of a
// variant selection path.
func (p Path) VariantSelection() (set, sel string) {
	if p.Kind() != VariantSelectionKind {
		return "", ""
	}
	return p.n.name, p.n.sel
}

// TargetPath returns the target of a target or mapper path.
func (p Path) TargetPath() Path {
	k := p.Kind()
	if k != TargetKind && k != MapperKind {
		return Path{}
	}
	return Path{p.n.target}
}

// Parent returns the parent path. The parent of "/" is empty, the
// parent of "." is "..", the parent of ".." is "../..".
func (p Path) Parent() Path {
	if p.n == nil {
		return Path{}
	}
	switch p.n.kind {
	case RootKind:
		return Path{}
	case ReflexiveKind, ParentKind:
		return Path{intern(nodeKey{parent: p.n, kind: ParentKind})}
	}
	return Path{p.n.parent}
}

// PrimPath returns the nearest prim or prim variant selection path at or
// above p.
func (p Path) PrimPath() Path {
	for n := p.n; n != nil; n = n.parent {
		switch n.kind {
		case PrimKind, VariantSelectionKind, RootKind, ReflexiveKind, ParentKind:
			return Path{n}
		}
	}
	return Path{}
}

func (p Path) root() *node {
	n := p.n
	for n != nil && n.parent != nil {
		n = n.parent
	}
	return n
}

func (p Path) elements() []*node {
	if p.n == nil {
		return nil
	}
	res := make([]*node, p.n.depth+1)
	for n := p.n; n != nil; n = n.parent {
		res[n.depth] = n
	}
	return res
}

// Prefixes returns the paths from the first element below the root down
// to p inclusive.
func (p Path) Prefixes() []Path {
	if p.n == nil || p.n.depth == 0 {
		return nil
	}
	res := make([]Path, p.n.depth)
	for n := p.n; n.parent != nil; n = n.parent {
		res[n.depth-1] = Path{n}
	}
	return res
}

func (p Path) ancestorAt(depth int) *node {
	n := p.n
	for n != nil && n.depth > depth {
		n = n.parent
	}
	return n
}

// HasPrefix reports whether prefix is p or an ancestor of p.
func (p Path) HasPrefix(prefix Path) bool {
	if p.n == nil || prefix.n == nil || prefix.n.depth > p.n.depth {
		return false
	}
	return p.ancestorAt(prefix.n.depth) == prefix.n
}

// CommonPrefix returns the longest path that prefixes both p and o. It is
// empty when one is absolute and the other relative.
func (p Path) CommonPrefix(o Path) Path {
	if p.n == nil || o.n == nil {
		return Path{}
	}
	d := min(p.n.depth, o.n.depth)
	a, b := p.ancestorAt(d), o.ancestorAt(d)
	for a != b {
		a, b = a.parent, b.parent
	}
	return Path{a}
}

// ElementString returns the textual form of the last element as it would
// be passed to AppendElementString.
func (p Path) ElementString() string {
	if p.n == nil {
		return ""
	}
	switch p.n.kind {
	case PropertyKind, RelationalAttributeKind, MapperArgKind, ExpressionKind:
		return "." + p.Name()
	case MapperKind:
		return ".mapper[" + p.n.target.text + "]"
	}
	return p.Name()
}

func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Path) UnmarshalText(d []byte) error {
	res, err := Parse(string(d))
	if err != nil {
		return err
	}
	*p = res
	return nil
}

func opErr(p Path, op, arg string) error {
	return fmt.Errorf("%w: %s %q on %q", ErrInvalidPathOperation, op, arg, p.String())
}

// AppendChild appends a prim element.
func (p Path) AppendChild(name string) (Path, error) {
	switch p.Kind() {
	case RootKind, ReflexiveKind, ParentKind, PrimKind:
	case VariantSelectionKind:
		if p.n.sel == "" {
			return Path{}, opErr(p, "append child", name)
		}
	default:
		return Path{}, opErr(p, "append child", name)
	}
	if !IsValidIdentifier(name) {
		return Path{}, fmt.Errorf("%w: invalid prim name %q", ErrInvalidPathOperation, name)
	}
	return Path{intern(nodeKey{parent: p.n, kind: PrimKind, name: name})}, nil
}

// AppendProperty appends a property element; name may be namespaced.
func (p Path) AppendProperty(name string) (Path, error) {
	switch p.Kind() {
	case ReflexiveKind, ParentKind, PrimKind:
	case VariantSelectionKind:
		if p.n.sel == "" {
			return Path{}, opErr(p, "append property", name)
		}
	default:
		return Path{}, opErr(p, "append property", name)
	}
	if !IsValidNamespacedIdentifier(name) {
		return Path{}, fmt.Errorf("%w: invalid property name %q", ErrInvalidPathOperation, name)
	}
	return Path{intern(nodeKey{parent: p.n, kind: PropertyKind, name: name})}, nil
}

// AppendVariantSelection appends "{set=sel}". An empty selection yields a
// variant set path.
func (p Path) AppendVariantSelection(set, sel string) (Path, error) {
	switch p.Kind() {
	case PrimKind:
	case VariantSelectionKind:
		if p.n.sel == "" {
			return Path{}, opErr(p, "append variant selection", set)
		}
	default:
		return Path{}, opErr(p, "append variant selection", set)
	}
	if !IsValidIdentifier(set) || !isValidSelection(sel) {
		return Path{}, fmt.Errorf("%w: invalid variant selection {%s=%s}", ErrInvalidPathOperation, set, sel)
	}
	return Path{intern(nodeKey{parent: p.n, kind: VariantSelectionKind, name: set, sel: sel})}, nil
}

// AppendTarget appends "[target]" to a property or relational attribute.
func (p Path) AppendTarget(target Path) (Path, error) {
	switch p.Kind() {
	case PropertyKind, RelationalAttributeKind:
	default:
		return Path{}, opErr(p, "append target", target.String())
	}
	if target.IsEmpty() {
		return Path{}, opErr(p, "append target", "")
	}
	return Path{intern(nodeKey{parent: p.n, kind: TargetKind, target: target.n})}, nil
}

// AppendRelationalAttribute appends ".name" to a target path.
func (p Path) AppendRelationalAttribute(name string) (Path, error) {
	if p.Kind() != TargetKind {
		return Path{}, opErr(p, "append relational attribute", name)
	}
	if !IsValidNamespacedIdentifier(name) {
		return Path{}, fmt.Errorf("%w: invalid attribute name %q", ErrInvalidPathOperation, name)
	}
	return Path{intern(nodeKey{parent: p.n, kind: RelationalAttributeKind, name: name})}, nil
}

// AppendMapper appends ".mapper[target]" to a property path.
func (p Path) AppendMapper(target Path) (Path, error) {
	if p.Kind() != PropertyKind && p.Kind() != RelationalAttributeKind {
		return Path{}, opErr(p, "append mapper", target.String())
	}
	if target.IsEmpty() {
		return Path{}, opErr(p, "append mapper", "")
	}
	return Path{intern(nodeKey{parent: p.n, kind: MapperKind, target: target.n})}, nil
}

// AppendMapperArg appends ".name" to a mapper path.
func (p Path) AppendMapperArg(name string) (Path, error) {
	if p.Kind() != MapperKind {
		return Path{}, opErr(p, "append mapper arg", name)
	}
	if !IsValidIdentifier(name) {
		return Path{}, fmt.Errorf("%w: invalid mapper arg %q", ErrInvalidPathOperation, name)
	}
	return Path{intern(nodeKey{parent: p.n, kind: MapperArgKind, name: name})}, nil
}

// AppendExpression appends ".expression" to a property path.
func (p Path) AppendExpression() (Path, error) {
	if p.Kind() != PropertyKind && p.Kind() != RelationalAttributeKind {
		return Path{}, opErr(p, "append expression", "")
	}
	return Path{intern(nodeKey{parent: p.n, kind: ExpressionKind})}, nil
}

// AppendPath appends the elements of the relative path rel to p.
func (p Path) AppendPath(rel Path) (Path, error) {
	if rel.IsEmpty() {
		return Path{}, opErr(p, "append path", "")
	}
	if rel.IsAbsolute() {
		return Path{}, opErr(p, "append path", rel.String())
	}
	res := p
	var err error
	for _, e := range rel.elements()[1:] {
		res, err = res.appendNode(e)
		if err != nil {
			return Path{}, err
		}
	}
	return res, nil
}

// AppendElementString appends a single element given in text form, for
// example "Child", ".prop", "{set=sel}" or "..".
func (p Path) AppendElementString(elem string) (Path, error) {
	switch {
	case elem == "..":
		if p.Kind() != ReflexiveKind && p.Kind() != ParentKind {
			return Path{}, opErr(p, "append", elem)
		}
		return p.Parent(), nil
	case strings.HasPrefix(elem, "{") && strings.HasSuffix(elem, "}"):
		set, sel, ok := strings.Cut(elem[1:len(elem)-1], "=")
		if !ok {
			return Path{}, opErr(p, "append", elem)
		}
		return p.AppendVariantSelection(set, sel)
	case elem == ".expression":
		return p.AppendExpression()
	case strings.HasPrefix(elem, ".mapper[") && strings.HasSuffix(elem, "]"):
		t, err := Parse(elem[len(".mapper[") : len(elem)-1])
		if err != nil {
			return Path{}, err
		}
		return p.AppendMapper(t)
	case strings.HasPrefix(elem, "[") && strings.HasSuffix(elem, "]"):
		t, err := Parse(elem[1 : len(elem)-1])
		if err != nil {
			return Path{}, err
		}
		return p.AppendTarget(t)
	case strings.HasPrefix(elem, "."):
		name := elem[1:]
		switch p.Kind() {
		case TargetKind:
			return p.AppendRelationalAttribute(name)
		case MapperKind:
			return p.AppendMapperArg(name)
		}
		return p.AppendProperty(name)
	}
	return p.AppendChild(elem)
}

func (p Path) appendNode(e *node) (Path, error) {
	switch e.kind {
	case PrimKind:
		return p.AppendChild(e.name)
	case VariantSelectionKind:
		return p.AppendVariantSelection(e.name, e.sel)
	case PropertyKind:
		return p.AppendProperty(e.name)
	case TargetKind:
		return p.AppendTarget(Path{e.target})
	case RelationalAttributeKind:
		return p.AppendRelationalAttribute(e.name)
	case MapperKind:
		return p.AppendMapper(Path{e.target})
	case MapperArgKind:
		return p.AppendMapperArg(e.name)
	case ExpressionKind:
		return p.AppendExpression()
	case ParentKind:
		if p.Kind() == ReflexiveKind || p.Kind() == ParentKind {
			return p.Parent(), nil
		}
		if p.Kind() == RootKind {
			return Path{}, opErr(p, "append", "..")
		}
		return p.Parent(), nil
	}
	return Path{}, opErr(p, "append", e.text)
}

// ReplacePrefix replaces the prefix old of p with repl. Target paths
// embedded in p that have the prefix old are replaced as well. If p does
// not have the prefix old, only embedded targets are fixed.
func (p Path) ReplacePrefix(old, repl Path) (Path, error) {
	if p.n == nil || old.n == nil || repl.n == nil {
		return p, nil
	}
	if old == repl {
		return p, nil
	}
	elts := p.elements()
	var (
		res   Path
		start int
	)
	if p.HasPrefix(old) {
		res = repl
		start = old.n.depth + 1
	} else {
		res = Path{elts[0]}
		start = 1
	}
	var err error
	for _, e := range elts[start:] {
		if e.target != nil {
			t, terr := Path{e.target}.ReplacePrefix(old, repl)
			if terr != nil {
				return Path{}, terr
			}
			switch e.kind {
			case TargetKind:
				res, err = res.AppendTarget(t)
			case MapperKind:
				res, err = res.AppendMapper(t)
			}
		} else {
			res, err = res.appendNode(e)
		}
		if err != nil {
			return Path{}, err
		}
	}
	return res, nil
}

// ReplaceName replaces the name of the last prim or property element.
func (p Path) ReplaceName(name string) (Path, error) {
	switch p.Kind() {
	case PrimKind:
		return Path{p.n.parent}.AppendChild(name)
	case PropertyKind:
		return Path{p.n.parent}.AppendProperty(name)
	case RelationalAttributeKind:
		return Path{p.n.parent}.AppendRelationalAttribute(name)
	case MapperArgKind:
		return Path{p.n.parent}.AppendMapperArg(name)
	}
	return Path{}, opErr(p, "replace name", name)
}

// StripAllVariantSelections removes every variant selection element.
func (p Path) StripAllVariantSelections() Path {
	if !p.ContainsPrimVariantSelection() && !p.IsVariantSetPath() {
		return p
	}
	elts := p.elements()
	res := Path{elts[0]}
	for _, e := range elts[1:] {
		if e.kind == VariantSelectionKind {
			continue
		}
		var err error
		res, err = res.appendNode(e)
		if err != nil {
			return Path{}
		}
	}
	return res
}

// MakeAbsolute anchors the relative path p at anchor, which must be an
// absolute prim-like path.
func (p Path) MakeAbsolute(anchor Path) (Path, error) {
	if p.IsAbsolute() || p.IsEmpty() {
		return p, nil
	}
	if !anchor.IsAbsolute() {
		return Path{}, opErr(anchor, "make absolute with anchor", anchor.String())
	}
	res := anchor
	var err error
	for _, e := range p.elements()[1:] {
		if e.kind == ParentKind {
			if res.IsAbsoluteRoot() {
				return Path{}, opErr(p, "make absolute", anchor.String())
			}
			res = res.Parent()
			continue
		}
		if e.target != nil {
			t, terr := Path{e.target}.MakeAbsolute(anchor)
			if terr != nil {
				return Path{}, terr
			}
			if e.kind == TargetKind {
				res, err = res.AppendTarget(t)
			} else {
				res, err = res.AppendMapper(t)
			}
		} else {
			res, err = res.appendNode(e)
		}
		if err != nil {
			return Path{}, err
		}
	}
	return res, nil
}

// MakeRelative returns p relative to anchor; both must be absolute.
func (p Path) MakeRelative(anchor Path) (Path, error) {
	if !p.IsAbsolute() || !anchor.IsAbsolute() {
		return Path{}, opErr(p, "make relative to", anchor.String())
	}
	common := p.CommonPrefix(anchor)
	res := Reflexive()
	for i := anchor.n.depth; i > common.n.depth; i-- {
		res = res.Parent()
	}
	var err error
	for _, e := range p.elements()[common.n.depth+1:] {
		res, err = res.appendNode(e)
		if err != nil {
			return Path{}, err
		}
	}
	return res, nil
}
