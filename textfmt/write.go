package textfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/signadot/go-sdf/listop"
	"github.com/signadot/go-sdf/sdfdata"
	"github.com/signadot/go-sdf/sdfpath"
	"github.com/signadot/go-sdf/token"
	"github.com/signadot/go-sdf/value"
)

type writer struct {
	b      strings.Builder
	store  sdfdata.Store
	schema *sdfdata.Schema
	reg    *value.Registry
	o      *writeOpts
}

// Write writes the specs reachable from the pseudo root of s.
func Write(w io.Writer, s sdfdata.Store, opts ...WriteOption) error {
	o := &writeOpts{indent: 4}
	for _, opt := range opts {
		opt(o)
	}
	if o.color == nil {
		o.color = func(_ ColorAttr, s string) string { return s }
	}
	schema := defaultSchema(o.schema)
	wr := &writer{store: s, schema: schema, reg: schema.Registry(), o: o}
	if err := wr.layer(); err != nil {
		return err
	}
	_, err := io.WriteString(w, wr.b.String())
	return err
}

// WriteString returns the text of s.
func WriteString(s sdfdata.Store, opts ...WriteOption) (string, error) {
	b := &strings.Builder{}
	if err := Write(b, s, opts...); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (w *writer) c(a ColorAttr, s string) string { return w.o.color(a, s) }

func (w *writer) pad(depth int) string { return strings.Repeat(" ", depth*w.o.indent) }

func (w *writer) line(depth int, parts ...string) {
	w.b.WriteString(w.pad(depth))
	for _, p := range parts {
		w.b.WriteString(p)
	}
	w.b.WriteByte('\n')
}

func (w *writer) names(p sdfpath.Path, field string) []string {
	v, _ := w.store.ReadField(p, field)
	names, _ := v.([]string)
	return names
}

func (w *writer) child(parent sdfpath.Path, field, name string) (sdfpath.Path, error) {
	var (
		cp  sdfpath.Path
		err error
	)
	switch field {
	case sdfdata.FieldPrimChildren:
		cp, err = parent.AppendChild(name)
	case sdfdata.FieldProperties:
		cp, err = parent.AppendProperty(name)
	case sdfdata.FieldVariantSetChildren:
		cp, err = parent.AppendVariantSelection(name, "")
	case sdfdata.FieldVariantChildren:
		set, _ := parent.VariantSelection()
		cp, err = parent.Parent().AppendVariantSelection(set, name)
	}
	if err != nil {
		return cp, err
	}
	if !w.store.HasSpec(cp) {
		return cp, fmt.Errorf("%w: %s listed in %s of %s", sdfdata.ErrNoSpec, name, field, parent)
	}
	return cp, nil
}

func (w *writer) layer() error {
	root := sdfpath.AbsoluteRoot()
	w.line(0, w.c(HeaderColor, Header))
	meta, err := w.metadata(1, root, sdfdata.SpecTypePseudoRoot)
	if err != nil {
		return err
	}
	if len(meta) > 0 {
		w.line(0, w.c(SepColor, "("))
		for _, m := range meta {
			w.b.WriteString(m)
		}
		w.line(0, w.c(SepColor, ")"))
	}
	if order := w.names(root, sdfdata.FieldPrimOrder); order != nil {
		w.b.WriteByte('\n')
		w.reorder(0, "nameChildren", order)
	}
	for _, name := range w.names(root, sdfdata.FieldPrimChildren) {
		cp, err := w.child(root, sdfdata.FieldPrimChildren, name)
		if err != nil {
			return err
		}
		w.b.WriteByte('\n')
		if err := w.prim(0, cp); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) reorder(depth int, what string, names []string) {
	w.line(depth, w.c(KeywordColor, "reorder"), " ", w.c(KeyColor, what), " = ", w.c(ValueColor, formatList(names, token.Quote, true)))
}

// metaOpen writes head and the metadata block of p, if any, then tail.
func (w *writer) metaOpen(depth int, head string, p sdfpath.Path, st sdfdata.SpecType, tail string) error {
	meta, err := w.metadata(depth+1, p, st)
	if err != nil {
		return err
	}
	if len(meta) == 0 {
		w.line(depth, head, tail)
		return nil
	}
	w.line(depth, head, " ", w.c(SepColor, "("))
	for _, m := range meta {
		w.b.WriteString(m)
	}
	w.line(depth, w.c(SepColor, ")"), tail)
	return nil
}

func (w *writer) prim(depth int, p sdfpath.Path) error {
	head := ""
	if v, ok := w.store.ReadField(p, sdfdata.FieldSpecifier); ok {
		head = w.c(KeywordColor, v.(sdfdata.Specifier).String()) + " "
	} else {
		head = w.c(KeywordColor, "over") + " "
	}
	if v, ok := w.store.ReadField(p, sdfdata.FieldTypeName); ok && v.(value.Token) != "" {
		head += w.c(TypeColor, string(v.(value.Token))) + " "
	}
	head += w.c(NameColor, token.Quote(p.Name()))
	if err := w.metaOpen(depth, head, p, sdfdata.SpecTypePrim, ""); err != nil {
		return err
	}
	w.line(depth, w.c(SepColor, "{"))
	if err := w.body(depth+1, p); err != nil {
		return err
	}
	w.line(depth, w.c(SepColor, "}"))
	return nil
}

func (w *writer) body(depth int, p sdfpath.Path) error {
	wrote := false
	if order := w.names(p, sdfdata.FieldPrimOrder); order != nil {
		w.reorder(depth, "nameChildren", order)
		wrote = true
	}
	if order := w.names(p, sdfdata.FieldPropertyOrder); order != nil {
		w.reorder(depth, "properties", order)
		wrote = true
	}
	for _, name := range w.names(p, sdfdata.FieldProperties) {
		cp, err := w.child(p, sdfdata.FieldProperties, name)
		if err != nil {
			return err
		}
		switch w.store.SpecType(cp) {
		case sdfdata.SpecTypeAttribute:
			err = w.attribute(depth, cp)
		case sdfdata.SpecTypeRelationship:
			err = w.relationship(depth, cp)
		default:
			err = fmt.Errorf("%w: %s is not a property", sdfdata.ErrNoSpec, cp)
		}
		if err != nil {
			return err
		}
		wrote = true
	}
	for _, name := range w.names(p, sdfdata.FieldPrimChildren) {
		cp, err := w.child(p, sdfdata.FieldPrimChildren, name)
		if err != nil {
			return err
		}
		if wrote {
			w.b.WriteByte('\n')
		}
		if err := w.prim(depth, cp); err != nil {
			return err
		}
		wrote = true
	}
	for _, name := range w.names(p, sdfdata.FieldVariantSetChildren) {
		cp, err := w.child(p, sdfdata.FieldVariantSetChildren, name)
		if err != nil {
			return err
		}
		if wrote {
			w.b.WriteByte('\n')
		}
		if err := w.variantSet(depth, cp); err != nil {
			return err
		}
		wrote = true
	}
	return nil
}

func (w *writer) variantSet(depth int, p sdfpath.Path) error {
	set, _ := p.VariantSelection()
	w.line(depth, w.c(KeywordColor, "variantSet"), " ", w.c(NameColor, token.Quote(set)), " = ", w.c(SepColor, "{"))
	for _, name := range w.names(p, sdfdata.FieldVariantChildren) {
		vp, err := w.child(p, sdfdata.FieldVariantChildren, name)
		if err != nil {
			return err
		}
		if err := w.metaOpen(depth+1, w.c(NameColor, token.Quote(name)), vp, sdfdata.SpecTypeVariant, " "+w.c(SepColor, "{")); err != nil {
			return err
		}
		if err := w.body(depth+2, vp); err != nil {
			return err
		}
		w.line(depth+1, w.c(SepColor, "}"))
	}
	w.line(depth, w.c(SepColor, "}"))
	return nil
}

func (w *writer) modifiers(p sdfpath.Path) string {
	res := ""
	if v, _ := w.store.ReadField(p, sdfdata.FieldCustom); v == true {
		res += w.c(KeywordColor, "custom") + " "
	}
	if v, _ := w.store.ReadField(p, sdfdata.FieldVariability); v == sdfdata.VariabilityUniform {
		res += w.c(KeywordColor, "uniform") + " "
	}
	return res
}

func (w *writer) attribute(depth int, p sdfpath.Path) error {
	typeName := ""
	if v, ok := w.store.ReadField(p, sdfdata.FieldTypeName); ok {
		typeName = string(v.(value.Token))
	}
	format := func(v any) (string, error) {
		if typeName == "" {
			return w.reg.FormatValue(v)
		}
		return w.reg.Format(typeName, v)
	}
	if typeName == "" {
		if v, ok := w.store.ReadField(p, sdfdata.FieldDefault); ok {
			if tn, err := w.reg.TypeOf(v); err == nil {
				typeName = tn
			}
		}
	}
	typ := w.c(TypeColor, typeName) + " "
	head := w.modifiers(p) + typ + w.c(NameColor, p.Name())
	if v, ok := w.store.ReadField(p, sdfdata.FieldDefault); ok {
		s, err := format(v)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		head += " = " + w.c(ValueColor, s)
	}
	if err := w.metaOpen(depth, head, p, sdfdata.SpecTypeAttribute, ""); err != nil {
		return err
	}
	if v, ok := w.store.ReadField(p, sdfdata.FieldTimeSamples); ok {
		w.line(depth, typ, w.c(NameColor, p.Name()), ".", w.c(KeyColor, "timeSamples"), " = ", w.c(SepColor, "{"))
		for _, s := range v.(value.TimeSamples) {
			vs, err := format(s.Value)
			if err != nil {
				return fmt.Errorf("%s: time %v: %w", p, s.Time, err)
			}
			w.line(depth+1, w.c(ValueColor, value.FormatFloat(s.Time, 64)), ": ", w.c(ValueColor, vs), ",")
		}
		w.line(depth, w.c(SepColor, "}"))
	}
	if v, ok := w.store.ReadField(p, sdfdata.FieldConnectionPaths); ok {
		head := typ + w.c(NameColor, p.Name()) + "." + w.c(KeyColor, "connect")
		for _, l := range listOpLines(w, depth, head, v.(sdfdata.PathListOp), formatPath) {
			w.b.WriteString(l)
		}
	}
	return nil
}

func (w *writer) relationship(depth int, p sdfpath.Path) error {
	name := w.c(KeywordColor, "rel") + " " + w.c(NameColor, p.Name())
	head := w.modifiers(p) + name
	v, ok := w.store.ReadField(p, sdfdata.FieldTargetPaths)
	var op sdfdata.PathListOp
	if ok {
		op = v.(sdfdata.PathListOp)
	}
	if op.IsExplicit() {
		head += " = " + w.c(PathColor, formatList(op.ExplicitItems, formatPath, false))
	}
	if err := w.metaOpen(depth, head, p, sdfdata.SpecTypeRelationship, ""); err != nil {
		return err
	}
	if ok && !op.IsExplicit() {
		for _, l := range listOpLines(w, depth, name, op, formatPath) {
			w.b.WriteString(l)
		}
	}
	return nil
}

// metadata returns the metadata lines of the spec at p in schema order.
func (w *writer) metadata(depth int, p sdfpath.Path, st sdfdata.SpecType) ([]string, error) {
	var res []string
	for _, d := range w.schema.FieldsFor(st) {
		if d.Key == "" {
			continue
		}
		v, ok := w.store.ReadField(p, d.Name)
		if !ok {
			continue
		}
		key := w.c(KeyColor, d.Key)
		switch d.Kind {
		case sdfdata.KindTokenListOp:
			res = append(res, listOpLines(w, depth, key, v.(sdfdata.TokenListOp), token.Quote)...)
		case sdfdata.KindPathListOp:
			res = append(res, listOpLines(w, depth, key, v.(sdfdata.PathListOp), formatPath)...)
		case sdfdata.KindReferenceListOp:
			res = append(res, listOpLines(w, depth, key, v.(sdfdata.ReferenceListOp), func(r sdfdata.Reference) string {
				return formatReference(r.AssetPath, r.PrimPath, r.Offset)
			})...)
		case sdfdata.KindPayloadListOp:
			res = append(res, listOpLines(w, depth, key, v.(sdfdata.PayloadListOp), func(r sdfdata.Payload) string {
				return formatReference(r.AssetPath, r.PrimPath, r.Offset)
			})...)
		case sdfdata.KindVariantSelection:
			sel := v.(sdfdata.VariantSelectionMap)
			d := value.Dictionary{}
			for k, s := range sel {
				d[k] = s
			}
			s, err := w.dictionary(depth, d)
			if err != nil {
				return nil, err
			}
			res = append(res, w.pad(depth)+key+" = "+s+"\n")
		case sdfdata.KindValue:
			var (
				s   string
				err error
			)
			if dict, ok := v.(value.Dictionary); ok {
				s, err = w.dictionary(depth, dict)
			} else {
				s, err = w.reg.Format(d.ValueType, v)
				s = w.c(ValueColor, s)
			}
			if err != nil {
				return nil, fmt.Errorf("%s %s: %w", p, d.Name, err)
			}
			res = append(res, w.pad(depth)+key+" = "+s+"\n")
		}
	}
	return res, nil
}

// dictionary formats d over several lines, the first of which is not
// indented.
func (w *writer) dictionary(depth int, d value.Dictionary) (string, error) {
	if len(d) == 0 {
		return w.c(SepColor, "{}"), nil
	}
	b := &strings.Builder{}
	b.WriteString(w.c(SepColor, "{") + "\n")
	for _, k := range d.Keys() {
		b.WriteString(w.pad(depth + 1))
		if sub, ok := d[k].(value.Dictionary); ok {
			s, err := w.dictionary(depth+1, sub)
			if err != nil {
				return "", err
			}
			b.WriteString(w.c(TypeColor, "dictionary") + " " + w.c(KeyColor, value.FormatKey(k)) + " = " + s + "\n")
			continue
		}
		name, err := w.reg.TypeOf(d[k])
		if err != nil {
			return "", fmt.Errorf("dictionary key %q: %w", k, err)
		}
		s, err := w.reg.Format(name, d[k])
		if err != nil {
			return "", err
		}
		b.WriteString(w.c(TypeColor, name) + " " + w.c(KeyColor, value.FormatKey(k)) + " = " + w.c(ValueColor, s) + "\n")
	}
	b.WriteString(w.pad(depth) + w.c(SepColor, "}"))
	return b.String(), nil
}

var opOrder = []listop.Kind{listop.Deleted, listop.Added, listop.Prepended, listop.Appended, listop.Ordered}

// listOpLines formats op as "head = items" when explicit, and otherwise
// as one "kind head = items" line per non-empty sub-list.
func listOpLines[T comparable](w *writer, depth int, head string, op listop.Op[T], f func(T) string) []string {
	if op.IsExplicit() {
		return []string{w.pad(depth) + head + " = " + w.c(ValueColor, formatList(op.ExplicitItems, f, false)) + "\n"}
	}
	var res []string
	for _, k := range opOrder {
		xs := op.Items(k)
		if len(xs) == 0 {
			continue
		}
		res = append(res, w.pad(depth)+w.c(KeywordColor, k.String())+" "+head+" = "+w.c(ValueColor, formatList(xs, f, false))+"\n")
	}
	return res
}

// formatList writes a single item bare unless brackets is set, an empty
// list as None unless brackets is set.
func formatList[T any](xs []T, f func(T) string, brackets bool) string {
	if !brackets {
		switch len(xs) {
		case 0:
			return "None"
		case 1:
			return f(xs[0])
		}
	}
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = f(x)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatPath(p sdfpath.Path) string { return "<" + p.String() + ">" }

func formatReference(asset string, prim sdfpath.Path, o sdfdata.LayerOffset) string {
	var parts []string
	if asset != "" {
		parts = append(parts, value.FormatAsset(asset))
	}
	if !prim.IsEmpty() {
		parts = append(parts, formatPath(prim))
	}
	s := strings.Join(parts, "")
	if !o.IsIdentity() {
		s += fmt.Sprintf(" (offset = %s; scale = %s)", value.FormatFloat(o.Offset, 64), value.FormatFloat(o.Scale, 64))
	}
	return s
}
