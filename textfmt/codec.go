package textfmt

import (
	"fmt"
	"strings"

	"github.com/signadot/go-sdf/listop"
	"github.com/signadot/go-sdf/sdfdata"
	"github.com/signadot/go-sdf/token"
	"github.com/signadot/go-sdf/value"
)

// FieldCodec converts single field values to text and back, using the
// literal forms of the document syntax. It is used by stores that keep
// fields outside of memory.
type FieldCodec struct {
	schema *sdfdata.Schema
	reg    *value.Registry
}

func NewFieldCodec(s *sdfdata.Schema) *FieldCodec {
	s = defaultSchema(s)
	return &FieldCodec{schema: s, reg: s.Registry()}
}

func (c *FieldCodec) def(name string) (*sdfdata.FieldDef, error) {
	d := c.schema.Field(name)
	if d == nil {
		return nil, fmt.Errorf("%w: %q", sdfdata.ErrUnknownField, name)
	}
	return d, nil
}

// Encode returns the text of v as the named field.
func (c *FieldCodec) Encode(name string, v any) (string, error) {
	d, err := c.def(name)
	if err != nil {
		return "", err
	}
	switch d.Kind {
	case sdfdata.KindValue:
		return c.reg.Format(d.ValueType, v)
	case sdfdata.KindSpecifier:
		return v.(sdfdata.Specifier).String(), nil
	case sdfdata.KindVariability:
		return v.(sdfdata.Variability).String(), nil
	case sdfdata.KindNameList:
		return formatList(v.([]string), token.Quote, true), nil
	case sdfdata.KindVariantSelection:
		dict := value.Dictionary{}
		for k, s := range v.(sdfdata.VariantSelectionMap) {
			dict[k] = s
		}
		return c.reg.Format("dictionary", dict)
	case sdfdata.KindTokenListOp:
		return encodeListOp(v.(sdfdata.TokenListOp), token.Quote), nil
	case sdfdata.KindPathListOp:
		return encodeListOp(v.(sdfdata.PathListOp), formatPath), nil
	case sdfdata.KindReferenceListOp:
		return encodeListOp(v.(sdfdata.ReferenceListOp), func(r sdfdata.Reference) string {
			return formatReference(r.AssetPath, r.PrimPath, r.Offset)
		}), nil
	case sdfdata.KindPayloadListOp:
		return encodeListOp(v.(sdfdata.PayloadListOp), func(r sdfdata.Payload) string {
			return formatReference(r.AssetPath, r.PrimPath, r.Offset)
		}), nil
	case sdfdata.KindAttributeValue:
		if _, ok := v.(value.Block); ok {
			return "None", nil
		}
		tn, err := c.reg.TypeOf(v)
		if err != nil {
			return "", err
		}
		s, err := c.reg.Format(tn, v)
		if err != nil {
			return "", err
		}
		return tn + " " + s, nil
	case sdfdata.KindTimeSamples:
		return c.encodeSamples(v.(value.TimeSamples))
	}
	return "", fmt.Errorf("%w: cannot encode %q", sdfdata.ErrUnknownField, name)
}

func (c *FieldCodec) encodeSamples(ts value.TimeSamples) (string, error) {
	tn := "double"
	for _, s := range ts {
		if _, ok := s.Value.(value.Block); ok {
			continue
		}
		n, err := c.reg.TypeOf(s.Value)
		if err != nil {
			return "", err
		}
		tn = n
		break
	}
	b := &strings.Builder{}
	b.WriteString(tn + " {")
	for i, s := range ts {
		vs, err := c.reg.Format(tn, s.Value)
		if err != nil {
			return "", fmt.Errorf("time %v: %w", s.Time, err)
		}
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(" " + value.FormatFloat(s.Time, 64) + ": " + vs)
	}
	b.WriteString(" }")
	return b.String(), nil
}

// encodeListOp writes one "kind [items]" line per sub-list.
func encodeListOp[T comparable](op listop.Op[T], f func(T) string) string {
	if op.IsExplicit() {
		return listop.Explicit.String() + " " + formatList(op.ExplicitItems, f, true)
	}
	var lines []string
	for _, k := range opOrder {
		if xs := op.Items(k); len(xs) > 0 {
			lines = append(lines, k.String()+" "+formatList(xs, f, true))
		}
	}
	return strings.Join(lines, "\n")
}

// Decode parses text produced by Encode for the named field.
func (c *FieldCodec) Decode(name, text string) (any, error) {
	d, err := c.def(name)
	if err != nil {
		return nil, err
	}
	if d.Kind == sdfdata.KindValue {
		return c.reg.Parse(d.ValueType, text)
	}
	toks, err := token.Tokenize(nil, []byte(text))
	if err != nil {
		return nil, asParseError(nil, err)
	}
	p := &parser{toks: toks, schema: c.schema, reg: c.reg}
	v, err := c.decode(p, d)
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.Type != token.TEOF {
		return nil, p.errorf(t, "trailing %s in field %q", t.Type, name)
	}
	return v, nil
}

func (c *FieldCodec) decode(p *parser, d *sdfdata.FieldDef) (any, error) {
	switch d.Kind {
	case sdfdata.KindSpecifier:
		t := p.next()
		s, ok := sdfdata.ParseSpecifier(string(t.Bytes))
		if !ok {
			return nil, p.errorf(t, "bad specifier %q", t.Bytes)
		}
		return s, nil
	case sdfdata.KindVariability:
		t := p.next()
		switch {
		case t.Is("uniform"):
			return sdfdata.VariabilityUniform, nil
		case t.Is("varying"):
			return sdfdata.VariabilityVarying, nil
		}
		return nil, p.errorf(t, "bad variability %q", t.Bytes)
	case sdfdata.KindNameList:
		names, _, err := items(p, p.token)
		if names == nil && err == nil {
			names = []string{}
		}
		return names, err
	case sdfdata.KindVariantSelection:
		lit, err := p.literal()
		if err != nil {
			return nil, err
		}
		return variantSelection(lit)
	case sdfdata.KindTokenListOp:
		return decodeListOp(p, p.token)
	case sdfdata.KindPathListOp:
		return decodeListOp(p, p.path)
	case sdfdata.KindReferenceListOp:
		return decodeListOp(p, func() (sdfdata.Reference, error) {
			a, pp, o, err := p.referenceItem()
			return sdfdata.Reference{AssetPath: a, PrimPath: pp, Offset: o}, err
		})
	case sdfdata.KindPayloadListOp:
		return decodeListOp(p, func() (sdfdata.Payload, error) {
			a, pp, o, err := p.referenceItem()
			return sdfdata.Payload{AssetPath: a, PrimPath: pp, Offset: o}, err
		})
	case sdfdata.KindAttributeValue:
		if p.peek().Is("None") {
			p.next()
			return value.Block{}, nil
		}
		tn, err := c.typeName(p)
		if err != nil {
			return nil, err
		}
		t := p.peek()
		lit, err := p.literal()
		if err != nil {
			return nil, err
		}
		v, err := c.reg.FromLiteral(tn, lit)
		if err != nil {
			return nil, p.wrap(t, err)
		}
		return v, nil
	case sdfdata.KindTimeSamples:
		tn, err := c.typeName(p)
		if err != nil {
			return nil, err
		}
		return p.samples(tn)
	}
	return nil, fmt.Errorf("%w: cannot decode %q", sdfdata.ErrUnknownField, d.Name)
}

func (c *FieldCodec) typeName(p *parser) (string, error) {
	t := p.peek()
	tn, err := value.ReadTypeName(p.toks, &p.i)
	if err != nil {
		return "", p.wrap(t, err)
	}
	if c.reg.Lookup(tn) == nil {
		return "", newParseError(t.Pos, value.ErrUnknownType, "unknown type %q", tn)
	}
	return tn, nil
}

func decodeListOp[T comparable](p *parser, item func() (T, error)) (listop.Op[T], error) {
	var op listop.Op[T]
	for p.peek().Type != token.TEOF {
		kt := p.next()
		k, ok := listop.ParseKind(string(kt.Bytes))
		if kt.Type != token.TIdent || !ok {
			return op, p.errorf(kt, "expected list op kind, got %s", kt.Type)
		}
		xs, _, err := items(p, item)
		if err != nil {
			return op, err
		}
		op.SetItems(k, xs)
	}
	return op, nil
}
