package textfmt

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"

	"github.com/signadot/go-sdf/debug"
	"github.com/signadot/go-sdf/listop"
	"github.com/signadot/go-sdf/sdfdata"
	"github.com/signadot/go-sdf/sdfpath"
	"github.com/signadot/go-sdf/token"
	"github.com/signadot/go-sdf/value"
)

// Header is the first line of every document.
const Header = "#sdf 1.0"

type parser struct {
	toks   []token.Token
	i      int
	store  *sdfdata.Mem
	schema *sdfdata.Schema
	reg    *value.Registry
}

// Read parses a complete document into a new in-memory store.
func Read(src []byte, opts ...ReadOption) (*sdfdata.Mem, error) {
	o := &readOpts{}
	for _, opt := range opts {
		opt(o)
	}
	schema := defaultSchema(o.schema)
	toks, err := token.Tokenize(nil, src)
	if err != nil {
		return nil, asParseError(nil, err)
	}
	p := &parser{
		toks:   toks,
		store:  sdfdata.NewMem(),
		schema: schema,
		reg:    schema.Registry(),
	}
	if err := p.layer(); err != nil {
		if debug.Parse() {
			debug.Logf("textfmt: %v", err)
		}
		return nil, err
	}
	return p.store, nil
}

func (p *parser) peek() *token.Token { return &p.toks[p.i] }

func (p *parser) peekAt(n int) *token.Token {
	if p.i+n >= len(p.toks) {
		return &p.toks[len(p.toks)-1]
	}
	return &p.toks[p.i+n]
}

func (p *parser) next() *token.Token {
	t := &p.toks[p.i]
	if t.Type != token.TEOF {
		p.i++
	}
	return t
}

func (p *parser) errorf(t *token.Token, format string, args ...any) error {
	return newParseError(t.Pos, nil, format, args...)
}

func (p *parser) wrap(t *token.Token, err error) error {
	return asParseError(t.Pos, err)
}

func (p *parser) expect(tt token.TokenType) (*token.Token, error) {
	t := p.next()
	if t.Type != tt {
		return nil, p.errorf(t, "expected %s, got %s", tt, t.Type)
	}
	return t, nil
}

func (p *parser) literal() (value.Literal, error) {
	t := p.peek()
	lit, err := value.ReadLiteral(p.toks, &p.i)
	if err != nil {
		return value.Literal{}, p.wrap(t, err)
	}
	return lit, nil
}

func (p *parser) layer() error {
	t := p.next()
	if t.Type != token.TMagic {
		return p.errorf(t, "missing %q header", Header)
	}
	fields := bytes.Fields(t.Bytes)
	if len(fields) < 2 || string(fields[0]) != "#sdf" || !bytes.HasPrefix(fields[1], []byte("1.")) {
		return p.errorf(t, "unsupported header %q", t.Bytes)
	}
	root := sdfpath.AbsoluteRoot()
	if p.peek().Type == token.TLParen {
		if err := p.metadata(root, sdfdata.SpecTypePseudoRoot); err != nil {
			return err
		}
	}
	for {
		t := p.peek()
		switch {
		case t.Type == token.TEOF:
			return nil
		case t.Is("reorder"):
			if err := p.reorder(root, sdfdata.SpecTypePseudoRoot); err != nil {
				return err
			}
		case t.Type == token.TIdent:
			if _, ok := sdfdata.ParseSpecifier(string(t.Bytes)); !ok {
				return p.errorf(t, "expected prim, got %q", t.Bytes)
			}
			if err := p.prim(root); err != nil {
				return err
			}
		default:
			return p.errorf(t, "expected prim, got %s", t.Type)
		}
	}
}

func (p *parser) create(t *token.Token, path sdfpath.Path, st sdfdata.SpecType) error {
	if p.store.HasSpec(path) {
		return p.errorf(t, "duplicate spec %s", path)
	}
	if err := p.store.CreateSpec(path, st); err != nil {
		return p.wrap(t, err)
	}
	return nil
}

func (p *parser) set(t *token.Token, path sdfpath.Path, name string, v any) error {
	if err := p.schema.Check(p.store.SpecType(path), name, v); err != nil {
		return p.wrap(t, err)
	}
	return p.store.WriteField(path, name, v)
}

func (p *parser) addChild(parent sdfpath.Path, field, name string) {
	v, _ := p.store.ReadField(parent, field)
	names, _ := v.([]string)
	p.store.WriteField(parent, field, append(slices.Clone(names), name))
}

func (p *parser) prim(parent sdfpath.Path) error {
	st := p.next()
	spec, _ := sdfdata.ParseSpecifier(string(st.Bytes))
	var typeName string
	if t := p.peek(); t.Type == token.TIdent {
		typeName = string(p.next().Bytes)
	}
	nt, err := p.expect(token.TString)
	if err != nil {
		return err
	}
	path, err := parent.AppendChild(nt.String())
	if err != nil {
		return p.wrap(nt, err)
	}
	if err := p.create(nt, path, sdfdata.SpecTypePrim); err != nil {
		return err
	}
	p.addChild(parent, sdfdata.FieldPrimChildren, path.Name())
	if err := p.set(st, path, sdfdata.FieldSpecifier, spec); err != nil {
		return err
	}
	if typeName != "" {
		if err := p.set(st, path, sdfdata.FieldTypeName, value.Token(typeName)); err != nil {
			return err
		}
	}
	if p.peek().Type == token.TLParen {
		if err := p.metadata(path, sdfdata.SpecTypePrim); err != nil {
			return err
		}
	}
	return p.block(path, sdfdata.SpecTypePrim)
}

func (p *parser) block(path sdfpath.Path, st sdfdata.SpecType) error {
	if _, err := p.expect(token.TLCurl); err != nil {
		return err
	}
	for {
		t := p.peek()
		switch {
		case t.Type == token.TRCurl:
			p.next()
			return nil
		case t.Type == token.TSemi:
			p.next()
		case t.Is("reorder") && (p.peekAt(1).Is("nameChildren") || p.peekAt(1).Is("properties")):
			if err := p.reorder(path, st); err != nil {
				return err
			}
		case t.Is("variantSet"):
			if err := p.variantSet(path); err != nil {
				return err
			}
		case t.Type == token.TIdent:
			if _, ok := sdfdata.ParseSpecifier(string(t.Bytes)); ok {
				if err := p.prim(path); err != nil {
					return err
				}
				continue
			}
			if err := p.property(path); err != nil {
				return err
			}
		default:
			return p.errorf(t, "expected prim, property or '}', got %s", t.Type)
		}
	}
}

// reorder reads "reorder nameChildren = [...]" or
// "reorder properties = [...]".
func (p *parser) reorder(path sdfpath.Path, st sdfdata.SpecType) error {
	p.next()
	kt := p.next()
	var field string
	switch {
	case kt.Is("nameChildren"):
		field = sdfdata.FieldPrimOrder
	case kt.Is("properties") && st != sdfdata.SpecTypePseudoRoot:
		field = sdfdata.FieldPropertyOrder
	default:
		return p.errorf(kt, "cannot reorder %q here", kt.Bytes)
	}
	if _, err := p.expect(token.TEquals); err != nil {
		return err
	}
	names, none, err := items(p, p.token)
	if err != nil {
		return err
	}
	if none {
		names = []string{}
	}
	return p.set(kt, path, field, names)
}

func (p *parser) variantSet(prim sdfpath.Path) error {
	p.next()
	nt, err := p.expect(token.TString)
	if err != nil {
		return err
	}
	setPath, err := prim.AppendVariantSelection(nt.String(), "")
	if err != nil {
		return p.wrap(nt, err)
	}
	if !p.store.HasSpec(setPath) {
		if err := p.create(nt, setPath, sdfdata.SpecTypeVariantSet); err != nil {
			return err
		}
		p.addChild(prim, sdfdata.FieldVariantSetChildren, nt.String())
	}
	if _, err := p.expect(token.TEquals); err != nil {
		return err
	}
	if _, err := p.expect(token.TLCurl); err != nil {
		return err
	}
	for {
		t := p.next()
		switch t.Type {
		case token.TRCurl:
			return nil
		case token.TString:
		default:
			return p.errorf(t, "expected variant name or '}', got %s", t.Type)
		}
		vp, err := prim.AppendVariantSelection(nt.String(), t.String())
		if err != nil || t.String() == "" {
			return p.errorf(t, "invalid variant name %q", t.String())
		}
		if err := p.create(t, vp, sdfdata.SpecTypeVariant); err != nil {
			return err
		}
		p.addChild(setPath, sdfdata.FieldVariantChildren, t.String())
		if p.peek().Type == token.TLParen {
			if err := p.metadata(vp, sdfdata.SpecTypeVariant); err != nil {
				return err
			}
		}
		if err := p.block(vp, sdfdata.SpecTypeVariant); err != nil {
			return err
		}
	}
}

// opKind reads an optional list op keyword. It returns Explicit when
// there is none.
func (p *parser) opKind() (listop.Kind, *token.Token) {
	t := p.peek()
	if t.Type != token.TIdent || p.peekAt(1).Type != token.TIdent {
		return listop.Explicit, nil
	}
	k, ok := listop.ParseKind(string(t.Bytes))
	if !ok || k == listop.Explicit {
		return listop.Explicit, nil
	}
	p.next()
	return k, t
}

func (p *parser) property(prim sdfpath.Path) error {
	start := p.peek()
	kind, kt := p.opKind()
	custom, variability := false, sdfdata.VariabilityVarying
	for {
		t := p.peek()
		switch {
		case t.Is("custom"):
			custom = true
		case t.Is("uniform"):
			variability = sdfdata.VariabilityUniform
		case t.Is("varying"):
			variability = sdfdata.VariabilityVarying
		default:
			if p.peek().Is("rel") {
				p.next()
				return p.relationship(prim, kind, kt, custom, variability)
			}
			return p.attribute(start, prim, kind, kt, custom, variability)
		}
		p.next()
	}
}

// propertySpec returns the property at prim.name, creating it when
// needed.
func (p *parser) propertySpec(nt *token.Token, prim sdfpath.Path, st sdfdata.SpecType, typeName string, custom bool, v sdfdata.Variability) (sdfpath.Path, bool, error) {
	path, err := prim.AppendProperty(string(nt.Bytes))
	if err != nil {
		return path, false, p.wrap(nt, err)
	}
	if p.store.HasSpec(path) {
		if got := p.store.SpecType(path); got != st {
			return path, false, p.errorf(nt, "%s is a %s, not a %s", path, got, st)
		}
		if st == sdfdata.SpecTypeAttribute {
			tn, _ := p.store.ReadField(path, sdfdata.FieldTypeName)
			if tn != value.Token(typeName) {
				return path, false, p.errorf(nt, "%s is declared %v, not %s", path, tn, typeName)
			}
		}
		return path, false, nil
	}
	if err := p.create(nt, path, st); err != nil {
		return path, false, err
	}
	p.addChild(prim, sdfdata.FieldProperties, path.Name())
	p.store.WriteField(path, sdfdata.FieldCustom, custom)
	p.store.WriteField(path, sdfdata.FieldVariability, v)
	if st == sdfdata.SpecTypeAttribute {
		p.store.WriteField(path, sdfdata.FieldTypeName, value.Token(typeName))
	}
	return path, true, nil
}

func (p *parser) relationship(prim sdfpath.Path, kind listop.Kind, kt *token.Token, custom bool, v sdfdata.Variability) error {
	nt, err := p.expect(token.TIdent)
	if err != nil {
		return err
	}
	path, created, err := p.propertySpec(nt, prim, sdfdata.SpecTypeRelationship, "", custom, v)
	if err != nil {
		return err
	}
	if kt != nil {
		if _, err := p.expect(token.TEquals); err != nil {
			return err
		}
		return p.pathListOp(kt, path, sdfdata.FieldTargetPaths, kind)
	}
	if !created {
		return p.errorf(nt, "duplicate spec %s", path)
	}
	if p.peek().Type == token.TEquals {
		p.next()
		if err := p.pathListOp(nt, path, sdfdata.FieldTargetPaths, listop.Explicit); err != nil {
			return err
		}
	}
	if p.peek().Type == token.TLParen {
		return p.metadata(path, sdfdata.SpecTypeRelationship)
	}
	return nil
}

func (p *parser) attribute(start *token.Token, prim sdfpath.Path, kind listop.Kind, kt *token.Token, custom bool, v sdfdata.Variability) error {
	tt := p.peek()
	typeName, err := value.ReadTypeName(p.toks, &p.i)
	if err != nil {
		return p.wrap(tt, err)
	}
	if p.reg.Lookup(typeName) == nil {
		return newParseError(tt.Pos, value.ErrUnknownType, "unknown type %q", typeName)
	}
	nt, err := p.expect(token.TIdent)
	if err != nil {
		return err
	}
	path, created, err := p.propertySpec(nt, prim, sdfdata.SpecTypeAttribute, typeName, custom, v)
	if err != nil {
		return err
	}
	if p.peek().Type == token.TDot {
		p.next()
		suffix := p.next()
		switch {
		case suffix.Is("connect"):
			if _, err := p.expect(token.TEquals); err != nil {
				return err
			}
			return p.pathListOp(start, path, sdfdata.FieldConnectionPaths, kind)
		case suffix.Is("timeSamples") && kt == nil:
			if _, err := p.expect(token.TEquals); err != nil {
				return err
			}
			return p.timeSamples(path, typeName)
		}
		return p.errorf(suffix, "unexpected attribute suffix %q", suffix.Bytes)
	}
	if kt != nil {
		return p.errorf(kt, "list op %q on attribute value", kt.Bytes)
	}
	if !created {
		return p.errorf(nt, "duplicate spec %s", path)
	}
	if p.peek().Type == token.TEquals {
		eq := p.next()
		lit, err := p.literal()
		if err != nil {
			return err
		}
		dv, err := p.reg.FromLiteral(typeName, lit)
		if err != nil {
			return p.wrap(eq, err)
		}
		p.store.WriteField(path, sdfdata.FieldDefault, dv)
	}
	if p.peek().Type == token.TLParen {
		return p.metadata(path, sdfdata.SpecTypeAttribute)
	}
	return nil
}

func (p *parser) timeSamples(path sdfpath.Path, typeName string) error {
	ts, err := p.samples(typeName)
	if err != nil {
		return err
	}
	return p.store.WriteField(path, sdfdata.FieldTimeSamples, ts)
}

// samples reads "{ time: value, ... }" with values of the named type.
func (p *parser) samples(typeName string) (value.TimeSamples, error) {
	if _, err := p.expect(token.TLCurl); err != nil {
		return nil, err
	}
	ts := value.TimeSamples{}
	for {
		t := p.next()
		switch t.Type {
		case token.TRCurl:
			return ts, nil
		case token.TComma:
			continue
		case token.TNumber:
		default:
			return nil, p.errorf(t, "expected time or '}', got %s", t.Type)
		}
		tm, err := strconv.ParseFloat(string(t.Bytes), 64)
		if err != nil {
			return nil, p.errorf(t, "bad time %q", t.Bytes)
		}
		if _, dup := ts.Get(tm); dup {
			return nil, p.errorf(t, "duplicate time sample %s", t.Bytes)
		}
		if _, err := p.expect(token.TColon); err != nil {
			return nil, err
		}
		lit, err := p.literal()
		if err != nil {
			return nil, err
		}
		v, err := p.reg.FromLiteral(typeName, lit)
		if err != nil {
			return nil, p.wrap(t, err)
		}
		ts = ts.Set(tm, v)
	}
}

// metadata reads "( key = value ... )" into fields of the spec at path.
func (p *parser) metadata(path sdfpath.Path, st sdfdata.SpecType) error {
	p.next()
	for {
		t := p.peek()
		switch t.Type {
		case token.TRParen:
			p.next()
			return nil
		case token.TSemi:
			p.next()
			continue
		case token.TString:
			p.next()
			if err := p.set(t, path, sdfdata.FieldComment, t.String()); err != nil {
				return err
			}
			continue
		case token.TIdent:
		default:
			return p.errorf(t, "expected metadata key or ')', got %s", t.Type)
		}
		kind, kt := p.opKind()
		keyTok, err := p.expect(token.TIdent)
		if err != nil {
			return err
		}
		key := string(keyTok.Bytes)
		def := p.schema.FieldForKey(st, key)
		if def == nil {
			return newParseError(keyTok.Pos, sdfdata.ErrUnknownField, "unknown metadata %q on %s", key, st)
		}
		if kt != nil && !def.Kind.IsListOp() {
			return p.errorf(kt, "%q is not a list op", key)
		}
		if _, err := p.expect(token.TEquals); err != nil {
			return err
		}
		if err := p.field(keyTok, path, def, kind); err != nil {
			return err
		}
	}
}

func (p *parser) field(kt *token.Token, path sdfpath.Path, def *sdfdata.FieldDef, kind listop.Kind) error {
	switch def.Kind {
	case sdfdata.KindTokenListOp:
		return listOpField(p, kt, path, def.Name, kind, p.token)
	case sdfdata.KindPathListOp:
		return p.pathListOp(kt, path, def.Name, kind)
	case sdfdata.KindReferenceListOp:
		return listOpField(p, kt, path, def.Name, kind, func() (sdfdata.Reference, error) {
			a, pp, o, err := p.referenceItem()
			return sdfdata.Reference{AssetPath: a, PrimPath: pp, Offset: o}, err
		})
	case sdfdata.KindPayloadListOp:
		return listOpField(p, kt, path, def.Name, kind, func() (sdfdata.Payload, error) {
			a, pp, o, err := p.referenceItem()
			return sdfdata.Payload{AssetPath: a, PrimPath: pp, Offset: o}, err
		})
	case sdfdata.KindVariantSelection:
		lit, err := p.literal()
		if err != nil {
			return err
		}
		sel, err := variantSelection(lit)
		if err != nil {
			return p.wrap(kt, err)
		}
		return p.set(kt, path, def.Name, sel)
	case sdfdata.KindValue:
		lit, err := p.literal()
		if err != nil {
			return err
		}
		v, err := p.reg.FromLiteral(def.ValueType, lit)
		if err != nil {
			return p.wrap(kt, err)
		}
		return p.set(kt, path, def.Name, v)
	}
	return p.errorf(kt, "field %q cannot be written as metadata", def.Name)
}

func variantSelection(lit value.Literal) (sdfdata.VariantSelectionMap, error) {
	if lit.Kind != value.LitDict {
		return nil, fmt.Errorf("%w: variants must be a dictionary", value.ErrBadLiteral)
	}
	sel := sdfdata.VariantSelectionMap{}
	for _, e := range lit.Entries {
		if e.Type != "string" || e.Value.Kind != value.LitString {
			return nil, fmt.Errorf("%w: variant selection %q must be a string", value.ErrBadLiteral, e.Key)
		}
		sel[e.Key] = e.Value.Text
	}
	return sel, nil
}

func (p *parser) token() (string, error) {
	t, err := p.expect(token.TString)
	if err != nil {
		return "", err
	}
	return t.String(), nil
}

func (p *parser) path() (sdfpath.Path, error) {
	t, err := p.expect(token.TPath)
	if err != nil {
		return sdfpath.Path{}, err
	}
	res, err := sdfpath.Parse(t.String())
	if err != nil {
		return sdfpath.Path{}, p.wrap(t, err)
	}
	return res, nil
}

func (p *parser) pathListOp(kt *token.Token, path sdfpath.Path, name string, kind listop.Kind) error {
	return listOpField(p, kt, path, name, kind, p.path)
}

// referenceItem reads "@asset@</Prim> (offset = o; scale = s)" where
// each of the asset, the prim path and the offset may be missing, but
// not both of the first two.
func (p *parser) referenceItem() (string, sdfpath.Path, sdfdata.LayerOffset, error) {
	var (
		asset  string
		prim   sdfpath.Path
		offset = sdfdata.IdentityOffset
	)
	start := p.peek()
	if start.Type == token.TAsset {
		asset = p.next().String()
	}
	if p.peek().Type == token.TPath {
		pp, err := p.path()
		if err != nil {
			return "", prim, offset, err
		}
		prim = pp
	} else if start.Type != token.TAsset {
		return "", prim, offset, p.errorf(start, "expected reference, got %s", start.Type)
	}
	if p.peek().Type != token.TLParen {
		return asset, prim, offset, nil
	}
	p.next()
	for {
		t := p.next()
		switch {
		case t.Type == token.TRParen:
			return asset, prim, offset, nil
		case t.Type == token.TSemi || t.Type == token.TComma:
			continue
		case t.Is("offset"), t.Is("scale"):
		default:
			return "", prim, offset, p.errorf(t, "expected offset or scale, got %s", t.Type)
		}
		if _, err := p.expect(token.TEquals); err != nil {
			return "", prim, offset, err
		}
		nt, err := p.expect(token.TNumber)
		if err != nil {
			return "", prim, offset, err
		}
		f, err := strconv.ParseFloat(string(nt.Bytes), 64)
		if err != nil {
			return "", prim, offset, p.errorf(nt, "bad number %q", nt.Bytes)
		}
		if t.Is("offset") {
			offset.Offset = f
		} else {
			offset.Scale = f
		}
	}
}

// items reads a single item, a bracketed list of items or None.
func items[T any](p *parser, item func() (T, error)) ([]T, bool, error) {
	t := p.peek()
	if t.Is("None") {
		p.next()
		return nil, true, nil
	}
	if t.Type != token.TLSquare {
		x, err := item()
		if err != nil {
			return nil, false, err
		}
		return []T{x}, false, nil
	}
	p.next()
	res := []T{}
	for {
		if p.peek().Type == token.TRSquare {
			p.next()
			return res, false, nil
		}
		x, err := item()
		if err != nil {
			return nil, false, err
		}
		res = append(res, x)
		switch t := p.peek(); t.Type {
		case token.TComma:
			p.next()
		case token.TRSquare:
		default:
			return nil, false, p.errorf(t, "expected ',' or ']', got %s", t.Type)
		}
	}
}

// listOpField reads the items of one sub-list and merges them into the
// list op already held by the field. An explicit line replaces the other
// sub-lists and any other line drops the explicit items.
func listOpField[T comparable](p *parser, kt *token.Token, path sdfpath.Path, name string, kind listop.Kind, item func() (T, error)) error {
	xs, none, err := items(p, item)
	if err != nil {
		return err
	}
	var op listop.Op[T]
	if cur, ok := p.store.ReadField(path, name); ok {
		op = cur.(listop.Op[T]).Clone()
	}
	switch {
	case none && kind != listop.Explicit:
		return p.errorf(kt, "None is only valid for an explicit list")
	case none:
		op.ClearAndMakeExplicit()
	default:
		op.SetItems(kind, xs)
	}
	op.Normalize()
	return p.set(kt, path, name, op)
}
