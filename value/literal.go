package value

import (
	"errors"
	"fmt"
	"strings"

	"github.com/signadot/go-sdf/token"
)

var (
	ErrBadLiteral   = errors.New("bad literal")
	ErrUnknownType  = errors.New("unknown value type")
	ErrTypeMismatch = errors.New("type mismatch")
	ErrDuplicate    = errors.New("type already registered")
)

type LitKind int

const (
	LitNumber LitKind = iota
	LitString
	LitAsset
	LitPath
	LitIdent
	LitTuple
	LitList
	LitDict
)

func (k LitKind) String() string {
	switch k {
	case LitNumber:
		return "number"
	case LitString:
		return "string"
	case LitAsset:
		return "asset path"
	case LitPath:
		return "path"
	case LitIdent:
		return "identifier"
	case LitTuple:
		return "tuple"
	case LitList:
		return "list"
	case LitDict:
		return "dictionary"
	}
	return "?"
}

// Literal is an untyped parsed value. Text holds the decoded text of
// scalar literals; Elems the members of tuples and lists; Entries the
// members of dictionaries.
type Literal struct {
	Kind    LitKind
	Text    string
	Elems   []Literal
	Entries []DictEntry
	Pos     *token.Pos
}

// DictEntry is a typed dictionary entry, "type key = value".
type DictEntry struct {
	Type  string
	Key   string
	Value Literal
}

// IsNone reports whether l is the None keyword.
func (l *Literal) IsNone() bool {
	return l.Kind == LitIdent && l.Text == "None"
}

func (l *Literal) errorf(format string, args ...any) error {
	err := fmt.Errorf("%w: %s", ErrBadLiteral, fmt.Sprintf(format, args...))
	if l.Pos == nil {
		return err
	}
	return token.NewTokenizeErr(err, l.Pos)
}

func litErr(t *token.Token, format string, args ...any) error {
	err := fmt.Errorf("%w: %s", ErrBadLiteral, fmt.Sprintf(format, args...))
	if t.Pos == nil {
		return err
	}
	return token.NewTokenizeErr(err, t.Pos)
}

// ReadLiteral reads one literal starting at toks[*pi] and advances *pi
// past it. toks must end with a TEOF token.
func ReadLiteral(toks []token.Token, pi *int) (Literal, error) {
	t := &toks[*pi]
	switch t.Type {
	case token.TNumber:
		*pi++
		return Literal{Kind: LitNumber, Text: string(t.Bytes), Pos: t.Pos}, nil
	case token.TString:
		*pi++
		return Literal{Kind: LitString, Text: t.String(), Pos: t.Pos}, nil
	case token.TAsset:
		*pi++
		return Literal{Kind: LitAsset, Text: t.String(), Pos: t.Pos}, nil
	case token.TPath:
		*pi++
		return Literal{Kind: LitPath, Text: t.String(), Pos: t.Pos}, nil
	case token.TIdent:
		*pi++
		return Literal{Kind: LitIdent, Text: string(t.Bytes), Pos: t.Pos}, nil
	case token.TLParen:
		*pi++
		return readSeq(toks, pi, Literal{Kind: LitTuple, Pos: t.Pos}, token.TRParen)
	case token.TLSquare:
		*pi++
		return readSeq(toks, pi, Literal{Kind: LitList, Pos: t.Pos}, token.TRSquare)
	case token.TLCurl:
		*pi++
		return readDict(toks, pi, Literal{Kind: LitDict, Pos: t.Pos})
	}
	return Literal{}, litErr(t, "unexpected %s", t.Type)
}

func readSeq(toks []token.Token, pi *int, lit Literal, end token.TokenType) (Literal, error) {
	for {
		t := &toks[*pi]
		if t.Type == end {
			*pi++
			return lit, nil
		}
		elem, err := ReadLiteral(toks, pi)
		if err != nil {
			return Literal{}, err
		}
		lit.Elems = append(lit.Elems, elem)
		t = &toks[*pi]
		switch t.Type {
		case token.TComma:
			*pi++
		case end:
		default:
			return Literal{}, litErr(t, "expected ',' or %s in %s, got %s", end, lit.Kind, t.Type)
		}
	}
}

func readDict(toks []token.Token, pi *int, lit Literal) (Literal, error) {
	for {
		t := &toks[*pi]
		switch t.Type {
		case token.TRCurl:
			*pi++
			return lit, nil
		case token.TSemi, token.TComma:
			*pi++
			continue
		case token.TIdent:
		default:
			return Literal{}, litErr(t, "expected entry type in dictionary, got %s", t.Type)
		}
		typ, err := ReadTypeName(toks, pi)
		if err != nil {
			return Literal{}, err
		}
		k := &toks[*pi]
		if k.Type != token.TIdent && k.Type != token.TString {
			return Literal{}, litErr(k, "expected dictionary key, got %s", k.Type)
		}
		*pi++
		if eq := &toks[*pi]; eq.Type != token.TEquals {
			return Literal{}, litErr(eq, "expected '=' after dictionary key, got %s", eq.Type)
		}
		*pi++
		v, err := ReadLiteral(toks, pi)
		if err != nil {
			return Literal{}, err
		}
		lit.Entries = append(lit.Entries, DictEntry{Type: typ, Key: k.String(), Value: v})
	}
}

// ReadTypeName reads a type name such as "float3" or "token[]".
func ReadTypeName(toks []token.Token, pi *int) (string, error) {
	t := &toks[*pi]
	if t.Type != token.TIdent {
		return "", litErr(t, "expected type name, got %s", t.Type)
	}
	*pi++
	name := string(t.Bytes)
	if toks[*pi].Type == token.TLSquare && toks[*pi+1].Type == token.TRSquare {
		*pi += 2
		name += "[]"
	}
	return name, nil
}

func formatAsset(p string) string {
	if strings.Contains(p, "@") {
		return "@@@" + p + "@@@"
	}
	return "@" + p + "@"
}

// FormatAsset returns the literal form of an asset path.
func FormatAsset(p string) string { return formatAsset(p) }

// FormatKey returns k as written for a dictionary key, quoted unless it
// is an identifier.
func FormatKey(k string) string { return formatKey(k) }

func formatKey(k string) string {
	if k == "" {
		return token.Quote(k)
	}
	for i := 0; i < len(k); i++ {
		c := k[i]
		ok := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (i > 0 && ((c >= '0' && c <= '9') || c == ':'))
		if !ok {
			return token.Quote(k)
		}
	}
	return k
}
