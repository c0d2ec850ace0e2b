package token

import (
	"errors"
	"fmt"
)

type TokenType int

const (
	TEOF TokenType = iota
	TMagic
	TComment
	TIdent
	TNumber
	TString
	TAsset
	TPath
	TLParen
	TRParen
	TLCurl
	TRCurl
	TLSquare
	TRSquare
	TEquals
	TComma
	TColon
	TSemi
	TDot
)

func (t TokenType) String() string {
	return map[TokenType]string{
		TEOF:     "end of input",
		TMagic:   "header",
		TComment: "comment",
		TIdent:   "identifier",
		TNumber:  "number",
		TString:  "string",
		TAsset:   "asset path",
		TPath:    "path",
		TLParen:  "'('",
		TRParen:  "')'",
		TLCurl:   "'{'",
		TRCurl:   "'}'",
		TLSquare: "'['",
		TRSquare: "']'",
		TEquals:  "'='",
		TComma:   "','",
		TColon:   "':'",
		TSemi:    "';'",
		TDot:     "'.'",
	}[t]
}

// Token is a scanned token. Bytes holds the raw source text.
type Token struct {
	Type  TokenType
	Pos   *Pos
	Bytes []byte
}

func (t *Token) Info() string {
	return fmt.Sprintf("%s %s", t.Type, t.Pos.String())
}

// String returns the decoded token value: unquoted for strings, the
// contents for asset paths and paths, the raw text otherwise.
func (t *Token) String() string {
	switch t.Type {
	case TString:
		s, err := Unquote(string(t.Bytes))
		if err != nil {
			return string(t.Bytes)
		}
		return s
	case TAsset:
		return assetContents(t.Bytes)
	case TPath:
		return string(t.Bytes[1 : len(t.Bytes)-1])
	default:
		return string(t.Bytes)
	}
}

// Is reports whether t is an identifier with text kw.
func (t *Token) Is(kw string) bool {
	return t.Type == TIdent && string(t.Bytes) == kw
}

var (
	ErrUnterminated = errors.New("unterminated")
	ErrBadEscape    = errors.New("bad escape")
	ErrUnexpected   = errors.New("unexpected character")
)

type TokenizeErr struct {
	Err error
	Pos Pos
}

func (e *TokenizeErr) Unwrap() error {
	return e.Err
}

func NewTokenizeErr(e error, p *Pos) *TokenizeErr {
	return &TokenizeErr{Err: e, Pos: *p}
}

func (e *TokenizeErr) Error() string {
	return fmt.Sprintf("%s at %s", e.Err.Error(), e.Pos.String())
}

func ExpectedErr(what string, p *Pos) error {
	return NewTokenizeErr(fmt.Errorf("expected %s", what), p)
}

func UnexpectedErr(what string, p *Pos) error {
	return NewTokenizeErr(fmt.Errorf("%w %s", ErrUnexpected, what), p)
}
