package token

import (
	"bytes"
	"fmt"
)

type TokenOpt func(*Scanner)

// TokenComments keeps comments as TComment tokens.
func TokenComments() TokenOpt {
	return func(s *Scanner) { s.comments = true }
}

// Scanner produces tokens from a complete document.
type Scanner struct {
	d        []byte
	i        int
	posDoc   *PosDoc
	comments bool
}

func NewScanner(src []byte, opts ...TokenOpt) *Scanner {
	s := &Scanner{d: src, posDoc: NewPosDoc(src)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scanner) PosDoc() *PosDoc { return s.posDoc }

// Tokenize appends all tokens of src to dst. The final token is TEOF.
func Tokenize(dst []Token, src []byte, opts ...TokenOpt) ([]Token, error) {
	s := NewScanner(src, opts...)
	for {
		tok, err := s.Next()
		if err != nil {
			return nil, err
		}
		dst = append(dst, tok)
		if tok.Type == TEOF {
			return dst, nil
		}
	}
}

func (s *Scanner) tok(tt TokenType, start, end int) Token {
	return Token{Type: tt, Pos: s.posDoc.Pos(start), Bytes: s.d[start:end]}
}

// Next returns the next token, TEOF at the end of input.
func (s *Scanner) Next() (Token, error) {
	for {
		s.skipSpace()
		if s.i >= len(s.d) {
			return Token{Type: TEOF, Pos: s.posDoc.Pos(len(s.d))}, nil
		}
		if s.d[s.i] != '#' {
			break
		}
		start := s.i
		end := bytes.IndexByte(s.d[s.i:], '\n')
		if end < 0 {
			end = len(s.d)
		} else {
			end += s.i
		}
		s.i = end
		if start == 0 && bytes.HasPrefix(s.d, []byte("#sdf")) {
			return s.tok(TMagic, start, end), nil
		}
		if s.comments {
			return s.tok(TComment, start, end), nil
		}
	}
	start := s.i
	c := s.d[s.i]
	switch c {
	case '(':
		s.i++
		return s.tok(TLParen, start, s.i), nil
	case ')':
		s.i++
		return s.tok(TRParen, start, s.i), nil
	case '{':
		s.i++
		return s.tok(TLCurl, start, s.i), nil
	case '}':
		s.i++
		return s.tok(TRCurl, start, s.i), nil
	case '[':
		s.i++
		return s.tok(TLSquare, start, s.i), nil
	case ']':
		s.i++
		return s.tok(TRSquare, start, s.i), nil
	case '=':
		s.i++
		return s.tok(TEquals, start, s.i), nil
	case ',':
		s.i++
		return s.tok(TComma, start, s.i), nil
	case ':':
		s.i++
		return s.tok(TColon, start, s.i), nil
	case ';':
		s.i++
		return s.tok(TSemi, start, s.i), nil
	case '"', '\'':
		return s.scanString()
	case '@':
		return s.scanAsset()
	case '<':
		end := bytes.IndexAny(s.d[s.i:], ">\n")
		if end < 0 || s.d[s.i+end] != '>' {
			return Token{}, NewTokenizeErr(fmt.Errorf("%w path", ErrUnterminated), s.posDoc.Pos(start))
		}
		s.i += end + 1
		return s.tok(TPath, start, s.i), nil
	case '.':
		if s.i+1 < len(s.d) && isDigit(s.d[s.i+1]) {
			return s.scanNumber()
		}
		s.i++
		return s.tok(TDot, start, s.i), nil
	case '-', '+':
		if bytes.HasPrefix(s.d[s.i+1:], []byte("inf")) {
			s.i += 4
			return s.tok(TNumber, start, s.i), nil
		}
		return s.scanNumber()
	}
	switch {
	case isDigit(c):
		return s.scanNumber()
	case isIdentStart(c):
		s.i++
		for s.i < len(s.d) && (isIdentChar(s.d[s.i]) || s.d[s.i] == ':') {
			s.i++
		}
		return s.tok(TIdent, start, s.i), nil
	}
	return Token{}, UnexpectedErr(fmt.Sprintf("%q", c), s.posDoc.Pos(start))
}

func (s *Scanner) skipSpace() {
	for s.i < len(s.d) {
		switch s.d[s.i] {
		case ' ', '\t', '\n', '\r':
			s.i++
		default:
			return
		}
	}
}

func (s *Scanner) scanNumber() (Token, error) {
	start := s.i
	if s.d[s.i] == '-' || s.d[s.i] == '+' {
		s.i++
	}
	digits := s.digits()
	if s.i < len(s.d) && s.d[s.i] == '.' {
		s.i++
		digits += s.digits()
	}
	if digits == 0 {
		return Token{}, ExpectedErr("digits", s.posDoc.Pos(start))
	}
	if s.i < len(s.d) && (s.d[s.i] == 'e' || s.d[s.i] == 'E') {
		s.i++
		if s.i < len(s.d) && (s.d[s.i] == '-' || s.d[s.i] == '+') {
			s.i++
		}
		if s.digits() == 0 {
			return Token{}, ExpectedErr("exponent", s.posDoc.Pos(s.i))
		}
	}
	if s.i < len(s.d) && isIdentStart(s.d[s.i]) {
		return Token{}, UnexpectedErr(fmt.Sprintf("%q after number", s.d[s.i]), s.posDoc.Pos(s.i))
	}
	return s.tok(TNumber, start, s.i), nil
}

func (s *Scanner) digits() int {
	n := 0
	for s.i < len(s.d) && isDigit(s.d[s.i]) {
		s.i++
		n++
	}
	return n
}

func (s *Scanner) scanString() (Token, error) {
	start := s.i
	q := s.d[s.i]
	triple := []byte{q, q, q}
	if bytes.HasPrefix(s.d[s.i:], triple) {
		end := bytes.Index(s.d[s.i+3:], triple)
		for end >= 0 && s.d[s.i+3+end-1] == '\\' {
			next := bytes.Index(s.d[s.i+3+end+1:], triple)
			if next < 0 {
				end = -1
				break
			}
			end += next + 1
		}
		if end < 0 {
			return Token{}, NewTokenizeErr(fmt.Errorf("%w string", ErrUnterminated), s.posDoc.Pos(start))
		}
		s.i += 3 + end + 3
		return s.tok(TString, start, s.i), nil
	}
	s.i++
	for s.i < len(s.d) {
		switch s.d[s.i] {
		case '\\':
			s.i += 2
			continue
		case '\n':
			return Token{}, NewTokenizeErr(fmt.Errorf("%w string", ErrUnterminated), s.posDoc.Pos(start))
		case q:
			s.i++
			tok := s.tok(TString, start, s.i)
			if _, err := Unquote(string(tok.Bytes)); err != nil {
				return Token{}, NewTokenizeErr(err, s.posDoc.Pos(start))
			}
			return tok, nil
		}
		s.i++
	}
	return Token{}, NewTokenizeErr(fmt.Errorf("%w string", ErrUnterminated), s.posDoc.Pos(start))
}

func (s *Scanner) scanAsset() (Token, error) {
	start := s.i
	delim := []byte("@")
	if bytes.HasPrefix(s.d[s.i:], []byte("@@@")) {
		delim = []byte("@@@")
	}
	s.i += len(delim)
	end := bytes.Index(s.d[s.i:], delim)
	if end < 0 || bytes.IndexByte(s.d[s.i:s.i+end], '\n') >= 0 {
		return Token{}, NewTokenizeErr(fmt.Errorf("%w asset path", ErrUnterminated), s.posDoc.Pos(start))
	}
	s.i += end + len(delim)
	return s.tok(TAsset, start, s.i), nil
}

func assetContents(d []byte) string {
	if bytes.HasPrefix(d, []byte("@@@")) && len(d) >= 6 {
		return string(d[3 : len(d)-3])
	}
	if len(d) >= 2 {
		return string(d[1 : len(d)-1])
	}
	return ""
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
