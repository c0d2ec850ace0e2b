package textfmt

import (
	"errors"
	"fmt"

	"github.com/signadot/go-sdf/token"
)

var ErrParse = errors.New("parse error")

// ParseError is a positioned error reading text. It matches ErrParse and
// the underlying cause with errors.Is.
type ParseError struct {
	Pos token.Pos
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	l, c := e.Pos.LineCol()
	return fmt.Sprintf("%s at line %d, col %d: %s", ErrParse, l, c, e.Msg)
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}

func (e *ParseError) Line() int { return e.Pos.Line() }

func (e *ParseError) Col() int { return e.Pos.Col() }

func newParseError(pos *token.Pos, err error, format string, args ...any) *ParseError {
	pe := &ParseError{Msg: fmt.Sprintf(format, args...), Err: err}
	if pos != nil {
		pe.Pos = *pos
	}
	return pe
}

// asParseError positions err, taking the position of a tokenizer error
// when err carries one.
func asParseError(pos *token.Pos, err error) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		return err
	}
	var te *token.TokenizeErr
	if errors.As(err, &te) {
		return &ParseError{Pos: te.Pos, Msg: te.Err.Error(), Err: te.Err}
	}
	return newParseError(pos, err, "%v", err)
}
