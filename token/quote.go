package token

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Quote double quotes v, escaping as needed. Strings containing newlines
// are still written on a single line.
func Quote(v string) string {
	d := make([]byte, 1, len(v)+2)
	d[0] = '"'
	ucs := []byte{0, 0}
	cps := []byte{0, 0, 0, 0}
	for _, r := range v {
		switch r {
		case '"':
			d = append(d, '\\', '"')
		case '\\':
			d = append(d, '\\', '\\')
		case '\b':
			d = append(d, '\\', 'b')
		case '\f':
			d = append(d, '\\', 'f')
		case '\n':
			d = append(d, '\\', 'n')
		case '\r':
			d = append(d, '\\', 'r')
		case '\t':
			d = append(d, '\\', 't')
		default:
			if unicode.IsControl(r) && r <= 0xffff {
				ucs[0] = byte(r >> 8)
				ucs[1] = byte(r)
				cps = hex.AppendEncode(cps[:0], ucs)
				d = append(d, '\\', 'u', cps[0], cps[1], cps[2], cps[3])
			} else {
				d = utf8.AppendRune(d, r)
			}
		}
	}
	d = append(d, '"')
	return string(d)
}

// Unquote decodes a single, double or triple quoted string literal.
func Unquote(s string) (string, error) {
	if len(s) < 2 {
		return "", fmt.Errorf("%w: %q", ErrBadEscape, s)
	}
	q := s[0]
	if q != '"' && q != '\'' {
		return "", fmt.Errorf("%w: %q is not quoted", ErrBadEscape, s)
	}
	triple := strings.Repeat(string(q), 3)
	var inner string
	switch {
	case len(s) >= 6 && strings.HasPrefix(s, triple) && strings.HasSuffix(s, triple):
		inner = s[3 : len(s)-3]
	case s[len(s)-1] == q:
		inner = s[1 : len(s)-1]
	default:
		return "", fmt.Errorf("%w: %q", ErrUnterminated, s)
	}
	if strings.IndexByte(inner, '\\') < 0 {
		return inner, nil
	}
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(inner) {
			return "", fmt.Errorf("%w: trailing backslash", ErrBadEscape)
		}
		switch inner[i] {
		case '\\', '"', '\'':
			b.WriteByte(inner[i])
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'a':
			b.WriteByte('\a')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\n':
		case 'x', 'u', 'U':
			n := map[byte]int{'x': 2, 'u': 4, 'U': 8}[inner[i]]
			if i+1+n > len(inner) {
				return "", fmt.Errorf("%w: short \\%c escape", ErrBadEscape, inner[i])
			}
			v, err := strconv.ParseUint(inner[i+1:i+1+n], 16, 32)
			if err != nil {
				return "", fmt.Errorf("%w: %v", ErrBadEscape, err)
			}
			if inner[i] == 'x' {
				b.WriteByte(byte(v))
			} else {
				b.WriteRune(rune(v))
			}
			i += n
		default:
			return "", fmt.Errorf("%w: \\%c", ErrBadEscape, inner[i])
		}
	}
	return b.String(), nil
}
