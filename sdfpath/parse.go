package sdfpath

import (
	"fmt"
	"strings"
)

// Parse parses the textual form of a path. The empty string yields the
// empty path.
func Parse(s string) (Path, error) {
	if s == "" {
		return Path{}, nil
	}
	p, rest, err := parsePath(s)
	if err != nil {
		return Path{}, err
	}
	if rest != "" {
		return Path{}, fmt.Errorf("%w: %q: unexpected %q", ErrInvalidPath, s, rest)
	}
	return p, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Path {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func parsePath(s string) (Path, string, error) {
	orig := s
	bad := func(msg string) error {
		return fmt.Errorf("%w: %q: %s", ErrInvalidPath, orig, msg)
	}
	var p Path
	switch {
	case s[0] == '/':
		p = AbsoluteRoot()
		s = s[1:]
		if s == "" {
			return p, "", nil
		}
		if s[0] == '/' || s[0] == '.' {
			return Path{}, "", bad("expected prim name after '/'")
		}
	case s == ".":
		return Reflexive(), "", nil
	default:
		p = Reflexive()
		for strings.HasPrefix(s, "..") {
			p = p.Parent()
			s = s[2:]
			if s == "" {
				return p, "", nil
			}
			if s[0] != '/' {
				return Path{}, "", bad("expected '/' after '..'")
			}
			s = s[1:]
			if s == "" {
				return Path{}, "", bad("trailing '/'")
			}
		}
	}
	var err error
	for s != "" {
		c := s[0]
		switch {
		case c == ']':
			return p, s, nil
		case c == '/':
			if p.Kind() != PrimKind {
				return Path{}, "", bad("unexpected '/'")
			}
			s = s[1:]
			if s == "" || !isIdentStart(s[0]) {
				return Path{}, "", bad("expected prim name after '/'")
			}
			fallthrough
		case isIdentStart(c):
			var name string
			name, s = scanName(s, false)
			if p, err = p.AppendChild(name); err != nil {
				return Path{}, "", bad(err.Error())
			}
		case c == '{':
			end := strings.IndexByte(s, '}')
			if end < 0 {
				return Path{}, "", bad("unterminated variant selection")
			}
			set, sel, ok := strings.Cut(s[1:end], "=")
			if !ok {
				return Path{}, "", bad("expected '=' in variant selection")
			}
			if p, err = p.AppendVariantSelection(strings.TrimSpace(set), strings.TrimSpace(sel)); err != nil {
				return Path{}, "", bad(err.Error())
			}
			s = s[end+1:]
		case c == '.':
			s = s[1:]
			if s == "" {
				return Path{}, "", bad("trailing '.'")
			}
			if s[0] == '.' {
				return Path{}, "", bad("reflexive element inside path")
			}
			var name string
			name, s = scanName(s, true)
			if name == "" {
				return Path{}, "", bad("expected name after '.'")
			}
			switch {
			case name == "mapper" && strings.HasPrefix(s, "[") && isPropertyLike(p.Kind()):
				var t Path
				t, s, err = parseBracketed(s, orig)
				if err != nil {
					return Path{}, "", err
				}
				if p, err = p.AppendMapper(t); err != nil {
					return Path{}, "", bad(err.Error())
				}
			case name == "expression" && isPropertyLike(p.Kind()):
				if p, err = p.AppendExpression(); err != nil {
					return Path{}, "", bad(err.Error())
				}
			case p.Kind() == TargetKind:
				if p, err = p.AppendRelationalAttribute(name); err != nil {
					return Path{}, "", bad(err.Error())
				}
			case p.Kind() == MapperKind:
				if p, err = p.AppendMapperArg(name); err != nil {
					return Path{}, "", bad(err.Error())
				}
			default:
				if p, err = p.AppendProperty(name); err != nil {
					return Path{}, "", bad(err.Error())
				}
			}
		case c == '[':
			var t Path
			t, s, err = parseBracketed(s, orig)
			if err != nil {
				return Path{}, "", err
			}
			if p, err = p.AppendTarget(t); err != nil {
				return Path{}, "", bad(err.Error())
			}
		default:
			return Path{}, "", bad(fmt.Sprintf("unexpected %q", c))
		}
	}
	return p, "", nil
}

func isPropertyLike(k Kind) bool {
	return k == PropertyKind || k == RelationalAttributeKind
}

func parseBracketed(s, orig string) (Path, string, error) {
	inner := s[1:]
	if inner == "" || inner[0] == ']' {
		return Path{}, "", fmt.Errorf("%w: %q: unterminated target", ErrInvalidPath, orig)
	}
	t, rest, err := parsePath(inner)
	if err != nil {
		return Path{}, "", err
	}
	if !strings.HasPrefix(rest, "]") {
		return Path{}, "", fmt.Errorf("%w: %q: unterminated target", ErrInvalidPath, orig)
	}
	return t, rest[1:], nil
}

func scanName(s string, namespaced bool) (string, string) {
	i := 0
	for i < len(s) {
		c := s[i]
		if isIdentChar(c) || (namespaced && c == ':') {
			i++
			continue
		}
		break
	}
	return s[:i], s[i:]
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// IsValidIdentifier reports whether s is a valid prim name.
func IsValidIdentifier(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return false
		}
	}
	return true
}

// IsValidNamespacedIdentifier reports whether s is a valid property
// name, identifiers joined by ':'.
func IsValidNamespacedIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ":") {
		if !IsValidIdentifier(part) {
			return false
		}
	}
	return true
}

func isValidSelection(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isIdentChar(c) || c == '|' || c == '-' {
			continue
		}
		return false
	}
	return true
}

// JoinIdentifier joins namespace parts with ':'.
func JoinIdentifier(parts ...string) string {
	return strings.Join(parts, ":")
}
