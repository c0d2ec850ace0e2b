package sdf

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/signadot/go-sdf/resolver"
)

const (
	anonPrefix      = "anon:"
	formatArgsDelim = ":SDF_FORMAT_ARGS:"
)

// IsAnonymousIdentifier reports whether id names an anonymous layer.
func IsAnonymousIdentifier(id string) bool {
	return strings.HasPrefix(id, anonPrefix)
}

func anonymousIdentifier(tag string) string {
	return anonPrefix + uuid.NewString() + ":" + tag
}

// SplitIdentifier separates the location of id from the format
// arguments appended to it as ":SDF_FORMAT_ARGS:k=v&k2=v2".
func SplitIdentifier(id string) (string, map[string]string, error) {
	loc, enc, ok := strings.Cut(id, formatArgsDelim)
	if !ok {
		return id, nil, nil
	}
	args := map[string]string{}
	for _, kv := range strings.Split(enc, "&") {
		if kv == "" {
			continue
		}
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return "", nil, fmt.Errorf("%w: bad format argument %q in %q", ErrOpen, kv, id)
		}
		args[k] = v
	}
	return loc, args, nil
}

// JoinIdentifier appends args to loc, sorted by key.
func JoinIdentifier(loc string, args map[string]string) string {
	if len(args) == 0 {
		return loc
	}
	b := &strings.Builder{}
	b.WriteString(loc)
	b.WriteString(formatArgsDelim)
	for i, k := range slices.Sorted(maps.Keys(args)) {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k + "=" + args[k])
	}
	return b.String()
}

// identity is the parsed identity of a layer.
type identity struct {
	// loc is the identifier as given, normalized.
	loc string
	// realPath is the resolved file, empty for anonymous layers.
	realPath string
	args     map[string]string
}

// key is the registry key: the resolved location with its arguments.
func (id *identity) key() string {
	if id.realPath == "" {
		return JoinIdentifier(id.loc, id.args)
	}
	return JoinIdentifier(id.realPath, id.args)
}

func (id *identity) identifier() string {
	return JoinIdentifier(id.loc, id.args)
}

// parseIdentity normalizes id and merges args into the arguments
// embedded in it. Explicit args win.
func parseIdentity(id string, args map[string]string) (*identity, error) {
	id = norm.NFC.String(strings.TrimSpace(id))
	if id == "" {
		return nil, fmt.Errorf("%w: empty identifier", ErrOpen)
	}
	loc, embedded, err := SplitIdentifier(id)
	if err != nil {
		return nil, err
	}
	merged := map[string]string{}
	maps.Copy(merged, embedded)
	maps.Copy(merged, args)
	if len(merged) == 0 {
		merged = nil
	}
	if !IsAnonymousIdentifier(loc) && !strings.Contains(loc, "://") {
		loc = filepath.Clean(loc)
	}
	return &identity{loc: loc, args: merged}, nil
}

// locate resolves the location of id. When the resolver cannot find it
// and mustExist is false the location is taken relative to the working
// directory.
func (e *Env) locate(id *identity, mustExist bool) error {
	if IsAnonymousIdentifier(id.loc) {
		return nil
	}
	p, err := e.resolver.Resolve(id.loc)
	switch {
	case err == nil:
		id.realPath = p
		return nil
	case mustExist || !errors.Is(err, resolver.ErrNotFound):
		return fmt.Errorf("%w: %s: %w", ErrOpen, id.loc, err)
	}
	abs, err := filepath.Abs(id.loc)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrOpen, id.loc, err)
	}
	id.realPath = abs
	return nil
}
