package resolver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// FS resolves identifiers to files. Absolute identifiers and identifiers
// starting with "./" or "../" name files directly. Other identifiers are
// looked up in Aliases, then in each of SearchPaths in order, then
// relative to the working directory.
type FS struct {
	SearchPaths []string
	Aliases     map[string]string
}

func NewFS(searchPaths ...string) *FS {
	return &FS{SearchPaths: searchPaths}
}

func (r *FS) Resolve(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("%w: empty identifier", ErrNotFound)
	}
	if alias, ok := r.Aliases[id]; ok {
		id = alias
	}
	if filepath.IsAbs(id) || strings.HasPrefix(id, "./") || strings.HasPrefix(id, "../") {
		return existing(id)
	}
	for _, dir := range r.SearchPaths {
		loc, err := existing(filepath.Join(dir, id))
		if err == nil {
			return loc, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}
	return existing(id)
}

func existing(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, p)
		}
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrNotFound, p)
	}
	return abs, nil
}
