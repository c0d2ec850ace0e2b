package resolver

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func touch(t *testing.T, p string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("#sdf 1.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFSResolve(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first")
	second := filepath.Join(dir, "second")
	touch(t, filepath.Join(first, "a.sdf"))
	touch(t, filepath.Join(second, "a.sdf"))
	touch(t, filepath.Join(second, "b.sdf"))

	r := NewFS(first, second)
	tests := []struct {
		id   string
		want string
		err  error
	}{
		{id: "a.sdf", want: filepath.Join(first, "a.sdf")},
		{id: "b.sdf", want: filepath.Join(second, "b.sdf")},
		{id: filepath.Join(second, "a.sdf"), want: filepath.Join(second, "a.sdf")},
		{id: "missing.sdf", err: ErrNotFound},
		{id: "", err: ErrNotFound},
		{id: first, err: ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := r.Resolve(tt.id)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Errorf("Resolve(%q) error = %v, want %v", tt.id, err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "lib", "tree.sdf"))
	touch(t, filepath.Join(dir, "chars", "hero.sdf"))
	files := map[string]string{
		"resolver.yaml": "searchPaths:\n  - lib\naliases:\n  hero: chars/hero.sdf\n",
		"resolver.toml": "searchPaths = [\"lib\"]\n\n[aliases]\nhero = \"chars/hero.sdf\"\n",
	}
	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(dir, name)
			if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}
			cfg, err := LoadConfig(p)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff([]string{filepath.Join(dir, "lib")}, cfg.SearchPaths); diff != "" {
				t.Errorf("search paths (-want +got):\n%s", diff)
			}
			r := cfg.Resolver()
			got, err := r.Resolve("tree.sdf")
			if err != nil || got != filepath.Join(dir, "lib", "tree.sdf") {
				t.Errorf("Resolve(tree.sdf) = %q, %v", got, err)
			}
			got, err = r.Resolve("hero")
			if err != nil || got != filepath.Join(dir, "chars", "hero.sdf") {
				t.Errorf("Resolve(hero) = %q, %v", got, err)
			}
		})
	}
	if _, err := LoadConfig(filepath.Join(dir, "lib", "tree.sdf")); !errors.Is(err, ErrConfigFormat) {
		t.Errorf("unknown extension error = %v", err)
	}
}
