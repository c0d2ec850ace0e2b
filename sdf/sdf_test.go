package sdf

import (
	"io"
	"log/slog"
	"testing"

	"github.com/signadot/go-sdf/change"
	"github.com/signadot/go-sdf/sdfpath"
)

func testEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()
	opts = append([]EnvOption{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	env := NewEnv(opts...)
	t.Cleanup(env.Close)
	return env
}

func anon(t *testing.T, env *Env) *Layer {
	t.Helper()
	l, err := CreateAnonymous(env, "test")
	if err != nil {
		t.Fatal(err)
	}
	return l
}

type notification struct {
	layer *Layer
	list  *change.List
}

type recorder struct {
	got []notification
}

func (r *recorder) LayerChanged(l *Layer, c *change.List) error {
	r.got = append(r.got, notification{l, c})
	return nil
}

func record(env *Env) *recorder {
	r := &recorder{}
	env.Changes().Register(r)
	return r
}

func summary(l *change.List) []string {
	res := make([]string, len(l.Entries))
	for i := range l.Entries {
		res[i] = l.Entries[i].String()
	}
	return res
}

func path(s string) sdfpath.Path { return sdfpath.MustParse(s) }

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
