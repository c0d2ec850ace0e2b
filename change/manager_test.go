package change

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/signadot/go-sdf/sdfpath"
)

type call struct {
	layer string
	list  *List
}

type recorder struct {
	calls []call
}

func (r *recorder) LayerChanged(l string, c *List) error {
	r.calls = append(r.calls, call{l, c})
	return nil
}

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

var (
	pA  = sdfpath.MustParse("/A")
	pAB = sdfpath.MustParse("/A/B")
	pC  = sdfpath.MustParse("/C")
)

func summary(l *List) []string {
	res := make([]string, len(l.Entries))
	for i := range l.Entries {
		res[i] = l.Entries[i].String()
	}
	return res
}

func TestBatching(t *testing.T) {
	m := NewManager[string](quiet())
	rec := &recorder{}
	m.Register(rec)
	b := m.OpenBlock()
	m.SpecAdded("l", pA)
	m.FieldChanged("l", pA, "kind")
	m.FieldChanged("l", pA, "comment")
	m.FieldChanged("l", pA, "kind")
	if len(rec.calls) != 0 {
		t.Fatalf("notified inside block")
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("got %d notifications, want 1", len(rec.calls))
	}
	want := []string{"/A: added; fields comment,kind"}
	if diff := cmp.Diff(want, summary(rec.calls[0].list)); diff != "" {
		t.Errorf("change list (-want +got):\n%s", diff)
	}
	if e := rec.calls[0].list.Find(pA); e == nil || !e.HasField("kind") || e.HasField("active") {
		t.Errorf("Find(/A) = %v", e)
	}
	if err := b.Close(); err != nil || len(rec.calls) != 1 {
		t.Errorf("second Close notified again")
	}
}

func TestNestedBlocks(t *testing.T) {
	m := NewManager[string](quiet())
	rec := &recorder{}
	m.Register(rec)
	outer := m.OpenBlock()
	inner := m.OpenBlock()
	m.FieldChanged("l", pC, "kind")
	inner.Close()
	if len(rec.calls) != 0 {
		t.Fatalf("inner close notified")
	}
	m.FieldChanged("m", pA, "kind")
	m.FieldChanged("l", pA, "kind")
	outer.Close()
	if len(rec.calls) != 2 {
		t.Fatalf("got %d notifications, want one per layer", len(rec.calls))
	}
	if rec.calls[0].layer != "l" || rec.calls[1].layer != "m" {
		t.Errorf("layers not notified in first-touch order")
	}
	if diff := cmp.Diff([]string{"/A: fields kind", "/C: fields kind"}, summary(rec.calls[0].list)); diff != "" {
		t.Errorf("entries not path ordered (-want +got):\n%s", diff)
	}
	if rec.calls[0].list.Serial.Compare(rec.calls[1].list.Serial) >= 0 {
		t.Errorf("serials not increasing")
	}
}

func TestImplicitBatch(t *testing.T) {
	m := NewManager[string](quiet())
	rec := &recorder{}
	m.Register(rec)
	m.FieldChanged("l", pA, "kind")
	m.FieldChanged("l", pA, "active")
	if len(rec.calls) != 2 {
		t.Errorf("got %d notifications, want 2", len(rec.calls))
	}
}

func TestCoalescing(t *testing.T) {
	tests := []struct {
		name string
		fn   func(m *Manager[string])
		want []string
	}{
		{
			name: "added then removed cancels",
			fn: func(m *Manager[string]) {
				m.SpecAdded("l", pAB)
				m.FieldChanged("l", pAB, "kind")
				m.SpecRemoved("l", pAB)
				m.FieldChanged("l", pA, "primChildren")
			},
			want: []string{"/A: fields primChildren"},
		},
		{
			name: "removal subsumes descendants",
			fn: func(m *Manager[string]) {
				m.FieldChanged("l", pAB, "kind")
				m.FieldChanged("l", pA, "kind")
				m.SpecRemoved("l", pA)
			},
			want: []string{"/A: removed"},
		},
		{
			name: "move re-keys entries",
			fn: func(m *Manager[string]) {
				m.FieldChanged("l", pAB, "kind")
				m.SpecMoved("l", pA, pC)
			},
			want: []string{"/C: renamed from /A", "/C/B: fields kind"},
		},
		{
			name: "move of added spec is an add",
			fn: func(m *Manager[string]) {
				m.SpecAdded("l", pA)
				m.SpecMoved("l", pA, pC)
			},
			want: []string{"/C: added"},
		},
		{
			name: "move and move back",
			fn: func(m *Manager[string]) {
				m.SpecMoved("l", pA, pC)
				m.SpecMoved("l", pC, pA)
			},
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager[string](quiet())
			rec := &recorder{}
			m.Register(rec)
			b := m.OpenBlock()
			tt.fn(m)
			b.Close()
			var got []string
			if len(rec.calls) > 0 {
				got = summary(rec.calls[0].list)
			}
			if got == nil {
				got = []string{}
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("change list (-want +got):\n%s", diff)
			}
		})
	}
}

func TestObserverFailures(t *testing.T) {
	m := NewManager[string](quiet())
	boom := errors.New("boom")
	var order []string
	m.Register(ObserverFunc[string](func(string, *List) error {
		order = append(order, "err")
		return boom
	}))
	m.Register(ObserverFunc[string](func(string, *List) error {
		order = append(order, "panic")
		panic("bad observer")
	}))
	m.Register(ObserverFunc[string](func(string, *List) error {
		order = append(order, "ok")
		return nil
	}))
	err := m.Do(func() error {
		m.FieldChanged("l", pA, "kind")
		return nil
	})
	if !errors.Is(err, boom) {
		t.Errorf("error %v does not wrap observer error", err)
	}
	var oe *ObserverError
	if !errors.As(err, &oe) || len(oe.Errs) != 2 {
		t.Errorf("expected two observer failures, got %v", err)
	}
	if diff := cmp.Diff([]string{"err", "panic", "ok"}, order); diff != "" {
		t.Errorf("dispatch did not continue (-want +got):\n%s", diff)
	}
}

func TestObserverMutationStartsNewBatch(t *testing.T) {
	m := NewManager[string](quiet())
	var lists []*List
	var reg *Registration[string]
	reg = m.Register(ObserverFunc[string](func(l string, c *List) error {
		lists = append(lists, c)
		if len(lists) == 1 {
			m.FieldChanged("l", pC, "comment")
		}
		return nil
	}))
	b := m.OpenBlock()
	m.FieldChanged("l", pA, "kind")
	b.Close()
	if len(lists) != 2 {
		t.Fatalf("got %d notifications, want 2", len(lists))
	}
	if lists[0].Find(pC) != nil {
		t.Errorf("observer mutation folded into closed batch")
	}
	if lists[1].Find(pC) == nil {
		t.Errorf("observer mutation lost")
	}
	reg.Cancel()
	reg.Cancel()
	m.FieldChanged("l", pA, "kind")
	if len(lists) != 2 {
		t.Errorf("cancelled observer notified")
	}
}

func TestDiscard(t *testing.T) {
	m := NewManager[string](quiet())
	rec := &recorder{}
	m.Register(rec)
	b := m.OpenBlock()
	m.FieldChanged("gone", pA, "kind")
	m.LayerReloaded("kept")
	m.Discard("gone")
	b.Close()
	if len(rec.calls) != 1 || rec.calls[0].layer != "kept" || !rec.calls[0].list.Reloaded {
		t.Errorf("unexpected notifications %+v", rec.calls)
	}
}

func TestScopesAreIndependent(t *testing.T) {
	m := NewManager[string](quiet())
	boom := errors.New("boom")
	var got []string
	m.Register(ObserverFunc[string](func(l string, c *List) error {
		got = append(got, l)
		if l == "x" {
			return boom
		}
		return nil
	}))
	a, b := m.NewScope(), m.NewScope()
	bb := b.OpenBlock()
	b.FieldChanged("y", pC, "kind")
	ab := a.OpenBlock()
	a.FieldChanged("x", pA, "kind")
	if !a.InBlock() || !b.InBlock() || m.InBlock() {
		t.Fatalf("block state leaked between scopes")
	}
	if err := ab.Close(); !errors.Is(err, boom) {
		t.Errorf("closing a's block returned %v, want its observer error", err)
	}
	if diff := cmp.Diff([]string{"x"}, got); diff != "" {
		t.Errorf("after a closed (-want +got):\n%s", diff)
	}
	if err := bb.Close(); err != nil {
		t.Errorf("closing b's block returned %v", err)
	}
	if diff := cmp.Diff([]string{"x", "y"}, got); diff != "" {
		t.Errorf("after b closed (-want +got):\n%s", diff)
	}
}

func TestScopesConcurrent(t *testing.T) {
	m := NewManager[string](quiet())
	var mu sync.Mutex
	counts := map[string]int{}
	m.Register(ObserverFunc[string](func(l string, c *List) error {
		mu.Lock()
		defer mu.Unlock()
		counts[l]++
		return nil
	}))
	var wg sync.WaitGroup
	for _, l := range []string{"x", "y", "z"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := m.NewScope()
			for range 10 {
				s.Do(func() error {
					s.SpecAdded(l, pA)
					s.FieldChanged(l, pAB, "kind")
					return nil
				})
			}
		}()
	}
	wg.Wait()
	if diff := cmp.Diff(map[string]int{"x": 10, "y": 10, "z": 10}, counts); diff != "" {
		t.Errorf("notifications per layer (-want +got):\n%s", diff)
	}
}
