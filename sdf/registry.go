package sdf

import (
	"runtime"
	"sync"
	"weak"

	"github.com/signadot/go-sdf/debug"
)

// registry maps layer keys to open layers without keeping them alive.
// Entries are dropped when their layer is collected.
type registry struct {
	mu sync.Mutex
	m  map[string]weak.Pointer[Layer]
}

func newRegistry() *registry {
	return &registry{m: map[string]weak.Pointer[Layer]{}}
}

type registryEntry struct {
	r   *registry
	key string
	wp  weak.Pointer[Layer]
}

func (r *registry) get(key string) *Layer {
	r.mu.Lock()
	defer r.mu.Unlock()
	wp, ok := r.m[key]
	if !ok {
		return nil
	}
	l := wp.Value()
	if l == nil {
		delete(r.m, key)
	}
	return l
}

// insert registers l under key unless a live layer is registered there
// already, in which case that layer is returned.
func (r *registry) insert(key string, l *Layer) (*Layer, bool) {
	wp := weak.Make(l)
	r.mu.Lock()
	if old, ok := r.m[key]; ok {
		if x := old.Value(); x != nil {
			r.mu.Unlock()
			return x, false
		}
	}
	r.m[key] = wp
	r.mu.Unlock()
	runtime.AddCleanup(l, func(e registryEntry) { e.r.drop(e.key, e.wp) }, registryEntry{r: r, key: key, wp: wp})
	if debug.Registry() {
		debug.Logf("registry: open %s", key)
	}
	return l, true
}

// drop removes key if it still refers to wp.
func (r *registry) drop(key string, wp weak.Pointer[Layer]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.m[key] == wp {
		delete(r.m, key)
		if debug.Registry() {
			debug.Logf("registry: released %s", key)
		}
	}
}

func (r *registry) layers() []*Layer {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]*Layer, 0, len(r.m))
	for key, wp := range r.m {
		if l := wp.Value(); l != nil {
			res = append(res, l)
			continue
		}
		delete(r.m, key)
	}
	return res
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, wp := range r.m {
		if wp.Value() != nil {
			n++
		}
	}
	return n
}

func (r *registry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.m)
}
