package sdfpath

import (
	"runtime"
	"sync"
	"weak"
)

type node struct {
	parent *node
	target *node
	kind   Kind
	name   string
	sel    string
	depth  int
	text   string
}

type nodeKey struct {
	parent *node
	target *node
	kind   Kind
	name   string
	sel    string
}

// table holds weak references only; a node is reclaimed once no Path
// refers to it and the entry is dropped by its cleanup.
var table = struct {
	mu sync.Mutex
	m  map[nodeKey]weak.Pointer[node]
}{m: map[nodeKey]weak.Pointer[node]{}}

func intern(k nodeKey) *node {
	table.mu.Lock()
	defer table.mu.Unlock()
	if wp, ok := table.m[k]; ok {
		if n := wp.Value(); n != nil {
			return n
		}
	}
	n := &node{
		parent: k.parent,
		target: k.target,
		kind:   k.kind,
		name:   k.name,
		sel:    k.sel,
	}
	if k.parent != nil {
		n.depth = k.parent.depth + 1
	}
	n.text = render(n)
	table.m[k] = weak.Make(n)
	runtime.AddCleanup(n, dropEntry, k)
	return n
}

func dropEntry(k nodeKey) {
	table.mu.Lock()
	defer table.mu.Unlock()
	if wp, ok := table.m[k]; ok && wp.Value() == nil {
		delete(table.m, k)
	}
}

// internedCount reports the number of live table entries.
func internedCount() int {
	table.mu.Lock()
	defer table.mu.Unlock()
	return len(table.m)
}

func render(n *node) string {
	p := n.parent
	switch n.kind {
	case RootKind:
		return "/"
	case ReflexiveKind:
		return "."
	case ParentKind:
		if p.kind == ReflexiveKind {
			return ".."
		}
		return p.text + "/.."
	case PrimKind:
		switch p.kind {
		case RootKind:
			return "/" + n.name
		case ReflexiveKind:
			return n.name
		case VariantSelectionKind:
			return p.text + n.name
		}
		return p.text + "/" + n.name
	case VariantSelectionKind:
		return p.text + "{" + n.name + "=" + n.sel + "}"
	case PropertyKind:
		if p.kind == ReflexiveKind {
			return "." + n.name
		}
		if p.kind == ParentKind {
			return p.text + "/." + n.name
		}
		return p.text + "." + n.name
	case RelationalAttributeKind, MapperArgKind:
		return p.text + "." + n.name
	case TargetKind:
		return p.text + "[" + n.target.text + "]"
	case MapperKind:
		return p.text + ".mapper[" + n.target.text + "]"
	case ExpressionKind:
		return p.text + ".expression"
	}
	return ""
}
