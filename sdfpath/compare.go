package sdfpath

import (
	"cmp"
	"strings"
)

// Compare returns -1, 0 or 1 as a sorts before, equal to or after b.
// The empty path sorts first.
func Compare(a, b Path) int {
	if a.n == b.n {
		return 0
	}
	if a.n == nil {
		return -1
	}
	if b.n == nil {
		return 1
	}
	ea, eb := a.elements(), b.elements()
	n := min(len(ea), len(eb))
	for i := 0; i < n; i++ {
		if c := compareNode(ea[i], eb[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(len(ea), len(eb))
}

func compareNode(a, b *node) int {
	if a == b {
		return 0
	}
	if c := cmp.Compare(a.kind, b.kind); c != 0 {
		return c
	}
	if c := strings.Compare(a.name, b.name); c != 0 {
		return c
	}
	if c := strings.Compare(a.sel, b.sel); c != 0 {
		return c
	}
	if a.target != nil || b.target != nil {
		return Compare(Path{a.target}, Path{b.target})
	}
	return 0
}

// Less reports whether p sorts before o.
func (p Path) Less(o Path) bool { return Compare(p, o) < 0 }

// Compare compares p with o, see Compare.
func (p Path) Compare(o Path) int { return Compare(p, o) }

// Equal reports whether p and o are the same path.
func (p Path) Equal(o Path) bool { return p.n == o.n }
