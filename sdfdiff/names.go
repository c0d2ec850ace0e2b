package sdfdiff

import (
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

type EditType int

const (
	EditEqual EditType = iota
	EditInsert
	EditDelete
)

func (t EditType) String() string {
	switch t {
	case EditInsert:
		return "+"
	case EditDelete:
		return "-"
	}
	return "="
}

// Edit is a run of names kept, inserted or deleted.
type Edit struct {
	Type  EditType
	Names []string
}

// NameEdits returns an edit script turning the name list from into to.
// Each distinct name is mapped to one rune and the rune sequences are
// diffed.
func NameEdits(from, to []string) []Edit {
	m := map[string]rune{}
	fromRunes := mapNames(m, from)
	toRunes := mapNames(m, to)
	diffs := diffpatch.New().DiffMainRunes(fromRunes, toRunes, false)

	res := make([]Edit, 0, len(diffs))
	fi, ti := 0, 0
	for i := range diffs {
		diff := &diffs[i]
		n := len([]rune(diff.Text))
		switch diff.Type {
		case diffpatch.DiffDelete:
			res = append(res, Edit{Type: EditDelete, Names: from[fi : fi+n]})
			fi += n
		case diffpatch.DiffEqual:
			res = append(res, Edit{Type: EditEqual, Names: from[fi : fi+n]})
			fi += n
			ti += n
		case diffpatch.DiffInsert:
			res = append(res, Edit{Type: EditInsert, Names: to[ti : ti+n]})
			ti += n
		}
	}
	return res
}

// mapNames assigns runes from the private use area so that the diff
// never sees surrogates or invalid code points.
func mapNames(m map[string]rune, names []string) []rune {
	rs := make([]rune, len(names))
	for i, name := range names {
		r, ok := m[name]
		if !ok {
			r = rune(0xF0000 + len(m))
			m[name] = r
		}
		rs[i] = r
	}
	return rs
}
