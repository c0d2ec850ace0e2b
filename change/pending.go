package change

import (
	"maps"
	"slices"

	"github.com/oklog/ulid/v2"
	"github.com/signadot/go-sdf/sdfpath"
)

type entry struct {
	oldPath sdfpath.Path
	fields  map[string]struct{}
	added   bool
	removed bool
	renamed bool
}

// pending accumulates the changes of one layer.
type pending struct {
	entries  map[sdfpath.Path]*entry
	reloaded bool
}

func newPending() *pending {
	return &pending{entries: map[sdfpath.Path]*entry{}}
}

func (p *pending) get(path sdfpath.Path) *entry {
	e := p.entries[path]
	if e == nil {
		e = &entry{}
		p.entries[path] = e
	}
	return e
}

func (p *pending) fieldChanged(path sdfpath.Path, field string) {
	e := p.get(path)
	if e.fields == nil {
		e.fields = map[string]struct{}{}
	}
	e.fields[field] = struct{}{}
}

func (p *pending) specAdded(path sdfpath.Path) {
	e := p.get(path)
	e.added = true
}

// specRemoved records the removal of path and its descendants.
func (p *pending) specRemoved(path sdfpath.Path) {
	for q := range p.entries {
		if q != path && q.HasPrefix(path) {
			delete(p.entries, q)
		}
	}
	e := p.get(path)
	if e.added && !e.removed {
		delete(p.entries, path)
		return
	}
	*e = entry{removed: true}
}

// specMoved re-keys the entries under from to to and marks the move.
func (p *pending) specMoved(from, to sdfpath.Path) {
	moved := map[sdfpath.Path]*entry{}
	for q, e := range p.entries {
		if !q.HasPrefix(from) {
			continue
		}
		nq, err := q.ReplacePrefix(from, to)
		if err != nil {
			continue
		}
		delete(p.entries, q)
		moved[nq] = e
	}
	maps.Copy(p.entries, moved)
	e := p.get(to)
	if e.added {
		return
	}
	if !e.renamed {
		e.renamed = true
		e.oldPath = from
	}
}

func (p *pending) list() *List {
	l := &List{Serial: ulid.Make(), Reloaded: p.reloaded}
	for _, path := range slices.SortedFunc(maps.Keys(p.entries), sdfpath.Compare) {
		e := p.entries[path]
		if e.renamed && e.oldPath == path {
			e.renamed = false
			e.oldPath = sdfpath.Path{}
			if !e.added && !e.removed && len(e.fields) == 0 {
				continue
			}
		}
		ent := Entry{
			Path:    path,
			OldPath: e.oldPath,
			Added:   e.added,
			Removed: e.removed,
			Renamed: e.renamed,
		}
		if len(e.fields) > 0 {
			ent.Fields = slices.Sorted(maps.Keys(e.fields))
		}
		l.Entries = append(l.Entries, ent)
	}
	return l
}

func (p *pending) empty() bool {
	return len(p.entries) == 0 && !p.reloaded
}
