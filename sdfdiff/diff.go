// Package sdfdiff computes the structural difference between two stores
// and applies it.
package sdfdiff

import (
	"fmt"

	"github.com/signadot/go-sdf/sdfdata"
	"github.com/signadot/go-sdf/sdfpath"
)

type Kind int

const (
	SpecAdded Kind = iota
	SpecRemoved
	FieldChanged
)

func (k Kind) String() string {
	switch k {
	case SpecAdded:
		return "added"
	case SpecRemoved:
		return "removed"
	case FieldChanged:
		return "changed"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Delta is one difference. Spec deltas carry the spec type; field deltas
// carry the old and new values, with HasOld or HasNew false when the
// field is absent on that side.
type Delta struct {
	Kind   Kind
	Path   sdfpath.Path
	Type   sdfdata.SpecType
	Field  string
	Old    any
	New    any
	HasOld bool
	HasNew bool
}

func (d *Delta) String() string {
	switch d.Kind {
	case SpecAdded:
		return fmt.Sprintf("+ %s %s", d.Type, d.Path)
	case SpecRemoved:
		return fmt.Sprintf("- %s %s", d.Type, d.Path)
	}
	switch {
	case !d.HasOld:
		return fmt.Sprintf("~ %s %s: set", d.Path, d.Field)
	case !d.HasNew:
		return fmt.Sprintf("~ %s %s: cleared", d.Path, d.Field)
	}
	return fmt.Sprintf("~ %s %s: changed", d.Path, d.Field)
}

func specs(s sdfdata.Store) ([]sdfpath.Path, []sdfdata.SpecType) {
	var (
		ps []sdfpath.Path
		ts []sdfdata.SpecType
	)
	s.VisitSpecs(func(p sdfpath.Path, t sdfdata.SpecType) bool {
		ps = append(ps, p)
		ts = append(ts, t)
		return true
	})
	return ps, ts
}

// Diff returns the deltas turning from into to, in path order. A spec
// whose type differs is removed and added again. Added specs are followed
// by one field delta per field they hold.
func Diff(from, to sdfdata.Store) []Delta {
	fp, ft := specs(from)
	tp, tt := specs(to)
	var res []Delta
	added := func(i int) {
		res = append(res, Delta{Kind: SpecAdded, Path: tp[i], Type: tt[i]})
		for _, name := range to.ListFields(tp[i]) {
			v, _ := to.ReadField(tp[i], name)
			res = append(res, Delta{Kind: FieldChanged, Path: tp[i], Field: name, New: v, HasNew: true})
		}
	}
	i, j := 0, 0
	for i < len(fp) || j < len(tp) {
		var c int
		switch {
		case i == len(fp):
			c = 1
		case j == len(tp):
			c = -1
		default:
			c = sdfpath.Compare(fp[i], tp[j])
		}
		switch {
		case c < 0:
			res = append(res, Delta{Kind: SpecRemoved, Path: fp[i], Type: ft[i]})
			i++
		case c > 0:
			added(j)
			j++
		case ft[i] != tt[j]:
			res = append(res, Delta{Kind: SpecRemoved, Path: fp[i], Type: ft[i]})
			added(j)
			i++
			j++
		default:
			res = append(res, fieldDeltas(from, to, fp[i])...)
			i++
			j++
		}
	}
	return res
}

func fieldDeltas(from, to sdfdata.Store, p sdfpath.Path) []Delta {
	var res []Delta
	ff, tf := from.ListFields(p), to.ListFields(p)
	i, j := 0, 0
	for i < len(ff) || j < len(tf) {
		switch {
		case j == len(tf) || (i < len(ff) && ff[i] < tf[j]):
			v, _ := from.ReadField(p, ff[i])
			res = append(res, Delta{Kind: FieldChanged, Path: p, Field: ff[i], Old: v, HasOld: true})
			i++
		case i == len(ff) || tf[j] < ff[i]:
			v, _ := to.ReadField(p, tf[j])
			res = append(res, Delta{Kind: FieldChanged, Path: p, Field: tf[j], New: v, HasNew: true})
			j++
		default:
			a, _ := from.ReadField(p, ff[i])
			b, _ := to.ReadField(p, tf[j])
			if !sdfdata.FieldEqual(a, b) {
				res = append(res, Delta{Kind: FieldChanged, Path: p, Field: ff[i], Old: a, New: b, HasOld: true, HasNew: true})
			}
			i++
			j++
		}
	}
	return res
}

// Apply applies deltas computed by Diff against a store equal to dst.
// Removals run deepest first, then additions and field changes in order.
func Apply(dst sdfdata.Store, deltas []Delta) error {
	for i := len(deltas) - 1; i >= 0; i-- {
		d := &deltas[i]
		if d.Kind != SpecRemoved {
			continue
		}
		if err := dst.EraseSpec(d.Path); err != nil {
			return fmt.Errorf("apply %s: %w", d, err)
		}
	}
	for i := range deltas {
		d := &deltas[i]
		var err error
		switch d.Kind {
		case SpecAdded:
			err = dst.CreateSpec(d.Path, d.Type)
		case FieldChanged:
			if !dst.HasSpec(d.Path) {
				continue
			}
			if d.HasNew {
				err = dst.WriteField(d.Path, d.Field, d.New)
			} else {
				err = dst.EraseField(d.Path, d.Field)
			}
		}
		if err != nil {
			return fmt.Errorf("apply %s: %w", d, err)
		}
	}
	return nil
}
