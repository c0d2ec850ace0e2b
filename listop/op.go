package listop

import (
	"errors"
	"fmt"
	"slices"
)

var ErrBadIndex = errors.New("list op index out of range")

// Kind names one of the sub-lists of an Op.
type Kind int

const (
	Explicit Kind = iota
	Added
	Prepended
	Appended
	Deleted
	Ordered
)

// Kinds lists the sub-list kinds in their canonical order.
var Kinds = []Kind{Explicit, Added, Prepended, Appended, Deleted, Ordered}

func (k Kind) String() string {
	switch k {
	case Explicit:
		return "explicit"
	case Added:
		return "add"
	case Prepended:
		return "prepend"
	case Appended:
		return "append"
	case Deleted:
		return "delete"
	case Ordered:
		return "reorder"
	}
	return "?"
}

// ParseKind returns the kind whose String is s.
func ParseKind(s string) (Kind, bool) {
	for _, k := range Kinds {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Op is a list editing operation. When Explicit is set only ExplicitItems
// matter, and an explicit Op with no items replaces a list with the empty
// list.
type Op[T comparable] struct {
	Explicit       bool
	ExplicitItems  []T
	AddedItems     []T
	PrependedItems []T
	AppendedItems  []T
	DeletedItems   []T
	OrderedItems   []T
}

func CreateExplicit[T comparable](items ...T) Op[T] {
	return Op[T]{Explicit: true, ExplicitItems: slices.Clone(items)}
}

func CreateAdded[T comparable](items ...T) Op[T] {
	return Op[T]{AddedItems: slices.Clone(items)}
}

func CreatePrepended[T comparable](items ...T) Op[T] {
	return Op[T]{PrependedItems: slices.Clone(items)}
}

func CreateAppended[T comparable](items ...T) Op[T] {
	return Op[T]{AppendedItems: slices.Clone(items)}
}

func CreateDeleted[T comparable](items ...T) Op[T] {
	return Op[T]{DeletedItems: slices.Clone(items)}
}

func CreateOrdered[T comparable](items ...T) Op[T] {
	return Op[T]{OrderedItems: slices.Clone(items)}
}

func (o *Op[T]) IsExplicit() bool { return o.Explicit }

// HasKeys reports whether o holds any opinion at all.
func (o *Op[T]) HasKeys() bool {
	if o.Explicit {
		return true
	}
	return len(o.AddedItems)+len(o.PrependedItems)+len(o.AppendedItems)+len(o.DeletedItems)+len(o.OrderedItems) > 0
}

func (o *Op[T]) list(k Kind) *[]T {
	switch k {
	case Explicit:
		return &o.ExplicitItems
	case Added:
		return &o.AddedItems
	case Prepended:
		return &o.PrependedItems
	case Appended:
		return &o.AppendedItems
	case Deleted:
		return &o.DeletedItems
	case Ordered:
		return &o.OrderedItems
	}
	panic(fmt.Sprintf("listop: bad kind %d", k))
}

// Items returns the sub-list of kind k.
func (o *Op[T]) Items(k Kind) []T {
	return *o.list(k)
}

// SetItems replaces the sub-list of kind k. Setting explicit items makes
// o explicit; setting any other kind makes it non-explicit.
func (o *Op[T]) SetItems(k Kind, items []T) {
	*o.list(k) = slices.Clone(items)
	o.Explicit = k == Explicit
}

func (o *Op[T]) AddToExplicit(items ...T) {
	o.ExplicitItems = appendNew(o.ExplicitItems, items)
	o.Explicit = true
}

func (o *Op[T]) AddToAppend(items ...T) {
	o.AppendedItems = appendNew(o.AppendedItems, items)
	o.Explicit = false
}

func (o *Op[T]) AddToPrepend(items ...T) {
	o.PrependedItems = appendNew(o.PrependedItems, items)
	o.Explicit = false
}

func (o *Op[T]) AddToAdd(items ...T) {
	o.AddedItems = appendNew(o.AddedItems, items)
	o.Explicit = false
}

func (o *Op[T]) AddToDelete(items ...T) {
	o.DeletedItems = appendNew(o.DeletedItems, items)
	o.Explicit = false
}

func (o *Op[T]) AddToOrder(items ...T) {
	o.OrderedItems = appendNew(o.OrderedItems, items)
	o.Explicit = false
}

// Clear removes all opinions.
func (o *Op[T]) Clear() {
	*o = Op[T]{}
}

// ClearAndMakeExplicit turns o into an explicit empty list.
func (o *Op[T]) ClearAndMakeExplicit() {
	*o = Op[T]{Explicit: true}
}

func (o Op[T]) Clone() Op[T] {
	return Op[T]{
		Explicit:       o.Explicit,
		ExplicitItems:  slices.Clone(o.ExplicitItems),
		AddedItems:     slices.Clone(o.AddedItems),
		PrependedItems: slices.Clone(o.PrependedItems),
		AppendedItems:  slices.Clone(o.AppendedItems),
		DeletedItems:   slices.Clone(o.DeletedItems),
		OrderedItems:   slices.Clone(o.OrderedItems),
	}
}

// Normalize drops the sub-lists Apply ignores: everything but the
// explicit items of an explicit Op, and the explicit items of any
// other Op. It reports whether anything was dropped.
func (o *Op[T]) Normalize() bool {
	if !o.Explicit {
		if len(o.ExplicitItems) == 0 {
			return false
		}
		o.ExplicitItems = nil
		return true
	}
	if len(o.AddedItems)+len(o.PrependedItems)+len(o.AppendedItems)+len(o.DeletedItems)+len(o.OrderedItems) == 0 {
		return false
	}
	*o = Op[T]{Explicit: true, ExplicitItems: o.ExplicitItems}
	return true
}

// Equal reports whether o and p hold the same sub-lists. A nil and an
// empty sub-list are equal.
func (o Op[T]) Equal(p Op[T]) bool {
	if o.Explicit != p.Explicit {
		return false
	}
	for _, k := range Kinds {
		if !slices.Equal(o.Items(k), p.Items(k)) {
			return false
		}
	}
	return true
}

// ModifyItems calls fn on every item of every sub-list. fn returns the
// replacement and whether to keep the item. Sub-lists stay free of
// duplicates. ModifyItems reports whether anything changed.
func (o *Op[T]) ModifyItems(fn func(T) (T, bool)) bool {
	changed := false
	for _, k := range Kinds {
		l := o.list(k)
		if len(*l) == 0 {
			continue
		}
		res := make([]T, 0, len(*l))
		seen := make(map[T]struct{}, len(*l))
		for _, item := range *l {
			x, keep := fn(item)
			if !keep {
				changed = true
				continue
			}
			if x != item {
				changed = true
			}
			if _, dup := seen[x]; dup {
				changed = true
				continue
			}
			seen[x] = struct{}{}
			res = append(res, x)
		}
		*l = res
	}
	return changed
}

// ReplaceItems replaces n items of the sub-list of kind k starting at
// index with items.
func (o *Op[T]) ReplaceItems(k Kind, index, n int, items ...T) error {
	l := o.list(k)
	if index < 0 || n < 0 || index+n > len(*l) {
		return fmt.Errorf("%w: %s[%d:%d] of %d", ErrBadIndex, k, index, index+n, len(*l))
	}
	*l = slices.Replace(slices.Clone(*l), index, index+n, items...)
	return nil
}

// appendNew appends the items of add not already in dst.
func appendNew[T comparable](dst, add []T) []T {
	for _, x := range add {
		if !slices.Contains(dst, x) {
			dst = append(dst, x)
		}
	}
	return dst
}

func dedup[T comparable](items []T) []T {
	seen := make(map[T]struct{}, len(items))
	res := make([]T, 0, len(items))
	for _, x := range items {
		if _, ok := seen[x]; ok {
			continue
		}
		seen[x] = struct{}{}
		res = append(res, x)
	}
	return res
}

func setOf[T comparable](lists ...[]T) map[T]struct{} {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	m := make(map[T]struct{}, n)
	for _, l := range lists {
		for _, x := range l {
			m[x] = struct{}{}
		}
	}
	return m
}
