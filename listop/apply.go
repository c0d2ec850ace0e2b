package listop

import "slices"

// Apply applies o to base and returns a new list. base is not modified.
//
// For an explicit o the result is ExplicitItems without duplicates.
// Otherwise deleted items are removed from base, prepended items are put
// in front, added items not yet present and appended items at the back.
// Duplicates are then dropped keeping the first occurrence, ordered items
// are reordered and anything deleted is removed, so a delete always wins
// over any other edit of the same item.
func (o *Op[T]) Apply(base []T) []T {
	if o.Explicit {
		return dedup(o.ExplicitItems)
	}
	del := setOf(o.DeletedItems)
	res := make([]T, 0, len(o.PrependedItems)+len(base)+len(o.AddedItems)+len(o.AppendedItems))
	res = append(res, o.PrependedItems...)
	for _, x := range base {
		if _, ok := del[x]; !ok {
			res = append(res, x)
		}
	}
	for _, x := range o.AddedItems {
		if !slices.Contains(res, x) {
			res = append(res, x)
		}
	}
	res = append(res, o.AppendedItems...)
	res = dedup(res)
	res = reorder(res, o.OrderedItems)
	if len(del) == 0 {
		return res
	}
	return slices.DeleteFunc(res, func(x T) bool {
		_, ok := del[x]
		return ok
	})
}

// reorder puts the items of res mentioned in order into the positions
// they occupy, in the sequence given by order. Items not mentioned keep
// their positions. Items of order absent from res are ignored.
func reorder[T comparable](res, order []T) []T {
	if len(order) == 0 || len(res) < 2 {
		return res
	}
	present := setOf(res)
	mentioned := make(map[T]struct{}, len(order))
	seq := make([]T, 0, len(order))
	for _, x := range order {
		if _, ok := present[x]; !ok {
			continue
		}
		if _, ok := mentioned[x]; ok {
			continue
		}
		mentioned[x] = struct{}{}
		seq = append(seq, x)
	}
	j := 0
	for i, x := range res {
		if _, ok := mentioned[x]; ok {
			res[i] = seq[j]
			j++
		}
	}
	return res
}

// ComposeOverWeaker combines strong and weak into one Op whose
// application stands for applying weak and then strong.
//
// An explicit strong is returned as is. An explicit weak yields an
// explicit Op holding strong applied to weak's items. Otherwise the
// sub-lists are merged: strong's prepends come first and its appends
// last, deletes are united, and an item that strong edits is dropped from
// weak's sub-lists so strong's edit takes precedence. strong's ordering
// replaces weak's when present.
func ComposeOverWeaker[T comparable](strong, weak Op[T]) Op[T] {
	if strong.Explicit {
		return strong.Clone()
	}
	if weak.Explicit {
		return CreateExplicit(strong.Apply(dedup(weak.ExplicitItems))...)
	}
	edited := setOf(strong.PrependedItems, strong.AppendedItems, strong.AddedItems, strong.DeletedItems)
	weakOnly := func(l []T) []T {
		res := make([]T, 0, len(l))
		for _, x := range l {
			if _, ok := edited[x]; !ok {
				res = append(res, x)
			}
		}
		return res
	}
	res := Op[T]{
		PrependedItems: dedup(append(slices.Clone(strong.PrependedItems), weakOnly(weak.PrependedItems)...)),
		AppendedItems:  dedup(append(weakOnly(weak.AppendedItems), strong.AppendedItems...)),
		AddedItems:     dedup(append(weakOnly(weak.AddedItems), strong.AddedItems...)),
		DeletedItems:   dedup(append(weakOnly(weak.DeletedItems), strong.DeletedItems...)),
		OrderedItems:   slices.Clone(strong.OrderedItems),
	}
	if len(res.OrderedItems) == 0 {
		res.OrderedItems = slices.Clone(weak.OrderedItems)
	}
	for _, p := range []*[]T{&res.PrependedItems, &res.AppendedItems, &res.AddedItems, &res.DeletedItems, &res.OrderedItems} {
		if len(*p) == 0 {
			*p = nil
		}
	}
	return res
}

// Stack composes ops given strongest first.
func Stack[T comparable](ops ...Op[T]) Op[T] {
	if len(ops) == 0 {
		return Op[T]{}
	}
	res := ops[len(ops)-1].Clone()
	for i := len(ops) - 2; i >= 0; i-- {
		res = ComposeOverWeaker(ops[i], res)
	}
	return res
}
