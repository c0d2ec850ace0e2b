// Package listop implements list editing operations: non-destructive
// descriptions of how to change an ordered list of unique items.
//
// An Op either replaces a list outright (explicit) or describes edits to
// whatever list it is applied to: items to prepend, append, add if
// absent, delete and reorder. Ops compose, so the edits of several
// sources can be stacked from strongest to weakest and applied once.
package listop
