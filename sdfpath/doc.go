// Package sdfpath provides interned, hierarchical namespace paths.
//
// A Path is an immutable sequence of typed elements rooted either at the
// absolute root "/" or at the reflexive relative root ".":
//
//	/World/Geom             prim path
//	/World{shading=red}Geom prim under a variant selection
//	/World{shading=}        variant set path (empty selection)
//	/World/Geom.size        property path
//	/World/Geom.rel[/X].a   relational attribute
//	/World.attr.mapper[/X]  mapper
//	../Sibling.attr         relative property path
//
// Paths are interned: two Paths built from equal text share one
// representation and compare equal with ==, so Path can be used directly
// as a map key. The zero Path is the empty path.
//
// # Ordering
//
// Compare implements a total order over element sequences, compared from
// the root down: element kind first, then element name. A path sorts
// before all paths it prefixes.
package sdfpath
