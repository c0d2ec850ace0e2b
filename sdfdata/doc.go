// Package sdfdata defines the spec kinds, the field schema and the
// storage interface shared by layers, the text codec and storage
// backends.
//
// A Store maps spec paths to a spec type and a set of named fields. The
// tree structure lives in the fields too: the children fields of a spec
// (primChildren, properties, variantSetChildren, variantChildren) list
// the names of its children in order. Mem is the default store.
package sdfdata
