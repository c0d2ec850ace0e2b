// Package value maps scene description type names to Go types and converts
// values to and from their literal text form.
//
// A Registry holds the known types. Each Type knows its Go representation,
// its default value and how to convert between a parsed Literal and a Go
// value. Literals are read from a token stream produced by package token,
// so the same literal grammar serves field values, dictionary entries and
// standalone Parse calls.
package value
