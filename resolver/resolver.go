// Package resolver maps layer identifiers to concrete locations.
package resolver

import "errors"

var ErrNotFound = errors.New("asset not found")

// Resolver maps an identifier to a concrete location. Resolve fails with
// an error matching ErrNotFound when nothing exists for the identifier.
type Resolver interface {
	Resolve(identifier string) (string, error)
}

// Func adapts a function to the Resolver interface.
type Func func(string) (string, error)

func (f Func) Resolve(id string) (string, error) { return f(id) }
