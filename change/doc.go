// Package change batches change records of layers and notifies observers
// once per batch.
//
// Mutations record what they touched in a Scope of a Manager: field
// changes, added, removed and moved specs. Records made inside an open
// Block accumulate per layer and are coalesced; when the outermost Block
// of the scope closes, each changed layer's records become a path-ordered
// List delivered to every Observer registered on the Manager. Each scope
// keeps its own blocks, so layers edited in different scopes are
// delivered independently.
package change
