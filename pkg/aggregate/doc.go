// Package aggregate merges a root JSON Schema document and a directory of
// related documents into one self-contained document by inlining every
// cross-document $ref.
//
// Resolution is a pure transformation: the input trees are never mutated,
// and every inlined subtree is a deep copy of its target. A set of
// currently-resolving locators is threaded through the recursion so that
// reference cycles fail fast instead of recursing forever.
package aggregate
