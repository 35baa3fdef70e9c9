// Package schema provides an order-preserving JSON Schema document model.
//
// Documents are represented as a tree of [Schema] nodes. Each node is one of
// four kinds: an object with named properties, an array of items, a primitive
// leaf, or a reference pointer ($ref). Property order is preserved through
// unmarshal/marshal round trips, and keywords the model doesn't know about
// are retained verbatim in document order.
package schema
