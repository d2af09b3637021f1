/*
Package graph provides read-only queries over a blueprint node collection.

Nodes live in a flat arena and are addressed by Handle, so traversals that revisit
ancestors never chase pointer cycles. A Graph is immutable once built and is safe
for concurrent readers.
*/
package graph
