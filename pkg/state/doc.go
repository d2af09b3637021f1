/*
Package state implements the shared, path-addressable store that blocks read and write.

Paths use HCL traversal syntax: dotted attributes and bracketed indexes, for example
"order.items[2].qty" or `labels["x-team"]`. Writes never create intermediate containers:
assigning below a parent that does not exist is a fatal StateAssignmentError.
*/
package state
