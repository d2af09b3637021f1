// Package blocks defines the unit of work of a graph and the registry that maps node types to it.
//
// A block is constructed once per node per invocation around an Instance, which carries the
// node, its execution environment and the observable results (outcome, result, return value).
// The runner reads those results after Run to decide which edges fire.
package blocks
