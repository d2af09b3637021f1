/*
Package expr resolves node fields and evaluates expressions against the shared state.

Fields are either literals or templates containing @{ expression } segments. Expressions
are compiled with CEL, a small sandboxed language offering arithmetic, comparisons,
indexing and attribute access, evaluated over a read-only snapshot of the state merged
with the caller's context. An expression starting with '$' reads the process environment.

Evaluation failures are absorbed: they are logged and yield nil. Writing state through
SetState, on the other hand, fails hard when the target's parent does not exist.
*/
package expr
