/*
Package domain contains the core domain models of the Loom execution engine.

It defines the fundamental entities of a blueprint graph, such as Nodes, Edges and Fields,
as well as the records the engine emits while running (RunLog, Mail) and the error taxonomy
shared by every layer. This package is kept pure and free of external dependencies
like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Node: A typed execution unit ("block") in the graph, with literal or template fields.
  - Edge: An (outcome, target) pair selecting which node runs after an outcome is emitted.
  - Field: A node field parsed once into either a Literal or a Template.
  - RunLog: The per-invocation summary of every executed node.
  - Mail: A structured record delivered to the session layer (info or error).
*/
package domain
