/*
Package ports defines the driven ports (interfaces) of the loom engine.

These interfaces decouple the runner from the places graphs come from and the places
mail goes to.

# Key Interfaces

  - GraphLoader: Loads node definitions (e.g., from a YAML file or memory).
  - Mailer: Delivers run logs and block messages to the session layer.
  - DistributedLocker: Serializes runs of one blueprint across replicas.
  - StateStore: Persists state snapshots (e.g., a JSON file, optionally encrypted).
*/
package ports
