/*
Package loom is a blueprint execution engine: it runs graphs of blocks that read and write a shared state.

Each block produces a named outcome, and the outcome selects which outgoing edges fire next. Field values
are literals or @{...} expressions (CEL) evaluated against the shared state and the run environment.

# Concept

A blueprint is a key-addressable group of nodes. Running it resolves its terminal nodes on demand:
a node runs when at least one upstream node finished with the outcome of the connecting edge (OR-join),
every node runs at most once per invocation, and the first return value ends the invocation.
Whether a failing block aborts the run is decided by the graph: a fault with a wired outcome is absorbed,
an unwired one propagates.

# Key Features

  - On-demand dependency resolution with per-invocation memoization.
  - Sandboxed expressions (CEL) that soft-fail to nil instead of aborting.
  - Fan-out over collections on a bounded worker pool.
  - Built-in blocks for state, flow control, JSON and HTTP; custom blocks through a registry.
  - Run logs delivered to pluggable mailers (slog, memory, Redis streams).

# Usage

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/loom"
		"github.com/aretw0/loom/pkg/adapters/file"
	)

	func main() {
		eng, err := loom.Load(context.Background(), file.NewLoader("loom.yaml"))
		if err != nil {
			log.Fatal(err)
		}

		res, err := eng.RunBlueprint(context.Background(), "checkout", map[string]any{"qty": 2})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(res.Value, res.Changes)
	}
*/
package loom
