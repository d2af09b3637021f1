package tests

import (
	"context"
	"testing"

	"github.com/aretw0/loom/pkg/ports"
)

// GraphLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.GraphLoader.
// expected maps every node id the loader must return to its type.
func GraphLoaderContractTest(t *testing.T, loader ports.GraphLoader, expected map[string]string) {
	t.Helper()

	t.Run("Load_ReturnsAllNodes", func(t *testing.T) {
		nodes, err := loader.Load(context.Background())
		if err != nil {
			t.Fatalf("unexpected error loading graph: %v", err)
		}
		if len(nodes) != len(expected) {
			t.Fatalf("expected %d nodes, got %d", len(expected), len(nodes))
		}
		for _, n := range nodes {
			want, ok := expected[n.ID]
			if !ok {
				t.Errorf("unexpected node %s", n.ID)
				continue
			}
			if n.Type != want {
				t.Errorf("node %s: expected type %s, got %s", n.ID, want, n.Type)
			}
		}
	})

	t.Run("Load_IsRepeatable", func(t *testing.T) {
		first, err := loader.Load(context.Background())
		if err != nil {
			t.Fatalf("first load: %v", err)
		}
		second, err := loader.Load(context.Background())
		if err != nil {
			t.Fatalf("second load: %v", err)
		}
		if len(first) != len(second) {
			t.Errorf("loads disagree: %d vs %d nodes", len(first), len(second))
		}
	})
}
