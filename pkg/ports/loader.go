package ports

import (
	"context"

	"github.com/aretw0/loom/pkg/domain"
)

// GraphLoader defines how the engine retrieves node definitions.
// This allows the storage layer (file, memory) to be decoupled.
type GraphLoader interface {
	// Load returns every node of the graph.
	Load(ctx context.Context) ([]domain.Node, error)
}
