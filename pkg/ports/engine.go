package ports

import (
	"context"

	"github.com/aretw0/loom/pkg/domain"
)

// BlueprintRunner is the engine surface used by adapters (e.g., HTTP, MCP).
type BlueprintRunner interface {
	// RunBlueprint runs the blueprint registered under key with the given payload.
	RunBlueprint(ctx context.Context, key string, payload any) (*domain.RunResult, error)

	// Blueprints lists the runnable blueprints, sorted by key.
	Blueprints() []domain.BlueprintInfo
}
