package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/loom/internal/compiler"
	"github.com/aretw0/loom/pkg/domain"
	"github.com/mohae/deepcopy"
)

// Loader implements ports.GraphLoader using nodes held in memory.
type Loader struct {
	nodes []domain.Node
}

// NewLoader creates a Loader from a YAML or JSON graph document.
func NewLoader(document string) (*Loader, error) {
	_, nodes, err := compiler.NewParser().Parse([]byte(document))
	if err != nil {
		return nil, err
	}
	return &Loader{nodes: nodes}, nil
}

// NewFromNodes creates a Loader from domain objects.
// This improves DX for tests and embedded graphs.
func NewFromNodes(nodes ...domain.Node) (*Loader, error) {
	for _, n := range nodes {
		if n.ID == "" {
			return nil, fmt.Errorf("node missing ID")
		}
	}
	return &Loader{nodes: nodes}, nil
}

// Load returns a copy of the nodes, so callers cannot mutate the loader.
func (l *Loader) Load(ctx context.Context) ([]domain.Node, error) {
	return deepcopy.Copy(l.nodes).([]domain.Node), nil
}
