package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/loom/internal/compiler"
	"github.com/aretw0/loom/pkg/domain"
)

// Loader implements ports.GraphLoader over a YAML or JSON document on disk.
type Loader struct {
	Path   string
	parser *compiler.Parser
	name   string
}

// NewLoader creates a loader for the document at path.
func NewLoader(path string) *Loader {
	return &Loader{Path: path, parser: compiler.NewParser()}
}

// Load reads and compiles the document. It is re-read on every call.
func (l *Loader) Load(ctx context.Context) ([]domain.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph: %w", err)
	}
	name, nodes, err := l.parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.Path, err)
	}
	l.name = name
	return nodes, nil
}

// Name returns the document name, or the file name without extension when the document has none.
// It is known after the first Load.
func (l *Loader) Name() string {
	if l.name != "" {
		return l.name
	}
	base := filepath.Base(l.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
