package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/loom/internal/compiler"
	"github.com/aretw0/loom/pkg/domain"
)

const defaultBodyField = "message"

// Loader adapts a Loam repository to the GraphLoader interface.
// Every document in the repository is one node.
type Loader struct {
	Repo   *loam.TypedRepository[NodeMetadata]
	parser *compiler.Parser
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[NodeMetadata]) *Loader {
	return &Loader{
		Repo:   repo,
		parser: compiler.NewParser(),
	}
}

// Open initializes a strict, read-only repository over dir.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[NodeMetadata](repo)), nil
}

// Load lists the repository and compiles each document, ordered by document path.
// List only yields the document index; each document is read in full with Get.
func (l *Loader) Load(ctx context.Context) ([]domain.Node, error) {
	listed, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	paths := make([]string, 0, len(listed))
	for _, doc := range listed {
		paths = append(paths, doc.ID)
	}
	sort.Strings(paths)

	seen := make(map[string]string, len(paths))
	nodes := make([]domain.Node, 0, len(paths))
	for _, path := range paths {
		doc, err := l.Repo.Get(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("loam get failed for %s: %w", path, err)
		}

		rawID := doc.Data.ID
		if rawID == "" {
			rawID = path
		}
		id := trimExtension(rawID)

		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", id, existingPath, path)
		}
		seen[id] = path

		n, err := l.compile(id, doc.Data, doc.Content)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func (l *Loader) compile(id string, meta NodeMetadata, body string) (domain.Node, error) {
	if meta.Type == domain.NodeTypeBlueprint {
		if meta.Key == "" {
			return domain.Node{}, fmt.Errorf("blueprint '%s' is missing a key", id)
		}
		content := map[string]string{domain.KeyBlueprintKey: meta.Key}
		if meta.Description != "" {
			content[domain.KeyDescription] = meta.Description
		}
		return domain.Node{ID: id, Type: domain.NodeTypeBlueprint, Content: content}, nil
	}

	spec := meta.spec(id)
	if body = strings.TrimSpace(body); body != "" {
		field := meta.BodyField
		if field == "" {
			field = defaultBodyField
		}
		if _, set := spec.Content[field]; !set {
			content := make(map[string]any, len(spec.Content)+1)
			for k, v := range spec.Content {
				content[k] = v
			}
			content[field] = body
			spec.Content = content
		}
	}
	return l.parser.Node(spec)
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
