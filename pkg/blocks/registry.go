package blocks

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/loom/pkg/domain"
)

// FieldSpec describes a content field for authoring tools.
type FieldSpec struct {
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Default     string `json:"default,omitempty" yaml:"default,omitempty"`
}

// OutcomeSpec describes an outcome a block may produce.
type OutcomeSpec struct {
	Description string `json:"description" yaml:"description"`
}

// Metadata is authoring information about a block type. The runner never reads it.
type Metadata struct {
	Name        string                 `json:"name" yaml:"name"`
	Description string                 `json:"description" yaml:"description"`
	Category    string                 `json:"category,omitempty" yaml:"category,omitempty"`
	Fields      map[string]FieldSpec   `json:"fields,omitempty" yaml:"fields,omitempty"`
	Outcomes    map[string]OutcomeSpec `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
}

// Registration binds a node type to its constructor.
type Registration struct {
	Type string
	New  Constructor
	Meta Metadata
}

// Registry manages the available block types.
type Registry struct {
	mu    sync.RWMutex
	types map[string]Registration
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]Registration),
	}
}

// Default is the process-wide registry holding the built-in blocks.
var Default = NewRegistry()

// Register adds a block type to the registry.
// If the type already exists, it is overwritten.
func (r *Registry) Register(blockType string, ctor Constructor, meta Metadata) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if meta.Name == "" {
		meta.Name = blockType
	}
	r.types[blockType] = Registration{Type: blockType, New: ctor, Meta: meta}
}

// Lookup returns the registration for blockType, or domain.ErrBlockTypeNotFound.
func (r *Registry) Lookup(blockType string) (Registration, error) {
	r.mu.RLock()
	reg, ok := r.types[blockType]
	r.mu.RUnlock()

	if !ok {
		return Registration{}, fmt.Errorf("%w: %s", domain.ErrBlockTypeNotFound, blockType)
	}
	return reg, nil
}

// Has reports whether blockType is registered.
func (r *Registry) Has(blockType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[blockType]
	return ok
}

// Types returns the registered types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.types))
	for t := range r.types {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Catalog returns the metadata of every registered type keyed by type.
func (r *Registry) Catalog() map[string]Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]Metadata, len(r.types))
	for t, reg := range r.types {
		out[t] = reg.Meta
	}
	return out
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := NewRegistry()
	for t, reg := range r.types {
		c.types[t] = reg
	}
	return c
}
