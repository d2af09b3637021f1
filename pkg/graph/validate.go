package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/loom/pkg/domain"
)

// Validate checks for broken links, unknown parents and ambiguous container keys.
func (g *Graph) Validate() error {
	problems := g.Problems()
	if len(problems) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(problems), strings.Join(problems, "\n- "))
	}
	return nil
}

// Problems lists the structural defects reported by Validate, one per entry.
func (g *Graph) Problems() []string {
	var problems []string
	keys := map[string]string{}

	for _, n := range g.nodes {
		for _, e := range n.Out {
			if e.Target == "" {
				problems = append(problems, fmt.Sprintf("node '%s': edge '%s' has no target", n.ID, e.Outcome))
				continue
			}
			if _, ok := g.index[e.Target]; !ok {
				problems = append(problems, fmt.Sprintf("node '%s': edge '%s' points to missing node '%s'", n.ID, e.Outcome, e.Target))
			}
		}
		if n.Parent != "" {
			if _, ok := g.index[n.Parent]; !ok {
				problems = append(problems, fmt.Sprintf("node '%s': parent '%s' not found", n.ID, n.Parent))
			}
		}
		if n.Type == domain.NodeTypeBlueprint {
			key := n.Content[domain.KeyBlueprintKey]
			if key == "" {
				problems = append(problems, fmt.Sprintf("blueprint '%s' has no key", n.ID))
			} else if other, dup := keys[key]; dup {
				problems = append(problems, fmt.Sprintf("blueprint key '%s' used by '%s' and '%s'", key, other, n.ID))
			} else {
				keys[key] = n.ID
			}
		}
	}

	return problems
}
