package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/loom/pkg/blocks"
	"github.com/aretw0/loom/pkg/domain"
	"github.com/aretw0/loom/pkg/graph"
)

// ValidateGraph checks the graph structure and cross-checks every node against the registry:
// the type must be registered, required fields must be present, edges must use declared
// outcomes, and every block must belong to a blueprint (otherwise it can never run).
func ValidateGraph(g *graph.Graph, reg *blocks.Registry) error {
	errors := g.Problems()

	owned := make(map[graph.Handle]bool)
	for _, c := range g.Containers(domain.NodeTypeBlueprint) {
		for _, h := range g.Descendants(g.Node(c).ID) {
			owned[h] = true
		}
	}

	catalog := reg.Catalog()
	for _, h := range g.All() {
		n := g.Node(h)
		if n.Type == domain.NodeTypeBlueprint {
			continue
		}
		if !owned[h] {
			errors = append(errors, fmt.Sprintf("Node '%s' does not belong to any blueprint", n.ID))
		}

		meta, ok := catalog[n.Type]
		if !ok {
			errors = append(errors, fmt.Sprintf("Node '%s': unknown block type '%s'", n.ID, n.Type))
			continue
		}
		for _, field := range requiredFields(meta) {
			if strings.TrimSpace(n.Content[field]) == "" {
				errors = append(errors, fmt.Sprintf("Node '%s': missing required field '%s'", n.ID, field))
			}
		}
		if len(meta.Outcomes) == 0 {
			continue
		}
		for _, e := range n.Out {
			if _, declared := meta.Outcomes[e.Outcome]; !declared {
				errors = append(errors, fmt.Sprintf("Node '%s': block '%s' never produces outcome '%s'", n.ID, n.Type, e.Outcome))
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errors), strings.Join(errors, "\n- "))
	}

	return nil
}

func requiredFields(meta blocks.Metadata) []string {
	var out []string
	for name, spec := range meta.Fields {
		if spec.Required {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
