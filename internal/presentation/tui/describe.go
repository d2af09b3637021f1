package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/loom/pkg/blocks"
	"github.com/aretw0/loom/pkg/domain"
	"github.com/aretw0/loom/pkg/graph"
)

// DescribeGraph writes a markdown overview of the blueprints in g.
func DescribeGraph(name string, g *graph.Graph, blueprints []domain.BlueprintInfo) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", name)

	if len(blueprints) == 0 {
		sb.WriteString("_No blueprints._\n")
		return sb.String()
	}

	sb.WriteString("| Blueprint | Description | Nodes |\n|---|---|---|\n")
	for _, bp := range blueprints {
		fmt.Fprintf(&sb, "| `%s` | %s | %d |\n", bp.Key, cell(bp.Description), len(g.Descendants(bp.NodeID)))
	}

	for _, bp := range blueprints {
		fmt.Fprintf(&sb, "\n## %s\n\n", bp.Key)
		for _, h := range g.Descendants(bp.NodeID) {
			n := g.Node(h)
			fmt.Fprintf(&sb, "- `%s` (%s)", n.ID, n.Type)
			if len(n.Out) > 0 {
				edges := make([]string, 0, len(n.Out))
				for _, e := range n.Out {
					edges = append(edges, e.Outcome+" -> "+e.Target)
				}
				fmt.Fprintf(&sb, ": %s", strings.Join(edges, ", "))
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// DescribeBlocks writes a markdown table of the block catalog, sorted by type.
func DescribeBlocks(catalog map[string]blocks.Metadata) string {
	types := make([]string, 0, len(catalog))
	for t := range catalog {
		types = append(types, t)
	}
	sort.Strings(types)

	var sb strings.Builder
	sb.WriteString("| Type | Name | Outcomes | Description |\n|---|---|---|---|\n")
	for _, t := range types {
		meta := catalog[t]
		outcomes := make([]string, 0, len(meta.Outcomes))
		for o := range meta.Outcomes {
			outcomes = append(outcomes, o)
		}
		sort.Strings(outcomes)
		fmt.Fprintf(&sb, "| `%s` | %s | %s | %s |\n", t, cell(meta.Name), strings.Join(outcomes, ", "), cell(meta.Description))
	}
	return sb.String()
}

func cell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}
